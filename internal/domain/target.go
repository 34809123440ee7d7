package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxThirdOctet is the highest third octet accepted for a /24 target
	MaxThirdOctet = 254
)

// Prefix is the validated first two octets of an IPv4 network ("A.B")
type Prefix struct {
	a, b uint8
}

// ParsePrefix validates a two-octet network prefix such as "192.168"
func ParsePrefix(s string) (Prefix, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Prefix{}, &ValidationError{Field: "prefix", Value: s, Err: ErrInvalidPrefix,
			Reason: "expected two dot-separated octets, e.g. 192.168"}
	}

	var octets [2]uint8
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || !isDigits(p) || n > 255 {
			return Prefix{}, &ValidationError{Field: "prefix", Value: s, Err: ErrInvalidPrefix,
				Reason: fmt.Sprintf("octet %q is not a number between 0 and 255", p)}
		}
		octets[i] = uint8(n)
	}

	return Prefix{a: octets[0], b: octets[1]}, nil
}

// MustParsePrefix is ParsePrefix for constants; it panics on invalid input
func MustParsePrefix(s string) Prefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the prefix in "A.B" form
func (p Prefix) String() string {
	return fmt.Sprintf("%d.%d", p.a, p.b)
}

// Slug returns the prefix with dashes ("192-168"), suitable for file names
func (p Prefix) Slug() string {
	return fmt.Sprintf("%d-%d", p.a, p.b)
}

// ScanTarget is a single IPv4 /24 range
type ScanTarget struct {
	prefix Prefix
	octet  uint8
}

// NewScanTarget builds the /24 for prefix and third octet (0-254)
func NewScanTarget(prefix Prefix, octet int) (ScanTarget, error) {
	if err := validateOctet("octet", octet); err != nil {
		return ScanTarget{}, err
	}
	return ScanTarget{prefix: prefix, octet: uint8(octet)}, nil
}

// Prefix returns the two-octet network prefix
func (t ScanTarget) Prefix() Prefix {
	return t.prefix
}

// Octet returns the third octet
func (t ScanTarget) Octet() int {
	return int(t.octet)
}

// Network returns the first three octets ("192.168.15")
func (t ScanTarget) Network() string {
	return fmt.Sprintf("%s.%d", t.prefix, t.octet)
}

// CIDR returns the target in CIDR notation ("192.168.15.0/24")
func (t ScanTarget) CIDR() string {
	return t.Network() + ".0/24"
}

// HostAddresses returns the 254 usable host addresses of the /24
func (t ScanTarget) HostAddresses() []string {
	ips := make([]string, 0, 254)
	for i := 1; i <= 254; i++ {
		ips = append(ips, fmt.Sprintf("%s.%d", t.Network(), i))
	}
	return ips
}

// Contains reports whether ip is inside the /24
func (t ScanTarget) Contains(ip string) bool {
	return strings.HasPrefix(ip, t.Network()+".")
}

// String implements fmt.Stringer
func (t ScanTarget) String() string {
	return t.CIDR()
}

// OctetRange is an inclusive, ascending range of third octets
type OctetRange struct {
	Start int
	End   int
}

// NewOctetRange validates start <= end, both within 0-254
func NewOctetRange(start, end int) (OctetRange, error) {
	if err := validateOctet("start", start); err != nil {
		return OctetRange{}, err
	}
	if err := validateOctet("end", end); err != nil {
		return OctetRange{}, err
	}
	if end < start {
		return OctetRange{}, &ValidationError{Field: "end", Value: strconv.Itoa(end), Err: ErrInvalidRange,
			Reason: fmt.Sprintf("range end must be >= start (%d)", start)}
	}
	return OctetRange{Start: start, End: end}, nil
}

// SingleOctet is the range containing only octet
func SingleOctet(octet int) (OctetRange, error) {
	return NewOctetRange(octet, octet)
}

// Len returns the number of subnets in the range
func (r OctetRange) Len() int {
	return r.End - r.Start + 1
}

// Targets expands the range into ScanTargets in ascending order
func (r OctetRange) Targets(prefix Prefix) ([]ScanTarget, error) {
	targets := make([]ScanTarget, 0, r.Len())
	for o := r.Start; o <= r.End; o++ {
		t, err := NewScanTarget(prefix, o)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// String returns "15" for a single octet and "15-17" for a range
func (r OctetRange) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

func validateOctet(field string, octet int) error {
	if octet < 0 || octet > MaxThirdOctet {
		return &ValidationError{Field: field, Value: strconv.Itoa(octet), Err: ErrInvalidOctet,
			Reason: fmt.Sprintf("must be between 0 and %d", MaxThirdOctet)}
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
