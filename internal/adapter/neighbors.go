package adapter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"switchscan/internal/logger"
)

// DefaultARPTable is the kernel neighbour cache
const DefaultARPTable = "/proc/net/arp"

// DefaultOUIDatabases are the nmap MAC prefix files consulted for vendor
// names when a prober has no vendor of its own.
var DefaultOUIDatabases = []string{
	"/usr/share/nmap/nmap-mac-prefixes",
	"/usr/local/share/nmap/nmap-mac-prefixes",
}

// builtinOUI covers common switch and camera vendors when no nmap database
// is installed.
var builtinOUI = map[string]string{
	"00000C": "Cisco Systems",
	"000E38": "Cisco Systems",
	"001B54": "Cisco Systems",
	"00E0FC": "Huawei Technologies",
	"4C5E0C": "Routerboard.com",
	"D4CA6D": "Routerboard.com",
	"E48D8C": "Routerboard.com",
	"24A43C": "Ubiquiti Networks",
	"802AA8": "Ubiquiti Networks",
	"FCECDA": "Ubiquiti Networks",
	"50C7BF": "TP-Link Technologies",
	"F4F26D": "TP-Link Technologies",
	"001438": "Hewlett Packard",
	"3C4A92": "Hewlett Packard",
	"441C12": "Hikvision Digital Technology",
	"4419B6": "Hangzhou Hikvision Digital Technology",
	"C056E3": "Hangzhou Hikvision Digital Technology",
	"3CEF8C": "Zhejiang Dahua Technology",
	"E0508B": "Zhejiang Dahua Technology",
}

// neighborTable resolves MAC addresses from the kernel ARP cache and vendor
// names from the MAC prefix databases. Both probers use it: after a connect
// sweep or an unprivileged nmap -sT run the kernel has resolved every host
// that answered, even though nmap itself reports no MAC.
type neighborTable struct {
	arpPath  string
	ouiFiles []string
	logger   logger.Logger

	ouiOnce sync.Once
	oui     map[string]string
}

func newNeighborTable(log logger.Logger, arpPath string, ouiFiles []string) *neighborTable {
	return &neighborTable{
		arpPath:  arpPath,
		ouiFiles: ouiFiles,
		logger:   log,
	}
}

// readARP parses the kernel neighbour table into ip -> MAC
func (t *neighborTable) readARP() (map[string]string, error) {
	if t.arpPath == "" {
		return map[string]string{}, nil
	}

	f, err := os.Open(t.arpPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseARPTable(f)
}

// lookupARP is readARP that logs and tolerates a missing table
func (t *neighborTable) lookupARP() map[string]string {
	arp, err := t.readARP()
	if err != nil {
		t.logger.Debug().Err(err).Str("path", t.arpPath).Msg("ARP table unavailable, MAC addresses unknown")
		return map[string]string{}
	}
	return arp
}

// vendor resolves the manufacturer of mac from its OUI
func (t *neighborTable) vendor(mac string) string {
	if mac == "" {
		return ""
	}

	t.ouiOnce.Do(func() {
		t.oui = t.loadOUI()
	})

	return t.oui[ouiKey(mac)]
}

func (t *neighborTable) loadOUI() map[string]string {
	table := make(map[string]string, len(builtinOUI))
	for k, v := range builtinOUI {
		table[k] = v
	}

	for _, path := range t.ouiFiles {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		n, err := parseOUIDatabase(f, table)
		f.Close()
		if err != nil {
			t.logger.Warn().Err(err).Str("path", path).Msg("failed to read MAC prefix database")
			continue
		}
		t.logger.Debug().Str("path", path).Int("prefixes", n).Msg("loaded MAC prefix database")
		break
	}

	return table
}

// parseARPTable reads the /proc/net/arp format. Incomplete entries are skipped.
func parseARPTable(r io.Reader) (map[string]string, error) {
	table := make(map[string]string)
	scanner := bufio.NewScanner(r)

	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}

		ip, flags, mac := fields[0], fields[2], fields[3]
		if flags == "0x0" || mac == "00:00:00:00:00:00" {
			continue
		}

		table[ip] = strings.ToUpper(mac)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ARP table: %w", err)
	}

	return table, nil
}

// parseOUIDatabase reads nmap-mac-prefixes lines ("00000C Cisco") into table
func parseOUIDatabase(r io.Reader, table map[string]string) (int, error) {
	scanner := bufio.NewScanner(r)
	n := 0

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		prefix, name, ok := strings.Cut(line, " ")
		if !ok || len(prefix) != 6 {
			continue
		}

		table[strings.ToUpper(prefix)] = strings.TrimSpace(name)
		n++
	}

	return n, scanner.Err()
}

// ouiKey turns "aa:bb:cc:dd:ee:ff" into "AABBCC"
func ouiKey(mac string) string {
	hex := strings.NewReplacer(":", "", "-", "", ".", "").Replace(strings.ToUpper(mac))
	if len(hex) < 6 {
		return ""
	}
	return hex[:6]
}
