// Package domain defines the core types of the switch scanner.
//
// The scan pipeline moves through three value types:
//
// ScanTarget is one IPv4 /24 built from a two-octet Prefix and a third octet.
//
// HostProbeResult is what host/port discovery learned about one live host:
// address, MAC, hardware vendor and the open ports from the interest set.
//
// DeviceRecord is the reportable unit produced by classification. Records are
// only created for hosts that passed vendor exclusion, so no record ever
// carries a camera vendor.
//
// # Errors
//
// ValidationError covers malformed prefixes and octets caught at the input
// boundary. ScanFailure reports a subnet whose discovery could not run; it is
// isolated to that subnet. ErrProbeTimeout only ever shows up in logs, since
// identity probes collapse every failure to an absent identity.
//
// # Design Principles
//
// - Immutable value objects
// - No network or storage dependencies
package domain
