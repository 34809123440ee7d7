// Package adapter contains the network-facing probers of the switch scanner.
//
// # Host discovery
//
// NmapProber drives the nmap binary (connect scan by default, SYN scan when
// privileged) and takes MAC and vendor from nmap's own OUI lookup.
// ConnectProber is the pure Go fallback: a bounded TCP connect sweep plus the
// kernel ARP table and nmap's MAC prefix database when present.
//
// # Identity
//
// SNMPProber issues one SNMPv2c GET for sysDescr.0 with gosnmp.
// CommandProber runs the same query through the net-snmp snmpget binary.
// Both collapse every failure to an absent identity.
//
// # SSH host keys
//
// SSHKeyProber performs an SSH key exchange, records the server host key and
// disconnects before authentication.
package adapter
