package sqlite

import (
	"database/sql"
	"time"

	"switchscan/internal/domain"
)

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// deviceRow holds the scanned columns of one devices row
type deviceRow struct {
	ip, mac, vendor, openPorts, snmpModel, deviceType string
	subnet, sshHostKey                                sql.NullString
}

func (r *deviceRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ip, &r.mac, &r.vendor, &r.openPorts, &r.snmpModel, &r.deviceType,
		&r.subnet, &r.sshHostKey,
	}
}

func (r *deviceRow) toDomain() domain.DeviceRecord {
	return domain.DeviceRecord{
		IP:         r.ip,
		MAC:        r.mac,
		Vendor:     r.vendor,
		OpenPorts:  r.openPorts,
		SNMPModel:  r.snmpModel,
		Type:       domain.DeviceType(r.deviceType),
		Subnet:     nullToString(r.subnet),
		SSHHostKey: nullToString(r.sshHostKey),
	}
}

func deviceInsertArgs(position int, d domain.DeviceRecord) []interface{} {
	return []interface{}{
		d.IP, position, d.MAC, d.Vendor, d.OpenPorts, d.SNMPModel, string(d.Type),
		stringToNull(d.Subnet), stringToNull(d.SSHHostKey),
	}
}

// subnetRow holds the scanned columns of one subnets row
type subnetRow struct {
	subnet                                         string
	octet, discovered, excluded, dropped, reported int
	durationMS                                     int64
	errMsg                                         sql.NullString
	interrupted                                    int
}

func (r *subnetRow) scanArgs() []interface{} {
	return []interface{}{
		&r.subnet, &r.octet, &r.discovered, &r.excluded, &r.dropped, &r.reported,
		&r.durationMS, &r.errMsg, &r.interrupted,
	}
}

func (r *subnetRow) toDomain() domain.SubnetSummary {
	return domain.SubnetSummary{
		Subnet:      r.subnet,
		Octet:       r.octet,
		Discovered:  r.discovered,
		Excluded:    r.excluded,
		Dropped:     r.dropped,
		Reported:    r.reported,
		Duration:    time.Duration(r.durationMS) * time.Millisecond,
		Error:       nullToString(r.errMsg),
		Interrupted: r.interrupted != 0,
	}
}

func subnetInsertArgs(s domain.SubnetSummary) []interface{} {
	return []interface{}{
		s.Subnet, s.Octet, s.Discovered, s.Excluded, s.Dropped, s.Reported,
		s.Duration.Milliseconds(), stringToNull(s.Error), boolToInt(s.Interrupted),
	}
}
