package codec

import (
	"fmt"
	"io"

	"switchscan/internal/domain"

	"gopkg.in/yaml.v3"
)

// Inventory group names, one per device type
const (
	GroupPortsBased  = "ports_based"
	GroupSNMPBased   = "snmp_based"
	GroupUnconfirmed = "unconfirmed"
)

// AnsibleCodec exports devices as an Ansible YAML inventory
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return FormatAnsible
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string                 `yaml:"ansible_host"`
	Vars        map[string]interface{} `yaml:",inline"`
}

// GroupFor maps a device type to its inventory group
func GroupFor(t domain.DeviceType) string {
	switch t {
	case domain.DeviceTypePorts:
		return GroupPortsBased
	case domain.DeviceTypeSNMP:
		return GroupSNMPBased
	default:
		return GroupUnconfirmed
	}
}

// Export groups devices by type. Hosts are keyed by IP.
func (c *AnsibleCodec) Export(records []domain.DeviceRecord, w io.Writer) error {
	inv := ansibleInventory{
		All: ansibleGroup{
			Children: make(map[string]ansibleGroupDef),
		},
	}

	for _, r := range records {
		group := GroupFor(r.Type)

		def, ok := inv.All.Children[group]
		if !ok {
			def = ansibleGroupDef{Hosts: make(map[string]ansibleHost)}
			inv.All.Children[group] = def
		}

		vars := map[string]interface{}{
			"mac":        r.MAC,
			"vendor":     r.Vendor,
			"snmp_model": r.SNMPModel,
		}
		if ports := r.Ports(); len(ports) > 0 {
			vars["open_ports"] = ports
		}
		if r.Subnet != "" {
			vars["subnet"] = r.Subnet
		}
		if r.SSHHostKey != "" {
			vars["ssh_host_key"] = r.SSHHostKey
		}

		def.Hosts[r.IP] = ansibleHost{AnsibleHost: r.IP, Vars: vars}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}

	return nil
}
