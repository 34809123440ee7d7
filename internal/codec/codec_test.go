package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"switchscan/internal/domain"
)

func sampleRecords() []domain.DeviceRecord {
	return []domain.DeviceRecord{
		{
			IP:         "192.168.15.11",
			MAC:        "00:00:0C:12:34:56",
			Vendor:     "Cisco Systems",
			OpenPorts:  "22, 80",
			SNMPModel:  domain.NotResponding,
			Type:       domain.DeviceTypePorts,
			Subnet:     "192.168.15.0/24",
			SSHHostKey: "ssh-rsa SHA256:abc",
		},
		{
			IP:        "192.168.15.12",
			MAC:       domain.Unknown,
			Vendor:    domain.Unknown,
			OpenPorts: domain.NoPorts,
			SNMPModel: "Aruba Switch, with a comma",
			Type:      domain.DeviceTypeSNMP,
			Subnet:    "192.168.15.0/24",
		},
	}
}

func TestForFormat(t *testing.T) {
	for _, name := range Formats {
		exporter, err := ForFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, exporter.Format())
	}

	exporter, err := ForFormat(" Excel ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, exporter.Format())

	_, err = ForFormat("pdf")
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, err = ImporterFor(FormatXLSX)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"switches_192-168-15_20250101-1200.xlsx", FormatXLSX},
		{"report.CSV", FormatCSV},
		{"/tmp/out.json", FormatJSON},
		{"out.yml", FormatYAML},
		{"hosts-inventory.yaml", FormatAnsible},
		{"noext", ""},
		{"report.db", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFromPath(tt.path), tt.path)
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".xlsx", Extension(FormatXLSX))
	assert.Equal(t, ".xlsx", Extension(""))
	assert.Equal(t, ".yaml", Extension(FormatAnsible))
	assert.Equal(t, ".csv", Extension(FormatCSV))
}

func TestCSVCodec(t *testing.T) {
	var buf bytes.Buffer
	c := NewCSVCodec()

	require.NoError(t, c.Export(sampleRecords(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "IP,MAC,Fabricante,Portas Abertas,Modelo SNMP,Tipo", lines[0])
	assert.Equal(t, `192.168.15.11,00:00:0C:12:34:56,Cisco Systems,"22, 80",not responding,ports-based`, lines[1])

	records, err := c.Parse(&buf)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Aruba Switch, with a comma", records[1].SNMPModel)
	assert.Equal(t, domain.DeviceTypeSNMP, records[1].Type)
}

func TestCSVCodec_BadHeader(t *testing.T) {
	_, err := NewCSVCodec().Parse(strings.NewReader("a,b,c,d,e,f\n"))
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestJSONCodec(t *testing.T) {
	var buf bytes.Buffer
	c := NewJSONCodec()

	require.NoError(t, c.Export(sampleRecords(), &buf))
	assert.Contains(t, buf.String(), `"ssh_host_key": "ssh-rsa SHA256:abc"`)
	assert.Contains(t, buf.String(), fmt.Sprintf(`"count": %d`, len(sampleRecords())))

	records, err := c.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), records)
}

func TestJSONCodec_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONCodec().Export(nil, &buf))
	assert.JSONEq(t, `{"count": 0, "devices": []}`, buf.String())
}

func TestJSONCodec_MissingIP(t *testing.T) {
	_, err := NewJSONCodec().Parse(strings.NewReader(`{"devices": [{"ip": "10.0.0.1"}, {"mac": "-"}]}`))
	assert.ErrorIs(t, err, ErrMissingIP)
	assert.Contains(t, err.Error(), "device 1")
}

func TestYAMLCodec(t *testing.T) {
	var buf bytes.Buffer
	c := NewYAMLCodec()

	require.NoError(t, c.Export(sampleRecords(), &buf))
	assert.Contains(t, buf.String(), "open_ports: [22, 80]")

	records, err := c.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), records)
}

func TestAnsibleCodec(t *testing.T) {
	var buf bytes.Buffer
	records := append(sampleRecords(), domain.DeviceRecord{
		IP:        "192.168.15.13",
		MAC:       domain.Unknown,
		Vendor:    domain.Unknown,
		OpenPorts: "80",
		SNMPModel: domain.NotResponding,
		Type:      domain.DeviceTypeUnconfirmed,
	})

	require.NoError(t, NewAnsibleCodec().Export(records, &buf))

	var inv struct {
		All struct {
			Children map[string]struct {
				Hosts map[string]map[string]interface{} `yaml:"hosts"`
			} `yaml:"children"`
		} `yaml:"all"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &inv))

	require.Contains(t, inv.All.Children, GroupPortsBased)
	require.Contains(t, inv.All.Children, GroupSNMPBased)
	require.Contains(t, inv.All.Children, GroupUnconfirmed)

	sw := inv.All.Children[GroupPortsBased].Hosts["192.168.15.11"]
	assert.Equal(t, "192.168.15.11", sw["ansible_host"])
	assert.Equal(t, "Cisco Systems", sw["vendor"])
	assert.Equal(t, "ssh-rsa SHA256:abc", sw["ssh_host_key"])
	assert.Equal(t, []interface{}{22, 80}, sw["open_ports"])

	snmp := inv.All.Children[GroupSNMPBased].Hosts["192.168.15.12"]
	assert.NotContains(t, snmp, "open_ports")
}

func TestXLSXCodec(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewXLSXCodec().Export(sampleRecords(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.ReportColumns, rows[0])
	assert.Equal(t, sampleRecords()[0].Row(), rows[1])

	width, err := f.GetColWidth(SheetName, "A")
	require.NoError(t, err)
	assert.Equal(t, float64(len("192.168.15.11")+columnPadding), width)
}

func TestXLSXCodec_ColumnWidthCapped(t *testing.T) {
	var buf bytes.Buffer
	records := []domain.DeviceRecord{{
		IP:        "10.0.0.1",
		SNMPModel: strings.Repeat("x", 200),
		Type:      domain.DeviceTypeSNMP,
	}}
	require.NoError(t, NewXLSXCodec().Export(records, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	width, err := f.GetColWidth(SheetName, "E")
	require.NoError(t, err)
	assert.Equal(t, float64(maxColumnWidth), width)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	require.NoError(t, WriteFile(path, NewJSONCodec(), sampleRecords()))

	records, err := ReadFile(path, NewJSONCodec())
	require.NoError(t, err)
	assert.Len(t, records, 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be renamed away")
}

type failingExporter struct{}

func (failingExporter) Export([]domain.DeviceRecord, io.Writer) error {
	return errors.New("disk on fire")
}
func (failingExporter) Format() string { return "broken" }

func TestWriteFile_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	err := WriteFile(path, failingExporter{}, sampleRecords())
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
