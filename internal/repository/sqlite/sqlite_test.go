package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"switchscan/internal/domain"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

func testRun() domain.ScanRun {
	start := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	return domain.ScanRun{
		Prefix:     "192.168",
		Range:      "15-17",
		StartedAt:  start,
		FinishedAt: start.Add(95 * time.Second),
		Complete:   true,
	}
}

func testSubnets() []domain.SubnetSummary {
	return []domain.SubnetSummary{
		{Subnet: "192.168.17.0/24", Octet: 17, Discovered: 4, Excluded: 1, Dropped: 1, Reported: 2, Duration: 30 * time.Second},
		{Subnet: "192.168.15.0/24", Octet: 15, Discovered: 3, Excluded: 1, Reported: 2, Duration: 40 * time.Second},
		{Subnet: "192.168.16.0/24", Octet: 16, Error: "scan 192.168.16.0/24: nmap not found"},
	}
}

func testDevices() []domain.DeviceRecord {
	return []domain.DeviceRecord{
		{IP: "192.168.15.11", MAC: "00:00:0C:12:34:56", Vendor: "Cisco Systems", OpenPorts: "22, 80", SNMPModel: "not responding", Type: domain.DeviceTypePorts, Subnet: "192.168.15.0/24", SSHHostKey: "ssh-rsa SHA256:abc"},
		{IP: "192.168.15.12", MAC: "unknown", Vendor: "unknown", OpenPorts: "-", SNMPModel: "Aruba Switch", Type: domain.DeviceTypeSNMP, Subnet: "192.168.15.0/24"},
		{IP: "192.168.17.2", MAC: "unknown", Vendor: "unknown", OpenPorts: "23", SNMPModel: "not responding", Type: domain.DeviceTypePorts},
	}
}

// ============================================================================
// Tests
// ============================================================================

func TestNew_Migrates(t *testing.T) {
	repo := newTestRepo(t)

	for _, table := range []string{"devices", "subnets", "metadata"} {
		var name string
		err := repo.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assertNoError(t, err)
		assertEqual(t, table, name)
	}
}

func TestEmptyDatabase(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	run, err := repo.Run(ctx)
	assertNoError(t, err)
	if run != nil {
		t.Fatalf("expected nil run, got %+v", run)
	}

	devices, err := repo.Devices(ctx)
	assertNoError(t, err)
	assertEqual(t, 0, len(devices))
}

func TestSaveReport_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.SaveReport(ctx, testRun(), testSubnets(), testDevices()))

	devices, err := repo.Devices(ctx)
	assertNoError(t, err)
	assertEqual(t, testDevices(), devices)

	subnets, err := repo.Subnets(ctx)
	assertNoError(t, err)
	assertEqual(t, 3, len(subnets))
	assertEqual(t, 15, subnets[0].Octet)
	assertEqual(t, 16, subnets[1].Octet)
	assertEqual(t, true, subnets[1].Failed())
	assertEqual(t, 30*time.Second, subnets[2].Duration)

	run, err := repo.Run(ctx)
	assertNoError(t, err)
	assertEqual(t, testRun(), *run)
}

func TestSaveReport_Replaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.SaveReport(ctx, testRun(), testSubnets(), testDevices()))

	second := domain.ScanRun{Prefix: "10.0", Range: "1", Complete: false}
	only := []domain.DeviceRecord{{IP: "10.0.1.5", MAC: "unknown", Vendor: "unknown", OpenPorts: "161", SNMPModel: "not responding", Type: domain.DeviceTypePorts}}
	assertNoError(t, repo.SaveReport(ctx, second, []domain.SubnetSummary{{Subnet: "10.0.1.0/24", Octet: 1, Interrupted: true}}, only))

	devices, err := repo.Devices(ctx)
	assertNoError(t, err)
	assertEqual(t, only, devices)

	subnets, err := repo.Subnets(ctx)
	assertNoError(t, err)
	assertEqual(t, 1, len(subnets))
	assertEqual(t, true, subnets[0].Interrupted)

	run, err := repo.Run(ctx)
	assertNoError(t, err)
	assertEqual(t, "10.0", run.Prefix)
	assertEqual(t, false, run.Complete)
}

func TestSaveReport_DuplicateIPRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.SaveReport(ctx, testRun(), testSubnets(), testDevices()))

	dup := append(testDevices(), testDevices()[0])
	if err := repo.SaveReport(ctx, testRun(), nil, dup); err == nil {
		t.Fatal("expected duplicate IP to fail")
	}

	devices, err := repo.Devices(ctx)
	assertNoError(t, err)
	assertEqual(t, testDevices(), devices)
}

func TestFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.db")
	ctx := context.Background()

	repo, err := New(path)
	assertNoError(t, err)
	assertNoError(t, repo.SaveReport(ctx, testRun(), testSubnets(), testDevices()))
	assertNoError(t, repo.Close())

	reopened, err := New(path)
	assertNoError(t, err)
	defer reopened.Close()

	devices, err := reopened.Devices(ctx)
	assertNoError(t, err)
	assertEqual(t, 3, len(devices))
}

func TestDSN(t *testing.T) {
	assertEqual(t, ":memory:", dsn(":memory:"))
	assertEqual(t, "r.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dsn("r.db"))
	assertEqual(t, "r.db?mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dsn("r.db?mode=rwc"))
}
