package repository

import (
	"context"

	"switchscan/internal/domain"
)

// ReportStore persists the result of one scan
type ReportStore interface {
	// SaveReport replaces the stored report in a single transaction
	SaveReport(ctx context.Context, run domain.ScanRun, subnets []domain.SubnetSummary, records []domain.DeviceRecord) error

	// Read operations
	Run(ctx context.Context) (*domain.ScanRun, error)
	Subnets(ctx context.Context) ([]domain.SubnetSummary, error)
	Devices(ctx context.Context) ([]domain.DeviceRecord, error)

	// Close releases resources
	Close() error
}
