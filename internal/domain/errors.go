package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPrefix = errors.New("invalid network prefix")
	ErrInvalidOctet  = errors.New("invalid octet")
	ErrInvalidRange  = errors.New("invalid octet range")

	// ErrProbeTimeout marks an identity query that ran out of its timeout/retry budget
	ErrProbeTimeout = errors.New("probe timed out")
)

// ValidationError describes input rejected at the boundary
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ScanFailure reports that host discovery could not run for a target.
// It is scoped to one subnet and never aborts a multi-subnet scan.
type ScanFailure struct {
	Target ScanTarget
	Err    error
}

// NewScanFailure wraps err as a discovery failure of target
func NewScanFailure(target ScanTarget, err error) *ScanFailure {
	return &ScanFailure{Target: target, Err: err}
}

func (e *ScanFailure) Error() string {
	return fmt.Sprintf("scan of %s failed: %v", e.Target.CIDR(), e.Err)
}

func (e *ScanFailure) Unwrap() error {
	return e.Err
}

// IsScanFailure reports whether err is (or wraps) a ScanFailure
func IsScanFailure(err error) bool {
	var sf *ScanFailure
	return errors.As(err, &sf)
}
