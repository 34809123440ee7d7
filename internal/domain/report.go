package domain

import "time"

// SubnetSummary is the per-subnet outcome of a scan, without its records
type SubnetSummary struct {
	Subnet      string        `json:"subnet" yaml:"subnet"`
	Octet       int           `json:"octet" yaml:"octet"`
	Discovered  int           `json:"discovered" yaml:"discovered"`
	Excluded    int           `json:"excluded" yaml:"excluded"`
	Dropped     int           `json:"dropped" yaml:"dropped"`
	Reported    int           `json:"reported" yaml:"reported"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	Interrupted bool          `json:"interrupted,omitempty" yaml:"interrupted,omitempty"`
}

// Failed reports whether discovery could not run for the subnet
func (s SubnetSummary) Failed() bool {
	return s.Error != ""
}

// ScanRun describes one multi-subnet scan invocation
type ScanRun struct {
	Prefix     string    `json:"prefix" yaml:"prefix"`
	Range      string    `json:"range" yaml:"range"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Complete   bool      `json:"complete" yaml:"complete"`
}
