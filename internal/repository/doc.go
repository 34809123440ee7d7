// Package repository defines the storage interface for scan reports.
//
// A report database holds exactly one scan: the run metadata, one row per
// scanned subnet and one row per reported device. Saving a new report
// replaces the previous one. The sqlite subpackage provides the
// implementation used by the "sqlite" output format.
package repository
