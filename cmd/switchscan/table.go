package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"switchscan/internal/domain"
	"switchscan/internal/service"
)

// printTable writes records as an aligned table under the report header
func printTable(out io.Writer, records []domain.DeviceRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No switches detected.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(domain.ReportColumns, "\t"))
	for _, r := range records {
		row := r.Row()
		for i, v := range row {
			if v == "" {
				row[i] = "-"
			}
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d switch(es) detected\n", len(records))
}

func printFailures(out io.Writer, failed []service.SubnetResult) {
	if len(failed) == 0 {
		return
	}

	fmt.Fprintf(out, "\n%d subnet(s) could not be scanned:\n", len(failed))
	for _, f := range failed {
		fmt.Fprintf(out, "  %s: %v\n", f.Target.CIDR(), f.Err)
	}
}
