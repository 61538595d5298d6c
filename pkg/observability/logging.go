// Package observability composes logging directives and Prometheus
// metrics once per process start, per spec §9: "logging directives are
// composed once at process start," not reconfigured per call.
package observability

import (
	"log"
	"os"
)

// NewComponentLogger builds a *log.Logger with a bracketed component
// prefix, matching the convention the rest of this codebase's teacher
// lineage uses (e.g. "[DATA BACKEND]", "[V3-BACKEND]").
func NewComponentLogger(component string) *log.Logger {
	return log.New(os.Stderr, "["+component+"] ", log.LstdFlags)
}
