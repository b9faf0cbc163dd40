// Package events fans studio activity out to presentation layers: phase
// progress, log lines, and charm store changes.
package events

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies what happened.
type Kind string

const (
	KindOperationStarted  Kind = "operation_started"
	KindOperationProgress Kind = "operation_progress"
	KindOperationLog      Kind = "operation_log"
	KindOperationFinished Kind = "operation_finished"
	KindCharmAdded        Kind = "charm_added"
	KindCharmUpdated      Kind = "charm_updated"
)

// DisplayPrefix returns the bracketed prefix for inline display.
func (k Kind) DisplayPrefix() string {
	return fmt.Sprintf("[%s]", strings.ToUpper(string(k)))
}

// Event is a single observable change.
type Event struct {
	// ID is a sequence number for ordering across goroutines
	ID uint64

	Timestamp time.Time
	Kind      Kind

	// Operation is the tracker key ("prove:<charm id>", "forge:<request id>")
	Operation string

	// CharmID is set for events tied to a stored charm
	CharmID string

	Progress int
	Message  string
}

// String returns a formatted string for display.
func (e Event) String() string {
	var b strings.Builder
	b.WriteString(e.Kind.DisplayPrefix())
	if e.Operation != "" {
		b.WriteString(" ")
		b.WriteString(e.Operation)
	}
	if e.Message != "" {
		b.WriteString(" ")
		b.WriteString(e.Message)
	}
	if e.Kind == KindOperationProgress {
		fmt.Fprintf(&b, " %d%%", e.Progress)
	}
	return b.String()
}
