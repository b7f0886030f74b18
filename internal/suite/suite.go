// Package suite models a parsed Robot Framework suite and provides a small,
// real reader for it. spec.md §1/§6 treats "the Robot-framework parser" as
// an external collaborator the core only consumes through a variable table
// and an ordered metadata-entry list; this package is that consumer-facing
// shape plus a concrete, minimal reader so the module runs end to end
// against real .robot fixture files rather than a mock.
package suite

import (
	"github.com/insys-icom/medusa/internal/metadata"
	"github.com/insys-icom/medusa/internal/value"
)

// Suite is one parsed suite file: its own variable table plus the ordered,
// still-unresolved medusa:* (and other) metadata entries declared in its
// *** Settings *** section.
type Suite struct {
	Path      string
	Variables value.Table
	Entries   []metadata.RawEntry
}
