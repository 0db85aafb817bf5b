// Package matrix implements the expansion of the declared build dimensions
// into concrete job specifications: the ordered cross-product of runtime and
// operating-system values, plus the explicitly listed extra pairs.
package matrix

import (
	"fmt"

	"github.com/conveyor-ci/conveyor/internal/model"
)

// Entry is one concrete (runtime, os) combination scheduled for independent
// execution.
type Entry struct {
	Runtime string
	OS      string
}

// Label returns the "<os>-<runtime>" identifier used to distinguish per-job
// uploads (coverage reports in particular) at the aggregation service.
func (e Entry) Label() string {
	return e.OS + "-" + e.Runtime
}

// String implements fmt.Stringer in the "(os, runtime)" display form.
func (e Entry) String() string {
	return fmt.Sprintf("(%s, %s)", e.OS, e.Runtime)
}

// Expand generates the job specifications for a matrix: one entry per
// (runtime, os) pair of the cross-product in runtime-major order, followed
// by the include pairs in declaration order. Includes are appended verbatim,
// never deduplicated. Every produced entry is guaranteed to have non-empty
// runtime and os fields, and a matrix that expands to nothing is an error.
func Expand(m *model.Matrix) ([]Entry, error) {
	if m == nil {
		return nil, fmt.Errorf("matrix is nil")
	}

	entries := make([]Entry, 0, len(m.Runtimes)*len(m.OSes)+len(m.Includes))

	for _, runtime := range m.Runtimes {
		if runtime == "" {
			return nil, fmt.Errorf("matrix runtime list contains an empty value")
		}
		for _, osName := range m.OSes {
			if osName == "" {
				return nil, fmt.Errorf("matrix os list contains an empty value")
			}
			entries = append(entries, Entry{Runtime: runtime, OS: osName})
		}
	}

	for i, inc := range m.Includes {
		if inc.Runtime == "" || inc.OS == "" {
			return nil, fmt.Errorf("matrix include #%d must set both runtime and os", i+1)
		}
		entries = append(entries, Entry{Runtime: inc.Runtime, OS: inc.OS})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("matrix expands to no entries")
	}
	return entries, nil
}
