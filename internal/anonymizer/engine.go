// Package anonymizer applies a transformation profile to records and
// drives whole-directory anonymization runs.
package anonymizer

import (
	"log/slog"
	"sort"

	"rt-dicom-toolkit/internal/identity"
	"rt-dicom-toolkit/internal/profile"
	"rt-dicom-toolkit/internal/record"
)

// Change is one field the engine actually rewrote.
type Change struct {
	Field    string `json:"field"`
	Original string `json:"original"`
	New      string `json:"new"`
}

// Skip is a field the engine deliberately left alone after a rule or
// write failure. Skips are data, not errors; the record keeps processing.
type Skip struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ChangeRecord is the per-record outcome of Apply.
type ChangeRecord struct {
	Changes        []Change `json:"changes"`
	Skipped        []Skip   `json:"skipped,omitempty"`
	PrivateRemoved int      `json:"private_removed"`
}

// Changed reports whether the named field was rewritten.
func (c *ChangeRecord) Changed(field string) bool {
	for _, ch := range c.Changes {
		if ch.Field == field {
			return true
		}
	}
	return false
}

// Apply rewrites rec in place according to the profile. Fields in the
// profile but absent from the record are skipped silently. A rule that
// fails to evaluate, or a value the record refuses to accept, leaves the
// field unchanged and is recorded as a skip; nothing aborts the record.
// When removePrivate is set, vendor-private fields are stripped first.
func Apply(rec record.Record, p profile.Profile, removePrivate bool, run *identity.Run) ChangeRecord {
	out := ChangeRecord{}

	if removePrivate {
		out.PrivateRemoved = rec.RemovePrivate()
		if out.PrivateRemoved > 0 {
			slog.Debug("removed private fields", "count", out.PrivateRemoved)
		}
	}

	// Stable field order keeps change logs reproducible across runs.
	fields := make([]string, 0, len(p))
	for f := range p {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		original, ok := rec.Get(field)
		if !ok {
			continue
		}

		newValue, err := p[field].Eval(field, original, run)
		if err != nil {
			slog.Warn("rule evaluation failed, field left unchanged",
				"field", field, "error", err)
			out.Skipped = append(out.Skipped, Skip{Field: field, Reason: "derive failed: " + err.Error()})
			continue
		}

		if newValue == original {
			continue
		}

		if err := rec.Set(field, newValue); err != nil {
			slog.Warn("value rejected by record, field left unchanged",
				"field", field, "error", err)
			out.Skipped = append(out.Skipped, Skip{Field: field, Reason: "write failed: " + err.Error()})
			continue
		}

		out.Changes = append(out.Changes, Change{
			Field:    field,
			Original: original,
			New:      newValue,
		})
	}

	return out
}
