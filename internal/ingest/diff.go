package ingest

import (
	"slices"
	"strings"

	"github.com/sells-group/jmtracker/internal/model"
)

// changedFields returns the watched fields where incoming carries a value that
// differs from stored. The deadline baseline is the original deadline when the
// user has edited it, and two deadlines on the same calendar day are equal.
func changedFields(stored, incoming *model.Posting) []string {
	var changed []string
	for _, field := range model.WatchedFields {
		next, _ := incoming.Get(field)
		next = strings.TrimSpace(next)
		if next == "" {
			continue
		}

		base, _ := stored.Get(field)
		if field == model.ColDeadline && stored.OriginalDeadline != nil {
			base = *stored.OriginalDeadline
		}
		base = strings.TrimSpace(base)

		if field == model.ColDeadline {
			if same, ok := model.SameDay(base, next); ok {
				if !same {
					changed = append(changed, field)
				}
				continue
			}
		}
		if base != next {
			changed = append(changed, field)
		}
	}
	return changed
}

// proposal builds the pending row for a flagged posting. Every watched field
// carries its incoming value; only flagged fields are listed as pending.
func proposal(incoming *model.Posting, flagged []string) model.PendingChange {
	c := model.PendingChange{
		Origin:   incoming.Origin,
		OriginID: incoming.OriginID,
		Proposed: make(map[string]string, len(model.WatchedFields)),
	}
	for _, field := range model.WatchedFields {
		c.Proposed[field], _ = incoming.Get(field)
	}
	c.SetFields(flagged)
	return c
}

// mergePending folds later proposals into the existing pending table. A field
// proposed again takes the later value. A field pending only from an earlier
// run keeps its earlier value and stays pending. Rows for other keys are kept
// in their original order; new keys are appended.
func mergePending(existing, later []model.PendingChange) []model.PendingChange {
	out := make([]model.PendingChange, 0, len(existing)+len(later))
	index := make(map[model.Key]int, len(existing))
	for _, c := range existing {
		index[c.Key()] = len(out)
		out = append(out, clonePending(c))
	}

	for _, next := range later {
		i, ok := index[next.Key()]
		if !ok {
			index[next.Key()] = len(out)
			out = append(out, clonePending(next))
			continue
		}

		prev := &out[i]
		pendingBefore := prev.Fields()
		nextFields := next.Fields()
		for field, v := range next.Proposed {
			if slices.Contains(pendingBefore, field) && !slices.Contains(nextFields, field) {
				continue
			}
			prev.Proposed[field] = v
		}

		fields := pendingBefore
		for _, f := range nextFields {
			if !slices.Contains(fields, f) {
				fields = append(fields, f)
			}
		}
		prev.SetFields(fields)
	}
	return out
}

func clonePending(c model.PendingChange) model.PendingChange {
	proposed := make(map[string]string, len(c.Proposed))
	for k, v := range c.Proposed {
		proposed[k] = v
	}
	c.Proposed = proposed
	return c
}
