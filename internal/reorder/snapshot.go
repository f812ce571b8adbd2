package reorder

import (
	"errors"
	"time"

	"github.com/reorden/backend-go/internal/domain"
)

// PlanSnapshot is an immutable computed plan. Manual corrections never mutate
// a snapshot in place; ApplyEdits folds them into the edit log and derives a
// fresh snapshot through the same pure functions, so the cascade from an
// edited inventory down to the grand total always holds.
type PlanSnapshot struct {
	Request domain.PlanRequest
	Plan    domain.ReorderPlan

	edits []domain.LineEdit
}

// NewPlan computes a snapshot from scratch. Edits already present on the
// request become the initial edit log.
func NewPlan(req domain.PlanRequest) (*PlanSnapshot, error) {
	return compute(req, mergeEdits(nil, req.Edits))
}

// ApplyEdits derives a new snapshot with the given edits folded into the
// log. Later edits to the same product replace earlier ones field by field,
// which makes re-applying an identical edit a no-op.
func (s *PlanSnapshot) ApplyEdits(edits ...domain.LineEdit) (*PlanSnapshot, error) {
	return compute(s.Request, mergeEdits(s.edits, edits))
}

// Edits returns a copy of the snapshot's edit log.
func (s *PlanSnapshot) Edits() []domain.LineEdit {
	out := make([]domain.LineEdit, len(s.edits))
	copy(out, s.edits)
	return out
}

func compute(req domain.PlanRequest, edits []domain.LineEdit) (*PlanSnapshot, error) {
	opts := Options{
		ReferencePeriodDays: req.ReferencePeriodDays,
		JoinMode:            ParseJoinMode(req.JoinMode),
		Edits:               edits,
	}

	lines, stats, err := Reconcile(req.Sales, req.Purchases, req.Outlet, req.WindowStart, req.WindowEnd, opts)
	if err != nil && !errors.Is(err, domain.ErrNoMatchingProducts) {
		return nil, err
	}
	// ErrNoMatchingProducts is carried alongside the (empty) snapshot so the
	// caller can tell it apart from a valid empty order.
	noMatch := err

	horizonDays, err := HorizonDays(req.WindowStart, req.WindowEnd)
	if err != nil {
		return nil, err
	}

	priced := Totalize(lines, req.IncludesZeroQuantity())

	return &PlanSnapshot{
		Request: req,
		Plan: domain.ReorderPlan{
			Lines: priced.Lines,
			Summary: domain.OrderSummary{
				GrandTotal:  priced.GrandTotal,
				HorizonDays: horizonDays,
				LineCount:   len(priced.Lines),
			},
			Stats:      stats,
			ComputedAt: time.Now().UTC(),
		},
		edits: edits,
	}, noMatch
}

// mergeEdits upserts newer edits into the log by normalized product key,
// merging field by field.
func mergeEdits(log []domain.LineEdit, edits []domain.LineEdit) []domain.LineEdit {
	merged := make([]domain.LineEdit, len(log))
	copy(merged, log)

	index := make(map[string]int, len(merged))
	for i, e := range merged {
		index[NormalizeKey(e.ProductKey)] = i
	}

	for _, edit := range edits {
		key := NormalizeKey(edit.ProductKey)
		i, ok := index[key]
		if !ok {
			edit.ProductKey = key
			merged = append(merged, edit)
			index[key] = len(merged) - 1
			continue
		}
		if edit.AvailableInventory != nil {
			merged[i].AvailableInventory = edit.AvailableInventory
		}
		if edit.OrderQuantity != nil {
			merged[i].OrderQuantity = edit.OrderQuantity
		}
	}
	return merged
}
