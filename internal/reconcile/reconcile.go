// Package reconcile owns the canonical weighing dataset and merges the full
// snapshots and incremental deltas delivered by the feed.
//
// Every delta names the change token it builds on. A delta is appended only
// when that predecessor is the token of the current dataset; anything else
// means deltas were missed and the caller must refetch the full snapshot.
package reconcile

import "github.com/jask/kgview/internal/weighing"

// Outcome reports what ApplyDelta did.
type Outcome int

const (
	Unchanged        Outcome = iota // duplicate notification
	Applied                         // appended
	ResyncRequired                  // gap detected, dataset untouched
	IgnoredBootstrap                // delta before the first full snapshot
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Applied:
		return "applied"
	case ResyncRequired:
		return "resync-required"
	case IgnoredBootstrap:
		return "ignored-bootstrap"
	}
	return "unknown"
}

// Reconciler holds the ordered dataset and the token it corresponds to.
type Reconciler struct {
	records    []weighing.Record
	lastChange string
	hasChange  bool
}

func New() *Reconciler {
	return &Reconciler{}
}

// ApplyFull replaces the dataset. Row sets held elsewhere are invalid
// afterwards.
func (r *Reconciler) ApplyFull(records []weighing.Record, change string) {
	r.records = append(make([]weighing.Record, 0, len(records)), records...)
	r.lastChange = change
	r.hasChange = true
}

// ApplyDelta merges an incremental update built on predecessor.
func (r *Reconciler) ApplyDelta(records []weighing.Record, change, predecessor string) Outcome {
	switch {
	case r.hasChange && change == r.lastChange:
		return Unchanged
	case r.hasChange && predecessor == r.lastChange:
		r.records = append(r.records, records...)
		r.lastChange = change
		return Applied
	case len(r.records) > 0:
		return ResyncRequired
	}
	return IgnoredBootstrap
}

// Records returns the dataset in arrival order. The slice must not be
// modified.
func (r *Reconciler) Records() []weighing.Record { return r.records }

func (r *Reconciler) Len() int { return len(r.records) }

// LastChange returns the token of the current dataset, if any.
func (r *Reconciler) LastChange() (string, bool) { return r.lastChange, r.hasChange }
