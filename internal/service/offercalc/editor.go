package offercalc

import (
	"errors"
	"sync"

	"laser-offers/internal/constants"
	"laser-offers/internal/metrics"
)

var ErrLineNotFound = errors.New("operation line not found")

// OperationLookup resolves the standard duration of an operation within a
// category catalog.
type OperationLookup interface {
	// SecondsPerUnit returns false when the category catalog is not loaded
	// yet or does not contain the operation.
	SecondsPerUnit(categoryID, operationID string) (float64, bool)
	// Await runs fn once the category catalog is available. fn must not be
	// invoked on the caller's goroutine.
	Await(categoryID string, fn func())
}

// SubmittedLine is the persisted shape of an operation line.
type SubmittedLine struct {
	OperationID string `json:"operation_id"`
	UnitCount   int    `json:"unit_count"`
}

type editorLine struct {
	key        int
	generation uint64
	line       OperationLine
}

// Editor owns the inputs of one offer being edited and keeps the derived
// figures in sync after every mutation.
type Editor struct {
	mu      sync.Mutex
	lookup  OperationLookup
	notify  func(Inputs, Derived)
	scalars Inputs
	lines   []*editorLine
	nextKey int
	derived Derived

	// revision counts recomputations; notifyMu orders deliveries so an
	// older snapshot never reaches notify after a newer one.
	revision  uint64
	notifyMu  sync.Mutex
	delivered uint64
}

// NewEditor starts an editing session from in. notify may be nil; when set it
// receives a snapshot after every recomputation, including the ones caused by
// a catalog resolving later. Calls to notify are serialized and must not
// mutate the editor.
func NewEditor(lookup OperationLookup, in Inputs, notify func(Inputs, Derived)) *Editor {
	e := &Editor{lookup: lookup, notify: notify}
	e.scalars = in
	e.scalars.OperationLines = nil
	for _, l := range in.OperationLines {
		l.Settle()
		e.lines = append(e.lines, &editorLine{key: e.nextKey, line: l})
		e.nextKey++
	}
	e.derived = Recompute(e.inputsLocked())
	return e
}

// Keys returns the keys of the current lines in display order.
func (e *Editor) Keys() []int {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := make([]int, 0, len(e.lines))
	for _, l := range e.lines {
		keys = append(keys, l.key)
	}
	return keys
}

// Snapshot returns copies of the current inputs and derived figures.
func (e *Editor) Snapshot() (Inputs, Derived) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inputsLocked(), e.derived
}

// Line returns a copy of the line with the given key.
func (e *Editor) Line(key int) (OperationLine, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.findLocked(key)
	if l == nil {
		return OperationLine{}, ErrLineNotFound
	}
	return l.line, nil
}

// SetScalars replaces every scalar input; the operation lines are kept.
func (e *Editor) SetScalars(in Inputs) {
	_ = e.mutate(func() error {
		e.scalars = in
		e.scalars.OperationLines = nil
		return nil
	})
}

// AddLine appends an empty line and returns its key.
func (e *Editor) AddLine() int {
	var key int
	_ = e.mutate(func() error {
		key = e.nextKey
		e.nextKey++
		e.lines = append(e.lines, &editorLine{key: key})
		return nil
	})
	return key
}

// RemoveLine drops the line and its contribution.
func (e *Editor) RemoveLine(key int) error {
	return e.mutate(func() error {
		for i, l := range e.lines {
			if l.key == key {
				e.lines = append(e.lines[:i], e.lines[i+1:]...)
				return nil
			}
		}
		return ErrLineNotFound
	})
}

// SetCategory selects a category; the previous operation choice is cleared.
func (e *Editor) SetCategory(key int, categoryID string) error {
	return e.mutate(func() error {
		l := e.findLocked(key)
		if l == nil {
			return ErrLineNotFound
		}
		l.generation++
		l.line = OperationLine{CategoryID: categoryID}
		return nil
	})
}

// SetUnitCount changes the number of operations of a line.
func (e *Editor) SetUnitCount(key int, count int) error {
	return e.mutate(func() error {
		l := e.findLocked(key)
		if l == nil {
			return ErrLineNotFound
		}
		l.line.UnitCount = count
		l.line.Settle()
		return nil
	})
}

// SetOperation selects an operation and takes its duration from the
// catalog, defaulting the count to 1. When the catalog of the line's
// category is still loading the line stays at zero until it arrives.
func (e *Editor) SetOperation(key int, operationID string) error {
	var (
		deferred   bool
		categoryID string
		generation uint64
	)

	err := e.mutate(func() error {
		l := e.findLocked(key)
		if l == nil {
			return ErrLineNotFound
		}
		l.generation++
		l.line.OperationID = operationID
		l.line.SecondsPerUnit = 0
		l.line.UnitCount = 0

		if operationID != "" {
			if secs, ok := e.lookup.SecondsPerUnit(l.line.CategoryID, operationID); ok {
				l.line.SecondsPerUnit = secs
				l.line.UnitCount = 1
			} else if l.line.CategoryID != "" {
				deferred = true
				categoryID = l.line.CategoryID
				generation = l.generation
			}
		}
		l.line.Settle()
		return nil
	})
	if err != nil {
		return err
	}

	if deferred {
		e.lookup.Await(categoryID, func() {
			e.resolve(key, categoryID, operationID, generation)
		})
	}
	return nil
}

// resolve applies a catalog answer that arrived after SetOperation returned.
// It is dropped if the line changed in the meantime.
func (e *Editor) resolve(key int, categoryID, operationID string, generation uint64) {
	_ = e.mutate(func() error {
		l := e.findLocked(key)
		if l == nil || l.generation != generation {
			return errStale
		}
		if l.line.CategoryID != categoryID || l.line.OperationID != operationID {
			return errStale
		}
		secs, ok := e.lookup.SecondsPerUnit(categoryID, operationID)
		if !ok {
			return errStale
		}
		l.line.SecondsPerUnit = secs
		l.line.UnitCount = 1
		l.line.Settle()
		return nil
	})
}

var errStale = errors.New("stale catalog result")

// Submission returns the lines that are worth persisting.
func (e *Editor) Submission() []SubmittedLine {
	in, _ := e.Snapshot()
	return Submission(in.OperationLines)
}

// Submission maps lines to their persisted shape, skipping lines without an
// operation or with no units.
func Submission(lines []OperationLine) []SubmittedLine {
	out := make([]SubmittedLine, 0, len(lines))
	for _, l := range lines {
		if !l.contributes() {
			continue
		}
		out = append(out, SubmittedLine{OperationID: l.OperationID, UnitCount: l.UnitCount})
	}
	return out
}

// mutate runs fn under the lock and, if it succeeded, recomputes and
// notifies outside the lock. A snapshot overtaken by a newer delivery is
// dropped.
func (e *Editor) mutate(fn func() error) error {
	e.mu.Lock()
	if err := fn(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.derived = Recompute(e.inputsLocked())
	e.revision++
	in, d, rev := e.inputsLocked(), e.derived, e.revision
	e.mu.Unlock()

	metrics.Recalculations.WithLabelValues(constants.SourceEditor).Inc()

	if e.notify == nil {
		return nil
	}

	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	if rev <= e.delivered {
		return nil
	}
	e.delivered = rev
	e.notify(in, d)
	return nil
}

func (e *Editor) findLocked(key int) *editorLine {
	for _, l := range e.lines {
		if l.key == key {
			return l
		}
	}
	return nil
}

func (e *Editor) inputsLocked() Inputs {
	in := e.scalars
	in.OperationLines = make([]OperationLine, 0, len(e.lines))
	for _, l := range e.lines {
		in.OperationLines = append(in.OperationLines, l.line)
	}
	return in
}
