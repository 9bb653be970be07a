package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/locatrova/locatrova-admin/internal/api"
)

// LocationCreator is the single API capability the wizard needs at
// submission time.  *api.LocationsService satisfies it.
type LocationCreator interface {
	Create(ctx context.Context, payload *api.Multipart) (*api.Location, error)
}

// Machine drives the linear step sequence of the location-creation flow.  It
// owns the aggregate for the lifetime of the flow; all mutation goes through
// ApplyPatch so draft persistence sees every change.  Navigation is strictly
// one step forward (gated by validation), one step back, or a direct jump to
// an already-visited step.
type Machine struct {
	data    FormData
	current int
	errors  map[string]string
	draft   *DraftStore // nil disables draft persistence

	// UploadProgress, when set, receives the upload fraction of the
	// multipart payload during Submit.
	UploadProgress func(fraction float64)
}

// NewMachine starts a fresh flow, or resumes the persisted draft when one
// exists.  A nil draft store disables persistence entirely.
func NewMachine(draft *DraftStore) *Machine {
	m := &Machine{data: NewFormData(), errors: map[string]string{}, draft: draft}
	if draft != nil {
		if snap, ok := draft.Load(); ok {
			m.data = snap.Data
			if snap.Step >= 0 && snap.Step < len(Steps) {
				m.current = snap.Step
			}
		}
	}
	return m
}

// Data returns a copy of the aggregate.
func (m *Machine) Data() FormData { return m.data }

// StepIndex returns the current step position.
func (m *Machine) StepIndex() int { return m.current }

// Step returns the current step's static configuration.
func (m *Machine) Step() Step { return Steps[m.current] }

// Errors returns the error map of the last failed navigation or submission
// attempt.  It is empty after any successful transition.
func (m *Machine) Errors() map[string]string { return m.errors }

// ApplyPatch merges a partial update into the aggregate and schedules a
// draft write.
func (m *Machine) ApplyPatch(p Patch) {
	m.data = m.data.Apply(p)
	m.scheduleDraft()
}

// Update applies an arbitrary value transformation to the aggregate, used by
// the shell for the indexed With* helpers.
func (m *Machine) Update(fn func(FormData) FormData) {
	m.data = fn(m.data)
	m.scheduleDraft()
}

// Next validates the current step and advances on success, clearing any
// transient errors.  On failure it records the step's error map, routes back
// to the first step owning a failing field, and stays put otherwise.
func (m *Machine) Next() bool {
	if m.current >= len(Steps)-1 {
		return false
	}
	res := ValidateStep(Steps[m.current].ID, m.data)
	if !res.Valid {
		m.errors = res.Errors
		return false
	}
	m.errors = map[string]string{}
	m.current++
	m.scheduleDraft()
	return true
}

// Prev steps back, always permitted off the first step.  Errors are cleared.
func (m *Machine) Prev() bool {
	if m.current == 0 {
		return false
	}
	m.errors = map[string]string{}
	m.current--
	m.scheduleDraft()
	return true
}

// Jump moves directly to an already-visited step (index at or before the
// current one).  Skipping ahead is rejected.
func (m *Machine) Jump(idx int) bool {
	if idx < 0 || idx > m.current {
		return false
	}
	m.errors = map[string]string{}
	m.current = idx
	m.scheduleDraft()
	return true
}

// Submit is the terminal action of the last step.  It re-runs every step's
// rules; on failure it jumps back to the first offending step with the full
// error map and returns a validation error.  On success it serializes the
// aggregate to multipart, hands it to the create API, and clears the draft.
// A failed create keeps the draft so nothing typed is lost.
func (m *Machine) Submit(ctx context.Context, creator LocationCreator) (*api.Location, error) {
	errs, first, ok := ValidateAll(m.data)
	if !ok {
		m.errors = errs
		m.current = int(first)
		return nil, api.NewError(api.KindValidation, fmt.Sprintf("%d field(s) need attention before submitting", len(errs)))
	}
	m.errors = map[string]string{}

	payload, err := BuildSubmission(m.data)
	if err != nil {
		return nil, err
	}
	payload.Progress = m.UploadProgress
	loc, err := creator.Create(ctx, payload)
	if err != nil {
		return nil, err
	}
	if m.draft != nil {
		_ = m.draft.Clear()
	}
	return loc, nil
}

// scheduleDraft snapshots the aggregate and current step for the debounced
// draft writer.
func (m *Machine) scheduleDraft() {
	if m.draft == nil {
		return
	}
	m.draft.Schedule(Snapshot{Data: m.data, Step: m.current, Timestamp: time.Now().Unix()})
}
