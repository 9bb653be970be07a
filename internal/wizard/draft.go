package wizard

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/locatrova/locatrova-admin/internal/storage"
)

// Fixed storage key of the single draft slot.
const draftKey = "locatrova.locationDraft"

// DefaultDebounce is the quiet period after the last mutation before the
// draft is persisted.
const DefaultDebounce = 2 * time.Second

// Snapshot is the persisted form of an in-progress wizard session.
type Snapshot struct {
	Data      FormData `json:"data"`
	Step      int      `json:"step"`
	Timestamp int64    `json:"timestamp"`
}

// DraftStore persists wizard snapshots with a debounce: each mutation arms
// (or re-arms) a timer, and only after the quiet period does the snapshot
// hit storage.  Flush writes immediately, for deterministic shutdown.
type DraftStore struct {
	mu      sync.Mutex
	store   *storage.Store
	delay   time.Duration
	timer   *time.Timer
	dirty   bool
	pending Snapshot
}

// NewDraftStore builds a DraftStore over the given storage.  A non-positive
// delay falls back to DefaultDebounce.
func NewDraftStore(store *storage.Store, delay time.Duration) *DraftStore {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &DraftStore{store: store, delay: delay}
}

// Schedule records snap as the pending snapshot and re-arms the debounce
// timer.  Earlier pending snapshots that never fired are superseded.
func (d *DraftStore) Schedule(snap Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = snap
	d.dirty = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		_ = d.Flush()
	})
}

// Flush writes the pending snapshot now, if there is one, and disarms the
// timer.
func (d *DraftStore) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.dirty {
		return nil
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	raw, err := json.Marshal(d.pending)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := d.store.Set(draftKey, string(raw)); err != nil {
		return fmt.Errorf("persist draft: %w", err)
	}
	d.dirty = false
	return nil
}

// Load reads the persisted snapshot, reporting whether one exists.  A
// corrupt draft is treated as absent; there is nothing useful to restore
// from it.
func (d *DraftStore) Load() (Snapshot, bool) {
	raw, ok := d.store.Get(draftKey)
	if !ok {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, false
	}
	return snap, true
}

// Clear disarms the timer, drops the pending snapshot and deletes the
// persisted draft.  The caller's in-memory aggregate is untouched.
func (d *DraftStore) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.dirty = false
	d.pending = Snapshot{}
	return d.store.Delete(draftKey)
}

// Dirty reports whether a mutation is waiting to be persisted.  The shell
// uses this for its unsaved-state warning on exit.
func (d *DraftStore) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}
