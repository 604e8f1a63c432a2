// Package controller orchestrates session restore, advancement, and recovery.
package controller

import (
	"fmt"

	"github.com/verte-zerg/bpsim/internal/apperr"
	"github.com/verte-zerg/bpsim/internal/dataset"
	"github.com/verte-zerg/bpsim/internal/model"
	"github.com/verte-zerg/bpsim/internal/session"
)

// Controller holds the in-memory session state and keeps it durable through
// the session store when the store cooperates. Storage failures are never
// fatal: the in-memory session stays usable and the failure message is
// surfaced through the view.
type Controller struct {
	store  *session.Store
	engine *dataset.Engine

	readings []model.Reading
	index    int
	started  bool
	lastErr  string
}

// New builds a controller over the given store and engine.
func New(store *session.Store, engine *dataset.Engine) *Controller {
	return &Controller{store: store, engine: engine}
}

// Start restores the persisted session when one exists and is intact, and
// otherwise generates and persists a fresh one. Generation failure is the
// only fatal outcome; storage failures degrade to an in-memory session.
func (c *Controller) Start() error {
	if c.store.Initialized() {
		if err := c.restore(); err == nil {
			c.started = true
			c.lastErr = ""
			return nil
		}
	}
	return c.fresh()
}

// restore loads and validates all persisted state. Any storage or
// validation failure aborts the restore so the caller can regenerate.
func (c *Controller) restore() error {
	readings, err := c.store.Dataset()
	if err != nil {
		return err
	}
	if len(readings) == 0 {
		return apperr.Validation("restored dataset is empty", "")
	}
	for _, r := range readings {
		if !dataset.Validate(r) {
			return apperr.Validation(
				"restored reading violates range invariants",
				fmt.Sprintf("%d/%d", r.Systolic, r.Diastolic),
			)
		}
	}
	index, err := c.store.Index()
	if err != nil {
		return err
	}
	if _, err := c.store.Timestamp(); err != nil {
		return err
	}
	c.readings = readings
	c.index = index
	return nil
}

// fresh generates a new dataset, resets the cursor, and persists all three
// slots. Persistence failure leaves the session running in memory.
func (c *Controller) fresh() error {
	readings, err := c.engine.Generate()
	if err != nil {
		return err
	}
	c.readings = readings
	c.index = 0
	c.started = true
	c.lastErr = ""

	if err := c.persistAll(readings); err != nil {
		c.lastErr = err.Error()
	}
	return nil
}

func (c *Controller) persistAll(readings []model.Reading) error {
	if err := c.store.StoreDataset(readings); err != nil {
		return err
	}
	if err := c.store.StoreIndex(0); err != nil {
		return err
	}
	return c.store.StoreTimestamp(firstTimestamp(readings))
}

// firstTimestamp recovers the generation base time: the smallest synthetic
// timestamp in the shuffled dataset.
func firstTimestamp(readings []model.Reading) int64 {
	if len(readings) == 0 {
		return 0
	}
	min := readings[0].Timestamp
	for _, r := range readings[1:] {
		if r.Timestamp < min {
			min = r.Timestamp
		}
	}
	return min
}

// Next advances the cursor by one with wraparound and persists it. The
// in-memory cursor advances even when the write fails, so the session
// remains usable; the returned error reports the lost durability.
func (c *Controller) Next() error {
	if len(c.readings) == 0 {
		return apperr.Generation("no dataset loaded", "")
	}
	c.index = (c.index + 1) % len(c.readings)
	if err := c.store.StoreIndex(c.index); err != nil {
		c.lastErr = err.Error()
		return err
	}
	c.lastErr = ""
	return nil
}

// Current returns the reading under the cursor, false when no dataset is
// loaded.
func (c *Controller) Current() (model.Reading, bool) {
	return dataset.ReadingAt(c.readings, c.index)
}

// Index returns the in-memory cursor position.
func (c *Controller) Index() int {
	return c.index
}

// Size returns the loaded dataset length.
func (c *Controller) Size() int {
	return len(c.readings)
}

// Reset clears the persisted slots and starts a fresh session.
func (c *Controller) Reset() error {
	if err := c.store.Clear(); err != nil {
		c.lastErr = err.Error()
	}
	return c.fresh()
}

// View exposes the display contract: current reading or nil, a loading
// flag, and the latest storage error message.
func (c *Controller) View() model.SessionView {
	view := model.SessionView{Loading: !c.started, Err: c.lastErr}
	if r, ok := c.Current(); ok {
		view.Reading = &r
	}
	return view
}
