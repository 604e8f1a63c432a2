package controller

import (
	"errors"
	"fmt"
	"testing"

	"github.com/verte-zerg/bpsim/internal/apperr"
	"github.com/verte-zerg/bpsim/internal/dataset"
	"github.com/verte-zerg/bpsim/internal/kv"
	"github.com/verte-zerg/bpsim/internal/session"
)

// indexFailKV fails writes to the index slot only, leaving the availability
// probe and the other slots working.
type indexFailKV struct {
	inner *kv.Memory
	fail  bool
}

func (f *indexFailKV) Get(key string) (string, bool, error) { return f.inner.Get(key) }

func (f *indexFailKV) Set(key, value string) error {
	if f.fail && key == "bp-index" {
		return fmt.Errorf("injected index write failure")
	}
	return f.inner.Set(key, value)
}

func (f *indexFailKV) Delete(key string) error { return f.inner.Delete(key) }

func newController(store kv.Store) *Controller {
	return New(session.NewStore(store), dataset.New())
}

func TestStartFreshPersistsSession(t *testing.T) {
	mem := kv.NewMemory()
	ctrl := newController(mem)
	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	sess := session.NewStore(mem)
	if !sess.Initialized() {
		t.Fatal("expected all three slots stored after fresh start")
	}
	index, err := sess.Index()
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if index != 0 {
		t.Fatalf("expected cursor 0 on fresh session, got %d", index)
	}
	ts, err := sess.Timestamp()
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if ts <= 0 {
		t.Fatalf("expected positive generation timestamp, got %d", ts)
	}

	view := ctrl.View()
	if view.Loading {
		t.Fatal("expected session ready after Start")
	}
	if view.Reading == nil {
		t.Fatal("expected current reading after Start")
	}
	if view.Err != "" {
		t.Fatalf("expected clean view, got error %q", view.Err)
	}
}

func TestRestartResumesCursor(t *testing.T) {
	mem := kv.NewMemory()
	first := newController(mem)
	if err := first.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := first.Next(); err != nil {
			t.Fatalf("Next failed: %v", err)
		}
	}
	firstReading, ok := first.Current()
	if !ok {
		t.Fatal("expected current reading")
	}

	second := newController(mem)
	if err := second.Start(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if second.Index() != 5 {
		t.Fatalf("expected resumed cursor 5, got %d", second.Index())
	}
	resumed, ok := second.Current()
	if !ok {
		t.Fatal("expected current reading after restart")
	}
	if resumed != firstReading {
		t.Fatalf("expected same reading after restart, got %+v vs %+v", resumed, firstReading)
	}
}

func TestStartRegeneratesOnCorruption(t *testing.T) {
	mem := kv.NewMemory()
	first := newController(mem)
	if err := first.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := mem.Set("bp-dataset", "{corrupt"); err != nil {
		t.Fatalf("seed corruption: %v", err)
	}

	second := newController(mem)
	if err := second.Start(); err != nil {
		t.Fatalf("Start after corruption failed: %v", err)
	}
	if second.Index() != 0 {
		t.Fatalf("expected cursor reset after regeneration, got %d", second.Index())
	}
	readings, err := session.NewStore(mem).Dataset()
	if err != nil {
		t.Fatalf("expected regenerated dataset persisted: %v", err)
	}
	for _, r := range readings {
		if !dataset.Validate(r) {
			t.Fatalf("regenerated reading %d/%d invalid", r.Systolic, r.Diastolic)
		}
	}
}

func TestStartRegeneratesOnInvalidReadings(t *testing.T) {
	mem := kv.NewMemory()
	if err := mem.Set("bp-dataset", `[{"systolic":300,"diastolic":10,"timestamp":1}]`); err != nil {
		t.Fatalf("seed invalid dataset: %v", err)
	}
	if err := mem.Set("bp-index", "0"); err != nil {
		t.Fatalf("seed index: %v", err)
	}
	if err := mem.Set("bp-timestamp", "1"); err != nil {
		t.Fatalf("seed timestamp: %v", err)
	}

	ctrl := newController(mem)
	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r, ok := ctrl.Current()
	if !ok {
		t.Fatal("expected current reading")
	}
	if !dataset.Validate(r) {
		t.Fatalf("expected regenerated valid reading, got %d/%d", r.Systolic, r.Diastolic)
	}
}

func TestNextWrapsAround(t *testing.T) {
	ctrl := newController(kv.NewMemory())
	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	size := ctrl.Size()
	if size == 0 {
		t.Fatal("expected non-empty dataset")
	}
	for i := 0; i < size; i++ {
		if err := ctrl.Next(); err != nil {
			t.Fatalf("Next %d failed: %v", i, err)
		}
	}
	if ctrl.Index() != 0 {
		t.Fatalf("expected cursor to wrap to 0, got %d", ctrl.Index())
	}
}

func TestNextSurvivesIndexWriteFailure(t *testing.T) {
	flaky := &indexFailKV{inner: kv.NewMemory()}
	ctrl := newController(flaky)
	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	flaky.fail = true
	err := ctrl.Next()
	if !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("expected STORAGE_ERROR from Next, got %v", err)
	}
	if ctrl.Index() != 1 {
		t.Fatalf("expected in-memory cursor advanced to 1, got %d", ctrl.Index())
	}
	if ctrl.View().Err == "" {
		t.Fatal("expected durability loss surfaced in view")
	}

	flaky.fail = false
	if err := ctrl.Next(); err != nil {
		t.Fatalf("Next after recovery failed: %v", err)
	}
	if ctrl.View().Err != "" {
		t.Fatalf("expected view error cleared, got %q", ctrl.View().Err)
	}
}

func TestStartWithUnavailableStorage(t *testing.T) {
	ctrl := newController(nil)
	if err := ctrl.Start(); err != nil {
		t.Fatalf("expected in-memory session despite unavailable storage, got %v", err)
	}
	view := ctrl.View()
	if view.Reading == nil {
		t.Fatal("expected current reading")
	}
	if view.Err == "" {
		t.Fatal("expected storage unavailability surfaced in view")
	}
	if err := ctrl.Next(); err == nil {
		t.Fatal("expected Next to report lost durability")
	}
	if ctrl.Index() != 1 {
		t.Fatalf("expected cursor advanced in memory, got %d", ctrl.Index())
	}
}

func TestResetClearsAndRegenerates(t *testing.T) {
	mem := kv.NewMemory()
	ctrl := newController(mem)
	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := ctrl.Next(); err != nil {
			t.Fatalf("Next failed: %v", err)
		}
	}

	if err := ctrl.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if ctrl.Index() != 0 {
		t.Fatalf("expected cursor 0 after reset, got %d", ctrl.Index())
	}
	index, err := session.NewStore(mem).Index()
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if index != 0 {
		t.Fatalf("expected persisted cursor 0 after reset, got %d", index)
	}
}
