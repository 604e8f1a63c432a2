package tui

import (
	"strconv"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/bpsim/internal/controller"
	"github.com/verte-zerg/bpsim/internal/dataset"
	"github.com/verte-zerg/bpsim/internal/kv"
	"github.com/verte-zerg/bpsim/internal/session"
)

func newTestModel(t *testing.T, opts Options) *Model {
	t.Helper()
	ctrl := controller.New(session.NewStore(kv.NewMemory()), dataset.New())
	if err := ctrl.Start(); err != nil {
		t.Fatalf("start controller: %v", err)
	}
	return NewModel(ctrl, opts)
}

func TestHistoryCapped(t *testing.T) {
	m := newTestModel(t, Options{HistorySize: 3})
	for i := 0; i < 10; i++ {
		m.advance()
	}
	if len(m.history) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(m.history))
	}
	rows := m.historyTbl.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 table rows, got %d", len(rows))
	}
	// Newest reading first.
	current, ok := m.ctrl.Current()
	if !ok {
		t.Fatal("expected current reading")
	}
	if rows[0][1] != strconv.Itoa(current.Systolic) || rows[0][2] != strconv.Itoa(current.Diastolic) {
		t.Fatalf("expected newest reading %d/%d first, got row %v", current.Systolic, current.Diastolic, rows[0])
	}
}

func TestViewRendersReading(t *testing.T) {
	m := newTestModel(t, Options{HistorySize: 3, ShowTime: true})
	out := m.View()
	if !strings.Contains(out, "mmHg") {
		t.Fatalf("expected reading card, got %q", out)
	}
	if !strings.Contains(out, "reading 1 of") {
		t.Fatalf("expected progress line, got %q", out)
	}
}

func TestUpdateAdvancesOnSpace(t *testing.T) {
	m := newTestModel(t, Options{HistorySize: 3})
	before := m.ctrl.Index()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = updated.(*Model)
	if m.ctrl.Index() != before+1 {
		t.Fatalf("expected cursor advanced, got %d", m.ctrl.Index())
	}
}

func TestUpdateQuits(t *testing.T) {
	m := newTestModel(t, Options{HistorySize: 3})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}
