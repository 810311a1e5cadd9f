package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, calls *int) Model {
	t.Helper()
	m := New(context.Background(), Options{
		Interval: time.Second,
		Refresh: func(ctx context.Context) Frame {
			*calls++
			return Frame{
				Lines:    []string{"[Sonnet]   📁 ~/project", "Usage data unavailable (ccusage not found)"},
				Warnings: []string{"usage: ccusage: executable file not found"},
				At:       time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
			}
		},
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func TestRefreshCommandProducesFrame(t *testing.T) {
	calls := 0
	m := newTestModel(t, &calls)

	msg := m.refresh()()
	next, _ := m.Update(msg)
	m = next.(Model)

	if calls != 1 {
		t.Fatalf("refresh called %d times, want 1", calls)
	}
	if m.loading {
		t.Error("model still loading after a frame arrived")
	}
	view := m.View()
	for _, want := range []string{"[Sonnet]", "Usage data unavailable", "15:04:05", "Warnings (1)", "executable file not found"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestRefreshSkippedWhileLoading(t *testing.T) {
	calls := 0
	m := newTestModel(t, &calls)

	// New models start loading; a tick must not stack a second refresh.
	next, _ := m.Update(tickMsg(time.Now()))
	if !next.(Model).loading {
		t.Fatal("tick cleared the loading state")
	}
	_, cmd := m.startRefresh()
	if cmd != nil {
		t.Error("startRefresh issued a command while a refresh was in flight")
	}
}

func TestManualRefreshAfterFrame(t *testing.T) {
	calls := 0
	m := newTestModel(t, &calls)
	next, _ := m.Update(frameMsg(Frame{At: time.Now()}))
	m = next.(Model)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if !next.(Model).loading {
		t.Error("r did not start a refresh")
	}
	if cmd == nil {
		t.Error("r returned no command")
	}
}

func TestChangeNotificationTriggersRefresh(t *testing.T) {
	ch := make(chan struct{}, 1)
	m := New(context.Background(), Options{Changes: ch, Refresh: func(context.Context) Frame { return Frame{} }})
	m.loading = false

	ch <- struct{}{}
	if msg := m.waitForChange()(); msg != (changedMsg{}) {
		t.Fatalf("waitForChange returned %#v, want changedMsg", msg)
	}
	next, _ := m.Update(changedMsg{})
	if !next.(Model).loading {
		t.Error("change notification did not start a refresh")
	}

	close(ch)
	if msg := m.waitForChange()(); msg != nil {
		t.Errorf("closed channel produced %#v, want nil", msg)
	}
}

func TestNoTickWithoutInterval(t *testing.T) {
	m := New(context.Background(), Options{Refresh: func(context.Context) Frame { return Frame{} }})
	if m.tick() != nil {
		t.Error("tick scheduled with a zero interval")
	}
	if m.waitForChange() != nil {
		t.Error("change waiter scheduled without a channel")
	}
}

func TestQuitKey(t *testing.T) {
	calls := 0
	m := newTestModel(t, &calls)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
