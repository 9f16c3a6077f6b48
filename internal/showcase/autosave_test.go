package showcase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
)

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	c.delays = append(c.delays, d)
	return t
}

// fireAll runs every timer that was not stopped.
func (c *fakeClock) fireAll() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.stopped = true
			t.f()
		}
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type recordingWriter struct {
	mu     sync.Mutex
	writes []domain.ShowcaseSettings
	err    error
	during func()
}

func (w *recordingWriter) UpdateSettings(_ context.Context, _ string, s domain.ShowcaseSettings) error {
	w.mu.Lock()
	w.writes = append(w.writes, s)
	during := w.during
	w.during = nil
	err := w.err
	w.mu.Unlock()
	if during != nil {
		during()
	}
	return err
}

func strPtr(s string) *string { return &s }

func newTestSaver(w SettingsWriter) (*Autosaver, *fakeClock) {
	clock := &fakeClock{}
	a := NewAutosaver("sc1", domain.ShowcaseSettings{ButtonColor: "#000000", ItemTemplate: "modern"}, w, AutosaveOptions{
		AfterFunc: clock.AfterFunc,
	})
	return a, clock
}

func TestAutosaver_CoalescesBurstIntoOneWrite(t *testing.T) {
	w := &recordingWriter{}
	a, clock := newTestSaver(w)

	a.Update(domain.ShowcaseSettingsPatch{ButtonColor: strPtr("#111111")})
	a.Update(domain.ShowcaseSettingsPatch{ItemTemplate: strPtr("grid")})
	local := a.Update(domain.ShowcaseSettingsPatch{ButtonColor: strPtr("#333333")})

	if local.ButtonColor != "#333333" || local.ItemTemplate != "grid" {
		t.Fatalf("local state = %+v", local)
	}
	if len(w.writes) != 0 {
		t.Fatalf("wrote before the debounce elapsed: %d", len(w.writes))
	}
	if clock.pending() != 1 {
		t.Fatalf("pending timers = %d, want 1", clock.pending())
	}
	if clock.delays[0] != DefaultDebounce {
		t.Errorf("delay = %v, want %v", clock.delays[0], DefaultDebounce)
	}
	if _, st, _ := a.Settings(); st != StateDebounceScheduled {
		t.Errorf("state = %s", st)
	}

	clock.fireAll()

	if len(w.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(w.writes))
	}
	got := w.writes[0]
	if got.ButtonColor != "#333333" || got.ItemTemplate != "grid" {
		t.Errorf("written = %+v, want latest merged state", got)
	}
	if _, st, _ := a.Settings(); st != StateIdle {
		t.Errorf("state after write = %s", st)
	}
}

func TestAutosaver_StaleTimerIgnored(t *testing.T) {
	w := &recordingWriter{}
	a, clock := newTestSaver(w)

	a.Update(domain.ShowcaseSettingsPatch{ButtonColor: strPtr("#111111")})
	first := clock.timers[0]
	a.Update(domain.ShowcaseSettingsPatch{ButtonColor: strPtr("#222222")})

	// A timer that already fired when Stop was called still runs its func.
	first.f()
	if len(w.writes) != 0 {
		t.Fatalf("stale timer wrote %d times", len(w.writes))
	}
	clock.fireAll()
	if len(w.writes) != 1 {
		t.Fatalf("writes = %d", len(w.writes))
	}
}

func TestAutosaver_UpdateDuringWriteRearms(t *testing.T) {
	w := &recordingWriter{}
	a, clock := newTestSaver(w)

	a.Update(domain.ShowcaseSettingsPatch{ButtonColor: strPtr("#111111")})
	w.during = func() {
		a.Update(domain.ShowcaseSettingsPatch{ButtonColor: strPtr("#999999")})
		if _, st, _ := a.Settings(); st != StateWriting {
			t.Errorf("state during write = %s", st)
		}
	}
	clock.fireAll()

	if len(w.writes) != 1 || clock.pending() != 1 {
		t.Fatalf("writes = %d pending = %d", len(w.writes), clock.pending())
	}
	clock.fireAll()
	if len(w.writes) != 2 || w.writes[1].ButtonColor != "#999999" {
		t.Fatalf("second write = %+v", w.writes)
	}
}

func TestAutosaver_WriteFailureKeptUntilNextUpdate(t *testing.T) {
	w := &recordingWriter{err: errors.New("boom")}
	var outcomes []error
	clock := &fakeClock{}
	a := NewAutosaver("sc1", domain.ShowcaseSettings{}, w, AutosaveOptions{
		AfterFunc: clock.AfterFunc,
		OnWrite:   func(err error) { outcomes = append(outcomes, err) },
	})

	a.Update(domain.ShowcaseSettingsPatch{ButtonColor: strPtr("#111111")})
	clock.fireAll()

	_, st, err := a.Settings()
	if st != StateWriteFailed || err == nil {
		t.Fatalf("state = %s err = %v", st, err)
	}
	if clock.pending() != 0 {
		t.Error("failure scheduled an automatic retry")
	}
	if len(outcomes) != 1 || outcomes[0] == nil {
		t.Errorf("OnWrite outcomes = %v", outcomes)
	}

	w.err = nil
	a.Update(domain.ShowcaseSettingsPatch{SecondaryColor: strPtr("#FFFFFF")})
	if _, st, err := a.Settings(); st != StateDebounceScheduled || err != nil {
		t.Errorf("after update state = %s err = %v", st, err)
	}
	clock.fireAll()
	if last := w.writes[len(w.writes)-1]; last.ButtonColor != "#111111" || last.SecondaryColor != "#FFFFFF" {
		t.Errorf("retry wrote %+v", last)
	}
}

func TestAutosaver_Flush(t *testing.T) {
	w := &recordingWriter{}
	a, clock := newTestSaver(w)

	if err := a.Flush(context.Background()); err != nil || len(w.writes) != 0 {
		t.Fatalf("flush on idle wrote %d, err %v", len(w.writes), err)
	}

	a.Update(domain.ShowcaseSettingsPatch{HeaderTemplate: strPtr("banner")})
	if err := a.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(w.writes) != 1 || w.writes[0].HeaderTemplate != "banner" {
		t.Fatalf("writes = %+v", w.writes)
	}
	clock.fireAll()
	if len(w.writes) != 1 {
		t.Errorf("cancelled debounce still wrote: %d", len(w.writes))
	}
}

func TestRegistry(t *testing.T) {
	w := &recordingWriter{}
	clock := &fakeClock{}
	r := NewRegistry(w, AutosaveOptions{AfterFunc: clock.AfterFunc})

	loads := 0
	load := func() domain.ShowcaseSettings { loads++; return domain.ShowcaseSettings{} }
	a := r.Get("sc1", load)
	if b := r.Get("sc1", load); a != b || loads != 1 {
		t.Fatalf("registry did not reuse the autosaver (loads=%d)", loads)
	}
	if _, ok := r.Lookup("sc2"); ok {
		t.Error("Lookup found an unknown showcase")
	}

	a.Update(domain.ShowcaseSettingsPatch{ButtonColor: strPtr("#123456")})
	r.Get("sc2", load).Update(domain.ShowcaseSettingsPatch{ButtonColor: strPtr("#654321")})
	if err := r.FlushAll(context.Background()); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}
	if len(w.writes) != 2 {
		t.Errorf("writes = %d, want 2", len(w.writes))
	}
}

func TestAutosaver_ModifyConcurrentTogglesKeepEveryChange(t *testing.T) {
	w := &recordingWriter{}
	a, clock := newTestSaver(w)
	buttons := []domain.ProfileButton{{ID: "b1"}, {ID: "b2"}, {ID: "b3"}, {ID: "b4"}, {ID: "b5"}}

	var wg sync.WaitGroup
	for _, b := range buttons {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := a.Modify(func(cur domain.ShowcaseSettings) (domain.ShowcaseSettingsPatch, error) {
				ids, err := ToggleHeaderButton(cur.HeaderButtonIDs, id, buttons)
				if err != nil {
					return domain.ShowcaseSettingsPatch{}, err
				}
				return domain.ShowcaseSettingsPatch{HeaderButtonIDs: &ids}, nil
			})
			if err != nil {
				t.Errorf("toggle %s: %v", id, err)
			}
		}(b.ID)
	}
	wg.Wait()

	got, _, _ := a.Settings()
	if len(got.HeaderButtonIDs) != len(buttons) {
		t.Fatalf("header buttons = %v, want all %d", got.HeaderButtonIDs, len(buttons))
	}
	clock.fireAll()
	if len(w.writes) != 1 || len(w.writes[0].HeaderButtonIDs) != len(buttons) {
		t.Errorf("writes = %+v", w.writes)
	}
}

func TestAutosaver_ModifyErrorLeavesStateUntouched(t *testing.T) {
	w := &recordingWriter{}
	a, clock := newTestSaver(w)
	boom := errors.New("rejected")

	got, err := a.Modify(func(domain.ShowcaseSettings) (domain.ShowcaseSettingsPatch, error) {
		return domain.ShowcaseSettingsPatch{ButtonColor: strPtr("#FFFFFF")}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if got.ButtonColor != "#000000" {
		t.Errorf("local state changed: %+v", got)
	}
	if clock.pending() != 0 {
		t.Error("debounce armed for a rejected change")
	}
	if _, st, _ := a.Settings(); st != StateIdle {
		t.Errorf("state = %s", st)
	}
}
