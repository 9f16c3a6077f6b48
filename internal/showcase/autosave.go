package showcase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
)

// State is the autosave state of one showcase.
type State string

const (
	StateIdle               State = "idle"
	StatePendingLocalChange State = "pending_local_change"
	StateDebounceScheduled  State = "debounce_scheduled"
	StateWriting            State = "writing"
	StateWriteFailed        State = "write_failed"
)

// DefaultDebounce is the trailing debounce of settings writes.
const DefaultDebounce = 1000 * time.Millisecond

const writeTimeout = 10 * time.Second

// SettingsWriter persists showcase settings.
type SettingsWriter interface {
	UpdateSettings(ctx context.Context, showcaseID string, s domain.ShowcaseSettings) error
}

// Timer is the part of *time.Timer the autosaver needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once adapted.
type AfterFunc func(d time.Duration, f func()) Timer

// RealAfterFunc wraps time.AfterFunc.
func RealAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// AutosaveOptions configures an Autosaver.
type AutosaveOptions struct {
	Delay     time.Duration
	AfterFunc AfterFunc
	Logger    *zap.Logger
	// OnWrite observes the outcome of every write.
	OnWrite func(err error)
}

// Autosaver applies settings patches optimistically and coalesces them into
// one trailing write per burst. Last writer wins.
type Autosaver struct {
	showcaseID string
	writer     SettingsWriter
	delay      time.Duration
	after      AfterFunc
	logger     *zap.Logger
	onWrite    func(error)

	mu       sync.Mutex
	current  domain.ShowcaseSettings
	state    State
	dirty    bool
	gen      uint64
	timer    Timer
	inflight chan struct{}
	lastErr  error
}

// NewAutosaver starts in idle with the persisted settings.
func NewAutosaver(showcaseID string, initial domain.ShowcaseSettings, w SettingsWriter, opts AutosaveOptions) *Autosaver {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDebounce
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = RealAfterFunc
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Autosaver{
		showcaseID: showcaseID,
		writer:     w,
		delay:      opts.Delay,
		after:      opts.AfterFunc,
		logger:     opts.Logger,
		onWrite:    opts.OnWrite,
		current:    initial,
		state:      StateIdle,
	}
}

// Update merges patch into the local state, (re)arms the debounce and
// returns the new local state without waiting for the write.
func (a *Autosaver) Update(patch domain.ShowcaseSettingsPatch) domain.ShowcaseSettings {
	s, _ := a.Modify(func(domain.ShowcaseSettings) (domain.ShowcaseSettingsPatch, error) {
		return patch, nil
	})
	return s
}

// Modify derives a patch from the current local state and merges it under
// the same lock, so concurrent read-modify-write callers never lose an
// update. When fn fails the state is left untouched.
func (a *Autosaver) Modify(fn func(current domain.ShowcaseSettings) (domain.ShowcaseSettingsPatch, error)) (domain.ShowcaseSettings, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	patch, err := fn(cloneSettings(a.current))
	if err != nil {
		return cloneSettings(a.current), err
	}
	a.current = patch.Merge(a.current)
	a.dirty = true
	a.lastErr = nil
	if a.inflight != nil {
		// Re-armed when the running write finishes.
		return cloneSettings(a.current), nil
	}
	a.state = StatePendingLocalChange
	a.scheduleLocked()
	return cloneSettings(a.current), nil
}

// Settings returns the local state, its autosave state and the last error.
func (a *Autosaver) Settings() (domain.ShowcaseSettings, State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cloneSettings(a.current), a.state, a.lastErr
}

// Flush cancels the debounce and writes pending state now. It waits for a
// running write first.
func (a *Autosaver) Flush(ctx context.Context) error {
	for {
		a.mu.Lock()
		if ch := a.inflight; ch != nil {
			a.mu.Unlock()
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		a.stopLocked()
		if !a.dirty && a.state != StateWriteFailed {
			a.mu.Unlock()
			return nil
		}
		snapshot, done := a.beginLocked()
		a.mu.Unlock()
		return a.write(ctx, snapshot, done)
	}
}

func (a *Autosaver) scheduleLocked() {
	a.stopLocked()
	a.gen++
	gen := a.gen
	a.timer = a.after(a.delay, func() { a.fire(gen) })
	a.state = StateDebounceScheduled
}

func (a *Autosaver) stopLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
}

func (a *Autosaver) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || a.inflight != nil {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	snapshot, done := a.beginLocked()
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_ = a.write(ctx, snapshot, done)
}

func (a *Autosaver) beginLocked() (domain.ShowcaseSettings, chan struct{}) {
	a.dirty = false
	a.state = StateWriting
	a.inflight = make(chan struct{})
	return cloneSettings(a.current), a.inflight
}

func (a *Autosaver) write(ctx context.Context, s domain.ShowcaseSettings, done chan struct{}) error {
	err := a.writer.UpdateSettings(ctx, a.showcaseID, s)
	if a.onWrite != nil {
		a.onWrite(err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.inflight = nil
	close(done)

	if err != nil {
		a.logger.Error("showcase autosave failed",
			zap.String("showcase_id", a.showcaseID),
			zap.Error(err),
		)
		a.lastErr = err
		a.state = StateWriteFailed
	} else {
		a.logger.Debug("showcase settings saved", zap.String("showcase_id", a.showcaseID))
		a.state = StateIdle
	}

	if a.dirty {
		a.scheduleLocked()
	}
	return err
}

func cloneSettings(s domain.ShowcaseSettings) domain.ShowcaseSettings {
	s.HeaderButtonIDs = append([]string(nil), s.HeaderButtonIDs...)
	return s
}

// Registry keeps one Autosaver per showcase.
type Registry struct {
	writer SettingsWriter
	opts   AutosaveOptions

	mu     sync.Mutex
	savers map[string]*Autosaver
}

// NewRegistry creates an empty registry.
func NewRegistry(w SettingsWriter, opts AutosaveOptions) *Registry {
	return &Registry{writer: w, opts: opts, savers: make(map[string]*Autosaver)}
}

// Get returns the autosaver of a showcase, creating it from load when absent.
func (r *Registry) Get(showcaseID string, load func() domain.ShowcaseSettings) *Autosaver {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.savers[showcaseID]; ok {
		return a
	}
	a := NewAutosaver(showcaseID, load(), r.writer, r.opts)
	r.savers[showcaseID] = a
	return a
}

// Lookup returns the autosaver of a showcase if one exists.
func (r *Registry) Lookup(showcaseID string) (*Autosaver, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.savers[showcaseID]
	return a, ok
}

// FlushAll writes every pending change. Used on shutdown.
func (r *Registry) FlushAll(ctx context.Context) error {
	r.mu.Lock()
	savers := make([]*Autosaver, 0, len(r.savers))
	for _, a := range r.savers {
		savers = append(savers, a)
	}
	r.mu.Unlock()

	var firstErr error
	for _, a := range savers {
		if err := a.Flush(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
