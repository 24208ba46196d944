package desk

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/ledger"

	"github.com/rs/zerolog/log"
)

// SignalSource delivers "the ledger changed elsewhere" events.
// infra.EventSubscriber implements it over Redis pub/sub.
type SignalSource interface {
	Subscribe(ctx context.Context) (<-chan dto.Event, error)
}

// ViewState is what a session view renders.
type ViewState struct {
	Snapshot Snapshot
	Duration string
	At       time.Time
}

// SessionView keeps a rendered session fresh while it is on screen. It runs a
// fixed-interval ticker that only recomputes the duration string, and, when a
// SignalSource is given, reloads the session whenever another desk reports a
// change. Stop tears both down and waits for them.
type SessionView struct {
	orch     *Orchestrator
	signals  SignalSource
	interval time.Duration
	onChange func(ViewState)
	now      func() time.Time

	emitMu      sync.Mutex
	stopped     atomic.Bool
	started     atomic.Bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
	stopOnce    sync.Once
}

// NewSessionView builds a view. signals may be nil. onChange is called with
// every new state and never after Stop returns; it must not call Stop itself.
func NewSessionView(orch *Orchestrator, signals SignalSource, interval time.Duration, onChange func(ViewState)) *SessionView {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionView{
		orch:     orch,
		signals:  signals,
		interval: interval,
		onChange: onChange,
		now:      time.Now,
	}
}

// Start launches the ticker and the signal listener, then emits the current state.
// A failure to subscribe is logged and the view runs on the ticker alone.
func (v *SessionView) Start(ctx context.Context) {
	if !v.started.CompareAndSwap(false, true) {
		return
	}
	ctx, v.cancel = context.WithCancel(ctx)
	v.unsubscribe = v.orch.Subscribe(func(Snapshot) { v.emit() })

	v.wg.Add(1)
	go v.tick(ctx)

	if v.signals != nil {
		events, err := v.signals.Subscribe(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("desk: live refresh unavailable")
		} else {
			v.wg.Add(1)
			go v.listen(ctx, events)
		}
	}

	v.emit()
}

// Stop cancels the ticker and listener and waits for both to exit.
func (v *SessionView) Stop() {
	v.stopOnce.Do(func() {
		v.stopped.Store(true)
		if v.cancel != nil {
			v.cancel()
		}
		v.wg.Wait()
		if v.unsubscribe != nil {
			v.unsubscribe()
		}
		// Wait out an emit already running on another goroutine.
		v.emitMu.Lock()
		v.emitMu.Unlock()
	})
}

func (v *SessionView) tick(ctx context.Context) {
	defer v.wg.Done()
	t := time.NewTicker(v.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			v.emit()
		}
	}
}

func (v *SessionView) listen(ctx context.Context, events <-chan dto.Event) {
	defer v.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			log.Debug().Str("event", ev.Type).Int64("session_id", ev.SessionID).Msg("desk: refresh signal")
			if err := v.orch.LoadCurrentSession(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("desk: refresh after signal failed")
			}
		}
	}
}

// emit renders the current state. Late results after Stop are dropped.
func (v *SessionView) emit() {
	if v.stopped.Load() || v.onChange == nil {
		return
	}
	v.emitMu.Lock()
	defer v.emitMu.Unlock()
	if v.stopped.Load() {
		return
	}

	now := v.now()
	snap := v.orch.Snapshot()
	duration := ledger.SessionDuration("", now)
	if snap.State == StateOpen && snap.Session != nil {
		duration = ledger.SessionDuration(snap.Session.OpenedAt, now)
	}
	v.onChange(ViewState{Snapshot: snap, Duration: duration, At: now})
}
