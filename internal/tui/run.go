package tui

import (
	"context"
	"errors"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/desk"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the desk screen until the user quits. signals may be nil, in which
// case the screen only refreshes on its own actions and the duration ticker.
func Run(ctx context.Context, adapter *desk.Adapter, signals desk.SignalSource, tick time.Duration, opts ...tea.ProgramOption) error {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, adapter), opts...)

	view := desk.NewSessionView(adapter.Orchestrator(), signals, tick, func(s desk.ViewState) {
		p.Send(viewStateMsg(s))
	})
	// Send blocks until the program loop is running, so start the view beside it.
	started := make(chan struct{})
	go func() {
		view.Start(ctx)
		close(started)
	}()

	_, err := p.Run()
	cancel()
	<-started
	view.Stop()
	// Cancelling the caller's context is a normal way to leave.
	if errors.Is(err, tea.ErrProgramKilled) && parent.Err() != nil {
		return nil
	}
	return err
}
