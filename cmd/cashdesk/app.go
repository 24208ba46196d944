package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/config"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/desk"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/i18n"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/infra"

	"github.com/rs/zerolog/log"
)

// errActionFailed marks a command whose feedback was already printed.
var errActionFailed = errors.New("action failed")

type app struct {
	out       io.Writer
	locale    string
	cfg       *config.DeskConfig
	adapter   *desk.Adapter
	logFile   *os.File
	newRemote func(cfg *config.DeskConfig) desk.Remote
}

func newApp(out io.Writer) *app {
	return &app{
		out: out,
		newRemote: func(cfg *config.DeskConfig) desk.Remote {
			return infra.NewCashAPIClient(infra.CashAPIConfig{
				BaseURL: cfg.APIURL,
				Token:   cfg.APIToken,
				Timeout: cfg.HTTPTimeout,
			})
		},
	}
}

// setup loads configuration and wires the adapter. interactive commands own the
// terminal, so their logs only go to DESK_LOG_FILE.
func (a *app) setup(interactive bool) error {
	cfg, err := config.LoadDesk()
	if err != nil {
		return err
	}
	if a.locale != "" {
		cfg.Locale = a.locale
	}
	a.cfg = cfg

	var logOut io.Writer = os.Stderr
	if interactive {
		logOut = io.Discard
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		logOut = f
	}
	infra.ConfigureLogger(logOut, cfg.LogFile == "", cfg.LogLevel)

	catalog, err := i18n.Load()
	if err != nil {
		return err
	}
	t := catalog.Translator(cfg.Locale)
	a.adapter = desk.NewAdapter(desk.NewOrchestrator(a.newRemote(cfg)), t)
	log.Debug().Str("api", cfg.APIURL).Str("locale", catalog.Resolve(cfg.Locale)).Msg("cashdesk ready")
	return nil
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// report prints fb and turns a failure into errActionFailed.
func (a *app) report(fb desk.Feedback) error {
	fmt.Fprintln(a.out, fb.Message)
	if !fb.OK() {
		return errActionFailed
	}
	return nil
}
