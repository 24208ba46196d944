package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/desk"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/infra"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/ledger"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/tui"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var timeNow = time.Now

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "cashdesk",
		Short:         "Cash register desk client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Name() == "watch")
		},
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
	}
	root.PersistentFlags().StringVar(&a.locale, "locale", "", "display locale (overrides DESK_LOCALE)")

	root.AddCommand(
		newStatusCmd(a),
		newOpenCmd(a),
		newCloseCmd(a),
		newExpenseCmd(a),
		newCutCmd(a),
		newDeleteCmd(a),
		newWatchCmd(a),
	)
	return root
}

// withSession loads the current session before running fn.
func (a *app) withSession(ctx context.Context, fn func(context.Context) desk.Feedback) error {
	if fb := a.adapter.Refresh(ctx); !fb.OK() {
		return a.report(fb)
	}
	return a.report(fn(ctx))
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session and its figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if fb := a.adapter.Refresh(ctx); !fb.OK() {
				return a.report(fb)
			}
			snap := a.adapter.Orchestrator().Snapshot()
			duration := ""
			if snap.Session != nil {
				duration = ledger.SessionDuration(snap.Session.OpenedAt, timeNow())
			}
			t := a.adapter.T()
			fmt.Fprintln(a.out, tui.RenderSession(snap, duration, t))
			for _, tx := range snap.Transactions {
				fmt.Fprintln(a.out, tui.RenderTransaction(tx, t))
			}
			return nil
		},
	}
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open INITIAL_BALANCE",
		Short: "Open a session with the starting float",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd.Context(), func(ctx context.Context) desk.Feedback {
				return a.adapter.OpenSession(ctx, &desk.OpenForm{InitialBalance: amount})
			})
		},
	}
}

func newCloseCmd(a *app) *cobra.Command {
	var (
		notes  string
		counts map[string]int
	)
	cmd := &cobra.Command{
		Use:   "close FINAL_BALANCE",
		Short: "Close the open session with the counted cash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			form := desk.NewCloseForm()
			form.FinalBalance = amount
			form.Notes = notes
			if len(counts) > 0 {
				d, err := dto.DenominationsFromCounts(counts)
				if err != nil {
					return err
				}
				form.UseDenominations = true
				form.Denominations = d
			}
			return a.withSession(cmd.Context(), func(ctx context.Context) desk.Feedback {
				return a.adapter.CloseSession(ctx, form)
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "closing notes (required for large differences)")
	cmd.Flags().StringToIntVar(&counts, "count", nil, "cash count per denomination, e.g. bills_500=2,coins_10=3")
	return cmd
}

func newExpenseCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "expense AMOUNT DESCRIPTION...",
		Short: "Record a cash expense",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			form := &desk.ExpenseForm{
				Amount:      amount,
				Description: strings.Join(args[1:], " "),
				Category:    category,
			}
			return a.withSession(cmd.Context(), func(ctx context.Context) desk.Feedback {
				return a.adapter.AddExpense(ctx, form)
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "expense category")
	return cmd
}

func newCutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cut",
		Short: "Record a cut with the current payment breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd.Context(), a.adapter.PerformCut)
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-transaction ID",
		Short: "Delete a transaction from the open session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}
			return a.withSession(cmd.Context(), func(ctx context.Context) desk.Feedback {
				return a.adapter.DeleteTransaction(ctx, id)
			})
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Open the live desk screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var signals desk.SignalSource
			if a.cfg.RedisURL != "" {
				rdb, err := infra.NewRedis(a.cfg.RedisURL)
				if err != nil {
					log.Warn().Err(err).Msg("live refresh disabled")
				} else {
					defer rdb.Close()
					sub := infra.NewEventSubscriber(rdb, a.cfg.EventsChannel)
					defer sub.Close()
					signals = sub
				}
			}
			return tui.Run(cmd.Context(), a.adapter, signals, a.cfg.TickInterval)
		},
	}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	return d, nil
}
