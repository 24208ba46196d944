// Package tui is the terminal view of a cash desk: the current session, its
// figures and transactions, and modal forms for every desk action.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/desk"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/i18n"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// viewStateMsg carries a fresh render state from the SessionView.
type viewStateMsg desk.ViewState

// feedbackMsg is the outcome of a desk action run as a command.
type feedbackMsg desk.Feedback

// Model is the bubbletea model of the desk screen.
type Model struct {
	ctx     context.Context
	adapter *desk.Adapter
	t       i18n.Func

	state    desk.ViewState
	cursor   int
	menus    *desk.DropdownGroup
	form     *form
	feedback *desk.Feedback
	width    int
}

func New(ctx context.Context, adapter *desk.Adapter) Model {
	return Model{
		ctx:     ctx,
		adapter: adapter,
		t:       adapter.T(),
		state:   desk.ViewState{Snapshot: adapter.Orchestrator().Snapshot()},
		menus:   desk.NewDropdownGroup(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.run(m.adapter.Refresh)
}

// run executes a desk action off the event loop.
func (m Model) run(fn func(context.Context) desk.Feedback) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg { return feedbackMsg(fn(ctx)) }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case viewStateMsg:
		m.state = desk.ViewState(msg)
		m.clampCursor()
		return m, nil

	case feedbackMsg:
		fb := desk.Feedback(msg)
		m.feedback = &fb
		return m, nil

	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m.updateMain(msg)
	}
	return m, nil
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.state.Snapshot
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		return m, m.run(m.adapter.Refresh)
	case "o":
		if snap.State != desk.StateOpen {
			m.form = newForm(formOpen, m.t("cash_register.actions.open", nil), []formField{
				{key: "initial_balance", label: m.t("cash_register.labels.initial_balance", nil)},
			})
		}
	case "c":
		if snap.State == desk.StateOpen {
			m.form = newForm(formClose, m.t("cash_register.actions.close", nil), []formField{
				{key: "final_balance", label: m.t("cash_register.labels.final_balance", nil)},
				{key: "notes", label: m.t("cash_register.labels.notes", nil)},
				{key: "denominations", label: m.t("cash_register.labels.denominations", nil)},
			})
		}
	case "e":
		if snap.State == desk.StateOpen {
			m.form = newForm(formExpense, m.t("cash_register.actions.expense", nil), []formField{
				{key: "amount", label: m.t("cash_register.labels.amount", nil)},
				{key: "description", label: m.t("cash_register.labels.description", nil)},
				{key: "category", label: m.t("cash_register.labels.category", nil)},
			})
		}
	case "x":
		return m, m.run(m.adapter.PerformCut)
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.menus.CloseAll()
	case "down", "j":
		if m.cursor < len(snap.Transactions)-1 {
			m.cursor++
		}
		m.menus.CloseAll()
	case "enter":
		if tx, ok := m.selected(); ok {
			m.menus.Toggle(menuID(tx.ID))
		}
	case "esc":
		m.menus.CloseAll()
	case "d":
		tx, ok := m.selected()
		if !ok || !m.menus.IsOpen(menuID(tx.ID)) {
			return m, nil
		}
		m.menus.CloseAll()
		id := tx.ID
		return m, m.run(func(ctx context.Context) desk.Feedback {
			return m.adapter.DeleteTransaction(ctx, id)
		})
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	submitted, cancelled, cmd := m.form.update(msg)
	if cancelled {
		m.form = nil
		return m, nil
	}
	if !submitted {
		return m, cmd
	}
	f := m.form
	m.form = nil
	return m, m.submit(f)
}

// submit turns form values into the matching desk form. Amounts that do not
// parse are left at zero so the adapter's validation reports them.
func (m Model) submit(f *form) tea.Cmd {
	v := f.values()
	switch f.kind {
	case formOpen:
		in := &desk.OpenForm{InitialBalance: parseAmount(v["initial_balance"])}
		return m.run(func(ctx context.Context) desk.Feedback { return m.adapter.OpenSession(ctx, in) })

	case formClose:
		in := desk.NewCloseForm()
		in.FinalBalance = parseAmount(v["final_balance"])
		in.Notes = v["notes"]
		if raw := v["denominations"]; raw != "" {
			counts, err := ParseCounts(raw)
			if err != nil {
				fb := desk.Feedback{Kind: desk.FeedbackError, Message: m.t("cash_register.errors.invalid_denominations", nil)}
				return func() tea.Msg { return feedbackMsg(fb) }
			}
			in.UseDenominations = true
			in.Denominations = counts
		}
		return m.run(func(ctx context.Context) desk.Feedback { return m.adapter.CloseSession(ctx, in) })

	case formExpense:
		in := &desk.ExpenseForm{
			Amount:      parseAmount(v["amount"]),
			Description: v["description"],
			Category:    v["category"],
		}
		return m.run(func(ctx context.Context) desk.Feedback { return m.adapter.AddExpense(ctx, in) })
	}
	return nil
}

func (m Model) selected() (dto.Transaction, bool) {
	txns := m.state.Snapshot.Transactions
	if m.cursor < 0 || m.cursor >= len(txns) {
		return dto.Transaction{}, false
	}
	return txns[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.state.Snapshot.Transactions)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if open := m.menus.Current(); open != "" {
		if tx, ok := m.selected(); !ok || menuID(tx.ID) != open {
			m.menus.CloseAll()
		}
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(RenderSession(m.state.Snapshot, m.state.Duration, m.t))
	b.WriteString("\n\n")

	txns := m.state.Snapshot.Transactions
	if len(txns) > 0 {
		b.WriteString(titleStyle.Render(m.t("cash_register.labels.transactions", nil)))
		b.WriteString("\n")
	}
	for i, tx := range txns {
		line := RenderTransaction(tx, m.t)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
		if m.menus.IsOpen(menuID(tx.ID)) {
			b.WriteString(menuStyle.Render("d: " + m.t("cash_register.actions.delete", nil) + "   esc: " + m.t("cash_register.actions.cancel", nil)))
			b.WriteString("\n")
		}
	}

	if m.form != nil {
		b.WriteString("\n")
		b.WriteString(m.form.view("enter: " + m.t("cash_register.actions.save", nil) +
			"  esc: " + m.t("cash_register.actions.cancel", nil) +
			"  tab: " + m.t("cash_register.actions.next", nil)))
		b.WriteString("\n")
	}

	if m.feedback != nil {
		style := successStyle
		switch m.feedback.Kind {
		case desk.FeedbackWarning:
			style = warningStyle
		case desk.FeedbackError:
			style = errorStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.feedback.Message))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render(m.footerText()))
	return lipgloss.NewStyle().MaxWidth(max(m.width, 0)).Render(b.String())
}

func (m Model) footerText() string {
	a := func(key string) string { return m.t("cash_register.actions."+key, nil) }
	var keys []string
	if m.state.Snapshot.State == desk.StateOpen {
		keys = append(keys, "c: "+a("close"), "e: "+a("expense"), "x: "+a("cut"), "enter: "+a("menu"))
	} else {
		keys = append(keys, "o: "+a("open"))
	}
	keys = append(keys, "r: "+a("refresh"), "q: "+a("quit"))
	return strings.Join(keys, "  ")
}

func menuID(id int64) string { return "tx-" + strconv.FormatInt(id, 10) }

func parseAmount(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseCounts reads a cash count written as "bills_500=2,coins_10=3".
func ParseCounts(raw string) (*dto.Denominations, error) {
	counts := make(map[string]int)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("tui: malformed count %q", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("tui: malformed count %q: %w", part, err)
		}
		counts[strings.TrimSpace(field)] = n
	}
	return dto.DenominationsFromCounts(counts)
}
