package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type formKind int

const (
	formOpen formKind = iota + 1
	formClose
	formExpense
)

type formField struct {
	key   string
	label string
}

// form is a modal with one text input per field. tab cycles focus, enter
// submits, esc cancels.
type form struct {
	kind   formKind
	title  string
	keys   []string
	inputs []textinput.Model
	focus  int
}

func newForm(kind formKind, title string, fields []formField) *form {
	f := &form{kind: kind, title: title}
	for i, fd := range fields {
		inp := textinput.New()
		inp.Prompt = fd.label + ": "
		if i == 0 {
			inp.Focus()
		}
		f.keys = append(f.keys, fd.key)
		f.inputs = append(f.inputs, inp)
	}
	return f
}

// update feeds a key to the focused input and reports whether the form was
// submitted or dismissed.
func (f *form) update(msg tea.KeyMsg) (submitted, cancelled bool, cmd tea.Cmd) {
	switch msg.String() {
	case "esc":
		return false, true, nil
	case "enter":
		return true, false, nil
	case "tab", "shift+tab":
		dir := 1
		if msg.String() == "shift+tab" {
			dir = -1
		}
		f.inputs[f.focus].Blur()
		f.focus = (f.focus + dir + len(f.inputs)) % len(f.inputs)
		return false, false, f.inputs[f.focus].Focus()
	}
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return false, false, cmd
}

func (f *form) set(key, value string) {
	for i, k := range f.keys {
		if k == key {
			f.inputs[i].SetValue(value)
		}
	}
}

func (f *form) values() map[string]string {
	out := make(map[string]string, len(f.keys))
	for i, k := range f.keys {
		out[k] = strings.TrimSpace(f.inputs[i].Value())
	}
	return out
}

func (f *form) view(help string) string {
	lines := []string{titleStyle.Render(f.title)}
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	lines = append(lines, "", labelStyle.Render(help))
	return modalStyle.Render(strings.Join(lines, "\n"))
}
