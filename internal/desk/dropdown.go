package desk

import "sync"

// DropdownGroup enforces that at most one dropdown in a view is open. Each view
// creates its own group and hands it to its dropdowns; there is no global one.
type DropdownGroup struct {
	mu       sync.Mutex
	current  string
	onChange func(current string)
}

func NewDropdownGroup() *DropdownGroup { return &DropdownGroup{} }

// OnChange registers a callback run after the open dropdown changes. "" means
// none is open.
func (g *DropdownGroup) OnChange(fn func(current string)) {
	g.mu.Lock()
	g.onChange = fn
	g.mu.Unlock()
}

// Open opens id, closing whichever dropdown was open before.
func (g *DropdownGroup) Open(id string) { g.set(id) }

// Close closes id if it is the open one.
func (g *DropdownGroup) Close(id string) {
	g.mu.Lock()
	if g.current != id {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()
	g.set("")
}

// Toggle flips id and reports whether it is now open.
func (g *DropdownGroup) Toggle(id string) bool {
	g.mu.Lock()
	open := g.current == id
	g.mu.Unlock()
	if open {
		g.set("")
		return false
	}
	g.set(id)
	return true
}

func (g *DropdownGroup) IsOpen(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return id != "" && g.current == id
}

// Current returns the open dropdown's id, or "".
func (g *DropdownGroup) Current() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

func (g *DropdownGroup) CloseAll() { g.set("") }

func (g *DropdownGroup) set(id string) {
	g.mu.Lock()
	changed := g.current != id
	g.current = id
	fn := g.onChange
	g.mu.Unlock()
	if changed && fn != nil {
		fn(id)
	}
}
