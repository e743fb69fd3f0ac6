package meta

import (
	"sort"

	"github.com/goccy/go-json"

	"github.com/cwstack/keyerd/internal/schema"
)

// Entry is one row of the UI metadata table.
type Entry struct {
	Name        string            `json:"name"`
	FullPath    string            `json:"full_path"`
	Family      string            `json:"family"`
	Type        schema.Type       `json:"type"`
	LabelShort  map[string]string `json:"label_short,omitempty"`
	LabelLong   map[string]string `json:"label_long,omitempty"`
	Description map[string]string `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Priority    int               `json:"priority"`
	Advanced    bool              `json:"advanced"`
	Widget      schema.Widget     `json:"widget,omitempty"`
	Change      schema.ChangeMode `json:"runtime_change"`
	Min         uint32            `json:"min,omitempty"`
	Max         uint32            `json:"max,omitempty"`
	EnumValues  []string          `json:"enum_values,omitempty"`
	MaxLength   int               `json:"max_length,omitempty"`
}

// Table is the immutable metadata table, sorted by priority.
type Table struct {
	entries []Entry
	byPath  map[string]int
}

// New builds the table from a loaded schema model.
func New(m *schema.Model) *Table {
	t := &Table{
		entries: make([]Entry, 0, len(m.Parameters)),
		byPath:  make(map[string]int, len(m.Parameters)),
	}
	for i := range m.Parameters {
		p := &m.Parameters[i]
		t.entries = append(t.entries, Entry{
			Name:        p.Name,
			FullPath:    p.FullPath,
			Family:      p.Family,
			Type:        p.Type,
			LabelShort:  p.GUI.LabelShort,
			LabelLong:   p.GUI.LabelLong,
			Description: p.GUI.Description,
			Category:    p.GUI.Category,
			Priority:    p.GUI.Priority,
			Advanced:    p.GUI.Advanced,
			Widget:      p.GUI.Widget,
			Change:      p.GUI.Change,
			Min:         p.Min,
			Max:         p.Max,
			EnumValues:  p.EnumValues,
			MaxLength:   p.MaxLength,
		})
	}

	sort.SliceStable(t.entries, func(a, b int) bool {
		return t.entries[a].Priority < t.entries[b].Priority
	})
	for i := range t.entries {
		t.byPath[t.entries[i].FullPath] = i
	}
	return t
}

// Entries returns the table in priority order. The returned slice is
// shared and must not be modified.
func (t *Table) Entries() []Entry { return t.entries }

// ByPath returns the entry for a full path, or nil.
func (t *Table) ByPath(path string) *Entry {
	if i, ok := t.byPath[path]; ok {
		return &t.entries[i]
	}
	return nil
}

// ByCategory returns the entries of one category in priority order.
func (t *Table) ByCategory(category string) []Entry {
	var out []Entry
	for _, e := range t.entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// Basic returns the entries not flagged as advanced, in priority order.
func (t *Table) Basic() []Entry {
	var out []Entry
	for _, e := range t.entries {
		if !e.Advanced {
			out = append(out, e)
		}
	}
	return out
}

// Advanced returns the entries flagged as advanced, in priority order.
func (t *Table) Advanced() []Entry {
	var out []Entry
	for _, e := range t.entries {
		if e.Advanced {
			out = append(out, e)
		}
	}
	return out
}

// Export renders the whole table as JSON for remote UI clients.
func (t *Table) Export() ([]byte, error) {
	return json.Marshal(t.entries)
}
