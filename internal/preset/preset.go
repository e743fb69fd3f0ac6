// Package preset manages the preset bank: a fixed number of slots, each
// an instance of the template declared in the schema's presets section.
//
// Slots expand into an ordinary runtime store with full paths of the
// form "presets.<slot>.<field>", so the same persistence manager and
// console registry that serve the main parameter set serve presets too.
// Float template fields keep their IEEE-754 bit pattern through the
// store word, so a saved preset restores bit-identically.
//
// The active slot index is itself a store field ("presets.active"),
// which makes activation visible through the generation counter and
// persistent across restarts.
package preset

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cwstack/keyerd/internal/schema"
	"github.com/cwstack/keyerd/internal/store"
)

var (
	// ErrBadSlot indicates a slot index outside the bank.
	ErrBadSlot = errors.New("preset: slot out of range")

	// ErrUnknownField indicates a field name not in the template.
	ErrUnknownField = errors.New("preset: unknown field")
)

// activeField is the full path of the active-slot parameter.
const activeField = "presets.active"

// Bank is a fixed bank of preset slots backed by its own store.
type Bank struct {
	store *store.Store
	spec  *schema.PresetSpec
}

// NewBank expands the template into count slots and seeds every field
// with its template default.
func NewBank(spec *schema.PresetSpec) (*Bank, error) {
	if spec == nil || spec.Count <= 0 {
		return nil, errors.New("preset: empty spec")
	}

	params := make([]schema.Parameter, 0, spec.Count*len(spec.Template)+1)
	for slot := 0; slot < spec.Count; slot++ {
		sub := strconv.Itoa(slot)
		for _, tpl := range spec.Template {
			p := tpl
			p.Family = "presets"
			p.Subfamily = sub
			p.FullPath = "presets." + sub + "." + p.Name
			p.Key = "" // derive per-slot keys from the path
			params = append(params, p)
		}
	}
	params = append(params, schema.Parameter{
		Name:     "active",
		Family:   "presets",
		FullPath: activeField,
		Type:     schema.TypeU8,
		HasRange: true,
		Min:      0,
		Max:      uint32(spec.Count - 1),
	})

	s, err := store.New(params)
	if err != nil {
		return nil, fmt.Errorf("preset: %w", err)
	}
	return &Bank{store: s, spec: spec}, nil
}

// Count returns the number of slots.
func (b *Bank) Count() int { return b.spec.Count }

// Template returns the ordered template fields.
func (b *Bank) Template() []schema.Parameter { return b.spec.Template }

// Store exposes the backing store for persistence and console wiring.
func (b *Bank) Store() *store.Store { return b.store }

// Active returns the index of the active slot.
func (b *Bank) Active() int {
	h, _ := b.store.Lookup(activeField)
	return int(h.Uint())
}

// Activate selects a slot. The write bumps the bank's generation like
// any other field write.
func (b *Bank) Activate(slot int) error {
	if slot < 0 || slot >= b.spec.Count {
		return fmt.Errorf("%w: %d of %d", ErrBadSlot, slot, b.spec.Count)
	}
	h, _ := b.store.Lookup(activeField)
	return h.SetUint(uint32(slot))
}

// Field returns the handle for one field of one slot.
func (b *Bank) Field(slot int, name string) (store.Handle, error) {
	if slot < 0 || slot >= b.spec.Count {
		return store.Handle{}, fmt.Errorf("%w: %d of %d", ErrBadSlot, slot, b.spec.Count)
	}
	h, ok := b.store.Lookup("presets." + strconv.Itoa(slot) + "." + name)
	if !ok {
		return store.Handle{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return h, nil
}
