package console

import (
	"fmt"
	"strings"

	"github.com/cwstack/keyerd/internal/schema"
	"github.com/cwstack/keyerd/internal/store"
)

// Descriptor is the data-only record describing one parameter to the
// console: identity, validated bounds, and accessor bindings closed
// over the runtime store.
type Descriptor struct {
	// Name is the collision-resolved external identifier.
	Name string

	// Bare is the declared parameter name without qualification.
	Bare string

	Family   string
	FullPath string
	Kind     store.Kind

	// Min and Max bound the stored word: the declared range for
	// numerics, 0..len(Enum)-1 for enums, 0..max_length for strings,
	// 0..1 for booleans.
	Min uint32
	Max uint32

	Enum []string

	// Get and Set are the generic accessor pair driven by this
	// descriptor. Set enforces bounds and bumps the generation.
	Get func() Value
	Set func(Value) error
}

// Format renders a Value for this descriptor as console output.
func (d *Descriptor) Format(v Value) string { return d.formatValue(v) }

// Parse converts raw console input into a Value for this descriptor.
func (d *Descriptor) Parse(raw string) (Value, error) { return d.parseValue(raw) }

// FamilyDesc describes one family to the console.
type FamilyDesc struct {
	Name    string
	Aliases []string
	Label   map[string]string
}

// Registry is the flat descriptor table plus family metadata. It is
// immutable after construction and safe for concurrent use.
type Registry struct {
	params   []Descriptor
	families []FamilyDesc

	byPath  map[string]int
	byIdent map[string]int
	byBare  map[string]int // first declared wins
	aliases map[string]string
}

// NewRegistry builds the descriptor table from a runtime store and the
// family list of the schema it was constructed from.
func NewRegistry(s *store.Store, families []schema.Family) (*Registry, error) {
	if s == nil {
		return nil, fmt.Errorf("console: store is nil")
	}

	r := &Registry{
		byPath:  make(map[string]int, s.Len()),
		byIdent: make(map[string]int, s.Len()),
		byBare:  make(map[string]int, s.Len()),
		aliases: make(map[string]string),
	}

	for i := 0; i < s.Len(); i++ {
		h := s.At(i)
		d := buildDescriptor(h)
		idx := len(r.params)
		r.params = append(r.params, d)

		r.byPath[d.FullPath] = idx
		r.byIdent[d.Name] = idx
		if _, taken := r.byBare[d.Bare]; !taken {
			r.byBare[d.Bare] = idx
		}
	}

	for _, fam := range families {
		r.families = append(r.families, FamilyDesc{
			Name:    fam.Name,
			Aliases: fam.Aliases,
			Label:   fam.Label,
		})
		for _, a := range fam.Aliases {
			r.aliases[a] = fam.Name
		}
	}
	return r, nil
}

func buildDescriptor(h store.Handle) Descriptor {
	f := h.Field()
	p := f.Param

	d := Descriptor{
		Name:     f.Ident,
		Bare:     p.Name,
		Family:   p.Family,
		FullPath: p.FullPath,
		Kind:     f.Kind,
		Enum:     p.EnumValues,
	}

	switch f.Kind {
	case store.KindU8, store.KindU16, store.KindU32, store.KindFloat:
		d.Min, d.Max = p.Min, p.Max
	case store.KindBool:
		d.Min, d.Max = 0, 1
	case store.KindEnum:
		d.Min, d.Max = 0, uint32(len(p.EnumValues)-1)
	case store.KindString:
		d.Min, d.Max = 0, uint32(p.MaxLength)
	}

	d.Get = func() Value {
		switch f.Kind {
		case store.KindU8, store.KindU16, store.KindU32:
			return WordValue(f.Kind, h.Uint())
		case store.KindBool:
			return BoolValue(h.Bool())
		case store.KindEnum:
			return WordValue(store.KindEnum, h.Ordinal())
		case store.KindString:
			return StringValue(h.String())
		case store.KindFloat:
			return FloatValue(h.Float())
		}
		return Value{}
	}

	d.Set = func(v Value) error {
		switch v.Kind {
		case store.KindU8, store.KindU16, store.KindU32:
			return h.SetUint(v.Word)
		case store.KindBool:
			h.SetBool(v.Bool)
			return nil
		case store.KindEnum:
			return h.SetOrdinal(v.Word)
		case store.KindString:
			h.SetString(v.Str)
			return nil
		case store.KindFloat:
			return h.SetFloat(v.Float)
		}
		return fmt.Errorf("%w: %s: unhandled kind %s", ErrInvalidValue, p.FullPath, v.Kind)
	}
	return d
}

// Params returns the descriptor table in declaration order. The
// returned slice is shared and must not be modified.
func (r *Registry) Params() []Descriptor { return r.params }

// Families returns the family descriptors in declared order.
func (r *Registry) Families() []FamilyDesc { return r.families }

// Find resolves a parameter by full path, external identifier, or bare
// name, in that order. An ambiguous bare name resolves to the first
// declared match.
func (r *Registry) Find(name string) (*Descriptor, error) {
	if i, ok := r.byPath[name]; ok {
		return &r.params[i], nil
	}
	if i, ok := r.byIdent[name]; ok {
		return &r.params[i], nil
	}
	if i, ok := r.byBare[name]; ok {
		return &r.params[i], nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}

// FindFamily resolves a family by exact name or alias.
func (r *Registry) FindFamily(name string) (*FamilyDesc, error) {
	for i := range r.families {
		f := &r.families[i]
		if f.Name == name {
			return f, nil
		}
		for _, a := range f.Aliases {
			if a == name {
				return f, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
}

// Get returns the formatted value of a parameter.
func (r *Registry) Get(name string) (string, error) {
	d, err := r.Find(name)
	if err != nil {
		return "", err
	}
	return d.Format(d.Get()), nil
}

// Set parses raw input and writes it to a parameter.
func (r *Registry) Set(name, raw string) error {
	d, err := r.Find(name)
	if err != nil {
		return err
	}
	v, err := d.Parse(raw)
	if err != nil {
		return err
	}
	return d.Set(v)
}

// expandAlias rewrites a leading family alias to the family name, so
// "k.**" behaves like "keyer.**".
func (r *Registry) expandAlias(pattern string) string {
	head := pattern
	rest := ""
	if i := strings.IndexByte(pattern, '.'); i >= 0 {
		head, rest = pattern[:i], pattern[i:]
	}
	if fam, ok := r.aliases[head]; ok {
		return fam + rest
	}
	return pattern
}
