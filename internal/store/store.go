package store

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwstack/keyerd/internal/schema"
)

// Field is the immutable descriptor of one store slot.
type Field struct {
	Param *schema.Parameter
	Kind  Kind

	// Ident is the collision-resolved external identifier; see the
	// package documentation.
	Ident string

	slot int
}

// Store holds the live value of every parameter. All methods are safe
// for concurrent use without external locking.
type Store struct {
	fields  []Field
	byPath  map[string]int
	byIdent map[string]int

	words []atomic.Uint32
	strs  []atomic.Pointer[string]
	gen   atomic.Uint32
}

// New builds a store from a validated parameter list, seeding every
// slot with its schema default. The parameter slice must outlive the
// store and must not be mutated afterwards.
func New(params []schema.Parameter) (*Store, error) {
	s := &Store{
		fields:  make([]Field, 0, len(params)),
		byPath:  make(map[string]int, len(params)),
		byIdent: make(map[string]int, len(params)),
	}

	idents := resolveIdents(params)
	for i := range params {
		p := &params[i]
		f := Field{Param: p, Kind: kindOf(p.Type), Ident: idents[i]}

		if f.Kind.Scalar() {
			f.slot = len(s.words)
			s.words = append(s.words, atomic.Uint32{})
		} else {
			f.slot = len(s.strs)
			s.strs = append(s.strs, atomic.Pointer[string]{})
		}

		if _, dup := s.byPath[p.FullPath]; dup {
			return nil, fmt.Errorf("store: duplicate path %q", p.FullPath)
		}
		if _, dup := s.byIdent[f.Ident]; dup {
			return nil, fmt.Errorf("store: duplicate ident %q", f.Ident)
		}
		s.byPath[p.FullPath] = len(s.fields)
		s.byIdent[f.Ident] = len(s.fields)
		s.fields = append(s.fields, f)
	}

	s.ResetDefaults()
	s.gen.Store(0)
	return s, nil
}

// ResetDefaults rewrites every slot with its schema default. Each field
// write bumps the generation as usual.
func (s *Store) ResetDefaults() {
	for i := range s.fields {
		f := &s.fields[i]
		p := f.Param
		switch f.Kind {
		case KindU8, KindU16, KindU32:
			s.words[f.slot].Store(p.DefaultUint)
		case KindBool:
			s.words[f.slot].Store(boolWord(p.DefaultBool))
		case KindEnum:
			s.words[f.slot].Store(p.DefaultOrdinal())
		case KindFloat:
			s.words[f.slot].Store(math.Float32bits(p.DefaultFloat))
		case KindString:
			v := p.DefaultString
			s.strs[f.slot].Store(&v)
		}
		s.gen.Add(1)
	}
}

// Generation returns the write counter. It increases monotonically on
// every field write; equal values around a read sequence mean no write
// raced it.
func (s *Store) Generation() uint32 { return s.gen.Load() }

// Len returns the number of fields.
func (s *Store) Len() int { return len(s.fields) }

// Fields returns the descriptor table in declaration order. The
// returned slice is shared and must not be modified.
func (s *Store) Fields() []Field { return s.fields }

// At returns the handle for the i-th field in declaration order.
func (s *Store) At(i int) Handle { return Handle{s: s, idx: i} }

// Lookup returns the handle for a full dotted path.
func (s *Store) Lookup(path string) (Handle, bool) {
	i, ok := s.byPath[path]
	return Handle{s: s, idx: i}, ok
}

// LookupIdent returns the handle for an external identifier.
func (s *Store) LookupIdent(ident string) (Handle, bool) {
	i, ok := s.byIdent[ident]
	return Handle{s: s, idx: i}, ok
}

// Handle is a cheap reference to one field of a store. The zero Handle
// is invalid.
type Handle struct {
	s   *Store
	idx int
}

// Field returns the descriptor backing the handle.
func (h Handle) Field() *Field { return &h.s.fields[h.idx] }

// Path returns the full dotted path of the field.
func (h Handle) Path() string { return h.s.fields[h.idx].Param.FullPath }

// Ident returns the external identifier of the field.
func (h Handle) Ident() string { return h.s.fields[h.idx].Ident }

// Kind returns the storage kind of the field.
func (h Handle) Kind() Kind { return h.s.fields[h.idx].Kind }

// Word returns the raw 32-bit slot value. Only valid for scalar kinds.
func (h Handle) Word() uint32 {
	f := h.mustScalar()
	return h.s.words[f.slot].Load()
}

// SetWord stores a raw 32-bit slot value without range checking. It is
// intended for persistence restore paths that validate separately.
func (h Handle) SetWord(v uint32) {
	f := h.mustScalar()
	h.s.words[f.slot].Store(v)
	h.s.gen.Add(1)
}

// Uint returns the value of a numeric field.
func (h Handle) Uint() uint32 { return h.Word() }

// SetUint writes a numeric field, enforcing the declared range.
func (h Handle) SetUint(v uint32) error {
	f := h.mustScalar()
	p := f.Param
	if v < p.Min || v > p.Max {
		return fmt.Errorf("%w: %s: %d outside [%d, %d]", ErrOutOfRange, p.FullPath, v, p.Min, p.Max)
	}
	h.s.words[f.slot].Store(v)
	h.s.gen.Add(1)
	return nil
}

// Bool returns the value of a boolean field.
func (h Handle) Bool() bool { return h.Word() != 0 }

// SetBool writes a boolean field.
func (h Handle) SetBool(v bool) {
	h.SetWord(boolWord(v))
}

// Ordinal returns the stored enum ordinal without bounds checking.
func (h Handle) Ordinal() uint32 { return h.Word() }

// SetOrdinal writes an enum ordinal, rejecting values at or past the
// member count.
func (h Handle) SetOrdinal(v uint32) error {
	f := h.mustScalar()
	p := f.Param
	if int(v) >= len(p.EnumValues) {
		return fmt.Errorf("%w: %s: ordinal %d of %d members", ErrOutOfRange, p.FullPath, v, len(p.EnumValues))
	}
	h.s.words[f.slot].Store(v)
	h.s.gen.Add(1)
	return nil
}

// Enum returns the symbolic value of an enum field. An out-of-range
// stored ordinal decodes to the schema default.
func (h Handle) Enum() string {
	p := h.Field().Param
	ord := h.Word()
	if int(ord) >= len(p.EnumValues) {
		return p.DefaultEnum
	}
	return p.EnumValues[ord]
}

// SetEnum writes an enum field by member name.
func (h Handle) SetEnum(name string) error {
	p := h.Field().Param
	for i, v := range p.EnumValues {
		if v == name {
			return h.SetOrdinal(uint32(i))
		}
	}
	return fmt.Errorf("%w: %s: %q is not a member", ErrBadValue, p.FullPath, name)
}

// Float returns the value of a float field.
func (h Handle) Float() float32 {
	return math.Float32frombits(h.Word())
}

// SetFloat writes a float field, enforcing the declared range.
func (h Handle) SetFloat(v float32) error {
	f := h.mustScalar()
	p := f.Param
	if p.HasRange && (v < float32(p.Min) || v > float32(p.Max)) {
		return fmt.Errorf("%w: %s: %g outside [%d, %d]", ErrOutOfRange, p.FullPath, v, p.Min, p.Max)
	}
	h.s.words[f.slot].Store(math.Float32bits(v))
	h.s.gen.Add(1)
	return nil
}

// String returns the value of a string field.
func (h Handle) String() string {
	f := h.Field()
	if f.Kind != KindString {
		panic(fmt.Sprintf("store: %s: String on %s field", f.Param.FullPath, f.Kind))
	}
	return *h.s.strs[f.slot].Load()
}

// SetString writes a string field, truncating to the declared maximum
// length.
func (h Handle) SetString(v string) {
	f := h.Field()
	if f.Kind != KindString {
		panic(fmt.Sprintf("store: %s: SetString on %s field", f.Param.FullPath, f.Kind))
	}
	if f.Param.MaxLength > 0 && len(v) > f.Param.MaxLength {
		v = v[:f.Param.MaxLength]
	}
	h.s.strs[f.slot].Store(&v)
	h.s.gen.Add(1)
}

func (h Handle) mustScalar() *Field {
	f := h.Field()
	if !f.Kind.Scalar() {
		panic(fmt.Sprintf("store: %s: scalar access on %s field", f.Param.FullPath, f.Kind))
	}
	return f
}

func boolWord(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
