package schema

import (
	"math"
	"strings"
)

// Type identifies the storage type of a parameter.
type Type string

// Supported parameter types. Percent is a float expressed as a
// percentage and is only legal inside a preset template.
const (
	TypeU8      Type = "u8"
	TypeU16     Type = "u16"
	TypeU32     Type = "u32"
	TypeBool    Type = "bool"
	TypeEnum    Type = "enum"
	TypeString  Type = "string"
	TypePercent Type = "percent"
)

// MaxValue returns the largest value representable by a numeric type.
// Non-numeric types return 0.
func (t Type) MaxValue() uint32 {
	switch t {
	case TypeU8:
		return math.MaxUint8
	case TypeU16:
		return math.MaxUint16
	case TypeU32:
		return math.MaxUint32
	}
	return 0
}

// Numeric reports whether the type stores an unsigned integer value.
func (t Type) Numeric() bool {
	switch t {
	case TypeU8, TypeU16, TypeU32:
		return true
	}
	return false
}

// Widget names the GUI control used to render a parameter.
type Widget string

const (
	WidgetSlider   Widget = "slider"
	WidgetToggle   Widget = "toggle"
	WidgetDropdown Widget = "dropdown"
	WidgetText     Widget = "text"
	WidgetNumber   Widget = "number"
)

// ChangeMode describes when a parameter change takes effect.
type ChangeMode string

const (
	ChangeImmediate ChangeMode = "immediate"
	ChangeIdleOnly  ChangeMode = "idle_only"
	ChangeReboot    ChangeMode = "reboot"
)

// GUI carries the presentation metadata declared alongside a parameter.
// Label and description maps are keyed by locale code ("en", "it", ...).
type GUI struct {
	LabelShort  map[string]string
	LabelLong   map[string]string
	Description map[string]string
	Category    string
	Priority    int
	Advanced    bool
	Widget      Widget
	Change      ChangeMode
}

// Parameter is one fully-validated schema entry. Exactly one of the
// Default* fields is meaningful, selected by Type.
type Parameter struct {
	Name      string
	Family    string
	Subfamily string
	FullPath  string

	Type       Type
	HasRange   bool
	Min        uint32
	Max        uint32
	EnumValues []string
	MaxLength  int

	// Key is the declared persistence key, empty when the document
	// leaves it to be derived from the path.
	Key string

	DefaultUint   uint32
	DefaultBool   bool
	DefaultEnum   string
	DefaultString string
	DefaultFloat  float32

	GUI GUI
}

// DefaultOrdinal returns the zero-based index of the enum default.
// It is only meaningful for enum parameters.
func (p *Parameter) DefaultOrdinal() uint32 {
	for i, v := range p.EnumValues {
		if v == p.DefaultEnum {
			return uint32(i)
		}
	}
	return 0
}

// PersistKey returns the external persistence key: the declared key when
// present, otherwise the full path with dots replaced by underscores.
func (p *Parameter) PersistKey() string {
	if p.Key != "" {
		return p.Key
	}
	return strings.ReplaceAll(p.FullPath, ".", "_")
}

// Subfamily is a nested group within a family. Composite subfamilies
// describe externally-managed structures and carry no parameters.
type Subfamily struct {
	Name        string
	IsComposite bool
}

// Family groups related parameters and carries console and GUI metadata.
type Family struct {
	Name        string
	Order       int
	Icon        string
	Label       map[string]string
	Description map[string]string
	Aliases     []string
	Subfamilies []Subfamily
}

// PresetSpec describes the preset bank: how many slots exist and the
// ordered template applied to each slot.
type PresetSpec struct {
	Count    int
	Template []Parameter
}

// Model is a fully-normalised schema document. Parameters appear in
// family order, then declaration order within each family. A Model is
// immutable once loaded.
type Model struct {
	Version    int
	Families   []Family
	Parameters []Parameter
	Presets    *PresetSpec
}

// Find returns the parameter with the given full path, or nil.
func (m *Model) Find(fullPath string) *Parameter {
	for i := range m.Parameters {
		if m.Parameters[i].FullPath == fullPath {
			return &m.Parameters[i]
		}
	}
	return nil
}

// FamilyNamed returns the family with the given name, or nil.
func (m *Model) FamilyNamed(name string) *Family {
	for i := range m.Families {
		if m.Families[i].Name == name {
			return &m.Families[i]
		}
	}
	return nil
}
