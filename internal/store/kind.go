package store

import "github.com/cwstack/keyerd/internal/schema"

// Kind identifies the storage shape of a field.
type Kind uint8

const (
	KindU8 Kind = iota
	KindU16
	KindU32
	KindBool
	KindEnum
	KindString
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	}
	return "unknown"
}

// Scalar reports whether the kind occupies a 32-bit word slot.
func (k Kind) Scalar() bool { return k != KindString }

func kindOf(t schema.Type) Kind {
	switch t {
	case schema.TypeU8:
		return KindU8
	case schema.TypeU16:
		return KindU16
	case schema.TypeU32:
		return KindU32
	case schema.TypeBool:
		return KindBool
	case schema.TypeEnum:
		return KindEnum
	case schema.TypeString:
		return KindString
	case schema.TypePercent:
		return KindFloat
	}
	return KindU32
}
