package console

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cwstack/keyerd/internal/store"
)

// Value is the tagged variant carried across the console get/set path.
// The Kind selects which payload field is meaningful; every consumer
// switches over it exhaustively so a new kind fails loudly rather than
// silently.
type Value struct {
	Kind  store.Kind
	Word  uint32
	Bool  bool
	Str   string
	Float float32
}

// WordValue builds a numeric value of the given kind. Enum values use
// the ordinal as the word.
func WordValue(k store.Kind, v uint32) Value { return Value{Kind: k, Word: v} }

// BoolValue builds a boolean value.
func BoolValue(v bool) Value { return Value{Kind: store.KindBool, Bool: v} }

// StringValue builds a string value.
func StringValue(v string) Value { return Value{Kind: store.KindString, Str: v} }

// FloatValue builds a float value.
func FloatValue(v float32) Value { return Value{Kind: store.KindFloat, Float: v} }

// bool token sets accepted by the parser. Matching is case-sensitive.
var (
	boolTrue  = map[string]bool{"true": true, "1": true, "on": true, "yes": true}
	boolFalse = map[string]bool{"false": true, "0": true, "off": true, "no": true}
)

// parseValue converts raw console input into a Value for the
// descriptor. Integers accept base-prefixed literals (0x2a, 0o52, 052,
// 42); violations of the descriptor bounds return ErrOutOfRange, which
// is distinct from ErrInvalidValue for unparseable input.
func (d *Descriptor) parseValue(raw string) (Value, error) {
	switch d.Kind {
	case store.KindU8, store.KindU16, store.KindU32:
		v, err := parseWord(raw)
		if err != nil {
			return Value{}, err
		}
		if v < d.Min || v > d.Max {
			return Value{}, fmt.Errorf("%w: %s: %d outside [%d, %d]",
				ErrOutOfRange, d.FullPath, v, d.Min, d.Max)
		}
		return WordValue(d.Kind, v), nil

	case store.KindBool:
		if boolTrue[raw] {
			return BoolValue(true), nil
		}
		if boolFalse[raw] {
			return BoolValue(false), nil
		}
		return Value{}, fmt.Errorf("%w: %s: %q is not a boolean token",
			ErrInvalidValue, d.FullPath, raw)

	case store.KindEnum:
		for i, member := range d.Enum {
			if member == raw {
				return WordValue(store.KindEnum, uint32(i)), nil
			}
		}
		ord, err := parseWord(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s: %q is not a member",
				ErrInvalidValue, d.FullPath, raw)
		}
		if int(ord) >= len(d.Enum) {
			return Value{}, fmt.Errorf("%w: %s: ordinal %d of %d members",
				ErrOutOfRange, d.FullPath, ord, len(d.Enum))
		}
		return WordValue(store.KindEnum, ord), nil

	case store.KindString:
		return StringValue(raw), nil

	case store.KindFloat:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s: %q", ErrInvalidValue, d.FullPath, raw)
		}
		v := float32(f)
		if v < float32(d.Min) || v > float32(d.Max) {
			return Value{}, fmt.Errorf("%w: %s: %g outside [%d, %d]",
				ErrOutOfRange, d.FullPath, v, d.Min, d.Max)
		}
		return FloatValue(v), nil
	}
	return Value{}, fmt.Errorf("%w: %s: unhandled kind %s", ErrInvalidValue, d.FullPath, d.Kind)
}

// formatValue renders a Value the way the parser accepts it back, so
// get and set round-trip through strings.
func (d *Descriptor) formatValue(v Value) string {
	switch v.Kind {
	case store.KindU8, store.KindU16, store.KindU32:
		return strconv.FormatUint(uint64(v.Word), 10)
	case store.KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case store.KindEnum:
		if int(v.Word) < len(d.Enum) {
			return d.Enum[v.Word]
		}
		return strconv.FormatUint(uint64(v.Word), 10)
	case store.KindString:
		return v.Str
	case store.KindFloat:
		return strconv.FormatFloat(float64(v.Float), 'g', -1, 32)
	}
	return ""
}

// parseWord parses an unsigned 32-bit integer with base detection.
// Syntax errors map to ErrInvalidValue; magnitude overflow maps to
// ErrOutOfRange.
func parseWord(raw string) (uint32, error) {
	v, err := strconv.ParseUint(raw, 0, 32)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && ne.Err == strconv.ErrRange {
			return 0, fmt.Errorf("%w: %q", ErrOutOfRange, raw)
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, raw)
	}
	return uint32(v), nil
}
