package console

import (
	"errors"
	"testing"

	"github.com/cwstack/keyerd/internal/schema"
	"github.com/cwstack/keyerd/internal/store"
)

func testParams() []schema.Parameter {
	return []schema.Parameter{
		{
			Name: "wpm", Family: "keyer", FullPath: "keyer.wpm",
			Type: schema.TypeU16, HasRange: true, Min: 5, Max: 100,
			DefaultUint: 20,
		},
		{
			Name: "pitch", Family: "keyer", Subfamily: "tone",
			FullPath: "keyer.tone.pitch",
			Type:     schema.TypeU16, HasRange: true, Min: 300, Max: 1200,
			DefaultUint: 600,
		},
		{
			Name: "mode", Family: "keyer", FullPath: "keyer.mode",
			Type:        schema.TypeEnum,
			EnumValues:  []string{"straight", "iambic_a", "iambic_b"},
			DefaultEnum: "iambic_a",
		},
		{
			Name: "sidetone", Family: "keyer", FullPath: "keyer.sidetone",
			Type: schema.TypeBool, DefaultBool: true,
		},
		{
			Name: "callsign", Family: "keyer", FullPath: "keyer.callsign",
			Type: schema.TypeString, MaxLength: 10, DefaultString: "N0CALL",
		},
		{
			Name: "brightness", Family: "leds", FullPath: "leds.brightness",
			Type: schema.TypeU8, Min: 0, Max: 255, DefaultUint: 128,
		},
		{
			Name: "brightness", Family: "display", FullPath: "display.brightness",
			Type: schema.TypeU8, Min: 0, Max: 255, DefaultUint: 64,
		},
	}
}

func testFamilies() []schema.Family {
	return []schema.Family{
		{Name: "keyer", Order: 1, Aliases: []string{"k"}},
		{Name: "leds", Order: 2, Aliases: []string{"led", "light"}},
		{Name: "display", Order: 3},
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	s, err := store.New(testParams())
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	r, err := NewRegistry(s, testFamilies())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return r
}

func TestFindLookupOrder(t *testing.T) {
	r := newTestRegistry(t)

	d, err := r.Find("keyer.wpm")
	if err != nil {
		t.Fatalf("Find(full path) error = %v", err)
	}
	if d.FullPath != "keyer.wpm" {
		t.Errorf("Find(full path) = %s", d.FullPath)
	}

	d, err = r.Find("pitch")
	if err != nil {
		t.Fatalf("Find(bare) error = %v", err)
	}
	if d.FullPath != "keyer.tone.pitch" {
		t.Errorf("Find(bare) = %s", d.FullPath)
	}

	// Ambiguous bare name resolves to the first declared match.
	d, err = r.Find("brightness")
	if err != nil {
		t.Fatalf("Find(ambiguous bare) error = %v", err)
	}
	if d.FullPath != "leds.brightness" {
		t.Errorf("Find(ambiguous bare) = %s, want leds.brightness", d.FullPath)
	}

	// Collision-resolved idents work too.
	d, err = r.Find("display_brightness")
	if err != nil {
		t.Fatalf("Find(ident) error = %v", err)
	}
	if d.FullPath != "display.brightness" {
		t.Errorf("Find(ident) = %s", d.FullPath)
	}

	if _, err := r.Find("nope"); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("Find(unknown) error = %v, want ErrUnknownParameter", err)
	}
}

func TestFindFamilyByAlias(t *testing.T) {
	r := newTestRegistry(t)

	for _, name := range []string{"leds", "led", "light"} {
		f, err := r.FindFamily(name)
		if err != nil {
			t.Fatalf("FindFamily(%s) error = %v", name, err)
		}
		if f.Name != "leds" {
			t.Errorf("FindFamily(%s) = %s, want leds", name, f.Name)
		}
	}
	if _, err := r.FindFamily("audio"); !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("FindFamily(unknown) error = %v, want ErrUnknownFamily", err)
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name string
		set  string
		want string
	}{
		{"keyer.wpm", "42", "42"},
		{"keyer.wpm", "0x2a", "42"},
		{"keyer.mode", "iambic_b", "iambic_b"},
		{"keyer.mode", "0", "straight"},
		{"keyer.sidetone", "off", "false"},
		{"keyer.sidetone", "yes", "true"},
		{"keyer.callsign", "VK3ABC", "VK3ABC"},
	}
	for _, tt := range tests {
		if err := r.Set(tt.name, tt.set); err != nil {
			t.Errorf("Set(%s, %s) error = %v", tt.name, tt.set, err)
			continue
		}
		got, err := r.Get(tt.name)
		if err != nil {
			t.Errorf("Get(%s) error = %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Get(%s) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestSetErrors(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"keyer.wpm", "101", ErrOutOfRange},
		{"keyer.wpm", "4", ErrOutOfRange},
		{"keyer.wpm", "fast", ErrInvalidValue},
		{"keyer.wpm", "99999999999999999999", ErrOutOfRange},
		{"keyer.mode", "bug", ErrInvalidValue},
		{"keyer.mode", "7", ErrOutOfRange},
		{"keyer.sidetone", "ON", ErrInvalidValue}, // tokens are case-sensitive
		{"keyer.sidetone", "2", ErrInvalidValue},
		{"no.such.path", "1", ErrUnknownParameter},
	}
	for _, tt := range tests {
		if err := r.Set(tt.name, tt.raw); !errors.Is(err, tt.wantErr) {
			t.Errorf("Set(%s, %q) error = %v, want %v", tt.name, tt.raw, err, tt.wantErr)
		}
	}
}

func TestRejectedSetLeavesValueAndBoundariesWork(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.Set("keyer.wpm", "42"); err != nil {
		t.Fatal(err)
	}
	if err := r.Set("keyer.wpm", "500"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Set(500) error = %v, want ErrOutOfRange", err)
	}
	if got, _ := r.Get("keyer.wpm"); got != "42" {
		t.Errorf("value after rejected set = %s, want 42", got)
	}

	// Boundary values are inside the range.
	for _, raw := range []string{"5", "100"} {
		if err := r.Set("keyer.wpm", raw); err != nil {
			t.Errorf("Set(boundary %s) error = %v", raw, err)
		}
	}
}

func TestDescriptorBounds(t *testing.T) {
	r := newTestRegistry(t)

	d, _ := r.Find("keyer.mode")
	if d.Min != 0 || d.Max != 2 {
		t.Errorf("enum bounds = [%d, %d], want [0, 2]", d.Min, d.Max)
	}
	d, _ = r.Find("keyer.callsign")
	if d.Max != 10 {
		t.Errorf("string max = %d, want 10", d.Max)
	}
	d, _ = r.Find("keyer.sidetone")
	if d.Min != 0 || d.Max != 1 {
		t.Errorf("bool bounds = [%d, %d], want [0, 1]", d.Min, d.Max)
	}
}
