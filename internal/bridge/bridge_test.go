package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cwstack/keyerd/internal/console"
	"github.com/cwstack/keyerd/internal/meta"
	"github.com/cwstack/keyerd/internal/preset"
	"github.com/cwstack/keyerd/internal/schema"
	"github.com/cwstack/keyerd/internal/store"
)

// MockMQTTClient implements MQTTClient for testing.
type MockMQTTClient struct {
	mu            sync.Mutex
	published     []mockPublish
	subscriptions []mockSubscription
	connected     bool
	handlers      []func(topic string, payload []byte)
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

type mockSubscription struct {
	Topic string
	QoS   byte
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{connected: true}
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, mockPublish{
		Topic:    topic,
		Payload:  payload,
		QoS:      qos,
		Retained: retained,
	})
	return nil
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, mockSubscription{Topic: topic, QoS: qos})
	m.handlers = append(m.handlers, handler)
	return nil
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// SimulateMessage delivers a message to every registered handler, the
// way a broker would for a matching wildcard subscription.
func (m *MockMQTTClient) SimulateMessage(topic string, payload []byte) {
	m.mu.Lock()
	handlers := make([]func(string, []byte), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()
	for _, h := range handlers {
		h(topic, payload)
	}
}

func (m *MockMQTTClient) GetSubscriptions() []mockSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := make([]mockSubscription, len(m.subscriptions))
	copy(subs, m.subscriptions)
	return subs
}

// LastPayload returns the payload of the most recent publish to a
// topic, or "" if the topic was never published.
func (m *MockMQTTClient) LastPayload(topic string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.published) - 1; i >= 0; i-- {
		if m.published[i].Topic == topic {
			return string(m.published[i].Payload)
		}
	}
	return ""
}

// WasRetained reports whether the most recent publish to a topic was
// retained.
func (m *MockMQTTClient) WasRetained(topic string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.published) - 1; i >= 0; i-- {
		if m.published[i].Topic == topic {
			return m.published[i].Retained
		}
	}
	return false
}

// =============================================================================
// Fixtures
// =============================================================================

func testParams() []schema.Parameter {
	return []schema.Parameter{
		{
			Name: "wpm", Family: "keyer", FullPath: "keyer.wpm",
			Type: schema.TypeU16, HasRange: true, Min: 5, Max: 100,
			DefaultUint: 20,
		},
		{
			Name: "mode", Family: "keyer", FullPath: "keyer.mode",
			Type:        schema.TypeEnum,
			EnumValues:  []string{"straight", "iambic_a", "iambic_b"},
			DefaultEnum: "iambic_b",
		},
		{
			Name: "pitch", Family: "keyer", Subfamily: "tone",
			FullPath: "keyer.tone.pitch",
			Type:     schema.TypeU16, HasRange: true, Min: 300, Max: 1200,
			DefaultUint: 600,
		},
		{
			Name: "brightness", Family: "leds", FullPath: "leds.brightness",
			Type: schema.TypeU8, Min: 0, Max: 255, DefaultUint: 128,
		},
	}
}

func testFamilies() []schema.Family {
	return []schema.Family{
		{Name: "keyer", Order: 1, Aliases: []string{"k"}},
		{Name: "leds", Order: 2},
	}
}

type bridgeFixture struct {
	bridge   *Bridge
	registry *console.Registry
	store    *store.Store
	mqtt     *MockMQTTClient
}

func newBridgeFixture(t *testing.T, adjust func(*Options)) *bridgeFixture {
	t.Helper()

	s, err := store.New(testParams())
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	r, err := console.NewRegistry(s, testFamilies())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	mock := NewMockMQTTClient()

	opts := Options{
		Registry:     r,
		Store:        s,
		MQTTClient:   mock,
		TopicBase:    "keyer",
		PollInterval: 10 * time.Millisecond,
	}
	if adjust != nil {
		adjust(&opts)
	}

	b, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return &bridgeFixture{bridge: b, registry: r, store: s, mqtt: mock}
}

// waitForPayload polls the mock until the topic carries the wanted
// payload or the deadline expires.
func waitForPayload(t *testing.T, mock *MockMQTTClient, topic, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mock.LastPayload(topic) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("topic %s = %q, want %q", topic, mock.LastPayload(topic), want)
}

// =============================================================================
// Tests
// =============================================================================

func TestNewValidation(t *testing.T) {
	s, err := store.New(testParams())
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	r, err := console.NewRegistry(s, testFamilies())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	mock := NewMockMQTTClient()

	tests := []struct {
		name string
		opts Options
	}{
		{"missing registry", Options{Store: s, MQTTClient: mock}},
		{"missing store", Options{Registry: r, MQTTClient: mock}},
		{"missing client", Options{Registry: r, Store: s}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("New() expected error")
			}
		})
	}
}

func TestStartPublishesInitialState(t *testing.T) {
	f := newBridgeFixture(t, nil)

	if err := f.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.bridge.Stop()

	// Every parameter appears as a retained state topic.
	checks := map[string]string{
		"keyer/param/keyer/wpm":        "20",
		"keyer/param/keyer/mode":       "iambic_b",
		"keyer/param/keyer/tone/pitch": "600",
		"keyer/param/leds/brightness":  "128",
		"keyer/generation":             "0",
	}
	for topic, want := range checks {
		if got := f.mqtt.LastPayload(topic); got != want {
			t.Errorf("LastPayload(%s) = %q, want %q", topic, got, want)
		}
		if !f.mqtt.WasRetained(topic) {
			t.Errorf("publish to %s not retained", topic)
		}
	}

	subs := f.mqtt.GetSubscriptions()
	if len(subs) != 1 || subs[0].Topic != "keyer/set/#" {
		t.Errorf("subscriptions = %v, want keyer/set/#", subs)
	}
}

func TestSetCommandApplied(t *testing.T) {
	f := newBridgeFixture(t, nil)

	if err := f.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.bridge.Stop()

	f.mqtt.SimulateMessage("keyer/set/keyer/wpm", []byte("30"))

	got, err := f.registry.Get("keyer.wpm")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "30" {
		t.Errorf("keyer.wpm = %q after set command, want \"30\"", got)
	}

	// State and generation are republished without waiting for a poll.
	if got := f.mqtt.LastPayload("keyer/param/keyer/wpm"); got != "30" {
		t.Errorf("state topic = %q, want \"30\"", got)
	}
	if got := f.mqtt.LastPayload("keyer/generation"); got != "1" {
		t.Errorf("generation topic = %q, want \"1\"", got)
	}
}

func TestSetCommandWhitespaceTrimmed(t *testing.T) {
	f := newBridgeFixture(t, nil)

	if err := f.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.bridge.Stop()

	f.mqtt.SimulateMessage("keyer/set/keyer/mode", []byte("straight\n"))

	got, err := f.registry.Get("keyer.mode")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "straight" {
		t.Errorf("keyer.mode = %q, want \"straight\"", got)
	}
}

func TestSetCommandRejected(t *testing.T) {
	f := newBridgeFixture(t, nil)

	if err := f.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.bridge.Stop()

	// Out of range: store default must stand.
	f.mqtt.SimulateMessage("keyer/set/keyer/wpm", []byte("500"))

	got, err := f.registry.Get("keyer.wpm")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "20" {
		t.Errorf("keyer.wpm = %q after rejected set, want \"20\"", got)
	}
	if got := f.mqtt.LastPayload("keyer/param/keyer/wpm"); got != "20" {
		t.Errorf("state topic = %q after rejected set, want \"20\"", got)
	}
}

func TestSetCommandUnknownPath(t *testing.T) {
	f := newBridgeFixture(t, nil)

	if err := f.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.bridge.Stop()

	// Must not panic or publish anything new for the bogus path.
	f.mqtt.SimulateMessage("keyer/set/keyer/nonexistent", []byte("1"))

	if got := f.mqtt.LastPayload("keyer/param/keyer/nonexistent"); got != "" {
		t.Errorf("unexpected publish for unknown path: %q", got)
	}
}

func TestPollPublishesLocalChange(t *testing.T) {
	f := newBridgeFixture(t, nil)

	if err := f.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.bridge.Stop()

	// A write from the daemon side (console, API) is picked up by the
	// generation poll.
	if err := f.registry.Set("keyer.tone.pitch", "700"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	waitForPayload(t, f.mqtt, "keyer/param/keyer/tone/pitch", "700")
	waitForPayload(t, f.mqtt, "keyer/generation", "1")
}

func TestMetaPublishedRetained(t *testing.T) {
	model := &schema.Model{
		Version:    2,
		Families:   testFamilies(),
		Parameters: testParams(),
	}
	table := meta.New(model)

	f := newBridgeFixture(t, func(o *Options) {
		o.Meta = table
	})

	if err := f.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.bridge.Stop()

	doc := f.mqtt.LastPayload("keyer/meta")
	if doc == "" {
		t.Fatal("meta topic not published")
	}
	if !f.mqtt.WasRetained("keyer/meta") {
		t.Error("meta publish not retained")
	}
}

func TestPresetActivePublished(t *testing.T) {
	bank, err := preset.NewBank(&schema.PresetSpec{
		Count: 4,
		Template: []schema.Parameter{
			{
				Name: "speed_wpm", Type: schema.TypeU8,
				HasRange: true, Min: 5, Max: 60, DefaultUint: 20,
			},
		},
	})
	if err != nil {
		t.Fatalf("NewBank() error = %v", err)
	}

	f := newBridgeFixture(t, func(o *Options) {
		o.Bank = bank
	})

	if err := f.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.bridge.Stop()

	if got := f.mqtt.LastPayload("keyer/preset/active"); got != "0" {
		t.Errorf("initial active slot = %q, want \"0\"", got)
	}

	if err := bank.Activate(2); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	waitForPayload(t, f.mqtt, "keyer/preset/active", "2")
}

func TestStopIdempotent(t *testing.T) {
	f := newBridgeFixture(t, nil)

	if err := f.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f.bridge.Stop()
	f.bridge.Stop()
}
