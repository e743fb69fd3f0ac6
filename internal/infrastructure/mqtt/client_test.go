package mqtt

import (
	"errors"
	"strings"
	"sync"
	"testing"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cwstack/keyerd/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for unit tests.
// No broker is contacted; broker-dependent tests live in
// integration_test.go behind the integration build tag.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "keyerd-test",
			TLS:      false,
		},
		Auth: config.MQTTAuthConfig{
			Username: "",
			Password: "",
		},
		QoS:       1,
		TopicBase: "keyer",
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// disconnectedClient builds a Client that was never connected, for
// exercising validation paths.
func disconnectedClient() *Client {
	return &Client{
		cfg:           testConfig(),
		subscriptions: make(map[string]subscription),
	}
}

// =============================================================================
// Topic Builder Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "ParamState",
			builder: func() string {
				return Topics{Base: "keyer"}.ParamState("keyer.wpm")
			},
			expected: "keyer/param/keyer/wpm",
		},
		{
			name: "ParamStateNested",
			builder: func() string {
				return Topics{Base: "keyer"}.ParamState("keyer.tone.pitch")
			},
			expected: "keyer/param/keyer/tone/pitch",
		},
		{
			name: "ParamSet",
			builder: func() string {
				return Topics{Base: "keyer"}.ParamSet("keyer.wpm")
			},
			expected: "keyer/set/keyer/wpm",
		},
		{
			name: "AllParamSets",
			builder: func() string {
				return Topics{Base: "keyer"}.AllParamSets()
			},
			expected: "keyer/set/#",
		},
		{
			name: "Status",
			builder: func() string {
				return Topics{Base: "keyer"}.Status()
			},
			expected: "keyer/status",
		},
		{
			name: "Generation",
			builder: func() string {
				return Topics{Base: "keyer"}.Generation()
			},
			expected: "keyer/generation",
		},
		{
			name: "PresetActive",
			builder: func() string {
				return Topics{Base: "keyer"}.PresetActive()
			},
			expected: "keyer/preset/active",
		},
		{
			name: "Meta",
			builder: func() string {
				return Topics{Base: "keyer"}.Meta()
			},
			expected: "keyer/meta",
		},
		{
			name: "CustomBase",
			builder: func() string {
				return Topics{Base: "station/keyer1"}.ParamState("keyer.wpm")
			},
			expected: "station/keyer1/param/keyer/wpm",
		},
		{
			name: "EmptyBaseFallsBackToDefault",
			builder: func() string {
				return Topics{}.Status()
			},
			expected: "keyer/status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

func TestSetTopicToPath(t *testing.T) {
	topics := Topics{Base: "keyer"}

	tests := []struct {
		name     string
		topic    string
		wantPath string
		wantOK   bool
	}{
		{"simple", "keyer/set/keyer/wpm", "keyer.wpm", true},
		{"nested", "keyer/set/keyer/tone/pitch", "keyer.tone.pitch", true},
		{"wrong prefix", "keyer/param/keyer/wpm", "", false},
		{"foreign base", "other/set/keyer/wpm", "", false},
		{"empty remainder", "keyer/set/", "", false},
		{"bare set topic", "keyer/set", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := topics.SetTopicToPath(tt.topic)
			if ok != tt.wantOK {
				t.Fatalf("SetTopicToPath(%q) ok = %v, want %v", tt.topic, ok, tt.wantOK)
			}
			if path != tt.wantPath {
				t.Errorf("SetTopicToPath(%q) = %q, want %q", tt.topic, path, tt.wantPath)
			}
		})
	}
}

func TestSetTopicRoundtrip(t *testing.T) {
	topics := Topics{Base: "keyer"}

	paths := []string{"keyer.wpm", "keyer.tone.pitch", "presets.2.speed_wpm"}
	for _, path := range paths {
		got, ok := topics.SetTopicToPath(topics.ParamSet(path))
		if !ok {
			t.Fatalf("SetTopicToPath(ParamSet(%q)) ok = false", path)
		}
		if got != path {
			t.Errorf("roundtrip %q = %q", path, got)
		}
	}
}

// =============================================================================
// Validation Tests (no broker required)
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	err := client.Close()
	if err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestIsConnectedInitialState(t *testing.T) {
	client := disconnectedClient()
	if client.IsConnected() {
		t.Error("IsConnected() = true for never-connected client")
	}
}

func TestPublishEmptyTopic(t *testing.T) {
	client := disconnectedClient()

	err := client.Publish("", []byte("payload"), 1, false)
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
	}
}

func TestPublishInvalidQoS(t *testing.T) {
	client := disconnectedClient()

	err := client.Publish("keyer/param/keyer/wpm", []byte("25"), 3, false)
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish() error = %v, want ErrInvalidQoS", err)
	}
}

func TestPublishOversizedPayload(t *testing.T) {
	client := disconnectedClient()

	payload := make([]byte, maxPayloadSize+1)
	err := client.Publish("keyer/meta", payload, 1, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestPublishDisconnected(t *testing.T) {
	client := disconnectedClient()

	err := client.Publish("keyer/param/keyer/wpm", []byte("25"), 1, false)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeEmptyTopic(t *testing.T) {
	client := disconnectedClient()

	err := client.Subscribe("", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestSubscribeInvalidQoS(t *testing.T) {
	client := disconnectedClient()

	err := client.Subscribe("keyer/set/#", 3, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidQoS", err)
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	client := disconnectedClient()

	err := client.Subscribe("keyer/set/#", 1, nil)
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
}

func TestSubscribeDisconnected(t *testing.T) {
	client := disconnectedClient()

	err := client.Subscribe("keyer/set/#", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after failed subscribe, want 0", client.SubscriptionCount())
	}
}

func TestUnsubscribeEmptyTopic(t *testing.T) {
	client := disconnectedClient()

	err := client.Unsubscribe("")
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestUnsubscribeDisconnected(t *testing.T) {
	client := disconnectedClient()

	err := client.Unsubscribe("keyer/set/#")
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscriptionCountEmpty(t *testing.T) {
	client := disconnectedClient()
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
	if client.HasSubscription("keyer/set/#") {
		t.Error("HasSubscription() = true for untracked topic")
	}
}

// =============================================================================
// Handler Wrapping Tests
// =============================================================================

func TestSetLogger(t *testing.T) {
	client := disconnectedClient()

	logger := &mockLogger{}
	client.SetLogger(logger)
	if client.getLogger() == nil {
		t.Error("getLogger() = nil after SetLogger()")
	}

	client.SetLogger(nil)
	if client.getLogger() != nil {
		t.Error("getLogger() should be nil after SetLogger(nil)")
	}
}

func TestWrapHandlerPanicRecovery(t *testing.T) {
	client := disconnectedClient()
	logger := &mockLogger{}
	client.SetLogger(logger)

	wrapped := client.wrapHandler(func(string, []byte) error {
		panic("handler exploded")
	})

	// Must not propagate the panic.
	wrapped(nil, fakeMessage{topic: "keyer/set/keyer/wpm", payload: []byte("25")})

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.errors) != 1 {
		t.Fatalf("logged errors = %d, want 1", len(logger.errors))
	}
	if !strings.Contains(logger.errors[0], "panic") {
		t.Errorf("error message = %q, want mention of panic", logger.errors[0])
	}
}

func TestWrapHandlerLogsError(t *testing.T) {
	client := disconnectedClient()
	logger := &mockLogger{}
	client.SetLogger(logger)

	wrapped := client.wrapHandler(func(string, []byte) error {
		return errors.New("bad payload")
	})

	wrapped(nil, fakeMessage{topic: "keyer/set/keyer/wpm", payload: []byte("oops")})

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warns) != 1 {
		t.Fatalf("logged warnings = %d, want 1", len(logger.warns))
	}
}

func TestWrapHandlerNoLogger(t *testing.T) {
	client := disconnectedClient()

	wrapped := client.wrapHandler(func(string, []byte) error {
		panic("handler exploded")
	})

	// Panic recovery must work without a logger set.
	wrapped(nil, fakeMessage{topic: "keyer/set/keyer/wpm", payload: nil})
}

// fakeMessage implements pahomqtt.Message for handler tests.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

// mockLogger implements Logger for testing.
type mockLogger struct {
	errors []string
	warns  []string
	mu     sync.Mutex
}

func (l *mockLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

var _ pahomqtt.Message = fakeMessage{}
