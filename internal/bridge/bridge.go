package bridge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cwstack/keyerd/internal/console"
	imqtt "github.com/cwstack/keyerd/internal/infrastructure/mqtt"
	"github.com/cwstack/keyerd/internal/meta"
	"github.com/cwstack/keyerd/internal/preset"
	"github.com/cwstack/keyerd/internal/store"
)

// Bridge operation constants.
const (
	// defaultPollInterval is how often the store generation is checked
	// when no interval is configured.
	defaultPollInterval = 250 * time.Millisecond

	// defaultQoS is the QoS used for state publications when none is
	// configured.
	defaultQoS byte = 1
)

// Bridge mirrors the parameter store onto MQTT topics and routes set
// commands from remote consoles back through the console registry.
// It handles:
//   - Publishing retained parameter state on change (generation polling)
//   - Receiving set commands and applying them with full validation
//   - Publishing the generation counter, active preset slot, and the
//     JSON parameter description
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	registry *console.Registry
	st       *store.Store
	bank     *preset.Bank // optional
	metaTab  *meta.Table  // optional
	mqtt     MQTTClient
	topics   imqtt.Topics
	qos      byte
	poll     time.Duration

	// Last published state for change detection.
	lastValues map[string]string
	lastGen    uint32
	lastActive int
	stateMu    sync.Mutex

	// Shutdown coordination
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	// Logger
	logger   Logger
	loggerMu sync.RWMutex
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// Registry is the console registry used to read and write parameters.
	Registry *console.Registry

	// Store is the parameter store backing the registry. Its generation
	// counter drives change detection.
	Store *store.Store

	// Bank is optional preset storage. If set, the active slot is
	// published when it changes.
	Bank *preset.Bank

	// Meta is optional parameter description metadata, published as a
	// retained JSON document on start.
	Meta *meta.Table

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// TopicBase is the topic prefix. Empty uses the default.
	TopicBase string

	// QoS is the QoS level for publications (default 1).
	QoS byte

	// PollInterval is how often the generation counter is checked.
	// Zero uses the default.
	PollInterval time.Duration

	// Logger is optional structured logger.
	Logger Logger
}

// New creates a new bridge instance.
// Call Start() to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}

	qos := opts.QoS
	if qos == 0 {
		qos = defaultQoS
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	return &Bridge{
		registry:   opts.Registry,
		st:         opts.Store,
		bank:       opts.Bank,
		metaTab:    opts.Meta,
		mqtt:       opts.MQTTClient,
		topics:     imqtt.Topics{Base: opts.TopicBase},
		qos:        qos,
		poll:       poll,
		lastValues: make(map[string]string),
		lastActive: -1,
		done:       make(chan struct{}),
		logger:     opts.Logger,
	}, nil
}

// Start begins bridge operation.
// This publishes the retained metadata and initial parameter state,
// subscribes to set commands, and starts the generation poll loop.
func (b *Bridge) Start(ctx context.Context) error {
	if b.metaTab != nil {
		if err := b.publishMeta(); err != nil {
			b.logError("failed to publish parameter metadata", err)
		}
	}

	// Publish the full initial state so new subscribers see every
	// parameter without waiting for a change.
	b.publishAll()

	setTopic := b.topics.AllParamSets()
	if err := b.mqtt.Subscribe(setTopic, b.qos, b.handleSet); err != nil {
		return fmt.Errorf("subscribe to set commands: %w", err)
	}
	b.logInfo("subscribed to set commands", "topic", setTopic)

	b.wg.Add(1)
	go b.pollLoop(ctx)

	b.logInfo("bridge started",
		"topic_base", b.topics.Base,
		"parameters", len(b.registry.Params()),
		"poll_interval", b.poll)

	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
		b.logInfo("bridge stopped")
	})
}

// pollLoop watches the store generation counter and republishes
// changed parameters.
func (b *Bridge) pollLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-ticker.C:
			b.publishChanged()
		}
	}
}

// publishMeta publishes the retained JSON parameter description.
func (b *Bridge) publishMeta() error {
	doc, err := b.metaTab.Export()
	if err != nil {
		return err
	}
	return b.mqtt.Publish(b.topics.Meta(), doc, b.qos, true)
}

// publishAll publishes every parameter, the generation counter, and
// the active preset slot, unconditionally.
func (b *Bridge) publishAll() {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	params := b.registry.Params()
	for i := range params {
		b.publishParamLocked(&params[i])
	}
	b.publishGenerationLocked()
	b.publishActiveLocked()
}

// publishChanged republishes parameters whose formatted value differs
// from the last publication. Cheap when nothing changed: a single
// atomic load of the generation counter.
func (b *Bridge) publishChanged() {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	gen := b.st.Generation()
	if gen != b.lastGen {
		params := b.registry.Params()
		for i := range params {
			d := &params[i]
			value := d.Format(d.Get())
			if b.lastValues[d.FullPath] == value {
				continue
			}
			b.publishParamLocked(d)
		}
		b.publishGenerationLocked()
	}

	if b.bank != nil && b.bank.Active() != b.lastActive {
		b.publishActiveLocked()
	}
}

// publishParamLocked publishes one parameter's retained state.
// Caller must hold stateMu.
func (b *Bridge) publishParamLocked(d *console.Descriptor) {
	value := d.Format(d.Get())
	topic := b.topics.ParamState(d.FullPath)
	if err := b.mqtt.Publish(topic, []byte(value), b.qos, true); err != nil {
		b.logError("failed to publish parameter state", err)
		return
	}
	b.lastValues[d.FullPath] = value
}

// publishGenerationLocked publishes the store generation counter.
// Caller must hold stateMu.
func (b *Bridge) publishGenerationLocked() {
	gen := b.st.Generation()
	payload := strconv.FormatUint(uint64(gen), 10)
	if err := b.mqtt.Publish(b.topics.Generation(), []byte(payload), b.qos, true); err != nil {
		b.logError("failed to publish generation", err)
		return
	}
	b.lastGen = gen
}

// publishActiveLocked publishes the active preset slot.
// Caller must hold stateMu.
func (b *Bridge) publishActiveLocked() {
	if b.bank == nil {
		return
	}
	active := b.bank.Active()
	payload := strconv.Itoa(active)
	if err := b.mqtt.Publish(b.topics.PresetActive(), []byte(payload), b.qos, true); err != nil {
		b.logError("failed to publish active preset", err)
		return
	}
	b.lastActive = active
}

// handleSet applies a set command received from a remote console.
// Invalid paths and rejected values are logged and dropped; the
// retained state topic keeps the unchanged value, so a misbehaving
// remote converges back to reality.
func (b *Bridge) handleSet(topic string, payload []byte) {
	path, ok := b.topics.SetTopicToPath(topic)
	if !ok {
		b.logDebug("ignoring message outside set prefix", "topic", topic)
		return
	}

	raw := strings.TrimSpace(string(payload))
	if err := b.registry.Set(path, raw); err != nil {
		b.logWarn("rejected set command",
			"path", path,
			"value", raw,
			"error", err)
		return
	}

	b.logDebug("applied set command", "path", path, "value", raw)

	// Republish immediately rather than waiting for the next poll.
	b.publishChanged()
}

// SetLogger sets the logger for bridge operations.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

// logInfo logs an info message if logger is set.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning message if logger is set.
func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (b *Bridge) logError(msg string, err error) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}

// logDebug logs a debug message if logger is set.
func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}
