package persist

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cwstack/keyerd/internal/store"
)

// Logger is the minimal logging interface the manager needs. It matches
// *slog.Logger so one can be passed directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager moves values between a runtime store and a backing store.
type Manager struct {
	store     *store.Store
	backing   Backing
	namespace string
	log       Logger
}

// NewManager builds a manager over the given store and backing. A nil
// logger is replaced with a no-op logger.
func NewManager(s *store.Store, b Backing, log Logger) (*Manager, error) {
	if s == nil {
		return nil, errors.New("persist: store is nil")
	}
	if b == nil {
		return nil, errors.New("persist: backing is nil")
	}
	if log == nil {
		log = noopLogger{}
	}
	return &Manager{store: s, backing: b, namespace: DefaultNamespace, log: log}, nil
}

// NewManagerNS is NewManager with an explicit key namespace. Distinct
// namespaces let several stores (live parameters, preset banks) share
// one backing without key collisions.
func NewManagerNS(s *store.Store, b Backing, namespace string, log Logger) (*Manager, error) {
	m, err := NewManager(s, b, log)
	if err != nil {
		return nil, err
	}
	if namespace == "" {
		return nil, errors.New("persist: namespace is empty")
	}
	m.namespace = namespace
	return m, nil
}

// LoadAll restores every persisted parameter into the store and returns
// how many were applied. A key with no persisted value leaves the
// default untouched. A value that fails to read or validate is logged
// and skipped. An unreachable backing store aborts with
// ErrStoreUnavailable.
func (m *Manager) LoadAll(ctx context.Context) (int, error) {
	if err := m.backing.Ping(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	loaded := 0
	for i := 0; i < m.store.Len(); i++ {
		h := m.store.At(i)
		err := m.loadField(ctx, h)
		switch {
		case err == nil:
			loaded++
		case errors.Is(err, ErrKeyNotFound):
			m.log.Debug("no persisted value, keeping default", "path", h.Path())
		default:
			m.log.Warn("failed to load parameter", "path", h.Path(), "error", err)
		}
	}
	m.log.Info("configuration loaded", "applied", loaded, "total", m.store.Len())
	return loaded, nil
}

// SaveAll writes every parameter to the backing store and returns how
// many were written. Per-key failures are logged and skipped. An
// unreachable backing store aborts with ErrStoreUnavailable.
func (m *Manager) SaveAll(ctx context.Context) (int, error) {
	if err := m.backing.Ping(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	saved := 0
	for i := 0; i < m.store.Len(); i++ {
		h := m.store.At(i)
		if err := m.saveField(ctx, h); err != nil {
			m.log.Warn("failed to save parameter", "path", h.Path(), "error", err)
			continue
		}
		saved++
	}
	m.log.Info("configuration saved", "written", saved, "total", m.store.Len())
	return saved, nil
}

// LoadParam restores a single parameter by full path. A missing key
// returns ErrKeyNotFound; an unknown path returns ErrUnknownParameter.
func (m *Manager) LoadParam(ctx context.Context, path string) error {
	h, ok := m.store.Lookup(path)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, path)
	}
	return m.loadField(ctx, h)
}

// SaveParam writes a single parameter by full path.
func (m *Manager) SaveParam(ctx context.Context, path string) error {
	h, ok := m.store.Lookup(path)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, path)
	}
	return m.saveField(ctx, h)
}

func (m *Manager) loadField(ctx context.Context, h store.Handle) error {
	p := h.Field().Param
	key := p.PersistKey()

	if h.Kind() == store.KindString {
		v, err := m.backing.GetString(ctx, m.namespace, key)
		if err != nil {
			return err
		}
		if p.MaxLength > 0 && len(v) > p.MaxLength {
			return fmt.Errorf("persist: %s: persisted string length %d exceeds %d",
				p.FullPath, len(v), p.MaxLength)
		}
		h.SetString(v)
		return nil
	}

	word, err := m.backing.GetWord(ctx, m.namespace, key)
	if err != nil {
		return err
	}

	// Validate against the schema before the value reaches the
	// runtime; a corrupt row must not displace the default.
	switch h.Kind() {
	case store.KindU8, store.KindU16, store.KindU32:
		if word < p.Min || word > p.Max {
			return fmt.Errorf("persist: %s: persisted value %d outside [%d, %d]",
				p.FullPath, word, p.Min, p.Max)
		}
	case store.KindBool:
		if word > 1 {
			return fmt.Errorf("persist: %s: persisted bool %d", p.FullPath, word)
		}
	case store.KindEnum:
		if int(word) >= len(p.EnumValues) {
			return fmt.Errorf("persist: %s: persisted ordinal %d of %d members",
				p.FullPath, word, len(p.EnumValues))
		}
	case store.KindFloat:
		f := math.Float32frombits(word)
		if p.HasRange && (f < float32(p.Min) || f > float32(p.Max)) {
			return fmt.Errorf("persist: %s: persisted value %g outside [%d, %d]",
				p.FullPath, f, p.Min, p.Max)
		}
	}
	h.SetWord(word)
	return nil
}

func (m *Manager) saveField(ctx context.Context, h store.Handle) error {
	key := h.Field().Param.PersistKey()
	if h.Kind() == store.KindString {
		return m.backing.SetString(ctx, m.namespace, key, h.String())
	}
	return m.backing.SetWord(ctx, m.namespace, key, h.Word())
}
