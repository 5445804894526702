package docling

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gaspardpetit/echoflow/internal/errdefs"
	"github.com/gaspardpetit/echoflow/internal/logx"
)

// DefaultHealthInterval is how long a health check result stays cached.
const DefaultHealthInterval = 300 * time.Second

// Factory constructs the engine handle. Expected to be slow: it may download
// models or wait for a remote backend.
type Factory func(ctx context.Context) (Engine, error)

// ModelManager owns the lifecycle of one expensive engine handle: lazy
// initialization, an interval-throttled health probe, and cleanup.
// Cold-start callers share a single in-flight construction.
type ModelManager struct {
	factory  Factory
	interval time.Duration

	group singleflight.Group

	mu              sync.Mutex
	engine          Engine
	initialized     bool
	lastHealthCheck time.Time
	verifyCount     int
}

// NewModelManager builds a manager around factory. A non-positive interval
// falls back to DefaultHealthInterval.
func NewModelManager(factory Factory, interval time.Duration) *ModelManager {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	return &ModelManager{factory: factory, interval: interval}
}

// Initialize constructs and verifies the engine handle. It is idempotent;
// concurrent cold-start callers share one construction. On failure no
// partial state persists, so the call is retryable once the external cause
// is fixed.
func (m *ModelManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	_, err, _ := m.group.Do("initialize", func() (any, error) {
		m.mu.Lock()
		if m.initialized {
			m.mu.Unlock()
			return nil, nil
		}
		m.mu.Unlock()

		logx.Log.Info().Msg("initializing AI model backend")
		start := time.Now()
		engine, err := m.factory(ctx)
		if err == nil {
			err = m.verify(ctx, engine)
		}
		if err != nil {
			logx.Log.Error().Err(err).Msg("AI model initialization failed")
			return nil, errdefs.WrapUnavailable(err, "AI model initialization failed: "+err.Error())
		}

		m.mu.Lock()
		m.engine = engine
		m.initialized = true
		m.mu.Unlock()
		logx.Log.Info().Dur("elapsed", time.Since(start)).Msg("AI model backend initialized")
		return nil, nil
	})
	return err
}

// Engine returns the handle, initializing it first if necessary. A nil
// handle after successful initialization is an invariant violation and
// surfaces as a conversion error.
func (m *ModelManager) Engine(ctx context.Context) (Engine, error) {
	m.mu.Lock()
	initialized := m.initialized
	m.mu.Unlock()
	if !initialized {
		if err := m.Initialize(ctx); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine == nil {
		return nil, errdefs.Unavailable("Document converter not available")
	}
	return m.engine, nil
}

// HealthCheck reports whether the engine is usable. Within the cache
// interval it answers from state without touching the backend; otherwise it
// re-verifies. Verification failures are logged, never raised.
func (m *ModelManager) HealthCheck(ctx context.Context) bool {
	m.mu.Lock()
	if time.Since(m.lastHealthCheck) < m.interval {
		ok := m.initialized && m.engine != nil
		m.mu.Unlock()
		return ok
	}
	if !m.initialized || m.engine == nil {
		m.mu.Unlock()
		logx.Log.Warn().Msg("AI models not initialized during health check")
		return false
	}
	engine := m.engine
	m.mu.Unlock()

	err := m.verify(ctx, engine)

	m.mu.Lock()
	m.lastHealthCheck = time.Now()
	m.mu.Unlock()
	if err != nil {
		logx.Log.Warn().Err(err).Msg("AI model health check failed")
		return false
	}
	return true
}

func (m *ModelManager) verify(ctx context.Context, engine Engine) error {
	m.mu.Lock()
	m.verifyCount++
	m.mu.Unlock()
	if engine == nil {
		return errdefs.Processing("Document converter not available")
	}
	if err := engine.Ping(ctx); err != nil {
		return errdefs.WrapProcessing(err, "AI model verification failed: "+err.Error())
	}
	return nil
}

// Cleanup drops the handle and resets the manager. Idempotent and safe to
// call before Initialize; a resource manager must never block shutdown.
func (m *ModelManager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine = nil
	m.initialized = false
	logx.Log.Info().Msg("AI model manager cleaned up")
}

// Initialized reports whether the engine handle is currently held.
func (m *ModelManager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Info describes the manager state for the status endpoint.
func (m *ModelManager) Info() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := "not_initialized"
	if m.initialized {
		status = "initialized"
	}
	return map[string]string{
		"status":            status,
		"engine_available":  strconv.FormatBool(m.engine != nil),
		"last_health_check": m.lastHealthCheck.Format(time.RFC3339),
	}
}
