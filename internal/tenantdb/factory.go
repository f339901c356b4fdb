package tenantdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chatstack/chatroom/internal/errs"
	"github.com/chatstack/chatroom/internal/model"
	"github.com/chatstack/chatroom/pkg/database"
	"github.com/chatstack/chatroom/pkg/logger"
	"github.com/chatstack/chatroom/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// TenantFinder resolves a tenant id against the shared registry.
type TenantFinder interface {
	FindByID(ctx context.Context, id uint) (*model.Tenant, error)
}

// Factory produces sessions bound to a single tenant's storage. It owns the
// per-tenant engine cache: one engine per distinct storage location, reused
// across requests, capped with least-recently-used eviction.
type Factory struct {
	finder   TenantFinder
	locator  *Locator
	logLevel gormlogger.LogLevel

	mu         sync.Mutex
	engines    map[string]*engineEntry
	maxEngines int
}

type engineEntry struct {
	db       *gorm.DB
	lastUsed time.Time
	sessions int // open sessions bound to this engine
}

// NewFactory creates a session factory. maxEngines caps the engine cache; it
// should comfortably exceed the number of tenants active at once, since an
// evicted engine's pooled connections are closed.
func NewFactory(locator *Locator, maxEngines int, logLevel gormlogger.LogLevel) *Factory {
	if maxEngines < 1 {
		maxEngines = 1
	}
	return &Factory{
		locator:    locator,
		logLevel:   logLevel,
		engines:    make(map[string]*engineEntry),
		maxEngines: maxEngines,
	}
}

// SetFinder binds the factory to the tenant registry. The registry is
// constructed after the factory (it provisions storage through it), so the
// lookup side is wired here rather than in the constructor.
func (f *Factory) SetFinder(finder TenantFinder) {
	f.finder = finder
}

// Session resolves the tenant, locates its storage, ensures the schema exists
// and returns a new single-use session bound to the cached engine for that
// location. ErrTenantNotFound means no registry row; ErrStorageUnavailable
// means the tenant exists but its storage could not be opened or provisioned.
func (f *Factory) Session(ctx context.Context, tenantID uint) (*Session, error) {
	if f.finder == nil {
		return nil, fmt.Errorf("session factory not bound to a tenant registry")
	}
	tenant, err := f.finder.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	entry, err := f.openScoped(ctx, tenant.ID, true)
	if err != nil {
		return nil, err
	}

	prometheus.RecordSessionOpened()
	prometheus.ActiveSessionsGauge.Inc()

	return &Session{
		db:       entry.db.WithContext(ctx).Session(&gorm.Session{NewDB: true}),
		tenantID: tenant.ID,
		onRelease: func() {
			f.releaseEngine(entry)
			prometheus.ActiveSessionsGauge.Dec()
		},
	}, nil
}

// WithSession runs fn inside a request-scoped session lifecycle: acquire,
// run, release. Release runs on every exit path, including panics and
// cancellation.
func (f *Factory) WithSession(ctx context.Context, tenantID uint, fn func(*Session) error) error {
	s, err := f.Session(ctx, tenantID)
	if err != nil {
		return err
	}
	defer s.Release()
	return fn(s)
}

// Provision opens (creating if needed) the storage for a tenant id and
// materializes its schema. Used at tenant creation time, before the registry
// row is visible to Session.
func (f *Factory) Provision(ctx context.Context, tenantID uint) error {
	_, err := f.openScoped(ctx, tenantID, false)
	return err
}

// openScoped returns the cached engine for the tenant's storage location,
// opening it and ensuring the schema on first use. With pin set the entry is
// held open for a session and must be returned through releaseEngine.
func (f *Factory) openScoped(ctx context.Context, tenantID uint, pin bool) (*engineEntry, error) {
	path := f.locator.Path(tenantID)

	entry, err := f.engine(path, pin)
	if err != nil {
		// Full detail (including the path) goes to the log; the returned
		// error carries only the tenant-level label.
		logger.FromContext(ctx).Error("Failed to open tenant storage",
			zap.Uint("tenant_id", tenantID), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: open %s", errs.ErrStorageUnavailable, storageLabel(tenantID))
	}

	if err := f.locator.EnsureSchema(path, entry.db); err != nil {
		if pin {
			f.releaseEngine(entry)
		}
		logger.FromContext(ctx).Error("Failed to provision tenant schema",
			zap.Uint("tenant_id", tenantID), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: provision %s", errs.ErrStorageUnavailable, storageLabel(tenantID))
	}

	return entry, nil
}

// engine returns the cached engine entry for a storage location, opening a
// new one on miss and evicting idle entries past the cap.
func (f *Factory) engine(path string, pin bool) (*engineEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if entry, ok := f.engines[path]; ok {
		entry.lastUsed = time.Now()
		if pin {
			entry.sessions++
		}
		return entry, nil
	}

	db, err := database.OpenSQLiteFile(path, f.logLevel)
	if err != nil {
		return nil, err
	}

	entry := &engineEntry{db: db, lastUsed: time.Now()}
	if pin {
		entry.sessions = 1
	}
	f.engines[path] = entry
	prometheus.EngineCacheGauge.Set(float64(len(f.engines)))

	f.evictIdle()
	return entry, nil
}

// releaseEngine returns a pinned engine entry when its session is released.
// A release may bring the cache back under its cap if eviction had to wait
// for outstanding sessions.
func (f *Factory) releaseEngine(entry *engineEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if entry.sessions > 0 {
		entry.sessions--
	}
	f.evictIdle()
}

// evictIdle closes and drops least recently used engines until the cache is
// within its cap. An engine with open sessions is never closed; if every
// engine is busy the cache stays over cap until the next release. Caller
// holds f.mu.
func (f *Factory) evictIdle() {
	for len(f.engines) > f.maxEngines {
		var oldestPath string
		var oldest time.Time
		for p, e := range f.engines {
			if e.sessions > 0 {
				continue
			}
			if oldestPath == "" || e.lastUsed.Before(oldest) {
				oldestPath = p
				oldest = e.lastUsed
			}
		}
		if oldestPath == "" {
			return
		}

		entry := f.engines[oldestPath]
		delete(f.engines, oldestPath)
		prometheus.EngineCacheGauge.Set(float64(len(f.engines)))

		if sqlDB, err := entry.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.GetLogger().Warn("Failed to close evicted tenant engine", zap.Error(err))
			}
		}
		logger.GetLogger().Info("Evicted tenant engine", zap.String("reason", "cache full"))
	}
}

// storageLabel identifies a tenant's storage in errors without leaking the
// filesystem path.
func storageLabel(tenantID uint) string {
	return fmt.Sprintf("tenant storage %d", tenantID)
}
