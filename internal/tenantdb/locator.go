// Package tenantdb implements the tenant database routing layer: locating a
// tenant's isolated storage, provisioning its schema, caching one engine per
// tenant and handing out single-use request-scoped sessions.
package tenantdb

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/chatstack/chatroom/internal/model"
	"gorm.io/gorm"
)

// perTenantModels lists every table materialized in a tenant's storage.
func perTenantModels() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Chatroom{},
		&model.Membership{},
		&model.Message{},
	}
}

// Locator maps a tenant id to its physical storage location and tracks which
// locations have had their schema materialized. It does not consult the
// registry; verifying the tenant exists is the caller's job.
type Locator struct {
	dataDir string

	mu       sync.Mutex // guards locks and verified
	locks    map[string]*sync.Mutex
	verified map[string]bool
}

// NewLocator creates a locator rooted at dataDir.
func NewLocator(dataDir string) *Locator {
	return &Locator{
		dataDir:  dataDir,
		locks:    make(map[string]*sync.Mutex),
		verified: make(map[string]bool),
	}
}

// Path returns the storage location for a tenant id. Deterministic and pure:
// the same id always maps to the same file.
func (l *Locator) Path(tenantID uint) string {
	return filepath.Join(l.dataDir, fmt.Sprintf("tenant_%d.db", tenantID))
}

// EnsureSchema idempotently creates the per-tenant tables on the given
// engine. Safe to call concurrently for the same location: migration runs
// under a per-location lock, and a verified flag makes the per-request
// invocation a map lookup after the first success.
func (l *Locator) EnsureSchema(path string, db *gorm.DB) error {
	l.mu.Lock()
	if l.verified[path] {
		l.mu.Unlock()
		return nil
	}
	lock := l.locks[path]
	if lock == nil {
		lock = &sync.Mutex{}
		l.locks[path] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	// Another caller may have finished while we waited on the lock.
	l.mu.Lock()
	done := l.verified[path]
	l.mu.Unlock()
	if done {
		return nil
	}

	if err := db.AutoMigrate(perTenantModels()...); err != nil {
		return err
	}

	l.mu.Lock()
	l.verified[path] = true
	l.mu.Unlock()
	return nil
}
