package tenantdb

import (
	"sync"

	"gorm.io/gorm"
)

// Session is a single-use handle bound to exactly one tenant's storage. It is
// acquired at request start and must be released at request end; Release is
// safe to call more than once but runs its cleanup exactly once. Repositories
// take a Session and never resolve their own tenant, so a wrongly-scoped
// operation is structurally impossible at that layer.
type Session struct {
	db       *gorm.DB
	tenantID uint

	once      sync.Once
	onRelease func()
}

// DB returns the storage handle scoped to the owning tenant.
func (s *Session) DB() *gorm.DB {
	return s.db
}

// TenantID returns the id of the tenant this session is bound to.
func (s *Session) TenantID() uint {
	return s.tenantID
}

// Release returns the session. Mutating repository operations commit or roll
// back per call, so release carries no pending transaction; it exists so the
// request lifecycle has a single unconditional cleanup point on every exit
// path.
func (s *Session) Release() {
	s.once.Do(func() {
		if s.onRelease != nil {
			s.onRelease()
		}
	})
}
