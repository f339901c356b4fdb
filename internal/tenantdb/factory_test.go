package tenantdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chatstack/chatroom/internal/errs"
	"github.com/chatstack/chatroom/internal/model"
	"github.com/chatstack/chatroom/internal/registry"
	"github.com/chatstack/chatroom/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStack(t *testing.T) (*registry.Registry, *Factory) {
	t.Helper()
	dir := t.TempDir()

	regDB, err := database.OpenSQLiteFile(filepath.Join(dir, "registry.db"), gormlogger.Silent)
	require.NoError(t, err)

	locator := NewLocator(filepath.Join(dir, "tenants"))
	factory := NewFactory(locator, 8, gormlogger.Silent)

	reg, err := registry.New(regDB, factory)
	require.NoError(t, err)
	factory.SetFinder(reg)

	return reg, factory
}

func TestSessionTenantNotFound(t *testing.T) {
	_, factory := newTestStack(t)

	_, err := factory.Session(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrTenantNotFound)
	assert.NotErrorIs(t, err, errs.ErrStorageUnavailable)
}

func TestSessionStorageUnavailable(t *testing.T) {
	dir := t.TempDir()

	regDB, err := database.OpenSQLiteFile(filepath.Join(dir, "registry.db"), gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, regDB.AutoMigrate(&model.Tenant{}))

	// Registry row exists, but the data directory path is occupied by the
	// registry file itself, so tenant storage cannot be created under it.
	tenant := &model.Tenant{Name: "acme", StorageLabel: "acme-store", Credential: "secret1"}
	require.NoError(t, regDB.Create(tenant).Error)

	locator := NewLocator(filepath.Join(dir, "registry.db"))
	factory := NewFactory(locator, 8, gormlogger.Silent)

	reg, err := registry.New(regDB, stubProvisioner{})
	require.NoError(t, err)
	factory.SetFinder(reg)

	_, err = factory.Session(context.Background(), tenant.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, errs.ErrTenantNotFound)
}

type stubProvisioner struct{}

func (stubProvisioner) Provision(ctx context.Context, tenantID uint) error { return nil }

func TestTenantIsolation(t *testing.T) {
	reg, factory := newTestStack(t)
	ctx := context.Background()

	tenantA, err := reg.CreateTenant(ctx, "acme", "acme-store", "secret1")
	require.NoError(t, err)
	tenantB, err := reg.CreateTenant(ctx, "globex", "globex-store", "secret2")
	require.NoError(t, err)

	// Same username under both tenants: each storage assigns its own ids.
	var idA, idB uint
	require.NoError(t, factory.WithSession(ctx, tenantA.ID, func(s *Session) error {
		u := &model.User{Username: "alice", Email: "a@x.com", Password: "p"}
		if err := s.DB().Create(u).Error; err != nil {
			return err
		}
		idA = u.ID
		return nil
	}))
	require.NoError(t, factory.WithSession(ctx, tenantB.ID, func(s *Session) error {
		u := &model.User{Username: "alice", Email: "a@x.com", Password: "p"}
		if err := s.DB().Create(u).Error; err != nil {
			return err
		}
		idB = u.ID
		return nil
	}))
	assert.Equal(t, idA, idB, "ids are assigned independently per tenant")

	// Deleting under A must not touch B's row with the identical id.
	require.NoError(t, factory.WithSession(ctx, tenantA.ID, func(s *Session) error {
		result := s.DB().Delete(&model.User{}, idA)
		require.NoError(t, result.Error)
		assert.Equal(t, int64(1), result.RowsAffected)
		return nil
	}))

	require.NoError(t, factory.WithSession(ctx, tenantB.ID, func(s *Session) error {
		var user model.User
		require.NoError(t, s.DB().First(&user, idB).Error)
		assert.Equal(t, "alice", user.Username)

		var count int64
		require.NoError(t, s.DB().Model(&model.User{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
		return nil
	}))

	require.NoError(t, factory.WithSession(ctx, tenantA.ID, func(s *Session) error {
		var count int64
		require.NoError(t, s.DB().Model(&model.User{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
		return nil
	}))
}

func TestEngineIsCachedPerTenant(t *testing.T) {
	reg, factory := newTestStack(t)
	ctx := context.Background()

	tenant, err := reg.CreateTenant(ctx, "acme", "acme-store", "secret1")
	require.NoError(t, err)

	s1, err := factory.Session(ctx, tenant.ID)
	require.NoError(t, err)
	s1.Release()
	s2, err := factory.Session(ctx, tenant.ID)
	require.NoError(t, err)
	s2.Release()

	factory.mu.Lock()
	defer factory.mu.Unlock()
	assert.Len(t, factory.engines, 1)
}

func TestEngineCacheEviction(t *testing.T) {
	dir := t.TempDir()

	regDB, err := database.OpenSQLiteFile(filepath.Join(dir, "registry.db"), gormlogger.Silent)
	require.NoError(t, err)

	locator := NewLocator(filepath.Join(dir, "tenants"))
	factory := NewFactory(locator, 1, gormlogger.Silent)

	reg, err := registry.New(regDB, factory)
	require.NoError(t, err)
	factory.SetFinder(reg)

	ctx := context.Background()
	tenantA, err := reg.CreateTenant(ctx, "acme", "acme-store", "secret1")
	require.NoError(t, err)
	tenantB, err := reg.CreateTenant(ctx, "globex", "globex-store", "secret2")
	require.NoError(t, err)

	for _, id := range []uint{tenantA.ID, tenantB.ID, tenantA.ID} {
		s, err := factory.Session(ctx, id)
		require.NoError(t, err)
		s.Release()
	}

	factory.mu.Lock()
	defer factory.mu.Unlock()
	assert.Len(t, factory.engines, 1)
}

func TestEvictionSparesEnginesWithOpenSessions(t *testing.T) {
	dir := t.TempDir()

	regDB, err := database.OpenSQLiteFile(filepath.Join(dir, "registry.db"), gormlogger.Silent)
	require.NoError(t, err)

	locator := NewLocator(filepath.Join(dir, "tenants"))
	factory := NewFactory(locator, 1, gormlogger.Silent)

	reg, err := registry.New(regDB, factory)
	require.NoError(t, err)
	factory.SetFinder(reg)

	ctx := context.Background()
	tenantA, err := reg.CreateTenant(ctx, "acme", "acme-store", "secret1")
	require.NoError(t, err)
	tenantB, err := reg.CreateTenant(ctx, "globex", "globex-store", "secret2")
	require.NoError(t, err)

	sA, err := factory.Session(ctx, tenantA.ID)
	require.NoError(t, err)

	// Opening another tenant's engine past the cap must not close A's engine
	// while its session is still held.
	sB, err := factory.Session(ctx, tenantB.ID)
	require.NoError(t, err)

	u := &model.User{Username: "alice", Email: "a@x.com", Password: "p"}
	require.NoError(t, sA.DB().Create(u).Error, "held session must survive cache pressure")

	// The cache runs over cap until the busy engine is released.
	factory.mu.Lock()
	assert.Len(t, factory.engines, 2)
	factory.mu.Unlock()

	sB.Release()
	sA.Release()

	factory.mu.Lock()
	defer factory.mu.Unlock()
	assert.Len(t, factory.engines, 1)
}

func TestSessionReleaseRunsOnce(t *testing.T) {
	released := 0
	s := &Session{onRelease: func() { released++ }}

	s.Release()
	s.Release()
	assert.Equal(t, 1, released)
}

func TestWithSessionReleasesOnEveryPath(t *testing.T) {
	reg, factory := newTestStack(t)
	ctx := context.Background()

	tenant, err := reg.CreateTenant(ctx, "acme", "acme-store", "secret1")
	require.NoError(t, err)

	var captured *Session

	// Success path: the session handed to fn is released afterwards.
	require.NoError(t, factory.WithSession(ctx, tenant.ID, func(s *Session) error {
		captured = s
		return nil
	}))
	stillPending := false
	captured.once.Do(func() { stillPending = true })
	assert.False(t, stillPending, "session was not released on the success path")

	// Failure path: the error propagates and the session is still released.
	sentinel := assert.AnError
	err = factory.WithSession(ctx, tenant.ID, func(s *Session) error {
		captured = s
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	stillPending = false
	captured.once.Do(func() { stillPending = true })
	assert.False(t, stillPending, "session was not released on the failure path")

	// Panic path: release still happens via defer.
	func() {
		defer func() { _ = recover() }()
		_ = factory.WithSession(ctx, tenant.ID, func(s *Session) error {
			captured = s
			panic("boom")
		})
	}()
	stillPending = false
	captured.once.Do(func() { stillPending = true })
	assert.False(t, stillPending, "session was not released during panic unwind")
}

func TestSessionSeesOwnWrites(t *testing.T) {
	reg, factory := newTestStack(t)
	ctx := context.Background()

	tenant, err := reg.CreateTenant(ctx, "acme", "acme-store", "secret1")
	require.NoError(t, err)

	require.NoError(t, factory.WithSession(ctx, tenant.ID, func(s *Session) error {
		u := &model.User{Username: "alice", Email: "a@x.com", Password: "p"}
		if err := s.DB().Create(u).Error; err != nil {
			return err
		}
		var got model.User
		if err := s.DB().First(&got, u.ID).Error; err != nil {
			return err
		}
		assert.Equal(t, u.Username, got.Username)
		return nil
	}))
}
