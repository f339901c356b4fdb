package tenantdb

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/chatstack/chatroom/internal/model"
	"github.com/chatstack/chatroom/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestLocatorPathIsDeterministic(t *testing.T) {
	locator := NewLocator("/var/lib/chatroom/tenants")

	assert.Equal(t, locator.Path(7), locator.Path(7))
	assert.NotEqual(t, locator.Path(7), locator.Path(8))
	assert.Equal(t, filepath.Join("/var/lib/chatroom/tenants", "tenant_7.db"), locator.Path(7))
}

func TestEnsureSchemaCreatesTables(t *testing.T) {
	dir := t.TempDir()
	locator := NewLocator(dir)
	path := locator.Path(1)

	db, err := database.OpenSQLiteFile(path, gormlogger.Silent)
	require.NoError(t, err)

	require.NoError(t, locator.EnsureSchema(path, db))

	for _, table := range []string{"users", "chatrooms", "memberships", "messages"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	locator := NewLocator(dir)
	path := locator.Path(1)

	db, err := database.OpenSQLiteFile(path, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, locator.EnsureSchema(path, db))

	user := &model.User{Username: "alice", Email: "a@x.com", Password: "p"}
	require.NoError(t, db.Create(user).Error)

	// Re-running provisioning, including through a fresh locator that has no
	// verified flag for the path, must not lose existing data.
	require.NoError(t, locator.EnsureSchema(path, db))
	require.NoError(t, NewLocator(dir).EnsureSchema(path, db))

	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureSchemaConcurrent(t *testing.T) {
	dir := t.TempDir()
	locator := NewLocator(dir)
	path := locator.Path(1)

	db, err := database.OpenSQLiteFile(path, gormlogger.Silent)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errCh := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- locator.EnsureSchema(path, db)
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	user := &model.User{Username: "alice", Email: "a@x.com", Password: "p"}
	require.NoError(t, db.Create(user).Error)
	assert.Equal(t, uint(1), user.ID)
}

func TestEnsureSchemaDistinctLocations(t *testing.T) {
	dir := t.TempDir()
	locator := NewLocator(dir)

	for id := uint(1); id <= 3; id++ {
		path := locator.Path(id)
		db, err := database.OpenSQLiteFile(path, gormlogger.Silent)
		require.NoError(t, err)
		require.NoError(t, locator.EnsureSchema(path, db))

		user := &model.User{Username: fmt.Sprintf("u%d", id), Email: fmt.Sprintf("u%d@x.com", id), Password: "p"}
		require.NoError(t, db.Create(user).Error)
	}
}
