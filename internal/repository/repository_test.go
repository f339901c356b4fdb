package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chatstack/chatroom/internal/registry"
	"github.com/chatstack/chatroom/internal/tenantdb"
	"github.com/chatstack/chatroom/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

// testSession provisions a fresh tenant in a temporary directory and returns
// a session scoped to it.
func testSession(t *testing.T) *tenantdb.Session {
	t.Helper()
	dir := t.TempDir()

	regDB, err := database.OpenSQLiteFile(filepath.Join(dir, "registry.db"), gormlogger.Silent)
	require.NoError(t, err)

	locator := tenantdb.NewLocator(filepath.Join(dir, "tenants"))
	factory := tenantdb.NewFactory(locator, 4, gormlogger.Silent)

	reg, err := registry.New(regDB, factory)
	require.NoError(t, err)
	factory.SetFinder(reg)

	tenant, err := reg.CreateTenant(context.Background(), "acme", "acme-store", "secret1")
	require.NoError(t, err)

	s, err := factory.Session(context.Background(), tenant.ID)
	require.NoError(t, err)
	t.Cleanup(s.Release)
	return s
}

// End-to-end repository flow: user joins a chatroom and sends a message that
// then shows up as the only page entry.
func TestChatFlow(t *testing.T) {
	s := testSession(t)

	alice, err := CreateUser(s, UserInput{Username: "alice", Email: "a@x.com", Password: "p"})
	require.NoError(t, err)

	general, err := CreateChatroom(s, ChatroomInput{Name: "general"})
	require.NoError(t, err)

	membership, err := AddMember(s, MembershipInput{UserID: alice.ID, ChatroomID: general.ID, Role: "member"})
	require.NoError(t, err)
	assert.Equal(t, "member", membership.Role)
	assert.NotEmpty(t, membership.ID)

	message, err := CreateMessage(s, MessageInput{UserID: alice.ID, ChatroomID: general.ID, Content: "hi"})
	require.NoError(t, err)

	page, err := ListMessages(s, general.ID, ListParams{
		Page:      1,
		PerPage:   10,
		SortBy:    "timestamp",
		SortOrder: "desc",
	}, MessageFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "hi", page.Items[0].Content)
	assert.Equal(t, message.ID, page.Items[0].ID)
}
