package repository

import (
	"errors"
	"testing"

	"github.com/chatstack/chatroom/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChatroomValidation(t *testing.T) {
	s := testSession(t)

	var ve *errs.ValidationError
	_, err := CreateChatroom(s, ChatroomInput{Description: "no name"})
	require.Error(t, err)
	assert.True(t, errors.As(err, &ve))
}

func TestChatroomRoundTrip(t *testing.T) {
	s := testSession(t)

	created, err := CreateChatroom(s, ChatroomInput{Name: "general", Description: "water cooler"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := GetChatroom(s, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "general", got.Name)
	assert.Equal(t, "water cooler", got.Description)
}

func TestUpdateChatroomPartial(t *testing.T) {
	s := testSession(t)

	created, err := CreateChatroom(s, ChatroomInput{Name: "general", Description: "old"})
	require.NoError(t, err)

	updated, err := UpdateChatroom(s, created.ID, map[string]interface{}{
		"description": "new",
		"id":          999, // not an updatable field, ignored
	})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Description)
	assert.Equal(t, "general", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	_, err = UpdateChatroom(s, 99, map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeleteChatroom(t *testing.T) {
	s := testSession(t)

	created, err := CreateChatroom(s, ChatroomInput{Name: "general"})
	require.NoError(t, err)

	deleted, err := DeleteChatroom(s, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = DeleteChatroom(s, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestListChatroomsBeyondLastPage(t *testing.T) {
	s := testSession(t)

	_, err := CreateChatroom(s, ChatroomInput{Name: "general"})
	require.NoError(t, err)

	page, err := ListChatrooms(s, ListParams{Page: 5, PerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 5, page.CurrentPage)
}
