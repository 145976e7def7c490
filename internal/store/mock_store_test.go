// ABOUTME: Tests for MockStore
// ABOUTME: Verifies the mock mirrors SQLite ordering, reference checks and failure injection

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time checks that both implementations satisfy Store
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MockStore)(nil)
)

func TestMockStore_ChatLifecycle(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	a, err := m.CreateChat(ctx, "a")
	require.NoError(t, err)
	b, err := m.CreateChat(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, b.Title)

	chats, err := m.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, b.ID, chats[0].ID)

	require.NoError(t, m.RenameChat(ctx, a.ID, "renamed"))
	require.NoError(t, m.RenameChat(ctx, 12345, "ghost"))

	got, err := m.GetChat(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)

	_, err = m.GetChat(ctx, 12345)
	assert.Equal(t, ErrNotFound, err)
}

func TestMockStore_ReferenceChecks(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	_, err := m.CreateMessage(ctx, 1, CategoryUser, "orphan")
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = m.CreateGeneratedFile(ctx, 1, "f", nil)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestMockStore_FailOn(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()
	boom := errors.New("disk full")

	m.FailOn(OpCreateChat, boom)
	_, err := m.CreateChat(ctx, "x")
	assert.Equal(t, boom, err)

	m.FailOn(OpCreateChat, nil)
	_, err = m.CreateChat(ctx, "x")
	assert.NoError(t, err)
}

func TestMockStore_SaveAssistantTurn(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	chat, err := m.CreateChat(ctx, "turn")
	require.NoError(t, err)

	msg, files, err := m.SaveAssistantTurn(ctx, chat.ID, "done", []FileContent{{Name: "out.txt", Content: []byte("hi")}})
	require.NoError(t, err)
	require.Len(t, files, 1)

	listed, err := m.ListGeneratedFiles(ctx, msg.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, []byte("hi"), listed[0].Content)

	// Returned content is a copy
	listed[0].Content[0] = 'X'
	again, err := m.GetGeneratedFile(ctx, listed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), again.Content)
}
