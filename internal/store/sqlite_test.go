package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *SQLiteStore, email string) *User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), "Test User", email, "hashed-password")
	require.NoError(t, err)
	return user
}

func turn(question, answer string) []Message {
	return []Message{
		{Role: RoleUser, Parts: []string{question}},
		{Role: RoleModel, Parts: []string{answer}},
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "A", "dup@example.com", "hash-a")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "B", "dup@example.com", "hash-b")
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestGetUserByEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := createTestUser(t, s, "alice@example.com")

	user, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, created.ID, user.ID)
	require.Equal(t, "hashed-password", user.PasswordHash)

	missing, err := s.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestCreateAndGetConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "owner@example.com")

	conv, err := s.CreateConversation(ctx, owner.ID, "How do I negotiate salary?", turn("How do I negotiate salary?", "Do your research first."))
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)

	got, err := s.GetConversation(ctx, conv.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "How do I negotiate salary?", got.Title)
	require.Len(t, got.Messages, 2)
	require.Equal(t, RoleUser, got.Messages[0].Role)
	require.Equal(t, []string{"How do I negotiate salary?"}, got.Messages[0].Parts)
	require.Equal(t, RoleModel, got.Messages[1].Role)
}

func TestGetConversation_OwnershipIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "owner@example.com")
	other := createTestUser(t, s, "other@example.com")

	conv, err := s.CreateConversation(ctx, owner.ID, "secret plans", turn("q", "a"))
	require.NoError(t, err)

	_, err = s.GetConversation(ctx, conv.ID, other.ID)
	require.ErrorIs(t, err, ErrConversationNotFound)

	_, err = s.GetConversation(ctx, uuid.NewString(), owner.ID)
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestAppendMessages_PreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "owner@example.com")

	conv, err := s.CreateConversation(ctx, owner.ID, "t", turn("first question", "first answer"))
	require.NoError(t, err)

	require.NoError(t, s.AppendMessages(ctx, conv.ID, owner.ID, turn("second question", "second answer")))
	require.NoError(t, s.AppendMessages(ctx, conv.ID, owner.ID, turn("third question", "third answer")))

	got, err := s.GetConversation(ctx, conv.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 6)
	require.Equal(t, []string{"first question"}, got.Messages[0].Parts)
	require.Equal(t, []string{"second answer"}, got.Messages[3].Parts)
	require.Equal(t, []string{"third question"}, got.Messages[4].Parts)
	for i, msg := range got.Messages {
		if i%2 == 0 {
			require.Equal(t, RoleUser, msg.Role)
		} else {
			require.Equal(t, RoleModel, msg.Role)
		}
	}
}

func TestAppendMessages_WrongOwnerWritesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "owner@example.com")
	other := createTestUser(t, s, "other@example.com")

	conv, err := s.CreateConversation(ctx, owner.ID, "t", turn("q", "a"))
	require.NoError(t, err)

	err = s.AppendMessages(ctx, conv.ID, other.ID, turn("intruder q", "intruder a"))
	require.ErrorIs(t, err, ErrConversationNotFound)

	err = s.AppendMessages(ctx, uuid.NewString(), owner.ID, turn("q2", "a2"))
	require.ErrorIs(t, err, ErrConversationNotFound)

	got, err := s.GetConversation(ctx, conv.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
}

func TestListConversations_NewestUpdatedFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "owner@example.com")
	other := createTestUser(t, s, "other@example.com")

	first, err := s.CreateConversation(ctx, owner.ID, "first", turn("q1", "a1"))
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := s.CreateConversation(ctx, owner.ID, "second", turn("q2", "a2"))
	require.NoError(t, err)
	_, err = s.CreateConversation(ctx, other.ID, "not mine", turn("q3", "a3"))
	require.NoError(t, err)

	list, err := s.ListConversations(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)

	// Appending to the older conversation bumps it to the top.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.AppendMessages(ctx, first.ID, owner.ID, turn("q4", "a4")))

	list, err = s.ListConversations(ctx, owner.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, list[0].ID)
}

func TestListConversations_EmptyForNewUser(t *testing.T) {
	s := newTestStore(t)
	owner := createTestUser(t, s, "fresh@example.com")

	list, err := s.ListConversations(context.Background(), owner.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}
