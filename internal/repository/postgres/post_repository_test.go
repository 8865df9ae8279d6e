//go:build !integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectPostsPattern = `SELECT \* FROM "posts"`

func postRows(postedAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "item_id", "variant", "message_id", "posted_at"}).
		AddRow(1, 42, "A", "msg-9", postedAt)
}

func TestLastPostedAt(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	postedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(selectPostsPattern).
		WillReturnRows(postRows(postedAt))

	last, err := repo.LastPostedAt(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(postedAt))
}

func TestLastPostedAt_NeverPosted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(selectPostsPattern).
		WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "variant", "message_id", "posted_at"}))

	last, err := repo.LastPostedAt(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestCanRepost_NeverPostedIsEligible(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(selectPostsPattern).
		WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "variant", "message_id", "posted_at"}))

	ok, err := repo.CanRepost(context.Background(), 42, 5*24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanRepost_WithinCooldown(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	mock.ExpectQuery(selectPostsPattern).
		WillReturnRows(postRows(now.Add(-24 * time.Hour)))

	ok, err := repo.CanRepost(context.Background(), 42, 5*24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanRepost_CooldownExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	mock.ExpectQuery(selectPostsPattern).
		WillReturnRows(postRows(now.Add(-6 * 24 * time.Hour)))

	ok, err := repo.CanRepost(context.Background(), 42, 5*24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecent_DefaultsLimit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(selectPostsPattern).
		WillReturnRows(postRows(time.Now()))

	posts, err := repo.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(42), posts[0].ItemID)
}
