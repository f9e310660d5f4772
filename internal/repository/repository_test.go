package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_cart/bookshop/internal/catalog"
	db "github.com/fjod/go_cart/bookshop/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *db.Repository {
	// Use in-memory database for tests
	repo, err := db.NewRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.RunMigrations("./migrations"))
	return repo
}

func TestFetch_ReturnsSeededBooks(t *testing.T) {
	repo := setupTestDB(t)

	books, err := repo.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 4)

	assert.Equal(t, "978-0641723445", books[0].ID)
	assert.Equal(t, []string{"book", "hardcover"}, books[0].Cat)
	assert.Equal(t, "Percy Jackson and the Olympians", books[0].Series)
	assert.True(t, books[0].InStock)
	assert.Equal(t, 384, books[0].Pages)

	assert.Equal(t, "Sophie's World : The Greek Philosophers", books[2].Name)
	assert.True(t, decimal.RequireFromString("6.49").Equal(books[1].Price))
	assert.True(t, decimal.RequireFromString("30.5").Equal(books[3].Price))
}

func TestRunMigrations_Idempotent(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.RunMigrations("./migrations"))

	books, err := repo.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 4)
}

func TestFetch_WithContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	books, err := repo.Fetch(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 4)
}

func TestFetch_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSetListed(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SetListed(ctx, "978-1423103349", false))

	books, err := repo.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3)
	for _, b := range books {
		assert.NotEqual(t, "978-1423103349", b.ID)
	}

	// delisted books are still known
	b, err := repo.GetBook(ctx, "978-1423103349")
	require.NoError(t, err)
	assert.Equal(t, "The Sea of Monsters", b.Name)

	require.NoError(t, repo.SetListed(ctx, "978-1423103349", true))
	books, err = repo.Fetch(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 4)
}

func TestGetBook_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetBook(context.Background(), "nope")
	assert.ErrorIs(t, err, db.ErrBookNotFound)

	err = repo.SetListed(context.Background(), "nope", false)
	assert.ErrorIs(t, err, db.ErrBookNotFound)
}

// The repository is a catalog fetcher; delisting a book and refetching marks it unavailable.
func TestRepository_FeedsCatalog(t *testing.T) {
	repo := setupTestDB(t)
	store := catalog.NewStore(repo, zap.NewNop())
	defer store.Close()

	require.Eventually(t, func() bool { return !store.Loading().Get() }, time.Second, time.Millisecond)
	_, available := store.Sizes()
	assert.Equal(t, 4, available)

	require.NoError(t, repo.SetListed(context.Background(), "978-1933988177", false))
	store.Refetch()
	require.Eventually(t, func() bool { return !store.Loading().Get() }, time.Second, time.Millisecond)

	total, available := store.Sizes()
	assert.Equal(t, 4, total)
	assert.Equal(t, 3, available)
	book, ok := store.Book("978-1933988177")
	require.True(t, ok)
	assert.False(t, book.IsAvailable)
}
