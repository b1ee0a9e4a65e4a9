package seed

import (
	"context"
	"path/filepath"
	"testing"

	"moneyshelf/internal/models"
	"moneyshelf/internal/repository"
	"moneyshelf/internal/testutil"
	"moneyshelf/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_Run(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := repository.NewShelfStore(filepath.Join(t.TempDir(), "shelves.json"))
	opts := Options{Users: 4, PostsPerUser: 2, BooksPerShelf: 3, Seed: 42, SkipBcrypt: true}

	sum, err := NewFactory(db, store, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Users)
	assert.Equal(t, 8, sum.Posts)
	assert.Equal(t, 8, sum.Comments)
	assert.Equal(t, 8, sum.Follows)
	assert.Equal(t, 3*(len(models.FixedShelves)-1), sum.Books)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 4)
	for _, u := range users {
		assert.NoError(t, validation.ValidateUsername(u.Username), u.Username)
		assert.NoError(t, validation.ValidateEmail(u.Email), u.Email)
	}

	var likes int64
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	assert.Equal(t, int64(sum.Likes), likes)

	shelves, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, shelves[models.MyShelf])
	assert.Len(t, shelves[models.ShelfTechnology], 3)
}

func TestFactory_BookHasTags(t *testing.T) {
	f := NewFactory(nil, nil, Options{Seed: 7})
	b := f.Book()
	assert.NotEmpty(t, b.Title)
	assert.Len(t, b.ISBN, 13)
	assert.NotEmpty(t, b.Tags)
}
