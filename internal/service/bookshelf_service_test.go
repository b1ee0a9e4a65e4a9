package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"moneyshelf/internal/cache"
	"moneyshelf/internal/models"
	"moneyshelf/internal/repository"
	"moneyshelf/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogStub struct {
	rakuten     func(string) ([]models.Book, error)
	openLibrary func(string) ([]models.Book, error)
	libraries   func(lat, lon float64) ([]models.Library, error)
	calls       atomic.Int32
}

func (c *catalogStub) SearchRakuten(_ context.Context, title string) ([]models.Book, error) {
	c.calls.Add(1)
	if c.rakuten == nil {
		return nil, nil
	}
	return c.rakuten(title)
}

func (c *catalogStub) SearchOpenLibrary(_ context.Context, title string) ([]models.Book, error) {
	c.calls.Add(1)
	if c.openLibrary == nil {
		return nil, nil
	}
	return c.openLibrary(title)
}

func (c *catalogStub) NearbyLibraries(_ context.Context, lat, lon float64) ([]models.Library, error) {
	c.calls.Add(1)
	if c.libraries == nil {
		return nil, nil
	}
	return c.libraries(lat, lon)
}

func newBookshelf(t *testing.T, catalog BookCatalog, c *cache.Cache) (*BookshelfService, *repository.ShelfStore) {
	t.Helper()
	store := repository.NewShelfStore(filepath.Join(t.TempDir(), "shelves.json"))
	svc, err := NewBookshelfService(catalog, store, c)
	require.NoError(t, err)
	return svc, store
}

func TestBookshelf_SearchBlankMakesNoRequest(t *testing.T) {
	stub := &catalogStub{}
	svc, _ := newBookshelf(t, stub, nil)

	books, err := svc.Search(context.Background(), "   ", &Location{Lat: 35, Lon: 139})
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.NotNil(t, books)
	assert.Zero(t, stub.calls.Load())
}

func TestBookshelf_SearchFallsBackToOpenLibrary(t *testing.T) {
	tests := []struct {
		name    string
		rakuten func(string) ([]models.Book, error)
	}{
		{"primary empty", func(string) ([]models.Book, error) { return []models.Book{}, nil }},
		{"primary error", func(string) ([]models.Book, error) { return nil, models.NewExternalServiceError("rakuten", errors.New("boom")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &catalogStub{
				rakuten: tt.rakuten,
				openLibrary: func(title string) ([]models.Book, error) {
					return []models.Book{{Title: title + " (OL)", Year: 1999}}, nil
				},
			}
			svc, _ := newBookshelf(t, stub, nil)
			books, err := svc.Search(context.Background(), "Go", nil)
			require.NoError(t, err)
			require.Len(t, books, 1)
			assert.Equal(t, "Go (OL)", books[0].Title)
			assert.Empty(t, books[0].Libraries)
		})
	}
}

func TestBookshelf_SearchDegradesWhenEverythingFails(t *testing.T) {
	fail := errors.New("down")
	stub := &catalogStub{
		rakuten:     func(string) ([]models.Book, error) { return nil, fail },
		openLibrary: func(string) ([]models.Book, error) { return nil, fail },
	}
	svc, _ := newBookshelf(t, stub, nil)
	books, err := svc.Search(context.Background(), "Go", &Location{Lat: 1, Lon: 2})
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestBookshelf_SearchAttachesLibrariesAndCaches(t *testing.T) {
	_, rdb := testutil.NewTestRedis(t)
	var gotLat, gotLon float64
	stub := &catalogStub{
		rakuten: func(string) ([]models.Book, error) {
			return []models.Book{{Title: "A"}, {Title: "B"}}, nil
		},
		libraries: func(lat, lon float64) ([]models.Library, error) {
			gotLat, gotLon = lat, lon
			return []models.Library{{Name: "中央図書館", Lat: lat, Lon: lon}}, nil
		},
	}
	svc, _ := newBookshelf(t, stub, cache.New(rdb))
	ctx := context.Background()

	books, err := svc.Search(ctx, "お金", &Location{Lat: 35.68, Lon: 139.76})
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, 35.68, gotLat)
	assert.Equal(t, 139.76, gotLon)
	for _, b := range books {
		require.Len(t, b.Libraries, 1)
		assert.Equal(t, "中央図書館", b.Libraries[0].Name)
	}
	assert.Equal(t, int32(2), stub.calls.Load())

	// Second search is served from cache; only the catalog lookups are skipped.
	books, err = svc.Search(ctx, " お金 ", nil)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Empty(t, books[0].Libraries)
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestBookshelf_MyShelf(t *testing.T) {
	svc, store := newBookshelf(t, &catalogStub{}, nil)
	ctx := context.Background()

	mine, err := svc.MyShelf(ctx)
	require.NoError(t, err)
	assert.Empty(t, mine)

	book := models.Book{Title: "お金の大学", Author: "両", Tags: "finance nisa"}
	_, err = svc.AddToMyShelf(ctx, book)
	require.NoError(t, err)
	mine, err = svc.AddToMyShelf(ctx, book)
	require.NoError(t, err)
	assert.Len(t, mine, 1, "adding the same title twice keeps one entry")

	_, err = svc.AddToMyShelf(ctx, models.Book{Title: " "})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	mine, err = svc.RemoveFromMyShelf(ctx, "missing")
	require.NoError(t, err)
	assert.Len(t, mine, 1, "removing a missing title is a no-op")

	mine, err = svc.RemoveFromMyShelf(ctx, "お金の大学")
	require.NoError(t, err)
	assert.Empty(t, mine)

	shelves, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, shelves, len(models.FixedShelves))
	assert.Empty(t, shelves[models.MyShelf])
}

func TestBookshelf_SaveShelvesRejectsUnknownShelf(t *testing.T) {
	svc, _ := newBookshelf(t, &catalogStub{}, nil)
	err := svc.SaveShelves(context.Background(), models.Shelves{"unknown": {}})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	shelves := models.NewShelves()
	shelves[models.ShelfTechnology] = []models.Book{{Title: "SICP"}}
	require.NoError(t, svc.SaveShelves(context.Background(), shelves))

	loaded, err := svc.LoadShelves(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SICP", loaded[models.ShelfTechnology][0].Title)
}

func TestBookshelf_ShelfPageOverlaysCuratedEntries(t *testing.T) {
	svc, store := newBookshelf(t, &catalogStub{}, nil)
	ctx := context.Background()

	shelves := models.NewShelves()
	shelves[models.ShelfSavingsFirst] = []models.Book{{Title: "stored"}}
	require.NoError(t, store.Save(ctx, shelves))
	_, err := svc.AddToMyShelf(ctx, models.Book{Title: "mine"})
	require.NoError(t, err)

	page, err := svc.ShelfPage(ctx, models.ShelfSavingsFirst)
	require.NoError(t, err)
	assert.Equal(t, models.ShelfSavingsFirst, page.Name)
	require.Len(t, page.Books, 2)
	assert.Equal(t, "新　賢明なる投資家（下）第3版", page.Books[0].Title)
	assert.Equal(t, 4180, page.Books[0].Price)
	assert.Len(t, page.Shelves[models.ShelfSteadySaving], 1)
	require.Len(t, page.MyShelf, 1)
	assert.Equal(t, "mine", page.MyShelf[0].Title)

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, persisted[models.ShelfSavingsFirst], 1)
	assert.Equal(t, "stored", persisted[models.ShelfSavingsFirst][0].Title)
	assert.Empty(t, persisted[models.ShelfSteadySaving])

	_, err = svc.ShelfPage(ctx, "no such shelf")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestLoadCuratedRejectsMyShelf(t *testing.T) {
	_, err := loadCurated([]byte("私の本棚:\n  - title: x\n"))
	assert.Error(t, err)
}

func TestRecommendFrom(t *testing.T) {
	history := []models.Book{{Title: "read", Tags: "finance nisa"}}
	candidates := []models.Book{
		{Title: "read", Tags: "finance"},
		{Title: "match", Tags: "nisa tax"},
		{Title: "match", Tags: "finance"},
		{Title: "other", Tags: "cooking"},
		{Title: "untagged"},
	}

	got := RecommendFrom(history, candidates)
	require.Len(t, got, 1)
	assert.Equal(t, "match", got[0].Title)

	assert.Empty(t, RecommendFrom([]models.Book{{Title: "no tags"}}, candidates))
}

func TestRecommendFrom_CapsAtTen(t *testing.T) {
	var pool []models.Book
	for i := 0; i < 25; i++ {
		pool = append(pool, models.Book{Title: string(rune('a' + i)), Tags: "x"})
	}
	got := RecommendFrom([]models.Book{{Title: "h", Tags: "x"}}, pool)
	assert.Len(t, got, MaxRecommendations)
}

func TestBookshelf_RecommendDefaultPoolIsEmpty(t *testing.T) {
	svc, _ := newBookshelf(t, &catalogStub{}, nil)
	got := svc.Recommend(context.Background(), []models.Book{{Title: "h", Tags: "x"}})
	assert.Empty(t, got)

	svc.SetCandidatePool([]models.Book{{Title: "c", Tags: "x"}})
	got = svc.Recommend(context.Background(), []models.Book{{Title: "h", Tags: "x"}})
	assert.Len(t, got, 1)
}
