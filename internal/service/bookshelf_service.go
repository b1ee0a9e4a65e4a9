package service

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"moneyshelf/internal/cache"
	"moneyshelf/internal/middleware"
	"moneyshelf/internal/models"
	"moneyshelf/internal/repository"

	"gopkg.in/yaml.v3"
)

// MaxRecommendations caps Recommend results.
const MaxRecommendations = 10

//go:embed curated.yaml
var curatedYAML []byte

// BookCatalog is the set of external lookups the bookshelf needs.
type BookCatalog interface {
	SearchRakuten(ctx context.Context, title string) ([]models.Book, error)
	SearchOpenLibrary(ctx context.Context, title string) ([]models.Book, error)
	NearbyLibraries(ctx context.Context, lat, lon float64) ([]models.Library, error)
}

// Location is an optional search origin for nearby libraries.
type Location struct {
	Lat float64
	Lon float64
}

// ShelfPage is the view of one shelf together with my shelf and the full collection.
type ShelfPage struct {
	Name    string         `json:"name"`
	Books   []models.Book  `json:"books"`
	MyShelf []models.Book  `json:"my_shelf"`
	Shelves models.Shelves `json:"shelves"`
}

type BookshelfService struct {
	catalog BookCatalog
	store   *repository.ShelfStore
	cache   *cache.Cache
	curated models.Shelves
	pool    []models.Book
}

// NewBookshelfService wires the bookshelf. c may be nil.
func NewBookshelfService(catalog BookCatalog, store *repository.ShelfStore, c *cache.Cache) (*BookshelfService, error) {
	curated, err := loadCurated(curatedYAML)
	if err != nil {
		return nil, err
	}
	return &BookshelfService{
		catalog: catalog,
		store:   store,
		cache:   c,
		curated: curated,
	}, nil
}

func loadCurated(raw []byte) (models.Shelves, error) {
	curated := models.Shelves{}
	if err := yaml.Unmarshal(raw, &curated); err != nil {
		return nil, fmt.Errorf("decode curated shelves: %w", err)
	}
	for name, books := range curated {
		if !models.IsShelf(name) || name == models.MyShelf {
			return nil, fmt.Errorf("curated shelf %q is not a fixed read-only shelf", name)
		}
		for i := range books {
			if books[i].Libraries == nil {
				books[i].Libraries = []models.Library{}
			}
		}
	}
	return curated, nil
}

// Search looks a title up in the primary catalog, falling back to Open Library
// when that fails or finds nothing. External failures degrade to an empty list.
// With loc set, the nearest libraries are attached to every book.
func (s *BookshelfService) Search(ctx context.Context, title string, loc *Location) ([]models.Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return []models.Book{}, nil
	}

	var books []models.Book
	key := cache.SearchKey(title)
	if !s.cache.GetJSON(ctx, key, &books) {
		books = s.lookup(ctx, title)
		if len(books) > 0 {
			s.cache.SetJSON(ctx, key, books, cache.SearchTTL)
		}
	}

	libraries := []models.Library{}
	if loc != nil && len(books) > 0 {
		found, err := s.catalog.NearbyLibraries(ctx, loc.Lat, loc.Lon)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "library lookup failed", "error", err)
		} else {
			libraries = found
		}
	}
	for i := range books {
		books[i].Libraries = libraries
	}
	return books, nil
}

func (s *BookshelfService) lookup(ctx context.Context, title string) []models.Book {
	books, err := s.catalog.SearchRakuten(ctx, title)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "primary catalog search failed", "error", err)
	}
	if len(books) > 0 {
		return books
	}

	books, err = s.catalog.SearchOpenLibrary(ctx, title)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "fallback catalog search failed", "error", err)
		return []models.Book{}
	}
	if books == nil {
		books = []models.Book{}
	}
	return books
}

func (s *BookshelfService) LoadShelves(ctx context.Context) (models.Shelves, error) {
	return s.store.Load(ctx)
}

// SaveShelves replaces the whole document. Unknown shelf names are rejected.
func (s *BookshelfService) SaveShelves(ctx context.Context, shelves models.Shelves) error {
	for name := range shelves {
		if !models.IsShelf(name) {
			return models.NewValidationError(fmt.Sprintf("unknown shelf %q", name))
		}
	}
	return s.store.Save(ctx, shelves)
}

// AddToMyShelf appends book unless an entry with the same title exists.
func (s *BookshelfService) AddToMyShelf(ctx context.Context, book models.Book) ([]models.Book, error) {
	if strings.TrimSpace(book.Title) == "" {
		return nil, models.NewValidationError("book title is required")
	}
	if book.Libraries == nil {
		book.Libraries = []models.Library{}
	}

	shelves, err := s.store.Update(ctx, func(shelves models.Shelves) error {
		for _, b := range shelves[models.MyShelf] {
			if b.Title == book.Title {
				return nil
			}
		}
		shelves[models.MyShelf] = append(shelves[models.MyShelf], book)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shelves[models.MyShelf], nil
}

// RemoveFromMyShelf drops every entry titled title. A missing title is not an error.
func (s *BookshelfService) RemoveFromMyShelf(ctx context.Context, title string) ([]models.Book, error) {
	if title == "" {
		return nil, models.NewValidationError("title is required")
	}

	shelves, err := s.store.Update(ctx, func(shelves models.Shelves) error {
		kept := []models.Book{}
		for _, b := range shelves[models.MyShelf] {
			if b.Title != title {
				kept = append(kept, b)
			}
		}
		shelves[models.MyShelf] = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shelves[models.MyShelf], nil
}

func (s *BookshelfService) MyShelf(ctx context.Context) ([]models.Book, error) {
	shelves, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return shelves[models.MyShelf], nil
}

// ShelfNames lists the fixed shelves in display order.
func (s *BookshelfService) ShelfNames() []string {
	names := make([]string, len(models.FixedShelves))
	copy(names, models.FixedShelves)
	return names
}

// ShelfPage returns one shelf with curated entries overlaid. The overlay is
// never persisted.
func (s *BookshelfService) ShelfPage(ctx context.Context, name string) (*ShelfPage, error) {
	if !models.IsShelf(name) {
		return nil, models.NewNotFoundError("Shelf", name)
	}
	shelves, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for shelf, books := range s.curated {
		shelves[shelf] = append([]models.Book(nil), books...)
	}
	return &ShelfPage{
		Name:    name,
		Books:   shelves[name],
		MyShelf: shelves[models.MyShelf],
		Shelves: shelves,
	}, nil
}

// SetCandidatePool replaces the books Recommend chooses from.
func (s *BookshelfService) SetCandidatePool(pool []models.Book) {
	s.pool = pool
}

// Recommend scores the configured candidate pool against history.
func (s *BookshelfService) Recommend(_ context.Context, history []models.Book) []models.Book {
	return RecommendFrom(history, s.pool)
}

// RecommendFrom returns candidates sharing at least one tag with a history
// entry, skipping titles already in history or already picked. At most
// MaxRecommendations are returned.
func RecommendFrom(history, candidates []models.Book) []models.Book {
	seen := make(map[string]struct{}, len(history))
	for _, h := range history {
		seen[h.Title] = struct{}{}
	}

	out := []models.Book{}
	for _, h := range history {
		tags := strings.Fields(h.Tags)
		if len(tags) == 0 {
			continue
		}
		for _, c := range candidates {
			if len(out) == MaxRecommendations {
				return out
			}
			if _, ok := seen[c.Title]; ok {
				continue
			}
			if sharesTag(tags, strings.Fields(c.Tags)) {
				out = append(out, c)
				seen[c.Title] = struct{}{}
			}
		}
	}
	return out
}

func sharesTag(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
