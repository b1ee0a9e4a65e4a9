package models

// Fixed shelf names. MyShelf is the only mutable one.
const (
	ShelfSavingsFirst    = "貯蓄優先型"
	ShelfSteadySaving    = "積立安定型"
	ShelfActiveChallenge = "アクティブチャレンジ型"
	ShelfStaking         = "ステーキング運用型"
	ShelfActiveEquity    = "株式アクティブ型"
	ShelfHighRisk        = "ハイリスクハイリターン型"
	ShelfTechnology      = "テクノロジー志向型"
	ShelfAdvancedSaving  = "積立応用型"
	MyShelf              = "私の本棚"
)

// FixedShelves lists every shelf name in display order.
var FixedShelves = []string{
	ShelfSavingsFirst,
	ShelfSteadySaving,
	ShelfActiveChallenge,
	ShelfStaking,
	ShelfActiveEquity,
	ShelfHighRisk,
	ShelfTechnology,
	ShelfAdvancedSaving,
	MyShelf,
}

// IsShelf reports whether name is one of the fixed shelves.
func IsShelf(name string) bool {
	for _, s := range FixedShelves {
		if s == name {
			return true
		}
	}
	return false
}

// Library is a nearby library attached to a search result.
type Library struct {
	Name string  `json:"name" yaml:"name"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lon  float64 `json:"lon" yaml:"lon"`
	URL  string  `json:"url" yaml:"url"`
}

// Book is one shelf or search entry. Tags is a space-separated string.
type Book struct {
	Title       string    `json:"title" yaml:"title"`
	Author      string    `json:"author" yaml:"author"`
	ISBN        string    `json:"isbn" yaml:"isbn"`
	Price       int       `json:"price" yaml:"price"`
	Image       string    `json:"image" yaml:"image"`
	ItemURL     string    `json:"itemUrl" yaml:"itemUrl"`
	Tags        string    `json:"tags" yaml:"tags"`
	Libraries   []Library `json:"libraries" yaml:"libraries"`
	Description string    `json:"description,omitempty" yaml:"description"`
	Year        int       `json:"year,omitempty" yaml:"year"`
}

// Shelves is the persisted shelf document keyed by shelf name.
type Shelves map[string][]Book

// NewShelves returns a document with every fixed shelf set to an empty list.
func NewShelves() Shelves {
	s := make(Shelves, len(FixedShelves))
	for _, name := range FixedShelves {
		s[name] = []Book{}
	}
	return s
}
