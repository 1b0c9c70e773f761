package adapter

import (
	"context"
	"time"
)

// RawItem is one normalized listing scraped from a source, before product
// identity resolution. String fields are UTF-8; the adapter is responsible
// for decoding legacy encodings.
type RawItem struct {
	Site           string     `json:"site"`
	OriginalID     string     `json:"original_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	PerformerNames string     `json:"performer_names,omitempty"`
	MakerCode      string     `json:"maker_code,omitempty"`
	Maker          string     `json:"maker,omitempty"`
	Price          int        `json:"price,omitempty"`
	ListPrice      int        `json:"list_price,omitempty"`
	SaleEndsAt     *time.Time `json:"sale_ends_at,omitempty"`
	URL            string     `json:"url"`
	ImageURL       string     `json:"image_url,omitempty"`
	SampleVideoURL string     `json:"sample_video_url,omitempty"`
	ReleaseDate    string     `json:"release_date,omitempty"`
	DurationMin    int        `json:"duration_min,omitempty"`
	Genres         []string   `json:"genres,omitempty"`
}

// PageRange selects which slice of a source's listing to fetch.
type PageRange struct {
	Page  int
	Limit int
	Start int
}

// SourceAdapter is the contract every site adapter implements.
type SourceAdapter interface {
	// FetchPage retrieves and parses one listing page range
	FetchPage(ctx context.Context, r PageRange) ([]RawItem, error)

	// Name returns the adapter's name for logging and identification
	Name() string

	// Site returns the canonical ASP name the adapter crawls
	Site() string
}

// IDExtractorFunc extracts a site-native product id from a detail URL.
type IDExtractorFunc func(link string) (string, error)

// Selectors contains CSS selectors for the elements of an HTML listing page.
type Selectors struct {
	ItemList    string
	Title       string
	Link        string
	Thumbnail   string
	Performers  string
	ReleaseDate string
	Duration    string
	Price       string
	PriceRegex  string
	ClassFilter string
}

// SiteConfig configures one selector-driven HTML adapter.
type SiteConfig struct {
	URL         string
	BaseURL     string
	Site        string
	Encoding    string // "shift_jis", "euc-jp" or "" for sniffing
	BlockKey    string
	BlockTime   int
	Selectors   Selectors
	IDExtractor IDExtractorFunc
}
