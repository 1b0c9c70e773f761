package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"aspingest/internal/normalize"
	apperr "aspingest/pkg/errors"
	"aspingest/services/cache"
	"aspingest/services/ratelimit"
)

// MGSAdapter consumes the MGS vendor search API. The endpoint returns UTF-8
// JSON, so no encoding work is needed; the product_id field carries the
// maker code directly.
type MGSAdapter struct {
	BaseAdapter
}

type mgsSearchResponse struct {
	Count   int       `json:"count"`
	Results []mgsItem `json:"search_result"`
}

type mgsItem struct {
	ProductID   string   `json:"product_id"`
	Title       string   `json:"title"`
	Actress     string   `json:"actress"`
	Maker       string   `json:"maker"`
	Price       int      `json:"price"`
	ListPrice   int      `json:"list_price"`
	SaleEndAt   string   `json:"sale_end_at"`
	ImageURL    string   `json:"image_url"`
	SampleURL   string   `json:"sample_url"`
	DetailURL   string   `json:"detail_url"`
	ReleaseDate string   `json:"release_date"`
	Duration    int      `json:"duration"`
	Genres      []string `json:"genres"`
}

// NewMGSAdapter creates the MGS API adapter.
func NewMGSAdapter(apiURL string, cacheSvc cache.CacheService, limiter *ratelimit.Limiter) *MGSAdapter {
	return &MGSAdapter{
		BaseAdapter: BaseAdapter{
			URL:       apiURL,
			SiteName:  "mgs",
			BlockKey:  "mgs_blocked",
			BlockTime: 300 * time.Second,
			CacheSvc:  cacheSvc,
			Limiter:   limiter,
		},
	}
}

// Name returns the adapter's name for logging
func (a *MGSAdapter) Name() string {
	return a.SiteName
}

// FetchPage fetches one page of the vendor search API.
func (a *MGSAdapter) FetchPage(ctx context.Context, r PageRange) ([]RawItem, error) {
	page := r.Page
	if page <= 0 {
		page = 1
	}
	limit := r.Limit
	if limit <= 0 {
		limit = 50
	}

	sep := "?"
	if strings.Contains(a.URL, "?") {
		sep = "&"
	}
	url := fmt.Sprintf("%s%spage=%d&limit=%d", a.URL, sep, page, limit)

	body, err := a.fetchRaw(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp mgsSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperr.NewParsing(a.SiteName, "JSON decode failed", err)
	}

	items := make([]RawItem, 0, len(resp.Results))
	for _, m := range resp.Results {
		if m.ProductID == "" || m.Title == "" {
			continue
		}
		item := RawItem{
			Site:           a.SiteName,
			OriginalID:     m.ProductID,
			MakerCode:      m.ProductID,
			Title:          normalize.NormalizeWhitespace(m.Title),
			PerformerNames: m.Actress,
			Maker:          m.Maker,
			Price:          m.Price,
			ListPrice:      m.ListPrice,
			URL:            normalize.StripAffiliateNoise(m.DetailURL),
			ImageURL:       normalize.CleanImageURL(m.ImageURL),
			SampleVideoURL: m.SampleURL,
			ReleaseDate:    m.ReleaseDate,
			DurationMin:    m.Duration,
			Genres:         m.Genres,
		}
		if t := parseSaleEnd(m.SaleEndAt); t != nil {
			item.SaleEndsAt = t
		}
		items = append(items, item)
	}
	return items, nil
}

func parseSaleEnd(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
