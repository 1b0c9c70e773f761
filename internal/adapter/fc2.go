package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"aspingest/internal/normalize"
	apperr "aspingest/pkg/errors"
	"aspingest/services/cache"
	"aspingest/services/ratelimit"
)

// FC2Adapter consumes the FC2 contents marketplace listing API. Items are
// seller uploads with numeric ids and no maker codes, so identity resolution
// always falls back to the site-native id for this source.
type FC2Adapter struct {
	BaseAdapter
}

type fc2ListResponse struct {
	Contents []fc2Item `json:"contents"`
}

type fc2Item struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Seller      string   `json:"seller_name"`
	Price       int      `json:"price"`
	SalePrice   int      `json:"sale_price"`
	URL         string   `json:"url"`
	Thumbnail   string   `json:"thumbnail_url"`
	SampleMovie string   `json:"sample_movie_url"`
	ReleaseDate string   `json:"release_date"`
	Tags        []string `json:"tags"`
}

// NewFC2Adapter creates the FC2 API adapter.
func NewFC2Adapter(apiURL string, cacheSvc cache.CacheService, limiter *ratelimit.Limiter) *FC2Adapter {
	return &FC2Adapter{
		BaseAdapter: BaseAdapter{
			URL:       apiURL,
			SiteName:  "fc2",
			BlockKey:  "fc2_blocked",
			BlockTime: 300 * time.Second,
			CacheSvc:  cacheSvc,
			Limiter:   limiter,
		},
	}
}

// Name returns the adapter's name for logging
func (a *FC2Adapter) Name() string {
	return a.SiteName
}

// FetchPage fetches one page of recent marketplace contents.
func (a *FC2Adapter) FetchPage(ctx context.Context, r PageRange) ([]RawItem, error) {
	page := r.Page
	if page <= 0 {
		page = 1
	}

	sep := "?"
	if strings.Contains(a.URL, "?") {
		sep = "&"
	}
	url := fmt.Sprintf("%s%spage=%d", a.URL, sep, page)

	body, err := a.fetchRaw(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp fc2ListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperr.NewParsing(a.SiteName, "JSON decode failed", err)
	}

	items := make([]RawItem, 0, len(resp.Contents))
	for _, c := range resp.Contents {
		if c.ID == 0 || c.Title == "" {
			continue
		}
		price := c.Price
		listPrice := 0
		if c.SalePrice > 0 && c.SalePrice < c.Price {
			price = c.SalePrice
			listPrice = c.Price
		}
		items = append(items, RawItem{
			Site:           a.SiteName,
			OriginalID:     strconv.FormatInt(c.ID, 10),
			Title:          normalize.NormalizeWhitespace(c.Title),
			Maker:          c.Seller,
			Price:          price,
			ListPrice:      listPrice,
			URL:            normalize.StripAffiliateNoise(c.URL),
			ImageURL:       normalize.CleanImageURL(c.Thumbnail),
			SampleVideoURL: c.SampleMovie,
			ReleaseDate:    c.ReleaseDate,
			Genres:         c.Tags,
		})
		if r.Limit > 0 && len(items) >= r.Limit {
			break
		}
	}
	return items, nil
}
