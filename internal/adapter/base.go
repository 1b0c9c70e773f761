package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"aspingest/helpers"
	"aspingest/internal/normalize"
	apperr "aspingest/pkg/errors"
	"aspingest/services/cache"
	"aspingest/services/ratelimit"
)

// BaseAdapter provides fetching, decoding and block-window handling shared
// by all adapters. Every outbound request passes the injected token-bucket
// limiter; a 429 from the source sets a block window in the cache so
// subsequent runs back off without hitting the site again.
type BaseAdapter struct {
	URL       string
	BaseURL   string
	SiteName  string
	Encoding  string
	BlockKey  string
	BlockTime time.Duration
	CacheSvc  cache.CacheService
	Limiter   *ratelimit.Limiter
}

// Site returns the canonical ASP name
func (a *BaseAdapter) Site() string {
	return a.SiteName
}

// pageURL renders the listing URL for one page range. URLs containing a %d
// verb are paginated by substitution; others get a page query parameter.
func (a *BaseAdapter) pageURL(r PageRange) string {
	page := r.Page
	if page <= 0 {
		page = 1
	}
	if strings.Contains(a.URL, "%d") {
		return fmt.Sprintf(a.URL, page)
	}
	sep := "?"
	if strings.Contains(a.URL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", a.URL, sep, page)
}

// fetchRaw fetches url honoring the limiter and the block window, returning
// the raw (still encoded) payload.
func (a *BaseAdapter) fetchRaw(ctx context.Context, url string) ([]byte, error) {
	if a.CacheSvc != nil && a.BlockKey != "" {
		if _, err := a.CacheSvc.Get(a.BlockKey); err == nil {
			return nil, apperr.NewRateLimit(a.SiteName, a.BlockTime)
		}
	}

	if a.Limiter != nil {
		if err := a.Limiter.Wait(ctx, a.SiteName); err != nil {
			return nil, apperr.NewNetwork(a.SiteName, "rate limiter wait aborted", err)
		}
	}

	body, err := helpers.FetchBytes(ctx, url)
	if err != nil {
		if strings.HasPrefix(err.Error(), "rate limited") {
			a.setBlockWindow()
			return nil, apperr.NewRateLimit(a.SiteName, a.BlockTime)
		}
		return nil, apperr.NewNetwork(a.SiteName, "fetch failed", err)
	}
	return body, nil
}

// fetchDocument fetches url, decodes the site's legacy encoding to UTF-8 and
// parses the result into a goquery document.
func (a *BaseAdapter) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := a.fetchRaw(ctx, url)
	if err != nil {
		return nil, err
	}

	decoded, err := normalize.DecodeToUTF8(body, a.Encoding)
	if err != nil {
		return nil, apperr.NewEncoding(a.SiteName, "decode failed", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(decoded))
	if err != nil {
		return nil, apperr.NewParsing(a.SiteName, "HTML parse failed", err)
	}
	return doc, nil
}

func (a *BaseAdapter) setBlockWindow() {
	if a.CacheSvc == nil || a.BlockKey == "" {
		return
	}
	value := []byte(fmt.Sprintf("%d", int(a.BlockTime/time.Second)))
	a.CacheSvc.Set(a.BlockKey, value, a.BlockTime)
}
