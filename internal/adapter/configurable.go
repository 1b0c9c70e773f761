package adapter

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"aspingest/internal/normalize"
	"aspingest/services/cache"
	"aspingest/services/ratelimit"
)

// ConfigurableAdapter is a selector-driven HTML adapter. One SiteConfig per
// site replaces per-site fetch/parse scripts; only the selectors and the id
// extractor differ between HTML sources.
type ConfigurableAdapter struct {
	BaseAdapter
	Selectors   Selectors
	IDExtractor IDExtractorFunc

	priceRe *regexp.Regexp
}

// NewConfigurableAdapter creates an adapter from a site configuration.
func NewConfigurableAdapter(cfg SiteConfig, cacheSvc cache.CacheService, limiter *ratelimit.Limiter) *ConfigurableAdapter {
	a := &ConfigurableAdapter{
		BaseAdapter: BaseAdapter{
			URL:       cfg.URL,
			BaseURL:   cfg.BaseURL,
			SiteName:  normalize.CanonicalProvider(cfg.Site),
			Encoding:  cfg.Encoding,
			BlockKey:  cfg.BlockKey,
			BlockTime: time.Duration(cfg.BlockTime) * time.Second,
			CacheSvc:  cacheSvc,
			Limiter:   limiter,
		},
		Selectors:   cfg.Selectors,
		IDExtractor: cfg.IDExtractor,
	}
	if cfg.Selectors.PriceRegex != "" {
		a.priceRe = regexp.MustCompile(cfg.Selectors.PriceRegex)
	}
	return a
}

// Name returns the adapter's name for logging
func (a *ConfigurableAdapter) Name() string {
	return a.SiteName
}

// FetchPage fetches one listing page and parses every item on it.
func (a *ConfigurableAdapter) FetchPage(ctx context.Context, r PageRange) ([]RawItem, error) {
	doc, err := a.fetchDocument(ctx, a.pageURL(r))
	if err != nil {
		return nil, err
	}

	selections := doc.Find(a.Selectors.ItemList)
	items := a.processItems(selections, r.Limit)
	return items, nil
}

// processItems parses item selections in parallel, in listing order.
func (a *ConfigurableAdapter) processItems(selections *goquery.Selection, limit int) []RawItem {
	n := selections.Length()
	if limit > 0 && limit < n {
		n = limit
	}

	results := make([]*RawItem, n)
	var wg sync.WaitGroup

	selections.Each(func(i int, s *goquery.Selection) {
		if i >= n {
			return
		}
		wg.Add(1)
		go func(i int, s *goquery.Selection) {
			defer wg.Done()
			results[i] = a.processItem(s)
		}(i, s)
	})
	wg.Wait()

	items := make([]RawItem, 0, n)
	for _, item := range results {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items
}

func (a *ConfigurableAdapter) processItem(s *goquery.Selection) *RawItem {
	if a.Selectors.ClassFilter != "" && s.HasClass(a.Selectors.ClassFilter) {
		return nil
	}

	title := a.extractTitle(s)
	if title == "" {
		return nil
	}

	link := a.extractLink(s)
	if link == "" {
		return nil
	}

	var id string
	if a.IDExtractor != nil {
		var err error
		id, err = a.IDExtractor(link)
		if err != nil || id == "" {
			return nil
		}
	}

	item := &RawItem{
		Site:       a.SiteName,
		OriginalID: id,
		Title:      title,
		URL:        normalize.StripAffiliateNoise(link),
	}

	if a.Selectors.Thumbnail != "" {
		item.ImageURL = a.extractThumbnail(s)
	}
	if a.Selectors.Performers != "" {
		item.PerformerNames = normalize.NormalizeWhitespace(s.Find(a.Selectors.Performers).Text())
	}
	if a.Selectors.ReleaseDate != "" {
		item.ReleaseDate = strings.TrimSpace(s.Find(a.Selectors.ReleaseDate).Text())
	}
	if a.Selectors.Duration != "" {
		item.DurationMin = parseDurationMinutes(s.Find(a.Selectors.Duration).Text())
	}
	item.Price = a.extractPrice(s, title)

	return item
}

func (a *ConfigurableAdapter) extractTitle(s *goquery.Selection) string {
	titleSel := s.Find(a.Selectors.Title)
	if titleSel.Length() == 0 {
		return ""
	}

	var title string
	if titleAttr, exists := titleSel.Attr("title"); exists && titleAttr != "" {
		title = titleAttr
	} else {
		title = titleSel.Text()
	}
	return normalize.NormalizeWhitespace(title)
}

func (a *ConfigurableAdapter) extractLink(s *goquery.Selection) string {
	linkSel := s.Find(a.Selectors.Link)
	if linkSel.Length() == 0 {
		return ""
	}

	link, exists := linkSel.Attr("href")
	if !exists {
		return ""
	}
	return a.resolveURL(strings.TrimSpace(link))
}

func (a *ConfigurableAdapter) extractThumbnail(s *goquery.Selection) string {
	thumbSel := s.Find(a.Selectors.Thumbnail)
	if thumbSel.Length() == 0 {
		return ""
	}

	if src, exists := thumbSel.Attr("src"); exists {
		return normalize.CleanImageURL(a.resolveURL(src))
	}
	return ""
}

func (a *ConfigurableAdapter) extractPrice(s *goquery.Selection, title string) int {
	var raw string
	if a.Selectors.Price != "" {
		raw = s.Find(a.Selectors.Price).Text()
	}
	if raw == "" && a.priceRe != nil {
		if m := a.priceRe.FindStringSubmatch(title); m != nil {
			raw = m[1]
		}
	}
	return parseYen(raw)
}

func (a *ConfigurableAdapter) resolveURL(link string) string {
	if link == "" {
		return ""
	}
	if strings.HasPrefix(link, "//") {
		return "https:" + link
	}
	if strings.HasPrefix(link, "/") && a.BaseURL != "" {
		return strings.TrimSuffix(a.BaseURL, "/") + link
	}
	return link
}

var digitsRe = regexp.MustCompile(`[0-9]+`)

// parseYen extracts an integer yen amount from a scraped price string like
// "1,980円" or "¥2,480".
func parseYen(raw string) int {
	raw = strings.ReplaceAll(raw, ",", "")
	m := digitsRe.FindString(raw)
	if m == "" {
		return 0
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return v
}

// parseDurationMinutes extracts minutes from strings like "120分" or
// "01:58:30".
func parseDurationMinutes(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if strings.Contains(raw, ":") {
		parts := strings.Split(raw, ":")
		if len(parts) == 3 {
			h, _ := strconv.Atoi(parts[0])
			m, _ := strconv.Atoi(parts[1])
			return h*60 + m
		}
		if len(parts) == 2 {
			m, _ := strconv.Atoi(parts[0])
			return m
		}
	}
	m := digitsRe.FindString(raw)
	if m == "" {
		return 0
	}
	v, _ := strconv.Atoi(m)
	return v
}
