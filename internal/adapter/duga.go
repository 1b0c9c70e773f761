package adapter

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"aspingest/internal/normalize"
	apperr "aspingest/pkg/errors"
	"aspingest/services/cache"
	"aspingest/services/ratelimit"
)

// DUGAAdapter consumes the DUGA affiliate CSV export. The export is served
// as Shift-JIS and carries a separate itemcode column with the maker product
// code (e.g. original id planetplus-2364 with itemcode ZMAR-148).
type DUGAAdapter struct {
	BaseAdapter
}

// Column order of the affiliate CSV export.
const (
	dugaColProductID = iota
	dugaColTitle
	dugaColPerformers
	dugaColItemCode
	dugaColMaker
	dugaColPrice
	dugaColListPrice
	dugaColSaleEnd
	dugaColURL
	dugaColImageURL
	dugaColReleaseDate
	dugaColDuration
	dugaColCount
)

// NewDUGAAdapter creates the DUGA CSV adapter.
func NewDUGAAdapter(csvURL string, cacheSvc cache.CacheService, limiter *ratelimit.Limiter) *DUGAAdapter {
	return &DUGAAdapter{
		BaseAdapter: BaseAdapter{
			URL:       csvURL,
			SiteName:  "duga",
			Encoding:  "shift_jis",
			BlockKey:  "duga_blocked",
			BlockTime: 300 * time.Second,
			CacheSvc:  cacheSvc,
			Limiter:   limiter,
		},
	}
}

// Name returns the adapter's name for logging
func (a *DUGAAdapter) Name() string {
	return a.SiteName
}

// FetchPage fetches and parses one page of the CSV export.
func (a *DUGAAdapter) FetchPage(ctx context.Context, r PageRange) ([]RawItem, error) {
	page := r.Page
	if page <= 0 {
		page = 1
	}
	limit := r.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := r.Start
	if offset <= 0 {
		offset = (page - 1) * limit
	}

	sep := "?"
	if strings.Contains(a.URL, "?") {
		sep = "&"
	}
	url := fmt.Sprintf("%s%soffset=%d&hits=%d", a.URL, sep, offset, limit)

	body, err := a.fetchRaw(ctx, url)
	if err != nil {
		return nil, err
	}

	decoded, err := normalize.DecodeToUTF8(body, a.Encoding)
	if err != nil {
		return nil, apperr.NewEncoding(a.SiteName, "decode failed", err)
	}

	return a.parseCSV(decoded)
}

func (a *DUGAAdapter) parseCSV(decoded string) ([]RawItem, error) {
	reader := csv.NewReader(strings.NewReader(decoded))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.NewParsing(a.SiteName, "CSV parse failed", err)
	}

	var items []RawItem
	for i, rec := range records {
		// Header row
		if i == 0 && len(rec) > 0 && rec[dugaColProductID] == "productid" {
			continue
		}
		if len(rec) < dugaColCount {
			continue
		}

		id := strings.TrimSpace(rec[dugaColProductID])
		title := normalize.NormalizeWhitespace(rec[dugaColTitle])
		if id == "" || title == "" {
			continue
		}

		price, _ := strconv.Atoi(strings.TrimSpace(rec[dugaColPrice]))
		listPrice, _ := strconv.Atoi(strings.TrimSpace(rec[dugaColListPrice]))
		duration, _ := strconv.Atoi(strings.TrimSpace(rec[dugaColDuration]))

		item := RawItem{
			Site:           a.SiteName,
			OriginalID:     id,
			Title:          title,
			PerformerNames: rec[dugaColPerformers],
			MakerCode:      strings.TrimSpace(rec[dugaColItemCode]),
			Maker:          strings.TrimSpace(rec[dugaColMaker]),
			Price:          price,
			ListPrice:      listPrice,
			URL:            normalize.StripAffiliateNoise(rec[dugaColURL]),
			ImageURL:       normalize.CleanImageURL(rec[dugaColImageURL]),
			ReleaseDate:    strings.TrimSpace(rec[dugaColReleaseDate]),
			DurationMin:    duration,
		}
		if t := parseSaleEnd(strings.TrimSpace(rec[dugaColSaleEnd])); t != nil {
			item.SaleEndsAt = t
		}
		items = append(items, item)
	}
	return items, nil
}
