package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"aspingest/internal/adapter"
	"aspingest/internal/identity"
	"aspingest/internal/performer"
	"aspingest/internal/store"
	"aspingest/logger"
	"aspingest/services/publisher"
)

// Store is the persistence surface the pipeline writes to.
type Store interface {
	UpsertProduct(ctx context.Context, p store.Product) (int64, bool, error)
	UpsertSource(ctx context.Context, src store.ProductSource) (int64, bool, error)
	UpsertSale(ctx context.Context, sale store.Sale) error
	DeactivateSaleForSource(ctx context.Context, sourceID int64) error
	DeactivateExpiredSales(ctx context.Context) (int64, error)
	AddImages(ctx context.Context, productID int64, urls []string) error
	AddVideos(ctx context.Context, productID int64, urls []string) error
	LinkPerformers(ctx context.Context, productID int64, performerIDs []int64) error
	UpsertTags(ctx context.Context, productID int64, names []string, category string) error
	GetCursor(ctx context.Context, site, job string) (int, error)
	SetCursor(ctx context.Context, site, job string, position int) error
}

// Summary reports the outcome of one crawl batch. It is both the HTTP
// response of the trigger endpoints and the payload published to the
// summary stream.
type Summary struct {
	Site      string `json:"site"`
	Page      int    `json:"page"`
	Processed int    `json:"processed"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Ambiguous int    `json:"ambiguous"`
	Skipped   int    `json:"skipped_names"`
	Errors    int    `json:"errors"`
}

// Worker runs the ingest pipeline: adapter fetch, normalization, identity
// resolution, performer linking and persistence for one batch.
type Worker struct {
	adapters     map[string]adapter.SourceAdapter
	resolver     *identity.Resolver
	linker       *performer.Linker
	store        Store
	publisher    publisher.Publisher
	log          *logger.Logger
	defaultLimit int
	interval     time.Duration
}

// NewWorker creates a new worker. defaultLimit caps a batch when the caller
// gives no limit; pub may be nil to disable publishing.
func NewWorker(
	adapters map[string]adapter.SourceAdapter,
	resolver *identity.Resolver,
	linker *performer.Linker,
	st Store,
	pub publisher.Publisher,
	defaultLimit int,
	interval time.Duration,
) *Worker {
	return &Worker{
		adapters:     adapters,
		resolver:     resolver,
		linker:       linker,
		store:        st,
		publisher:    pub,
		log:          logger.ForWorker(),
		defaultLimit: defaultLimit,
		interval:     interval,
	}
}

// Sites returns the names of the configured source adapters.
func (w *Worker) Sites() []string {
	sites := make([]string, 0, len(w.adapters))
	for name := range w.adapters {
		sites = append(sites, name)
	}
	return sites
}

// ErrUnknownSite is returned when no adapter is configured for a site.
var ErrUnknownSite = errors.New("worker: unknown site")

// RunSite crawls one page range of one site. A zero Page resumes from the
// persisted cursor. The cursor is advanced only after the batch persisted,
// so an aborted run repeats its page instead of skipping it; it also never
// moves backwards, so re-crawling an already covered page leaves the resume
// point alone.
func (w *Worker) RunSite(ctx context.Context, site string, r adapter.PageRange) (Summary, error) {
	a, ok := w.adapters[site]
	if !ok {
		return Summary{Site: site}, ErrUnknownSite
	}

	pos, err := w.store.GetCursor(ctx, site, "listing")
	if err != nil {
		return Summary{Site: site}, err
	}
	if r.Page <= 0 {
		r.Page = pos + 1
	}
	if r.Limit <= 0 {
		r.Limit = w.defaultLimit
	}

	summary := Summary{Site: site, Page: r.Page}

	start := time.Now()
	items, err := a.FetchPage(ctx, r)
	if err != nil {
		summary.Errors++
		w.publishSummary(summary)
		return summary, err
	}

	for _, item := range items {
		created, ambiguous, skippedNames, err := w.processItem(ctx, item)
		if err != nil {
			w.log.Error().Err(err).
				Str("site", site).
				Str("original_id", item.OriginalID).
				Msg("Failed to ingest item")
			summary.Errors++
			continue
		}
		summary.Processed++
		if created {
			summary.Created++
		} else {
			summary.Updated++
		}
		if ambiguous {
			summary.Ambiguous++
		}
		summary.Skipped += skippedNames
	}

	if r.Page > pos {
		if err := w.store.SetCursor(ctx, site, "listing", r.Page); err != nil {
			w.log.Error().Err(err).Str("site", site).Msg("Failed to checkpoint cursor")
			summary.Errors++
		}
	}

	w.log.Info().
		Str("site", site).
		Int("page", r.Page).
		Int("processed", summary.Processed).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("errors", summary.Errors).
		Dur("elapsed", time.Since(start)).
		Msg("Crawl batch finished")

	w.publishSummary(summary)
	return summary, nil
}

// processItem runs one raw item through identity resolution, performer
// linking and persistence.
func (w *Worker) processItem(ctx context.Context, item adapter.RawItem) (created bool, ambiguous bool, skippedNames int, err error) {
	id, err := w.resolver.Resolve(item)
	if err != nil {
		if !errors.Is(err, identity.ErrAmbiguous) {
			return false, false, 0, err
		}
		// The fallback key is usable but will not deduplicate across
		// sites; surface the item on the review stream.
		ambiguous = true
		w.publishReview(item)
	}

	product := store.Product{
		NormalizedProductID: id.NormalizedProductID,
		Title:               item.Title,
		Description:         item.Description,
		ReleaseDate:         parseReleaseDate(item.ReleaseDate),
		DurationMin:         item.DurationMin,
		DefaultThumbnailURL: item.ImageURL,
	}
	productID, created, err := w.store.UpsertProduct(ctx, product)
	if err != nil {
		return false, ambiguous, 0, err
	}

	sourceID, _, err := w.store.UpsertSource(ctx, store.ProductSource{
		ProductID:         productID,
		ASPName:           item.Site,
		OriginalProductID: item.OriginalID,
		AffiliateURL:      item.URL,
		Price:             id.Price,
		Currency:          id.Currency,
		IsSubscription:    id.IsSubscription,
		DataSource:        "crawl",
	})
	if err != nil {
		return false, ambiguous, 0, err
	}

	if err := w.persistSale(ctx, sourceID, item, id); err != nil {
		return false, ambiguous, 0, err
	}

	if err := w.store.AddImages(ctx, productID, []string{item.ImageURL}); err != nil {
		return false, ambiguous, 0, err
	}
	if err := w.store.AddVideos(ctx, productID, []string{item.SampleVideoURL}); err != nil {
		return false, ambiguous, 0, err
	}

	if item.PerformerNames != "" {
		res, err := w.linker.Link(ctx, item.PerformerNames)
		if err != nil {
			return false, ambiguous, 0, err
		}
		skippedNames = res.Skipped
		if err := w.store.LinkPerformers(ctx, productID, res.PerformerIDs); err != nil {
			return false, ambiguous, skippedNames, err
		}
	}

	if err := w.store.UpsertTags(ctx, productID, item.Genres, "genre"); err != nil {
		return false, ambiguous, skippedNames, err
	}
	if err := w.store.UpsertTags(ctx, productID, []string{item.Site}, "site"); err != nil {
		return false, ambiguous, skippedNames, err
	}
	if item.Maker != "" {
		if err := w.store.UpsertTags(ctx, productID, []string{item.Maker}, "maker"); err != nil {
			return false, ambiguous, skippedNames, err
		}
	}

	return created, ambiguous, skippedNames, nil
}

// persistSale records a detected discount or retires the one on record when
// the source no longer shows it. Subscription sites never carry sales.
func (w *Worker) persistSale(ctx context.Context, sourceID int64, item adapter.RawItem, id identity.Identity) error {
	onSale := !id.IsSubscription && item.ListPrice > 0 && item.Price > 0 && item.Price < item.ListPrice
	if !onSale {
		return w.store.DeactivateSaleForSource(ctx, sourceID)
	}

	discount := (item.ListPrice - item.Price) * 100 / item.ListPrice
	return w.store.UpsertSale(ctx, store.Sale{
		ProductSourceID: sourceID,
		SalePrice:       item.Price,
		RegularPrice:    item.ListPrice,
		DiscountPercent: discount,
		EndAt:           item.SaleEndsAt,
	})
}

// CleanupSales deactivates sales whose window has passed.
func (w *Worker) CleanupSales(ctx context.Context) (int64, error) {
	return w.store.DeactivateExpiredSales(ctx)
}

// RunLoop crawls every configured site on an interval until ctx is done.
// Each pass resumes from the persisted cursors and finishes with a sales
// cleanup sweep.
func (w *Worker) RunLoop(ctx context.Context) error {
	if w.interval <= 0 {
		return errors.New("worker: no crawl interval configured")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		for _, site := range w.Sites() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, err := w.RunSite(ctx, site, adapter.PageRange{}); err != nil {
				w.log.Error().Err(err).Str("site", site).Msg("Crawl run failed")
			}
		}
		if n, err := w.CleanupSales(ctx); err != nil {
			w.log.Error().Err(err).Msg("Sales cleanup failed")
		} else if n > 0 {
			w.log.Info().Int64("deactivated", n).Msg("Expired sales deactivated")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Worker) publishSummary(s Summary) {
	if w.publisher == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		w.log.Error().Err(err).Msg("Failed to marshal summary")
		return
	}
	if err := w.publisher.Publish("summary", data); err != nil {
		w.log.Error().Err(err).Msg("Failed to publish summary")
	}
}

func (w *Worker) publishReview(item adapter.RawItem) {
	if w.publisher == nil {
		return
	}
	data, err := json.Marshal(item)
	if err != nil {
		w.log.Error().Err(err).Msg("Failed to marshal review item")
		return
	}
	if err := w.publisher.Publish("review", data); err != nil {
		w.log.Error().Err(err).Msg("Failed to publish review item")
	}
}

// parseReleaseDate accepts the date formats seen across sources.
func parseReleaseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "2006/01/02", "2006.01.02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
