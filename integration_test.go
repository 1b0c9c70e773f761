package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aspingest/helpers"
	"aspingest/internal/adapter"
	"aspingest/internal/identity"
	"aspingest/internal/performer"
	"aspingest/internal/server"
	"aspingest/internal/store"
	"aspingest/services/worker"
)

// A minimal listing page in the shape the selector-driven adapters consume.
// The first item carries a maker code in its link, the second only a
// site-native id.
const testListingHTML = `
<!DOCTYPE html>
<html>
<body>
	<ul class="item-list">
		<li class="item">
			<p class="item-title"><a href="/av/detail/SOKM-039/">限定版 SOKM-039</a></p>
			<div class="item-thumb"><img src="/img/sokm039.jpg" /></div>
			<p class="item-actress"><a href="#">波多野結衣</a></p>
			<p class="item-date">2026-01-15</p>
			<p class="item-price">1,980円</p>
		</li>
		<li class="item">
			<p class="item-title"><a href="/av/detail/0000012345/">日本語タイトル</a></p>
			<div class="item-thumb"><img src="/img/0000012345.jpg" /></div>
			<p class="item-date">2026-01-16</p>
		</li>
	</ul>
</body>
</html>
`

// TestIngestPipeline runs a crawl end to end against a stub site and a real
// database. Requires TEST_DATABASE_URL.
func TestIngestPipeline(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set, skipping integration test")
	}

	ctx := context.Background()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(testListingHTML))
	}))
	defer site.Close()

	st, err := store.New(ctx, dsn, 2)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate(ctx))

	a := adapter.NewConfigurableAdapter(adapter.SiteConfig{
		URL:     site.URL + "/av/list/",
		BaseURL: site.URL,
		Site:    "sokmil",
		Selectors: adapter.Selectors{
			ItemList:    "ul.item-list li.item",
			Title:       "p.item-title a",
			Link:        "p.item-title a",
			Thumbnail:   "div.item-thumb img",
			Performers:  "p.item-actress a",
			ReleaseDate: "p.item-date",
			Price:       "p.item-price",
		},
		IDExtractor: func(link string) (string, error) {
			return helpers.GetSplitPart(strings.Split(link, "?")[0], "/", 5)
		},
	}, nil, nil)

	w := worker.NewWorker(
		map[string]adapter.SourceAdapter{"sokmil": a},
		identity.NewResolver(),
		performer.NewLinker(st, nil),
		st,
		nil,
		0,
		0,
	)

	// First crawl creates everything
	first, err := w.RunSite(ctx, "sokmil", adapter.PageRange{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Processed)
	assert.Equal(t, 1, first.Ambiguous)
	assert.Equal(t, 0, first.Errors)

	// The maker-coded item is deduplicated under its code
	p, found, err := st.GetProductByNormalizedID(ctx, "SOKM-039")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "限定版 SOKM-039", p.Title)

	// A re-crawl converges instead of duplicating
	second, err := w.RunSite(ctx, "sokmil", adapter.PageRange{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Processed)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Updated)

	n, err := st.CountSources(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The trigger endpoint drives the same pipeline
	srv := httptest.NewServer(server.New(w, server.NewBearerVerifier("it-token")).Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/cron/crawl-sokmil?page=1", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer it-token")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary worker.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, "sokmil", summary.Site)
	assert.Equal(t, 2, summary.Processed)
}
