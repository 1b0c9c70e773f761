package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fc2JSONFixture = `{
	"contents": [
		{
			"id": 4489123,
			"title": "個人撮影　素人投稿作品",
			"seller_name": "seller-abc",
			"price": 1500,
			"sale_price": 980,
			"url": "https://adult.contents.fc2.com/article/4489123/?click_id=z1",
			"thumbnail_url": "//contents-thumbnail.fc2.com/4489123.jpg",
			"sample_movie_url": "https://adult.contents.fc2.com/sample/4489123.mp4",
			"release_date": "2026-03-01",
			"tags": ["素人", "個人撮影"]
		},
		{
			"id": 4489124,
			"title": "通常価格の作品",
			"seller_name": "seller-def",
			"price": 800,
			"sale_price": 0,
			"url": "https://adult.contents.fc2.com/article/4489124/"
		},
		{
			"id": 0,
			"title": "id-less row is dropped"
		}
	]
}`

func TestFC2Adapter_FetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(fc2JSONFixture))
	}))
	defer server.Close()

	a := NewFC2Adapter(server.URL+"/api/v2/contents/recent", newMockCacheService(), nil)

	items, err := a.FetchPage(context.Background(), PageRange{Page: 1})
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Discounted item: sale_price becomes the price, price the list price
	first := items[0]
	assert.Equal(t, "fc2", first.Site)
	assert.Equal(t, "4489123", first.OriginalID)
	assert.Equal(t, 980, first.Price)
	assert.Equal(t, 1500, first.ListPrice)
	assert.Equal(t, "https://adult.contents.fc2.com/article/4489123/", first.URL)
	assert.Equal(t, "https://contents-thumbnail.fc2.com/4489123.jpg", first.ImageURL)
	assert.Equal(t, []string{"素人", "個人撮影"}, first.Genres)

	// Undiscounted item keeps its price and has no list price
	second := items[1]
	assert.Equal(t, "4489124", second.OriginalID)
	assert.Equal(t, 800, second.Price)
	assert.Equal(t, 0, second.ListPrice)
}

func TestFC2Adapter_FetchPage_Limit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(fc2JSONFixture))
	}))
	defer server.Close()

	a := NewFC2Adapter(server.URL, newMockCacheService(), nil)

	items, err := a.FetchPage(context.Background(), PageRange{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
