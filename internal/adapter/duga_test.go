package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/text/encoding/japanese"
)

const dugaCSVFixture = `productid,title,performers,itemcode,maker,price,listprice,saleend,url,imageurl,releasedate,duration
planetplus-2364,覗きの館,波多野結衣,ZMAR-148,プラネットプラス,1480,1980,2026-09-30,https://duga.jp/ppv/planetplus-2364/?affi_id=x,https://pics.duga.jp/planetplus-2364.jpg,2026-01-10,120
short-row,broken
,missing id,名前,CODE-01,maker,100,0,,https://duga.jp/x,,2026-01-01,30
paradisetv-9001,日本語タイトル,,PARA-777,パラダイステレビ,980,0,,https://duga.jp/ppv/paradisetv-9001/,https://pics.duga.jp/paradisetv-9001.jpg,2026-02-02,95
`

func TestDUGAAdapter_FetchPage(t *testing.T) {
	// The affiliate export is served as Shift-JIS
	encoded, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(dugaCSVFixture))
	require.NoError(t, err)

	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write(encoded)
	}))
	defer server.Close()

	a := NewDUGAAdapter(server.URL+"/search/csv", newMockCacheService(), nil)

	items, err := a.FetchPage(context.Background(), PageRange{Page: 2, Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, "offset=100&hits=100", query)

	// Header, short and id-less rows are dropped
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "duga", first.Site)
	assert.Equal(t, "planetplus-2364", first.OriginalID)
	assert.Equal(t, "覗きの館", first.Title)
	assert.Equal(t, "ZMAR-148", first.MakerCode)
	assert.Equal(t, "プラネットプラス", first.Maker)
	assert.Equal(t, "波多野結衣", first.PerformerNames)
	assert.Equal(t, 1480, first.Price)
	assert.Equal(t, 1980, first.ListPrice)
	assert.Equal(t, "https://duga.jp/ppv/planetplus-2364/", first.URL)
	assert.Equal(t, 120, first.DurationMin)
	require.NotNil(t, first.SaleEndsAt)
	assert.Equal(t, "2026-09-30", first.SaleEndsAt.Format("2006-01-02"))

	second := items[1]
	assert.Equal(t, "paradisetv-9001", second.OriginalID)
	assert.Equal(t, "PARA-777", second.MakerCode)
	assert.Nil(t, second.SaleEndsAt)
}

func TestDUGAAdapter_ParseCSV_Empty(t *testing.T) {
	a := NewDUGAAdapter("https://example.com/csv", newMockCacheService(), nil)

	items, err := a.parseCSV("productid,title\n")
	require.NoError(t, err)
	assert.Empty(t, items)
}
