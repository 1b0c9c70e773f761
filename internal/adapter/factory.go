package adapter

import (
	"strings"

	"aspingest/config"
	"aspingest/helpers"
	"aspingest/services/cache"
	"aspingest/services/ratelimit"
)

// CreateAdapters creates every source adapter from the configuration, keyed
// by canonical site name.
func CreateAdapters(cfg *config.Config, cacheSvc cache.CacheService, limiter *ratelimit.Limiter) map[string]SourceAdapter {
	adapters := make(map[string]SourceAdapter)

	for _, sc := range htmlSiteConfigs(cfg) {
		a := NewConfigurableAdapter(sc, cacheSvc, limiter)
		adapters[a.Site()] = a
	}

	mgs := NewMGSAdapter(cfg.MGSAPIURL, cacheSvc, limiter)
	adapters[mgs.Site()] = mgs

	duga := NewDUGAAdapter(cfg.DUGACSVURL, cacheSvc, limiter)
	adapters[duga.Site()] = duga

	fc2 := NewFC2Adapter(cfg.FC2APIURL, cacheSvc, limiter)
	adapters[fc2.Site()] = fc2

	return adapters
}

// htmlSiteConfigs defines the selector-driven HTML sources. The DTI family
// shares one markup style, so caribbeancom, caribbeancompr and heydouga only
// differ in base URL and encoding.
func htmlSiteConfigs(cfg *config.Config) []SiteConfig {
	return []SiteConfig{
		{
			URL:       cfg.CaribbeancomURL,
			BaseURL:   "https://www.caribbeancom.com",
			Site:      "caribbeancom",
			Encoding:  "euc-jp",
			BlockKey:  "caribbeancom_blocked",
			BlockTime: 600,
			Selectors: Selectors{
				ItemList:    "div.grid div.movie-box",
				Title:       "span.movie-title a",
				Link:        "span.movie-title a",
				Thumbnail:   "div.movie-thumb img",
				Performers:  "span.movie-actor a",
				ReleaseDate: "span.movie-date",
				Duration:    "span.movie-time",
			},
			IDExtractor: func(link string) (string, error) {
				return helpers.GetSplitPart(strings.Split(link, "?")[0], "/", 4)
			},
		},
		{
			URL:       cfg.CaribbeancomPRURL,
			BaseURL:   "https://www.caribbeancompr.com",
			Site:      "caribbeancompr",
			Encoding:  "shift_jis",
			BlockKey:  "caribbeancompr_blocked",
			BlockTime: 600,
			Selectors: Selectors{
				ItemList:    "div.grid div.movie-box",
				Title:       "span.movie-title a",
				Link:        "span.movie-title a",
				Thumbnail:   "div.movie-thumb img",
				Performers:  "span.movie-actor a",
				ReleaseDate: "span.movie-date",
				Duration:    "span.movie-time",
			},
			IDExtractor: func(link string) (string, error) {
				return helpers.GetSplitPart(strings.Split(link, "?")[0], "/", 4)
			},
		},
		{
			URL:       cfg.OnePondoURL,
			BaseURL:   "https://www.1pondo.tv",
			Site:      "1pondo",
			BlockKey:  "1pondo_blocked",
			BlockTime: 600,
			Selectors: Selectors{
				ItemList:    "div.movie-list div.movie-item",
				Title:       "h3.movie-title a",
				Link:        "h3.movie-title a",
				Thumbnail:   "a img.movie-thumb",
				Performers:  "div.movie-meta span.actor",
				ReleaseDate: "div.movie-meta span.release",
			},
			IDExtractor: func(link string) (string, error) {
				return helpers.GetSplitPart(strings.Split(link, "?")[0], "/", 4)
			},
		},
		{
			URL:       cfg.HeydougaURL,
			BaseURL:   "https://www.heydouga.com",
			Site:      "heydouga",
			Encoding:  "shift_jis",
			BlockKey:  "heydouga_blocked",
			BlockTime: 600,
			Selectors: Selectors{
				ItemList:   "div.contents-list div.movie",
				Title:      "div.title a",
				Link:       "div.title a",
				Thumbnail:  "div.thumb img",
				Performers: "div.actor a",
			},
			IDExtractor: func(link string) (string, error) {
				return helpers.GetSplitPart(strings.Split(link, "?")[0], "/", 5)
			},
		},
		{
			URL:       cfg.TokyoHotURL,
			BaseURL:   "https://my.tokyo-hot.com",
			Site:      "tokyohot",
			BlockKey:  "tokyohot_blocked",
			BlockTime: 600,
			Selectors: Selectors{
				ItemList:   "ul.list.slider li.detail",
				Title:      "div.title a, a.rm",
				Link:       "a.rm",
				Thumbnail:  "a.rm img",
				Performers: "div.actor a",
			},
			IDExtractor: func(link string) (string, error) {
				return helpers.GetSplitPart(strings.Split(link, "?")[0], "/", 5)
			},
		},
		{
			URL:       cfg.B10FURL,
			BaseURL:   "https://b10f.jp",
			Site:      "b10f",
			Encoding:  "shift_jis",
			BlockKey:  "b10f_blocked",
			BlockTime: 300,
			Selectors: Selectors{
				ItemList:   "div.product-list div.product",
				Title:      "p.product-name a",
				Link:       "p.product-name a",
				Thumbnail:  "div.product-image img",
				Price:      "p.product-price",
				PriceRegex: `([0-9,]+)円`,
			},
			IDExtractor: func(link string) (string, error) {
				return helpers.GetSplitPart(link, "product_id=", 1)
			},
		},
		{
			URL:       cfg.SokmilURL,
			BaseURL:   "https://www.sokmil.com",
			Site:      "sokmil",
			BlockKey:  "sokmil_blocked",
			BlockTime: 300,
			Selectors: Selectors{
				ItemList:    "ul.item-list li.item",
				Title:       "p.item-title a",
				Link:        "p.item-title a",
				Thumbnail:   "div.item-thumb img",
				Performers:  "p.item-actress a",
				ReleaseDate: "p.item-date",
				Price:       "p.item-price",
			},
			IDExtractor: func(link string) (string, error) {
				return helpers.GetSplitPart(strings.Split(link, "?")[0], "/", 6)
			},
		},
		{
			URL:       cfg.JapanskaURL,
			BaseURL:   "https://www.japanska.tv",
			Site:      "japanska",
			BlockKey:  "japanska_blocked",
			BlockTime: 300,
			Selectors: Selectors{
				ItemList:   "div.videolist div.videobox",
				Title:      "div.videotitle a",
				Link:       "div.videotitle a",
				Thumbnail:  "div.videothumb img",
				Performers: "div.videomodel a",
			},
			IDExtractor: func(link string) (string, error) {
				return helpers.GetSplitPart(strings.Split(link, "?")[0], "/", 4)
			},
		},
	}
}
