package performer

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"aspingest/helpers"
	"aspingest/internal/normalize"
	apperr "aspingest/pkg/errors"
	"aspingest/services/ratelimit"
)

// WikiSource looks up performer name variants on a wiki-style site. The
// search page lists the profile's known aliases (別名義) which are unioned
// into the aliases table, plus the profile fields used for enrichment.
type WikiSource struct {
	baseURL string
	limiter *ratelimit.Limiter
}

// NewWikiSource creates a wiki alias source.
func NewWikiSource(baseURL string, limiter *ratelimit.Limiter) *WikiSource {
	return &WikiSource{
		baseURL: baseURL,
		limiter: limiter,
	}
}

func (w *WikiSource) searchDoc(ctx context.Context, name string) (*goquery.Document, error) {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx, "wiki"); err != nil {
			return nil, err
		}
	}

	searchURL := fmt.Sprintf("%s/?s=%s", w.baseURL, url.QueryEscape(name))
	body, err := helpers.FetchWithRandomHeaders(ctx, searchURL)
	if err != nil {
		return nil, apperr.NewNetwork("wiki", "alias lookup fetch failed", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, apperr.NewParsing("wiki", "alias page parse failed", err)
	}
	return doc, nil
}

// LookupAliases fetches the wiki search page for name and extracts alias
// candidates.
func (w *WikiSource) LookupAliases(ctx context.Context, name string) ([]string, error) {
	doc, err := w.searchDoc(ctx, name)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var aliases []string
	doc.Find("div.actress-profile li.alias, table.profile td.alias a, span.alias").Each(func(_ int, s *goquery.Selection) {
		alias := normalize.NormalizeWhitespace(s.Text())
		if alias == "" || seen[alias] {
			return
		}
		seen[alias] = true
		aliases = append(aliases, alias)
	})
	return aliases, nil
}

var (
	wikiHeightRe = regexp.MustCompile(`(\d{3})\s*cm`)
	wikiCupRe    = regexp.MustCompile(`([A-P])カップ`)
)

// LookupProfile fetches the wiki search page for name and extracts the
// enrichment fields. Missing fields stay zero.
func (w *WikiSource) LookupProfile(ctx context.Context, name string) (Profile, error) {
	doc, err := w.searchDoc(ctx, name)
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	profile := doc.Find("div.actress-profile")
	p.NameKana = normalize.NormalizeWhitespace(profile.Find("li.kana, td.kana").First().Text())
	p.NameEn = normalize.NormalizeWhitespace(profile.Find("li.name-en, td.name-en").First().Text())

	if m := wikiHeightRe.FindStringSubmatch(profile.Find("li.height, td.height").First().Text()); m != nil {
		p.HeightCm, _ = strconv.Atoi(m[1])
	}
	if m := wikiCupRe.FindStringSubmatch(profile.Find("li.cup, td.cup").First().Text()); m != nil {
		p.Cup = m[1]
	}
	return p, nil
}
