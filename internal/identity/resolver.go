// Package identity derives the canonical deduplication key for scraped
// items so the same physical release crawled from two ASPs collapses into
// one product row.
package identity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"aspingest/internal/adapter"
	"aspingest/internal/normalize"
)

// ErrAmbiguous signals that no maker code could be extracted and the
// resolver fell back to the site-native id. The returned identity is still
// usable, but cross-site deduplication will not happen for the item, so
// callers should route it to review rather than treat it as resolved.
var ErrAmbiguous = errors.New("identity: no maker code extractable, fell back to site id")

// Maker product codes look like ZMAR-148 or ABP0123: a short letter prefix
// followed by 2-5 digits. Long alphabetic label slugs (e.g. planetplus-2364)
// and DTI date ids (093015-985) must not match.
var makerCodeRe = regexp.MustCompile(`\b([A-Za-z]{2,6})[-_]?(\d{2,5})\b`)

// Sites billed as USD subscriptions. Prices scraped from these sites are
// membership artifacts, not per-item prices, and are tagged rather than
// converted.
var subscriptionSites = map[string]bool{
	"caribbeancom":   true,
	"caribbeancompr": true,
	"1pondo":         true,
	"heydouga":       true,
	"japanska":       true,
}

// Identity is the resolved product identity of one raw item.
type Identity struct {
	NormalizedProductID string
	MakerCode           string
	Currency            string
	IsSubscription      bool
	Price               int
	ListPrice           int
}

// Resolver computes normalized product identities.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve computes the identity for item. When a maker code is extractable
// from the id fields it becomes the normalization key; otherwise the
// site-native id is used verbatim and ErrAmbiguous is returned alongside the
// usable identity. Free-text fields are never consulted: incidental tokens in
// a title must not merge unrelated works.
func (r *Resolver) Resolve(item adapter.RawItem) (Identity, error) {
	site := normalize.CanonicalProvider(item.Site)

	id := Identity{
		Currency:  "JPY",
		Price:     item.Price,
		ListPrice: item.ListPrice,
	}
	if subscriptionSites[site] {
		id.Currency = "USD"
		id.IsSubscription = true
	}

	if code := ExtractMakerCode(item.MakerCode); code != "" {
		id.MakerCode = code
		id.NormalizedProductID = code
		return id, nil
	}
	if code := ExtractMakerCode(item.OriginalID); code != "" {
		id.MakerCode = code
		id.NormalizedProductID = code
		return id, nil
	}

	if strings.TrimSpace(item.OriginalID) == "" {
		return Identity{}, fmt.Errorf("identity: item from %s has no original id", site)
	}

	id.NormalizedProductID = strings.TrimSpace(item.OriginalID)
	return id, ErrAmbiguous
}

// ExtractMakerCode extracts and normalizes a maker product code from s,
// returning "" when none is present. Codes are normalized to upper case
// with a single hyphen: "zmar148" -> "ZMAR-148".
func ExtractMakerCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	m := makerCodeRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1]) + "-" + m[2]
}

// IsSubscriptionSite reports whether site is billed as a USD subscription.
func IsSubscriptionSite(site string) bool {
	return subscriptionSites[normalize.CanonicalProvider(site)]
}
