package normalize

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/japanese"
)

// Legacy and alternate provider names seen across crawl sources, mapped to
// the canonical ASP identifier used in product_sources.asp_name.
var providerAliases = map[string]string{
	"carib":           "caribbeancom",
	"caribbean":       "caribbeancom",
	"caribpr":         "caribbeancompr",
	"caribbeanpr":     "caribbeancompr",
	"caribbeancompr":  "caribbeancompr",
	"1pon":            "1pondo",
	"ippondo":         "1pondo",
	"tokyo-hot":       "tokyohot",
	"tokyo_hot":       "tokyohot",
	"mgstage":         "mgs",
	"sokmil.com":      "sokmil",
	"duga.jp":         "duga",
	"fc2contents":     "fc2",
	"fc2-contents":    "fc2",
	"japanska.tv":     "japanska",
	"b10f.jp":         "b10f",
	"heydouga.com":    "heydouga",
}

var (
	embeddedImgRe = regexp.MustCompile(`(?i)<img[^>]+src=["']?([^"'\s>]+)["']?[^>]*>`)

	trackingParams = []string{
		"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
		"affi_id", "aff_id", "affi", "ch", "chid", "banner_id", "click_id",
	}
)

// DecodeToUTF8 decodes b into a UTF-8 string. The declared encoding wins when
// recognized; otherwise the payload is sniffed. Legacy DTI-family pages serve
// Shift-JIS or EUC-JP without reliable headers, so both are handled
// explicitly.
func DecodeToUTF8(b []byte, declared string) (string, error) {
	switch canonicalEncodingName(declared) {
	case "utf-8":
		return string(b), nil
	case "shift_jis":
		decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(b)
		if err != nil {
			return "", fmt.Errorf("shift_jis decode: %w", err)
		}
		return string(decoded), nil
	case "euc-jp":
		decoded, err := japanese.EUCJP.NewDecoder().Bytes(b)
		if err != nil {
			return "", fmt.Errorf("euc-jp decode: %w", err)
		}
		return string(decoded), nil
	}

	// Unknown declaration: sniff content
	enc, name, _ := charset.DetermineEncoding(b, declared)
	if name == "utf-8" {
		return string(b), nil
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, enc.NewDecoder().Reader(bytes.NewReader(b))); err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return buf.String(), nil
}

func canonicalEncodingName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return "utf-8"
	case "shift_jis", "shift-jis", "sjis", "x-sjis", "windows-31j", "cp932":
		return "shift_jis"
	case "euc-jp", "eucjp", "x-euc-jp":
		return "euc-jp"
	default:
		return ""
	}
}

// CleanImageURL normalizes a scraped thumbnail value to a bare https URL.
// One source intermittently returns a literal <img src=...> fragment in its
// thumbnail field instead of the URL; that is handled here rather than in
// the adapter.
func CleanImageURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if m := embeddedImgRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	if strings.HasPrefix(s, "//") {
		s = "https:" + s
	}
	return s
}

// StripAffiliateNoise removes tracking query parameters from an affiliate URL
// while preserving the parameters that identify the product.
func StripAffiliateNoise(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	q := u.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// CanonicalProvider maps a legacy or alternate provider name to the canonical
// ASP identifier. Unknown names are lowercased and returned as-is.
func CanonicalProvider(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := providerAliases[key]; ok {
		return canonical
	}
	return key
}

// NormalizeWhitespace collapses runs of spaces, converts full-width spaces to
// ASCII spaces and trims the result. Scraped titles and performer strings
// routinely carry U+3000 padding.
func NormalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "　", " ")
	s = strings.Join(strings.Fields(s), " ")
	return s
}
