package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeToUTF8_ShiftJIS(t *testing.T) {
	// 日本語 encoded as Shift-JIS
	raw := []byte{0x93, 0xFA, 0x96, 0x7B, 0x8C, 0xEA}

	decoded, err := DecodeToUTF8(raw, "shift_jis")
	assert.NoError(t, err)
	assert.Equal(t, "日本語", decoded)

	// Alternate declarations for the same encoding
	for _, name := range []string{"Shift-JIS", "sjis", "windows-31j", "cp932"} {
		decoded, err := DecodeToUTF8(raw, name)
		assert.NoError(t, err)
		assert.Equal(t, "日本語", decoded)
	}
}

func TestDecodeToUTF8_EUCJP(t *testing.T) {
	// 日本語 encoded as EUC-JP
	raw := []byte{0xC6, 0xFC, 0xCB, 0xDC, 0xB8, 0xEC}

	decoded, err := DecodeToUTF8(raw, "euc-jp")
	assert.NoError(t, err)
	assert.Equal(t, "日本語", decoded)
}

func TestDecodeToUTF8_UTF8Passthrough(t *testing.T) {
	decoded, err := DecodeToUTF8([]byte("日本語"), "utf-8")
	assert.NoError(t, err)
	assert.Equal(t, "日本語", decoded)
}

func TestDecodeToUTF8_SniffsUnknownDeclaration(t *testing.T) {
	// A meta charset tag lets the sniffer identify Shift-JIS without a
	// declared encoding.
	payload := append([]byte(`<html><head><meta charset="shift_jis"></head><body>`),
		0x93, 0xFA, 0x96, 0x7B, 0x8C, 0xEA)
	payload = append(payload, []byte("</body></html>")...)

	decoded, err := DecodeToUTF8(payload, "")
	assert.NoError(t, err)
	assert.Contains(t, decoded, "日本語")
}

func TestCleanImageURL(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "plain URL",
			raw:      "https://cdn.example.com/covers/zmar148.jpg",
			expected: "https://cdn.example.com/covers/zmar148.jpg",
		},
		{
			name:     "embedded img tag",
			raw:      `<img src="https://cdn.example.com/covers/zmar148.jpg" alt="cover">`,
			expected: "https://cdn.example.com/covers/zmar148.jpg",
		},
		{
			name:     "embedded img tag with unquoted src",
			raw:      `<img src=https://cdn.example.com/a.jpg>`,
			expected: "https://cdn.example.com/a.jpg",
		},
		{
			name:     "protocol-relative",
			raw:      "//cdn.example.com/a.jpg",
			expected: "https://cdn.example.com/a.jpg",
		},
		{
			name:     "embedded img tag with protocol-relative src",
			raw:      `<img src="//cdn.example.com/a.jpg">`,
			expected: "https://cdn.example.com/a.jpg",
		},
		{
			name:     "whitespace only",
			raw:      "   ",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanImageURL(tc.raw))
		})
	}
}

func TestStripAffiliateNoise(t *testing.T) {
	got := StripAffiliateNoise("https://duga.jp/ppv/planetplus-2364/?affi_id=partner123&utm_source=feed")
	assert.Equal(t, "https://duga.jp/ppv/planetplus-2364/", got)

	// Product-identifying parameters survive
	got = StripAffiliateNoise("https://b10f.jp/detail.php?product_id=4489&aff_id=x9")
	assert.Equal(t, "https://b10f.jp/detail.php?product_id=4489", got)

	// Unparseable input is returned trimmed
	got = StripAffiliateNoise("  ://not a url  ")
	assert.Equal(t, "://not a url", got)
}

func TestCanonicalProvider(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{"carib", "caribbeancom"},
		{"Caribbean", "caribbeancom"},
		{"caribpr", "caribbeancompr"},
		{"1pon", "1pondo"},
		{"tokyo-hot", "tokyohot"},
		{"MGStage", "mgs"},
		{"duga.jp", "duga"},
		{"japanska.tv", "japanska"},
		{"sokmil", "sokmil"},
		{"newsite", "newsite"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, CanonicalProvider(tc.in))
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "波多野 結衣", NormalizeWhitespace("波多野　結衣"))
	assert.Equal(t, "a b c", NormalizeWhitespace("  a \t b \n c  "))
	assert.Equal(t, "", NormalizeWhitespace("　　"))
}
