package validation

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tuowzz/lazada-bot/internal/models"
)

// MaxKeywordRunes caps how much of a chat message is forwarded as a search keyword.
const MaxKeywordRunes = 200

var (
	// ProductIDPattern matches a bare Lazada item id.
	ProductIDPattern = regexp.MustCompile(`^[0-9]{5,20}$`)

	// productURLPattern pulls the item id out of a product page URL such as
	// https://www.lazada.co.th/products/some-name-i123456789-s987654321.html
	productURLPattern = regexp.MustCompile(`-i([0-9]{5,20})(?:-s[0-9]+)?\.html`)
)

// NormalizeKeyword trims the message, collapses internal whitespace and caps
// its length.
func NormalizeKeyword(text string) string {
	keyword := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(keyword) <= MaxKeywordRunes {
		return keyword
	}
	return string([]rune(keyword)[:MaxKeywordRunes])
}

// DetectLookupMode decides whether keyword names a product id (directly or via
// a product URL) and returns the value to send upstream.
func DetectLookupMode(keyword string) (models.LookupMode, string) {
	if ProductIDPattern.MatchString(keyword) {
		return models.ByProductID, keyword
	}
	if m := productURLPattern.FindStringSubmatch(keyword); m != nil {
		return models.ByProductID, m[1]
	}
	return models.ByKeyword, keyword
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
// Remote-provided links that fail this check are treated as no match.
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}
