package handlers

import (
	"strings"

	"github.com/tuowzz/lazada-bot/internal/models"
)

// Default reply templates. Placeholders: {name}, {url}, {keyword}.
const (
	DefaultMatchedTemplate  = "🛒 {name}\n👉 {url}"
	DefaultDegradedTemplate = "ไม่พบลิงก์พันธมิตรสำหรับ \"{keyword}\"\n🔎 ลองค้นหาที่นี่: {url}"
)

// ReplyFormatter renders a resolution as chat text.
type ReplyFormatter struct {
	Matched  string
	Degraded string
}

// NewReplyFormatter returns a formatter; empty templates use the defaults.
func NewReplyFormatter(matched, degraded string) *ReplyFormatter {
	if matched == "" {
		matched = DefaultMatchedTemplate
	}
	if degraded == "" {
		degraded = DefaultDegradedTemplate
	}
	return &ReplyFormatter{Matched: matched, Degraded: degraded}
}

// Format renders result for keyword. Lines that reference {name} are dropped
// when the product name is unknown.
func (f *ReplyFormatter) Format(keyword string, result models.ResolutionResult) string {
	tmpl := f.Matched
	if result.Degraded {
		tmpl = f.Degraded
	}

	if strings.TrimSpace(result.DisplayName) == "" && strings.Contains(tmpl, "{name}") {
		lines := strings.Split(tmpl, "\n")
		kept := lines[:0]
		for _, l := range lines {
			if !strings.Contains(l, "{name}") {
				kept = append(kept, l)
			}
		}
		tmpl = strings.Join(kept, "\n")
	}

	return strings.NewReplacer(
		"{name}", result.DisplayName,
		"{url}", result.URL,
		"{keyword}", keyword,
	).Replace(tmpl)
}
