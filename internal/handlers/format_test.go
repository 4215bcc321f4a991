package handlers

import (
	"testing"

	"github.com/tuowzz/lazada-bot/internal/models"
)

func TestReplyFormatter(t *testing.T) {
	tests := []struct {
		name    string
		f       *ReplyFormatter
		keyword string
		result  models.ResolutionResult
		want    string
	}{
		{
			name:    "matched",
			f:       NewReplyFormatter("", ""),
			keyword: "หูฟัง",
			result:  models.ResolutionResult{URL: "https://s.lazada.co.th/a", DisplayName: "Earbuds"},
			want:    "🛒 Earbuds\n👉 https://s.lazada.co.th/a",
		},
		{
			name:   "matched without name",
			f:      NewReplyFormatter("", ""),
			result: models.ResolutionResult{URL: "https://s.lazada.co.th/a"},
			want:   "👉 https://s.lazada.co.th/a",
		},
		{
			name:    "degraded",
			f:       NewReplyFormatter("", ""),
			keyword: "หูฟัง",
			result:  models.ResolutionResult{URL: "https://www.lazada.co.th/catalog/?q=x", Degraded: true},
			want:    "ไม่พบลิงก์พันธมิตรสำหรับ \"หูฟัง\"\n🔎 ลองค้นหาที่นี่: https://www.lazada.co.th/catalog/?q=x",
		},
		{
			name:    "custom templates",
			f:       NewReplyFormatter("{name}: {url}", "no luck with {keyword}: {url}"),
			keyword: "mouse",
			result:  models.ResolutionResult{URL: "https://c", Degraded: true},
			want:    "no luck with mouse: https://c",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Format(tt.keyword, tt.result); got != tt.want {
				t.Errorf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}
