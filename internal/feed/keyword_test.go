package feed

import (
	"testing"
)

func TestParseKeyword(t *testing.T) {
	defaults := KeywordDefaults{Lang: "ko", When: "1h", Limit: 5}

	tests := []struct {
		raw  string
		want Keyword
	}{
		{
			raw:  "openai",
			want: Keyword{Key: "openai", Lang: "ko", When: "1h", Limit: 5},
		},
		{
			raw:  "openai@en",
			want: Keyword{Key: "openai", Lang: "en", When: "1h", Limit: 5},
		},
		{
			raw:  "openai@en@4h",
			want: Keyword{Key: "openai", Lang: "en", When: "4h", Limit: 5},
		},
		{
			raw:  "openai@en@4h@techcrunch.com",
			want: Keyword{Key: "openai", Lang: "en", When: "4h", Site: "techcrunch.com", Limit: 5},
		},
		{
			raw:  "openai@en@4h@techcrunch.com@10",
			want: Keyword{Key: "openai", Lang: "en", When: "4h", Site: "techcrunch.com", Limit: 10},
		},
		{
			// Empty segments fall back to defaults.
			raw:  "openai@@4h",
			want: Keyword{Key: "openai", Lang: "ko", When: "4h", Limit: 5},
		},
		{
			// Empty key means "everything in the window".
			raw:  "@en",
			want: Keyword{Key: "", Lang: "en", When: "1h", Limit: 5},
		},
		{
			// Garbage limit keeps the default.
			raw:  "openai@en@1h@@abc",
			want: Keyword{Key: "openai", Lang: "en", When: "1h", Limit: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseKeyword(tt.raw, defaults)
			if got != tt.want {
				t.Errorf("ParseKeyword(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}
