package feed

import (
	"strconv"
	"strings"
)

// Keyword is the parsed form of a subscription keyword string, encoded as
// key[@lang[@when[@site[@limit]]]]. Missing or empty fields fall back to
// the configured defaults; an empty key means "everything in the window".
type Keyword struct {
	Key   string
	Lang  string
	When  string
	Site  string
	Limit int
}

// KeywordDefaults supplies values for fields a keyword string leaves out.
type KeywordDefaults struct {
	Lang  string
	When  string
	Limit int
}

func ParseKeyword(raw string, defaults KeywordDefaults) Keyword {
	kw := Keyword{
		Lang:  defaults.Lang,
		When:  defaults.When,
		Limit: defaults.Limit,
	}

	parts := strings.Split(raw, "@")
	if len(parts) > 0 {
		kw.Key = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 && parts[1] != "" {
		kw.Lang = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		kw.When = parts[2]
	}
	if len(parts) > 3 {
		kw.Site = parts[3]
	}
	if len(parts) > 4 {
		if limit, err := strconv.Atoi(parts[4]); err == nil && limit > 0 {
			kw.Limit = limit
		}
	}

	return kw
}
