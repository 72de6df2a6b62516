package feed

// Item is one syndication entry as returned by a search query. It lives
// only within a single pipeline pass.
type Item struct {
	Title   string
	Link    string
	PubDate string
	Source  string
}

// KeywordItem tags an item with the key of the keyword query that produced
// it. This is the unit that gets persisted and dispatched.
type KeywordItem struct {
	Item
	Keyword string
}
