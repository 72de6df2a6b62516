package feed

// MaxRatio returns the highest similarity ratio between title and any of
// the stored titles. Zero when there is no history to compare against.
func MaxRatio(stored []string, title string) float64 {
	max := 0.0
	for _, s := range stored {
		if r := Ratio(s, title); r > max {
			max = r
		}
	}
	return max
}

// DedupeBatch removes near-duplicates within a fetched batch. Every ordered
// pair with both titles non-empty is compared; when a pair crosses the
// threshold the later item in fetch order loses, so earlier items survive
// and relative order is preserved. Returns a new slice, input untouched.
func DedupeBatch(items []KeywordItem, threshold float64) []KeywordItem {
	removed := make([]bool, len(items))

	for i := range items {
		for j := len(items) - 1; j >= 0; j-- {
			if i == j || removed[i] || removed[j] {
				continue
			}
			if items[i].Title == "" || items[j].Title == "" {
				continue
			}
			if Ratio(items[i].Title, items[j].Title) >= threshold {
				removed[j] = true
			}
		}
	}

	survivors := make([]KeywordItem, 0, len(items))
	for i, item := range items {
		if !removed[i] {
			survivors = append(survivors, item)
		}
	}
	return survivors
}

// UniqueByTitle drops exact-title repeats, keeping the first occurrence.
// Cheap safety net after the fuzzy passes.
func UniqueByTitle(items []KeywordItem) []KeywordItem {
	seen := make(map[string]bool, len(items))
	unique := make([]KeywordItem, 0, len(items))
	for _, item := range items {
		if seen[item.Title] {
			continue
		}
		seen[item.Title] = true
		unique = append(unique, item)
	}
	return unique
}
