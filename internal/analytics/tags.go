package analytics

import "sort"

type TagCount struct {
	Tag   string
	Count int
}

// TopTags counts tags, most frequent first. Ties keep the order in which
// tags were first seen. limit <= 0 returns every tag.
func TopTags(tags []string, limit int) []TagCount {
	index := make(map[string]int)
	var counts []TagCount
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if i, ok := index[tag]; ok {
			counts[i].Count++
			continue
		}
		index[tag] = len(counts)
		counts = append(counts, TagCount{Tag: tag, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}
