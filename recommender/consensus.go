package recommender

// Intersect returns the codes present in every list, ordered by their
// position in the first list and truncated to limit.
// No lists yields an empty result.
func Intersect(lists [][]string, limit int) []string {
	if len(lists) == 0 {
		return []string{}
	}

	counts := make(map[string]int, len(lists[0]))
	for _, list := range lists {
		seen := make(map[string]struct{}, len(list))
		for _, code := range list {
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			counts[code]++
		}
	}

	result := make([]string, 0)
	emitted := make(map[string]struct{})
	for _, code := range lists[0] {
		if _, done := emitted[code]; done {
			continue
		}
		if counts[code] == len(lists) {
			result = append(result, code)
			emitted[code] = struct{}{}
			if limit > 0 && len(result) == limit {
				break
			}
		}
	}
	return result
}
