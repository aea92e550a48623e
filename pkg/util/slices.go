package util

import "strings"

func InPlaceFilter[T any](s *[]T, p func(T) bool) {
	i := 0
	for _, e := range *s {
		if p(e) {
			(*s)[i] = e
			i++
		}
	}
	*s = (*s)[:i]
}

// NormaliseTags lower cases, trims and de-duplicates tags keeping first
// occurrence order
func NormaliseTags(tags []string) []string {
	present := make(map[string]bool)
	var list []string

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || present[tag] {
			continue
		}

		present[tag] = true
		list = append(list, tag)
	}

	return list
}
