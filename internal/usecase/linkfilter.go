package usecase

import "strings"

// FilterSameOrigin keeps the links that start with base, in their original order.
// This is a plain string prefix test: no normalisation of case, trailing slashes or fragments.
func FilterSameOrigin(base string, links []string) []string {
	kept := make([]string, 0, len(links))
	for _, link := range links {
		if strings.HasPrefix(link, base) {
			kept = append(kept, link)
		}
	}
	return kept
}
