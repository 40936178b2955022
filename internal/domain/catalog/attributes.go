package catalog

import (
	"sort"

	"storefront/internal/domain/model"
)

// 属性名ごとに、variant間で出てきた値を重複なしで返す。
// 順番は最初に出た順（variantはid順）。
func GroupAttributes(variants []model.ProductVariant) map[string][]string {
	grouped := map[string][]string{}
	seen := map[string]map[string]bool{}

	for _, v := range SortVariants(variants) {
		attrs := v.AttributeMap()
		for _, name := range sortedKeys(attrs) {
			value := attrs[name]
			if seen[name] == nil {
				seen[name] = map[string]bool{}
			}
			if seen[name][value] {
				continue
			}
			seen[name][value] = true
			grouped[name] = append(grouped[name], value)
		}
	}
	return grouped
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
