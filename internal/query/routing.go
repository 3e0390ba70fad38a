package query

import (
	"sort"
	"strings"
)

// NormalizeGroups turns a reviewer's approval-group memberships into the
// routing keys matched against docType. Blank names are dropped and duplicates
// removed. The result is never nil, so a reviewer without groups sees nothing.
func NormalizeGroups(groups []string) []string {
	seen := make(map[string]struct{}, len(groups))
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
