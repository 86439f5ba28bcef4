package returns

import (
	"sort"
)

// sortObservations orders by (company, date, original index). The index makes
// the key total, so the result does not depend on sort stability.
func sortObservations(obs []observation) {
	sort.Slice(obs, func(i, j int) bool {
		a, b := obs[i], obs[j]
		if a.company != b.company {
			return a.company < b.company
		}
		if !a.date.Equal(b.date) {
			return a.date.Before(b.date)
		}
		return a.index < b.index
	})
}

type companyMonth struct {
	company string
	month   MonthKey
}

// deduplicate sorts the observations and keeps the first one per company and
// calendar month. It returns a new slice.
func deduplicate(obs []observation, stats *Stats) []observation {
	sorted := make([]observation, len(obs))
	copy(sorted, obs)
	sortObservations(sorted)

	seen := make(map[companyMonth]struct{}, len(sorted))
	out := sorted[:0]
	for _, o := range sorted {
		key := companyMonth{company: o.company, month: MonthKeyOf(o.date)}
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, o)
	}
	return out
}
