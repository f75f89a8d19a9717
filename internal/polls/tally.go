package polls

import "github.com/00goop/lets-link/pkg/db/models"

// tallyVotes buckets votes by exact option string. Entries come back in
// the poll's original option order; votes whose option no longer matches
// any entry are ignored.
func tallyVotes(options []string, votes []models.Vote) ([]TallyEntry, int) {
	counts := make(map[string]int, len(options))
	for _, v := range votes {
		counts[v.SelectedOption]++
	}

	total := 0
	entries := make([]TallyEntry, 0, len(options))
	for _, opt := range options {
		entries = append(entries, TallyEntry{Option: opt, Count: counts[opt]})
		total += counts[opt]
	}
	for i := range entries {
		if total > 0 {
			entries[i].Percentage = float64(entries[i].Count) / float64(total) * 100
		}
	}
	return entries, total
}

// winningOption picks the highest-count option, first in option order on a
// tie. No votes means no winner.
func winningOption(entries []TallyEntry, total int) (string, bool) {
	if total == 0 {
		return "", false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Count > best.Count {
			best = e
		}
	}
	return best.Option, true
}
