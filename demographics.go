package bias

// ComputeDemographicStats counts, for every demographic group, the corpus
// tokens that are members of the group's terms. Each occurrence counts once,
// so a repeated term contributes every time it appears. A token listed under
// several groups counts for each of them.
//
// Every group is present in the result; groups with no matches have 0. An
// empty corpus yields all zeros.
func ComputeDemographicStats(corpus Corpus, demographic TermGroups) DemographicStats {
	stats := DemographicStats{
		groups: demographic.Groups(),
		counts: make(map[string]int, demographic.Len()),
	}
	for _, group := range stats.groups {
		stats.counts[group] = 0
	}

	index := demographic.reverseIndex()
	for _, sentence := range corpus {
		for _, tok := range sentence.Tokens {
			for _, group := range index[tok] {
				stats.counts[group]++
			}
		}
	}

	return stats
}
