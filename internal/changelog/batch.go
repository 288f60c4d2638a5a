package changelog

// Batch owns the classified records of a single run.
type Batch struct {
	Records []Record
}

// BugNumbers returns the distinct bug numbers across all records in
// first-seen order. This is the whole key set for one tracker query.
func (b *Batch) BugNumbers() []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, r := range b.Records {
		for _, ref := range r.Bugs {
			if seen[ref.Number] {
				continue
			}
			seen[ref.Number] = true
			out = append(out, ref.Number)
		}
	}
	return out
}

// ApplyDescriptions attaches tracker descriptions to bug references.
//
// For every number only the first reference in record order is resolved;
// later references to the same bug stay unresolved so the bug is listed
// once. Applying the same map twice gives the same result.
func (b *Batch) ApplyDescriptions(descriptions map[string]string) {
	claimed := make(map[string]bool)
	for i := range b.Records {
		bugs := b.Records[i].Bugs
		for j := range bugs {
			desc, ok := descriptions[bugs[j].Number]
			if !ok || claimed[bugs[j].Number] {
				bugs[j].Description = ""
				bugs[j].Resolved = false
				continue
			}
			claimed[bugs[j].Number] = true
			bugs[j].Description = desc
			bugs[j].Resolved = true
		}
	}
}

// Counts returns the number of records per category.
func (b *Batch) Counts() map[Category]int {
	counts := make(map[Category]int, 3)
	for _, r := range b.Records {
		counts[r.Category]++
	}
	return counts
}
