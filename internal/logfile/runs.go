package logfile

import "slices"

// Run summarises the records sharing one process value.
type Run struct {
	Key        string
	Latest     string
	Records    int
	MostRecent bool
}

// Runs lists the runs in the set, most recent first. Runs with equal latest
// timestamps keep the order in which they are first met in the set.
func (rs *RecordSet) Runs() []Run {
	type entry struct {
		run    Run
		latest stamp
	}
	index := make(map[string]int)
	var entries []entry
	for _, rec := range rs.records {
		i, ok := index[rec.process]
		if !ok {
			index[rec.process] = len(entries)
			entries = append(entries, entry{
				run:    Run{Key: rec.process, Latest: rec.asctime.text, Records: 1},
				latest: rec.asctime,
			})
			continue
		}
		entries[i].run.Records++
		if rec.asctime.compare(entries[i].latest) > 0 {
			entries[i].latest = rec.asctime
			entries[i].run.Latest = rec.asctime.text
		}
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		return b.latest.compare(a.latest)
	})

	runs := make([]Run, len(entries))
	for i, e := range entries {
		runs[i] = e.run
	}
	if len(runs) > 0 {
		runs[0].MostRecent = true
	}
	return runs
}
