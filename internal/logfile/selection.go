package logfile

// FilterRuns selects exactly the records whose run key is in keys. The
// selection is recomputed for every record; order and content are untouched.
func (rs *RecordSet) FilterRuns(keys []string) {
	include := make(map[string]bool, len(keys))
	for _, k := range keys {
		include[k] = true
	}
	for i, rec := range rs.records {
		rs.selected[i] = include[rec.process]
	}
}

// SelectAll puts every record back in view.
func (rs *RecordSet) SelectAll() {
	for i := range rs.selected {
		rs.selected[i] = true
	}
}

// SelectedRuns returns the run keys that have at least one selected record.
func (rs *RecordSet) SelectedRuns() map[string]bool {
	out := make(map[string]bool)
	for i, rec := range rs.records {
		if rs.selected[i] {
			out[rec.process] = true
		}
	}
	return out
}
