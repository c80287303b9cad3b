package model

import "log/slog"

// Stats aggregates per-source counts for one categorization run. It is a
// read projection over a batch of Classifications, used only for logging.
type Stats struct {
	BySource map[Source]int
	Total    int
}

// NewStats returns an empty Stats ready to record results.
func NewStats() *Stats {
	return &Stats{BySource: make(map[Source]int)}
}

// Record counts one classification result.
func (s *Stats) Record(source Source) {
	s.Total++
	s.BySource[source]++
}

// Count returns how many results came from the given source.
func (s *Stats) Count(source Source) int {
	return s.BySource[source]
}

// LogValue renders the stats as structured log attributes.
func (s *Stats) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(s.BySource)+1)
	attrs = append(attrs, slog.Int("total", s.Total))
	for source, count := range s.BySource {
		attrs = append(attrs, slog.Int(string(source), count))
	}
	return slog.GroupValue(attrs...)
}
