package aggregator

import (
	"github.com/pable/dcwbuild/internal/model"
	"github.com/pable/dcwbuild/internal/stats"
)

// Fixed superlative columns, in display order. Bonus columns follow in the
// order their short names are first seen.
const (
	ColumnGames = "games"
	ColumnWins  = "wins"
	ColumnKD    = "kd"
	ColumnKDA   = "kda"
	ColumnPPG   = "ppg"
	ColumnScore = "score"
)

// NewSuperlatives returns an empty set of record holders.
func NewSuperlatives() *model.Superlatives {
	return &model.Superlatives{Order: []string{}, Columns: map[string]*model.Superlative{}}
}

// Record offers every column of line on behalf of name. Ratios are compared
// after rounding to two places so near-equal values tie.
func Record(s *model.Superlatives, name string, line model.AggregateStat) {
	offer(s, ColumnGames, float64(line.Games), name)
	offer(s, ColumnWins, float64(line.Wins), name)
	offer(s, ColumnKD, stats.Round2(line.KD), name)
	offer(s, ColumnKDA, stats.Round2(line.KDA), name)
	offer(s, ColumnPPG, float64(line.PPG), name)
	offer(s, ColumnScore, float64(line.Score), name)
	for _, b := range line.Bonuses {
		offer(s, b.ShortName, b.Count, name)
	}
}

// offer is a running maximum that keeps every holder tied on the maximum.
func offer(s *model.Superlatives, key string, value float64, name string) {
	col, ok := s.Columns[key]
	if !ok {
		s.Columns[key] = &model.Superlative{Stat: value, Label: []string{name}}
		s.Order = append(s.Order, key)
		return
	}
	switch {
	case value > col.Stat:
		col.Stat = value
		col.Label = []string{name}
	case value == col.Stat:
		col.Label = append(col.Label, name)
	}
}
