// Package stats derives per-line statistics from raw leaderboard counters.
// Every function is pure.
package stats

import (
	"math"
	"strconv"

	"github.com/pable/dcwbuild/internal/model"
)

// KD returns kills per death. With no deaths the raw kill count stands in.
func KD(kills, deaths int) float64 {
	if deaths > 0 {
		return float64(kills) / float64(deaths)
	}
	return float64(kills)
}

// KDA returns kills plus assists per death, or kills plus assists with no deaths.
func KDA(kills, deaths, assists int) float64 {
	if deaths > 0 {
		return float64(kills+assists) / float64(deaths)
	}
	return float64(kills + assists)
}

// PPG returns rounded points per game, 0 when no game was played.
func PPG(score, games int) int {
	if games > 0 {
		return Total(float64(score) / float64(games))
	}
	return 0
}

// Ranking formats a rank as "#n", or the blank sentinel when absent.
func Ranking(rank int) string {
	if rank <= 0 {
		return model.Blank
	}
	return "#" + strconv.Itoa(rank)
}

// Total is where upstream floating scores become integers: round half away from zero.
func Total(raw float64) int {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	return int(math.Round(raw))
}

// Round2 rounds a ratio to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Line fills the derived columns of a leaderboard line from its counters.
func Line(games, wins, kills, assists, deaths int, rawScore float64) model.AggregateStat {
	score := Total(rawScore)
	return model.AggregateStat{
		Rank:    true,
		Games:   games,
		Wins:    wins,
		Kills:   kills,
		Assists: assists,
		Deaths:  deaths,
		KD:      KD(kills, deaths),
		KDA:     KDA(kills, deaths, assists),
		PPG:     PPG(score, games),
		Score:   score,
	}
}
