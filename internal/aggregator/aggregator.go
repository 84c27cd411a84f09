// Package aggregator cross-references a fetched snapshot and computes the
// per-clan and per-event rollups. It runs once, after every fetch succeeded.
package aggregator

import (
	"errors"
	"fmt"
	"math"

	"github.com/pable/dcwbuild/internal/model"
	"github.com/pable/dcwbuild/internal/stats"
)

// ErrUnresolved marks a reference that must resolve but does not.
var ErrUnresolved = errors.New("unresolved reference")

// Options tunes the rollup.
type Options struct {
	// MinimumGames is the number of current-event games a member needs
	// before contributing to superlatives.
	MinimumGames int
}

// index holds the lookups shared by every pass.
type index struct {
	clans     map[string]int
	members   map[string]int
	events    map[int]int
	modifiers map[int]int
	byClan    map[string][]int
}

func buildIndex(snap *model.Snapshot) (*index, error) {
	idx := &index{
		clans:     make(map[string]int, len(snap.Clans)),
		members:   make(map[string]int, len(snap.Members)),
		events:    make(map[int]int, len(snap.Events)),
		modifiers: make(map[int]int, len(snap.Modifiers)),
		byClan:    make(map[string][]int, len(snap.Clans)),
	}
	for i, c := range snap.Clans {
		idx.clans[c.ID] = i
	}
	for i, m := range snap.Members {
		if _, ok := idx.clans[m.ClanID]; !ok {
			return nil, fmt.Errorf("member %s: clan %s: %w", m.ID, m.ClanID, ErrUnresolved)
		}
		idx.members[m.ID] = i
		idx.byClan[m.ClanID] = append(idx.byClan[m.ClanID], i)
	}
	for i, e := range snap.Events {
		idx.events[e.ID] = i
	}
	for i, m := range snap.Modifiers {
		idx.modifiers[m.ID] = i
	}
	return idx, nil
}

func (idx *index) event(snap *model.Snapshot, id int) (*model.Event, error) {
	if id == 0 {
		return nil, nil
	}
	i, ok := idx.events[id]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", id, ErrUnresolved)
	}
	return &snap.Events[i], nil
}

func (idx *index) clan(snap *model.Snapshot, id string) (*model.Clan, error) {
	i, ok := idx.clans[id]
	if !ok {
		return nil, fmt.Errorf("clan %s: %w", id, ErrUnresolved)
	}
	return &snap.Clans[i], nil
}

// Aggregate enriches snap in place. On error snap is left partially
// enriched and must not be emitted.
func Aggregate(snap *model.Snapshot, opts Options) error {
	if opts.MinimumGames < 1 {
		opts.MinimumGames = 1
	}
	idx, err := buildIndex(snap)
	if err != nil {
		return err
	}
	current, err := idx.event(snap, snap.CurrentEventID)
	if err != nil {
		return fmt.Errorf("current %w", err)
	}
	previous, err := idx.event(snap, snap.PreviousEventID)
	if err != nil {
		return fmt.Errorf("previous %w", err)
	}

	// ---- Pass 1: per clan rollups. ----

	eventTotals := &model.ClanTotals{}
	eventStats := NewSuperlatives()
	for ci := range snap.Clans {
		clan := &snap.Clans[ci]
		rollupClan(snap, idx, clan, current, previous, eventTotals, eventStats, opts)
	}
	if current != nil {
		current.Totals = eventTotals
		current.Stats = eventStats
	}

	// ---- Pass 2: modifiers and creators. ----

	if err := resolveModifiers(snap, idx); err != nil {
		return err
	}

	// ---- Pass 3: division standings. ----

	winners := winnersMedal(snap.Medals)
	for ei := range snap.Events {
		event := &snap.Events[ei]
		if event.IsCurrent {
			if err := currentStandings(snap, idx, event); err != nil {
				return err
			}
			continue
		}
		if err := pastStandings(snap, idx, event, winners); err != nil {
			return err
		}
	}
	return nil
}

func rollupClan(snap *model.Snapshot, idx *index, clan *model.Clan, current, previous *model.Event,
	eventTotals *model.ClanTotals, eventStats *model.Superlatives, opts Options) {
	members := idx.byClan[clan.ID]
	platforms := []model.PlatformShare{}
	clanTotals := &model.ClanTotals{}
	clanStats := NewSuperlatives()

	for _, mi := range members {
		member := &snap.Members[mi]
		platforms = countPlatform(platforms, member, len(members))

		if current != nil {
			line, ok := snap.CurrentClanLeaderboard[member.ID]
			if ok && line.Games > 0 {
				line.Updated = snap.LastChecked[member.ID]
				clanTotals.Active++
				clanTotals.Games += line.Games
				eventTotals.Active++
				eventTotals.Games += line.Games
				if line.Games >= opts.MinimumGames {
					Record(clanStats, member.Name, line)
					Record(eventStats, member.Name+" ["+clan.Tag+"]", line)
				}
			} else {
				line = model.AggregateStat{EventID: current.ID}
			}
			member.CurrentTotals = &line

			history := snap.MatchHistory[member.ID]
			if history == nil {
				history = []model.MatchResult{}
			}
			member.MatchHistory = history
		}

		if previous != nil {
			line, ok := snap.PreviousClanLeaderboard[member.ID]
			if ok && line.Games > 0 {
				member.PastEvents = prependPastEvent(member.PastEvents, previous, line)
			} else {
				line = model.AggregateStat{EventID: previous.ID}
			}
			member.PreviousTotals = &line
		}
	}

	clan.Platforms = platforms
	clan.LastChecked = snap.LastChecked[clan.ID]
	if current != nil {
		clan.CurrentTotals = clanTotals
		clan.CurrentStats = clanStats
	}
}

// countPlatform adds member to its first platform's bucket and refreshes that
// bucket's share of total.
func countPlatform(platforms []model.PlatformShare, member *model.Member, total int) []model.PlatformShare {
	id := 0
	if len(member.Platforms) > 0 {
		id = member.Platforms[0].ID
	}
	bucket := -1
	for i := range platforms {
		if platforms[i].ID == id {
			bucket = i
			break
		}
	}
	if bucket < 0 {
		platforms = append(platforms, model.PlatformShare{ID: id})
		bucket = len(platforms) - 1
	}
	p := &platforms[bucket]
	p.Size++
	if member.HasPlayed() {
		p.Active++
	}
	p.Percentage = int(math.Round(float64(p.Size) / float64(total) * 100))
	return platforms
}

// prependPastEvent puts the previous event first unless the member's history
// already lists it.
func prependPastEvent(past []model.PastEventResult, event *model.Event, line model.AggregateStat) []model.PastEventResult {
	for _, p := range past {
		if p.ID == event.ID {
			return past
		}
	}
	entry := model.PastEventResult{
		ID: event.ID,
		Game: model.Game{
			Path:    event.Path,
			Name:    event.Name,
			EndDate: event.EndDate,
		},
		Rank:    stats.Ranking(0),
		Overall: stats.Ranking(0),
		Games:   line.Games,
		Wins:    line.Wins,
		KD:      line.KD,
		KDA:     line.KDA,
		Bonuses: line.Bonuses,
		PPG:     line.PPG,
		Score:   line.Score,
	}
	return append([]model.PastEventResult{entry}, past...)
}

// resolveModifiers names each modifier's creator "name [TAG]" when the
// creator is a known member, then replaces event modifier ids with copies.
func resolveModifiers(snap *model.Snapshot, idx *index) error {
	for i := range snap.Modifiers {
		m := &snap.Modifiers[i]
		if m.CreatorID == "" {
			continue
		}
		mi, ok := idx.members[m.CreatorID]
		if !ok {
			continue
		}
		member := snap.Members[mi]
		m.Creator = member.Name
		if ci, ok := idx.clans[member.ClanID]; ok {
			m.Creator += " [" + snap.Clans[ci].Tag + "]"
		}
	}

	for ei := range snap.Events {
		event := &snap.Events[ei]
		modifiers := make([]model.Modifier, 0, len(event.ModifierIDs))
		for _, id := range event.ModifierIDs {
			mi, ok := idx.modifiers[id]
			if !ok {
				return fmt.Errorf("event %d: modifier %d: %w", event.ID, id, ErrUnresolved)
			}
			modifiers = append(modifiers, snap.Modifiers[mi])
		}
		event.Modifiers = modifiers
	}
	return nil
}
