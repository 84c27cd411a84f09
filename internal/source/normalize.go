package source

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pable/dcwbuild/internal/medal"
	"github.com/pable/dcwbuild/internal/model"
	"github.com/pable/dcwbuild/internal/stats"
	"github.com/pable/dcwbuild/internal/text"
	"github.com/pable/dcwbuild/internal/urls"
)

const (
	// MachineReadable is the timestamp format of lastChecked and updated values.
	MachineReadable = "2006-01-02T15:04:05"
	dateFormat      = "2006-01-02"

	avatarURL     = "https://www.bungie.net/img/profile/avatars/"
	defaultAvatar = avatarURL + "default_avatar.gif"

	resultWin  = "Win"
	resultLoss = "Loss"

	// PlatformDefault is the membership type assumed when upstream sends none (Battle.net).
	PlatformDefault = 4
)

// ErrMultipleCurrent marks an events feed where more than one event is live
// after tense correction.
var ErrMultipleCurrent = errors.New("more than one current event")

func parseClans(raw []rawClan) ([]model.Clan, error) {
	clans := make([]model.Clan, 0, len(raw))
	for _, c := range raw {
		id := string(c.GroupID)
		if id == "" {
			return nil, fmt.Errorf("clan %q has no group id", c.Name)
		}
		medals, totals, err := medal.Parse(c.MedalUnlocks, model.MedalClan, 0)
		if err != nil {
			return nil, fmt.Errorf("clan %s medals: %w", id, err)
		}
		clans = append(clans, model.Clan{
			ID:          id,
			Path:        urls.Clan(id),
			Name:        text.Decode(c.Name),
			Tag:         text.Decode(c.Tag),
			Motto:       text.Decode(c.Motto),
			Description: text.Description(c.Description),
			Avatar: model.ClanAvatar{
				Color:      c.BackgroundColor,
				Foreground: model.Emblem{Color: c.EmblemColor1, Icon: text.EmblemIcon(c.ForegroundIcon)},
				Background: model.Emblem{Color: c.EmblemColor2, Icon: text.EmblemIcon(c.BackgroundIcon)},
			},
			Medals:      medals,
			MedalTotals: totals,
		})
	}
	return clans, nil
}

func memberIcon(path string) string {
	if path == "" || path == defaultAvatar {
		return ""
	}
	return strings.TrimPrefix(path, avatarURL)
}

func parseMembers(raw []rawMember) ([]model.Member, error) {
	members := make([]model.Member, 0, len(raw))
	for _, m := range raw {
		id := m.ProfileIDStr
		clanID := string(m.GroupID)
		if id == "" || clanID == "" {
			return nil, fmt.Errorf("member %q lacks profile or group id", m.Name)
		}
		path := urls.Profile(clanID, id)

		totals := model.MemberTotals{LastPlayed: model.NeverPlayed}
		if cs := m.CurrentScore; cs != nil && cs.LastSeen != "" {
			seen, err := parseTime(cs.LastSeen)
			if err != nil {
				return nil, fmt.Errorf("member %s last seen: %w", id, err)
			}
			totals.LastPlayed = seen.Format(dateFormat)
			if cs.GamesPlayed > 0 {
				totals.AggregateStat = stats.Line(cs.GamesPlayed, cs.GamesWon, cs.Kills, cs.Assists, cs.Deaths, cs.TotalScore)
				totals.Path = path
			}
		}

		var pastEvents []model.PastEventResult
		for _, h := range m.History {
			past, err := parsePastEvent(h)
			if err != nil {
				return nil, fmt.Errorf("member %s history: %w", id, err)
			}
			pastEvents = append(pastEvents, past)
		}

		medals, _, err := medal.Parse(m.MedalUnlocks, model.MedalProfile, 0)
		if err != nil {
			return nil, fmt.Errorf("member %s medals: %w", id, err)
		}
		if len(medals) == 0 {
			medals = nil
		}

		var tags []model.Tag
		for _, b := range m.BonusUnlocks {
			tags = append(tags, model.Tag{Name: b.Name})
		}

		name := text.Decode(m.Name)
		if name == "" {
			name = model.Blank
		}

		members = append(members, model.Member{
			ID:         id,
			ClanID:     clanID,
			Path:       path,
			Name:       name,
			Avatar:     model.MemberAvatar{Icon: memberIcon(m.Icon)},
			Platforms:  []model.PlatformShare{{ID: platform(m.MembershipType), Percentage: 10}},
			Tags:       tags,
			Medals:     medals,
			Totals:     totals,
			PastEvents: pastEvents,
		})
	}
	return members, nil
}

func parsePastEvent(h rawHistory) (model.PastEventResult, error) {
	r := h.Results
	end, err := parseTime(r.EventData.ScoringEndDate)
	if err != nil {
		return model.PastEventResult{}, fmt.Errorf("event %d end date: %w", h.EventID, err)
	}
	medals, _, err := medal.Parse(h.Medals, model.MedalProfile, 0)
	if err != nil {
		return model.PastEventResult{}, fmt.Errorf("event %d medals: %w", h.EventID, err)
	}
	line := stats.Line(r.GamesPlayed, r.GamesWon, r.TotalKills, r.TotalAssists, r.TotalDeaths, r.TotalScore)
	return model.PastEventResult{
		ID: h.EventID,
		Game: model.Game{
			Path:    urls.Event(urls.ID(h.EventID)),
			Name:    r.EventData.Name,
			EndDate: end,
			Medals:  medals,
		},
		Rank:    stats.Ranking(r.RankInClan),
		Overall: stats.Ranking(r.OverallRank),
		Games:   line.Games,
		Wins:    line.Wins,
		KD:      line.KD,
		KDA:     line.KDA,
		Bonuses: parseBonuses(true, r.BonusPoints1, r.BonusPoints2),
		PPG:     line.PPG,
		Score:   line.Score,
	}, nil
}

// parseBonuses names unnamed bonuses "Bonus N" and marks them DidNotPlay
// when the line has no games.
func parseBonuses(played bool, points ...bonusPoints) []model.Bonus {
	bonuses := make([]model.Bonus, 0, len(points))
	for i, p := range points {
		name := p.ShortName
		if name == "" {
			name = "Bonus " + strconv.Itoa(i+1)
		}
		count := float64(model.DidNotPlay)
		if played {
			count = p.Points
		}
		bonuses = append(bonuses, model.Bonus{ShortName: name, Count: count})
	}
	return bonuses
}

func platform(membershipType int) int {
	if membershipType == 0 {
		return PlatformDefault
	}
	return membershipType
}

// eventSet is the output of the events feed: the events themselves, the
// id of the event left current after tense correction, and the per-event
// division results.
type eventSet struct {
	events       []model.Event
	currentID    int
	leaderboards map[int][]model.ResultDivision
}

// parseEvents corrects the upstream tense against updated: a current event
// that has ended is past, a future event that has started is current.
func parseEvents(raw []rawEvent, updated time.Time) (eventSet, error) {
	set := eventSet{
		events:       make([]model.Event, 0, len(raw)),
		leaderboards: map[int][]model.ResultDivision{},
	}
	now := updated.UTC().Truncate(time.Second)

	for _, e := range raw {
		start, err := parseTime(e.StartTime)
		if err != nil {
			return eventSet{}, fmt.Errorf("event %d start: %w", e.EventID, err)
		}
		end, err := parseTime(e.ScoringEndTime)
		if err != nil {
			return eventSet{}, fmt.Errorf("event %d end: %w", e.EventID, err)
		}
		start, end = start.Truncate(time.Second), end.Truncate(time.Second)

		tense := strings.ToLower(e.EventTense)
		isCurrent, isPast, isFuture := tense == "current", tense == "past", tense == "future"
		if isCurrent && end.Before(now) {
			isCurrent, isPast = false, true
		}
		if isFuture && start.Before(now) {
			isCurrent, isFuture = true, false
		}

		path := urls.Event(urls.ID(e.EventID))
		if isCurrent {
			if set.currentID != 0 {
				return eventSet{}, fmt.Errorf("events %d and %d: %w", set.currentID, e.EventID, ErrMultipleCurrent)
			}
			path = urls.CurrentEventRoot
			set.currentID = e.EventID
		}

		if e.Result != nil {
			var divisions []model.ResultDivision
			for _, d := range model.Divisions {
				rows := e.Result.division(d.Key)
				if len(rows) == 0 {
					continue
				}
				div := model.ResultDivision{Division: d, Rows: make([]model.ResultClanRow, 0, len(rows))}
				for _, r := range rows {
					div.Rows = append(div.Rows, model.ResultClanRow{ClanID: string(r.ClanID), Rank: r.Rank, Score: r.Score})
				}
				divisions = append(divisions, div)
			}
			if len(divisions) > 0 {
				set.leaderboards[e.EventID] = divisions
			}
		}

		clanMedals, _, err := medal.Parse(e.ClanMedals, model.MedalClan, 1)
		if err != nil {
			return eventSet{}, fmt.Errorf("event %d clan medals: %w", e.EventID, err)
		}
		memberMedals, _, err := medal.Parse(e.ClanMemberMedals, model.MedalProfile, 1)
		if err != nil {
			return eventSet{}, fmt.Errorf("event %d member medals: %w", e.EventID, err)
		}
		var medals *model.EventMedals
		if len(clanMedals) > 0 || len(memberMedals) > 0 {
			medals = &model.EventMedals{}
			if len(clanMedals) > 0 {
				medals.Clans = clanMedals
			}
			if len(memberMedals) > 0 {
				medals.Members = memberMedals
			}
		}

		modifierIDs := make([]int, 0, len(e.Modifiers))
		for _, m := range e.Modifiers {
			modifierIDs = append(modifierIDs, m.ID)
		}

		set.events = append(set.events, model.Event{
			ID:           e.EventID,
			Path:         path,
			Name:         text.Decode(e.Name),
			Description:  text.Description(e.Description),
			Sponsor:      e.SponsoredBy,
			StartDate:    start,
			EndDate:      end,
			IsCurrent:    isCurrent,
			IsPast:       isPast,
			IsFuture:     isFuture,
			IsCalculated: e.Calculated,
			ModifierIDs:  modifierIDs,
			Medals:       medals,
		})
	}
	return set, nil
}

func parseModifiers(raw []rawModifier) []model.Modifier {
	modifiers := make([]model.Modifier, 0, len(raw))
	for _, m := range raw {
		short := m.ShortName
		if short == "" {
			short, _, _ = strings.Cut(m.Name, " ")
		}
		bonus := m.ScoringBonus
		if bonus == 0 {
			bonus = m.MultiplierBonus
		}
		modifiers = append(modifiers, model.Modifier{
			ID:              m.ID,
			Name:            m.Name,
			ShortName:       short,
			Description:     m.Description,
			ScoringModifier: m.ScoringModifier,
			Bonus:           bonus,
			CreatorID:       m.CreatedBy,
		})
	}
	return modifiers
}

// parseCurrentLeaderboards keeps only non-empty divisions, in display order.
func parseCurrentLeaderboards(raw *rawLeaderboard) []model.CurrentDivision {
	divisions := []model.CurrentDivision{}
	if raw == nil {
		return divisions
	}
	for _, d := range model.Divisions {
		rows := raw.division(d.Key)
		if len(rows) == 0 {
			continue
		}
		div := model.CurrentDivision{Division: d, Rows: make([]model.CurrentClanRow, 0, len(rows))}
		for _, r := range rows {
			div.Rows = append(div.Rows, model.CurrentClanRow{
				ClanID:     string(r.ID),
				Rank:       r.Rank,
				TotalScore: r.TotalScore,
				Active:     r.Active,
				Size:       r.Size,
			})
		}
		divisions = append(divisions, div)
	}
	return divisions
}

// memberBoard is a parsed member leaderboard plus the check times it saw.
type memberBoard struct {
	totals      map[string]model.AggregateStat
	lastChecked map[string]string
}

// parseLeaderboard keeps only members with games. eventID zero means the
// current event. clanID is used for rows that omit their clan.
func parseLeaderboard(rows []rawMemberRow, eventID int, clanID string) (memberBoard, error) {
	board := memberBoard{totals: map[string]model.AggregateStat{}, lastChecked: map[string]string{}}
	for _, r := range rows {
		id := r.IDStr
		if id == "" {
			return memberBoard{}, fmt.Errorf("leaderboard row without member id")
		}
		clan := string(r.ClanID)
		if clan == "" || clan == "0" {
			clan = clanID
		}

		if r.GamesPlayed > 0 {
			line := stats.Line(r.GamesPlayed, r.GamesWon, r.Kills, r.Assists, r.Deaths, r.TotalScore)
			line.EventID = eventID
			if eventID != 0 {
				line.Path = urls.Profile(clan, id, urls.ID(eventID))
			} else {
				line.Path = urls.CurrentEvent(clan, id)
			}
			line.Bonuses = parseBonuses(true, r.BonusPoints1, r.BonusPoints2)
			board.totals[id] = line
		}

		if r.LastChecked != "" {
			checked, err := parseTime(r.LastChecked)
			if err != nil {
				return memberBoard{}, fmt.Errorf("member %s last checked: %w", id, err)
			}
			stamp := checked.Format(MachineReadable)
			board.lastChecked[id] = stamp
			if clan != "" && stamp > board.lastChecked[clan] {
				board.lastChecked[clan] = stamp
			}
		}
	}
	return board, nil
}

func parseMatchHistory(raw rawPlayersHistory) (map[string][]model.MatchResult, error) {
	history := map[string][]model.MatchResult{}
	for _, m := range raw.History {
		played, err := parseTime(m.DatePlayed)
		if err != nil {
			return nil, fmt.Errorf("match %s: %w", m.PgcrID, err)
		}
		result := ""
		if m.GameWon != nil {
			result = resultLoss
			if *m.GameWon {
				result = resultWin
			}
		}
		history[m.MemberShipIDStr] = append(history[m.MemberShipIDStr], model.MatchResult{
			Game: model.Game{
				Path:       urls.PGCR(string(m.PgcrID)),
				IsExternal: true,
				Result:     result,
				Name:       m.GameType,
				Label:      m.Map,
				EndDate:    played,
			},
			Kills:   m.Kills,
			Assists: m.Assists,
			Deaths:  m.Deaths,
			Bonuses: parseBonuses(true, m.BonusPoints1, m.BonusPoints2),
			Score:   stats.Total(m.TotalScore),
		})
	}
	return history, nil
}
