// Package model holds the entities produced by one pipeline run. Every value is
// rebuilt from the upstream APIs on each build and discarded afterwards.
package model

import "time"

// Blank is rendered where a required string is missing upstream.
const Blank = "-"

// NeverPlayed is the lastPlayed sentinel for members without a recorded game.
const NeverPlayed = "-1"

// DidNotPlay is the bonus count sentinel for members that did not play.
const DidNotPlay = -1

// MedalType distinguishes clan awards from member (profile) awards.
type MedalType string

const (
	MedalClan    MedalType = "clan"
	MedalProfile MedalType = "profile"
)

// ApiStatus describes freshness and upstream health at fetch time.
type ApiStatus struct {
	UpdatedDate    time.Time `json:"updatedDate"`
	EnrollmentOpen bool      `json:"enrollmentOpen"`
	BungieStatus   int       `json:"bungieStatus"`
	Alert          string    `json:"alert,omitempty"`
}

// FormattedDate is the enrollment feed's date slug.
func (s ApiStatus) FormattedDate() string {
	return s.UpdatedDate.UTC().Format("2006-01-02")
}

// ---- Clans and members ----

type Emblem struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type ClanAvatar struct {
	Color      string `json:"color"`
	Foreground Emblem `json:"foreground"`
	Background Emblem `json:"background"`
}

// MedalTotals counts awarded medals overall and per tier.
type MedalTotals struct {
	Total  int         `json:"total"`
	ByTier map[int]int `json:"byTier"`
}

// PlatformShare is one bucket of a clan's platform distribution.
type PlatformShare struct {
	ID         int `json:"id"`
	Size       int `json:"size,omitempty"`
	Active     int `json:"active,omitempty"`
	Percentage int `json:"percentage"`
}

// ClanTotals are the simple counters of a clan (or event) in the current event.
type ClanTotals struct {
	Active int `json:"active"`
	Games  int `json:"games"`
}

type Clan struct {
	ID          string      `json:"id"`
	Path        string      `json:"path"`
	Name        string      `json:"name"`
	Tag         string      `json:"tag"`
	Motto       string      `json:"motto"`
	Description string      `json:"description"`
	Avatar      ClanAvatar  `json:"avatar"`
	Medals      []Medal     `json:"medals"`
	MedalTotals MedalTotals `json:"medalTotals"`

	// Filled by the aggregator.
	Platforms     []PlatformShare `json:"platforms,omitempty"`
	LastChecked   string          `json:"lastChecked,omitempty"`
	CurrentTotals *ClanTotals     `json:"currentTotals,omitempty"`
	CurrentStats  *Superlatives   `json:"currentStats,omitempty"`
}

type MemberAvatar struct {
	Icon string `json:"icon,omitempty"`
}

type Tag struct {
	Name string `json:"name"`
}

// MemberTotals is a member's lifetime line; LastPlayed is NeverPlayed when
// no game was ever recorded.
type MemberTotals struct {
	LastPlayed string `json:"lastPlayed"`
	AggregateStat
}

// PastEventResult is a member's line for one finished event.
type PastEventResult struct {
	ID      int     `json:"id"`
	Game    Game    `json:"game"`
	Rank    string  `json:"rank"`
	Overall string  `json:"overall"`
	Games   int     `json:"games"`
	Wins    int     `json:"wins"`
	KD      float64 `json:"kd"`
	KDA     float64 `json:"kda"`
	Bonuses []Bonus `json:"bonuses"`
	PPG     int     `json:"ppg"`
	Score   int     `json:"score"`
}

// BonusColumns lists the bonus short names in display order.
func (p PastEventResult) BonusColumns() []string {
	cols := make([]string, 0, len(p.Bonuses))
	for _, b := range p.Bonuses {
		cols = append(cols, b.ShortName)
	}
	return cols
}

// Game describes the linked game or event of a history line.
type Game struct {
	Path       string    `json:"path"`
	IsExternal bool      `json:"isExternal,omitempty"`
	Result     string    `json:"result,omitempty"`
	Name       string    `json:"name"`
	Label      string    `json:"label,omitempty"`
	EndDate    time.Time `json:"endDate"`
	Medals     []Medal   `json:"medals,omitempty"`
}

type Member struct {
	ID         string            `json:"id"`
	ClanID     string            `json:"clanId"`
	Path       string            `json:"path"`
	Name       string            `json:"name"`
	Avatar     MemberAvatar      `json:"avatar"`
	Platforms  []PlatformShare   `json:"platforms"`
	Tags       []Tag             `json:"tags,omitempty"`
	Medals     []Medal           `json:"medals,omitempty"`
	Totals     MemberTotals      `json:"totals"`
	PastEvents []PastEventResult `json:"pastEvents,omitempty"`

	// Filled by the aggregator.
	CurrentTotals  *AggregateStat `json:"currentTotals,omitempty"`
	PreviousTotals *AggregateStat `json:"previousTotals,omitempty"`
	MatchHistory   []MatchResult  `json:"matchHistory,omitempty"`
}

// HasPlayed reports whether the member has any lifetime game.
func (m *Member) HasPlayed() bool {
	return m.Totals.Games > 0
}

// ---- Events, modifiers, medals ----

type EventMedals struct {
	Clans   []Medal `json:"clans,omitempty"`
	Members []Medal `json:"members,omitempty"`
}

type Event struct {
	ID           int          `json:"id"`
	Path         string       `json:"path"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Sponsor      string       `json:"sponsor,omitempty"`
	StartDate    time.Time    `json:"startDate"`
	EndDate      time.Time    `json:"endDate"`
	IsCurrent    bool         `json:"isCurrent,omitempty"`
	IsPast       bool         `json:"isPast,omitempty"`
	IsFuture     bool         `json:"isFuture,omitempty"`
	IsCalculated bool         `json:"isCalculated,omitempty"`
	ModifierIDs  []int        `json:"modifierIds"`
	Medals       *EventMedals `json:"medals,omitempty"`

	// Filled by the aggregator.
	Modifiers    []Modifier          `json:"modifiers,omitempty"`
	Leaderboards []DivisionStandings `json:"leaderboards,omitempty"`
	Results      []EventResult       `json:"results,omitempty"`
	Totals       *ClanTotals         `json:"totals,omitempty"`
	Stats        *Superlatives       `json:"stats,omitempty"`
}

// Tense returns the event's display kicker.
func (e *Event) Tense() string {
	switch {
	case e.IsCurrent:
		return "Current"
	case e.IsPast:
		return "Past"
	default:
		return "Future"
	}
}

type Modifier struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	ShortName       string  `json:"shortName"`
	Description     string  `json:"description"`
	ScoringModifier bool    `json:"scoringModifier"`
	Bonus           float64 `json:"bonus"`
	CreatorID       string  `json:"creatorId,omitempty"`
	Creator         string  `json:"creator,omitempty"`
}

type Medal struct {
	ID          string    `json:"id"`
	Type        MedalType `json:"type"`
	Tier        int       `json:"tier"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Count       int       `json:"count,omitempty"`
	Label       []string  `json:"label"`
}

// MedalKey is the composite identity of a medal.
type MedalKey struct {
	ID   string
	Type MedalType
}

func (m Medal) Key() MedalKey {
	return MedalKey{ID: m.ID, Type: m.Type}
}

// ---- Stats ----

type Bonus struct {
	ShortName string  `json:"shortName"`
	Count     float64 `json:"count"`
}

// AggregateStat is one leaderboard line. Score is always the rounded
// integer of the upstream floating total.
type AggregateStat struct {
	EventID int     `json:"eventId,omitempty"`
	Path    string  `json:"path,omitempty"`
	Rank    bool    `json:"rank,omitempty"`
	Games   int     `json:"games"`
	Wins    int     `json:"wins"`
	Kills   int     `json:"kills"`
	Assists int     `json:"assists"`
	Deaths  int     `json:"deaths"`
	KD      float64 `json:"kd"`
	KDA     float64 `json:"kda"`
	PPG     int     `json:"ppg"`
	Score   int     `json:"score"`
	Bonuses []Bonus `json:"bonuses,omitempty"`
	Updated string  `json:"updated,omitempty"`
}

// MatchResult is a single tracked game in a member's match history.
type MatchResult struct {
	Game    Game    `json:"game"`
	Kills   int     `json:"kills"`
	Assists int     `json:"assists"`
	Deaths  int     `json:"deaths"`
	Bonuses []Bonus `json:"bonuses"`
	Score   int     `json:"score"`
}

// ---- Leaderboards ----

// Division is one of the three independently ranked competition pools.
type Division struct {
	Key  string `json:"-"`
	Name string `json:"name"`
	Size string `json:"size"`
}

// Divisions lists the pools in display order.
var Divisions = []Division{
	{Key: "large", Name: "Large", Size: "50–100"},
	{Key: "medium", Name: "Medium", Size: "11–49"},
	{Key: "small", Name: "Small", Size: "2–10"},
}

// CurrentClanRow is a raw current-event division row.
type CurrentClanRow struct {
	ClanID     string  `json:"id"`
	Rank       int     `json:"rank"`
	TotalScore float64 `json:"totalScore"`
	Active     int     `json:"active"`
	Size       int     `json:"size"`
}

// ResultClanRow is a raw finished-event division row.
type ResultClanRow struct {
	ClanID string  `json:"clanId"`
	Rank   int     `json:"rank"`
	Score  float64 `json:"score"`
}

// CurrentDivision is the fetched, unjoined current leaderboard of one division.
type CurrentDivision struct {
	Division Division         `json:"division"`
	Rows     []CurrentClanRow `json:"leaderboard"`
}

// ResultDivision is the fetched, unjoined result of one division of a finished event.
type ResultDivision struct {
	Division Division        `json:"division"`
	Rows     []ResultClanRow `json:"leaderboard"`
}

// StandingRow is a division row joined against clan identity.
type StandingRow struct {
	ClanID  string     `json:"id"`
	Path    string     `json:"path"`
	Name    string     `json:"name"`
	Avatar  ClanAvatar `json:"avatar"`
	Overall string     `json:"overall"`
	Rank    int        `json:"-"`
	Active  int        `json:"active,omitempty"`
	Size    int        `json:"size,omitempty"`
	Score   int        `json:"score"`
	Updated string     `json:"updated,omitempty"`
	Medal   *Medal     `json:"medal,omitempty"`
}

type DivisionStandings struct {
	Division Division      `json:"division"`
	Rows     []StandingRow `json:"leaderboard"`
}

// EventResult is the winning row of one division of a finished event.
type EventResult struct {
	StandingRow
	Division Division `json:"division"`
}

// ---- Superlatives ----

// Superlative is a record-holder value and every name tied on it.
type Superlative struct {
	Stat  float64  `json:"stat"`
	Label []string `json:"label"`
}

// Superlatives maps a column key (games, wins, kd, ..., or a bonus short name)
// to its record holders. Order keeps the column discovery order.
type Superlatives struct {
	Order   []string                `json:"order"`
	Columns map[string]*Superlative `json:"columns"`
}

// ---- Snapshot ----

// Snapshot is the single contract between the pipeline and everything downstream.
type Snapshot struct {
	ApiStatus               ApiStatus                `json:"apiStatus"`
	Clans                   []Clan                   `json:"clans"`
	Members                 []Member                 `json:"members"`
	Events                  []Event                  `json:"events"`
	Modifiers               []Modifier               `json:"modifiers"`
	Medals                  []Medal                  `json:"medals"`
	CurrentEventID          int                      `json:"currentEventId,omitempty"`
	CurrentLeaderboards     []CurrentDivision        `json:"currentLeaderboards"`
	CurrentClanLeaderboard  map[string]AggregateStat `json:"currentClanLeaderboard"`
	PreviousEventID         int                      `json:"previousEventId,omitempty"`
	PreviousClanLeaderboard map[string]AggregateStat `json:"previousClanLeaderboard"`
	MatchHistory            map[string][]MatchResult `json:"matchHistory"`
	MatchHistoryLimit       int                      `json:"matchHistoryLimit"`
	LastChecked             map[string]string        `json:"lastChecked"`
	Leaderboards            map[int][]ResultDivision `json:"leaderboards"`
}

// NewSnapshot returns a snapshot whose slices and maps are empty, never nil.
func NewSnapshot(updated time.Time, bungieStatus int) *Snapshot {
	return &Snapshot{
		ApiStatus: ApiStatus{
			UpdatedDate:  updated,
			BungieStatus: bungieStatus,
		},
		Clans:                   []Clan{},
		Members:                 []Member{},
		Events:                  []Event{},
		Modifiers:               []Modifier{},
		Medals:                  []Medal{},
		CurrentLeaderboards:     []CurrentDivision{},
		CurrentClanLeaderboard:  map[string]AggregateStat{},
		PreviousClanLeaderboard: map[string]AggregateStat{},
		MatchHistory:            map[string][]MatchResult{},
		LastChecked:             map[string]string{},
		Leaderboards:            map[int][]ResultDivision{},
	}
}

// CurrentEvent returns the event flagged current, or nil.
func (s *Snapshot) CurrentEvent() *Event {
	for i := range s.Events {
		if s.Events[i].IsCurrent {
			return &s.Events[i]
		}
	}
	return nil
}
