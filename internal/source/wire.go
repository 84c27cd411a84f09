package source

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/pable/dcwbuild/internal/medal"
)

// The upstream API mixes PascalCase and camelCase keys; decoding matches
// field names case-insensitively, so one tag covers both.

// flexID accepts an id encoded either as a JSON string or a JSON number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// bonusPoints is either a bare number or an object naming the modifier.
type bonusPoints struct {
	ShortName string
	Points    float64
}

func (p *bonusPoints) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*p = bonusPoints{}
		return nil
	}
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			ShortName   string  `json:"shortName"`
			BonusPoints float64 `json:"bonusPoints"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*p = bonusPoints{ShortName: obj.ShortName, Points: obj.BonusPoints}
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("bonus points: %w", err)
	}
	*p = bonusPoints{Points: v}
	return nil
}

type rawClan struct {
	GroupID         flexID      `json:"groupId"`
	Name            string      `json:"name"`
	Tag             string      `json:"tag"`
	Motto           string      `json:"motto"`
	Description     string      `json:"description"`
	BackgroundColor string      `json:"backgroundColor"`
	EmblemColor1    string      `json:"emblemColor1"`
	EmblemColor2    string      `json:"emblemColor2"`
	ForegroundIcon  string      `json:"foregroundIcon"`
	BackgroundIcon  string      `json:"backgroundIcon"`
	MedalUnlocks    []medal.Raw `json:"medalUnlocks"`
}

type rawScore struct {
	LastSeen    string  `json:"lastSeen"`
	GamesPlayed int     `json:"gamesPlayed"`
	GamesWon    int     `json:"gamesWon"`
	Kills       int     `json:"kills"`
	Assists     int     `json:"assists"`
	Deaths      int     `json:"deaths"`
	TotalScore  float64 `json:"totalScore"`
}

type rawEventData struct {
	Name           string `json:"name"`
	ScoringEndDate string `json:"scoringEndDate"`
}

type rawHistoryResults struct {
	GamesPlayed  int          `json:"gamesPlayed"`
	GamesWon     int          `json:"gamesWon"`
	TotalKills   int          `json:"totalKills"`
	TotalAssists int          `json:"totalAssists"`
	TotalDeaths  int          `json:"totalDeaths"`
	TotalScore   float64      `json:"totalScore"`
	RankInClan   int          `json:"rankInClan"`
	OverallRank  int          `json:"overallRank"`
	BonusPoints1 bonusPoints  `json:"bonusPoints1"`
	BonusPoints2 bonusPoints  `json:"bonusPoints2"`
	EventData    rawEventData `json:"eventData"`
}

type rawHistory struct {
	EventID int               `json:"eventId"`
	Medals  []medal.Raw       `json:"medals"`
	Results rawHistoryResults `json:"results"`
}

type rawMember struct {
	ProfileIDStr   string `json:"profileIdStr"`
	GroupID        flexID `json:"groupId"`
	Name           string `json:"name"`
	Icon           string `json:"icon"`
	MembershipType int    `json:"membershipType"`
	BonusUnlocks   []struct {
		Name string `json:"name"`
	} `json:"bonusUnlocks"`
	MedalUnlocks []medal.Raw  `json:"medalUnlocks"`
	CurrentScore *rawScore    `json:"currentScore"`
	History      []rawHistory `json:"history"`
}

type rawResultRow struct {
	ClanID flexID  `json:"clanId"`
	Rank   int     `json:"rank"`
	Score  float64 `json:"score"`
}

type rawEventResult struct {
	Large  []rawResultRow `json:"large"`
	Medium []rawResultRow `json:"medium"`
	Small  []rawResultRow `json:"small"`
}

func (r *rawEventResult) division(key string) []rawResultRow {
	switch key {
	case "large":
		return r.Large
	case "medium":
		return r.Medium
	case "small":
		return r.Small
	}
	return nil
}

type rawEvent struct {
	EventID        int    `json:"eventId"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	SponsoredBy    string `json:"sponsoredBy"`
	StartTime      string `json:"startTime"`
	ScoringEndTime string `json:"scoringEndTime"`
	EventTense     string `json:"eventTense"`
	Calculated     bool   `json:"calculated"`
	Modifiers      []struct {
		ID int `json:"id"`
	} `json:"modifiers"`
	ClanMedals       []medal.Raw     `json:"clanMedals"`
	ClanMemberMedals []medal.Raw     `json:"clanMemberMedals"`
	Result           *rawEventResult `json:"result"`
}

type rawModifier struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	ShortName       string  `json:"shortName"`
	Description     string  `json:"description"`
	ScoringModifier bool    `json:"scoringModifier"`
	ScoringBonus    float64 `json:"scoringBonus"`
	MultiplierBonus float64 `json:"multiplierBonus"`
	CreatedBy       string  `json:"createdBy"`
}

type rawCurrentRow struct {
	ID         flexID  `json:"id"`
	Rank       int     `json:"rank"`
	TotalScore float64 `json:"totalScore"`
	Active     int     `json:"active"`
	Size       int     `json:"size"`
}

type rawLeaderboard struct {
	LargeLeaderboard  []rawCurrentRow `json:"largeLeaderboard"`
	MediumLeaderboard []rawCurrentRow `json:"mediumLeaderboard"`
	SmallLeaderboard  []rawCurrentRow `json:"smallLeaderboard"`
}

func (r *rawLeaderboard) division(key string) []rawCurrentRow {
	switch key {
	case "large":
		return r.LargeLeaderboard
	case "medium":
		return r.MediumLeaderboard
	case "small":
		return r.SmallLeaderboard
	}
	return nil
}

type rawMemberRow struct {
	IDStr        string      `json:"idStr"`
	ClanID       flexID      `json:"clanId"`
	LastChecked  string      `json:"lastChecked"`
	GamesPlayed  int         `json:"gamesPlayed"`
	GamesWon     int         `json:"gamesWon"`
	Kills        int         `json:"kills"`
	Assists      int         `json:"assists"`
	Deaths       int         `json:"deaths"`
	TotalScore   float64     `json:"totalScore"`
	BonusPoints1 bonusPoints `json:"bonusPoints1"`
	BonusPoints2 bonusPoints `json:"bonusPoints2"`
}

type rawPreviousLeaderboard struct {
	EventID         int            `json:"eventId"`
	LeaderboardList []rawMemberRow `json:"leaderboardList"`
}

type rawMatch struct {
	MemberShipIDStr string      `json:"memberShipIdStr"`
	PgcrID          flexID      `json:"pgcrId"`
	GameWon         *bool       `json:"gameWon"`
	GameType        string      `json:"gameType"`
	Map             string      `json:"map"`
	DatePlayed      string      `json:"datePlayed"`
	Kills           int         `json:"kills"`
	Assists         int         `json:"assists"`
	Deaths          int         `json:"deaths"`
	TotalScore      float64     `json:"totalScore"`
	BonusPoints1    bonusPoints `json:"bonusPoints1"`
	BonusPoints2    bonusPoints `json:"bonusPoints2"`
}

type rawPlayersHistory struct {
	History          []rawMatch `json:"history"`
	MatchHistorySize int        `json:"matchHistorySize"`
}

type rawMilestones struct {
	ErrorCode int `json:"ErrorCode"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTime reads an upstream timestamp. Values without a zone are UTC.
func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
