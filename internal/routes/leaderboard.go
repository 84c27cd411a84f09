package routes

import (
	"sort"
	"strconv"

	"github.com/pable/dcwbuild/internal/model"
	"github.com/pable/dcwbuild/internal/urls"
)

// Absent marks a clan without a row in the chosen event.
const Absent = -1

// Present is the Games value of a clan that has a row. Games carries
// presence only, never a game count.
const Present = 1

// CustomRow is one clan in the shareable custom leaderboard.
type CustomRow struct {
	ClanID  string           `json:"id"`
	Name    string           `json:"name"`
	Path    string           `json:"path"`
	Avatar  model.ClanAvatar `json:"avatar"`
	Overall string           `json:"overall"`
	Games   int              `json:"games"` // Present or Absent
	Active  int              `json:"active"`
	Size    int              `json:"size"`
	Score   int              `json:"score"`
	Updated string           `json:"updated,omitempty"`
}

type CustomLeaderboardData struct {
	EventID   int         `json:"eventId,omitempty"`
	IsCurrent bool        `json:"isCurrent"`
	EventPath string      `json:"eventPath,omitempty"`
	Rows      []CustomRow `json:"leaderboard"`
}

// CustomLeaderboard lists every clan against the current event, or the
// previous one when nothing is running. Clans without a row get Absent
// values and sort last; the rest sort by score descending, then name.
func CustomLeaderboard(snap *model.Snapshot) CustomLeaderboardData {
	data := CustomLeaderboardData{Rows: []CustomRow{}}
	eventID := snap.CurrentEventID
	data.IsCurrent = eventID != 0
	if eventID == 0 {
		eventID = snap.PreviousEventID
	}
	var event *model.Event
	for i := range snap.Events {
		if snap.Events[i].ID == eventID {
			event = &snap.Events[i]
		}
	}
	if event == nil {
		return data
	}
	data.EventID = event.ID
	data.EventPath = event.Path

	totals := map[string]model.StandingRow{}
	for _, div := range event.Leaderboards {
		for _, row := range div.Rows {
			totals[row.ClanID] = row
		}
	}

	for _, clan := range snap.Clans {
		row := CustomRow{ClanID: clan.ID, Name: clan.Name, Avatar: clan.Avatar}
		if data.IsCurrent {
			row.Path = urls.CurrentEvent(clan.ID)
		} else {
			row.Path = urls.Clan(clan.ID, strconv.Itoa(eventID))
		}
		if t, ok := totals[clan.ID]; ok {
			row.Games = Present
			row.Overall = t.Overall
			row.Active = t.Active
			row.Size = t.Size
			row.Score = t.Score
			row.Updated = t.Updated
		} else {
			row.Games = Absent
			row.Overall = strconv.Itoa(Absent)
			row.Score = Absent
			if data.IsCurrent {
				row.Active = Absent
				row.Size = Absent
			}
		}
		data.Rows = append(data.Rows, row)
	}

	sort.SliceStable(data.Rows, func(i, j int) bool {
		a, b := data.Rows[i], data.Rows[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Name < b.Name
	})
	return data
}
