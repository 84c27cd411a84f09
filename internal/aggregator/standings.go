package aggregator

import (
	"fmt"
	"strings"

	"github.com/pable/dcwbuild/internal/medal"
	"github.com/pable/dcwbuild/internal/model"
	"github.com/pable/dcwbuild/internal/stats"
	"github.com/pable/dcwbuild/internal/urls"
)

// WinnersMedalName names the canonical medal of a division winner.
const WinnersMedalName = "Winners"

func winnersMedal(medals []model.Medal) *model.Medal {
	for i := range medals {
		if strings.EqualFold(medals[i].Name, WinnersMedalName) {
			m := medals[i]
			return &m
		}
	}
	return nil
}

func standingRow(clan *model.Clan) model.StandingRow {
	return model.StandingRow{
		ClanID: clan.ID,
		Path:   clan.Path,
		Name:   clan.Name,
		Avatar: clan.Avatar,
	}
}

// currentStandings joins the live division leaderboards against clans.
func currentStandings(snap *model.Snapshot, idx *index, event *model.Event) error {
	boards := make([]model.DivisionStandings, 0, len(snap.CurrentLeaderboards))
	for _, div := range snap.CurrentLeaderboards {
		rows := make([]model.StandingRow, 0, len(div.Rows))
		for _, r := range div.Rows {
			clan, err := idx.clan(snap, r.ClanID)
			if err != nil {
				return fmt.Errorf("current %s division: %w", div.Division.Key, err)
			}
			row := standingRow(clan)
			row.Path = urls.CurrentEvent(clan.ID)
			row.Updated = clan.LastChecked
			row.Overall = stats.Ranking(r.Rank)
			row.Rank = r.Rank
			row.Active = r.Active
			row.Size = r.Size
			row.Score = stats.Total(r.TotalScore)
			rows = append(rows, row)
		}
		boards = append(boards, model.DivisionStandings{Division: div.Division, Rows: rows})
	}
	event.Leaderboards = boards
	return nil
}

// pastStandings joins a finished event's division results against clans and
// hands out medals: the first row wins the Winners medal only when its rank
// is really 1, the next two share a lower top 3 medal.
func pastStandings(snap *model.Snapshot, idx *index, event *model.Event, winners *model.Medal) error {
	divisions := snap.Leaderboards[event.ID]
	boards := make([]model.DivisionStandings, 0, len(divisions))
	results := []model.EventResult{}

	for _, div := range divisions {
		rows := make([]model.StandingRow, 0, len(div.Rows))
		for i, r := range div.Rows {
			clan, err := idx.clan(snap, r.ClanID)
			if err != nil {
				return fmt.Errorf("event %d %s division: %w", event.ID, div.Division.Key, err)
			}
			row := standingRow(clan)
			row.Overall = stats.Ranking(r.Rank)
			row.Rank = r.Rank
			row.Score = stats.Total(r.Score)

			switch i {
			case 0:
				m := medal.Build(medal.Ordinal(1), 2, div.Division.Name)
				if r.Rank == 1 && winners != nil {
					m = *winners
				}
				row.Medal = &m
				results = append(results, model.EventResult{StandingRow: row, Division: div.Division})
			case 1, 2:
				m := medal.Build("top 3", 1, div.Division.Name)
				row.Medal = &m
			}
			rows = append(rows, row)
		}
		boards = append(boards, model.DivisionStandings{Division: div.Division, Rows: rows})
	}

	event.Leaderboards = boards
	event.Results = results
	return nil
}
