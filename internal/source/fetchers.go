package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/pable/dcwbuild/internal/medal"
	"github.com/pable/dcwbuild/internal/model"
)

// Fetchers returns every upstream fetcher. Patches are applied in this order.
func Fetchers() []Fetcher {
	return []Fetcher{
		{Name: "enrollment open", Run: fetchEnrollment},
		{Name: "current alert", Run: fetchAlert},
		{Name: "bungie api status", Run: fetchBungieStatus},
		{Name: "clans", Run: fetchClans},
		{Name: "members", Run: fetchMembers},
		{Name: "events", Run: fetchEvents},
		{Name: "modifiers", Run: fetchModifiers},
		{Name: "member medals", Run: fetchMedals("Component/GetAllMedals", model.MedalProfile)},
		{Name: "clan medals", Run: fetchMedals("Component/GetAllClanMedals", model.MedalClan)},
		{Name: "event leaderboard", Run: fetchEventLeaderboard},
		{Name: "current clan leaderboard", Run: fetchClanLeaderboards},
		{Name: "previous clan leaderboard", Skip: previousDisabled, Run: fetchPreviousLeaderboard},
		{Name: "match history", Skip: matchHistoryDisabled, Run: fetchMatchHistory},
	}
}

func previousDisabled(env *Env) string {
	if !env.Features.EnablePreviousLeaderboards {
		return "disabled"
	}
	return ""
}

func matchHistoryDisabled(env *Env) string {
	if !env.Features.EnableMatchHistory {
		return "disabled"
	}
	return ""
}

func fetchEnrollment(ctx context.Context, env *Env, _ *deps) (Patch, string, error) {
	var open bool
	if err := env.Primary.Get(ctx, "Clan/AcceptingNewClans", &open); err != nil {
		return nil, "", err
	}
	return func(s *model.Snapshot) { s.ApiStatus.EnrollmentOpen = open },
		fmt.Sprintf("enrollment open: %t", open), nil
}

func fetchAlert(ctx context.Context, env *Env, _ *deps) (Patch, string, error) {
	var alert *string
	if err := env.Primary.Get(ctx, "Event/GetCurrentAlert", &alert); err != nil {
		return nil, "", err
	}
	text := ""
	if alert != nil {
		text = *alert
	}
	return func(s *model.Snapshot) { s.ApiStatus.Alert = text },
		"current alert: " + text, nil
}

func fetchBungieStatus(ctx context.Context, env *Env, _ *deps) (Patch, string, error) {
	var status rawMilestones
	if err := env.Bungie.Get(ctx, "Destiny2/Milestones", &status); err != nil {
		return nil, "", err
	}
	return func(s *model.Snapshot) { s.ApiStatus.BungieStatus = status.ErrorCode },
		fmt.Sprintf("bungie api status: %d", status.ErrorCode), nil
}

func fetchClans(ctx context.Context, env *Env, d *deps) (Patch, string, error) {
	var raw []rawClan
	if err := env.Primary.Get(ctx, "Clan/GetAllClans", &raw); err != nil {
		return nil, "", err
	}
	clans, err := parseClans(raw)
	if err != nil {
		return nil, "", err
	}
	ids := make([]string, 0, len(clans))
	for _, c := range clans {
		ids = append(ids, c.ID)
	}
	d.clans.resolve(ids)
	return func(s *model.Snapshot) { s.Clans = clans },
		fmt.Sprintf("clans: %d", len(clans)), nil
}

func fetchMembers(ctx context.Context, env *Env, _ *deps) (Patch, string, error) {
	var raw []rawMember
	if err := env.Primary.Get(ctx, "Clan/GetAllMembers", &raw); err != nil {
		return nil, "", err
	}
	members, err := parseMembers(raw)
	if err != nil {
		return nil, "", err
	}
	return func(s *model.Snapshot) { s.Members = members },
		fmt.Sprintf("members: %d", len(members)), nil
}

func fetchEvents(ctx context.Context, env *Env, _ *deps) (Patch, string, error) {
	var raw []rawEvent
	if err := env.Primary.Get(ctx, "Event/GetAllEvents", &raw); err != nil {
		return nil, "", err
	}
	set, err := parseEvents(raw, env.Updated)
	if err != nil {
		return nil, "", err
	}
	return func(s *model.Snapshot) {
		s.Events = set.events
		s.CurrentEventID = set.currentID
		s.Leaderboards = set.leaderboards
	}, fmt.Sprintf("events: %d", len(set.events)), nil
}

func fetchModifiers(ctx context.Context, env *Env, _ *deps) (Patch, string, error) {
	var raw []rawModifier
	if err := env.Primary.Get(ctx, "Component/GetAllModifiers", &raw); err != nil {
		return nil, "", err
	}
	modifiers := parseModifiers(raw)
	return func(s *model.Snapshot) { s.Modifiers = modifiers },
		fmt.Sprintf("modifiers: %d", len(modifiers)), nil
}

func fetchMedals(path string, typ model.MedalType) func(context.Context, *Env, *deps) (Patch, string, error) {
	return func(ctx context.Context, env *Env, _ *deps) (Patch, string, error) {
		var raw []medal.Raw
		if err := env.Primary.Get(ctx, path, &raw); err != nil {
			return nil, "", err
		}
		medals, _, err := medal.Parse(raw, typ, 0)
		if err != nil {
			return nil, "", err
		}
		return func(s *model.Snapshot) { s.Medals = append(s.Medals, medals...) },
			fmt.Sprintf("%s medals: %d", typ, len(raw)), nil
	}
}

func fetchEventLeaderboard(ctx context.Context, env *Env, _ *deps) (Patch, string, error) {
	var raw *rawLeaderboard
	if err := env.Primary.Get(ctx, "Leaderboard/GetLeaderboard", &raw); err != nil {
		return nil, "", err
	}
	divisions := parseCurrentLeaderboards(raw)
	return func(s *model.Snapshot) { s.CurrentLeaderboards = divisions },
		fmt.Sprintf("event leaderboard: %t", raw != nil), nil
}

// fetchClanLeaderboards waits for the clan list, then fetches every clan's
// member leaderboard concurrently.
func fetchClanLeaderboards(ctx context.Context, env *Env, d *deps) (Patch, string, error) {
	ids, err := d.clans.wait(ctx)
	if err != nil {
		return nil, "", err
	}

	boards := make([]memberBoard, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			var rows []rawMemberRow
			if err := env.Primary.Get(gctx, "Leaderboard/GetClanLeaderboard?clanId="+url.QueryEscape(id), &rows); err != nil {
				return fmt.Errorf("clan %s: %w", id, err)
			}
			board, err := parseLeaderboard(rows, 0, id)
			if err != nil {
				return fmt.Errorf("clan %s: %w", id, err)
			}
			boards[i] = board
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	totals := map[string]model.AggregateStat{}
	checked := map[string]string{}
	for _, b := range boards {
		for id, line := range b.totals {
			totals[id] = line
		}
		mergeLastChecked(checked, b.lastChecked)
	}
	return func(s *model.Snapshot) {
		s.CurrentClanLeaderboard = totals
		mergeLastChecked(s.LastChecked, checked)
	}, fmt.Sprintf("current clan leaderboard: %d", len(totals)), nil
}

func fetchPreviousLeaderboard(ctx context.Context, env *Env, _ *deps) (Patch, string, error) {
	var raw []rawPreviousLeaderboard
	if err := env.Primary.Get(ctx, "Leaderboard/GetPreviousClanLeaderboard", &raw); err != nil {
		return nil, "", err
	}
	if len(raw) == 0 {
		return nil, "previous clan leaderboard: none", nil
	}
	prev := raw[0]
	board, err := parseLeaderboard(prev.LeaderboardList, prev.EventID, "")
	if err != nil {
		return nil, "", err
	}
	return func(s *model.Snapshot) {
		s.PreviousEventID = prev.EventID
		s.PreviousClanLeaderboard = board.totals
		mergeLastChecked(s.LastChecked, board.lastChecked)
	}, fmt.Sprintf("previous clan leaderboard: %d", len(prev.LeaderboardList)), nil
}

func fetchMatchHistory(ctx context.Context, env *Env, _ *deps) (Patch, string, error) {
	var raw rawPlayersHistory
	if err := env.Secondary.Get(ctx, "Leaderboard/GetAllPlayersHistory", &raw); err != nil {
		return nil, "", err
	}
	history, err := parseMatchHistory(raw)
	if err != nil {
		return nil, "", err
	}
	return func(s *model.Snapshot) {
			s.MatchHistory = history
			s.MatchHistoryLimit = raw.MatchHistorySize
		}, "match history: " + strconv.Itoa(len(raw.History)) +
			", match history limit: " + strconv.Itoa(raw.MatchHistorySize), nil
}
