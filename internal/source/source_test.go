package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/dcwbuild/internal/api"
	"github.com/pable/dcwbuild/internal/config"
	"github.com/pable/dcwbuild/internal/model"
)

var updated = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var fixtures = map[string]string{
	"/Clan/AcceptingNewClans": `true`,
	"/Event/GetCurrentAlert":  `null`,
	"/Destiny2/Milestones":    `{"ErrorCode": 1, "Response": {}}`,
	"/Clan/GetAllClans": `[
		{"GroupId": 100, "Name": "Alpha &amp; Co", "Tag": "ALP", "Motto": "m", "Description": "line\nhttps://a.example",
		 "ForegroundIcon": "/img/emblem_fg_abc.png", "MedalUnlocks": [{"medalId": 9, "tier": 2, "name": "Gold", "awardedTo": "Alpha"}]},
		{"groupId": "200", "name": "Bravo", "tag": "BRV"}
	]`,
	"/Clan/GetAllMembers": `[
		{"profileIdStr": "m1", "groupId": 100, "name": "One", "membershipType": 3,
		 "icon": "https://www.bungie.net/img/profile/avatars/cc13.jpg",
		 "bonusUnlocks": [{"name": "Founder"}],
		 "currentScore": {"lastSeen": "2026-03-09T20:00:00", "gamesPlayed": 4, "gamesWon": 2, "kills": 10, "assists": 2, "deaths": 0, "totalScore": 120.5},
		 "history": [{"eventId": 1, "medals": [], "results": {"gamesPlayed": 2, "gamesWon": 1, "totalKills": 4, "totalAssists": 1, "totalDeaths": 2,
		   "totalScore": 50.4, "rankInClan": 1, "overallRank": 12, "bonusPoints1": {"shortName": "Flag", "bonusPoints": 3}, "bonusPoints2": 1,
		   "eventData": {"name": "Week One", "scoringEndDate": "2026-01-01T00:00:00"}}}]},
		{"profileIdStr": "m2", "groupId": 100, "name": "", "icon": "https://www.bungie.net/img/profile/avatars/default_avatar.gif", "bonusUnlocks": []},
		{"profileIdStr": "m3", "groupId": 200, "name": "Three", "membershipType": 2, "bonusUnlocks": []}
	]`,
	"/Event/GetAllEvents": `[
		{"eventId": 1, "name": "Week One", "eventTense": "Past", "startTime": "2025-12-20T00:00:00", "scoringEndTime": "2026-01-01T00:00:00",
		 "calculated": true, "modifiers": [{"id": 7}],
		 "result": {"large": [{"clanId": 100, "rank": 1, "score": 900.6}], "small": [{"clanId": 200, "rank": 1, "score": 300}]},
		 "clanMedals": [{"id": 1, "tier": 1, "name": "Participant", "awardedTo": "Alpha"}, {"id": 2, "tier": 3, "name": "Champ", "awardedTo": "Alpha"}]},
		{"eventId": 2, "name": "Stale", "eventTense": "Current", "startTime": "2026-02-01T00:00:00", "scoringEndTime": "2026-03-01T00:00:00", "modifiers": []},
		{"eventId": 3, "name": "Live", "eventTense": "Future", "startTime": "2026-03-05T00:00:00", "scoringEndTime": "2026-03-20T00:00:00", "modifiers": [{"id": 7}]},
		{"eventId": 4, "name": "Later", "eventTense": "Future", "startTime": "2026-04-01T00:00:00", "scoringEndTime": "2026-04-20T00:00:00", "modifiers": []}
	]`,
	"/Component/GetAllModifiers": `[
		{"id": 7, "name": "Capture Frenzy", "description": "d", "scoringModifier": true, "scoringBonus": 0, "multiplierBonus": 1.5, "createdBy": "m3"}
	]`,
	"/Component/GetAllMedals":     `[{"id": 5, "name": "Sharp", "awardedTo": "One"}, {"id": 5, "name": "Sharp", "awardedTo": "Three"}]`,
	"/Component/GetAllClanMedals": `[{"unlockId": 6, "medalTier": 2, "name": "Loyal"}]`,
	"/Leaderboard/GetLeaderboard": `{"LargeLeaderboard": [{"Id": 100, "Rank": 1, "TotalScore": 1200.5, "Active": 1, "Size": 2}],
		"MediumLeaderboard": [], "SmallLeaderboard": [{"Id": 200, "Rank": 2, "TotalScore": 400, "Active": 1, "Size": 1}]}`,
	"/Leaderboard/GetPreviousClanLeaderboard": `[{"eventId": 1, "leaderboardList": [
		{"idStr": "m1", "clanId": 100, "gamesPlayed": 2, "gamesWon": 1, "kills": 4, "assists": 1, "deaths": 2, "totalScore": 50.4,
		 "lastChecked": "2026-01-01T00:00:00"}]}]`,
	"/Leaderboard/GetAllPlayersHistory": `{"matchHistorySize": 10, "history": [
		{"memberShipIdStr": "m1", "pgcrId": 123456789, "gameWon": true, "gameType": "Control", "map": "Javelin-4", "datePlayed": "2026-03-09T19:00:00",
		 "kills": 5, "assists": 1, "deaths": 2, "totalScore": 20.5},
		{"memberShipIdStr": "m1", "pgcrId": "22", "gameWon": null, "gameType": "Clash", "datePlayed": "2026-03-09T20:00:00"}
	]}`,
}

var clanBoards = map[string]string{
	"100": `[
		{"idStr": "m1", "clanId": 100, "gamesPlayed": 3, "gamesWon": 2, "kills": 9, "assists": 3, "deaths": 3, "totalScore": 300.4,
		 "bonusPoints1": {"shortName": "Flag", "bonusPoints": 2}, "bonusPoints2": null, "lastChecked": "2026-03-10T10:00:00"},
		{"idStr": "m2", "clanId": 100, "gamesPlayed": 0, "lastChecked": "2026-03-10T11:00:00"}
	]`,
	"200": `[{"idStr": "m3", "gamesPlayed": 5, "gamesWon": 4, "kills": 20, "assists": 5, "deaths": 0, "totalScore": 399.5,
		"lastChecked": "2026-03-09T08:00:00Z"}]`,
}

type upstream struct {
	mu    sync.Mutex
	calls map[string]int
	fail  string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	u.mu.Lock()
	u.calls[path]++
	u.mu.Unlock()

	if path == u.fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if path == "/Leaderboard/GetClanLeaderboard" {
		body, ok := clanBoards[r.URL.Query().Get("clanId")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
		return
	}
	body, ok := fixtures[path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Write([]byte(body))
}

func (u *upstream) called(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[path]
}

type recorder struct {
	mu    sync.Mutex
	names map[string]error
}

func (r *recorder) ObserveSource(name string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[name] = err
}

func newEnv(t *testing.T, fail string, features config.Features) (Env, *upstream, *recorder) {
	t.Helper()
	up := &upstream{calls: map[string]int{}, fail: fail}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	client := api.NewClient(srv.URL+"/api", 5*time.Second)
	rec := &recorder{names: map[string]error{}}
	return Env{
		Primary:   client,
		Secondary: client,
		Bungie:    client,
		Features:  features,
		Updated:   updated,
		Log:       zerolog.Nop(),
		Metrics:   rec,
	}, up, rec
}

func TestRun_MergesEverySource(t *testing.T) {
	env, _, rec := newEnv(t, "", config.Features{EnableMatchHistory: true, EnablePreviousLeaderboards: true})

	snap, err := Run(context.Background(), env)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, model.ApiStatus{UpdatedDate: updated, EnrollmentOpen: true, BungieStatus: 1}, snap.ApiStatus)
	assert.Len(t, rec.names, len(Fetchers()))

	require.Len(t, snap.Clans, 2)
	alpha := snap.Clans[0]
	assert.Equal(t, "100", alpha.ID)
	assert.Equal(t, "/clans/100/", alpha.Path)
	assert.Equal(t, "Alpha & Co", alpha.Name)
	assert.Equal(t, "abc", alpha.Avatar.Foreground.Icon)
	assert.Contains(t, alpha.Description, "<br />")
	require.Len(t, alpha.Medals, 1)
	assert.Equal(t, "9", alpha.Medals[0].ID)
	assert.Equal(t, "200", snap.Clans[1].ID)

	require.Len(t, snap.Members, 3)
	one := snap.Members[0]
	assert.Equal(t, "cc13.jpg", one.Avatar.Icon)
	assert.Equal(t, []model.PlatformShare{{ID: 3, Percentage: 10}}, one.Platforms)
	assert.Equal(t, []model.Tag{{Name: "Founder"}}, one.Tags)
	assert.Equal(t, "2026-03-09", one.Totals.LastPlayed)
	assert.Equal(t, 121, one.Totals.Score)
	assert.Equal(t, 10.0, one.Totals.KD)
	require.Len(t, one.PastEvents, 1)
	assert.Equal(t, "#1", one.PastEvents[0].Rank)
	assert.Equal(t, "#12", one.PastEvents[0].Overall)
	assert.Equal(t, 50, one.PastEvents[0].Score)
	assert.Equal(t, []model.Bonus{{ShortName: "Flag", Count: 3}, {ShortName: "Bonus 2", Count: 1}}, one.PastEvents[0].Bonuses)

	two := snap.Members[1]
	assert.Equal(t, model.Blank, two.Name)
	assert.Empty(t, two.Avatar.Icon)
	assert.Equal(t, model.NeverPlayed, two.Totals.LastPlayed)
	assert.Nil(t, two.Tags)

	require.Len(t, snap.Events, 4)
	assert.Equal(t, 3, snap.CurrentEventID)
	assert.True(t, snap.Events[1].IsPast)
	assert.False(t, snap.Events[1].IsCurrent)
	assert.True(t, snap.Events[2].IsCurrent)
	assert.Equal(t, "/current/", snap.Events[2].Path)
	assert.True(t, snap.Events[3].IsFuture)
	require.NotNil(t, snap.Events[0].Medals)
	assert.Len(t, snap.Events[0].Medals.Clans, 1)
	assert.Len(t, snap.Leaderboards[1], 2)

	require.Len(t, snap.Modifiers, 1)
	assert.Equal(t, "Capture", snap.Modifiers[0].ShortName)
	assert.Equal(t, 1.5, snap.Modifiers[0].Bonus)
	assert.Equal(t, "m3", snap.Modifiers[0].CreatorID)

	require.Len(t, snap.Medals, 2)
	assert.Equal(t, []string{"One", "Three"}, snap.Medals[0].Label)
	assert.Equal(t, model.MedalClan, snap.Medals[1].Type)

	require.Len(t, snap.CurrentLeaderboards, 2)
	assert.Equal(t, "large", snap.CurrentLeaderboards[0].Division.Key)
	assert.Equal(t, "small", snap.CurrentLeaderboards[1].Division.Key)

	assert.Len(t, snap.CurrentClanLeaderboard, 2)
	m3 := snap.CurrentClanLeaderboard["m3"]
	assert.Equal(t, 400, m3.Score)
	assert.Equal(t, "/current/200/m3/", m3.Path)
	m1 := snap.CurrentClanLeaderboard["m1"]
	assert.Equal(t, []model.Bonus{{ShortName: "Flag", Count: 2}, {ShortName: "Bonus 2", Count: 0}}, m1.Bonuses)

	want := map[string]string{
		"m1":  "2026-03-10T10:00:00",
		"m2":  "2026-03-10T11:00:00",
		"100": "2026-03-10T11:00:00",
		"m3":  "2026-03-09T08:00:00",
		"200": "2026-03-09T08:00:00",
	}
	if diff := cmp.Diff(want, snap.LastChecked); diff != "" {
		t.Errorf("lastChecked mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 1, snap.PreviousEventID)
	assert.Equal(t, "/clans/100/m1/1/", snap.PreviousClanLeaderboard["m1"].Path)

	require.Len(t, snap.MatchHistory["m1"], 2)
	assert.Equal(t, "Win", snap.MatchHistory["m1"][0].Game.Result)
	assert.Equal(t, "https://destinytracker.com/d2/pgcr/123456789", snap.MatchHistory["m1"][0].Game.Path)
	assert.Equal(t, "", snap.MatchHistory["m1"][1].Game.Result)
	assert.Equal(t, 10, snap.MatchHistoryLimit)
}

func TestRun_SkippedFetchersLeaveEmptyDefaults(t *testing.T) {
	env, up, _ := newEnv(t, "", config.Features{})

	snap, err := Run(context.Background(), env)
	require.NoError(t, err)

	assert.Zero(t, up.called("/Leaderboard/GetPreviousClanLeaderboard"))
	assert.Zero(t, up.called("/Leaderboard/GetAllPlayersHistory"))
	assert.NotNil(t, snap.PreviousClanLeaderboard)
	assert.Empty(t, snap.PreviousClanLeaderboard)
	assert.NotNil(t, snap.MatchHistory)
	assert.Zero(t, snap.PreviousEventID)
}

func TestRun_AnyFailureAbortsTheRun(t *testing.T) {
	for _, path := range []string{"/Component/GetAllModifiers", "/Destiny2/Milestones", "/Leaderboard/GetClanLeaderboard"} {
		t.Run(path, func(t *testing.T) {
			env, _, rec := newEnv(t, path, config.Features{})

			snap, err := Run(context.Background(), env)
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, ErrFetchFailed)
			assert.ErrorIs(t, err, api.ErrStatus)

			rec.mu.Lock()
			defer rec.mu.Unlock()
			failed := 0
			for _, err := range rec.names {
				if err != nil {
					failed++
				}
			}
			assert.GreaterOrEqual(t, failed, 1)
		})
	}
}

func TestRun_ClanFailureReleasesWaiters(t *testing.T) {
	env, up, _ := newEnv(t, "/Clan/GetAllClans", config.Features{})

	snap, err := Run(context.Background(), env)
	assert.Nil(t, snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clans")
	assert.Zero(t, up.called("/Leaderboard/GetClanLeaderboard"))
}

func TestRun_PatchesApplyInDeclaredOrder(t *testing.T) {
	medalA := model.Medal{ID: "a", Type: model.MedalProfile, Label: []string{}}
	medalB := model.Medal{ID: "b", Type: model.MedalClan, Label: []string{}}
	slow := Fetcher{Name: "slow", Run: func(ctx context.Context, _ *Env, d *deps) (Patch, string, error) {
		d.clans.resolve(nil)
		time.Sleep(20 * time.Millisecond)
		return func(s *model.Snapshot) { s.Medals = append(s.Medals, medalA) }, "", nil
	}}
	fast := Fetcher{Name: "fast", Run: func(ctx context.Context, _ *Env, _ *deps) (Patch, string, error) {
		return func(s *model.Snapshot) { s.Medals = append(s.Medals, medalB) }, "", nil
	}}

	snap, err := run(context.Background(), &Env{Updated: updated, Log: zerolog.Nop()}, []Fetcher{slow, fast})
	require.NoError(t, err)
	assert.Equal(t, []model.Medal{medalA, medalB}, snap.Medals)
	assert.Equal(t, BungieDisabled, snap.ApiStatus.BungieStatus)
}

func TestPreviousLeaderboard_EmptyMeansNoPreviousEvent(t *testing.T) {
	fixturesBackup := fixtures["/Leaderboard/GetPreviousClanLeaderboard"]
	fixtures["/Leaderboard/GetPreviousClanLeaderboard"] = `[]`
	t.Cleanup(func() { fixtures["/Leaderboard/GetPreviousClanLeaderboard"] = fixturesBackup })

	env, _, _ := newEnv(t, "", config.Features{EnablePreviousLeaderboards: true})
	snap, err := Run(context.Background(), env)
	require.NoError(t, err)
	assert.Zero(t, snap.PreviousEventID)
	assert.Empty(t, snap.PreviousClanLeaderboard)
}
