// Package urls builds every site path. Paths always start and end with a slash.
package urls

import (
	"strconv"
	"strings"
)

const (
	ClanRoot         = "/clans/"
	CurrentEventRoot = "/current/"
	EventRoot        = "/events/"
	ProfileRoot      = "/members/"
	LeaderboardRoot  = "/leaderboards/"
	pgcrBase         = "https://destinytracker.com/d2/pgcr/"
)

func join(parts ...string) string {
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.Trim(p, "/")
		if s == "" {
			continue
		}
		segs = append(segs, s)
	}
	if len(segs) == 0 {
		return "/"
	}
	return "/" + strings.Join(segs, "/") + "/"
}

// Clan is /clans/:clan/ or, for a past event, /clans/:clan/:event/.
func Clan(clanID string, eventID ...string) string {
	if len(eventID) > 0 {
		return join("clans", clanID, eventID[0])
	}
	return join("clans", clanID)
}

// Profile is /clans/:clan/:member/ with an optional trailing event id.
func Profile(clanID, memberID string, eventID ...string) string {
	if len(eventID) > 0 {
		return join("clans", clanID, memberID, eventID[0])
	}
	return join("clans", clanID, memberID)
}

// CurrentEvent is /current/, /current/:clan/ or /current/:clan/:member/.
func CurrentEvent(ids ...string) string {
	return join(append([]string{"current"}, ids...)...)
}

// Event is /events/:id/. The id may be a route placeholder such as ":event/:clan".
func Event(id string) string {
	return join("events", id)
}

// ID formats a numeric event id for the builders above.
func ID(id int) string {
	return strconv.Itoa(id)
}

// PGCR links a tracked game on the external post-game carnage report site.
func PGCR(id string) string {
	return pgcrBase + id
}

// Absolute prefixes a site path with the site URL.
func Absolute(siteURL, path string) string {
	return strings.TrimRight(siteURL, "/") + path
}
