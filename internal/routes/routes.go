// Package routes turns an aggregated snapshot into page data bags, redirect
// rules and feed items. It never recomputes statistics.
package routes

import (
	"strconv"
	"strings"

	"github.com/pable/dcwbuild/internal/model"
	"github.com/pable/dcwbuild/internal/text"
	"github.com/pable/dcwbuild/internal/urls"
)

// Page templates rendered downstream.
const (
	TemplateHome              = "Home"
	TemplateEvents            = "Events"
	TemplateEvent             = "Event"
	TemplateClans             = "Clans"
	TemplateClanOverall       = "clan/Overall"
	TemplateClanCurrent       = "clan/Current"
	TemplateProfile           = "Profile"
	TemplateCustomLeaderboard = "CustomLeaderboard"
)

// Route is one page path with the data its template needs.
type Route struct {
	Path     string `json:"path"`
	Template string `json:"template"`
	Data     any    `json:"data"`
}

// Redirect is one rule of the hosting provider's redirects file.
type Redirect struct {
	From string `json:"from"`
	To   string `json:"to"`
	Code int    `json:"code"`
}

// Line renders the rule as "from to code".
func (r Redirect) Line() string {
	return r.From + " " + r.To + " " + strconv.Itoa(r.Code)
}

// Site is everything emitted for one build.
type Site struct {
	Routes    []Route    `json:"routes"`
	Redirects []Redirect `json:"redirects"`
	Feeds     []Feed     `json:"feeds"`
}

type HomeData struct {
	Clans           []model.Clan  `json:"clans"`
	Events          []model.Event `json:"events"`
	CurrentEventID  int           `json:"currentEventId,omitempty"`
	PreviousEventID int           `json:"previousEventId,omitempty"`
}

type EventsData struct {
	Events []model.Event `json:"events"`
}

type EventData struct {
	Event model.Event `json:"event"`
}

type ClansData struct {
	Clans []model.Clan `json:"clans"`
}

// Meta is the page head for clan and profile pages.
type Meta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Canonical   string `json:"canonical"`
}

type ClanData struct {
	Meta            Meta           `json:"meta"`
	Clan            model.Clan     `json:"clan"`
	Members         []model.Member `json:"members"`
	CurrentEventID  int            `json:"currentEventId,omitempty"`
	PreviousEventID int            `json:"previousEventId,omitempty"`
}

type ProfileData struct {
	Meta   Meta         `json:"meta"`
	Member model.Member `json:"member"`
	Clan   model.Clan   `json:"clan"`
}

// Assemble builds every route, redirect and feed of the site.
func Assemble(snap *model.Snapshot, siteURL string) *Site {
	site := &Site{Routes: []Route{}, Redirects: []Redirect{}}

	byClan := make(map[string][]model.Member, len(snap.Clans))
	for _, m := range snap.Members {
		byClan[m.ClanID] = append(byClan[m.ClanID], m)
	}

	for _, clan := range snap.Clans {
		members := byClan[clan.ID]
		if members == nil {
			members = []model.Member{}
		}
		site.Routes = append(site.Routes, Route{
			Path:     clan.Path,
			Template: TemplateClanOverall,
			Data: ClanData{
				Meta:            clanMeta(siteURL, clan, clan.Path),
				Clan:            clan,
				Members:         members,
				CurrentEventID:  snap.CurrentEventID,
				PreviousEventID: snap.PreviousEventID,
			},
		})
		if snap.CurrentEventID != 0 {
			site.Routes = append(site.Routes, Route{
				Path:     urls.CurrentEvent(clan.ID),
				Template: TemplateClanCurrent,
				Data:     ClanData{Meta: clanMeta(siteURL, clan, urls.CurrentEvent(clan.ID)), Clan: clan, Members: members},
			})
		}
		for _, m := range members {
			site.Routes = append(site.Routes, Route{
				Path:     m.Path,
				Template: TemplateProfile,
				Data:     ProfileData{Meta: profileMeta(siteURL, m, clan), Member: m, Clan: clan},
			})
			site.Redirects = append(site.Redirects, Redirect{From: urls.ProfileRoot + m.ID + "/", To: m.Path, Code: 301})
		}
	}

	for _, e := range snap.Events {
		site.Routes = append(site.Routes, Route{Path: e.Path, Template: TemplateEvent, Data: EventData{Event: e}})
	}

	site.Routes = append(site.Routes,
		Route{Path: "/", Template: TemplateHome, Data: HomeData{
			Clans:           snap.Clans,
			Events:          snap.Events,
			CurrentEventID:  snap.CurrentEventID,
			PreviousEventID: snap.PreviousEventID,
		}},
		Route{Path: urls.EventRoot, Template: TemplateEvents, Data: EventsData{Events: snap.Events}},
		Route{Path: urls.ClanRoot, Template: TemplateClans, Data: ClansData{Clans: snap.Clans}},
		Route{Path: urls.LeaderboardRoot, Template: TemplateCustomLeaderboard, Data: CustomLeaderboard(snap)},
	)

	site.Redirects = append(site.Redirects, eventRedirects(snap.CurrentEventID)...)
	site.Redirects = append(site.Redirects, staticRedirects()...)
	site.Feeds = Feeds(snap, siteURL)
	return site
}

func clanMeta(siteURL string, clan model.Clan, path string) Meta {
	return Meta{
		Title:       clan.Name + " | Clans",
		Description: text.Possessive(clan.Name) + " progress battling their way to the top of the Destiny 2 clan leaderboard",
		Canonical:   urls.Absolute(siteURL, path),
	}
}

func profileMeta(siteURL string, m model.Member, clan model.Clan) Meta {
	return Meta{
		Title:       m.Name + " | " + clan.Name,
		Description: text.Possessive(m.Name) + " stats and medals for " + clan.Name + " in Destiny 2 clan warfare",
		Canonical:   urls.Absolute(siteURL, m.Path),
	}
}

func eventRedirects(currentEventID int) []Redirect {
	if currentEventID == 0 {
		return []Redirect{{From: urls.CurrentEventRoot + "*", To: "/#next", Code: 302}}
	}
	return []Redirect{
		{From: urls.Event(urls.ID(currentEventID)), To: urls.CurrentEventRoot, Code: 302},
		{From: urls.CurrentEvent(":clan") + "*", To: urls.CurrentEvent(":clan"), Code: 200},
	}
}

func staticRedirects() []Redirect {
	return []Redirect{
		{From: urls.ProfileRoot, To: "/", Code: 301},
		{From: urls.Clan(":clan") + "*", To: urls.Clan(":clan"), Code: 200},
		{From: urls.Event(":event/:clan"), To: urls.Clan(":clan", ":event"), Code: 301},
		{From: urls.Event(":event/:clan/:member"), To: urls.Profile(":clan", ":member", ":event"), Code: 301},
	}
}

// RedirectsFile renders rules one per line.
func RedirectsFile(redirects []Redirect) string {
	lines := make([]string, 0, len(redirects))
	for _, r := range redirects {
		lines = append(lines, r.Line())
	}
	return strings.Join(lines, "\n")
}
