package routes

import (
	"time"

	"github.com/pable/dcwbuild/internal/model"
	"github.com/pable/dcwbuild/internal/urls"
)

// Feed names, used as file stems by the writer.
const (
	FeedEvents     = "events"
	FeedCurrent    = "events--current"
	FeedEnrollment = "enrollment"
)

// FeedItem is one entry of a syndication feed.
type FeedItem struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	GUID        string    `json:"guid"`
	Date        time.Time `json:"date"`
	Content     string    `json:"content,omitempty"`
}

type Feed struct {
	Name  string     `json:"name"`
	Items []FeedItem `json:"items"`
}

// Feeds builds the events feed, the current-event feed and the enrollment feed.
func Feeds(snap *model.Snapshot, siteURL string) []Feed {
	all := Feed{Name: FeedEvents, Items: []FeedItem{}}
	current := Feed{Name: FeedCurrent, Items: []FeedItem{}}
	for _, e := range snap.Events {
		item := eventItem(e, siteURL)
		all.Items = append(all.Items, item)
		if e.IsCurrent {
			current.Items = append(current.Items, item)
		}
	}
	return []Feed{all, current, {Name: FeedEnrollment, Items: []FeedItem{enrollmentItem(snap.ApiStatus, siteURL)}}}
}

func eventItem(e model.Event, siteURL string) FeedItem {
	url := urls.Absolute(siteURL, e.Path)
	date := e.StartDate
	if e.IsPast {
		date = e.EndDate
	}
	return FeedItem{
		Title:       e.Tense() + ": " + e.Name,
		Description: e.Description,
		URL:         url,
		GUID:        url + "#" + e.Tense() + "-" + urls.ID(e.ID),
		Date:        date,
	}
}

func enrollmentItem(status model.ApiStatus, siteURL string) FeedItem {
	kicker := "Enrollment has closed"
	state := "closed"
	canonical := ""
	if status.EnrollmentOpen {
		kicker = "Enrollment is now open"
		state = "open"
		canonical = " " + urls.Absolute(siteURL, "/#enroll")
	}
	url := urls.Absolute(siteURL, "/"+state+"/"+status.FormattedDate()+"/")
	title := kicker + " - " + status.FormattedDate()
	return FeedItem{
		Title:       title,
		Description: title,
		URL:         url,
		GUID:        url,
		Date:        status.UpdatedDate,
		Content:     kicker + canonical,
	}
}
