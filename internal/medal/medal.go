// Package medal resolves raw award records into deduplicated, tiered medals.
package medal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pable/dcwbuild/internal/model"
)

// ErrMissingID marks a raw record that carries none of the id fields.
var ErrMissingID = errors.New("medal record has no id")

// Raw is an upstream award record. The feeds disagree on field names, so the
// identity and tier each have several candidates.
type Raw struct {
	ID          int    `json:"id"`
	MedalID     int    `json:"medalId"`
	UnlockID    int    `json:"unlockId"`
	Tier        int    `json:"tier"`
	MedalTier   int    `json:"medalTier"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Count       int    `json:"count"`
	AwardedTo   string `json:"awardedTo"`
}

// identity returns the first present id in precedence order id, medalId, unlockId.
func (r Raw) identity() (int, bool) {
	for _, id := range []int{r.ID, r.MedalID, r.UnlockID} {
		if id != 0 {
			return id, true
		}
	}
	return 0, false
}

// tier returns the first present tier in precedence order tier, medalTier, else 1.
func (r Raw) tier() int {
	for _, t := range []int{r.Tier, r.MedalTier} {
		if t != 0 {
			return t
		}
	}
	return 1
}

// Parse merges raw records of one type into medals unique by (id, type).
// Records at or below minimumTier are dropped. The first record of a key
// fixes tier, name and description; later ones only add their recipient.
func Parse(raw []Raw, typ model.MedalType, minimumTier int) ([]model.Medal, model.MedalTotals, error) {
	medals := []model.Medal{}
	totals := model.MedalTotals{ByTier: map[int]int{}}
	index := make(map[model.MedalKey]int)

	for i, r := range raw {
		id, ok := r.identity()
		if !ok {
			return nil, model.MedalTotals{}, fmt.Errorf("%s medal #%d %q: %w", typ, i, r.Name, ErrMissingID)
		}
		tier := r.tier()
		if tier <= minimumTier {
			continue
		}

		n := r.Count
		if n <= 0 {
			n = 1
		}
		totals.Total += n
		totals.ByTier[tier] += n

		key := model.MedalKey{ID: strconv.Itoa(id), Type: typ}
		if at, seen := index[key]; seen {
			if r.AwardedTo != "" {
				medals[at].Label = append(medals[at].Label, r.AwardedTo)
			}
			continue
		}

		m := model.Medal{
			ID:          key.ID,
			Type:        typ,
			Tier:        tier,
			Name:        r.Name,
			Description: r.Description,
			Count:       r.Count,
			Label:       []string{},
		}
		if r.AwardedTo != "" {
			m.Label = append(m.Label, r.AwardedTo)
		}
		index[key] = len(medals)
		medals = append(medals, m)
	}

	return medals, totals, nil
}

var ordinals = []string{"first", "second", "third"}

// Ordinal spells out a podium place; other ranks are returned as digits.
func Ordinal(rank int) string {
	if rank >= 1 && rank <= len(ordinals) {
		return ordinals[rank-1]
	}
	return strconv.Itoa(rank)
}

// Build synthesizes a clan medal for a division placement when the feed has
// no explicit award, e.g. Build("first", 2, "Large") or Build("top 3", 1, "Small").
func Build(place string, tier int, division string) model.Medal {
	place = strings.ToLower(strings.TrimSpace(place))

	var description string
	if strings.HasPrefix(place, "top") {
		description = fmt.Sprintf("Finished in the %s of the %s division", place, division)
	} else {
		description = fmt.Sprintf("Finished %s place in the %s division", place, division)
	}

	return model.Medal{
		ID:          slug(place + " " + division),
		Type:        model.MedalClan,
		Tier:        tier,
		Name:        titleCase(place) + " " + division,
		Description: description,
		Label:       []string{},
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
