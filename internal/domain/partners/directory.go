// Package partners searches the public-profile directory for collaborators
// and tracks the pending pick in the partner field.
package partners

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"

	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/domain/models"
)

// MinQueryLen is the shortest query that filters. Shorter input hides the
// suggestion list.
const MinQueryLen = 2

// Suggestion is one row of the dropdown.
type Suggestion struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Label string `json:"label"`
}

// Result is the outcome of one keystroke.
type Result struct {
	// Active is false when the query is too short; the client hides the list.
	Active      bool         `json:"active"`
	Suggestions []Suggestion `json:"suggestions"`
	// Empty carries the "no results" placeholder text when Active and
	// nothing matched.
	Empty string `json:"empty,omitempty"`
}

// Directory is the public-profile list for one viewer, loaded once.
type Directory struct {
	self     string
	profiles []models.PublicProfile
	folded   []string
}

// NewDirectory builds a directory for the viewer selfUID. The viewer's own
// profile never appears in results.
func NewDirectory(selfUID string, profiles []models.PublicProfile) *Directory {
	d := &Directory{self: selfUID}
	for _, p := range profiles {
		if p.UID == selfUID {
			continue
		}
		d.profiles = append(d.profiles, p)
		d.folded = append(d.folded, text.Fold(p.FullName())+"\x00"+text.Fold(p.Email))
	}
	return d
}

// Len is the number of searchable profiles.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.profiles)
}

// Search filters by case-insensitive substring on full name or e-mail.
func (d *Directory) Search(q string) Result {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < MinQueryLen {
		return Result{}
	}
	needle := text.Fold(q)

	res := Result{Active: true, Suggestions: []Suggestion{}}
	if d != nil {
		for i, p := range d.profiles {
			if strings.Contains(d.folded[i], needle) {
				res.Suggestions = append(res.Suggestions, suggestionFor(p))
			}
		}
	}
	if len(res.Suggestions) == 0 {
		res.Empty = notify.MsgPartnerNoResults
	}
	return res
}

// Lookup finds a profile by uid.
func (d *Directory) Lookup(uid string) (models.PublicProfile, bool) {
	if d == nil {
		return models.PublicProfile{}, false
	}
	for _, p := range d.profiles {
		if p.UID == uid {
			return p, true
		}
	}
	return models.PublicProfile{}, false
}

func suggestionFor(p models.PublicProfile) Suggestion {
	name := p.FullName()
	return Suggestion{
		UID:   p.UID,
		Name:  name,
		Email: p.Email,
		Role:  p.Role,
		Label: Label(name, p.Email),
	}
}

// Label is what the search field shows after a pick.
func Label(name, email string) string {
	return name + " (" + email + ")"
}
