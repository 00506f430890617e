package partners

import (
	"errors"
	"strings"

	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/domain/models"
)

// ErrPermission marks a directory load the store refused. It surfaces as
// the detailed permissions notice instead of the generic one.
var ErrPermission = errors.New("partners: permission denied")

// Target is anything that holds partner rows; *editor.Form satisfies it.
type Target interface {
	AddPartner(p models.Partner) (bool, notify.Notice)
}

// Picker is the partner field: free text plus at most one pending pick.
type Picker struct {
	Dir     *Directory
	Text    string
	pending *models.PublicProfile
}

// NewPicker starts an empty field over dir.
func NewPicker(dir *Directory) *Picker {
	return &Picker{Dir: dir}
}

// Type records a keystroke. Editing the text drops any pending pick.
func (p *Picker) Type(q string) Result {
	p.Text = q
	p.pending = nil
	return p.Dir.Search(q)
}

// Select stores uid as the pending pick and fills the field with its label.
func (p *Picker) Select(uid string) (string, bool) {
	prof, ok := p.Dir.Lookup(uid)
	if !ok {
		return "", false
	}
	p.pending = &prof
	p.Text = Label(prof.FullName(), prof.Email)
	return p.Text, true
}

// Pending returns the current pick.
func (p *Picker) Pending() (models.PublicProfile, bool) {
	if p.pending == nil {
		return models.PublicProfile{}, false
	}
	return *p.pending, true
}

// Add appends the pending pick to t. Without a pick it warns, and with
// an empty field it does nothing. The field is cleared after a successful add.
func (p *Picker) Add(t Target) (bool, notify.Notice) {
	if p.pending == nil {
		if strings.TrimSpace(p.Text) != "" {
			return false, notify.Warn(notify.MsgPartnerChooseFromList)
		}
		return false, notify.Notice{}
	}
	partner := models.Partner{Name: p.pending.FullName(), Email: p.pending.Email}
	added, n := t.AddPartner(partner)
	if added {
		p.pending = nil
		p.Text = ""
	}
	return added, n
}

// LoadFailure is the notice for a directory load error. The caller clears
// its directory either way.
func LoadFailure(err error) notify.Notice {
	if errors.Is(err, ErrPermission) {
		return notify.Warn(notify.MsgPartnersPermission).WithDuration(notify.LongDuration)
	}
	return notify.FailWith(notify.MsgPartnersLoadFail, err)
}
