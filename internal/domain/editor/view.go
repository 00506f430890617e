// Package editor is the experiment editor without a screen: the view
// selector, the canonical form model, treatment tabs and request
// generations. HTTP handlers drive it; nothing here touches storage.
package editor

import "github.com/volcani/experimenthub/internal/app/system/notify"

// View names a section of the editor.
type View string

const (
	ViewBasic           View = "basic"
	ViewCrop            View = "crop"
	ViewStructure       View = "structure"
	ViewSoil            View = "soil"
	ViewDrip            View = "drip"
	ViewProgressActions View = "progress-actions"
	ViewYield           View = "yield"
	ViewEvents          View = "events"
)

// Views lists every section in sidebar order.
var Views = []View{
	ViewBasic, ViewCrop, ViewStructure, ViewSoil, ViewDrip,
	ViewProgressActions, ViewYield, ViewEvents,
}

const (
	groupPreparation = "הכנות לניסוי"
	groupProgress    = "מהלך הניסוי"
)

var viewLabels = map[View]string{
	ViewBasic:           "תוכנית הניסוי",
	ViewCrop:            "פרטי הגידול",
	ViewStructure:       "דרישות המבנה",
	ViewSoil:            "טיפול בקרקע",
	ViewDrip:            "סוג ופריסת הטפטוף",
	ViewProgressActions: "פעולות שוטפות",
	ViewYield:           "נתוני יבול",
	ViewEvents:          "יומן אירועים",
}

// Label is the Hebrew title. Unknown views fall back to their raw name.
func (v View) Label() string {
	if l, ok := viewLabels[v]; ok {
		return l
	}
	return string(v)
}

// Known reports whether v is one of Views.
func (v View) Known() bool {
	_, ok := viewLabels[v]
	return ok
}

// IsDetail is true for the four preparation sections, which carry the
// treatment tabs and the shared toggle.
func (v View) IsDetail() bool {
	switch v {
	case ViewCrop, ViewStructure, ViewSoil, ViewDrip:
		return true
	}
	return false
}

// Group is the middle breadcrumb segment, or "".
func (v View) Group() string {
	switch {
	case v.IsDetail():
		return groupPreparation
	case v == ViewProgressActions:
		return groupProgress
	}
	return ""
}

// Crumb is one breadcrumb segment. Href is set only for the leading link
// back to the experiment list.
type Crumb struct {
	Text    string `json:"text"`
	Href    string `json:"href,omitempty"`
	Current bool   `json:"current,omitempty"`
}

// Screen is what the client needs after a view switch.
type Screen struct {
	View       View            `json:"view"`
	Breadcrumb []Crumb         `json:"breadcrumb"`
	ShowTabs   bool            `json:"showTabs"`
	ShowShared bool            `json:"showShared"`
	Visible    map[string]bool `json:"visible"`
	Title      string          `json:"title"`
}

// ViewState is the page-scoped selector. The zero value starts on basic.
type ViewState struct {
	Current        View
	ExperimentName string
}

// Switch selects v and rebuilds the screen. It never reloads data.
func (s *ViewState) Switch(v View) Screen {
	if v == "" {
		v = ViewBasic
	}
	s.Current = v
	return s.Screen()
}

// Screen renders the current selection.
func (s *ViewState) Screen() Screen {
	v := s.Current
	if v == "" {
		v = ViewBasic
	}
	name := s.ExperimentName
	if name == "" {
		name = notify.MsgDefaultExperiment
	}

	crumbs := []Crumb{{Text: name, Href: "/dashboard"}}
	if g := v.Group(); g != "" {
		crumbs = append(crumbs, Crumb{Text: g})
	}
	crumbs = append(crumbs, Crumb{Text: v.Label(), Current: true})

	visible := make(map[string]bool, len(Views))
	for _, each := range Views {
		visible[string(each)] = each == v
	}

	return Screen{
		View:       v,
		Breadcrumb: crumbs,
		ShowTabs:   v.IsDetail(),
		ShowShared: v.IsDetail(),
		Visible:    visible,
		Title:      name + ` - מיזם ח"ץ`,
	}
}
