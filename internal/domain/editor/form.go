package editor

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/volcani/experimenthub/internal/app/system/htmlsanitize"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/domain/models"
)

// VariableKind selects one of the two variable lists.
type VariableKind string

const (
	Independent VariableKind = "independent"
	Dependent   VariableKind = "dependent"
)

// Count is a numeric form control. It decodes from a JSON number or from
// the raw string a text input holds; anything unparseable is 0.
type Count int

func (c *Count) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*c = parseCount(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = parseCount(s)
		return nil
	}
	*c = 0
	return nil
}

// parseCount reads the leading integer of s.
func parseCount(s string) Count {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return Count(n)
}

// Form is the canonical edit state of one experiment. Populate fills it
// from a stored record; the client sends it back whole on save; Collect
// turns it into the update that is written.
type Form struct {
	Revision       int64  `json:"revision"`
	ExperimentName string `json:"experimentName"`

	LeadResearcher    string           `json:"leadResearcher"`
	Partners          []models.Partner `json:"partners"`
	ExperimentYear    Count            `json:"experimentYear"`
	ExperimentMonth   string           `json:"experimentMonth"`
	StartDate         string           `json:"startDate"`
	WorkPackage       string           `json:"workPackage"`
	ExperimentSite    string           `json:"experimentSite"`
	SiteCoordinates   string           `json:"siteCoordinates"`
	ExperimentGoal    string           `json:"experimentGoal"`
	ExperimentSummary string           `json:"experimentSummary"`

	TreatmentsCount  Count              `json:"treatmentsCount"`
	RepetitionsCount Count              `json:"repetitionsCount"`
	LevelsCount      Count              `json:"levelsCount"`
	LevelValue       string             `json:"levelValue"`
	Treatments       []models.Treatment `json:"treatments"`

	IndependentVariables []string `json:"independentVariables"`
	DependentVariables   []string `json:"dependentVariables"`
	Keywords             []string `json:"keywords"`

	// Shared is the single toggle shown on every detail view. Collect
	// writes it into all four sections.
	Shared *bool `json:"shared"`

	Crop      models.CropData      `json:"crop"`
	Structure models.StructureData `json:"structure"`
	Soil      models.SoilData      `json:"soil"`
	Drip      models.DripData      `json:"drip"`

	ActiveTab int `json:"activeTab"`
}

// Populate builds the edit state for e. profile supplies the lead
// researcher when the record has none.
func Populate(e models.Experiment, profile models.User) *Form {
	f := &Form{
		Revision:          e.Revision,
		ExperimentName:    e.ExperimentName,
		LeadResearcher:    e.LeadResearcher,
		ExperimentYear:    Count(e.ExperimentYear),
		ExperimentMonth:   e.ExperimentMonth,
		StartDate:         e.StartDate,
		WorkPackage:       e.WorkPackage,
		ExperimentSite:    e.ExperimentSite,
		SiteCoordinates:   e.SiteCoordinates,
		ExperimentGoal:    e.ExperimentGoal,
		ExperimentSummary: e.ExperimentSummary,
		TreatmentsCount:   Count(e.TreatmentsCount),
		RepetitionsCount:  Count(e.RepetitionsCount),
		LevelsCount:       Count(e.LevelsCount),
		LevelValue:        e.LevelValue,

		Partners:             append([]models.Partner{}, e.Partners...),
		IndependentVariables: append([]string{}, e.IndependentVariables...),
		DependentVariables:   append([]string{}, e.DependentVariables...),
		Keywords:             []string{},

		Crop:      e.CropDetails.Data,
		Structure: e.StructureDetails.Data,
		Soil:      e.SoilDetails.Data,
		Drip:      e.DripDetails.Data,
	}
	if f.LeadResearcher == "" {
		f.LeadResearcher = profile.FullName()
	}
	if f.TreatmentsCount <= 0 {
		f.TreatmentsCount = models.DefaultTreatmentsCount
	}
	f.TreatmentsCount = Count(ClampTreatments(int(f.TreatmentsCount)))
	f.Treatments = ResizeTreatments(e.Treatments, int(f.TreatmentsCount))
	for _, k := range e.Keywords {
		f.AddKeyword(k)
	}
	shared := e.CropDetails.Shared
	f.Shared = &shared
	return f
}

// IsShared reads the toggle. An absent toggle counts as on.
func (f *Form) IsShared() bool {
	return f.Shared == nil || *f.Shared
}

// Collect returns the record-shaped update. Free text is stripped of
// markup and the treatment list is cut or padded to the count. Variables
// are trimmed with blanks dropped, and unnamed partners are dropped.
func (f *Form) Collect() models.ExperimentFields {
	clean := htmlsanitize.PlainText

	partners := make([]models.Partner, 0, len(f.Partners))
	for _, p := range f.Partners {
		name := strings.TrimSpace(clean(p.Name))
		if name == "" || name == notify.MsgPartnerNoName {
			continue
		}
		partners = append(partners, models.Partner{
			Name:  name,
			Email: strings.TrimSpace(p.Email),
		})
	}

	count := ClampTreatments(int(f.TreatmentsCount))
	treatments := make([]models.Treatment, 0, count)
	for _, t := range ResizeTreatments(f.Treatments, count) {
		treatments = append(treatments, models.Treatment{
			Name:      clean(t.Name),
			Pesticide: clean(t.Pesticide),
		})
	}

	keywords := make([]string, 0, len(f.Keywords))
	for _, k := range f.Keywords {
		keywords = append(keywords, clean(k))
	}

	shared := f.IsShared()
	return models.ExperimentFields{
		LeadResearcher:    clean(f.LeadResearcher),
		Partners:          partners,
		ExperimentYear:    int(f.ExperimentYear),
		ExperimentMonth:   clean(f.ExperimentMonth),
		StartDate:         clean(f.StartDate),
		WorkPackage:       clean(f.WorkPackage),
		ExperimentSite:    clean(f.ExperimentSite),
		SiteCoordinates:   clean(f.SiteCoordinates),
		ExperimentGoal:    clean(f.ExperimentGoal),
		ExperimentSummary: clean(f.ExperimentSummary),

		TreatmentsCount:  count,
		RepetitionsCount: int(f.RepetitionsCount),
		LevelsCount:      int(f.LevelsCount),
		LevelValue:       clean(f.LevelValue),
		Treatments:       treatments,

		IndependentVariables: cleanVariables(f.IndependentVariables),
		DependentVariables:   cleanVariables(f.DependentVariables),
		Keywords:             keywords,

		CropDetails: models.CropDetails{Shared: shared, Data: models.CropData{
			PlantingDate:      clean(f.Crop.PlantingDate),
			CropType:          clean(f.Crop.CropType),
			Variety:           clean(f.Crop.Variety),
			GraftedPlant:      clean(f.Crop.GraftedPlant),
			VarietyType:       clean(f.Crop.VarietyType),
			SplitPlant:        clean(f.Crop.SplitPlant),
			Nursery:           clean(f.Crop.Nursery),
			SeedlingsCount:    clean(f.Crop.SeedlingsCount),
			PlantingDensity:   clean(f.Crop.PlantingDensity),
			PlantingStructure: clean(f.Crop.PlantingStructure),
			ExperimentArea:    clean(f.Crop.ExperimentArea),
			PreparationName:   clean(f.Crop.PreparationName),
			Notes:             clean(f.Crop.Notes),
		}},
		StructureDetails: models.StructureDetails{Shared: shared, Data: models.StructureData{
			Type:         clean(f.Structure.Type),
			Size:         clean(f.Structure.Size),
			Tunnels:      clean(f.Structure.Tunnels),
			Length:       clean(f.Structure.Length),
			Width:        clean(f.Structure.Width),
			RoofCovering: clean(f.Structure.RoofCovering),
			NetWashing:   clean(f.Structure.NetWashing),
			Direction:    clean(f.Structure.Direction),
			Notes:        clean(f.Structure.Notes),
		}},
		SoilDetails: models.SoilDetails{Shared: shared, Data: models.SoilData{
			Type:               clean(f.Soil.Type),
			Disinfection:       clean(f.Soil.Disinfection),
			DisinfectionType:   clean(f.Soil.DisinfectionType),
			BasicFertilization: clean(f.Soil.BasicFertilization),
			Notes:              clean(f.Soil.Notes),
		}},
		DripDetails: models.DripDetails{Shared: shared, Data: models.DripData{
			Type:    clean(f.Drip.Type),
			Flow:    clean(f.Drip.Flow),
			Spacing: clean(f.Drip.Spacing),
			Rows:    clean(f.Drip.Rows),
			Notes:   clean(f.Drip.Notes),
		}},
	}
}

func cleanVariables(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(htmlsanitize.PlainText(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

/*─────────────────────────────────────────────────────────────────────────────*
| Rows and tags                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HasPartner reports whether a row with this exact e-mail exists.
// Rows without an e-mail never match.
func (f *Form) HasPartner(email string) bool {
	if email == "" {
		return false
	}
	for _, p := range f.Partners {
		if p.Email == email {
			return true
		}
	}
	return false
}

// AddPartner appends p unless a row with the same e-mail is present. The
// returned notice is what the user sees either way.
func (f *Form) AddPartner(p models.Partner) (bool, notify.Notice) {
	if f.HasPartner(p.Email) {
		return false, notify.Warn(notify.MsgPartnerExists)
	}
	f.Partners = append(f.Partners, p)
	return true, notify.Successf(notify.MsgPartnerAddedFormat, p.Name)
}

// RemovePartner deletes row i. Out-of-range indexes are ignored.
func (f *Form) RemovePartner(i int) {
	if i < 0 || i >= len(f.Partners) {
		return
	}
	f.Partners = append(f.Partners[:i], f.Partners[i+1:]...)
}

func (f *Form) variables(kind VariableKind) *[]string {
	if kind == Dependent {
		return &f.DependentVariables
	}
	return &f.IndependentVariables
}

// AddVariable appends the trimmed value. Blank input is ignored;
// duplicates are allowed.
func (f *Form) AddVariable(kind VariableKind, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	list := f.variables(kind)
	*list = append(*list, v)
	return true
}

// RemoveVariable deletes row i of the given list.
func (f *Form) RemoveVariable(kind VariableKind, i int) {
	list := f.variables(kind)
	if i < 0 || i >= len(*list) {
		return
	}
	*list = append((*list)[:i], (*list)[i+1:]...)
}

// AddKeyword appends k unless an identical tag exists.
func (f *Form) AddKeyword(k string) bool {
	if k == "" {
		return false
	}
	for _, have := range f.Keywords {
		if have == k {
			return false
		}
	}
	f.Keywords = append(f.Keywords, k)
	return true
}

// RemoveKeyword deletes the tag with value k.
func (f *Form) RemoveKeyword(k string) {
	for i, have := range f.Keywords {
		if have == k {
			f.Keywords = append(f.Keywords[:i], f.Keywords[i+1:]...)
			return
		}
	}
}
