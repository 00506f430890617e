// internal/domain/models/experiment.go
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// DefaultTreatmentsCount is used for new experiments and whenever a stored
// record has no usable count.
const DefaultTreatmentsCount = 3

// Experiment is one field trial. It lives in the experiments collection and
// is namespaced by OwnerID; no query ever crosses owners.
//
// JSON names follow the document shape the browser client already speaks.
type Experiment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"owner_id" json:"-"`
	Revision  int64              `bson:"revision" json:"revision"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`

	ExperimentName string `bson:"experiment_name" json:"experimentName"`
	ExperimentFields `bson:",inline"`
}

// ExperimentFields is everything the editor owns. A save overwrites all of
// it in one update.
type ExperimentFields struct {
	LeadResearcher    string    `bson:"lead_researcher" json:"leadResearcher"`
	Partners          []Partner `bson:"partners" json:"partners"`
	ExperimentYear    int       `bson:"experiment_year" json:"experimentYear"`
	ExperimentMonth   string    `bson:"experiment_month" json:"experimentMonth"`
	StartDate         string    `bson:"start_date" json:"startDate"`
	WorkPackage       string    `bson:"work_package" json:"workPackage"`
	ExperimentSite    string    `bson:"experiment_site" json:"experimentSite"`
	SiteCoordinates   string    `bson:"site_coordinates" json:"siteCoordinates"`
	ExperimentGoal    string    `bson:"experiment_goal" json:"experimentGoal"`
	ExperimentSummary string    `bson:"experiment_summary" json:"experimentSummary"`

	TreatmentsCount  int         `bson:"treatments_count" json:"treatmentsCount"`
	RepetitionsCount int         `bson:"repetitions_count" json:"repetitionsCount"`
	LevelsCount      int         `bson:"levels_count" json:"levelsCount"`
	LevelValue       string      `bson:"level_value" json:"levelValue"`
	Treatments       []Treatment `bson:"treatments" json:"treatments"`

	IndependentVariables []string `bson:"independent_variables" json:"independentVariables"`
	DependentVariables   []string `bson:"dependent_variables" json:"dependentVariables"`
	Keywords             []string `bson:"keywords" json:"keywords"`

	CropDetails      CropDetails      `bson:"crop_details" json:"cropDetails"`
	StructureDetails StructureDetails `bson:"structure_details" json:"structureDetails"`
	SoilDetails      SoilDetails      `bson:"soil_details" json:"soilDetails"`
	DripDetails      DripDetails      `bson:"drip_details" json:"dripDetails"`
}

// Treatment is one arm of the trial.
type Treatment struct {
	Name      string `bson:"name" json:"name"`
	Pesticide string `bson:"pesticide" json:"pesticide"`
}

// Partner is a collaborator attached to an experiment. Rows are keyed by
// e-mail, not by user id.
type Partner struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

// partnerDoc breaks the custom-unmarshal recursion.
type partnerDoc Partner

// UnmarshalJSON accepts the legacy bare-string form ("Dana Levi") as a
// name-only partner.
func (p *Partner) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*p = Partner{Name: name}
		return nil
	}
	var d partnerDoc
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	*p = Partner(d)
	return nil
}

// UnmarshalBSONValue mirrors UnmarshalJSON for documents written by the
// old client, where partners were plain strings.
func (p *Partner) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.String:
		name, ok := bsoncore.Value{Type: t, Data: data}.StringValueOK()
		if !ok {
			return fmt.Errorf("partner: malformed string value")
		}
		*p = Partner{Name: name}
		return nil
	case bsontype.EmbeddedDocument:
		var d partnerDoc
		if err := bson.Unmarshal(data, &d); err != nil {
			return err
		}
		*p = Partner(d)
		return nil
	case bsontype.Null, bsontype.Undefined:
		*p = Partner{}
		return nil
	default:
		return fmt.Errorf("partner: unsupported bson type %s", t)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Detail sections                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// CropDetails is the crop section.
type CropDetails struct {
	Shared bool     `bson:"shared" json:"shared"`
	Data   CropData `bson:"data" json:"data"`
}

type CropData struct {
	PlantingDate      string `bson:"planting_date" json:"plantingDate"`
	CropType          string `bson:"crop_type" json:"cropType"`
	Variety           string `bson:"variety" json:"variety"`
	GraftedPlant      string `bson:"grafted_plant" json:"graftedPlant"`
	VarietyType       string `bson:"variety_type" json:"varietyType"`
	SplitPlant        string `bson:"split_plant" json:"splitPlant"`
	Nursery           string `bson:"nursery" json:"nursery"`
	SeedlingsCount    string `bson:"seedlings_count" json:"seedlingsCount"`
	PlantingDensity   string `bson:"planting_density" json:"plantingDensity"`
	PlantingStructure string `bson:"planting_structure" json:"plantingStructure"`
	ExperimentArea    string `bson:"experiment_area" json:"experimentArea"`
	PreparationName   string `bson:"preparation_name" json:"preparationName"`
	Notes             string `bson:"notes" json:"notes"`
}

// StructureDetails is the growing-structure section.
type StructureDetails struct {
	Shared bool          `bson:"shared" json:"shared"`
	Data   StructureData `bson:"data" json:"data"`
}

type StructureData struct {
	Type         string `bson:"type" json:"type"`
	Size         string `bson:"size" json:"size"`
	Tunnels      string `bson:"tunnels" json:"tunnels"`
	Length       string `bson:"length" json:"length"`
	Width        string `bson:"width" json:"width"`
	RoofCovering string `bson:"roof_covering" json:"roofCovering"`
	NetWashing   string `bson:"net_washing" json:"netWashing"`
	Direction    string `bson:"direction" json:"direction"`
	Notes        string `bson:"notes" json:"notes"`
}

// SoilDetails is the soil-treatment section.
type SoilDetails struct {
	Shared bool     `bson:"shared" json:"shared"`
	Data   SoilData `bson:"data" json:"data"`
}

type SoilData struct {
	Type               string `bson:"type" json:"type"`
	Disinfection       string `bson:"disinfection" json:"disinfection"`
	DisinfectionType   string `bson:"disinfection_type" json:"disinfectionType"`
	BasicFertilization string `bson:"basic_fertilization" json:"basicFertilization"`
	Notes              string `bson:"notes" json:"notes"`
}

// DripDetails is the drip-irrigation section.
type DripDetails struct {
	Shared bool     `bson:"shared" json:"shared"`
	Data   DripData `bson:"data" json:"data"`
}

type DripData struct {
	Type    string `bson:"type" json:"type"`
	Flow    string `bson:"flow" json:"flow"`
	Spacing string `bson:"spacing" json:"spacing"`
	Rows    string `bson:"rows" json:"rows"`
	Notes   string `bson:"notes" json:"notes"`
}

// NewExperiment builds the skeleton stored when a user clicks
// "new experiment". ID and timestamps are assigned by the store.
func NewExperiment(ownerID primitive.ObjectID, name, leadResearcher string, now time.Time) Experiment {
	return Experiment{
		OwnerID:        ownerID,
		ExperimentName: name,
		ExperimentFields: ExperimentFields{
			LeadResearcher:       leadResearcher,
			Partners:             []Partner{},
			ExperimentYear:       now.Year(),
			TreatmentsCount:      DefaultTreatmentsCount,
			Treatments:           []Treatment{},
			IndependentVariables: []string{},
			DependentVariables:   []string{},
			Keywords:             []string{},
			CropDetails:          CropDetails{Shared: true},
			StructureDetails:     StructureDetails{Shared: true},
			SoilDetails:          SoilDetails{Shared: true},
			DripDetails:          DripDetails{Shared: true},
		},
	}
}

// DecodeTarget is the value a stored record is decoded into. The driver
// leaves fields absent from the document untouched, so a legacy record
// with no detail sections reads them as shared.
func DecodeTarget() Experiment {
	return Experiment{
		ExperimentFields: ExperimentFields{
			CropDetails:      CropDetails{Shared: true},
			StructureDetails: StructureDetails{Shared: true},
			SoilDetails:      SoilDetails{Shared: true},
			DripDetails:      DripDetails{Shared: true},
		},
	}
}
