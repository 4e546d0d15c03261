// internal/services/wine_merge.go
package services

import (
	"strings"

	"github.com/mywinecellar/cellar-api/internal/apierr"
	"github.com/mywinecellar/cellar-api/internal/models"
	"github.com/mywinecellar/cellar-api/internal/utils"
)

// WineRequest is a sparse set of wine fields. An unset field keeps the
// current value on edit and the zero value on create.
type WineRequest struct {
	Name        models.Optional[string]         `json:"name"`
	Vintage     models.Optional[models.Vintage] `json:"vintage"`
	Size        models.Optional[float64]        `json:"size"`
	Alcohol     models.Optional[float64]        `json:"alcohol"`
	Acidity     models.Optional[float64]        `json:"acidity"`
	PH          models.Optional[float64]        `json:"ph"`
	BottleAging models.Optional[int]            `json:"bottle_aging"`
	Description models.Optional[string]         `json:"description"`
	Weblink     models.Optional[string]         `json:"weblink"`
}

// apply copies every set field onto wine and returns the struct field
// names it touched, in declaration order.
func (r *WineRequest) apply(wine *models.Wine) []string {
	var fields []string
	track := func(name string, applied bool) {
		if applied {
			fields = append(fields, name)
		}
	}

	track("Name", r.Name.ApplyTo(&wine.Name))
	track("Vintage", r.Vintage.ApplyTo(&wine.Vintage))
	track("Size", r.Size.ApplyTo(&wine.Size))
	track("Alcohol", r.Alcohol.ApplyTo(&wine.Alcohol))
	track("Acidity", r.Acidity.ApplyTo(&wine.Acidity))
	track("PH", r.PH.ApplyTo(&wine.PH))
	track("BottleAging", r.BottleAging.ApplyTo(&wine.BottleAging))
	track("Description", r.Description.ApplyTo(&wine.Description))
	track("Weblink", r.Weblink.ApplyTo(&wine.Weblink))

	return fields
}

func (r *WineRequest) missingRequired() []utils.ValidationError {
	var missing []utils.ValidationError
	if !r.Name.IsSet() {
		missing = append(missing, utils.RequiredFieldError("name"))
	}
	if !r.Size.IsSet() {
		missing = append(missing, utils.RequiredFieldError("size"))
	}
	return missing
}

// MergeWine builds the wine that results from applying req to existing.
// With existing == nil it builds a new wine, and name and size must be set.
// Ids and associations are copied from existing untouched. existing itself
// is never modified.
func MergeWine(existing *models.Wine, req *WineRequest) (*models.Wine, error) {
	wine, _, err := mergeWine(existing, req)
	return wine, err
}

func mergeWine(existing *models.Wine, req *WineRequest) (*models.Wine, []string, error) {
	if req == nil {
		return nil, nil, apierr.BadRequest("wine request was null")
	}

	var wine models.Wine
	if existing == nil {
		if missing := req.missingRequired(); len(missing) > 0 {
			names := make([]string, len(missing))
			for i, m := range missing {
				names[i] = m.Field
			}
			return nil, nil, apierr.Validation(strings.Join(names, " and ")+" required for a new wine", missing)
		}
	} else {
		wine = *existing
	}

	fields := req.apply(&wine)

	if err := utils.ValidateStruct(&wine); err != nil {
		return nil, nil, apierr.Validation("invalid wine request", utils.GetValidationErrors(err))
	}

	return &wine, fields, nil
}
