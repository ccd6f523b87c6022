package punch

import (
	"github.com/fieldforce/punchkit-go/internal/domain/firm"
	"github.com/fieldforce/punchkit-go/internal/domain/geo"
	"github.com/fieldforce/punchkit-go/internal/pkg/validator"
)

// PunchInRequest is what the wizard hands the session controller: the
// selected firm, the captured proof photo reference, and the committed
// device fix.
type PunchInRequest struct {
	Firm       firm.Firm
	PhotoRef   string
	Coordinate *geo.Coordinate
}

func (r PunchInRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Firm.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "firm",
			Message: "a firm must be selected",
		})
	}

	if validator.IsEmpty(r.PhotoRef) {
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "a proof photo is required",
		})
	}

	if r.Coordinate == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "location",
			Message: "a device location is required",
		})
	} else {
		if !validator.IsValidLatitude(r.Coordinate.Lat) {
			errs = append(errs, validator.ValidationError{
				Field:   "location",
				Message: "latitude must be between -90 and 90",
			})
		}
		if !validator.IsValidLongitude(r.Coordinate.Lon) {
			errs = append(errs, validator.ValidationError{
				Field:   "location",
				Message: "longitude must be between -180 and 180",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
