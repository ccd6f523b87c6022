package firm

import "github.com/fieldforce/punchkit-go/internal/domain/geo"

// Firm is the customer/store a field user visits. Latitude/longitude
// are optional: absence means no geofence is configured for it, which
// admits a punch-in unconditionally.
type Firm struct {
	ID          string
	DisplayName string
	Lat         *float64
	Lon         *float64
}

// HasGeofence reports whether the firm carries an enforceable geofence
// center. Malformed (non-finite or out-of-range) stored coordinates
// count as no geofence rather than as a zero-distance match.
func (f Firm) HasGeofence() bool {
	return f.Lat != nil && f.Lon != nil && geo.Valid(*f.Lat, *f.Lon)
}

// APIRecord is the loose shape the remote API returns for a firm. The
// backend is inconsistent about the name field, so all three variants
// are declared and FromAPI picks the canonical one.
type APIRecord struct {
	ID           string   `json:"id"`
	FirmName     string   `json:"firm_name"`
	CustomerName string   `json:"customerName"`
	Name         string   `json:"name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// FromAPI normalizes an API record into a Firm. Display name
// precedence: firm_name, then customerName, then name.
func FromAPI(rec APIRecord) Firm {
	name := rec.FirmName
	if name == "" {
		name = rec.CustomerName
	}
	if name == "" {
		name = rec.Name
	}
	return Firm{
		ID:          rec.ID,
		DisplayName: name,
		Lat:         rec.Latitude,
		Lon:         rec.Longitude,
	}
}
