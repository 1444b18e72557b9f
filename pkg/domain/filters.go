package domain

// DefaultFeedLimit bounds ListActivityFeed when the caller passes no limit.
const DefaultFeedLimit = 50

// DefaultRadiusKM is applied when a GeoFilter carries no radius.
const DefaultRadiusKM = 10

// GeoFilter selects records within RadiusKM kilometers of a point.
type GeoFilter struct {
	Lat      float64
	Lng      float64
	RadiusKM float64
}

// Radius returns the configured radius, falling back to DefaultRadiusKM.
func (f GeoFilter) Radius() float64 {
	if f.RadiusKM > 0 {
		return f.RadiusKM
	}
	return DefaultRadiusKM
}

// DonationFilter narrows ListDonations. Location is accepted for contract
// parity but is not applied; only ListOrganizationsByLocation filters
// geographically.
type DonationFilter struct {
	Type     string
	Location *GeoFilter
}

// RequestFilter narrows ListRequests. Location is accepted but not applied.
type RequestFilter struct {
	Type     string
	Urgency  Urgency
	Location *GeoFilter
}

// ActivityFilter narrows ListActivities. Location is accepted but not applied.
type ActivityFilter struct {
	Location *GeoFilter
}
