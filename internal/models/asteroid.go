package models

// AsteroidRecord is the simplified NeoWs record shared by the catalog client,
// the sqlite cache and the simulation input.
type AsteroidRecord struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"name"`
	DiameterMinM           float64         `json:"diameter_min_m"`
	DiameterMaxM           float64         `json:"diameter_max_m"`
	IsPotentiallyHazardous bool            `json:"is_potentially_hazardous"`
	CloseApproachData      []CloseApproach `json:"close_approach_data"`
}

type CloseApproach struct {
	Date           string  `json:"date"`
	VelocityKmS    float64 `json:"velocity_km_s"`
	MissDistanceKm float64 `json:"miss_distance_km"`
}

// AverageDiameterM is the mean of the catalog's min/max diameter estimates.
func (a *AsteroidRecord) AverageDiameterM() float64 {
	return (a.DiameterMinM + a.DiameterMaxM) / 2
}

// FirstApproach returns the earliest close approach listed, if any.
func (a *AsteroidRecord) FirstApproach() (CloseApproach, bool) {
	if len(a.CloseApproachData) == 0 {
		return CloseApproach{}, false
	}
	return a.CloseApproachData[0], true
}

func (a *AsteroidRecord) Info() *AsteroidInfo {
	return &AsteroidInfo{
		ID:                     a.ID,
		Name:                   a.Name,
		IsPotentiallyHazardous: a.IsPotentiallyHazardous,
	}
}

// AsteroidInfo identifies the catalog object a simulation was run for.
type AsteroidInfo struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	IsPotentiallyHazardous bool   `json:"is_potentially_hazardous"`
}
