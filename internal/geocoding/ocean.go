package geocoding

import "fmt"

// remoteCityKm is the distance beyond which the nearest city no longer
// describes a point and it is reported as open water.
const remoteCityKm = 300.0

// OceanName approximates which ocean or sea contains the point from
// coarse bounding boxes.
func OceanName(lat, lon float64) string {
	name := "Unknown Ocean"

	switch {
	case lon >= -180 && lon <= -70 || lon >= 120 && lon <= 180:
		if lat >= -60 && lat <= 60 {
			name = "Pacific Ocean"
		}
	case lon >= -70 && lon <= 20:
		if lat >= -60 && lat <= 70 {
			name = "Atlantic Ocean"
		}
	case lon >= 20 && lon <= 120:
		if lat >= -60 && lat <= 30 {
			name = "Indian Ocean"
		}
	}

	if lat > 66 {
		name = "Arctic Ocean"
	} else if lat < -60 {
		name = "Southern Ocean"
	}

	switch {
	case lat >= 30 && lat <= 45 && lon >= -10 && lon <= 45:
		name = "Mediterranean Sea"
	case lat >= 10 && lat <= 30 && lon >= 35 && lon <= 75:
		name = "Arabian Sea"
	case lat >= 0 && lat <= 25 && lon >= 90 && lon <= 100:
		name = "Bay of Bengal"
	case lat >= 20 && lat <= 50 && lon >= 120 && lon <= 145:
		name = "Sea of Japan"
	}

	return name
}

func oceanPlace(lat, lon float64, nearest string, distanceKm float64) Place {
	name := OceanName(lat, lon)
	p := Place{
		Lat:              lat,
		Lon:              lon,
		FormattedAddress: name,
		IsRemote:         true,
		IsOcean:          true,
		OceanName:        name,
	}
	if nearest != "" && distanceKm > 0 {
		p.NearestCity = nearest
		p.NearestCityDistanceKm = distanceKm
		p.FormattedAddress = fmt.Sprintf("%s (nearest city: %s, ~%dkm away)", name, nearest, int(distanceKm))
	}
	return p
}
