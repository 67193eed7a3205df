package scheduler

import "math"

const earthRadiusKM = 6371.0

// haversineKM returns the great-circle distance between two lat/lon
// points in kilometers.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

// modeSpeedKMH maps a transport mode to an assumed average speed,
// used to derive travel_minutes when no real route-provider result is
// available (§4.5 Phase 2).
func modeSpeedKMH(mode string) float64 {
	switch mode {
	case "walking":
		return 4
	case "public_transit":
		return 18
	case "taxi":
		return 30
	case "driving":
		return 40
	default:
		return 18
	}
}

// modeCostPerMin is the assumed local-transport cost per minute of
// travel under a given mode, used in Phase 4 budget accounting.
func modeCostPerMin(mode string) float64 {
	switch mode {
	case "walking":
		return 0
	case "public_transit":
		return 0.05
	case "taxi":
		return 0.35
	case "driving":
		return 0.20
	default:
		return 0.10
	}
}

// travelMinutes computes travel time between two points for the given
// mode, overridable by a real route-provider result upstream.
func travelMinutes(lat1, lon1, lat2, lon2 float64, mode string) int {
	km := haversineKM(lat1, lon1, lat2, lon2)
	speed := modeSpeedKMH(mode)
	minutes := km / speed * 60
	return int(math.Round(minutes))
}

// clusterRadiusKM returns the single-link clustering radius for Phase 1
// day partitioning, per mode (§4.5 Phase 1).
func clusterRadiusKM(mode string) float64 {
	switch mode {
	case "walking":
		return 3.0
	case "driving":
		return 10.0
	default: // public_transit, taxi
		return 5.0
	}
}
