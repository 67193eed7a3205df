package scheduler

import "github.com/wayfarer-ai/planner/internal/models"

// cluster is a connected group of POIs under single-link clustering.
type cluster struct {
	pois         []*models.POI
	totalHours   float64
}

// singleLinkCluster groups POIs by geographic proximity: two POIs join
// the same cluster if some pair of members is within radiusKM of each
// other (single-link / nearest-neighbor chaining), per §4.5 Phase 1.
func singleLinkCluster(pois []*models.POI, radiusKM float64) []*cluster {
	n := len(pois)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := haversineKM(pois[i].Lat, pois[i].Lon, pois[j].Lat, pois[j].Lon)
			if d <= radiusKM {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]*models.POI)
	for i, p := range pois {
		root := find(i)
		groups[root] = append(groups[root], p)
	}

	clusters := make([]*cluster, 0, len(groups))
	for _, members := range groups {
		c := &cluster{pois: members}
		for _, p := range members {
			c.totalHours += p.TypicalDurationHrs
		}
		clusters = append(clusters, c)
	}
	return clusters
}

// centroid returns the mean lat/lon of a cluster's members.
func (c *cluster) centroid() (lat, lon float64) {
	for _, p := range c.pois {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(c.pois))
	if n == 0 {
		return 0, 0
	}
	return lat / n, lon / n
}

// outermostNorthwest returns the cluster member furthest to the
// northwest of the centroid, used as the day's starting POI when no
// pinned POI anchors it (§4.5 Phase 2).
func (c *cluster) outermostNorthwest() *models.POI {
	if len(c.pois) == 0 {
		return nil
	}
	cLat, cLon := c.centroid()
	best := c.pois[0]
	bestScore := -1.0
	for _, p := range c.pois {
		// Northwest = higher latitude, lower longitude relative to centroid.
		score := (p.Lat - cLat) - (p.Lon - cLon)
		if score > bestScore {
			bestScore = score
			best = p
		}
	}
	return best
}

// assignClustersToDays distributes clusters across days round-robin,
// weighted by total duration so no day is starved while another is
// overloaded, respecting DAILY_BUDGET_MIN (§4.5 Phase 1).
func assignClustersToDays(clusters []*cluster, days int, dailyBudgetMinHours float64) [][]*cluster {
	byDay := make([][]*cluster, days)
	dayHours := make([]float64, days)

	// Largest-first bin packing: assign each cluster to the day with the
	// least accumulated duration that still has room.
	sorted := append([]*cluster(nil), clusters...)
	for i := 0; i < len(sorted); i++ {
		maxIdx := i
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].totalHours > sorted[maxIdx].totalHours {
				maxIdx = j
			}
		}
		sorted[i], sorted[maxIdx] = sorted[maxIdx], sorted[i]
	}

	for _, c := range sorted {
		best := 0
		for d := 1; d < days; d++ {
			if dayHours[d] < dayHours[best] {
				best = d
			}
		}
		byDay[best] = append(byDay[best], c)
		dayHours[best] += c.totalHours
	}

	return byDay
}
