// File: internal/matching/ranker.go
package matching

import (
	"math"
	"sort"

	"wecare_donations_backend/internal/donation"
)

// MaxCandidates is how many of the nearest donations are offered to the model.
const MaxCandidates = 10

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Candidate is a pending donation with its distance from the requester.
type Candidate struct {
	Donation   donation.Donation
	DistanceKm float64
}

// HaversineKm returns the great-circle distance between a and b in kilometres.
func HaversineKm(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Rank orders donations by distance from origin, nearest first, breaking ties
// by donation id. Donations without both coordinates are left out.
func Rank(origin Point, donations []donation.Donation) []Candidate {
	candidates := make([]Candidate, 0, len(donations))
	for _, d := range donations {
		if !d.HasLocation() {
			continue
		}
		candidates = append(candidates, Candidate{
			Donation:   d,
			DistanceKm: HaversineKm(origin, Point{Latitude: *d.Latitude, Longitude: *d.Longitude}),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return candidates[i].Donation.ID.String() < candidates[j].Donation.ID.String()
	})
	return candidates
}

// Nearest ranks donations and keeps at most MaxCandidates of them.
func Nearest(origin Point, donations []donation.Donation) []Candidate {
	ranked := Rank(origin, donations)
	if len(ranked) > MaxCandidates {
		ranked = ranked[:MaxCandidates]
	}
	return ranked
}
