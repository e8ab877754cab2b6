// Package fallback serves the bundled dataset shown whenever the live store
// is unreachable or has nothing for today. Every adapter returns fresh slices
// in the canonical model types, stamped with the requested day key.
package fallback

import (
	"strconv"

	"github.com/iftarsharebd/iftarmap/internal/domain/models"
)

// Spots returns the bundled spots as permanent, unvoted records.
func Spots(dayKey string) []models.Spot {
	out := make([]models.Spot, 0, len(spots))
	for _, s := range spots {
		out = append(out, models.Spot{
			ID:          id("spot", s.id),
			Name:        s.name,
			Location:    s.location,
			Lat:         s.lat,
			Lng:         s.lng,
			FoodType:    models.DefaultFoodType,
			Time:        s.time,
			Meals:       s.meals,
			Contact:     s.contact,
			IsPermanent: true,
			Verified:    s.verified,
			DayKey:      dayKey,
		})
	}
	return out
}

// RoadReports returns the bundled traffic pins. Jams are reported as high crowd level.
func RoadReports(dayKey string) []models.RoadReport {
	out := make([]models.RoadReport, 0, len(trafficPins))
	for _, p := range trafficPins {
		out = append(out, models.RoadReport{
			ID:          id("route", p.id),
			Label:       p.label,
			Location:    p.label,
			Lat:         p.lat,
			Lng:         p.lng,
			Type:        models.RouteType(p.kind),
			CrowdLevel:  models.LevelHigh,
			Description: p.description,
			DayKey:      dayKey,
		})
	}
	return out
}

// HelpRequests returns the bundled aid requests; the urgent flag maps to high, otherwise low.
func HelpRequests(dayKey string) []models.HelpRequest {
	out := make([]models.HelpRequest, 0, len(helpRequests))
	for _, h := range helpRequests {
		urgency := models.LevelLow
		if h.urgent {
			urgency = models.LevelHigh
		}
		out = append(out, models.HelpRequest{
			ID:              id("help", h.id),
			Name:            h.name,
			Location:        h.location,
			Lat:             h.lat,
			Lng:             h.lng,
			PeopleCount:     h.people,
			Urgency:         urgency,
			NeedDescription: h.need,
			DayKey:          dayKey,
		})
	}
	return out
}

// Volunteers returns the bundled leaderboard with its fixed ranks.
func Volunteers() []models.Volunteer {
	out := make([]models.Volunteer, 0, len(topVolunteers))
	for _, v := range topVolunteers {
		out = append(out, models.Volunteer{
			ID:          id("volunteer", v.id),
			Rank:        v.rank,
			Name:        v.name,
			City:        v.area,
			TargetGroup: models.TargetAll,
			MealsDone:   v.meals,
			SawabPoints: v.meals * models.SawabPerMeal,
		})
	}
	return out
}

func id(prefix string, n int) string {
	return "fallback-" + prefix + "-" + strconv.Itoa(n)
}
