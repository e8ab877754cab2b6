package fallback

import (
	"testing"

	"github.com/iftarsharebd/iftarmap/internal/domain/models"
)

func TestSpotsAreNormalized(t *testing.T) {
	got := Spots("2026-03-01")
	if len(got) != 12 {
		t.Fatalf("expected 12 spots, got %d", len(got))
	}
	for _, s := range got {
		if !s.IsPermanent || s.Gold || s.GPSVerified || s.VotesYes != 0 || s.VotesNo != 0 {
			t.Errorf("spot %s not normalized: %+v", s.ID, s)
		}
		if s.DayKey != "2026-03-01" || s.FoodType != models.DefaultFoodType {
			t.Errorf("spot %s missing defaults: %+v", s.ID, s)
		}
	}
}

func TestAdaptersReturnFreshSlices(t *testing.T) {
	a := Spots("2026-03-01")
	a[0].Name = "changed"
	if Spots("2026-03-01")[0].Name == "changed" {
		t.Error("callers must not be able to mutate the bundled data")
	}
}

func TestHelpUrgencyMapping(t *testing.T) {
	for _, h := range HelpRequests("2026-03-01") {
		if h.Urgency != models.LevelHigh && h.Urgency != models.LevelLow {
			t.Errorf("unexpected urgency %q", h.Urgency)
		}
		if h.Fulfilled {
			t.Errorf("fallback request %s must be open", h.ID)
		}
	}
}

func TestRoadReportsAndVolunteers(t *testing.T) {
	routes := RoadReports("2026-03-01")
	if len(routes) != 6 || routes[0].Location != routes[0].Label || routes[0].CrowdLevel != models.LevelHigh {
		t.Errorf("unexpected routes %+v", routes)
	}

	vols := Volunteers()
	if len(vols) != 10 || vols[0].Rank != 1 || vols[0].SawabPoints != vols[0].MealsDone*models.SawabPerMeal {
		t.Errorf("unexpected volunteers %+v", vols[0])
	}
}
