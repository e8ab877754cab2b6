package models

import (
	"time"

	"github.com/iftarsharebd/iftarmap/internal/geo"
)

// DailyTarget is the meal goal the progress bar is measured against.
const DailyTarget int64 = 20000

// BaselineTotal is shown before the counter document has ever been written.
const BaselineTotal int64 = 18450

// SawabPerMeal derives displayed reward points when a volunteer has none stored.
const SawabPerMeal int64 = 10

// Spot is a meal-sharing point, either submitted today or permanent (curated).
type Spot struct {
	ID          string    `json:"id" mapstructure:"-"`
	Name        string    `json:"name" mapstructure:"name"`
	Location    string    `json:"location" mapstructure:"location"`
	Lat         float64   `json:"lat" mapstructure:"lat"`
	Lng         float64   `json:"lng" mapstructure:"lng"`
	FoodType    string    `json:"food_type" mapstructure:"food_type"`
	Time        string    `json:"time" mapstructure:"time"`
	Meals       int64     `json:"meals" mapstructure:"meals"`
	Contact     string    `json:"contact" mapstructure:"contact"`
	IsPermanent bool      `json:"is_permanent" mapstructure:"is_permanent"`
	Verified    bool      `json:"verified" mapstructure:"verified"`
	Gold        bool      `json:"gold" mapstructure:"gold"`
	GPSVerified bool      `json:"gps_verified" mapstructure:"gps_verified"`
	VotesYes    int64     `json:"votes_yes" mapstructure:"votes_yes"`
	VotesNo     int64     `json:"votes_no" mapstructure:"votes_no"`
	DayKey      string    `json:"day_key" mapstructure:"day_key"`
	AddedBy     string    `json:"added_by,omitempty" mapstructure:"added_by"`
	CreatedAt   time.Time `json:"created_at" mapstructure:"created_at"`
}

// Point returns the spot coordinates.
func (s Spot) Point() geo.Point {
	return geo.Point{Latitude: s.Lat, Longitude: s.Lng}
}

// RoadReport is a same-day congestion or shortcut pin.
type RoadReport struct {
	ID          string    `json:"id" mapstructure:"-"`
	Label       string    `json:"label" mapstructure:"label"`
	Location    string    `json:"location" mapstructure:"location"`
	Lat         float64   `json:"lat" mapstructure:"lat"`
	Lng         float64   `json:"lng" mapstructure:"lng"`
	Type        RouteType `json:"type" mapstructure:"type"`
	CrowdLevel  Level     `json:"crowd_level" mapstructure:"crowd_level"`
	Description string    `json:"description" mapstructure:"description"`
	FareRange   string    `json:"fare_range,omitempty" mapstructure:"fare_range"`
	DayKey      string    `json:"day_key" mapstructure:"day_key"`
	ReportedBy  string    `json:"reported_by,omitempty" mapstructure:"reported_by"`
	CreatedAt   time.Time `json:"created_at" mapstructure:"created_at"`
}

// HelpRequest is a same-day aid request. Fulfilled requests stay stored but leave the board.
type HelpRequest struct {
	ID              string    `json:"id" mapstructure:"-"`
	Name            string    `json:"name" mapstructure:"name"`
	Location        string    `json:"location" mapstructure:"location"`
	Lat             float64   `json:"lat" mapstructure:"lat"`
	Lng             float64   `json:"lng" mapstructure:"lng"`
	PeopleCount     int64     `json:"people_count" mapstructure:"people_count"`
	Urgency         Level     `json:"urgency" mapstructure:"urgency"`
	NeedDescription string    `json:"need_description" mapstructure:"need_description"`
	Contact         string    `json:"contact,omitempty" mapstructure:"contact"`
	Fulfilled       bool      `json:"fulfilled" mapstructure:"fulfilled"`
	DayKey          string    `json:"day_key" mapstructure:"day_key"`
	CreatedAt       time.Time `json:"created_at" mapstructure:"created_at"`
}

// Volunteer is a permanent leaderboard entry.
type Volunteer struct {
	ID          string      `json:"id" mapstructure:"-"`
	Rank        int         `json:"rank" mapstructure:"-"`
	Name        string      `json:"name" mapstructure:"name"`
	Phone       string      `json:"phone,omitempty" mapstructure:"phone"`
	City        string      `json:"city" mapstructure:"city"`
	TargetGroup TargetGroup `json:"target_group" mapstructure:"target_group"`
	MealsTarget int64       `json:"meals_target" mapstructure:"meals_target"`
	MealsDone   int64       `json:"meals_done" mapstructure:"meals_done"`
	SawabPoints int64       `json:"sawab_points" mapstructure:"sawab_points"`
	JoinedAt    time.Time   `json:"joined_at" mapstructure:"joined_at"`
}

// DailyStats is the singleton counter for the current logical day.
type DailyStats struct {
	Total          int64      `json:"total" mapstructure:"total"`
	Volunteers     int64      `json:"volunteers" mapstructure:"volunteers"`
	Locations      int64      `json:"locations" mapstructure:"locations"`
	HelpFulfilled  int64      `json:"help_fulfilled" mapstructure:"help_fulfilled"`
	RoutesReported int64      `json:"routes_reported" mapstructure:"routes_reported"`
	DayKey         string     `json:"day_key" mapstructure:"day_key"`
	LastUpdated    *time.Time `json:"last_updated" mapstructure:"last_updated"`
	Target         int64      `json:"target" mapstructure:"-"`
	Progress       float64    `json:"progress" mapstructure:"-"`
	Source         Source     `json:"source" mapstructure:"-"`
}

// WithProgress fills Target and Progress, capping the percentage at 100.
func (s DailyStats) WithProgress() DailyStats {
	s.Target = DailyTarget
	s.Progress = float64(s.Total) / float64(DailyTarget) * 100
	if s.Progress > 100 {
		s.Progress = 100
	}
	if s.Progress < 0 {
		s.Progress = 0
	}
	return s
}

// Counter fields incremented by the workflows.
const (
	StatTotal          = "total"
	StatVolunteers     = "volunteers"
	StatLocations      = "locations"
	StatHelpFulfilled  = "help_fulfilled"
	StatRoutesReported = "routes_reported"
)
