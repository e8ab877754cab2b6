package models

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
)

func decode(data docstore.Document, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	return dec.Decode(map[string]any(data))
}

// DecodeSpot converts a stored record into a Spot.
func DecodeSpot(r docstore.Record) (Spot, error) {
	var s Spot
	if err := decode(r.Data, &s); err != nil {
		return Spot{}, fmt.Errorf("decode spot %s: %w", r.ID, err)
	}
	s.ID = r.ID
	if s.FoodType == "" {
		s.FoodType = DefaultFoodType
	}
	return s, nil
}

// DecodeRoadReport converts a stored record into a RoadReport.
func DecodeRoadReport(r docstore.Record) (RoadReport, error) {
	var rr RoadReport
	if err := decode(r.Data, &rr); err != nil {
		return RoadReport{}, fmt.Errorf("decode road report %s: %w", r.ID, err)
	}
	rr.ID = r.ID
	return rr, nil
}

// DecodeHelpRequest converts a stored record into a HelpRequest.
func DecodeHelpRequest(r docstore.Record) (HelpRequest, error) {
	var h HelpRequest
	if err := decode(r.Data, &h); err != nil {
		return HelpRequest{}, fmt.Errorf("decode help request %s: %w", r.ID, err)
	}
	h.ID = r.ID
	return h, nil
}

// DecodeVolunteer converts a stored record into a Volunteer. Documents without
// sawab_points display meals_done * SawabPerMeal.
func DecodeVolunteer(r docstore.Record) (Volunteer, error) {
	var v Volunteer
	if err := decode(r.Data, &v); err != nil {
		return Volunteer{}, fmt.Errorf("decode volunteer %s: %w", r.ID, err)
	}
	v.ID = r.ID
	if r.Data["sawab_points"] == nil {
		v.SawabPoints = v.MealsDone * SawabPerMeal
	}
	return v, nil
}

// DecodeDailyStats converts the counter document into DailyStats.
func DecodeDailyStats(r docstore.Record) (DailyStats, error) {
	var s DailyStats
	if err := decode(r.Data, &s); err != nil {
		return DailyStats{}, fmt.Errorf("decode daily stats: %w", err)
	}
	return s, nil
}

// Document encodes the spot for storage. CreatedAt is left to the store clock.
// Permanent spots are stored without a day key.
func (s Spot) Document() docstore.Document {
	doc := docstore.Document{
		"name":         s.Name,
		"location":     s.Location,
		"lat":          s.Lat,
		"lng":          s.Lng,
		"food_type":    s.FoodType,
		"time":         s.Time,
		"meals":        s.Meals,
		"contact":      s.Contact,
		"is_permanent": s.IsPermanent,
		"verified":     s.Verified,
		"gold":         s.Gold,
		"gps_verified": s.GPSVerified,
		"votes_yes":    s.VotesYes,
		"votes_no":     s.VotesNo,
		"day_key":      s.DayKey,
		"created_at":   docstore.ServerTimestamp,
	}
	if s.IsPermanent {
		doc["day_key"] = ""
	}
	if s.AddedBy != "" {
		doc["added_by"] = s.AddedBy
	}
	return doc
}

// Document encodes the road report for storage.
func (rr RoadReport) Document() docstore.Document {
	doc := docstore.Document{
		"label":       rr.Label,
		"location":    rr.Location,
		"lat":         rr.Lat,
		"lng":         rr.Lng,
		"type":        string(rr.Type),
		"crowd_level": string(rr.CrowdLevel),
		"description": rr.Description,
		"day_key":     rr.DayKey,
		"created_at":  docstore.ServerTimestamp,
	}
	if rr.FareRange != "" {
		doc["fare_range"] = rr.FareRange
	}
	if rr.ReportedBy != "" {
		doc["reported_by"] = rr.ReportedBy
	}
	return doc
}

// Document encodes the help request for storage, including urgency_rank for ordering.
func (h HelpRequest) Document() docstore.Document {
	doc := docstore.Document{
		"name":             h.Name,
		"location":         h.Location,
		"lat":              h.Lat,
		"lng":              h.Lng,
		"people_count":     h.PeopleCount,
		"urgency":          string(h.Urgency),
		"urgency_rank":     h.Urgency.Rank(),
		"need_description": h.NeedDescription,
		"fulfilled":        h.Fulfilled,
		"day_key":          h.DayKey,
		"created_at":       docstore.ServerTimestamp,
	}
	if h.Contact != "" {
		doc["contact"] = h.Contact
	}
	return doc
}

// Document encodes the volunteer for storage.
func (v Volunteer) Document() docstore.Document {
	return docstore.Document{
		"name":         v.Name,
		"phone":        v.Phone,
		"city":         v.City,
		"target_group": string(v.TargetGroup),
		"meals_target": v.MealsTarget,
		"meals_done":   v.MealsDone,
		"sawab_points": v.SawabPoints,
		"joined_at":    docstore.ServerTimestamp,
	}
}

// ResetDocument is the counter state written at day rollover.
func ResetDocument(dayKey string) docstore.Document {
	return docstore.Document{
		StatTotal:          int64(0),
		StatVolunteers:     int64(0),
		StatLocations:      int64(0),
		StatHelpFulfilled:  int64(0),
		StatRoutesReported: int64(0),
		"day_key":          dayKey,
		"last_updated":     docstore.ServerTimestamp,
	}
}

// BaselineDocument seeds a counter that has never been written.
func BaselineDocument(dayKey string) docstore.Document {
	doc := ResetDocument(dayKey)
	doc[StatTotal] = BaselineTotal
	return doc
}
