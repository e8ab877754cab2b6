package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/iftarsharebd/iftarmap/internal/geo"
)

// SpotInput is a user submission for a new same-day spot.
type SpotInput struct {
	Name     string     `json:"name" validate:"required,max=200"`
	Location string     `json:"location" validate:"required,max=200"`
	Lat      float64    `json:"lat" validate:"latitude"`
	Lng      float64    `json:"lng" validate:"longitude"`
	FoodType string     `json:"food_type" validate:"max=64"`
	Time     string     `json:"time" validate:"max=32"`
	Meals    int64      `json:"meals" validate:"gte=0"`
	Contact  string     `json:"contact" validate:"max=64"`
	AddedBy  string     `json:"added_by" validate:"max=64"`
	Fix      *geo.Point `json:"fix" validate:"omitempty"`
}

// RouteInput is a road report submission.
type RouteInput struct {
	Label       string     `json:"label" validate:"max=200"`
	Location    string     `json:"location" validate:"required,max=200"`
	Lat         float64    `json:"lat" validate:"latitude"`
	Lng         float64    `json:"lng" validate:"longitude"`
	Type        RouteType  `json:"type" validate:"required,oneof=jam shortcut"`
	CrowdLevel  Level      `json:"crowd_level" validate:"omitempty,oneof=low medium high"`
	Description string     `json:"description" validate:"required,max=500"`
	FareRange   string     `json:"fare_range" validate:"max=64"`
	ReportedBy  string     `json:"reported_by" validate:"max=64"`
	Fix         *geo.Point `json:"fix" validate:"omitempty"`
}

// HelpInput is an aid request submission.
type HelpInput struct {
	Name            string     `json:"name" validate:"max=200"`
	Location        string     `json:"location" validate:"required,max=200"`
	Lat             float64    `json:"lat" validate:"latitude"`
	Lng             float64    `json:"lng" validate:"longitude"`
	PeopleCount     int64      `json:"people_count" validate:"gte=0"`
	Urgency         Level      `json:"urgency" validate:"omitempty,oneof=low medium high"`
	NeedDescription string     `json:"need_description" validate:"required,max=500"`
	Contact         string     `json:"contact" validate:"max=64"`
	Fix             *geo.Point `json:"fix" validate:"omitempty"`
}

// VolunteerInput registers a volunteer on the leaderboard.
type VolunteerInput struct {
	Name        string      `json:"name" validate:"required,max=120"`
	Phone       string      `json:"phone" validate:"max=32"`
	City        string      `json:"city" validate:"required,max=120"`
	TargetGroup TargetGroup `json:"target_group" validate:"omitempty,oneof=rickshaw homeless orphan widow all"`
	MealsTarget int64       `json:"meals_target" validate:"gte=0"`
}

// VoteInput carries a single authenticity vote.
type VoteInput struct {
	Vote string `json:"vote" validate:"required,oneof=yes no"`
}

// Yes reports whether the vote is in favour.
func (v VoteInput) Yes() bool {
	return v.Vote == "yes"
}

// ValidationError reports malformed input. Nothing is written when it is returned.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// FieldError describes one failing field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s failed %s", f.Field, f.Rule))
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks struct tags and converts failures into a ValidationError.
func Validate(input any) error {
	err := instance().Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate input: %w", err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
