// Package board implements the write workflows: submitting spots, road
// reports, aid requests and volunteers, voting on spots and closing requests.
//
// Store failures never fail a workflow. The caller gets the optimistic record
// back with Persisted=false and the realtime feed settles the truth.
package board

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/clock"
	"github.com/iftarsharebd/iftarmap/internal/domain/models"
	"github.com/iftarsharebd/iftarmap/internal/geo"
	"github.com/iftarsharebd/iftarmap/internal/notify"
	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
	"github.com/iftarsharebd/iftarmap/internal/service/session"
)

// Workflow rejections that are not input validation failures.
var (
	ErrAlreadyVoted     = errors.New("already voted on this spot")
	ErrVotingClosed     = errors.New("spot no longer accepts votes")
	ErrSpotNotFound     = errors.New("spot not found")
	ErrAlreadyFulfilled = errors.New("help request already fulfilled")
	ErrRequestNotFound  = errors.New("help request not found")
)

const (
	defaultSpotLocateTimeout  = 10 * time.Second
	defaultRouteLocateTimeout = 8 * time.Second
	notifyTimeout             = 10 * time.Second
)

// Counter is the part of the stats service the workflows need.
type Counter interface {
	Bump(ctx context.Context, field string) error
}

// Config tunes the geolocation step.
type Config struct {
	Policy geo.Policy
	// LocateTimeout bounds spot and aid request fixes.
	LocateTimeout time.Duration
	// RouteLocateTimeout bounds road report fixes.
	RouteLocateTimeout time.Duration
}

// Submission is the outcome of a create workflow.
type Submission[T any] struct {
	Record    T         `json:"record"`
	GPS       geo.Check `json:"gps"`
	Persisted bool      `json:"persisted"`
}

// Service runs the workflows against a store.
type Service struct {
	store    docstore.Store
	clock    clock.Clock
	counter  Counter
	sessions *session.SessionManager
	notifier notify.Notifier
	cfg      Config
	logger   *zap.Logger
}

// NewService wires the board workflows. A nil notifier disables alerts.
func NewService(store docstore.Store, clk clock.Clock, counter Counter, sessions *session.SessionManager, notifier notify.Notifier, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if sessions == nil {
		sessions = session.NewSessionManager()
	}
	if cfg.Policy.ThresholdMeters <= 0 {
		cfg.Policy.ThresholdMeters = geo.DefaultThresholdMeters
	}
	if cfg.LocateTimeout <= 0 {
		cfg.LocateTimeout = defaultSpotLocateTimeout
	}
	if cfg.RouteLocateTimeout <= 0 {
		cfg.RouteLocateTimeout = defaultRouteLocateTimeout
	}

	return &Service{
		store:    store,
		clock:    clk,
		counter:  counter,
		sessions: sessions,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Sessions exposes the session tracker, purged by the rollover job.
func (s *Service) Sessions() *session.SessionManager {
	return s.sessions
}

// locate resolves a fix and returns the coordinates to store.
func (s *Service) locate(ctx context.Context, loc geo.Locator, timeout time.Duration, lat, lng float64) (geo.Check, float64, float64) {
	check := s.cfg.Policy.Resolve(ctx, loc, timeout, geo.Point{Latitude: lat, Longitude: lng})
	if check.Fix != nil {
		return check, check.Fix.Latitude, check.Fix.Longitude
	}
	return check, lat, lng
}

// create writes doc and reports whether it was stored.
func (s *Service) create(ctx context.Context, collection string, doc docstore.Document) (string, bool) {
	id, err := s.store.Create(ctx, collection, doc)
	if err != nil {
		s.logger.Warn("write failed, returning optimistic record", zap.String("collection", collection), zap.Error(err))
		return "", false
	}
	return id, true
}

func (s *Service) bump(ctx context.Context, field string) {
	if s.counter == nil {
		return
	}
	if err := s.counter.Bump(ctx, field); err != nil {
		s.logger.Debug("counter not bumped", zap.String("field", field), zap.Error(err))
	}
}

// AddSpot stores a same-day spot. A location fix replaces the typed coordinates.
func (s *Service) AddSpot(ctx context.Context, in models.SpotInput, loc geo.Locator) (Submission[models.Spot], error) {
	if err := models.Validate(in); err != nil {
		return Submission[models.Spot]{}, err
	}

	check, lat, lng := s.locate(ctx, loc, s.cfg.LocateTimeout, in.Lat, in.Lng)
	foodType := in.FoodType
	if foodType == "" {
		foodType = models.DefaultFoodType
	}

	spot := models.Spot{
		Name:        in.Name,
		Location:    in.Location,
		Lat:         lat,
		Lng:         lng,
		FoodType:    foodType,
		Time:        in.Time,
		Meals:       in.Meals,
		Contact:     in.Contact,
		GPSVerified: check.Verified(s.cfg.Policy),
		DayKey:      s.clock.DayKey(),
		AddedBy:     in.AddedBy,
		CreatedAt:   s.now(),
	}

	id, ok := s.create(ctx, models.CollectionSpots, spot.Document())
	if ok {
		spot.ID = id
		s.bump(ctx, models.StatLocations)
	}
	return Submission[models.Spot]{Record: spot, GPS: check, Persisted: ok}, nil
}

// AddRoute stores a same-day road report.
func (s *Service) AddRoute(ctx context.Context, in models.RouteInput, loc geo.Locator) (Submission[models.RoadReport], error) {
	if err := models.Validate(in); err != nil {
		return Submission[models.RoadReport]{}, err
	}

	check, lat, lng := s.locate(ctx, loc, s.cfg.RouteLocateTimeout, in.Lat, in.Lng)
	label := in.Label
	if label == "" {
		label = in.Location
	}
	crowd := in.CrowdLevel
	if crowd == "" {
		crowd = models.LevelHigh
	}

	report := models.RoadReport{
		Label:       label,
		Location:    in.Location,
		Lat:         lat,
		Lng:         lng,
		Type:        in.Type,
		CrowdLevel:  crowd,
		Description: in.Description,
		FareRange:   in.FareRange,
		DayKey:      s.clock.DayKey(),
		ReportedBy:  in.ReportedBy,
		CreatedAt:   s.now(),
	}

	id, ok := s.create(ctx, models.CollectionRoutes, report.Document())
	if ok {
		report.ID = id
		s.bump(ctx, models.StatRoutesReported)
	}
	return Submission[models.RoadReport]{Record: report, GPS: check, Persisted: ok}, nil
}

// AddHelpRequest stores a same-day aid request and alerts helpers when it is
// high urgency. It does not move the counter.
func (s *Service) AddHelpRequest(ctx context.Context, in models.HelpInput, loc geo.Locator) (Submission[models.HelpRequest], error) {
	if err := models.Validate(in); err != nil {
		return Submission[models.HelpRequest]{}, err
	}

	check, lat, lng := s.locate(ctx, loc, s.cfg.LocateTimeout, in.Lat, in.Lng)
	urgency := in.Urgency
	if urgency == "" {
		urgency = models.LevelHigh
	}

	req := models.HelpRequest{
		Name:            in.Name,
		Location:        in.Location,
		Lat:             lat,
		Lng:             lng,
		PeopleCount:     in.PeopleCount,
		Urgency:         urgency,
		NeedDescription: in.NeedDescription,
		Contact:         in.Contact,
		DayKey:          s.clock.DayKey(),
		CreatedAt:       s.now(),
	}

	id, ok := s.create(ctx, models.CollectionHelp, req.Document())
	if !ok {
		return Submission[models.HelpRequest]{Record: req, GPS: check}, nil
	}
	req.ID = id

	if req.Urgency == models.LevelHigh {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyHelpRequest(notifyCtx, req); err != nil {
			s.logger.Warn("help request alert failed", zap.String("help_request_id", id), zap.Error(err))
		}
	}
	return Submission[models.HelpRequest]{Record: req, GPS: check, Persisted: true}, nil
}

// RegisterVolunteer adds a volunteer with an empty tally.
func (s *Service) RegisterVolunteer(ctx context.Context, in models.VolunteerInput) (Submission[models.Volunteer], error) {
	if err := models.Validate(in); err != nil {
		return Submission[models.Volunteer]{}, err
	}

	group := in.TargetGroup
	if group == "" {
		group = models.TargetAll
	}

	vol := models.Volunteer{
		Name:        in.Name,
		Phone:       in.Phone,
		City:        in.City,
		TargetGroup: group,
		MealsTarget: in.MealsTarget,
		JoinedAt:    s.now(),
	}

	id, ok := s.create(ctx, models.CollectionVolunteers, vol.Document())
	if ok {
		vol.ID = id
		s.bump(ctx, models.StatVolunteers)
	}
	return Submission[models.Volunteer]{Record: vol, GPS: geo.Check{Status: geo.StatusIdle}, Persisted: ok}, nil
}

func (s *Service) now() time.Time {
	if s.clock.Now == nil {
		return time.Now().UTC()
	}
	return s.clock.Now().UTC()
}
