// Package curation imports the hand-maintained list of permanent iftar spots.
package curation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/domain/models"
	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
	"github.com/iftarsharebd/iftarmap/internal/repository/sheets"
)

// Sheet columns, in order.
const (
	colID = iota
	colName
	colLocation
	colLat
	colLng
	colFoodType
	colTime
	colMeals
	colContact
	colGold
)

var (
	errMissingField = errors.New("missing field")
	errBadNumber    = errors.New("not a number")
	errOutOfRange   = errors.New("coordinate out of range")
)

// Result summarizes one import run.
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Service copies sheet rows into the spot collection.
type Service struct {
	reader     sheets.Reader
	store      docstore.Store
	sheetRange string
	logger     *zap.Logger
}

// NewService builds an importer reading sheetRange.
func NewService(reader sheets.Reader, store docstore.Store, sheetRange string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{reader: reader, store: store, sheetRange: sheetRange, logger: logger}
}

// Import writes every valid row as a permanent, verified spot keyed by its
// sheet id. Curated spots carry no day key and never match the day-scoped feed. Re-running it overwrites the same documents.
func (s *Service) Import(ctx context.Context) (Result, error) {
	rows, err := s.reader.ReadRange(ctx, s.sheetRange)
	if err != nil {
		return Result{}, fmt.Errorf("read curation sheet: %w", err)
	}

	var res Result
	for i, row := range rows {
		id, spot, err := parseRow(row)
		if err != nil {
			res.Skipped++
			s.logger.Debug("skipping curation row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		if err := s.store.Set(ctx, models.CollectionSpots, id, spot.Document()); err != nil {
			return res, fmt.Errorf("store curated spot %s: %w", id, err)
		}
		res.Imported++
	}

	s.logger.Info("curation import finished", zap.Int("imported", res.Imported), zap.Int("skipped", res.Skipped))
	return res, nil
}

func parseRow(row []interface{}) (string, models.Spot, error) {
	id := cell(row, colID)
	name := cell(row, colName)
	if id == "" || name == "" {
		return "", models.Spot{}, fmt.Errorf("id/name: %w", errMissingField)
	}

	lat, err := parseFloat(cell(row, colLat))
	if err != nil {
		return "", models.Spot{}, fmt.Errorf("lat: %w", err)
	}
	lng, err := parseFloat(cell(row, colLng))
	if err != nil {
		return "", models.Spot{}, fmt.Errorf("lng: %w", err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return "", models.Spot{}, errOutOfRange
	}

	var meals int64
	if raw := cell(row, colMeals); raw != "" {
		f, err := parseFloat(raw)
		if err != nil {
			return "", models.Spot{}, fmt.Errorf("meals: %w", err)
		}
		meals = int64(f)
	}

	foodType := cell(row, colFoodType)
	if foodType == "" {
		foodType = models.DefaultFoodType
	}

	return id, models.Spot{
		Name:        name,
		Location:    cell(row, colLocation),
		Lat:         lat,
		Lng:         lng,
		FoodType:    foodType,
		Time:        cell(row, colTime),
		Meals:       meals,
		Contact:     cell(row, colContact),
		IsPermanent: true,
		Verified:    true,
		Gold:        parseBool(cell(row, colGold)),
	}, nil
}

func cell(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func parseFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, errMissingField
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errBadNumber
	}
	return f, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "yes", "y", "1", "gold":
		return true
	}
	return false
}
