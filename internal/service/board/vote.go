package board

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/domain/models"
	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
	"github.com/iftarsharebd/iftarmap/internal/service/verification"
)

// VoteResult is the spot as read back after the vote was applied.
type VoteResult struct {
	Spot      models.Spot         `json:"spot"`
	Status    verification.Status `json:"status"`
	Promoted  bool                `json:"promoted"`
	Persisted bool                `json:"persisted"`
}

// Vote records one yes/no vote from a session and promotes the spot when the
// fresh tally crosses the threshold. There is no compare-and-set on verified:
// concurrent voters may both write verified=true, which is harmless.
func (s *Service) Vote(ctx context.Context, sessionID, spotID string, in models.VoteInput) (VoteResult, error) {
	if err := models.Validate(in); err != nil {
		return VoteResult{}, err
	}
	if !s.sessions.MarkVoted(sessionID, spotID) {
		return VoteResult{}, ErrAlreadyVoted
	}

	rec, err := s.store.Get(ctx, models.CollectionSpots, spotID)
	if errors.Is(err, docstore.ErrNotFound) {
		s.sessions.Forget(sessionID, spotID)
		return VoteResult{}, ErrSpotNotFound
	}
	if err != nil {
		s.sessions.Forget(sessionID, spotID)
		s.logger.Warn("vote skipped, spot unreadable", zap.String("spot_id", spotID), zap.Error(err))
		return VoteResult{}, nil
	}

	spot, err := models.DecodeSpot(rec)
	if err != nil {
		s.sessions.Forget(sessionID, spotID)
		return VoteResult{}, ErrSpotNotFound
	}
	if !verification.AcceptsVotes(spot) {
		s.sessions.Forget(sessionID, spotID)
		return VoteResult{Spot: spot, Status: verification.StatusOf(spot), Persisted: true}, ErrVotingClosed
	}

	field := "votes_no"
	if in.Yes() {
		field = "votes_yes"
	}
	if err := s.store.IncrementField(ctx, models.CollectionSpots, spotID, field, 1); err != nil {
		s.sessions.Forget(sessionID, spotID)
		s.logger.Warn("vote not recorded", zap.String("spot_id", spotID), zap.Error(err))
		return VoteResult{Spot: spot, Status: verification.StatusOf(spot)}, nil
	}

	result := VoteResult{Spot: spot, Persisted: true}
	if in.Yes() {
		result.Spot.VotesYes++
	} else {
		result.Spot.VotesNo++
	}

	fresh, err := s.store.Get(ctx, models.CollectionSpots, spotID)
	if err == nil {
		if decoded, derr := models.DecodeSpot(fresh); derr == nil {
			result.Spot = decoded
		}
	} else {
		s.logger.Debug("re-read after vote failed, using local tally", zap.String("spot_id", spotID), zap.Error(err))
	}

	if verification.Promote(result.Spot) {
		if err := s.store.Update(ctx, models.CollectionSpots, spotID, docstore.Document{"verified": true}); err != nil {
			s.logger.Warn("failed to mark spot verified", zap.String("spot_id", spotID), zap.Error(err))
		} else {
			result.Spot.Verified = true
			result.Promoted = true
			s.logger.Info("spot verified by votes",
				zap.String("spot_id", spotID),
				zap.Int64("votes_yes", result.Spot.VotesYes),
				zap.Int64("votes_no", result.Spot.VotesNo))
		}
	}

	result.Status = verification.StatusOf(result.Spot)
	return result, nil
}

// FulfilResult reports a closed aid request.
type FulfilResult struct {
	ID        string `json:"id"`
	Persisted bool   `json:"persisted"`
}

// MarkFulfilled closes an aid request once. The record stays stored and drops
// out of the live view on its next snapshot.
func (s *Service) MarkFulfilled(ctx context.Context, sessionID, requestID string) (FulfilResult, error) {
	if !s.sessions.MarkFulfilled(sessionID, requestID) {
		return FulfilResult{ID: requestID}, ErrAlreadyFulfilled
	}

	rec, err := s.store.Get(ctx, models.CollectionHelp, requestID)
	if errors.Is(err, docstore.ErrNotFound) {
		s.sessions.ForgetFulfilled(sessionID, requestID)
		return FulfilResult{ID: requestID}, ErrRequestNotFound
	}
	if err != nil {
		s.sessions.ForgetFulfilled(sessionID, requestID)
		s.logger.Warn("fulfil skipped, request unreadable", zap.String("help_request_id", requestID), zap.Error(err))
		return FulfilResult{ID: requestID}, nil
	}
	if done, _ := rec.Data["fulfilled"].(bool); done {
		return FulfilResult{ID: requestID, Persisted: true}, ErrAlreadyFulfilled
	}

	if err := s.store.Update(ctx, models.CollectionHelp, requestID, docstore.Document{"fulfilled": true}); err != nil {
		s.sessions.ForgetFulfilled(sessionID, requestID)
		s.logger.Warn("failed to mark request fulfilled", zap.String("help_request_id", requestID), zap.Error(err))
		return FulfilResult{ID: requestID}, nil
	}

	s.bump(ctx, models.StatHelpFulfilled)
	return FulfilResult{ID: requestID, Persisted: true}, nil
}
