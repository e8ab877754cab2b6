// Package verification promotes spots once the crowd vouches for them.
package verification

import "github.com/iftarsharebd/iftarmap/internal/domain/models"

const (
	// MinVotes is the smallest tally that can verify a spot.
	MinVotes = 3
	// ApprovalPercent is the share of yes votes required, inclusive.
	ApprovalPercent = 85
)

// Status is the verification state of a spot. Transitions only move forward.
type Status string

const (
	StatusUnverified Status = "unverified"
	StatusVerified   Status = "verified"
	StatusGold       Status = "gold"
)

// StatusOf derives the state from stored flags. Gold implies verified, so a
// gold flag on an unverified record still reads as gold.
func StatusOf(s models.Spot) Status {
	switch {
	case s.Gold:
		return StatusGold
	case s.Verified:
		return StatusVerified
	default:
		return StatusUnverified
	}
}

// ShouldVerify reports whether a tally meets the threshold. Integer math keeps
// the 85% boundary exact.
func ShouldVerify(yes, no int64) bool {
	total := yes + no
	if total < MinVotes || yes < 0 || no < 0 {
		return false
	}
	return 100*yes >= ApprovalPercent*total
}

// AcceptsVotes reports whether the spot is still open for voting.
func AcceptsVotes(s models.Spot) bool {
	return !s.Verified && !s.Gold && !s.IsPermanent
}

// Promote returns true when a freshly read spot should be flipped to verified.
// It never demotes and is a no-op for spots already verified.
func Promote(s models.Spot) bool {
	if StatusOf(s) != StatusUnverified {
		return false
	}
	return ShouldVerify(s.VotesYes, s.VotesNo)
}
