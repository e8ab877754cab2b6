package models

// Collection names in the document store.
const (
	CollectionSpots      = "iftar_locations"
	CollectionRoutes     = "eid_routes"
	CollectionHelp       = "help_requests"
	CollectionVolunteers = "volunteers"
	CollectionStats      = "stats"

	// DailyStatsID is the identifier of the singleton counter document.
	DailyStatsID = "daily"
)

// RouteType distinguishes congestion reports from suggested alternatives.
type RouteType string

const (
	RouteJam      RouteType = "jam"
	RouteShortcut RouteType = "shortcut"
)

// Level is the shared low/medium/high scale used by crowd level and urgency.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Rank orders levels for storage queries: high=3, medium=2, low=1, unknown=0.
func (l Level) Rank() int64 {
	switch l {
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	case LevelLow:
		return 1
	default:
		return 0
	}
}

// TargetGroup is the population a volunteer pledges to serve.
type TargetGroup string

const (
	TargetRickshaw TargetGroup = "rickshaw"
	TargetHomeless TargetGroup = "homeless"
	TargetOrphan   TargetGroup = "orphan"
	TargetWidow    TargetGroup = "widow"
	TargetAll      TargetGroup = "all"
)

// Source tells consumers whether a snapshot came from the live store or the bundled dataset.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// DefaultFoodType is shown for spots that do not name what they serve.
const DefaultFoodType = "সব ধরন"
