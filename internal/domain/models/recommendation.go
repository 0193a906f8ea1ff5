package models

// RecommendationCategory groups recommendations by intent.
type RecommendationCategory string

const (
	CategoryAction      RecommendationCategory = "action"
	CategoryImprovement RecommendationCategory = "improvement"
	CategoryFrequency   RecommendationCategory = "frequency"
	CategoryAlert       RecommendationCategory = "alert"
	CategoryState       RecommendationCategory = "state"
	CategoryPraise      RecommendationCategory = "praise"
)

// Priority orders recommendations, lower rank first.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityInfo   Priority = "info"
)

// Rank returns the sort position of the priority.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Recommendation is one human readable suggestion for a bed.
type Recommendation struct {
	Category RecommendationCategory `json:"category"`
	Priority Priority               `json:"priority"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
}

// BedRecommendations bundles the inputs and output of the rule engine.
type BedRecommendations struct {
	NurseryID       string           `json:"nurseryId"`
	BedID           string           `json:"bedId"`
	Statistics      Statistics       `json:"statistics"`
	Trend           TrendSummary     `json:"trend"`
	Recommendations []Recommendation `json:"recommendations"`
}
