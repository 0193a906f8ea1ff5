package models

import "time"

// RecentEventsLimit bounds the raw events kept inside a statistics snapshot.
const RecentEventsLimit = 10

// MonthBucket aggregates the events of one calendar month.
type MonthBucket struct {
	Count int `bson:"count" json:"count"`
	Total int `bson:"total" json:"total"`
}

// Statistics is the cached aggregate of a bed's cutting events. It is always
// replaced as a whole and never edited in place.
type Statistics struct {
	TotalCuttings     int                    `bson:"totalCuttings" json:"totalCuttings"`
	EventCount        int                    `bson:"eventCount" json:"eventCount"`
	AveragePerEvent   float64                `bson:"averagePerEvent" json:"averagePerEvent"`
	FirstEventDate    *time.Time             `bson:"firstEventDate,omitempty" json:"firstEventDate,omitempty"`
	LastEventDate     *time.Time             `bson:"lastEventDate,omitempty" json:"lastEventDate,omitempty"`
	DailyProductivity float64                `bson:"dailyProductivity" json:"dailyProductivity"`
	Monthly           map[string]MonthBucket `bson:"monthly" json:"monthly"`
	RecentEvents      []CuttingEvent         `bson:"recentEvents" json:"recentEvents"`
	ComputedAt        time.Time              `bson:"computedAt" json:"computedAt"`
}
