package models

import "time"

// BedSummary is the per-bed row used by rankings.
type BedSummary struct {
	NurseryID         string     `json:"nurseryId"`
	NurseryName       string     `json:"nurseryName,omitempty"`
	BedID             string     `json:"bedId"`
	PlantType         string     `json:"plantType"`
	State             BedState   `json:"state"`
	PlantedQuantity   int        `json:"plantedQuantity"`
	TotalCuttings     int        `json:"totalCuttings"`
	EventCount        int        `json:"eventCount"`
	AveragePerEvent   float64    `json:"averagePerEvent"`
	DailyProductivity float64    `json:"dailyProductivity"`
	LastEventDate     *time.Time `json:"lastEventDate,omitempty"`
}

// NurseryTotals sums statistics across the beds of one nursery.
type NurseryTotals struct {
	BedCount              int     `json:"bedCount"`
	TotalCuttings         int     `json:"totalCuttings"`
	TotalEvents           int     `json:"totalEvents"`
	AverageCuttingsPerBed float64 `json:"averageCuttingsPerBed"`
	AverageEventsPerBed   float64 `json:"averageEventsPerBed"`
	AveragePerEvent       float64 `json:"averagePerEvent"`
}

// Rankings holds the fixed ranking views of a nursery.
type Rankings struct {
	TopByTotal     []BedSummary `json:"topByTotal"`
	TopByAverage   []BedSummary `json:"topByAverage"`
	TopByFrequency []BedSummary `json:"topByFrequency"`
	BottomByTotal  []BedSummary `json:"bottomByTotal"`
}

// PlantTypeGroup rolls up beds sharing a plant type.
type PlantTypeGroup struct {
	PlantType     string  `json:"plantType"`
	BedCount      int     `json:"bedCount"`
	TotalCuttings int     `json:"totalCuttings"`
	EventCount    int     `json:"eventCount"`
	AveragePerBed float64 `json:"averagePerBed"`
}

// NurseryComparative is the result of comparing all beds of a nursery.
type NurseryComparative struct {
	NurseryID          string           `json:"nurseryId"`
	Totals             NurseryTotals    `json:"nurseryTotals"`
	Rankings           Rankings         `json:"rankings"`
	PlantTypeBreakdown []PlantTypeGroup `json:"plantTypeBreakdown"`
	AllBedsSorted      []BedSummary     `json:"allBedsSorted"`
	PartialFailure
}

// Granularity selects the period size used for trend bucketing.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// TrendClass is the coarse direction derived from two-half comparison.
type TrendClass string

const (
	TrendGrowing   TrendClass = "growing"
	TrendShrinking TrendClass = "shrinking"
	TrendStable    TrendClass = "stable"
	TrendNoData    TrendClass = "no_data"
)

// PeriodBucket aggregates events of one period.
type PeriodBucket struct {
	Period        string  `json:"period"`
	TotalCuttings int     `json:"totalCuttings"`
	EventCount    int     `json:"eventCount"`
	AveragePerCut float64 `json:"averagePerCut"`
}

// TrendSummary describes the returned buckets.
type TrendSummary struct {
	PeriodCount      int        `json:"periodCount"`
	TotalCuttings    int        `json:"totalCuttings"`
	AveragePerPeriod float64    `json:"averagePerPeriod"`
	MaxPeriodTotal   int        `json:"maxPeriodTotal"`
	MinPeriodTotal   int        `json:"minPeriodTotal"`
	Trend            TrendClass `json:"trend"`
	ChangePercent    float64    `json:"changePercent"`
}

// TrendAnalysis is the result of a trend query.
type TrendAnalysis struct {
	NurseryID   string         `json:"nurseryId"`
	BedID       string         `json:"bedId,omitempty"`
	Granularity Granularity    `json:"granularity"`
	Buckets     []PeriodBucket `json:"buckets"`
	Summary     TrendSummary   `json:"summary"`
	PartialFailure
}

// NurseryCuttingsRow is one bar of the esquejes-per-nursery chart.
type NurseryCuttingsRow struct {
	NurseryID     string `json:"nurseryId"`
	Name          string `json:"name"`
	TotalCuttings int    `json:"totalCuttings"`
	EventCount    int    `json:"eventCount"`
	Color         string `json:"color"`
}

// NurseryCuttingsChart is the result of the esquejes-per-nursery query.
type NurseryCuttingsChart struct {
	Period string               `json:"period"`
	From   time.Time            `json:"from"`
	To     time.Time            `json:"to"`
	Rows   []NurseryCuttingsRow `json:"rows"`
	PartialFailure
}

// RankedBed is a bed row with its 1-based rank.
type RankedBed struct {
	Rank int `json:"rank"`
	BedSummary
}

// TopBeds is the global productive bed ranking.
type TopBeds struct {
	Period    string      `json:"period"`
	Criterion string      `json:"criterion"`
	Beds      []RankedBed `json:"beds"`
	PartialFailure
}

// GlobalSummary holds cross-nursery totals.
type GlobalSummary struct {
	Period                      string  `json:"period"`
	NurseryCount                int     `json:"nurseryCount"`
	BedCount                    int     `json:"bedCount"`
	TotalPlanted                int     `json:"totalPlanted"`
	PlantTypeCount              int     `json:"plantTypeCount"`
	PeriodCuttings              int     `json:"periodCuttings"`
	AllTimeCuttings             int     `json:"allTimeCuttings"`
	AverageCuttingsPerBed       float64 `json:"averageCuttingsPerBed"`
	AveragePeriodCuttingsPerBed float64 `json:"averagePeriodCuttingsPerBed"`
	PartialFailure
}

// RefreshReport is the result of recomputing every snapshot.
type RefreshReport struct {
	Refreshed int `json:"refreshed"`
	PartialFailure
}

// SummarizeBed builds the ranking row of a bed from its statistics.
func SummarizeBed(bed GrowBed, stats Statistics) BedSummary {
	return BedSummary{
		NurseryID:         bed.NurseryID,
		BedID:             bed.ID,
		PlantType:         bed.PlantType,
		State:             bed.State,
		PlantedQuantity:   bed.PlantedQuantity,
		TotalCuttings:     stats.TotalCuttings,
		EventCount:        stats.EventCount,
		AveragePerEvent:   stats.AveragePerEvent,
		DailyProductivity: stats.DailyProductivity,
		LastEventDate:     stats.LastEventDate,
	}
}
