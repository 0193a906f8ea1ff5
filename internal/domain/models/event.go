package models

import "time"

// CuttingEvent is a dated record of cuttings harvested from one bed.
type CuttingEvent struct {
	ID          string     `bson:"id" json:"id"`
	Date        time.Time  `bson:"date" json:"date"`
	Quantity    int        `bson:"quantity" json:"quantity"`
	Notes       string     `bson:"notes,omitempty" json:"notes,omitempty"`
	Responsible string     `bson:"responsible,omitempty" json:"responsible,omitempty"`
	CreatedBy   string     `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedBy   string     `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt   *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`

	// Address of the owning bed, filled in on read and never persisted.
	NurseryID string `bson:"-" json:"nurseryId,omitempty"`
	BedID     string `bson:"-" json:"bedId,omitempty"`
}

// EventInput carries the caller supplied fields of a new cutting event.
// Date accepts YYYY-MM-DD or RFC3339.
type EventInput struct {
	Date        string `json:"date"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes,omitempty"`
	Responsible string `json:"responsible,omitempty"`
}

// EventUpdate is a partial update. Nil fields are left untouched. ID, CreatedBy
// and CreatedAt are immutable and only present so that attempts to change them
// can be rejected.
type EventUpdate struct {
	Date        *string    `json:"date,omitempty"`
	Quantity    *int       `json:"quantity,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	Responsible *string    `json:"responsible,omitempty"`
	ID          *string    `json:"id,omitempty"`
	CreatedBy   *string    `json:"createdBy,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// SortDirection orders listings.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// EventListOptions filters a per-bed listing. Range bounds are inclusive.
type EventListOptions struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	OrderBy   string
	Direction SortDirection
}

// NurseryEventListOptions filters a nursery-wide listing.
type NurseryEventListOptions struct {
	DateFrom          *time.Time
	DateTo            *time.Time
	Limit             int
	ResponsibleFilter string
}

// NurseryEvents is the result of a nursery-wide listing.
type NurseryEvents struct {
	Events []CuttingEvent `json:"events"`
	PartialFailure
}

// BatchItemError describes one rejected item of a batch, Index is 1-based.
type BatchItemError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// BatchResult reports the outcome of a batch creation.
type BatchResult struct {
	TotalRequested int              `json:"totalRequested"`
	Succeeded      int              `json:"succeeded"`
	Failed         int              `json:"failed"`
	CreatedIDs     []string         `json:"createdIds"`
	Errors         []BatchItemError `json:"errors"`
}
