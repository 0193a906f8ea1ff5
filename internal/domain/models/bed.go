package models

import (
	"strings"
	"time"
)

// BedState is the lifecycle state of a grow bed.
type BedState string

const (
	BedStateActive      BedState = "active"
	BedStateInactive    BedState = "inactive"
	BedStateMaintenance BedState = "maintenance"
)

// Valid reports whether s is a known state.
func (s BedState) Valid() bool {
	switch s {
	case BedStateActive, BedStateInactive, BedStateMaintenance:
		return true
	}
	return false
}

// GrowBed is a cultivation unit within a nursery.
type GrowBed struct {
	ID              string      `bson:"id" json:"id"`
	NurseryID       string      `bson:"nurseryId" json:"nurseryId"`
	PlantType       string      `bson:"plantType" json:"plantType"`
	PlantedQuantity int         `bson:"plantedQuantity" json:"plantedQuantity"`
	Substrate       string      `bson:"substrate,omitempty" json:"substrate,omitempty"`
	ContainerSize   float64     `bson:"containerSize,omitempty" json:"containerSize,omitempty"`
	ContainerUnit   string      `bson:"containerUnit,omitempty" json:"containerUnit,omitempty"`
	State           BedState    `bson:"state" json:"state"`
	Statistics      *Statistics `bson:"statistics,omitempty" json:"statistics,omitempty"`
	CreatedAt       time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the fields required to persist a bed.
func (b GrowBed) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return NewInvalidInput("bed id is required")
	}
	if strings.ContainsRune(b.ID, '/') {
		return NewInvalidInput("bed id must not contain '/'")
	}
	if strings.TrimSpace(b.PlantType) == "" {
		return NewInvalidInput("plant type is required")
	}
	if b.PlantedQuantity < 0 {
		return NewInvalidInput("planted quantity must not be negative")
	}
	if !b.State.Valid() {
		return NewInvalidInput("unknown bed state %q", b.State)
	}
	return nil
}

// StatisticsFresh reports whether the cached snapshot can be reused at now.
// A zero maxAge accepts any existing snapshot.
func (b GrowBed) StatisticsFresh(now time.Time, maxAge time.Duration) bool {
	if b.Statistics == nil {
		return false
	}
	if maxAge == 0 {
		return true
	}
	return now.Sub(b.Statistics.ComputedAt) <= maxAge
}
