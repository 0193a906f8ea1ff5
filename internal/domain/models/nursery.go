package models

import (
	"strings"
	"time"
)

// Nursery is the top-level organizational unit owning grow beds.
type Nursery struct {
	ID          string          `bson:"id" json:"id"`
	Name        string          `bson:"name" json:"name"`
	Description string          `bson:"description,omitempty" json:"description,omitempty"`
	Owner       string          `bson:"owner,omitempty" json:"owner,omitempty"`
	Location    *Location       `bson:"location,omitempty" json:"location,omitempty"`
	Settings    NurserySettings `bson:"settings" json:"settings"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// Location is the optional physical address of a nursery.
type Location struct {
	Address   string   `bson:"address,omitempty" json:"address,omitempty"`
	Latitude  *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

// NurserySettings holds per-nursery configuration flags.
type NurserySettings struct {
	Active     bool `bson:"active" json:"active"`
	QRCodes    bool `bson:"qrCodes" json:"qrCodes"`
	PublicView bool `bson:"publicView" json:"publicView"`
}

// Validate checks the fields required to persist a nursery.
func (n Nursery) Validate() error {
	if strings.TrimSpace(n.ID) == "" {
		return NewInvalidInput("nursery id is required")
	}
	if strings.ContainsRune(n.ID, '/') {
		return NewInvalidInput("nursery id must not contain '/'")
	}
	if strings.TrimSpace(n.Name) == "" {
		return NewInvalidInput("nursery name is required")
	}
	return nil
}
