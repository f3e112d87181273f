package models

import "time"

// Destination is one entry of the destination catalog
// Table: destinations
// Unique by airport_code; likes is the global popularity counter
// Embedding stays NULL until the catalog backfill fills it
type Destination struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AirportCode string    `gorm:"size:3;not null;uniqueIndex:uk_destinations_airport_code" json:"airport_code"`
	City        string    `gorm:"size:128;not null" json:"city"`
	Country     string    `gorm:"size:128;not null" json:"country"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	Embedding   []float64 `gorm:"type:jsonb;serializer:json" json:"-"`
	Likes       int64     `gorm:"not null;default:0" json:"likes"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Destination) TableName() string { return "destinations" }

// HasEmbedding reports whether the destination can be ranked
func (d Destination) HasEmbedding() bool {
	return len(d.Embedding) > 0
}

// DestinationFilter represents filter criteria for destination queries
type DestinationFilter struct {
	ID           *uint
	AirportCode  *string
	AirportCodes []string
	Country      *string
	HasEmbedding *bool
}
