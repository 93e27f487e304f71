package models

import "time"

// Rack is a physical equipment rack with a fixed number of rack units.
type Rack struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Site      string    `json:"site,omitempty"`
	UHeight   int       `json:"u_height"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RackOccupancy pairs a rack with the total units currently occupied by
// installed devices.
type RackOccupancy struct {
	Rack
	OccupiedUnits int `json:"occupied_units"`
}

// Device is a piece of installed equipment. WarrantyExpiresAt is nil for
// devices without warranty tracking; those are invisible to warranty rules.
type Device struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	RackID            *int64     `json:"rack_id,omitempty"`
	UHeight           int        `json:"u_height"`
	WarrantyExpiresAt *time.Time `json:"warranty_expires_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// PowerFeed is an electrical feed supplying a rack, with a rated capacity
// in kilowatts.
type PowerFeed struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	RackID    *int64    `json:"rack_id,omitempty"`
	RatedKW   float64   `json:"rated_kw"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PowerReading is one timestamped power sample for a feed.
type PowerReading struct {
	ID         int64     `json:"id"`
	FeedID     int64     `json:"feed_id"`
	PowerKW    float64   `json:"power_kw"`
	RecordedAt time.Time `json:"recorded_at"`
}
