package model

import "time"

// MilitaryMovement is one in-flight army or fleet movement as listed by the
// military advisor at a single point in time.
type MilitaryMovement struct {
	EventID          string `json:"event_id"`
	IsHostile        bool   `json:"is_hostile"`
	IsOwnForce       bool   `json:"is_own_force"`
	MissionType      string `json:"mission_type"`
	MissionIconClass string `json:"mission_icon_class"`
	MissionText      string `json:"mission_text"`
	OriginName       string `json:"origin_name"`
	OriginPlayer     string `json:"origin_player"`
	TargetName       string `json:"target_name"`
	TargetCityID     string `json:"target_city_id"`
	// TroopCount and FleetCount are nil when the game hides them (pirate raids).
	TroopCount       *int  `json:"troop_count,omitempty"`
	FleetCount       *int  `json:"fleet_count,omitempty"`
	HideUnits        bool  `json:"hide_units"`
	ArrivalTimestamp int64 `json:"arrival_timestamp"`
}

// SecondsUntilArrival returns the countdown relative to the server clock.
func (m MilitaryMovement) SecondsUntilArrival(serverNow int64) int64 {
	return m.ArrivalTimestamp - serverNow
}

// Snapshot is a point-in-time view of the account's military movements.
type Snapshot struct {
	ServerTime int64              `json:"server_time"`
	CityID     string             `json:"city_id"`
	Movements  []MilitaryMovement `json:"movements"`
}

// ThreatKind labels a hostile movement.
type ThreatKind string

const (
	PirateRaid   ThreatKind = "pirate_raid"
	PlayerAttack ThreatKind = "player_attack"
)

// Threat is a classified hostile movement with its countdown at detection time.
type Threat struct {
	Movement    MilitaryMovement `json:"movement"`
	Kind        ThreatKind       `json:"kind"`
	SecondsLeft int64            `json:"seconds_left"`
}

// Fortress identifies the building that converts capture points into crew strength.
type Fortress struct {
	CityID   string `json:"city_id"`
	CityName string `json:"city_name"`
	IslandID string `json:"island_id"`
	Position int    `json:"position"`
	Level    int    `json:"level"`
}

// FortressConversionState is the fortress economy read right before planning.
// It is never cached between defense attempts.
type FortressConversionState struct {
	AvailablePoints       int  `json:"available_points"`
	BaseConversionSeconds int  `json:"base_conversion_seconds"`
	SecondsPerUnit        int  `json:"seconds_per_unit"`
	PointsPerUnit         int  `json:"points_per_unit"`
	ConversionInProgress  bool `json:"conversion_in_progress"`
}

// ConversionPlan is the planner's output.
// PointsToSpend = UnitsToConvert * PointsPerUnit and
// EstimatedConversionSeconds = BaseConversionSeconds + UnitsToConvert * SecondsPerUnit.
type ConversionPlan struct {
	UnitsToConvert             int `json:"units_to_convert"`
	PointsToSpend              int `json:"points_to_spend"`
	EstimatedConversionSeconds int `json:"estimated_conversion_seconds"`
	TimeBufferSeconds          int `json:"time_buffer_seconds"`
}

// DefenseResult is produced once per defense attempt and reported immediately.
// Reason is set only when Success is false; Err keeps the typed cause.
type DefenseResult struct {
	Success        bool           `json:"success"`
	Reason         string         `json:"reason,omitempty"`
	Err            error          `json:"-"`
	Plan           ConversionPlan `json:"plan"`
	ArrivalSeconds int            `json:"arrival_seconds"`
	Fortress       *Fortress      `json:"fortress,omitempty"`
}

// AlertRecord is one journaled operator alert.
type AlertRecord struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	Kind      ThreatKind `json:"kind"`
	Message   string     `json:"message"`
	Defense   string     `json:"defense,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CycleStatus summarizes the most recent poll cycle.
type CycleStatus struct {
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	ServerTime  int64     `json:"server_time"`
	Hostile     int       `json:"hostile"`
	NewAlerts   int       `json:"new_alerts"`
	KnownEvents []string  `json:"known_events"`
	Error       string    `json:"error,omitempty"`
}
