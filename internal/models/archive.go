package models

import "time"

// Flight status values used for KPI filtering.
const (
	StatusScheduled = "SCHEDULED"
	StatusBoarding  = "BOARDING"
	StatusDeparted  = "DEPARTED"
	StatusArrived   = "ARRIVED"
	StatusDelayed   = "DELAYED"
	StatusCancelled = "CANCELLED"
)

// FlightArchive is the durable, deduplicated representation of one archived
// event. Event metadata is always present; the denormalized flight columns
// are null for reference-entity events and for flight payloads missing the
// corresponding fields. Business fields are never mutated after insert;
// corrections arrive as new events with new event ids.
type FlightArchive struct {
	ID         int64     `json:"id"`
	EventID    string    `json:"eventId"`
	EventType  string    `json:"eventType"`
	EventTime  time.Time `json:"eventTime"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`

	FlightID     *int64  `json:"flightId,omitempty"`
	FlightNumber *string `json:"flightNumber,omitempty"`

	AirlineID       *int64  `json:"airlineId,omitempty"`
	AirlineName     *string `json:"airlineName,omitempty"`
	AirlineIataCode *string `json:"airlineIataCode,omitempty"`

	AircraftID           *int64  `json:"aircraftId,omitempty"`
	AircraftRegistration *string `json:"aircraftRegistration,omitempty"`
	AircraftType         *string `json:"aircraftType,omitempty"`

	OriginAirportID        *int64  `json:"originAirportId,omitempty"`
	OriginAirportIata      *string `json:"originAirportIata,omitempty"`
	OriginAirportName      *string `json:"originAirportName,omitempty"`
	DestinationAirportID   *int64  `json:"destinationAirportId,omitempty"`
	DestinationAirportIata *string `json:"destinationAirportIata,omitempty"`
	DestinationAirportName *string `json:"destinationAirportName,omitempty"`

	FlightDate         *time.Time `json:"flightDate,omitempty"`
	ScheduledDeparture *time.Time `json:"scheduledDeparture,omitempty"`
	ScheduledArrival   *time.Time `json:"scheduledArrival,omitempty"`
	ActualDeparture    *time.Time `json:"actualDeparture,omitempty"`
	ActualArrival      *time.Time `json:"actualArrival,omitempty"`

	Status         *string  `json:"status,omitempty"`
	FlightType     *string  `json:"flightType,omitempty"`
	PassengerCount *int     `json:"passengerCount,omitempty"`
	CargoWeight    *float64 `json:"cargoWeight,omitempty"`
	GateNumber     *string  `json:"gateNumber,omitempty"`
	DelayMinutes   *int     `json:"delayMinutes,omitempty"`
	DelayReason    *string  `json:"delayReason,omitempty"`
	Active         *bool    `json:"active,omitempty"`

	// Payload preserves the complete event payload as received, so
	// unrecognized or partially mapped events can be reprocessed later.
	Payload string `json:"payload"`

	Version    string    `json:"version"`
	ArchivedAt time.Time `json:"archivedAt"`
}

// IsDelayed reports whether the archived flight carried a positive delay.
func (a *FlightArchive) IsDelayed() bool {
	return a.DelayMinutes != nil && *a.DelayMinutes > 0
}

// IsCompleted reports whether the archived flight reached ARRIVED status.
func (a *FlightArchive) IsCompleted() bool {
	return a.Status != nil && *a.Status == StatusArrived
}

// IsCancelled reports whether the archived flight was cancelled.
func (a *FlightArchive) IsCancelled() bool {
	return a.Status != nil && *a.Status == StatusCancelled
}

// FlightDuration returns the flight duration in minutes, preferring actual
// times over scheduled ones. Returns nil when neither pair is complete.
func (a *FlightArchive) FlightDuration() *int {
	if a.ActualDeparture != nil && a.ActualArrival != nil {
		minutes := int(a.ActualArrival.Sub(*a.ActualDeparture).Minutes())
		return &minutes
	}
	if a.ScheduledDeparture != nil && a.ScheduledArrival != nil {
		minutes := int(a.ScheduledArrival.Sub(*a.ScheduledDeparture).Minutes())
		return &minutes
	}
	return nil
}
