// Package models defines the event envelope, archive record, and KPI types
// shared across the archive service.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Entity types carried in event envelopes.
const (
	EntityFlight   = "FLIGHT"
	EntityAirline  = "AIRLINE"
	EntityAirport  = "AIRPORT"
	EntityAircraft = "AIRCRAFT"
	EntityCrew     = "CREW_MEMBER"
)

// Event types emitted by the upstream domain services.
const (
	EventCreated       = "CREATED"
	EventUpdated       = "UPDATED"
	EventStatusChanged = "STATUS_CHANGED"
	EventCancelled     = "CANCELLED"
	EventDeleted       = "DELETED"
)

// ErrMalformedEvent indicates a message that cannot be decoded into an
// envelope. Malformed messages are acknowledged and skipped so they never
// block a partition.
var ErrMalformedEvent = errors.New("malformed event")

// EventEnvelope is the wire shape of a domain change event. Payload is kept
// raw; the typed flight snapshot is decoded in a second stage keyed by
// EntityType.
type EventEnvelope struct {
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	EventTime  FlexTime        `json:"eventTime"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Payload    json.RawMessage `json:"payload"`
	Version    string          `json:"version"`
}

// DecodeEnvelope parses the envelope structure of a raw bus message.
// This is stage one of the two-stage decode; the typed payload is parsed
// separately with DecodeFlightPayload.
func DecodeEnvelope(data []byte) (*EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.EventID == "" {
		return nil, fmt.Errorf("%w: missing eventId", ErrMalformedEvent)
	}
	if env.EventType == "" {
		return nil, fmt.Errorf("%w: missing eventType", ErrMalformedEvent)
	}
	return &env, nil
}

// FlightSnapshot is the typed payload of a flight-domain event.
type FlightSnapshot struct {
	ID                 *int64       `json:"id"`
	FlightNumber       string       `json:"flightNumber"`
	FlightDate         *FlexDate    `json:"flightDate"`
	ScheduledDeparture *FlexTime    `json:"scheduledDeparture"`
	ScheduledArrival   *FlexTime    `json:"scheduledArrival"`
	ActualDeparture    *FlexTime    `json:"actualDeparture"`
	ActualArrival      *FlexTime    `json:"actualArrival"`
	Status             string       `json:"status"`
	Type               string       `json:"type"`
	PassengerCount     *int         `json:"passengerCount"`
	CargoWeight        *float64     `json:"cargoWeight"`
	GateNumber         *string      `json:"gateNumber"`
	DelayMinutes       *int         `json:"delayMinutes"`
	DelayReason        *string      `json:"delayReason"`
	Active             *bool        `json:"active"`
	Airline            *AirlineRef  `json:"airline"`
	Aircraft           *AircraftRef `json:"aircraft"`
	OriginAirport      *AirportRef  `json:"originAirport"`
	DestinationAirport *AirportRef  `json:"destinationAirport"`
}

// AirlineRef is the airline reference embedded in a flight snapshot.
type AirlineRef struct {
	ID       *int64 `json:"id"`
	Name     string `json:"name"`
	IataCode string `json:"iataCode"`
}

// AircraftRef is the aircraft reference embedded in a flight snapshot.
type AircraftRef struct {
	ID                 *int64 `json:"id"`
	RegistrationNumber string `json:"registrationNumber"`
	AircraftType       string `json:"aircraftType"`
}

// AirportRef is an airport reference embedded in a flight snapshot.
type AirportRef struct {
	ID       *int64 `json:"id"`
	IataCode string `json:"iataCode"`
	Name     string `json:"name"`
}

// DecodeFlightPayload parses the typed flight snapshot from a raw payload.
// Stage two of the envelope decode. A payload that is not valid JSON is
// malformed; a valid object with missing fields decodes to zero values and
// is validated by the archiver.
func DecodeFlightPayload(raw json.RawMessage) (*FlightSnapshot, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedEvent)
	}
	var snap FlightSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformedEvent, err)
	}
	return &snap, nil
}

// FlexTime unmarshals timestamps produced upstream either as RFC 3339
// strings or as Jackson-style integer arrays [year, month, day, hour,
// minute(, second)]. Date-only arrays decode to start of day.
type FlexTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *FlexTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := parseTimeString(s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}
	if data[0] == '[' {
		var parts []int
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		parsed, err := timeFromParts(parts)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}
	return fmt.Errorf("unsupported timestamp encoding: %s", data)
}

// MarshalJSON implements json.Marshaler.
func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

func parseTimeString(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func timeFromParts(parts []int) (time.Time, error) {
	switch {
	case len(parts) >= 6:
		return time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, time.UTC), nil
	case len(parts) >= 5:
		return time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], 0, 0, time.UTC), nil
	case len(parts) >= 3:
		return time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, fmt.Errorf("timestamp array too short: %v", parts)
	}
}

// FlexDate is a calendar date with the same flexible decoding as FlexTime.
type FlexDate struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *FlexDate) UnmarshalJSON(data []byte) error {
	var t FlexTime
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	d.Time = t.Time.Truncate(24 * time.Hour)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d FlexDate) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format("2006-01-02"))
}
