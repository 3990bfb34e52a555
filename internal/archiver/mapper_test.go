package archiver

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightmanagement/flight-archive/internal/models"
)

func flightEnvelope(t *testing.T, payload string) *models.EventEnvelope {
	t.Helper()
	data := []byte(`{
		"eventId": "e-1",
		"eventType": "FLIGHT_DEPARTED",
		"eventTime": "2026-08-30T12:25:00Z",
		"entityType": "FLIGHT",
		"entityId": "42",
		"payload": ` + payload + `,
		"version": "1.0"
	}`)
	env, err := models.DecodeEnvelope(data)
	require.NoError(t, err)
	return env
}

func TestMapEventToArchive_FlightEvent(t *testing.T) {
	env := flightEnvelope(t, `{
		"id": 42,
		"flightNumber": "LH123",
		"flightDate": "2026-08-30",
		"scheduledDeparture": "2026-08-30T12:00:00Z",
		"actualDeparture": "2026-08-30T12:25:00Z",
		"status": "DEPARTED",
		"type": "PASSENGER",
		"passengerCount": 180,
		"cargoWeight": 5421.5,
		"gateNumber": "A12",
		"delayMinutes": 25,
		"delayReason": "WEATHER",
		"active": true,
		"airline": {"id": 1, "name": "Lufthansa", "iataCode": "LH"},
		"aircraft": {"id": 7, "registrationNumber": "D-AIXA", "aircraftType": "A350"},
		"originAirport": {"id": 1, "iataCode": "FRA", "name": "Frankfurt Airport"},
		"destinationAirport": {"id": 3, "iataCode": "LHR", "name": "Heathrow Airport"}
	}`)

	now := time.Date(2026, 8, 30, 12, 26, 0, 0, time.UTC)
	a := MapEventToArchive(env, now)

	assert.Equal(t, "e-1", a.EventID)
	assert.Equal(t, "FLIGHT_DEPARTED", a.EventType)
	assert.Equal(t, models.EntityFlight, a.EntityType)
	assert.Equal(t, "42", a.EntityID)
	assert.Equal(t, "1.0", a.Version)
	assert.Equal(t, now, a.ArchivedAt)

	require.NotNil(t, a.FlightNumber)
	assert.Equal(t, "LH123", *a.FlightNumber)
	require.NotNil(t, a.FlightDate)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), *a.FlightDate)
	require.NotNil(t, a.Status)
	assert.Equal(t, "DEPARTED", *a.Status)
	require.NotNil(t, a.DelayMinutes)
	assert.Equal(t, 25, *a.DelayMinutes)
	require.NotNil(t, a.CargoWeight)
	assert.Equal(t, 5421.5, *a.CargoWeight)

	require.NotNil(t, a.AirlineID)
	assert.Equal(t, int64(1), *a.AirlineID)
	require.NotNil(t, a.AirlineIataCode)
	assert.Equal(t, "LH", *a.AirlineIataCode)
	require.NotNil(t, a.AircraftRegistration)
	assert.Equal(t, "D-AIXA", *a.AircraftRegistration)
	require.NotNil(t, a.OriginAirportIata)
	assert.Equal(t, "FRA", *a.OriginAirportIata)
	require.NotNil(t, a.DestinationAirportIata)
	assert.Equal(t, "LHR", *a.DestinationAirportIata)

	// Raw payload is preserved for reprocessing
	assert.True(t, json.Valid([]byte(a.Payload)))
}

func TestMapEventToArchive_ReferenceEvent(t *testing.T) {
	data := []byte(`{
		"eventId": "e-ref-1",
		"eventType": "UPDATED",
		"eventTime": "2026-08-30T08:00:00Z",
		"entityType": "AIRLINE",
		"entityId": "1",
		"payload": {"id": 1, "name": "Lufthansa", "iataCode": "LH"},
		"version": "1.0"
	}`)
	env, err := models.DecodeEnvelope(data)
	require.NoError(t, err)

	a := MapEventToArchive(env, time.Now().UTC())

	// Envelope metadata archived, flight columns stay null
	assert.Equal(t, "e-ref-1", a.EventID)
	assert.Equal(t, models.EntityAirline, a.EntityType)
	assert.Nil(t, a.FlightNumber)
	assert.Nil(t, a.FlightDate)
	assert.Nil(t, a.Status)
	assert.Nil(t, a.AirlineID)
	assert.JSONEq(t, `{"id": 1, "name": "Lufthansa", "iataCode": "LH"}`, a.Payload)
}

func TestMapEventToArchive_MissingFields(t *testing.T) {
	// A flight payload missing required fields is archived anyway with
	// null columns.
	env := flightEnvelope(t, `{"id": 42}`)

	a := MapEventToArchive(env, time.Now().UTC())

	assert.Nil(t, a.FlightNumber)
	assert.Nil(t, a.FlightDate)
	assert.Nil(t, a.Status)
	require.NotNil(t, a.FlightID)
	assert.Equal(t, int64(42), *a.FlightID)
}

func TestMapEventToArchive_UndecodablePayload(t *testing.T) {
	env := flightEnvelope(t, `"just a string"`)

	a := MapEventToArchive(env, time.Now().UTC())

	// Envelope metadata and raw payload survive
	assert.Equal(t, "e-1", a.EventID)
	assert.Equal(t, `"just a string"`, a.Payload)
	assert.Nil(t, a.FlightNumber)
}

func TestMissingFlightFields(t *testing.T) {
	flightNumber := "LH123"
	date := time.Now()
	status := "ARRIVED"

	complete := &models.FlightArchive{
		FlightNumber: &flightNumber,
		FlightDate:   &date,
		Status:       &status,
	}
	assert.Empty(t, missingFlightFields(complete))

	partial := &models.FlightArchive{FlightNumber: &flightNumber}
	assert.ElementsMatch(t, []string{"flightDate", "status"}, missingFlightFields(partial))
}
