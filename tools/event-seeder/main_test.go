package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/flightmanagement/flight-archive/internal/models"
)

func TestGenerateEnvelope(t *testing.T) {
	// Run multiple times to cover the randomized branches
	for i := 0; i < 1000; i++ {
		env := generateEnvelope("FLIGHT_ARRIVED")

		if env["eventId"] == "" {
			t.Fatal("eventId missing")
		}
		if env["eventType"] != "FLIGHT_ARRIVED" {
			t.Errorf("Expected eventType FLIGHT_ARRIVED, got %v", env["eventType"])
		}
		if env["entityType"] != "FLIGHT" {
			t.Errorf("Expected entityType FLIGHT, got %v", env["entityType"])
		}

		payload, ok := env["payload"].(map[string]interface{})
		if !ok {
			t.Fatal("payload missing or wrong type")
		}
		if payload["status"] != "ARRIVED" {
			t.Errorf("Expected status ARRIVED, got %v", payload["status"])
		}
		if payload["flightNumber"] == "" {
			t.Error("flightNumber missing")
		}

		origin := payload["originAirport"].(map[string]interface{})
		dest := payload["destinationAirport"].(map[string]interface{})
		if origin["id"] == dest["id"] {
			t.Error("origin and destination airports must differ")
		}
	}
}

func TestGeneratedEnvelopeDecodes(t *testing.T) {
	// The generated envelope must survive the consumer's two-stage decode.
	for _, eventType := range eventTypes {
		data, err := json.Marshal(generateEnvelope(eventType))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		env, err := models.DecodeEnvelope(data)
		if err != nil {
			t.Fatalf("envelope for %s did not decode: %v", eventType, err)
		}

		snap, err := models.DecodeFlightPayload(env.Payload)
		if err != nil {
			t.Fatalf("payload for %s did not decode: %v", eventType, err)
		}
		if snap.FlightNumber == "" {
			t.Errorf("decoded payload for %s missing flight number", eventType)
		}
		if snap.FlightDate == nil {
			t.Errorf("decoded payload for %s missing flight date", eventType)
		}
	}
}

func TestGenerateEnvelopeEventTimeSpread(t *testing.T) {
	now := time.Now().UTC()
	for i := 0; i < 100; i++ {
		env := generateEnvelope("FLIGHT_CREATED")
		ts, err := time.Parse(time.RFC3339, env["eventTime"].(string))
		if err != nil {
			t.Fatalf("eventTime not RFC3339: %v", err)
		}
		if ts.After(now.Add(time.Minute)) {
			t.Errorf("eventTime in the future: %v", ts)
		}
		if ts.Before(now.Add(-*timeSpread - time.Minute)) {
			t.Errorf("eventTime outside spread: %v", ts)
		}
	}
}
