// event-seeder publishes synthetic flight events to the archive event bus.
// Useful for local load testing and for exercising the duplicate and
// poison-message paths of the consumer.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	natsclient "github.com/flightmanagement/flight-archive/internal/messaging/nats"
)

var (
	natsURL       = flag.String("nats-url", "nats://localhost:4222", "NATS server URL")
	count         = flag.Int("count", 100, "Number of events to generate")
	interval      = flag.Duration("interval", 50*time.Millisecond, "Interval between events")
	timeSpread    = flag.Duration("time-spread", 24*time.Hour, "Spread event times over this period (0 for now)")
	duplicateRate = flag.Float64("duplicate-rate", 0.05, "Fraction of events re-published with the same event id")
	malformedRate = flag.Float64("malformed-rate", 0, "Fraction of events published as invalid JSON")
)

var (
	eventTypes = []string{"FLIGHT_CREATED", "FLIGHT_UPDATED", "FLIGHT_DEPARTED", "FLIGHT_ARRIVED", "FLIGHT_CANCELLED", "FLIGHT_DELAYED"}
	statuses   = map[string]string{
		"FLIGHT_CREATED":   "SCHEDULED",
		"FLIGHT_UPDATED":   "SCHEDULED",
		"FLIGHT_DEPARTED":  "DEPARTED",
		"FLIGHT_ARRIVED":   "ARRIVED",
		"FLIGHT_CANCELLED": "CANCELLED",
		"FLIGHT_DELAYED":   "DELAYED",
	}
	airlines = []struct {
		ID   int64
		Name string
		Iata string
	}{
		{1, "Lufthansa", "LH"},
		{2, "Air France", "AF"},
		{3, "British Airways", "BA"},
		{4, "KLM", "KL"},
		{5, "Iberia", "IB"},
	}
	airports = []struct {
		ID   int64
		Iata string
		Name string
	}{
		{1, "FRA", "Frankfurt Airport"},
		{2, "CDG", "Charles de Gaulle Airport"},
		{3, "LHR", "Heathrow Airport"},
		{4, "AMS", "Amsterdam Schiphol"},
		{5, "MAD", "Madrid Barajas"},
	}
)

func main() {
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	log.Printf("Starting event seeder:")
	log.Printf("  NATS URL: %s", *natsURL)
	log.Printf("  Event count: %d", *count)
	log.Printf("  Interval: %v", *interval)
	log.Printf("  Duplicate rate: %.2f", *duplicateRate)
	log.Printf("  Malformed rate: %.2f", *malformedRate)

	js, err := natsclient.NewJetStreamClient(natsclient.Config{
		URL:           *natsURL,
		Name:          "event-seeder",
		MaxReconnects: 5,
		ReconnectWait: time.Second,
		Timeout:       5 * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer js.Close()

	ctx := context.Background()
	if _, err := js.CreateOrUpdateStream(ctx, natsclient.FlightEventsStream); err != nil {
		log.Fatalf("Failed to provision stream: %v", err)
	}

	successCount := 0
	failCount := 0

	for i := 0; i < *count; i++ {
		eventType := eventTypes[rand.Intn(len(eventTypes))]
		subject := fmt.Sprintf("flight.events.%s", eventType)

		var data []byte
		if rand.Float64() < *malformedRate {
			data = []byte(`{"eventId": truncated`)
		} else {
			data, err = json.Marshal(generateEnvelope(eventType))
			if err != nil {
				log.Printf("Failed to marshal event: %v", err)
				failCount++
				continue
			}
		}

		if _, err := js.PublishSync(ctx, subject, data); err != nil {
			log.Printf("Failed to publish event: %v", err)
			failCount++
		} else {
			successCount++
			// Republish verbatim to exercise the dedup path.
			if rand.Float64() < *duplicateRate {
				if _, err := js.PublishSync(ctx, subject, data); err == nil {
					successCount++
				}
			}
		}

		if successCount > 0 && successCount%100 == 0 {
			log.Printf("Progress: %d/%d events published", successCount, *count)
		}

		if *interval > 0 && i < *count-1 {
			time.Sleep(*interval)
		}
	}

	log.Printf("Seeding complete:")
	log.Printf("  Success: %d events", successCount)
	log.Printf("  Failed: %d events", failCount)
}

func generateEnvelope(eventType string) map[string]interface{} {
	now := time.Now().UTC()

	eventTime := now
	if *timeSpread > 0 {
		eventTime = now.Add(-time.Duration(rand.Int63n(int64(*timeSpread))))
	}

	airline := airlines[rand.Intn(len(airlines))]
	origin := airports[rand.Intn(len(airports))]
	dest := airports[rand.Intn(len(airports))]
	for dest.ID == origin.ID {
		dest = airports[rand.Intn(len(airports))]
	}

	flightNumber := fmt.Sprintf("%s%d", airline.Iata, gofakeit.Number(100, 9999))
	flightDate := eventTime.Format("2006-01-02")
	status := statuses[eventType]

	departure := eventTime.Truncate(time.Hour)
	arrival := departure.Add(time.Duration(gofakeit.Number(1, 10)) * time.Hour)

	delayMinutes := 0
	delayReason := ""
	if eventType == "FLIGHT_DELAYED" || (status == "ARRIVED" && rand.Float64() < 0.3) {
		delayMinutes = gofakeit.Number(5, 180)
		delayReason = gofakeit.RandomString([]string{"WEATHER", "TECHNICAL", "CREW", "AIR_TRAFFIC", "SECURITY"})
	}

	flightID := int64(gofakeit.Number(1, 100000))

	payload := map[string]interface{}{
		"id":                 flightID,
		"flightNumber":       flightNumber,
		"flightDate":         flightDate,
		"status":             status,
		"type":               gofakeit.RandomString([]string{"PASSENGER", "CARGO"}),
		"scheduledDeparture": departure.Format(time.RFC3339),
		"scheduledArrival":   arrival.Format(time.RFC3339),
		"passengerCount":     gofakeit.Number(50, 350),
		"cargoWeight":        gofakeit.Float64Range(500, 20000),
		"gateNumber":         fmt.Sprintf("%s%d", gofakeit.RandomString([]string{"A", "B", "C", "D"}), gofakeit.Number(1, 40)),
		"delayMinutes":       delayMinutes,
		"active":             status != "CANCELLED",
		"airline": map[string]interface{}{
			"id":       airline.ID,
			"name":     airline.Name,
			"iataCode": airline.Iata,
		},
		"aircraft": map[string]interface{}{
			"id":                 int64(gofakeit.Number(1, 500)),
			"registrationNumber": fmt.Sprintf("D-%s", gofakeit.LetterN(4)),
			"aircraftType":       gofakeit.RandomString([]string{"A320", "A350", "B737", "B777", "E190"}),
		},
		"originAirport": map[string]interface{}{
			"id":       origin.ID,
			"iataCode": origin.Iata,
			"name":     origin.Name,
		},
		"destinationAirport": map[string]interface{}{
			"id":       dest.ID,
			"iataCode": dest.Iata,
			"name":     dest.Name,
		},
	}
	if status == "DEPARTED" || status == "ARRIVED" {
		payload["actualDeparture"] = departure.Add(time.Duration(delayMinutes) * time.Minute).Format(time.RFC3339)
	}
	if status == "ARRIVED" {
		payload["actualArrival"] = arrival.Add(time.Duration(delayMinutes) * time.Minute).Format(time.RFC3339)
	}
	if delayReason != "" {
		payload["delayReason"] = delayReason
	}

	return map[string]interface{}{
		"eventId":    uuid.New().String(),
		"eventType":  eventType,
		"eventTime":  eventTime.Format(time.RFC3339),
		"entityType": "FLIGHT",
		"entityId":   fmt.Sprintf("%d", flightID),
		"payload":    payload,
		"version":    "1.0",
	}
}
