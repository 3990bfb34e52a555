package archiver

import (
	"log/slog"
	"time"

	"github.com/flightmanagement/flight-archive/internal/metrics"
	"github.com/flightmanagement/flight-archive/internal/models"
)

// MapEventToArchive turns a decoded envelope into an archive record.
// Flight-domain payloads are denormalized into scalar columns; every other
// entity type is archived with null flight columns and the raw payload
// preserved for later reprocessing. A flight payload missing required
// fields is still archived (the ledger favors completeness over strict
// validation) but logged for operator follow-up.
func MapEventToArchive(env *models.EventEnvelope, now time.Time) *models.FlightArchive {
	archive := &models.FlightArchive{
		EventID:    env.EventID,
		EventType:  env.EventType,
		EventTime:  env.EventTime.Time,
		EntityType: env.EntityType,
		EntityID:   env.EntityID,
		Payload:    string(env.Payload),
		Version:    env.Version,
		ArchivedAt: now,
	}

	if env.EntityType != models.EntityFlight {
		return archive
	}

	snap, err := models.DecodeFlightPayload(env.Payload)
	if err != nil {
		// Flight event with an undecodable payload: keep the envelope
		// metadata and raw payload so the event is replayable.
		slog.Warn("flight payload not decodable, archiving envelope only",
			slog.String("event_id", env.EventID),
			slog.String("error", err.Error()))
		metrics.ValidationFailures.Inc()
		return archive
	}

	archive.FlightID = snap.ID
	if snap.FlightNumber != "" {
		archive.FlightNumber = &snap.FlightNumber
	}
	if snap.FlightDate != nil {
		archive.FlightDate = timePtr(snap.FlightDate.Time)
	}
	archive.ScheduledDeparture = flexPtr(snap.ScheduledDeparture)
	archive.ScheduledArrival = flexPtr(snap.ScheduledArrival)
	archive.ActualDeparture = flexPtr(snap.ActualDeparture)
	archive.ActualArrival = flexPtr(snap.ActualArrival)
	if snap.Status != "" {
		archive.Status = &snap.Status
	}
	if snap.Type != "" {
		archive.FlightType = &snap.Type
	}
	archive.PassengerCount = snap.PassengerCount
	archive.CargoWeight = snap.CargoWeight
	archive.GateNumber = snap.GateNumber
	archive.DelayMinutes = snap.DelayMinutes
	archive.DelayReason = snap.DelayReason
	archive.Active = snap.Active

	if airline := snap.Airline; airline != nil {
		archive.AirlineID = airline.ID
		if airline.Name != "" {
			archive.AirlineName = &airline.Name
		}
		if airline.IataCode != "" {
			archive.AirlineIataCode = &airline.IataCode
		}
	}
	if aircraft := snap.Aircraft; aircraft != nil {
		archive.AircraftID = aircraft.ID
		if aircraft.RegistrationNumber != "" {
			archive.AircraftRegistration = &aircraft.RegistrationNumber
		}
		if aircraft.AircraftType != "" {
			archive.AircraftType = &aircraft.AircraftType
		}
	}
	if origin := snap.OriginAirport; origin != nil {
		archive.OriginAirportID = origin.ID
		if origin.IataCode != "" {
			archive.OriginAirportIata = &origin.IataCode
		}
		if origin.Name != "" {
			archive.OriginAirportName = &origin.Name
		}
	}
	if dest := snap.DestinationAirport; dest != nil {
		archive.DestinationAirportID = dest.ID
		if dest.IataCode != "" {
			archive.DestinationAirportIata = &dest.IataCode
		}
		if dest.Name != "" {
			archive.DestinationAirportName = &dest.Name
		}
	}

	if missing := missingFlightFields(archive); len(missing) > 0 {
		slog.Warn("flight payload missing required fields, archived with nulls",
			slog.String("event_id", env.EventID),
			slog.Any("missing", missing))
		metrics.ValidationFailures.Inc()
	}

	return archive
}

func missingFlightFields(a *models.FlightArchive) []string {
	missing := []string{}
	if a.FlightNumber == nil {
		missing = append(missing, "flightNumber")
	}
	if a.FlightDate == nil {
		missing = append(missing, "flightDate")
	}
	if a.Status == nil {
		missing = append(missing, "status")
	}
	return missing
}

func flexPtr(t *models.FlexTime) *time.Time {
	if t == nil || t.Time.IsZero() {
		return nil
	}
	return timePtr(t.Time)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
