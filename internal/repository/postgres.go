package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flightmanagement/flight-archive/internal/database"
	"github.com/flightmanagement/flight-archive/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

const archiveColumns = `
	id, event_id, event_type, event_time, entity_type, entity_id,
	flight_id, flight_number,
	airline_id, airline_name, airline_iata_code,
	aircraft_id, aircraft_registration, aircraft_type,
	origin_airport_id, origin_airport_iata, origin_airport_name,
	destination_airport_id, destination_airport_iata, destination_airport_name,
	flight_date, scheduled_departure, scheduled_arrival, actual_departure, actual_arrival,
	status, flight_type, passenger_count, cargo_weight, gate_number,
	delay_minutes, delay_reason, active, payload, version, archived_at`

// Insert persists one archive record. The unique index on event_id converts
// a concurrent double-insert into ErrDuplicateEvent for the second writer.
func (r *PostgresRepository) Insert(ctx context.Context, a *models.FlightArchive) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO flight_archives (
			event_id, event_type, event_time, entity_type, entity_id,
			flight_id, flight_number,
			airline_id, airline_name, airline_iata_code,
			aircraft_id, aircraft_registration, aircraft_type,
			origin_airport_id, origin_airport_iata, origin_airport_name,
			destination_airport_id, destination_airport_iata, destination_airport_name,
			flight_date, scheduled_departure, scheduled_arrival, actual_departure, actual_arrival,
			status, flight_type, passenger_count, cargo_weight, gate_number,
			delay_minutes, delay_reason, active, payload, version, archived_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35
		)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		a.EventID, a.EventType, a.EventTime, a.EntityType, a.EntityID,
		a.FlightID, a.FlightNumber,
		a.AirlineID, a.AirlineName, a.AirlineIataCode,
		a.AircraftID, a.AircraftRegistration, a.AircraftType,
		a.OriginAirportID, a.OriginAirportIata, a.OriginAirportName,
		a.DestinationAirportID, a.DestinationAirportIata, a.DestinationAirportName,
		a.FlightDate, a.ScheduledDeparture, a.ScheduledArrival, a.ActualDeparture, a.ActualArrival,
		a.Status, a.FlightType, a.PassengerCount, a.CargoWeight, a.GateNumber,
		a.DelayMinutes, a.DelayReason, a.Active, a.Payload, a.Version, a.ArchivedAt,
	).Scan(&a.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEvent
		}
		return storageErr("insert archive", err)
	}

	return nil
}

// ExistsByEventID reports whether an event id is already archived.
func (r *PostgresRepository) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM flight_archives WHERE event_id = $1)`,
		eventID,
	).Scan(&exists)
	if err != nil {
		return false, storageErr("exists by event id", err)
	}
	return exists, nil
}

// FindByFlightNumberAndDate returns the archived history of one flight on
// one day, ordered chronologically by event time regardless of arrival
// order.
func (r *PostgresRepository) FindByFlightNumberAndDate(ctx context.Context, flightNumber string, date time.Time) ([]*models.FlightArchive, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM flight_archives
		WHERE flight_number = $1 AND flight_date = $2
		ORDER BY event_time ASC
	`, archiveColumns)

	rows, err := r.pool.Query(ctx, query, flightNumber, date)
	if err != nil {
		return nil, storageErr("find by flight number", err)
	}
	defer rows.Close()

	return scanArchives(rows)
}

// FindByDateRange returns a page of archive records for the date range,
// most recent events first.
func (r *PostgresRepository) FindByDateRange(ctx context.Context, start, end time.Time, page, size int) (*models.PagedArchives, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM flight_archives WHERE flight_date BETWEEN $1 AND $2`,
		start, end,
	).Scan(&total)
	if err != nil {
		return nil, storageErr("count by date range", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM flight_archives
		WHERE flight_date BETWEEN $1 AND $2
		ORDER BY event_time DESC
		LIMIT $3 OFFSET $4
	`, archiveColumns)

	rows, err := r.pool.Query(ctx, query, start, end, size, page*size)
	if err != nil {
		return nil, storageErr("find by date range", err)
	}
	defer rows.Close()

	content, err := scanArchives(rows)
	if err != nil {
		return nil, err
	}

	return pagedResult(content, page, size, total), nil
}

// FindByAirlineAndDateRange returns all records for one airline in a date
// range.
func (r *PostgresRepository) FindByAirlineAndDateRange(ctx context.Context, airlineID int64, start, end time.Time) ([]*models.FlightArchive, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM flight_archives
		WHERE airline_id = $1 AND flight_date BETWEEN $2 AND $3
		ORDER BY event_time DESC
	`, archiveColumns)

	rows, err := r.pool.Query(ctx, query, airlineID, start, end)
	if err != nil {
		return nil, storageErr("find by airline", err)
	}
	defer rows.Close()

	return scanArchives(rows)
}

// FindByStatusAndDate returns all records with the given status on a date.
func (r *PostgresRepository) FindByStatusAndDate(ctx context.Context, status string, date time.Time) ([]*models.FlightArchive, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM flight_archives
		WHERE status = $1 AND flight_date = $2
		ORDER BY event_time DESC
	`, archiveColumns)

	rows, err := r.pool.Query(ctx, query, status, date)
	if err != nil {
		return nil, storageErr("find by status", err)
	}
	defer rows.Close()

	return scanArchives(rows)
}

// FindDelayedByDate returns records with delay_minutes above the threshold
// on a date.
func (r *PostgresRepository) FindDelayedByDate(ctx context.Context, minDelayMinutes int, date time.Time) ([]*models.FlightArchive, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM flight_archives
		WHERE delay_minutes > $1 AND flight_date = $2
		ORDER BY delay_minutes DESC
	`, archiveColumns)

	rows, err := r.pool.Query(ctx, query, minDelayMinutes, date)
	if err != nil {
		return nil, storageErr("find delayed", err)
	}
	defer rows.Close()

	return scanArchives(rows)
}

// FindRecent returns the most recent records by event time.
func (r *PostgresRepository) FindRecent(ctx context.Context, limit int) ([]*models.FlightArchive, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT %s FROM flight_archives
		ORDER BY event_time DESC
		LIMIT $1
	`, archiveColumns)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, storageErr("find recent", err)
	}
	defer rows.Close()

	return scanArchives(rows)
}

// GetDailyStats computes the day's aggregate counts over the latest event
// per flight, so a SCHEDULED then ARRIVED pair counts one flight. The delay
// average covers delayed flights only.
func (r *PostgresRepository) GetDailyStats(ctx context.Context, date time.Time) (*models.DailyStats, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `
		WITH latest AS (
			SELECT DISTINCT ON (flight_number) status, delay_minutes
			FROM flight_archives
			WHERE entity_type = 'FLIGHT'
			  AND flight_date = $1
			  AND flight_number IS NOT NULL
			ORDER BY flight_number, event_time DESC, archived_at DESC
		)
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'ARRIVED'),
			COUNT(*) FILTER (WHERE status = 'DEPARTED'),
			COUNT(*) FILTER (WHERE status = 'CANCELLED'),
			COUNT(*) FILTER (WHERE delay_minutes > 0),
			COALESCE(AVG(delay_minutes) FILTER (WHERE delay_minutes > 0), 0)
		FROM latest
	`

	stats := &models.DailyStats{Date: date}
	err := r.pool.QueryRow(ctx, query, date).Scan(
		&stats.TotalFlights,
		&stats.ArrivedFlights,
		&stats.DepartedFlights,
		&stats.CancelledFlights,
		&stats.DelayedFlights,
		&stats.AverageDelayMinutes,
	)
	if err != nil {
		return nil, storageErr("daily stats", err)
	}

	return stats, nil
}

// DeleteArchivedBefore removes records archived before the cutoff.
func (r *PostgresRepository) DeleteArchivedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := database.BulkContext(ctx)
	defer cancel()

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM flight_archives WHERE archived_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, storageErr("delete archived before", err)
	}
	return tag.RowsAffected(), nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanArchives(rows pgx.Rows) ([]*models.FlightArchive, error) {
	archives := []*models.FlightArchive{}
	for rows.Next() {
		a := &models.FlightArchive{}
		if err := rows.Scan(
			&a.ID, &a.EventID, &a.EventType, &a.EventTime, &a.EntityType, &a.EntityID,
			&a.FlightID, &a.FlightNumber,
			&a.AirlineID, &a.AirlineName, &a.AirlineIataCode,
			&a.AircraftID, &a.AircraftRegistration, &a.AircraftType,
			&a.OriginAirportID, &a.OriginAirportIata, &a.OriginAirportName,
			&a.DestinationAirportID, &a.DestinationAirportIata, &a.DestinationAirportName,
			&a.FlightDate, &a.ScheduledDeparture, &a.ScheduledArrival, &a.ActualDeparture, &a.ActualArrival,
			&a.Status, &a.FlightType, &a.PassengerCount, &a.CargoWeight, &a.GateNumber,
			&a.DelayMinutes, &a.DelayReason, &a.Active, &a.Payload, &a.Version, &a.ArchivedAt,
		); err != nil {
			return nil, storageErr("scan archive", err)
		}
		archives = append(archives, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate archives", err)
	}
	return archives, nil
}

func pagedResult(content []*models.FlightArchive, page, size int, total int64) *models.PagedArchives {
	totalPages := int((total + int64(size) - 1) / int64(size))
	return &models.PagedArchives{
		Content:       content,
		PageNumber:    page,
		PageSize:      size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         page == 0,
		Last:          page >= totalPages-1,
	}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}
