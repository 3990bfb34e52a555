package models

import "time"

// DailyStats holds the raw aggregate counts for one calendar day, computed
// over the latest event per flight so repeated events for the same flight
// are not double-counted.
type DailyStats struct {
	Date                time.Time `json:"date"`
	TotalFlights        int64     `json:"totalFlights"`
	ArrivedFlights      int64     `json:"arrivedFlights"`
	DepartedFlights     int64     `json:"departedFlights"`
	CancelledFlights    int64     `json:"cancelledFlights"`
	DelayedFlights      int64     `json:"delayedFlights"`
	AverageDelayMinutes float64   `json:"averageDelayMinutes"`
}

// DailyKpi is the derived, recomputable KPI snapshot for one day. The ratio
// fields are pure functions of the counts and are never stored
// independently; the snapshot is always safe to discard and recompute.
type DailyKpi struct {
	Date                time.Time `json:"date"`
	TotalFlights        int64     `json:"totalFlights"`
	ArrivedFlights      int64     `json:"arrivedFlights"`
	DepartedFlights     int64     `json:"departedFlights"`
	CancelledFlights    int64     `json:"cancelledFlights"`
	DelayedFlights      int64     `json:"delayedFlights"`
	AverageDelayMinutes float64   `json:"averageDelayMinutes"`
	OnTimePerformance   float64   `json:"onTimePerformance"`
	CancellationRate    float64   `json:"cancellationRate"`
	CompletionRate      float64   `json:"completionRate"`
}

// PagedArchives is a page of archive records with pagination metadata.
type PagedArchives struct {
	Content       []*FlightArchive `json:"content"`
	PageNumber    int              `json:"pageNumber"`
	PageSize      int              `json:"pageSize"`
	TotalElements int64            `json:"totalElements"`
	TotalPages    int              `json:"totalPages"`
	First         bool             `json:"first"`
	Last          bool             `json:"last"`
}
