// pkg/model/activity.go
package model

import (
	"time"
)

// OverrideCode marks an activity whose end column carried a sentinel clock
type OverrideCode string

const (
	OverrideNone  OverrideCode = ""
	OverrideESP   OverrideCode = "ESP"
	OverrideBLOCO OverrideCode = "BLOCO"
)

// OperationalStatus is the timestamp-derived status shown on the dashboard
type OperationalStatus string

const (
	OperationalCanceledESP   OperationalStatus = "Canceled (ESP)"
	OperationalCanceledBLOCO OperationalStatus = "Canceled (BLOCO)"
	OperationalCompleted     OperationalStatus = "Completed"
	OperationalInProgress    OperationalStatus = "In Progress"
	OperationalScheduled     OperationalStatus = "Scheduled"
)

// ProductionStatus is the status derived from the source status code and quantities
type ProductionStatus string

const (
	ProductionCanceled   ProductionStatus = "CANCELED"
	ProductionInProgress ProductionStatus = "IN_PROGRESS"
	ProductionPartial    ProductionStatus = "PARTIAL"
	ProductionCompleted  ProductionStatus = "COMPLETED"
	ProductionNotStarted ProductionStatus = "NOT_STARTED"
)

// Activity is one canonical scheduled activity row
type Activity struct {
	ID      int64  `db:"id" json:"id"`
	RowHash string `db:"row_hash" json:"rowHash"`
	BatchID string `db:"batch_id" json:"batchId"`

	SourceID  string `db:"source_id" json:"sourceId"`
	SourceRow int    `db:"source_row" json:"sourceRow"`

	// Dimensions (trimmed, uppercased)
	Asset          string `db:"asset" json:"asset"`
	ActivityType   string `db:"activity_type" json:"activityType"`
	ScheduleKind   string `db:"schedule_kind" json:"scheduleKind"`
	ManagementUnit string `db:"management_unit" json:"managementUnit"`
	Section        string `db:"section" json:"section"`
	SubSection     string `db:"sub_section" json:"subSection"`

	PlannedLocation string `db:"planned_location" json:"plannedLocation"`
	ActualLocation  string `db:"actual_location" json:"actualLocation"`

	ActivityDate    time.Time  `db:"activity_date" json:"activityDate"`
	PlannedStart    *time.Time `db:"planned_start" json:"plannedStart"`
	PlannedEnd      *time.Time `db:"planned_end" json:"plannedEnd"`
	ActualStart     *time.Time `db:"actual_start" json:"actualStart"`
	ActualEnd       *time.Time `db:"actual_end" json:"actualEnd"`
	PlannedDuration *string    `db:"planned_duration" json:"plannedDuration"`
	ActualDuration  *string    `db:"actual_duration" json:"actualDuration"`

	PlannedQuantity *float64 `db:"planned_quantity" json:"plannedQuantity"`
	ActualQuantity  *float64 `db:"actual_quantity" json:"actualQuantity"`

	RawStatusCode     *int              `db:"raw_status_code" json:"rawStatusCode"`
	OperationalStatus OperationalStatus `db:"operational_status" json:"operationalStatus"`
	ProductionStatus  ProductionStatus  `db:"production_status" json:"productionStatus"`
	Status            ProductionStatus  `db:"status" json:"status"`
	OverrideCode      OverrideCode      `db:"override_code" json:"overrideCode"`
	DetailMessage     string            `db:"detail_message" json:"detailMessage"`

	IngestedAt time.Time `db:"ingested_at" json:"ingestedAt"`

	// SourceActualClock is the "HH:MM" actual start read from the source before
	// sentinel handling. It feeds the business key and is not persisted.
	SourceActualClock string `db:"-" json:"-"`
}

// MigrationLog is the single-row freshness record
type MigrationLog struct {
	ID            int       `db:"id"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
	BatchID       string    `db:"batch_id"`
	RowCount      int       `db:"row_count"`
}
