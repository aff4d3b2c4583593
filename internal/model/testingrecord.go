package model

import "time"

const (
	ReadingsLegacy     = 1
	ReadingsStructured = 2
)

// LegacyReadings is the flat shape stored in dedicated columns by schema version 1.
type LegacyReadings struct {
	Pressure    *string `json:"pressure"`
	Leak        *string `json:"leak"`
	Calibration *string `json:"calibration"`
	PassFail    *string `json:"passFail"`
}

// Readings is one side (before or after repair) of a testing record.
// Exactly one of Legacy or Structured is set, selected by Version.
// PassFail is resolved for both shapes.
type Readings struct {
	Version    int             `json:"version"`
	PassFail   string          `json:"passFail"`
	Legacy     *LegacyReadings `json:"legacy,omitempty"`
	Structured map[string]any  `json:"structured,omitempty"`
}

type TestingRecord struct {
	BaseModel
	JobCardID     int64      `db:"job_card_id" json:"jobCardId"`
	TestDate      *time.Time `db:"test_date" json:"testDate"`
	CategoryType  *string    `db:"category_type" json:"categoryType"`
	SchemaVersion int        `db:"schema_version" json:"schemaVersion"`
	TestedBy      *string    `db:"tested_by" json:"testedBy"`
	ApprovedBy    *string    `db:"approved_by" json:"approvedBy"`
	ApprovalDate  *time.Time `db:"approval_date" json:"approvalDate"`

	Before Readings `db:"-" json:"before"`
	After  Readings `db:"-" json:"after"`
}
