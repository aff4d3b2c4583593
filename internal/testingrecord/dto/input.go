package dto

import "time"

// ReadingsInput is one side of a test. A non-nil Data stores the side as a
// structured document; otherwise the flat fields are stored.
type ReadingsInput struct {
	Pressure    *string
	Leak        *string
	Calibration *string
	PassFail    *string
	Data        map[string]any
}

func (r ReadingsInput) Structured() bool {
	return r.Data != nil
}

type CreateRecordInput struct {
	JobCardID    int64
	TestDate     *time.Time
	CategoryType string
	TestedBy     string
	ApprovedBy   string
	ApprovalDate *time.Time
	Before       ReadingsInput
	After        ReadingsInput
}
