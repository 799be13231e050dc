package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"komoralink/internal/core"
)

// ReportRequestMessage asks the report worker to build one period statement.
// Token is the caller's wallet token; when empty the worker uses its
// service token.
type ReportRequestMessage struct {
	ReportID   string    `json:"reportId"`
	BusinessID string    `json:"businessId,omitempty"`
	Token      string    `json:"token,omitempty"`
	Unit       core.Unit `json:"unit"`
	StartDate  string    `json:"startDate"`
	EndDate    string    `json:"endDate"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewReportRequestMessage creates a message with a fresh report id.
func NewReportRequestMessage(businessID, token string, unit core.Unit, r core.Range) *ReportRequestMessage {
	return &ReportRequestMessage{
		ReportID:   uuid.NewString(),
		BusinessID: businessID,
		Token:      token,
		Unit:       unit,
		StartDate:  r.Start.Format(core.DateLayout),
		EndDate:    r.End.Format(core.DateLayout),
		Timestamp:  time.Now(),
	}
}

// Range parses the message dates as whole days in UTC.
func (m *ReportRequestMessage) Range() (core.Range, error) {
	return core.ParseDateRange(m.StartDate, m.EndDate, time.UTC)
}

// Validate checks the fields the worker needs.
func (m *ReportRequestMessage) Validate() error {
	if m.ReportID == "" {
		return errors.New("report id is required")
	}
	if _, err := core.ParseUnit(string(m.Unit)); err != nil {
		return err
	}
	if _, err := m.Range(); err != nil {
		return err
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ReportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportRequestMessageFromJSON decodes and validates a message.
func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report request: %w", err)
	}
	return &msg, nil
}
