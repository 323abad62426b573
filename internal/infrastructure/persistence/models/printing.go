// Package models contains the GORM models and their mappings to domain
// types.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warecore/printd/internal/domain/printing"
	"github.com/warecore/printd/internal/domain/shared"
)

// PrintJobModel is the GORM model for the print_jobs table
type PrintJobModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	OrgID         uuid.UUID  `gorm:"column:org_id;type:uuid;not null;index"`
	EntityType    string     `gorm:"column:entity_type;type:varchar(50);not null"`
	EntityIDs     string     `gorm:"column:entity_ids;type:text;not null"` // JSON array
	Options       string     `gorm:"type:text"`                            // JSON object
	PrinterID     *uuid.UUID `gorm:"column:printer_id;type:uuid"`
	RequestedBy   *uuid.UUID `gorm:"column:requested_by;type:uuid"`
	RequesterName string     `gorm:"column:requester_name;type:varchar(100)"`
	Status        string     `gorm:"type:varchar(20);not null;default:'QUEUED';index"`
	StartedAt     *time.Time `gorm:"column:started_at"`
	FinishedAt    *time.Time `gorm:"column:finished_at"`
	ArtifactPath  string     `gorm:"column:artifact_path;type:text"`
	ErrorCode     string     `gorm:"column:error_code;type:varchar(50)"`
	ErrorMessage  string     `gorm:"column:error_message;type:text"`
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
}

// TableName returns the table name for PrintJobModel
func (PrintJobModel) TableName() string {
	return "print_jobs"
}

// ToDomain converts PrintJobModel to a domain PrintJob
func (m *PrintJobModel) ToDomain() (*printing.PrintJob, error) {
	var entityIDs []string
	if err := json.Unmarshal([]byte(m.EntityIDs), &entityIDs); err != nil {
		return nil, fmt.Errorf("malformed entity_ids for job %s: %w", m.ID, err)
	}

	options := map[string]any{}
	if m.Options != "" {
		if err := json.Unmarshal([]byte(m.Options), &options); err != nil {
			return nil, fmt.Errorf("malformed options for job %s: %w", m.ID, err)
		}
	}

	return &printing.PrintJob{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		EntityType:    m.EntityType,
		EntityIDs:     entityIDs,
		Options:       options,
		OrgID:         m.OrgID,
		PrinterID:     m.PrinterID,
		RequestedBy:   m.RequestedBy,
		RequesterName: m.RequesterName,
		Status:        printing.JobStatus(m.Status),
		StartedAt:     m.StartedAt,
		FinishedAt:    m.FinishedAt,
		ArtifactPath:  m.ArtifactPath,
		ErrorCode:     m.ErrorCode,
		ErrorMessage:  m.ErrorMessage,
	}, nil
}

// PrintJobModelFromDomain creates a PrintJobModel from a domain PrintJob
func PrintJobModelFromDomain(job *printing.PrintJob) (*PrintJobModel, error) {
	entityIDs, err := json.Marshal(job.EntityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entity ids: %w", err)
	}
	options, err := json.Marshal(job.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	return &PrintJobModel{
		ID:            job.ID,
		OrgID:         job.OrgID,
		EntityType:    job.EntityType,
		EntityIDs:     string(entityIDs),
		Options:       string(options),
		PrinterID:     job.PrinterID,
		RequestedBy:   job.RequestedBy,
		RequesterName: job.RequesterName,
		Status:        string(job.Status),
		StartedAt:     job.StartedAt,
		FinishedAt:    job.FinishedAt,
		ArtifactPath:  job.ArtifactPath,
		ErrorCode:     job.ErrorCode,
		ErrorMessage:  job.ErrorMessage,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}, nil
}

// PrinterModel is the GORM model for the printers table
type PrinterModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Driver    string    `gorm:"type:varchar(20)"`
	Host      string    `gorm:"type:varchar(255)"`
	Port      int       `gorm:"not null;default:0"`
	Config    string    `gorm:"type:text"` // JSON object
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for PrinterModel
func (PrinterModel) TableName() string {
	return "printers"
}

// ToDomain converts PrinterModel to a domain Printer
func (m *PrinterModel) ToDomain() (*printing.Printer, error) {
	config := map[string]string{}
	if m.Config != "" {
		if err := json.Unmarshal([]byte(m.Config), &config); err != nil {
			return nil, fmt.Errorf("malformed config for printer %s: %w", m.ID, err)
		}
	}

	return &printing.Printer{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Name:   m.Name,
		Driver: printing.DriverTag(m.Driver),
		Host:   m.Host,
		Port:   m.Port,
		Config: config,
	}, nil
}

// PrinterModelFromDomain creates a PrinterModel from a domain Printer
func PrinterModelFromDomain(p *printing.Printer) (*PrinterModel, error) {
	config, err := json.Marshal(p.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode printer config: %w", err)
	}

	return &PrinterModel{
		ID:        p.ID,
		Name:      p.Name,
		Driver:    string(p.Driver),
		Host:      p.Host,
		Port:      p.Port,
		Config:    string(config),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

// ItemModel is the GORM model for the items table. Only the columns needed
// for label rendering are mapped here; the inventory application owns the
// full schema.
type ItemModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	OrgID    uuid.UUID `gorm:"column:org_id;type:uuid;not null;index"`
	SKU      string    `gorm:"column:sku;type:varchar(100);not null"`
	Name     string    `gorm:"type:varchar(255);not null"`
	Location string    `gorm:"type:varchar(100)"`
	Unit     string    `gorm:"type:varchar(20)"`
}

// TableName returns the table name for ItemModel
func (ItemModel) TableName() string {
	return "items"
}
