package printing

import (
	"time"

	"github.com/google/uuid"
	"github.com/warecore/printd/internal/domain/shared"
)

// SystemOrgName is the path/name segment used for jobs without a tenant
const SystemOrgName = "system"

// PrintJob represents one request to render a label artifact for a batch of
// inventory entities and deliver it to a printer.
//
// The status fields are only mutated through Start/Complete/Fail so the
// lifecycle stays monotonic: QUEUED -> PROCESSING -> DONE|FAILED, and a
// terminal job is never reprocessed.
type PrintJob struct {
	shared.BaseEntity
	EntityType    string         // what is being printed, e.g. "item"
	EntityIDs     []string       // ordered, non-empty
	Options       map[string]any // renderer options (copies, dimensions, ...)
	OrgID         uuid.UUID      // tenant; uuid.Nil means the system tenant
	PrinterID     *uuid.UUID     // target printer, optional
	RequestedBy   *uuid.UUID     // requesting user, optional
	RequesterName string         // display name for job attribution
	Status        JobStatus
	StartedAt     *time.Time
	FinishedAt    *time.Time
	ArtifactPath  string // set iff Status == DONE
	ErrorCode     string // set iff Status == FAILED
	ErrorMessage  string // set iff Status == FAILED
}

// NewPrintJob creates a new print job in the QUEUED state
func NewPrintJob(orgID uuid.UUID, entityType string, entityIDs []string) (*PrintJob, error) {
	if entityType == "" {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", "Entity type cannot be empty")
	}
	if len(entityIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_ENTITY_IDS", "Entity IDs cannot be empty")
	}

	return &PrintJob{
		BaseEntity: shared.NewBaseEntity(),
		EntityType: entityType,
		EntityIDs:  entityIDs,
		Options:    map[string]any{},
		OrgID:      orgID,
		Status:     JobStatusQueued,
	}, nil
}

// SetPrinter sets the target printer
func (j *PrintJob) SetPrinter(printerID uuid.UUID) {
	j.PrinterID = &printerID
	j.UpdatedAt = time.Now()
}

// SetRequester records who asked for the print
func (j *PrintJob) SetRequester(userID uuid.UUID, displayName string) {
	j.RequestedBy = &userID
	j.RequesterName = displayName
	j.UpdatedAt = time.Now()
}

// SetOptions replaces the renderer options
func (j *PrintJob) SetOptions(options map[string]any) {
	if options == nil {
		options = map[string]any{}
	}
	j.Options = options
	j.UpdatedAt = time.Now()
}

// Start marks the job as picked up by a processor. This is the first write
// of a processing attempt and is not rolled back when later steps fail.
func (j *PrintJob) Start() error {
	if !j.Status.CanTransitionTo(JobStatusProcessing) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot start processing from status: "+j.Status.String())
	}

	now := time.Now()
	j.Status = JobStatusProcessing
	j.StartedAt = &now
	j.UpdatedAt = now

	return nil
}

// Complete marks the job as done with the delivered artifact descriptor
func (j *PrintJob) Complete(artifactPath string) error {
	if !j.Status.CanTransitionTo(JobStatusDone) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot complete from status: "+j.Status.String())
	}
	if artifactPath == "" {
		return shared.NewDomainError("INVALID_ARTIFACT", "Artifact path cannot be empty")
	}

	now := time.Now()
	j.Status = JobStatusDone
	j.ArtifactPath = artifactPath
	j.ErrorCode = ""
	j.ErrorMessage = ""
	j.FinishedAt = &now
	j.UpdatedAt = now

	return nil
}

// Fail marks the job as failed with a machine-readable code and detail
func (j *PrintJob) Fail(code, message string) error {
	if !j.Status.CanTransitionTo(JobStatusFailed) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot fail from status: "+j.Status.String())
	}
	if code == "" {
		code = "INTERNAL"
	}

	now := time.Now()
	j.Status = JobStatusFailed
	j.ErrorCode = code
	j.ErrorMessage = message
	j.ArtifactPath = ""
	j.FinishedAt = &now
	j.UpdatedAt = now

	return nil
}

// OrgName returns the tenant path segment, mapping the nil tenant to "system"
func (j *PrintJob) OrgName() string {
	if j.OrgID == uuid.Nil {
		return SystemOrgName
	}
	return j.OrgID.String()
}

// Requester returns the display name used for job attribution,
// defaulting to "system" when no user is attached
func (j *PrintJob) Requester() string {
	if j.RequesterName == "" {
		return SystemOrgName
	}
	return j.RequesterName
}

// IsTerminal returns true if the job is in a terminal state
func (j *PrintJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// IsDone returns true if the job completed successfully
func (j *PrintJob) IsDone() bool {
	return j.Status == JobStatusDone
}

// IsFailed returns true if the job failed
func (j *PrintJob) IsFailed() bool {
	return j.Status == JobStatusFailed
}
