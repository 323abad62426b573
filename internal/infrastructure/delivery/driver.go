// Package delivery transmits rendered label payloads to their destinations.
// Three transports are supported: raw TCP socket printing (port 9100 style),
// IPP Print-Job submission, and artifact storage as a fallback when no
// physical printer is reachable.
package delivery

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrorKind classifies delivery failures
type ErrorKind string

const (
	// ErrConnectFailed means the destination could not be reached
	ErrConnectFailed ErrorKind = "CONNECT_FAILED"
	// ErrWriteFailed means the payload could not be fully transmitted
	ErrWriteFailed ErrorKind = "WRITE_FAILED"
	// ErrIPPRejected means the IPP endpoint returned an error status
	ErrIPPRejected ErrorKind = "IPP_REJECTED"
	// ErrInvalidDestination means the destination configuration is unusable
	ErrInvalidDestination ErrorKind = "INVALID_DESTINATION"
	// ErrStorageWriteFailed means the artifact store rejected the write
	ErrStorageWriteFailed ErrorKind = "STORAGE_WRITE_FAILED"
)

// DeliveryError describes a failed delivery attempt
type DeliveryError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *DeliveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// NewDeliveryError creates a delivery error with an optional cause
func NewDeliveryError(kind ErrorKind, message string, cause error) *DeliveryError {
	return &DeliveryError{Kind: kind, Message: message, Cause: cause}
}

// Destination is a variant-specific delivery target. Exactly one concrete
// type exists per transport; each carries only the fields its protocol needs.
type Destination interface {
	variant() string
}

// RawDestination targets a raw TCP socket printer (host:port, usually 9100)
type RawDestination struct {
	Host string
	Port int
}

func (RawDestination) variant() string { return "tcp-raw" }

// IPPDestination targets an IPP endpoint
type IPPDestination struct {
	// URI is the printer's IPP endpoint (ipp://, ipps://, http:// or https://)
	URI string
	// OrgID scopes the submission for bookkeeping
	OrgID uuid.UUID
	// Format is the document content type tag, typically "pdf"
	Format string
	// IsBase64 requests base64 encoding of the payload before transmission
	IsBase64 bool
	// JobName appears in the printer's job queue
	JobName string
	// Username is sent as requesting-user-name
	Username string
}

func (IPPDestination) variant() string { return "ipp" }

// FileDestination targets the artifact store
type FileDestination struct {
	// OrgName is the organization path segment
	OrgName string
	// Format is the file extension and content type tag
	Format string
	// Prefix namespaces the artifact path; defaults to "printjobs"
	Prefix string
	// IsBase64 marks the payload as base64 text to decode before writing
	IsBase64 bool
}

func (FileDestination) variant() string { return "file" }
