package printing

// LabelFormat identifies the rendered payload format of a label
type LabelFormat string

const (
	FormatZPL LabelFormat = "zpl"
	FormatPDF LabelFormat = "pdf"
)

// IsValid checks if the LabelFormat is a valid value
func (f LabelFormat) IsValid() bool {
	switch f {
	case FormatZPL, FormatPDF:
		return true
	}
	return false
}

// String returns the string representation of LabelFormat
func (f LabelFormat) String() string {
	return string(f)
}

// ContentType returns the MIME type used when the payload crosses a transport
func (f LabelFormat) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// AllLabelFormats returns all valid LabelFormat values
func AllLabelFormats() []LabelFormat {
	return []LabelFormat{FormatZPL, FormatPDF}
}

// DriverTag is the printer-configured delivery driver tag.
// Tags other than the known ones fall back to file delivery; they are
// not an error.
type DriverTag string

const (
	DriverZPL DriverTag = "zpl"
	DriverIPP DriverTag = "ipp"
)

// String returns the string representation of DriverTag
func (d DriverTag) String() string {
	return string(d)
}

// JobStatus represents the status of a print job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"     // created, waiting for a worker
	JobStatusProcessing JobStatus = "PROCESSING" // picked up by the processor
	JobStatusDone       JobStatus = "DONE"       // artifact delivered
	JobStatusFailed     JobStatus = "FAILED"     // rendering or delivery failed
)

// IsValid checks if the JobStatus is a valid value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusQueued, JobStatusProcessing, JobStatusDone, JobStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if this is a terminal status (no further transitions)
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusFailed
}

// CanTransitionTo checks if the status can transition to the target status
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusQueued:
		return target == JobStatusProcessing
	case JobStatusProcessing:
		return target == JobStatusDone || target == JobStatusFailed
	case JobStatusDone, JobStatusFailed:
		return false // Terminal states
	}
	return false
}
