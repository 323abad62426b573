package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/OpenPrinting/goipp"
	"go.uber.org/zap"
)

const (
	defaultIPPTimeout  = 10 * time.Second
	defaultIPPUsername = "printd"
	ippCharset         = "utf-8"
	ippLanguage        = "en-US"
)

// IPPDriverConfig contains configuration for the IPP driver
type IPPDriverConfig struct {
	// Timeout bounds the whole request. Default: 10s
	Timeout time.Duration
	// Username sent as requesting-user-name when the destination provides none
	Username string
	// Logger for operations
	Logger *zap.Logger
}

// IPPDriver submits payloads to an IPP endpoint using the Print-Job
// operation. The driver is stateless and safe for concurrent use.
type IPPDriver struct {
	client   *http.Client
	username string
	logger   *zap.Logger
}

// NewIPPDriver creates an IPP delivery driver
func NewIPPDriver(cfg *IPPDriverConfig) *IPPDriver {
	if cfg == nil {
		cfg = &IPPDriverConfig{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultIPPTimeout
	}
	username := cfg.Username
	if username == "" {
		username = defaultIPPUsername
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IPPDriver{
		client:   &http.Client{Timeout: timeout},
		username: username,
		logger:   logger,
	}
}

// Deliver constructs an IPP Print-Job request carrying the payload as the
// document body and submits it to the destination URI. On success the
// returned descriptor carries the job id assigned by the endpoint.
func (d *IPPDriver) Deliver(ctx context.Context, payload []byte, dest IPPDestination) (string, error) {
	endpoint, err := d.resolveEndpoint(dest.URI)
	if err != nil {
		return "", err
	}

	document := payload
	if dest.IsBase64 {
		document = []byte(base64.StdEncoding.EncodeToString(payload))
	}

	format := dest.Format
	if format == "" {
		format = "application/octet-stream"
	} else if format == "pdf" {
		format = "application/pdf"
	}

	username := dest.Username
	if username == "" {
		username = d.username
	}
	jobName := dest.JobName
	if jobName == "" {
		jobName = "printd-job"
	}

	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpPrintJob, 1)
	req.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String(ippCharset)))
	req.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String(ippLanguage)))
	req.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(dest.URI)))
	req.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName, goipp.String(username)))
	req.Operation.Add(goipp.MakeAttribute("job-name", goipp.TagName, goipp.String(jobName)))
	req.Operation.Add(goipp.MakeAttribute("document-format", goipp.TagMimeType, goipp.String(format)))

	message, err := req.EncodeBytes()
	if err != nil {
		return "", NewDeliveryError(ErrInvalidDestination, "failed to encode IPP request", err)
	}

	body := bytes.NewBuffer(append(message, document...))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), body)
	if err != nil {
		return "", NewDeliveryError(ErrInvalidDestination, "failed to create request", err)
	}
	if endpoint.User != nil {
		password, _ := endpoint.User.Password()
		httpReq.SetBasicAuth(endpoint.User.Username(), password)
	}
	httpReq.Header.Set("Content-Type", goipp.ContentType)
	httpReq.Header.Set("Accept", goipp.ContentType)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return "", NewDeliveryError(ErrConnectFailed,
			fmt.Sprintf("failed to reach IPP endpoint %s", dest.URI), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", NewDeliveryError(ErrIPPRejected,
			fmt.Sprintf("IPP endpoint returned HTTP %d", resp.StatusCode), nil)
	}

	var out goipp.Message
	if err := out.Decode(resp.Body); err != nil {
		return "", NewDeliveryError(ErrIPPRejected, "failed to decode IPP response", err)
	}
	if status := goipp.Status(out.Code); status != goipp.StatusOk {
		return "", NewDeliveryError(ErrIPPRejected,
			fmt.Sprintf("print job rejected: %s", status), nil)
	}

	jobID := -1
	for _, attr := range out.Job {
		if attr.Name == "job-id" && len(attr.Values) > 0 {
			if v, ok := attr.Values[0].V.(goipp.Integer); ok {
				jobID = int(v)
			}
		}
	}

	d.logger.Debug("print job submitted over IPP",
		zap.String("uri", dest.URI),
		zap.Int("jobID", jobID))

	if jobID < 0 {
		// Accepted but no job-id in the response; synthesize a descriptor
		return fmt.Sprintf("ipp://%s/%s", endpoint.Host, jobName), nil
	}
	return fmt.Sprintf("ipp://%s/jobs/%d", endpoint.Host, jobID), nil
}

// resolveEndpoint validates the destination URI and translates the IPP
// schemes to their HTTP equivalents for transport
func (d *IPPDriver) resolveEndpoint(uri string) (*url.URL, error) {
	if uri == "" {
		return nil, NewDeliveryError(ErrInvalidDestination, "printer URI is required", nil)
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, NewDeliveryError(ErrInvalidDestination,
			fmt.Sprintf("malformed printer URI %q", uri), err)
	}
	switch parsed.Scheme {
	case "ipp":
		parsed.Scheme = "http"
	case "ipps":
		parsed.Scheme = "https"
	case "http", "https":
	default:
		return nil, NewDeliveryError(ErrInvalidDestination,
			fmt.Sprintf("unsupported printer URI scheme %q", parsed.Scheme), nil)
	}
	if parsed.Host == "" {
		return nil, NewDeliveryError(ErrInvalidDestination,
			fmt.Sprintf("printer URI %q has no host", uri), nil)
	}
	return parsed, nil
}
