package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OpenPrinting/goipp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ippEcho records the decoded Print-Job request and replies with the given
// IPP status, optionally attaching a job-id
type ippEcho struct {
	status   goipp.Status
	jobID    int
	request  *goipp.Message
	document []byte
}

func (e *ippEcho) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	// The document payload follows the encoded IPP message in the body
	reader := bytes.NewReader(body)
	msg := &goipp.Message{}
	if err := msg.Decode(reader); err == nil {
		e.request = msg
		e.document, _ = io.ReadAll(reader)
	}

	resp := goipp.NewResponse(goipp.DefaultVersion, e.status, 1)
	resp.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String("utf-8")))
	resp.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String("en-US")))
	if e.jobID > 0 {
		resp.Job.Add(goipp.MakeAttribute("job-id", goipp.TagInteger, goipp.Integer(e.jobID)))
	}

	out, _ := resp.EncodeBytes()
	w.Header().Set("Content-Type", goipp.ContentType)
	_, _ = w.Write(out)
}

func requestAttr(t *testing.T, msg *goipp.Message, name string) string {
	t.Helper()
	for _, attr := range msg.Operation {
		if attr.Name == name && len(attr.Values) > 0 {
			return attr.Values[0].V.String()
		}
	}
	t.Fatalf("attribute %s not found in request", name)
	return ""
}

func TestIPPDriver_Deliver(t *testing.T) {
	echo := &ippEcho{status: goipp.StatusOk, jobID: 42}
	server := httptest.NewServer(echo)
	defer server.Close()

	driver := NewIPPDriver(nil)
	payload := []byte("%PDF-1.4 fake")

	descriptor, err := driver.Deliver(context.Background(), payload, IPPDestination{
		URI:      server.URL,
		Format:   "pdf",
		JobName:  "printd-job-1-alice",
		Username: "alice",
	})
	require.NoError(t, err)
	assert.Contains(t, descriptor, "/jobs/42")

	require.NotNil(t, echo.request)
	assert.Equal(t, goipp.OpPrintJob, goipp.Op(echo.request.Code))
	assert.Equal(t, server.URL, requestAttr(t, echo.request, "printer-uri"))
	assert.Equal(t, "alice", requestAttr(t, echo.request, "requesting-user-name"))
	assert.Equal(t, "printd-job-1-alice", requestAttr(t, echo.request, "job-name"))
	assert.Equal(t, "application/pdf", requestAttr(t, echo.request, "document-format"))
	assert.Equal(t, payload, echo.document)
}

func TestIPPDriver_Base64Payload(t *testing.T) {
	echo := &ippEcho{status: goipp.StatusOk, jobID: 7}
	server := httptest.NewServer(echo)
	defer server.Close()

	driver := NewIPPDriver(nil)
	payload := []byte("%PDF-1.4 fake")

	_, err := driver.Deliver(context.Background(), payload, IPPDestination{
		URI:      server.URL,
		Format:   "pdf",
		IsBase64: true,
	})
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(payload), string(echo.document))
}

func TestIPPDriver_Rejected(t *testing.T) {
	echo := &ippEcho{status: goipp.StatusErrorNotPossible}
	server := httptest.NewServer(echo)
	defer server.Close()

	driver := NewIPPDriver(nil)
	_, err := driver.Deliver(context.Background(), []byte("doc"), IPPDestination{URI: server.URL})
	require.Error(t, err)

	var deliveryErr *DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, ErrIPPRejected, deliveryErr.Kind)
}

func TestIPPDriver_ConnectFailed(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	driver := NewIPPDriver(nil)
	_, err := driver.Deliver(context.Background(), []byte("doc"), IPPDestination{URI: url})
	require.Error(t, err)

	var deliveryErr *DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, ErrConnectFailed, deliveryErr.Kind)
}

func TestIPPDriver_InvalidDestination(t *testing.T) {
	driver := NewIPPDriver(nil)

	tests := []struct {
		name string
		uri  string
	}{
		{name: "empty uri", uri: ""},
		{name: "no host", uri: "ipp:///printers/main"},
		{name: "unsupported scheme", uri: "ftp://printer.local/queue"},
		{name: "garbage", uri: "://not-a-uri"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := driver.Deliver(context.Background(), []byte("doc"), IPPDestination{URI: tt.uri})
			require.Error(t, err)

			var deliveryErr *DeliveryError
			require.True(t, errors.As(err, &deliveryErr))
			assert.Equal(t, ErrInvalidDestination, deliveryErr.Kind)
		})
	}
}

func TestIPPDriver_SchemeTranslation(t *testing.T) {
	driver := NewIPPDriver(nil)

	endpoint, err := driver.resolveEndpoint("ipp://printer.local:631/queue")
	require.NoError(t, err)
	assert.Equal(t, "http", endpoint.Scheme)
	assert.Equal(t, "printer.local:631", endpoint.Host)

	endpoint, err = driver.resolveEndpoint("ipps://printer.local/queue")
	require.NoError(t, err)
	assert.Equal(t, "https", endpoint.Scheme)
}
