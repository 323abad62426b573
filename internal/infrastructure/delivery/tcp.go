package delivery

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/warecore/printd/internal/domain/printing"
)

const defaultRawTimeout = 5 * time.Second

// RawDriverConfig contains configuration for the raw TCP driver
type RawDriverConfig struct {
	// DialTimeout bounds the connection attempt. Default: 5s
	DialTimeout time.Duration
	// WriteTimeout bounds the payload write. Default: 5s
	WriteTimeout time.Duration
	// Logger for operations
	Logger *zap.Logger
}

// RawDriver writes payloads directly to a printer's TCP socket with no
// protocol envelope. The payload bytes (typically ZPL text) are the entire
// print stream. The driver is stateless and safe for concurrent use.
type RawDriver struct {
	dialTimeout  time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewRawDriver creates a raw TCP socket delivery driver
func NewRawDriver(cfg *RawDriverConfig) *RawDriver {
	if cfg == nil {
		cfg = &RawDriverConfig{}
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultRawTimeout
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultRawTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RawDriver{
		dialTimeout:  dialTimeout,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Deliver opens a connection to host:port, writes the entire payload and
// closes the connection. Success returns a synthetic acknowledgment encoding
// host, port and byte count; no physical file is produced.
func (d *RawDriver) Deliver(ctx context.Context, payload []byte, dest RawDestination) (string, error) {
	if dest.Host == "" {
		return "", NewDeliveryError(ErrInvalidDestination, "printer host is required", nil)
	}
	port := dest.Port
	if port <= 0 {
		port = printing.DefaultRawPort
	}
	address := fmt.Sprintf("%s:%d", dest.Host, port)

	dialer := net.Dialer{Timeout: d.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return "", NewDeliveryError(ErrConnectFailed,
			fmt.Sprintf("failed to connect to %s", address), err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(d.writeTimeout)); err != nil {
		return "", NewDeliveryError(ErrWriteFailed, "failed to set write deadline", err)
	}

	written := 0
	for written < len(payload) {
		n, err := conn.Write(payload[written:])
		written += n
		if err != nil {
			return "", NewDeliveryError(ErrWriteFailed,
				fmt.Sprintf("wrote %d of %d bytes to %s", written, len(payload), address), err)
		}
	}

	d.logger.Debug("raw payload delivered",
		zap.String("address", address),
		zap.Int("bytes", written))

	return fmt.Sprintf("tcp://%s/%db", address, written), nil
}
