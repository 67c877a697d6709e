package safety

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrNilWriter is returned by AuditLogger.Log when the logger was constructed
// with a nil writer.
var ErrNilWriter = errors.New("audit logger: writer is nil")

// maxParamLen caps string parameters written to the audit log. Uploaded file
// bodies and long comment texts are cut to this many bytes.
const maxParamLen = 256

// redactedKeys are parameter names whose values never reach the audit log.
var redactedKeys = map[string]struct{}{
	"token":              {},
	"confirmation_token": {},
	"content_base64":     {},
}

// AuditEntry captures a single tool invocation for the audit log.
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Tool      string         `json:"tool"`
	Params    map[string]any `json:"params"`
	Result    string         `json:"result"`
	Duration  time.Duration  `json:"duration_ns"`
}

// AuditLogger writes AuditEntry records as newline-delimited JSON to an
// io.Writer. It is safe for concurrent use.
type AuditLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewAuditLogger returns an AuditLogger that writes to w. If w is nil the
// returned logger is also nil; callers must check for nil before use.
func NewAuditLogger(w io.Writer) *AuditLogger {
	if w == nil {
		return nil
	}
	return &AuditLogger{w: w}
}

// OpenAuditLog opens path for appending, creating the parent directory when
// needed. The caller owns the returned file.
func OpenAuditLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("audit log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit log open: %w", err)
	}
	return f, nil
}

// Log serialises entry as a single JSON line and writes it to the underlying
// writer. Secret parameters are redacted and long strings truncated before
// encoding; entry.Params itself is not modified.
func (l *AuditLogger) Log(entry AuditEntry) error {
	if l == nil || l.w == nil {
		return ErrNilWriter
	}

	entry.Params = scrubParams(entry.Params)

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	data = append(data, '\n')

	l.mu.Lock()
	_, err = l.w.Write(data)
	l.mu.Unlock()

	return err
}

func scrubParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		if _, secret := redactedKeys[strings.ToLower(k)]; secret {
			out[k] = "[redacted]"
			continue
		}
		if s, ok := v.(string); ok && len(s) > maxParamLen {
			out[k] = s[:maxParamLen] + "...(truncated)"
			continue
		}
		out[k] = v
	}
	return out
}
