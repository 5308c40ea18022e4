// Package auditlog implements the append-only operation log shared by every
// session and by the admin interface.
//
// Each record carries a timestamp, the actor that performed the operation
// (a client's peer address or the server's own identity), a human-readable
// description, a tri-state status and an optional detail string. Records are
// written as single lines through one zap core, so concurrent sessions can
// append without interleaving.
package auditlog

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Status is the tri-state outcome attached to every record.
type Status string

const (
	// StatusSucceeded marks an operation that completed as requested.
	StatusSucceeded Status = "SUCCEEDED"
	// StatusFailed marks an operation that was attempted and failed.
	StatusFailed Status = "FAILED"
	// StatusIgnored marks a record with no meaningful outcome, such as a
	// connection being established.
	StatusIgnored Status = "IGNORED"
)

// Logger is the shared audit sink.
type Logger struct {
	log    *zap.Logger
	closer func() error
}

// Open creates (or appends to) the audit file at path.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.TimeKey = "ts"
	encCfg.LevelKey = "" // every audit record has the same weight
	enc := zapcore.NewConsoleEncoder(encCfg)

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(f)), zapcore.InfoLevel)
	return &Logger{log: zap.New(core), closer: f.Close}, nil
}

// NewNop returns a Logger that discards every record. Useful in tests.
func NewNop() *Logger {
	return &Logger{log: zap.NewNop(), closer: func() error { return nil }}
}

// Record appends one audit line. detail may be empty.
func (l *Logger) Record(actor, description string, status Status, detail string) {
	fields := []zap.Field{
		zap.String("actor", actor),
		zap.String("status", string(status)),
	}
	if detail != "" {
		fields = append(fields, zap.String("detail", detail))
	}
	l.log.Info(description, fields...)
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	_ = l.log.Sync()
	return l.closer()
}
