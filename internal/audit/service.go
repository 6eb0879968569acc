package audit

import (
	"log/slog"

	"stockgate/internal/logging"
)

type Action string

const (
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionStockAdjust Action = "stock_adjust"
)

type LogOptions struct {
	UserID      string
	UserEmail   string
	EntityType  string
	EntityID    uint
	Action      Action
	Description string
	Before      any
	After       any
}

// Recorder writes audit records to the structured log. Records are not
// persisted anywhere else.
type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{logger: logging.Resolve(logger).With("component", "audit")}
}

func (r *Recorder) WriteLog(opts LogOptions) {
	attrs := []any{
		"action", string(opts.Action),
		"entity_type", opts.EntityType,
		"entity_id", opts.EntityID,
		"user_id", opts.UserID,
		"user_email", opts.UserEmail,
	}
	if opts.Before != nil {
		attrs = append(attrs, "before", opts.Before)
	}
	if opts.After != nil {
		attrs = append(attrs, "after", opts.After)
	}
	msg := opts.Description
	if msg == "" {
		msg = opts.EntityType + " " + string(opts.Action)
	}
	r.logger.Info(msg, attrs...)
}
