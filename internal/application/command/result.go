package command

import (
	"context"
	"errors"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// internalMessage is shown instead of the text of unexpected errors
const internalMessage = "An unexpected error occurred"

// Error is the failure half of a Result
type Error struct {
	Kind          shared.ErrorKind `json:"kind"`
	Code          string           `json:"code"`
	Message       string           `json:"message"`
	CorrelationID string           `json:"correlation_id"`
}

// Result is what the command boundary hands back to a transport
type Result struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Execute dispatches cmd and maps the outcome. Domain errors keep their kind,
// code and message. Anything else is logged with the correlation id and
// reported as INTERNAL without its text. Nothing is retried.
func Execute(ctx context.Context, d *Dispatcher, cmd Command) Result {
	ctx = ensureCorrelationID(ctx)

	out, err := d.Dispatch(ctx, cmd)
	if err == nil {
		return Result{OK: true, Data: out}
	}

	name := ""
	if cmd != nil {
		name = cmd.CommandName()
	}
	return ErrorResult(ctx, name, err)
}

// ErrorResult maps err the way Execute does. Transports use it for failures
// that happen before a command exists, such as a payload that does not decode.
func ErrorResult(ctx context.Context, name string, err error) Result {
	correlationID := logger.GetRequestID(ctx)

	var de *shared.DomainError
	if errors.As(err, &de) && de.Kind != "" && de.Kind != shared.KindInternal {
		return Result{Error: &Error{
			Kind:          de.Kind,
			Code:          de.Code,
			Message:       de.Message,
			CorrelationID: correlationID,
		}}
	}

	logger.L(ctx).Error("Command failed",
		zap.String("command", name),
		zap.String("correlation_id", correlationID),
		zap.Error(err),
	)
	return Result{Error: &Error{
		Kind:          shared.KindInternal,
		Code:          "INTERNAL_ERROR",
		Message:       internalMessage,
		CorrelationID: correlationID,
	}}
}
