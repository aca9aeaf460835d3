package command

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logging attaches a correlation id and base to ctx when missing, wraps the
// command in a span and logs its outcome. Rejections by a business rule are
// logged at info; unexpected failures are left to Execute.
func Logging(base *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, cmd Command) (any, error) {
			if base != nil && !logger.Attached(ctx) {
				ctx = logger.WithContext(ctx, base)
			}
			ctx = ensureCorrelationID(ctx)

			name := cmd.CommandName()
			opts := []telemetry.SpanOption{
				telemetry.WithAttribute(telemetry.SpanAttrCorrelationID, logger.GetRequestID(ctx)),
			}
			if caller, ok := identity.CallerFrom(ctx); ok {
				opts = append(opts, telemetry.WithAttribute(telemetry.SpanAttrUserID, caller.UserID.String()))
				if caller.HasBranch() {
					opts = append(opts, telemetry.WithAttribute(telemetry.SpanAttrBranchID, caller.BranchID.String()))
				}
			}
			ctx, span := telemetry.StartCommandSpan(ctx, name, opts...)
			defer span.End()

			start := time.Now()
			out, err := next(ctx, cmd)
			elapsed := time.Since(start)

			log := logger.L(ctx).With(zap.String("command", name), zap.Duration("elapsed", elapsed))
			if err == nil {
				log.Debug("Command completed")
				return out, nil
			}

			kind := shared.KindOf(err)
			telemetry.SetAttributes(span, telemetry.SpanAttrErrorKind, string(kind))
			var de *shared.DomainError
			if errors.As(err, &de) {
				telemetry.SetAttributes(span, telemetry.SpanAttrErrorCode, de.Code)
			}
			telemetry.RecordError(span, err)
			if kind != shared.KindInternal {
				log.Info("Command rejected",
					zap.String("kind", string(kind)),
					zap.String("reason", err.Error()),
				)
			}
			return nil, err
		}
	}
}

// Recorder receives one sample per executed command
type Recorder interface {
	RecordCommand(ctx context.Context, name, outcome string, elapsed time.Duration)
}

// Metrics reports the latency and outcome of every command to rec. The
// outcome is the error kind, or empty on success. A nil rec is a no-op.
func Metrics(rec Recorder) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		if rec == nil {
			return next
		}
		return func(ctx context.Context, cmd Command) (any, error) {
			start := time.Now()
			out, err := next(ctx, cmd)
			outcome := ""
			if err != nil {
				outcome = string(shared.KindOf(err))
			}
			rec.RecordCommand(ctx, cmd.CommandName(), outcome, time.Since(start))
			return out, err
		}
	}
}

func ensureCorrelationID(ctx context.Context) context.Context {
	if logger.GetRequestID(ctx) != "" {
		return ctx
	}
	return logger.WithRequestID(ctx, uuid.NewString())
}

// NewValidator returns a validator reporting fields by their json names
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validation checks the command's struct tags before it reaches the handler.
// Failures become a validation error listing every offending field.
func Validation(v *validator.Validate) Middleware {
	if v == nil {
		v = NewValidator()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, cmd Command) (any, error) {
			if err := v.Struct(cmd); err != nil {
				var invalid *validator.InvalidValidationError
				if errors.As(err, &invalid) {
					return next(ctx, cmd)
				}
				return nil, validationError(err)
			}
			return next(ctx, cmd)
		}
	}
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return shared.NewValidationError(shared.ErrInvalidInput.Code, err.Error())
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fieldPath(fe)+": "+validationMessage(fe))
	}
	return shared.NewValidationError(shared.ErrInvalidInput.Code, strings.Join(parts, "; "))
}

// fieldPath drops the command type from the namespace, so nested fields read
// as lines[0].quantity.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "must contain at least " + e.Param() + " items"
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "len":
		return "must be exactly " + e.Param() + " characters"
	case "uuid":
		return "must be a UUID"
	default:
		return "is invalid"
	}
}

// Idempotency rejects a command whose key the same caller already used within
// ttl. The key is released again when the command fails, so a client can
// retry after fixing the cause.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) Middleware {
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyTTL
	}
	return func(next HandlerFunc) HandlerFunc {
		if store == nil {
			return next
		}
		return func(ctx context.Context, cmd Command) (any, error) {
			k, ok := cmd.(Idempotent)
			if !ok || k.IdempotencyKey() == "" {
				return next(ctx, cmd)
			}
			key := idempotencyKey(ctx, cmd.CommandName(), k.IdempotencyKey())

			fresh, err := store.MarkProcessed(ctx, key, ttl)
			if err != nil {
				return nil, fmt.Errorf("idempotency check for %s: %w", cmd.CommandName(), err)
			}
			if !fresh {
				return nil, shared.ErrDuplicateRequest
			}

			out, err := next(ctx, cmd)
			if err != nil {
				if forgetErr := store.Forget(context.WithoutCancel(ctx), key); forgetErr != nil {
					logger.L(ctx).Warn("Failed to release idempotency key",
						zap.String("key", key),
						zap.Error(forgetErr),
					)
				}
				return nil, err
			}
			return out, nil
		}
	}
}

func idempotencyKey(ctx context.Context, name, key string) string {
	return "command:" + identity.FromContext(ctx).UserID.String() + ":" + name + ":" + key
}

// Transaction runs transactional commands inside one unit of work. Nested
// commands join the unit already open on ctx.
func Transaction(uow shared.UnitOfWork) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		if uow == nil {
			return next
		}
		return func(ctx context.Context, cmd Command) (any, error) {
			var out any
			err := uow.Run(ctx, IsTransactional(cmd), func(ctx context.Context) error {
				var err error
				out, err = next(ctx, cmd)
				return err
			})
			if err != nil {
				return nil, err
			}
			return out, nil
		}
	}
}

// PipelineConfig collects the collaborators of the standard middleware chain
type PipelineConfig struct {
	Logger         *zap.Logger
	Validator      *validator.Validate
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
	UnitOfWork     shared.UnitOfWork
	Metrics        Recorder
}

// NewPipeline returns a dispatcher with the standard chain: logging,
// metrics, validation, idempotency, transaction.
func NewPipeline(cfg PipelineConfig) *Dispatcher {
	return NewDispatcher(
		Logging(cfg.Logger),
		Metrics(cfg.Metrics),
		Validation(cfg.Validator),
		Idempotency(cfg.Idempotency, cfg.IdempotencyTTL),
		Transaction(cfg.UnitOfWork),
	)
}
