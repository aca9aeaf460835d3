package dto

import (
	"github.com/erp/backoffice/internal/application/command"
	"github.com/erp/backoffice/internal/domain/shared"
)

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Kind          string `json:"kind"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(kind shared.ErrorKind, code, message, correlationID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Kind:          string(kind),
			Code:          code,
			Message:       message,
			CorrelationID: correlationID,
		},
	}
}

// FromResult renders a command result and picks its HTTP status
func FromResult(r command.Result) (int, Response) {
	if r.OK {
		return StatusOK, NewSuccessResponse(r.Data)
	}
	e := r.Error
	return StatusForKind(e.Kind), NewErrorResponse(e.Kind, e.Code, e.Message, e.CorrelationID)
}
