package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/erp/backoffice/internal/application/command"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CommandHandler accepts commands by name over HTTP. The body is the JSON
// encoding of the command; the response carries its Result.
type CommandHandler struct {
	BaseHandler
	dispatcher *command.Dispatcher
}

// NewCommandHandler creates a CommandHandler
func NewCommandHandler(d *command.Dispatcher) *CommandHandler {
	return &CommandHandler{dispatcher: d}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *CommandHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/commands", h.List)
	rg.POST("/commands/:name", h.Execute)
}

// CommandListResponse lists the accepted command names
type CommandListResponse struct {
	Commands []string `json:"commands"`
}

// List returns the registered command names
func (h *CommandHandler) List(c *gin.Context) {
	h.Success(c, CommandListResponse{Commands: h.dispatcher.Commands()})
}

// Execute decodes and runs the command named in the path. An unknown name is
// answered before the body is read.
func (h *CommandHandler) Execute(c *gin.Context) {
	name := c.Param("name")
	ctx := c.Request.Context()
	if !h.dispatcher.Has(name) {
		h.Result(c, command.ErrorResult(ctx, name, command.ErrUnknownCommand))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.AbortBodyTooLarge(c)
			return
		}
		h.Error(c, http.StatusBadRequest, shared.KindValidation, dto.ErrCodeInvalidBody, "Request body could not be read")
		return
	}

	cmd, err := h.dispatcher.Decode(name, body)
	if err != nil {
		h.Result(c, command.ErrorResult(ctx, name, err))
		return
	}
	h.Result(c, command.Execute(ctx, h.dispatcher, cmd))
}
