// Package handler exposes the command pipeline and service health over HTTP.
package handler

import (
	"net/http"

	"github.com/erp/backoffice/internal/application/command"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BaseHandler writes the response envelope. Handlers embed it.
type BaseHandler struct{}

func (BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error writes a failure that never reached the pipeline, such as an
// unreadable body. The request ID is echoed as the correlation ID.
func (BaseHandler) Error(c *gin.Context, status int, kind shared.ErrorKind, code, message string) {
	requestID := logger.GetRequestID(c.Request.Context())
	c.JSON(status, dto.NewErrorResponse(kind, code, message, requestID))
}

// Result writes a pipeline result under the status of its error kind
func (BaseHandler) Result(c *gin.Context, r command.Result) {
	c.JSON(dto.FromResult(r))
}

// NotFound answers requests no route matched
func NotFound(c *gin.Context) {
	BaseHandler{}.Error(c, http.StatusNotFound, shared.KindNotFound, dto.ErrCodeRouteNotFound,
		"No route for "+c.Request.Method+" "+c.Request.URL.Path)
}
