package middleware

import (
	"net/http"
	"strconv"

	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity headers set by the authenticating gateway
const (
	HeaderUserID       = "X-User-ID"
	HeaderBranchID     = "X-Branch-ID"
	HeaderHeadquarters = "X-Headquarters"
	HeaderAdmin        = "X-Admin"
)

// Caller resolves identity.Caller from the gateway headers and places it on
// the request context. A missing or malformed user id is rejected with 401.
// A malformed branch id or flag is rejected with 400.
func Caller() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, code, msg := parseCaller(c)
		if code != "" {
			status := http.StatusBadRequest
			kind := shared.KindValidation
			if code == dto.ErrCodeUnauthorized {
				status = http.StatusUnauthorized
				kind = shared.KindAccessDenied
			}
			c.AbortWithStatusJSON(status, dto.NewErrorResponse(kind, code, msg,
				logger.GetRequestID(c.Request.Context())))
			return
		}

		c.Set("user_id", caller.UserID.String())
		if caller.HasBranch() {
			c.Set("branch_id", caller.BranchID.String())
		}
		c.Request = c.Request.WithContext(identity.WithCaller(c.Request.Context(), caller))
		c.Next()
	}
}

func parseCaller(c *gin.Context) (identity.Caller, string, string) {
	var caller identity.Caller

	userID, err := uuid.Parse(c.GetHeader(HeaderUserID))
	if err != nil || userID == uuid.Nil {
		return caller, dto.ErrCodeUnauthorized, "Caller identity is missing"
	}
	caller.UserID = userID

	if raw := c.GetHeader(HeaderBranchID); raw != "" {
		branchID, err := uuid.Parse(raw)
		if err != nil {
			return caller, "INVALID_BRANCH_ID", "Branch ID must be a UUID"
		}
		caller.BranchID = &branchID
	}

	if caller.IsHeadquarters, err = parseFlag(c.GetHeader(HeaderHeadquarters)); err != nil {
		return caller, "INVALID_HEADER", HeaderHeadquarters + " must be a boolean"
	}
	if caller.IsAdmin, err = parseFlag(c.GetHeader(HeaderAdmin)); err != nil {
		return caller, "INVALID_HEADER", HeaderAdmin + " must be a boolean"
	}
	return caller, "", ""
}

func parseFlag(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
