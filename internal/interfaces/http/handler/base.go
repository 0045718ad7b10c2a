// Package handler holds the gin handlers of the HTTP API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/pluvyt/backend/internal/infrastructure/logger"
	"github.com/pluvyt/backend/internal/interfaces/http/dto"
	"github.com/pluvyt/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

var (
	errMissingTenant = shared.ErrUnauthorized.WithMessage("Tenant not found in token")
	errMissingUser   = shared.ErrUnauthorized.WithMessage("User not found in token")
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getTenantID reads the tenant from the access token. There is no header
// fallback: tenant scope only ever comes from a verified token.
func getTenantID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.GetJWTTenantID(c))
	if err != nil {
		return uuid.Nil, errMissingTenant
	}
	return id, nil
}

func getUserID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.GetJWTUserID(c))
	if err != nil {
		return uuid.Nil, errMissingUser
	}
	return id, nil
}

// getActor names the user recorded in createdBy/updatedBy columns
func getActor(c *gin.Context) string {
	if name := middleware.GetJWTUsername(c); name != "" {
		return name
	}
	return middleware.GetJWTUserID(c)
}

// scope returns tenant and actor, writing a 401 when the token lacks them
func (h *BaseHandler) scope(c *gin.Context) (uuid.UUID, string, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, "", false
	}
	return tenantID, getActor(c), true
}

// pathID parses a UUID path parameter, writing a 400 when it is malformed
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUID parses an already validated query value; empty means unset
func optionalUUID(v string) *uuid.UUID {
	if v == "" {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil
	}
	return &id
}

// bindJSON binds the body, writing the validation envelope on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleError maps domain errors to their status. Storage causes and
// unknown errors are logged and answered with a generic message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			logger.L(c.Request.Context()).Error("Request failed",
				zap.String("code", domainErr.Code),
				zap.Error(errors.Unwrap(err)))
			_ = c.Error(err)
		}
		c.JSON(status, dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	logger.L(c.Request.Context()).Error("Unexpected error", zap.Error(err))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}
