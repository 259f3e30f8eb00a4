// internal/api/response_helpers.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Corphon/SceneWriter/internal/errors"
	"github.com/Corphon/SceneWriter/internal/models"
)

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseHelper 响应助手类
type ResponseHelper struct{}

// NewResponseHelper 创建响应助手
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// Success 成功响应
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	rh.respond(c, http.StatusOK, data, message...)
}

// Accepted answers 202 for work that continues in the background.
func (rh *ResponseHelper) Accepted(c *gin.Context, data interface{}, message ...string) {
	rh.respond(c, http.StatusAccepted, data, message...)
}

func (rh *ResponseHelper) respond(c *gin.Context, status int, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	c.JSON(status, response)
}

var secretKeyPattern = regexp.MustCompile(`sk-[A-Za-z0-9_\-]{4,}`)

// sanitizeErrorMessage masks anything shaped like an API key.
func sanitizeErrorMessage(message string) string {
	return secretKeyPattern.ReplaceAllString(message, "sk-***")
}

// Error 错误响应
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, details ...string) {
	apiError := &APIError{
		Code:    errorCode,
		Message: sanitizeErrorMessage(message),
	}
	if len(details) > 0 && details[0] != "" {
		apiError.Details = sanitizeErrorMessage(details[0])
	}

	c.AbortWithStatusJSON(statusCode, &APIResponse{
		Success:   false,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	})
}

// BadRequest 400错误响应
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, ErrorBadRequest, message, details...)
}

// NotFound 404错误响应
func (rh *ResponseHelper) NotFound(c *gin.Context, code, message string, details ...string) {
	rh.Error(c, http.StatusNotFound, code, message, details...)
}

// InternalError 500错误响应
func (rh *ResponseHelper) InternalError(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusInternalServerError, ErrorInternalError, message, details...)
}

// ServiceUnavailable 503错误响应
func (rh *ResponseHelper) ServiceUnavailable(c *gin.Context, code, message string, details ...string) {
	rh.Error(c, http.StatusServiceUnavailable, code, message, details...)
}

// HandleError maps an error onto the envelope using its AppError type.
func (rh *ResponseHelper) HandleError(c *gin.Context, err error) {
	detail := ""
	if cause := unwrapCause(err); cause != nil {
		detail = cause.Error()
	}
	rh.Error(c, apperrors.HTTPStatus(err), apperrors.CodeOf(err), apperrors.MessageOf(err), detail)
}

func unwrapCause(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Err
	}
	return nil
}

// FileResponse 文件下载响应
func (rh *ResponseHelper) FileResponse(c *gin.Context, content []byte, filename, contentType string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("X-Request-ID", rh.getRequestID(c))
	c.Data(http.StatusOK, contentType, content)
}

// ExportResponse sends a file export as a download and a layout as JSON.
func (rh *ResponseHelper) ExportResponse(c *gin.Context, result *models.ExportResult) {
	if result.Format == models.FormatLayout {
		rh.Success(c, result)
		return
	}
	if result.FilePath != "" {
		c.Header("X-Export-Path", result.FilePath)
	}
	rh.FileResponse(c, result.Content, result.FileName, result.ContentType)
}

// getRequestID 获取请求ID
func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
