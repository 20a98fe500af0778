package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	actiondomain "github.com/quizhive/quizhive/internal/action/domain"
	authdomain "github.com/quizhive/quizhive/internal/auth/domain"
	"github.com/quizhive/quizhive/internal/authorization"
	companydomain "github.com/quizhive/quizhive/internal/company/domain"
	"github.com/quizhive/quizhive/internal/export"
	quizdomain "github.com/quizhive/quizhive/internal/quiz/domain"
	resultdomain "github.com/quizhive/quizhive/internal/result/domain"
	userdomain "github.com/quizhive/quizhive/internal/user/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, userdomain.ErrInvalidEmail),
		errors.Is(err, userdomain.ErrInvalidPassword),
		errors.Is(err, userdomain.ErrInvalidUser),
		errors.Is(err, companydomain.ErrInvalidName),
		errors.Is(err, companydomain.ErrInvalidUser),
		errors.Is(err, companydomain.ErrInvalidCompany),
		errors.Is(err, actiondomain.ErrInvalidKind),
		errors.Is(err, actiondomain.ErrInvalidUser),
		errors.Is(err, quizdomain.ErrInvalidTitle),
		errors.Is(err, quizdomain.ErrInvalidPrompt),
		errors.Is(err, quizdomain.ErrNotEnoughAnswers),
		errors.Is(err, quizdomain.ErrInvalidCorrectIndex),
		errors.Is(err, quizdomain.ErrInvalidFrequency),
		errors.Is(err, resultdomain.ErrIncompleteAnswers),
		errors.Is(err, resultdomain.ErrInvalidAnswer),
		errors.Is(err, resultdomain.ErrNoQuestions),
		errors.Is(err, resultdomain.ErrInvalidUser),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, export.ErrInvalidUser):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrInvalidToken):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, userdomain.ErrForbidden),
		errors.Is(err, companydomain.ErrForbidden),
		errors.Is(err, companydomain.ErrOwnerMembership),
		errors.Is(err, authorization.ErrForbidden):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, userdomain.ErrUserExists),
		errors.Is(err, userdomain.ErrPhoneExists),
		errors.Is(err, companydomain.ErrSlugTaken),
		errors.Is(err, companydomain.ErrAlreadyAdmin),
		errors.Is(err, actiondomain.ErrActionExists),
		errors.Is(err, actiondomain.ErrAlreadyMember),
		errors.Is(err, resultdomain.ErrAttemptTooSoon):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, companydomain.ErrCompanyNotFound),
		errors.Is(err, companydomain.ErrMemberNotFound),
		errors.Is(err, companydomain.ErrAdminNotFound),
		errors.Is(err, actiondomain.ErrActionNotFound),
		errors.Is(err, quizdomain.ErrQuizNotFound),
		errors.Is(err, quizdomain.ErrQuestionNotFound),
		errors.Is(err, resultdomain.ErrResultNotFound),
		errors.Is(err, export.ErrSnapshotNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

// classifyErrorForLog maps a handler error to the type and code fields
// of the request log line.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	return payload.Type, err.Error()
}
