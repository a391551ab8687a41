package server

import (
	"errors"
	"net/http"
	"strings"

	"omifemcuts/internal/util"
	"omifemcuts/internal/validate"
	"omifemcuts/services/shop/internal/app"
)

type errorResponse struct {
	Error     string          `json:"error"`
	Code      string          `json:"code,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Fields    validate.Errors `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCodeForShop(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

// writeAppError maps an app-layer error onto a status and error code.
// Unknown errors are logged and reported as a generic 500.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *app.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:     verr.Error(),
			Code:      validationCode(r.URL.Path),
			RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
			Fields:    verr.Fields,
		})
		return
	}
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, app.ErrImageTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, app.ErrImageTooLarge.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrInvalidIDToken), errors.Is(err, app.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, app.ErrEmailAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrFederatedLoginDisabled):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, app.ErrUserNotFound),
		errors.Is(err, app.ErrStyleNotFound),
		errors.Is(err, app.ErrFeedbackNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrUnsupportedImage):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, app.ErrEmailAndPasswordRequired),
		errors.Is(err, app.ErrCannotChangeOwnRole),
		errors.Is(err, app.ErrCannotDeleteSelf),
		errors.Is(err, app.ErrImageRequired),
		errors.Is(err, app.ErrEmptyPatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, app.ErrInvalidQuery.Error())
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func validationCode(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/feedback"):
		return "FEEDBACK_INVALID"
	case strings.HasPrefix(path, "/api/contact"):
		return "CONTACT_INVALID"
	case strings.HasPrefix(path, "/api/admin/styles"):
		return "STYLE_INVALID"
	case strings.HasPrefix(path, "/api/admin/users"), path == "/api/auth/me":
		return "USER_INVALID"
	case strings.HasPrefix(path, "/api/auth/"):
		return "AUTH_INVALID_REQUEST"
	default:
		return "VALIDATION_FAILED"
	}
}

func errorCodeForShop(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "unauthorized":
		return "AUTH_INVALID_TOKEN"
	case message == "forbidden":
		return "AUTH_FORBIDDEN"
	case message == strings.ToLower(app.ErrInvalidCredentials.Error()):
		return "AUTH_INVALID_CREDENTIALS"
	case message == "email already exists":
		return "AUTH_EMAIL_ALREADY_EXISTS"
	case message == "email and password required":
		return "AUTH_EMAIL_PASSWORD_REQUIRED"
	case message == "federated sign-in not configured":
		return "AUTH_FEDERATED_DISABLED"
	case message == "too many signup attempts", message == "too many login attempts":
		return "AUTH_RATE_LIMITED"
	case strings.HasPrefix(message, "too many"):
		return "RATE_LIMITED"
	case message == "cannot change own role":
		return "USER_CANNOT_CHANGE_OWN_ROLE"
	case message == "cannot delete own account":
		return "USER_CANNOT_DELETE_SELF"
	case message == "user not found":
		return "USER_NOT_FOUND"
	case message == "style not found":
		return "STYLE_NOT_FOUND"
	case message == "feedback not found":
		return "FEEDBACK_NOT_FOUND"
	case message == "image required":
		return "STYLE_IMAGE_REQUIRED"
	case message == "image too large":
		return "STYLE_IMAGE_TOO_LARGE"
	case message == "image must be an image file":
		return "STYLE_UNSUPPORTED_IMAGE"
	case message == "invalid form data":
		return "STYLE_INVALID_UPLOAD_FORM"
	case message == "no fields to update":
		return "REQUEST_EMPTY_PATCH"
	case message == "invalid query", message == "invalid price mode":
		return "REQUEST_INVALID_QUERY"
	case message == "confirmation required":
		return "REQUEST_CONFIRMATION_REQUIRED"
	case message == "invalid json body":
		return "REQUEST_INVALID_JSON"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case message == "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "REQUEST_ERROR"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusForbidden:
		return "AUTH_FORBIDDEN"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
