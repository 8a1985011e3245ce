package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// CodeNoRows is the PostgREST code for a single-row request that matched
// nothing.
const CodeNoRows = "PGRST116"

// ErrBackendUnavailable is returned by every call when the client runs
// without endpoint configuration.
var ErrBackendUnavailable = errors.New("backend unavailable: endpoint URL or API key not configured")

// Error is the backend's error shape.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error [%s]: %s", e.Code, e.Message)
	}
	if e.Status != 0 {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
	}
	return "backend error: " + e.Message
}

// NoRows builds the error drivers return when a single-row read is empty.
func NoRows(table string) *Error {
	return &Error{
		Status:  http.StatusNotAcceptable,
		Code:    CodeNoRows,
		Message: "JSON object requested, multiple (or no) rows returned",
		Details: "The result contains 0 rows in " + table,
	}
}

// IsNoRows reports whether err means "no rows found".
func IsNoRows(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Code == CodeNoRows
}

// Kind is the coarse classification of a backend failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindConnectivity
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConnectivity:
		return "connectivity"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Classify maps an error to its Kind, preferring structured fields and
// falling back to keyword matching on the raw text.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return KindConnectivity
	}

	var be *Error
	if errors.As(err, &be) {
		switch {
		case be.Code == CodeNoRows || be.Status == http.StatusNotFound:
			return KindNotFound
		case be.Code == "23505" || be.Status == http.StatusConflict:
			return KindConflict
		case be.Status == http.StatusUnauthorized:
			return KindUnauthorized
		case be.Status == http.StatusForbidden:
			return KindForbidden
		case be.Status == http.StatusBadRequest || strings.HasPrefix(be.Code, "22") || strings.HasPrefix(be.Code, "23"):
			return KindValidation
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"):
		return KindNotFound
	case strings.Contains(msg, "duplicate"):
		return KindConflict
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "401"):
		return KindUnauthorized
	case strings.Contains(msg, "forbidden") || strings.Contains(msg, "403"):
		return KindForbidden
	case strings.Contains(msg, "network") || strings.Contains(msg, "connection"):
		return KindConnectivity
	}
	return KindUnknown
}

// ErrorMessage renders err as the localized text shown to the user.
func ErrorMessage(err error) string {
	if err == nil {
		return "Неизвестная ошибка"
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return "Ошибка подключения к сети"
	}

	msg := err.Error()
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		msg = be.Message
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "not found"):
		return "Данные не найдены"
	case strings.Contains(lower, "duplicate"):
		return "Такие данные уже существуют"
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "401"):
		return "Ошибка аутентификации"
	case strings.Contains(lower, "forbidden") || strings.Contains(lower, "403"):
		return "Доступ запрещен"
	case strings.Contains(lower, "network") || strings.Contains(lower, "connection"):
		return "Ошибка подключения к сети"
	}
	return msg
}
