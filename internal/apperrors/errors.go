package apperrors

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindUnsupportedFormat Kind = "unsupported_format"
	KindParseFailure      Kind = "parse_failure"
	KindTranslator        Kind = "translator"
	KindCache             Kind = "cache"
	KindNotFound          Kind = "not_found"
	KindBadRequest        Kind = "bad_request"
	KindTransient         Kind = "transient"
	KindRateLimit         Kind = "rate_limit"
)

type Error struct {
	Kind Kind
	// SafeMessage is intended for user-facing output and logs.
	SafeMessage string
	// Cause keeps the original internal error for troubleshooting.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindUnsupportedFormat:
		return "Unsupported file format."
	case KindParseFailure:
		return "The document could not be parsed."
	case KindTranslator:
		return "Translation request failed."
	case KindCache:
		return "Status cache is unavailable."
	case KindNotFound:
		return "Task not found"
	case KindBadRequest:
		return "Invalid request."
	case KindTransient:
		return "Temporary upstream error. Please try again."
	case KindRateLimit:
		return "Rate limit exceeded. Please try again later."
	default:
		return "Request failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

func UnsupportedFormat(ext string) error {
	return New(KindUnsupportedFormat, "unsupported file format: "+ext, nil)
}

func ParseFailure(err error) error {
	return New(KindParseFailure, "", err)
}

func Translator(err error) error {
	return New(KindTranslator, "", err)
}

func Cache(err error) error {
	return New(KindCache, "", err)
}

func NotFound(msg string) error {
	return New(KindNotFound, msg, nil)
}

func BadRequest(err error) error {
	return New(KindBadRequest, "", err)
}

func Transient(err error) error {
	return New(KindTransient, "", err)
}

func RateLimit(err error) error {
	return New(KindRateLimit, "", err)
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}

func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	// Transient: server errors, network issues.
	// RateLimit: API rate limiting.
	return e.Kind == KindTransient || e.Kind == KindRateLimit
}

func IsRateLimit(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindRateLimit
}
