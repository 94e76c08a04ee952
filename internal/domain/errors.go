package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an error into a stable category that callers can branch
// on without string matching.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindRender      Kind = "render"
	KindWrite       Kind = "write"
	KindConfig      Kind = "config"
	KindValidation  Kind = "validation"
	KindTimeout     Kind = "timeout"
	KindCanceled    Kind = "canceled"
	KindUnavailable Kind = "unavailable"
	KindInternal    Kind = "internal"
)

var (
	// ErrInvalidAPIKey signals that the provided API key is not known.
	ErrInvalidAPIKey = errors.New("invalid api key")
	// ErrTokenStoreNotReady signals that the token store has not been loaded yet.
	// This can happen during startup when the DB isn't ready.
	ErrTokenStoreNotReady = errors.New("token store not ready")
)

// Error is the structured error used across the repository.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error. Context cancellation and deadline errors override the
// given kind so timeouts surface uniformly no matter which layer hit them.
func E(kind Kind, op, msg string, err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	}
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf reports the kind of err, walking the wrap chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	return KindInternal
}

func IsNotFound(err error) bool    { return KindOf(err) == KindNotFound }
func IsRender(err error) bool      { return KindOf(err) == KindRender }
func IsWrite(err error) bool       { return KindOf(err) == KindWrite }
func IsConfig(err error) bool      { return KindOf(err) == KindConfig }
func IsValidation(err error) bool  { return KindOf(err) == KindValidation }
func IsTimeout(err error) bool     { return KindOf(err) == KindTimeout }
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }

// HTTPStatus maps an error to the response status used by the service's
// error handler.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindTimeout:
		return fiber.StatusRequestTimeout
	case KindCanceled, KindUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
