// Package commiterr is the failure taxonomy of the commit pipeline.
//
// Every pipeline step returns a *Error carrying the Kind of failure and the
// Step it happened in. The bridge surfaces the most specific failure to the
// caller unchanged; nothing is collapsed to a boolean.
package commiterr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindConfiguration Kind = "ConfigurationError" // authority key or ledger connection missing
	KindNotFound      Kind = "NotFoundError"      // asset absent from catalog or not provisioned on-chain
	KindEntitlement   Kind = "EntitlementError"   // player lacks the required quantity
	KindChainRead     Kind = "ChainReadError"     // registry or ledger read failed
	KindStoreRead     Kind = "StoreReadError"     // catalog or inventory read failed
	KindOwnership     Kind = "OwnershipError"     // no owned instance to burn or modify
	KindEncoding      Kind = "EncodingError"      // malformed operation parameters
	KindSigning       Kind = "SigningError"       // signature production failed
)

// Step names the pipeline stage a failure was raised in.
type Step string

const (
	StepAuthority Step = "authority"
	StepValidate  Step = "validate"
	StepVerify    Step = "verify"
	StepResolve   Step = "resolve"
	StepOwnership Step = "ownership"
	StepNonce     Step = "nonce"
	StepEncode    Step = "encode"
	StepBuild     Step = "build"
	StepSign      Step = "sign"
)

// Sentinels for errors.Is matching on Kind alone.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrEntitlement   = &Error{Kind: KindEntitlement}
	ErrChainRead     = &Error{Kind: KindChainRead}
	ErrStoreRead     = &Error{Kind: KindStoreRead}
	ErrOwnership     = &Error{Kind: KindOwnership}
	ErrEncoding      = &Error{Kind: KindEncoding}
	ErrSigning       = &Error{Kind: KindSigning}
)

// Error is a classified pipeline failure.
type Error struct {
	Kind     Kind
	Step     Step
	Asset    string
	PlayerID string
	Message  string
	Err      error
}

// New creates a classified error.
func New(kind Kind, step Step, format string, args ...any) *Error {
	return &Error{Kind: kind, Step: step, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error. A nil err yields nil.
func Wrap(kind Kind, step Step, err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Step: step, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Step != "" {
		b.WriteString(" [")
		b.WriteString(string(e.Step))
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind when target is a bare sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Step == "" && t.Message == "" && t.Err == nil {
		return e.Kind == t.Kind
	}
	return e == t
}

// WithSubject returns a copy annotated with the asset and player the failure concerns.
func (e *Error) WithSubject(asset, playerID string) *Error {
	c := *e
	c.Asset = asset
	c.PlayerID = playerID
	return &c
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StepOf returns the Step of the first *Error in err's chain, or "" if none.
func StepOf(err error) Step {
	var e *Error
	if errors.As(err, &e) {
		return e.Step
	}
	return ""
}

// ClientActionable reports whether the caller can act on the failure (4xx class).
func ClientActionable(kind Kind) bool {
	switch kind {
	case KindNotFound, KindEntitlement, KindOwnership, KindEncoding:
		return true
	default:
		return false
	}
}

// HTTPStatus maps a Kind to the status an HTTP surface should answer with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindEntitlement:
		return http.StatusForbidden
	case KindOwnership:
		return http.StatusConflict
	case KindEncoding:
		return http.StatusBadRequest
	case KindConfiguration:
		return http.StatusServiceUnavailable
	case KindChainRead, KindStoreRead:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
