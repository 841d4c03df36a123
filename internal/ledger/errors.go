package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrSelfFollow indicates an attempt to follow oneself.
	ErrSelfFollow = errors.New("ledger: cannot follow self")
	// ErrSelfMessage indicates sender and receiver are the same principal.
	ErrSelfMessage = errors.New("ledger: cannot message self")
	// ErrSelfDelegation indicates owner and operator are the same principal.
	ErrSelfDelegation = errors.New("ledger: cannot delegate to self")
	// ErrTweetNotFound indicates the referenced tweet does not exist.
	ErrTweetNotFound = errors.New("ledger: tweet not found")
	// ErrAlreadyLiked indicates the (tweet, liker) pair is already recorded.
	ErrAlreadyLiked = errors.New("ledger: already liked")
	// ErrEdgeExists indicates the follow edge is already recorded.
	ErrEdgeExists = errors.New("ledger: follow edge exists")
	// ErrDelegationActive indicates the delegation is already active.
	ErrDelegationActive = errors.New("ledger: delegation already active")
	// ErrDelegationNotActive indicates the delegation is not currently active.
	ErrDelegationNotActive = errors.New("ledger: delegation not active")
	// ErrNotAuthorized indicates the acting principal lacks delegation for the owner.
	ErrNotAuthorized = errors.New("ledger: principal not authorized")
	// ErrBadCount indicates a pagination count outside (0, total].
	ErrBadCount = errors.New("ledger: count out of range")
)

// ErrorKind classifies a ServiceError for callers that map failures onto an
// external surface.
type ErrorKind string

const (
	// ErrorKindValidation covers precondition failures: empty content,
	// self-targeting, duplicate state, missing entities, pagination overrun.
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindAuthorization covers delegate actions without an active grant.
	ErrorKindAuthorization ErrorKind = "authorization"
	// ErrorKindInternal covers storage failures outside the ledger contract.
	ErrorKindInternal ErrorKind = "internal"
)

// ServiceError carries an operation-scoped code alongside the cause, so a
// caller can tell exactly which precondition failed.
type ServiceError struct {
	kind ErrorKind
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the machine-readable "operation.reason" code.
func (e *ServiceError) Code() string {
	return e.code
}

// Kind returns the error classification.
func (e *ServiceError) Kind() ErrorKind {
	return e.kind
}

const (
	opPost             = "ledger.post"
	opSend             = "ledger.send"
	opFollow           = "ledger.follow"
	opGrantDelegation  = "ledger.grant_delegation"
	opRevokeDelegation = "ledger.revoke_delegation"
	opLike             = "ledger.like"
	opComment          = "ledger.comment"
	opLatestTweets     = "ledger.latest_tweets"
	opLatestTweetsOf   = "ledger.latest_tweets_of"
	opLatestComments   = "ledger.latest_comments"
)

func newServiceError(kind ErrorKind, operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{kind: kind, code: code, err: cause}
}

func newValidationError(operation, reason string, cause error) error {
	return newServiceError(ErrorKindValidation, operation, reason, cause)
}

func newAuthorizationError(operation string, cause error) error {
	return newServiceError(ErrorKindAuthorization, operation, "unauthorized", cause)
}

func newInternalError(operation, reason string, cause error) error {
	return newServiceError(ErrorKindInternal, operation, reason, cause)
}

// IsValidation reports whether err is a validation-kind ServiceError.
func IsValidation(err error) bool {
	return kindOf(err) == ErrorKindValidation
}

// IsAuthorization reports whether err is an authorization-kind ServiceError.
func IsAuthorization(err error) bool {
	return kindOf(err) == ErrorKindAuthorization
}

// IsDuplicateState reports whether err stems from re-recording existing
// state: a second like, an existing follow edge, an already-active grant.
func IsDuplicateState(err error) bool {
	return errors.Is(err, ErrAlreadyLiked) ||
		errors.Is(err, ErrEdgeExists) ||
		errors.Is(err, ErrDelegationActive)
}

func kindOf(err error) ErrorKind {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Kind()
	}
	return ""
}
