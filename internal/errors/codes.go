// Package errors provides structured error handling for the launchpad engine.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeInvalidCap      Code = "INVALID_CAP"
	CodeInvalidTime     Code = "INVALID_TIME"
	CodeInvalidMinMax   Code = "INVALID_MIN_MAX"
	CodeInvalidFee      Code = "INVALID_FEE"

	// Timing errors
	CodePresaleNotStarted Code = "PRESALE_NOT_STARTED"
	CodePresaleEnded      Code = "PRESALE_ENDED"
	CodePresaleNotEnded   Code = "PRESALE_NOT_ENDED"

	// Authorization errors
	CodeUnauthorized Code = "UNAUTHORIZED"

	// Capacity errors
	CodeFundingCapExceeded Code = "FUNDING_CAP_EXCEEDED"
	CodeInsufficientTokens Code = "INSUFFICIENT_TOKENS"
	CodeAmountTooLow       Code = "AMOUNT_TOO_LOW"
	CodeAmountTooHigh      Code = "AMOUNT_TOO_HIGH"

	// Terminal-state errors
	CodePresaleAlreadyFinalized Code = "PRESALE_ALREADY_FINALIZED"

	// Ledger errors
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)

// HTTPStatus maps domain codes to HTTP status codes for client responses.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - caller-supplied parameters violate a static invariant
	case CodeInvalidArgument,
		CodeInvalidCap,
		CodeInvalidTime,
		CodeInvalidMinMax,
		CodeInvalidFee,
		CodeAmountTooLow,
		CodeAmountTooHigh:
		return http.StatusBadRequest

	// Failed precondition - current state disallows the operation
	case CodePresaleNotStarted,
		CodePresaleEnded,
		CodePresaleNotEnded,
		CodeFundingCapExceeded,
		CodeInsufficientTokens,
		CodeInsufficientFunds,
		CodePresaleAlreadyFinalized:
		return http.StatusConflict

	case CodeUnauthorized:
		return http.StatusForbidden

	case CodeNotFound:
		return http.StatusNotFound

	case CodeAlreadyExists:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
