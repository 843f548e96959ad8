package gateway

import (
	"errors"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/internal/protocol/wire"
	"github.com/bistrokit/bistro/pkg/models"
)

// Wire error codes. Clients branch on the code; the message is display text.
const (
	codeUnknownAction       = "UNKNOWN_ACTION"
	codeSystemError         = "SYSTEM_ERROR"
	codeNotFound            = "NOT_FOUND"
	codeInvalidCredentials  = "INVALID_CREDENTIALS"
	codeAlreadyOnline       = "ALREADY_ONLINE"
	codeAlreadyActive       = "ALREADY_ACTIVE"
	codeUnauthorized        = "UNAUTHORIZED"
	codeDuplicateUsername   = "DUPLICATE_USERNAME"
	codeDuplicateMemberCode = "DUPLICATE_MEMBER_CODE"
	codeDuplicateTable      = "DUPLICATE_TABLE"
	codeOutsideHours        = "OUTSIDE_HOURS"
	codeTooSoon             = "TOO_SOON"
	codeTooFar              = "TOO_FAR"
	codeNoTables            = "NO_TABLES"
	codeNoFreeTable         = "NO_FREE_TABLE"
	codeWrongState          = "WRONG_STATE"
	codeOutsideWindow       = "OUTSIDE_WINDOW"
	codeNotLeavable         = "NOT_LEAVABLE"
	codeTableOccupied       = "TABLE_OCCUPIED"
	codeMissingContact      = "MISSING_CONTACT"
	codeValidation          = "VALIDATION_ERROR"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{models.ErrUserNotFound, codeNotFound},
	{models.ErrOrderNotFound, codeNotFound},
	{models.ErrTableNotFound, codeNotFound},
	{models.ErrHoursNotFound, codeNotFound},
	{models.ErrInvalidCredentials, codeInvalidCredentials},
	{models.ErrAlreadyOnline, codeAlreadyOnline},
	{models.ErrAlreadyActive, codeAlreadyActive},
	{models.ErrUnauthorized, codeUnauthorized},
	{models.ErrDuplicateUsername, codeDuplicateUsername},
	{models.ErrDuplicateMemberCode, codeDuplicateMemberCode},
	{models.ErrDuplicateTable, codeDuplicateTable},
	{models.ErrOutsideHours, codeOutsideHours},
	{models.ErrTooSoon, codeTooSoon},
	{models.ErrTooFar, codeTooFar},
	{models.ErrNoTables, codeNoTables},
	{models.ErrNoFreeTable, codeNoFreeTable},
	{models.ErrWrongState, codeWrongState},
	{models.ErrOutsideWindow, codeOutsideWindow},
	{models.ErrNotLeavable, codeNotLeavable},
	{models.ErrTableOccupied, codeTableOccupied},
	{models.ErrMissingContact, codeMissingContact},
}

// validationError marks bad request input (guest count, numeric ranges,
// malformed fields). It travels as VALIDATION_ERROR rather than a system
// error.
type validationError string

func (e validationError) Error() string { return string(e) }

// errorCode maps a domain error to its wire code. Unrecognized errors are
// system errors; those get logged at the call site.
func errorCode(err error) string {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	var v validationError
	if errors.As(err, &v) {
		return codeValidation
	}
	return codeSystemError
}

// errorReply encodes a failed request's response. System errors are logged
// here since the client only sees a generic code.
func (g *Gateway) errorReply(tag string, cid uint32, err error) []byte {
	code := errorCode(err)
	if code == codeSystemError {
		logger.Error("request hit system error", logger.Action(tag), logger.Err(err))
	}
	return mustEncodeError(tag, cid, code, err.Error())
}

// mustEncodeError encodes an error response, falling back to nil (no reply)
// when even that fails. Encoding into a buffer cannot realistically fail;
// the fallback keeps the connection loop total.
func mustEncodeError(tag string, cid uint32, code, message string) []byte {
	out, err := wire.EncodeError(tag, cid, code, message)
	if err != nil {
		logger.Error("failed to encode error reply", logger.Action(tag), logger.Err(err))
		return nil
	}
	return out
}
