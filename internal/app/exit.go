package app

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/lvcoi/xgrab/internal/extract"
	"github.com/lvcoi/xgrab/internal/transfer"
)

// Process exit codes. A batch run exits with the highest code any
// post produced; an interrupt dominates everything.
const (
	ExitOK          = 0
	ExitGeneric     = 1
	ExitInvalid     = 2
	ExitNoVideo     = 3
	ExitLoginWall   = 4
	ExitProtected   = 5
	ExitTransfer    = 6
	ExitInterrupted = 130
)

// ExitCode maps err onto the exit code table.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if interrupted(err) {
		return ExitInterrupted
	}
	if transferFailure(err) {
		return ExitTransfer
	}
	switch extract.ClassOf(err) {
	case extract.ClassInvalidInput, extract.ClassParseError:
		return ExitInvalid
	case extract.ClassNoVideo:
		return ExitNoVideo
	case extract.ClassLoginWall:
		return ExitLoginWall
	case extract.ClassProtected:
		return ExitProtected
	}
	return ExitGeneric
}

// ClassName labels err for machine-readable output.
func ClassName(err error) string {
	if err == nil {
		return ""
	}
	if interrupted(err) {
		return "interrupted"
	}
	if transferFailure(err) {
		return "transfer-error"
	}
	return string(extract.ClassOf(err))
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, transfer.ErrAborted)
}

// transferFailure covers the transfer error types plus raw network
// failures surfacing from the HTTP stack. Extraction failures never
// carry these; classified errors format their causes into messages.
func transferFailure(err error) bool {
	var statusErr *transfer.StatusError
	var convErr *transfer.ConvertError
	if errors.As(err, &statusErr) || errors.As(err, &convErr) {
		return true
	}
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}
