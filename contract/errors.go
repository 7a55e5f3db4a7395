package contract

import (
	"errors"
	"fmt"
)

var (
	ErrExecutionReverted   = errors.New("execution reverted")
	ErrWriteProtection     = errors.New("write protection")
	ErrDepth               = errors.New("max call depth exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance for transfer")
	ErrNoCode              = errors.New("no code")
	ErrUnknownMethod       = errors.New("unknown method")
	ErrNotPayable          = errors.New("method is not payable")
	ErrContractExists      = errors.New("contract address collision")
	ErrBadArgument         = errors.New("bad argument")
)

// RevertError is returned when contract code aborts with a reason.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return ErrExecutionReverted.Error()
	}
	return fmt.Sprintf("%s: %s", ErrExecutionReverted, e.Reason)
}

func (e *RevertError) Unwrap() error {
	return ErrExecutionReverted
}

// Revert aborts the current call with reason.
func Revert(reason string) error {
	return &RevertError{Reason: reason}
}

// Require reverts with reason unless cond holds.
func Require(cond bool, reason string) error {
	if cond {
		return nil
	}
	return Revert(reason)
}

// Reason extracts the revert reason of err, or err's message when it is not
// a revert.
func Reason(err error) string {
	var revert *RevertError
	if errors.As(err, &revert) {
		return revert.Reason
	}
	return err.Error()
}
