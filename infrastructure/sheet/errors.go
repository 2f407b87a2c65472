package sheet

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a sheet id does not resolve.
	ErrNotFound = errors.New("sheet not found")
	// ErrInvalidCellValue rejects non-numeric or negative matrix input.
	ErrInvalidCellValue = errors.New("value must be a non-negative whole number")
	// ErrSlotDisabled rejects edits to slots beyond the staged pallet count.
	ErrSlotDisabled = errors.New("slot is beyond the staged full pallet count")
	// ErrUnknownItem rejects edits addressed to a row that does not exist.
	ErrUnknownItem = errors.New("item not found on sheet")
)

// ValidationError lists every broken lock-readiness rule.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "sheet is not ready: " + strings.Join(e.Violations, "; ")
}

// ConflictError reports a competing write on the same sheet.
type ConflictError struct {
	SheetID string
	Reason  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("sheet %s: %s", e.SheetID, e.Reason)
}

// CellContractViolation reports a grid value that disagrees with the SKU's
// cases-per-pallet. The offending cell has already been cleared.
type CellContractViolation struct {
	SkuSrNo  int
	Row      int
	Col      int
	Expected int
	Got      int
}

func (e *CellContractViolation) Error() string {
	return fmt.Sprintf("item %d cell (%d,%d): a full pallet must hold %d cases, got %d", e.SkuSrNo, e.Row, e.Col, e.Expected, e.Got)
}

// TransitionError reports an operation invoked in a state that forbids it.
type TransitionError struct {
	SheetID string
	Op      string
	Status  Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s sheet %s while %s", e.Op, e.SheetID, e.Status)
}

// PersistenceError wraps a storage collaborator failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistenceErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var conflict *ConflictError
	if errors.Is(err, ErrNotFound) || errors.As(err, &conflict) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
