package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrOperationLocked   = errors.New("operation is closed for changes")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotLiquidatable   = errors.New("only completed operations can be liquidated")
	ErrNothingToExport   = errors.New("no operations to export")
)
