package database

import "errors"

// Custom errors returned by the repositories
var (
	ErrLoanNotFound       = errors.New("loan not found")
	ErrILLRequestNotFound = errors.New("inter-library loan request not found")
	ErrBorrowerNotFound   = errors.New("borrower not found")
	ErrItemNotFound       = errors.New("item not found")
	ErrRequestNotFound    = errors.New("hold request not found")
)
