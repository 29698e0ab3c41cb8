package chain

import "fmt"

// ReadError marks a failed chain read. Callers surface it as-is; reads are
// never retried automatically.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("chain read failed (%s): %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError marks a failed transaction submission.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("chain write failed (%s): %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
