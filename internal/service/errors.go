package service

import "fmt"

// Retrieval error codes surfaced to the API layer.
const (
	CodeRetrievalFailed = "RETRIEVAL_FAILED"
	CodeEmptyCatalog    = "EMPTY_CATALOG"
)

// RetrievalError is a store failure during an aggregate read query. It
// carries a stable code so the API layer can map it without string matching.
type RetrievalError struct {
	Code    string
	Message string
	Err     error
}

func (e *RetrievalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

func retrievalFailed(message string, err error) *RetrievalError {
	return &RetrievalError{Code: CodeRetrievalFailed, Message: message, Err: err}
}

func emptyCatalog(message string) *RetrievalError {
	return &RetrievalError{Code: CodeEmptyCatalog, Message: message}
}
