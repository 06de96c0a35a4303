package error

import "net/http"

// PersistenceError signals that a durable write failed during an update. It is
// the only store-level failure that propagates to the ingest caller.
type PersistenceError string

func (err PersistenceError) Error() string {
	return string(err)
}

func (err PersistenceError) ErrCode() string {
	return "PERSISTENCE_ERROR"
}

func (err PersistenceError) StatusCode() int {
	return http.StatusInternalServerError
}
