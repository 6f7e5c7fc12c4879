package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	MalformedRecord           = DataError{http.StatusBadRequest, errors.New("malformed record")}
	UnknownDatumType          = DataError{http.StatusBadRequest, errors.New("unknown datum type")}
	UnknownDeviceEventSubtype = DataError{http.StatusBadRequest, errors.New("unknown device event subtype")}
	InvalidDateRange          = DataError{http.StatusUnprocessableEntity, errors.New("invalid date range")}
	NotFound                  = DataError{http.StatusNotFound, errors.New("not found")}
	BadRequest                = DataError{http.StatusBadRequest, errors.New("bad request")}
	InternalServerError       = DataError{http.StatusInternalServerError, errors.New("internal server error")}
)

type DataError struct {
	Code int
	Err  error
}

func (e DataError) Unwrap() error {
	return e.Err
}

func (e DataError) Error() string {
	return e.Err.Error()
}

// Detailed wraps a sentinel with record-specific context, keeping the
// sentinel matchable with errors.Is.
func Detailed(e DataError, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprintf(format, args...))
}
