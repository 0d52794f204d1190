package iracing

import (
	"errors"
	"fmt"
)

var (
	// ErrMaintenance is matched by every *MaintenanceError.
	ErrMaintenance = errors.New("iRacing is down for maintenance")
	// ErrUnknownApiResponse is returned when a payload was valid json but did
	// not have the shape of a successful response.
	ErrUnknownApiResponse = errors.New("got invalid api response data")
)

// MaintenanceError is returned for any 503 response.
type MaintenanceError struct {
	// Detail is the title of the maintenance page if one could be found.
	Detail string
}

func (e *MaintenanceError) Error() string {
	if e.Detail == "" {
		return ErrMaintenance.Error()
	}
	return fmt.Sprintf("%s (%s)", ErrMaintenance.Error(), e.Detail)
}

func (e *MaintenanceError) Is(target error) bool {
	return target == ErrMaintenance
}

// HttpStatusError is returned for any other 4xx or 5xx response.
type HttpStatusError struct {
	StatusCode int
	Status     string
	Url        string
}

func (e *HttpStatusError) Error() string {
	return fmt.Sprintf("unexpected http status %s from %s", e.Status, e.Url)
}

// DeserializationError is returned when a response body could not be decoded at all.
type DeserializationError struct {
	// What names the object that failed to decode, ex. "link".
	What string
	Err  error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.What, e.Err.Error())
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}
