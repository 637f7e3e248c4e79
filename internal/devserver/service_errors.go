package devserver

import "fmt"

type ServiceErrorKind string

const (
	ServiceErrorInvalid  ServiceErrorKind = "invalid"
	ServiceErrorNotFound ServiceErrorKind = "not_found"
)

type ServiceError struct {
	Kind    ServiceErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func invalidError(message string) *ServiceError {
	return &ServiceError{Kind: ServiceErrorInvalid, Message: message}
}

func notFoundError(message string) *ServiceError {
	return &ServiceError{Kind: ServiceErrorNotFound, Message: message}
}
