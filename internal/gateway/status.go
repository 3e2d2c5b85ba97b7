package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"e2egateway/internal/domain"
)

func statusErr(status int) error {
	switch status {
	case http.StatusBadRequest:
		return errors.New("gateway: bad request (invalid recipient or malformed request)")
	case http.StatusUnauthorized:
		return errors.New("gateway: wrong identity or secret")
	case http.StatusPaymentRequired:
		return errors.New("gateway: no credits remaining")
	case http.StatusNotFound:
		return errors.New("gateway: not found")
	case http.StatusRequestEntityTooLarge:
		return errors.New("gateway: request too large")
	}
	return fmt.Errorf("gateway: %d %s", status, http.StatusText(status))
}

func sendError(status int) *domain.Error {
	kind := domain.ErrSubmissionFailed
	if status == http.StatusRequestEntityTooLarge {
		kind = domain.ErrPayloadTooLarge
	}
	return domain.E(kind, "send", statusErr(status)).WithStatus(status)
}

func uploadError(status int) *domain.Error {
	kind := domain.ErrUploadFailed
	if status == http.StatusRequestEntityTooLarge {
		kind = domain.ErrBlobTooLarge
	}
	return domain.E(kind, "upload", statusErr(status)).WithStatus(status)
}

func lookupError(status int) *domain.Error {
	kind := domain.ErrSubmissionFailed
	if status == http.StatusNotFound {
		kind = domain.ErrUnknownIdentity
	}
	return domain.E(kind, "lookup", statusErr(status)).WithStatus(status)
}

func queryError(op string, status int) *domain.Error {
	return domain.E(domain.ErrSubmissionFailed, op, statusErr(status)).WithStatus(status)
}
