package errors

import "fmt"

// Kind classifies a bridge error. Kind strings appear verbatim in the
// dispatcher's error envelopes, so they are part of the wire contract.
type Kind string

const (
	KindAuthentication   Kind = "AuthenticationError"
	KindCapability       Kind = "CapabilityError"
	KindNetwork          Kind = "NetworkError"
	KindProtocol         Kind = "ProtocolError"
	KindNotFound         Kind = "NotFound"
	KindValidation       Kind = "ValidationError"
	KindInvalidRequest   Kind = "InvalidRequest"
	KindInvalidJSON      Kind = "InvalidJSON"
	KindPermissionDenied Kind = "PermissionDenied"
	KindTransport        Kind = "TransportError"
	KindInternal         Kind = "InternalError"
)

// BridgeError is the structured error passed across layer boundaries.
// Hint carries fixed, kind-specific remediation guidance where the
// failure is user-actionable.
type BridgeError struct {
	Kind    Kind
	Message string
	Details map[string]any
	Hint    string
}

// Error implements the error interface.
func (e *BridgeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewAuth creates an authentication error with credential-check guidance.
func NewAuth(msg string) *BridgeError {
	return &BridgeError{
		Kind:    KindAuthentication,
		Message: msg,
		Hint: "Check FASTMAIL_USERNAME and FASTMAIL_APP_PASSWORD. " +
			"Ensure the app password is valid and not expired.",
	}
}

// NewCapability creates an error for a capability the account does not have.
func NewCapability(capability string) *BridgeError {
	return &BridgeError{
		Kind:    KindCapability,
		Message: fmt.Sprintf("JMAP capability %q not available", capability),
		Details: map[string]any{"capability": capability},
		Hint: "This account may not have access to the requested feature. " +
			"Contact your Fastmail administrator or check account permissions.",
	}
}

// NewNetwork creates a connectivity-level error.
func NewNetwork(msg string) *BridgeError {
	return &BridgeError{
		Kind:    KindNetwork,
		Message: msg,
		Hint: "Check internet connectivity and Fastmail service status. " +
			"Verify FASTMAIL_BASE_URL is correct.",
	}
}

// NewProtocol creates an error for a malformed or unexpected backend payload.
func NewProtocol(msg string) *BridgeError {
	return &BridgeError{
		Kind:    KindProtocol,
		Message: msg,
	}
}

// NewNotFound creates a not-found error for an ID-addressed lookup.
func NewNotFound(msg string) *BridgeError {
	return &BridgeError{
		Kind:    KindNotFound,
		Message: msg,
	}
}

// NewValidation creates an error for bad caller-supplied parameters.
func NewValidation(field, msg string) *BridgeError {
	return &BridgeError{
		Kind:    KindValidation,
		Message: fmt.Sprintf("invalid %s: %s", field, msg),
		Details: map[string]any{"field": field},
	}
}

// NewInvalidRequest creates an error for a request envelope problem.
func NewInvalidRequest(msg string) *BridgeError {
	return &BridgeError{
		Kind:    KindInvalidRequest,
		Message: msg,
	}
}

// NewInvalidJSON creates an error for an unparsable request line.
func NewInvalidJSON(msg string) *BridgeError {
	return &BridgeError{
		Kind:    KindInvalidJSON,
		Message: msg,
	}
}

// NewPermissionDenied creates an error for the disabled write path.
func NewPermissionDenied(msg string) *BridgeError {
	return &BridgeError{
		Kind:    KindPermissionDenied,
		Message: msg,
		Hint:    "Set enable_write (FASTMAIL_ENABLE_WRITE) to allow write operations.",
	}
}

// NewTransport creates a generic call failure carrying the HTTP status and
// raw body text. Callers upstream decide fallback policy.
func NewTransport(status int, body string) *BridgeError {
	return &BridgeError{
		Kind:    KindTransport,
		Message: fmt.Sprintf("JMAP request failed with status %d: %s", status, body),
		Details: map[string]any{"status": status},
	}
}

// NewInternal wraps an unexpected error.
func NewInternal(err error) *BridgeError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &BridgeError{
		Kind:    KindInternal,
		Message: msg,
	}
}

// Is checks if an error is a BridgeError with the given kind.
func Is(err error, kind Kind) bool {
	if bErr, ok := err.(*BridgeError); ok {
		return bErr.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or KindInternal for any other error.
// The dispatcher uses this at its catch-everything boundary.
func KindOf(err error) Kind {
	if bErr, ok := err.(*BridgeError); ok {
		return bErr.Kind
	}
	return KindInternal
}

// IsTransportLevel reports whether err is a failure of the live backend
// path — the class of error the facade's fallback policy responds to.
func IsTransportLevel(err error) bool {
	switch KindOf(err) {
	case KindAuthentication, KindCapability, KindNetwork, KindProtocol, KindTransport:
		return true
	}
	return false
}
