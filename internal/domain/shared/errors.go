package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrValidation  = NewDomainError("VALIDATION_ERROR", "Invalid input provided")
	ErrNotFound    = NewDomainError("NOT_FOUND", "Resource not found")
	ErrNetwork     = NewDomainError("NETWORK_ERROR", "Upstream service unreachable")
	ErrUpstream    = NewDomainError("UPSTREAM_ERROR", "Upstream service returned an invalid response")
	ErrConversion  = NewDomainError("CONVERSION_ERROR", "PDF conversion failed")
	ErrPersistence = NewDomainError("PERSISTENCE_ERROR", "Failed to persist record")
)
