package tickets

import "fmt"

// Category is the stable classification carried by every user-visible
// failure. Messages are generic by design: they never reveal which passkey
// position failed, why decryption failed, or any internal identifier.
type Category string

const (
	CategoryValidation   Category = "VALIDATION_ERROR"
	CategoryNotFound     Category = "NOT_FOUND"
	CategoryAccessDenied Category = "ACCESS_DENIED"
	CategoryDecryption   Category = "DECRYPTION_FAILED"
	CategoryInternal     Category = "INTERNAL_ERROR"
)

type DomainError struct {
	Category Category
	Message  string
	cause    error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *DomainError) Unwrap() error { return e.cause }

func validationError(format string, args ...any) *DomainError {
	return &DomainError{Category: CategoryValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(message string) *DomainError {
	return &DomainError{Category: CategoryNotFound, Message: message}
}

func accessDeniedError(message string) *DomainError {
	return &DomainError{Category: CategoryAccessDenied, Message: message}
}

func decryptionError() *DomainError {
	return &DomainError{
		Category: CategoryDecryption,
		Message:  "Unable to decrypt the ticket content. Double-check your passkeys and try again.",
	}
}

func internalError(message string, cause error) *DomainError {
	return &DomainError{Category: CategoryInternal, Message: message, cause: cause}
}
