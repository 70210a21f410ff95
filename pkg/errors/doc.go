// Package errors provides structured error handling with error codes for simple-register.
//
// Every failure that crosses a package boundary (provider client, local accounts,
// signup workflow) is an *Error carrying an ErrorCode. Handlers map the code to an
// HTTP status with MapErrorCodeToHTTPStatus; the workflow maps it to a banner.
//
// # Basic Usage
//
//	err := errors.AlreadyExists("User already registered")
//	err := errors.Wrap(dbErr, errors.ErrCodeInternal, "failed to insert account")
//	err := errors.ValidationFailed(map[string]string{"email": "Virheellinen sähköposti"})
//
// # Inspection
//
//	if errors.IsCode(err, errors.ErrCodeUserAlreadyExists) {
//		// duplicate account
//	}
//
//	status := errors.MapErrorCodeToHTTPStatus(errors.GetCode(err))
//
// The package name shadows the standard library; import it with an alias
// (apperrors) where both are needed.
package errors
