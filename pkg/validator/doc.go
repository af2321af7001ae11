// Package validator checks request input before it reaches a store.
//
// Rules are plain values evaluated by Apply; every failing rule contributes
// one ValidationError, so a single call reports all problems at once.
//
//	err := validator.Apply(
//		validator.ValidEmail("email", email),
//		validator.Password("password", password),
//		validator.Username("username", username),
//	)
//
// A non-nil result is always ValidationErrors and can be recovered with
// errors.As or ExtractValidationErrors.
package validator
