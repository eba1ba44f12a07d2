// Package errors renders API failures as RFC 7807 problem details.
//
// ErrorHandler maps pipeline and run-manager sentinels (run not found, run in
// progress, category not found, invalid request) onto HTTP statuses with
// errors.Is, so handlers only ever return plain errors.
package errors
