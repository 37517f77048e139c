// Package types defines the JSON error envelope shared by the API handlers
// and the HTTP middleware.
//
// Every failure is returned as
//
//	{"error": {"message": "...", "type": "invalid_request_error", "param": "start", "code": "invalid_value"}}
//
// with the HTTP status derived from the error type.
package types
