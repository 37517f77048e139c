// Package client is an HTTP client for the validator backend.
//
// Every endpoint of the API has a method here. Non-2xx responses come back
// as *APIError carrying the status code and the server's error message, so
// callers can branch with IsStatus:
//
//	c := client.New("http://127.0.0.1:8000", client.WithTimeout(6*time.Second))
//	sess, err := c.Login(ctx, email, password, "validator")
//	if client.IsStatus(err, http.StatusForbidden) {
//	    // wrong role selected
//	}
//
// The list methods always report errors; deciding whether to fall back to
// an empty list is left to the caller.
package client
