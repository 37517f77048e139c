/*
Package auth provides optional API key authentication for the HTTP API.

Keys come from the security.authentication section of the configuration and
are read from the request using an ordered list of sources (headers with an
optional scheme, or query parameters). The first source that yields a value
wins.

# Basic Usage

	validator := auth.NewValidatorFromConfig(cfg.Security.Authentication.Keys)
	sources := auth.SourcesFromConfig(cfg.Security.Authentication.Sources)

	mw := auth.NewAPIKeyMiddleware(validator, sources, cfg.Security.Authentication.PublicPaths, logger)
	router.Use(mw.Handle)

Requests to public paths and CORS preflight requests bypass the check.
Rejected requests receive a 401 with the JSON error envelope from
pkg/api/types. The matched key is available to handlers through
GetAPIKeyInfo.
*/
package auth
