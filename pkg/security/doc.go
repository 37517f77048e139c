/*
Package security groups the credential handling of the validator backend.

  - password hashes and verifies user passwords with bcrypt.
  - auth checks API keys on the HTTP API.
  - secrets resolves ${secret:name} references in configuration from the
    environment and a secrets directory.
  - tls builds the HTTPS listener and client trust settings.

# API Key Authentication

	validator := auth.NewValidatorFromConfig(cfg.Security.Authentication.Keys)
	mw := auth.NewAPIKeyMiddleware(validator, auth.SourcesFromConfig(sources), publicPaths, logger)

	http.Handle("/", mw.Handle(handler))

# Secrets

	files, err := secrets.NewFileProvider("/run/secrets")
	if err != nil {
		return err
	}
	resolver := secrets.NewResolver(logger, secrets.NewEnvProvider(secrets.DefaultEnvPrefix), files)
	dsn, err := resolver.Expand(ctx, "postgres://app:${secret:db-password}@db/creotrail")
*/
package security
