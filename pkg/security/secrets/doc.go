/*
Package secrets keeps credentials out of config files.

A config value may contain ${secret:name} references:

	database:
	  dsn: "postgres://app:${secret:db-password}@db/creotrail"

The Resolver looks name up in its providers in order. EnvProvider reads
CREOTRAIL_SECRET_DB_PASSWORD; FileProvider reads <dir>/db-password, the
layout used by Docker and Kubernetes secret mounts.

	r := secrets.NewResolver(logger, secrets.NewEnvProvider(""), fileProvider)
	dsn, err := r.Expand(ctx, cfg.Database.DSN)
*/
package secrets
