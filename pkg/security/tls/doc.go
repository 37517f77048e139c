/*
Package tls builds the TLS settings for the validator API server and the
CLI client.

# Server

NewServerConfig loads a key pair, validates it against the current time and
returns a tls.Config whose GetCertificate always serves the latest pair.
Certificate files are polled every ReloadInterval, so a renewed certificate
is picked up without restarting the server:

	cfg, _, err := tls.NewServerConfig(ctx, tls.Options{
		CertFile:   "/etc/creotrail/server.crt",
		KeyFile:    "/etc/creotrail/server.key",
		MinVersion: "1.3",
	})
	if err != nil {
		return err
	}
	listener = cryptotls.NewListener(listener, cfg)

Setting ClientCAFile turns on client certificate verification (mTLS).

# Client

NewClientConfig trusts a private CA bundle, which is what a self-signed
deployment needs:

	cfg, err := tls.NewClientConfig("/etc/creotrail/ca.pem")
*/
package tls
