package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"creotrail/validator/pkg/cli"
	"creotrail/validator/pkg/config"
	"creotrail/validator/pkg/server"
)

func writeSelfSigned(t *testing.T, dir string) (string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(7),
		Subject:      pkix.Name{CommonName: "creotrail-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(10 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	certPath := filepath.Join(dir, "server.crt")
	keyPath := filepath.Join(dir, "server.key")
	if err := os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatal(err)
	}
	return certPath, keyPath
}

func TestCerts(t *testing.T) {
	env := newTestEnv(t)
	certPath, keyPath := writeSelfSigned(t, env.dir)

	out := mustRun(t, "", "certs", "info", "--format", "json", certPath)
	var info map[string]any
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("certs info output is not JSON: %v\n%s", err, out)
	}
	if info["subject"] != "CN=creotrail-test" || info["days_remaining"] != float64(9) {
		t.Errorf("unexpected info %v", info)
	}

	out = mustRun(t, "", "certs", "info", certPath)
	if !strings.Contains(out, "127.0.0.1") || !strings.Contains(out, "ECDSA") {
		t.Errorf("table output missing fields:\n%s", out)
	}

	out = mustRun(t, "", "certs", "check", "--config", env.configPath, "--cert", certPath, "--key", keyPath)
	if !strings.Contains(out, "✓ Certificate valid for creotrail-test") || !strings.Contains(out, "⚠ Certificate expires on") {
		t.Errorf("unexpected check output: %q", out)
	}

	_, err := run(t, "", "certs", "check", "--config", env.configPath)
	var cfgErr *cli.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("check without key pair error = %v, want ConfigError", err)
	}

	if _, err := run(t, "", "certs", "info", filepath.Join(env.dir, "missing.crt")); err == nil {
		t.Error("expected error for missing certificate")
	}
}

func TestClient_PrivateCA(t *testing.T) {
	env := newTestEnv(t)

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	srv := server.NewServer(cfg, server.Deps{
		Store:  env.openStore(t),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewTLSServer(srv.Handler())
	defer ts.Close()

	caPath := filepath.Join(env.dir, "ca.pem")
	if err := os.WriteFile(caPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ts.Certificate().Raw}), 0o600); err != nil {
		t.Fatal(err)
	}

	withCA := func(path string) string {
		p := filepath.Join(env.dir, "client-"+filepath.Base(path)+".yaml")
		body := "security:\n  bcrypt_cost: 4\ntelemetry:\n  logging:\n    level: error\nclient:\n  ca_file: " + path + "\n"
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		return p
	}

	out := mustRun(t, "", "stats", "--config", withCA(caPath), "--server", ts.URL, "--format", "json")
	if !strings.Contains(out, `"validators"`) {
		t.Errorf("stats over TLS output = %q", out)
	}

	// Without the CA the default roots reject the test certificate.
	if _, err := run(t, "", "stats", "--config", env.configPath, "--server", ts.URL); err == nil {
		t.Error("expected TLS verification failure without ca_file")
	}

	_, err = run(t, "", "stats", "--config", withCA(filepath.Join(env.dir, "nope.pem")), "--server", ts.URL)
	var cfgErr *cli.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "client.ca_file" {
		t.Errorf("missing CA error = %v, want ConfigError for client.ca_file", err)
	}
}
