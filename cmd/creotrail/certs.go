package main

import (
	cryptotls "crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"creotrail/validator/pkg/cli"
	"creotrail/validator/pkg/security/tls"
)

var certsFlags struct {
	format   string
	certFile string
	keyFile  string
}

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Inspect TLS certificates",
}

var certsInfoCmd = &cobra.Command{
	Use:   "info <cert-file>",
	Short: "Display certificate details",
	Long: `Display the subject, issuer, validity window and alternative names of a
PEM certificate.

Examples:
  creotrail certs info server.crt
  creotrail certs info --format json server.crt`,
	Args: cobra.ExactArgs(1),
	RunE: runCertsInfo,
}

var certsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the server key pair",
	Long: `Load the key pair named by security.tls (or --cert/--key) exactly as
'creotrail serve' would and report whether it is usable.`,
	Args: cobra.NoArgs,
	RunE: runCertsCheck,
}

func init() {
	rootCmd.AddCommand(certsCmd)
	certsCmd.AddCommand(certsInfoCmd, certsCheckCmd)

	certsInfoCmd.Flags().StringVar(&certsFlags.format, "format", "table", "output format: table, json, csv")
	certsCheckCmd.Flags().StringVar(&certsFlags.certFile, "cert", "", "certificate file (default: security.tls.cert_file)")
	certsCheckCmd.Flags().StringVar(&certsFlags.keyFile, "key", "", "private key file (default: security.tls.key_file)")
}

func runCertsInfo(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(certsFlags.format)
	if err != nil {
		return err
	}
	cert, err := tls.ReadCertificateFile(args[0])
	if err != nil {
		return cli.NewCommandError("certs info", err)
	}
	info := tls.Describe(cert, time.Now())

	t := &cli.Table{Header: []string{"field", "value"}, Data: info}
	t.Append("subject", info.Subject)
	t.Append("issuer", info.Issuer)
	t.Append("serial", info.SerialNumber)
	t.Append("not_before", info.NotBefore.UTC().Format(time.RFC3339))
	t.Append("not_after", info.NotAfter.UTC().Format(time.RFC3339))
	t.Append("days_remaining", fmt.Sprint(info.DaysRemaining))
	if len(info.DNSNames) > 0 {
		t.Append("dns_names", strings.Join(info.DNSNames, ", "))
	}
	if len(info.IPAddresses) > 0 {
		t.Append("ip_addresses", strings.Join(info.IPAddresses, ", "))
	}
	t.Append("signature", info.SignatureAlgorithm)
	t.Append("public_key", info.PublicKeyAlgorithm)
	t.Append("ca", fmt.Sprint(info.IsCA))
	return cli.Print(cmd.OutOrStdout(), format, t)
}

func runCertsCheck(cmd *cobra.Command, args []string) error {
	certFile, keyFile := certsFlags.certFile, certsFlags.keyFile
	if certFile == "" || keyFile == "" {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		if certFile == "" {
			certFile = cfg.Security.TLS.CertFile
		}
		if keyFile == "" {
			keyFile = cfg.Security.TLS.KeyFile
		}
	}
	if certFile == "" || keyFile == "" {
		return cli.NewConfigError("security.tls", "no key pair configured (set cert_file/key_file or pass --cert/--key)")
	}

	pair, err := cryptotls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return cli.NewCommandError("certs check", err)
	}
	now := time.Now()
	leaf, err := tls.ValidateCertificate(&pair, now)
	if err != nil {
		return cli.NewCommandError("certs check", err)
	}

	out := cmd.OutOrStdout()
	remaining := leaf.NotAfter.Sub(now)
	fmt.Fprintf(out, "✓ Certificate valid for %s (%d days remaining)\n", leaf.Subject.CommonName, int(remaining.Hours()/24))
	if remaining < tls.ExpiryWarning {
		fmt.Fprintf(out, "⚠ Certificate expires on %s\n", leaf.NotAfter.UTC().Format(time.DateOnly))
	}
	return nil
}
