package main

import (
	"crypto/tls"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/zk-holdem/config"
	"github.com/luca-patrignani/zk-holdem/network"
)

func newCertCmd(opts *rootOptions) *cobra.Command {
	var host, out string
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Write a self signed certificate and its key for the tls block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host == "" {
				host = opts.cfg.Node.Listen
			}
			certFile, keyFile, err := writeCertificate(host, out)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Certificate for %s written to %s, key to %s", host, certFile, keyFile)
			opts.logger.Info("certificate written", "host", host, "cert", certFile, "key", keyFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Address the certificate is valid for (defaults to node.listen)")
	cmd.Flags().StringVarP(&out, "out", "o", "node", "Prefix of the files: <out>.pem and <out>-key.pem")
	return cmd
}

func writeCertificate(host, prefix string) (string, string, error) {
	cert, certPEM, err := network.GenerateSelfSignedCert(host)
	if err != nil {
		return "", "", fmt.Errorf("generating certificate for %s: %w", host, err)
	}
	keyPEM, err := network.EncodePrivateKey(cert)
	if err != nil {
		return "", "", err
	}
	certFile, keyFile := prefix+".pem", prefix+"-key.pem"
	if err := os.WriteFile(certFile, certPEM, 0o644); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		return "", "", err
	}
	return certFile, keyFile, nil
}

// peerTLS turns the tls block into peer options. It returns none when TLS is off.
func peerTLS(s config.TLSSettings) ([]network.PeerOption, error) {
	if !s.Enabled() {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(s.CertFile, s.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("tls: loading %s: %w", s.CertFile, err)
	}
	opts := []network.PeerOption{network.WithCertificate(cert)}
	if len(s.CAFiles) > 0 {
		pool, err := network.LoadCertPool(s.CAFiles...)
		if err != nil {
			return nil, fmt.Errorf("tls: %w", err)
		}
		opts = append(opts, network.WithLimitedCAs(pool))
	}
	return opts, nil
}
