package network

import (
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net/http"
	"time"
)

type PeerOption func(*Peer)

// WithTimeout bounds every Send, retries included. Zero retries until the context ends.
func WithTimeout(timeout time.Duration) PeerOption {
	return func(p *Peer) { p.timeout = timeout }
}

// WithRetryInterval sets the pause between delivery attempts.
func WithRetryInterval(d time.Duration) PeerOption {
	return func(p *Peer) { p.retry = d }
}

func WithInboxSize(n int) PeerOption {
	return func(p *Peer) { p.inboxSize = n }
}

func WithLogger(l *slog.Logger) PeerOption {
	return func(p *Peer) { p.logger = l }
}

// WithAdvertisedAddress tells recipients where to send replies.
func WithAdvertisedAddress(addr string) PeerOption {
	return func(p *Peer) { p.advertise = addr }
}

// WithAddressLearning accepts the reply address of senders it has no address for.
func WithAddressLearning() PeerOption {
	return func(p *Peer) { p.learn = true }
}

// WithCertificate serves the inbox over TLS with cert and sends over https.
func WithCertificate(cert tls.Certificate) PeerOption {
	return func(p *Peer) {
		p.tlsConfig = p.tlsConfig.ensure()
		p.tlsConfig.certificates = append(p.tlsConfig.certificates, cert)
		p.client.Transport = &http.Transport{TLSClientConfig: p.tlsConfig.client()}
	}
}

// WithLimitedCAs trusts only certPool, both for the peers this one sends to
// and for client certificates presented to its inbox.
func WithLimitedCAs(certPool *x509.CertPool) PeerOption {
	return func(p *Peer) {
		p.tlsConfig = p.tlsConfig.ensure()
		p.tlsConfig.roots = certPool
		p.client.Transport = &http.Transport{TLSClientConfig: p.tlsConfig.client()}
	}
}

type tlsOptions struct {
	certificates []tls.Certificate
	roots        *x509.CertPool
}

func (o *tlsOptions) ensure() *tlsOptions {
	if o == nil {
		return &tlsOptions{}
	}
	return o
}

func (o *tlsOptions) scheme() string {
	if o == nil || len(o.certificates) == 0 {
		return "http"
	}
	return "https"
}

func (o *tlsOptions) server() *tls.Config {
	if o == nil || len(o.certificates) == 0 {
		return nil
	}
	cfg := &tls.Config{Certificates: o.certificates, MinVersion: tls.VersionTLS12}
	if o.roots != nil {
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
		cfg.ClientCAs = o.roots
	}
	return cfg
}

func (o *tlsOptions) client() *tls.Config {
	return &tls.Config{Certificates: o.certificates, RootCAs: o.roots, MinVersion: tls.VersionTLS12}
}
