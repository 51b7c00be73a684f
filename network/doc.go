// Package network moves signed protocol envelopes between identities.
//
// # Core Components
//
// Peer: an HTTP(S) mailbox. Its inbox is served on POST /inbox and Send posts
// to the address registered for the recipient, retrying until the envelope is
// accepted or the timeout expires.
//
// Bus: an in-process Transport for simulations and tests.
//
// # TLS
//
// WithCertificate serves and sends over https; WithLimitedCAs restricts trust to
// a pool in both directions. GenerateSelfSignedCert and CertPool build the
// material for local tables.
package network
