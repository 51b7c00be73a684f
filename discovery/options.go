package discovery

import (
	"log/slog"
	"time"
)

const (
	DefaultStartPort = 9000
	DefaultEndPort   = 9010
)

type settings struct {
	host      string
	startPort uint16
	endPort   uint16
	skip      uint16
	timeout   time.Duration
	logger    *slog.Logger
}

type Option func(*settings)

func newSettings(opts []Option) settings {
	s := settings{
		host:      "localhost",
		startPort: DefaultStartPort,
		endPort:   DefaultEndPort,
		timeout:   time.Second,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func WithPortRange(startPort, endPort uint16) Option {
	return func(s *settings) {
		s.startPort = startPort
		s.endPort = endPort
	}
}

func WithPort(port uint16) Option {
	return WithPortRange(port, port)
}

// WithHost sets the host announcements are served on and searched at.
func WithHost(host string) Option {
	return func(s *settings) { s.host = host }
}

// WithSkip makes Search ignore port, e.g. the caller's own announcer.
func WithSkip(port uint16) Option {
	return func(s *settings) { s.skip = port }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}
