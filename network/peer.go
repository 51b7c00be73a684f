package network

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/luca-patrignani/zk-holdem/protocol"
)

const (
	inboxPath        = "/inbox"
	defaultInboxSize = 64
	maxEnvelopeSize  = 1 << 20
	replyToHeader    = "Reply-To"
)

var ErrUnknownRecipient = errors.New("unknown recipient")

// Peer is an HTTP mailbox. Envelopes addressed to its identity are accepted on
// POST /inbox and queued on Inbox; Send posts to the address registered for
// the envelope's recipient, retrying until accepted or the timeout expires.
type Peer struct {
	identity protocol.Identity

	mu        sync.RWMutex
	addresses map[protocol.Identity]string

	server    *http.Server
	client    *http.Client
	tlsConfig *tlsOptions
	inbox     chan protocol.Envelope
	inboxSize int
	timeout   time.Duration
	retry     time.Duration
	logger    *slog.Logger
	advertise string
	learn     bool

	closeOnce sync.Once
	done      chan struct{}
}

// NewPeer starts serving on l. addresses maps every identity this peer sends
// to onto its host:port.
func NewPeer(identity protocol.Identity, addresses map[protocol.Identity]string, l net.Listener, opts ...PeerOption) *Peer {
	p := &Peer{
		identity:  identity,
		addresses: copyMap(addresses),
		client:    &http.Client{},
		inboxSize: defaultInboxSize,
		timeout:   30 * time.Second,
		retry:     50 * time.Millisecond,
		logger:    slog.Default(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.inbox = make(chan protocol.Envelope, p.inboxSize)
	p.client.Timeout = p.timeout

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+inboxPath, p.serveInbox)
	p.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if cfg := p.tlsConfig.server(); cfg != nil {
		l = tls.NewListener(l, cfg)
	}
	go func() {
		err := p.server.Serve(l)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("inbox server stopped", "identity", identity.Short(), "err", err)
		}
	}()
	return p
}

func (p *Peer) Identity() protocol.Identity { return p.identity }

// AddAddress registers or replaces the address of id.
func (p *Peer) AddAddress(id protocol.Identity, addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addresses[id] = addr
}

func (p *Peer) Inbox() <-chan protocol.Envelope { return p.inbox }

func (p *Peer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = p.server.Shutdown(ctx)
	})
	return err
}

func (p *Peer) serveInbox(rw http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxEnvelopeSize))
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	var e protocol.Envelope
	if err := json.Unmarshal(body, &e); err != nil {
		http.Error(rw, "malformed envelope", http.StatusBadRequest)
		return
	}
	if e.To != p.identity {
		rw.WriteHeader(http.StatusNotAcceptable)
		return
	}
	if addr := req.Header.Get(replyToHeader); p.learn && addr != "" {
		p.learnAddress(e, addr)
	}
	select {
	case p.inbox <- e:
		rw.WriteHeader(http.StatusAccepted)
	case <-p.done:
		rw.WriteHeader(http.StatusServiceUnavailable)
	default:
		// full inbox, the sender retries
		rw.WriteHeader(http.StatusServiceUnavailable)
	}
}

// learnAddress records where the sender of e can be reached. Only signed
// envelopes teach addresses, and configured addresses are never replaced.
func (p *Peer) learnAddress(e protocol.Envelope, addr string) {
	if err := e.Verify(); err != nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, known := p.addresses[e.From]; !known {
		p.addresses[e.From] = addr
		p.logger.Debug("learned address", "identity", e.From.Short(), "address", addr)
	}
}

// Send delivers e to its recipient. A rejected envelope (wrong recipient or
// malformed) fails immediately; unreachable or busy peers are retried.
func (p *Peer) Send(ctx context.Context, e protocol.Envelope) error {
	p.mu.RLock()
	addr, ok := p.addresses[e.To]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRecipient, e.To.Short())
	}
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	url := p.tlsConfig.scheme() + "://" + strings.TrimPrefix(strings.TrimPrefix(addr, "http://"), "https://") + inboxPath

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	for {
		status, err := p.post(ctx, url, body)
		switch {
		case err == nil && status == http.StatusAccepted:
			return nil
		case err == nil && (status == http.StatusNotAcceptable || status == http.StatusBadRequest):
			return fmt.Errorf("envelope for %s rejected with status %d", e.To.Short(), status)
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("connection attempts timed out with error %w", err)
			}
			return fmt.Errorf("connection attempts timed out with status code %d", status)
		case <-time.After(p.retry):
		}
	}
}

func (p *Peer) post(ctx context.Context, url string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.advertise != "" {
		req.Header.Set(replyToHeader, p.advertise)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, resp.Body.Close()
}

// CreateListeners opens n listeners on localhost and returns them with their addresses.
func CreateListeners(n int) ([]net.Listener, []string) {
	listeners := make([]net.Listener, n)
	addresses := make([]string, n)
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			panic(err)
		}
		listeners[i] = l
		addresses[i] = l.Addr().String()
	}
	return listeners, addresses
}

func copyMap(original map[protocol.Identity]string) map[protocol.Identity]string {
	copied := make(map[protocol.Identity]string, len(original))
	for k, v := range original {
		copied[k] = v
	}
	return copied
}
