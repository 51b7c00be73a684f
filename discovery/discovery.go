// Package discovery lets players find tables on a host without a config file.
// A table serves its Announcement over HTTP on the first free port of a range,
// and Search queries every port of the range.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/luca-patrignani/zk-holdem/protocol"
)

// Announcement is what a table tells prospective players.
type Announcement struct {
	Identity   protocol.Identity `json:"identity"`
	Address    string            `json:"address"`
	SmallBlind uint64            `json:"small_blind"`
	BigBlind   uint64            `json:"big_blind"`
	MinStake   uint64            `json:"min_stake"`
	MaxStake   uint64            `json:"max_stake"`
	RevealMode string            `json:"reveal_mode"`
}

// Announcer serves one Announcement until closed.
type Announcer struct {
	port   uint16
	server *http.Server
}

// Announce serves a on the first port of the range that is free.
func Announce(a Announcement, opts ...Option) (*Announcer, error) {
	s := newSettings(opts)
	body, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	var (
		l    net.Listener
		port uint16
	)
	for port = s.startPort; port <= s.endPort; port++ {
		if l, err = net.Listen("tcp", net.JoinHostPort(s.host, fmt.Sprint(port))); err == nil {
			break
		}
	}
	if l == nil {
		return nil, fmt.Errorf("no free port in [%d, %d]: %w", s.startPort, s.endPort, err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	})
	d := &Announcer{port: port, server: &http.Server{Handler: mux}}
	go func() {
		if err := d.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("discovery server stopped", "port", port, "err", err)
		}
	}()
	return d, nil
}

func (d *Announcer) Port() uint16 { return d.port }

func (d *Announcer) Close() error {
	return d.server.Shutdown(context.Background())
}

// Search queries every port of the range and returns the announcements found.
// Ports that do not answer, or answer something else, are skipped.
func Search(ctx context.Context, opts ...Option) ([]Announcement, error) {
	s := newSettings(opts)
	client := &http.Client{Timeout: s.timeout}
	var found []Announcement
	for port := s.startPort; port <= s.endPort; port++ {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		if port == s.skip {
			continue
		}
		a, err := fetch(ctx, client, fmt.Sprintf("http://%s/", net.JoinHostPort(s.host, fmt.Sprint(port))))
		if err != nil {
			s.logger.Debug("no table", "port", port, "err", err)
			continue
		}
		found = append(found, a)
	}
	return found, nil
}

func fetch(ctx context.Context, client *http.Client, url string) (Announcement, error) {
	var a Announcement
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return a, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return a, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return a, fmt.Errorf("status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return a, err
	}
	if _, err := a.Identity.PublicKey(); err != nil {
		return a, err
	}
	return a, nil
}
