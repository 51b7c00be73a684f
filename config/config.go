// Package config loads the HCL file shared by the table and player commands.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/luca-patrignani/zk-holdem/application/table"
	"github.com/luca-patrignani/zk-holdem/protocol"
	"github.com/luca-patrignani/zk-holdem/zk/proof"
)

// Config is the resolved configuration, with every default applied.
type Config struct {
	Table  table.Config
	Proofs ProofSettings
	Node   NodeSettings
	TLS    TLSSettings
	Peers  []Peer
}

type ProofSettings struct {
	Mode    proof.Mode
	KeysDir string
}

type NodeSettings struct {
	Listen        string
	BlockInterval time.Duration
	// Database is the SQLite file holding the ledger. Empty keeps it in memory.
	Database string
	LogLevel string
}

// TLSSettings points at PEM files. Without a certificate the node speaks plain http.
type TLSSettings struct {
	CertFile string
	KeyFile  string
	// CAFiles are the only certificates trusted, to reach peers and to accept their requests.
	CAFiles []string
}

// Enabled reports whether the node serves and sends over https.
func (t TLSSettings) Enabled() bool {
	return t.CertFile != ""
}

// Peer is an entry of the address book: who is reachable where.
type Peer struct {
	Name     string
	Identity protocol.Identity
	Address  string
}

// file mirrors the HCL layout. Pointers tell unset attributes from zero values.
type file struct {
	Table    *tableBlock    `hcl:"table,block"`
	Timeouts *timeoutsBlock `hcl:"timeouts,block"`
	Proofs   *proofsBlock   `hcl:"proofs,block"`
	Node     *nodeBlock     `hcl:"node,block"`
	TLS      *tlsBlock      `hcl:"tls,block"`
	Peers    []peerBlock    `hcl:"peer,block"`
}

type tableBlock struct {
	MinStake          *uint64 `hcl:"min_stake,optional"`
	MaxStake          *uint64 `hcl:"max_stake,optional"`
	SmallBlind        *uint64 `hcl:"small_blind,optional"`
	BigBlind          *uint64 `hcl:"big_blind,optional"`
	AllowForceAdvance *bool   `hcl:"allow_force_advance,optional"`
}

type timeoutsBlock struct {
	BetBlocks    *uint64 `hcl:"bet_blocks,optional"`
	RevealBlocks *uint64 `hcl:"reveal_blocks,optional"`
	AutoForfeit  *bool   `hcl:"auto_forfeit,optional"`
}

type proofsBlock struct {
	Mode    string `hcl:"mode,optional"`
	Reveal  string `hcl:"reveal,optional"`
	KeysDir string `hcl:"keys_dir,optional"`
}

type nodeBlock struct {
	Listen        string `hcl:"listen,optional"`
	BlockInterval string `hcl:"block_interval,optional"`
	Database      string `hcl:"database,optional"`
	LogLevel      string `hcl:"log_level,optional"`
}

type tlsBlock struct {
	CertFile string   `hcl:"cert_file"`
	KeyFile  string   `hcl:"key_file"`
	CAFiles  []string `hcl:"ca_files,optional"`
}

type peerBlock struct {
	Name     string `hcl:"name,label"`
	Identity string `hcl:"identity"`
	Address  string `hcl:"address"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Table: table.DefaultConfig(),
		Proofs: ProofSettings{
			Mode:    proof.ModeGroth16,
			KeysDir: "keys",
		},
		Node: NodeSettings{
			Listen:        "127.0.0.1:7070",
			BlockInterval: 6 * time.Second,
			LogLevel:      "info",
		},
	}
}

// Load reads filename. A missing file yields Default.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(f.Body)
}

// Parse decodes src as if it was read from filename.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decode(f.Body)
}

func decode(body hcl.Body) (*Config, error) {
	var raw file
	if diags := gohcl.DecodeBody(body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := Default()
	if t := raw.Table; t != nil {
		set(&cfg.Table.MinStake, t.MinStake)
		set(&cfg.Table.MaxStake, t.MaxStake)
		set(&cfg.Table.SmallBlind, t.SmallBlind)
		set(&cfg.Table.BigBlind, t.BigBlind)
		set(&cfg.Table.AllowForceAdvance, t.AllowForceAdvance)
	}
	if t := raw.Timeouts; t != nil {
		set(&cfg.Table.Timeouts.BetTimeoutBlocks, t.BetBlocks)
		set(&cfg.Table.Timeouts.RevealTimeoutBlocks, t.RevealBlocks)
		set(&cfg.Table.Timeouts.AutoForfeit, t.AutoForfeit)
	}
	if p := raw.Proofs; p != nil {
		mode, err := proof.ParseMode(p.Mode)
		if err != nil {
			return nil, err
		}
		cfg.Proofs.Mode = mode
		if p.Reveal != "" {
			cfg.Table.RevealMode = table.RevealMode(p.Reveal)
		}
		if p.KeysDir != "" {
			cfg.Proofs.KeysDir = p.KeysDir
		}
	}
	if n := raw.Node; n != nil {
		if n.Listen != "" {
			cfg.Node.Listen = n.Listen
		}
		if n.BlockInterval != "" {
			d, err := time.ParseDuration(n.BlockInterval)
			if err != nil {
				return nil, fmt.Errorf("node.block_interval: %w", err)
			}
			cfg.Node.BlockInterval = d
		}
		cfg.Node.Database = n.Database
		if n.LogLevel != "" {
			cfg.Node.LogLevel = n.LogLevel
		}
	}
	if t := raw.TLS; t != nil {
		cfg.TLS = TLSSettings{CertFile: t.CertFile, KeyFile: t.KeyFile, CAFiles: t.CAFiles}
	}
	for _, p := range raw.Peers {
		cfg.Peers = append(cfg.Peers, Peer{Name: p.Name, Identity: protocol.Identity(p.Identity), Address: p.Address})
	}
	return cfg, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks the table rules and the node settings.
func (c *Config) Validate() error {
	if err := c.Table.Validate(); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if c.Table.Timeouts.BetTimeoutBlocks == 0 || c.Table.Timeouts.RevealTimeoutBlocks == 0 {
		return fmt.Errorf("timeouts must be at least one block")
	}
	if c.Node.BlockInterval <= 0 {
		return fmt.Errorf("invalid block interval: %s", c.Node.BlockInterval)
	}
	switch c.Node.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Node.LogLevel)
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return fmt.Errorf("tls: cert_file and key_file go together")
	}
	if len(c.TLS.CAFiles) > 0 && !c.TLS.Enabled() {
		return fmt.Errorf("tls: ca_files need a certificate")
	}
	seen := map[string]bool{}
	for _, p := range c.Peers {
		if seen[p.Name] {
			return fmt.Errorf("peer %s: declared twice", p.Name)
		}
		seen[p.Name] = true
		if p.Identity == "" || p.Address == "" {
			return fmt.Errorf("peer %s: identity and address are required", p.Name)
		}
	}
	return nil
}

// Addresses returns the peer address book keyed by identity.
func (c *Config) Addresses() map[protocol.Identity]string {
	book := make(map[protocol.Identity]string, len(c.Peers))
	for _, p := range c.Peers {
		book[p.Identity] = p.Address
	}
	return book
}

// PeerByName returns the peer declared with name.
func (c *Config) PeerByName(name string) (Peer, bool) {
	for _, p := range c.Peers {
		if p.Name == name {
			return p, true
		}
	}
	return Peer{}, false
}
