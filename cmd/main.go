package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/zk-holdem/config"
	"github.com/luca-patrignani/zk-holdem/protocol"
	"github.com/luca-patrignani/zk-holdem/zk/proof"
)

type rootOptions struct {
	configPath string
	debug      bool
	logFormat  string
	quiet      bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "zk-holdem",
		Short:         "Heads-up Texas Hold'em with committed cards and zero knowledge reveals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logFormat, opts.debug)
			if err != nil {
				return err
			}
			opts.logger = logger
			slog.SetDefault(logger)

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%s: %w", opts.configPath, err)
			}
			opts.cfg = cfg
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "holdem.hcl", "Path to the HCL configuration file")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Log at debug level")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "pretty", "Log output: pretty or text")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print the banner")

	root.AddCommand(
		newSetupCmd(opts),
		newIdentityCmd(opts),
		newCertCmd(opts),
		newTableCmd(opts),
		newPlayerCmd(opts),
		newSimulateCmd(opts),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

// newLogger builds the pterm handler for interactive use, or a charmbracelet
// text handler for headless servers.
func newLogger(w io.Writer, format string, debug bool) (*slog.Logger, error) {
	switch format {
	case "pretty":
		level := pterm.LogLevelInfo
		if debug {
			level = pterm.LogLevelDebug
		}
		return slog.New(pterm.NewSlogHandler(pterm.DefaultLogger.WithWriter(w).WithLevel(level))), nil
	case "text":
		level := log.InfoLevel
		if debug {
			level = log.DebugLevel
		}
		return slog.New(log.NewWithOptions(w, log.Options{Level: level, ReportTimestamp: true})), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

func banner(opts *rootOptions) {
	if opts.quiet {
		return
	}
	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("ZK ", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("Hold", pterm.FgDarkGray.ToStyle()),
		putils.LettersFromStringWithStyle("em", pterm.FgRed.ToStyle()),
	).Render()
}

// keyPair derives the node key from seed, or draws a fresh one.
func keyPair(seed string) protocol.KeyPair {
	if seed == "" {
		return protocol.NewKeyPair()
	}
	return protocol.KeyPairFromSeed([]byte(seed))
}

// loadProofs returns the prover and verifier for the configured mode.
// Groth16 mode reads proving keys too: the table proves deals, players prove reveals.
func loadProofs(cfg *config.Config) (proof.Prover, proof.Verifier, error) {
	var keys *proof.Keys
	if cfg.Proofs.Mode == proof.ModeGroth16 {
		var err error
		if keys, err = proof.LoadKeys(cfg.Proofs.KeysDir, true); err != nil {
			return nil, nil, fmt.Errorf("loading keys from %s (run setup first): %w", cfg.Proofs.KeysDir, err)
		}
	}
	prover, err := proof.NewProver(cfg.Proofs.Mode, keys)
	if err != nil {
		return nil, nil, err
	}
	verifier, err := proof.NewVerifier(cfg.Proofs.Mode, keys)
	if err != nil {
		return nil, nil, err
	}
	return prover, verifier, nil
}
