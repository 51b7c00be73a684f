package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/zk-holdem/zk/proof"
)

func newSetupCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Compile the circuits and write fresh Groth16 keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = opts.cfg.Proofs.KeysDir
			}
			spinner, _ := pterm.DefaultSpinner.Start("Running the trusted setup for the dealing and reveal circuits ...")
			keys, err := proof.Setup()
			if err != nil {
				spinner.Fail(err.Error())
				return err
			}
			if err := keys.Save(out); err != nil {
				spinner.Fail(err.Error())
				return err
			}
			spinner.Success("Keys written to " + out)
			opts.logger.Info("setup done", "dir", out,
				"dealing_constraints", keys.DealingCCS.GetNbConstraints(),
				"reveal_constraints", keys.RevealCCS.GetNbConstraints())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Directory for the keys (defaults to proofs.keys_dir)")
	return cmd
}

func newIdentityCmd(opts *rootOptions) *cobra.Command {
	var seed string
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Print the identity a key seed maps to, for the peer blocks of the config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kp := keyPair(seed)
			_, err := cmd.OutOrStdout().Write([]byte(string(kp.Identity()) + "\n"))
			return err
		},
	}
	cmd.Flags().StringVar(&seed, "key", "", "Key seed (random when empty)")
	return cmd
}
