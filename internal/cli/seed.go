package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ErkanEron/melonotes/internal/config"
	"github.com/ErkanEron/melonotes/internal/seed"
)

var seedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample dataset into the configured backend",
	Long: `Seed ensures the default user exists and loads the bundled sample
categories, tags and notes. A database that already has notes is left
alone unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		st, err := openStore(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		return seed.Apply(cmd.Context(), st, log, seedForce)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "seed even if notes already exist")
	rootCmd.AddCommand(seedCmd)
}
