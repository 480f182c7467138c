package cmd

import (
	"github.com/duffpl/go-dtp/processor"
	"github.com/spf13/cobra"
)

func newTransformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Transform a whole dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			overrideSettings(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runFile(cmd, cfg, processor.ModeFull, nil)
		},
	}
	addStreamFlags(cmd)
	cmd.Flags().StringP(FlagNameFormat, "f", "", "output format: json or sql (overrides config)")
	return cmd
}
