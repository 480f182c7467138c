package cmd

import (
	"github.com/duffpl/go-dtp/processor"
	"github.com/spf13/cobra"
)

func newPreviewCmd() *cobra.Command {
	var indexes []int
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show original and transformed values of selected rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			overrideSettings(cmd, &cfg)
			// previews have no sql representation
			cfg.Settings.Format = "json"
			if err := cfg.Validate(); err != nil {
				return err
			}
			if indexes == nil {
				indexes = []int{}
			}
			return runFile(cmd, cfg, processor.ModePreview, indexes)
		},
	}
	addStreamFlags(cmd)
	cmd.Flags().IntSliceVar(&indexes, FlagNameIndexes, nil, "row indexes to preview, e.g. 0,4,9")
	_ = cmd.MarkFlagRequired(FlagNameIndexes)
	return cmd
}
