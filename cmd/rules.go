package cmd

import (
	"github.com/spf13/cobra"

	"github.com/khanhnv2901/vigilante/internal/report"
	"github.com/khanhnv2901/vigilante/internal/rules"
)

var rulesFormat string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the security rules in evaluation order",
	Example: `  vigilante rules
  vigilante rules --extended --format yaml
  vigilante rules --disable "Cookie Security"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(rulesFormat)
		if err != nil {
			return err
		}
		sc := cliConfig.Scan
		registry, err := rules.NewRegistry(rules.Options{Extended: sc.Extended, Disabled: sc.Disabled})
		if err != nil {
			return err
		}
		return report.Catalog(cmd.OutOrStdout(), format, registry.Catalog())
	},
}

func init() {
	sc := &cliConfig.Scan
	rulesCmd.Flags().BoolVar(&sc.Extended, "extended", false, "Include the extended rule group")
	rulesCmd.Flags().StringSliceVar(&sc.Disabled, "disable", nil, "Rule names to leave out (repeatable)")
	rulesCmd.Flags().StringVarP(&rulesFormat, "format", "f", "table", "Output format: table, json, yaml or markdown")
}
