package cli

import (
	"fmt"

	"github.com/javanhut/treestream/internal/colors"
	"github.com/javanhut/treestream/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get and set configuration options",
	Long: `Get and set treestream configuration options.

Configuration can be set at two levels:
- Global (~/.treestreamconfig) - applies everywhere
- Local (./.treestream.json) - applies in the current directory only

Examples:
  treestream config decode.byte_order big
  treestream config --global decode.fork_policy reject
  treestream config --list
  treestream config export.make_dirs`,
	RunE: runConfig,
}

var (
	configGlobal bool
	configList   bool
)

func init() {
	configCmd.Flags().BoolVar(&configGlobal, "global", false, "Use global config file")
	configCmd.Flags().BoolVar(&configList, "list", false, "List all configuration")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configList {
		return listConfig(cmd)
	}

	if len(args) == 1 {
		value, err := settings.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	}

	if len(args) == 2 {
		return setConfigValue(cmd, args[0], args[1])
	}

	return fmt.Errorf("invalid usage. See: treestream config --help")
}

func listConfig(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, colors.SectionHeader("Configuration:"))
	for _, key := range config.Keys() {
		value, err := settings.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s = %s\n", key, colors.InfoText(value))
	}
	return nil
}

func setConfigValue(cmd *cobra.Command, key, value string) error {
	path := config.LocalPath()
	scope := "local"
	if configGlobal {
		p, err := config.GlobalPath()
		if err != nil {
			return err
		}
		path, scope = p, "global"
	}

	if err := config.SetValue(path, key, value); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s config: %s = %s\n",
		colors.SuccessText("Set"),
		scope,
		colors.Bold(key),
		colors.InfoText(value))
	return nil
}
