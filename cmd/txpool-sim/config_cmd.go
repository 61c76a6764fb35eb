package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dominant-strategies/go-layerpool/cmd/utils"
	"github.com/dominant-strategies/go-layerpool/common/constants"
	"github.com/dominant-strategies/go-layerpool/log"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "creates the default config file",
	Long: `creates the default config file in the location specified by the --config-dir flag.
The default config file will contain all the default values for the flags.
Any flags passed in the command line here will also overwrite the default values in the config file.`,
	RunE:                       runConfig,
	SilenceUsage:               true,
	SuggestionsMinimumDistance: 2,
	Example:                    `txpool-sim config --txpool.max-prioritized=500`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	for _, flagGroup := range utils.Flags {
		for _, flag := range flagGroup {
			utils.CreateAndBindFlag(flag, configCmd)
		}
	}
}

func runConfig(cmd *cobra.Command, args []string) error {
	configDir := filepath.Clean(cmd.Flag(utils.ConfigDirFlag.Name).Value.String())
	if err := utils.WriteDefaultConfigFile(configDir, constants.CONFIG_FILE_NAME, constants.CONFIG_FILE_TYPE); err != nil {
		return err
	}
	log.Global.WithField("path", filepath.Join(configDir, constants.CONFIG_FILE_NAME)).Info("Initialized new config file.")
	return nil
}
