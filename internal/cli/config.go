package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pneff/databorg-client/internal/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter configuration",
		Long: `Write a configuration file with default settings.

Example:
  databorg config init
  databorg config init ./dev.yaml --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			path := config.DefaultFile
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteFile(path, config.Default(), force); err != nil {
				_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to write config", err)
			}
			return f.Success(fmt.Sprintf("wrote %s", path))
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			cfg, _, err := loadConfig(rootOpts)
			if err != nil {
				return fail(f, "configuration error", err)
			}
			return f.Success(cfg)
		},
	})

	return cmd
}
