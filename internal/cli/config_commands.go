package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rescale/svctray/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage svctray configuration",
		Long: `Configuration management commands for svctray.

Commands:
  init  - Write a config file with default settings
  show  - Display the effective configuration
  test  - Validate the configuration
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with default settings",
		Long: `Write a commented config file holding every setting. Flags given on the
command line are written in place of the defaults.

The file goes to the path argument, the --config path, or the default
location, in that order. Use --force to overwrite an existing file.

Example:
  svctray config init --name '^(wuauserv|Spooler)$' --watch 10000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := configPath()
			if len(args) == 1 {
				path, err = args[0], nil
			}
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			values := config.Defaults()
			for k, v := range overrides(cmd) {
				values[k] = v
			}
			if err := config.Save(values, path); err != nil {
				return err
			}

			GetLogger().Info().Str("path", path).Msg("Configuration written")
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display every setting with the value in effect and where it came from.

Priority: flags > config file > defaults`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, optional, err := configPath()
			if err != nil {
				return err
			}

			fileValues, err := config.ReadFile(path)
			switch {
			case err == nil:
			case errors.Is(err, os.ErrNotExist) && optional:
				fileValues = map[string]string{}
			default:
				return err
			}
			flagValues := overrides(cmd)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration file: %s\n", path)
			if len(fileValues) == 0 {
				fmt.Fprintln(out, "  (file does not exist or is empty - using defaults)")
			}
			fmt.Fprintln(out)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SECTION\tKEY\tVALUE\tSOURCE")
			for _, f := range config.Fields {
				value, source := f.Default, "default"
				if v, ok := fileValues[f.Key]; ok {
					value, source = v, "file"
				}
				if v, ok := flagValues[f.Key]; ok {
					value, source = v, "flag"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Section, f.Key, value, source)
			}
			return w.Flush()
		},
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Validate the configuration",
		Long: `Load the configuration the same way the tray does and report the first
invalid setting, if any.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, _, err := loadOptions(cmd, "")
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration is valid")
			if opts.Source != "" {
				fmt.Fprintf(out, "  File:   %s\n", opts.Source)
			}
			fmt.Fprintf(out, "  Manage: %s\n", opts.Mode)
			if opts.Watching() {
				fmt.Fprintf(out, "  Watch:  every %s\n", opts.WatchInterval)
			} else {
				fmt.Fprintln(out, "  Watch:  disabled")
			}
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, optional, err := configPath()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if optional {
				fmt.Fprintln(out, "Default configuration path:")
			} else {
				fmt.Fprintln(out, "Configuration path (from --config flag):")
			}
			fmt.Fprintf(out, "  %s\n", path)

			if _, err := os.Stat(path); err == nil {
				fmt.Fprintln(out, "Status: file exists")
			} else {
				fmt.Fprintln(out, "Status: file does not exist")
				fmt.Fprintf(out, "Create one with: %s config init\n", cmd.Root().Name())
			}
			return nil
		},
	}
}
