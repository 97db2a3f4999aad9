// Package cli provides the command-line interface for svctray.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rescale/svctray/internal/config"
	"github.com/rescale/svctray/internal/constants"
	"github.com/rescale/svctray/internal/elevation"
	"github.com/rescale/svctray/internal/launcher"
	"github.com/rescale/svctray/internal/logging"
	"github.com/rescale/svctray/internal/notify"
	"github.com/rescale/svctray/internal/pathutil"
	"github.com/rescale/svctray/internal/service"
	"github.com/rescale/svctray/internal/state"
	"github.com/rescale/svctray/internal/tray"
	"github.com/rescale/svctray/internal/version"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	debug   bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// newManager opens the platform service manager. Replaced in tests.
var newManager = service.New

// NewRootCmd creates the root command. Running it without a subcommand
// shows the tray icon.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   constants.AppName,
		Short: "System tray menu for starting and stopping services",
		Long: constants.AppDisplayName + ` ` + version.Version + ` - Built: ` + version.BuildTime + `
Shows the services matching a name or display-name pattern in a tray menu.
Each entry is checked while its service runs; clicking it starts or stops
the service.

Settings come from the config file (see "svctray config path") and can be
overridden with the flags below. At least one of --name or --display-name
must be set.

Examples:
  svctray --name '^(wuauserv|Spooler)$'
  svctray --display-name 'SQL Server' --watch 10000 --notify always
  svctray list --all`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose || debug {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		RunE: runTray,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	for _, f := range config.Fields {
		rootCmd.PersistentFlags().String(f.Key, f.Default, f.Usage)
	}

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	completionCmd := &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate a shell completion script",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			default:
				return rootCmd.GenPowerShellCompletion(out)
			}
		},
	}
	rootCmd.AddCommand(completionCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, stopping...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newToggleCmd())
	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// overrides returns the config fields set explicitly on the command line.
func overrides(cmd *cobra.Command) map[string]string {
	values := make(map[string]string)
	fs := cmd.Flags()
	for _, f := range config.Fields {
		if !fs.Changed(f.Key) {
			continue
		}
		if v, err := fs.GetString(f.Key); err == nil {
			values[f.Key] = v
		}
	}
	return values
}

// configPath resolves the config file. An explicit --config must exist;
// the default location is optional.
func configPath() (path string, optional bool, err error) {
	if cfgFile != "" {
		path, err = pathutil.ExpandHome(cfgFile)
		return path, false, err
	}
	path, err = config.DefaultConfigPath()
	if err != nil {
		return "", true, err
	}
	return path, true, nil
}

// loadOptions builds options from the config file and command-line
// overrides. When fallbackService is set and no filter is configured, the
// filter matches exactly that service.
func loadOptions(cmd *cobra.Command, fallbackService string) (*config.Options, map[string]string, error) {
	path, optional, err := configPath()
	if err != nil {
		GetLogger().Debug().Err(err).Msg("No default config location")
	}

	values := overrides(cmd)
	opts, err := config.Load(path, optional, values)
	if errors.Is(err, config.ErrNoFilter) && fallbackService != "" {
		values["name"] = "^" + regexp.QuoteMeta(fallbackService) + "$"
		opts, err = config.Load(path, optional, values)
	}
	if err != nil {
		return nil, nil, err
	}
	return opts, values, nil
}

// runTray shows the tray icon until the user exits or the process is
// interrupted.
func runTray(cmd *cobra.Command, args []string) error {
	opts, values, err := loadOptions(cmd, "")
	if err != nil {
		return err
	}

	log := GetLogger()
	if opts.LogFile != "" {
		fileLogger, closer, err := logging.NewFileLogger(opts.LogFile)
		if err != nil {
			return err
		}
		defer closer.Close()
		log = fileLogger
	}

	icon, err := tray.LoadIcon(opts.IconPath)
	if err != nil {
		return err
	}

	m, err := newManager()
	if err != nil {
		return fmt.Errorf("failed to open service manager: %w", err)
	}
	defer m.Close()

	log.Info().
		Str("version", version.Version).
		Str("config", opts.Source).
		Bool("elevated", elevation.IsElevated()).
		Msg("Starting tray")

	return tray.Run(GetContext(), tray.Deps{
		State:      state.NewContext(opts),
		Manager:    m,
		Sink:       notify.NewDesktop(constants.AppDisplayName, log),
		Logger:     log,
		Icon:       icon,
		Elevated:   elevation.IsElevated,
		Launch:     launcher.Launch,
		ConfigPath: opts.Source,
		Overrides:  values,
	})
}

