package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rescale/svctray/internal/command"
	"github.com/rescale/svctray/internal/service"
	"github.com/rescale/svctray/internal/snapshot"
	"github.com/rescale/svctray/internal/state"
)

// newListCmd creates the 'list' command.
func newListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the services the tray would show",
		Long: `List the services matched by the configured filter, in the order the
service manager reports them.

Use --all to list every installed service and ignore the filter. This is
handy for finding the names to put in a pattern.

Examples:
  svctray list --name '^Spool'
  svctray list --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *snapshot.Filter
			if !all {
				opts, _, err := loadOptions(cmd, "")
				if err != nil {
					return err
				}
				f := opts.Filter()
				filter = &f
			}

			m, err := newManager()
			if err != nil {
				return fmt.Errorf("failed to open service manager: %w", err)
			}
			defer m.Close()

			records, err := m.List(GetContext())
			if err != nil {
				return err
			}
			if filter != nil {
				records = snapshot.Match(records, *filter)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDISPLAY NAME\tSTATUS")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.DisplayName, r.Status)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "List every service, ignoring the filter")

	return cmd
}

// newStatusCmd creates the 'status' command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <service>",
		Short: "Show the status of a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return fmt.Errorf("failed to open service manager: %w", err)
			}
			defer m.Close()

			status, err := m.Query(GetContext(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], status)
			return nil
		},
	}
}

// newToggleCmd creates the 'toggle' command, the command-line equivalent of
// clicking a menu entry.
func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <service>",
		Short: "Stop a running service or start a stopped one",
		Long: `Stop the service if it is running, start it if it is stopped, and wait
until it settles or --timeout seconds pass. Services that are already
starting or stopping are left alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, args[0], nil)
		},
	}
}

// newStartCmd creates the 'start' command.
func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <service>",
		Short: "Start a service and wait until it runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			want := service.StatusStopped
			return runCommand(cmd, args[0], &want)
		},
	}
}

// newStopCmd creates the 'stop' command.
func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <service>",
		Short: "Stop a service and wait until it stops",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			want := service.StatusRunning
			return runCommand(cmd, args[0], &want)
		},
	}
}

// runCommand toggles name through the command executor. When from is set
// the service is only toggled if it currently has that status.
func runCommand(cmd *cobra.Command, name string, from *service.Status) error {
	opts, _, err := loadOptions(cmd, name)
	if err != nil {
		return err
	}

	m, err := newManager()
	if err != nil {
		return fmt.Errorf("failed to open service manager: %w", err)
	}
	defer m.Close()

	ctx := GetContext()
	out := cmd.OutOrStdout()

	if from != nil {
		status, err := m.Query(ctx, name)
		if err != nil {
			return err
		}
		if status != *from {
			fmt.Fprintf(out, "%s is already %s\n", name, status)
			return nil
		}
	}

	e := command.NewExecutor(m, state.NewContext(opts), nil, nil, GetLogger())
	result := e.Execute(ctx, name, false)
	if result.Err != nil {
		return result.Err
	}
	if result.Action == command.ActionNone {
		fmt.Fprintf(out, "%s is %s, nothing to do\n", name, result.Status)
		return nil
	}
	fmt.Fprintf(out, "%s: %s (%s)\n", name, result.Action, result.Status)
	return nil
}
