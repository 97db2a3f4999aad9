package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rescale/svctray/internal/constants"
	"github.com/rescale/svctray/internal/notify"
	"github.com/rescale/svctray/internal/state"
	"github.com/rescale/svctray/internal/watch"
)

// newWatchCmd creates the 'watch' command, which reports external service
// changes without showing a tray icon.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Notify about matched services started or stopped elsewhere",
		Long: `Poll the matched services every --watch milliseconds and show a desktop
notification whenever one of them starts or stops. Runs until interrupted.

Example:
  svctray watch --name '^Spooler$' --watch 10000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, _, err := loadOptions(cmd, "")
			if err != nil {
				return err
			}
			if !opts.Watching() {
				return fmt.Errorf("watching is disabled: set --watch to at least %d milliseconds", constants.MinWatchInterval.Milliseconds())
			}

			m, err := newManager()
			if err != nil {
				return fmt.Errorf("failed to open service manager: %w", err)
			}
			defer m.Close()

			log := GetLogger()
			w := watch.New(m, state.NewContext(opts), notify.NewDesktop(constants.AppDisplayName, log), nil, log)
			return w.Run(GetContext(), opts.WatchInterval)
		},
	}
}
