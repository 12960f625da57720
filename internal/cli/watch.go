package cli

import (
	"os/signal"
	"syscall"

	"github.com/bluegrass-news/kygeo/internal/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Tag article files dropped into an inbox directory",
	Long: `Watch tags every text or HTML file in the inbox (watch.dir by default),
then keeps tagging new files until interrupted. Each article gets a
<name>.geo.json result file beside it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringSlice("ext", nil, "file extensions to tag (default: watch.extensions)")
	_ = viper.BindPFlag("watch.extensions", watchCmd.Flags().Lookup("ext"))
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	dir := e.cfg.Watch.Dir
	if len(args) == 1 {
		dir = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := watch.New(dir, e.cfg.Watch.Extensions, e.detector(), e.log)
	return w.Run(ctx)
}
