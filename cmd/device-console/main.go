package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pkt.systems/psi"
	"pkt.systems/pslog"

	"github.com/b/device-console/pkg/chat"
	"github.com/b/device-console/pkg/config"
	"github.com/b/device-console/pkg/console"
	"github.com/b/device-console/pkg/devices"
	"github.com/b/device-console/pkg/history"
	"github.com/b/device-console/pkg/logging"
	"github.com/b/device-console/pkg/paths"
	"github.com/b/device-console/pkg/perf"
	"github.com/b/device-console/pkg/scenarios"
	"github.com/b/device-console/pkg/theme"
	"github.com/b/device-console/pkg/viewer"
)

var errNotTerminal = errors.New("device-console needs an interactive terminal")

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	// stderr logger for the non-interactive commands; the TUI swaps in a file
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])
	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("device-console failed")
		return 1
	}
	return 0
}

type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "device-console",
		Short:         "Terminal console for driving Android devices with Claude",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultConfigPath()+")")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log debug lines to the state dir")

	root.AddCommand(newDevicesCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}

func (o *rootOptions) path() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.DefaultConfigPath()
}

func runConsole(ctx context.Context, opts *rootOptions) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNotTerminal
	}
	cfg, err := config.LoadConfig(opts.path())
	if err != nil {
		return err
	}

	if _, err := paths.EnsureStateDir(); err != nil {
		return err
	}
	logger, closer, err := logging.Open(paths.StatePath("console.log"), opts.debug)
	if err != nil {
		return err
	}
	defer closer.Close()
	perf.SetLogger(logger)
	ctx = pslog.ContextWithLogger(ctx, logger)
	logger.Info("console starting", "config", opts.path(), "perf", perf.IsEnabled())

	lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
	ctrl := buildController(ctx, cfg, logger)
	defer ctrl.Close()

	p := tea.NewProgram(ctrl, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run console: %w", err)
	}
	logger.Info("console stopped")
	return nil
}

// buildController wires every collaborator from cfg. Collaborators that
// cannot be configured still mount and render their own error state.
func buildController(ctx context.Context, cfg *config.Config, logger pslog.Logger) *console.Controller {
	palette := theme.New(cfg.Theme)
	adbTimeout := time.Duration(cfg.ADB.TimeoutSeconds) * time.Second

	var lister devices.Lister
	var sizer viewer.Sizer
	if adb, err := devices.NewADB(cfg.ADB.Path, adbTimeout); err != nil {
		logger.Warn("adb unavailable", "err", err)
	} else {
		lister, sizer = adb, adb
	}

	var responder chat.Responder
	if r, err := chat.NewGollmResponder(cfg.Chat); err != nil {
		logger.Warn("chat unavailable", "err", err)
	} else {
		responder = r
	}

	src := history.HTTPSource{
		BaseURL: cfg.History.BackendURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
	refresh := time.Duration(cfg.History.RefreshSeconds) * time.Second

	ctrl := console.New(console.Options{
		Selector:           devices.NewSelector(ctx, lister, palette, logger.With("panel", "selector")),
		Viewer:             viewer.New(ctx, sizer, palette, logger.With("panel", "viewer")),
		Chat:               chat.New(ctx, responder, palette, logger.With("panel", "chat")),
		Scenarios:          scenarios.Factory(scenarios.Store{Dir: cfg.Scenarios.Dir}, palette, logger),
		History:            history.Factory(ctx, src, refresh, palette, logger),
		Bindings:           cfg.Bindings,
		ViewerWidthPercent: cfg.Layout.ViewerWidthPercent,
		Palette:            palette,
		Logger:             logger.With("component", "console"),
	})
	ctrl.OnTap(func(pt console.Point) tea.Cmd {
		logger.Info("tap", "x", pt.X, "y", pt.Y)
		return nil
	})
	return ctrl
}
