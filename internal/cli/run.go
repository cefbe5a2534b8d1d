package cli

import (
	stdcontext "context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/Paintersrp/warden/internal/api/http"
	"github.com/Paintersrp/warden/internal/config"
	"github.com/Paintersrp/warden/internal/engine"
	"github.com/Paintersrp/warden/internal/logging"
	"github.com/Paintersrp/warden/internal/metrics"
	"github.com/Paintersrp/warden/internal/probe"
	"github.com/Paintersrp/warden/internal/procinfo"
	"github.com/Paintersrp/warden/internal/runtime"
	"github.com/Paintersrp/warden/internal/runtime/process"
	"github.com/Paintersrp/warden/internal/tray"
)

const listenerLookupTimeout = 2 * time.Second

type runOptions struct {
	headless bool
	stderr   io.Writer
	shell    tray.Shell
}

func newRunCmd(ctx *context) *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the shell and supervise the companion process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(cmd)
			if err != nil {
				return err
			}
			return runSupervisor(cmd.Context(), cfg, runOptions{
				headless: headless,
				stderr:   cmd.ErrOrStderr(),
			})
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "Run without a tray icon; signals drive the lifecycle")
	return cmd
}

func runSupervisor(parent stdcontext.Context, cfg *config.Config, opts runOptions) error {
	logFile := cfg.Logging.File
	switch logFile {
	case "":
		logFile = logging.DefaultFile()
	case config.LogFileNone:
		logFile = ""
	}
	logger, flush, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   logFile,
		Stderr: opts.stderr,
	})
	if err != nil {
		return err
	}
	defer flush()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run", runID))
	metrics.EmitBuildInfo()

	prober, err := probe.New(cfg)
	if err != nil {
		return err
	}
	readyProber, err := probe.NewReady(cfg)
	if err != nil {
		return err
	}
	sup := engine.NewSupervisor(prober,
		process.New(process.WithLogger(logger.Named("launcher"))),
		runtime.SpecFromConfig(cfg),
		engine.WithLogger(logger.Named("supervisor")),
		engine.WithListenerLookup(listenerLookup(cfg.Endpoint.PortNumber())),
		engine.WithReadyCheck(cfg.Probe.Interval.Duration, cfg.Probe.ReadyTimeout.Duration),
		engine.WithReadyProber(readyProber),
	)
	defer sup.Close()
	// Application exit: runs on every way out of this function.
	defer sup.Trigger(engine.TriggerAppExit)

	ctx, cancel := stdcontext.WithCancel(parent)
	defer cancel()

	if cfg.Control.Listen != "" {
		server, err := httpapi.New(newController(sup, prober, cfg, runID),
			httpapi.WithAddr(cfg.Control.Listen),
			httpapi.WithLogger(logger.Named("control")),
		)
		if err != nil {
			return err
		}
		if err := server.Listen(); err != nil {
			return err
		}
		go func() {
			if err := server.Run(ctx); err != nil {
				logger.Warn("control server stopped", zap.String("addr", server.Addr()), zap.Error(err))
			}
		}()
		logger.Info("control server listening", zap.String("addr", server.Addr()))
	}

	shell := opts.shell
	if shell == nil {
		shell = tray.New(tray.Options{
			Headless: opts.headless,
			Title:    cfg.UI.Title,
			Tooltip:  fmt.Sprintf("%s (%s)", cfg.UI.Title, cfg.Endpoint.Address()),
			Logger:   logger.Named("shell"),
		})
	}

	logger.Info("warden starting",
		zap.String("endpoint", cfg.Endpoint.Address()),
		zap.String("config", cfg.Source),
	)
	err = shell.Run(ctx, tray.Hooks{
		OnSetup: func(ctx stdcontext.Context) {
			sup.Start(ctx)
		},
		OnShow: func() {
			if err := tray.OpenURL(cfg.UI.URL); err != nil {
				logger.Warn("could not open companion UI", zap.String("url", cfg.UI.URL), zap.Error(err))
			}
		},
		OnQuit: func() {
			sup.Trigger(engine.TriggerMenuQuit)
		},
		OnWindowDestroyed: func() {
			sup.Trigger(engine.TriggerWindowDestroyed)
		},
	})
	logger.Info("warden exiting")
	return err
}

func listenerLookup(port int) engine.ListenerLookup {
	return func(ctx stdcontext.Context) (string, error) {
		ctx, cancel := stdcontext.WithTimeout(ctx, listenerLookupTimeout)
		defer cancel()
		info, err := procinfo.DescribeListener(ctx, port)
		if err != nil {
			return "", err
		}
		if info.PID == 0 {
			return "", nil
		}
		return info.String(), nil
	}
}
