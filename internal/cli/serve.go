package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/api"
	"github.com/sadopc/taskflow/internal/config"
	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/logx"
	"github.com/sadopc/taskflow/internal/reminder"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reminder scheduler",
		Long: `Serve the JSON API under /api. The config file, if given, is watched
and log level, rate limits, CORS origins, analytics defaults and the
reminder schedule are applied without a restart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return opts.serve(ctx, addr, nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func apiOptions(cfg *config.Config) api.Options {
	return api.Options{
		RatePerSec:  cfg.Server.RatePerSec,
		Burst:       cfg.Server.Burst,
		CORSOrigins: cfg.Server.CORSOrigins,
	}
}

// serve runs until ctx is done. ready, if set, receives the bound address
// once the listener is up.
func (o *globalOptions) serve(ctx context.Context, addr string, ready func(string)) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	mgr, cfg, err := o.load()
	if err != nil {
		return err
	}

	logs, log := logx.New(cfg.Logging.LogConfig())
	defer logs.Close()
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	st, err := o.openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	an := newAnalytics(st, cfg)
	srv := api.New(st, an, log, apiOptions(cfg))

	read, write, idle, err := cfg.Server.Timeouts()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	rem := reminder.New(st, cfg.Reminders, log)
	if err := rem.Start(ctx); err != nil {
		ln.Close()
		return err
	}

	httpSrv := &http.Server{
		Handler:           srv,
		ReadTimeout:       read,
		ReadHeaderTimeout: read,
		WriteTimeout:      write,
		IdleTimeout:       idle,
	}

	go func() {
		if err := mgr.Watch(ctx); err != nil {
			log.Warn("config watch stopped", logx.Err(err))
		}
	}()
	updates := mgr.Subscribe(1)
	defer mgr.Unsubscribe(updates)
	go applyUpdates(ctx, updates, cfg, logs, srv, an, rem, log)

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Serve(ln) }()

	log.Info("api listening", logx.String("addr", ln.Addr().String()), logx.String("config", mgr.Path()))
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn("systemd notify failed", logx.Err(err))
	} else if sent {
		log.Debug("systemd notified ready")
	}
	if ready != nil {
		ready(ln.Addr().String())
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	rem.Stop(shutdownCtx)
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", logx.Err(err))
	}

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", serveErr)
	}
	return nil
}

// applyUpdates hot-applies reloaded configs. Listen address, timeouts and
// storage are fixed for the life of the process.
func applyUpdates(ctx context.Context, updates <-chan *config.Config, current *config.Config,
	logs *logx.Service, srv *api.Server, an *analytics.Service, rem *reminder.Service, log logx.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				return
			}
			logs.Apply(cfg.Logging.LogConfig())
			srv.Apply(apiOptions(cfg))
			an.SetDefaults(cfg.Analytics.DefaultWindowDays, labor.Policy(cfg.Analytics.DefaultPolicy))
			if err := rem.Apply(ctx, cfg.Reminders); err != nil {
				log.Error("reminder config rejected", logx.Err(err))
			}
			if cfg.Server.Addr != current.Server.Addr || cfg.Storage.Path != current.Storage.Path {
				log.Warn("server.addr and storage.path changes need a restart")
			}
			current = cfg
			log.Info("config applied")
		}
	}
}
