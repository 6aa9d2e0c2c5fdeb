/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/ortuman/vysper/auth"
	"github.com/ortuman/vysper/c2s"
	"github.com/ortuman/vysper/host"
	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/module"
	"github.com/ortuman/vysper/module/presencehub"
	"github.com/ortuman/vysper/module/roster"
	"github.com/ortuman/vysper/module/xep0092"
	"github.com/ortuman/vysper/module/xep0199"
	"github.com/ortuman/vysper/router"
	"github.com/ortuman/vysper/storage"
	"github.com/ortuman/vysper/storage/repository"
	"github.com/ortuman/vysper/version"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultShutDownWaitTime = time.Duration(5) * time.Second

var logoStr = []string{
	`                                     `,
	` ___  _____   _____ _ __   ___ _ __ `,
	` \  \/ / | | / __| '_ \ / _ \ '__|`,
	`  \   /| |_| \__ \ |_) |  __/ |   `,
	`   \_/  \__, |___/ .__/ \___|_|   `,
	`        |___/    |_|              `,
}

// Application encapsulates a vysper server application.
type Application struct {
	output           io.Writer
	configFile       string
	rep              repository.Container
	relay            *router.Relay
	outProvider      router.OutProvider
	mods             *module.Modules
	c2s              *c2s.C2S
	debugSrv         *http.Server
	waitStopCh       chan os.Signal
	shutDownWaitSecs time.Duration
}

// Option configures an Application.
type Option func(*Application)

// WithOutProvider sets the provider used to reach non local domains.
// The router breaker configuration applies to its streams.
func WithOutProvider(provider router.OutProvider) Option {
	return func(a *Application) { a.outProvider = provider }
}

// New returns a runnable application given an output and a configuration file path.
func New(output io.Writer, configFile string, opts ...Option) *Application {
	a := &Application{
		output:           output,
		configFile:       configFile,
		waitStopCh:       make(chan os.Signal, 1),
		shutDownWaitSecs: defaultShutDownWaitTime,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run runs vysper application until either a stop signal is received or an error occurs.
func (a *Application) Run() error {
	// load configuration
	var cfg Config
	if err := cfg.FromFile(a.configFile); err != nil {
		return err
	}
	// create PID file
	if err := a.createPIDFile(cfg.PIDFile); err != nil {
		return err
	}
	// initialize logger
	if err := log.Initialize(&cfg.Logger); err != nil {
		return err
	}

	// show vysper's fancy logo
	a.printLogo()

	// initialize storage
	rep, err := storage.New(&cfg.Storage)
	if err != nil {
		return err
	}
	a.rep = rep

	hosts, err := host.New(cfg.Hosts)
	if err != nil {
		return err
	}

	// initialize relay
	a.relay = router.NewRelay(hosts, router.NewResourceRegistry(), rep.User())
	if a.outProvider != nil {
		a.relay.SetOutProvider(a.outProvider, &cfg.Router.Breaker)
	}

	// initialize modules
	a.mods = a.initModules(&cfg.Modules)
	if err := a.mods.Start(context.Background()); err != nil {
		return err
	}

	// start serving c2s...
	a.c2s, err = c2s.New(cfg.C2S, hosts, auth.NewAccountManager(rep.User()), a.relay, a.mods)
	if err != nil {
		return err
	}
	if err := a.c2s.Start(); err != nil {
		return err
	}

	// initialize debug server...
	if cfg.Debug.Port > 0 {
		if err := a.initDebugServer(cfg.Debug.Port); err != nil {
			return err
		}
	}

	// ...wait for stop signal to shutdown
	sig := a.waitForStopSignal()
	log.Infof("received %s signal... shutting down...", sig.String())

	return a.gracefullyShutdown()
}

func (a *Application) initModules(cfg *module.Config) *module.Modules {
	var mods []module.Module
	if cfg.IsEnabled(roster.ModuleName) {
		mods = append(mods, roster.New(a.relay, a.rep.Roster(), presencehub.New()))
	}
	if cfg.IsEnabled(xep0092.ModuleName) {
		mods = append(mods, xep0092.New(&cfg.Version))
	}
	if cfg.IsEnabled(xep0199.ModuleName) {
		mods = append(mods, xep0199.New(&cfg.Ping))
	}
	return module.New(mods...)
}

func (a *Application) createPIDFile(pidFile string) error {
	if len(pidFile) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(pidFile), os.ModePerm); err != nil {
		return err
	}
	file, err := os.Create(pidFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	currentPid := os.Getpid()
	if _, err := file.WriteString(strconv.FormatInt(int64(currentPid), 10)); err != nil {
		return err
	}
	return nil
}

func (a *Application) printLogo() {
	for i := range logoStr {
		_, _ = fmt.Fprintf(a.output, "%s\n", logoStr[i])
	}
	_, _ = fmt.Fprintf(a.output, "\n%s %v\n\n", version.ApplicationName, version.ApplicationVersion)
	log.Infof("%s %v starting...", version.ApplicationName, version.ApplicationVersion)
}

func (a *Application) initDebugServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	a.debugSrv = &http.Server{Handler: mux}
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return errors.Wrap(err, "app: debug server listen")
	}
	go func() { _ = a.debugSrv.Serve(ln) }()
	log.Infof("debug server listening at %d...", port)
	return nil
}

func (a *Application) waitForStopSignal() os.Signal {
	signal.Notify(a.waitStopCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	return <-a.waitStopCh
}

func (a *Application) gracefullyShutdown() error {
	// wait until application has been shut down
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(a.shutDownWaitSecs))
	defer cancel()

	select {
	case err := <-a.shutdown(ctx):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Application) shutdown(ctx context.Context) <-chan error {
	c := make(chan error, 1)
	go func() {
		if a.debugSrv != nil {
			_ = a.debugSrv.Shutdown(ctx)
		}
		if err := a.c2s.Shutdown(ctx); err != nil {
			log.Warnf("app: c2s shutdown: %v", err)
		}
		if err := a.mods.Shutdown(ctx); err != nil {
			log.Warnf("app: modules shutdown: %v", err)
		}
		err := a.rep.Close(ctx)

		log.Shutdown()
		c <- err
	}()
	return c
}
