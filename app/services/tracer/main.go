package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ransomtrace/ransomtrace/app/services/tracer/handlers"
	"github.com/ransomtrace/ransomtrace/foundation/events"
	"github.com/ransomtrace/ransomtrace/foundation/logger"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/chainapi"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/labels"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/seeds"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/state"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/store/disk"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/worker"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("TRACER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:120s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		API struct {
			Host       string        `conf:"default:https://blockchain.info"`
			PaceDelay  time.Duration `conf:"default:10s"`
			RetryDelay time.Duration `conf:"default:10s"`
			MaxRetries int           `conf:"default:3"`
		}
		Trace struct {
			DBPath   string `conf:"default:zdata/traces"`
			MaxDepth int    `conf:"default:3"`
		}
		Labels struct {
			Folder string `conf:"default:zdata/labels/"`
		}
		Seeds struct {
			Path string `conf:"default:zdata/seeds.json"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "TRACER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Label Support

	// The labels package provides family attribution for addresses. The
	// families come from the file names in the zdata/labels folder.
	lbls, err := labels.New(cfg.Labels.Folder)
	if err != nil {
		return fmt.Errorf("unable to load family labels: %w", err)
	}

	log.Infow("startup", "status", "labels", "addresses", len(lbls.Copy()))

	// =========================================================================
	// Seed Support

	// The seeds file lists known campaign addresses so traces can be
	// queued without user input.
	sds, err := seeds.Load(cfg.Seeds.Path)
	if err != nil {
		return fmt.Errorf("unable to load seeds file: %w", err)
	}

	for _, target := range sds.Targets {
		log.Infow("startup", "status", "seed", "family", target.Family, "address", target.Address)
	}

	// =========================================================================
	// Tracer Support

	// The tracer packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// Construct the client for the blockchain.info API.
	client := chainapi.New(chainapi.Config{
		Host:       cfg.API.Host,
		PaceDelay:  cfg.API.PaceDelay,
		RetryDelay: cfg.API.RetryDelay,
		MaxRetries: cfg.API.MaxRetries,
		EvHandler:  ev,
	})

	// Access the storage for the trace records.
	storage, err := disk.New(cfg.Trace.DBPath)
	if err != nil {
		return fmt.Errorf("unable to open trace storage: %w", err)
	}

	// The state value represents the tracer and manages the trace records
	// and provides an API for application support.
	st, err := state.New(state.Config{
		Client:    client,
		Storage:   storage,
		Labels:    lbls,
		Seeds:     sds,
		MaxDepth:  cfg.Trace.MaxDepth,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The worker package implements the background execution of trace
	// jobs. The worker will register itself with the state.
	worker.Run(st, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.
	debugMux := handlers.DebugMux(build, log)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Evts:     evts,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
