package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"golang.org/x/sync/errgroup"

	"i4.energy/across/radiocfg/radio"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	listPorts := flag.Bool("list-ports", false, "List serial ports and exit")
	flag.String("transport", "serial", "Transport to the radio (serial, network)")
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port of the radio console")
	flag.Int("baud-rate", radio.DefaultBaudRate, "Baud rate for serial communication")
	flag.String("device-host", "", "Address of the radio web form for the network transport")
	flag.Bool("pin-host", false, "Keep the device host even when the radio reports another IP")
	flag.Bool("radio-control", true, "Put the radio into maintenance mode while connected")
	flag.String("bind-address", "127.0.0.1:8080", "Bind address for the HTTP server (empty disables it)")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("log-file", "", "Write logs to this rotating file instead of stderr")
	flag.String("transcript-file", "", "Record commands and replies to this rotating file")
	flag.String("nats-url", "", "Publish session events to this NATS server")
	flag.String("nats-subject", "radiocfg.events", "NATS subject for session events")
	flag.Bool("console", false, "Start the interactive console")
	flag.Bool("apply", false, "Write the desired profile from the config file once connected")
	flag.Parse()

	if *listPorts {
		ports, err := radio.ListSerialPorts()
		if err != nil {
			slog.Error("Failed to list serial ports", "error", err)
			os.Exit(1)
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return
	}

	config, err := LoadConfig(WithDefaults(), WithFile(*configPath), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(config); err != nil {
		slog.Error("radiocfg failed", "error", err)
		os.Exit(1)
	}
}

func run(config *Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialer := config.Dialer()

	// The console shares the terminal with the log and the transcript.
	var (
		rl        *readline.Instance
		console   *Console
		logOut    io.Writer = os.Stderr
		terminal  io.Writer
		closeLogs []io.Closer
	)
	if config.Console {
		var err error
		if rl, err = newReadline(); err != nil {
			return err
		}
		console = NewConsole(rl, dialer)
		logOut = rl.Stderr()
		terminal = rl.Stdout()
	}

	logger, logFile := newLogger(config, logOut)
	if logFile != nil {
		closeLogs = append(closeLogs, logFile)
	}
	defer func() {
		for _, c := range closeLogs {
			c.Close()
		}
	}()

	builder := radio.NewConfigBuilder().
		WithLogger(logger).
		WithRadioControl(config.RadioControl)

	var transcripts []io.Writer
	if file := newTranscript(config); file != nil {
		closeLogs = append(closeLogs, file)
		transcripts = append(transcripts, file)
	}
	if terminal != nil {
		transcripts = append(transcripts, terminal)
	}
	if len(transcripts) > 0 {
		builder.WithTranscript(io.MultiWriter(transcripts...))
	}

	var events *EventPublisher
	if config.NATSURL != "" {
		conn, err := connectNATS(config.NATSURL, logger.With("component", "nats"))
		if err != nil {
			return err
		}
		defer conn.Close()

		events = NewEventPublisher(&EventPublisherConfig{
			Conn:       conn,
			Subject:    config.NATSSubject,
			InstanceID: instanceID(),
			Logger:     logger.With("component", "events"),
		})
		builder.WithObserver(events)
	}

	if console != nil {
		builder.WithObserver(console.Observer())
	}

	var applier *profileApplier
	if config.Apply {
		applier = &profileApplier{
			desired: config.Desired.Clone(),
			logger:  logger.With("component", "apply"),
		}
		builder.WithObserver(applier.Observer())
	}

	session := radio.NewSession(builder.Build())
	if applier != nil {
		applier.session = session
	}
	if console != nil {
		console.Attach(session)
	}

	logger.Info("Starting radio configuration", "transport", config.Transport)
	events.PublishServiceStart(config.Transport)

	interactive := config.BindAddress != "" || console != nil
	if err := openSession(ctx, session, dialer, interactive, logger); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if config.BindAddress != "" {
		httpServer := &http.Server{
			Addr: config.BindAddress,
			Handler: &Server{
				Logger:  logger.With("component", "server"),
				Session: session,
				Dialer:  dialer,
			},
		}

		g.Go(func() error {
			logger.Info("Starting HTTP server", "address", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server failed: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			logger.Info("Closing HTTP server")
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}
			return nil
		})
	}

	if console != nil {
		g.Go(func() error {
			console.Run(ctx, stop)
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return rl.Close()
		})
	}

	// Wait for interrupt signal, console exit or server failure
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		return nil
	})

	err := g.Wait()

	logger.Info("Closing radio session")
	if cerr := session.Close(); cerr != nil && !errors.Is(cerr, radio.ErrSessionClosed) {
		logger.Error("Failed to close session", "error", cerr)
	}
	events.PublishServiceStop("shutdown")

	return err
}

// openSession opens the first session. When the operator can reopen it
// over HTTP or the console, a failure is logged and the session stays
// closed; otherwise the failure is returned.
func openSession(ctx context.Context, session *radio.Session, dialer radio.Dialer, interactive bool, logger *slog.Logger) error {
	err := session.Open(ctx, dialer)
	if err == nil {
		return nil
	}
	if !interactive {
		return fmt.Errorf("open session: %w", err)
	}
	logger.Error("Failed to open session, waiting for the operator to reopen it", "error", err)
	return nil
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil {
		return "radiocfg"
	}
	return host
}
