// Command csms wires the module's components together, grounded on the
// teacher's root main.go plus server.NewCentralSystem/Start: build every
// piece the config enables, hand shared dependencies down in the same
// order the teacher builds logger -> billing -> handler -> notifiers,
// then start the listeners and block until a shutdown signal arrives.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"csms/internal/config"
	"csms/internal/eventbus"
	"csms/internal/liveness"
	"csms/internal/logging"
	"csms/internal/metrics"
	natsrelay "csms/internal/notify/nats"
	"csms/internal/notify/telegram"
	"csms/internal/session"
	"csms/internal/wsapi"
	"csms/ocpp/adapter"
	"csms/ocpp/core"
	"csms/ocpp/dispatch"
	"csms/ocpp/v16"
	"csms/ocpp/v201"
	"csms/ports"
	"csms/repository/memory"
	mongorepo "csms/repository/mongo"
)

const (
	subprotocolV16  = "ocpp1.6"
	subprotocolV201 = "ocpp2.0.1"

	defaultLivenessKFactor = 3
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	conf, err := config.GetConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	debugMode := conf.IsDebug != nil && *conf.IsDebug
	zapLogger, err := newZapLogger(debugMode)
	if err != nil {
		return fmt.Errorf("starting logger: %w", err)
	}
	defer zapLogger.Sync()

	logger := logging.New(zapLogger, debugMode)

	repos, closeRepos, err := buildRepositories(conf, logger)
	if err != nil {
		return fmt.Errorf("setting up repositories: %w", err)
	}
	defer closeRepos()

	bus := eventbus.New()
	if conf.Metrics.Enabled {
		bus.SetLagObserver(metrics.EventBusLag{})
	}

	service := core.NewService(
		repos.chargePoints,
		repos.connectors,
		repos.transactions,
		repos.idTags,
		repos.billing,
		logger,
		bus,
		core.Options{
			AcceptUnknownChargePoints: !conf.Security.RejectUnknownChargePoints,
			AcceptUnknownIdTags:       !conf.Security.RejectUnknownIdTags,
			HeartbeatInterval:         conf.Ocpp.HeartbeatIntervalSeconds,
		},
	)

	sessions := session.NewRegistry().WithDebounceWindow(time.Duration(conf.Ocpp.ReconnectDebounceSeconds) * time.Second)

	adapters := adapter.NewRegistry(conf.Ocpp.PermissiveSubprotocolFallback)
	adapters.Register(subprotocolV16, adapter.Bundle{
		Version:  subprotocolV16,
		Handlers: v16.NewHandlerSet(service),
		Commands: v16.CommandEncoder{},
	})
	adapters.Register(subprotocolV201, adapter.Bundle{
		Version:  subprotocolV201,
		Handlers: v201.NewHandlerSet(service),
		Commands: v201.CommandEncoder{},
	})

	dispatcher := dispatch.NewDispatcher(sessions, adapters, logger).
		WithTimeout(time.Duration(conf.Ocpp.CommandTimeoutSeconds) * time.Second)

	kFactor := conf.Ocpp.LivenessKFactor
	if kFactor <= 0 {
		kFactor = defaultLivenessKFactor
	}
	monitor := liveness.NewMonitor(sessions, service, logger).
		WithStaleTimeout(time.Duration(conf.Ocpp.HeartbeatIntervalSeconds) * time.Duration(kFactor) * time.Second)
	monitor.Start()
	defer monitor.Stop()

	stopNotifiers := startNotifiers(conf, bus, logger)
	defer stopNotifiers()

	wsServer := wsapi.NewServer(sessions, adapters, dispatcher, service, logger, conf.Ocpp.MaxFrameBytes).
		WithOutboundQueueDepth(conf.Ocpp.OutboundQueueCapacity)
	commandAPI := wsapi.NewCommandAPI(dispatcher, sessions, logger)

	router := httprouter.New()
	wsServer.Register(router)
	commandAPI.Register(router)

	addr := net.JoinHostPort(conf.Server.WSHost, conf.Server.WSPort)
	httpServer := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 2)
	go func() {
		logger.Debug(fmt.Sprintf("starting websocket/api server on %s", addr))
		var serveErr error
		if conf.Server.TLS {
			serveErr = httpServer.ListenAndServeTLS(conf.Server.CertFile, conf.Server.KeyFile)
		} else {
			serveErr = httpServer.ListenAndServe()
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- fmt.Errorf("websocket/api server: %w", serveErr)
		}
	}()

	if conf.Metrics.Enabled {
		go func() {
			metricsAddr := net.JoinHostPort("0.0.0.0", conf.Metrics.Port)
			logger.Debug(fmt.Sprintf("starting metrics server on %s%s", metricsAddr, conf.Metrics.Path))
			if err := metrics.Listen(metricsAddr, conf.Metrics.Path); err != nil {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		logger.Debug("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(conf.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	shutdownErr := httpServer.Shutdown(ctx)
	for _, conn := range sessions.All() {
		conn.Close()
	}
	return shutdownErr
}

func newZapLogger(debugMode bool) (*zap.Logger, error) {
	if debugMode {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

type repositories struct {
	chargePoints ports.ChargePointRepository
	connectors   ports.ConnectorRepository
	transactions ports.TransactionRepository
	idTags       ports.IdTagRepository
	billing      ports.BillingService
}

func buildRepositories(conf *config.Config, logger *logging.Logger) (*repositories, func(), error) {
	if !conf.Mongo.Enabled {
		logger.Debug("mongo disabled, using in-memory repositories")
		return &repositories{
			chargePoints: memory.NewChargePoints(),
			connectors:   memory.NewConnectors(),
			transactions: memory.NewTransactions(),
			idTags:       memory.NewIdTags(),
			billing:      memory.NoopBilling{},
		}, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := mongorepo.Connect(ctx, conf.Mongo.URI, conf.Mongo.Database)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("mongodb connected")
	logger.SetSink(store)

	closer := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(ctx)
	}
	return &repositories{
		chargePoints: store.ChargePoints(),
		connectors:   store.Connectors(),
		transactions: store.Transactions(),
		idTags:       store.IdTags(),
		billing:      memory.NoopBilling{},
	}, closer, nil
}

func startNotifiers(conf *config.Config, bus *eventbus.Bus, logger core.Logger) func() {
	var closers []func()

	if conf.Telegram.Enabled {
		bot, err := telegram.NewBot(conf.Telegram.Token, conf.Telegram.ChatId, logger)
		if err != nil {
			logger.Error("telegram bot setup failed", err)
		} else {
			sub := bus.Subscribe(eventbus.Wildcard)
			go bot.Run(sub)
			closers = append(closers, sub.Close)
		}
	}

	if conf.Nats.Enabled {
		relay, err := natsrelay.Connect(conf.Nats.URL, conf.Nats.Subject, logger)
		if err != nil {
			logger.Error("nats relay setup failed", err)
		} else {
			sub := bus.Subscribe(eventbus.Wildcard)
			go relay.Run(sub)
			closers = append(closers, sub.Close, relay.Close)
		}
	}

	return func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}
}
