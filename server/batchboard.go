package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goto/salt/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mitchellh/mapstructure"

	"github.com/goto/batchboard/config"
	"github.com/goto/batchboard/core/event/moderator"
	jHandler "github.com/goto/batchboard/core/job/handler/v1"
	jService "github.com/goto/batchboard/core/job/service"
	"github.com/goto/batchboard/ext/transport/kafka"
	"github.com/goto/batchboard/internal/store/postgres"
	jRepo "github.com/goto/batchboard/internal/store/postgres/job"
	"github.com/goto/batchboard/internal/utils"
)

const (
	shutdownWait = 30 * time.Second

	readHeaderTimeout = 10 * time.Second

	dbConnectAttempts = 5
	dbConnectBackoff  = time.Second
)

type setupFn func() error

type BatchboardServer struct {
	conf   *config.ServerConfig
	logger log.Logger

	dbPool *pgxpool.Pool

	httpAddr   string
	httpServer *http.Server

	jobService *jService.JobService
	reconciler *jService.OffsetReconciler

	cleanupFn []func()

	eventHandler jService.EventHandler
}

func New(conf *config.ServerConfig) (*BatchboardServer, error) {
	server := &BatchboardServer{
		conf:     conf,
		httpAddr: fmt.Sprintf(":%d", conf.Serve.Port),
		logger:   NewLogger(conf.Log.Level.String()),
	}

	if err := checkRequiredConfigs(conf.Serve); err != nil {
		return server, err
	}

	setupFns := []setupFn{
		server.setupPublisher,
		server.setupDB,
		server.setupHandlers,
		server.setupReconciler,
	}

	for _, fn := range setupFns {
		if err := fn(); err != nil {
			return server, err
		}
	}

	server.logger.Info("Starting Batchboard", "version", conf.Version.String())
	server.startListening()

	return server, nil
}

func checkRequiredConfigs(conf config.Serve) error {
	if conf.Port == 0 {
		return errors.New("serve.port is required")
	}
	if conf.DB.DSN == "" {
		return errors.New("serve.db.dsn is required")
	}
	return nil
}

func (s *BatchboardServer) setupPublisher() error {
	if s.conf.Publisher == nil {
		s.eventHandler = moderator.NoOpHandler{}
		return nil
	}

	ch := make(chan []byte, s.conf.Publisher.Buffer)

	var worker *moderator.Worker

	switch s.conf.Publisher.Type {
	case "kafka":
		var kafkaConfig config.PublisherKafkaConfig
		if err := mapstructure.Decode(s.conf.Publisher.Config, &kafkaConfig); err != nil {
			return err
		}
		if kafkaConfig.BatchIntervalSecond <= 0 {
			kafkaConfig.BatchIntervalSecond = kafka.DefaultBatchIntervalSecond
		}

		writer := kafka.NewWriter(kafkaConfig.BrokerURLs, kafkaConfig.Topic, s.logger)
		interval := time.Second * time.Duration(kafkaConfig.BatchIntervalSecond)
		worker = moderator.NewWorker(ch, writer, interval, s.logger)
	default:
		return fmt.Errorf("publisher with type [%s] is not recognized", s.conf.Publisher.Type)
	}

	s.cleanupFn = append(s.cleanupFn, func() {
		if err := worker.Close(); err != nil {
			s.logger.Error("error closing publishing worker", "err", err)
		}
	})

	s.eventHandler = moderator.NewEventHandler(ch, s.logger)
	return nil
}

func (s *BatchboardServer) setupDB() error {
	err := utils.Retry(s.logger, dbConnectAttempts, dbConnectBackoff, func() error {
		var openErr error
		s.dbPool, openErr = postgres.Open(s.conf.Serve.DB)
		return openErr
	})
	if err != nil {
		return fmt.Errorf("postgres.Open: %w", err)
	}

	if err := postgres.Migrate(s.conf.Serve.DB.DSN); err != nil {
		return fmt.Errorf("error initializing migration: %w", err)
	}
	return nil
}

func (s *BatchboardServer) setupHandlers() error {
	jobRepo := jRepo.NewJobRepository(s.dbPool)
	eventRepo := jRepo.NewEventRepository(s.dbPool)

	s.jobService = jService.NewJobService(jobRepo, s.eventHandler, s.logger)
	eventService := jService.NewEventService(eventRepo, jobRepo, s.logger)

	jobHandler := jHandler.NewJobHandler(s.jobService, eventService, s.logger)
	router := jHandler.NewRouter(s.logger, jobHandler, []byte(s.conf.Auth.TokenSecret), s.dbPool)

	s.httpServer = &http.Server{
		Addr:              s.httpAddr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return nil
}

func (s *BatchboardServer) setupReconciler() error {
	if !s.conf.Reconciler.Enabled {
		return nil
	}

	interval := time.Duration(s.conf.Reconciler.IntervalInMinutes) * time.Minute
	s.reconciler = jService.NewOffsetReconciler(s.logger, jRepo.NewJobRepository(s.dbPool), s.jobService, interval)
	if err := s.reconciler.Initialize(); err != nil {
		return err
	}
	s.cleanupFn = append(s.cleanupFn, s.reconciler.Close)
	return nil
}

func (s *BatchboardServer) startListening() {
	// run our server in a goroutine so that it doesn't block to wait for termination requests
	go func() {
		s.logger.Info("Listening at", "address", s.httpAddr)
		if err := s.httpServer.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				s.logger.Fatal("server error", "error", err)
			}
		}
	}()
}

func (s *BatchboardServer) Shutdown() {
	s.logger.Warn("Shutting down server")
	if s.httpServer != nil {
		// Create a deadline to wait for server
		ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("Error in http server shutdown", "err", err)
		}
	}

	for _, fn := range s.cleanupFn {
		fn()
	}

	if s.dbPool != nil {
		s.dbPool.Close()
	}

	s.logger.Info("Server shutdown complete")
}
