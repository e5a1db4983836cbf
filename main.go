package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/stemstr/lnmock/internal/clock"
	"github.com/stemstr/lnmock/internal/command"
	inv "github.com/stemstr/lnmock/internal/invoice"
	"github.com/stemstr/lnmock/internal/invoice/encoder/bolt11"
	"github.com/stemstr/lnmock/internal/invoice/encoder/mock"
	"github.com/stemstr/lnmock/internal/invoice/repo/memory"
	"github.com/stemstr/lnmock/internal/invoice/repo/sqlite"
)

var (
	commit    string
	buildDate string
)

func main() {
	if err := lnmockMain(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// lnmockMain is the real entry point, so deferred calls run before exit.
func lnmockMain() error {
	configPath := flag.String("config", "", "location of config file. If non is specified config will be loaded from the environment")
	flag.Parse()

	logger := log.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(log.InfoLevel)

	logger.Infof("build info: commit: %v date: %v", commit, buildDate)

	var (
		cfg Config
		err error
	)
	if *configPath != "" {
		logger.Infof("loading config from file %q", *configPath)
		err = cfg.Load(*configPath)
	} else {
		logger.Info("loading config from env")
		err = cfg.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
		logger.Info("Setting debug mode.")
	}

	// Encoder setup
	var enc inv.Encoder
	switch cfg.Encoder {
	case "bolt11":
		enc, err = bolt11.New(bolt11.Config{
			Network: cfg.Network,
			NodeKey: cfg.NodeKey,
		})
		if err != nil {
			return fmt.Errorf("bolt11: %w", err)
		}
	case "mock":
		enc = mock.New()
	default:
		return fmt.Errorf("unknown encoder %q. must be 'bolt11' or 'mock'", cfg.Encoder)
	}

	// Store setup
	var repo inv.Repo
	switch cfg.Store {
	case "memory":
		repo = memory.New()
	case "sqlite":
		db, err := sqlite.New()
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		defer db.Close()
		repo = db
	default:
		return fmt.Errorf("unknown store %q. must be 'memory' or 'sqlite'", cfg.Store)
	}

	start, err := cfg.clockStart()
	if err != nil {
		return err
	}
	clk := clock.New(start)

	mgr, err := inv.New(inv.Config{
		DefaultExpiry: cfg.defaultExpiry(),
		Logger:        logger.WithField("system", "invoice"),
	}, repo, enc, clk)
	if err != nil {
		return fmt.Errorf("invoice: %w", err)
	}

	registerClockMetrics(clk.Now(), clk.Now)

	h := &handlers{
		rpc: command.New(mgr, cfg.Network),
		log: logger.WithField("system", "rpc"),
	}

	r := newRouter(cfg, h, logger.WithField("system", "http"))

	port := fmt.Sprintf(":%d", cfg.Port)

	logger.WithFields(log.Fields{
		"network": cfg.Network,
		"encoder": cfg.Encoder,
		"store":   cfg.Store,
		"node_id": mgr.NodeID(),
		"now":     mgr.Now().Unix(),
	}).Infof("lnmock listening on %v", port)

	return http.ListenAndServe(port, r)
}

func newRouter(cfg Config, h *handlers, logger log.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(metricsMiddleware)

	r.Post("/rpc", h.handleRPC)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/invoices", h.handleListInvoices)
		r.Post("/invoices", h.handleCreateInvoice)
		r.Get("/invoices/{ref}", h.handleGetInvoice)
		r.Post("/invoices/{ref}/pay", h.handlePayInvoice)
		r.Get("/time", h.handleGetTime)
		r.Post("/time/advance", h.handleAdvanceTime)
		r.Get("/decode/{bolt11}", h.handleDecode)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
