package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"dex-alert-bot/internal/alerts"
	"dex-alert-bot/internal/config"
	"dex-alert-bot/internal/market"
	"dex-alert-bot/internal/market/birdeye"
	"dex-alert-bot/internal/market/dexscreener"
	"dex-alert-bot/internal/market/pumpportal"
	"dex-alert-bot/internal/metrics"
	"dex-alert-bot/internal/processor"
	"dex-alert-bot/internal/storage"
	"dex-alert-bot/internal/tracker"
)

func main() {
	// Initialize logger
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	log.Info("Starting dexalert service...")

	// Load .env if present; real deployments use the environment directly
	if err := godotenv.Load(); err == nil {
		log.Info("Loaded environment from .env file")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	log.WithFields(logrus.Fields{
		"environment":       cfg.Environment,
		"min_liquidity_usd": cfg.MinLiquidityUSD,
		"max_drawdown_pct":  cfg.MaxDrawdownPct,
		"poll_interval_sec": cfg.PollIntervalSec,
		"alert_mode":        cfg.AlertMode,
	}).Info("Configuration loaded")

	// Initialize database (optional)
	var db *storage.DB
	if cfg.DatabaseDSN != "" {
		db, err = storage.New(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		if err := db.AutoMigrate(); err != nil {
			log.WithError(err).Fatal("Failed to run database migrations")
		}

		log.Info("Database migrations complete")
	} else {
		log.Info("No DATABASE_DSN configured, running without persistence")
	}

	// Initialize market data sources
	sources := buildSources(cfg, log)

	// Initialize alert sender
	alertSender := createAlertSender(cfg, log)

	log.WithField("alert_mode", cfg.AlertMode).Info("Alert sender initialized")

	// Initialize tracker and processor
	trk := tracker.New(tracker.Config{
		MaxDrawdownPct:      cfg.MaxDrawdownPct,
		TrailingStartPct:    cfg.TrailingStartPct,
		TrailingGapPct:      cfg.TrailingGapPct,
		LiquidityDropRugPct: cfg.LiquidityDropRugPct,
		GrowthStepPct:       cfg.GrowthStepPct,
		PositionTTL:         cfg.PositionTTL,
		SeenTTL:             cfg.SeenTTL,
	})

	proc := processor.New(cfg, db, sources, trk, alertSender, log)

	// Start HTTP servers (health on one port, metrics on another)
	go startHTTPServer("health", cfg.HealthPort, healthMux(), log)
	go startHTTPServer("metrics", cfg.MetricsPort, metricsMux(), log)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Restore seen pairs so first-sight alerts survive restarts
	if err := proc.LoadSeen(ctx); err != nil {
		log.WithError(err).Warn("Failed to restore seen pairs")
	}

	// Start the WebSocket feed, if configured
	if cfg.PumpPortalURL != "" {
		events := make(chan pumpportal.NewTokenEvent, 64)
		ws := pumpportal.NewClient(cfg.PumpPortalURL, log)

		go ws.Run(ctx, events)
		go func() {
			for ev := range events {
				proc.HandleNewToken(ctx, ev)
			}
		}()

		log.WithField("url", cfg.PumpPortalURL).Info("WebSocket feed started")
	}

	// Start polling loop
	ticker := time.NewTicker(time.Duration(cfg.PollIntervalSec) * time.Second)
	defer ticker.Stop()

	heartbeatInterval := cfg.HeartbeatInterval
	if heartbeatInterval <= 0 {
		heartbeatInterval = time.Hour
	}
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	log.Info("Starting poll loop")

	// Poll immediately on startup
	proc.RunCycle(ctx)

	for {
		select {
		case <-ticker.C:
			proc.RunCycle(ctx)
		case <-heartbeat.C:
			if cfg.HeartbeatEnabled {
				proc.Heartbeat(ctx)
			}
		case sig := <-sigChan:
			log.WithField("signal", sig).Info("Received shutdown signal")
			sendShutdownNotice(ctx, cfg, alertSender, log)
			cancel()
			log.Info("Graceful shutdown complete")
			return
		case <-ctx.Done():
			log.Info("Context cancelled, shutting down")
			return
		}
	}
}

// sendShutdownNotice is best-effort; a failed delivery must not delay the
// shutdown.
func sendShutdownNotice(ctx context.Context, cfg *config.Config, sender alerts.Sender, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	notice := &alerts.AlertPayload{
		Severity:    alerts.SeverityInfo,
		Kind:        alerts.KindHeartbeat,
		Message:     "🛑 Bot shutting down",
		Timestamp:   time.Now(),
		Environment: cfg.Environment,
	}
	if err := sender.Send(ctx, notice); err != nil {
		log.WithError(err).Warn("Failed to send shutdown notice")
	}
}

func buildSources(cfg *config.Config, log *logrus.Logger) []processor.Source {
	var sources []processor.Source

	dex := dexscreener.NewClient(cfg.DexScreenerBaseURL, dexscreener.Window(cfg.DexScreenerWindow), cfg.DexScreenerRPS)
	sources = append(sources, processor.Source{
		Name: "dexscreener",
		Fetch: func(ctx context.Context) ([]market.TokenSnapshot, error) {
			return dex.Search(ctx, cfg.DexScreenerQuery)
		},
	})

	if cfg.BirdeyeAPIKey != "" {
		be := birdeye.NewClient(cfg.BirdeyeBaseURL, cfg.BirdeyeAPIKey, cfg.BirdeyeChain, cfg.BirdeyeRPS)
		sources = append(sources, processor.Source{
			Name: "birdeye",
			Fetch: func(ctx context.Context) ([]market.TokenSnapshot, error) {
				return be.TokenList(ctx, cfg.BirdeyeLimit)
			},
		})
	} else {
		log.Info("No BIRDEYE_API_KEY configured, Birdeye source disabled")
	}

	return sources
}

func createAlertSender(cfg *config.Config, log *logrus.Logger) alerts.Sender {
	var senders []alerts.Sender

	for _, mode := range strings.Split(cfg.AlertMode, ",") {
		switch strings.TrimSpace(mode) {
		case "log":
			senders = append(senders, alerts.NewLogSender(log))
		case "telegram":
			tg, err := alerts.NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatIDs)
			if err != nil {
				log.WithError(err).Fatal("Failed to create Telegram sender")
			}
			senders = append(senders, tg)
		default:
			log.WithField("mode", mode).Warn("Unknown alert mode, skipping")
		}
	}

	if len(senders) == 0 {
		log.Warn("No valid alert senders configured, using log")
		return alerts.NewLogSender(log)
	}
	if len(senders) == 1 {
		return senders[0]
	}
	return alerts.NewMultiSender(senders...)
}

func healthMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		metrics.RecordHealthCheck(true)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy"}`)
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		metrics.RecordHealthCheck(true)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ready"}`)
	})

	return mux
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func startHTTPServer(name string, port int, mux *http.ServeMux, log *logrus.Logger) {
	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	log.WithFields(logrus.Fields{
		"server": name,
		"port":   port,
	}).Info("Starting HTTP server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).WithField("server", name).Error("HTTP server failed")
	}
}
