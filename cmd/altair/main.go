// Altair Core - Observatory Device Synchronization
//
// This is the main entry point for the Altair Core service. Altair sits
// between observatory control UIs and astronomical instruments speaking
// the vendor-neutral device REST protocol, turning their stateless,
// partially-implemented endpoints into a consistent synchronized view:
//   - Per-device sessions with capability learning and mode resolution
//   - Fast/slow cadence polling with burst mode
//   - REST + WebSocket API, optional MQTT state feed
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/altair-obs/altair-core/internal/alpaca"
	"github.com/altair-obs/altair-core/internal/api"
	"github.com/altair-obs/altair-core/internal/catalog"
	"github.com/altair-obs/altair-core/internal/engine"
	"github.com/altair-obs/altair-core/internal/events"
	"github.com/altair-obs/altair-core/internal/infrastructure/config"
	"github.com/altair-obs/altair-core/internal/infrastructure/logging"
	"github.com/altair-obs/altair-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Altair Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Device inventory from config
	devices, err := buildInventory(cfg)
	if err != nil {
		return fmt.Errorf("building device inventory: %w", err)
	}
	log.Info("device inventory loaded", "devices", len(devices))

	// Event bus carries engine notifications to the API and MQTT feed
	bus := events.NewBus()
	bus.SetLogger(log)
	defer bus.Close()

	// Protocol client, shared by all device sessions
	txn := alpaca.NewTxnSource()
	client := alpaca.NewClient(cfg.Sync.GetHTTPTimeout(), txn)

	// Synchronization engine
	manager := engine.NewManager(client, bus, log, engine.Config{
		StateTTL:          cfg.Sync.GetStateTTL(),
		FastInterval:      cfg.Sync.GetFastInterval(),
		SlowInterval:      cfg.Sync.GetSlowInterval(),
		BurstInterval:     cfg.Sync.GetBurstInterval(),
		FailureThreshold:  cfg.Sync.FailureThreshold,
		FaultThreshold:    cfg.Sync.FaultThreshold,
		ConnectAttempts:   cfg.Sync.ConnectAttempts,
		ConnectRetryDelay: cfg.Sync.GetConnectRetryDelay(),
	})
	defer func() {
		log.Info("releasing device sessions")
		manager.Shutdown(context.Background())
	}()

	// Optional MQTT state feed
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		mqttClient.SetLogger(log)
		defer func() {
			log.Info("disconnecting from MQTT")
			mqttClient.Disconnect()
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		bridge := mqtt.NewBridge(mqttClient, bus, log)
		bridge.Start()
		defer func() {
			log.Info("stopping MQTT state feed")
			bridge.Stop()
		}()
	} else {
		log.Info("MQTT state feed disabled")
	}

	// API server (REST + WebSocket)
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log,
		Engine:   manager,
		Bus:      bus,
		Devices:  devices,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. API server
	// 2. MQTT feed and client (if enabled)
	// 3. Engine sessions
	// 4. Event bus

	log.Info("Altair Core stopped")
	return nil
}

// buildInventory converts configured device entries to protocol
// descriptors, normalising type names along the way.
func buildInventory(cfg *config.Config) ([]alpaca.Descriptor, error) {
	devices := make([]alpaca.Descriptor, 0, len(cfg.Devices))
	for _, d := range cfg.Devices {
		devType, err := catalog.ParseDeviceType(d.Type)
		if err != nil {
			return nil, err
		}
		devices = append(devices, alpaca.Descriptor{
			Type:   string(devType),
			Number: d.Number,
			Addr:   d.Address,
			Name:   d.Name,
		})
	}
	return devices, nil
}

// getConfigPath returns the configuration file path.
// Uses ALTAIR_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ALTAIR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
