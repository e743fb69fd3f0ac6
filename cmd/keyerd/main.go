// keyerd - CW Keyer Configuration Daemon
//
// This is the main entry point for keyerd. It loads a parameter schema,
// builds the in-memory store and console registry, restores persisted
// values from SQLite, and exposes the parameter surface over HTTP/WebSocket
// and (optionally) MQTT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/cwstack/keyerd/migrations"

	"github.com/cwstack/keyerd/internal/api"
	"github.com/cwstack/keyerd/internal/bridge"
	"github.com/cwstack/keyerd/internal/console"
	"github.com/cwstack/keyerd/internal/infrastructure/config"
	"github.com/cwstack/keyerd/internal/infrastructure/database"
	"github.com/cwstack/keyerd/internal/infrastructure/logging"
	"github.com/cwstack/keyerd/internal/infrastructure/mqtt"
	"github.com/cwstack/keyerd/internal/meta"
	"github.com/cwstack/keyerd/internal/persist"
	"github.com/cwstack/keyerd/internal/preset"
	"github.com/cwstack/keyerd/internal/schema"
	"github.com/cwstack/keyerd/internal/store"
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
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting keyerd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
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

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Load the parameter schema
	model, err := schema.Load(cfg.Daemon.SchemaPath, log)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	log.Info("schema loaded",
		"path", cfg.Daemon.SchemaPath,
		"version", model.Version,
		"parameters", len(model.Parameters),
	)

	// Build the parameter store
	st, err := store.New(model.Parameters)
	if err != nil {
		return fmt.Errorf("building store: %w", err)
	}

	// Restore persisted values before anything observes the store
	backing, err := persist.NewSQLiteBacking(db.DB)
	if err != nil {
		return fmt.Errorf("creating persistence backing: %w", err)
	}
	manager, err := persist.NewManager(st, backing, log)
	if err != nil {
		return fmt.Errorf("creating persistence manager: %w", err)
	}
	loaded, err := manager.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("restoring persisted parameters: %w", err)
	}
	log.Info("persisted parameters restored", "count", loaded)

	// Console registry mediates all parameter access
	registry, err := console.NewRegistry(st, model.Families)
	if err != nil {
		return fmt.Errorf("building console registry: %w", err)
	}

	// Parameter description document for clients
	metaTab := meta.New(model)

	// Preset bank (optional: schema may not declare presets)
	var bank *preset.Bank
	var bankManager *persist.Manager
	if model.Presets != nil {
		bank, err = preset.NewBank(model.Presets)
		if err != nil {
			return fmt.Errorf("building preset bank: %w", err)
		}
		bankManager, err = persist.NewManagerNS(bank.Store(), backing, presetNamespace, log)
		if err != nil {
			return fmt.Errorf("creating preset persistence: %w", err)
		}
		restored, restoreErr := bankManager.LoadAll(ctx)
		if restoreErr != nil {
			return fmt.Errorf("restoring presets: %w", restoreErr)
		}
		log.Info("presets restored", "slots", bank.Count(), "fields", restored)
	}

	// MQTT bridge (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT broker: %w", err)
		}
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT connected", "broker", cfg.MQTT.Broker.Host)
		})
		mqttClient.SetOnDisconnect(func(discErr error) {
			log.Warn("MQTT disconnected", "error", discErr)
		})
		defer func() {
			log.Info("closing MQTT connection")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()

		br, bridgeErr := bridge.New(bridge.Options{
			Registry:     registry,
			Store:        st,
			Bank:         bank,
			Meta:         metaTab,
			MQTTClient:   &mqttBridgeAdapter{client: mqttClient},
			TopicBase:    cfg.MQTT.TopicBase,
			QoS:          byte(cfg.MQTT.QoS),
			PollInterval: cfg.PollInterval(),
			Logger:       log,
		})
		if bridgeErr != nil {
			return fmt.Errorf("creating MQTT bridge: %w", bridgeErr)
		}
		if startErr := br.Start(ctx); startErr != nil {
			return fmt.Errorf("starting MQTT bridge: %w", startErr)
		}
		defer br.Stop()
		log.Info("MQTT bridge started", "topic_base", cfg.MQTT.TopicBase)
	}

	// HTTP API server
	srv, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log,
		Registry: registry,
		Store:    st,
		Persist:  manager,
		Meta:     metaTab,
		Bank:     bank,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := srv.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify everything is healthy before declaring readiness
	if healthErr := healthCheck(ctx, db, mqttClient, srv); healthErr != nil {
		return fmt.Errorf("startup health check: %w", healthErr)
	}
	log.Info("keyerd ready")

	// Block until shutdown signal
	<-ctx.Done()
	log.Info("shutdown signal received")

	// Persist current state so a restart resumes where we left off
	saveCtx, saveCancel := context.WithTimeout(context.Background(), shutdownSaveTimeout)
	defer saveCancel()
	if saved, saveErr := manager.SaveAll(saveCtx); saveErr != nil {
		log.Error("error saving parameters on shutdown", "error", saveErr)
	} else {
		log.Info("parameters saved", "count", saved)
	}
	if bankManager != nil {
		if saved, saveErr := bankManager.SaveAll(saveCtx); saveErr != nil {
			log.Error("error saving presets on shutdown", "error", saveErr)
		} else {
			log.Info("presets saved", "count", saved)
		}
	}

	return nil
}

// presetNamespace keeps preset fields separate from live parameters in
// the key/value table.
const presetNamespace = "keyer_preset"

// shutdownSaveTimeout bounds the final persistence pass during shutdown.
const shutdownSaveTimeout = 5 * time.Second

// healthCheckTimeout bounds each component probe during startup.
const healthCheckTimeout = 5 * time.Second

// getConfigPath determines the configuration file path.
//
// Priority:
//  1. KEYERD_CONFIG environment variable
//  2. Default path (configs/config.yaml)
func getConfigPath() string {
	if path := os.Getenv("KEYERD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all critical components are operational.
// Called once after startup; failures abort the daemon rather than
// letting it run half-connected.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, srv *api.Server) error {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := db.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if err := srv.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// mqttBridgeAdapter adapts *mqtt.Client to the bridge.MQTTClient
// interface. The bridge uses a plain callback signature while the
// infrastructure client's handler returns an error.
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
