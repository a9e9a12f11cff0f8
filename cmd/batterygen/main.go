// batterygen - synthetic battery telemetry generator
//
// It simulates a fleet of picker robot batteries draining over time and
// publishes every reading as a schema-registry framed Avro record to
// Kafka, MQTT or RabbitMQ.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/batterygen/internal/api"
	"github.com/nerrad567/batterygen/internal/device"
	"github.com/nerrad567/batterygen/internal/event"
	"github.com/nerrad567/batterygen/internal/generator"
	"github.com/nerrad567/batterygen/internal/infrastructure/amqp"
	"github.com/nerrad567/batterygen/internal/infrastructure/config"
	"github.com/nerrad567/batterygen/internal/infrastructure/influxdb"
	"github.com/nerrad567/batterygen/internal/infrastructure/kafka"
	"github.com/nerrad567/batterygen/internal/infrastructure/logging"
	"github.com/nerrad567/batterygen/internal/infrastructure/mqtt"
	"github.com/nerrad567/batterygen/internal/infrastructure/schemaregistry"
	"github.com/nerrad567/batterygen/internal/publisher"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// Process exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitResolution = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(exitCode(err))
	}
}

// exitCode maps a run error to the process exit status. Failing to reach
// the schema registry or the broker at startup exits 2; anything else 1.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, event.ErrResolution),
		errors.Is(err, schemaregistry.ErrConnectionFailed),
		errors.Is(err, kafka.ErrConnectionFailed),
		errors.Is(err, mqtt.ErrConnectionFailed),
		errors.Is(err, amqp.ErrConnectionFailed):
		return exitResolution
	default:
		return exitFailure
	}
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting batterygen",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"transport", cfg.Generator.Transport,
		"topic", cfg.Generator.Topic,
	)

	registry, err := newRegistry(cfg)
	if err != nil {
		return fmt.Errorf("seeding devices: %w", err)
	}
	registry.SetLogger(log)
	log.Info("device registry initialised", "devices", registry.Len())

	// Resolve the schema before connecting anything so a missing subject
	// fails before the first record.
	srClient, err := schemaregistry.Connect(cfg.SchemaRegistry)
	if err != nil {
		return fmt.Errorf("connecting to schema registry: %w", err)
	}
	resolveCtx, cancelResolve := context.WithTimeout(ctx, cfg.GetRegistryTimeout())
	encoder, err := event.Resolve(resolveCtx, srClient, cfg.SchemaRegistry.Subject)
	cancelResolve()
	if err != nil {
		return fmt.Errorf("resolving schema for %s: %w", cfg.SchemaRegistry.Subject, err)
	}
	log.Info("schema resolved",
		"subject", cfg.SchemaRegistry.Subject,
		"schema_id", encoder.SchemaID(),
		"version", encoder.Version(),
	)

	transport, err := connectTransport(ctx, cfg, log)
	if err != nil {
		return err
	}

	opts := []publisher.Option{publisher.WithLogger(log)}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			transport.Close()
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		opts = append(opts, publisher.WithObserver(influxClient.WriteDelivery))
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	pub := publisher.New(transport, cfg.Generator.Topic, opts...)
	defer func() {
		log.Info("closing publisher")
		pending, closeErr := pub.Close(cfg.GetDrainTimeout())
		if len(pending) > 0 {
			log.Warn("records unsettled at shutdown", "count", len(pending))
		}
		if closeErr != nil {
			log.Error("error closing transport", "error", closeErr)
		}
	}()

	loop := generator.New(generator.Config{
		Iterations:   cfg.Generator.Iterations,
		FlushEvery:   cfg.Generator.FlushEvery,
		DrainTimeout: cfg.GetDrainTimeout(),
		Seed:         cfg.Generator.Seed,
	}, registry, device.NewSimulator(cfg.Generator.EventIntervalMS), encoder, pub)
	loop.SetLogger(log)
	if influxClient != nil {
		loop.SetRecorder(influxClient)
	}

	if cfg.API.Enabled {
		srv, err := startAPI(ctx, cfg, log, registry, loop, pub, transport)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	summary, err := loop.Run(ctx)
	if err != nil {
		return fmt.Errorf("generator: %w", err)
	}

	log.Info("batterygen finished",
		"iterations", summary.Iterations,
		"produced", summary.Produced,
		"delivered", summary.Delivered,
		"failed", summary.Failed,
		"dropped", summary.Dropped,
		"interrupted", summary.Interrupted,
	)
	return nil
}

func getConfigPath() string {
	if path := os.Getenv("BATTERYGEN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// newRegistry seeds devices from config, or the default fleet when none
// are configured.
func newRegistry(cfg *config.Config) (*device.Registry, error) {
	seeds := device.DefaultSeeds
	if len(cfg.Devices) > 0 {
		seeds = make([]device.Seed, len(cfg.Devices))
		for i, d := range cfg.Devices {
			seeds[i] = device.Seed{ID: d.ID, Class: d.Class, Charge: d.Charge, Step: d.Step}
		}
	}

	states, err := device.States(seeds, cfg.Generator.InitialTimestamp)
	if err != nil {
		return nil, err
	}
	return device.NewRegistry(states)
}

// connectTransport connects the configured broker.
func connectTransport(ctx context.Context, cfg *config.Config, log *logging.Logger) (publisher.Transport, error) {
	switch cfg.Generator.Transport {
	case config.TransportMQTT:
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("connecting to MQTT: %w", err)
		}
		client.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
			"qos", cfg.MQTT.QoS,
		)
		return client, nil

	case config.TransportAMQP:
		client, err := amqp.Connect(ctx, cfg.AMQP)
		if err != nil {
			return nil, fmt.Errorf("connecting to AMQP: %w", err)
		}
		client.SetLogger(log)
		log.Info("AMQP connected", "exchange", cfg.AMQP.Exchange)
		return client, nil

	default:
		client, err := kafka.Connect(ctx, cfg.Kafka)
		if err != nil {
			return nil, fmt.Errorf("connecting to Kafka: %w", err)
		}
		log.Info("Kafka connected",
			"bootstrap", cfg.Kafka.Bootstrap,
			"client_id", cfg.Kafka.ClientID,
			"acks", cfg.Kafka.Acks,
		)
		return client, nil
	}
}

// startAPI starts the read-only status server.
func startAPI(ctx context.Context, cfg *config.Config, log *logging.Logger, registry *device.Registry,
	loop *generator.Loop, pub *publisher.Publisher, transport publisher.Transport) (*api.Server, error) {
	deps := api.Deps{
		Config:    cfg.API,
		Logger:    log,
		Registry:  registry,
		Loop:      loop,
		Publisher: pub,
		Version:   version,
	}
	if hc, ok := transport.(api.HealthChecker); ok {
		deps.Transport = hc
	}

	srv, err := api.New(deps)
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting API server: %w", err)
	}
	log.Info("API server started", "address", srv.Addr())
	return srv, nil
}
