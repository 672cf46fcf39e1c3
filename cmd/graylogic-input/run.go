package main

import (
	"context"
	"fmt"
	"time"

	_ "github.com/nerrad567/gray-logic-input/migrations"

	"github.com/nerrad567/gray-logic-input/internal/api"
	"github.com/nerrad567/gray-logic-input/internal/bridges/input"
	"github.com/nerrad567/gray-logic-input/internal/graph"
	"github.com/nerrad567/gray-logic-input/internal/hardware"
	"github.com/nerrad567/gray-logic-input/internal/hardware/hardwaretest"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/mqtt"
)

// shutdownWait bounds how long run waits for device goroutines to exit.
const shutdownWait = 5 * time.Second

type runOptions struct {
	ConfigPath string

	// Simulate replaces evdev with one in-memory keyboard and forces
	// autodetect.
	Simulate bool

	// Adapter overrides the hardware adapter. Used by tests.
	Adapter hardware.Adapter
}

// run wires the graph, the input bridge and the optional outer surfaces,
// then blocks until ctx is cancelled. Deferred calls unwind in reverse.
func run(ctx context.Context, opts runOptions) error { //nolint:gocognit,gocyclo // startup sequence
	log := logging.Default()
	log.Info("starting Gray Logic Input",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", opts.ConfigPath, "site", cfg.Site.ID)

	// Persistence is optional; without it the graph is rebuilt by discovery.
	var repo graph.Repository
	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.Open(database.ConfigFrom(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		repo = graph.NewSQLiteRepository(db.DB)
		log.Info("database ready", "path", db.Path())
	} else {
		log.Info("database disabled, graph is in-memory only")
	}

	store := graph.NewStore(repo)

	adapter := selectAdapter(opts)
	managers, err := input.NewManagers(input.ManagersOptions{
		Adapter:      adapter,
		PollInterval: cfg.Input.PollInterval,
		Logger:       log.Component("managers"),
	})
	if err != nil {
		return fmt.Errorf("creating managers: %w", err)
	}
	store.AddListener(managers)

	var mqttClient *mqtt.Client
	var mirror *input.MQTTMirror
	if cfg.MQTT.Enabled {
		mqttClient, mirror, err = connectMQTT(cfg, store, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	} else {
		log.Info("MQTT disabled")
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
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
		recorder, recErr := input.NewRecorder(influxClient)
		if recErr != nil {
			return fmt.Errorf("creating recorder: %w", recErr)
		}
		store.AddListener(recorder)
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Teardown reports every node and edge as removed, which detaches
	// every binding. It must run before the clients above close.
	defer func() {
		log.Info("tearing down graph")
		store.Teardown()
		managers.Close()
		if !managers.Wait(shutdownWait) {
			log.Warn("device goroutines still running after shutdown wait", "timeout", shutdownWait)
		}
	}()

	nodes, edges, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading graph: %w", err)
	}
	log.Info("graph restored", "nodes", nodes, "edges", edges)

	discovery, err := input.NewDiscovery(input.DiscoveryOptions{
		Adapter:      adapter,
		Materializer: input.NewMaterializer(store, cfg.Input.AggregateFeatures, log.Component("materializer")),
		Autodetect:   cfg.Input.Autodetect || opts.Simulate,
		Devices:      deviceConfigs(cfg.Input.Devices),
		Logger:       log.Component("discovery"),
	})
	if err != nil {
		return fmt.Errorf("creating discovery: %w", err)
	}
	report, err := discovery.Run(ctx)
	if err != nil {
		return fmt.Errorf("discovering devices: %w", err)
	}
	log.Info("discovery complete",
		"devices_found", report.DevicesFound,
		"devices_bound", managers.DeviceCount(),
		"behaviours", managers.BehaviourCount(),
	)

	if mirror != nil {
		if startErr := mirror.Start(); startErr != nil {
			return fmt.Errorf("starting MQTT mirror: %w", startErr)
		}
		defer mirror.Stop()

		health := input.NewHealthReporter(input.HealthReporterConfig{
			Version:   version,
			Interval:  cfg.Input.HealthInterval,
			Publisher: mqttClient,
			Counter:   managers,
		})
		health.SetLogger(log.Component("health"))
		health.Start(ctx)
		defer health.Stop()
	}

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer, err = api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Logger:   log.Component("api"),
			Store:    store,
			Bindings: managers,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

func selectAdapter(opts runOptions) hardware.Adapter {
	switch {
	case opts.Adapter != nil:
		return opts.Adapter
	case opts.Simulate:
		return hardwaretest.NewAdapter(
			hardwaretest.Keyboard("/dev/input/sim0", "Simulated Keyboard", "simulated/input0"),
		)
	default:
		return hardware.NewEvdevAdapter()
	}
}

// connectMQTT connects the client and registers the mirror as a store
// listener. The mirror accepts commands once started.
func connectMQTT(cfg *config.Config, store *graph.Store, log *logging.Logger) (*mqtt.Client, *input.MQTTMirror, error) {
	codec, err := input.NewPayloadCodec(cfg.MQTT.PayloadFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("creating payload codec: %w", err)
	}

	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.Component("mqtt"))
	client.SetOnConnect(func() { log.Info("MQTT connected") })
	client.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })

	mirror, err := input.NewMQTTMirror(input.MQTTMirrorOptions{
		Client: client,
		Store:  store,
		Codec:  codec,
		Logger: log.Component("mirror"),
	})
	if err != nil {
		client.Close() //nolint:errcheck // already failing
		return nil, nil, fmt.Errorf("creating MQTT mirror: %w", err)
	}
	store.AddListener(mirror)

	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"payload_format", codec.Format(),
	)
	return client, mirror, nil
}

// deviceConfigs maps configured devices to discovery entries.
func deviceConfigs(devices []config.InputDeviceConfig) []input.DeviceConfig {
	out := make([]input.DeviceConfig, 0, len(devices))
	for _, d := range devices {
		var cats []input.Category
		if d.AutodetectKeys {
			cats = append(cats, input.CategoryKey)
		}
		if d.AutodetectLEDs {
			cats = append(cats, input.CategoryLED)
		}
		if d.AutodetectRelativeAxes {
			cats = append(cats, input.CategoryRelativeAxis)
		}
		if d.AutodetectAbsoluteAxes {
			cats = append(cats, input.CategoryAbsoluteAxis)
		}
		if d.AutodetectSwitches {
			cats = append(cats, input.CategorySwitch)
		}
		out = append(out, input.DeviceConfig{
			Name:       d.Name,
			Path:       d.Path,
			Active:     d.Active,
			Categories: cats,
		})
	}
	return out
}

// healthCheck verifies every enabled component. Nil components are skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	if apiServer != nil {
		if err := apiServer.HealthCheck(ctx); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}
	return nil
}
