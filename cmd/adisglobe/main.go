package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/singleflight"

	"adisglobe/internal/api"
	"adisglobe/pkg/config"
	"adisglobe/pkg/dataset"
	"adisglobe/pkg/events"
	"adisglobe/pkg/geo"
	"adisglobe/pkg/globe"
	"adisglobe/pkg/logging"
	"adisglobe/pkg/metrics"
	"adisglobe/pkg/model"
	"adisglobe/pkg/probe"
	"adisglobe/pkg/render"
	"adisglobe/pkg/request"
	"adisglobe/pkg/tracker"
	"adisglobe/pkg/version"
	"adisglobe/pkg/watcher"
)

const defaultConfigPath = "configs/adisglobe.yaml"

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", defaultConfigPath, "Path to the config file")
)

func main() {
	flag.Parse()

	// .env is optional; it only feeds the environment overrides.
	_ = godotenv.Load(".env")

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	v := version.Get()
	slog.Info("adisglobe Started", "version", v.Version, "go", v.GoVersion, "revision", v.Revision)

	cityCfg, err := config.LoadCities(appCfg.Cities.Path)
	if err != nil {
		return fmt.Errorf("failed to load cities: %w", err)
	}
	cities := toMarkers(cityCfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	tr := tracker.New()
	client := request.New(tr, request.Options{
		Attempts: appCfg.Request.Attempts,
		Timeout:  appCfg.Request.Timeout.Std(),
		Cooldown: request.NewHostBackoff(
			appCfg.Request.Backoff.BaseDelay.Std(),
			appCfg.Request.Backoff.MaxDelay.Std(),
		),
	})

	hub := events.NewHub()
	defer hub.Close()

	opts, err := globeOptions(appCfg, m, hub)
	if err != nil {
		return err
	}
	surface := render.NewVirtualSurface(appCfg.Globe.Surface.Width, appCfg.Globe.Surface.Height)
	host, err := globe.New(surface, render.NewHeadless(), opts)
	if err != nil {
		return fmt.Errorf("failed to create globe: %w", err)
	}
	defer func() {
		if err := host.Teardown(); err != nil {
			slog.Error("Globe teardown failed", "error", err)
		}
	}()
	host.Start(ctx)

	if _, err := host.SetCities(ctx, cities); err != nil {
		return fmt.Errorf("failed to build city markers: %w", err)
	}

	reload := datasetReloader(appCfg, dataset.NewLoader(client, nil), host, m)
	go func() {
		if _, err := reload(ctx); err != nil {
			slog.Error("Dataset fetch failed, pollution layer left empty", "error", err)
		}
	}()

	if path, ok := dataset.LocalPath(appCfg.Data.Source); ok {
		w := watcher.NewService(logging.Component("watcher"), path)
		go w.Run(ctx, appCfg.Data.WatchInterval.Std(), func(ctx context.Context, _ []string) {
			if _, err := reload(ctx); err != nil {
				slog.Error("Dataset reload after change failed", "error", err)
			}
		})
	}

	results := probe.Run(ctx, []probe.Probe{
		probe.CityConfig(cityCfg),
		probe.DatasetSource(appCfg.Data.Source),
	})
	if err := probe.AnalyzeResults(nil, results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return runServer(ctx, appCfg, host, surface, cities, hub, tr, m, reload)
}

func toMarkers(cities []config.City) []model.CityMarker {
	out := make([]model.CityMarker, len(cities))
	for i, c := range cities {
		out[i] = model.CityMarker{
			Name:       c.Name,
			Coordinate: geo.NewCoordinate(c.Lat, c.Lon),
			Severity:   c.AQI,
		}
	}
	return out
}

func globeOptions(cfg *config.Config, m *metrics.Metrics, hub *events.Hub) (globe.Options, error) {
	bg, err := render.ParseColor(cfg.Globe.Background)
	if err != nil {
		return globe.Options{}, fmt.Errorf("globe.background: %w", err)
	}
	g := cfg.Globe
	opts := globe.DefaultOptions()
	opts.Radius = g.Radius
	opts.CameraDistance = g.CameraDistance
	opts.FOV = g.FOV
	opts.MinDistance = g.MinDistance
	opts.MaxDistance = g.MaxDistance
	opts.AutoRotateSpeed = g.AutoRotateSpeed
	opts.EnableDamping = g.Damping
	opts.DampingFactor = g.DampingFactor
	opts.FrameRate = g.FrameRate
	opts.Background = bg
	opts.Textures = globe.Textures{Map: g.Textures.Map, Bump: g.Textures.Bump, Specular: g.Textures.Specular}
	opts.FlyDuration = cfg.Animation.FlyDuration.Std()
	opts.FlyDistance = cfg.Animation.FlyDistance
	opts.FlyOnSelect = cfg.Animation.FlyOnSelect
	opts.RenderBudget = cfg.Data.RenderBudget
	if cfg.Data.SeverityScale > 0 {
		opts.Severity = globe.ScaledSeverity(cfg.Data.SeverityScale)
	}
	opts.Metrics = m
	opts.OnSelect = hub.PublishSelection
	opts.OnDismiss = hub.PublishDismiss
	return opts, nil
}

// datasetReloader fetches the configured source and replaces the pollution
// layer on success. Failures leave the current layer alone. Concurrent calls
// from the API and the file watcher share one fetch.
func datasetReloader(cfg *config.Config, loader *dataset.Loader, host *globe.Host, m *metrics.Metrics) api.ReloadFunc {
	var group singleflight.Group
	return func(ctx context.Context) (globe.LayerStats, error) {
		v, err, _ := group.Do("reload", func() (any, error) {
			fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Data.FetchTimeout.Std())
			defer cancel()

			res, err := loader.Load(fetchCtx, cfg.Data.Source)
			if err != nil {
				m.DatasetError()
				return globe.LayerStats{}, err
			}
			return host.SetSamples(fetchCtx, res.Samples)
		})
		if err != nil {
			return globe.LayerStats{}, err
		}
		return v.(globe.LayerStats), nil
	}
}

func runServer(ctx context.Context, cfg *config.Config, host *globe.Host, surface *render.VirtualSurface, cities []model.CityMarker, hub *events.Hub, tr *tracker.Tracker, m *metrics.Metrics, reload api.ReloadFunc) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewGlobeHandler(host, surface, cities),
		api.NewStreamHandler(hub, host.Selection),
		api.NewDataHandler(reload),
		api.NewStatsHandler(host, tr, hub),
		m.Handler(),
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
