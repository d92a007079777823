package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/navikt/nada-tablesync/pkg/cache"
	"github.com/navikt/nada-tablesync/pkg/config/v2"
	"github.com/navikt/nada-tablesync/pkg/convert"
	"github.com/navikt/nada-tablesync/pkg/cs"
	"github.com/navikt/nada-tablesync/pkg/database"
	"github.com/navikt/nada-tablesync/pkg/leaderelection"
	"github.com/navikt/nada-tablesync/pkg/requestlogger"
	"github.com/navikt/nada-tablesync/pkg/service"
	"github.com/navikt/nada-tablesync/pkg/service/core"
	"github.com/navikt/nada-tablesync/pkg/service/core/handlers"
	"github.com/navikt/nada-tablesync/pkg/service/core/routes"
	"github.com/navikt/nada-tablesync/pkg/syncers/snapshotter"
	"github.com/navikt/nada-tablesync/pkg/tables"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	_ "time/tzdata"
)

var (
	configFilePath = flag.String("config", "config.yaml", "path to config file")
	printRoutes    = flag.Bool("print-routes", false, "print the routes and exit")
)

var promErrs = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tablesync",
	Name:      "errors",
}, []string{"location"})

const (
	HTTPClientTimeout = 30 * time.Second
	ShutdownTimeout   = 5 * time.Second
)

func main() {
	flag.Parse()

	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	fileParts, err := config.ProcessConfigPath(*configFilePath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("processing config path")
	}

	cfg, err := config.NewFileSystemLoader().Load(fileParts.FileName, fileParts.Path, "TABLESYNC", config.NewDefaultEnvBinder())
	if err != nil {
		zlog.Fatal().Err(err).Msg("loading config")
	}

	err = cfg.Validate()
	if err != nil {
		zlog.Fatal().Err(err).Msg("validating config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		zlog.Fatal().Err(err).Msg("parsing log level")
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	httpClient := &http.Client{
		Timeout: HTTPClientTimeout,
	}

	tablesClient := httpClient
	if !cfg.Tables.DisableAuth {
		tablesClient, err = google.DefaultClient(context.WithValue(ctx, oauth2.HTTPClient, httpClient), tables.Scope)
		if err != nil {
			zlog.Fatal().Err(err).Msg("setting up authenticated tables client")
		}

		tablesClient.Timeout = HTTPClientTimeout
	}

	cacheDuration := time.Duration(cfg.Tables.CacheDurationSeconds) * time.Second

	var cacher cache.Cacher = cache.NewMemory(cacheDuration, zlog.With().Str("subsystem", "cache").Logger())

	if cfg.Postgres.Enabled() {
		db, err := database.New(
			cfg.Postgres.ConnectionString(),
			cfg.Postgres.Configuration.MaxIdleConnections,
			cfg.Postgres.Configuration.MaxOpenConnections,
			zlog.With().Str("subsystem", "database").Logger(),
		)
		if err != nil {
			zlog.Fatal().Err(err).Msg("setting up database")
		}
		defer db.Close()

		cacher = cache.New(cacheDuration, db, zlog.With().Str("subsystem", "cache").Logger())
	}

	tablesAPI := tables.NewCachedClient(tables.New(cfg.Tables.APIURL, cfg.Tables.DisplayURL, tablesClient), cacher)

	unsupported := convert.NewUnsupportedCounter()
	rows := core.NewRowsCounter()

	tablesService := core.NewTablesService(
		tablesAPI,
		convert.NewResolver(cfg.Tables.APIURL, zlog.With().Str("subsystem", "convert").Logger(), unsupported),
		rows,
		zlog.With().Str("subsystem", "tables").Logger(),
	)

	var snapshotService service.SnapshotService

	if cfg.GCS.SnapshotBucketName != "" {
		snapshotStorage, err := cs.New(ctx, cfg.GCS.SnapshotBucketName, cfg.GCS.Endpoint)
		if err != nil {
			zlog.Fatal().Err(err).Msg("setting up snapshot storage")
		}

		snapshotService = core.NewSnapshotService(tablesService, snapshotStorage, zlog.With().Str("subsystem", "snapshots").Logger())
	}

	h := handlers.NewHandlers(core.NewServices(tablesService, snapshotService))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestlogger.Middleware(zlog, "/internal/metrics"))

	apiRoutes := []routes.AddRoutesFn{
		routes.NewTablesRoutes(routes.NewTablesEndpoints(zlog, h.TablesHandler)),
		routes.NewMetricsRoutes(routes.NewMetricsEndpoints(prom(append(cache.Collectors(cacher), unsupported, rows)...))),
	}

	if snapshotService != nil {
		apiRoutes = append(apiRoutes, routes.NewSnapshotsRoutes(routes.NewSnapshotsEndpoints(zlog, h.SnapshotsHandler)))
	}

	routes.Add(router, apiRoutes...)

	if *printRoutes {
		err = routes.Print(router, os.Stdout)
		if err != nil {
			zlog.Fatal().Err(err).Msg("printing routes")
		}

		return
	}

	if cfg.Snapshot.Enabled() && snapshotService != nil {
		go snapshotter.New(
			snapshotService,
			leaderelection.New(cfg.ElectorPath, httpClient),
			cfg.Snapshot.TableIDs,
			cfg.Snapshot.Deadline(),
			promErrs,
			zlog.With().Str("subsystem", "snapshotter").Logger(),
		).Run(ctx, cfg.Snapshot.StartupDelay(), cfg.Snapshot.Frequency())
	}

	server := http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Address, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		zlog.Info().Str("address", server.Addr).Msg("listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("serving http")
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Warn().Err(err).Msg("shutdown error")
	}
}

func prom(cols ...prometheus.Collector) *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(promErrs)
	r.MustRegister(prometheus.NewGoCollector())
	r.MustRegister(cols...)

	return r
}
