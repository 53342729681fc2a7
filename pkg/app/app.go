package app

import (
	"expvar"
	"flag"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	metrics_util "github.com/code-payments/nft-staking/pkg/metrics"
	"github.com/code-payments/nft-staking/pkg/osutil"
)

// App is a long lived application tied to the lifetime of the process. It
// gets initialized before the HTTP server starts serving, and gets stopped
// after the server has stopped.
type App interface {
	// Init initializes the application in a blocking fashion. When Init
	// returns, the application is ready to serve requests on the handlers it
	// registers.
	Init(config Config, metricsProvider *newrelic.Application) error

	// RegisterWithHTTP mounts the application's routes.
	RegisterWithHTTP(router *mux.Router)

	// ShutdownChan returns a channel that is closed when the application is
	// shutdown. The HTTP server is stopped once it's closed.
	ShutdownChan() <-chan struct{}

	// Stop stops the application, allowing it to clean up any resources.
	// When Stop returns, the process exits.
	//
	// Stop should be idempotent.
	Stop()
}

const healthPath = "/healthz"

var (
	configPath = flag.String("config", "config.yaml", "configuration file path")

	osSigCh = make(chan os.Signal, 1)
)

func init() {
	signal.Notify(osSigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
}

func Run(app App) error {
	flag.Parse()

	logger := logrus.StandardLogger().WithField("type", "app")

	// viper.ReadInConfig only returns ConfigFileNotFoundError if it has to search
	// for a default config file because one hasn't been explicitly set. That is,
	// if we explicitly set a config file, and it does not exist, viper will not
	// return a ConfigFileNotFoundError, so we do it ourselves.
	if _, err := os.Stat(*configPath); err == nil {
		viper.SetConfigFile(*configPath)
	} else if !os.IsNotExist(err) {
		logger.WithError(err).Errorf("failed to check if config exists")
		os.Exit(1)
	}

	err := viper.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		logger.WithError(err).Error("failed to load config")
		os.Exit(1)
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		logger.WithError(err).Error("failed to unmarshal config")
		os.Exit(1)
	}

	if len(config.AppName) == 0 {
		logger.Error("must specify an application name")
		os.Exit(1)
	}

	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		nr, err := newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logrus.WithError(err).Error("error connecting to new relic")
			os.Exit(1)
		}

		metricsProvider = nr
	}

	configureLogger(config, metricsProvider)

	// pprof and expvar install themselves on the default mux, which must not
	// be exposed publicly.
	http.DefaultServeMux = http.NewServeMux()

	debugHTTPMux := http.NewServeMux()
	if config.EnableExpvar {
		debugHTTPMux.Handle("/debug/vars", expvar.Handler())
	}
	if config.EnablePprof {
		debugHTTPMux.HandleFunc("/debug/pprof/", pprof.Index)
		debugHTTPMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		debugHTTPMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		debugHTTPMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		debugHTTPMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	if config.EnableExpvar || config.EnablePprof {
		go func() {
			for {
				if err := http.ListenAndServe(config.DebugListenAddress, debugHTTPMux); err != nil {
					logger.WithError(err).Warn("Debug HTTP server failed. Retrying in 5s...")
				}
				time.Sleep(5 * time.Second)
			}
		}()
	}

	var ballast []byte
	if config.EnableBallast {
		totalMemory := osutil.GetTotalMemory()
		ballastCapacity := config.BallastCapacity
		if ballastCapacity > 0.5 {
			ballastCapacity = 0.5
		}
		ballastSize := uint64(ballastCapacity * float32(totalMemory))
		ballast = make([]byte, ballastSize)
	}

	memoryLeakShutdownCh := make(chan struct{})
	if config.EnableMemoryLeakCron {
		cronJob := cron.New(cron.WithLocation(time.Local))
		_, err = cronJob.AddFunc(config.MemoryLeakCronSchedule, func() {
			close(memoryLeakShutdownCh)
		})
		if err != nil {
			logger.WithError(err).Error("failed to initialize memory leak cron")
			os.Exit(1)
		}
		cronJob.Start()
	}

	lis, err := net.Listen("tcp", config.ListenAddress)
	if err != nil {
		logger.WithError(err).Errorf("failed to listen on %s", config.ListenAddress)
		os.Exit(1)
	}

	if err := app.Init(config.AppConfig, metricsProvider); err != nil {
		logger.WithError(err).Error("failed to initialize application")
		os.Exit(1)
	}

	router := mux.NewRouter()
	router.Path(healthPath).
		Methods(http.MethodGet).
		HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	app.RegisterWithHTTP(router)
	if metricsProvider != nil {
		router.Use(newRelicMiddleware(metricsProvider))
	}

	server := &http.Server{
		Handler:           newHandler(config, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverShutdownCh := make(chan struct{})
	go func() {
		if err := server.Serve(lis); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http serve stopped")
		} else {
			logger.Info("http server stopped")
		}

		close(serverShutdownCh)
	}()

	// Wait for the following shutdown conditions:
	//    1. OS Signal telling us to shutdown
	//    2. The HTTP server has shutdown (for whatever reason)
	//    3. The application has shutdown (for whatever reason)
	select {
	case <-osSigCh:
		logger.Info("interrupt received, shutting down")
	case <-serverShutdownCh:
		logger.Info("http server shutdown")
	case <-memoryLeakShutdownCh:
		logger.Info("shutdown to deal with memory leak")
	case <-app.ShutdownChan():
		logger.Info("app shutdown")
	}

	shutdownCh := make(chan struct{})
	go func() {
		// Both the server and the application have idempotent shutdown
		// methods, so it's fine to call both regardless of the condition.
		_ = server.Close()
		app.Stop()

		close(shutdownCh)
	}()

	select {
	case <-shutdownCh:
		// Ensure the ballast is used to avoid any possible compiler optimizations
		// around unused variable.
		if len(ballast) > 0 {
			ballast[0] = 1
		}

		return nil
	case <-time.After(config.ShutdownGracePeriod):
		return errors.Errorf("failed to stop the application within %v", config.ShutdownGracePeriod)
	}
}

// newRelicMiddleware runs each routed request in a New Relic transaction
// named after its route.
func newRelicMiddleware(nr *newrelic.Application) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
				name = route.GetName()
			}

			txn := nr.StartTransaction(name)
			defer txn.End()

			txn.SetWebRequestHTTP(r)
			w = txn.SetWebResponse(w)

			ctx := metrics_util.NewContext(newrelic.NewContext(r.Context(), txn), nr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newHandler(config BaseConfig, router *mux.Router) http.Handler {
	handler := handlers.CompressHandler(router)

	var origins []string
	for _, origin := range strings.Split(config.AllowedOrigins, ",") {
		if origin = strings.ToLower(strings.TrimSpace(origin)); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) > 0 {
		handler = handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
			handlers.AllowedHeaders([]string{"content-type"}),
		)(handler)
	}

	if config.EnableRequestLogging {
		w := logrus.StandardLogger().WithField("type", "app/http").WriterLevel(logrus.InfoLevel)
		handler = handlers.CombinedLoggingHandler(w, handler)
	}
	return handler
}

func configureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics_util.NewCustomNewRelicLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stdout)
}
