// Package daemon implements the brightness daemon: the HTTP API, the
// request dispatcher, the transition engine and the websocket event feed.
package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lumisync/lumi/pkg/config"
	"github.com/lumisync/lumi/pkg/display"
	"github.com/lumisync/lumi/pkg/events"
)

var (
	conf         config.Config
	drv          display.Driver
	hub          *events.EventHub
	transitioner *Transitioner
	controller   *Controller
	feed         *wsFeed
	startedAt    time.Time
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/brightness", getBrightness)
	router.POST("/brightness", setBrightness)
	router.PUT("/brightness", setBrightnessRaw)
	router.POST("/auto", autoBrightness)
	router.GET("/health", getHealth)
	router.GET("/config", getConfig)
	router.GET("/version", getVersion)
	router.GET("/ws", handleEvents)

	return router
}

// Run starts the daemon: it opens the display driver, serves the HTTP API
// on addr (the configured listen address when addr is empty) and blocks
// until SIGINT or SIGTERM.
func Run(configPath, addr string) error {
	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	if err := conf.Validate(); err != nil {
		logrus.Fatalf("invalid config: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	if addr == "" {
		addr = conf.ListenAddress()
	}

	drv, err = display.New(conf.Driver(), conf.DriverOptions())
	if err != nil {
		logrus.Fatal(err)
	}
	if err := drv.Open(); err != nil {
		logrus.Fatal(err)
	}

	hub = events.NewEventHub()
	transitioner = NewTransitioner(drv, conf.Transition(), conf.MinPercent(), conf.MaxPercent(), hub)
	controller = NewController(conf, transitioner)
	feed = newWSFeed(hub)
	startedAt = time.Now()

	router := setupRoutes()

	srv := &http.Server{
		Handler: router,
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		logrus.Fatal(err)
	}

	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	var sched *Scheduler
	if expr := conf.AutoSchedule(); expr != "" {
		sched = NewScheduler(autoTask, onScheduleError)
		if err := sched.Schedule(expr); err != nil {
			logrus.Fatalf("invalid autoSchedule %q: %v", expr, err)
		}
		sched.Start()
		logrus.Infof("auto brightness scheduled: %s", expr)
	}

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	if sched != nil {
		logrus.Info("stopping auto brightness scheduler")
		sched.Stop()
	}

	transitioner.Cancel()
	feed.close()
	hub.Close()

	logrus.Info("closing display driver")
	if err := drv.Close(); err != nil {
		logrus.Errorf("failed to close display driver: %v", err)
	}

	logrus.Info("exiting")
	return nil
}

func autoTask() error {
	res, err := controller.Auto()
	if err != nil {
		return err
	}
	logrus.Infof("scheduled auto brightness: level %q -> %d%%", res.Level, res.Percent)
	return nil
}

func onScheduleError(data any) {
	logrus.Errorf("scheduled auto brightness failed: %v", data)
}
