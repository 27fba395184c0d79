package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/pccr10001/ringline/internal/api"
	"github.com/pccr10001/ringline/internal/audio"
	"github.com/pccr10001/ringline/internal/config"
	"github.com/pccr10001/ringline/internal/hardware"
	"github.com/pccr10001/ringline/internal/logic"
	"github.com/pccr10001/ringline/internal/model"
	"github.com/pccr10001/ringline/internal/phone"
	"github.com/pccr10001/ringline/internal/remote"
	"github.com/pccr10001/ringline/internal/repository"
	"github.com/pccr10001/ringline/internal/settings"
	"github.com/pccr10001/ringline/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Config
	config.LoadConfig()
	cfg := config.AppConfig

	// 2. Init Logger
	logger.InitLogger(cfg.Log.Level, cfg.Log.Format)
	logger.Log.Info("Starting ringline...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Init Database
	db := initDB()
	journal := logic.NewJournalService(repository.NewCallEventRepository(db))

	// 4. Open the line
	line, err := hardware.Open(cfg.Hardware)
	if err != nil {
		logger.Log.Fatalf("Failed to open line hardware (%s): %v", cfg.Hardware.Driver, err)
	}
	logger.Log.Infof("Line hardware ready (%s)", cfg.Hardware.Driver)

	// 5. Remote collaborator and ring config
	client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.HTTPTimeout)
	ringConfig := settings.NewCache(client)
	if err := ringConfig.Refresh(ctx); err != nil {
		logger.Log.Warnf("Starting with default ring config: %v", err)
	}

	sessions := audio.NewManager(audio.Options{
		Device:    cfg.Audio.Device,
		RecordCmd: cfg.Audio.RecordCmd,
		PlayCmd:   cfg.Audio.PlayCmd,
		WorkDir:   cfg.Audio.WorkDir,
	}, client, ringConfig)

	// 6. Control loop and its producers
	channel := remote.NewChannel(cfg.Remote.SocketURL, cfg.Remote.ReconnectDelay)
	bridge := phone.NewBridge()
	ctrl := phone.NewController(line, bridge, sessions, channel, ringConfig, journal, phone.Options{})
	sensor := phone.NewSensor(line, ctrl, ctrl)
	autoRinger := phone.NewAutoRinger(ringConfig, ctrl, ctrl)

	channel.OnCommand = func(cmd string) {
		ctrl.Post(phone.CommandEvent(cmd, "remote"))
	}
	channel.OnConnect = func(ctx context.Context) {
		if err := ringConfig.Refresh(ctx); err != nil {
			logger.Log.Warnf("Config refresh on connect failed: %v", err)
		}
		channel.Send(ctrl.State().Status())
	}

	// 7. Init Router
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	api.RegisterRoutes(r, api.NewPhoneHandler(ctrl, sessions, ringConfig, journal))
	srv := &http.Server{Addr: cfg.Server.Port, Handler: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error { sensor.Run(gctx); return nil })
	g.Go(func() error { autoRinger.Run(gctx); return nil })
	g.Go(func() error { return channel.Run(gctx) })
	g.Go(func() error {
		logger.Log.Infof("Server listening on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.Errorf("Stopped with error: %v", err)
	}

	// 8. Teardown
	sessions.Close()
	journal.Flush()
	if err := line.Close(); err != nil {
		logger.Log.Warnf("Failed to close line hardware: %v", err)
	}
	logger.Log.Info("ringline stopped")
	_ = logger.Log.Sync()
}

func initDB() *gorm.DB {
	var db *gorm.DB
	var err error

	driver := config.AppConfig.Database.Driver
	dsn := config.AppConfig.Database.DSN

	switch driver {
	case "mysql":
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		// Default to SQLite (pure Go)
		if dsn == "" {
			dsn = "ringline.db"
		}
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}

	if err != nil {
		logger.Log.Fatalf("Failed to connect database (%s): %v", driver, err)
	}

	if err := db.AutoMigrate(&model.CallEvent{}); err != nil {
		logger.Log.Fatalf("Failed to migrate call journal: %v", err)
	}

	return db
}
