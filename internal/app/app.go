package app

import (
	"context"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/openmerch/gallery/config"
	"github.com/openmerch/gallery/internal/domain"
	"github.com/openmerch/gallery/internal/gallery"
	"github.com/openmerch/gallery/internal/store"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	galleryDB store.GalleryStore
	svc       *gallery.Service
	sched     *cron.Cron
}

// Ensure Application implements all interfaces
var (
	_ ConfigProvider    = (*Application)(nil)
	_ StoreProvider     = (*Application)(nil)
	_ ServiceProvider   = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) Store() store.GalleryStore {
	return a.galleryDB
}

func (a *Application) Service() *gallery.Service {
	return a.svc
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// OverrideStore replaces the application's store (used in tests).
func (a *Application) OverrideStore(st store.GalleryStore) {
	a.galleryDB = st
}

func (a *Application) Init(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	a.initLogger(cfg)

	if err := cfg.InitDirs(); err != nil {
		return err
	}

	if cfg.Database.Enabled {
		a.gormDB = getDatabase(cfg.Database)
		if err := a.MigrateDB(); err != nil {
			zap.S().Errorf("database migration failed: %v", err)
		}
		a.galleryDB = store.NewGormStore(a.gormDB)
		zap.S().Infof("database connection successful, type: %s", cfg.Database.Type)
	} else {
		mem := store.NewMemStore()
		if cfg.Storage.Seed {
			if err := mem.Seed(context.Background()); err != nil {
				zap.S().Errorf("store seed failed: %v", err)
			}
		}
		a.galleryDB = mem
		zap.S().Info("using in-memory store")
	}

	a.svc, err = gallery.NewService(a.galleryDB, gallery.NewBlobStore(cfg.Storage.StaticDir))
	if err != nil {
		return err
	}

	a.initJob()
	return nil
}

func (a *Application) initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

func getDatabase(cfg config.DBConfig) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name)
	loglevel := gormlogger.Silent
	if cfg.Debug {
		loglevel = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(loglevel),
	})
	if err != nil {
		panic(err)
	}
	return db
}

func (a *Application) MigrateDB() error {
	return a.gormDB.Migrator().AutoMigrate(domain.Tables...)
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	_ = zap.L().Sync()
}
