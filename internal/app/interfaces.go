package app

import (
	"github.com/openmerch/gallery/config"
	"github.com/openmerch/gallery/internal/gallery"
	"github.com/openmerch/gallery/internal/store"
	"github.com/robfig/cron/v3"
)

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// StoreProvider provides gallery store access
type StoreProvider interface {
	Store() store.GalleryStore
}

// ServiceProvider provides the gallery service
type ServiceProvider interface {
	Service() *gallery.Service
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// AppContext combines all provider interfaces for full application context
type AppContext interface {
	ConfigProvider
	StoreProvider
	ServiceProvider
	SchedulerProvider

	MigrateDB() error
	Release()
}
