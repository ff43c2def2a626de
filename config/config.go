package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

type DBConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Type    string `yaml:"type" json:"type"`
	Host    string `yaml:"host" json:"host"`
	Port    int    `yaml:"port" json:"port"`
	Name    string `yaml:"name" json:"name"`
	User    string `yaml:"user" json:"user"`
	Passwd  string `yaml:"passwd" json:"passwd"`
	Debug   bool   `yaml:"debug" json:"debug"`
}

type StorageConfig struct {
	// StaticDir is the root for served assets; originals live under
	// images/ and derived thumbnails under images/thumbnails/.
	StaticDir string `yaml:"static_dir" json:"static_dir"`
	// Seed populates the in-memory store with demo products on startup.
	Seed bool `yaml:"seed" json:"seed"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system" json:"system"`
	Web      WebConfig     `yaml:"web" json:"web"`
	Database DBConfig      `yaml:"database" json:"database"`
	Storage  StorageConfig `yaml:"storage" json:"storage"`
	Logger   LogConfig     `yaml:"logger" json:"logger"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "gallery",
		Location: "Asia/Shanghai",
		Workdir:  "/var/gallery",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 1979,
	},
	Database: DBConfig{
		Enabled: false,
		Type:    "postgres",
		Host:    "127.0.0.1",
		Port:    5432,
		Name:    "gallery",
		User:    "postgres",
		Passwd:  "",
	},
	Storage: StorageConfig{
		StaticDir: "static",
		Seed:      true,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/gallery/gallery.log",
	},
}

func setEnvValue(name string, val *string) {
	evalue := os.Getenv(name)
	if evalue != "" {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	evalue := os.Getenv(name)
	if evalue != "" {
		*val = evalue == "true" || evalue == "1" || evalue == "on"
	}
}

func setEnvIntValue(name string, val *int) {
	evalue := os.Getenv(name)
	if evalue != "" {
		*val = cast.ToInt(evalue)
	}
}

// LoadConfig reads the yaml config file and applies environment overrides.
// A missing file is not an error; defaults are used instead.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				panic(err)
			}
		}
	}

	setEnvValue("GALLERY_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvBoolValue("GALLERY_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("GALLERY_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("GALLERY_WEB_PORT", &cfg.Web.Port)

	setEnvBoolValue("GALLERY_DB_ENABLED", &cfg.Database.Enabled)
	setEnvValue("GALLERY_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("GALLERY_DB_PORT", &cfg.Database.Port)
	setEnvValue("GALLERY_DB_NAME", &cfg.Database.Name)
	setEnvValue("GALLERY_DB_USER", &cfg.Database.User)
	setEnvValue("GALLERY_DB_PWD", &cfg.Database.Passwd)

	setEnvValue("GALLERY_STATIC_DIR", &cfg.Storage.StaticDir)
	setEnvBoolValue("GALLERY_STORAGE_SEED", &cfg.Storage.Seed)

	setEnvValue("GALLERY_LOGGER_MODE", &cfg.Logger.Mode)

	return cfg
}

// InitDirs creates the working directories the server writes to.
func (c *AppConfig) InitDirs() error {
	dirs := []string{
		c.System.Workdir,
		filepath.Join(c.Storage.StaticDir, "images"),
		filepath.Join(c.Storage.StaticDir, "images", "thumbnails"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}
