package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/openmerch/gallery/config"
	"github.com/openmerch/gallery/internal/app"
	"github.com/openmerch/gallery/internal/galleryapi"
	"github.com/openmerch/gallery/internal/webserver"
	"go.uber.org/zap"
)

var (
	h        bool
	showVer  bool
	conffile string
)

func init() {
	flag.BoolVar(&h, "h", false, "help usage")
	flag.BoolVar(&showVer, "v", false, "show version")
	flag.StringVar(&conffile, "c", "gallery.yml", "config file")
}

func main() {
	flag.Parse()
	if h {
		flag.Usage()
		return
	}
	if showVer {
		fmt.Println("gallery", "1.0.0")
		return
	}

	_ = godotenv.Load()
	cfg := config.LoadConfig(conffile)

	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}
	defer application.Release()

	webserver.Init(cfg)
	galleryapi.InitRouter(application.Service())

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		application.Release()
		os.Exit(0)
	}()

	if err := webserver.Listen(); err != nil {
		zap.S().Errorf("web server stopped: %v", err)
	}
}
