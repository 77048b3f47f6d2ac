package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/spf13/viper"

	"github.com/campuschain/room-reservation/ledger"
	"github.com/campuschain/room-reservation/repository"
	"github.com/campuschain/room-reservation/reservation"
	"github.com/campuschain/room-reservation/server"
	"github.com/campuschain/room-reservation/srvreg"
)

var (
	homeDir      string
	httpPort     string
	postgresHost string
)

func init() {
	flag.StringVar(&homeDir, "home", "./node-config/reservation-node", "Path to the node config directory")
	flag.StringVar(&httpPort, "http-port", "5000", "HTTP web server port")
	flag.StringVar(&postgresHost, "postgres-host", "reservation-postgres0:5432", "DB host address")
}

func main() {
	// Load Config
	flag.Parse()

	if homeDir == "" {
		homeDir = os.ExpandEnv("$HOME/.room-reservation")
	}

	viper.SetDefault("mining.difficulty", ledger.DefaultDifficulty)
	viper.SetDefault("mining.reward", ledger.DefaultReward)
	viper.SetDefault("mining.batch_size", reservation.DefaultBatchSize)
	viper.SetConfigFile(fmt.Sprintf("%s/%s", homeDir, "config/config.toml"))
	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No config file, using defaults: %v", err)
	}
	difficulty := viper.GetInt("mining.difficulty")
	reward := viper.GetInt("mining.reward")
	batchSize := viper.GetInt("mining.batch_size")

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))

	// Connect Postgresql DB
	dsn := fmt.Sprintf("postgresql://postgres:postgrespassword@%s/postgres", postgresHost)
	repo := repository.NewRepository(logger)
	log.Printf("Connecting to: %s\n", dsn)
	repo.ConnectDB(dsn)
	repo.Migrate()

	// Initialize Badger DB
	badgerPath := filepath.Join(homeDir, "badger")
	if err := repo.OpenKV(badgerPath); err != nil {
		log.Fatalf("Opening database: %v", err)
	}
	defer func() {
		if err := repo.CloseKV(); err != nil {
			log.Fatalf("Closing database: %v", err)
		}
	}()

	// Initialize the chain and the reservation service
	led, err := ledger.New(difficulty, reward)
	if err != nil {
		log.Fatalf("Creating ledger: %v", err)
	}
	service := reservation.NewService(led, repo, batchSize, logger)
	service.Restore()

	// Initialize Service Registry
	serviceRegistry := srvreg.NewServiceRegistry(service, logger)
	serviceRegistry.RegisterDefaultServices()

	// Start Web Server
	webserver := server.NewWebServer(httpPort, logger, serviceRegistry, service)
	err = webserver.Start()
	if err != nil {
		log.Fatalf("Starting HTTP server: %v", err)
	}

	// Wait for interrupt signal to gracefully shut down the server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	// Create deadline to wait for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown the web server
	err = webserver.Shutdown(ctx)
	if err != nil {
		logger.Error("Shutting down HTTP web server", "err", err)
	}
	logger.Info("HTTP web server gracefully stopped")
}
