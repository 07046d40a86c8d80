package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vizydrop/github-data-link/pkg/server"
)

func main() {
	var logger *zap.Logger
	var err error

	// Initialize & parse flags
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to .yaml file config")
	debugMode := flag.Bool("debug", false, "run in debug mode")
	flag.Parse()

	if *debugMode {
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatalf("Could not initiate debug zap logger: %v", err)
		}
	} else {
		logger, err = zap.NewProduction()
		if err != nil {
			log.Fatalf("Could not initiate production zap logger: %v", err)
		}
	}

	sugarLogger := logger.Sugar()
	sugarLogger.Infof("initiated zap logger with level: %d", sugarLogger.Level())

	// Load the environment variables from the .env file
	err = godotenv.Load()
	if err != nil {
		sugarLogger.Warnf("Failed to load the dot env file. Continuing with existing environment: %v", err)
	}

	// Env vars for the data link server
	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	// Initializes configuration using a provided yaml file
	config := server.DefaultConfig()
	var configParser struct {
		Affiliation         string `yaml:"affiliation"`
		ResolveDisplayNames bool   `yaml:"resolve-display-names"`
		Retry               struct {
			MaxAttempts       int     `yaml:"max-attempts"`
			InitialIntervalMs int     `yaml:"initial-interval-ms"`
			BackoffMultiplier float64 `yaml:"backoff-multiplier"`
			OverallTimeoutMs  int     `yaml:"overall-timeout-ms"`
		} `yaml:"retry"`
	}

	if configPath != "" {
		configFile, err := os.ReadFile(configPath)
		if err != nil {
			sugarLogger.Fatalf("Could not read yaml configuration file: %s", err.Error())
		}

		err = yaml.Unmarshal(configFile, &configParser)
		if err != nil {
			sugarLogger.Fatalf("Could not unmarshal configuration file: %s", err.Error())
		}

		if configParser.Affiliation != "" {
			config.Affiliation = configParser.Affiliation
		}
		config.ResolveDisplayNames = configParser.ResolveDisplayNames
		if configParser.Retry.MaxAttempts > 0 {
			config.Retry.MaxAttempts = configParser.Retry.MaxAttempts
		}
		if configParser.Retry.InitialIntervalMs > 0 {
			config.Retry.InitialInterval = time.Duration(configParser.Retry.InitialIntervalMs) * time.Millisecond
		}
		if configParser.Retry.BackoffMultiplier > 0 {
			config.Retry.BackoffMultiplier = configParser.Retry.BackoffMultiplier
		}
		if configParser.Retry.OverallTimeoutMs > 0 {
			config.Retry.OverallTimeout = time.Duration(configParser.Retry.OverallTimeoutMs) * time.Millisecond
		}
		sugarLogger.Infof("Configuration for server was set using yaml file")
	}

	dataLinkServer := server.NewDataLinkServer(config, sugarLogger)
	dataLinkServer.Run(serverPort)
}
