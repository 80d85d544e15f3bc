package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/api"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/events"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/flow"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/genai"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/metrics"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/store"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for survey state data
	DefaultStateDir = "/var/lib/concertsurvey"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "concertsurvey.db"
)

func main() {
	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)
	initializeLogger(*flags.debug)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if *flags.seedDemo {
		if err := seedDemoConcert(st); err != nil {
			slog.Error("Failed to seed demo concert", "error", err)
			os.Exit(1)
		}
	}

	client, err := genai.NewClient(buildGenAIOptions(flags)...)
	if err != nil {
		slog.Error("Failed to initialize model client", "error", err)
		os.Exit(1)
	}

	var publisher *events.Publisher
	if *flags.natsURL != "" {
		publisher, err = events.NewPublisher(*flags.natsURL)
		if err != nil {
			slog.Error("Failed to connect to NATS", "error", err, "url", *flags.natsURL)
			os.Exit(1)
		}
		defer publisher.Close()
	} else {
		slog.Debug("No NATS URL configured, event publishing disabled")
	}

	mtr := metrics.New()
	engine := flow.NewEngine(st, client, publisher, mtr)
	server := api.NewServer(st, engine, buildAPIOptions(flags)...)

	slog.Info("Bootstrapping concert survey service")
	slog.Debug("Final configuration",
		"state_dir", *flags.stateDir,
		"dsn_set", *flags.dbDSN != "",
		"api_addr", *flags.apiAddr,
		"nats_enabled", publisher != nil)
	if err := server.Run(); err != nil {
		slog.Error("Concert survey service failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Concert survey service exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	Model       string
	APIAddr     string
	NATSURL     string
	Debug       bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir  *string
	dbDSN     *string
	openaiKey *string
	model     *string
	apiAddr   *string
	natsURL   *string
	seedDemo  *bool
	debug     *bool
}

// initializeLogger sets up structured logging at the requested level
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("CONCERTSURVEY_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		Model:       os.Getenv("OPENAI_MODEL"),
		APIAddr:     os.Getenv("API_ADDR"),
		NATSURL:     os.Getenv("NATS_URL"),
		Debug:       util.ParseBoolEnv("CONCERTSURVEY_DEBUG", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
	}

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:  flag.String("state-dir", config.StateDir, "state directory for survey data (overrides $CONCERTSURVEY_STATE_DIR)"),
		dbDSN:     flag.String("db-dsn", config.DatabaseURL, "database DSN (overrides $DATABASE_URL)"),
		openaiKey: flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		model:     flag.String("model", config.Model, "chat completion model (overrides $OPENAI_MODEL)"),
		apiAddr:   flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		natsURL:   flag.String("nats-url", config.NATSURL, "NATS server URL for event publishing (overrides $NATS_URL)"),
		seedDemo:  flag.Bool("seed-demo", false, "seed a sample concert at startup"),
		debug:     flag.Bool("debug", config.Debug, "enable debug logging (overrides $CONCERTSURVEY_DEBUG)"),
	}

	flag.Parse()

	// Follow the state directory when the DSN was derived from the default
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if !strings.Contains(*flags.dbDSN, "postgres://") && !strings.Contains(*flags.dbDSN, "postgresql://") && !strings.Contains(*flags.dbDSN, "host=") {
		stateDir := filepath.Dir(*flags.dbDSN)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// buildStore constructs the persistence layer from the configured DSN
func buildStore(flags Flags) (store.Store, error) {
	if *flags.dbDSN == "" {
		slog.Debug("No database DSN provided, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_set", true)
		return store.NewPostgresStore(store.WithPostgresDSN(*flags.dbDSN))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithSQLiteDSN(*flags.dbDSN))
}

// buildGenAIOptions constructs model client configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.model != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.model))
	}
	return genaiOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}
