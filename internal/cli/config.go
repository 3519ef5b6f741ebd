package cli

import (
	"context"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"civic-chat/handler"
	"civic-chat/internal/faq"
	"civic-chat/internal/integrations/gemini"
	"civic-chat/internal/integrations/paramstore"
	"civic-chat/internal/logging"
	"civic-chat/internal/repository"
	"civic-chat/internal/usecase"
)

const (
	backendDynamoDB = "dynamodb"
	backendPostgres = "postgres"

	geminiKeyEnv    = "GEMINI_API_KEY"
	geminiKeySuffix = "/gemini-api-key"
)

// config holds values read from flags and the environment.
type config struct {
	logLevel  string
	logFormat string

	storeBackend  string
	messagesTable string
	databaseURL   string

	paramPrefix string
	geminiModel string

	addr string

	// loadAWS is replaced in tests.
	loadAWS func(ctx context.Context) (aws.Config, error)
}

func newConfig() *config {
	return &config{
		loadAWS: func(ctx context.Context) (aws.Config, error) {
			return awsconfig.LoadDefaultConfig(ctx)
		},
	}
}

func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (json, console)",
			Value:       logging.FormatJSON,
			Sources:     cli.EnvVars("LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
		&cli.StringFlag{
			Name:        "store-backend",
			Usage:       "Message store backend (dynamodb, postgres)",
			Value:       backendDynamoDB,
			Sources:     cli.EnvVars("STORE_BACKEND"),
			Destination: &cfg.storeBackend,
		},
		&cli.StringFlag{
			Name:        "messages-table",
			Usage:       "DynamoDB table holding chat messages",
			Sources:     cli.EnvVars("MESSAGES_TABLE"),
			Destination: &cfg.messagesTable,
		},
		&cli.StringFlag{
			Name:        "database-url",
			Usage:       "Postgres connection string",
			Sources:     cli.EnvVars("DATABASE_URL"),
			Destination: &cfg.databaseURL,
		},
		&cli.StringFlag{
			Name:        "param-prefix",
			Usage:       "SSM parameter prefix; the Gemini key is read from <prefix>/gemini-api-key",
			Sources:     cli.EnvVars("PARAM_PREFIX"),
			Destination: &cfg.paramPrefix,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model used for fallback answers",
			Value:       gemini.DefaultModel,
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

func serveFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address for the HTTP server",
			Value:       ":8080",
			Sources:     cli.EnvVars("ADDR"),
			Destination: &cfg.addr,
		},
	}
}

func (cfg *config) setupLogger() {
	logging.SetDefault(logging.New(cfg.logLevel, cfg.logFormat, os.Stdout))
}

// newStore returns the configured message store and a func releasing it.
func (cfg *config) newStore(ctx context.Context) (usecase.MessageStore, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.storeBackend)) {
	case backendDynamoDB, "":
		if strings.TrimSpace(cfg.messagesTable) == "" {
			return nil, nil, goerr.New("messages-table is required for the dynamodb backend")
		}
		awsCfg, err := cfg.loadAWS(ctx)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to load AWS config")
		}
		store, err := repository.NewDynamo(awsdynamodb.NewFromConfig(awsCfg), cfg.messagesTable)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create dynamodb store")
		}
		return store, func() {}, nil

	case backendPostgres:
		if strings.TrimSpace(cfg.databaseURL) == "" {
			return nil, nil, goerr.New("database-url is required for the postgres backend")
		}
		pool, err := repository.NewPostgresPool(ctx, cfg.databaseURL)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to connect to postgres")
		}
		store, err := repository.NewPostgres(pool)
		if err != nil {
			pool.Close()
			return nil, nil, goerr.Wrap(err, "failed to create postgres store")
		}
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, goerr.Wrap(err, "failed to ensure postgres schema")
		}
		return store, pool.Close, nil

	default:
		return nil, nil, goerr.New("unknown store backend", goerr.V("backend", cfg.storeBackend))
	}
}

// newCredentialGetter returns the getter and key name for the Gemini API key.
func (cfg *config) newCredentialGetter(ctx context.Context) (gemini.Getter, string, error) {
	prefix := strings.TrimRight(strings.TrimSpace(cfg.paramPrefix), "/")
	if prefix == "" {
		return paramstore.NewEnv(), geminiKeyEnv, nil
	}

	awsCfg, err := cfg.loadAWS(ctx)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to load AWS config")
	}
	client, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to create SSM client")
	}
	return client, prefix + geminiKeySuffix, nil
}

func (cfg *config) newGenerator(ctx context.Context) (*gemini.Client, error) {
	getter, keyName, err := cfg.newCredentialGetter(ctx)
	if err != nil {
		return nil, err
	}
	client, err := gemini.NewClient(getter, keyName, gemini.WithModel(cfg.geminiModel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return client, nil
}

// newHandler wires the chat handler; the returned func releases the store.
func (cfg *config) newHandler(ctx context.Context) (*handler.Handler, func(), error) {
	store, cleanup, err := cfg.newStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	generator, err := cfg.newGenerator(ctx)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	svc, err := usecase.NewChatService(faq.Default(), generator, store)
	if err != nil {
		cleanup()
		return nil, nil, goerr.Wrap(err, "failed to create chat service")
	}

	h, err := handler.NewHandler(svc)
	if err != nil {
		cleanup()
		return nil, nil, goerr.Wrap(err, "failed to create handler")
	}
	return h, cleanup, nil
}
