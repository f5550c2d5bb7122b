package commands

import (
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/wttnguyen/draftolio/internal/api"
	cliconfig "github.com/wttnguyen/draftolio/internal/cli/config"
	"github.com/wttnguyen/draftolio/internal/config"
	"github.com/wttnguyen/draftolio/internal/identity"
	"github.com/wttnguyen/draftolio/internal/logger"
	"github.com/wttnguyen/draftolio/internal/notify"
	"github.com/wttnguyen/draftolio/internal/session"
	"github.com/wttnguyen/draftolio/internal/transport"
)

// env is the fully wired client stack every command runs against.
type env struct {
	cfg      *config.Config
	logger   zerolog.Logger
	notifier *notify.Center
	client   *api.Client
	session  *session.Store
}

// loadConfig merges configuration sources. Precedence: environment variables,
// then the nearest draftolio.yaml, then built-in defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	fileCfg, err := cliconfig.LoadOrDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if os.Getenv("DRAFTOLIO_BACKEND_URL") == "" && fileCfg.BackendURL != "" {
		cfg.Backend.BaseURL = fileCfg.BackendURL
		if os.Getenv("DRAFTOLIO_ORIGIN") == "" {
			cfg.Backend.Origin = fileCfg.BackendURL
		}
	}
	if os.Getenv("DRAFTOLIO_ORIGIN") == "" && fileCfg.Origin != "" {
		cfg.Backend.Origin = fileCfg.Origin
	}
	if os.Getenv("DRAFTOLIO_ALLOWED_REGIONS") == "" && len(fileCfg.AllowedRegions) > 0 {
		cfg.Gateway.AllowedRegions = fileCfg.AllowedRegions
	}
	if os.Getenv("DRAFTOLIO_CACHE_PATH") == "" && fileCfg.CachePath != "" {
		cfg.Cache.Path = fileCfg.CachePath
	}
	if os.Getenv("LOG_LEVEL") == "" && fileCfg.Logging.Level != "" {
		cfg.Logging.Level = fileCfg.Logging.Level
	}
	if os.Getenv("LOG_FORMAT") == "" && fileCfg.Logging.Format != "" {
		cfg.Logging.Format = fileCfg.Logging.Format
	}

	return cfg, nil
}

// newEnv builds the client stack: API client over the interceptor chain,
// session store bound into the chain, placeholder identity attached for the
// draft endpoints when no session exists.
func newEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	zlog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	notifier := notify.NewCenter()

	client := api.New(cfg.Backend.BaseURL, zlog)

	chain := transport.NewChain(http.DefaultTransport, zlog)
	httpClient := client.HTTPClient()
	httpClient.Transport = chain

	sess := session.NewStore(client, notifier, zlog)
	chain.BindSession(sess)

	client.SetUserIDProvider(func() string {
		if sess.IsAuthenticated() {
			return ""
		}
		path, err := identity.DefaultPath()
		if err != nil {
			return ""
		}
		id, err := identity.Ensure(path)
		if err != nil {
			zlog.Debug().Err(err).Msg("Placeholder identity unavailable")
			return ""
		}
		return id
	})

	return &env{
		cfg:      cfg,
		logger:   zlog,
		notifier: notifier,
		client:   client,
		session:  sess,
	}, nil
}
