package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/99designs/keyring"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/ducpham/marketdesk/internal/api"
	"github.com/ducpham/marketdesk/internal/app"
	"github.com/ducpham/marketdesk/internal/archive"
	"github.com/ducpham/marketdesk/internal/credential"
	"github.com/ducpham/marketdesk/internal/keys"
	"github.com/ducpham/marketdesk/internal/logging"
	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/notify"
	"github.com/ducpham/marketdesk/internal/realtime"
	appsync "github.com/ducpham/marketdesk/internal/sync"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "marketdesk:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client := api.NewClient(cfg.Server.APIBaseURL, logger)
	session := realtime.NewSession(cfg.Server.SocketURL, logger)
	defer session.Close()

	deps := app.Deps{
		Config:         cfg,
		Logger:         logger,
		Keys:           keys.DefaultKeyMap(),
		Client:         client,
		Session:        session,
		NewUserStack:   userStackBuilder(cfg, client, session, logger),
		StoredIdentity: restoreIdentity(client, logger),
	}

	program := tea.NewProgram(app.New(deps), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

// userStackBuilder returns the factory the app calls once an identity
// is known. The store, history and poller are all scoped to the
// signed-in admin, so they cannot exist before login.
func userStackBuilder(cfg *model.AppConfig, client *api.Client, session *realtime.Session, logger *zap.Logger) func(model.Identity) (*app.UserStack, error) {
	return func(id model.Identity) (*app.UserStack, error) {
		store := notify.NewStore(id.UserID)

		history, err := archive.Open(model.DefaultArchivePath(), id.UserID)
		if err != nil {
			return nil, fmt.Errorf("opening notification history: %w", err)
		}

		interval := time.Duration(cfg.Realtime.FallbackPollSec) * time.Second
		return &app.UserStack{
			Store:      store,
			Reconciler: notify.NewReconciler(store, session, client, logger),
			Poller:     appsync.New(client, store, interval),
			History:    history,
		}, nil
	}
}

// restoreIdentity recovers the previous session from the keyring. A
// missing, malformed or expiring token just means the user signs in
// again, so every failure path returns nil.
func restoreIdentity(client *api.Client, logger *zap.Logger) *model.Identity {
	token, err := credential.Get(credential.KeyAPIToken)
	if err != nil {
		if !errors.Is(err, keyring.ErrKeyNotFound) {
			logger.Warn("reading stored token", zap.Error(err))
		}
		return nil
	}

	info, err := credential.ParseToken(token)
	if err != nil {
		logger.Warn("stored token is malformed, discarding", zap.Error(err))
		_ = credential.Delete(credential.KeyAPIToken)
		return nil
	}
	if info.Expired(30 * time.Second) {
		logger.Info("stored token expired, sign-in required")
		_ = credential.Delete(credential.KeyAPIToken)
		return nil
	}

	client.SetIdentity(info.UserID, token)
	return &model.Identity{
		UserID:     info.UserID,
		Role:       info.Role,
		Credential: token,
	}
}
