// Package server wires the vault together: database, object stores, key
// wrapper, integrity verifier and the HTTP API, plus signal handling and
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	kms "cloud.google.com/go/kms/apiv1"

	"github.com/dmitrijs2005/cryptovault/internal/blobstore"
	"github.com/dmitrijs2005/cryptovault/internal/integrity"
	"github.com/dmitrijs2005/cryptovault/internal/keywrap"
	"github.com/dmitrijs2005/cryptovault/internal/logging"
	"github.com/dmitrijs2005/cryptovault/internal/server/api"
	"github.com/dmitrijs2005/cryptovault/internal/server/config"
	"github.com/dmitrijs2005/cryptovault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cryptovault/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger

	db        *sql.DB
	kmsClient *kms.KeyManagementClient
	server    *api.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	blobs, err := blobstore.NewS3Store(ctx, blobstore.S3Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("blob store init: %w", err)
	}

	keys, err := blobstore.NewMinioStore(ctx, blobstore.MinioOptions{
		Endpoint:  cfg.KeyStoreEndpoint,
		AccessKey: cfg.KeyStoreAccessKey,
		SecretKey: cfg.KeyStoreSecretKey,
		UseSSL:    cfg.KeyStoreUseSSL,
		Bucket:    cfg.KeyStoreBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("key store init: %w", err)
	}

	app := &App{config: cfg, logger: logger, db: db}

	wrapper, err := app.newWrapper(ctx)
	if err != nil {
		return nil, fmt.Errorf("key wrapper init: %w", err)
	}

	verifier := integrity.New([]byte(cfg.IntegritySecret), []byte(cfg.IntegritySalt))

	vault := services.NewVaultService(db, repos, blobs, keys, wrapper, verifier, logger, cfg)
	app.server = api.NewServer(vault, logger, cfg)

	return app, nil
}

// newWrapper picks the key wrapping backend. A configured local KEK takes
// precedence and skips the KMS client entirely.
func (app *App) newWrapper(ctx context.Context) (keywrap.Wrapper, error) {
	if app.config.LocalKEKHex != "" {
		kek, err := hex.DecodeString(app.config.LocalKEKHex)
		if err != nil {
			return nil, fmt.Errorf("decode local kek: %w", err)
		}
		return keywrap.NewLocalWrapper(kek)
	}

	client, err := kms.NewKeyManagementClient(ctx)
	if err != nil {
		return nil, err
	}
	app.kmsClient = client

	return keywrap.NewKMSWrapper(client,
		app.config.KMSProject, app.config.KMSLocation,
		app.config.KMSKeyRing, app.config.KMSKey), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting vault server")

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)

	if app.kmsClient != nil {
		if cerr := app.kmsClient.Close(); cerr != nil {
			app.logger.Warn(ctx, "kms client close failed", "error", cerr)
		}
	}
	if dberr := app.db.Close(); dberr != nil {
		app.logger.Warn(ctx, "db close failed", "error", dberr)
	}

	return err
}
