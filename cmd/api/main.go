package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"github.com/ronnie012/assured-life-server/internal/adapter/repo"
	"github.com/ronnie012/assured-life-server/internal/docstore"
	"github.com/ronnie012/assured-life-server/internal/domain"
	"github.com/ronnie012/assured-life-server/internal/http/handlers"
	"github.com/ronnie012/assured-life-server/internal/http/httpapi"
	"github.com/ronnie012/assured-life-server/internal/infra"
	"github.com/ronnie012/assured-life-server/internal/infra/geoip"
	"github.com/ronnie012/assured-life-server/internal/infra/identity"
	"github.com/ronnie012/assured-life-server/internal/lifecycle"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	users := repo.NewUserRepository(dbpool)
	policies := repo.NewPolicyRepository(dbpool)
	applications := repo.NewApplicationRepository(dbpool)
	claims := repo.NewClaimRepository(dbpool)
	transactions := repo.NewTransactionRepository(dbpool)
	dashboard := repo.NewDashboardRepository(dbpool)
	agentApps := repo.NewAgentApplicationRepository(dbpool)

	engine := lifecycle.NewEngine(applications, claims, users, policies, agentApps, logger)

	documents, err := newDocumentStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init document store")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}

	app := &handlers.App{
		Logger:        logger,
		JWTSecret:     cfg.JWTSecret,
		WebhookSecret: cfg.PaymentWebhookSecret,
		Verifier:      identity.NewVerifier(cfg.IdentityIssuer, cfg.IdentityAudience),
		Lifecycle:     engine,
		Users:         users,
		Policies:      policies,
		Transactions:  transactions,
		Dashboard:     dashboard,
		Documents:     documents,
	}

	router := httpapi.NewRouter(app, cfg, resolver)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// newDocumentStore uploads to S3 when a bucket is configured, otherwise
// writes to the local filesystem.
func newDocumentStore(ctx context.Context, cfg *infra.Config) (domain.DocumentStore, error) {
	if cfg.DocumentBucket != "" {
		awscfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		return docstore.NewS3Store(s3.NewFromConfig(awscfg), cfg.DocumentBucket, cfg.DocumentBaseURL), nil
	}
	return docstore.NewFileStore(cfg.DocumentLocalPath, cfg.DocumentBaseURL)
}
