package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jirawatp/anon-message-api/internal/auth"
	"github.com/jirawatp/anon-message-api/internal/config"
	"github.com/jirawatp/anon-message-api/internal/handler"
	"github.com/jirawatp/anon-message-api/internal/mailer"
	"github.com/jirawatp/anon-message-api/internal/middleware"
	"github.com/jirawatp/anon-message-api/internal/repository"
	"github.com/jirawatp/anon-message-api/internal/suggest"
	"github.com/jirawatp/anon-message-api/internal/usecase"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.NewConfig(&logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}()

	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping MongoDB")
	}

	db := client.Database(cfg.MongoDatabase)

	userRepo := repository.NewUserMongoRepository(ctx, &logger, db)
	sessionRepo := repository.NewSessionMongoRepository(db)

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer)
	verificationMailer := mailer.NewMailer(&logger)
	suggestClient := suggest.NewClient(&logger)

	authUsecase := usecase.NewAuthUsecase(userRepo, sessionRepo, jwtAuth, verificationMailer, cfg)
	messageUsecase := usecase.NewMessageUsecase(userRepo)

	authHandler := handler.NewAuthHandler(authUsecase, &logger)
	messageHandler := handler.NewMessageHandler(messageUsecase, &logger)
	suggestHandler := handler.NewSuggestHandler(suggestClient, &logger)

	requireAuth := middleware.NewAuthMiddleware(jwtAuth, cfg.Token.AccessTokenSecret, sessionRepo)

	router := handler.NewRouter(&logger, authHandler, messageHandler, suggestHandler, requireAuth)

	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("starting HTTP server")
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
