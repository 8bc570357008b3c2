package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sivigila/solicitudes/internal/auth"
	"github.com/sivigila/solicitudes/internal/categoria"
	"github.com/sivigila/solicitudes/internal/config"
	"github.com/sivigila/solicitudes/internal/docstore"
	internalhttp "github.com/sivigila/solicitudes/internal/http"
	"github.com/sivigila/solicitudes/internal/identidad"
	"github.com/sivigila/solicitudes/internal/service"
	"github.com/sivigila/solicitudes/internal/solicitud"
	"github.com/sivigila/solicitudes/internal/storage"
	"github.com/sivigila/solicitudes/internal/usuario"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api terminada con error")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	client, database, err := docstore.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	var blobs storage.BlobStore = storage.NoopStore{}
	if cfg.S3.Configured() {
		s3Store, err := storage.NewS3Store(storage.S3Config{
			Endpoint:     cfg.S3.Endpoint,
			Region:       cfg.S3.Region,
			Bucket:       cfg.S3.Bucket,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			PublicDomain: cfg.S3.PublicDomain,
		})
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		blobs = s3Store
	} else {
		log.Warn().Msg("blobstore no configurado: subidas de imagen deshabilitadas")
	}

	store := docstore.NewMongoStore(database)

	identidades := identidad.NewRepository(store)
	perfiles := usuario.NewRepository(store)
	solicitudesRepo := solicitud.NewRepository(store)
	categorias := categoria.NewRepository(store)

	resolver := service.NewResolver(perfiles, redisClient, cfg.SessionCacheTTL)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(identidades, resolver, redisClient, jwtManager, cfg.JWTRefreshTTL)

	deps := internalhttp.Deps{
		AuthService: authService,
		Resolver:    resolver,
		Solicitudes: solicitud.NewService(solicitudesRepo),
		Usuarios:    usuario.NewService(perfiles, authService, blobs, resolver),
		Categorias:  categoria.NewService(categorias, blobs),
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: internalhttp.NewRouter(cfg, deps),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API escuchando en :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("apagando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
