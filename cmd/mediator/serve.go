package main

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/didmediator/auth"
	"github.com/sage-x-project/didmediator/config"
	"github.com/sage-x-project/didmediator/config/secretref"
	"github.com/sage-x-project/didmediator/didresolver"
	"github.com/sage-x-project/didmediator/health"
	"github.com/sage-x-project/didmediator/httpapi"
	"github.com/sage-x-project/didmediator/inbound"
	"github.com/sage-x-project/didmediator/internal/logger"
	"github.com/sage-x-project/didmediator/mailbox"
	mailboxmem "github.com/sage-x-project/didmediator/mailbox/memory"
	"github.com/sage-x-project/didmediator/mailbox/postgres"
	"github.com/sage-x-project/didmediator/protocol"
	"github.com/sage-x-project/didmediator/secretstore"
	"github.com/sage-x-project/didmediator/streaming"
	"github.com/sage-x-project/didmediator/wire"
)

var (
	configPath string
	dotEnvPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mediator HTTP/WebSocket server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "config.toml", "Path to the TOML config file")
	serveCmd.Flags().StringVar(&dotEnvPath, "env-file", "", "Optional .env file loaded before config (dev convenience)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoaderOptions{Path: configPath, DotEnvPath: dotEnvPath})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.GetDefaultLogger()
	log.SetLevel(levelFromString(cfg.LogLevel))
	logger.SetDefaultLogger(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mediatorDID, err := secretref.Resolve(cfg.MediatorDID, "")
	if err != nil {
		return fmt.Errorf("resolve mediator_did: %w", err)
	}
	secretsJSON, err := secretref.Resolve(cfg.MediatorSecrets, "")
	if err != nil {
		return fmt.Errorf("resolve mediator_secrets: %w", err)
	}
	secrets, err := secretstore.Load([]byte(secretsJSON))
	if err != nil {
		return fmt.Errorf("load mediator secrets: %w", err)
	}
	mediatorKeyID, err := secretref.Resolve(cfg.MediatorKeyID, "")
	if err != nil {
		return fmt.Errorf("resolve mediator_key_id: %w", err)
	}
	if _, ok := secrets.Get(mediatorKeyID); !ok {
		return fmt.Errorf("mediator_key_id %q not found in mediator_secrets", mediatorKeyID)
	}

	network := didresolver.NewHTTPNetworkResolver(cfg.DIDResolver.Address, cfg.DIDResolver.NetworkTimeoutDuration())
	resolver := didresolver.New(network, didresolver.Options{
		CacheCapacity:  cfg.DIDResolver.CacheCapacity,
		CacheTTL:       cfg.DIDResolver.CacheTTLDuration(),
		NetworkTimeout: cfg.DIDResolver.NetworkTimeoutDuration(),
	})
	engine := wire.New(secrets, resolver, wire.Limits{
		CryptoOperationsPerMessage: cfg.Other.CryptoOperationsPerMessageLimit,
		ToKeysPerRecipientLimit:    cfg.Other.ToKeysPerRecipientLimit,
	})

	jwtSeed, err := resolveJWTSeed(cfg.Security.JWTAuthorizationSecret)
	if err != nil {
		return fmt.Errorf("resolve jwt_authorization_secret: %w", err)
	}
	jwtPriv := ed25519.NewKeyFromSeed(jwtSeed)
	jwtPub := jwtPriv.Public().(ed25519.PublicKey)

	authService := auth.NewService(engine, mediatorDID, mediatorKeyID, jwtPriv, jwtPub)

	dispatcher := protocol.NewDispatcher()
	dispatcher.Register(protocol.ForwardType, protocol.ForwardHandler)
	dispatcher.Register(protocol.PingType, protocol.PingHandler)

	limits := mailbox.Limits{
		MaxMessageSize:     cfg.Database.MaxMessageSize,
		MaxQueuedMessages:  cfg.Database.MaxQueuedMessages,
		MessageExpiry:      cfg.Database.Expiry(),
		MaxListedMessages:  cfg.Database.MaxListedMessages,
		MaxDeletedMessages: cfg.Database.MaxDeletedMessages,
	}

	store, mailboxPing, closeStore, err := newMailboxStore(ctx, cfg, limits)
	if err != nil {
		return fmt.Errorf("open mailbox store: %w", err)
	}
	defer closeStore()

	instanceID, err := secretref.Resolve(cfg.Streaming.UUID, "")
	if err != nil {
		return fmt.Errorf("resolve streaming.uuid: %w", err)
	}
	dir := streaming.NewDirectory(instanceID, nil)
	wsServer := streaming.NewWSServer(dir)

	pipeline := inbound.New(engine, dispatcher, store, dir, mediatorDID, mediatorKeyID, inbound.Limits{
		ToRecipientsLimit: cfg.Other.ToRecipientsLimit,
	})

	checker := health.NewHealthChecker(cfg.DIDResolver.NetworkTimeoutDuration())
	checker.RegisterCheck("did_resolver", health.DIDResolverHealthCheck(func(checkCtx context.Context) error {
		_, err := resolver.Resolve(checkCtx, mediatorDID)
		return err
	}))
	checker.RegisterCheck("mailbox_store", health.MailboxStoreHealthCheck(mailboxPing))
	checker.RegisterCheck("jwt_key", health.JWTKeyHealthCheck(func() error {
		if len(jwtPriv) != ed25519.PrivateKeySize {
			return errors.New("jwt signing key is misconfigured")
		}
		return nil
	}))

	var corsOrigins []string
	if cfg.Security.CORSAllowOrigin != "" {
		corsOrigins = []string{cfg.Security.CORSAllowOrigin}
	}

	srv := httpapi.New(httpapi.Config{
		AuthService:  authService,
		Pipeline:     pipeline,
		Store:        store,
		WS:           wsServer,
		Checker:      checker,
		Limits:       limits,
		MaxBodyBytes: cfg.Server.HTTPSizeLimit,
		CORSOrigins:  corsOrigins,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("mediator listening", logger.String("address", cfg.ListenAddress))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-sigCh:
		log.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}

func levelFromString(s string) logger.Level {
	switch s {
	case "trace", "debug":
		return logger.DebugLevel
	case "warn", "warning":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	case "fatal":
		return logger.FatalLevel
	default:
		return logger.InfoLevel
	}
}

// resolveJWTSeed derives a 32-byte Ed25519 seed from the resolved
// jwt_authorization_secret value: used directly if it is already a
// base64url-encoded 32-byte seed, otherwise hashed down with SHA-256.
func resolveJWTSeed(ref string) ([]byte, error) {
	secret, err := secretref.Resolve(ref, "")
	if err != nil {
		return nil, err
	}
	if raw, err := base64.RawURLEncoding.DecodeString(secret); err == nil && len(raw) == ed25519.SeedSize {
		return raw, nil
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:], nil
}

func newMailboxStore(ctx context.Context, cfg *config.Config, limits mailbox.Limits) (mailbox.Store, func(context.Context) error, func(), error) {
	if cfg.Database.DatabaseURL == "" {
		store := mailboxmem.New(limits, nil, 30*time.Second)
		alwaysHealthy := func(context.Context) error { return nil }
		return store, alwaysHealthy, store.Close, nil
	}

	store, err := postgres.NewStore(ctx, postgres.Config{
		DatabaseURL: cfg.Database.DatabaseURL,
		PoolSize:    int32(cfg.Database.DatabasePoolSize),
	}, limits, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	go store.RunSweep(ctx, 30*time.Second)
	return store, store.Ping, store.Close, nil
}
