package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/memberdesk/backend/config"
	httpDelivery "github.com/memberdesk/backend/internal/delivery/http"
	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/infrastructure/cache"
	"github.com/memberdesk/backend/internal/infrastructure/membership"
	"github.com/memberdesk/backend/internal/infrastructure/memstore"
	"github.com/memberdesk/backend/internal/infrastructure/sheets"
	"github.com/memberdesk/backend/internal/infrastructure/vision"
	"github.com/memberdesk/backend/internal/lexicon"
	"github.com/memberdesk/backend/internal/logger"
	"github.com/memberdesk/backend/internal/parser"
	"github.com/memberdesk/backend/internal/usecase"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zapLog.Sync() //nolint:errcheck

	if err := run(cfg, zapLog); err != nil {
		zapLog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zapLog.Info("Starting MemberDesk backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Type),
		zap.String("cache", cfg.Cache.Type))

	// Initialize infrastructure dependencies
	store, err := newRecordStore(ctx, cfg, zapLog)
	if err != nil {
		return err
	}

	cacheRepo, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()
	cached := usecase.NewCachedStore(store, cacheRepo, cfg.Cache.TTL, zapLog)
	zapLog.Info("record cache ready", zap.Duration("ttl", cfg.Cache.TTL))

	svc := usecase.Services{}
	svc.Members = usecase.NewMemberService(cached, zapLog)

	var membershipClient domain.MembershipClient
	if cfg.Membership.BaseURL != "" {
		membershipClient = membership.NewClient(cfg.Membership.BaseURL, cfg.Membership.Timeout, zapLog)
		zapLog.Info("membership API configured", zap.String("url", cfg.Membership.BaseURL))
	} else {
		zapLog.Warn("membership API not configured: order proxy will answer 501")
	}
	svc.Orders = usecase.NewOrderService(cached, svc.Members, membershipClient, nil, zapLog)
	svc.Memos = usecase.NewMemoService(cached, nil, zapLog)
	svc.Commissions = usecase.NewCommissionService(cached, nil, zapLog)

	if cfg.Vision.BaseURL != "" {
		visionClient := vision.NewClient(cfg.Vision.BaseURL, cfg.Vision.APIKey, cfg.Vision.Timeout, zapLog)
		svc.Extractor = visionClient
		svc.Fetcher = visionClient
		zapLog.Info("image extraction configured", zap.String("url", cfg.Vision.BaseURL))
	} else {
		zapLog.Warn("image extraction not configured: order images will answer 501")
	}

	p := parser.New(lexicon.Default(cfg.Parser.ParticleMinLength))
	dispatcher, err := usecase.NewDispatcher(p, svc, zapLog)
	if err != nil {
		return fmt.Errorf("build dispatcher: %w", err)
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(dispatcher, zapLog)
	router := httpDelivery.SetupRouter(cfg, handler, zapLog)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	zapLog.Info("Server stopped")
	return nil
}

func newRecordStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (domain.RecordStore, error) {
	if cfg.Store.Type == "sheets" {
		svc, err := sheets.NewService(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.Timeout)
		if err != nil {
			return nil, fmt.Errorf("sheets service: %w", err)
		}
		tabs := cfg.MemoTabs()
		tabs[domain.CategoryMember] = cfg.Sheets.Tabs.Member
		tabs[domain.CategoryOrder] = cfg.Sheets.Tabs.Order
		tabs[domain.CategoryCommission] = cfg.Sheets.Tabs.Commission

		zapLog.Info("using Google Sheets store", zap.String("spreadsheet", cfg.Sheets.SpreadsheetID))
		return sheets.NewClient(svc, sheets.Config{
			SpreadsheetID:     cfg.Sheets.SpreadsheetID,
			Tabs:              tabs,
			RequestsPerSecond: cfg.Sheets.RequestsPerSecond,
			MaxRetries:        cfg.Sheets.MaxRetries,
		}, zapLog), nil
	}

	if cfg.Store.SeedFile != "" {
		store, err := memstore.LoadFile(cfg.Store.SeedFile)
		if err != nil {
			return nil, err
		}
		zapLog.Info("using in-memory store", zap.String("seed", cfg.Store.SeedFile))
		return store, nil
	}
	zapLog.Warn("using empty in-memory store: data is lost on restart")
	return memstore.New(), nil
}

func newCache(ctx context.Context, cfg *config.Config) (domain.CacheRepository, func(), error) {
	if cfg.Cache.Type == "redis" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, "memberdesk:")
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	}
	mc := cache.NewMemoryCache(time.Minute)
	return mc, func() { _ = mc.Close() }, nil
}
