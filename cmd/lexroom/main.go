package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkoutsos/lexroom/internal/auth"
	"github.com/dkoutsos/lexroom/internal/config"
	"github.com/dkoutsos/lexroom/internal/httpapi"
	"github.com/dkoutsos/lexroom/internal/llm"
	"github.com/dkoutsos/lexroom/internal/observability"
	"github.com/dkoutsos/lexroom/internal/orchestrator"
	"github.com/dkoutsos/lexroom/internal/session"
	"github.com/dkoutsos/lexroom/internal/tools"
	"github.com/dkoutsos/lexroom/internal/transcript"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	authority, err := auth.NewAuthority(auth.Config{
		Secret:    cfg.JWTSecret,
		Algorithm: cfg.JWTAlgorithm,
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
	})
	if err != nil {
		log.Fatalf("token authority init failed: %v", err)
	}

	ctx := context.Background()
	transcripts, err := transcript.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("transcript store init failed: %v", err)
	}
	defer transcripts.Close()

	adapter, err := llm.NewAdapter(llm.Config{
		Mode:      cfg.LLMMode,
		URL:       cfg.LLMURL,
		APIKey:    cfg.LLMAPIKey,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
	})
	if err != nil {
		log.Fatalf("llm adapter init failed: %v", err)
	}

	registry, err := tools.NewRegistry(append(tools.Builtin(), llm.ChatTool(adapter))...)
	if err != nil {
		log.Fatalf("tool registry init failed: %v", err)
	}

	sessions := session.NewRegistry(cfg.SessionInactivityTimeout, cfg.SessionMaxPerSubject)
	sessions.SetExpireHook(func(_ session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	orch := orchestrator.New(sessions, registry, adapter, transcripts, metrics, orchestrator.Config{
		MaxToolRounds: cfg.MaxToolRounds,
		LLMTimeout:    cfg.LLMTimeout,
		ToolTimeout:   cfg.ToolTimeout,
	})

	api := httpapi.New(cfg, authority, sessions, orch, registry, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, 5*time.Second)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
