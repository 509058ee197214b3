package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kidsrec/chatbot/internal/adapters/http"
	"github.com/kidsrec/chatbot/internal/adapters/llm"
	"github.com/kidsrec/chatbot/internal/adapters/storage/badgerdb"
	firestorestore "github.com/kidsrec/chatbot/internal/adapters/storage/firestore"
	memstore "github.com/kidsrec/chatbot/internal/adapters/storage/memory"
	"github.com/kidsrec/chatbot/internal/app/catalog"
	"github.com/kidsrec/chatbot/internal/app/conversation"
	"github.com/kidsrec/chatbot/internal/app/favorites"
	"github.com/kidsrec/chatbot/internal/config"
	"github.com/kidsrec/chatbot/internal/domain"
	"github.com/kidsrec/chatbot/internal/observability"
)

// stores groups the persistence ports so one backend can serve all of them.
type stores struct {
	conversations domain.ConversationStore
	profiles      domain.ProfileStore
	catalog       domain.CatalogStore
	favorites     domain.FavoriteStore
	close         func() error
}

func main() {
	if err := run(); err != nil {
		observability.Logger().Error("kidsrec api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	observability.Configure(os.Stdout, cfg.Log.Format, cfg.Log.Level)
	log := observability.Logger()

	completer, err := newCompleter(ctx, cfg, log)
	if err != nil {
		return err
	}

	st, err := newStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Error("closing storage", "error", err)
		}
	}()

	convSvc := conversation.NewService(conversation.Deps{
		Completer:     completer,
		Conversations: st.conversations,
		Profiles:      st.profiles,
		Options: domain.CompletionOptions{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
	})

	handler := httpadapter.NewServer(httpadapter.Services{
		Conversations: convSvc,
		Catalog:       catalog.NewService(st.catalog, st.profiles),
		Favorites:     favorites.NewService(st.favorites),
		Profiles:      st.profiles,
	}, httpadapter.Options{
		CORSOrigins:        cfg.HTTP.CORSOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		Shutdown:           ctx.Done(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("kidsrec api listening", "port", cfg.HTTP.Port, "mode", cfg.Mode)
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

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newCompleter(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.Completer, error) {
	var (
		completer domain.Completer
		err       error
	)

	switch cfg.LLM.Provider {
	case "openai":
		log.Info("using OpenAI-compatible completer", "model", cfg.LLM.Model, "base_url", cfg.LLM.BaseURL)
		completer, err = llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		})
	case "vertex":
		log.Info("using Vertex completer", "project", cfg.GCP.Project, "location", cfg.GCP.Location)
		completer, err = llm.NewVertexClient(ctx, llm.VertexConfig{
			ProjectID: cfg.GCP.Project,
			Location:  cfg.GCP.Location,
			ModelName: cfg.LLM.Model,
		})
	default:
		log.Info("using mock completer")
		completer = llm.NewMockLLM()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s completer: %w", cfg.LLM.Provider, err)
	}

	if cfg.LLM.Breaker.Enabled {
		completer = llm.NewBreakerCompleter(completer, llm.BreakerConfig{
			Name:             cfg.LLM.Provider,
			FailureThreshold: cfg.LLM.Breaker.FailureThreshold,
			OpenTimeout:      cfg.LLM.Breaker.OpenTimeout,
		})
	}
	return completer, nil
}

func newStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, error) {
	switch cfg.Storage.Backend {
	case "firestore":
		log.Info("using Firestore storage", "project", cfg.GCP.Project)
		fs, err := firestorestore.NewStore(ctx, cfg.GCP.Project)
		if err != nil {
			return nil, fmt.Errorf("initializing firestore store: %w", err)
		}
		// 1 store, implements all 4 ports
		return &stores{
			conversations: fs,
			profiles:      fs,
			catalog:       fs,
			favorites:     fs,
			close:         fs.Close,
		}, nil

	case "badger":
		log.Info("using Badger storage", "path", cfg.Storage.BadgerPath)
		seed, err := memstore.LoadCatalogSeed(cfg.Catalog.SeedPath)
		if err != nil {
			return nil, err
		}
		bs, err := badgerdb.Open(cfg.Storage.BadgerPath)
		if err != nil {
			return nil, fmt.Errorf("opening badger store: %w", err)
		}
		return &stores{
			conversations: bs,
			profiles:      bs,
			catalog:       memstore.NewCatalogStore(seed),
			favorites:     bs,
			close:         bs.Close,
		}, nil

	default:
		log.Info("using in-memory storage")
		seed, err := memstore.LoadCatalogSeed(cfg.Catalog.SeedPath)
		if err != nil {
			return nil, err
		}
		return &stores{
			conversations: memstore.NewConversationStore(),
			profiles:      memstore.NewProfileStore(),
			catalog:       memstore.NewCatalogStore(seed),
			favorites:     memstore.NewFavoriteStore(),
			close:         func() error { return nil },
		}, nil
	}
}
