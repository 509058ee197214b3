package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kidsrec/chatbot/internal/app/catalog"
	"github.com/kidsrec/chatbot/internal/app/conversation"
	"github.com/kidsrec/chatbot/internal/app/favorites"
	"github.com/kidsrec/chatbot/internal/domain"
)

// Services are the application services the HTTP surface exposes.
type Services struct {
	Conversations *conversation.Service
	Catalog       *catalog.Service
	Favorites     *favorites.Service
	Profiles      domain.ProfileStore
}

type Options struct {
	CORSOrigins        []string
	RateLimitPerMinute int

	// Shutdown, when closed, ends every open stream so that a graceful
	// server shutdown is not held up by idle clients.
	Shutdown <-chan struct{}
}

type Server struct {
	conversations *conversation.Service
	catalog       *catalog.Service
	favorites     *favorites.Service
	profiles      domain.ProfileStore
	shutdown      <-chan struct{}
}

// NewServer builds the router. The caller is trusted to pass the right
// userID in the path; there is no authentication here.
func NewServer(svcs Services, opts Options) http.Handler {
	s := &Server{
		conversations: svcs.Conversations,
		catalog:       svcs.Catalog,
		favorites:     svcs.Favorites,
		profiles:      svcs.Profiles,
		shutdown:      opts.Shutdown,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(withRequestID)
	r.Use(middleware.RealIP)
	r.Use(withLogging)
	r.Use(middleware.Recoverer)
	r.Use(withCORS(opts.CORSOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", s.handleCreateConversation)
			r.Get("/", s.handleListConversations)
			r.Get("/{conversationID}/messages", s.handleGetTimeline)
			r.With(withRateLimit(opts.RateLimitPerMinute)).
				Post("/{conversationID}/messages", s.handleSendMessage)
			r.Get("/{conversationID}/stream", s.handleStream)
		})

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handlePutProfile)

		r.Get("/catalog", s.handleCatalog)
		r.Get("/catalog/books/{bookID}", s.handleGetBook)
		r.Get("/catalog/videos/{videoID}", s.handleGetVideo)

		r.Get("/favorites", s.handleListFavorites)
		r.Post("/favorites", s.handleAddFavorite)
		r.Get("/favorites/{itemID}", s.handleIsFavorite)
		r.Delete("/favorites/{itemID}", s.handleRemoveFavorite)
	})

	return r
}

func userIDParam(r *http.Request) domain.UserID {
	return domain.UserID(chi.URLParam(r, "userID"))
}

func conversationIDParam(r *http.Request) domain.ConversationID {
	return domain.ConversationID(chi.URLParam(r, "conversationID"))
}
