package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/jdriscoll/go-social/internal/config"
	"github.com/jdriscoll/go-social/internal/database"
	"github.com/jdriscoll/go-social/internal/server"
	"github.com/teris-io/shortid"
)

type SocialApp struct {
	log            *log.Logger
	db             database.SocialRepository
	mux            *http.Server
	cs             *server.SocialServer
	verifier       TokenVerifier
	signingKey     []byte
	allowedOrigins []string

	// overridable in tests
	generateShortId func() (string, error)
}

func NewSocialApp(mux *http.ServeMux, logger *log.Logger, cs *server.SocialServer, db database.SocialRepository, cfg *config.Config) *SocialApp {
	s := &SocialApp{
		log:             logger,
		db:              db,
		cs:              cs,
		verifier:        NewJwtVerifier(cfg.SigningKey),
		signingKey:      cfg.SigningKey,
		allowedOrigins:  cfg.AllowedOrigins,
		generateShortId: shortid.Generate,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.Handle("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))

	mux.Handle("POST /api/conversations", s.authMiddleware(s.createConversation))
	mux.Handle("POST /api/conversations/group", s.authMiddleware(s.createGroupConversation))
	mux.Handle("GET /api/conversations", s.authMiddleware(s.getConversations))
	mux.Handle("GET /api/conversations/{id}", s.authMiddleware(s.getConversation))
	mux.Handle("POST /api/conversations/{id}/participants", s.authMiddleware(s.addParticipants))
	mux.Handle("DELETE /api/conversations/{id}/participants/{userId}", s.authMiddleware(s.removeParticipant))
	mux.Handle("POST /api/conversations/{id}/leave", s.authMiddleware(s.leaveConversation))

	mux.Handle("GET /api/messages", s.authMiddleware(s.getMessages))
	mux.Handle("POST /api/messages", s.authMiddleware(s.sendMessage))
	mux.Handle("DELETE /api/messages/{id}", s.authMiddleware(s.deleteMessage))

	mux.Handle("GET /api/notifications", s.authMiddleware(s.getNotifications))
	mux.Handle("PUT /api/notifications/{id}/read", s.authMiddleware(s.markNotificationRead))

	mux.Handle("POST /api/users/{id}/follow", s.authMiddleware(s.followUser))
	mux.Handle("DELETE /api/users/{id}/follow", s.authMiddleware(s.unfollowUser))

	mux.Handle("POST /api/stories", s.authMiddleware(s.createStory))
	mux.Handle("GET /api/stories/{id}", s.authMiddleware(s.getStory))
	mux.Handle("POST /api/stories/{id}/view", s.authMiddleware(s.viewStory))

	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *SocialApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *SocialApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func (s *SocialApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}
