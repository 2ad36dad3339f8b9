package server

import (
	"net/http"
	"sync"
	"time"

	"trivia-night/internal/config"

	"gorm.io/gorm"
)

type Server struct {
	store    *Store
	db       *gorm.DB
	ws       *wsHub
	cfg      config.Config
	policy   ScorePolicy
	limiter  *rateLimiter
	timersMu sync.Mutex
	timers   map[string]*time.Timer
	recentMu sync.Mutex
	recent   []recentQuestion
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	return &Server{
		store:   NewStore(),
		db:      conn,
		ws:      newWSHub(),
		cfg:     cfg,
		policy:  scorePolicyByName(cfg.ScorePolicy),
		limiter: newRateLimiter(),
		timers:  make(map[string]*time.Timer),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/games", s.handleCreateGame)
	mux.HandleFunc("GET /api/games/", s.handleGameSubroutes)
	mux.HandleFunc("POST /api/games/", s.handleGameSubroutes)
	mux.HandleFunc("GET /ws/games/", s.handleWebsocket)
	return mux
}
