package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vitos/crypto_take_profit/internal/domain"
	"github.com/vitos/crypto_take_profit/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	router  *http.ServeMux
	server  *http.Server
	form    *usecase.OrderForm
	journal domain.TicketJournal
	hub     *Hub
	logger  *zap.Logger
}

func NewServer(
	port int,
	form *usecase.OrderForm,
	journal domain.TicketJournal,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:  http.NewServeMux(),
		form:    form,
		journal: journal,
		hub:     NewHub(logger),
		logger:  logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Order form
	s.router.HandleFunc("GET /api/form", s.handleGetForm)
	s.router.HandleFunc("POST /api/order", s.handleUpdateOrder)
	s.router.HandleFunc("POST /api/take-profit", s.handleToggleTakeProfit)

	// Targets
	s.router.HandleFunc("POST /api/targets", s.handleAddTarget)
	s.router.HandleFunc("DELETE /api/targets/{index}", s.handleRemoveTarget)
	s.router.HandleFunc("PUT /api/targets/{index}/{field}", s.handleEditTarget)

	// Tickets
	s.router.HandleFunc("POST /api/tickets", s.handleSubmitTicket)
	s.router.HandleFunc("GET /api/tickets", s.handleListTickets)

	// Status
	s.router.HandleFunc("GET /status", s.handleStatus)

	// Live snapshots
	s.router.HandleFunc("GET /ws", s.handleStream)
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.server.Shutdown(ctx)
}
