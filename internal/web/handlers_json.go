package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/vitos/crypto_take_profit/internal/domain"
	"github.com/vitos/crypto_take_profit/internal/usecase"
	"go.uber.org/zap"
)

const defaultTicketsLimit = 50

type orderRequest struct {
	Side   *domain.OrderSide `json:"side"`
	Price  *float64          `json:"price"`
	Amount *float64          `json:"amount"`
	Total  *float64          `json:"total"`
}

type takeProfitRequest struct {
	Enabled bool `json:"enabled"`
}

type targetEditRequest struct {
	Value  float64 `json:"value"`
	Commit bool    `json:"commit"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidOrderSide), errors.Is(err, usecase.ErrInvalidValue):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrTargetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrTakeProfitDisabled), errors.Is(err, usecase.ErrTargetLimitReached):
		status = http.StatusConflict
	case errors.Is(err, usecase.ErrTicketNotReady):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// respondSnapshot answers with the current form and pushes it to stream clients.
func (s *Server) respondSnapshot(w http.ResponseWriter) {
	snap := s.form.Snapshot()
	s.hub.Broadcast(snap)
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.form.Snapshot())
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "Invalid request body")
		return
	}
	if req.Amount != nil && req.Total != nil {
		s.badRequest(w, "Set either amount or total, not both")
		return
	}

	if req.Side != nil {
		if err := s.form.SetSide(*req.Side); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Price != nil {
		if err := s.form.SetPrice(*req.Price); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Amount != nil {
		if err := s.form.SetAmount(*req.Amount); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Total != nil {
		if err := s.form.SetTotal(*req.Total); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.respondSnapshot(w)
}

func (s *Server) handleToggleTakeProfit(w http.ResponseWriter, r *http.Request) {
	var req takeProfitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "Invalid request body")
		return
	}
	if err := s.form.SetTakeProfit(req.Enabled); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondSnapshot(w)
}

func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	if err := s.form.AddTarget(); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondSnapshot(w)
}

func targetIndex(r *http.Request) (int, error) {
	return strconv.Atoi(r.PathValue("index"))
}

func (s *Server) handleRemoveTarget(w http.ResponseWriter, r *http.Request) {
	index, err := targetIndex(r)
	if err != nil {
		s.badRequest(w, "Invalid target index")
		return
	}
	if err := s.form.RemoveTarget(index); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondSnapshot(w)
}

// handleEditTarget routes a field edit. Without commit the value is treated
// as still being typed; commit runs the blur-time handling.
func (s *Server) handleEditTarget(w http.ResponseWriter, r *http.Request) {
	index, err := targetIndex(r)
	if err != nil {
		s.badRequest(w, "Invalid target index")
		return
	}
	var req targetEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "Invalid request body")
		return
	}

	switch domain.TargetField(r.PathValue("field")) {
	case domain.FieldProfit:
		if req.Commit {
			err = s.form.CommitProfit(index, req.Value)
		} else {
			err = s.form.ChangeProfit(index, req.Value)
		}
	case domain.FieldTargetPrice:
		if req.Commit {
			err = s.form.CommitTargetPrice(index, req.Value)
		} else {
			err = s.form.ChangeTargetPrice(index, req.Value)
		}
	case domain.FieldAmount:
		err = s.form.ChangeAmount(index, req.Value)
		if err == nil && req.Commit {
			err = s.form.CommitAmount()
		}
	default:
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "Unknown target field"})
		return
	}

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondSnapshot(w)
}

func (s *Server) handleSubmitTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.form.Submit(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, ticket)
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	limit := defaultTicketsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.badRequest(w, "Invalid limit")
			return
		}
		limit = n
	}

	tickets, err := s.journal.ListTickets(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list tickets", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to list tickets"})
		return
	}
	if tickets == nil {
		tickets = []*domain.Ticket{}
	}
	s.writeJSON(w, http.StatusOK, tickets)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.hub.Clients(),
	})
}
