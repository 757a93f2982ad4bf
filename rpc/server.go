package rpc

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pizzachain/core"
	"pizzachain/core/events"
	"pizzachain/native/highlights"
	"pizzachain/native/oracle"
	"pizzachain/native/tipper"
)

// Server exposes the node's operations over HTTP.
type Server struct {
	node    *core.Node
	journal *events.Journal
	logger  *slog.Logger
}

// NewServer wires the HTTP surface around the node. The journal is optional;
// without one the events endpoint reports an empty log.
func NewServer(node *core.Node, journal *events.Journal, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{node: node, journal: journal, logger: logger}
}

// Router builds the chi handler for the server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/tips", s.handleTip)
		v1.Get("/tips/{id}", s.handleTipByID)
		v1.Get("/submitters", s.handleSubmitters)
		v1.Get("/submitters/{addr}/tip", s.handleTipBySubmitter)
		v1.Get("/balances/{addr}", s.handleBalance)
		v1.Get("/accounts/{addr}", s.handleAccount)
		v1.Post("/accounts/{addr}/credit", s.handleCredit)
		v1.Post("/terminate", s.handleTerminate)

		v1.Get("/highlights", s.handleHighlighted)
		v1.Get("/highlights/pizza/{addr}", s.handlePizzaHighlight)
		v1.Delete("/highlights/pizza/{addr}", s.handleRemovePizzaHighlight)
		v1.Get("/highlights/content/{addr}", s.handleContentHighlight)
		v1.Post("/highlights/content", s.handleHighlightContent)
		v1.Delete("/highlights/content/{addr}", s.handleRemoveContentHighlight)

		v1.Get("/oracle/prices/{id}", s.handlePrice)
		v1.Put("/oracle/prices/{id}", s.handleSetPrice)

		v1.Get("/events", s.handleEvents)
	})

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("rpc: encode response", slog.Any("error", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps ledger rejections onto HTTP statuses. Anything unclassified
// is a backend fault.
func statusFor(err error) int {
	var insufficient *tipper.InsufficientAmountError
	switch {
	case errors.As(err, &insufficient), errors.Is(err, tipper.ErrTipTransfer):
		return http.StatusPaymentRequired
	case errors.Is(err, tipper.ErrAlreadyTipped), errors.Is(err, highlights.ErrAlreadyHighlighted):
		return http.StatusConflict
	case errors.Is(err, tipper.ErrTerminated):
		return http.StatusGone
	case errors.Is(err, highlights.ErrAccessDenied), errors.Is(err, oracle.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, highlights.ErrHighlightNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (s *Server) pathAddress(w http.ResponseWriter, r *http.Request) ([20]byte, bool) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return addr, false
	}
	return addr, true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return 0, false
	}
	return uint32(id), true
}

func (s *Server) handleTip(w http.ResponseWriter, r *http.Request) {
	var req tipRequest
	if !s.decode(w, r, &req) {
		return
	}
	from, err := parseAddress(req.From)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := parseAddress(req.To)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	value, err := parseAmount(req.Value)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.node.Tip(from, value, req.Message, to, req.Pizzas)
	var highlightErr *tipper.HighlightError
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusCreated, tipResponse{ID: id})
	case errors.As(err, &highlightErr):
		// The tip settled; only the highlight was refused.
		s.writeJSON(w, http.StatusCreated, tipResponse{
			ID:        id,
			Highlight: &highlightResult{Applied: false, Reason: highlightErr.Err.Error()},
		})
	default:
		s.writeError(w, statusFor(err), err)
	}
}

func (s *Server) handleTipByID(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	record, found, err := s.node.TipByID(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, errors.New("tip not found"))
		return
	}
	s.writeJSON(w, http.StatusOK, tipRecord{
		ID:      id,
		From:    formatAddress(record.From),
		To:      formatAddress(record.To),
		Pizzas:  record.Pizzas,
		Message: record.Message,
	})
}

func (s *Server) handleTipBySubmitter(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	record, found, err := s.node.TipBySubmitter(addr)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, errors.New("no tip for submitter"))
		return
	}
	s.writeJSON(w, http.StatusOK, tipRecord{
		From:    formatAddress(record.From),
		To:      formatAddress(record.To),
		Pizzas:  record.Pizzas,
		Message: record.Message,
	})
}

func (s *Server) handleSubmitters(w http.ResponseWriter, r *http.Request) {
	list, err := s.node.Submitters()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]string, 0, len(list))
	for _, addr := range list {
		out = append(out, formatAddress(addr))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	balance, err := s.node.BalanceOf(addr)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, balanceResponse{Address: formatAddress(addr), Balance: balance.String()})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	balance, err := s.node.AccountBalance(addr)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, balanceResponse{Address: formatAddress(addr), Balance: balance.String()})
}

func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	var req creditRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.node.Credit(addr, amount); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	balance, err := s.node.AccountBalance(addr)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, balanceResponse{Address: formatAddress(addr), Balance: balance.String()})
}

func (s *Server) handleTerminate(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	done, err := s.node.Terminate(caller)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, terminateResponse{Terminated: done})
}

func (s *Server) handleHighlighted(w http.ResponseWriter, r *http.Request) {
	list, err := s.node.Highlighted()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]string, 0, len(list))
	for _, addr := range list {
		out = append(out, formatAddress(addr))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePizzaHighlight(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	id, found, err := s.node.PizzaHighlight(addr)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, errors.New("no pizza highlight"))
		return
	}
	s.writeJSON(w, http.StatusOK, highlightResponse{Address: formatAddress(addr), ID: id})
}

func (s *Server) handleContentHighlight(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	id, found, err := s.node.ContentHighlight(addr)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, errors.New("no content highlight"))
		return
	}
	s.writeJSON(w, http.StatusOK, highlightResponse{Address: formatAddress(addr), ID: id})
}

func (s *Server) handleHighlightContent(w http.ResponseWriter, r *http.Request) {
	var req contentHighlightRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	author, err := parseAddress(req.Author)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.node.HighlightContent(caller, author, req.ID); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, highlightResponse{Address: formatAddress(author), ID: req.ID})
}

func (s *Server) handleRemovePizzaHighlight(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	var req callerRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.node.RemovePizzaHighlight(caller, addr); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveContentHighlight(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathAddress(w, r)
	if !ok {
		return
	}
	var req callerRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.node.RemoveContentHighlight(caller, addr); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	record, found, err := s.node.PizzaPrice(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, errors.New("no price published"))
		return
	}
	s.writeJSON(w, http.StatusOK, priceResponse{ID: id, Confidence: record.Confidence, Price: record.Price.String()})
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req priceRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	price, err := parseAmount(req.Price)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.node.SetPizzaPrice(caller, id, req.Confidence, price); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, priceResponse{ID: id, Confidence: req.Confidence, Price: price.String()})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		limit = parsed
	}
	if s.journal == nil {
		s.writeJSON(w, http.StatusOK, []any{})
		return
	}
	list, err := s.journal.List(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}
