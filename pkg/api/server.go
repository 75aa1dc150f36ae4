package api

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/swapmatch/pkg/crypto"
	"github.com/uhyunpark/swapmatch/pkg/exchange"
)

// Server exposes the settlement engine over REST and streams match records
// over WebSocket.
type Server struct {
	engine *exchange.Engine
	store  exchange.MatchStore
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

func NewServer(engine *exchange.Engine, store exchange.MatchStore, log *zap.SugaredLogger) *Server {
	s := &Server{
		engine: engine,
		store:  store,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/match", s.handleMatch).Methods("POST")
	api.HandleFunc("/orders/hash", s.handleHashOrder).Methods("POST")
	api.HandleFunc("/orders/validate", s.handleValidateOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")
	api.HandleFunc("/matches", s.handleRecentMatches).Methods("GET")

	s.router.HandleFunc("/ws", s.hub.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start serves the API until the listener fails.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})

	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var sub MatchSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if sub.Buy == nil || sub.Sell == nil {
		writeError(w, http.StatusBadRequest, errors.New("both buy and sell orders are required"))
		return
	}

	buy, err := sub.Buy.ToOrder()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sell, err := sub.Sell.ToOrder()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	req := exchange.MatchRequest{Buy: buy, Sell: sell, Caller: buy.Maker}
	if sub.Caller != "" {
		if !common.IsHexAddress(sub.Caller) {
			writeError(w, http.StatusBadRequest, errors.New("invalid caller address"))
			return
		}
		req.Caller = common.HexToAddress(sub.Caller)
	}
	if sub.Value != "" {
		value, ok := new(big.Int).SetString(sub.Value, 10)
		if !ok {
			writeError(w, http.StatusBadRequest, errors.New("invalid attached value"))
			return
		}
		req.Value = value
	}
	if req.BuySig, err = decodeOptionalSig(sub.BuySig); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.SellSig, err = decodeOptionalSig(sub.SellSig); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := s.engine.AtomicMatch(req)
	if err != nil {
		writeError(w, settlementStatus(err), err)
		return
	}

	s.hub.BroadcastMatch(rec)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHashOrder(w http.ResponseWriter, r *http.Request) {
	var sub OrderSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if sub.Order == nil {
		writeError(w, http.StatusBadRequest, errors.New("order is required"))
		return
	}
	order, err := sub.Order.ToOrder()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	hash, err := s.engine.HashOrder(order)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, HashResponse{Hash: hash.Hex()})
}

func (s *Server) handleValidateOrder(w http.ResponseWriter, r *http.Request) {
	order, sig, caller, err := parseOrderSubmission(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	hash, err := s.engine.ValidateOrder(order, sig, caller)
	if err != nil {
		writeError(w, settlementStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, HashResponse{Hash: hash.Hex()})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	order, sig, caller, err := parseOrderSubmission(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	hash, err := s.engine.CancelOrder(order, sig, caller)
	if err != nil {
		writeError(w, settlementStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, HashResponse{Hash: hash.Hex()})
}

func (s *Server) handleRecentMatches(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if s.store == nil {
		writeJSON(w, http.StatusOK, []*exchange.MatchRecord{})
		return
	}
	records, err := s.store.RecentMatches(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []*exchange.MatchRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseOrderSubmission(r *http.Request) (*exchange.Order, []byte, common.Address, error) {
	var sub OrderSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		return nil, nil, common.Address{}, err
	}
	if sub.Order == nil {
		return nil, nil, common.Address{}, errors.New("order is required")
	}
	order, err := sub.Order.ToOrder()
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	sig, err := decodeOptionalSig(sub.Signature)
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	caller := order.Maker
	if sub.Caller != "" {
		if !common.IsHexAddress(sub.Caller) {
			return nil, nil, common.Address{}, errors.New("invalid caller address")
		}
		caller = common.HexToAddress(sub.Caller)
	}
	return order, sig, caller, nil
}

func decodeOptionalSig(sig string) ([]byte, error) {
	if sig == "" {
		return nil, nil
	}
	return crypto.DecodeSignature(sig)
}

// settlementStatus maps engine failures onto HTTP statuses: client-side
// input problems are 400s, replays are 409, everything else is 502 since the
// failure came from a collaborator.
func settlementStatus(err error) int {
	switch {
	case errors.Is(err, exchange.ErrAlreadyFinalized):
		return http.StatusConflict
	case errors.Is(err, exchange.ErrUnauthorized),
		errors.Is(err, exchange.ErrWrongExchange),
		errors.Is(err, exchange.ErrInvalidWindow),
		errors.Is(err, exchange.ErrNotMatched),
		errors.Is(err, exchange.ErrInvalidTarget),
		errors.Is(err, exchange.ErrCalldataMismatch),
		errors.Is(err, exchange.ErrLengthMismatch),
		errors.Is(err, exchange.ErrPriceMismatch),
		errors.Is(err, exchange.ErrInvalidPayment):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
