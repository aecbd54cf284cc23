package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/finsim/papertrader/ledger"
	"github.com/finsim/papertrader/quote"
)

// usd renders an exact decimal dollar amount for display ("$1,500.00").
// Raw decimal strings travel alongside so clients needing exact values
// never parse the display form.
func usd(d decimal.Decimal) string {
	return money.New(d.Round(2).Shift(2).IntPart(), money.USD).Display()
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, ledger.ErrUnknownSymbol):
		return http.StatusNotFound, "unknown_symbol"
	case errors.Is(err, ledger.ErrNoAccount):
		return http.StatusNotFound, "no_account"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "insufficient_funds"
	case errors.Is(err, ledger.ErrNoPosition):
		return http.StatusConflict, "no_position"
	case errors.Is(err, ledger.ErrInsufficientShares):
		return http.StatusConflict, "insufficient_shares"
	case errors.Is(err, ledger.ErrQuoteUnavailable):
		return http.StatusBadGateway, "quote_unavailable"
	case errors.Is(err, ledger.ErrStoreConflict):
		return http.StatusServiceUnavailable, "store_conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeEngineError converts an engine error into a JSON error response,
// logging only the unexpected class.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("engine failure")
		writeError(w, status, "internal server error", code)
		return
	}
	writeError(w, status, err.Error(), code)
}

type quoteResponse struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Price   string `json:"price"`
	Display string `json:"display"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol query parameter is required", "invalid_input")
		return
	}

	q, err := s.oracle.Lookup(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, quote.ErrUnknownSymbol) {
			writeError(w, http.StatusNotFound, err.Error(), "unknown_symbol")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error(), "quote_unavailable")
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Symbol:  q.Symbol,
		Name:    q.Name,
		Price:   q.Price.String(),
		Display: usd(q.Price),
	})
}

type tradeRequest struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
}

type transactionResponse struct {
	ID        string    `json:"id"`
	Side      string    `json:"side"`
	Symbol    string    `json:"symbol"`
	Shares    int64     `json:"shares"`
	Price     string    `json:"price"`
	Display   string    `json:"display"`
	CreatedAt time.Time `json:"created_at"`
}

func toTransactionResponse(t ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		Side:      string(t.Side),
		Symbol:    t.Symbol,
		Shares:    t.Shares,
		Price:     t.Price.String(),
		Display:   usd(t.Price),
		CreatedAt: t.CreatedAt,
	}
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req tradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	txn, err := s.engine.Buy(r.Context(), accountID(r), req.Symbol, req.Shares)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req tradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	txn, err := s.engine.Sell(r.Context(), accountID(r), req.Symbol, req.Shares)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

type positionResponse struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Shares      int64  `json:"shares"`
	Price       string `json:"price"`
	MarketValue string `json:"market_value"`
	Display     string `json:"display"`
}

type portfolioResponse struct {
	Cash         string             `json:"cash"`
	CashDisplay  string             `json:"cash_display"`
	Positions    []positionResponse `json:"positions"`
	Total        string             `json:"total"`
	TotalDisplay string             `json:"total_display"`
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	p, err := s.engine.Valuate(r.Context(), accountID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	resp := portfolioResponse{
		Cash:         p.Cash.String(),
		CashDisplay:  usd(p.Cash),
		Positions:    make([]positionResponse, 0, len(p.Positions)),
		Total:        p.Total.String(),
		TotalDisplay: usd(p.Total),
	}
	for _, pos := range p.Positions {
		resp.Positions = append(resp.Positions, positionResponse{
			Symbol:      pos.Symbol,
			Name:        pos.Name,
			Shares:      pos.Shares,
			Price:       pos.Price.String(),
			MarketValue: pos.MarketValue.String(),
			Display:     usd(pos.MarketValue),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	txns, err := s.engine.History(r.Context(), accountID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	resp := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		resp = append(resp, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}
