package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"vicidash-backend/internal/clock"
	"vicidash-backend/internal/domain"
	"vicidash-backend/internal/service"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers carries the services behind the dashboard REST surface.
type Handlers struct {
	auth            service.AuthService
	ledger          service.LedgerService
	report          service.ReportService
	clk             *clock.Clock
	defaultCampaign string
}

func NewHandlers(auth service.AuthService, ledger service.LedgerService, report service.ReportService, clk *clock.Clock, defaultCampaign string) *Handlers {
	return &Handlers{
		auth:            auth,
		ledger:          ledger,
		report:          report,
		clk:             clk,
		defaultCampaign: defaultCampaign,
	}
}

// NewRouter wires the full route table. Middleware order matters: CORS must
// answer preflights before auth can reject them.
func NewRouter(h *Handlers, authMiddleware *AuthMiddleware) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestIDMiddleware, CORSMiddleware, MetricsMiddleware, authMiddleware.Handler)

	router.HandleFunc("/", h.Health).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/server-date", h.ServerDate).Methods(http.MethodGet, http.MethodOptions)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/auth/create-user", h.CreateUser).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet, http.MethodOptions)

	router.HandleFunc("/report", h.GetReport).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/trigger-eod-deduction", h.TriggerEODDeduction).Methods(http.MethodPost, http.MethodOptions)

	router.HandleFunc("/balance", h.GetBalance).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/balance/add", h.AddBalance).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/balance/set", h.SetBalance).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/balance/adjust", h.AdjustBalance).Methods(http.MethodPost, http.MethodOptions)

	router.HandleFunc("/payment-history", h.PaymentHistory).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/payment-history/stats", h.PaymentStats).Methods(http.MethodGet, http.MethodOptions)

	return router
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"service": "vicidash-backend",
		"status":  "running",
	})
}

// ServerDate exposes the dialer-local date so clients align their "today" with
// the accounting day instead of the browser's clock.
func (h *Handlers) ServerDate(w http.ResponseWriter, r *http.Request) {
	now := h.clk.Now()
	respondWithJSON(w, http.StatusOK, map[string]string{
		"server_date": now.Format(clock.DateLayout),
		"server_time": now.Format(clock.TimestampLayout),
		"timezone":    h.clk.Location().String(),
		"utc_time":    now.UTC().Format(clock.TimestampLayout),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "bearer",
		"user": map[string]interface{}{
			"id":        user.ID,
			"username":  user.Username,
			"full_name": user.FullName,
		},
	})
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.auth.CreateUser(r.Context(), req.Username, req.Password, req.FullName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, user)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	user, err := h.auth.Me(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	q := r.URL.Query()
	campaign := q.Get("campaign")
	if campaign == "" {
		campaign = h.defaultCampaign
	}
	today := h.clk.Today()
	startDate := q.Get("start_date")
	if startDate == "" {
		startDate = today
	}
	endDate := q.Get("end_date")
	if endDate == "" {
		endDate = today
	}

	report, err := h.report.GetReport(r.Context(), userID, campaign, startDate, endDate)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if report.TotalCalls == 0 {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"message":     "No data found for the selected date range",
			"campaign":    report.Campaign,
			"start_date":  report.StartDate,
			"end_date":    report.EndDate,
			"total_calls": 0,
			"balance":     report.Balance,
		})
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// TriggerEODDeduction finalizes today's deduction on demand instead of waiting
// for the scheduled run.
func (h *Handlers) TriggerEODDeduction(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	_, connected, totalCost, err := h.report.TodayStats(r.Context(), h.defaultCampaign)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := h.ledger.FinalizeDay(r.Context(), userID, totalCost, connected, h.clk.Today())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if result.AlreadyRecorded {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "Deduction already recorded for today",
			"balance": result.NewBalance,
		})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"message":         "End-of-day deduction recorded",
		"amount":          result.Amount,
		"connected_calls": result.ConnectedCalls,
		"balance":         result.NewBalance,
	})
}

func (h *Handlers) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	balance, err := h.ledger.GetBalance(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, balance)
}

func (h *Handlers) AddBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	amount, ok := parseFloatParam(w, r, "amount")
	if !ok {
		return
	}

	change, err := h.ledger.AddFunds(r.Context(), userID, amount,
		r.URL.Query().Get("description"), optionalParam(r, "transaction_id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondBalanceChange(w, change)
}

func (h *Handlers) SetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	newBalance, ok := parseFloatParam(w, r, "new_balance")
	if !ok {
		return
	}

	change, err := h.ledger.SetBalance(r.Context(), userID, newBalance,
		r.URL.Query().Get("description"), optionalParam(r, "transaction_id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondBalanceChange(w, change)
}

func (h *Handlers) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	adjustment, ok := parseFloatParam(w, r, "adjustment")
	if !ok {
		return
	}

	change, err := h.ledger.AdjustBalance(r.Context(), userID, adjustment,
		r.URL.Query().Get("description"), optionalParam(r, "transaction_id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondBalanceChange(w, change)
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

func (h *Handlers) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			respondWithError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "offset must be non-negative")
			return
		}
		offset = n
	}

	payments, total, err := h.ledger.PaymentHistory(r.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handlers) PaymentStats(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	stats, err := h.ledger.PaymentStats(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func parseFloatParam(w http.ResponseWriter, r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		respondWithError(w, http.StatusBadRequest, name+" is required")
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, name+" must be a number")
		return 0, false
	}
	return v, true
}

func optionalParam(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}

func respondBalanceChange(w http.ResponseWriter, change *domain.BalanceChange) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"previous_balance": change.PreviousBalance,
		"new_balance":      change.NewBalance,
		"adjustment":       change.Adjustment,
		"adjustment_type":  change.AdjustmentType,
		"timestamp":        change.Timestamp.Format(clock.TimestampLayout),
	})
}
