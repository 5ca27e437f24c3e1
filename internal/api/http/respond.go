package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"vicidash-backend/internal/clock"
	"vicidash-backend/internal/logger"
	"vicidash-backend/internal/service"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"detail": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("Failed to encode response", "error", err)
		}
	}
}

// respondServiceError maps service-layer errors onto the HTTP taxonomy:
// upstream failures are 502, validation and rejected operations 400, bad
// credentials 401, everything unexpected 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var upstream *service.UpstreamError
	var negative *service.NegativeBalanceError

	switch {
	case errors.As(err, &upstream):
		respondWithError(w, http.StatusBadGateway, upstream.Error())
	case errors.As(err, &negative):
		respondWithError(w, http.StatusBadRequest, negative.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, service.ErrUsernameTaken):
		respondWithError(w, http.StatusBadRequest, "Username already exists")
	case errors.Is(err, service.ErrUserNotFound):
		respondWithError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrAmountNotPositive),
		errors.Is(err, service.ErrNegativeBalance),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, clock.ErrInvalidDate):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("Unhandled service error", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
