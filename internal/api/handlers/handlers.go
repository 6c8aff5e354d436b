package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"cvforge/internal/ai"
	"cvforge/internal/auth"
	"cvforge/internal/config"
	"cvforge/internal/github"
	"cvforge/internal/pdf"
	"cvforge/internal/services"
	"cvforge/internal/utils"
)

// writeError maps the service error taxonomy onto HTTP statuses. Every error
// is terminal for the request; nothing is retried.
func writeError(w http.ResponseWriter, err error, logger *zap.SugaredLogger) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "Not found!")
	case errors.Is(err, services.ErrUsernameExists):
		utils.Error(w, http.StatusConflict, "Username already exists!")
	case errors.Is(err, services.ErrEmailExists):
		utils.Error(w, http.StatusConflict, "Email already exists!")
	case errors.Is(err, services.ErrPermissionDenied):
		utils.Error(w, http.StatusForbidden, "Permission denied")
	case errors.Is(err, services.ErrIncorrectCredentials):
		utils.Error(w, http.StatusUnauthorized, "Incorrect credentials")
	case errors.Is(err, services.ErrInvalidProfileLink):
		utils.Error(w, http.StatusBadRequest, "Invalid profile link")
	case errors.Is(err, github.ErrFetchFailed):
		utils.Error(w, http.StatusServiceUnavailable, "Failed to fetch data from GitHub")
	case errors.Is(err, ai.ErrGenerationFailed):
		utils.Error(w, http.StatusInternalServerError, "Failed to generate CV data")
	case errors.Is(err, pdf.ErrTemplateNotFound):
		utils.Error(w, http.StatusNotFound, "Template or CSS not found!")
	case errors.Is(err, pdf.ErrPDFGeneration):
		utils.Error(w, http.StatusInternalServerError, "Failed to generate PDF file")
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidUsername),
		errors.Is(err, auth.ErrInvalidEmail):
		utils.Error(w, http.StatusBadRequest, err.Error())
	default:
		logger.Errorw("request failed", "error", err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// setAuthCookie installs the signed access token as an HTTP-only cookie.
func setAuthCookie(w http.ResponseWriter, token string, cfg *config.Config) {
	isProd := cfg.Environment == "production"

	sameSite := http.SameSiteLaxMode
	if isProd {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int((time.Duration(cfg.JWTExpireMinutes) * time.Minute).Seconds()),
		Secure:   isProd,
		HttpOnly: true,
		SameSite: sameSite,
	})
}

func clearAuthCookie(w http.ResponseWriter, cfg *config.Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   cfg.Environment == "production",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
