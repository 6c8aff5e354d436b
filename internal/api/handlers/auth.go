package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apiservices "cvforge/internal/api/services"
	"cvforge/internal/config"
	"cvforge/internal/services"
	"cvforge/internal/utils"
)

type AuthHandler struct {
	users  *services.UserService
	oauth  *apiservices.GitHubOAuth
	cfg    *config.Config
	logger *zap.SugaredLogger
}

func NewAuthHandler(users *services.UserService, oauth *apiservices.GitHubOAuth, cfg *config.Config, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{users: users, oauth: oauth, cfg: cfg, logger: logger}
}

// Register godoc
// @Summary Register new user
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body services.RegisterInput true "Account details"
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 409 {object} utils.Payload
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Username == "" || input.Email == "" || input.Password == "" {
		utils.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}

	user, err := h.users.Register(r.Context(), input)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "User registered successfully",
		Data:    user,
	})
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Login user
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body handlers.LoginRequest true "Credentials"
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Username == "" || input.Password == "" {
		utils.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}

	_, token, err := h.users.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	setAuthCookie(w, token, h.cfg)
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Login successful",
		Data: map[string]any{
			"tokenType":   "Bearer",
			"accessToken": token,
		},
	})
}

// Logout godoc
// @Summary Logout user
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.Payload
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w, h.cfg)
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Logged out successfully",
	})
}

// GitHubLogin starts the OAuth flow by redirecting to GitHub's consent page.
func (h *AuthHandler) GitHubLogin(w http.ResponseWriter, r *http.Request) {
	state, err := encodeState(map[string]string{"flow": "login"})
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to generate OAuth state")
		return
	}
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GitHubCallback finishes the OAuth flow: it exchanges the code, maps the
// GitHub identity onto a local account and sets the auth cookie.
func (h *AuthHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	if _, err := decodeState(r.FormValue("state")); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid OAuth state")
		return
	}

	ghUser, err := h.oauth.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		h.logger.Errorw("oauth exchange failed", "error", err)
		utils.Error(w, http.StatusInternalServerError, "OAuth login failed")
		return
	}

	user, token, err := h.users.FindOrCreateFromOAuth(r.Context(), ghUser.Login, ghUser.Email)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	setAuthCookie(w, token, h.cfg)
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Login successful",
		Data:    user,
	})
}
