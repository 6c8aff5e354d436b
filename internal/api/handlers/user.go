package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"cvforge/internal/api/middleware"
	"cvforge/internal/config"
	"cvforge/internal/services"
	"cvforge/internal/utils"
)

type UserHandler struct {
	users  *services.UserService
	cfg    *config.Config
	logger *zap.SugaredLogger
}

func NewUserHandler(users *services.UserService, cfg *config.Config, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{users: users, cfg: cfg, logger: logger}
}

// GetMe godoc
// @Summary Get current user
// @Tags Users
// @Produce json
// @Success 200 {object} utils.Payload
// @Router /users/me [get]
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Data: user})
}

// UpdateMe godoc
// @Summary Update current user
// @Tags Users
// @Accept json
// @Produce json
// @Param input body services.UpdateInput true "Fields to update"
// @Success 200 {object} utils.Payload
// @Router /users/me [patch]
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input services.UpdateInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}

	updated, token, err := h.users.UpdateMe(r.Context(), user.UUID, input)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	// The token carries username/email claims, so a self-update re-issues it.
	setAuthCookie(w, token, h.cfg)
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Data: updated})
}

// DeleteMe godoc
// @Summary Delete current user
// @Tags Users
// @Produce json
// @Success 204
// @Router /users/me [delete]
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.users.DeleteMe(r.Context(), user.UUID); err != nil {
		writeError(w, err, h.logger)
		return
	}
	clearAuthCookie(w, h.cfg)
	w.WriteHeader(http.StatusNoContent)
}

// requireSuperuser returns the caller when it carries the superuser flag.
func requireSuperuser(w http.ResponseWriter, r *http.Request) bool {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	if !user.IsSuperuser {
		utils.Error(w, http.StatusForbidden, "Permission denied")
		return false
	}
	return true
}

// GetByUsername godoc
// @Summary Get user by username (admin)
// @Tags Users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Router /users/{username} [get]
func (h *UserHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	if !requireSuperuser(w, r) {
		return
	}
	user, err := h.users.GetByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Data: user})
}

// UpdateByUsername godoc
// @Summary Update user by username (admin)
// @Tags Users
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} utils.Payload
// @Router /users/{username} [patch]
func (h *UserHandler) UpdateByUsername(w http.ResponseWriter, r *http.Request) {
	if !requireSuperuser(w, r) {
		return
	}

	var input services.AdminUpdateInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}

	user, err := h.users.UpdateByUsername(r.Context(), r.PathValue("username"), input)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Data: user})
}

// DeleteByUsername godoc
// @Summary Delete user by username (admin)
// @Tags Users
// @Param username path string true "Username"
// @Success 204
// @Router /users/{username} [delete]
func (h *UserHandler) DeleteByUsername(w http.ResponseWriter, r *http.Request) {
	if !requireSuperuser(w, r) {
		return
	}
	if err := h.users.DeleteByUsername(r.Context(), r.PathValue("username")); err != nil {
		writeError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
