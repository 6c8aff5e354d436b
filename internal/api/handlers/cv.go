package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cvforge/internal/api/middleware"
	"cvforge/internal/config"
	"cvforge/internal/pdf"
	"cvforge/internal/services"
	"cvforge/internal/storage"
	"cvforge/internal/utils"
)

// TemplateValidator pre-validates template names before the pipeline runs.
type TemplateValidator interface {
	ValidateTemplate(name string) error
}

type CvHandler struct {
	cvs       *services.CvService
	templates TemplateValidator
	store     storage.Storage
	cfg       *config.Config
	logger    *zap.SugaredLogger
}

func NewCvHandler(cvs *services.CvService, templates TemplateValidator, store storage.Storage, cfg *config.Config, logger *zap.SugaredLogger) *CvHandler {
	return &CvHandler{cvs: cvs, templates: templates, store: store, cfg: cfg, logger: logger}
}

// Generate godoc
// @Summary Generate CV
// @Tags CVs
// @Produce json
// @Param profile_link query string true "GitHub profile link"
// @Param template_name query string false "Template name"
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 503 {object} utils.Payload
// @Router /cvs/generate [post]
func (h *CvHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profileLink := r.URL.Query().Get("profile_link")
	if profileLink == "" {
		utils.Error(w, http.StatusBadRequest, "profile_link is required")
		return
	}
	templateName := r.URL.Query().Get("template_name")
	if templateName == "" {
		templateName = pdf.DefaultTemplateName
	}
	if err := h.templates.ValidateTemplate(templateName); err != nil {
		writeError(w, err, h.logger)
		return
	}

	cv, err := h.cvs.Generate(r.Context(), profileLink, templateName, user.UUID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{Success: true, Data: cv})
}

// GetAll godoc
// @Summary Get all CVs (admin)
// @Tags CVs
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Router /cvs/all [get]
func (h *CvHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	if !requireSuperuser(w, r) {
		return
	}
	cvs, err := h.cvs.GetAll(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Data: cvs})
}

// GetMy godoc
// @Summary Get my CVs
// @Tags CVs
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /cvs/my [get]
func (h *CvHandler) GetMy(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	cvs, err := h.cvs.GetMy(r.Context(), user.UUID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Data: cvs})
}

func cvID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid CV id")
		return uuid.Nil, false
	}
	return id, true
}

// GetByID godoc
// @Summary Get CV by UUID
// @Tags CVs
// @Produce json
// @Param id path string true "CV UUID"
// @Success 200 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /cvs/{id} [get]
func (h *CvHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, ok := cvID(w, r)
	if !ok {
		return
	}
	cv, err := h.cvs.GetByID(r.Context(), id, user)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Data: cv})
}

// Download godoc
// @Summary Download CV by UUID
// @Tags CVs
// @Produce application/pdf
// @Param id path string true "CV UUID"
// @Success 200
// @Failure 403 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /cvs/{id}/download [get]
func (h *CvHandler) Download(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, ok := cvID(w, r)
	if !ok {
		return
	}
	cv, err := h.cvs.Download(r.Context(), id, user)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	if err := h.store.ServeFile(w, r, cv.FullPath, cv.Filename); err != nil {
		h.logger.Errorw("failed to serve cv file", "id", id, "error", err)
		utils.Error(w, http.StatusNotFound, "Not found!")
	}
}

// Delete godoc
// @Summary Delete CV by UUID
// @Tags CVs
// @Param id path string true "CV UUID"
// @Success 204
// @Failure 403 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /cvs/{id} [delete]
func (h *CvHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, ok := cvID(w, r)
	if !ok {
		return
	}
	if err := h.cvs.Delete(r.Context(), id, user); err != nil {
		writeError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
