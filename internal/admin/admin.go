// Package admin exposes a small resource-registry driven console over
// the application models. Resources declare what the generic handler
// may list, search, create, edit and delete; everything else is
// rejected with 405.
package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cvforge/internal/api/middleware"
	"cvforge/internal/utils"
)

// Resource describes one manageable model.
type Resource struct {
	Name string

	// New returns a pointer to a zero record, NewSlice a pointer to an
	// empty slice of records. Both are fed straight to gorm.
	New      func() any
	NewSlice func() any

	// SearchColumns are matched with LIKE against the ?search= query.
	SearchColumns []string

	// EditableFields are the column names PATCH may touch. An empty
	// list makes the resource read-only apart from delete.
	EditableFields []string

	CanCreate bool

	// BeforeCreate runs on the decoded record before insertion.
	BeforeCreate func(record any) error

	// BeforeDelete runs inside the delete transaction, before the
	// record itself is removed.
	BeforeDelete func(tx *gorm.DB, id uuid.UUID) error
}

type Admin struct {
	db        *gorm.DB
	resources map[string]Resource
	logger    *zap.SugaredLogger
	mux       *http.ServeMux
}

func New(db *gorm.DB, resources []Resource, logger *zap.SugaredLogger) *Admin {
	a := &Admin{
		db:        db,
		resources: make(map[string]Resource, len(resources)),
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	for _, res := range resources {
		a.resources[res.Name] = res
	}

	a.mux.HandleFunc("GET /admin/{resource}", a.list)
	a.mux.HandleFunc("POST /admin/{resource}", a.create)
	a.mux.HandleFunc("GET /admin/{resource}/{id}", a.get)
	a.mux.HandleFunc("PATCH /admin/{resource}/{id}", a.update)
	a.mux.HandleFunc("DELETE /admin/{resource}/{id}", a.delete)
	return a
}

func (a *Admin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !user.IsSuperuser {
		utils.Error(w, http.StatusForbidden, "Superuser access required")
		return
	}
	a.mux.ServeHTTP(w, r)
}

func (a *Admin) resource(w http.ResponseWriter, r *http.Request) (Resource, bool) {
	res, ok := a.resources[r.PathValue("resource")]
	if !ok {
		utils.Error(w, http.StatusNotFound, "Not found!")
	}
	return res, ok
}

func (a *Admin) recordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid record id")
		return uuid.Nil, false
	}
	return id, true
}

func (a *Admin) list(w http.ResponseWriter, r *http.Request) {
	res, ok := a.resource(w, r)
	if !ok {
		return
	}

	records := res.NewSlice()
	query := a.db.WithContext(r.Context()).Order("created_at DESC")
	if search := r.URL.Query().Get("search"); search != "" && len(res.SearchColumns) > 0 {
		pattern := "%" + search + "%"
		clauses := make([]string, len(res.SearchColumns))
		args := make([]any, len(res.SearchColumns))
		for i, col := range res.SearchColumns {
			clauses[i] = fmt.Sprintf("%s LIKE ?", col)
			args[i] = pattern
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}
	if err := query.Find(records).Error; err != nil {
		a.logger.Errorw("admin list failed", "resource", res.Name, "error", err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Data: records})
}

func (a *Admin) create(w http.ResponseWriter, r *http.Request) {
	res, ok := a.resource(w, r)
	if !ok {
		return
	}
	if !res.CanCreate {
		utils.Error(w, http.StatusMethodNotAllowed, "Resource does not support creation")
		return
	}

	record := res.New()
	if err := json.NewDecoder(r.Body).Decode(record); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if res.BeforeCreate != nil {
		if err := res.BeforeCreate(record); err != nil {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := a.db.WithContext(r.Context()).Create(record).Error; err != nil {
		a.logger.Errorw("admin create failed", "resource", res.Name, "error", err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.JSONResponse(w, http.StatusCreated, utils.Payload{Success: true, Data: record})
}

func (a *Admin) get(w http.ResponseWriter, r *http.Request) {
	res, ok := a.resource(w, r)
	if !ok {
		return
	}
	id, ok := a.recordID(w, r)
	if !ok {
		return
	}

	record := res.New()
	if err := a.db.WithContext(r.Context()).First(record, "uuid = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(w, http.StatusNotFound, "Not found!")
			return
		}
		a.logger.Errorw("admin get failed", "resource", res.Name, "error", err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Data: record})
}

func (a *Admin) update(w http.ResponseWriter, r *http.Request) {
	res, ok := a.resource(w, r)
	if !ok {
		return
	}
	if len(res.EditableFields) == 0 {
		utils.Error(w, http.StatusMethodNotAllowed, "Resource is read-only")
		return
	}
	id, ok := a.recordID(w, r)
	if !ok {
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	changes := make(map[string]any)
	for _, field := range res.EditableFields {
		if value, present := body[field]; present {
			changes[field] = value
		}
	}
	if len(changes) == 0 {
		utils.Error(w, http.StatusBadRequest, "No editable fields in request")
		return
	}

	record := res.New()
	db := a.db.WithContext(r.Context())
	if err := db.First(record, "uuid = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(w, http.StatusNotFound, "Not found!")
			return
		}
		a.logger.Errorw("admin update failed", "resource", res.Name, "error", err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := db.Model(record).Updates(changes).Error; err != nil {
		a.logger.Errorw("admin update failed", "resource", res.Name, "error", err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Data: record})
}

func (a *Admin) delete(w http.ResponseWriter, r *http.Request) {
	res, ok := a.resource(w, r)
	if !ok {
		return
	}
	id, ok := a.recordID(w, r)
	if !ok {
		return
	}

	err := a.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		record := res.New()
		if err := tx.First(record, "uuid = ?", id).Error; err != nil {
			return err
		}
		if res.BeforeDelete != nil {
			if err := res.BeforeDelete(tx, id); err != nil {
				return err
			}
		}
		return tx.Delete(record).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(w, http.StatusNotFound, "Not found!")
			return
		}
		a.logger.Errorw("admin delete failed", "resource", res.Name, "error", err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
