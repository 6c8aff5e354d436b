package admin_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cvforge/internal/admin"
	"cvforge/internal/api/middleware"
	"cvforge/internal/auth"
	"cvforge/internal/models"
	"cvforge/internal/repositories"
)

func setupAdmin(t *testing.T) (*admin.Admin, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:admin_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))

	hasher := auth.NewHasher(bcrypt.MinCost)
	return admin.New(db, admin.DefaultResources(hasher), zap.NewNop().Sugar()), db
}

func doAdmin(a *admin.Admin, requester *models.User, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if requester != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), requester))
	}
	rr := httptest.NewRecorder()
	a.ServeHTTP(rr, req)
	return rr
}

func superuser() *models.User {
	return &models.User{UUID: uuid.New(), Username: "root", IsSuperuser: true}
}

func seedUser(t *testing.T, db *gorm.DB, username, email string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: email, Password: "hash", IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestAdminRequiresSuperuser(t *testing.T) {
	a, _ := setupAdmin(t)

	rr := doAdmin(a, nil, http.MethodGet, "/admin/users", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doAdmin(a, &models.User{UUID: uuid.New()}, http.MethodGet, "/admin/users", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminUnknownResource(t *testing.T) {
	a, _ := setupAdmin(t)
	rr := doAdmin(a, superuser(), http.MethodGet, "/admin/widgets", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminListAndSearch(t *testing.T) {
	a, db := setupAdmin(t)
	seedUser(t, db, "john.doe", "john@example.com")
	seedUser(t, db, "jane.doe", "jane@example.com")

	rr := doAdmin(a, superuser(), http.MethodGet, "/admin/users", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var payload struct {
		Data []models.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Len(t, payload.Data, 2)

	rr = doAdmin(a, superuser(), http.MethodGet, "/admin/users?search=jane", "")
	require.Equal(t, http.StatusOK, rr.Code)
	payload.Data = nil
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.Len(t, payload.Data, 1)
	assert.Equal(t, "jane.doe", payload.Data[0].Username)
}

func TestAdminCreateUserHashesPassword(t *testing.T) {
	a, db := setupAdmin(t)

	rr := doAdmin(a, superuser(), http.MethodPost, "/admin/users",
		`{"username": "new.user", "email": "new@example.com", "password": "Passw0rd!"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var stored models.User
	require.NoError(t, db.Where("username = ?", "new.user").First(&stored).Error)
	assert.NotEqual(t, "Passw0rd!", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("Passw0rd!")))
}

func TestAdminCreateUserRejectsWeakPassword(t *testing.T) {
	a, _ := setupAdmin(t)

	rr := doAdmin(a, superuser(), http.MethodPost, "/admin/users",
		`{"username": "new.user", "email": "new@example.com", "password": "weak"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminCvsAreReadOnly(t *testing.T) {
	a, _ := setupAdmin(t)

	rr := doAdmin(a, superuser(), http.MethodPost, "/admin/cvs", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = doAdmin(a, superuser(), http.MethodPatch, "/admin/cvs/"+uuid.NewString(), `{"filename": "x"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestAdminUpdateUserFlags(t *testing.T) {
	a, db := setupAdmin(t)
	u := seedUser(t, db, "john.doe", "john@example.com")

	rr := doAdmin(a, superuser(), http.MethodPatch, "/admin/users/"+u.UUID.String(),
		`{"is_active": false, "is_superuser": true, "username": "smuggled"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var stored models.User
	require.NoError(t, db.Where("uuid = ?", u.UUID).First(&stored).Error)
	assert.False(t, stored.IsActive)
	assert.True(t, stored.IsSuperuser)
	assert.Equal(t, "john.doe", stored.Username, "non-editable fields are ignored")
}

func TestAdminDeleteUserRemovesCvs(t *testing.T) {
	a, db := setupAdmin(t)
	u := seedUser(t, db, "john.doe", "john@example.com")
	cv := &models.Cv{UserUUID: u.UUID, GithubProfileLink: "https://github.com/octocat", Filename: "cv.pdf", FullPath: "/media/cv.pdf"}
	require.NoError(t, db.Create(cv).Error)

	rr := doAdmin(a, superuser(), http.MethodDelete, "/admin/users/"+u.UUID.String(), "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	var count int64
	require.NoError(t, db.Model(&models.Cv{}).Where("user_uuid = ?", u.UUID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAdminGetMissingRecord(t *testing.T) {
	a, _ := setupAdmin(t)
	rr := doAdmin(a, superuser(), http.MethodGet, "/admin/users/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
