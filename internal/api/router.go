package api

import (
	"fmt"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "cvforge/docs"

	"cvforge/internal/admin"
	"cvforge/internal/api/handlers"
	"cvforge/internal/api/middleware"
	"cvforge/internal/config"
	"github.com/rs/cors"
)

// Deps carries everything the router wires together.
type Deps struct {
	Auth   *handlers.AuthHandler
	Users  *handlers.UserHandler
	Cvs    *handlers.CvHandler
	Admin  *admin.Admin
	AuthMw *middleware.Auth
	Cfg    *config.Config
	Logger *zap.SugaredLogger
}

func SetupRouter(d Deps) http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(d.Cfg.CorsConfig)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	mainMux.HandleFunc("POST /auth/register", d.Auth.Register)
	mainMux.HandleFunc("POST /auth/login", d.Auth.Login)
	mainMux.HandleFunc("GET /auth/github/login", d.Auth.GitHubLogin)
	mainMux.HandleFunc("GET /auth/github/callback", d.Auth.GitHubCallback)

	// ---------- PROTECTED ROUTES ----------
	protectedMux := http.NewServeMux()

	protectedMux.HandleFunc("POST /auth/logout", d.Auth.Logout)

	protectedMux.HandleFunc("GET /users/me", d.Users.GetMe)
	protectedMux.HandleFunc("PATCH /users/me", d.Users.UpdateMe)
	protectedMux.HandleFunc("DELETE /users/me", d.Users.DeleteMe)
	protectedMux.HandleFunc("GET /users/{username}", d.Users.GetByUsername)
	protectedMux.HandleFunc("PATCH /users/{username}", d.Users.UpdateByUsername)
	protectedMux.HandleFunc("DELETE /users/{username}", d.Users.DeleteByUsername)

	protectedMux.HandleFunc("POST /cvs/generate", d.Cvs.Generate)
	protectedMux.HandleFunc("GET /cvs/all", d.Cvs.GetAll)
	protectedMux.HandleFunc("GET /cvs/my", d.Cvs.GetMy)
	protectedMux.HandleFunc("GET /cvs/{id}", d.Cvs.GetByID)
	protectedMux.HandleFunc("GET /cvs/{id}/download", d.Cvs.Download)
	protectedMux.HandleFunc("DELETE /cvs/{id}", d.Cvs.Delete)

	protectedMux.Handle("/admin/", d.Admin)

	// Literal patterns above take precedence over the catch-all, so
	// public routes never pass through the auth middleware.
	mainMux.Handle("/", d.AuthMw.Middleware(protectedMux))

	handler := c.Handler(mainMux)
	handler = middleware.Logger(d.Logger)(handler)
	return handler
}
