package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"audiencesync/internal/delivery/http/controllers"
	"audiencesync/internal/delivery/http/middleware"
	"audiencesync/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Admin routes require a Bearer token issued by POST /auth/login.
func NewRouter(
	tagController *controllers.TagController,
	subscriberController *controllers.SubscriberController,
	authController *controllers.AuthController,
	verifier domain.TokenVerifier,
) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier)

	// Tags
	mux.HandleFunc("POST /admin/tags", requireAuth(tagController.Create))
	mux.HandleFunc("GET /admin/tags", requireAuth(tagController.List))
	mux.HandleFunc("GET /admin/tags/{tagID}", requireAuth(tagController.Get))
	mux.HandleFunc("PATCH /admin/tags/{tagID}", requireAuth(tagController.Update))

	// Subscribers
	mux.HandleFunc("POST /admin/subscribers", requireAuth(subscriberController.Subscribe))
	mux.HandleFunc("POST /admin/subscribers/unsubscribe", requireAuth(subscriberController.Unsubscribe))
	mux.HandleFunc("GET /admin/subscribers/info", requireAuth(subscriberController.Info))
	mux.HandleFunc("GET /admin/members/{memberID}/email", requireAuth(subscriberController.MemberEmail))

	// Merge fields
	mux.HandleFunc("GET /admin/merge-fields", requireAuth(subscriberController.MergeFields))
	mux.HandleFunc("POST /admin/merge-fields", requireAuth(subscriberController.CreateMergeField))

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
