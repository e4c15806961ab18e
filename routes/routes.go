package routes

import (
	"net/http"

	"warbler/handlers"
	"warbler/monitoring"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes initializes all the application routes
func SetupRoutes(h *handlers.Handler) http.Handler {
	router := mux.NewRouter()
	router.Use(monitoring.InstrumentHandler)

	router.HandleFunc("/", h.Home).Methods("GET")

	// Auth routes
	router.HandleFunc("/signup", h.Signup).Methods("POST")
	router.HandleFunc("/login", h.Login).Methods("POST")
	router.HandleFunc("/logout", h.Logout).Methods("GET")

	// User routes
	router.HandleFunc("/users", h.ListUsers).Methods("GET")
	router.HandleFunc("/users/delete", h.RequireLogin(h.DeleteUser)).Methods("POST")
	router.HandleFunc("/users/follow/{id:[0-9]+}", h.RequireLogin(h.Follow)).Methods("POST")
	router.HandleFunc("/users/stop-following/{id:[0-9]+}", h.RequireLogin(h.StopFollowing)).Methods("POST")
	router.HandleFunc("/users/{id:[0-9]+}", h.ShowUser).Methods("GET")
	router.HandleFunc("/users/{id:[0-9]+}/messages", h.UserMessages).Methods("GET")
	router.HandleFunc("/users/{id:[0-9]+}/followers", h.RequireLogin(h.Followers)).Methods("GET")
	router.HandleFunc("/users/{id:[0-9]+}/following", h.RequireLogin(h.Following)).Methods("GET")

	// Message routes
	router.HandleFunc("/messages/new", h.RequireLogin(h.NewMessage)).Methods("POST")
	router.HandleFunc("/messages/{id:[0-9]+}/likes", h.RequireLogin(h.ToggleLike)).Methods("POST")

	// System routes
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}
