package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"galleria/internal/handlers"
	"galleria/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(middlewares.Instrument)
	r.Use(middlewares.NewCorsMiddleware(s.cfg.AllowedOrigins))

	var redisClient redis.Cmdable
	if s.redis != nil {
		redisClient = s.redis
	}
	ch := handlers.NewCommonHandler(s.db, redisClient)
	r.Handle("/", s.public(ch.HelloWorldHandler)).Methods("GET")
	r.Handle("/health", s.public(ch.HealthHandler)).Methods("GET")
	r.Handle("/metrics", s.limit(promhttp.Handler())).Methods("GET")

	auth := middlewares.NewAuthMiddleware(s.authService)

	s.registerAuthRoutes(r, auth)
	s.registerCollectionRoutes(r, auth)
	s.registerGalleryRoutes(r, auth)
	s.registerPhotoRoutes(r, auth)

	return r
}

// limit runs h behind the rate limiter. Behind auth the bucket is keyed by admin,
// elsewhere by client IP.
func (s *Server) limit(h http.Handler) http.Handler {
	if s.limiter == nil {
		return h
	}
	return s.limiter.Limit(h)
}

func (s *Server) public(h http.HandlerFunc) http.Handler {
	return s.limit(h)
}

// protect authenticates first so the limiter sees the admin claims.
func (s *Server) protect(auth func(http.Handler) http.Handler, h http.HandlerFunc) http.Handler {
	return auth(s.limit(h))
}

func (s *Server) registerAuthRoutes(r *mux.Router, auth func(http.Handler) http.Handler) {
	ah := handlers.NewAuthHandler(s.authService)

	r.Handle("/api/auth/register", s.public(ah.Register)).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/login", s.public(ah.Login)).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/logout", s.protect(auth, ah.Logout)).Methods("POST", "OPTIONS")
}

func (s *Server) registerCollectionRoutes(r *mux.Router, auth func(http.Handler) http.Handler) {
	clh := handlers.NewCollectionHandler(s.collectionService, s.lifecycleService, s.cfg.Upload)

	r.Handle("/api/collections/create", s.protect(auth, clh.CreateCollection)).Methods("POST", "OPTIONS")
	r.Handle("/api/collections/update/{id}", s.protect(auth, clh.UpdateCollection)).Methods("PUT", "OPTIONS")
	r.Handle("/api/collections/delete/{id}", s.protect(auth, clh.DeleteCollection)).Methods("DELETE", "OPTIONS")
	r.Handle("/api/collections/status/{id}", s.protect(auth, clh.ToggleCollectionStatus)).Methods("PATCH", "OPTIONS")
	r.Handle("/api/collections", s.public(clh.GetCollections)).Methods("GET", "OPTIONS")
	r.Handle("/api/collections/", s.public(clh.GetCollections)).Methods("GET", "OPTIONS")
	r.Handle("/api/collections/search", s.public(clh.SearchCollections)).Methods("GET", "OPTIONS")
	r.Handle("/api/collections/{id}", s.public(clh.GetCollection)).Methods("GET", "OPTIONS")
}

func (s *Server) registerGalleryRoutes(r *mux.Router, auth func(http.Handler) http.Handler) {
	gh := handlers.NewGalleryHandler(s.galleryService, s.lifecycleService, s.cfg.Upload)

	r.Handle("/api/gallery/create", s.protect(auth, gh.CreateGallery)).Methods("POST", "OPTIONS")
	r.Handle("/api/gallery/update/{id}", s.protect(auth, gh.UpdateGallery)).Methods("PUT", "OPTIONS")
	r.Handle("/api/gallery/delete/{id}", s.protect(auth, gh.DeleteGallery)).Methods("DELETE", "OPTIONS")
	r.Handle("/api/gallery/status/{id}", s.protect(auth, gh.ToggleGalleryStatus)).Methods("PATCH", "OPTIONS")
	r.Handle("/api/gallery", s.public(gh.GetGalleries)).Methods("GET", "OPTIONS")
	r.Handle("/api/gallery/", s.public(gh.GetGalleries)).Methods("GET", "OPTIONS")
	r.Handle("/api/gallery/search", s.public(gh.GetGalleries)).Methods("GET", "OPTIONS")
	r.Handle("/api/gallery/{id}", s.public(gh.GetGallery)).Methods("GET", "OPTIONS")
}

func (s *Server) registerPhotoRoutes(r *mux.Router, auth func(http.Handler) http.Handler) {
	ph := handlers.NewPhotoHandler(s.photoService, s.lifecycleService, s.cfg.Upload)

	r.Handle("/api/photos/create", s.protect(auth, ph.CreatePhoto)).Methods("POST", "OPTIONS")
	r.Handle("/api/photos/update/{id}", s.protect(auth, ph.UpdatePhoto)).Methods("PUT", "OPTIONS")
	r.Handle("/api/photos/delete/{id}", s.protect(auth, ph.DeletePhoto)).Methods("DELETE", "OPTIONS")
	r.Handle("/api/photos/status/{id}", s.protect(auth, ph.TogglePhotoStatus)).Methods("PATCH", "OPTIONS")
	r.Handle("/api/photos", s.public(ph.GetPhotos)).Methods("GET", "OPTIONS")
	r.Handle("/api/photos/", s.public(ph.GetPhotos)).Methods("GET", "OPTIONS")
	r.Handle("/api/photos/search", s.public(ph.SearchPhotos)).Methods("GET", "OPTIONS")
	r.Handle("/api/photos/gallery/{galleryId}", s.public(ph.GetPhotosByGallery)).Methods("GET", "OPTIONS")
	r.Handle("/api/photos/{id}", s.public(ph.GetPhoto)).Methods("GET", "OPTIONS")
}
