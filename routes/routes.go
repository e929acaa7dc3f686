package routes

import (
	"avivia/admin"
	"avivia/batch"
	"avivia/confirm"
	"avivia/ledger"
	"avivia/middleware"
	"avivia/profile"
	"avivia/ratelim"
	"avivia/realtime"
	"avivia/store"
	"avivia/waitlist"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func AddBookingRoutes(router *httprouter.Router, api *ledger.API, rl *ratelim.RateLimiter) {
	router.POST("/api/bookings", rl.Limit(api.CreateBooking))
	router.DELETE("/api/bookings/:date/:period/:id", rl.Limit(api.CancelBooking))
	router.GET("/api/bookings", api.ListBookings)
	router.GET("/api/search", api.SearchBookings)
	router.GET("/api/availability/:date/:period", api.GetAvailability)
	router.GET("/api/calendar", api.Calendar)
}

func AddConfirmationRoutes(router *httprouter.Router, api *confirm.API) {
	router.GET("/api/bookings/:date/:period/:id/qr", api.QR)
	router.GET("/api/bookings/:date/:period/:id/pdf", api.PDF)
}

func AddWaitlistRoutes(router *httprouter.Router, api *waitlist.API, rl *ratelim.RateLimiter) {
	router.POST("/api/waitlist", rl.Limit(api.Join))
	router.GET("/api/waitlist/:date/:period", middleware.Authenticate(api.ListFor))
}

func AddSelectionRoutes(router *httprouter.Router, api *batch.API, rl *ratelim.RateLimiter) {
	router.GET("/api/selection", api.List)
	router.POST("/api/selection/items", rl.Limit(api.AddItem))
	router.DELETE("/api/selection/items/:index", api.RemoveItem)
	router.DELETE("/api/selection", api.Clear)
	router.POST("/api/selection/commit", rl.Limit(api.Commit))
}

func AddProfileRoutes(router *httprouter.Router) {
	router.PUT("/api/profile/:phone", profile.SaveProfile)
	router.GET("/api/profile/:phone", profile.GetProfile)
}

func AddAdminRoutes(router *httprouter.Router, api *admin.API, rl *ratelim.RateLimiter) {
	router.POST("/api/admin/login", rl.Limit(api.Login))
	router.GET("/api/admin/stats", middleware.Authenticate(api.Stats))
	router.GET("/api/admin/bookings", middleware.Authenticate(api.ListBookings))
	router.GET("/api/admin/export.csv", middleware.Authenticate(api.ExportCSV))
	router.GET("/api/admin/export.xlsx", middleware.Authenticate(api.ExportXLSX))
}

func AddRealtimeRoutes(router *httprouter.Router, b *realtime.Broadcaster) {
	router.GET("/ws/availability", b.HandleWS)
}

func AddStatusRoutes(router *httprouter.Router, s *store.Store) {
	router.GET("/api/status", s.Status)
	router.Handler("GET", "/metrics", promhttp.Handler())
}
