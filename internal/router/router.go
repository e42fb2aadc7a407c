package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/clinicware/clinic-api/internal/handler"
	"github.com/clinicware/clinic-api/internal/handler/appointment"
	authhandler "github.com/clinicware/clinic-api/internal/handler/auth"
	"github.com/clinicware/clinic-api/internal/handler/availability"
	"github.com/clinicware/clinic-api/internal/handler/department"
	"github.com/clinicware/clinic-api/internal/handler/doctor"
	"github.com/clinicware/clinic-api/internal/handler/patient"
	"github.com/clinicware/clinic-api/internal/middleware"
	"github.com/clinicware/clinic-api/internal/model"
)

type Router struct {
	engine        *gin.Engine
	auth          *middleware.AuthMiddleware
	h             *handler.Handler
	authH         *authhandler.Handler
	doctorH       *doctor.Handler
	patientH      *patient.Handler
	departmentH   *department.Handler
	availabilityH *availability.Handler
	appointmentH  *appointment.Handler
	metrics       *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	Timeout        time.Duration
	MetricsPrefix  string
}

func New(
	logger zerolog.Logger,
	auth *middleware.AuthMiddleware,
	h *handler.Handler,
	authH *authhandler.Handler,
	doctorH *doctor.Handler,
	patientH *patient.Handler,
	departmentH *department.Handler,
	availabilityH *availability.Handler,
	appointmentH *appointment.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:        engine,
		auth:          auth,
		h:             h,
		authH:         authH,
		doctorH:       doctorH,
		patientH:      patientH,
		departmentH:   departmentH,
		availabilityH: availabilityH,
		appointmentH:  appointmentH,
		metrics:       newRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.CORS(),
		r.metricsMiddleware(),
	)

	if config.Timeout > 0 {
		engine.Use(middleware.Timeout(config.Timeout))
	}

	if config.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
		engine.Use(limiter.Handler())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.setupHealthCheck(api)
	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", r.authH.Register)
		auth.POST("/login", r.authH.Login)
	}
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	adminOnly := r.auth.RequireRole(model.RoleAdmin)
	doctorOnly := r.auth.RequireRole(model.RoleDoctor)
	patientOnly := r.auth.RequireRole(model.RolePatient)
	staff := r.auth.RequireRole(model.RoleAdmin, model.RoleDoctor)

	doctors := rg.Group("/doctors")
	{
		doctors.GET("", r.doctorH.List)
		doctors.GET("/:id", r.doctorH.Get)
		doctors.GET("/:id/slots", r.availabilityH.FreeSlots)
		doctors.POST("", adminOnly, r.doctorH.Create)
		doctors.PATCH("/:id", staff, r.doctorH.Update)
		doctors.DELETE("/:id", adminOnly, r.doctorH.Delete)
		doctors.POST("/:id/blacklist", adminOnly, r.doctorH.SetBlacklisted)
	}

	patients := rg.Group("/patients")
	{
		patients.GET("", staff, r.patientH.List)
		patients.GET("/:id", r.patientH.Get)
		patients.GET("/:id/history", staff, r.appointmentH.History)
		patients.POST("", adminOnly, r.patientH.Create)
		patients.PATCH("/:id", r.patientH.Update)
		patients.DELETE("/:id", adminOnly, r.patientH.Delete)
		patients.POST("/:id/blacklist", adminOnly, r.patientH.SetBlacklisted)
	}

	departments := rg.Group("/departments")
	{
		departments.GET("", r.departmentH.List)
		departments.GET("/:id", r.departmentH.Get)
		departments.POST("", adminOnly, r.departmentH.Create)
		departments.DELETE("/:id", adminOnly, r.departmentH.Delete)
	}

	windows := rg.Group("/availability", doctorOnly)
	{
		windows.GET("", r.availabilityH.ListWindows)
		windows.POST("", r.availabilityH.CreateWindow)
		windows.DELETE("/:id", r.availabilityH.DeleteWindow)
	}

	rg.GET("/stats/appointments", adminOnly, r.appointmentH.Stats)

	appointments := rg.Group("/appointments")
	{
		appointments.GET("", r.appointmentH.List)
		appointments.GET("/:id", r.appointmentH.Get)
		appointments.POST("", patientOnly, r.appointmentH.Book)
		appointments.PUT("/:id/reschedule", patientOnly, r.appointmentH.Reschedule)
		appointments.POST("/:id/cancel", r.appointmentH.Cancel)
		appointments.PUT("/:id/status", staff, r.appointmentH.SetStatus)
		appointments.POST("/:id/reopen", adminOnly, r.appointmentH.Reopen)
		appointments.DELETE("/:id", r.appointmentH.Delete)
		appointments.PUT("/:id/treatment", doctorOnly, r.appointmentH.SaveTreatment)
		appointments.GET("/:id/treatment", r.appointmentH.GetTreatment)
	}
}

func newRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
