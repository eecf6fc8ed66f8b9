package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/cefib-pe/cefib-admin-api/internal/middleware"
	"github.com/cefib-pe/cefib-admin-api/internal/models"
)

// Handlers groups every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Auth          *AuthHandler
	Cursos        *CursoHandler
	Docentes      *DocenteHandler
	Participantes *ParticipanteHandler
	Inscripciones *InscripcionHandler
	Solicitudes   *SolicitudHandler
	Usuarios      *UserHandler
	Catalog       *CatalogHandler
	Dashboard     *DashboardHandler
	Audit         *AuditHandler
	Metrics       *MetricsHandler
}

// RouteOptions toggles optional route groups.
type RouteOptions struct {
	APIPrefix     string
	EnableMetrics bool
}

var staffRoles = []models.UserRole{models.RoleAdmin, models.RoleSuperAdmin}

// RegisterRoutes mounts the API on r. csrf guards state-changing requests of
// authenticated routes.
func RegisterRoutes(r *gin.Engine, guard *middleware.Guard, csrf gin.HandlerFunc, h Handlers, opts RouteOptions) {
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api"
	}
	if csrf == nil {
		csrf = func(c *gin.Context) { c.Next() }
	}

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	if opts.EnableMetrics {
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(opts.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", guard.Optional(), h.Auth.Logout)
	auth.GET("/me", guard.Authenticate(), h.Auth.Me)
	auth.POST("/change-password", guard.Authenticate(), csrf, h.Auth.ChangePassword)

	public := api.Group("/public", middleware.WithResponseMeta())
	public.GET("/cursos", h.Catalog.List)
	public.GET("/cursos/:slug", h.Catalog.Get)

	// Lead form.
	api.POST("/solicitudes", guard.Optional(), h.Solicitudes.Create)

	staff := api.Group("", guard.Require(staffRoles...), csrf)
	super := api.Group("", guard.Require(models.RoleSuperAdmin), csrf)

	staff.GET("/cursos", h.Cursos.List)
	staff.GET("/cursos/:id", h.Cursos.Get)
	staff.POST("/cursos", h.Cursos.Create)
	staff.PUT("/cursos/:id", h.Cursos.Update)
	super.DELETE("/cursos/:id", h.Cursos.Delete)

	staff.GET("/docentes", h.Docentes.List)
	staff.GET("/docentes/:id", h.Docentes.Get)
	staff.POST("/docentes", h.Docentes.Create)
	staff.PUT("/docentes/:id", h.Docentes.Update)
	super.DELETE("/docentes/:id", h.Docentes.Delete)

	staff.GET("/participantes", h.Participantes.List)
	staff.GET("/participantes/:id", h.Participantes.Get)
	staff.POST("/participantes", h.Participantes.Create)
	staff.PUT("/participantes/:id", h.Participantes.Update)
	super.DELETE("/participantes/:id", h.Participantes.Delete)

	staff.GET("/inscripciones", h.Inscripciones.List)
	staff.GET("/inscripciones/:id", h.Inscripciones.Get)
	staff.POST("/inscripciones", h.Inscripciones.Create)
	staff.PUT("/inscripciones/:id", h.Inscripciones.Update)
	super.DELETE("/inscripciones/:id", h.Inscripciones.Delete)

	staff.GET("/solicitudes", h.Solicitudes.List)
	staff.GET("/solicitudes/:id", h.Solicitudes.Get)
	staff.PUT("/solicitudes/:id", h.Solicitudes.Update)
	super.DELETE("/solicitudes/:id", h.Solicitudes.Delete)

	super.GET("/usuarios", h.Usuarios.List)
	super.GET("/usuarios/:id", h.Usuarios.Get)
	super.POST("/usuarios", h.Usuarios.Create)
	super.PUT("/usuarios/:id", h.Usuarios.Update)
	super.DELETE("/usuarios/:id", h.Usuarios.Delete)

	admin := api.Group("/admin", guard.Require(staffRoles...), middleware.WithResponseMeta())
	admin.GET("/dashboard", h.Dashboard.Summary)
	admin.GET("/audit-logs", h.Audit.List)
}
