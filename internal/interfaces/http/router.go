package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Empresas-api/internal/application/auth"
	"github.com/jhoicas/Empresas-api/internal/application/tenantctx"
	"github.com/jhoicas/Empresas-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	CompanyUC    *usecase.CompanyUseCase
	ContextUC    *usecase.ContextUseCase
	MembershipUC *usecase.MembershipUseCase
	UserUC       *usecase.UserUseCase
	ActivityUC   *usecase.ActivityUseCase
	Resolver     *tenantctx.Resolver
	JWTSecret    string
	Log          zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas: identidad (JWT) + contexto de empresa por request.
	protected := api.Group("/",
		AuthMiddleware(deps.JWTSecret),
		CompanyContextMiddleware(deps.Resolver, deps.Log),
	)

	// Contexto de empresa
	contextHandler := NewContextHandler(deps.ContextUC)
	protected.Get("/context", contextHandler.Current)
	protected.Post("/switch-company", contextHandler.Switch)

	// Companies
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	protected.Get("/my-companies", companyHandler.ListAccessible)
	companies := protected.Group("/companies")
	companies.Post("/", companyHandler.Create)
	companies.Get("/", companyHandler.List)
	companies.Get("/:id", companyHandler.GetByID)
	companies.Put("/:id", companyHandler.Update)
	companies.Delete("/:id", companyHandler.Deactivate)

	// Users (con alcance de la empresa activa)
	userHandler := NewUserHandler(deps.UserUC)
	users := protected.Group("/users")
	users.Post("/", userHandler.Create)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)

	// Membresías usuario↔empresa
	userRoleHandler := NewUserRoleHandler(deps.MembershipUC)
	users.Post("/:id/assign-company", userRoleHandler.Assign)
	users.Put("/:id/role", userRoleHandler.UpdateRole)
	users.Delete("/:id/remove-company", userRoleHandler.Remove)
	users.Put("/:id/default-company", userRoleHandler.SetDefault)
	users.Get("/:id/roles", userRoleHandler.Roles)

	// Audit trail
	activityHandler := NewActivityHandler(deps.ActivityUC)
	activity := protected.Group("/activity")
	activity.Get("/", activityHandler.CompanyFeed)
	activity.Get("/system", activityHandler.SystemFeed)
	activity.Get("/users/:id", activityHandler.UserFeed)
}
