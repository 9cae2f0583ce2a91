package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Empresas-api/internal/application/auth"
	"github.com/jhoicas/Empresas-api/internal/application/authz"
	"github.com/jhoicas/Empresas-api/internal/application/tenantctx"
	"github.com/jhoicas/Empresas-api/internal/application/usecase"
	"github.com/jhoicas/Empresas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Empresas-api/internal/infrastructure/redissession"
	httpRouter "github.com/jhoicas/Empresas-api/internal/interfaces/http"
	"github.com/jhoicas/Empresas-api/pkg/config"
	"github.com/jhoicas/Empresas-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	rdb, err := redissession.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer rdb.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	membershipRepo := postgres.NewMembershipRepository(pool)
	roleRepo := postgres.NewRoleRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// El registro de roles/permisos se carga una vez en el arranque; si el
	// catálogo sembrado no cubre el conjunto cerrado de permisos, la
	// aplicación no arranca.
	registry, err := authz.LoadRegistry(ctx, roleRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar catálogo de roles y permisos")
	}
	authzSvc := authz.NewService(registry, membershipRepo, log.Zerolog())

	sessionStore := redissession.NewStore(rdb, time.Duration(cfg.Redis.SessionTTLMins)*time.Minute)
	resolver := tenantctx.NewResolver(companyRepo, membershipRepo, sessionStore, log.Zerolog())

	jwtCfg := auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}
	authUC := auth.NewAuthUseCase(txRunner, userRepo, companyRepo, registry, jwtCfg)
	companyUC := usecase.NewCompanyUseCase(companyRepo, membershipRepo, activityRepo, authzSvc, log.Zerolog())
	contextUC := usecase.NewContextUseCase(resolver, companyRepo, activityRepo, authzSvc, log.Zerolog())
	membershipUC := usecase.NewMembershipUseCase(txRunner, membershipRepo, companyRepo, userRepo, authzSvc)
	userUC := usecase.NewUserUseCase(userRepo, membershipRepo, companyRepo, txRunner, authzSvc)
	activityUC := usecase.NewActivityUseCase(activityRepo, userRepo, authzSvc)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Empresas API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		CompanyUC:    companyUC,
		ContextUC:    contextUC,
		MembershipUC: membershipUC,
		UserUC:       userUC,
		ActivityUC:   activityUC,
		Resolver:     resolver,
		JWTSecret:    cfg.JWT.Secret,
		Log:          log.Zerolog(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
