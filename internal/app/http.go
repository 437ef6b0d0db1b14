package app

import (
	"context"

	"github.com/valtervalik/InstaShare/internal/auth"
	"github.com/valtervalik/InstaShare/internal/auth/credentials"
	"github.com/valtervalik/InstaShare/internal/auth/google"
	"github.com/valtervalik/InstaShare/internal/auth/handler"
	"github.com/valtervalik/InstaShare/internal/auth/session"
	"github.com/valtervalik/InstaShare/internal/auth/token"
	"github.com/valtervalik/InstaShare/internal/auth/twofactor"
	"github.com/valtervalik/InstaShare/internal/config"
	"github.com/valtervalik/InstaShare/internal/middleware"
	"github.com/valtervalik/InstaShare/internal/notify"
	"github.com/valtervalik/InstaShare/internal/principal"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	repo := principal.NewPostgresRepository(infra.DB)
	registry := session.NewRedisRegistry(infra.Redis.Client)
	issuer := token.NewIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.SessionTTL)
	notifier := notify.NewLogNotifier()

	credentialService := credentials.NewService(repo, infra.Cipher, notifier)
	twoFAService := twofactor.NewService(repo, infra.Cipher, cfg.TFAIssuer)
	sessions := auth.NewService(credentialService, issuer, registry, repo)

	googleProvider, err := google.NewProvider(
		ctx,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
	)
	if err != nil {
		return nil, nil, err
	}

	googleService := google.NewService(googleProvider, repo, sessions, notifier)

	authHandler := handler.NewHandler(
		sessions,
		credentialService,
		twoFAService,
		googleService,
		googleProvider,
	)

	authMiddleware := middleware.NewAuthMiddleware(issuer)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	authHandler.RegisterRoutes(router, authMiddleware)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))

	api.GET("/me", func(c *gin.Context) {
		principalID, _ := middleware.PrincipalFromContext(c.Request.Context())
		role, _ := middleware.RoleFromContext(c.Request.Context())
		c.JSON(200, gin.H{
			"principal_id": principalID,
			"role":         role,
		})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		return infra.DB.Close()
	}, nil
}
