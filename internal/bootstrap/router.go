package bootstrap

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpapi "github.com/GoSim-25-26J-441/portfolio-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/api/http/middleware"
	authhttp "github.com/GoSim-25-26J-441/portfolio-backend/internal/auth/http"
	authmw "github.com/GoSim-25-26J-441/portfolio-backend/internal/auth/middleware"
	projectshttp "github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/http"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string
	App         *App
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	app := dep.App
	log := app.Log

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(log.Named("http")))
	r.Use(cors.New(corsConfig(dep.CORSOrigins)))

	metrics := httpapi.NewMetrics("portfolio")
	r.Use(metrics.Middleware())
	metrics.RegisterRoutes(r)

	httpapi.NewHealthHandler(dep.ServiceName, dep.Version, app.DB, app.Redis).RegisterRoutes(r)

	httpapi.NewAssetHandler(app.Assets, log.Named("assets")).RegisterRoutes(r)

	authhttp.New(app.Authority, log.Named("auth")).Register(r)

	requireAuth := authmw.BearerAuth(app.Authority, log.Named("auth"))
	projectshttp.New(app.Projects, log.Named("projects")).Register(r.Group("/projects"), requireAuth)

	for _, ri := range r.Routes() {
		log.Debug("route", zap.String("method", ri.Method), zap.String("path", ri.Path))
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}

	var allowed []string
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
		if o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = allowed
	cfg.AllowCredentials = true
	return cfg
}
