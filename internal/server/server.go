// Package server assembles the store, services, gateway and HTTP engine from
// a config.Config.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/reoring/userfields/config"
	"github.com/reoring/userfields/fields"
	"github.com/reoring/userfields/gateway"
	"github.com/reoring/userfields/i18n"
	"github.com/reoring/userfields/middleware"
	chimw "github.com/reoring/userfields/middleware/chi"
	echomw "github.com/reoring/userfields/middleware/echo"
	ginmw "github.com/reoring/userfields/middleware/gin"
	"github.com/reoring/userfields/schema"
	"github.com/reoring/userfields/store"
	"github.com/reoring/userfields/store/gormstore"
	"github.com/reoring/userfields/store/memory"
	"github.com/reoring/userfields/users"
)

// App is a ready-to-serve handler and the store behind it.
type App struct {
	Handler http.Handler
	Store   store.Store
}

// New opens the configured store and builds the handler tree.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	i18n.SetLanguage(cfg.Language)

	st, err := OpenStore(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}
	fs := fields.NewService(st.Fields(), fields.WithLogger(log))
	resolver := schema.NewResolver(fs,
		schema.WithCoreKeys(users.CoreAttributes...),
		schema.WithUnknownPolicy(cfg.UnknownPolicy()),
	)
	us := users.NewService(st.Users(), resolver, users.WithLogger(log))
	gw := gateway.New(us, fs,
		gateway.WithLogger(log),
		gateway.WithSourceOptions(middleware.DefaultSourceOptions(cfg.Server.MaxBodyBytes)),
	)

	h, err := Handler(cfg.Server, gw, log)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &App{Handler: h, Store: st}, nil
}

// Close releases the store.
func (a *App) Close() error { return a.Store.Close() }

// OpenStore returns the memory store or a gorm store for SQL drivers.
func OpenStore(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (store.Store, error) {
	if cfg.Driver == "memory" {
		return memory.New(), nil
	}
	return gormstore.Open(ctx, gormstore.Config{
		Driver:          cfg.Driver,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		Logger:          log,
	})
}

// Handler mounts gw on the configured framework behind CORS.
func Handler(cfg config.ServerConfig, gw *gateway.Gateway, log *slog.Logger) (http.Handler, error) {
	var h http.Handler
	switch cfg.Framework {
	case "gin":
		gin.SetMode(gin.ReleaseMode)
		r := gin.New()
		r.Use(gin.Recovery(), ginmw.RequestLogger(log))
		ginmw.Register(r, gw)
		h = r
	case "echo":
		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		e.Use(echomiddleware.Recover(), echomw.RequestLogger(log))
		echomw.Register(e, gw)
		h = e
	case "chi":
		r := chi.NewRouter()
		r.Use(chimiddleware.Recoverer, chimw.RequestLogger(log))
		chimw.Register(r, gw)
		h = r
	default:
		return nil, fmt.Errorf("server: unsupported framework %q", cfg.Framework)
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders: []string{middleware.HeaderRequestID},
		MaxAge:         300,
	})(h), nil
}
