// Package echomw mounts the gateway on an echo instance.
package echomw

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/reoring/userfields/gateway"
	"github.com/reoring/userfields/middleware"
)

// Register mounts every route of gw on e.
func Register(e *echo.Echo, gw *gateway.Gateway) {
	e.GET("/healthz", func(c echo.Context) error { return render(c, gw.Health(c.Request().Context())) })

	e.GET("/users", func(c echo.Context) error { return render(c, gw.ListUsers(c.Request().Context())) })
	e.POST("/users", func(c echo.Context) error {
		return render(c, gw.CreateUser(c.Request().Context(), c.Request().Body))
	})
	e.GET("/users/schema", func(c echo.Context) error { return render(c, gw.UserSchema(c.Request().Context())) })
	e.GET("/users/:id", func(c echo.Context) error {
		return render(c, gw.GetUser(c.Request().Context(), c.Param("id")))
	})
	e.PATCH("/users/:id", func(c echo.Context) error {
		return render(c, gw.UpdateUser(c.Request().Context(), c.Param("id"), c.Request().Body))
	})
	e.DELETE("/users/:id", func(c echo.Context) error {
		return render(c, gw.DeleteUser(c.Request().Context(), c.Param("id")))
	})

	e.GET("/user_custom_fields", func(c echo.Context) error { return render(c, gw.ListFields(c.Request().Context())) })
	e.POST("/user_custom_fields", func(c echo.Context) error {
		return render(c, gw.CreateField(c.Request().Context(), c.Request().Body))
	})
	e.GET("/user_custom_fields/:id", func(c echo.Context) error {
		return render(c, gw.GetField(c.Request().Context(), c.Param("id")))
	})
	e.PATCH("/user_custom_fields/:id", func(c echo.Context) error {
		return render(c, gw.UpdateField(c.Request().Context(), c.Param("id"), c.Request().Body))
	})
	e.DELETE("/user_custom_fields/:id", func(c echo.Context) error {
		return render(c, gw.DeleteField(c.Request().Context(), c.Param("id")))
	})
}

// RequestLogger assigns a request id and logs one line per request.
func RequestLogger(l *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			id := middleware.RequestID(req)
			c.Response().Header().Set(middleware.HeaderRequestID, id)
			c.SetRequest(req.WithContext(middleware.ContextWithRequestID(req.Context(), id)))
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			middleware.LogRequest(c.Request().Context(), l, req.Method, req.URL.Path, c.Response().Status, time.Since(start))
			return nil
		}
	}
}

func render(c echo.Context, r gateway.Response) error {
	if r.Body == nil {
		return c.NoContent(r.Status)
	}
	return c.Blob(r.Status, gateway.ContentType, r.Body)
}
