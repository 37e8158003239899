// Package ginmw mounts the gateway on a gin engine.
package ginmw

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reoring/userfields/gateway"
	"github.com/reoring/userfields/middleware"
)

// Register mounts every route of gw on r.
func Register(r gin.IRouter, gw *gateway.Gateway) {
	r.GET("/healthz", func(c *gin.Context) { render(c, gw.Health(c.Request.Context())) })

	r.GET("/users", func(c *gin.Context) { render(c, gw.ListUsers(c.Request.Context())) })
	r.POST("/users", func(c *gin.Context) { render(c, gw.CreateUser(c.Request.Context(), c.Request.Body)) })
	r.GET("/users/schema", func(c *gin.Context) { render(c, gw.UserSchema(c.Request.Context())) })
	r.GET("/users/:id", func(c *gin.Context) { render(c, gw.GetUser(c.Request.Context(), c.Param("id"))) })
	r.PATCH("/users/:id", func(c *gin.Context) {
		render(c, gw.UpdateUser(c.Request.Context(), c.Param("id"), c.Request.Body))
	})
	r.DELETE("/users/:id", func(c *gin.Context) { render(c, gw.DeleteUser(c.Request.Context(), c.Param("id"))) })

	r.GET("/user_custom_fields", func(c *gin.Context) { render(c, gw.ListFields(c.Request.Context())) })
	r.POST("/user_custom_fields", func(c *gin.Context) {
		render(c, gw.CreateField(c.Request.Context(), c.Request.Body))
	})
	r.GET("/user_custom_fields/:id", func(c *gin.Context) { render(c, gw.GetField(c.Request.Context(), c.Param("id"))) })
	r.PATCH("/user_custom_fields/:id", func(c *gin.Context) {
		render(c, gw.UpdateField(c.Request.Context(), c.Param("id"), c.Request.Body))
	})
	r.DELETE("/user_custom_fields/:id", func(c *gin.Context) {
		render(c, gw.DeleteField(c.Request.Context(), c.Param("id")))
	})
}

// RequestLogger assigns a request id and logs one line per request.
func RequestLogger(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := middleware.RequestID(c.Request)
		c.Header(middleware.HeaderRequestID, id)
		c.Request = c.Request.WithContext(middleware.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
		middleware.LogRequest(c.Request.Context(), l, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func render(c *gin.Context, r gateway.Response) {
	if r.Body == nil {
		c.Status(r.Status)
		return
	}
	c.Data(r.Status, gateway.ContentType, r.Body)
}
