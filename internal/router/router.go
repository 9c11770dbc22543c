// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-service/internal/handler"
)

// RegisterRoutes registers the unauthenticated probes at the root.
func RegisterRoutes(e *echo.Echo, ready *handler.ReadyHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", ready.Ready)
}

// RegisterAuth registers registration and login under prefix, plus the
// guarded /me endpoint.
func RegisterAuth(e *echo.Echo, prefix string, a *handler.AuthHandler, guard echo.MiddlewareFunc) {
	g := e.Group(prefix)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/me", a.Me, guard)
}

// RegisterNotes registers the note CRUD routes under prefix.  Every route
// runs behind guard.
func RegisterNotes(e *echo.Echo, prefix string, n *handler.NoteHandler, guard echo.MiddlewareFunc) {
	g := e.Group(prefix+"/notes", guard)
	g.GET("", n.List)
	g.POST("", n.Create)
	g.PUT("/:id", n.Update)
	g.DELETE("/:id", n.Delete)
}
