// Package router mounts route registrars under the versioned API prefix.
package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar adds its routes to a group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under /api/<version>
type Router struct {
	engine  *gin.Engine
	version string
	api     *gin.RouterGroup
	mounted int
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion replaces the default "v1" path segment
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.version = version }
}

// WithNotFound answers unmatched routes with h instead of gin's plain 404
func WithNotFound(h gin.HandlerFunc) RouterOption {
	return func(r *Router) { r.engine.NoRoute(h) }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	r.api = engine.Group("/api/" + r.version)
	return r
}

// Register mounts registrar. The middleware guards only the routes that
// registrar adds.
func (r *Router) Register(registrar RouteRegistrar, middleware ...gin.HandlerFunc) *Router {
	group := r.api.Group("", middleware...)
	registrar.RegisterRoutes(group)
	r.mounted++
	return r
}

// Prefix returns the path every registrar is mounted under
func (r *Router) Prefix() string {
	return r.api.BasePath()
}
