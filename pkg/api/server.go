// Package api provides the HTTP surface the orchestrator exposes (spec
// §6): SSE-streamed and enqueue-only chat endpoints, file upload/
// download, pending-permission resolution, and the dependency
// installer. Grounded on the teacher's gin-based Server
// (pkg/api/handlers.go, cmd/tarsy/main.go) rather than its later
// echo-v5 rewrite — go.mod's direct gin dependency is the teacher's
// canonical choice.
package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/rajat1299/Cowork-sub000/pkg/config"
	"github.com/rajat1299/Cowork-sub000/pkg/core"
	"github.com/rajat1299/Cowork-sub000/pkg/deps"
	"github.com/rajat1299/Cowork-sub000/pkg/queue"
	"github.com/rajat1299/Cowork-sub000/pkg/runloop"
)

// Server wires the run loop engine, the Core auth client, and the
// dependency installer into one gin router.
type Server struct {
	router  *gin.Engine
	engine  *runloop.Engine
	manager *queue.Manager
	core    *core.Client
	deps    *deps.Installer
	system  config.System
	logger  *slog.Logger
}

// NewServer builds the router and registers every route from spec §6.
func NewServer(eng *runloop.Engine, manager *queue.Manager, coreClient *core.Client, installer *deps.Installer, system config.System, logger *slog.Logger) *Server {
	s := &Server{
		router:  gin.New(),
		engine:  eng,
		manager: manager,
		core:    coreClient,
		deps:    installer,
		system:  system,
		logger:  logger,
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

// Handler exposes the underlying http.Handler, mainly for tests that
// want to drive the router with httptest without a real listener.
func (s *Server) Handler() *gin.Engine { return s.router }

// Run starts the HTTP server on addr (blocking).
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.health)

	chat := s.router.Group("/chat")
	chat.Use(s.requireAuth)
	{
		chat.POST("", s.postChat)
		chat.POST("/:project_id/improve", s.postImprove)
		chat.DELETE("/:project_id", s.deleteChat)
		chat.POST("/:project_id/permission", s.postPermission)
	}

	files := s.router.Group("/files")
	files.Use(s.requireAuth)
	{
		files.POST("/upload", s.postFilesUpload)
		files.GET("/:project_id/:file_id", s.getFile)
		files.GET("/generated/:project_id/download", s.getGeneratedFile)
	}

	ops := s.router.Group("/ops/deps")
	{
		ops.GET("/status", s.depsStatus)
		ops.POST("/install", s.depsInstall)
		ops.GET("/logs", s.depsLogs)
		ops.GET("/stream", s.depsStream)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
