package main

import (
	"net/http"

	"github.com/BerylCAtieno/niche-detector/internal/a2a"
	"github.com/BerylCAtieno/niche-detector/internal/logging"
	"github.com/BerylCAtieno/niche-detector/internal/pipeline"
	"github.com/BerylCAtieno/niche-detector/internal/web"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newRouter(store *pipeline.Store, relay web.Relayer, analyzer pipeline.Analyzer, card a2a.AgentCard, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(logging.GinMiddleware(logger), gin.Recovery())

	web.NewHandler(store, relay, logger).Register(router)

	agent := a2a.NewHandler(analyzer, card, logger)
	router.GET("/.well-known/agent.json", agent.ServeAgentCard)
	router.POST(a2a.EndpointPath, agent.Handle)

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return router
}
