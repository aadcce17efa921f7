// Package web serves the browser page, the session JSON API and the Gemini
// relay.
package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/BerylCAtieno/niche-detector/internal/i18n"
	"github.com/BerylCAtieno/niche-detector/internal/models"
	"github.com/BerylCAtieno/niche-detector/internal/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

const sessionKey = "session"

// Relayer forwards a raw prompt to the AI provider.
type Relayer interface {
	Relay(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)
}

type Handler struct {
	store  *pipeline.Store
	relay  Relayer
	logger *zap.Logger
}

func NewHandler(store *pipeline.Store, relay Relayer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:  store,
		relay:  relay,
		logger: logger.Named("web"),
	}
}

// Register mounts the page, the API and the relay on router.
func (h *Handler) Register(router *gin.Engine) {
	router.SetHTMLTemplate(pageTemplate)
	router.GET("/", h.ServePage)

	api := router.Group("/api")
	api.POST("/gemini", h.HandleRelay)
	api.POST("/sessions", h.CreateSession)

	session := api.Group("/sessions/:id", h.loadSession)
	session.GET("", h.GetSession)
	session.DELETE("", h.ResetSession)
	session.POST("/search", h.Search)
	session.POST("/pain-point", h.SelectPainPoint)
	session.POST("/idea", h.SelectIdea)
}

type sessionResponse struct {
	SessionID string        `json:"sessionId"`
	View      pipeline.View `json:"view"`
	Error     string        `json:"error,omitempty"`
}

type searchRequest struct {
	Niche string `json:"niche"`
}

type selectRequest struct {
	Index *int `json:"index" binding:"required"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	session := h.store.Create()
	h.respond(c, http.StatusCreated, session, nil)
}

func (h *Handler) GetSession(c *gin.Context) {
	h.respond(c, http.StatusOK, currentSession(c), nil)
}

func (h *Handler) ResetSession(c *gin.Context) {
	session := currentSession(c)
	h.respond(c, http.StatusOK, session, session.Reset())
}

func (h *Handler) Search(c *gin.Context) {
	session := currentSession(c)

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	err := session.StartSearch(c.Request.Context(), req.Niche)
	h.respond(c, http.StatusOK, session, err)
}

func (h *Handler) SelectPainPoint(c *gin.Context) {
	session := currentSession(c)

	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	err := session.SelectPainPointAt(c.Request.Context(), *req.Index)
	h.respond(c, http.StatusOK, session, err)
}

func (h *Handler) SelectIdea(c *gin.Context) {
	session := currentSession(c)

	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	err := session.SelectProductIdeaAt(c.Request.Context(), *req.Index)
	h.respond(c, http.StatusOK, session, err)
}

func (h *Handler) loadSession(c *gin.Context) {
	session, err := h.store.Get(c.Param("id"))
	if err != nil {
		p := i18n.Printer(c.GetHeader("Accept-Language"))
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": p.Sprintf(i18n.MsgSessionNotFound)})
		return
	}
	c.Set(sessionKey, session)
	c.Next()
}

func currentSession(c *gin.Context) *pipeline.Session {
	return c.MustGet(sessionKey).(*pipeline.Session)
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	p := i18n.Printer(c.GetHeader("Accept-Language"))
	c.JSON(http.StatusBadRequest, gin.H{"error": p.Sprintf(i18n.MsgInvalidRequest)})
}

// respond writes the session view. The error message comes from err when
// the operation failed, otherwise from the failure overlay of the view.
func (h *Handler) respond(c *gin.Context, status int, session *pipeline.Session, err error) {
	p := i18n.Printer(c.GetHeader("Accept-Language"))
	resp := sessionResponse{
		SessionID: session.ID(),
		View:      session.View(),
	}

	if err != nil {
		var key string
		status, key = classify(err)
		resp.Error = p.Sprintf(key)
		_ = c.Error(err)
	} else if key := failureMessage(resp.View.Failure); key != "" {
		resp.Error = p.Sprintf(key)
	}

	c.JSON(status, resp)
}

// classify maps an operation error to a status code and a message key.
func classify(err error) (int, string) {
	var reqErr *pipeline.RequestError
	switch {
	case errors.Is(err, models.ErrEmptyNiche):
		return http.StatusUnprocessableEntity, i18n.MsgNicheRequired
	case errors.Is(err, pipeline.ErrBusy):
		return http.StatusConflict, i18n.MsgBusy
	case errors.Is(err, pipeline.ErrInvalidSelection):
		return http.StatusUnprocessableEntity, i18n.MsgInvalidSelection
	case errors.As(err, &reqErr):
		return http.StatusBadGateway, stageMessage(reqErr.Stage)
	default:
		return http.StatusInternalServerError, i18n.MsgInvalidRequest
	}
}

func failureMessage(f *pipeline.Failure) string {
	if f == nil {
		return ""
	}
	if f.Kind == pipeline.FailureValidation {
		return i18n.MsgNicheRequired
	}
	return stageMessage(f.Stage)
}

func stageMessage(stage pipeline.Stage) string {
	switch stage {
	case pipeline.StageProductIdeas:
		return i18n.MsgIdeasFailed
	case pipeline.StageSellingAngles:
		return i18n.MsgAnglesFailed
	default:
		return i18n.MsgNicheFailed
	}
}
