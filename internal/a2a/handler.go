// Package a2a exposes the pain-point stage as an agent-to-agent JSON-RPC
// endpoint.
package a2a

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BerylCAtieno/niche-detector/internal/i18n"
	"github.com/BerylCAtieno/niche-detector/internal/models"
	"github.com/BerylCAtieno/niche-detector/internal/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/message"
)

type Handler struct {
	analyzer pipeline.Analyzer
	card     AgentCard
	logger   *zap.Logger
	now      func() time.Time
}

func NewHandler(analyzer pipeline.Analyzer, card AgentCard, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		analyzer: analyzer,
		card:     card,
		logger:   logger.Named("a2a"),
		now:      time.Now,
	}
}

// Handle processes a JSON-RPC request. Protocol errors are JSON-RPC errors
// sent with 200 OK; analysis errors are failed tasks.
func (h *Handler) Handle(c *gin.Context) {
	var req JSONRPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to decode request", zap.Error(err))
		h.sendError(c, nil, CodeParseError, "Parse error")
		return
	}

	if req.JSONRPC != jsonrpcVersion {
		h.logger.Warn("invalid JSON-RPC version", zap.String("version", req.JSONRPC))
		h.sendError(c, req.ID, CodeInvalidRequest, "Invalid JSON-RPC version")
		return
	}

	switch req.Method {
	case MethodMessageSend, MethodAgentTask:
		h.handleTask(c, req)
	default:
		h.logger.Warn("unknown method", zap.String("method", req.Method))
		h.sendError(c, req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (h *Handler) handleTask(c *gin.Context, req JSONRPCRequest) {
	var params MessageParams
	if len(req.Params) == 0 {
		h.sendError(c, req.ID, CodeInvalidParams, "Invalid parameters")
		return
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.logger.Warn("failed to decode params", zap.Error(err))
		h.sendError(c, req.ID, CodeInvalidParams, "Invalid parameters")
		return
	}

	p := i18n.Printer(c.GetHeader("Accept-Language"))
	msg := params.Message
	taskID := msg.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}

	niche := extractNiche(msg)
	logger := h.logger.With(zap.String("task", taskID))
	logger.Info("received niche", zap.String("niche", niche))

	limit := params.Configuration.HistoryLength
	fail := func(text string) {
		task := h.failedTask(taskID, msg.ContextID, text)
		task.History = history(msg, taskID, task.Status.Message, limit)
		h.sendResult(c, req.ID, task)
	}

	session := pipeline.NewSession(h.analyzer, logger)
	err := session.StartSearch(c.Request.Context(), niche)
	switch {
	case errors.Is(err, models.ErrEmptyNiche):
		fail(p.Sprintf(i18n.MsgAgentNoNiche))
		return
	case err != nil:
		fail(p.Sprintf(i18n.MsgNicheFailed))
		return
	}

	view := session.View()
	task, err := h.completedTask(taskID, msg.ContextID, view, p)
	if err != nil {
		logger.Error("failed to build task result", zap.Error(err))
		fail(p.Sprintf(i18n.MsgNicheFailed))
		return
	}
	task.History = history(msg, taskID, task.Status.Message, limit)

	logger.Info("pain points ready", zap.Int("count", len(view.PainPoints)))
	h.sendResult(c, req.ID, task)
}

// history returns the exchange as the user message followed by the agent
// reply, keeping only the most recent limit entries when limit is positive.
func history(in Message, taskID string, reply *Message, limit int) []Message {
	in.Role = RoleUser
	in.TaskID = taskID
	if in.Kind == "" {
		in.Kind = "message"
	}
	out := []Message{in}
	if reply != nil {
		out = append(out, *reply)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// extractNiche joins the text parts of msg. A data part holding a
// conversation history contributes its most recent text entry.
func extractNiche(msg Message) string {
	var texts []string
	for _, part := range msg.Parts {
		switch part.Kind {
		case "text":
			if t := cleanText(part.Text); t != "" {
				texts = append(texts, t)
			}
		case "data":
			if t := latestHistoryText(part.Data); t != "" {
				texts = append(texts, t)
			}
		}
	}
	return strings.Join(texts, " ")
}

func latestHistoryText(data json.RawMessage) string {
	var history []MessagePart
	if err := json.Unmarshal(data, &history); err != nil {
		return ""
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Kind != "text" {
			continue
		}
		if t := cleanText(history[i].Text); t != "" {
			return t
		}
	}
	return ""
}

var htmlTags = strings.NewReplacer("<p>", "", "</p>", "", "<br>", " ")

func cleanText(s string) string {
	return strings.TrimSpace(htmlTags.Replace(s))
}

type painPointsArtifact struct {
	Niche      string             `json:"niche"`
	PainPoints []models.PainPoint `json:"painPoints"`
}

func (h *Handler) completedTask(taskID, contextID string, view pipeline.View, p *message.Printer) (TaskResult, error) {
	data, err := DataPart(painPointsArtifact{Niche: view.Niche, PainPoints: view.PainPoints})
	if err != nil {
		return TaskResult{}, err
	}

	return TaskResult{
		ID:        taskID,
		ContextID: contextID,
		Kind:      "task",
		Status: TaskStatus{
			State:     StateCompleted,
			Timestamp: Timestamp(h.now()),
			Message: &Message{
				Kind:      "message",
				Role:      RoleAgent,
				MessageID: uuid.NewString(),
				TaskID:    taskID,
				Parts:     []MessagePart{TextPart(formatPainPoints(view, p))},
			},
		},
		Artifacts: []Artifact{{
			ArtifactID: uuid.NewString(),
			Name:       "Pain Points",
			Parts:      []MessagePart{data},
		}},
	}, nil
}

func (h *Handler) failedTask(taskID, contextID, text string) TaskResult {
	return TaskResult{
		ID:        taskID,
		ContextID: contextID,
		Kind:      "task",
		Status: TaskStatus{
			State:     StateFailed,
			Timestamp: Timestamp(h.now()),
			Message: &Message{
				Kind:      "message",
				Role:      RoleAgent,
				MessageID: uuid.NewString(),
				TaskID:    taskID,
				Parts:     []MessagePart{TextPart(text)},
			},
		},
	}
}

func formatPainPoints(view pipeline.View, p *message.Printer) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(p.Sprintf(i18n.MsgAgentPainPointsFor, view.Niche))
	b.WriteString("\n\n")

	for i, pp := range view.PainPoints {
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, strings.TrimSpace(pp.Summary))
		if q := strings.TrimSpace(pp.Quote); q != "" {
			fmt.Fprintf(&b, "   > %s\n", q)
		}
	}
	return b.String()
}

func (h *Handler) sendResult(c *gin.Context, id json.RawMessage, result any) {
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Result:  result,
	})
}

func (h *Handler) sendError(c *gin.Context, id json.RawMessage, code int, msg string) {
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: msg},
	})
}
