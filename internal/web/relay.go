package web

import (
	"net/http"
	"strings"

	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

type relayRequest struct {
	Prompt string `json:"prompt"`
}

// HandleRelay forwards {prompt} to the provider with the server-held key
// and returns the response in the provider's REST shape.
func (h *Handler) HandleRelay(c *gin.Context) {
	var req relayRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	resp, err := h.relay.Relay(c.Request.Context(), req.Prompt)
	if err != nil {
		h.logger.Error("relay request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "relay request failed"})
		return
	}

	c.JSON(http.StatusOK, toWire(resp))
}

// Wire types mirror the generateContent REST response: camelCase keys,
// text parts as {"text": ...} and enums by their API names.
type wireResponse struct {
	Candidates     []wireCandidate     `json:"candidates,omitempty"`
	PromptFeedback *wirePromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *wireUsageMetadata  `json:"usageMetadata,omitempty"`
}

type wireCandidate struct {
	Index         int32              `json:"index"`
	Content       *wireContent       `json:"content,omitempty"`
	FinishReason  string             `json:"finishReason,omitempty"`
	SafetyRatings []wireSafetyRating `json:"safetyRatings,omitempty"`
	TokenCount    int32              `json:"tokenCount,omitempty"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	Text string `json:"text"`
}

type wireSafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
	Blocked     bool   `json:"blocked,omitempty"`
}

type wirePromptFeedback struct {
	BlockReason   string             `json:"blockReason,omitempty"`
	SafetyRatings []wireSafetyRating `json:"safetyRatings,omitempty"`
}

type wireUsageMetadata struct {
	PromptTokenCount        int32 `json:"promptTokenCount"`
	CachedContentTokenCount int32 `json:"cachedContentTokenCount,omitempty"`
	CandidatesTokenCount    int32 `json:"candidatesTokenCount"`
	TotalTokenCount         int32 `json:"totalTokenCount"`
}

func toWire(resp *genai.GenerateContentResponse) wireResponse {
	var out wireResponse
	if resp == nil {
		return out
	}

	for _, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		wc := wireCandidate{
			Index:         cand.Index,
			SafetyRatings: wireRatings(cand.SafetyRatings),
			TokenCount:    cand.TokenCount,
		}
		if cand.FinishReason != genai.FinishReasonUnspecified {
			wc.FinishReason = generativelanguagepb.Candidate_FinishReason(cand.FinishReason).String()
		}
		if cand.Content != nil {
			wc.Content = &wireContent{Role: cand.Content.Role, Parts: []wirePart{}}
			for _, part := range cand.Content.Parts {
				// Only text is relayed; the relay model is never given tools.
				if text, ok := part.(genai.Text); ok {
					wc.Content.Parts = append(wc.Content.Parts, wirePart{Text: string(text)})
				}
			}
		}
		out.Candidates = append(out.Candidates, wc)
	}

	if pf := resp.PromptFeedback; pf != nil {
		out.PromptFeedback = &wirePromptFeedback{SafetyRatings: wireRatings(pf.SafetyRatings)}
		if pf.BlockReason != genai.BlockReasonUnspecified {
			out.PromptFeedback.BlockReason = generativelanguagepb.GenerateContentResponse_PromptFeedback_BlockReason(pf.BlockReason).String()
		}
	}

	if um := resp.UsageMetadata; um != nil {
		out.UsageMetadata = &wireUsageMetadata{
			PromptTokenCount:        um.PromptTokenCount,
			CachedContentTokenCount: um.CachedContentTokenCount,
			CandidatesTokenCount:    um.CandidatesTokenCount,
			TotalTokenCount:         um.TotalTokenCount,
		}
	}
	return out
}

func wireRatings(ratings []*genai.SafetyRating) []wireSafetyRating {
	var out []wireSafetyRating
	for _, r := range ratings {
		if r == nil {
			continue
		}
		out = append(out, wireSafetyRating{
			Category:    generativelanguagepb.HarmCategory(r.Category).String(),
			Probability: generativelanguagepb.SafetyRating_HarmProbability(r.Probability).String(),
			Blocked:     r.Blocked,
		})
	}
	return out
}
