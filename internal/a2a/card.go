package a2a

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AgentCard describes the agent at /.well-known/agent.json.
type AgentCard struct {
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	URL                string       `json:"url"`
	Version            string       `json:"version"`
	Capabilities       Capabilities `json:"capabilities"`
	DefaultInputModes  []string     `json:"defaultInputModes"`
	DefaultOutputModes []string     `json:"defaultOutputModes"`
	Skills             []Skill      `json:"skills"`
}

type Capabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory"`
}

type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// EndpointPath is where Handle is mounted.
const EndpointPath = "/a2a/niche"

// NewAgentCard returns the card for this agent. The URL is filled in per
// request when left empty.
func NewAgentCard(version, url string) AgentCard {
	return AgentCard{
		Name:               "Niche Detector",
		Description:        "Finds the most frequent customer pain points in a market niche, each with an illustrative quote.",
		URL:                url,
		Version:            version,
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain", "application/json"},
		Skills: []Skill{{
			ID:          "niche-pain-points",
			Name:        "Niche pain points",
			Description: "Given a market niche, returns up to ten pain points with a verbatim-style quote for each.",
			Tags:        []string{"market research", "product ideas", "niche"},
			Examples:    []string{"First-time dog owners", "Drone photography", "Vegan cooking"},
		}},
	}
}

// ServeAgentCard serves the agent card.
func (h *Handler) ServeAgentCard(c *gin.Context) {
	card := h.card
	if card.URL == "" {
		card.URL = requestScheme(c) + "://" + c.Request.Host + EndpointPath
	}
	c.JSON(http.StatusOK, card)
}

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
