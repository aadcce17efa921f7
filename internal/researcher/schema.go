package researcher

import (
	"strings"

	"github.com/BerylCAtieno/niche-detector/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/generative-ai-go/genai"
)

// Target cardinalities requested from the model.
const (
	PainPointCount    = 10
	MinProductIdeas   = 3
	MaxProductIdeas   = 5
	SellingAngleCount = 5
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("nonempty", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// Lists longer than the target are cut to it before validation; the schema
// has no way to declare a maximum item count.
type painPointsResponse struct {
	PainPoints []models.PainPoint `json:"painPoints" validate:"required,min=1,dive"`
}

func (r *painPointsResponse) trim() { r.PainPoints = capped(r.PainPoints, PainPointCount) }

type productIdeasResponse struct {
	ProductIdeas []models.ProductIdea `json:"productIdeas" validate:"required,min=1,dive"`
}

func (r *productIdeasResponse) trim() { r.ProductIdeas = capped(r.ProductIdeas, MaxProductIdeas) }

type sellingAnglesResponse struct {
	SellingAngles []string `json:"sellingAngles" validate:"required,min=1,dive,nonempty"`
}

func (r *sellingAnglesResponse) trim() { r.SellingAngles = capped(r.SellingAngles, SellingAngleCount) }

func capped[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

var painPointsSchema = envelopeSchema("painPoints", &genai.Schema{
	Type:        genai.TypeArray,
	Description: "The 10 most significant and frequently mentioned pain points.",
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {
				Type:        genai.TypeString,
				Description: "A short summary of the problem or pain point.",
			},
			"quote": {
				Type:        genai.TypeString,
				Description: "A direct, verbatim quote from a user that illustrates the problem.",
			},
		},
		Required: []string{"summary", "quote"},
	},
})

var productIdeasSchema = envelopeSchema("productIdeas", &genai.Schema{
	Type:        genai.TypeArray,
	Description: "Between 3 and 5 digital product ideas that solve the selected problem.",
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name": {
				Type:        genai.TypeString,
				Description: "An attractive name for the digital product.",
			},
			"description": {
				Type:        genai.TypeString,
				Description: "A brief description of the product and how it solves the problem.",
			},
		},
		Required: []string{"name", "description"},
	},
})

var sellingAnglesSchema = envelopeSchema("sellingAngles", &genai.Schema{
	Type:        genai.TypeArray,
	Description: "5 selling or marketing angles for the product.",
	Items: &genai.Schema{
		Type:        genai.TypeString,
		Description: "A phrase or short paragraph that represents one selling angle.",
	},
})

// envelopeSchema wraps a list schema in a single required object property.
func envelopeSchema(key string, list *genai.Schema) *genai.Schema {
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{key: list},
		Required:   []string{key},
	}
}
