// Package i18n holds the user-facing strings of the web surface.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys. They double as the English text.
const (
	MsgNicheRequired      = "Please enter a niche to analyze."
	MsgNicheFailed        = "An error occurred while analyzing the niche. Please try again."
	MsgIdeasFailed        = "Product ideas could not be generated."
	MsgAnglesFailed       = "Selling angles could not be generated."
	MsgBusy               = "Please wait for the current request to finish."
	MsgSessionNotFound    = "Your session has expired. Please start a new search."
	MsgInvalidSelection   = "That option is no longer available."
	MsgInvalidRequest     = "The request could not be understood."
	MsgRequestFailed      = "The request could not be completed. Please try again."
	MsgAnalyzingMarket    = "Analyzing the market..."
	MsgGeneratingIdeas    = "Generating product ideas..."
	MsgCreatingAngles     = "Creating selling angles..."
	MsgIntro              = "Enter a topic or market niche to discover customers' main problems and get digital product ideas that solve them."
	MsgPickPainPoint      = "Select a problem on the left to generate solution ideas."
	MsgPickIdea           = "Now select a product idea to create its selling angles."
	MsgNicheAnalysis      = "Niche analysis"
	MsgProblemsHeading    = "1. Detected problems"
	MsgIdeasHeading       = "2. Solution ideas"
	MsgAnglesHeading      = "3. Selling angles"
	MsgSearchPlaceholder  = "e.g. 'First-time dog owners', 'Drone photography', 'Vegan cooking'..."
	MsgSearchButton       = "Analyze niche"
	MsgNewSearch          = "New search"
	MsgTitle              = "Niche Detector"
	MsgFooter             = "Powered by Gemini API"
	MsgAgentNoNiche       = "Please provide a market niche to analyze."
	MsgAgentPainPointsFor = "Pain points for: %s"
)

var spanish = map[string]string{
	MsgNicheRequired:      "Por favor, introduce un nicho para analizar.",
	MsgNicheFailed:        "Ocurrió un error al analizar el nicho. Por favor, inténtalo de nuevo.",
	MsgIdeasFailed:        "No se pudieron generar las ideas de producto.",
	MsgAnglesFailed:       "No se pudieron generar los ángulos de venta.",
	MsgBusy:               "Espera a que termine la solicitud en curso.",
	MsgSessionNotFound:    "Tu sesión ha caducado. Por favor, inicia una nueva búsqueda.",
	MsgInvalidSelection:   "Esa opción ya no está disponible.",
	MsgInvalidRequest:     "No se pudo entender la solicitud.",
	MsgRequestFailed:      "No se pudo completar la solicitud. Por favor, inténtalo de nuevo.",
	MsgAnalyzingMarket:    "Analizando el mercado...",
	MsgGeneratingIdeas:    "Generando ideas de producto...",
	MsgCreatingAngles:     "Creando ángulos de venta...",
	MsgIntro:              "Introduce un tema o nicho de mercado para descubrir los principales problemas de los clientes y obtener ideas de productos digitales para solucionarlos.",
	MsgPickPainPoint:      "Selecciona un problema de la izquierda para generar ideas de solución.",
	MsgPickIdea:           "Ahora, selecciona una idea de producto para crear sus ángulos de venta.",
	MsgNicheAnalysis:      "Análisis del Nicho",
	MsgProblemsHeading:    "1. Problemas Detectados",
	MsgIdeasHeading:       "2. Ideas de Solución",
	MsgAnglesHeading:      "3. Ángulos de Venta",
	MsgSearchPlaceholder:  "Ej: 'Dueños de perros primerizos', 'Fotografía de drones', 'Cocina vegana'...",
	MsgSearchButton:       "Analizar Nicho",
	MsgNewSearch:          "Nueva búsqueda",
	MsgTitle:              "Detector de Nichos",
	MsgFooter:             "Powered by Gemini API",
	MsgAgentNoNiche:       "Por favor, indica un nicho de mercado para analizar.",
	MsgAgentPainPointsFor: "Puntos de dolor para: %s",
}

// Supported lists the catalog languages, default first.
var Supported = []language.Tag{language.Spanish, language.English}

var matcher = language.NewMatcher(Supported)

func init() {
	for key, text := range spanish {
		_ = message.SetString(language.Spanish, key, text)
	}
	for key := range spanish {
		_ = message.SetString(language.English, key, key)
	}
}

// Match picks the supported language for an Accept-Language header value.
// Unknown or empty headers fall back to Spanish.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Supported[0]
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Supported[0]
	}
	return Supported[idx]
}

// Printer returns a printer for the language negotiated from acceptLanguage.
func Printer(acceptLanguage string) *message.Printer {
	return message.NewPrinter(Match(acceptLanguage))
}
