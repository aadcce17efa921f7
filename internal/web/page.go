package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/BerylCAtieno/niche-detector/internal/i18n"
	"github.com/gin-gonic/gin"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

type pageData struct {
	Lang   string
	Title  string
	Labels map[string]string
}

// labelKeys are the strings the page script needs, keyed by the name it
// looks them up with.
var labelKeys = map[string]string{
	"intro":           i18n.MsgIntro,
	"placeholder":     i18n.MsgSearchPlaceholder,
	"search":          i18n.MsgSearchButton,
	"newSearch":       i18n.MsgNewSearch,
	"nicheAnalysis":   i18n.MsgNicheAnalysis,
	"problemsHeading": i18n.MsgProblemsHeading,
	"ideasHeading":    i18n.MsgIdeasHeading,
	"anglesHeading":   i18n.MsgAnglesHeading,
	"pickPainPoint":   i18n.MsgPickPainPoint,
	"pickIdea":        i18n.MsgPickIdea,
	"analyzing":       i18n.MsgAnalyzingMarket,
	"generatingIdeas": i18n.MsgGeneratingIdeas,
	"creatingAngles":  i18n.MsgCreatingAngles,
	"nicheRequired":   i18n.MsgNicheRequired,
	"searchFailed":    i18n.MsgNicheFailed,
	"ideasFailed":     i18n.MsgIdeasFailed,
	"anglesFailed":    i18n.MsgAnglesFailed,
	"requestFailed":   i18n.MsgRequestFailed,
	"footer":          i18n.MsgFooter,
}

func labels(p *message.Printer) map[string]string {
	out := make(map[string]string, len(labelKeys))
	for name, key := range labelKeys {
		out[name] = p.Sprintf(key)
	}
	return out
}

// ServePage renders the single-page UI in the negotiated language.
func (h *Handler) ServePage(c *gin.Context) {
	tag := i18n.Match(c.GetHeader("Accept-Language"))
	p := message.NewPrinter(tag)

	c.HTML(http.StatusOK, "index.html", pageData{
		Lang:   tag.String(),
		Title:  p.Sprintf(i18n.MsgTitle),
		Labels: labels(p),
	})
}
