// Package pipeline drives the three-stage niche analysis: pain points,
// then product ideas for a selected pain point, then selling angles for a
// selected idea.
package pipeline

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/BerylCAtieno/niche-detector/internal/models"
	"go.uber.org/zap"
)

// Analyzer produces the results of each stage.
type Analyzer interface {
	FetchPainPoints(ctx context.Context, niche models.Niche) ([]models.PainPoint, error)
	FetchProductIdeas(ctx context.Context, niche models.Niche, p models.PainPoint) ([]models.ProductIdea, error)
	FetchSellingAngles(ctx context.Context, niche models.Niche, p models.PainPoint, idea models.ProductIdea) ([]models.SellingAngle, error)
}

// Session is one user's analysis. Operations are serialized: while a
// request is in flight every other mutating call returns ErrBusy, except a
// repeated selection of the entity already selected, which is a no-op.
// The lock is never held across a network call.
type Session struct {
	id       string
	analyzer Analyzer
	logger   *zap.Logger
	now      func() time.Time

	mu                sync.Mutex
	state             State
	niche             models.Niche
	painPoints        []models.PainPoint
	selectedPainPoint *models.PainPoint
	ideas             []models.ProductIdea
	selectedIdea      *models.ProductIdea
	angles            []models.SellingAngle
	failure           *Failure
	lastActive        time.Time
}

// NewSession returns an idle session that is not tracked by any Store.
func NewSession(analyzer Analyzer, logger *zap.Logger) *Session {
	return newSession("", analyzer, logger, time.Now)
}

func newSession(id string, analyzer Analyzer, logger *zap.Logger, now func() time.Time) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if id != "" {
		logger = logger.With(zap.String("session", id))
	}
	return &Session{
		id:         id,
		analyzer:   analyzer,
		logger:     logger,
		now:        now,
		lastActive: now(),
	}
}

func (s *Session) ID() string {
	return s.id
}

// StartSearch validates the niche, discards every previous result and
// fetches the pain points for it.
func (s *Session) StartSearch(ctx context.Context, raw string) error {
	niche, verr := models.NewNiche(raw)

	s.mu.Lock()
	s.lastActive = s.now()
	if verr != nil {
		if !s.state.busy() {
			s.failure = &Failure{Kind: FailureValidation}
		}
		s.mu.Unlock()
		return verr
	}
	if s.state.busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	s.clearLocked()
	s.niche = niche
	s.state = StateAnalyzingNiche
	s.mu.Unlock()

	s.logger.Info("analyzing niche", zap.String("niche", niche.String()))
	points, err := s.analyzer.FetchPainPoints(ctx, niche)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	if err != nil {
		s.logger.Error("pain point request failed", zap.String("niche", niche.String()), zap.Error(err))
		s.state = StateIdle
		s.failure = &Failure{Kind: FailureRequest, Stage: StagePainPoints}
		return &RequestError{Stage: StagePainPoints, Err: err}
	}

	s.painPoints = points
	s.state = StateProblemsReady
	return nil
}

// SelectPainPoint makes p the active pain point and fetches product ideas
// for it. Selecting the active pain point again does nothing, as does
// selecting before any pain points exist.
func (s *Session) SelectPainPoint(ctx context.Context, p models.PainPoint) error {
	return s.selectPainPoint(ctx, func() (models.PainPoint, error) { return p, nil })
}

// SelectPainPointAt selects the pain point at index in the list currently
// on display. The lookup happens under the session lock, so a concurrent new
// search can never pair a stale pain point with a new niche.
func (s *Session) SelectPainPointAt(ctx context.Context, index int) error {
	return s.selectPainPoint(ctx, func() (models.PainPoint, error) {
		if s.state < StateProblemsReady || index < 0 || index >= len(s.painPoints) {
			return models.PainPoint{}, ErrInvalidSelection
		}
		return s.painPoints[index], nil
	})
}

// selectPainPoint runs resolve with the lock held.
func (s *Session) selectPainPoint(ctx context.Context, resolve func() (models.PainPoint, error)) error {
	s.mu.Lock()
	s.lastActive = s.now()
	p, err := resolve()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.selectedPainPoint != nil && s.selectedPainPoint.Summary == p.Summary {
		s.mu.Unlock()
		return nil
	}
	if s.state.busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state < StateProblemsReady {
		s.mu.Unlock()
		return nil
	}

	selected := p
	s.selectedPainPoint = &selected
	s.ideas = nil
	s.selectedIdea = nil
	s.angles = nil
	s.failure = nil
	s.state = StateGeneratingIdeas
	niche := s.niche
	s.mu.Unlock()

	s.logger.Info("generating product ideas", zap.String("pain_point", p.Summary))
	ideas, err := s.analyzer.FetchProductIdeas(ctx, niche, p)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	if err != nil {
		s.logger.Error("product idea request failed", zap.String("pain_point", p.Summary), zap.Error(err))
		// Back to the preceding state so the same pain point can be retried.
		s.selectedPainPoint = nil
		s.state = StateProblemsReady
		s.failure = &Failure{Kind: FailureRequest, Stage: StageProductIdeas}
		return &RequestError{Stage: StageProductIdeas, Err: err}
	}

	s.ideas = ideas
	s.state = StateIdeasReady
	return nil
}

// SelectProductIdea makes idea the active idea and fetches selling angles
// for it. It is a no-op without a selected pain point or when idea is
// already active.
func (s *Session) SelectProductIdea(ctx context.Context, idea models.ProductIdea) error {
	return s.selectProductIdea(ctx, func() (models.ProductIdea, error) { return idea, nil })
}

// SelectProductIdeaAt selects the idea at index in the list currently on
// display.
func (s *Session) SelectProductIdeaAt(ctx context.Context, index int) error {
	return s.selectProductIdea(ctx, func() (models.ProductIdea, error) {
		if s.state < StateIdeasReady || index < 0 || index >= len(s.ideas) {
			return models.ProductIdea{}, ErrInvalidSelection
		}
		return s.ideas[index], nil
	})
}

func (s *Session) selectProductIdea(ctx context.Context, resolve func() (models.ProductIdea, error)) error {
	s.mu.Lock()
	s.lastActive = s.now()
	if s.selectedPainPoint == nil {
		s.mu.Unlock()
		return nil
	}
	idea, err := resolve()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.selectedIdea != nil && s.selectedIdea.Name == idea.Name {
		s.mu.Unlock()
		return nil
	}
	if s.state.busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state < StateIdeasReady {
		s.mu.Unlock()
		return nil
	}

	selected := idea
	s.selectedIdea = &selected
	s.angles = nil
	s.failure = nil
	s.state = StateGeneratingAngles
	niche := s.niche
	pain := *s.selectedPainPoint
	s.mu.Unlock()

	s.logger.Info("generating selling angles", zap.String("idea", idea.Name))
	angles, err := s.analyzer.FetchSellingAngles(ctx, niche, pain, idea)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	if err != nil {
		s.logger.Error("selling angle request failed", zap.String("idea", idea.Name), zap.Error(err))
		s.selectedIdea = nil
		s.state = StateIdeasReady
		s.failure = &Failure{Kind: FailureRequest, Stage: StageSellingAngles}
		return &RequestError{Stage: StageSellingAngles, Err: err}
	}

	s.angles = angles
	s.state = StateAnglesReady
	return nil
}

// Reset returns the session to Idle for a new search.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	if s.state.busy() {
		return ErrBusy
	}
	s.clearLocked()
	s.niche = ""
	return nil
}

func (s *Session) clearLocked() {
	s.state = StateIdle
	s.painPoints = nil
	s.selectedPainPoint = nil
	s.ideas = nil
	s.selectedIdea = nil
	s.angles = nil
	s.failure = nil
}

// View is what may be displayed for a session right now. Collections only
// appear once the state that produced them for the active selection has
// been reached.
type View struct {
	State             State                 `json:"state"`
	Niche             string                `json:"niche,omitempty"`
	PainPoints        []models.PainPoint    `json:"painPoints,omitempty"`
	SelectedPainPoint *models.PainPoint     `json:"selectedPainPoint,omitempty"`
	ProductIdeas      []models.ProductIdea  `json:"productIdeas,omitempty"`
	SelectedIdea      *models.ProductIdea   `json:"selectedIdea,omitempty"`
	SellingAngles     []models.SellingAngle `json:"sellingAngles,omitempty"`
	Loading           Stage                 `json:"loading,omitempty"`
	InputEnabled      bool                  `json:"inputEnabled"`
	Failure           *Failure              `json:"failure,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:        s.state,
		Niche:        s.niche.String(),
		Loading:      s.state.loadingStage(),
		InputEnabled: !s.state.busy(),
	}
	if s.state >= StateProblemsReady {
		v.PainPoints = slices.Clone(s.painPoints)
	}
	if s.selectedPainPoint != nil {
		p := *s.selectedPainPoint
		v.SelectedPainPoint = &p
	}
	if s.state >= StateIdeasReady {
		v.ProductIdeas = slices.Clone(s.ideas)
	}
	if s.selectedIdea != nil {
		i := *s.selectedIdea
		v.SelectedIdea = &i
	}
	if s.state == StateAnglesReady {
		v.SellingAngles = slices.Clone(s.angles)
	}
	if s.failure != nil {
		f := *s.failure
		v.Failure = &f
	}
	return v
}

func (s *Session) idle(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.state.busy() && now.Sub(s.lastActive) > ttl
}
