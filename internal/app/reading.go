package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/randomtoy/arcana/internal/domain"
	"github.com/randomtoy/arcana/internal/ports"
)

// MaxQuestionLength caps the question in runes.
const MaxQuestionLength = 500

// Phase is the last lifecycle step a reading reached.
type Phase string

const (
	PhaseReceived    Phase = "received"
	PhaseValidated   Phase = "validated"
	PhaseCardsDrawn  Phase = "cards_drawn"
	PhasePromptBuilt Phase = "prompt_built"
	PhaseStreaming   Phase = "streaming"
	PhaseCompleted   Phase = "completed"
	PhaseFailed      Phase = "failed"
)

// FragmentSink receives relayed text in arrival order.
type FragmentSink interface {
	WriteFragment(text string) error
}

// SinkFunc adapts a function to FragmentSink.
type SinkFunc func(text string) error

func (f SinkFunc) WriteFragment(text string) error { return f(text) }

// Reading is an opened reading: cards are drawn and the upstream stream is live.
type Reading struct {
	Question string
	Hand     domain.Hand
	Model    string

	stream ports.FragmentStream
	phase  Phase
	opened time.Time
}

// Phase reports the last lifecycle step reached.
func (r *Reading) Phase() Phase { return r.phase }

// Close releases the upstream stream. Relay closes it as well.
func (r *Reading) Close() error {
	if r.stream == nil {
		return nil
	}
	return r.stream.Close()
}

// RelayResult summarizes what reached the client.
type RelayResult struct {
	Fragments int
	Bytes     int
}

// ReadingService draws a spread and relays the model's interpretation.
type ReadingService struct {
	store     ports.DeckStore
	deck      domain.Deck
	completer ports.Completer
	rng       domain.RNG
	model     string
	persona   string
	logger    *slog.Logger
	metrics   *Metrics
}

// Option customizes a ReadingService.
type Option func(*ReadingService)

func WithPersona(persona string) Option {
	return func(s *ReadingService) { s.persona = persona }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *ReadingService) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *ReadingService) { s.metrics = m }
}

// NewReadingService fails when the catalog cannot fill a spread, so a bad
// catalog stops the process at startup rather than on the first request.
func NewReadingService(ds ports.DeckStore, completer ports.Completer, rng domain.RNG, model string, opts ...Option) (*ReadingService, error) {
	s := &ReadingService{
		store:     ds,
		deck:      ds.Deck(),
		completer: completer,
		rng:       rng,
		model:     model,
		persona:   DefaultPersona,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.deck.Cards) < domain.SpreadSize {
		return nil, fmt.Errorf("%w: catalog has %d cards", domain.ErrInsufficientDeck, len(s.deck.Cards))
	}
	return s, nil
}

// Draw returns a fresh spread without contacting the model.
func (s *ReadingService) Draw() (domain.Hand, error) {
	return domain.DrawHand(s.deck.Cards, s.rng)
}

// Deck returns the catalog the service draws from.
func (s *ReadingService) Deck() domain.Deck { return s.deck }

// Card looks up a single catalog card by id.
func (s *ReadingService) Card(id string) (domain.Card, bool) { return s.store.Card(id) }

// Open validates the question, draws three cards, builds the prompt and
// starts the upstream completion. The caller must Relay or Close the reading.
func (s *ReadingService) Open(ctx context.Context, question string) (*Reading, error) {
	r := &Reading{phase: PhaseReceived, Model: s.model}

	question = strings.TrimSpace(question)
	if question == "" {
		s.metrics.outcome(OutcomeRejected, r.phase)
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrBadRequest)
	}
	if utf8.RuneCountInString(question) > MaxQuestionLength {
		s.metrics.outcome(OutcomeRejected, r.phase)
		return nil, fmt.Errorf("%w: question must be at most %d characters", domain.ErrBadRequest, MaxQuestionLength)
	}
	r.Question = question
	r.phase = PhaseValidated

	hand, err := s.Draw()
	if err != nil {
		s.metrics.outcome(OutcomeInternal, r.phase)
		return nil, fmt.Errorf("draw cards: %w", err)
	}
	r.Hand = hand
	r.phase = PhaseCardsDrawn

	prompt := ComposePrompt(s.persona, domain.BuildPromptFragment(question, hand))
	r.phase = PhasePromptBuilt

	r.opened = time.Now()
	stream, err := s.completer.Stream(ctx, ports.CompletionRequest{Model: s.model, Prompt: prompt})
	if err != nil {
		s.metrics.outcome(OutcomeUpstream, r.phase)
		s.logger.ErrorContext(ctx, "upstream call failed", "phase", r.phase, "error", err)
		if !errors.Is(err, domain.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
		}
		return nil, err
	}
	r.stream = stream

	s.logger.InfoContext(ctx, "reading opened",
		"model", s.model,
		"past", hand[domain.Past].ID,
		"present", hand[domain.Present].ID,
		"future", hand[domain.Future].ID,
	)
	return r, nil
}

// Relay forwards fragments from the reading's stream to sink as they arrive.
// It stops pulling from upstream as soon as the sink fails or ctx is done,
// and always closes the upstream stream before returning.
func (s *ReadingService) Relay(ctx context.Context, r *Reading, sink FragmentSink) (RelayResult, error) {
	defer r.Close()

	var res RelayResult
	r.phase = PhaseStreaming

	for {
		if err := ctx.Err(); err != nil {
			return res, s.fail(ctx, r, res, OutcomeCanceled, err)
		}

		text, err := r.stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			r.phase = PhaseCompleted
			s.metrics.outcome(OutcomeCompleted, PhaseCompleted)
			s.logger.InfoContext(ctx, "reading completed", "fragments", res.Fragments, "bytes", res.Bytes)
			return res, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return res, s.fail(ctx, r, res, OutcomeCanceled, ctx.Err())
			}
			if !errors.Is(err, domain.ErrStreamInterrupted) {
				err = fmt.Errorf("%w: %w", domain.ErrStreamInterrupted, err)
			}
			return res, s.fail(ctx, r, res, OutcomeInterrupted, err)
		}
		if text == "" {
			continue
		}

		if res.Fragments == 0 {
			s.metrics.firstFragmentAfter(time.Since(r.opened).Seconds())
		}
		if err := sink.WriteFragment(text); err != nil {
			return res, s.fail(ctx, r, res, OutcomeCanceled, fmt.Errorf("write fragment: %w", err))
		}
		res.Fragments++
		res.Bytes += len(text)
		s.metrics.fragment()
	}
}

func (s *ReadingService) fail(ctx context.Context, r *Reading, res RelayResult, outcome string, err error) error {
	s.metrics.outcome(outcome, r.phase)
	s.logger.WarnContext(ctx, "reading stopped",
		"outcome", outcome,
		"phase", r.phase,
		"fragments", res.Fragments,
		"error", err,
	)
	r.phase = PhaseFailed
	return err
}
