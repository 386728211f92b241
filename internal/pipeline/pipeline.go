// Package pipeline sequences the mailbox fetch, normalization, and
// classification stages into a single synchronous run. Only connection
// failures are fatal; every later stage degrades to a best-effort
// result rather than failing the run.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nhle/jobtracker/internal/classify"
	"github.com/nhle/jobtracker/internal/mailbox"
	"github.com/nhle/jobtracker/internal/model"
	"github.com/nhle/jobtracker/internal/normalize"
)

// State tracks which stage a run is in.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateFetching
	StateNormalizing
	StateClassifying
	StateDone
	StateFailed
)

// String returns the stage name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateFetching:
		return "fetching"
	case StateNormalizing:
		return "normalizing"
	case StateClassifying:
		return "classifying"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Fetcher retrieves the raw messages for the run's window. The
// mailbox client implements it; the connection is opened and released
// entirely within the call, so classification never holds a session.
type Fetcher interface {
	FetchRecent(ctx context.Context, windowDays, maxCount int) ([]mailbox.RawMessage, error)
}

// batchClassifier is the AI classification path. Implemented by
// classify.BatchClassifier; tests inject fakes.
type batchClassifier interface {
	ClassifyBatch(ctx context.Context, batch []model.NormalizedEmail) ([]model.ClassifiedRecord, error)
}

// Result is the outcome of a run: the ordered record list plus the
// non-fatal failures that were absorbed along the way.
type Result struct {
	// Records are the classified emails in fetch order (newest first).
	Records []model.ClassifiedRecord

	// ProviderFailures lists the classification failures that forced
	// batches onto the rule-based path. An unauthorized rejection
	// appears exactly once even when it disables many batches.
	ProviderFailures []error

	// Dropped counts messages discarded during normalization.
	Dropped int
}

// Pipeline orchestrates one run. Each run owns its connection and
// batch state exclusively; batches are processed strictly
// sequentially.
type Pipeline struct {
	fetcher    Fetcher
	ai         batchClassifier
	rules      *classify.RuleClassifier
	windowDays int
	maxCount   int
	batchSize  int

	state State
}

// New creates a pipeline over the given fetcher and AI classifier.
// Zero or negative settings fall back to the policy defaults
// (7 days, 30 messages, batches of 5).
func New(fetcher Fetcher, ai batchClassifier, fetch model.FetchConfig, batchSize int) *Pipeline {
	windowDays := fetch.WindowDays
	if windowDays <= 0 {
		windowDays = 7
	}
	maxCount := fetch.MaxCount
	if maxCount < 0 {
		maxCount = 0
	}
	if batchSize <= 0 {
		batchSize = 5
	}

	return &Pipeline{
		fetcher:    fetcher,
		ai:         ai,
		rules:      classify.NewRuleClassifier(),
		windowDays: windowDays,
		maxCount:   maxCount,
		batchSize:  batchSize,
		state:      StateIdle,
	}
}

// State returns the stage the most recent run reached.
func (p *Pipeline) State() State {
	return p.state
}

// Run executes the full pipeline and returns the classified records in
// fetch order. It returns an error only for fatal connection-stage
// failures (bad credentials or an unreachable mailbox); provider and
// parse failures degrade to the rule-based classifier and are reported
// in the Result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()

	p.setState(StateConnecting, logger)
	p.setState(StateFetching, logger)

	rawMsgs, err := p.fetcher.FetchRecent(ctx, p.windowDays, p.maxCount)
	if err != nil {
		p.state = StateFailed
		return nil, err
	}

	p.setState(StateNormalizing, logger)

	result := &Result{}
	emails := make([]model.NormalizedEmail, 0, len(rawMsgs))
	for _, raw := range rawMsgs {
		email, err := normalize.Normalize(raw)
		if err != nil {
			result.Dropped++
			logger.Warn().Err(err).Uint32("uid", raw.UID).
				Msg("dropping message that could not be normalized")
			continue
		}
		emails = append(emails, email)
	}

	p.setState(StateClassifying, logger)

	aiDisabled := false
	result.Records = make([]model.ClassifiedRecord, 0, len(emails))
	for i, batch := range partition(emails, p.batchSize) {
		if aiDisabled {
			result.Records = append(result.Records, p.classifyByRules(batch)...)
			continue
		}

		records, err := p.ai.ClassifyBatch(ctx, batch)
		if err != nil {
			result.ProviderFailures = append(result.ProviderFailures, err)
			if classify.IsUnauthorized(err) {
				aiDisabled = true
				logger.Warn().Err(err).
					Msg("provider rejected credentials, using rule-based classification for remaining batches")
			} else {
				logger.Warn().Err(err).Int("batch", i).
					Msg("batch classification failed, falling back to rules")
			}
			records = p.classifyByRules(batch)
		}
		result.Records = append(result.Records, records...)
	}

	p.setState(StateDone, logger)
	logger.Info().
		Int("fetched", len(rawMsgs)).
		Int("classified", len(result.Records)).
		Int("dropped", result.Dropped).
		Int("provider_failures", len(result.ProviderFailures)).
		Msg("run complete")

	return result, nil
}

// classifyByRules runs the unconditional fallback over a batch,
// preserving intra-batch order.
func (p *Pipeline) classifyByRules(batch []model.NormalizedEmail) []model.ClassifiedRecord {
	records := make([]model.ClassifiedRecord, len(batch))
	for i, email := range batch {
		records[i] = p.rules.ClassifyOne(email)
	}
	return records
}

func (p *Pipeline) setState(s State, logger zerolog.Logger) {
	p.state = s
	logger.Debug().Str("state", s.String()).Msg("pipeline stage")
}

// partition splits emails into ordered batches of at most size
// elements: no overlap, no omission, concatenation in order
// reconstructs the input.
func partition(emails []model.NormalizedEmail, size int) [][]model.NormalizedEmail {
	if len(emails) == 0 {
		return nil
	}

	var batches [][]model.NormalizedEmail
	for start := 0; start < len(emails); start += size {
		end := start + size
		if end > len(emails) {
			end = len(emails)
		}
		batches = append(batches, emails[start:end])
	}
	return batches
}
