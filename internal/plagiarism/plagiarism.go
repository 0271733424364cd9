package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/winnow/internal/models"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidKGrams     = errors.New("k-gram size must be at least 1")
	ErrInvalidWindow     = errors.New("window size must be at least 1")
	ErrNoDocuments       = errors.New("no documents to compare")
	ErrDuplicateDocument = errors.New("duplicate document id")
	ErrNoFingerprints    = errors.New("document produced no fingerprints")
)

// finalStatusTimeout bounds the write of the completed or failed step
const finalStatusTimeout = 5 * time.Second

// Options configures a Detector
type Options struct {
	KGrams    int
	Window    int
	StopWords []string
	Comments  CommentFilter

	// RequireFingerprints fails the run when a document is shorter than
	// KGrams after normalization instead of scoring it as 0
	RequireFingerprints bool
}

// Validate checks the numeric parameters
func (o Options) Validate() error {
	if o.KGrams < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidKGrams, o.KGrams)
	}
	if o.Window < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWindow, o.Window)
	}
	return nil
}

// Detector runs the normalize → fingerprint → index → score pipeline.
// The stop-word matcher is compiled once and shared by every run.
type Detector struct {
	opts       Options
	normalizer *Normalizer
	pool       *WorkerPool
	tracker    StatusTracker
}

// NewDetector validates opts. pool may be nil for sequential fingerprinting
// and tracker may be nil to skip status updates.
func NewDetector(opts Options, pool *WorkerPool, tracker StatusTracker) (*Detector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if tracker == nil {
		tracker = NopTracker{}
	}

	return &Detector{
		opts:       opts,
		normalizer: NewNormalizer(opts.StopWords, opts.Comments),
		pool:       pool,
		tracker:    tracker,
	}, nil
}

// Options returns the validated configuration
func (d *Detector) Options() Options {
	return d.opts
}

// Report is the outcome of one run
type Report struct {
	RunID     string
	KGrams    int
	Window    int
	Documents []*Document
	Index     GII
	Matches   []Match
	Duration  time.Duration
}

// Stats returns per-document statistics in input order
func (r *Report) Stats() []DocumentStats {
	stats := make([]DocumentStats, 0, len(r.Documents))
	for _, doc := range r.Documents {
		stats = append(stats, doc.Stats())
	}
	return stats
}

// Filter returns the matches scoring at least minScore, keeping rank order
func (r *Report) Filter(minScore float64) []Match {
	if minScore <= 0 {
		return r.Matches
	}
	filtered := make([]Match, 0, len(r.Matches))
	for _, m := range r.Matches {
		if m.Score >= minScore {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// Fingerprint derives the normalized stream, line table and selected
// fingerprints of one source
func (d *Detector) Fingerprint(handle int, src Source) *Document {
	doc := &Document{Handle: handle, ID: src.ID}
	d.fill(doc, src.Text)
	return doc
}

func (d *Detector) fill(doc *Document, text string) {
	doc.Normalized, doc.Lines = d.normalizer.Normalize(text)
	doc.Fingerprints = Winnow(HashKGrams(doc.Normalized, d.opts.KGrams), d.opts.Window)
}

// Compare fingerprints every source and scores all ordered pairs
func (d *Detector) Compare(ctx context.Context, runID string, sources []Source) (*Report, error) {
	start := time.Now()

	report, err := d.compare(ctx, runID, sources)

	// the final step is written even when ctx is already done
	finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalStatusTimeout)
	defer cancel()

	if err != nil {
		d.updateStatus(finalCtx, runID, models.StepFailed)
		return nil, err
	}

	report.Duration = time.Since(start)
	d.updateStatus(finalCtx, runID, models.StepCompleted)

	log.Debug().
		Str("runId", runID).
		Int("documents", len(report.Documents)).
		Int("matches", len(report.Matches)).
		Dur("duration", report.Duration).
		Msg("Comparison completed")

	return report, nil
}

func (d *Detector) compare(ctx context.Context, runID string, sources []Source) (*Report, error) {
	if len(sources) == 0 {
		return nil, ErrNoDocuments
	}

	docs := make([]*Document, len(sources))
	seen := make(map[string]bool, len(sources))
	for i, src := range sources {
		if seen[src.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDocument, src.ID)
		}
		seen[src.ID] = true
		docs[i] = &Document{Handle: i, ID: src.ID}
	}

	d.updateStatus(ctx, runID, models.StepStarted)
	d.updateStatus(ctx, runID, models.StepNormalizing)
	if err := d.fingerprintAll(ctx, docs, sources); err != nil {
		return nil, err
	}

	if d.opts.RequireFingerprints {
		for _, doc := range docs {
			if len(doc.Fingerprints) == 0 {
				return nil, fmt.Errorf("%w: %s has %d normalized characters, k-gram size is %d",
					ErrNoFingerprints, doc.ID, len(doc.Normalized), d.opts.KGrams)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.updateStatus(ctx, runID, models.StepIndexing)
	gii := BuildGII(docs)
	log.Trace().
		Str("runId", runID).
		Int("hashes", len(gii)).
		Int("shared", gii.Shared()).
		Msg("Index built")

	d.updateStatus(ctx, runID, models.StepScoring)
	matches := Score(docs, gii, d.opts.KGrams)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Report{
		RunID:     runID,
		KGrams:    d.opts.KGrams,
		Window:    d.opts.Window,
		Documents: docs,
		Index:     gii,
		Matches:   matches,
	}, nil
}

// fingerprintJob fills one document on the worker pool
type fingerprintJob struct {
	detector *Detector
	doc      *Document
	text     string
	done     chan<- struct{}
}

func (j *fingerprintJob) Execute(ctx context.Context) error {
	defer func() { j.done <- struct{}{} }()
	j.detector.fill(j.doc, j.text)
	return nil
}

// fingerprintAll fills every document. Documents are independent, so the
// pool may process them in any order; each job writes only its own document.
func (d *Detector) fingerprintAll(ctx context.Context, docs []*Document, sources []Source) error {
	if d.pool == nil || len(docs) < 2 {
		for i, doc := range docs {
			if err := ctx.Err(); err != nil {
				return err
			}
			d.fill(doc, sources[i].Text)
		}
		return nil
	}

	done := make(chan struct{}, len(docs))
	submitted := 0
	for i, doc := range docs {
		job := &fingerprintJob{detector: d, doc: doc, text: sources[i].Text, done: done}
		if err := d.pool.Submit(ctx, job); err != nil {
			d.drain(done, submitted)
			return fmt.Errorf("failed to submit fingerprint job: %w", err)
		}
		submitted++
	}

	for finished := 0; finished < submitted; finished++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.pool.Done():
			return fmt.Errorf("worker pool closed: %w", context.Canceled)
		case <-done:
		}
	}

	return nil
}

// drain waits for already submitted jobs so none outlives a failed run
func (d *Detector) drain(done <-chan struct{}, submitted int) {
	for i := 0; i < submitted; i++ {
		select {
		case <-done:
		case <-d.pool.Done():
			return
		}
	}
}

func (d *Detector) updateStatus(ctx context.Context, runID string, step models.Step) {
	if runID == "" {
		return
	}
	if err := d.tracker.Update(ctx, runID, step); err != nil {
		log.Warn().Err(err).Str("runId", runID).Str("step", string(step)).Msg("Failed to update run status")
	}
}
