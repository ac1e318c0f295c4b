package upload

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yourorg/motionsense/internal/analysis"
	"github.com/yourorg/motionsense/internal/inference"
	"github.com/yourorg/motionsense/internal/metrics"
	"github.com/yourorg/motionsense/pkg/types"
)

// GenericFailure is shown when a failure carries no specific message.
const GenericFailure = "Failed to process file. Please make sure the API server is running."

// Upload is one file selected by the user.
type Upload struct {
	Name string
	Data []byte
}

// Info describes u for validation.
func (u Upload) Info() FileInfo {
	return FileInfo{Name: u.Name, Size: int64(len(u.Data))}
}

// Options configure an Orchestrator. Zero values fall back to .txt/.csv,
// 50MB, a 60s timeout and +10% progress every 300ms capped at 90%.
type Options struct {
	AllowedExtensions []string
	MaxSizeBytes      int64
	Timeout           time.Duration
	ProgressInterval  time.Duration
	ProgressStep      int
	ProgressCap       int
	Recommendations   []string
	Now               func() time.Time
	Logger            zerolog.Logger
}

func (o *Options) setDefaults() {
	if len(o.AllowedExtensions) == 0 {
		o.AllowedExtensions = []string{".txt", ".csv"}
	}
	if o.MaxSizeBytes == 0 {
		o.MaxSizeBytes = 50 * 1024 * 1024
	}
	if o.Timeout == 0 {
		o.Timeout = 60 * time.Second
	}
	if o.ProgressInterval == 0 {
		o.ProgressInterval = 300 * time.Millisecond
	}
	if o.ProgressStep == 0 {
		o.ProgressStep = 10
	}
	if o.ProgressCap == 0 {
		o.ProgressCap = 90
	}
}

// Observer receives every state the orchestrator moves through. Observers
// run under the orchestrator's lock, in transition order, and must not call
// back into it.
type Observer func(State)

// Orchestrator owns the single "current upload" slot: it validates a file,
// runs the inference call alongside a progress estimator and publishes the
// resulting SessionAnalysis.
type Orchestrator struct {
	predictor inference.Predictor
	opts      Options
	logger    zerolog.Logger

	mu        sync.Mutex
	state     State
	gen       uint64
	estimator *estimator
	observers []Observer
}

// New returns an idle Orchestrator.
func New(p inference.Predictor, opts Options) *Orchestrator {
	opts.setDefaults()
	return &Orchestrator{
		predictor: p,
		opts:      opts,
		logger:    opts.Logger.With().Str("component", "upload").Logger(),
	}
}

// Observe registers fn for all future transitions.
func (o *Orchestrator) Observe(fn Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

// Snapshot returns the current state. The result is a private copy.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	s := o.state
	o.mu.Unlock()
	s.Result = s.Result.Clone()
	return s
}

// Validate applies the configured file constraints without submitting.
func (o *Orchestrator) Validate(file FileInfo) error {
	return Validate(file, o.opts.AllowedExtensions, o.opts.MaxSizeBytes)
}

// Submit validates up and, if accepted, starts analysing it in the
// background. Any earlier upload is superseded: its progress stops and its
// late result is discarded. A rejected file leaves the state untouched and
// never reaches the inference service.
func (o *Orchestrator) Submit(ctx context.Context, up Upload) (*Attempt, error) {
	info := up.Info()
	if err := o.Validate(info); err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		o.logger.Info().Str("file", info.Name).Int64("size", info.Size).
			Str("kind", types.KindOf(err).String()).Msg("upload rejected")
		return nil, err
	}

	a := newAttempt(uuid.NewString())

	o.mu.Lock()
	o.gen++
	gen := o.gen
	prev := o.estimator
	o.apply(FileAccepted(info, a.ID))
	est := startEstimator(o.opts.ProgressInterval, func() bool { return o.tick(gen) })
	o.estimator = est
	o.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}

	o.logger.Info().Str("attempt", a.ID).Str("file", info.Name).Int64("size", info.Size).Msg("upload accepted")
	go o.run(ctx, gen, a, up, est)
	return a, nil
}

// Analyze submits up and waits for its outcome.
func (o *Orchestrator) Analyze(ctx context.Context, up Upload) (*types.SessionAnalysis, error) {
	a, err := o.Submit(ctx, up)
	if err != nil {
		return nil, err
	}
	return a.Wait(ctx)
}

func (o *Orchestrator) tick(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen || o.state.Phase != PhaseUploading {
		return false
	}
	o.apply(Tick(o.opts.ProgressStep, o.opts.ProgressCap))
	return o.state.Progress < o.opts.ProgressCap
}

func (o *Orchestrator) run(ctx context.Context, gen uint64, a *Attempt, up Upload, est *estimator) {
	metrics.UploadsInFlight.Inc()
	start := time.Now()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.Timeout)
	result, err := o.analyze(callCtx, up)
	cancel()

	metrics.UploadsInFlight.Dec()
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.InferenceDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	// The estimator has fully stopped before any terminal state is visible.
	est.Stop()

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		metrics.UploadsTotal.WithLabelValues("superseded").Inc()
		o.logger.Debug().Str("attempt", a.ID).Msg("discarding superseded upload result")
		a.finish(nil, types.ErrSuperseded)
		return
	}
	if err != nil {
		o.apply(RequestFailed(types.UserMessage(err, GenericFailure)))
	} else {
		o.apply(RequestSucceeded(result))
	}
	o.mu.Unlock()

	metrics.UploadsTotal.WithLabelValues(outcome).Inc()
	if err != nil {
		o.logger.Warn().Err(err).Str("attempt", a.ID).Str("kind", types.KindOf(err).String()).Msg("upload failed")
		a.finish(nil, err)
		return
	}
	metrics.SessionsByRisk.WithLabelValues(string(result.RiskLevel)).Inc()
	metrics.WindowsAnalyzed.Add(float64(result.TotalWindows))
	o.logger.Info().Str("attempt", a.ID).Int("windows", result.TotalWindows).
		Float64("average_confidence", result.AverageConfidence).
		Str("risk_level", string(result.RiskLevel)).Msg("upload analysed")
	a.finish(result.Clone(), nil)
}

func (o *Orchestrator) analyze(ctx context.Context, up Upload) (*types.SessionAnalysis, error) {
	resp, err := o.predictor.Predict(ctx, up.Name, up.Data)
	if err != nil {
		return nil, classify(err)
	}
	return analysis.Build(up.Name, resp, analysis.BuildOptions{
		Recommendations: o.opts.Recommendations,
		Now:             o.opts.Now,
	})
}

// classify makes sure every inference failure carries a kind.
func classify(err error) error {
	if types.KindOf(err) != 0 {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.Wrap(types.KindRequestFailed, err, "Analysis service timed out")
	}
	return types.Wrap(types.KindRequestFailed, err, "")
}

// apply transitions the state and notifies observers. Callers hold o.mu.
func (o *Orchestrator) apply(ev Event) {
	o.state = o.state.Apply(ev)
	metrics.UploadProgress.Set(float64(o.state.Progress))
	o.logger.Debug().Str("event", ev.Kind.String()).Str("phase", o.state.Phase.String()).
		Int("progress", o.state.Progress).Msg("upload transition")
	for _, fn := range o.observers {
		fn(o.state)
	}
}

// Attempt is the handle of one submitted upload.
type Attempt struct {
	ID string

	done   chan struct{}
	result *types.SessionAnalysis
	err    error
}

func newAttempt(id string) *Attempt {
	return &Attempt{ID: id, done: make(chan struct{})}
}

func (a *Attempt) finish(result *types.SessionAnalysis, err error) {
	a.result, a.err = result, err
	close(a.done)
}

// Done is closed once the attempt has an outcome.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// Result returns the outcome; it is only meaningful after Done is closed.
func (a *Attempt) Result() (*types.SessionAnalysis, error) {
	select {
	case <-a.done:
		return a.result, a.err
	default:
		return nil, errors.New("upload still in progress")
	}
}

// Wait blocks until the attempt finishes or ctx ends.
func (a *Attempt) Wait(ctx context.Context) (*types.SessionAnalysis, error) {
	select {
	case <-a.done:
		return a.result, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
