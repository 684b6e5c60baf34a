// Package smpso implements Speed-constrained Multi-objective Particle Swarm
// Optimization guided by a crowding-distance archive.
package smpso

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwbudde/paretoswarm/internal/archive"
	"github.com/cwbudde/paretoswarm/internal/moo"
	"github.com/cwbudde/paretoswarm/internal/mutation"
	"github.com/cwbudde/paretoswarm/internal/random"
)

// State is the lifecycle stage of an Engine.
type State int

const (
	Uninitialized State = iota
	Running
	Terminated
	// Failed is final: an evaluation or archive error aborted the run.
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrState is returned when an operation is not valid in the engine's current state.
var ErrState = errors.New("smpso: invalid engine state")

// Progress is reported to an Observer after initialization and after every generation.
type Progress struct {
	Generation  int `json:"generation"`
	Evaluations int `json:"evaluations"`
	ArchiveSize int `json:"archiveSize"`
}

// Observer receives progress updates. It runs on the engine's goroutine and must
// not call back into the engine.
type Observer func(Progress)

// Result is the outcome of a run.
type Result struct {
	Front       []*moo.Solution
	Generations int
	Evaluations int
	Seed        uint64
	Canceled    bool
}

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithLeaderSelector replaces the selector chosen by Config.Leader.
func WithLeaderSelector(s LeaderSelector) Option {
	return func(e *Engine) {
		e.leader = s
	}
}

// WithSource replaces the generator seeded from Config.Seed.
func WithSource(rng random.Source) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithObserver registers a progress callback.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// Engine runs SMPSO on one problem. An Engine is single-use and not safe for
// concurrent use.
type Engine struct {
	problem  moo.Problem
	cfg      Config
	rng      random.Source
	archive  *archive.CrowdingDistance
	leader   LeaderSelector
	mutation *mutation.Polynomial
	observer Observer
	logger   *slog.Logger

	swarm       []*Particle
	state       State
	err         error
	generation  int
	evaluations int
	chi         float64
	deltaMax    []float64
}

// New validates cfg against problem and builds an uninitialized engine.
func New(problem moo.Problem, cfg Config, opts ...Option) (*Engine, error) {
	if err := moo.ValidateProblem(problem); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a, err := archive.NewCrowdingDistance(cfg.ArchiveSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		problem: problem,
		cfg:     cfg,
		archive: a,
		chi:     ConstrictionCoefficient(cfg.C1, cfg.C2),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.rng == nil {
		if cfg.Seed == 0 {
			e.rng = random.NewAuto()
		} else {
			e.rng = random.New(cfg.Seed)
		}
	}
	if e.leader == nil {
		e.leader, err = NewLeaderSelector(cfg.Leader, cfg.HypervolumeOffset)
		if err != nil {
			return nil, err
		}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	e.mutation, err = mutation.NewPolynomial(cfg.DistributionIndex, cfg.MutationProbability, e.rng)
	if err != nil {
		return nil, err
	}

	n := problem.NumberOfVariables()
	e.deltaMax = make([]float64, n)
	for j := range e.deltaMax {
		e.deltaMax[j] = (problem.UpperBound(j) - problem.LowerBound(j)) / 2.0
	}
	return e, nil
}

// State returns the current lifecycle stage.
func (e *Engine) State() State {
	return e.state
}

// Err returns the error that moved the engine to Failed, or nil.
func (e *Engine) Err() error {
	return e.err
}

// stateError reports an operation attempted in the wrong state. For a failed
// engine it also wraps the error that aborted the run.
func (e *Engine) stateError(op string) error {
	if e.state == Failed {
		return fmt.Errorf("%w: %s called after failure: %w", ErrState, op, e.err)
	}
	return fmt.Errorf("%w: %s called while %s", ErrState, op, e.state)
}

// Generation returns the number of completed generations.
func (e *Engine) Generation() int {
	return e.generation
}

// Evaluations returns the number of problem evaluations so far.
func (e *Engine) Evaluations() int {
	return e.evaluations
}

// Seed returns the seed of the run's generator.
func (e *Engine) Seed() uint64 {
	return e.rng.Seed()
}

// Archive exposes the live archive. Callers must not modify it.
func (e *Engine) Archive() *archive.CrowdingDistance {
	return e.archive
}

// Swarm exposes the particles in swarm order. Callers must not modify them.
func (e *Engine) Swarm() []*Particle {
	return e.swarm
}

// Initialize creates the swarm at uniformly random positions, evaluates it and
// seeds the archive. It moves the engine from Uninitialized to Running.
func (e *Engine) Initialize(ctx context.Context) error {
	if e.state != Uninitialized {
		return e.stateError("initialize")
	}

	n := e.problem.NumberOfVariables()
	m := e.problem.NumberOfObjectives()
	e.swarm = make([]*Particle, 0, e.cfg.SwarmSize)
	for i := 0; i < e.cfg.SwarmSize; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		x := make([]float64, n)
		v := make([]float64, n)
		for j := 0; j < n; j++ {
			lo, hi := e.problem.LowerBound(j), e.problem.UpperBound(j)
			x[j] = e.rng.Between(lo, hi)
			if e.cfg.InitialVelocityFraction > 0 {
				span := e.cfg.InitialVelocityFraction * (hi - lo)
				v[j] = e.rng.Between(-span, span)
			}
		}

		p := &Particle{Position: moo.NewSolution(x, m), Velocity: v}
		if err := e.evaluate(p.Position); err != nil {
			return e.fail(err)
		}
		p.Best = p.Position.Clone()
		e.swarm = append(e.swarm, p)
		if _, err := e.archive.Add(p.Position); err != nil {
			return e.fail(err)
		}
	}

	e.state = Running
	e.logger.Info("swarm initialized",
		"problem", e.problem.Name(),
		"swarm_size", e.cfg.SwarmSize,
		"archive_size", e.archive.Len(),
		"seed", e.rng.Seed())
	e.notify()
	return nil
}

// Step runs one generation. When the generation counter reaches MaxIterations the
// engine terminates.
//
// A canceled context stops the generation between particles and returns
// ctx.Err(); the archive stays consistent and the generation is not counted.
func (e *Engine) Step(ctx context.Context) error {
	if e.state != Running {
		return e.stateError("step")
	}

	var pending []*moo.Solution
	if e.cfg.Update == UpdateSync {
		pending = make([]*moo.Solution, 0, len(e.swarm))
	}
	flush := func() error {
		for _, s := range pending {
			if _, err := e.archive.Add(s); err != nil {
				return err
			}
		}
		pending = pending[:0]
		return nil
	}

	for i, p := range e.swarm {
		if err := ctx.Err(); err != nil {
			if ferr := flush(); ferr != nil {
				return e.fail(ferr)
			}
			return err
		}

		leader := e.leader.Select(e.rng, e.archive)
		if leader == nil {
			leader = p.Best
		}
		e.move(p, leader)

		if e.cfg.MutationEvery > 0 && i%e.cfg.MutationEvery == 0 {
			e.mutation.Mutate(p.Position, e.problem)
		}

		if err := e.evaluate(p.Position); err != nil {
			return e.fail(err)
		}
		if err := e.updateBest(p); err != nil {
			return e.fail(err)
		}

		if e.cfg.Update == UpdateSync {
			pending = append(pending, p.Position.Clone())
			continue
		}
		if _, err := e.archive.Add(p.Position); err != nil {
			return e.fail(err)
		}
	}
	if err := flush(); err != nil {
		return e.fail(err)
	}

	e.generation++
	e.logger.Debug("generation complete",
		"generation", e.generation,
		"evaluations", e.evaluations,
		"archive_size", e.archive.Len())
	e.notify()

	if e.generation >= e.cfg.MaxIterations {
		e.state = Terminated
	}
	return nil
}

// Run initializes the engine if needed and steps until termination.
//
// On cancellation Run returns the partial result together with ctx.Err(). Any
// other error aborts the run, moves the engine to Failed and no result is
// returned, then or on any later call.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.state == Failed {
		return nil, e.stateError("run")
	}
	if e.state == Uninitialized {
		if err := e.Initialize(ctx); err != nil {
			return e.abort(ctx, err)
		}
	}
	for e.state == Running {
		if err := e.Step(ctx); err != nil {
			return e.abort(ctx, err)
		}
	}

	e.logger.Info("run finished",
		"problem", e.problem.Name(),
		"generations", e.generation,
		"evaluations", e.evaluations,
		"front_size", e.archive.Len(),
		"seed", e.rng.Seed())
	return e.Result(), nil
}

// Result snapshots the current front. It returns nil once the engine has failed.
func (e *Engine) Result() *Result {
	if e.state == Failed {
		return nil
	}
	return &Result{
		Front:       e.archive.Get(),
		Generations: e.generation,
		Evaluations: e.evaluations,
		Seed:        e.rng.Seed(),
	}
}

func (e *Engine) abort(ctx context.Context, err error) (*Result, error) {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		e.logger.Info("run canceled", "generation", e.generation, "evaluations", e.evaluations)
		res := e.Result()
		res.Canceled = true
		return res, err
	}
	return nil, err
}

// fail moves the engine to Failed and returns err.
func (e *Engine) fail(err error) error {
	e.state = Failed
	e.err = err
	e.logger.Error("run failed", "generation", e.generation, "evaluations", e.evaluations, "error", err)
	return err
}

func (e *Engine) evaluate(s *moo.Solution) error {
	if err := moo.Evaluate(e.problem, s); err != nil {
		return err
	}
	e.evaluations++
	return nil
}

func (e *Engine) notify() {
	if e.observer != nil {
		e.observer(Progress{
			Generation:  e.generation,
			Evaluations: e.evaluations,
			ArchiveSize: e.archive.Len(),
		})
	}
}
