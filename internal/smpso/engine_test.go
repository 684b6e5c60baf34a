package smpso

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/paretoswarm/internal/indicator"
	"github.com/cwbudde/paretoswarm/internal/moo"
	"github.com/cwbudde/paretoswarm/internal/problem"
	"github.com/cwbudde/paretoswarm/internal/random"
)

// recorder wraps a problem and keeps every decision vector it evaluates.
type recorder struct {
	moo.Problem
	seen [][]float64
}

func (r *recorder) Evaluate(x []float64) ([]float64, error) {
	r.seen = append(r.seen, append([]float64(nil), x...))
	return r.Problem.Evaluate(x)
}

// failing returns an error once it has been evaluated after times calls.
type failing struct {
	moo.Problem
	after int
	calls int
}

var errBoom = errors.New("boom")

func (f *failing) Evaluate(x []float64) ([]float64, error) {
	f.calls++
	if f.calls > f.after {
		return nil, errBoom
	}
	return f.Problem.Evaluate(x)
}

func smallConfig(numVars int) Config {
	cfg := DefaultConfig(numVars)
	cfg.SwarmSize = 20
	cfg.ArchiveSize = 20
	cfg.MaxIterations = 10
	cfg.Seed = 42
	return cfg
}

func variablesOf(front []*moo.Solution) [][]float64 {
	out := make([][]float64, len(front))
	for i, s := range front {
		out[i] = s.Variables
	}
	return out
}

func objectivesOf(front []*moo.Solution) [][]float64 {
	out := make([][]float64, len(front))
	for i, s := range front {
		out[i] = s.Objectives
	}
	return out
}

func requireMutuallyNonDominated(t *testing.T, front []*moo.Solution) {
	t.Helper()
	for i := range front {
		for j := range front {
			if i == j {
				continue
			}
			require.False(t, moo.Dominates(front[i].Objectives, front[j].Objectives),
				"member %d dominates member %d", i, j)
		}
	}
}

func TestConstrictionCoefficient(t *testing.T) {
	assert.InDelta(t, 0.729843788, ConstrictionCoefficient(2.05, 2.05), 1e-9)
	assert.Equal(t, 1.0, ConstrictionCoefficient(1.5, 1.5))
	assert.Equal(t, 1.0, ConstrictionCoefficient(2, 2))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig(10).Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"swarm size", func(c *Config) { c.SwarmSize = 0 }},
		{"archive size", func(c *Config) { c.ArchiveSize = -1 }},
		{"iterations", func(c *Config) { c.MaxIterations = 0 }},
		{"c1", func(c *Config) { c.C1 = -1 }},
		{"velocity fraction", func(c *Config) { c.InitialVelocityFraction = 2 }},
		{"mutation probability", func(c *Config) { c.MutationProbability = 1.5 }},
		{"mutation every", func(c *Config) { c.MutationEvery = -6 }},
		{"update", func(c *Config) { c.Update = "later" }},
		{"tie", func(c *Config) { c.Tie = "" }},
		{"leader", func(c *Config) { c.Leader = "best" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(10)
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, moo.ErrConfiguration))

			_, err = New(problem.NewZDT1(10), cfg)
			assert.True(t, errors.Is(err, moo.ErrConfiguration))
		})
	}
}

func TestNew_RejectsInvalidProblem(t *testing.T) {
	_, err := New(nil, DefaultConfig(10))
	assert.True(t, errors.Is(err, moo.ErrConfiguration))

	_, err = New(problem.NewZDT1(0), DefaultConfig(0))
	assert.True(t, errors.Is(err, moo.ErrConfiguration))
}

func TestStep_StateMachine(t *testing.T) {
	cfg := smallConfig(5)
	cfg.MaxIterations = 2
	e, err := New(problem.NewZDT1(5), cfg)
	require.NoError(t, err)
	assert.Equal(t, Uninitialized, e.State())

	ctx := context.Background()
	assert.ErrorIs(t, e.Step(ctx), ErrState)

	require.NoError(t, e.Initialize(ctx))
	assert.Equal(t, Running, e.State())
	assert.ErrorIs(t, e.Initialize(ctx), ErrState)

	require.NoError(t, e.Step(ctx))
	assert.Equal(t, Running, e.State())
	require.NoError(t, e.Step(ctx))
	assert.Equal(t, Terminated, e.State())
	assert.Equal(t, 2, e.Generation())
	assert.Equal(t, 3*cfg.SwarmSize, e.Evaluations())

	assert.ErrorIs(t, e.Step(ctx), ErrState)
}

func TestRun_BoundContainment(t *testing.T) {
	p := problem.NewZDT4(10)
	cfg := smallConfig(10)
	cfg.InitialVelocityFraction = 1
	e, err := New(p, cfg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, e.Initialize(ctx))
	for e.State() == Running {
		require.NoError(t, e.Step(ctx))
		for _, particle := range e.Swarm() {
			for j, v := range particle.Position.Variables {
				require.GreaterOrEqual(t, v, p.LowerBound(j))
				require.LessOrEqual(t, v, p.UpperBound(j))
				require.LessOrEqual(t, particle.Velocity[j], e.deltaMax[j])
				require.GreaterOrEqual(t, particle.Velocity[j], -e.deltaMax[j])
			}
		}
	}
}

func TestRun_Reproducible(t *testing.T) {
	for _, mode := range []UpdateMode{UpdateAsync, UpdateSync} {
		t.Run(string(mode), func(t *testing.T) {
			run := func() (*recorder, *Result) {
				rec := &recorder{Problem: problem.NewZDT1(8)}
				cfg := smallConfig(8)
				cfg.Update = mode
				e, err := New(rec, cfg)
				require.NoError(t, err)
				res, err := e.Run(context.Background())
				require.NoError(t, err)
				return rec, res
			}

			rec1, res1 := run()
			rec2, res2 := run()
			if diff := cmp.Diff(rec1.seen, rec2.seen); diff != "" {
				t.Fatalf("evaluated sequences differ (-first +second):\n%s", diff)
			}
			if diff := cmp.Diff(variablesOf(res1.Front), variablesOf(res2.Front)); diff != "" {
				t.Fatalf("fronts differ (-first +second):\n%s", diff)
			}
			assert.Equal(t, uint64(42), res1.Seed)
		})
	}
}

func TestRun_DifferentSeedsDiverge(t *testing.T) {
	cfg := smallConfig(8)
	a, err := New(problem.NewZDT1(8), cfg)
	require.NoError(t, err)
	cfg.Seed = 43
	b, err := New(problem.NewZDT1(8), cfg)
	require.NoError(t, err)

	resA, err := a.Run(context.Background())
	require.NoError(t, err)
	resB, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, cmp.Diff(variablesOf(resA.Front), variablesOf(resB.Front)))
}

func TestRun_UpdateModesDiffer(t *testing.T) {
	seen := map[UpdateMode][][]float64{}
	for _, mode := range []UpdateMode{UpdateAsync, UpdateSync} {
		rec := &recorder{Problem: problem.NewZDT1(8)}
		cfg := smallConfig(8)
		cfg.Update = mode
		e, err := New(rec, cfg)
		require.NoError(t, err)
		_, err = e.Run(context.Background())
		require.NoError(t, err)
		seen[mode] = rec.seen
	}

	async, sync := seen[UpdateAsync], seen[UpdateSync]
	require.Len(t, sync, len(async))
	// Initialization draws the same swarm; the orderings only diverge once
	// particles start reading an archive the other mode has not updated yet.
	assert.Empty(t, cmp.Diff(async[:20], sync[:20]))
	assert.NotEmpty(t, cmp.Diff(async, sync))
}

func TestRun_SingleGenerationScenario(t *testing.T) {
	rec := &recorder{Problem: problem.NewZDT1(6)}
	cfg := DefaultConfig(6)
	cfg.SwarmSize = 10
	cfg.ArchiveSize = 5
	cfg.MaxIterations = 1
	cfg.Seed = 7

	e, err := New(rec, cfg)
	require.NoError(t, err)
	res, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Generations)
	assert.Equal(t, 20, res.Evaluations)
	require.NotEmpty(t, res.Front)
	assert.LessOrEqual(t, len(res.Front), 5)
	requireMutuallyNonDominated(t, res.Front)
	for _, s := range res.Front {
		assert.Contains(t, rec.seen, s.Variables)
	}
}

func TestRun_EvaluationErrorAborts(t *testing.T) {
	f := &failing{Problem: problem.NewZDT1(5), after: 25}
	e, err := New(f, smallConfig(5))
	require.NoError(t, err)

	res, err := e.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, moo.ErrEvaluation))
	assert.True(t, errors.Is(err, errBoom))
	assert.Equal(t, Failed, e.State())
	assert.ErrorIs(t, e.Err(), errBoom)
	assert.Equal(t, 26, f.calls)
}

func TestRun_FailedEngineStaysFailed(t *testing.T) {
	f := &failing{Problem: problem.NewZDT1(5), after: 30}
	e, err := New(f, smallConfig(5))
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	require.ErrorIs(t, err, errBoom)

	res, err := e.Run(context.Background())
	assert.Nil(t, res, "a failed run must not yield a front")
	assert.ErrorIs(t, err, ErrState)
	assert.ErrorIs(t, err, moo.ErrEvaluation)
	assert.ErrorIs(t, err, errBoom)

	assert.ErrorIs(t, e.Step(context.Background()), ErrState)
	assert.ErrorIs(t, e.Initialize(context.Background()), errBoom)
	assert.Equal(t, Failed, e.State())
	assert.Nil(t, e.Result())
	assert.Equal(t, 31, f.calls, "no evaluations after the failure")
}

func TestStep_FailureIsFinal(t *testing.T) {
	f := &failing{Problem: problem.NewZDT1(5), after: 25}
	e, err := New(f, smallConfig(5))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, e.Initialize(ctx))
	require.ErrorIs(t, e.Step(ctx), errBoom)
	assert.Equal(t, Failed, e.State())
	assert.Equal(t, 0, e.Generation())

	_, err = e.Run(ctx)
	assert.ErrorIs(t, err, ErrState)
	assert.Equal(t, 26, f.calls)
}

func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []Progress
	cfg := smallConfig(5)
	e, err := New(problem.NewZDT2(5), cfg, WithObserver(func(p Progress) {
		seen = append(seen, p)
		if p.Generation == 2 {
			cancel()
		}
	}))
	require.NoError(t, err)

	res, err := e.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.True(t, res.Canceled)
	assert.Equal(t, 2, res.Generations)
	assert.NotEmpty(t, res.Front)
	requireMutuallyNonDominated(t, res.Front)
	assert.Len(t, seen, 3)
	assert.Equal(t, Running, e.State())
}

func TestRun_ObserverSeesEveryGeneration(t *testing.T) {
	var seen []Progress
	cfg := smallConfig(5)
	e, err := New(problem.NewZDT3(5), cfg, WithObserver(func(p Progress) {
		seen = append(seen, p)
	}))
	require.NoError(t, err)
	_, err = e.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, seen, cfg.MaxIterations+1)
	for i, p := range seen {
		assert.Equal(t, i, p.Generation)
		assert.Equal(t, (i+1)*cfg.SwarmSize, p.Evaluations)
		assert.LessOrEqual(t, p.ArchiveSize, cfg.ArchiveSize)
	}
}

func TestRun_InvariantsAcrossStrategies(t *testing.T) {
	for _, mode := range []UpdateMode{UpdateAsync, UpdateSync} {
		for _, leader := range []LeaderKind{LeaderUniform, LeaderCrowding, LeaderHypervolume} {
			for _, tie := range []TieRule{TieKeep, TieReplace, TieRandom} {
				name := string(mode) + "/" + string(leader) + "/" + string(tie)
				t.Run(name, func(t *testing.T) {
					cfg := smallConfig(6)
					cfg.ArchiveSize = 8
					cfg.Update = mode
					cfg.Leader = leader
					cfg.Tie = tie
					e, err := New(problem.NewZDT1(6), cfg)
					require.NoError(t, err)
					res, err := e.Run(context.Background())
					require.NoError(t, err)
					assert.LessOrEqual(t, len(res.Front), cfg.ArchiveSize)
					requireMutuallyNonDominated(t, res.Front)
				})
			}
		}
	}
}

func TestRun_ThreeObjectives(t *testing.T) {
	e, err := New(problem.NewDTLZ2(8, 3), smallConfig(8))
	require.NoError(t, err)
	res, err := e.Run(context.Background())
	require.NoError(t, err)
	for _, s := range res.Front {
		assert.Len(t, s.Objectives, 3)
	}
	requireMutuallyNonDominated(t, res.Front)
}

func TestRun_ConvergesOnZDT1(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping convergence run in short mode")
	}
	cfg := DefaultConfig(30)
	cfg.MaxIterations = 150
	cfg.Seed = 1
	e, err := New(problem.NewZDT1(30), cfg)
	require.NoError(t, err)
	res, err := e.Run(context.Background())
	require.NoError(t, err)

	hv := indicator.Hypervolume(objectivesOf(res.Front), []float64{1, 1})
	// The optimal front covers 2/3 of the unit box.
	assert.Greater(t, hv, 0.5)
}

func TestInitialize_Velocity(t *testing.T) {
	p := problem.NewZDT4(10)
	e, err := New(p, smallConfig(10))
	require.NoError(t, err)
	require.NoError(t, e.Initialize(context.Background()))
	for _, particle := range e.Swarm() {
		for _, v := range particle.Velocity {
			require.Zero(t, v)
		}
		require.True(t, particle.Best.SameVariables(particle.Position))
	}

	cfg := smallConfig(10)
	cfg.InitialVelocityFraction = 0.25
	e, err = New(p, cfg)
	require.NoError(t, err)
	require.NoError(t, e.Initialize(context.Background()))
	for _, particle := range e.Swarm() {
		for j, v := range particle.Velocity {
			span := 0.25 * (p.UpperBound(j) - p.LowerBound(j))
			require.GreaterOrEqual(t, v, -span)
			require.Less(t, v, span)
		}
	}
}

func TestUpdateBest_TieRules(t *testing.T) {
	newEngine := func(tie TieRule) *Engine {
		cfg := smallConfig(2)
		cfg.Tie = tie
		e, err := New(problem.NewZDT1(2), cfg)
		require.NoError(t, err)
		return e
	}
	particle := func(pos, best []float64) *Particle {
		p := &Particle{
			Position: moo.NewSolution([]float64{0.1, 0.1}, 2),
			Best:     moo.NewSolution([]float64{0.2, 0.2}, 2),
		}
		// Objectives are set directly; only dominance matters here.
		p.Position.Objectives = pos
		p.Best.Objectives = best
		return p
	}

	p := particle([]float64{1, 2}, []float64{2, 1})
	require.NoError(t, newEngine(TieKeep).updateBest(p))
	assert.Equal(t, []float64{0.2, 0.2}, p.Best.Variables)

	p = particle([]float64{1, 2}, []float64{2, 1})
	require.NoError(t, newEngine(TieReplace).updateBest(p))
	assert.Equal(t, []float64{0.1, 0.1}, p.Best.Variables)

	p = particle([]float64{1, 1}, []float64{2, 2})
	require.NoError(t, newEngine(TieKeep).updateBest(p))
	assert.Equal(t, []float64{0.1, 0.1}, p.Best.Variables)

	p = particle([]float64{3, 3}, []float64{2, 2})
	require.NoError(t, newEngine(TieReplace).updateBest(p))
	assert.Equal(t, []float64{0.2, 0.2}, p.Best.Variables)
}

func TestLeaderSelectors_EmptyArchiveFallsBack(t *testing.T) {
	cfg := smallConfig(2)
	e, err := New(problem.NewZDT1(2), cfg)
	require.NoError(t, err)
	rng := random.New(1)
	for _, s := range []LeaderSelector{UniformSelector{}, CrowdingTournamentSelector{}, &HypervolumeSelector{Offset: 1}} {
		assert.Nil(t, s.Select(rng, e.Archive()))
	}
}

func TestLeaderSelectors_ReturnMembers(t *testing.T) {
	e, err := New(problem.NewZDT1(6), smallConfig(6))
	require.NoError(t, err)
	require.NoError(t, e.Initialize(context.Background()))
	a := e.Archive()
	require.Greater(t, a.Len(), 0)

	rng := random.New(3)
	for _, s := range []LeaderSelector{UniformSelector{}, CrowdingTournamentSelector{}, &HypervolumeSelector{Offset: 1}} {
		for i := 0; i < 50; i++ {
			leader := s.Select(rng, a)
			require.NotNil(t, leader)
			found := false
			for k := 0; k < a.Len(); k++ {
				if a.At(k) == leader {
					found = true
				}
			}
			require.True(t, found)
		}
	}
}

func TestTournament_Distinct(t *testing.T) {
	rng := random.New(9)
	for i := 0; i < 200; i++ {
		a, b := tournament(rng, 4)
		require.NotEqual(t, a, b)
		require.True(t, a >= 0 && a < 4 && b >= 0 && b < 4)
	}
	a, b := tournament(rng, 1)
	assert.Equal(t, 0, a)
	assert.Equal(t, 0, b)
}

func TestWithSource(t *testing.T) {
	e, err := New(problem.NewZDT1(4), smallConfig(4), WithSource(random.New(99)))
	require.NoError(t, err)
	assert.Equal(t, uint64(99), e.Seed())
}
