package highs

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/vsinha/rollalloc/pkg/infrastructure/solver"
)

func TestTimeLimit(t *testing.T) {
	assert.Equal(t, 5*time.Second, timeLimit(context.Background(), 5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.LessOrEqual(t, timeLimit(ctx, time.Minute), time.Second)
	assert.LessOrEqual(t, timeLimit(ctx, 0), time.Second)
}

func TestTranslate(t *testing.T) {
	model := solver.NewModel()
	x := model.NewInteger("x")
	z := model.NewBinary("z")
	model.AddConstraints(solver.Constraint{
		Terms: []solver.Term{{Var: x, Coef: 1}, {Var: z, Coef: -10}},
		Sense: solver.LessOrEqual,
	})
	model.SetMaximize(true)
	model.AddObjectiveTerm(x, 2)

	m, vars := translate(model)
	assert.NotNil(t, m)
	assert.Len(t, vars, 2)
}

func TestSolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(zerolog.Nop()).Solve(ctx, solver.NewModel(), solver.Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeVerdict struct {
	infeasible, unbounded bool
}

func (f fakeVerdict) IsInfeasible() bool { return f.infeasible }
func (f fakeVerdict) IsUnbounded() bool  { return f.unbounded }

func TestEmptyStatus(t *testing.T) {
	testCases := []struct {
		name     string
		result   verdict
		expected solver.Status
	}{
		{"no result", nil, solver.NotSolved},
		{"time out", fakeVerdict{}, solver.NotSolved},
		{"proven infeasible", fakeVerdict{infeasible: true}, solver.Infeasible},
		{"unbounded", fakeVerdict{unbounded: true}, solver.Unbounded},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status := emptyStatus(tc.result)
			assert.Equal(t, tc.expected, status, "Expected %s, got %s", tc.expected, status)
		})
	}
}
