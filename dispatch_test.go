package tine_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/roach88/tine"
	"github.com/roach88/tine/internal/testutil"
)

var errNoPids = errors.New("resource temporarily unavailable")

// TestDispatch_ChildOnly covers the chain that declares only a child
// clause: in the child branch the handler runs exactly once, in the
// parent branch nothing runs and execution continues past the chain.
func TestDispatch_ChildOnly(t *testing.T) {
	t.Run("child branch", func(t *testing.T) {
		rec := testutil.NewRecorder()
		prim := testutil.NewScriptedPrimitive(testutil.ChildSide())

		out := tine.New(tine.WithPrimitive(prim)).
			Child(rec.Child()).
			Dispatch()

		assert.True(t, out.InChild())
		assert.Equal(t, []string{"child"}, rec.Events())
		assert.Equal(t, 1, prim.Calls())
	})

	t.Run("parent branch", func(t *testing.T) {
		rec := testutil.NewRecorder()
		prim := testutil.NewScriptedPrimitive(testutil.ParentOf(4242))

		out := tine.New(tine.WithPrimitive(prim)).
			Child(rec.Child()).
			Dispatch()

		assert.True(t, out.InParent())
		assert.Equal(t, 4242, out.ChildPID())
		assert.Empty(t, rec.Events(), "parent branch must not run the child handler")
	})
}

// TestDispatch_RetryUntilSuccess forces failures on attempts 1 and 2 and
// success on attempt 3: the retry policy is consulted exactly twice,
// with arguments 1 then 2, and the parent handler fires exactly once.
func TestDispatch_RetryUntilSuccess(t *testing.T) {
	rec := testutil.NewRecorder()
	prim := testutil.NewScriptedPrimitive(
		testutil.Fail(errNoPids),
		testutil.Fail(errNoPids),
		testutil.ParentOf(99),
	)

	out := tine.New(tine.WithPrimitive(prim)).
		Retry(rec.Retry(func(attempt int) bool { return attempt < 3 })).
		Parent(rec.Parent()).
		Child(rec.Child()).
		Dispatch()

	assert.True(t, out.InParent())
	assert.Equal(t, []string{"retry:1", "retry:2", "parent:99"}, rec.Events())
	assert.Equal(t, 3, prim.Calls(), "first success must end the loop")
}

// TestDispatch_NoRetryEscalates covers a declining policy with a
// declared error clause: exactly one attempt, error handler invoked
// once with attempts=1.
func TestDispatch_NoRetryEscalates(t *testing.T) {
	rec := testutil.NewRecorder()
	prim := testutil.NewScriptedPrimitive(testutil.Fail(errNoPids))

	out := tine.New(tine.WithPrimitive(prim)).
		Retry(rec.Retry(func(int) bool { return false })).
		OnError(rec.Error()).
		Dispatch()

	assert.True(t, out.Failed())
	assert.Equal(t, 1, out.Attempts())
	assert.ErrorIs(t, out.Err(), errNoPids)
	assert.Equal(t, []string{"retry:1", "error:1"}, rec.Events())
	assert.Equal(t, 1, prim.Calls())
}

// TestDispatch_DefaultErrorHandler covers the bare chain on failure:
// one attempt, a diagnostic embedding the platform error text, exit(1).
func TestDispatch_DefaultErrorHandler(t *testing.T) {
	var logBuf bytes.Buffer
	var exitCode int
	exited := false

	prim := testutil.NewScriptedPrimitive(testutil.Fail(errNoPids))
	out := tine.New(
		tine.WithPrimitive(prim),
		tine.WithLogger(slog.New(slog.NewTextHandler(&logBuf, nil))),
		tine.WithExit(func(code int) { exitCode = code; exited = true }),
	).Dispatch()

	assert.True(t, out.Failed())
	assert.Equal(t, 1, out.Attempts())
	require.True(t, exited, "default error handler must terminate the process")
	assert.Equal(t, 1, exitCode)
	assert.Contains(t, logBuf.String(), "resource temporarily unavailable")
}

// TestDispatch_BareChainSucceeds: a chain with no clauses at all still
// performs exactly one attempt and no-ops in the surviving branch.
func TestDispatch_BareChainSucceeds(t *testing.T) {
	prim := testutil.NewScriptedPrimitive(testutil.ParentOf(51))

	out := tine.New(tine.WithPrimitive(prim)).Dispatch()

	assert.True(t, out.InParent())
	assert.Equal(t, 51, out.ChildPID())
	assert.Equal(t, 1, prim.Calls())
}

// TestDispatch_DefaultsAreIdempotent: declaring an explicit no-op parent
// clause changes nothing about the parent branch of a child-only chain.
func TestDispatch_DefaultsAreIdempotent(t *testing.T) {
	run := func(declareParent bool) (tine.Outcome, []string) {
		rec := testutil.NewRecorder()
		prim := testutil.NewScriptedPrimitive(testutil.ParentOf(12))
		cs := tine.New(tine.WithPrimitive(prim)).Child(rec.Child())
		if declareParent {
			cs.Parent(func(int) {})
		}
		return cs.Dispatch(), rec.Events()
	}

	outA, eventsA := run(false)
	outB, eventsB := run(true)

	assert.Equal(t, outA.Kind(), outB.Kind())
	assert.Equal(t, outA.ChildPID(), outB.ChildPID())
	assert.Equal(t, eventsA, eventsB)
}

// TestDispatch_ObserverSeesEveryEvent verifies observer ordering: one
// AttemptFailed per failure, then a single Dispatched with the fixed
// outcome, before the handler runs.
func TestDispatch_ObserverSeesEveryEvent(t *testing.T) {
	obs := &recordingObserver{}
	rec := testutil.NewRecorder()
	prim := testutil.NewScriptedPrimitive(
		testutil.Fail(errNoPids),
		testutil.ChildSide(),
	)

	out := tine.New(
		tine.WithPrimitive(prim),
		tine.WithObserver(obs),
		tine.WithTokenGenerator(tine.NewFixedGenerator("chain-obs")),
	).
		Retry(func(attempt int) bool { return attempt < 2 }).
		Child(rec.Child()).
		Dispatch()

	assert.True(t, out.InChild())
	require.Len(t, obs.failures, 1)
	assert.Equal(t, "chain-obs", obs.failures[0].token)
	assert.Equal(t, 1, obs.failures[0].attempt)
	require.Len(t, obs.dispatched, 1)
	assert.Equal(t, "child", obs.dispatched[0].outcome.Kind())
}

func TestRun_DispatchesWhenCallerForgets(t *testing.T) {
	rec := testutil.NewRecorder()
	prim := testutil.NewScriptedPrimitive(testutil.ParentOf(33))

	out := tine.Run(func(cs *tine.ClauseSet) {
		cs.Parent(rec.Parent())
		// No explicit Dispatch: the scope triggers it.
	}, tine.WithPrimitive(prim))

	assert.True(t, out.InParent())
	assert.Equal(t, []string{"parent:33"}, rec.Events())
	assert.Equal(t, 1, prim.Calls())
}

func TestRun_NoDoubleDispatch(t *testing.T) {
	prim := testutil.NewScriptedPrimitive(testutil.ParentOf(33))

	out := tine.Run(func(cs *tine.ClauseSet) {
		inner := cs.Dispatch()
		assert.True(t, inner.InParent())
	}, tine.WithPrimitive(prim))

	assert.True(t, out.InParent())
	assert.Equal(t, 33, out.ChildPID())
	assert.Equal(t, 1, prim.Calls(), "Run must not dispatch an already-consumed chain")
}

func TestRun_DispatchesOnPanicUnwind(t *testing.T) {
	prim := testutil.NewScriptedPrimitive(testutil.ParentOf(33))

	func() {
		defer func() {
			r := recover()
			assert.Equal(t, "caller bug", r, "the caller's panic must propagate")
		}()
		tine.Run(func(cs *tine.ClauseSet) {
			panic("caller bug")
		}, tine.WithPrimitive(prim))
	}()

	assert.Equal(t, 1, prim.Calls(), "the chain still fires on the unwind path")
}

func TestRun_MisuseNeverReachesThePrimitive(t *testing.T) {
	prim := testutil.NewScriptedPrimitive(testutil.ParentOf(33))

	func() {
		defer func() {
			r := recover()
			usageErr, ok := r.(*tine.UsageError)
			require.True(t, ok, "the usage error must propagate out of Run")
			assert.Equal(t, tine.ErrCodeDuplicateClause, usageErr.Code)
		}()
		tine.Run(func(cs *tine.ClauseSet) {
			cs.Parent(nil).Parent(nil)
		}, tine.WithPrimitive(prim))
	}()

	assert.Equal(t, 0, prim.Calls(), "misuse is synchronous: no duplication attempt follows it")
}

// recordingObserver captures observer events for assertions.
type recordingObserver struct {
	failures   []observedFailure
	dispatched []observedDispatch
}

type observedFailure struct {
	token   string
	attempt int
	err     error
}

type observedDispatch struct {
	token   string
	outcome tine.Outcome
}

func (o *recordingObserver) AttemptFailed(token string, attempt int, err error) {
	o.failures = append(o.failures, observedFailure{token, attempt, err})
}

func (o *recordingObserver) Dispatched(token string, outcome tine.Outcome) {
	o.dispatched = append(o.dispatched, observedDispatch{token, outcome})
}
