package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptedSource replays a fixed list of lines, then returns finalErr.
type scriptedSource struct {
	lines    []string
	finalErr error
}

func (s *scriptedSource) Next() (string, error) {
	if len(s.lines) == 0 {
		if s.finalErr != nil {
			return "", s.finalErr
		}
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

type recorder struct {
	sessions  []string
	chunks    []string
	completes []string
	errs      []error
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnSession:  func(id string) { r.sessions = append(r.sessions, id) },
		OnChunk:    func(s string) { r.chunks = append(r.chunks, s) },
		OnComplete: func(id string) { r.completes = append(r.completes, id) },
		OnError:    func(err error) { r.errs = append(r.errs, err) },
	}
}

func TestRun_TokensArriveInOrder(t *testing.T) {
	rec := &recorder{}
	r := New(rec.callbacks())

	final := r.Run(context.Background(), &scriptedSource{lines: []string{
		`data: {"session_id":"abc","token":"A"}`,
		`data: {"token":"B"}`,
		`data: {"token":"C"}`,
		`data: {"done":true}`,
	}})

	require.Equal(t, StateCompleted, final)
	require.Equal(t, []string{"A", "B", "C"}, rec.chunks)
	require.Equal(t, "ABC", strings.Join(rec.chunks, ""))
	require.Equal(t, []string{"abc"}, rec.sessions)
	require.Equal(t, []string{"abc"}, rec.completes)
	require.Empty(t, rec.errs)
}

func TestRun_FirstSessionIDWins(t *testing.T) {
	rec := &recorder{}
	r := New(rec.callbacks())

	r.Run(context.Background(), &scriptedSource{lines: []string{
		`data: {"session_id":"first","token":"x"}`,
		`data: {"session_id":"second","token":"y"}`,
		`data: {"done":true}`,
	}})

	require.Equal(t, []string{"first"}, rec.sessions)
	require.Equal(t, "first", r.SessionID())
	require.Equal(t, []string{"first"}, rec.completes)
}

func TestRun_MalformedFramesAreSkipped(t *testing.T) {
	rec := &recorder{}
	r := New(rec.callbacks())

	final := r.Run(context.Background(), &scriptedSource{lines: []string{
		`data: {"token":"A"}`,
		`data: {not json`,
		``,
		`: keepalive comment`,
		`data: {"token":"B"}`,
		`data: {"done":true}`,
	}})

	require.Equal(t, StateCompleted, final)
	require.Equal(t, []string{"A", "B"}, rec.chunks)
	require.Empty(t, rec.errs)
}

func TestRun_ErrorFrameIsTerminal(t *testing.T) {
	rec := &recorder{}
	r := New(rec.callbacks())

	final := r.Run(context.Background(), &scriptedSource{lines: []string{
		`data: {"token":"partial"}`,
		`data: {"error":"model unavailable"}`,
		`data: {"token":"never delivered"}`,
	}})

	require.Equal(t, StateFailed, final)
	require.Equal(t, []string{"partial"}, rec.chunks)
	require.Len(t, rec.errs, 1)
	require.EqualError(t, rec.errs[0], "model unavailable")
	require.Empty(t, rec.completes)
}

// A stream ending without a done or error frame is abandonment, not success.
func TestRun_EOFWithoutTerminalFrame(t *testing.T) {
	rec := &recorder{}
	r := New(rec.callbacks())

	final := r.Run(context.Background(), &scriptedSource{lines: []string{
		`data: {"session_id":"abc","token":"half a rep"}`,
	}})

	require.Equal(t, StateFailed, final)
	require.Len(t, rec.errs, 1)
	require.ErrorIs(t, rec.errs[0], ErrDisconnected)
	require.Empty(t, rec.completes)
}

func TestRun_DeadlineBecomesTimeout(t *testing.T) {
	rec := &recorder{}
	r := New(rec.callbacks())

	final := r.Run(context.Background(), &scriptedSource{
		lines:    []string{`data: {"token":"slow"}`},
		finalErr: context.DeadlineExceeded,
	})

	require.Equal(t, StateTimedOut, final)
	require.Len(t, rec.errs, 1)
	require.ErrorIs(t, rec.errs[0], ErrTimedOut)
}

// Cancellation tears down silently: terminal state, no callbacks.
func TestRun_CancellationIsSilent(t *testing.T) {
	rec := &recorder{}
	r := New(rec.callbacks())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	final := r.Run(ctx, &scriptedSource{
		lines:    []string{`data: {"token":"part"}`},
		finalErr: context.Canceled,
	})

	require.Equal(t, StateCancelled, final)
	require.Empty(t, rec.errs)
	require.Empty(t, rec.completes)
}

func TestRun_NonDataLinesIgnored(t *testing.T) {
	rec := &recorder{}
	r := New(rec.callbacks())

	final := r.Run(context.Background(), &scriptedSource{lines: []string{
		`event: message`,
		`id: 42`,
		`data: {"token":"only this"}`,
		`data: {"done":true}`,
	}})

	require.Equal(t, StateCompleted, final)
	require.Equal(t, []string{"only this"}, rec.chunks)
}

// A done frame may carry a final token; both must take effect.
func TestRun_TokenOnTerminalFrame(t *testing.T) {
	rec := &recorder{}
	r := New(rec.callbacks())

	final := r.Run(context.Background(), &scriptedSource{lines: []string{
		`data: {"token":"almost"}`,
		`data: {"token":" done","done":true}`,
	}})

	require.Equal(t, StateCompleted, final)
	require.Equal(t, "almost done", strings.Join(rec.chunks, ""))
	require.Len(t, rec.completes, 1)
}

func TestRun_ReadErrorSurfacesAsFailure(t *testing.T) {
	rec := &recorder{}
	r := New(rec.callbacks())

	netErr := errors.New("connection reset by peer")
	final := r.Run(context.Background(), &scriptedSource{finalErr: netErr})

	require.Equal(t, StateFailed, final)
	require.Len(t, rec.errs, 1)
	require.ErrorIs(t, rec.errs[0], netErr)
}

func TestRun_EmptyDoneCompletesWithoutChunks(t *testing.T) {
	rec := &recorder{}
	r := New(rec.callbacks())

	final := r.Run(context.Background(), &scriptedSource{lines: []string{
		`data: {"session_id":"s1","done":true}`,
	}})

	require.Equal(t, StateCompleted, final)
	require.Empty(t, rec.chunks)
	require.Equal(t, []string{"s1"}, rec.completes)
}

func TestState_LifecycleBeforeRun(t *testing.T) {
	r := New(Callbacks{})
	if got := r.State(); got != StateIdle {
		t.Fatalf("expected Idle before Run, got %v", got)
	}
}
