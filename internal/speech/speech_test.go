package speech

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewCommand_EmptyIsUnsupported(t *testing.T) {
	s := NewCommand("")
	require.False(t, s.Supported())

	var got []Status
	s.Speak("hello", func(st Status) { got = append(got, st) })
	require.Equal(t, []Status{StatusUnsupported}, got)
}

func TestSupported_MissingBinary(t *testing.T) {
	s := NewCommand("definitely-not-a-real-tts-binary")
	require.False(t, s.Supported())
}

func TestSpeak_RunsCommandToCompletion(t *testing.T) {
	s := NewCommand("true") // exits immediately, text argument ignored
	if !s.Supported() {
		t.Skip("no 'true' binary on PATH")
	}

	statuses := make(chan Status, 4)
	s.Speak("read this", func(st Status) { statuses <- st })

	require.Equal(t, StatusPlaying, <-statuses)
	select {
	case st := <-statuses:
		require.Equal(t, StatusFinished, st)
	case <-time.After(5 * time.Second):
		t.Fatal("speech command did not finish")
	}
}

func TestSpeak_FailureReportsError(t *testing.T) {
	s := NewCommand("false")
	if !s.Supported() {
		t.Skip("no 'false' binary on PATH")
	}

	statuses := make(chan Status, 4)
	s.Speak("read this", func(st Status) { statuses <- st })

	require.Equal(t, StatusPlaying, <-statuses)
	select {
	case st := <-statuses:
		require.Equal(t, StatusError, st)
	case <-time.After(5 * time.Second):
		t.Fatal("speech command did not finish")
	}
}

func TestSpeak_EmptyTextFinishesImmediately(t *testing.T) {
	s := NewCommand("true")
	if !s.Supported() {
		t.Skip("no 'true' binary on PATH")
	}
	var got []Status
	s.Speak("", func(st Status) { got = append(got, st) })
	require.Equal(t, []Status{StatusFinished}, got)
}

func TestStop_WithoutPlaybackIsSafe(t *testing.T) {
	NewCommand("true").Stop()
	NewCommand("").Stop()
}

func TestStop_InterruptsPlayback(t *testing.T) {
	s := NewCommand("sleep")
	if !s.Supported() {
		t.Skip("no 'sleep' binary on PATH")
	}

	statuses := make(chan Status, 4)
	s.Speak("60", func(st Status) { statuses <- st })
	require.Equal(t, StatusPlaying, <-statuses)

	s.Stop()
	select {
	case st := <-statuses:
		require.Equal(t, StatusError, st) // killed process exits nonzero
	case <-time.After(5 * time.Second):
		t.Fatal("stopped playback never reported")
	}
}
