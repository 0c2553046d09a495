package player

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMedia records directives and lets tests script playback behavior.
type fakeMedia struct {
	loads    []string
	plays    int
	pauses   int
	seeks    []float64
	volumes  []float64
	playErr  error
	duration float64
	position float64
}

func (m *fakeMedia) Load(url string)      { m.loads = append(m.loads, url) }
func (m *fakeMedia) Play() error          { m.plays++; return m.playErr }
func (m *fakeMedia) Pause()               { m.pauses++ }
func (m *fakeMedia) Seek(s float64)       { m.seeks = append(m.seeks, s) }
func (m *fakeMedia) SetVolume(v float64)  { m.volumes = append(m.volumes, v) }
func (m *fakeMedia) Duration() float64    { return m.duration }
func (m *fakeMedia) CurrentTime() float64 { return m.position }

func newTestController() (*Controller, *fakeMedia) {
	media := &fakeMedia{}
	return NewController(media), media
}

func queueOf(ids ...string) []Track {
	tracks := make([]Track, 0, len(ids))
	for _, id := range ids {
		tracks = append(tracks, Track{ID: id, Title: "Track " + id, AudioURL: "/uploads/audio/" + id + ".mp3"})
	}
	return tracks
}

func TestNewControllerStartsIdleWithDefaultVolume(t *testing.T) {
	ctrl, media := newTestController()

	snap := ctrl.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.CurrentTrack)
	assert.Equal(t, DefaultVolume, snap.Volume)
	require.Len(t, media.volumes, 1)
	assert.Equal(t, DefaultVolume, media.volumes[0])
}

func TestPlayTrackLoadsAndWaitsForReady(t *testing.T) {
	ctrl, media := newTestController()

	ctrl.PlayTrack(Track{ID: "a", AudioURL: "/uploads/audio/a.mp3"})

	snap := ctrl.Snapshot()
	assert.Equal(t, StateLoading, snap.State)
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "a", snap.CurrentTrack.ID)
	assert.Equal(t, []string{"/uploads/audio/a.mp3"}, media.loads)
	assert.Zero(t, media.plays)

	ctrl.HandleReady()
	assert.Equal(t, StatePlaying, ctrl.Snapshot().State)
	assert.Equal(t, 1, media.plays)
}

func TestPlayTrackSameTrackToggles(t *testing.T) {
	ctrl, media := newTestController()
	track := Track{ID: "a", AudioURL: "/uploads/audio/a.mp3"}

	ctrl.PlayTrack(track)
	ctrl.HandleReady()
	require.Equal(t, StatePlaying, ctrl.Snapshot().State)

	ctrl.PlayTrack(track)
	assert.Equal(t, StatePaused, ctrl.Snapshot().State)
	assert.Equal(t, 1, media.pauses)
	// no reload happened
	assert.Len(t, media.loads, 1)

	ctrl.PlayTrack(track)
	assert.Equal(t, StatePlaying, ctrl.Snapshot().State)
}

func TestTogglePlayPauseWithoutTrackIsNoop(t *testing.T) {
	ctrl, media := newTestController()

	ctrl.TogglePlayPause()

	assert.Equal(t, StateIdle, ctrl.Snapshot().State)
	assert.Zero(t, media.plays)
	assert.Zero(t, media.pauses)
}

func TestHandleReadyPlayFailureDropsToPaused(t *testing.T) {
	ctrl, media := newTestController()
	media.playErr = errors.New("autoplay blocked")

	ctrl.PlayTrack(Track{ID: "a", AudioURL: "/uploads/audio/a.mp3"})
	ctrl.HandleReady()

	snap := ctrl.Snapshot()
	assert.Equal(t, StatePaused, snap.State)
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "a", snap.CurrentTrack.ID)
}

func TestHandleReadyOutsideLoadingIsNoop(t *testing.T) {
	ctrl, media := newTestController()

	ctrl.HandleReady()
	assert.Equal(t, StateIdle, ctrl.Snapshot().State)
	assert.Zero(t, media.plays)
}

func TestSkipNextAdvancesThroughQueue(t *testing.T) {
	ctrl, media := newTestController()
	ctrl.SetQueue(queueOf("a", "b", "c"))

	ctrl.PlayTrack(queueOf("a")[0])
	ctrl.SkipNext()

	snap := ctrl.Snapshot()
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "b", snap.CurrentTrack.ID)
	assert.Equal(t, StateLoading, snap.State)
	assert.Equal(t, []string{"/uploads/audio/a.mp3", "/uploads/audio/b.mp3"}, media.loads)
}

func TestSkipNextAtEndOfQueueIsNoop(t *testing.T) {
	ctrl, media := newTestController()
	ctrl.SetQueue(queueOf("a", "b"))

	ctrl.PlayTrack(queueOf("a", "b")[1])
	ctrl.HandleReady()
	ctrl.SkipNext()

	snap := ctrl.Snapshot()
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "b", snap.CurrentTrack.ID)
	assert.Equal(t, StatePlaying, snap.State)
	assert.Len(t, media.loads, 1)
}

func TestSkipPreviousAtStartOfQueueIsNoop(t *testing.T) {
	ctrl, media := newTestController()
	ctrl.SetQueue(queueOf("a", "b"))

	ctrl.PlayTrack(queueOf("a")[0])
	ctrl.SkipPrevious()

	snap := ctrl.Snapshot()
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "a", snap.CurrentTrack.ID)
	assert.Len(t, media.loads, 1)
}

func TestSkipPreviousGoesBack(t *testing.T) {
	ctrl, _ := newTestController()
	ctrl.SetQueue(queueOf("a", "b"))

	ctrl.PlayTrack(queueOf("a", "b")[1])
	ctrl.SkipPrevious()

	snap := ctrl.Snapshot()
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "a", snap.CurrentTrack.ID)
}

func TestHandleEndedAutoAdvances(t *testing.T) {
	ctrl, _ := newTestController()
	ctrl.SetQueue(queueOf("a", "b"))

	ctrl.PlayTrack(queueOf("a")[0])
	ctrl.HandleReady()
	ctrl.HandleEnded()

	snap := ctrl.Snapshot()
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "b", snap.CurrentTrack.ID)
	assert.Equal(t, StateLoading, snap.State)
}

func TestHandleEndedOnLastTrackStaysEnded(t *testing.T) {
	ctrl, _ := newTestController()
	ctrl.SetQueue(queueOf("a", "b"))

	ctrl.PlayTrack(queueOf("a", "b")[1])
	ctrl.HandleReady()
	ctrl.HandleEnded()

	snap := ctrl.Snapshot()
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "b", snap.CurrentTrack.ID)
	assert.Equal(t, StateEnded, snap.State)
}

func TestSeekToIgnoredUntilDurationKnown(t *testing.T) {
	ctrl, media := newTestController()
	ctrl.PlayTrack(Track{ID: "a", AudioURL: "/uploads/audio/a.mp3"})

	ctrl.SeekTo(30)
	assert.Empty(t, media.seeks)

	media.duration = 180
	ctrl.SeekTo(30)
	assert.Equal(t, []float64{30}, media.seeks)
}

func TestSeekToKeepsPlaybackState(t *testing.T) {
	ctrl, media := newTestController()
	media.duration = 180

	ctrl.PlayTrack(Track{ID: "a", AudioURL: "/uploads/audio/a.mp3"})
	ctrl.HandleReady()
	ctrl.SeekTo(30)
	assert.Equal(t, StatePlaying, ctrl.Snapshot().State)

	ctrl.TogglePlayPause()
	ctrl.SeekTo(60)
	assert.Equal(t, StatePaused, ctrl.Snapshot().State)
}

func TestSetVolumeClamps(t *testing.T) {
	ctrl, media := newTestController()

	ctrl.SetVolume(1.7)
	assert.Equal(t, 1.0, ctrl.Snapshot().Volume)

	ctrl.SetVolume(-0.3)
	assert.Equal(t, 0.0, ctrl.Snapshot().Volume)

	ctrl.SetVolume(0.5)
	assert.Equal(t, 0.5, ctrl.Snapshot().Volume)

	// initial default plus the three applied values
	assert.Equal(t, []float64{DefaultVolume, 1, 0, 0.5}, media.volumes)
}

func TestRemoveTrackKeepsQueueOrder(t *testing.T) {
	ctrl, _ := newTestController()
	ctrl.SetQueue(queueOf("a", "b", "c"))

	ctrl.RemoveTrack("b")

	snap := ctrl.Snapshot()
	require.Len(t, snap.Queue, 2)
	assert.Equal(t, "a", snap.Queue[0].ID)
	assert.Equal(t, "c", snap.Queue[1].ID)
}

func TestRemoveCurrentTrackPlaysSuccessor(t *testing.T) {
	ctrl, _ := newTestController()
	ctrl.SetQueue(queueOf("a", "b", "c"))

	ctrl.PlayTrack(queueOf("a", "b")[1])
	ctrl.HandleReady()
	ctrl.RemoveTrack("b")

	snap := ctrl.Snapshot()
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "c", snap.CurrentTrack.ID)
	assert.Equal(t, StateLoading, snap.State)
}

func TestRemoveLastCurrentTrackGoesIdle(t *testing.T) {
	ctrl, media := newTestController()
	ctrl.SetQueue(queueOf("a", "b"))

	ctrl.PlayTrack(queueOf("a", "b")[1])
	ctrl.HandleReady()
	ctrl.RemoveTrack("b")

	snap := ctrl.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.CurrentTrack)
	require.Len(t, snap.Queue, 1)
	assert.Equal(t, "a", snap.Queue[0].ID)
	assert.Equal(t, 1, media.pauses)
}

func TestRemoveUnknownTrackIsNoop(t *testing.T) {
	ctrl, _ := newTestController()
	ctrl.SetQueue(queueOf("a"))

	ctrl.RemoveTrack("zzz")
	assert.Len(t, ctrl.Snapshot().Queue, 1)
}

func TestHandleErrorDropsToPausedKeepingTrack(t *testing.T) {
	ctrl, _ := newTestController()

	ctrl.PlayTrack(Track{ID: "a", AudioURL: "/uploads/audio/a.mp3"})
	ctrl.HandleError(errors.New("decode failed"))

	snap := ctrl.Snapshot()
	assert.Equal(t, StatePaused, snap.State)
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "a", snap.CurrentTrack.ID)
}

func TestMediaEventsMirrorExternalState(t *testing.T) {
	ctrl, _ := newTestController()

	ctrl.PlayTrack(Track{ID: "a", AudioURL: "/uploads/audio/a.mp3"})
	ctrl.HandleReady()

	ctrl.HandlePause()
	assert.Equal(t, StatePaused, ctrl.Snapshot().State)

	ctrl.HandlePlay()
	assert.Equal(t, StatePlaying, ctrl.Snapshot().State)
}

func TestOnChangeFiresOnEveryTransition(t *testing.T) {
	ctrl, _ := newTestController()

	var states []State
	ctrl.SetOnChange(func(snap Snapshot) {
		states = append(states, snap.State)
	})

	ctrl.SetQueue(queueOf("a", "b"))
	ctrl.PlayTrack(queueOf("a")[0])
	ctrl.HandleReady()
	ctrl.TogglePlayPause()

	assert.Equal(t, []State{StateIdle, StateLoading, StatePlaying, StatePaused}, states)
}
