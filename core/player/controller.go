package player

import (
	"math"
	"sync"

	"soundwave/logger"
)

// State names a playback controller state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
)

// Track is the queue entry the controller operates on.
type Track struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist,omitempty"`
	AudioURL  string `json:"audioUrl"`
	PosterURL string `json:"posterUrl,omitempty"`
}

// Media abstracts the underlying playback element. The controller owns
// exactly one Media; assigning a new source implicitly interrupts
// whatever was playing before.
type Media interface {
	Load(url string)
	Play() error
	Pause()
	Seek(seconds float64)
	SetVolume(volume float64)
	Duration() float64
	CurrentTime() float64
}

// Snapshot is an immutable view of the controller state.
type Snapshot struct {
	State        State   `json:"state"`
	CurrentTrack *Track  `json:"currentTrack"`
	Queue        []Track `json:"queue"`
	Volume       float64 `json:"volume"`
	Position     float64 `json:"position"`
	Duration     float64 `json:"duration"`
}

// DefaultVolume is applied to a fresh controller.
const DefaultVolume = 0.15

// Controller is the playback/queue state machine. All transitions are
// serialized by its mutex; media events enter through the Handle*
// methods.
type Controller struct {
	mu       sync.Mutex
	media    Media
	state    State
	current  *Track
	queue    []Track
	volume   float64
	onChange func(Snapshot)
}

// NewController creates a controller in the Idle state.
func NewController(media Media) *Controller {
	c := &Controller{
		media:  media,
		state:  StateIdle,
		volume: DefaultVolume,
	}
	media.SetVolume(DefaultVolume)
	return c
}

// SetOnChange registers a callback invoked after every state transition.
// The callback must not block.
func (c *Controller) SetOnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// SetQueue replaces the ordered track list.
func (c *Controller) SetQueue(tracks []Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append([]Track(nil), tracks...)
	c.notifyLocked()
}

// PlayTrack starts playback of the given track. Playing the current
// track again toggles play/pause instead.
func (c *Controller) PlayTrack(track Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playTrackLocked(track)
}

func (c *Controller) playTrackLocked(track Track) {
	if c.current != nil && c.current.ID == track.ID {
		c.toggleLocked()
		return
	}

	t := track
	c.current = &t
	c.state = StateLoading
	c.media.Load(track.AudioURL)
	c.notifyLocked()
}

// TogglePlayPause toggles between Playing and Paused. No-op when no
// track is current.
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	c.toggleLocked()
}

func (c *Controller) toggleLocked() {
	if c.state == StatePlaying {
		c.media.Pause()
		c.state = StatePaused
	} else {
		if err := c.media.Play(); err != nil {
			logger.Warn("playback start failed",
				logger.String("trackId", c.current.ID),
				logger.ErrorField(err),
			)
			c.state = StatePaused
		} else {
			c.state = StatePlaying
		}
	}
	c.notifyLocked()
}

// SkipNext plays the next track in the queue. No-op at the end of the
// queue.
func (c *Controller) SkipNext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipNextLocked()
}

func (c *Controller) skipNextLocked() {
	if c.current == nil || len(c.queue) == 0 {
		return
	}
	idx := c.indexOfLocked(c.current.ID)
	if idx < 0 || idx >= len(c.queue)-1 {
		return
	}
	c.playTrackLocked(c.queue[idx+1])
}

// SkipPrevious plays the previous track in the queue. No-op at the
// start of the queue.
func (c *Controller) SkipPrevious() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || len(c.queue) == 0 {
		return
	}
	idx := c.indexOfLocked(c.current.ID)
	if idx <= 0 {
		return
	}
	c.playTrackLocked(c.queue[idx-1])
}

// SeekTo updates the playback position. Only honored once the media
// duration is known; play/pause state is unchanged.
func (c *Controller) SeekTo(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.media.Duration()
	if d <= 0 || math.IsNaN(d) {
		return
	}
	c.media.Seek(seconds)
	c.notifyLocked()
}

// SetVolume clamps the volume to [0,1] and applies it immediately,
// regardless of state.
func (c *Controller) SetVolume(volume float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = math.Max(0, math.Min(1, volume))
	c.media.SetVolume(c.volume)
	c.notifyLocked()
}

// RemoveTrack removes a track from the queue. Removing the current
// track advances to the track that took its place, or drops the
// controller back to Idle when nothing follows.
func (c *Controller) RemoveTrack(trackID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOfLocked(trackID)
	if idx < 0 {
		return
	}
	c.queue = append(c.queue[:idx], c.queue[idx+1:]...)

	if c.current == nil || c.current.ID != trackID {
		c.notifyLocked()
		return
	}

	if idx < len(c.queue) {
		c.playTrackLocked(c.queue[idx])
		return
	}

	c.media.Pause()
	c.current = nil
	c.state = StateIdle
	c.notifyLocked()
}

// HandleReady is the media "can play" event: a loading track starts
// playing, or drops to Paused when playback start fails.
func (c *Controller) HandleReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLoading {
		return
	}
	if err := c.media.Play(); err != nil {
		logger.Warn("playback start failed",
			logger.String("trackId", c.current.ID),
			logger.ErrorField(err),
		)
		c.state = StatePaused
	} else {
		c.state = StatePlaying
	}
	c.notifyLocked()
}

// HandleEnded is the natural end-of-media event: mark Ended and
// auto-advance to the next track.
func (c *Controller) HandleEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	c.state = StateEnded
	c.notifyLocked()
	c.skipNextLocked()
}

// HandleError is a media playback failure: logged and dropped to
// Paused, keeping the current track so the user can retry.
func (c *Controller) HandleError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	logger.Warn("media playback error",
		logger.String("trackId", c.current.ID),
		logger.ErrorField(err),
	)
	c.state = StatePaused
	c.notifyLocked()
}

// HandlePlay mirrors a media "play" event into the controller state.
func (c *Controller) HandlePlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.state == StatePlaying {
		return
	}
	c.state = StatePlaying
	c.notifyLocked()
}

// HandlePause mirrors a media "pause" event into the controller state.
func (c *Controller) HandlePause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.state != StatePlaying {
		return
	}
	c.state = StatePaused
	c.notifyLocked()
}

// Snapshot returns the current controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:    c.state,
		Queue:    append([]Track(nil), c.queue...),
		Volume:   c.volume,
		Position: c.media.CurrentTime(),
		Duration: c.media.Duration(),
	}
	if c.current != nil {
		t := *c.current
		snap.CurrentTrack = &t
	}
	return snap
}

func (c *Controller) indexOfLocked(trackID string) int {
	for i := range c.queue {
		if c.queue[i].ID == trackID {
			return i
		}
	}
	return -1
}

func (c *Controller) notifyLocked() {
	if c.onChange != nil {
		c.onChange(c.snapshotLocked())
	}
}
