package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"soundwave/cache"
	"soundwave/core/player"
	"soundwave/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// playerCommand is a client message: either a user command for the
// controller or an event from the client-side media element.
type playerCommand struct {
	Type    string         `json:"type"`
	Track   *player.Track  `json:"track,omitempty"`
	Tracks  []player.Track `json:"tracks,omitempty"`
	TrackID string         `json:"trackId,omitempty"`
	Seconds float64        `json:"seconds,omitempty"`
	Volume  float64        `json:"volume,omitempty"`
	Event   string         `json:"event,omitempty"`
	// media event payload
	Position float64 `json:"position,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// playerMessage is a server message: a media directive for the client
// element or a state snapshot.
type playerMessage struct {
	Type     string           `json:"type"`
	Action   string           `json:"action,omitempty"`
	URL      string           `json:"url,omitempty"`
	Seconds  float64          `json:"seconds,omitempty"`
	Volume   float64          `json:"volume,omitempty"`
	Snapshot *player.Snapshot `json:"state,omitempty"`
}

// wsMedia drives the media element on the other side of the websocket.
// Directives are queued on the outbound channel; observed duration and
// position flow back through time events.
type wsMedia struct {
	mu       sync.Mutex
	out      chan playerMessage
	position float64
	duration float64
}

func newWSMedia() *wsMedia {
	return &wsMedia{out: make(chan playerMessage, 32)}
}

func (m *wsMedia) send(msg playerMessage) {
	select {
	case m.out <- msg:
	default:
		logger.Warn("player session outbound buffer full, dropping directive",
			logger.String("action", msg.Action))
	}
}

func (m *wsMedia) Load(url string) {
	m.mu.Lock()
	m.position = 0
	m.duration = 0
	m.mu.Unlock()
	m.send(playerMessage{Type: "directive", Action: "load", URL: url})
}

func (m *wsMedia) Play() error {
	m.send(playerMessage{Type: "directive", Action: "play"})
	return nil
}

func (m *wsMedia) Pause() {
	m.send(playerMessage{Type: "directive", Action: "pause"})
}

func (m *wsMedia) Seek(seconds float64) {
	m.mu.Lock()
	m.position = seconds
	m.mu.Unlock()
	m.send(playerMessage{Type: "directive", Action: "seek", Seconds: seconds})
}

func (m *wsMedia) SetVolume(volume float64) {
	m.send(playerMessage{Type: "directive", Action: "setVolume", Volume: volume})
}

func (m *wsMedia) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *wsMedia) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *wsMedia) observeTime(position, duration float64) {
	m.mu.Lock()
	m.position = position
	m.duration = duration
	m.mu.Unlock()
}

// PlayerSessionHandler upgrades the connection to a websocket hosting a
// playback controller. The bearer token travels in the "token" query
// parameter since browsers cannot set headers on websocket requests.
func (h *APIHandler) PlayerSessionHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Token query parameter is required")
		return
	}
	claims, err := h.tokens.ParseToken(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	logger.Info("player session opened", logger.String("userId", claims.Subject))

	media := newWSMedia()
	ctrl := player.NewController(media)
	ctrl.SetOnChange(func(snap player.Snapshot) {
		s := snap
		media.send(playerMessage{Type: "state", Snapshot: &s})
	})

	// Seed the session from the stored queue so a reconnecting client
	// resumes where it left off.
	if userID := claims.Subject; userID != "" {
		items, err := h.loadQueueTracks(r.Context(), userID)
		if err != nil {
			logger.Warn("queue restore failed",
				logger.String("userId", userID), logger.ErrorField(err))
		} else if len(items) > 0 {
			ctrl.SetQueue(items)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range media.out {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn("player session write failed", logger.ErrorField(err))
				return
			}
		}
	}()

	// Initial snapshot so the client renders current state immediately.
	snap := ctrl.Snapshot()
	media.send(playerMessage{Type: "state", Snapshot: &snap})

	for {
		var cmd playerCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("player session read failed", logger.ErrorField(err))
			}
			break
		}
		h.applyPlayerCommand(ctrl, media, cmd)
	}

	close(media.out)
	<-done
	logger.Info("player session closed", logger.String("userId", claims.Subject))
}

func (h *APIHandler) applyPlayerCommand(ctrl *player.Controller, media *wsMedia, cmd playerCommand) {
	switch cmd.Type {
	case "play":
		if cmd.Track == nil || cmd.Track.ID == "" || cmd.Track.AudioURL == "" {
			logger.Warn("play command missing track")
			return
		}
		ctrl.PlayTrack(*cmd.Track)
	case "toggle":
		ctrl.TogglePlayPause()
	case "next":
		ctrl.SkipNext()
	case "previous":
		ctrl.SkipPrevious()
	case "seek":
		ctrl.SeekTo(cmd.Seconds)
	case "volume":
		ctrl.SetVolume(cmd.Volume)
	case "remove":
		ctrl.RemoveTrack(cmd.TrackID)
	case "setQueue":
		ctrl.SetQueue(cmd.Tracks)
	case "event":
		switch cmd.Event {
		case "ready":
			ctrl.HandleReady()
		case "ended":
			ctrl.HandleEnded()
		case "play":
			ctrl.HandlePlay()
		case "pause":
			ctrl.HandlePause()
		case "time":
			media.observeTime(cmd.Position, cmd.Duration)
		case "error":
			ctrl.HandleError(errors.New(cmd.Message))
		default:
			logger.Warn("unknown media event", logger.String("event", cmd.Event))
		}
	default:
		logger.Warn("unknown player command", logger.String("type", cmd.Type))
	}
}

// loadQueueTracks converts the persisted Redis queue into controller
// tracks, preserving order.
func (h *APIHandler) loadQueueTracks(ctx context.Context, userID string) ([]player.Track, error) {
	items, err := cache.GetQueue(ctx, userID)
	if err != nil {
		return nil, err
	}
	tracks := make([]player.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, player.Track{
			ID:        item.TrackID,
			Title:     item.Title,
			Artist:    item.Artist,
			AudioURL:  item.AudioURL,
			PosterURL: item.PosterURL,
		})
	}
	return tracks, nil
}
