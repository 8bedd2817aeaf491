package http

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// CompletionFeed streams completed-zone payloads. An empty folder selects every folder.
type CompletionFeed interface {
	SubscribeCompleted(folder string, fn func(data []byte)) (unsubscribe func(), err error)
}

const wsPingInterval = 30 * time.Second

// zoneEventsGate rejects plain requests and requests made while no feed is configured.
func zoneEventsGate(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Events == nil {
			return errUnavailable(c, "zone events are not configured")
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}
}

// ZoneEventsHandler relays completed-zone messages to a WebSocket client until it
// disconnects. The folder query parameter narrows the stream to one folder title.
func ZoneEventsHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		folder := c.Query("folder")
		log := slog.With("remote", c.RemoteAddr().String(), "folder", folder)

		var mu sync.Mutex
		write := func(messageType int, data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(messageType, data)
		}

		unsubscribe, err := deps.Events.SubscribeCompleted(folder, func(data []byte) {
			if err := write(websocket.TextMessage, data); err != nil {
				log.Debug("ws write failed", "error", err)
			}
		})
		if err != nil {
			log.Error("ws subscribe failed", "error", err)
			return
		}
		defer unsubscribe()
		log.Info("ws client connected")

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := write(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// clients send nothing but control frames; a read error means they left
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		log.Info("ws client disconnected")
	}
}
