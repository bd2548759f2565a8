package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/snappy-loop/blogs/internal/models"
	"github.com/snappy-loop/blogs/internal/services"
)

const (
	generateWSReadLimit = 64 << 10
	generateWSIdle      = 10 * time.Minute
)

var generateWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// generateWSOutMessage is the JSON shape sent to the client.
type generateWSOutMessage struct {
	Type    string                `json:"type"` // result, error, done
	Index   int                   `json:"index"`
	Keyword string                `json:"keyword,omitempty"`
	Result  *models.GeneratedPost `json:"result,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// GenerateWS handles GET /api/generate/ws. Each client message {"keywords": [...]} starts a
// batch; one "result" message is sent per keyword as it finishes, then "done".
func (h *Handler) GenerateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := generateWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("generate ws upgrade failed")
		return
	}
	defer conn.Close()

	// Batches outlive the upgrade request; they end with the read loop.
	session, endSession := context.WithCancel(context.WithoutCancel(r.Context()))
	defer endSession()

	conn.SetReadLimit(generateWSReadLimit)
	conn.SetReadDeadline(time.Now().Add(generateWSIdle))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(generateWSIdle))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("generate ws read")
			}
			return
		}

		var in models.GenerateRequest
		if err := json.Unmarshal(raw, &in); err != nil {
			if writeWSJSON(conn, generateWSOutMessage{Type: "error", Error: "invalid JSON: " + err.Error()}) != nil {
				return
			}
			continue
		}
		if !h.streamBatch(session, conn, in.Keywords) {
			return
		}
		conn.SetReadDeadline(time.Now().Add(generateWSIdle))
	}
}

// streamBatch runs one batch over conn and reports whether the connection is still usable.
func (h *Handler) streamBatch(parent context.Context, conn *websocket.Conn, keywords []string) bool {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if h.streamTimeout > 0 {
		ctx, cancel = context.WithTimeout(parent, h.streamTimeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	defer cancel()

	alive := true
	err := h.generation.GenerateEach(ctx, keywords, func(o services.Outcome) {
		if !alive {
			return
		}
		out := generateWSOutMessage{Type: "result", Index: o.Index, Keyword: o.Keyword, Result: o.Post}
		if o.Err != nil {
			out.Error = o.Err.Error()
		}
		if err := writeWSJSON(conn, out); err != nil {
			log.Debug().Err(err).Msg("generate ws write")
			alive = false
			cancel()
		}
	})
	if !alive {
		return false
	}
	if err != nil {
		return writeWSJSON(conn, generateWSOutMessage{Type: "error", Error: err.Error()}) == nil
	}
	return writeWSJSON(conn, generateWSOutMessage{Type: "done", Index: len(keywords)}) == nil
}

func writeWSJSON(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
	return conn.WriteJSON(v)
}
