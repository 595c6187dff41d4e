package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/starford/vitrine/internal/drag"
	"github.com/starford/vitrine/internal/models"
	"github.com/starford/vitrine/internal/portfolio"
)

const (
	dragWriteWait = 5 * time.Second
	dragIdleWait  = 2 * time.Minute
)

// Drag message types.
const (
	msgBind        = "bind"
	msgPointerDown = "pointerdown"
	msgPointerMove = "pointermove"
	msgPointerUp   = "pointerup"

	msgState    = "state"
	msgPosition = "position"
	msgError    = "error"
)

// dragIn is a client message on the drag socket.
type dragIn struct {
	Type    string      `json:"type"`
	IDs     []string    `json:"ids,omitempty"`
	ItemID  string      `json:"itemId,omitempty"`
	Target  drag.Target `json:"target,omitempty"`
	Pointer drag.Point  `json:"pointer"`
	Element drag.Rect   `json:"element"`
	Canvas  drag.Rect   `json:"canvas"`
}

// dragOut is a server reply.
type dragOut struct {
	Type                string             `json:"type"`
	Dragging            bool               `json:"dragging"`
	ItemID              string             `json:"itemId,omitempty"`
	SelectionSuppressed bool               `json:"selectionSuppressed"`
	Bound               []string           `json:"bound,omitempty"`
	Item                *models.LayoutItem `json:"item,omitempty"`
	Error               string             `json:"error,omitempty"`
}

// DragHandler runs one drag controller per WebSocket connection.
type DragHandler struct {
	svc      *portfolio.Service
	upgrader websocket.Upgrader
}

// NewDragHandler creates a DragHandler.
func NewDragHandler(svc *portfolio.Service) *DragHandler {
	return &DragHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles GET /api/exhibition/drag.
//
//	@Summary		Drag gesture channel (WebSocket)
//	@Tags			exhibition
//	@Success		101
//	@Security		BearerAuth
//	@Router			/exhibition/drag [get]
func (h *DragHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("drag: upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ctl := drag.NewController(h.svc)
	ctl.Bind(itemIDs(h.svc.Items()))

	for {
		_ = conn.SetReadDeadline(time.Now().Add(dragIdleWait))
		var in dragIn
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("drag: connection closed", slog.String("error", err.Error()))
			}
			return
		}
		out := h.dispatch(r, ctl, in)
		_ = conn.SetWriteDeadline(time.Now().Add(dragWriteWait))
		if err := conn.WriteJSON(out); err != nil {
			return
		}
	}
}

func (h *DragHandler) dispatch(r *http.Request, ctl *drag.Controller, in dragIn) dragOut {
	switch in.Type {
	case msgBind:
		ids := in.IDs
		if ids == nil {
			ids = itemIDs(h.svc.Items())
		}
		ctl.Bind(ids)
		out := state(ctl)
		out.Bound = ids
		return out
	case msgPointerDown:
		ctl.PointerDown(in.ItemID, in.Target, in.Pointer, in.Element)
		return state(ctl)
	case msgPointerMove:
		item, ok, err := ctl.PointerMove(r.Context(), in.Pointer, in.Canvas)
		if err != nil {
			return dragError(err)
		}
		if !ok {
			return state(ctl)
		}
		out := state(ctl)
		out.Type = msgPosition
		out.Item = &item
		return out
	case msgPointerUp:
		ctl.PointerUp()
		return state(ctl)
	default:
		return dragError(errors.New("unknown message type " + in.Type))
	}
}

func state(ctl *drag.Controller) dragOut {
	id, dragging := ctl.Dragging()
	return dragOut{Type: msgState, Dragging: dragging, ItemID: id, SelectionSuppressed: ctl.SelectionSuppressed()}
}

func dragError(err error) dragOut {
	return dragOut{Type: msgError, Error: err.Error()}
}

func itemIDs(items []models.LayoutItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
