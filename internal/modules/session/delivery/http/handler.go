package handler

import (
	"net/http"

	"anoa.com/communityreview/internal/middleware"
	"anoa.com/communityreview/internal/modules/session/service"
	"anoa.com/communityreview/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type SessionHandler struct {
	monitor  *service.Monitor
	upgrader websocket.Upgrader
}

func NewSessionHandler(monitor *service.Monitor, allowedOrigins []string) *SessionHandler {
	return &SessionHandler{
		monitor: monitor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	state, err := h.monitor.Resolve(c.Request.Context(), middleware.TokenFromRequest(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *SessionHandler) HandleWebSocket(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	events, cancel, err := h.monitor.Subscribe(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("failed to upgrade websocket")
		return
	}
	defer conn.Close()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to write auth state to websocket")
				return
			}
			if event.Type == service.EventSignedOut {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "signed out"))
				return
			}
		case <-clientClosed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
