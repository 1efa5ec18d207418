package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quizlive-service/internal/app"
	"quizlive-service/internal/domain"
)

// WSHandler speaks the message-driven game protocol over one websocket per
// connection. A connection is either a host (createSession) or a player
// (joinSession); both end up subscribed to the session's room.
type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type createSessionPayload struct {
	QuizID string `json:"quizRef"`
	HostID string `json:"hostRef"`
	Mode   string `json:"mode"`
}

type joinSessionPayload struct {
	JoinCode string `json:"joinCode"`
	Name     string `json:"name"`
	Token    string `json:"token,omitempty"`
}

type joinCodePayload struct {
	JoinCode string `json:"joinCode"`
}

type submitAnswerPayload struct {
	JoinCode      string `json:"joinCode"`
	QuestionIndex int    `json:"questionIndex"`
	OptionIndex   int    `json:"optionIndex"`
}

type requestQuestionPayload struct {
	JoinCode string `json:"joinCode"`
	Index    int    `json:"index"`
}

type sessionCreatedPayload struct {
	JoinCode string `json:"joinCode"`
}

type sessionJoinedPayload struct {
	JoinCode    string `json:"joinCode"`
	Mode        string `json:"mode"`
	Token       string `json:"token"`
	Reconnected bool   `json:"reconnected,omitempty"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the connection's protocol loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := &client{
		id:           uuid.NewString(),
		conn:         conn,
		service:      h.service,
		send:         make(chan outboundMessage[any], 16),
		closeSignals: make(chan struct{}),
		writerDone:   make(chan struct{}),
	}
	c.run(r)
}

// client is the per-connection state: its identity, its outbound queue and
// its room subscription.
type client struct {
	id      string
	conn    *websocket.Conn
	service *app.GameService

	send         chan outboundMessage[any]
	closeSignals chan struct{}
	writerDone   chan struct{}

	joinCode   string
	cancelRoom func()
	roomDone   chan struct{}
}

func (c *client) run(r *http.Request) {
	go c.writeLoop()

	for {
		var inbound inboundMessage
		if err := c.conn.ReadJSON(&inbound); err != nil {
			break
		}
		c.dispatch(r, inbound)
	}

	close(c.closeSignals)
	if c.cancelRoom != nil {
		c.cancelRoom()
		<-c.roomDone
		c.service.Disconnect(c.joinCode)
	}
	close(c.send)
	<-c.writerDone
}

// writeLoop owns the socket's write side. After a write error it keeps
// draining send until run closes it, so senders never block on a dead socket.
func (c *client) writeLoop() {
	defer close(c.writerDone)
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Printf("ws write error: %v", err)
			for range c.send {
			}
			return
		}
	}
}

func (c *client) dispatch(r *http.Request, inbound inboundMessage) {
	ctx := r.Context()
	switch inbound.Type {
	case "createSession":
		var payload createSessionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.sendInvalidPayload(inbound.Type)
			return
		}
		mode, err := domain.ParseMode(payload.Mode)
		if err != nil {
			c.sendError(err)
			return
		}
		code, err := c.service.CreateSession(ctx, payload.QuizID, payload.HostID, mode, c.id)
		if err != nil {
			c.sendError(err)
			return
		}
		if err := c.enterRoom(code); err != nil {
			c.sendError(err)
			return
		}
		c.sendMessage("sessionCreated", sessionCreatedPayload{JoinCode: code})

	case "joinSession":
		var payload joinSessionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.sendInvalidPayload(inbound.Type)
			return
		}
		res, err := c.service.Join(ctx, payload.JoinCode, payload.Name, payload.Token, c.id)
		if err != nil {
			c.sendError(err)
			return
		}
		if err := c.enterRoom(res.JoinCode); err != nil {
			c.sendError(err)
			return
		}
		c.sendMessage("sessionJoined", sessionJoinedPayload{
			JoinCode:    res.JoinCode,
			Mode:        string(res.Mode),
			Token:       res.Token,
			Reconnected: res.Reconnected,
		})
		if res.Recover != nil {
			c.sendMessage(string(res.Recover.Type), res.Recover.Payload)
		}

	case "startSession":
		var payload joinCodePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.sendInvalidPayload(inbound.Type)
			return
		}
		if err := c.service.Start(ctx, payload.JoinCode, c.id); err != nil {
			c.sendError(err)
		}

	case "submitAnswer":
		var payload submitAnswerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.sendInvalidPayload(inbound.Type)
			return
		}
		result, err := c.service.SubmitAnswer(ctx, payload.JoinCode, c.id, payload.QuestionIndex, payload.OptionIndex)
		if err != nil {
			c.sendError(err)
			return
		}
		c.sendMessage("answerAcknowledged", result)

	case "revealAnswer":
		var payload joinCodePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.sendInvalidPayload(inbound.Type)
			return
		}
		if err := c.service.Reveal(ctx, payload.JoinCode, c.id); err != nil {
			c.sendError(err)
		}

	case "requestLeaderboard":
		var payload joinCodePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.sendInvalidPayload(inbound.Type)
			return
		}
		if err := c.service.ShowLeaderboard(payload.JoinCode, c.id); err != nil {
			c.sendError(err)
		}

	case "advanceQuestion":
		var payload joinCodePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.sendInvalidPayload(inbound.Type)
			return
		}
		if err := c.service.Advance(ctx, payload.JoinCode, c.id); err != nil {
			c.sendError(err)
		}

	case "requestQuestion":
		var payload requestQuestionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.sendInvalidPayload(inbound.Type)
			return
		}
		ev, err := c.service.RequestQuestion(ctx, payload.JoinCode, c.id, payload.Index)
		if err != nil {
			c.sendError(err)
			return
		}
		c.sendMessage(string(ev.Type), ev.Payload)

	default:
		c.sendMessage("error", errorPayload{Code: "UnsupportedMessage", Message: "unsupported message type: " + inbound.Type})
	}
}

// enterRoom subscribes the connection to its session's room and starts the
// event pump. A connection belongs to at most one room.
func (c *client) enterRoom(joinCode string) error {
	if c.cancelRoom != nil {
		if c.joinCode == joinCode {
			return nil
		}
		return domain.ErrAlreadyInSession
	}
	events, cancel, err := c.service.Subscribe(joinCode)
	if err != nil {
		return err
	}
	c.joinCode = joinCode
	c.cancelRoom = cancel
	c.roomDone = make(chan struct{})

	go func() {
		defer close(c.roomDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case c.send <- outboundMessage[any]{Type: string(ev.Type), Payload: ev.Payload}:
				case <-c.closeSignals:
					return
				}
			case <-c.closeSignals:
				return
			}
		}
	}()
	return nil
}

func (c *client) sendMessage(msgType string, payload any) {
	select {
	case c.send <- outboundMessage[any]{Type: msgType, Payload: payload}:
	case <-c.closeSignals:
	}
}

func (c *client) sendError(err error) {
	c.sendMessage("error", errorPayload{Code: domain.ErrorCode(err), Message: err.Error()})
}

func (c *client) sendInvalidPayload(msgType string) {
	c.sendMessage("error", errorPayload{Code: "InvalidPayload", Message: "invalid payload for " + msgType})
}
