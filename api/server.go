package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"moment/domain"
	apperrors "moment/errors"
	"moment/services"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	log      *slog.Logger
	service  *services.RoomService
	hub      *Hub
	validate *validator.Validate
	app      *fiber.App
}

func NewServer(log *slog.Logger, service *services.RoomService, hub *Hub) *Server {
	s := &Server{
		log:      log,
		service:  service,
		hub:      hub,
		validate: validator.New(),
		app:      fiber.New(fiber.Config{DisableStartupMessage: true}),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	rooms := s.app.Group("/api/rooms")
	rooms.Post("/", s.createRoom)
	rooms.Get("/:code", s.getRoom)
	rooms.Post("/:code/join", s.joinRoom)
	rooms.Post("/:code/leave", s.leaveRoom)
	rooms.Post("/:code/messages", s.sendMessage)
	rooms.Get("/:code/vote", s.voteStatus)
	rooms.Post("/:code/vote", s.startVote)
	rooms.Post("/:code/vote/ballot", s.castVote)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/:code", websocket.New(s.handleSocket))
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(shutdownTimeout)
}

type createRoomRequest struct {
	Name        string `json:"name" validate:"omitempty,max=50"`
	ExpiryHours int    `json:"expiry_hours" validate:"required,min=1,max=24"`
	Kind        string `json:"kind" validate:"required,oneof=pair group"`
}

func (s *Server) createRoom(c *fiber.Ctx) error {
	var req createRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	kind := domain.GroupRoom
	if req.Kind == "pair" {
		kind = domain.PairRoom
	}

	room, err := s.service.CreateRoom(req.Name, time.Duration(req.ExpiryHours)*time.Hour, kind)
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"code":       room.Code,
		"name":       room.DisplayName,
		"kind":       room.Kind.String(),
		"expires_at": room.ExpiresAt(),
	})
}

func (s *Server) getRoom(c *fiber.Ctx) error {
	room, ok := s.service.GetRoom(c.Params("code"))
	if !ok {
		return fiber.ErrNotFound
	}
	return c.JSON(fiber.Map{
		"code":         room.Code,
		"name":         room.DisplayName,
		"kind":         room.Kind.String(),
		"expires_at":   room.ExpiresAt(),
		"grace_period": room.InGracePeriod(),
		"participants": room.ActiveCount(),
		"capacity":     room.Capacity(),
	})
}

type joinRoomRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=20"`
}

func (s *Server) joinRoom(c *fiber.Ctx) error {
	var req joinRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	participant, err := s.service.Join(c.Params("code"), req.DisplayName)
	if err != nil {
		return s.mapError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"participant_id": participant.ID,
		"display_name":   participant.DisplayName,
		"color":          participant.ColorHex,
	})
}

type participantRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
}

func (s *Server) leaveRoom(c *fiber.Ctx) error {
	var req participantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := s.service.Leave(c.Params("code"), req.ParticipantID); err != nil {
		return s.mapError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type sendMessageRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
	Content       string `json:"content" validate:"required"`
}

func (s *Server) sendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	msg, err := s.service.Send(c.Params("code"), req.ParticipantID, req.Content)
	if err != nil {
		return s.mapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": msg.ID, "sent_at": msg.SentAt})
}

func (s *Server) voteStatus(c *fiber.Ctx) error {
	status := s.service.VoteStatus(c.Params("code"))
	if status == nil {
		return fiber.ErrNotFound
	}
	return c.JSON(status)
}

func (s *Server) startVote(c *fiber.Ctx) error {
	var req participantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	status, err := s.service.StartVote(c.Params("code"), req.ParticipantID)
	if err != nil {
		return s.mapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(status)
}

type castVoteRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
	Yes           *bool  `json:"yes" validate:"required"`
}

func (s *Server) castVote(c *fiber.Ctx) error {
	var req castVoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	status, err := s.service.CastVote(c.Params("code"), req.ParticipantID, *req.Yes)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(status)
}

// inboundFrame is what a connected client may send over the socket.
type inboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Yes     *bool  `json:"yes,omitempty"`
}

// handleSocket runs one client's real-time session: attach on connect,
// route inbound frames, and walk the disconnect path when the socket
// drops.
func (s *Server) handleSocket(conn *websocket.Conn) {
	code := conn.Params("code")
	participantID := conn.Query("participant_id")
	connectionID := uuid.NewString()

	client := s.hub.Register(code, conn)
	defer func() {
		s.hub.Unregister(code, client)
		s.service.Disconnect(code, connectionID)
		_ = conn.Close()
	}()

	if _, _, err := s.service.Attach(code, participantID, connectionID); err != nil {
		_ = client.WriteJSON(envelope{Event: "Error", Payload: err.Error()})
		return
	}

	if state, err := s.service.RoomState(code); err == nil {
		_ = client.WriteJSON(envelope{Event: "RoomState", Payload: state})
	}

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Type {
		case "message":
			if _, err := s.service.Send(code, participantID, frame.Content); err != nil {
				_ = client.WriteJSON(envelope{Event: "Error", Payload: err.Error()})
			}
		case "heartbeat":
			_ = s.service.Heartbeat(code, participantID)
		case "vote_start":
			if _, err := s.service.StartVote(code, participantID); err != nil {
				_ = client.WriteJSON(envelope{Event: "Error", Payload: err.Error()})
			}
		case "vote":
			if frame.Yes == nil {
				continue
			}
			if _, err := s.service.CastVote(code, participantID, *frame.Yes); err != nil {
				_ = client.WriteJSON(envelope{Event: "Error", Payload: err.Error()})
			}
		case "leave":
			_ = s.service.Leave(code, participantID)
			return
		}
	}
}

// mapError translates the engine's sentinel errors to HTTP statuses.
// NotFound stays a plain negative result, never an internal error.
func (s *Server) mapError(err error) error {
	switch {
	case errors.Is(err, apperrors.ErrRoomNotFound),
		errors.Is(err, apperrors.ErrParticipantNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrCapacityExceeded),
		errors.Is(err, apperrors.ErrIdentityConflict),
		errors.Is(err, apperrors.ErrVoteAlreadyOpen),
		errors.Is(err, apperrors.ErrAlreadyVoted):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrRateLimited):
		return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
	case errors.Is(err, apperrors.ErrInvalidContent):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrNoOpenVote),
		errors.Is(err, apperrors.ErrParticipantDeparted):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		s.log.Error("Unexpected error", "err", err)
		return fiber.ErrInternalServerError
	}
}
