package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"bingo-service/internal/dto"
	"bingo-service/internal/middleware"
	"bingo-service/internal/quiz"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

type RoomHandler struct {
	service   *quiz.Service
	publicURL string
}

func NewRoomHandler(service *quiz.Service, publicURL string) *RoomHandler {
	return &RoomHandler{
		service:   service,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func roomCode(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("code")))
}

// Create godoc
// @Summary Create a quiz room
// @Description Opens a new room with the caller as creator and first player
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateRoomRequest false "Display name"
// @Success 201 {object} dto.RoomResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /rooms [post]
func (h *RoomHandler) Create(c *gin.Context) {
	var req dto.CreateRoomRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	name := req.DisplayName
	if name == "" {
		name = middleware.DisplayName(c)
	}

	room, err := h.service.CreateRoom(c.Request.Context(), c.GetString(middleware.ContextUserID), name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.RoomResponse{Room: room, Message: "Room created successfully"})
}

// Join godoc
// @Summary Join a quiz room
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Room code"
// @Param request body dto.JoinRoomRequest false "Display name"
// @Success 200 {object} dto.RoomResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /rooms/{code}/join [post]
func (h *RoomHandler) Join(c *gin.Context) {
	var req dto.JoinRoomRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	name := req.DisplayName
	if name == "" {
		name = middleware.DisplayName(c)
	}

	room, err := h.service.JoinRoom(c.Request.Context(), roomCode(c), c.GetString(middleware.ContextUserID), name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RoomResponse{Room: room, Message: "Joined room"})
}

// Start godoc
// @Summary Start the game
// @Description Creator only. Needs at least two players
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param code path string true "Room code"
// @Success 200 {object} dto.RoomResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /rooms/{code}/start [post]
func (h *RoomHandler) Start(c *gin.Context) {
	room, err := h.service.StartGame(c.Request.Context(), roomCode(c), c.GetString(middleware.ContextUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RoomResponse{Room: room, Message: "Game started"})
}

// Answer godoc
// @Summary Submit an answer
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Room code"
// @Param request body dto.SubmitAnswerRequest true "Answer"
// @Success 200 {object} dto.AnswerResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /rooms/{code}/answers [post]
func (h *RoomHandler) Answer(c *gin.Context) {
	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	code := roomCode(c)
	result, err := h.service.SubmitAnswer(c.Request.Context(), code, c.GetString(middleware.ContextUserID), req.QuestionID, req.Answer)
	if err != nil {
		h.fail(c, err)
		return
	}

	scores, err := h.service.Scores(c.Request.Context(), code)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AnswerResponse{AnswerResult: result, Scores: scores})
}

// Next godoc
// @Summary Advance to the next question
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Room code"
// @Param request body dto.NextQuestionRequest false "Expected current index"
// @Success 200 {object} dto.RoomResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /rooms/{code}/next [post]
func (h *RoomHandler) Next(c *gin.Context) {
	var req dto.NextQuestionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	code := roomCode(c)
	from := 0
	if req.FromIndex != nil {
		from = *req.FromIndex
	} else {
		current, err := h.service.Room(c.Request.Context(), code)
		if err != nil {
			h.fail(c, err)
			return
		}
		from = current.QuestionIndex
	}

	room, err := h.service.NextQuestion(c.Request.Context(), code, c.GetString(middleware.ContextUserID), from)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RoomResponse{Room: room})
}

// Restart godoc
// @Summary Reset a finished game
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param code path string true "Room code"
// @Success 200 {object} dto.RoomResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /rooms/{code}/restart [post]
func (h *RoomHandler) Restart(c *gin.Context) {
	room, err := h.service.Restart(c.Request.Context(), roomCode(c), c.GetString(middleware.ContextUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RoomResponse{Room: room, Message: "Game reset"})
}

// Get godoc
// @Summary Get a room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param code path string true "Room code"
// @Success 200 {object} dto.RoomResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /rooms/{code} [get]
// @Router /join/{code} [get]
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.service.Room(c.Request.Context(), roomCode(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RoomResponse{Room: room})
}

// Scores godoc
// @Summary Room leaderboard
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param code path string true "Room code"
// @Success 200 {object} dto.ScoresResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /rooms/{code}/scores [get]
func (h *RoomHandler) Scores(c *gin.Context) {
	code := roomCode(c)
	scores, err := h.service.Scores(c.Request.Context(), code)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ScoresResponse{RoomCode: code, Scores: scores})
}

// QRCode renders the room's join link as a PNG.
// @Summary Room join QR code
// @Tags rooms
// @Produce png
// @Security BearerAuth
// @Param code path string true "Room code"
// @Param size query int false "Image size" default(256)
// @Success 200 {file} binary
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /rooms/{code}/qr [get]
func (h *RoomHandler) QRCode(c *gin.Context) {
	code := roomCode(c)
	if _, err := h.service.Room(c.Request.Context(), code); err != nil {
		h.fail(c, err)
		return
	}

	size := defaultQRSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > maxQRSize {
			dto.JsonError(c, http.StatusBadRequest, fmt.Sprintf("size must be between 64 and %d", maxQRSize))
			return
		}
		size = n
	}

	png, err := qrcode.Encode(h.JoinURL(code), qrcode.Medium, size)
	if err != nil {
		log.Printf("Failed to encode QR code for room %s: %v", code, err)
		dto.JsonError(c, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *RoomHandler) JoinURL(code string) string {
	return h.publicURL + "/join/" + code
}

func (h *RoomHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("Room request failed: %v", err)
	}
	dto.JsonError(c, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, quiz.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, quiz.ErrNotCreator), errors.Is(err, quiz.ErrNotInRoom):
		return http.StatusForbidden
	case errors.Is(err, quiz.ErrRoomNotWaiting),
		errors.Is(err, quiz.ErrRoomFull),
		errors.Is(err, quiz.ErrGameNotInProgress),
		errors.Is(err, quiz.ErrWrongQuestion):
		return http.StatusConflict
	case errors.Is(err, quiz.ErrNotEnoughPlayers):
		return http.StatusBadRequest
	case errors.Is(err, quiz.ErrNoQuestions):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
