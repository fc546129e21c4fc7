package roomhandler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/karthikeya-tummala/echo-chat/internal/chat/registry"
	"github.com/karthikeya-tummala/echo-chat/internal/chat/validate"
	"github.com/karthikeya-tummala/echo-chat/internal/store/messagestore"
)

type Handler struct {
	reg          *registry.Registry
	store        messagestore.IMessageStore
	historyLimit int
}

func New(reg *registry.Registry, store messagestore.IMessageStore, historyLimit int) *Handler {
	return &Handler{reg: reg, store: store, historyLimit: historyLimit}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/healthz", h.health)
	r.GET("/rooms/:code", h.info)
	r.GET("/rooms/:code/messages", h.history)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary		Get room details
// @Description	Returns the member count of a live room.
// @Tags			Rooms
// @Param			code	path		string	true	"Room code"	default(ABCDEF)
// @Success		200	{object}	RoomInfoResponse
// @Failure		400	{object}	ErrorResponse
// @Failure		404	{object}	ErrorResponse
// @Router			/rooms/{code} [get]
func (h *Handler) info(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	if err := validate.RoomCode(code); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if !h.reg.Exists(code) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Room doesn't exist"})
		return
	}
	c.JSON(http.StatusOK, RoomInfoResponse{Code: code, Members: h.reg.Count(code)})
}

// @Summary		Room message history
// @Description	Returns the most recent persisted messages of a room, oldest first.
// @Tags			Rooms
// @Param			code	path		string	true	"Room code"				default(ABCDEF)
// @Param			limit	query		int		false	"Max messages (1-50)"	minimum(1)	maximum(50)	default(50)
// @Success		200	{array}		messagestore.Message
// @Failure		400	{object}	ErrorResponse
// @Failure		404	{object}	ErrorResponse
// @Failure		500	{object}	ErrorResponse
// @Router			/rooms/{code}/messages [get]
func (h *Handler) history(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	if err := validate.RoomCode(code); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if !h.reg.Exists(code) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Room doesn't exist"})
		return
	}

	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	limit := q.Limit
	if limit == 0 || limit > h.historyLimit {
		limit = h.historyLimit
	}

	recent, err := h.store.FindRecent(c.Request.Context(), code, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, messagestore.Chronological(recent))
}
