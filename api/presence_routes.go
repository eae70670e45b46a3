package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type roomRequest struct {
	Room string `json:"room" binding:"required"`
}

func (s *Server) registerPresenceRoutes(g *gin.RouterGroup) {
	g.POST("/connect", s.connect)
	g.POST("/disconnect", s.disconnect)
	g.GET("/rooms/:room", s.roomCount)
}

func (s *Server) connect(c *gin.Context) {
	var req roomRequest
	if !bindJSON(c, &req) {
		return
	}
	count, err := s.handlers.Presence.Connect(c.Request.Context(), req.Room, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": req.Room, "count": count})
}

func (s *Server) disconnect(c *gin.Context) {
	var req roomRequest
	if !bindJSON(c, &req) {
		return
	}
	count, err := s.handlers.Presence.Disconnect(c.Request.Context(), req.Room, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": req.Room, "count": count})
}

func (s *Server) roomCount(c *gin.Context) {
	room := c.Param("room")
	count, err := s.handlers.Presence.Count(c.Request.Context(), room)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "count": count})
}
