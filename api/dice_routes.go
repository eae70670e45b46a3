package api

import (
	"net/http"

	"github.com/arenaplay/arena/application/dto"

	"github.com/gin-gonic/gin"
)

type joinQueueRequest struct {
	Stake int64 `json:"stake" binding:"required"`
}

func (s *Server) registerDiceRoutes(g *gin.RouterGroup) {
	g.GET("/queue", s.getQueue)
	g.POST("/queue", s.joinQueue)
	g.DELETE("/queue", s.leaveQueue)
	g.GET("/battles/:id", s.getBattle)
	g.POST("/battles/:id/rolls", s.submitRoll)
}

func (s *Server) getQueue(c *gin.Context) {
	buckets, err := s.handlers.Dice.GetQueue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQueueDTO(buckets))
}

func (s *Server) joinQueue(c *gin.Context) {
	var req joinQueueRequest
	if !bindJSON(c, &req) {
		return
	}
	ticket, err := s.handlers.Dice.JoinMatchmaking(c.Request.Context(), currentUser(c), req.Stake)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewTicketDTO(ticket))
}

func (s *Server) leaveQueue(c *gin.Context) {
	if err := s.handlers.Dice.LeaveMatchmaking(c.Request.Context(), currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getBattle(c *gin.Context) {
	battleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	battle, err := s.handlers.Dice.GetBattle(c.Request.Context(), battleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBattleView(battle))
}

func (s *Server) submitRoll(c *gin.Context) {
	battleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := s.handlers.Dice.SubmitRoll(c.Request.Context(), battleID, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewRollDTO(result))
}
