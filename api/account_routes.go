package api

import (
	"net/http"
	"strconv"

	"github.com/arenaplay/arena/application/dto"

	"github.com/gin-gonic/gin"
)

type openAccountRequest struct {
	Username string `json:"username" binding:"required,max=64"`
}

type amountRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Note   string `json:"note"`
}

func (s *Server) registerAccountRoutes(g *gin.RouterGroup) {
	g.POST("", s.openAccount)
	g.GET("/me", s.getAccount)
	g.GET("/me/history", s.getHistory)
	g.POST("/me/withdrawals", s.withdraw)
}

func (s *Server) openAccount(c *gin.Context) {
	var req openAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	account, err := s.handlers.Ledger.OpenAccount(c.Request.Context(), currentUser(c), req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewAccountDTO(account))
}

func (s *Server) getAccount(c *gin.Context) {
	account, err := s.handlers.Ledger.GetAccount(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAccountDTO(account))
}

func (s *Server) getHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := s.handlers.Ledger.History(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLedgerEntryDTOs(entries))
}

func (s *Server) withdraw(c *gin.Context) {
	var req amountRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := s.handlers.Ledger.Withdraw(c.Request.Context(), currentUser(c), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewLedgerEntryDTO(entry))
}
