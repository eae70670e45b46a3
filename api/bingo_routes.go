package api

import (
	"net/http"

	"github.com/arenaplay/arena/application/dto"

	"github.com/gin-gonic/gin"
)

type drawRequest struct {
	Number int64 `json:"number" binding:"required"`
}

func (s *Server) registerBingoRoutes(g *gin.RouterGroup) {
	g.POST("/games", s.createGame)
	g.GET("/games/:id", s.getGame)
	g.GET("/games/:id/cards", s.getCards)
	g.POST("/games/:id/units", s.purchaseUnit)
	g.POST("/games/:id/start", s.startGame)
	g.POST("/games/:id/auto-draw", s.toggleAutoDraw)
	g.POST("/games/:id/draws", s.manualDraw)
	g.POST("/games/:id/claims", s.claimWin)
}

func (s *Server) createGame(c *gin.Context) {
	var req dto.CreateGameDTO
	if !bindJSON(c, &req) {
		return
	}
	req.OrganizerID = currentUser(c)

	game, err := s.handlers.Bingo.CreateGame(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewGameView(game))
}

func (s *Server) getGame(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	game, err := s.handlers.Bingo.GetGame(c.Request.Context(), gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewGameView(game))
}

func (s *Server) getCards(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	cards, err := s.handlers.Bingo.GetCards(c.Request.Context(), gameID, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCardDTOs(cards))
}

func (s *Server) purchaseUnit(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := s.handlers.Bingo.PurchaseUnit(c.Request.Context(), gameID, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewPurchaseDTO(result))
}

func (s *Server) startGame(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	game, err := s.handlers.Bingo.StartGame(c.Request.Context(), gameID, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewGameView(game))
}

func (s *Server) toggleAutoDraw(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	game, err := s.handlers.Bingo.ToggleAutoDraw(c.Request.Context(), gameID, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewGameView(game))
}

func (s *Server) manualDraw(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req drawRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := s.handlers.Bingo.ManualDraw(c.Request.Context(), gameID, currentUser(c), req.Number)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewDrawDTO(result))
}

// claimWin answers 200 both for a fresh settlement and for a game someone
// else already settled; the body's settled flag tells them apart
func (s *Server) claimWin(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	settlement, err := s.handlers.Bingo.ClaimWin(c.Request.Context(), gameID, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSettlementDTO(gameID, settlement))
}
