package api

import (
	"net/http"

	"github.com/arenaplay/arena/application/dto"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// registerAdminRoutes mounts operator endpoints. Role checks belong to the
// web layer that sets X-User-ID; the caller is only logged here.
func (s *Server) registerAdminRoutes(g *gin.RouterGroup) {
	g.POST("/accounts/:user/credits", s.adminCredit)
	g.POST("/accounts/:user/withdrawals/:entry/refund", s.refundWithdrawal)
	g.GET("/accounts/:user/reconciliation", s.reconcile)
	g.POST("/sweep", s.sweep)
}

func (s *Server) adminCredit(c *gin.Context) {
	userID, ok := pathID(c, "user")
	if !ok {
		return
	}
	var req amountRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := s.handlers.Ledger.AdminCredit(c.Request.Context(), userID, req.Amount, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	log.WithFields(log.Fields{
		"adminID": currentUser(c),
		"userID":  userID,
		"amount":  req.Amount,
	}).Info("Admin credit issued over HTTP")
	c.JSON(http.StatusCreated, dto.NewLedgerEntryDTO(entry))
}

func (s *Server) refundWithdrawal(c *gin.Context) {
	userID, ok := pathID(c, "user")
	if !ok {
		return
	}
	entryID, ok := pathID(c, "entry")
	if !ok {
		return
	}
	entry, err := s.handlers.Ledger.RefundWithdrawal(c.Request.Context(), userID, entryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewLedgerEntryDTO(entry))
}

func (s *Server) reconcile(c *gin.Context) {
	userID, ok := pathID(c, "user")
	if !ok {
		return
	}
	report, err := s.handlers.Ledger.Reconcile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewReconciliationDTO(report))
}

func (s *Server) sweep(c *gin.Context) {
	report := s.handlers.Sweeper.RunSweep(c.Request.Context())
	c.JSON(http.StatusOK, dto.NewSweepDTO(report))
}
