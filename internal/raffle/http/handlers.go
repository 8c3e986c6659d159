package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smithos/smithos-backend/internal/payment"
	"github.com/smithos/smithos-backend/internal/raffle/domain"
)

// RaffleService is implemented by service.RaffleService.
type RaffleService interface {
	Status(ctx context.Context) (*domain.Raffle, error)
	BuyTicket(ctx context.Context, req domain.BuyTicketRequest) (*domain.Raffle, error)
	DrawWinner(ctx context.Context) (*domain.Raffle, error)
	Reset(ctx context.Context) (*domain.Raffle, error)
	History(ctx context.Context) ([]domain.Raffle, error)
}

type Handler struct {
	svc RaffleService
	log *zap.Logger
}

func New(svc RaffleService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log.Named("raffle.http")}
}

func (h *Handler) Status(c *gin.Context) {
	raffle, err := h.svc.Status(c.Request.Context())
	if err != nil {
		h.log.Error("raffle status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get raffle status"})
		return
	}
	c.JSON(http.StatusOK, raffle)
}

func (h *Handler) BuyTicket(c *gin.Context) {
	var body buyTicketRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	raffle, err := h.svc.BuyTicket(c.Request.Context(), domain.BuyTicketRequest{
		WalletAddress: body.WalletAddress,
		TicketNumber:  body.TicketNumber,
		Price:         body.Price,
		Signature:     body.Signature,
	})
	if err == nil {
		c.JSON(http.StatusOK, raffle)
		return
	}

	var verr *domain.VerificationError
	switch {
	case errors.As(err, &verr):
		msg := "Transaction verification failed"
		if errors.Is(err, payment.ErrTransactionFailed) || errors.Is(err, payment.ErrConfirmationTimeout) {
			msg = "Transaction failed to confirm"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg, "details": verr.Details})
	case errors.Is(err, domain.ErrTicketTaken), errors.Is(err, domain.ErrSignatureUsed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRaffleNotActive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Raffle is not active"})
	case errors.Is(err, domain.ErrInvalidPrice), errors.Is(err, domain.ErrInvalidTicket):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("buy ticket", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to buy ticket", "details": err.Error()})
	}
}

func (h *Handler) DrawWinner(c *gin.Context) {
	raffle, err := h.svc.DrawWinner(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, raffle)
	case errors.Is(err, domain.ErrRaffleNotActive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Raffle is not active"})
	case errors.Is(err, domain.ErrNoTickets):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No tickets purchased"})
	default:
		h.log.Error("draw winner", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to draw winner"})
	}
}

func (h *Handler) Reset(c *gin.Context) {
	raffle, err := h.svc.Reset(c.Request.Context())
	if err != nil {
		h.log.Error("reset raffle", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset raffle"})
		return
	}
	c.JSON(http.StatusOK, raffle)
}

func (h *Handler) History(c *gin.Context) {
	raffles, err := h.svc.History(c.Request.Context())
	if err != nil {
		h.log.Error("raffle history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get raffle history"})
		return
	}
	c.JSON(http.StatusOK, raffles)
}
