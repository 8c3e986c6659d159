package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smithos/smithos-backend/internal/clock"
	"github.com/smithos/smithos-backend/internal/payment"
	"github.com/smithos/smithos-backend/internal/raffle/domain"
)

// Store is the persistence the raffle service needs.
type Store interface {
	Current(ctx context.Context) (*domain.Raffle, error)
	Create(ctx context.Context, raffle *domain.Raffle) error
	Reset(ctx context.Context, raffle *domain.Raffle) error
	AddTicket(ctx context.Context, raffleID string, t *domain.Ticket) error
	Close(ctx context.Context, raffleID string, winningNumber int, endTime time.Time) error
	History(ctx context.Context) ([]domain.Raffle, error)
	SignatureUsed(ctx context.Context, signature string) (bool, error)
}

// Verifier checks a payment claim against the ledger.
type Verifier interface {
	VerifyTransaction(ctx context.Context, claim payment.Claim) payment.Result
}

// Picker returns a uniformly random index in [0, n).
type Picker func(n int) (int, error)

type Config struct {
	WalletAddress string
	TicketPrice   float64
}

// RaffleService handles business logic for raffles
type RaffleService struct {
	store    Store
	verifier Verifier
	cfg      Config
	clock    clock.Clock
	pick     Picker
	log      *zap.Logger
}

type Option func(*RaffleService)

func WithClock(c clock.Clock) Option { return func(s *RaffleService) { s.clock = c } }

func WithPicker(p Picker) Option { return func(s *RaffleService) { s.pick = p } }

func WithLogger(l *zap.Logger) Option { return func(s *RaffleService) { s.log = l } }

// NewRaffleService creates a new RaffleService
func NewRaffleService(store Store, verifier Verifier, cfg Config, opts ...Option) *RaffleService {
	s := &RaffleService{
		store:    store,
		verifier: verifier,
		cfg:      cfg,
		clock:    clock.Real(),
		pick:     cryptoPick,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("raffle")
	return s
}

// Status returns the current raffle, starting one if none has ever existed.
func (s *RaffleService) Status(ctx context.Context) (*domain.Raffle, error) {
	raffle, err := s.store.Current(ctx)
	if err == nil {
		return raffle, nil
	}
	if !errors.Is(err, domain.ErrRaffleNotFound) {
		return nil, err
	}

	raffle = s.newRaffle()
	if err := s.store.Create(ctx, raffle); err != nil {
		if errors.Is(err, domain.ErrActiveRaffleExists) {
			return s.store.Current(ctx)
		}
		return nil, err
	}
	s.log.Info("raffle started", zap.String("raffle_id", raffle.ID))
	return raffle, nil
}

// BuyTicket verifies the payment behind req and records the ticket. It
// returns the updated raffle.
func (s *RaffleService) BuyTicket(ctx context.Context, req domain.BuyTicketRequest) (*domain.Raffle, error) {
	req.WalletAddress = strings.TrimSpace(req.WalletAddress)
	req.Signature = strings.TrimSpace(req.Signature)
	if req.WalletAddress == "" || req.Signature == "" || req.TicketNumber <= 0 {
		return nil, domain.ErrInvalidTicket
	}
	if math.Abs(req.Price-s.cfg.TicketPrice) > payment.AmountTolerance {
		return nil, fmt.Errorf("%w: expected %v SOL", domain.ErrInvalidPrice, s.cfg.TicketPrice)
	}

	raffle, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}
	if !raffle.IsActive {
		return nil, domain.ErrRaffleNotActive
	}
	for _, t := range raffle.Tickets {
		if t.Number == req.TicketNumber {
			return nil, domain.ErrTicketTaken
		}
	}

	used, err := s.store.SignatureUsed(ctx, req.Signature)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, domain.ErrSignatureUsed
	}

	res := s.verifier.VerifyTransaction(ctx, payment.Claim{
		Signature:        req.Signature,
		ExpectedAmount:   req.Price,
		ExpectedSender:   req.WalletAddress,
		ExpectedReceiver: s.cfg.WalletAddress,
	})
	if !res.Verified {
		return nil, &domain.VerificationError{Reason: res.Err, Details: res.Error}
	}

	ticket := &domain.Ticket{
		Number:        req.TicketNumber,
		WalletAddress: req.WalletAddress,
		Price:         req.Price,
		PurchaseTime:  res.Timestamp,
		Signature:     req.Signature,
		Verification: domain.Verification{
			ConfirmedAt: res.Timestamp,
			Amount:      res.Amount,
			Sender:      res.Sender,
			Receiver:    res.Receiver,
		},
	}
	if err := s.store.AddTicket(ctx, raffle.ID, ticket); err != nil {
		return nil, err
	}

	s.log.Info("ticket purchased",
		zap.String("raffle_id", raffle.ID),
		zap.Int("number", ticket.Number),
		zap.String("wallet", ticket.WalletAddress))

	return s.store.Current(ctx)
}

// DrawWinner picks a uniformly random ticket and closes the raffle.
func (s *RaffleService) DrawWinner(ctx context.Context) (*domain.Raffle, error) {
	raffle, err := s.store.Current(ctx)
	if errors.Is(err, domain.ErrRaffleNotFound) {
		return nil, domain.ErrRaffleNotActive
	}
	if err != nil {
		return nil, err
	}
	if !raffle.IsActive {
		return nil, domain.ErrRaffleNotActive
	}
	if len(raffle.Tickets) == 0 {
		return nil, domain.ErrNoTickets
	}

	i, err := s.pick(len(raffle.Tickets))
	if err != nil {
		return nil, fmt.Errorf("pick winner: %w", err)
	}
	winning := raffle.Tickets[i].Number
	end := s.clock.Now().UTC()

	if err := s.store.Close(ctx, raffle.ID, winning, end); err != nil {
		return nil, err
	}

	raffle.IsActive = false
	raffle.WinningNumber = &winning
	raffle.EndTime = &end

	s.log.Info("raffle drawn",
		zap.String("raffle_id", raffle.ID),
		zap.Int("winning_number", winning),
		zap.Int("tickets", len(raffle.Tickets)))
	return raffle, nil
}

// Reset abandons any active raffle and starts a fresh one.
func (s *RaffleService) Reset(ctx context.Context) (*domain.Raffle, error) {
	raffle := s.newRaffle()
	if err := s.store.Reset(ctx, raffle); err != nil {
		return nil, err
	}
	s.log.Info("raffle reset", zap.String("raffle_id", raffle.ID))
	return raffle, nil
}

func (s *RaffleService) History(ctx context.Context) ([]domain.Raffle, error) {
	return s.store.History(ctx)
}

func (s *RaffleService) newRaffle() *domain.Raffle {
	return &domain.Raffle{
		Tickets:   []domain.Ticket{},
		IsActive:  true,
		StartTime: s.clock.Now().UTC(),
	}
}

func cryptoPick(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
