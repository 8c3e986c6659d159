package domain

import "time"

// Raffle is one ticket round. At most one raffle is active at a time.
type Raffle struct {
	ID            string     `json:"id"`
	Tickets       []Ticket   `json:"tickets"`
	PrizePool     float64    `json:"prizePool"`
	IsActive      bool       `json:"isActive"`
	WinningNumber *int       `json:"winningNumber"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       *time.Time `json:"endTime"`
}

// Ticket is a purchased, payment-verified entry.
type Ticket struct {
	Number        int          `json:"number"`
	WalletAddress string       `json:"walletAddress"`
	Price         float64      `json:"price"`
	PurchaseTime  time.Time    `json:"purchaseTime"`
	Signature     string       `json:"signature"`
	Verification  Verification `json:"verificationDetails"`
}

// Verification records what the ledger confirmed for a ticket's payment.
type Verification struct {
	ConfirmedAt time.Time `json:"confirmedAt"`
	Amount      float64   `json:"amount"`
	Sender      string    `json:"sender"`
	Receiver    string    `json:"receiver"`
}

// BuyTicketRequest is a purchase claim backed by a ledger signature.
type BuyTicketRequest struct {
	WalletAddress string
	TicketNumber  int
	Price         float64
	Signature     string
}
