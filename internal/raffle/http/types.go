package http

type buyTicketRequest struct {
	WalletAddress string  `json:"walletAddress" binding:"required"`
	TicketNumber  int     `json:"ticketNumber" binding:"required"`
	Price         float64 `json:"price" binding:"required"`
	Signature     string  `json:"signature" binding:"required"`
}
