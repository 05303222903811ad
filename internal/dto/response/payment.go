package response

type PaymentIntentResponse struct {
	BookingID    string `json:"booking_id"`
	PaymentID    string `json:"payment_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	PlatformFee  int64  `json:"platform_fee"`
	DivinerNet   int64  `json:"diviner_net"`
}
