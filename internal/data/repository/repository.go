package repository

import (
	"diviner-booking/pkg/database"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repository struct {
	Tx           database.TxManager
	User         UserRepository
	Session      SessionRepository
	Client       ClientRepository
	Diviner      DivinerRepository
	Availability AvailabilityRepository
	Service      ServiceRepository
	Booking      BookingRepository
	Payment      PaymentRepository
	Review       ReviewRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Tx:           database.NewTxManager(db),
		User:         NewUserRepository(db, log),
		Session:      NewSessionRepository(db, log),
		Client:       NewClientRepository(db, log),
		Diviner:      NewDivinerRepository(db, log),
		Availability: NewAvailabilityRepository(db, log),
		Service:      NewServiceRepository(db, log),
		Booking:      NewBookingRepository(db, log),
		Payment:      NewPaymentRepository(db, log),
		Review:       NewReviewRepository(db, log),
	}
}
