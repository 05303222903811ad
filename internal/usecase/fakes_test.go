package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"diviner-booking/internal/data/entity"
	"diviner-booking/internal/data/repository"
	"diviner-booking/internal/gateway"
	"diviner-booking/internal/resolver"
	"diviner-booking/pkg/metrics"
	"diviner-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// store is an in-memory stand-in for the repositories.
type store struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*entity.User
	sessions     map[string]*entity.Session
	clients      map[uuid.UUID]*entity.Client
	diviners     map[uuid.UUID]*entity.Diviner
	availability map[uuid.UUID][]entity.Availability
	services     map[uuid.UUID]*entity.Service
	bookings     map[uuid.UUID]*entity.Booking
	payments     map[uuid.UUID]*entity.Payment
	reviews      map[uuid.UUID]*entity.Review

	// ops records the order of rating-related writes.
	ops []string

	// createBookingErr is returned once by Booking.Create.
	createBookingErr error
}

func newStore() *store {
	return &store{
		users:        map[uuid.UUID]*entity.User{},
		sessions:     map[string]*entity.Session{},
		clients:      map[uuid.UUID]*entity.Client{},
		diviners:     map[uuid.UUID]*entity.Diviner{},
		availability: map[uuid.UUID][]entity.Availability{},
		services:     map[uuid.UUID]*entity.Service{},
		bookings:     map[uuid.UUID]*entity.Booking{},
		payments:     map[uuid.UUID]*entity.Payment{},
		reviews:      map[uuid.UUID]*entity.Review{},
	}
}

func (s *store) repository() *repository.Repository {
	return &repository.Repository{
		Tx:           fakeTx{},
		User:         userMem{s},
		Session:      sessionMem{s},
		Client:       clientMem{s},
		Diviner:      divinerMem{s},
		Availability: availabilityMem{s},
		Service:      serviceMem{s},
		Booking:      bookingMem{s},
		Payment:      paymentMem{s},
		Review:       reviewMem{s},
	}
}

type fakeTx struct{}

func (fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
func (fakeTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type userMem struct{ s *store }

func (m userMem) Create(_ context.Context, u *entity.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *u
	m.s.users[u.ID] = &cp
	return nil
}

func (m userMem) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if u, ok := m.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m userMem) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

type sessionMem struct{ s *store }

func (m sessionMem) Create(_ context.Context, session *entity.Session) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *session
	m.s.sessions[session.Token.String()] = &cp
	return nil
}

func (m sessionMem) FindValidSession(_ context.Context, token string) (*entity.Session, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if session, ok := m.s.sessions[token]; ok && session.RevokedAt == nil {
		cp := *session
		return &cp, nil
	}
	return nil, nil
}

func (m sessionMem) Revoke(_ context.Context, token string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	session, ok := m.s.sessions[token]
	if !ok {
		return errors.New("session not found")
	}
	now := time.Now()
	session.RevokedAt = &now
	return nil
}

type clientMem struct{ s *store }

func (m clientMem) Create(_ context.Context, c *entity.Client) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *c
	m.s.clients[c.ID] = &cp
	return nil
}

func (m clientMem) FindByID(_ context.Context, id uuid.UUID) (*entity.Client, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c, ok := m.s.clients[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m clientMem) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.Client, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.clients {
		if c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

type divinerMem struct{ s *store }

func (m divinerMem) LockForUpdate(_ context.Context, id uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.diviners[id]; !ok {
		return errors.New("diviner not found")
	}
	m.s.ops = append(m.s.ops, "lock diviner")
	return nil
}

func (m divinerMem) Create(_ context.Context, d *entity.Diviner) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *d
	m.s.diviners[d.ID] = &cp
	return nil
}

func (m divinerMem) FindByID(_ context.Context, id uuid.UUID) (*entity.Diviner, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if d, ok := m.s.diviners[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (m divinerMem) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.Diviner, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, d := range m.s.diviners {
		if d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (m divinerMem) UpdatePayoutAccount(_ context.Context, id uuid.UUID, accountID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.diviners[id].PayoutAccountID = &accountID
	return nil
}

func (m divinerMem) IncrementBookingCount(_ context.Context, id uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.diviners[id].BookingCount++
	return nil
}

func (m divinerMem) UpdateRating(_ context.Context, id uuid.UUID, avg decimal.Decimal, count int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.diviners[id].RatingAvg = avg
	m.s.diviners[id].ReviewCount = count
	return nil
}

type availabilityMem struct{ s *store }

func (m availabilityMem) FindActiveByDiviner(_ context.Context, divinerID uuid.UUID) ([]entity.Availability, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []entity.Availability
	for _, w := range m.s.availability[divinerID] {
		if w.IsActive {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m availabilityMem) ReplaceForDiviner(_ context.Context, divinerID uuid.UUID, windows []entity.Availability) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.availability[divinerID] = append([]entity.Availability(nil), windows...)
	return nil
}

type serviceMem struct{ s *store }

func (m serviceMem) Create(_ context.Context, svc *entity.Service) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *svc
	m.s.services[svc.ID] = &cp
	return nil
}

func (m serviceMem) Update(_ context.Context, svc *entity.Service) error {
	return m.Create(context.Background(), svc)
}

func (m serviceMem) FindByID(_ context.Context, id uuid.UUID) (*entity.Service, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if svc, ok := m.s.services[id]; ok {
		cp := *svc
		return &cp, nil
	}
	return nil, nil
}

func (m serviceMem) FindActiveByDiviner(_ context.Context, divinerID uuid.UUID) ([]*entity.Service, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.Service
	for _, svc := range m.s.services {
		if svc.DivinerID == divinerID && svc.IsActive {
			cp := *svc
			out = append(out, &cp)
		}
	}
	return out, nil
}

type bookingMem struct{ s *store }

func (m bookingMem) Create(_ context.Context, b *entity.Booking) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.createBookingErr; err != nil {
		m.s.createBookingErr = nil
		return err
	}
	cp := *b
	m.s.bookings[b.ID] = &cp
	return nil
}

func (m bookingMem) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if b, ok := m.s.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (m bookingMem) List(_ context.Context, f repository.BookingFilter) ([]*entity.Booking, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []*entity.Booking
	for _, b := range m.s.bookings {
		if f.ClientID != nil && b.ClientID != *f.ClientID {
			continue
		}
		if f.DivinerID != nil && b.DivinerID != *f.DivinerID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		cp := *b
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ScheduledAt.After(all[j].ScheduledAt) })

	total := int64(len(all))
	if f.Offset >= len(all) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end], total, nil
}

func (m bookingMem) FindHoldingOverlap(_ context.Context, divinerID uuid.UUID, start, end time.Time, _ bool) ([]entity.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []entity.Booking
	for _, b := range m.s.bookings {
		if b.DivinerID == divinerID && b.Status.HoldsSlot() && resolver.Overlaps(b.ScheduledAt, b.EndsAt, start, end) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m bookingMem) CountCompleted(_ context.Context, clientID, divinerID uuid.UUID) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n := 0
	for _, b := range m.s.bookings {
		if b.ClientID == clientID && b.DivinerID == divinerID && b.Status == entity.BookingStatusCompleted {
			n++
		}
	}
	return n, nil
}

func (m bookingMem) UpdateStatus(_ context.Context, id uuid.UUID, status entity.BookingStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.bookings[id].Status = status
	return nil
}

func (m bookingMem) Cancel(_ context.Context, id uuid.UUID, reason string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b := m.s.bookings[id]
	b.Status = entity.BookingStatusCancelled
	if reason != "" {
		b.CancelReason = &reason
	}
	b.CancelledAt = &at
	return nil
}

type paymentMem struct{ s *store }

func (m paymentMem) Upsert(_ context.Context, p *entity.Payment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.payments {
		if existing.BookingID == p.BookingID {
			p.ID = existing.ID
			break
		}
	}
	cp := *p
	m.s.payments[p.ID] = &cp
	return nil
}

func (m paymentMem) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.payments {
		if p.BookingID == bookingID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m paymentMem) FindByBookingIDForUpdate(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	return m.FindByBookingID(ctx, bookingID)
}

func (m paymentMem) FindByGatewayID(_ context.Context, gatewayPaymentID string) (*entity.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.payments {
		if p.GatewayPaymentID != nil && *p.GatewayPaymentID == gatewayPaymentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m paymentMem) MarkSucceeded(_ context.Context, id uuid.UUID, fee, net int64, paidAt time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p := m.s.payments[id]
	p.Status = entity.PaymentStatusSucceeded
	p.PlatformFee = fee
	p.DivinerNet = net
	p.PaidAt = &paidAt
	return nil
}

func (m paymentMem) UpdateStatus(_ context.Context, id uuid.UUID, status entity.PaymentStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.payments[id].Status = status
	return nil
}

type reviewMem struct{ s *store }

func (m reviewMem) Create(_ context.Context, r *entity.Review) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.reviews {
		if existing.BookingID == r.BookingID {
			return errors.New("duplicate review")
		}
	}
	cp := *r
	m.s.reviews[r.ID] = &cp
	m.s.ops = append(m.s.ops, "create review")
	return nil
}

func (m reviewMem) ExistsForBooking(_ context.Context, bookingID uuid.UUID) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.reviews {
		if r.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (m reviewMem) ListVisibleByDiviner(_ context.Context, divinerID uuid.UUID, limit, offset int) ([]*entity.Review, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []*entity.Review
	for _, r := range m.s.reviews {
		if r.DivinerID == divinerID && r.IsVisible {
			cp := *r
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m reviewMem) VisibleRatings(_ context.Context, divinerID uuid.UUID) ([]int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.ops = append(m.s.ops, "read ratings")
	var out []int
	for _, r := range m.s.reviews {
		if r.DivinerID == divinerID && r.IsVisible {
			out = append(out, r.Rating)
		}
	}
	return out, nil
}

type fakeGateway struct {
	intents   []gateway.SplitPaymentRequest
	refunds   []string
	cancels   []string
	event     *gateway.Event
	createErr error
	refundErr error
	cancelErr error
	parseErr  error
}

func (g *fakeGateway) CreateSplitPayment(_ context.Context, req gateway.SplitPaymentRequest) (*gateway.PaymentIntent, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.intents = append(g.intents, req)
	return &gateway.PaymentIntent{ID: "pi_" + req.BookingID.String()[:8], ClientSecret: "secret"}, nil
}

func (g *fakeGateway) Refund(_ context.Context, paymentID string) error {
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunds = append(g.refunds, paymentID)
	return nil
}

func (g *fakeGateway) CancelPayment(_ context.Context, paymentID string) error {
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.cancels = append(g.cancels, paymentID)
	return nil
}

func (g *fakeGateway) ParseWebhook(_ []byte, _ string) (*gateway.Event, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.event, nil
}

type published struct {
	key   string
	value any
}

type fakePublisher struct {
	messages []published
}

func (p *fakePublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.messages = append(p.messages, published{key: key, value: v})
	return nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// fixture is a marketplace with one client and one diviner who works
// Monday and Tuesday 10:00-18:00 Tokyo time.
type fixture struct {
	store   *store
	svc     *Service
	gateway *fakeGateway
	clock   fixedClock
	loc     *time.Location

	clientUser  uuid.UUID
	client      *entity.Client
	divinerUser uuid.UUID
	diviner     *entity.Diviner
	service     *entity.Service
}

func tokyo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	return loc
}

func testConfig() *utils.Config {
	return &utils.Config{
		App:     utils.AppConfig{Name: "test", Timezone: "Asia/Tokyo"},
		Session: utils.SessionConfig{TTLHours: 24},
		Booking: utils.BookingConfig{
			HorizonDays:     30,
			SlotStepMinutes: 30,
			PlatformFeeRate: decimal.RequireFromString("0.186"),
			Currency:        "jpy",
		},
	}
}

func newFixture(t *testing.T, opts ...func(*Deps)) *fixture {
	t.Helper()
	loc := tokyo(t)
	st := newStore()
	f := &fixture{
		store:   st,
		gateway: &fakeGateway{},
		// Monday 2026-10-19 09:00
		clock: fixedClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, loc)},
		loc:   loc,
	}

	f.clientUser = uuid.New()
	f.client = &entity.Client{BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()}, UserID: f.clientUser, Nickname: "hoshi"}
	st.clients[f.client.ID] = f.client
	st.users[f.clientUser] = &entity.User{Base: entity.Base{ID: f.clientUser}, Email: "client@example.com", Role: entity.RoleClient, IsActive: true}

	account := "acct_123"
	f.divinerUser = uuid.New()
	f.diviner = &entity.Diviner{BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()}, UserID: f.divinerUser, DisplayName: "Madame Tsuki", PayoutAccountID: &account}
	st.diviners[f.diviner.ID] = f.diviner
	st.users[f.divinerUser] = &entity.User{Base: entity.Base{ID: f.divinerUser}, Email: "tsuki@example.com", Role: entity.RoleDiviner, IsActive: true}

	for _, day := range []time.Weekday{time.Monday, time.Tuesday} {
		st.availability[f.diviner.ID] = append(st.availability[f.diviner.ID], entity.Availability{
			BaseSimple: entity.BaseSimple{ID: uuid.New()},
			DivinerID:  f.diviner.ID, DayOfWeek: day, StartMinute: 600, EndMinute: 1080, IsActive: true,
		})
	}

	firstTime := int64(1000)
	f.service = &entity.Service{
		BaseNoDelete:     entity.BaseNoDelete{ID: uuid.New()},
		DivinerID:        f.diviner.ID,
		Title:            "Tarot reading",
		ConsultationType: entity.ConsultationVideoCall,
		DurationMinutes:  20,
		Price:            3000,
		FirstTimePrice:   &firstTime,
		IsActive:         true,
	}
	st.services[f.service.ID] = f.service

	deps := Deps{
		Clock:   f.clock,
		Gateway: f.gateway,
		Metrics: metrics.New(prometheus.NewRegistry(), "test"),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.svc = NewService(st.repository(), testConfig(), deps, zap.NewNop())
	return f
}

// at returns a Tokyo wall-clock time in the fixture's week.
func (f *fixture) at(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, f.loc)
}

func (f *fixture) addBooking(start time.Time, minutes int, status entity.BookingStatus) *entity.Booking {
	b := &entity.Booking{
		BaseNoDelete:    entity.BaseNoDelete{ID: uuid.New(), CreatedAt: f.clock.now},
		ClientID:        f.client.ID,
		DivinerID:       f.diviner.ID,
		ServiceID:       f.service.ID,
		ScheduledAt:     start,
		EndsAt:          start.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
		TotalAmount:     3000,
		Status:          status,
	}
	f.store.bookings[b.ID] = b
	return b
}

func (f *fixture) addPayment(bookingID uuid.UUID, amount int64, status entity.PaymentStatus) *entity.Payment {
	gatewayID := "pi_" + bookingID.String()[:8]
	p := &entity.Payment{
		BaseNoDelete:     entity.BaseNoDelete{ID: uuid.New()},
		BookingID:        bookingID,
		Amount:           amount,
		GatewayPaymentID: &gatewayID,
		Status:           status,
	}
	f.store.payments[p.ID] = p
	return p
}
