package usecase

import (
	"context"
	"testing"

	"diviner-booking/internal/data/entity"
	"diviner-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Auth.Register(ctx, &request.RegisterRequest{
		Email:       "Mika@Example.com",
		Password:    "correct-horse",
		Name:        "Mika",
		Role:        "DIVINER",
		DisplayName: "Mika of the Stars",
	})
	require.NoError(t, err)
	assert.Equal(t, "mika@example.com", reg.Email)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, entity.RoleDiviner, reg.Role)

	userID := uuid.MustParse(reg.UserID)
	me, err := f.svc.User.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, me.DivinerID)
	assert.Nil(t, me.ClientID)

	_, err = f.svc.Auth.Register(ctx, &request.RegisterRequest{
		Email: "mika@example.com", Password: "another-pass", Name: "Mika", Role: "CLIENT", Nickname: "m",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	login, err := f.svc.Auth.Login(ctx, &request.LoginRequest{Email: "mika@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, login.UserID)

	_, err = f.svc.Auth.Login(ctx, &request.LoginRequest{Email: "mika@example.com", Password: "wrong-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, f.svc.Auth.Logout(ctx, login.Token))
	assert.ErrorIs(t, f.svc.Auth.Logout(ctx, "not-a-token"), ErrUnauthorized)
}

func TestRegister_RoleProfileRequired(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Auth.Register(context.Background(), &request.RegisterRequest{
		Email: "new@example.com", Password: "long-enough", Name: "New", Role: "CLIENT",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReplaceAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Diviner.ReplaceAvailability(ctx, f.divinerUser, &request.ReplaceAvailabilityRequest{
		Windows: []request.AvailabilityWindowRequest{
			{DayOfWeek: 3, StartTime: "09:00", EndTime: "12:30"},
			{DayOfWeek: 6, StartTime: "20:00", EndTime: "24:00"},
		},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "24:00", out[1].EndTime)

	windows := f.store.availability[f.diviner.ID]
	require.Len(t, windows, 2)
	assert.Equal(t, 540, windows[0].StartMinute)
	assert.Equal(t, 1440, windows[1].EndMinute)

	_, err = f.svc.Diviner.ReplaceAvailability(ctx, f.divinerUser, &request.ReplaceAvailabilityRequest{
		Windows: []request.AvailabilityWindowRequest{{DayOfWeek: 1, StartTime: "12:00", EndTime: "11:00"}},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, f.store.availability[f.diviner.ID], 2)

	_, err = f.svc.Diviner.ReplaceAvailability(ctx, f.clientUser, &request.ReplaceAvailabilityRequest{})
	assert.ErrorIs(t, err, ErrDivinerNotFound)
}

func TestManageServices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := int64(500)

	created, err := f.svc.Diviner.CreateService(ctx, f.divinerUser, &request.CreateServiceRequest{
		Title: "Astrology chart", ConsultationType: "CHAT", DurationMinutes: 40, Price: 4000, FirstTimePrice: &first,
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	tooHigh := int64(5000)
	_, err = f.svc.Diviner.CreateService(ctx, f.divinerUser, &request.CreateServiceRequest{
		Title: "Bad", ConsultationType: "CHAT", DurationMinutes: 40, Price: 4000, FirstTimePrice: &tooHigh,
	})
	assert.ErrorIs(t, err, ErrValidation)

	inactive := false
	updated, err := f.svc.Diviner.UpdateService(ctx, f.divinerUser, created.ID, &request.UpdateServiceRequest{
		CreateServiceRequest: request.CreateServiceRequest{Title: "Astrology chart", ConsultationType: "CHAT", DurationMinutes: 60, Price: 4500},
		IsActive:             &inactive,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 60, updated.DurationMinutes)

	other := &entity.Diviner{BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()}, UserID: uuid.New()}
	f.store.diviners[other.ID] = other
	_, err = f.svc.Diviner.UpdateService(ctx, other.UserID, created.ID, &request.UpdateServiceRequest{
		CreateServiceRequest: request.CreateServiceRequest{Title: "Mine now", ConsultationType: "CHAT", DurationMinutes: 60, Price: 1},
	})
	assert.ErrorIs(t, err, ErrForbidden)

	profile, err := f.svc.Diviner.GetDiviner(ctx, f.diviner.ID.String())
	require.NoError(t, err)
	assert.Len(t, profile.Services, 1)
	assert.Len(t, profile.Availability, 2)
	assert.True(t, profile.AcceptsPayments)
}
