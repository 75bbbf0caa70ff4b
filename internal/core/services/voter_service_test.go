package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
	"github.com/vncsmyrnk/evote/internal/core/ports/mocks"
	"github.com/vncsmyrnk/evote/internal/core/services"
)

func registration() ports.RegisterVoterInput {
	return ports.RegisterVoterInput{
		Username:        "jdoe",
		FirstName:       "Jane",
		LastName:        "Doe",
		Email:           "Jane.Doe@Example.com",
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
		DateOfBirth:     "1995-08-21",
		NationalID:      "987654321",
	}
}

func TestVoterService_RegisterAndVerify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)

	var token string
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Do(func(_ context.Context, ev domain.Event) {
		assert.Equal(t, domain.EventVoterRegistered, ev.Type)
		assert.Equal(t, "jane.doe@example.com", ev.Attributes["email"])
		token = ev.Attributes["verification_token"]
	})

	svc := services.NewVoterService(f.voters, fixedClock(now), services.WithNotifier(notifier), services.WithBcryptCost(bcrypt.MinCost))

	voter, err := svc.Register(ctx, registration())
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", voter.Email)
	assert.Equal(t, domain.RoleVoter, voter.Role)
	assert.False(t, voter.Verified)
	assert.False(t, voter.CanVote(now), "unverified voters cannot vote")
	assert.NotEqual(t, "s3cret-pass", voter.PasswordHash)

	require.NotEmpty(t, token)
	verified, err := svc.Verify(ctx, uuid.MustParse(token))
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.True(t, verified.CanVote(now))

	_, err = svc.Verify(ctx, uuid.MustParse(token))
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestVoterService_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	svc := services.NewVoterService(f.voters, fixedClock(now), services.WithBcryptCost(bcrypt.MinCost))

	tests := []struct {
		name    string
		mutate  func(*ports.RegisterVoterInput)
		wantErr error
	}{
		{"missing username", func(in *ports.RegisterVoterInput) { in.Username = " " }, domain.ErrInvalidInput},
		{"bad email", func(in *ports.RegisterVoterInput) { in.Email = "nope" }, domain.ErrInvalidInput},
		{"password mismatch", func(in *ports.RegisterVoterInput) { in.ConfirmPassword = "other" }, domain.ErrPasswordMismatch},
		{"bad date", func(in *ports.RegisterVoterInput) { in.DateOfBirth = "21/08/1995" }, domain.ErrInvalidInput},
		// 18th birthday is the day after now
		{"underage by one day", func(in *ports.RegisterVoterInput) { in.DateOfBirth = "2008-06-02" }, domain.ErrUnderage},
		{"born in the future", func(in *ports.RegisterVoterInput) { in.DateOfBirth = "2030-01-01" }, domain.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := registration()
			tc.mutate(&in)
			_, err := svc.Register(context.Background(), in)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	in := registration()
	in.DateOfBirth = "2008-06-01"
	_, err := svc.Register(context.Background(), in)
	assert.NoError(t, err, "eligible on the 18th birthday")
}

func TestVoterService_RegisterRejectsTakenIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := services.NewVoterService(f.voters, fixedClock(now), services.WithBcryptCost(bcrypt.MinCost))

	_, err := svc.Register(ctx, registration())
	require.NoError(t, err)

	again := registration()
	again.Username = "other"
	again.NationalID = "1"
	_, err = svc.Register(ctx, again)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	again = registration()
	again.Username = "other"
	again.Email = "other@example.com"
	_, err = svc.Register(ctx, again)
	assert.ErrorIs(t, err, domain.ErrNationalIDTaken)
}

func TestVoterService_AuthenticateAndProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := services.NewVoterService(f.voters, fixedClock(now), services.WithBcryptCost(bcrypt.MinCost))

	voter, err := svc.Register(ctx, registration())
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, " JANE.DOE@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, voter.ID, got.ID)

	_, err = svc.Authenticate(ctx, "jane.doe@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	_, err = svc.Authenticate(ctx, "ghost@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)

	phone := "+15555550100"
	updated, err := svc.UpdateProfile(ctx, voter.ID, ports.UpdateProfileInput{Phone: &phone})
	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)

	bad := "yesterday"
	_, err = svc.UpdateProfile(ctx, voter.ID, ports.UpdateProfileInput{DateOfBirth: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	future := "2027-01-01"
	_, err = svc.UpdateProfile(ctx, voter.ID, ports.UpdateProfileInput{DateOfBirth: &future})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	minor := "2008-06-02"
	_, err = svc.UpdateProfile(ctx, voter.ID, ports.UpdateProfileInput{DateOfBirth: &minor})
	assert.ErrorIs(t, err, domain.ErrUnderage)

	stored, err := svc.GetByID(ctx, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, "1995-08-21", stored.DateOfBirth.Format("2006-01-02"), "rejected dates are not stored")

	admin, err := svc.SetRole(ctx, "jane.doe@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	_, err = svc.SetRole(ctx, "jane.doe@example.com", "root")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVoterService_PhoneIsUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := services.NewVoterService(f.voters, fixedClock(now), services.WithBcryptCost(bcrypt.MinCost))

	first := registration()
	first.Phone = "+15555550100"
	_, err := svc.Register(ctx, first)
	require.NoError(t, err)

	second := registration()
	second.Username = "other"
	second.Email = "other@example.com"
	second.NationalID = ""
	second.Phone = "+15555550100"
	_, err = svc.Register(ctx, second)
	assert.ErrorIs(t, err, domain.ErrPhoneTaken)

	n, err := f.voters.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "a rejected registration leaves nothing behind")

	second.Phone = ""
	voter, err := svc.Register(ctx, second)
	require.NoError(t, err)
	_, err = svc.UpdateProfile(ctx, voter.ID, ports.UpdateProfileInput{Phone: &first.Phone})
	assert.ErrorIs(t, err, domain.ErrPhoneTaken)
}
