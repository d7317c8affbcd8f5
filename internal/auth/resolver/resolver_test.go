package resolver_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"campus-auth/internal/auth"
	"campus-auth/internal/auth/directory"
	dirmocks "campus-auth/internal/auth/directory/mocks"
	"campus-auth/internal/auth/policy"
	"campus-auth/internal/auth/provider"
	providermocks "campus-auth/internal/auth/provider/mocks"
	"campus-auth/internal/auth/resolver"
	"campus-auth/internal/auth/resolver/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const accessToken = "ACCESS_TOKEN"

type fixture struct {
	verifier  *providermocks.MockIdentityVerifier
	directory *dirmocks.MockDirectory
	policy    *mocks.MockPolicy
	resolver  *resolver.LoginResolver
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		verifier:  providermocks.NewMockIdentityVerifier(ctrl),
		directory: dirmocks.NewMockDirectory(ctrl),
		policy:    mocks.NewMockPolicy(ctrl),
	}
	f.resolver = resolver.NewLoginResolver(f.verifier, f.directory, f.policy)
	return f
}

func profile() *auth.Identity {
	return &auth.Identity{
		Provider:       "google",
		ProviderUserID: "1234567890",
		Email:          "EMAIL",
		EmailVerified:  true,
		GivenName:      "GIVEN_NAME",
		FamilyName:     "FAMILY_NAME",
		Picture:        "https://example.com/avatar.png",
	}
}

func unavailable(op string) error {
	return fmt.Errorf("%s: %w: %w", op, auth.ErrUnavailable, errors.New("connection refused"))
}

func TestResolveProvisionsNewAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := auth.Account{
		ID:        "NEW_ID",
		Email:     "EMAIL",
		FullName:  "FAMILY_NAME GIVEN_NAME",
		AvatarURL: "https://example.com/avatar.png",
		Role:      auth.RoleStudent,
		Status:    auth.StatusActive,
	}

	gomock.InOrder(
		f.verifier.EXPECT().VerifyAccessToken(ctx, accessToken).Return(profile(), nil),
		f.directory.EXPECT().FindByEmail(ctx, "EMAIL").Return(auth.Account{}, directory.ErrNotFound),
		f.policy.EXPECT().Evaluate("EMAIL").Return(policy.Verdict{Allowed: true, Role: auth.RoleStudent}, nil),
		f.directory.EXPECT().Create(ctx, directory.NewAccount{
			Email:     "EMAIL",
			FullName:  "FAMILY_NAME GIVEN_NAME",
			AvatarURL: "https://example.com/avatar.png",
			Role:      auth.RoleStudent,
			Status:    auth.StatusActive,
		}).Return(created, nil).Times(1),
	)

	out := f.resolver.Resolve(ctx, accessToken)

	assert.Equal(t, resolver.Success, out.Kind)
	assert.Equal(t, created, out.Account)
	assert.NoError(t, out.Cause)
}

func TestResolveReturnsExistingAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing := auth.Account{
		ID:     "ID",
		Email:  "EMAIL",
		Role:   auth.RoleStudent,
		Status: auth.StatusActive,
	}

	f.verifier.EXPECT().VerifyAccessToken(ctx, accessToken).Return(profile(), nil)
	f.directory.EXPECT().FindByEmail(ctx, "EMAIL").Return(existing, nil)
	f.policy.EXPECT().Evaluate(gomock.Any()).Times(0)
	f.directory.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	out := f.resolver.Resolve(ctx, accessToken)

	assert.Equal(t, resolver.Success, out.Kind)
	assert.Equal(t, existing, out.Account)
}

func TestResolveExistingAccountBypassesPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// outside the allowed domains, but already provisioned by an admin
	id := profile()
	id.Email = "mentor@gmail.com"
	existing := auth.Account{ID: "ID", Email: "mentor@gmail.com", Role: auth.RoleMentor, Status: auth.StatusBlocked}

	f.verifier.EXPECT().VerifyAccessToken(ctx, accessToken).Return(id, nil)
	f.directory.EXPECT().FindByEmail(ctx, "mentor@gmail.com").Return(existing, nil)
	f.policy.EXPECT().Evaluate(gomock.Any()).Times(0)
	f.directory.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	out := f.resolver.Resolve(ctx, accessToken)

	assert.Equal(t, resolver.Success, out.Kind)
	assert.Equal(t, auth.RoleMentor, out.Account.Role)
	assert.Equal(t, auth.StatusBlocked, out.Account.Status)
}

func TestResolveVerifierFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want resolver.OutcomeKind
	}{
		{"rejected", provider.ErrAuthRejected, resolver.AuthError},
		{"rejected wrapped", fmt.Errorf("userinfo: %w", provider.ErrAuthRejected), resolver.AuthError},
		{"provider failure", provider.ErrProviderFailure, resolver.GeneralError},
		{"connectivity", unavailable("google userinfo request"), resolver.GeneralError},
		{"unclassified", errors.New("boom"), resolver.GeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			f.verifier.EXPECT().VerifyAccessToken(ctx, accessToken).Return(nil, tt.err)
			f.directory.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Times(0)
			f.directory.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			f.policy.EXPECT().Evaluate(gomock.Any()).Times(0)

			out := f.resolver.Resolve(ctx, accessToken)

			assert.Equal(t, tt.want, out.Kind)
			assert.ErrorIs(t, out.Cause, tt.err)
			assert.Empty(t, out.Account.ID)
		})
	}
}

func TestResolveLookupFault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fault := unavailable("find account")
	f.verifier.EXPECT().VerifyAccessToken(ctx, accessToken).Return(profile(), nil)
	f.directory.EXPECT().FindByEmail(ctx, "EMAIL").Return(auth.Account{}, fault)
	f.policy.EXPECT().Evaluate(gomock.Any()).Times(0)
	f.directory.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	out := f.resolver.Resolve(ctx, accessToken)

	assert.Equal(t, resolver.GeneralError, out.Kind)
	assert.ErrorIs(t, out.Cause, auth.ErrUnavailable)
}

func TestResolveNotAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.verifier.EXPECT().VerifyAccessToken(ctx, accessToken).Return(profile(), nil)
	f.directory.EXPECT().FindByEmail(ctx, "EMAIL").Return(auth.Account{}, directory.ErrNotFound)
	f.policy.EXPECT().Evaluate("EMAIL").Return(policy.Verdict{Allowed: false}, nil)
	f.directory.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	out := f.resolver.Resolve(ctx, accessToken)

	assert.Equal(t, resolver.NotAllowed, out.Kind)
	assert.Empty(t, out.Account.ID)
}

func TestResolveMalformedEmailIsNotAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.verifier.EXPECT().VerifyAccessToken(ctx, accessToken).Return(profile(), nil)
	f.directory.EXPECT().FindByEmail(ctx, "EMAIL").Return(auth.Account{}, directory.ErrNotFound)
	f.policy.EXPECT().Evaluate("EMAIL").Return(policy.Verdict{}, policy.ErrMalformedEmail)
	f.directory.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	out := f.resolver.Resolve(ctx, accessToken)

	assert.Equal(t, resolver.NotAllowed, out.Kind)
	assert.ErrorIs(t, out.Cause, policy.ErrMalformedEmail)
}

func TestResolveCreateFault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.verifier.EXPECT().VerifyAccessToken(ctx, accessToken).Return(profile(), nil)
	f.directory.EXPECT().FindByEmail(ctx, "EMAIL").Return(auth.Account{}, directory.ErrNotFound)
	f.policy.EXPECT().Evaluate("EMAIL").Return(policy.Verdict{Allowed: true, Role: auth.RoleGuest}, nil)
	f.directory.EXPECT().Create(ctx, gomock.Any()).Return(auth.Account{}, unavailable("create account"))

	out := f.resolver.Resolve(ctx, accessToken)

	assert.Equal(t, resolver.GeneralError, out.Kind)
	assert.ErrorIs(t, out.Cause, auth.ErrUnavailable)
	assert.Empty(t, out.Account.ID)
}

func TestResolveNilIdentityIsGeneralError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.verifier.EXPECT().VerifyAccessToken(ctx, accessToken).Return(nil, nil)
	f.directory.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Times(0)

	out := f.resolver.Resolve(ctx, accessToken)

	assert.Equal(t, resolver.GeneralError, out.Kind)
	assert.Error(t, out.Cause)
}

func TestResolveIsIdempotentForExistingAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing := auth.Account{ID: "ID", Email: "EMAIL", Role: auth.RoleStudent, Status: auth.StatusActive}

	f.verifier.EXPECT().VerifyAccessToken(ctx, accessToken).Return(profile(), nil).Times(2)
	f.directory.EXPECT().FindByEmail(ctx, "EMAIL").Return(existing, nil).Times(2)
	f.directory.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
	f.policy.EXPECT().Evaluate(gomock.Any()).Times(0)

	first := f.resolver.Resolve(ctx, accessToken)
	second := f.resolver.Resolve(ctx, accessToken)

	require.Equal(t, resolver.Success, first.Kind)
	require.Equal(t, resolver.Success, second.Kind)
	assert.Equal(t, first.Account, second.Account)
}

func TestResolveWithDefaultPolicy(t *testing.T) {
	tests := []struct {
		email    string
		wantKind resolver.OutcomeKind
		wantRole auth.Role
	}{
		{"anhnt12345@fpt.edu.vn", resolver.Success, auth.RoleStudent},
		{"lecturer@fe.edu.vn", resolver.Success, auth.RoleGuest},
		{"someone1234@gmail.com", resolver.NotAllowed, ""},
		{"no-at-sign", resolver.NotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			verifier := providermocks.NewMockIdentityVerifier(ctrl)
			dir := dirmocks.NewMockDirectory(ctrl)
			r := resolver.NewLoginResolver(verifier, dir, policy.NewDefault())
			ctx := context.Background()

			verifier.EXPECT().VerifyAccessToken(ctx, accessToken).Return(&auth.Identity{Email: tt.email}, nil)
			dir.EXPECT().FindByEmail(ctx, tt.email).Return(auth.Account{}, directory.ErrNotFound)
			if tt.wantKind == resolver.Success {
				dir.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
					func(_ context.Context, in directory.NewAccount) (auth.Account, error) {
						assert.Equal(t, tt.wantRole, in.Role)
						assert.Equal(t, auth.StatusActive, in.Status)
						return auth.Account{ID: "ID", Email: in.Email, Role: in.Role, Status: in.Status}, nil
					})
			} else {
				dir.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			}

			out := r.Resolve(ctx, accessToken)

			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantRole, out.Account.Role)
		})
	}
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "success", resolver.Success.String())
	assert.Equal(t, "not_allowed", resolver.NotAllowed.String())
	assert.Equal(t, "auth_error", resolver.AuthError.String())
	assert.Equal(t, "general_error", resolver.GeneralError.String())
	assert.Equal(t, "unknown", resolver.OutcomeKind(0).String())
}

func TestResolveConcurrentCalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing := auth.Account{ID: "ID", Email: "EMAIL", Role: auth.RoleStudent, Status: auth.StatusActive}
	newcomer := profile()
	newcomer.Email = "NEW_EMAIL"

	f.verifier.EXPECT().VerifyAccessToken(ctx, "existing").Return(profile(), nil).AnyTimes()
	f.verifier.EXPECT().VerifyAccessToken(ctx, "newcomer").Return(newcomer, nil).AnyTimes()
	f.verifier.EXPECT().VerifyAccessToken(ctx, "expired").Return(nil, provider.ErrAuthRejected).AnyTimes()
	f.directory.EXPECT().FindByEmail(ctx, "EMAIL").Return(existing, nil).AnyTimes()
	f.directory.EXPECT().FindByEmail(ctx, "NEW_EMAIL").Return(auth.Account{}, directory.ErrNotFound).AnyTimes()
	f.policy.EXPECT().Evaluate("NEW_EMAIL").Return(policy.Verdict{Allowed: true, Role: auth.RoleGuest}, nil).AnyTimes()
	f.directory.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, in directory.NewAccount) (auth.Account, error) {
			return auth.Account{ID: "NEW_ID", Email: in.Email, Role: in.Role, Status: in.Status}, nil
		}).AnyTimes()

	want := map[string]resolver.Outcome{
		"existing": {Kind: resolver.Success, Account: existing},
		"newcomer": {Kind: resolver.Success, Account: auth.Account{
			ID: "NEW_ID", Email: "NEW_EMAIL", Role: auth.RoleGuest, Status: auth.StatusActive,
		}},
		"expired": {Kind: resolver.AuthError},
	}
	tokens := []string{"existing", "newcomer", "expired"}

	const n = 48
	got := make([]resolver.Outcome, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = f.resolver.Resolve(ctx, tokens[i%len(tokens)])
		}()
	}
	wg.Wait()

	for i, out := range got {
		token := tokens[i%len(tokens)]
		assert.Equal(t, want[token].Kind, out.Kind, token)
		assert.Equal(t, want[token].Account, out.Account, token)
	}
}
