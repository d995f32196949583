package service

import (
	"context"
	"testing"
	"time"

	"chatapp/internal/cache"
	"chatapp/internal/config"
	"chatapp/internal/models"
	"chatapp/internal/repository"
	"chatapp/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-at-least-32-chars"

func newAuthService(t *testing.T, mode string) (*AuthService, repository.UserRepository) {
	t.Helper()
	db := testutil.NewTestDB(t)
	_, rdb := testutil.NewTestRedis(t)
	users := repository.NewUserRepository(db)
	svc := NewAuthService(users, cache.NewRevocationStore(rdb), &config.Config{
		JWTSecret:        testSecret,
		JWTTTLHours:      24 * 7,
		LoginFailureMode: mode,
	})
	svc.SetBcryptCost(bcrypt.MinCost)
	return svc, users
}

func fieldMessages(err error) map[string]string {
	out := make(map[string]string)
	for _, f := range models.AsAppError(err).Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestAuthServiceRegister(t *testing.T) {
	svc, users := newAuthService(t, config.LoginFailureValidation)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Ann", Username: "ann", Email: "ann@x.com", Password: "password1"})
	require.NoError(t, err)
	assert.Contains(t, user.ID, "user-")
	assert.NotEqual(t, "password1", user.Password)

	stored, err := users.GetByUsername(ctx, "ann")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("password1")))

	_, err = svc.Register(ctx, RegisterInput{Name: "Ann", Username: "ann", Email: "ann@x.com", Password: "password1"})
	assert.Equal(t, models.CodeValidation, models.AsAppError(err).Code)
	assert.Equal(t, map[string]string{
		"username": "Username is already taken",
		"email":    "Email is already taken",
	}, fieldMessages(err))

	_, err = svc.Register(ctx, RegisterInput{Name: "An", Username: "", Email: "not-an-email", Password: "short"})
	assert.Equal(t, map[string]string{
		"name":     "The minimum length of name is 3 characters",
		"username": "Username is required",
		"email":    "Email is not valid",
		"password": "The minimum length of password is 8 characters",
	}, fieldMessages(err))
}

func TestAuthServiceLoginFailureModes(t *testing.T) {
	for _, tt := range []struct {
		mode    string
		code    string
		message string
	}{
		{config.LoginFailureValidation, models.CodeValidation, "Validation error"},
		{config.LoginFailureUnauthorized, models.CodeUnauthorized, "Invalid credentials"},
	} {
		t.Run(tt.mode, func(t *testing.T) {
			svc, _ := newAuthService(t, tt.mode)
			ctx := context.Background()
			_, err := svc.Register(ctx, RegisterInput{Name: "Ann", Username: "ann", Email: "ann@x.com", Password: "password1"})
			require.NoError(t, err)

			_, err = svc.Login(ctx, LoginInput{Username: "ann", Password: "wrong-password"})
			assertAppError(t, err, tt.code, tt.message)

			_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "password1"})
			assertAppError(t, err, tt.code, tt.message)

			// Malformed input is always a validation error.
			_, err = svc.Login(ctx, LoginInput{Password: "password1"})
			assertAppError(t, err, models.CodeValidation, "Validation error")
		})
	}
}

func TestAuthServiceTokenLifecycle(t *testing.T) {
	svc, _ := newAuthService(t, config.LoginFailureValidation)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Register(ctx, RegisterInput{Name: "Ann", Username: "ann", Email: "ann@x.com", Password: "password1"})
	require.NoError(t, err)

	tok, err := svc.Login(ctx, LoginInput{Username: "ann", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.Type)
	assert.Equal(t, now.Add(7*24*time.Hour), tok.ExpiresAt)
	assert.Equal(t, "ann", tok.User.Username)

	claims, err := svc.ParseToken(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, tok.User.ID, claims.Subject)
	assert.Equal(t, "ann", claims.Username)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	require.NoError(t, svc.Logout(ctx, claims))
	_, err = svc.ParseToken(ctx, tok.Token)
	assertAppError(t, err, models.CodeUnauthorized, "Unauthorized access please login")

	svc.now = func() time.Time { return now.Add(8 * 24 * time.Hour) }
	tok2, _, err := svc.IssueToken(tok.User)
	require.NoError(t, err)
	svc.now = func() time.Time { return now.Add(20 * 24 * time.Hour) }
	_, err = svc.ParseToken(ctx, tok2)
	assert.Error(t, err, "expired")
}

func TestAuthServiceRejectsForeignTokens(t *testing.T) {
	svc, _ := newAuthService(t, config.LoginFailureValidation)
	ctx := context.Background()

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	base := func() Claims {
		return Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ID:        "jti-1",
		}}
	}

	good := base()
	_, err := svc.ParseToken(ctx, sign(jwt.SigningMethodHS256, []byte(testSecret), good))
	require.NoError(t, err)

	wrongAud := base()
	wrongAud.Audience = jwt.ClaimStrings{"someone-else"}
	wrongIss := base()
	wrongIss.Issuer = "someone-else"
	noJTI := base()
	noJTI.ID = ""

	for name, raw := range map[string]string{
		"wrong secret":   sign(jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"), good),
		"wrong audience": sign(jwt.SigningMethodHS256, []byte(testSecret), wrongAud),
		"wrong issuer":   sign(jwt.SigningMethodHS256, []byte(testSecret), wrongIss),
		"missing jti":    sign(jwt.SigningMethodHS256, []byte(testSecret), noJTI),
		"hs512":          sign(jwt.SigningMethodHS512, []byte(testSecret), good),
		"garbage":        "not.a.token",
	} {
		_, err := svc.ParseToken(ctx, raw)
		assert.Error(t, err, name)
	}

	assertAppError(t, svc.Logout(ctx, nil), models.CodeUnauthorized, "Unauthorized access please login")
}

func TestAuthServicePasswordIsNotTrimmed(t *testing.T) {
	svc, _ := newAuthService(t, config.LoginFailureValidation)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ann", Username: "ann", Email: "ann@x.com", Password: " password1 "})
	require.NoError(t, err)

	token, err := svc.Login(ctx, LoginInput{Username: " ann ", Password: " password1 "})
	require.NoError(t, err)
	assert.Equal(t, "ann", token.User.Username)

	_, err = svc.Login(ctx, LoginInput{Username: "ann", Password: "password1"})
	assertAppError(t, err, models.CodeValidation, "Validation error")
}
