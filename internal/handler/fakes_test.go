package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jirawatp/anon-message-api/internal/auth"
	"github.com/jirawatp/anon-message-api/internal/middleware"
	"github.com/jirawatp/anon-message-api/internal/model"
	"github.com/jirawatp/anon-message-api/internal/usecase"
)

const (
	testIssuer       = "anon-message-api-test"
	testAccessSecret = "access-secret"
)

// fakeMessageUsecase is a canned MessageUsecase. calls counts every invocation
// so tests can assert that rejected requests never reach the business layer.
type fakeMessageUsecase struct {
	calls int

	submitMessage *model.Message
	submitErr     error

	listMessages []model.Message
	listErr      error

	deleteErr error

	accepting        bool
	getAcceptanceErr error

	setAcceptanceArg *bool
	setAcceptanceErr error
}

func (f *fakeMessageUsecase) Submit(_ context.Context, _, _ string) (*model.Message, error) {
	f.calls++
	return f.submitMessage, f.submitErr
}

func (f *fakeMessageUsecase) List(_ context.Context, _ string) ([]model.Message, error) {
	f.calls++
	return f.listMessages, f.listErr
}

func (f *fakeMessageUsecase) Delete(_ context.Context, _, _ string) error {
	f.calls++
	return f.deleteErr
}

func (f *fakeMessageUsecase) GetAcceptance(_ context.Context, _ string) (bool, error) {
	f.calls++
	return f.accepting, f.getAcceptanceErr
}

func (f *fakeMessageUsecase) SetAcceptance(_ context.Context, _ string, accepting bool) error {
	f.calls++
	f.setAcceptanceArg = &accepting
	return f.setAcceptanceErr
}

// fakeAuthUsecase is a canned AuthUsecase.
type fakeAuthUsecase struct {
	calls int

	registerErr error

	tokens   *usecase.Tokens
	loginErr error

	verifyErr error

	refreshErr error

	signOutErr       error
	signedOutSession string

	usernameTaken bool
	takenErr      error
}

func (f *fakeAuthUsecase) Register(_ context.Context, _ usecase.RegisterParams) (*model.User, error) {
	f.calls++
	return &model.User{}, f.registerErr
}

func (f *fakeAuthUsecase) Login(_ context.Context, _ usecase.LoginParams) (*usecase.Tokens, error) {
	f.calls++
	return f.tokens, f.loginErr
}

func (f *fakeAuthUsecase) VerifyCode(_ context.Context, _, _ string) error {
	f.calls++
	return f.verifyErr
}

func (f *fakeAuthUsecase) Refresh(_ context.Context, _ string) (*usecase.Tokens, error) {
	f.calls++
	return f.tokens, f.refreshErr
}

func (f *fakeAuthUsecase) SignOut(_ context.Context, sessionID string) error {
	f.calls++
	f.signedOutSession = sessionID
	return f.signOutErr
}

func (f *fakeAuthUsecase) IsUsernameTaken(_ context.Context, _ string) (bool, error) {
	f.calls++
	return f.usernameTaken, f.takenErr
}

// fakeSuggester is a canned suggest.Suggester.
type fakeSuggester struct {
	suggestions []string
	err         error
}

func (f *fakeSuggester) SuggestMessages(_ context.Context) ([]string, error) {
	return f.suggestions, f.err
}

// fakeSessionChecker backs the auth middleware with a single stored session.
type fakeSessionChecker struct {
	session *model.Session
}

func (f *fakeSessionChecker) GetSession(_ context.Context, id string) (*model.Session, error) {
	if f.session == nil || f.session.ID.Hex() != id {
		return nil, mongo.ErrNoDocuments
	}
	copied := *f.session
	return &copied, nil
}

// testServer wires the full router with fakes behind it and one live session
// whose bearer token authenticates requests.
type testServer struct {
	router      chi.Router
	messages    *fakeMessageUsecase
	auth        *fakeAuthUsecase
	suggester   *fakeSuggester
	sessions    *fakeSessionChecker
	userID      string
	sessionID   string
	accessToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	jwtAuth := auth.NewJWTAuthenticator(testIssuer, testIssuer)

	userID := bson.NewObjectID()
	sessionID := bson.NewObjectID()

	now := time.Now()
	token, err := jwtAuth.GenerateToken(auth.SessionClaims{
		UserID:    userID.Hex(),
		Username:  "alice",
		SessionID: sessionID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testIssuer},
		},
	}, testAccessSecret)
	require.NoError(t, err)

	sessions := &fakeSessionChecker{
		session: &model.Session{
			ID:          sessionID,
			UserID:      userID.Hex(),
			AccessToken: token,
		},
	}

	messages := &fakeMessageUsecase{}
	authUC := &fakeAuthUsecase{}
	suggester := &fakeSuggester{}

	logger := zerolog.Nop()
	requireAuth := middleware.NewAuthMiddleware(jwtAuth, testAccessSecret, sessions)

	router := NewRouter(
		&logger,
		NewAuthHandler(authUC, &logger),
		NewMessageHandler(messages, &logger),
		NewSuggestHandler(suggester, &logger),
		requireAuth,
	)

	return &testServer{
		router:      router,
		messages:    messages,
		auth:        authUC,
		suggester:   suggester,
		sessions:    sessions,
		userID:      userID.Hex(),
		sessionID:   sessionID.Hex(),
		accessToken: token,
	}
}

// do performs a request against the router; a non-empty token goes into the
// Authorization header.
func (s *testServer) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
