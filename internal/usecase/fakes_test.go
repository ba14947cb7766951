package usecase

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jirawatp/anon-message-api/internal/model"
	"github.com/jirawatp/anon-message-api/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository mirroring the mongo
// implementation's semantics, including mongo.ErrNoDocuments on misses.
type fakeUserRepo struct {
	users map[string]*model.User
	err   error // when set, every call fails with it
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) addUser(username, email string, verified, accepting bool) *model.User {
	user := &model.User{
		ID:                  bson.NewObjectID(),
		Username:            username,
		Email:               email,
		PasswordHash:        "",
		Verified:            verified,
		IsAcceptingMessages: accepting,
		Messages:            []model.Message{},
	}
	f.users[user.ID.Hex()] = user
	return user
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, existing := range f.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return nil, mongo.CommandError{Code: 11000, Message: "duplicate key"}
		}
	}
	user.ID = bson.NewObjectID()
	if user.Messages == nil {
		user.Messages = []model.Message{}
	}
	f.users[user.ID.Hex()] = user
	return user, nil
}

func (f *fakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, user := range f.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) GetUserByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	if user, err := f.GetUserByUsername(ctx, identifier); err == nil {
		return user, nil
	} else if f.err != nil {
		return nil, f.err
	}
	return f.GetUserByEmail(ctx, identifier)
}

func (f *fakeUserRepo) UpdateVerification(_ context.Context, id string, params repository.UpdateVerificationParams) error {
	if f.err != nil {
		return f.err
	}
	user, ok := f.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	user.PasswordHash = params.PasswordHash
	user.VerifyCode = params.VerifyCode
	user.VerifyCodeExpiresAt = params.VerifyCodeExpiresAt
	return nil
}

func (f *fakeUserRepo) MarkVerified(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	user, ok := f.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	user.Verified = true
	return nil
}

func (f *fakeUserRepo) SetAcceptance(_ context.Context, id string, accepting bool) error {
	if f.err != nil {
		return f.err
	}
	user, ok := f.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	user.IsAcceptingMessages = accepting
	return nil
}

func (f *fakeUserRepo) AppendMessage(_ context.Context, userID string, message *model.Message) error {
	if f.err != nil {
		return f.err
	}
	user, ok := f.users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	user.Messages = append(user.Messages, *message)
	return nil
}

func (f *fakeUserRepo) RemoveMessage(_ context.Context, userID string, messageID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	user, ok := f.users[userID]
	if !ok {
		return false, mongo.ErrNoDocuments
	}
	for i, message := range user.Messages {
		if message.ID.Hex() == messageID {
			user.Messages = append(user.Messages[:i], user.Messages[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) ListMessages(_ context.Context, userID string) ([]model.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	messages := make([]model.Message, len(user.Messages))
	copy(messages, user.Messages)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return messages, nil
}

// fakeSessionRepo is an in-memory SessionRepository.
type fakeSessionRepo struct {
	sessions map[string]*model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionRepo) CreateSession(_ context.Context, session *model.Session) (*model.Session, error) {
	session.ID = bson.NewObjectID()
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	f.sessions[session.ID.Hex()] = session
	return session, nil
}

func (f *fakeSessionRepo) GetSession(_ context.Context, id string) (*model.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionRepo) UpdateTokens(_ context.Context, id string, params repository.UpdateTokensParams) (*model.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	session.AccessToken = params.AccessToken
	session.RefreshToken = params.RefreshToken
	session.AccessTokenExpiresAt = params.AccessTokenExpiresAt
	session.RefreshTokenExpiresAt = params.RefreshTokenExpiresAt
	copied := *session
	return &copied, nil
}

func (f *fakeSessionRepo) DeleteSession(_ context.Context, id string) error {
	if _, ok := f.sessions[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.sessions, id)
	return nil
}

// fakeMailer records verification mails instead of sending them.
type fakeMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to       string
	username string
	code     string
}

func (f *fakeMailer) SendVerificationCode(to, username, code string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, username: username, code: code})
	return nil
}
