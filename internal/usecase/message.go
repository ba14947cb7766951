package usecase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jirawatp/anon-message-api/internal/model"
	"github.com/jirawatp/anon-message-api/internal/repository"
)

// MessageUsecase defines the message-lifecycle operations. Submit is open to
// anonymous callers; every other operation takes the authenticated caller's
// user ID, resolved upstream by the auth middleware.
type MessageUsecase interface {
	Submit(ctx context.Context, targetUsername, content string) (*model.Message, error)
	List(ctx context.Context, userID string) ([]model.Message, error)
	Delete(ctx context.Context, userID, messageID string) error
	GetAcceptance(ctx context.Context, userID string) (bool, error)
	SetAcceptance(ctx context.Context, userID string, accepting bool) error
}

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrNotAcceptingMessages = errors.New("user is not accepting messages")
	ErrMessageNotFound      = errors.New("message not found")
)

type messageUsecase struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewMessageUsecase creates a new instance of MessageUsecase.
func NewMessageUsecase(userRepo repository.UserRepository) MessageUsecase {
	return &messageUsecase{
		userRepo: userRepo,
		now:      time.Now,
	}
}

// Submit admits an anonymous message into the target user's inbox. The
// acceptance check and the append are two separate storage operations: a
// message can slip in at the same instant acceptance is switched off. The
// cost of one stray message is low, so the race is accepted rather than
// closed with a transactional write.
func (u *messageUsecase) Submit(ctx context.Context, targetUsername, content string) (*model.Message, error) {
	user, err := u.userRepo.GetUserByUsername(ctx, targetUsername)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.IsAcceptingMessages {
		return nil, ErrNotAcceptingMessages
	}

	message := &model.Message{
		ID:        bson.NewObjectID(),
		Content:   content,
		CreatedAt: u.now(),
	}

	if err := u.userRepo.AppendMessage(ctx, user.ID.Hex(), message); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return message, nil
}

// List returns the caller's messages, newest first. Read-only.
func (u *messageUsecase) List(ctx context.Context, userID string) ([]model.Message, error) {
	messages, err := u.userRepo.ListMessages(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return messages, nil
}

// Delete removes one message from the caller's own inbox. A second delete of
// the same ID reports ErrMessageNotFound.
func (u *messageUsecase) Delete(ctx context.Context, userID, messageID string) error {
	removed, err := u.userRepo.RemoveMessage(ctx, userID, messageID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return err
	}

	if !removed {
		return ErrMessageNotFound
	}

	return nil
}

func (u *messageUsecase) GetAcceptance(ctx context.Context, userID string) (bool, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, ErrUserNotFound
		}
		return false, err
	}

	return user.IsAcceptingMessages, nil
}

func (u *messageUsecase) SetAcceptance(ctx context.Context, userID string, accepting bool) error {
	if err := u.userRepo.SetAcceptance(ctx, userID, accepting); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return err
	}

	return nil
}
