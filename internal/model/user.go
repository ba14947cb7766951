package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents a registered inbox owner. Inbound anonymous messages are
// embedded in the user document itself; a message never exists outside the
// document of the user it was sent to.
type User struct {
	ID                  bson.ObjectID `bson:"_id,omitempty"         json:"id"`
	Username            string        `bson:"username"              json:"username"`
	Email               string        `bson:"email"                 json:"email"`
	PasswordHash        string        `bson:"password_hash"         json:"-"`
	Verified            bool          `bson:"verified"              json:"verified"`
	VerifyCode          string        `bson:"verify_code"           json:"-"`
	VerifyCodeExpiresAt time.Time     `bson:"verify_code_expires_at" json:"-"`
	IsAcceptingMessages bool          `bson:"is_accepting_messages" json:"is_accepting_messages"`
	Messages            []Message     `bson:"messages"              json:"-"`
	CreatedAt           time.Time     `bson:"created_at"            json:"created_at"`
	UpdatedAt           time.Time     `bson:"updated_at"            json:"updated_at"`
}

// Message is a single anonymous message. The sender is never recorded.
// Messages are immutable after creation; the only lifecycle transition is
// removal by the owning user.
type Message struct {
	ID        bson.ObjectID `bson:"_id"        json:"id"`
	Content   string        `bson:"content"    json:"content"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
}
