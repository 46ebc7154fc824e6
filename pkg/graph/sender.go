package graph

import "errors"

// ErrUnknownSender is returned when a message carries neither a user nor an
// application identity
var ErrUnknownSender = errors.New("message sender is undetermined")

// Sender is the resolved origin of a message. It is a closed set: UserSender
// or AppSender.
type Sender interface {
	// Key is the grouping identifier: the user id for users, the display
	// name for applications
	Key() string
	// Name is the display name shown in message headers
	Name() string

	isSender()
}

// UserSender is a message sent by a chat member
type UserSender struct {
	ID          string
	DisplayName string
}

func (s UserSender) Key() string  { return s.ID }
func (s UserSender) Name() string { return s.DisplayName }
func (UserSender) isSender()      {}

// AppSender is a message sent by an application (bot, connector)
type AppSender struct {
	DisplayName string
}

func (s AppSender) Key() string  { return s.DisplayName }
func (s AppSender) Name() string { return s.DisplayName }
func (AppSender) isSender()      {}

// ResolveSender classifies a message's origin. ErrUnknownSender is returned
// when neither identity variant is populated.
func (m *Message) ResolveSender() (Sender, error) {
	if m.From == nil {
		return nil, ErrUnknownSender
	}
	if m.From.User != nil {
		return UserSender{ID: m.From.User.ID, DisplayName: m.From.User.DisplayName}, nil
	}
	if m.From.Application != nil {
		return AppSender{DisplayName: m.From.Application.DisplayName}, nil
	}
	return nil, ErrUnknownSender
}
