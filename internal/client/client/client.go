package client

import (
	"context"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/storyshelf/storyshelf/internal/client/models"
)

// LoginResult is the session returned by a successful login.
type LoginResult struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

// StoryQuery narrows ListStories. Zero values are omitted from the request.
type StoryQuery struct {
	Page     int
	Size     int
	Location bool
}

type Client interface {
	Register(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ListStories(ctx context.Context, token string, q StoryQuery) ([]models.Story, error)
	GetStory(ctx context.Context, token, id string) (*models.Story, error)
	VAPIDPublicKey(ctx context.Context) (string, error)
	Subscribe(ctx context.Context, token string, sub *webpush.Subscription) error
	Unsubscribe(ctx context.Context, token, endpoint string) error
	Ping(ctx context.Context) error
}
