package services

import (
	"context"
	"fmt"

	"github.com/storyshelf/storyshelf/internal/client/client"
	"github.com/storyshelf/storyshelf/internal/client/models"
)

// StoryService reads stories from the API on behalf of the signed-in user.
type StoryService interface {
	List(ctx context.Context, q client.StoryQuery) ([]models.Story, error)
	Get(ctx context.Context, id string) (*models.Story, error)
}

type storyService struct {
	client client.Client
	tokens TokenSource
	online Connectivity
}

func NewStoryService(c client.Client, tokens TokenSource, online Connectivity) StoryService {
	return &storyService{client: c, tokens: tokens, online: online}
}

func (s *storyService) List(ctx context.Context, q client.StoryQuery) ([]models.Story, error) {
	tok, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	if isOffline(s.online) {
		return nil, ErrOffline
	}
	stories, err := s.client.ListStories(ctx, tok, q)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return stories, nil
}

func (s *storyService) Get(ctx context.Context, id string) (*models.Story, error) {
	tok, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	if isOffline(s.online) {
		return nil, ErrOffline
	}
	story, err := s.client.GetStory(ctx, tok, id)
	if err != nil {
		return nil, fmt.Errorf("get story %s: %w", id, err)
	}
	return story, nil
}
