// Package events publishes activity events to the configured message
// broker. Publishing is fire-and-forget: a broker outage must never fail
// the request that triggered the event.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/lric3/recipes/internal/mq"
	"github.com/lric3/recipes/types"
)

// Channels events are published on.
const (
	ChannelRecipeCreated = "recipe.created"
	ChannelReviewCreated = "review.created"
)

const publishTimeout = 5 * time.Second

// RecipeCreated is the payload published when a recipe is created.
type RecipeCreated struct {
	RecipeID  int64     `json:"recipeId"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewCreated is the payload published when a review is posted.
type ReviewCreated struct {
	ReviewID  int64     `json:"reviewId"`
	RecipeID  int64     `json:"recipeId"`
	UserID    int64     `json:"userId"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// Publisher sends activity events through an mq backend. A nil Publisher
// or a Publisher with a nil backend is a no-op, so callers never guard.
type Publisher struct {
	backend mq.Backend
}

// NewPublisher wraps the given backend; backend may be nil.
func NewPublisher(backend mq.Backend) *Publisher {
	return &Publisher{backend: backend}
}

// PublishRecipeCreated emits a recipe.created event.
func (p *Publisher) PublishRecipeCreated(ctx context.Context, recipe types.Recipe) {
	p.publish(ctx, ChannelRecipeCreated, RecipeCreated{
		RecipeID:  recipe.ID,
		UserID:    recipe.UserID,
		Title:     recipe.Title,
		CreatedAt: recipe.CreatedAt,
	}, map[string]string{"recipe_id": strconv.FormatInt(recipe.ID, 10)})
}

// PublishReviewCreated emits a review.created event.
func (p *Publisher) PublishReviewCreated(ctx context.Context, review types.Review) {
	p.publish(ctx, ChannelReviewCreated, ReviewCreated{
		ReviewID:  review.ID,
		RecipeID:  review.RecipeID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		CreatedAt: review.CreatedAt,
	}, map[string]string{"recipe_id": strconv.FormatInt(review.RecipeID, 10)})
}

// Listener consumes activity events and writes them to the log. It is
// the in-process consumer used when no dedicated worker is deployed.
type Listener struct {
	backend mq.Backend
}

// NewListener wraps the given backend; backend may be nil.
func NewListener(backend mq.Backend) *Listener {
	return &Listener{backend: backend}
}

// Start subscribes to the activity channels. Each subscription runs in
// its own goroutine until ctx is cancelled. A nil Listener or a nil
// backend is a no-op.
func (l *Listener) Start(ctx context.Context) {
	if l == nil || l.backend == nil {
		return
	}
	for _, channel := range []string{ChannelRecipeCreated, ChannelReviewCreated} {
		go func(channel string) {
			err := l.backend.Subscribe(ctx, channel, logActivity(channel))
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("events: subscribe %s: %v", channel, err)
			}
		}(channel)
	}
}

func logActivity(channel string) mq.Handler {
	return func(_ context.Context, msg mq.Message) error {
		log.Printf("events: %s %s", channel, msg.Data)
		return nil
	}
}

func (p *Publisher) publish(ctx context.Context, channel string, payload any, attrs map[string]string) {
	if p == nil || p.backend == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: marshal %s: %v", channel, err)
		return
	}

	// Detach from the request context so a finished request does not
	// cancel an in-flight publish.
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if _, err := p.backend.Publish(publishCtx, channel, data, attrs); err != nil {
		log.Printf("events: publish %s: %v", channel, err)
	}
}
