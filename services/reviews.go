package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"Reco/models"
	"Reco/shared/logger"

	"github.com/google/uuid"
)

// WriteReview is the one place a review gets attached to a title. It checks
// for an existing review by the same user, validates the rating and attaches
// the new review. On error the title is left exactly as it was.
//
// The returned event must only be published once the caller has persisted
// the mutated title.
func WriteReview(title *models.Title, user *models.User, rating int, text string) (models.Review, models.ReviewCreated, error) {
	if title == nil || user == nil {
		return models.Review{}, models.ReviewCreated{}, models.Errorf(models.KindValidation, "review requires a title and a user")
	}
	if _, exists := title.ReviewBy(user.ID); exists {
		return models.Review{}, models.ReviewCreated{}, models.Errorf(models.KindConflict, "user already reviewed this title")
	}

	r, err := models.NewRating(rating)
	if err != nil {
		return models.Review{}, models.ReviewCreated{}, err
	}

	review, err := models.NewReview(title.ID, user.ID, r, text)
	if err != nil {
		return models.Review{}, models.ReviewCreated{}, err
	}
	if err := title.AddReview(review); err != nil {
		return models.Review{}, models.ReviewCreated{}, err
	}
	return review, models.NewReviewCreated(review), nil
}

// ReviewService persists reviews written through WriteReview and forwards
// the resulting events.
type ReviewService struct {
	titles    TitleStore
	users     UserStore
	publisher EventPublisher
	locks     *TitleLocks
	logger    *slog.Logger
}

func NewReviewService(titles TitleStore, users UserStore, publisher EventPublisher, locks *TitleLocks, l *slog.Logger) *ReviewService {
	if locks == nil {
		locks = NewTitleLocks()
	}
	if l == nil {
		l = logger.Default()
	}
	return &ReviewService{
		titles:    titles,
		users:     users,
		publisher: publisher,
		locks:     locks,
		logger:    logger.Component(l, "reviews"),
	}
}

// Create writes a review by userID on titleID.
func (s *ReviewService) Create(ctx context.Context, titleID, userID uuid.UUID, rating int, text string) (models.Review, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.Review{}, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return models.Review{}, models.NotFound("user %s not found", userID)
	}

	unlock := s.locks.Lock(titleID)
	defer unlock()

	title, err := s.titles.GetByID(ctx, titleID)
	if err != nil {
		return models.Review{}, fmt.Errorf("failed to load title: %w", err)
	}
	if title == nil {
		return models.Review{}, models.NotFound("title %s not found", titleID)
	}

	review, event, err := WriteReview(title, user, rating, text)
	if err != nil {
		reviewsRejected.WithLabelValues(kindLabel(err)).Inc()
		return models.Review{}, err
	}

	if err := s.titles.Upsert(ctx, title); err != nil {
		return models.Review{}, fmt.Errorf("failed to save title: %w", err)
	}
	reviewsCreated.Inc()

	s.publish(ctx, event)
	s.logger.Info("Review created", "review_id", review.ID, "title_id", title.ID, "user_id", user.ID, "rating", review.Rating.Int())
	return review, nil
}

func (s *ReviewService) publish(ctx context.Context, event models.ReviewCreated) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		eventPublishFailures.Inc()
		s.logger.Warn("Failed to publish review event", "review_id", event.ReviewID, "error", err)
	}
}

// ReviewHistory collects the reviews userID has written across titles,
// newest first.
func ReviewHistory(titles []*models.Title, userID uuid.UUID) []models.Review {
	history := []models.Review{}
	for _, t := range titles {
		if t == nil {
			continue
		}
		for _, r := range t.Reviews {
			if r.UserID == userID {
				history = append(history, r)
			}
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})
	return history
}
