package service

import (
	"context"
	"fmt"

	"homes-service/internal/model"
	"homes-service/internal/repository"
)

// ReviewService contains business logic for reviews.
type ReviewService struct {
	reviewRepo *repository.ReviewRepository
	homeRepo   *repository.HomeRepository
}

// NewReviewService constructs a ReviewService with its required repositories.
func NewReviewService(rr *repository.ReviewRepository, hr *repository.HomeRepository) *ReviewService {
	return &ReviewService{
		reviewRepo: rr,
		homeRepo:   hr,
	}
}

// CreateReview checks that the home exists, inserts the review and
// recalculates the home's rating.
func (s *ReviewService) CreateReview(ctx context.Context, homeID, userID string, rating int, comment string) (*model.Review, error) {
	if err := s.requireHome(ctx, "ReviewService.CreateReview", homeID); err != nil {
		return nil, err
	}

	rev := &model.Review{
		HomeID:  homeID,
		UserID:  userID,
		Rating:  rating,
		Comment: comment,
	}
	if err := s.reviewRepo.Insert(ctx, rev); err != nil {
		return nil, fmt.Errorf("ReviewService.CreateReview: insert: %w", err)
	}

	if err := s.reviewRepo.RecalcAverage(ctx, homeID); err != nil {
		return nil, fmt.Errorf("ReviewService.CreateReview: recalc average: %w", err)
	}
	return rev, nil
}

// GetReviews returns a home's reviews, newest first.
func (s *ReviewService) GetReviews(ctx context.Context, homeID string) ([]model.Review, error) {
	if err := s.requireHome(ctx, "ReviewService.GetReviews", homeID); err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.FindByHome(ctx, homeID)
	if err != nil {
		return nil, fmt.Errorf("ReviewService.GetReviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) requireHome(ctx context.Context, op, homeID string) error {
	exists, err := s.homeRepo.Exists(ctx, homeID)
	if err != nil {
		return fmt.Errorf("%s: checking home exists: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: home %s: %w", op, homeID, repository.ErrNotFound)
	}
	return nil
}
