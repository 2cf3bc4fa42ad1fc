package store

import "context"

// Feedback is a user rating attached to a logged query.
type Feedback struct {
	ID         int32
	UID        string
	QueryLogID int32
	Rating     int32
	Comment    string
	CreatedTs  int64
}

// FindFeedback is the find condition for feedback records.
type FindFeedback struct {
	ID         *int32
	UID        *string
	QueryLogID *int32

	Limit  *int
	Offset *int
}

// DeleteFeedback is the delete condition for feedback records.
type DeleteFeedback struct {
	ID int32
}

func (s *Store) CreateFeedback(ctx context.Context, create *Feedback) (*Feedback, error) {
	return s.driver.CreateFeedback(ctx, create)
}

func (s *Store) ListFeedback(ctx context.Context, find *FindFeedback) ([]*Feedback, error) {
	return s.driver.ListFeedback(ctx, find)
}

func (s *Store) DeleteFeedback(ctx context.Context, delete *DeleteFeedback) error {
	return s.driver.DeleteFeedback(ctx, delete)
}
