package store

import "context"

// QueryLog is a persisted record of one processed NLP query.
type QueryLog struct {
	ID             int32
	UID            string
	ConversationID string
	UserRole       string
	QueryText      string
	Intent         string
	Confidence     float64
	RoutedEndpoint string
	CreatedTs      int64
}

// FindQueryLog is the find condition for query logs.
type FindQueryLog struct {
	ID              *int32
	UID             *string
	ConversationID  *string
	UserRole        *string
	Intent          *string
	CreatedTsAfter  *int64
	CreatedTsBefore *int64

	Limit  *int
	Offset *int
}

// DeleteQueryLog is the delete condition for query logs.
type DeleteQueryLog struct {
	ID int32
}

func (s *Store) CreateQueryLog(ctx context.Context, create *QueryLog) (*QueryLog, error) {
	return s.driver.CreateQueryLog(ctx, create)
}

func (s *Store) ListQueryLogs(ctx context.Context, find *FindQueryLog) ([]*QueryLog, error) {
	return s.driver.ListQueryLogs(ctx, find)
}

// GetQueryLog returns the matching query log or nil when absent.
func (s *Store) GetQueryLog(ctx context.Context, find *FindQueryLog) (*QueryLog, error) {
	list, err := s.driver.ListQueryLogs(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteQueryLog(ctx context.Context, delete *DeleteQueryLog) error {
	return s.driver.DeleteQueryLog(ctx, delete)
}
