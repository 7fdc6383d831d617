package service

import (
	"context"
	"fmt"
	"time"

	"sicbo/models"
)

// LatestResultsLimit is how many settled rounds the results listing shows
const LatestResultsLimit = 5

type historyService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewHistoryService creates a new read-only history service
func NewHistoryService(uowFactory UnitOfWorkFactory) HistoryService {
	return &historyService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// MyBets returns the user's bets from the last 24 hours
func (s *historyService) MyBets(ctx context.Context, discordID int64) ([]*models.Bet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.BetRepository().GetByUserSince(ctx, discordID, HistoryWindowStart(s.now()))
}

// AllBets returns every bet from the last 24 hours
func (s *historyService) AllBets(ctx context.Context) ([]*models.BetWithUser, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.BetRepository().GetAllSince(ctx, HistoryWindowStart(s.now()))
}

// LatestResults returns the most recent settled rounds
func (s *historyService) LatestResults(ctx context.Context) ([]*models.Round, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.RoundRepository().GetRecentSettled(ctx, LatestResultsLimit)
}
