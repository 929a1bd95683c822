package service

import (
	"context"
	"time"

	"neela-data/internal/domain"
)

// maxRentToIncome 超过该比例的申请人背调标记为 Flagged
const maxRentToIncome = 40

// SimulatedScreener 模拟背调：固定延迟后返回确定结果
type SimulatedScreener struct {
	delay       time.Duration
	creditScore int
}

func NewSimulatedScreener(delay time.Duration, creditScore int) *SimulatedScreener {
	return &SimulatedScreener{delay: delay, creditScore: creditScore}
}

func (s *SimulatedScreener) Screen(ctx context.Context, applicant domain.Tenant) (ScreeningResult, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ScreeningResult{}, ctx.Err()
		case <-timer.C:
		}
	}
	res := ScreeningResult{CreditScore: s.creditScore, Background: domain.BackgroundClear}
	if pct, ok := applicant.RentToIncomePercent(); ok && pct > maxRentToIncome {
		res.Background = domain.BackgroundFlagged
	}
	return res, nil
}
