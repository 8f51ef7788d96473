package lending

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/divin3circle/hashrexa/domain"
)

const (
	// Share of total portfolio value usable as collateral.
	reserveRatio = 0.40

	ltvTierLow  = 0.50
	ltvTierMid  = 0.60
	ltvTierHigh = 0.67
)

// PortfolioService aggregates backend data into portfolio views. Its
// contract is "never fail the caller": any fetch or mapping failure
// degrades to an empty portfolio.
type PortfolioService struct {
	backend Backend
	logger  *zap.Logger
	now     func() time.Time
}

// NewPortfolioService creates the aggregator.
func NewPortfolioService(backend Backend, logger *zap.Logger) *PortfolioService {
	return &PortfolioService{backend: backend, logger: logger, now: time.Now}
}

// GetUserPortfolio fetches and maps a user's portfolio. Available
// collateral is a fixed 40% of total value; locked collateral is zero
// until the backend reports it.
func (s *PortfolioService) GetUserPortfolio(ctx context.Context, accountID string) domain.Portfolio {
	resp, err := s.backend.GetPortfolio(ctx, accountID)
	if err != nil {
		s.logger.Error("failed to fetch portfolio", zap.String("account_id", accountID), zap.Error(err))
		return s.emptyPortfolio(accountID)
	}

	raw, ok := resp["portfolio"].(map[string]any)
	if !ok {
		return s.emptyPortfolio(accountID)
	}

	total := toFloat(raw["portfolioValueUSD"])
	if total == 0 {
		// Older backend builds capitalize the field.
		total = toFloat(raw["PortfolioValueUSD"])
	}

	return domain.Portfolio{
		AccountID:           accountID,
		TotalValue:          total,
		AvailableCollateral: total * reserveRatio,
		LockedCollateral:    0,
		Assets:              []domain.Asset{},
		TokenizedAssets:     s.mapTokenizedAssets(ctx, accountID),
		LastUpdated:         s.now(),
	}
}

// BorrowingPowerTiers derives the three loan-to-value tiers from the
// available collateral. Ratios are fixed, not configurable per call.
func BorrowingPowerTiers(availableCollateral float64) (low, mid, high float64) {
	return availableCollateral * ltvTierLow,
		availableCollateral * ltvTierMid,
		availableCollateral * ltvTierHigh
}

// BorrowingPowerReport renders the fixed three-line borrowing power
// report for an account.
func (s *PortfolioService) BorrowingPowerReport(ctx context.Context, accountID string) string {
	p := s.GetUserPortfolio(ctx, accountID)
	low, mid, high := BorrowingPowerTiers(p.AvailableCollateral)
	return fmt.Sprintf("Borrowing Power\n50%% LTV: $%.2f\n60%% LTV: $%.2f\n67%% LTV: $%.2f", low, mid, high)
}

// TokenizePortfolio triggers asset tokenization. Fire and forget: any
// failure is reported as false, never as an error.
func (s *PortfolioService) TokenizePortfolio(ctx context.Context, accountID string) bool {
	resp, err := s.backend.TokenizePortfolio(ctx, accountID)
	if err != nil {
		s.logger.Warn("tokenize portfolio failed", zap.String("account_id", accountID), zap.Error(err))
		return false
	}
	return toBool(resp["success"])
}

// RegisterUser registers the account with the lending backend. Success
// is the backend's boolean flag, nothing else.
func (s *PortfolioService) RegisterUser(ctx context.Context, accountID, topicID string) bool {
	resp, err := s.backend.RegisterUser(ctx, accountID, topicID)
	if err != nil {
		s.logger.Warn("register user failed", zap.String("account_id", accountID), zap.Error(err))
		return false
	}
	return toBool(resp["success"])
}

// TopicExists reports whether the account already has a consensus topic.
func (s *PortfolioService) TopicExists(ctx context.Context, accountID string) bool {
	resp, err := s.backend.CheckTopicExists(ctx, accountID)
	if err != nil {
		s.logger.Warn("topic existence check failed", zap.String("account_id", accountID), zap.Error(err))
		return false
	}
	return toBool(resp["exists"])
}

func (s *PortfolioService) mapTokenizedAssets(ctx context.Context, accountID string) []domain.TokenizedAsset {
	list, err := s.backend.GetTokenizedAssets(ctx, accountID)
	if err != nil {
		s.logger.Warn("failed to fetch tokenized assets", zap.String("account_id", accountID), zap.Error(err))
		return []domain.TokenizedAsset{}
	}

	out := make([]domain.TokenizedAsset, 0, len(list))
	for _, m := range list {
		symbol := toString(m["stockSymbol"])
		amount := toFloat(m["tokenizedAmount"])
		price := toFloat(m["stockPrice"])
		out = append(out, domain.TokenizedAsset{
			TokenID:             symbol,
			OriginalAssetSymbol: symbol,
			TokenizedAmount:     amount,
			BackingValue:        amount * price,
			TokenizationDate:    s.now(),
		})
	}
	return out
}

func (s *PortfolioService) emptyPortfolio(accountID string) domain.Portfolio {
	return domain.Portfolio{
		AccountID:       accountID,
		Assets:          []domain.Asset{},
		TokenizedAssets: []domain.TokenizedAsset{},
		LastUpdated:     s.now(),
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}
