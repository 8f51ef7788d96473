package chat

import (
	"strings"

	"github.com/divin3circle/hashrexa/domain"
)

// ClassifyIntent labels a loan query by case-insensitive substring
// match, evaluated in fixed priority order. The first matching category
// wins; queries matching nothing are general inquiries.
func ClassifyIntent(query string) domain.Intent {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "collateral") || strings.Contains(lower, "ltv"):
		return domain.IntentCollateral
	case strings.Contains(lower, "apy") || strings.Contains(lower, "rate") || strings.Contains(lower, "interest"):
		return domain.IntentRate
	case strings.Contains(lower, "repay") || strings.Contains(lower, "pay back"):
		return domain.IntentRepayment
	case strings.Contains(lower, "risk") || strings.Contains(lower, "safe"):
		return domain.IntentRisk
	default:
		return domain.IntentGeneral
	}
}
