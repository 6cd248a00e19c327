package mining

import (
	"mining_hub/internal/domain"

	"github.com/shopspring/decimal"
)

// Classify derives the account status label from a user's holdings.
// First match wins: an active card makes a MINER, any card a HOLDER,
// a positive wallet a DEPOSITOR, otherwise NEWBIE.
func Classify(activeCards, totalCards int, walletUSD decimal.Decimal) domain.AccountStatus {
	switch {
	case activeCards > 0:
		return domain.StatusMiner
	case totalCards > 0:
		return domain.StatusHolder
	case walletUSD.IsPositive():
		return domain.StatusDepositor
	default:
		return domain.StatusNewbie
	}
}
