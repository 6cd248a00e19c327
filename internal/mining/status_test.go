package mining

import (
	"testing"

	"mining_hub/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassify_FirstMatchWins(t *testing.T) {
	wallet := decimal.NewFromInt(100)

	// An active card dominates everything else.
	assert.Equal(t, domain.StatusMiner, Classify(1, 3, wallet))
	assert.Equal(t, domain.StatusMiner, Classify(2, 2, decimal.Zero))

	// Cards in any state without an active one.
	assert.Equal(t, domain.StatusHolder, Classify(0, 3, wallet))
	assert.Equal(t, domain.StatusHolder, Classify(0, 1, decimal.Zero))

	// No cards, money in the wallet.
	assert.Equal(t, domain.StatusDepositor, Classify(0, 0, wallet))

	assert.Equal(t, domain.StatusNewbie, Classify(0, 0, decimal.Zero))
	assert.Equal(t, domain.StatusNewbie, Classify(0, 0, decimal.NewFromInt(-1)))
}
