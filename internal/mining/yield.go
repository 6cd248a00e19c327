// Package mining holds the pure arithmetic of the accrual and referral
// engines: yield per tick, currency conversion, cooldown policy and the
// account status classifier. Everything here is deterministic and free
// of I/O so the money math can be tested exhaustively.
package mining

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinutesPerYear is the number of accrual periods in a year at the
// design cadence of one tick per minute.
const MinutesPerYear = 365 * 24 * 60

// SatsPerBTC converts between the satoshi reward unit and BTC priced
// by the oracle.
const SatsPerBTC = 100_000_000

var (
	hundred    = decimal.NewFromInt(100)
	satsPerBTC = decimal.NewFromInt(SatsPerBTC)
	daysInYear = decimal.NewFromInt(365)
)

// TickYieldSats returns the satoshi yield a card earns over elapsed
// accrual periods: nominal * (apy/100) / periodsPerYear * periods.
// periods > 1 pro-rates catch-up when the sweep ran late.
func TickYieldSats(nominalSats int64, clientAPY float64, periodsPerYear int64, periods int64) decimal.Decimal {
	if nominalSats <= 0 || clientAPY <= 0 || periodsPerYear <= 0 || periods <= 0 {
		return decimal.Zero
	}
	rate := decimal.NewFromFloat(clientAPY).
		Div(hundred).
		Div(decimal.NewFromInt(periodsPerYear))
	return decimal.NewFromInt(nominalSats).Mul(rate).Mul(decimal.NewFromInt(periods))
}

// SatsToUSD prices a satoshi amount at the given BTC/USD rate.
func SatsToUSD(sats decimal.Decimal, btcUSD decimal.Decimal) decimal.Decimal {
	return sats.Div(satsPerBTC).Mul(btcUSD)
}

// CardPriceUSD is the purchase price of a card: its sats face value at
// the current oracle rate.
func CardPriceUSD(nominalSats int64, btcUSD decimal.Decimal) decimal.Decimal {
	return SatsToUSD(decimal.NewFromInt(nominalSats), btcUSD)
}

// DailyReferralRewardSats is the upline's cut for one downstream active
// card: floor(nominal * refAPY/100 / 365), whole sats. The fractional
// remainder is dropped, never carried forward.
func DailyReferralRewardSats(nominalSats int64, referralAPY float64) int64 {
	if nominalSats <= 0 || referralAPY <= 0 {
		return 0
	}
	reward := decimal.NewFromInt(nominalSats).
		Mul(decimal.NewFromFloat(referralAPY)).
		Div(hundred).
		Div(daysInYear)
	return reward.Floor().IntPart()
}

// NextUnlockAt returns when a card stopped at now leaves cooldown:
// midnight UTC on the first day of the following calendar month.
func NextUnlockAt(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

// SessionDays is the whole-day duration of a closed mining session.
func SessionDays(startedAt, endedAt time.Time) int {
	d := endedAt.Sub(startedAt)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}
