// Package payment abstracts the deposit payment provider. The workflow only
// consumes the boolean outcome of a charge; tokenization and provider
// protocol details live behind this interface.
package payment

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

// Charger processes a deposit charge for an application. A non-nil error
// means the charge did not happen; the caller records nothing and the user
// may retry the payment action later.
type Charger interface {
	Charge(ctx context.Context, amount decimal.Decimal, applicationID uint) error
}

// devCharger approves every charge and logs it. Used outside production
// until a real provider integration is configured.
type devCharger struct{}

// NewDevCharger returns a Charger that always succeeds.
func NewDevCharger() Charger {
	return devCharger{}
}

func (devCharger) Charge(ctx context.Context, amount decimal.Decimal, applicationID uint) error {
	slog.InfoContext(ctx, "dev charger approved deposit",
		"application_id", applicationID,
		"amount", amount.StringFixed(2),
	)
	return nil
}
