package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/promptmart/promptmart-backend/pkg/enums"
	pkgerrors "github.com/promptmart/promptmart-backend/pkg/errors"
)

// Setting keys managed by the admin surface.
const (
	KeyDefaultCommissionRate = "default_commission_rate"
	KeyMinPayoutAmountCents  = "min_payout_amount_cents"
	KeyPayoutFrequency       = "payout_frequency"
	KeyPayoutDelayDays       = "payout_delay_days"
	KeyEnableAutoPayouts     = "enable_auto_payouts"
)

// Settings is the typed snapshot of platform configuration loaded at the
// start of each run. Unset keys fall back to the defaults below.
type Settings struct {
	DefaultCommissionRate decimal.Decimal       `validate:"-"`
	MinPayoutAmountCents  int64                 `validate:"gte=0"`
	PayoutFrequency       enums.PayoutFrequency `validate:"required"`
	PayoutDelayDays       int                   `validate:"gte=0"`
	EnableAutoPayouts     bool
}

// Defaults returns the platform defaults used when a key is absent.
func Defaults() Settings {
	return Settings{
		DefaultCommissionRate: decimal.NewFromInt(15),
		MinPayoutAmountCents:  1000,
		PayoutFrequency:       enums.PayoutFrequencyWeekly,
		PayoutDelayDays:       7,
		EnableAutoPayouts:     true,
	}
}

// Service loads and validates typed settings.
type Service interface {
	Load(ctx context.Context) (Settings, error)
}

type service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService wires a settings service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{
		repo:     repo,
		validate: validator.New(),
	}, nil
}

func (s *service) Load(ctx context.Context) (Settings, error) {
	values, err := s.repo.All(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("loading platform settings: %w", err)
	}

	loaded := Defaults()

	if raw, ok := values[KeyDefaultCommissionRate]; ok {
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return Settings{}, invalidSetting(KeyDefaultCommissionRate, raw, err)
		}
		loaded.DefaultCommissionRate = rate
	}

	if raw, ok := values[KeyMinPayoutAmountCents]; ok {
		cents, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return Settings{}, invalidSetting(KeyMinPayoutAmountCents, raw, err)
		}
		loaded.MinPayoutAmountCents = cents
	}

	if raw, ok := values[KeyPayoutFrequency]; ok {
		frequency, err := enums.ParsePayoutFrequency(strings.TrimSpace(raw))
		if err != nil {
			return Settings{}, invalidSetting(KeyPayoutFrequency, raw, err)
		}
		loaded.PayoutFrequency = frequency
	}

	if raw, ok := values[KeyPayoutDelayDays]; ok {
		days, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Settings{}, invalidSetting(KeyPayoutDelayDays, raw, err)
		}
		loaded.PayoutDelayDays = days
	}

	if raw, ok := values[KeyEnableAutoPayouts]; ok {
		enabled, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Settings{}, invalidSetting(KeyEnableAutoPayouts, raw, err)
		}
		loaded.EnableAutoPayouts = enabled
	}

	if loaded.DefaultCommissionRate.IsNegative() || loaded.DefaultCommissionRate.GreaterThan(decimal.NewFromInt(100)) {
		return Settings{}, pkgerrors.New(pkgerrors.CodeConfiguration,
			fmt.Sprintf("%s must be between 0 and 100, got %s", KeyDefaultCommissionRate, loaded.DefaultCommissionRate))
	}
	if err := s.validate.Struct(loaded); err != nil {
		return Settings{}, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "platform settings failed validation")
	}

	return loaded, nil
}

func invalidSetting(key, raw string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, fmt.Sprintf("invalid %s value %q", key, raw))
}
