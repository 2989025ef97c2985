package config

import (
	"context"
	"os"
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/ledgerline/refundgate/pkg/service/rules"
	"github.com/ledgerline/refundgate/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Rules holds the path to the TOML app config carrying refund rules and
// optional seed orders.
type Rules struct {
	configPath string
}

type appFile struct {
	Rules  rulesSection `toml:"rules"`
	Orders []seedOrder  `toml:"orders"`
}

type rulesSection struct {
	DeadlineDays            int      `toml:"deadline_days"`
	NonRefundableCategories []string `toml:"non_refundable_categories"`
}

type seedOrder struct {
	ID          string            `toml:"id"`
	UserID      string            `toml:"user_id"`
	Items       []model.OrderItem `toml:"items"`
	TotalAmount float64           `toml:"total_amount"`
	Status      string            `toml:"status"`
	Phone       string            `toml:"phone"`
	PayMethod   string            `toml:"pay_method"`
	CreatedAt   time.Time         `toml:"created_at"`
}

// Flags returns CLI flags for rules configuration
func (r *Rules) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "app-config",
			Usage:       "Path to TOML file with refund rules and seed orders",
			Sources:     cli.EnvVars("REFUNDGATE_APP_CONFIG"),
			Destination: &r.configPath,
		},
	}
}

// Configure loads the TOML file (if any), seeds orders into the repository and
// builds the eligibility checker. With no file the checker runs on defaults.
func (r *Rules) Configure(ctx context.Context, repo interfaces.Repository) (*rules.Checker, error) {
	if r.configPath == "" {
		return rules.NewChecker(repo.Case()), nil
	}

	raw, err := os.ReadFile(r.configPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read app config", goerr.V("path", r.configPath))
	}

	var app appFile
	if err := toml.Unmarshal(raw, &app); err != nil {
		return nil, goerr.Wrap(err, "failed to parse app config", goerr.V("path", r.configPath))
	}

	var opts []rules.Option
	if app.Rules.DeadlineDays > 0 {
		opts = append(opts, rules.WithDeadlineDays(app.Rules.DeadlineDays))
	}
	if len(app.Rules.NonRefundableCategories) > 0 {
		opts = append(opts, rules.WithNonRefundableCategories(app.Rules.NonRefundableCategories))
	}

	if err := r.seedOrders(ctx, repo.Order(), app.Orders); err != nil {
		return nil, err
	}

	return rules.NewChecker(repo.Case(), opts...), nil
}

func (r *Rules) seedOrders(ctx context.Context, orders interfaces.OrderRepository, seeds []seedOrder) error {
	for _, seed := range seeds {
		status, err := types.ParseOrderStatus(seed.Status)
		if err != nil {
			return goerr.Wrap(err, "invalid seed order status", goerr.V("order_id", seed.ID))
		}

		createdAt := seed.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		order := &model.Order{
			ID:          seed.ID,
			UserID:      seed.UserID,
			Items:       seed.Items,
			TotalAmount: seed.TotalAmount,
			Status:      status,
			Phone:       seed.Phone,
			PayMethod:   seed.PayMethod,
			CreatedAt:   createdAt,
		}
		if err := orders.Put(ctx, order); err != nil {
			return goerr.Wrap(err, "failed to seed order", goerr.V("order_id", seed.ID))
		}
	}

	if len(seeds) > 0 {
		logging.From(ctx).Info("seeded orders from app config", "count", len(seeds))
	}
	return nil
}
