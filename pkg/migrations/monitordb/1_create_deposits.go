package monitordb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/chainsafe/deposit-monitor/pkg/deposit"
	"github.com/chainsafe/deposit-monitor/pkg/depositstore"
	mghelper "github.com/chainsafe/deposit-monitor/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		model := &depositstore.DepositDao{}
		if err := mghelper.CreateSchema(ctx, db, model); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, model, "status", "next_attempt_at", "sender_address"); err != nil {
			return err
		}
		return mghelper.CreatePartialUniqueIndex(ctx, db, model,
			depositstore.ActiveUserIndex, "user_address",
			fmt.Sprintf("status <> '%s'", deposit.StatusRefunded))
	}, func(ctx context.Context, db *bun.DB) error {
		return mghelper.DropTables(ctx, db, &depositstore.DepositDao{})
	})
}
