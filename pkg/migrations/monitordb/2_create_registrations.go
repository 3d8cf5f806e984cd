package monitordb

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/chainsafe/deposit-monitor/pkg/depositstore"
	mghelper "github.com/chainsafe/deposit-monitor/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		model := &depositstore.RegistrationDao{}
		if err := mghelper.CreateSchema(ctx, db, model); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, model, "sender_address", "status")
	}, func(ctx context.Context, db *bun.DB) error {
		return mghelper.DropTables(ctx, db, &depositstore.RegistrationDao{})
	})
}
