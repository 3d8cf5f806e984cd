package migrations

import (
	"context"
	"testing"

	"github.com/uptrace/bun"

	"github.com/chainsafe/deposit-monitor/pkg/config"
	"github.com/chainsafe/deposit-monitor/pkg/pgutil"
)

type claimDao struct {
	bun.BaseModel `bun:"table:test_claims"`
	ID            int64  `bun:",pk,autoincrement"`
	Owner         string `bun:",notnull,type:varchar(100)"`
	Status        string `bun:",notnull,type:varchar(20)"`
}

func TestConnectDB_InvalidHost(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "invalid-host-that-does-not-exist",
		Port:     5432,
		User:     "test",
		Password: "test",
		Database: "test",
		SSLMode:  "disable",
	}

	db, err := pgutil.ConnectDB(cfg, nil)
	if err == nil {
		db.Close()
		t.Error("ConnectDB() should fail with invalid host")
	}
}

func TestCreateSchemaAndDropTables(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := CreateSchema(ctx, db, &claimDao{}); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	pgutil.AssertTableExists(t, db, "test_claims")

	// idempotent
	if err := CreateSchema(ctx, db, &claimDao{}); err != nil {
		t.Errorf("CreateSchema() second call failed: %v", err)
	}

	if err := DropTables(ctx, db, &claimDao{}); err != nil {
		t.Fatalf("DropTables() failed: %v", err)
	}
	pgutil.AssertTableNotExists(t, db, "test_claims")

	if err := DropTables(ctx, db, &claimDao{}); err != nil {
		t.Errorf("DropTables() second call failed: %v", err)
	}
}

func TestCreateModelIndexesAndDropIndex(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := CreateSchema(ctx, db, &claimDao{}); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	if err := CreateModelIndexes(ctx, db, &claimDao{}, "owner", "status"); err != nil {
		t.Fatalf("CreateModelIndexes() failed: %v", err)
	}
	pgutil.AssertIndexExists(t, db, "idx_test_claims_owner")
	pgutil.AssertIndexExists(t, db, "idx_test_claims_status")

	if err := DropIndex(ctx, db, "idx_test_claims_owner"); err != nil {
		t.Fatalf("DropIndex() failed: %v", err)
	}

	var exists bool
	query := `SELECT EXISTS (SELECT FROM pg_indexes WHERE schemaname = 'public' AND indexname = ?)`
	if err := db.NewRaw(query, "idx_test_claims_owner").Scan(ctx, &exists); err != nil {
		t.Fatalf("failed to check index: %v", err)
	}
	if exists {
		t.Error("index should be dropped but still exists")
	}

	if err := DropIndex(ctx, db, "idx_test_claims_owner"); err != nil {
		t.Errorf("DropIndex() second call failed: %v", err)
	}
}

func TestCreatePartialUniqueIndex(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := CreateSchema(ctx, db, &claimDao{}); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	if err := CreatePartialUniqueIndex(ctx, db, &claimDao{}, "idx_test_claims_active_owner", "owner", "status <> 'DONE'"); err != nil {
		t.Fatalf("CreatePartialUniqueIndex() failed: %v", err)
	}

	insert := func(owner, status string) error {
		_, err := db.NewInsert().Model(&claimDao{Owner: owner, Status: status}).Exec(ctx)
		return err
	}

	if err := insert("alice", "DONE"); err != nil {
		t.Fatalf("insert DONE failed: %v", err)
	}
	if err := insert("alice", "DONE"); err != nil {
		t.Fatalf("second DONE row should be allowed: %v", err)
	}
	if err := insert("alice", "OPEN"); err != nil {
		t.Fatalf("first OPEN row failed: %v", err)
	}
	if err := insert("alice", "OPEN"); err == nil {
		t.Error("expected second OPEN row for the same owner to violate the index")
	}
}

func TestModelIndexName(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()

	name, err := ModelIndexName(db, &claimDao{}, "owner")
	if err != nil {
		t.Fatalf("ModelIndexName() failed: %v", err)
	}
	if name != "idx_test_claims_owner" {
		t.Fatalf("expected idx_test_claims_owner, got %s", name)
	}

	if _, err := ModelIndexName(db, nil, "owner"); err == nil {
		t.Error("expected error for nil model")
	}
}
