package depositstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/chainsafe/deposit-monitor/pkg/deposit"
)

// monitorStateID is the primary key of the singleton monitor_state row.
const monitorStateID = 1

// DepositDao is a data access object that maps directly to the 'deposits' table in PostgreSQL.
type DepositDao struct {
	bun.BaseModel        `bun:"table:deposits,alias:d"`
	TxHash               string          `bun:"tx_hash,pk,type:varchar(100)"`
	OutputIndex          int64           `bun:"output_index,pk"`
	UserAddress          string          `bun:"user_address,notnull,type:varchar(200)"`
	SenderAddress        string          `bun:"sender_address,notnull,type:varchar(100)"`
	Amount               decimal.Decimal `bun:"amount,notnull,type:numeric(78,0)"`
	Status               string          `bun:"status,notnull,type:varchar(20)"`
	Unmatched            bool            `bun:"unmatched,notnull,default:false"`
	BlockNumber          int64           `bun:"block_number,notnull,default:0"`
	Confirmations        int64           `bun:"confirmations,notnull,default:0"`
	VerificationAttempts int             `bun:"verification_attempts,notnull,default:0"`
	RefundAttempts       int             `bun:"refund_attempts,notnull,default:0"`
	RefundTxHash         *string         `bun:"refund_tx_hash,type:varchar(100)"`
	RefundRawTx          []byte          `bun:"refund_raw_tx,type:bytea"`
	RefundDestination    *string         `bun:"refund_destination,type:varchar(100)"`
	NextAttemptAt        *time.Time      `bun:"next_attempt_at"`
	LastError            *string         `bun:"last_error,type:text"`
	CreatedAt            time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt            time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// RegistrationDao maps to the 'registrations' table.
type RegistrationDao struct {
	bun.BaseModel      `bun:"table:registrations,alias:r"`
	UserAddress        string     `bun:"user_address,pk,type:varchar(200)"`
	SenderAddress      *string    `bun:"sender_address,type:varchar(100)"`
	CorrelationKey     *string    `bun:"correlation_key,unique,type:varchar(200)"`
	Status             string     `bun:"status,notnull,type:varchar(20)"`
	MatchedTxHash      *string    `bun:"matched_tx_hash,type:varchar(100)"`
	MatchedOutputIndex *int64     `bun:"matched_output_index"`
	CreatedAt          time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	MatchedAt          *time.Time `bun:"matched_at"`
}

// WebhookDao maps to the 'webhooks' table.
type WebhookDao struct {
	bun.BaseModel `bun:"table:webhooks,alias:w"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	URL           string    `bun:"url,notnull,type:text"`
	Secret        string    `bun:"secret,notnull,type:text"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// MonitorStateDao maps to the singleton 'monitor_state' table.
type MonitorStateDao struct {
	bun.BaseModel  `bun:"table:monitor_state,alias:ms"`
	ID             int        `bun:"id,pk"`
	Running        bool       `bun:"running,notnull,default:false"`
	LastCheckpoint int64      `bun:"last_checkpoint,notnull,default:0"`
	Processed      int64      `bun:"processed,notnull,default:0"`
	Refunded       int64      `bun:"refunded,notnull,default:0"`
	Failed         int64      `bun:"failed,notnull,default:0"`
	Unmatched      int64      `bun:"unmatched,notnull,default:0"`
	LastError      *string    `bun:"last_error,type:text"`
	LastRunAt      *time.Time `bun:"last_run_at"`
	LastSuccessAt  *time.Time `bun:"last_success_at"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func toDepositDao(rec *deposit.Record) *DepositDao {
	dao := &DepositDao{
		TxHash:               rec.TxHash,
		OutputIndex:          int64(rec.OutputIndex),
		UserAddress:          deposit.NormalizeAddress(rec.UserAddress),
		SenderAddress:        deposit.NormalizeAddress(rec.SenderAddress),
		Status:               string(rec.Status),
		Unmatched:            rec.Unmatched,
		BlockNumber:          int64(rec.BlockNumber),
		Confirmations:        int64(rec.Confirmations),
		VerificationAttempts: rec.VerificationAttempts,
		RefundAttempts:       rec.RefundAttempts,
		RefundTxHash:         rec.RefundTxHash,
		RefundRawTx:          rec.RefundRawTx,
		RefundDestination:    rec.RefundDestination,
		NextAttemptAt:        rec.NextAttemptAt,
		LastError:            optionalString(rec.LastError),
		CreatedAt:            rec.CreatedAt,
		UpdatedAt:            rec.UpdatedAt,
	}
	if rec.Amount != nil {
		dao.Amount = decimal.NewFromBigInt(rec.Amount, 0)
	}
	return dao
}

func fromDepositDao(dao *DepositDao) *deposit.Record {
	rec := &deposit.Record{
		TxHash:               dao.TxHash,
		OutputIndex:          uint32(dao.OutputIndex),
		UserAddress:          dao.UserAddress,
		SenderAddress:        dao.SenderAddress,
		Amount:               dao.Amount.BigInt(),
		Status:               deposit.Status(dao.Status),
		Unmatched:            dao.Unmatched,
		BlockNumber:          uint64(dao.BlockNumber),
		Confirmations:        uint64(dao.Confirmations),
		VerificationAttempts: dao.VerificationAttempts,
		RefundAttempts:       dao.RefundAttempts,
		RefundTxHash:         dao.RefundTxHash,
		RefundRawTx:          dao.RefundRawTx,
		RefundDestination:    dao.RefundDestination,
		NextAttemptAt:        dao.NextAttemptAt,
		CreatedAt:            dao.CreatedAt,
		UpdatedAt:            dao.UpdatedAt,
	}
	if dao.LastError != nil {
		rec.LastError = *dao.LastError
	}
	return rec
}

func toRegistrationDao(reg *deposit.Registration) *RegistrationDao {
	dao := &RegistrationDao{
		UserAddress:    deposit.NormalizeAddress(reg.UserAddress),
		SenderAddress:  optionalString(deposit.NormalizeAddress(reg.SenderAddress)),
		CorrelationKey: optionalString(reg.CorrelationKey),
		Status:         string(reg.Status),
		MatchedAt:      reg.MatchedAt,
	}
	if dao.Status == "" {
		dao.Status = string(deposit.RegistrationPending)
	}
	if reg.MatchedKey != nil {
		idx := int64(reg.MatchedKey.OutputIndex)
		dao.MatchedTxHash = &reg.MatchedKey.TxHash
		dao.MatchedOutputIndex = &idx
	}
	return dao
}

func fromRegistrationDao(dao *RegistrationDao) *deposit.Registration {
	reg := &deposit.Registration{
		UserAddress: dao.UserAddress,
		Status:      deposit.RegistrationStatus(dao.Status),
		CreatedAt:   dao.CreatedAt,
		MatchedAt:   dao.MatchedAt,
	}
	if dao.SenderAddress != nil {
		reg.SenderAddress = *dao.SenderAddress
	}
	if dao.CorrelationKey != nil {
		reg.CorrelationKey = *dao.CorrelationKey
	}
	if dao.MatchedTxHash != nil && dao.MatchedOutputIndex != nil {
		reg.MatchedKey = &deposit.Key{TxHash: *dao.MatchedTxHash, OutputIndex: uint32(*dao.MatchedOutputIndex)}
	}
	return reg
}

func fromStateDao(dao *MonitorStateDao) *deposit.MonitorState {
	st := &deposit.MonitorState{
		Running:        dao.Running,
		LastCheckpoint: deposit.Checkpoint(dao.LastCheckpoint),
		Stats: deposit.Stats{
			Processed:     dao.Processed,
			Refunded:      dao.Refunded,
			Failed:        dao.Failed,
			Unmatched:     dao.Unmatched,
			LastRunAt:     dao.LastRunAt,
			LastSuccessAt: dao.LastSuccessAt,
		},
		UpdatedAt: dao.UpdatedAt,
	}
	if dao.LastError != nil {
		st.Stats.LastError = *dao.LastError
	}
	return st
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
