// internal/service/ledger/application/service.go
package application

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/logger"
	"txflow/internal/pkg/money"
	"txflow/internal/service/ledger/domain"
)

// LedgerApplicationService 负责账户开立和转账
type LedgerApplicationService struct {
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	txm          domain.TxManager
	tracer       trace.Tracer
}

func NewLedgerApplicationService(accounts domain.AccountRepository, transactions domain.TransactionRepository, txm domain.TxManager, tracer trace.Tracer) *LedgerApplicationService {
	return &LedgerApplicationService{accounts: accounts, transactions: transactions, txm: txm, tracer: tracer}
}

func (s *LedgerApplicationService) CreateAccount(ctx context.Context, req *CreateAccountRequest) (*domain.Account, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.CreateAccount")
	defer span.End()

	account, err := domain.NewAccount(req.AccountNumber, req.Holder, req.InitialBalance, req.Type)
	if err != nil {
		return nil, err
	}
	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		return s.accounts.Create(ctx, account)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	logger.Ctx(ctx).Info().Str("account", account.AccountNumber).Str("type", string(account.Type)).Msg("Account created")
	return account, nil
}

func (s *LedgerApplicationService) GetAccount(ctx context.Context, number string) (*domain.Account, error) {
	return s.accounts.Find(ctx, number)
}

func (s *LedgerApplicationService) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	return s.accounts.FindAll(ctx)
}

func (s *LedgerApplicationService) ListTransactions(ctx context.Context) ([]*domain.TransactionRecord, error) {
	return s.transactions.FindAll(ctx)
}

// Transfer 在一个事务内完成扣款、入账和流水写入。
// 两个账户按账号字典序加锁，保证任意两笔相反方向的转账不会互相等待。
func (s *LedgerApplicationService) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) (*domain.TransactionRecord, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("transfer.from", from),
		attribute.String("transfer.to", to),
		attribute.String("transfer.amount", amount.String()),
	)

	if err := validateTransfer(from, to, amount); err != nil {
		return nil, err
	}

	var record *domain.TransactionRecord
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		locked := make(map[string]*domain.Account, 2)
		for _, number := range lockOrder(from, to) {
			acc, err := s.accounts.FindWithLock(ctx, number)
			if err != nil {
				if apperr.IsKind(err, apperr.KindNotFound) {
					return apperr.NotFound("%s account %s not found", side(number, from), number)
				}
				return err
			}
			locked[number] = acc
		}
		span.AddEvent("Both accounts locked")

		src, dst := locked[from], locked[to]
		if err := src.Debit(amount); err != nil {
			return err
		}
		dst.Credit(amount)

		if err := s.accounts.Save(ctx, src); err != nil {
			return err
		}
		if err := s.accounts.Save(ctx, dst); err != nil {
			return err
		}
		record = domain.NewTransferRecord(from, to, amount)
		return s.transactions.Save(ctx, record)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transfer failed")
		logger.Ctx(ctx).Warn().Err(err).Str("from", from).Str("to", to).Str("amount", amount.String()).Msg("Transfer rejected")
		return nil, err
	}

	logger.Ctx(ctx).Info().Str("tx_id", record.ID).Str("from", from).Str("to", to).Str("amount", amount.String()).Msg("Transfer committed")
	return record, nil
}

func validateTransfer(from, to string, amount decimal.Decimal) error {
	if from == "" || to == "" {
		return apperr.InvalidArgument("source and destination accounts are required")
	}
	if from == to {
		return apperr.InvalidArgument("cannot transfer to the same account %s", from)
	}
	if !amount.IsPositive() {
		return apperr.InvalidArgument("transfer amount must be positive, got %s", amount.String())
	}
	if !money.FitsScale(amount) {
		return apperr.InvalidArgument("transfer amount %s has more than %d decimal places", amount.String(), money.Scale)
	}
	return nil
}

// lockOrder 返回全局一致的加锁顺序
func lockOrder(a, b string) [2]string {
	if a < b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

func side(number, from string) string {
	if number == from {
		return "source"
	}
	return "destination"
}
