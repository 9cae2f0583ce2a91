package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Empresas-api/internal/application/auth"
	"github.com/jhoicas/Empresas-api/internal/application/usecase"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// Ensure TxRunner implements usecase.TxRunner and auth.TxRunner.
var _ usecase.TxRunner = (*TxRunner)(nil)
var _ auth.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. Las mutaciones de membresía y su entrada de auditoría
// quedan así en la misma unidad atómica.
func (r *TxRunner) Run(ctx context.Context, fn func(
	memberships repository.MembershipRepository,
	activity repository.ActivityRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	membershipRepo := NewMembershipRepository(tx)
	activityRepo := NewActivityRepository(tx)

	if err := fn(membershipRepo, activityRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunOnboarding inicia una transacción con repos de usuarios, membresías y
// auditoría (alta de usuario + membresía inicial en una sola unidad).
func (r *TxRunner) RunOnboarding(ctx context.Context, fn func(
	users repository.UserRepository,
	memberships repository.MembershipRepository,
	activity repository.ActivityRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	userRepo := NewUserRepository(tx)
	membershipRepo := NewMembershipRepository(tx)
	activityRepo := NewActivityRepository(tx)

	if err := fn(userRepo, membershipRepo, activityRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
