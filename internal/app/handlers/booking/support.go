package booking

import (
	"context"
	"errors"

	"gearshare/internal/app/outbox"
	"gearshare/internal/app/uow"
	domainbooking "gearshare/internal/domain/booking"
)

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

// runInUnit executes fn inside the ambient unit of work, or starts and commits
// a managed one when the command bus middleware did not provide any.
func runInUnit(ctx context.Context, factory uow.UoWFactory, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	if unit, ok := uow.FromContext(ctx); ok {
		return fn(ctx, unit)
	}
	if factory == nil {
		return ErrUnitOfWorkRequired
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = uow.ContextWithUnitOfWork(execCtx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()
	if err := fn(execCtx, unit); err != nil {
		return err
	}
	if err := unit.Commit(execCtx); err != nil {
		return err
	}
	committed = true
	return nil
}

// drainEvents stages the aggregate's pending events and clears them.
func drainEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, b *domainbooking.Booking) error {
	if err := outbox.RecordDomainEvents(ctx, box, encoder, b.PendingEvents()); err != nil {
		return err
	}
	b.ClearEvents()
	return nil
}
