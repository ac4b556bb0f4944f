// Package ledger answers the accounting question behind every refund:
// how much of a payment is still refundable.
package ledger

import (
	"context"

	"github.com/rivetpay/gateway/internal/domain"
)

// RefundSummer is the slice of the refund store the ledger needs.
type RefundSummer interface {
	SumRefunds(ctx context.Context, paymentID string, statuses ...domain.RefundStatus) (int64, error)
}

type Ledger struct {
	refunds RefundSummer
}

func New(refunds RefundSummer) *Ledger {
	return &Ledger{refunds: refunds}
}

// Available returns the refundable ceiling for a payment: its amount minus
// all pending and processed refunds. The request path uses this so in-flight
// refunds already count against the balance.
func (l *Ledger) Available(ctx context.Context, p *domain.Payment) (int64, error) {
	reserved, err := l.refunds.SumRefunds(ctx, p.ID, domain.RefundPending, domain.RefundProcessed)
	if err != nil {
		return 0, err
	}
	return p.Amount - reserved, nil
}

// AvailableProcessed counts only processed refunds. The refund worker
// re-validates against this at commit time, guarding the race between the
// request-time check and the worker-time write.
func (l *Ledger) AvailableProcessed(ctx context.Context, p *domain.Payment) (int64, error) {
	settled, err := l.refunds.SumRefunds(ctx, p.ID, domain.RefundProcessed)
	if err != nil {
		return 0, err
	}
	return p.Amount - settled, nil
}
