package updater

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/corebank/transferd/engine"
)

var _ engine.Publisher = (*Broadcaster)(nil)

// NewBroadcaster publishes committed balance changes to NATS, one subject
// per account, so interested collaborators (notifications, read models) can
// follow an account without polling.
func NewBroadcaster(nc *nats.EncodedConn) *Broadcaster {
	return &Broadcaster{
		nc: nc,
		l:  zap.L().Named("updater"),
	}
}

type Broadcaster struct {
	nc *nats.EncodedConn
	l  *zap.Logger
}

// PublishBalanceChange is best-effort: a broker outage must not fail a
// transfer that already committed.
func (b *Broadcaster) PublishBalanceChange(change engine.BalanceChange) {
	subject := SubjectFromAccount(change.AccountID)
	if err := b.nc.Publish(subject, &change); err != nil {
		b.l.Warn("Failed to publish balance change.",
			zap.Error(err),
			zap.String("subject", subject),
			zap.String("account_id", change.AccountID),
		)
	}
}

// SubjectFromAccount is the subject consumers subscribe to for one
// account's balance changes.
func SubjectFromAccount(accountID string) string {
	return fmt.Sprintf("accounts.%s.balance", accountID)
}
