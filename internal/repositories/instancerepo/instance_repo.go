package instancerepo

import (
	"context"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

type IInstanceRepository interface {
	// UpsertByInstanceNo inserts the instance or, when the vendor instance
	// number already exists, updates its endpoint fields in place. This is
	// what keeps duplicate callback deliveries from multiplying rows.
	UpsertByInstanceNo(ctx context.Context, instance *domain.Instance) error
	ListByOrderNo(ctx context.Context, appOrderNo string) ([]*domain.Instance, error)
	UpdateStatusByOrderNo(ctx context.Context, appOrderNo string, status domain.InstanceStatus) error
}
