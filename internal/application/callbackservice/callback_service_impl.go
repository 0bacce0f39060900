package callbackservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
	"github.com/minzf581/IPProxy-sub000/internal/repositories/instancerepo"
	"github.com/minzf581/IPProxy-sub000/internal/repositories/orderrepo"
)

type callbackService struct {
	orderRepo    orderrepo.IOrderRepository
	instanceRepo instancerepo.IInstanceRepository
	notifier     StatusNotifier
	logger       zerolog.Logger
}

func New(
	orderRepo orderrepo.IOrderRepository,
	instanceRepo instancerepo.IInstanceRepository,
	notifier StatusNotifier,
	logger zerolog.Logger,
) ICallbackService {
	return &callbackService{
		orderRepo:    orderRepo,
		instanceRepo: instanceRepo,
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *callbackService) Handle(ctx context.Context, orderID string, cb domain.OrderCallback) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	var target domain.OrderStatus
	switch cb.Status {
	case domain.CallbackStatusSuccess:
		target = domain.TerminalSuccess(order.Variant)
	case domain.CallbackStatusFailed:
		target = domain.OrderStatusFailed
	default:
		return fmt.Errorf("unknown callback status %q: %w", cb.Status, domain.ErrValidation)
	}

	if order.Status == target {
		// Duplicate delivery; the transition was already applied.
		s.logger.Info().
			Str("order_id", orderID).
			Str("status", string(target)).
			Msg("Callback replay for already-terminal order, ignoring")
		return nil
	}
	if !domain.CanTransition(order.Variant, order.Status, target) {
		// Late or out-of-order delivery against a terminal order. Not an
		// error under at-least-once semantics.
		s.logger.Warn().
			Str("order_id", orderID).
			Str("current", string(order.Status)).
			Str("target", string(target)).
			Msg("Callback cannot transition order, ignoring")
		return nil
	}

	if cb.Status == domain.CallbackStatusSuccess {
		if err := s.applySuccess(ctx, order, cb); err != nil {
			return err
		}
	} else {
		// Activation failure after the charge was consumed is recorded for
		// administrative reconciliation; refunds at creation time are the
		// orchestrator's job, not the callback path's.
		if err := s.orderRepo.UpdateStatus(ctx, order.ID, domain.OrderStatusFailed, cb.Message, nil); err != nil {
			return err
		}
	}

	s.notifier.NotifyOrder(domain.OrderEvent{
		Type:       "order_status",
		OrderID:    order.ID,
		AppOrderNo: order.AppOrderNo,
		UserID:     order.UserID,
		Status:     target,
		Message:    cb.Message,
	})

	s.logger.Info().
		Str("order_id", order.ID).
		Str("app_order_no", order.AppOrderNo).
		Str("from", string(order.Status)).
		Str("to", string(target)).
		Msg("Callback applied")
	return nil
}

func (s *callbackService) applySuccess(ctx context.Context, order *domain.Order, cb domain.OrderCallback) error {
	if len(cb.ProxyInfo) > 0 {
		endpoints, err := decodeEndpoints(cb.ProxyInfo)
		if err != nil {
			return fmt.Errorf("bad proxyInfo for order %s: %w", order.ID, domain.ErrValidation)
		}
		now := time.Now()
		for _, ep := range endpoints {
			instance := &domain.Instance{
				ID:         uuid.NewString(),
				InstanceNo: ep.InstanceNo,
				AppOrderNo: order.AppOrderNo,
				Host:       ep.Host,
				Port:       ep.Port,
				Username:   ep.Username,
				Password:   ep.Password,
				ExpireAt:   ep.ExpireTime(),
				Status:     domain.InstanceStatusEnabled,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := s.instanceRepo.UpsertByInstanceNo(ctx, instance); err != nil {
				return err
			}
		}
	}

	return s.orderRepo.UpdateStatus(ctx, order.ID, domain.TerminalSuccess(order.Variant), cb.Message, cb.ProxyInfo)
}

// decodeEndpoints accepts both the static multi-instance list and the
// single-object form some dynamic callbacks use.
func decodeEndpoints(raw json.RawMessage) ([]domain.ProxyEndpoint, error) {
	var list []domain.ProxyEndpoint
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var one domain.ProxyEndpoint
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	if one.InstanceNo == "" && one.Host == "" {
		return nil, nil
	}
	return []domain.ProxyEndpoint{one}, nil
}

func (s *callbackService) Simulate(ctx context.Context, orderID, status string) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	cb := domain.OrderCallback{Status: status, Message: "sandbox simulated callback"}
	if status == domain.CallbackStatusSuccess {
		count := order.Quantity
		if count <= 0 {
			count = 1
		}
		endpoints := make([]domain.ProxyEndpoint, count)
		for i := range endpoints {
			endpoints[i] = domain.ProxyEndpoint{
				InstanceNo: fmt.Sprintf("SIM-%s-%d", order.AppOrderNo, i+1),
				Host:       "127.0.0.1",
				Port:       20000 + i,
				Username:   "sandbox",
				Password:   uuid.NewString()[:8],
				ExpireAt:   time.Now().AddDate(0, 0, 30).Format("2006-01-02 15:04:05"),
			}
		}
		cb.ProxyInfo, _ = json.Marshal(endpoints)
	}

	return s.Handle(ctx, orderID, cb)
}
