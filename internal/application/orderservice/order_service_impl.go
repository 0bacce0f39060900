package orderservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/minzf581/IPProxy-sub000/internal/application/paymentledger"
	"github.com/minzf581/IPProxy-sub000/internal/domain"
	"github.com/minzf581/IPProxy-sub000/internal/infrastructure/vendor"
	"github.com/minzf581/IPProxy-sub000/internal/repositories/accountrepo"
	"github.com/minzf581/IPProxy-sub000/internal/repositories/instancerepo"
	"github.com/minzf581/IPProxy-sub000/internal/repositories/orderrepo"
	"github.com/minzf581/IPProxy-sub000/pkg/config"
	"github.com/minzf581/IPProxy-sub000/pkg/orderno"
)

// Vendor proxy type codes per channel contract.
const (
	proxyTypeDynamic = 101
	proxyTypeStatic  = 103
)

type orderService struct {
	orderRepo    orderrepo.IOrderRepository
	instanceRepo instancerepo.IInstanceRepository
	accountRepo  accountrepo.IAccountRepository
	ledger       paymentledger.ILedgerService
	vendorClient vendor.IVendorClient
	cfg          config.VendorConfig
	logger       zerolog.Logger
}

func New(
	orderRepo orderrepo.IOrderRepository,
	instanceRepo instancerepo.IInstanceRepository,
	accountRepo accountrepo.IAccountRepository,
	ledger paymentledger.ILedgerService,
	vendorClient vendor.IVendorClient,
	cfg config.VendorConfig,
	logger zerolog.Logger,
) IOrderService {
	return &orderService{
		orderRepo:    orderRepo,
		instanceRepo: instanceRepo,
		accountRepo:  accountRepo,
		ledger:       ledger,
		vendorClient: vendorClient,
		cfg:          cfg,
		logger:       logger,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	agentID := req.AgentID
	if agentID == "" {
		// Default the billing agent to the account's parent; top-level
		// agents bill themselves.
		parent, err := s.accountRepo.GetParentAgent(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		if parent != nil {
			agentID = parent.ID
		} else {
			agentID = account.ID
		}
	}

	orderID := uuid.NewString()
	appOrderNo := orderno.NewAppOrderNo()

	// The charge and the vendor call are separate persisted steps: a crash
	// between them leaves a ledger entry keyed by appOrderNo with no order
	// row, which reconciliation can detect and refund.
	chargeEntry, err := s.ledger.Charge(ctx, req.UserID, agentID, appOrderNo, req.TotalAmount)
	if err != nil {
		return nil, err
	}

	result, err := s.vendorClient.OpenInstance(ctx, s.buildOpenParams(req, orderID, appOrderNo))
	if err != nil {
		s.logger.Warn().Err(err).
			Str("app_order_no", appOrderNo).
			Str("user_id", req.UserID).
			Msg("Vendor open failed after charge, refunding")

		if _, refundErr := s.ledger.Refund(ctx, req.UserID, agentID, appOrderNo, req.TotalAmount, "order creation failed"); refundErr != nil {
			// The charge stands with no order behind it; reconciliation has
			// to repair this one from the ledger.
			s.logger.Error().Err(refundErr).
				Str("app_order_no", appOrderNo).
				Str("txn_no", chargeEntry.TxnNo).
				Msg("Compensating refund failed")
			return nil, fmt.Errorf("vendor call failed and refund failed (txn %s): %w", chargeEntry.TxnNo, refundErr)
		}
		return nil, err
	}

	payload, _ := json.Marshal(result)
	now := time.Now()
	order := &domain.Order{
		ID:            orderID,
		AppOrderNo:    appOrderNo,
		VendorOrderNo: result.VendorOrderNo,
		UserID:        req.UserID,
		AgentID:       agentID,
		Variant:       req.Variant,
		ProductNo:     req.ProductNo,
		PoolNo:        req.PoolNo,
		Quantity:      req.Quantity,
		TrafficMB:     req.TrafficMB,
		UnitPrice:     req.UnitPrice,
		TotalAmount:   req.TotalAmount,
		Status:        initialStatus(req.Variant),
		VendorPayload: payload,
		Remark:        req.Remark,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		if _, refundErr := s.ledger.Refund(ctx, req.UserID, agentID, appOrderNo, req.TotalAmount, "order creation failed"); refundErr != nil {
			s.logger.Error().Err(refundErr).Str("app_order_no", appOrderNo).Msg("Compensating refund failed after persist error")
		}
		return nil, err
	}

	s.logger.Info().
		Str("app_order_no", appOrderNo).
		Str("vendor_order_no", result.VendorOrderNo).
		Str("user_id", req.UserID).
		Str("variant", string(req.Variant)).
		Str("status", string(order.Status)).
		Msg("Order created")
	return order, nil
}

// initialStatus: static provisioning is asynchronous at the vendor, so
// static orders start in processing; dynamic orders wait in pending for the
// activation callback.
func initialStatus(variant domain.OrderVariant) domain.OrderStatus {
	if variant == domain.OrderVariantStatic {
		return domain.OrderStatusProcessing
	}
	return domain.OrderStatusPending
}

func (s *orderService) buildOpenParams(req domain.CreateOrderRequest, orderID, appOrderNo string) domain.OpenInstanceParams {
	params := domain.OpenInstanceParams{
		AppOrderNo:  appOrderNo,
		CallbackURL: fmt.Sprintf("%s/callback/order/%s", s.cfg.CallbackBaseURL, orderID),
	}
	if req.Variant == domain.OrderVariantDynamic {
		params.ProxyType = proxyTypeDynamic
		params.PoolNo = req.PoolNo
		params.ProductNo = req.ProductNo
		params.TrafficMB = req.TrafficMB
	} else {
		params.ProxyType = proxyTypeStatic
		params.ProductNo = req.ProductNo
		params.Region = req.Region
		params.CountryCode = req.CountryCode
		params.CityCode = req.CityCode
		params.StaticType = req.StaticType
		params.DurationDay = req.DurationDay
		params.Quantity = req.Quantity
	}
	return params
}

func validateRequest(req domain.CreateOrderRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("user_id is required: %w", domain.ErrValidation)
	}
	if !req.TotalAmount.IsPositive() {
		return fmt.Errorf("total_amount must be positive: %w", domain.ErrValidation)
	}

	switch req.Variant {
	case domain.OrderVariantDynamic:
		if req.PoolNo == "" {
			return fmt.Errorf("pool_no is required for dynamic orders: %w", domain.ErrValidation)
		}
		if req.TrafficMB <= 0 {
			return fmt.Errorf("traffic_mb must be positive for dynamic orders: %w", domain.ErrValidation)
		}
	case domain.OrderVariantStatic:
		if req.Region == "" || req.CountryCode == "" || req.CityCode == "" {
			return fmt.Errorf("region, country_code and city_code are required for static orders: %w", domain.ErrValidation)
		}
		if req.StaticType == "" {
			return fmt.Errorf("static_type is required for static orders: %w", domain.ErrValidation)
		}
		if req.DurationDay <= 0 || req.Quantity <= 0 {
			return fmt.Errorf("duration_day and quantity must be positive for static orders: %w", domain.ErrValidation)
		}
	default:
		return fmt.Errorf("unknown order variant %q: %w", req.Variant, domain.ErrValidation)
	}
	return nil
}

func (s *orderService) GetOrderInfo(ctx context.Context, appOrderNo string) (*OrderInfo, error) {
	order, err := s.orderRepo.GetByAppOrderNo(ctx, appOrderNo)
	if err != nil {
		return nil, err
	}
	instances, err := s.instanceRepo.ListByOrderNo(ctx, appOrderNo)
	if err != nil {
		return nil, err
	}
	return &OrderInfo{Order: order, Instances: instances}, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, appOrderNo string, status domain.OrderStatus, remark string) error {
	order, err := s.orderRepo.GetByAppOrderNo(ctx, appOrderNo)
	if err != nil {
		return err
	}
	if !domain.CanTransition(order.Variant, order.Status, status) {
		return fmt.Errorf("%s -> %s for %s order: %w", order.Status, status, order.Variant, domain.ErrInvalidTransition)
	}
	return s.orderRepo.UpdateStatus(ctx, order.ID, status, remark, nil)
}

func (s *orderService) ReleaseOrder(ctx context.Context, appOrderNo string) error {
	order, err := s.orderRepo.GetByAppOrderNo(ctx, appOrderNo)
	if err != nil {
		return err
	}
	if order.Status == domain.OrderStatusClosed {
		return nil
	}
	if !domain.CanTransition(order.Variant, order.Status, domain.OrderStatusClosed) {
		return fmt.Errorf("%s order in %s cannot be released: %w", order.Variant, order.Status, domain.ErrInvalidTransition)
	}

	if err := s.vendorClient.ReleaseInstance(ctx, domain.ReleaseInstanceParams{AppOrderNo: appOrderNo}); err != nil {
		return err
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, domain.OrderStatusClosed, "released", nil); err != nil {
		return err
	}
	if err := s.instanceRepo.UpdateStatusByOrderNo(ctx, appOrderNo, domain.InstanceStatusDisabled); err != nil {
		return err
	}

	s.logger.Info().Str("app_order_no", appOrderNo).Msg("Order released")
	return nil
}

func (s *orderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

func (s *orderService) DrawIPs(ctx context.Context, appOrderNo string, num int, protocol string) (*domain.DrawIPResult, error) {
	if num <= 0 {
		return nil, fmt.Errorf("num must be positive: %w", domain.ErrValidation)
	}

	order, err := s.orderRepo.GetByAppOrderNo(ctx, appOrderNo)
	if err != nil {
		return nil, err
	}
	if order.Variant != domain.OrderVariantDynamic {
		return nil, fmt.Errorf("only dynamic orders draw pool endpoints: %w", domain.ErrValidation)
	}
	if order.Status != domain.OrderStatusActive {
		return nil, fmt.Errorf("order is %s, drawing requires active: %w", order.Status, domain.ErrInvalidTransition)
	}

	result, err := s.vendorClient.DrawIPs(ctx, domain.DrawIPParams{
		AppOrderNo: appOrderNo,
		PoolNo:     order.PoolNo,
		Num:        num,
		Protocol:   protocol,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("app_order_no", appOrderNo).
		Int("requested", num).
		Int("drawn", len(result.IPs)).
		Msg("Drew pool endpoints")
	return result, nil
}
