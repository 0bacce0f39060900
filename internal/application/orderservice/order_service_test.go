package orderservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
	"github.com/minzf581/IPProxy-sub000/pkg/config"
)

// fakeLedger tracks one balance and the entries appended to it.
type fakeLedger struct {
	balance decimal.Decimal
	entries []*domain.LedgerEntry
}

func (l *fakeLedger) Charge(ctx context.Context, userID, agentID, orderNo string, amount decimal.Decimal) (*domain.LedgerEntry, error) {
	if l.balance.LessThan(amount) {
		return nil, fmt.Errorf("balance too low: %w", domain.ErrInsufficientBalance)
	}
	l.balance = l.balance.Sub(amount)
	entry := &domain.LedgerEntry{
		TxnNo:   fmt.Sprintf("T%d", len(l.entries)+1),
		UserID:  userID,
		AgentID: agentID,
		OrderNo: orderNo,
		Amount:  amount,
		Balance: l.balance,
		Type:    domain.LedgerEntryTypeConsume,
	}
	l.entries = append(l.entries, entry)
	return entry, nil
}

func (l *fakeLedger) Refund(ctx context.Context, userID, agentID, orderNo string, amount decimal.Decimal, remark string) (*domain.LedgerEntry, error) {
	l.balance = l.balance.Add(amount)
	entry := &domain.LedgerEntry{
		TxnNo:   fmt.Sprintf("T%d", len(l.entries)+1),
		UserID:  userID,
		AgentID: agentID,
		OrderNo: orderNo,
		Amount:  amount,
		Balance: l.balance,
		Type:    domain.LedgerEntryTypeRefund,
		Remark:  remark,
	}
	l.entries = append(l.entries, entry)
	return entry, nil
}

func (l *fakeLedger) ListByOrderNo(ctx context.Context, orderNo string) ([]*domain.LedgerEntry, error) {
	var out []*domain.LedgerEntry
	for _, e := range l.entries {
		if e.OrderNo == orderNo {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAccountRepo struct {
	accounts map[string]*domain.Account // by id
}

func newFakeAccountRepo(accounts ...*domain.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		r.accounts[a.ID] = a
	}
	return r
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if a, ok := r.accounts[id]; ok {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *fakeAccountRepo) GetParentAgent(ctx context.Context, id string) (*domain.Account, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ParentAgentID == nil {
		return nil, nil
	}
	return r.GetByID(ctx, *a.ParentAgentID)
}

type fakeVendor struct {
	openErr    error
	releaseErr error
	openCalls  int
	lastOpen   domain.OpenInstanceParams
	lastDraw   domain.DrawIPParams
}

func (v *fakeVendor) OpenInstance(ctx context.Context, params domain.OpenInstanceParams) (*domain.OpenInstanceResult, error) {
	v.openCalls++
	v.lastOpen = params
	if v.openErr != nil {
		return nil, v.openErr
	}
	return &domain.OpenInstanceResult{VendorOrderNo: "V-" + params.AppOrderNo, AppOrderNo: params.AppOrderNo}, nil
}

func (v *fakeVendor) ReleaseInstance(ctx context.Context, params domain.ReleaseInstanceParams) error {
	return v.releaseErr
}

func (v *fakeVendor) DrawIPs(ctx context.Context, params domain.DrawIPParams) (*domain.DrawIPResult, error) {
	v.lastDraw = params
	ips := make([]string, params.Num)
	for i := range ips {
		ips[i] = fmt.Sprintf("10.0.0.%d:4600", i+1)
	}
	return &domain.DrawIPResult{IPs: ips}, nil
}

func (v *fakeVendor) QueryProductStock(ctx context.Context, params domain.StockQueryParams) (*domain.StockResult, error) {
	return &domain.StockResult{Empty: true}, nil
}

type fakeOrderRepo struct {
	orders map[string]*domain.Order // by id
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if o, ok := r.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (r *fakeOrderRepo) GetByAppOrderNo(ctx context.Context, appOrderNo string) (*domain.Order, error) {
	for _, o := range r.orders {
		if o.AppOrderNo == appOrderNo {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, remark string, payload json.RawMessage) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	if remark != "" {
		o.Remark = remark
	}
	if payload != nil {
		o.VendorPayload = payload
	}
	return nil
}

func (r *fakeOrderRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeInstanceRepo struct {
	instances map[string]*domain.Instance // by instance no
}

func newFakeInstanceRepo() *fakeInstanceRepo {
	return &fakeInstanceRepo{instances: make(map[string]*domain.Instance)}
}

func (r *fakeInstanceRepo) UpsertByInstanceNo(ctx context.Context, instance *domain.Instance) error {
	cp := *instance
	if old, ok := r.instances[instance.InstanceNo]; ok {
		cp.ID = old.ID
	}
	r.instances[instance.InstanceNo] = &cp
	return nil
}

func (r *fakeInstanceRepo) ListByOrderNo(ctx context.Context, appOrderNo string) ([]*domain.Instance, error) {
	var out []*domain.Instance
	for _, i := range r.instances {
		if i.AppOrderNo == appOrderNo {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *fakeInstanceRepo) UpdateStatusByOrderNo(ctx context.Context, appOrderNo string, status domain.InstanceStatus) error {
	for _, i := range r.instances {
		if i.AppOrderNo == appOrderNo {
			i.Status = status
		}
	}
	return nil
}

func newTestService(ledger *fakeLedger, vendorCli *fakeVendor, orders *fakeOrderRepo, instances *fakeInstanceRepo) IOrderService {
	agentID := "agent-1"
	accounts := newFakeAccountRepo(
		&domain.Account{ID: "agent-1", Username: "agent-1", Role: domain.AccountRoleAgent},
		&domain.Account{ID: "user-1", Username: "user-1", Role: domain.AccountRoleUser, ParentAgentID: &agentID},
	)
	return New(orders, instances, accounts, ledger, vendorCli,
		config.VendorConfig{CallbackBaseURL: "https://proxy.example.com"}, zerolog.Nop())
}

func dynamicRequest(total int64) domain.CreateOrderRequest {
	return domain.CreateOrderRequest{
		UserID:      "user-1",
		AgentID:     "agent-1",
		Variant:     domain.OrderVariantDynamic,
		PoolNo:      "pool-1",
		TrafficMB:   1024,
		UnitPrice:   decimal.NewFromInt(total),
		TotalAmount: decimal.NewFromInt(total),
	}
}

func staticRequest(total int64) domain.CreateOrderRequest {
	return domain.CreateOrderRequest{
		UserID:      "user-1",
		AgentID:     "agent-1",
		Variant:     domain.OrderVariantStatic,
		ProductNo:   "P-1",
		Region:      "EU",
		CountryCode: "DE",
		CityCode:    "BER",
		StaticType:  "residential",
		DurationDay: 30,
		Quantity:    2,
		UnitPrice:   decimal.NewFromInt(total),
		TotalAmount: decimal.NewFromInt(total),
	}
}

func TestCreateOrderChargesAndPersistsPending(t *testing.T) {
	// Scenario: balance 1000, order cost 100.
	ledger := &fakeLedger{balance: decimal.NewFromInt(1000)}
	vendorCli := &fakeVendor{}
	orders := newFakeOrderRepo()

	svc := newTestService(ledger, vendorCli, orders, newFakeInstanceRepo())
	order, err := svc.CreateOrder(context.Background(), dynamicRequest(100))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if !ledger.balance.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("balance = %s, want 900", ledger.balance)
	}
	if len(ledger.entries) != 1 {
		t.Fatalf("got %d ledger entries, want 1", len(ledger.entries))
	}
	e := ledger.entries[0]
	if e.Type != domain.LedgerEntryTypeConsume || !e.Amount.Equal(decimal.NewFromInt(100)) || !e.Balance.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("consume entry wrong: %+v", e)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("order status = %s, want pending", order.Status)
	}
	if order.VendorOrderNo == "" || order.AppOrderNo == "" {
		t.Fatalf("order numbers missing: %+v", order)
	}
	if _, err := orders.GetByAppOrderNo(context.Background(), order.AppOrderNo); err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
}

func TestCreateOrderRefundsOnVendorFailure(t *testing.T) {
	// Scenario: vendor fails after the charge; the compensation refund must
	// land before the caller sees the error and no order may be persisted.
	ledger := &fakeLedger{balance: decimal.NewFromInt(1000)}
	vendorCli := &fakeVendor{openErr: fmt.Errorf("timeout: %w", domain.ErrVendorUnavailable)}
	orders := newFakeOrderRepo()

	svc := newTestService(ledger, vendorCli, orders, newFakeInstanceRepo())
	_, err := svc.CreateOrder(context.Background(), dynamicRequest(100))
	if !errors.Is(err, domain.ErrVendorUnavailable) {
		t.Fatalf("got %v, want ErrVendorUnavailable", err)
	}

	if !ledger.balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("balance = %s, want 1000 restored", ledger.balance)
	}
	if len(ledger.entries) != 2 {
		t.Fatalf("got %d ledger entries, want consume+refund", len(ledger.entries))
	}
	if ledger.entries[0].Type != domain.LedgerEntryTypeConsume || ledger.entries[1].Type != domain.LedgerEntryTypeRefund {
		t.Fatalf("entry types = %s, %s", ledger.entries[0].Type, ledger.entries[1].Type)
	}
	if !ledger.entries[1].Amount.Equal(ledger.entries[0].Amount) {
		t.Fatal("refund amount differs from charge amount")
	}
	if ledger.entries[1].OrderNo != ledger.entries[0].OrderNo {
		t.Fatal("refund order number differs from charge order number")
	}
	if ledger.entries[1].Remark != "order creation failed" {
		t.Fatalf("refund remark = %q", ledger.entries[1].Remark)
	}
	if len(orders.orders) != 0 {
		t.Fatalf("order persisted despite vendor failure")
	}
}

func TestCreateOrderInsufficientBalance(t *testing.T) {
	ledger := &fakeLedger{balance: decimal.NewFromInt(50)}
	vendorCli := &fakeVendor{}
	orders := newFakeOrderRepo()

	svc := newTestService(ledger, vendorCli, orders, newFakeInstanceRepo())
	_, err := svc.CreateOrder(context.Background(), dynamicRequest(100))
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}
	if vendorCli.openCalls != 0 {
		t.Fatal("vendor called despite failed charge")
	}
	if len(ledger.entries) != 0 {
		t.Fatal("ledger entry appended despite failed charge")
	}
}

func TestCreateOrderUnknownAccount(t *testing.T) {
	ledger := &fakeLedger{balance: decimal.NewFromInt(1000)}
	vendorCli := &fakeVendor{}
	svc := newTestService(ledger, vendorCli, newFakeOrderRepo(), newFakeInstanceRepo())

	req := dynamicRequest(100)
	req.UserID = "ghost"
	_, err := svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("got %v, want ErrAccountNotFound", err)
	}
	if len(ledger.entries) != 0 || vendorCli.openCalls != 0 {
		t.Fatal("unknown account must be rejected before charging or calling the vendor")
	}
}

func TestCreateOrderResolvesAgentFromParent(t *testing.T) {
	ledger := &fakeLedger{balance: decimal.NewFromInt(1000)}
	svc := newTestService(ledger, &fakeVendor{}, newFakeOrderRepo(), newFakeInstanceRepo())

	req := dynamicRequest(100)
	req.AgentID = ""
	order, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.AgentID != "agent-1" {
		t.Fatalf("agent = %q, want parent agent agent-1", order.AgentID)
	}
	if ledger.entries[0].AgentID != "agent-1" {
		t.Fatalf("ledger agent = %q, want agent-1", ledger.entries[0].AgentID)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc := newTestService(&fakeLedger{balance: decimal.NewFromInt(1000)}, &fakeVendor{}, newFakeOrderRepo(), newFakeInstanceRepo())

	cases := []struct {
		name   string
		mutate func(*domain.CreateOrderRequest)
	}{
		{"missing user", func(r *domain.CreateOrderRequest) { r.UserID = "" }},
		{"missing pool for dynamic", func(r *domain.CreateOrderRequest) { r.PoolNo = "" }},
		{"zero traffic for dynamic", func(r *domain.CreateOrderRequest) { r.TrafficMB = 0 }},
		{"zero amount", func(r *domain.CreateOrderRequest) { r.TotalAmount = decimal.Zero }},
		{"bad variant", func(r *domain.CreateOrderRequest) { r.Variant = "weekly" }},
	}

	for _, tc := range cases {
		req := dynamicRequest(100)
		tc.mutate(&req)
		if _, err := svc.CreateOrder(context.Background(), req); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: got %v, want ErrValidation", tc.name, err)
		}
	}

	staticCases := []struct {
		name   string
		mutate func(*domain.CreateOrderRequest)
	}{
		{"missing geography", func(r *domain.CreateOrderRequest) { r.CountryCode = "" }},
		{"missing static type", func(r *domain.CreateOrderRequest) { r.StaticType = "" }},
		{"zero duration", func(r *domain.CreateOrderRequest) { r.DurationDay = 0 }},
		{"zero quantity", func(r *domain.CreateOrderRequest) { r.Quantity = 0 }},
	}
	for _, tc := range staticCases {
		req := staticRequest(100)
		tc.mutate(&req)
		if _, err := svc.CreateOrder(context.Background(), req); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: got %v, want ErrValidation", tc.name, err)
		}
	}
}

func TestCreateStaticOrderStartsProcessing(t *testing.T) {
	vendorCli := &fakeVendor{}
	svc := newTestService(&fakeLedger{balance: decimal.NewFromInt(1000)}, vendorCli, newFakeOrderRepo(), newFakeInstanceRepo())

	order, err := svc.CreateOrder(context.Background(), staticRequest(200))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Status != domain.OrderStatusProcessing {
		t.Fatalf("static order status = %s, want processing", order.Status)
	}
	if vendorCli.lastOpen.Quantity != 2 || vendorCli.lastOpen.CountryCode != "DE" {
		t.Fatalf("open params wrong: %+v", vendorCli.lastOpen)
	}
	if vendorCli.lastOpen.CallbackURL == "" {
		t.Fatal("callback URL missing from open params")
	}
}

func TestUpdateOrderStatusRejectsInvalidTransition(t *testing.T) {
	orders := newFakeOrderRepo()
	svc := newTestService(&fakeLedger{balance: decimal.NewFromInt(1000)}, &fakeVendor{}, orders, newFakeInstanceRepo())

	order, err := svc.CreateOrder(context.Background(), dynamicRequest(100))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	// pending -> success is a static-only status.
	err = svc.UpdateOrderStatus(context.Background(), order.AppOrderNo, domain.OrderStatusSuccess, "")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}

	if err := svc.UpdateOrderStatus(context.Background(), order.AppOrderNo, domain.OrderStatusActive, "activated"); err != nil {
		t.Fatalf("pending -> active: %v", err)
	}
}

func TestReleaseOrderClosesAndDisablesInstances(t *testing.T) {
	orders := newFakeOrderRepo()
	instances := newFakeInstanceRepo()
	svc := newTestService(&fakeLedger{balance: decimal.NewFromInt(1000)}, &fakeVendor{}, orders, instances)

	order, err := svc.CreateOrder(context.Background(), staticRequest(200))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	_ = instances.UpsertByInstanceNo(context.Background(), &domain.Instance{
		InstanceNo: "I-1", AppOrderNo: order.AppOrderNo, Status: domain.InstanceStatusEnabled,
	})

	if err := svc.ReleaseOrder(context.Background(), order.AppOrderNo); err != nil {
		t.Fatalf("ReleaseOrder: %v", err)
	}

	got, _ := orders.GetByAppOrderNo(context.Background(), order.AppOrderNo)
	if got.Status != domain.OrderStatusClosed {
		t.Fatalf("order status = %s, want closed", got.Status)
	}
	list, _ := instances.ListByOrderNo(context.Background(), order.AppOrderNo)
	if len(list) != 1 || list[0].Status != domain.InstanceStatusDisabled {
		t.Fatalf("instances not disabled: %+v", list)
	}

	// Releasing again is a no-op.
	if err := svc.ReleaseOrder(context.Background(), order.AppOrderNo); err != nil {
		t.Fatalf("second release: %v", err)
	}
}

func TestDrawIPsRequiresActiveDynamicOrder(t *testing.T) {
	orders := newFakeOrderRepo()
	vendorCli := &fakeVendor{}
	svc := newTestService(&fakeLedger{balance: decimal.NewFromInt(1000)}, vendorCli, orders, newFakeInstanceRepo())

	order, err := svc.CreateOrder(context.Background(), dynamicRequest(100))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	// Still pending: nothing to draw from yet.
	if _, err := svc.DrawIPs(context.Background(), order.AppOrderNo, 3, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("draw on pending order: got %v, want ErrInvalidTransition", err)
	}

	if err := svc.UpdateOrderStatus(context.Background(), order.AppOrderNo, domain.OrderStatusActive, ""); err != nil {
		t.Fatalf("activate: %v", err)
	}

	result, err := svc.DrawIPs(context.Background(), order.AppOrderNo, 3, "socks5")
	if err != nil {
		t.Fatalf("DrawIPs: %v", err)
	}
	if len(result.IPs) != 3 {
		t.Fatalf("got %d endpoints, want 3", len(result.IPs))
	}
	if vendorCli.lastDraw.PoolNo != "pool-1" || vendorCli.lastDraw.Protocol != "socks5" {
		t.Fatalf("draw params wrong: %+v", vendorCli.lastDraw)
	}

	if _, err := svc.DrawIPs(context.Background(), order.AppOrderNo, 0, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("zero num: got %v, want ErrValidation", err)
	}

	static, err := svc.CreateOrder(context.Background(), staticRequest(200))
	if err != nil {
		t.Fatalf("CreateOrder static: %v", err)
	}
	if _, err := svc.DrawIPs(context.Background(), static.AppOrderNo, 1, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("draw on static order: got %v, want ErrValidation", err)
	}
}

func TestGetOrderInfoUnknownOrder(t *testing.T) {
	svc := newTestService(&fakeLedger{balance: decimal.Zero}, &fakeVendor{}, newFakeOrderRepo(), newFakeInstanceRepo())
	_, err := svc.GetOrderInfo(context.Background(), "no-such-order")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("got %v, want ErrOrderNotFound", err)
	}
}
