package pricingv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName — полное имя gRPC сервиса.
const ServiceName = "pricing.v1.OrderPricingService"

// Полные имена методов.
const (
	MethodCreateDraftOrder     = "/" + ServiceName + "/CreateDraftOrder"
	MethodAddOrderLine         = "/" + ServiceName + "/AddOrderLine"
	MethodUpdateOrderLine      = "/" + ServiceName + "/UpdateOrderLine"
	MethodDeleteOrderLine      = "/" + ServiceName + "/DeleteOrderLine"
	MethodSetShipping          = "/" + ServiceName + "/SetShipping"
	MethodApplyVoucher         = "/" + ServiceName + "/ApplyVoucher"
	MethodRemoveVoucher        = "/" + ServiceName + "/RemoveVoucher"
	MethodAddManualDiscount    = "/" + ServiceName + "/AddManualDiscount"
	MethodRemoveManualDiscount = "/" + ServiceName + "/RemoveManualDiscount"
	MethodSetTaxExemption      = "/" + ServiceName + "/SetTaxExemption"
	MethodFetchOrderPrices     = "/" + ServiceName + "/FetchOrderPrices"
	MethodGetOrder             = "/" + ServiceName + "/GetOrder"
	MethodCompleteDraft        = "/" + ServiceName + "/CompleteDraft"
	MethodConfirmOrder         = "/" + ServiceName + "/ConfirmOrder"
	MethodCancelOrder          = "/" + ServiceName + "/CancelOrder"
	MethodUpsertVariantListing = "/" + ServiceName + "/UpsertVariantListing"
	MethodCreatePromotion      = "/" + ServiceName + "/CreatePromotion"
	MethodDeletePromotion      = "/" + ServiceName + "/DeletePromotion"
	MethodListPromotions       = "/" + ServiceName + "/ListPromotions"
	MethodCreateVoucher        = "/" + ServiceName + "/CreateVoucher"
	MethodSetTaxConfiguration  = "/" + ServiceName + "/SetTaxConfiguration"
)

// OrderPricingServiceServer — серверная часть API.
type OrderPricingServiceServer interface {
	CreateDraftOrder(context.Context, *CreateDraftOrderRequest) (*OrderResponse, error)
	AddOrderLine(context.Context, *AddOrderLineRequest) (*OrderResponse, error)
	UpdateOrderLine(context.Context, *UpdateOrderLineRequest) (*OrderResponse, error)
	DeleteOrderLine(context.Context, *DeleteOrderLineRequest) (*OrderResponse, error)
	SetShipping(context.Context, *SetShippingRequest) (*OrderResponse, error)
	ApplyVoucher(context.Context, *ApplyVoucherRequest) (*OrderResponse, error)
	RemoveVoucher(context.Context, *OrderRequest) (*OrderResponse, error)
	AddManualDiscount(context.Context, *AddManualDiscountRequest) (*OrderResponse, error)
	RemoveManualDiscount(context.Context, *RemoveManualDiscountRequest) (*OrderResponse, error)
	SetTaxExemption(context.Context, *SetTaxExemptionRequest) (*OrderResponse, error)
	FetchOrderPrices(context.Context, *FetchOrderPricesRequest) (*OrderResponse, error)
	GetOrder(context.Context, *OrderRequest) (*GetOrderResponse, error)
	CompleteDraft(context.Context, *OrderRequest) (*OrderResponse, error)
	ConfirmOrder(context.Context, *OrderRequest) (*OrderResponse, error)
	CancelOrder(context.Context, *OrderRequest) (*OrderResponse, error)
	UpsertVariantListing(context.Context, *UpsertVariantListingRequest) (*VariantListingResponse, error)
	CreatePromotion(context.Context, *CreatePromotionRequest) (*PromotionResponse, error)
	DeletePromotion(context.Context, *DeletePromotionRequest) (*Empty, error)
	ListPromotions(context.Context, *ListPromotionsRequest) (*ListPromotionsResponse, error)
	CreateVoucher(context.Context, *CreateVoucherRequest) (*VoucherResponse, error)
	SetTaxConfiguration(context.Context, *SetTaxConfigurationRequest) (*TaxConfigurationResponse, error)
}

// UnimplementedOrderPricingServiceServer отвечает codes.Unimplemented на все методы.
// Встраивается в реализации для совместимости при добавлении методов.
type UnimplementedOrderPricingServiceServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedOrderPricingServiceServer) CreateDraftOrder(context.Context, *CreateDraftOrderRequest) (*OrderResponse, error) {
	return nil, unimplemented("CreateDraftOrder")
}
func (UnimplementedOrderPricingServiceServer) AddOrderLine(context.Context, *AddOrderLineRequest) (*OrderResponse, error) {
	return nil, unimplemented("AddOrderLine")
}
func (UnimplementedOrderPricingServiceServer) UpdateOrderLine(context.Context, *UpdateOrderLineRequest) (*OrderResponse, error) {
	return nil, unimplemented("UpdateOrderLine")
}
func (UnimplementedOrderPricingServiceServer) DeleteOrderLine(context.Context, *DeleteOrderLineRequest) (*OrderResponse, error) {
	return nil, unimplemented("DeleteOrderLine")
}
func (UnimplementedOrderPricingServiceServer) SetShipping(context.Context, *SetShippingRequest) (*OrderResponse, error) {
	return nil, unimplemented("SetShipping")
}
func (UnimplementedOrderPricingServiceServer) ApplyVoucher(context.Context, *ApplyVoucherRequest) (*OrderResponse, error) {
	return nil, unimplemented("ApplyVoucher")
}
func (UnimplementedOrderPricingServiceServer) RemoveVoucher(context.Context, *OrderRequest) (*OrderResponse, error) {
	return nil, unimplemented("RemoveVoucher")
}
func (UnimplementedOrderPricingServiceServer) AddManualDiscount(context.Context, *AddManualDiscountRequest) (*OrderResponse, error) {
	return nil, unimplemented("AddManualDiscount")
}
func (UnimplementedOrderPricingServiceServer) RemoveManualDiscount(context.Context, *RemoveManualDiscountRequest) (*OrderResponse, error) {
	return nil, unimplemented("RemoveManualDiscount")
}
func (UnimplementedOrderPricingServiceServer) SetTaxExemption(context.Context, *SetTaxExemptionRequest) (*OrderResponse, error) {
	return nil, unimplemented("SetTaxExemption")
}
func (UnimplementedOrderPricingServiceServer) FetchOrderPrices(context.Context, *FetchOrderPricesRequest) (*OrderResponse, error) {
	return nil, unimplemented("FetchOrderPrices")
}
func (UnimplementedOrderPricingServiceServer) GetOrder(context.Context, *OrderRequest) (*GetOrderResponse, error) {
	return nil, unimplemented("GetOrder")
}
func (UnimplementedOrderPricingServiceServer) CompleteDraft(context.Context, *OrderRequest) (*OrderResponse, error) {
	return nil, unimplemented("CompleteDraft")
}
func (UnimplementedOrderPricingServiceServer) ConfirmOrder(context.Context, *OrderRequest) (*OrderResponse, error) {
	return nil, unimplemented("ConfirmOrder")
}
func (UnimplementedOrderPricingServiceServer) CancelOrder(context.Context, *OrderRequest) (*OrderResponse, error) {
	return nil, unimplemented("CancelOrder")
}
func (UnimplementedOrderPricingServiceServer) UpsertVariantListing(context.Context, *UpsertVariantListingRequest) (*VariantListingResponse, error) {
	return nil, unimplemented("UpsertVariantListing")
}
func (UnimplementedOrderPricingServiceServer) CreatePromotion(context.Context, *CreatePromotionRequest) (*PromotionResponse, error) {
	return nil, unimplemented("CreatePromotion")
}
func (UnimplementedOrderPricingServiceServer) DeletePromotion(context.Context, *DeletePromotionRequest) (*Empty, error) {
	return nil, unimplemented("DeletePromotion")
}
func (UnimplementedOrderPricingServiceServer) ListPromotions(context.Context, *ListPromotionsRequest) (*ListPromotionsResponse, error) {
	return nil, unimplemented("ListPromotions")
}
func (UnimplementedOrderPricingServiceServer) CreateVoucher(context.Context, *CreateVoucherRequest) (*VoucherResponse, error) {
	return nil, unimplemented("CreateVoucher")
}
func (UnimplementedOrderPricingServiceServer) SetTaxConfiguration(context.Context, *SetTaxConfigurationRequest) (*TaxConfigurationResponse, error) {
	return nil, unimplemented("SetTaxConfiguration")
}

// unaryHandler строит grpc.MethodHandler: декодирует запрос и прогоняет вызов через interceptor.
func unaryHandler[Req any, Resp any](fullMethod string, call func(OrderPricingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(OrderPricingServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// OrderPricingService_ServiceDesc — описание сервиса для grpc.Server.
var OrderPricingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderPricingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateDraftOrder", Handler: unaryHandler(MethodCreateDraftOrder, OrderPricingServiceServer.CreateDraftOrder)},
		{MethodName: "AddOrderLine", Handler: unaryHandler(MethodAddOrderLine, OrderPricingServiceServer.AddOrderLine)},
		{MethodName: "UpdateOrderLine", Handler: unaryHandler(MethodUpdateOrderLine, OrderPricingServiceServer.UpdateOrderLine)},
		{MethodName: "DeleteOrderLine", Handler: unaryHandler(MethodDeleteOrderLine, OrderPricingServiceServer.DeleteOrderLine)},
		{MethodName: "SetShipping", Handler: unaryHandler(MethodSetShipping, OrderPricingServiceServer.SetShipping)},
		{MethodName: "ApplyVoucher", Handler: unaryHandler(MethodApplyVoucher, OrderPricingServiceServer.ApplyVoucher)},
		{MethodName: "RemoveVoucher", Handler: unaryHandler(MethodRemoveVoucher, OrderPricingServiceServer.RemoveVoucher)},
		{MethodName: "AddManualDiscount", Handler: unaryHandler(MethodAddManualDiscount, OrderPricingServiceServer.AddManualDiscount)},
		{MethodName: "RemoveManualDiscount", Handler: unaryHandler(MethodRemoveManualDiscount, OrderPricingServiceServer.RemoveManualDiscount)},
		{MethodName: "SetTaxExemption", Handler: unaryHandler(MethodSetTaxExemption, OrderPricingServiceServer.SetTaxExemption)},
		{MethodName: "FetchOrderPrices", Handler: unaryHandler(MethodFetchOrderPrices, OrderPricingServiceServer.FetchOrderPrices)},
		{MethodName: "GetOrder", Handler: unaryHandler(MethodGetOrder, OrderPricingServiceServer.GetOrder)},
		{MethodName: "CompleteDraft", Handler: unaryHandler(MethodCompleteDraft, OrderPricingServiceServer.CompleteDraft)},
		{MethodName: "ConfirmOrder", Handler: unaryHandler(MethodConfirmOrder, OrderPricingServiceServer.ConfirmOrder)},
		{MethodName: "CancelOrder", Handler: unaryHandler(MethodCancelOrder, OrderPricingServiceServer.CancelOrder)},
		{MethodName: "UpsertVariantListing", Handler: unaryHandler(MethodUpsertVariantListing, OrderPricingServiceServer.UpsertVariantListing)},
		{MethodName: "CreatePromotion", Handler: unaryHandler(MethodCreatePromotion, OrderPricingServiceServer.CreatePromotion)},
		{MethodName: "DeletePromotion", Handler: unaryHandler(MethodDeletePromotion, OrderPricingServiceServer.DeletePromotion)},
		{MethodName: "ListPromotions", Handler: unaryHandler(MethodListPromotions, OrderPricingServiceServer.ListPromotions)},
		{MethodName: "CreateVoucher", Handler: unaryHandler(MethodCreateVoucher, OrderPricingServiceServer.CreateVoucher)},
		{MethodName: "SetTaxConfiguration", Handler: unaryHandler(MethodSetTaxConfiguration, OrderPricingServiceServer.SetTaxConfiguration)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pricing/v1/order_pricing.json",
}

// RegisterOrderPricingServiceServer регистрирует реализацию на сервере.
func RegisterOrderPricingServiceServer(s grpc.ServiceRegistrar, srv OrderPricingServiceServer) {
	s.RegisterService(&OrderPricingService_ServiceDesc, srv)
}

// OrderPricingServiceClient — клиентская часть API.
type OrderPricingServiceClient interface {
	CreateDraftOrder(ctx context.Context, in *CreateDraftOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	AddOrderLine(ctx context.Context, in *AddOrderLineRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	UpdateOrderLine(ctx context.Context, in *UpdateOrderLineRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	DeleteOrderLine(ctx context.Context, in *DeleteOrderLineRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	SetShipping(ctx context.Context, in *SetShippingRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	ApplyVoucher(ctx context.Context, in *ApplyVoucherRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	RemoveVoucher(ctx context.Context, in *OrderRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	AddManualDiscount(ctx context.Context, in *AddManualDiscountRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	RemoveManualDiscount(ctx context.Context, in *RemoveManualDiscountRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	SetTaxExemption(ctx context.Context, in *SetTaxExemptionRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	FetchOrderPrices(ctx context.Context, in *FetchOrderPricesRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	GetOrder(ctx context.Context, in *OrderRequest, opts ...grpc.CallOption) (*GetOrderResponse, error)
	CompleteDraft(ctx context.Context, in *OrderRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	ConfirmOrder(ctx context.Context, in *OrderRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	CancelOrder(ctx context.Context, in *OrderRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	UpsertVariantListing(ctx context.Context, in *UpsertVariantListingRequest, opts ...grpc.CallOption) (*VariantListingResponse, error)
	CreatePromotion(ctx context.Context, in *CreatePromotionRequest, opts ...grpc.CallOption) (*PromotionResponse, error)
	DeletePromotion(ctx context.Context, in *DeletePromotionRequest, opts ...grpc.CallOption) (*Empty, error)
	ListPromotions(ctx context.Context, in *ListPromotionsRequest, opts ...grpc.CallOption) (*ListPromotionsResponse, error)
	CreateVoucher(ctx context.Context, in *CreateVoucherRequest, opts ...grpc.CallOption) (*VoucherResponse, error)
	SetTaxConfiguration(ctx context.Context, in *SetTaxConfigurationRequest, opts ...grpc.CallOption) (*TaxConfigurationResponse, error)
}

type orderPricingServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewOrderPricingServiceClient создаёт клиента; JSON codec подставляется во все вызовы.
func NewOrderPricingServiceClient(cc grpc.ClientConnInterface) OrderPricingServiceClient {
	return &orderPricingServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderPricingServiceClient) CreateDraftOrder(ctx context.Context, in *CreateDraftOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodCreateDraftOrder, in, opts)
}

func (c *orderPricingServiceClient) AddOrderLine(ctx context.Context, in *AddOrderLineRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodAddOrderLine, in, opts)
}

func (c *orderPricingServiceClient) UpdateOrderLine(ctx context.Context, in *UpdateOrderLineRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodUpdateOrderLine, in, opts)
}

func (c *orderPricingServiceClient) DeleteOrderLine(ctx context.Context, in *DeleteOrderLineRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodDeleteOrderLine, in, opts)
}

func (c *orderPricingServiceClient) SetShipping(ctx context.Context, in *SetShippingRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodSetShipping, in, opts)
}

func (c *orderPricingServiceClient) ApplyVoucher(ctx context.Context, in *ApplyVoucherRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodApplyVoucher, in, opts)
}

func (c *orderPricingServiceClient) RemoveVoucher(ctx context.Context, in *OrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodRemoveVoucher, in, opts)
}

func (c *orderPricingServiceClient) AddManualDiscount(ctx context.Context, in *AddManualDiscountRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodAddManualDiscount, in, opts)
}

func (c *orderPricingServiceClient) RemoveManualDiscount(ctx context.Context, in *RemoveManualDiscountRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodRemoveManualDiscount, in, opts)
}

func (c *orderPricingServiceClient) SetTaxExemption(ctx context.Context, in *SetTaxExemptionRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodSetTaxExemption, in, opts)
}

func (c *orderPricingServiceClient) FetchOrderPrices(ctx context.Context, in *FetchOrderPricesRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodFetchOrderPrices, in, opts)
}

func (c *orderPricingServiceClient) GetOrder(ctx context.Context, in *OrderRequest, opts ...grpc.CallOption) (*GetOrderResponse, error) {
	return invoke[GetOrderResponse](ctx, c.cc, MethodGetOrder, in, opts)
}

func (c *orderPricingServiceClient) CompleteDraft(ctx context.Context, in *OrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodCompleteDraft, in, opts)
}

func (c *orderPricingServiceClient) ConfirmOrder(ctx context.Context, in *OrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodConfirmOrder, in, opts)
}

func (c *orderPricingServiceClient) CancelOrder(ctx context.Context, in *OrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, MethodCancelOrder, in, opts)
}

func (c *orderPricingServiceClient) UpsertVariantListing(ctx context.Context, in *UpsertVariantListingRequest, opts ...grpc.CallOption) (*VariantListingResponse, error) {
	return invoke[VariantListingResponse](ctx, c.cc, MethodUpsertVariantListing, in, opts)
}

func (c *orderPricingServiceClient) CreatePromotion(ctx context.Context, in *CreatePromotionRequest, opts ...grpc.CallOption) (*PromotionResponse, error) {
	return invoke[PromotionResponse](ctx, c.cc, MethodCreatePromotion, in, opts)
}

func (c *orderPricingServiceClient) DeletePromotion(ctx context.Context, in *DeletePromotionRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodDeletePromotion, in, opts)
}

func (c *orderPricingServiceClient) ListPromotions(ctx context.Context, in *ListPromotionsRequest, opts ...grpc.CallOption) (*ListPromotionsResponse, error) {
	return invoke[ListPromotionsResponse](ctx, c.cc, MethodListPromotions, in, opts)
}

func (c *orderPricingServiceClient) CreateVoucher(ctx context.Context, in *CreateVoucherRequest, opts ...grpc.CallOption) (*VoucherResponse, error) {
	return invoke[VoucherResponse](ctx, c.cc, MethodCreateVoucher, in, opts)
}

func (c *orderPricingServiceClient) SetTaxConfiguration(ctx context.Context, in *SetTaxConfigurationRequest, opts ...grpc.CallOption) (*TaxConfigurationResponse, error) {
	return invoke[TaxConfigurationResponse](ctx, c.cc, MethodSetTaxConfiguration, in, opts)
}
