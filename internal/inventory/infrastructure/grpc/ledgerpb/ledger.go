package ledgerpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	Ledger_CheckAvailability_FullMethodName = "/inventory.v1.Ledger/CheckAvailability"
	Ledger_Reserve_FullMethodName           = "/inventory.v1.Ledger/Reserve"
	Ledger_Release_FullMethodName           = "/inventory.v1.Ledger/Release"
)

type AvailabilityRequest struct {
	Sku      string `json:"sku"`
	Quantity int32  `json:"quantity"`
}

type AvailabilityResponse struct {
	Available bool `json:"available"`
}

type ReserveRequest struct {
	Sku      string `json:"sku"`
	Quantity int32  `json:"quantity"`
}

type ReserveResponse struct {
	Committed         bool  `json:"committed"`
	ResultingQuantity int32 `json:"resulting_quantity"`
}

type ReleaseRequest struct {
	Sku      string `json:"sku"`
	Quantity int32  `json:"quantity"`
}

type ReleaseResponse struct {
	Ack bool `json:"ack"`
}

type LedgerClient interface {
	CheckAvailability(ctx context.Context, in *AvailabilityRequest, opts ...grpc.CallOption) (*AvailabilityResponse, error)
	Reserve(ctx context.Context, in *ReserveRequest, opts ...grpc.CallOption) (*ReserveResponse, error)
	Release(ctx context.Context, in *ReleaseRequest, opts ...grpc.CallOption) (*ReleaseResponse, error)
}

type ledgerClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerClient(cc grpc.ClientConnInterface) LedgerClient {
	return &ledgerClient{cc: cc}
}

func (c *ledgerClient) CheckAvailability(ctx context.Context, in *AvailabilityRequest, opts ...grpc.CallOption) (*AvailabilityResponse, error) {
	out := new(AvailabilityResponse)
	if err := c.cc.Invoke(ctx, Ledger_CheckAvailability_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) Reserve(ctx context.Context, in *ReserveRequest, opts ...grpc.CallOption) (*ReserveResponse, error) {
	out := new(ReserveResponse)
	if err := c.cc.Invoke(ctx, Ledger_Reserve_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) Release(ctx context.Context, in *ReleaseRequest, opts ...grpc.CallOption) (*ReleaseResponse, error) {
	out := new(ReleaseResponse)
	if err := c.cc.Invoke(ctx, Ledger_Release_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

type LedgerServer interface {
	CheckAvailability(context.Context, *AvailabilityRequest) (*AvailabilityResponse, error)
	Reserve(context.Context, *ReserveRequest) (*ReserveResponse, error)
	Release(context.Context, *ReleaseRequest) (*ReleaseResponse, error)
}

// UnimplementedLedgerServer can be embedded to stay forward compatible.
type UnimplementedLedgerServer struct{}

func (UnimplementedLedgerServer) CheckAvailability(context.Context, *AvailabilityRequest) (*AvailabilityResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CheckAvailability not implemented")
}

func (UnimplementedLedgerServer) Reserve(context.Context, *ReserveRequest) (*ReserveResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Reserve not implemented")
}

func (UnimplementedLedgerServer) Release(context.Context, *ReleaseRequest) (*ReleaseResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Release not implemented")
}

func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&Ledger_ServiceDesc, srv)
}

func _Ledger_CheckAvailability_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AvailabilityRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).CheckAvailability(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Ledger_CheckAvailability_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).CheckAvailability(ctx, req.(*AvailabilityRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Ledger_Reserve_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ReserveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).Reserve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Ledger_Reserve_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).Reserve(ctx, req.(*ReserveRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Ledger_Release_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ReleaseRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).Release(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Ledger_Release_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).Release(ctx, req.(*ReleaseRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var Ledger_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "inventory.v1.Ledger",
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckAvailability", Handler: _Ledger_CheckAvailability_Handler},
		{MethodName: "Reserve", Handler: _Ledger_Reserve_Handler},
		{MethodName: "Release", Handler: _Ledger_Release_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/v1/ledger",
}
