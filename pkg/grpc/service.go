package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "pickupshop.ReservationService"

// ReservationServiceServer is the server API for ReservationService.
type ReservationServiceServer interface {
	Checkout(context.Context, *CheckoutRequest) (*OrderReply, error)
	Cancel(context.Context, *CancelRequest) (*OrderReply, error)
	SetStatus(context.Context, *SetStatusRequest) (*OrderReply, error)
	GetOrder(context.Context, *GetOrderRequest) (*OrderReply, error)
	ListOrders(context.Context, *ListOrdersRequest) (*OrdersReply, error)
	FindByCustomer(context.Context, *FindByCustomerRequest) (*OrdersReply, error)
	ListExpired(context.Context, *ListExpiredRequest) (*OrdersReply, error)
	ListProducts(context.Context, *ListProductsRequest) (*ProductsReply, error)
}

func RegisterReservationServiceServer(s grpc.ServiceRegistrar, srv ReservationServiceServer) {
	s.RegisterService(&ReservationService_ServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + serviceName + "/" + name
}

func unaryHandler[Req any, Resp any](name string, call func(ReservationServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ReservationServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(name),
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ReservationServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ReservationService_ServiceDesc is written by hand; messages travel as JSON.
var ReservationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ReservationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Checkout", Handler: unaryHandler("Checkout", ReservationServiceServer.Checkout)},
		{MethodName: "Cancel", Handler: unaryHandler("Cancel", ReservationServiceServer.Cancel)},
		{MethodName: "SetStatus", Handler: unaryHandler("SetStatus", ReservationServiceServer.SetStatus)},
		{MethodName: "GetOrder", Handler: unaryHandler("GetOrder", ReservationServiceServer.GetOrder)},
		{MethodName: "ListOrders", Handler: unaryHandler("ListOrders", ReservationServiceServer.ListOrders)},
		{MethodName: "FindByCustomer", Handler: unaryHandler("FindByCustomer", ReservationServiceServer.FindByCustomer)},
		{MethodName: "ListExpired", Handler: unaryHandler("ListExpired", ReservationServiceServer.ListExpired)},
		{MethodName: "ListProducts", Handler: unaryHandler("ListProducts", ReservationServiceServer.ListProducts)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pickupshop/reservation",
}
