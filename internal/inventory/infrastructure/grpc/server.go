package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/application"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
	pb "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/infrastructure/grpc/ledgerpb"
)

type Server struct {
	pb.UnimplementedLedgerServer
	log *slog.Logger
	svc *application.Service
}

func NewServer(log *slog.Logger, svc *application.Service) *Server {
	return &Server{log: log, svc: svc}
}

func (s *Server) CheckAvailability(ctx context.Context, req *pb.AvailabilityRequest) (*pb.AvailabilityResponse, error) {
	ok, err := s.svc.CheckAvailable(ctx, req.Sku, int(req.Quantity))
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &pb.AvailabilityResponse{Available: ok}, nil
}

func (s *Server) Reserve(ctx context.Context, req *pb.ReserveRequest) (*pb.ReserveResponse, error) {
	res, err := s.svc.Reserve(ctx, req.Sku, int(req.Quantity))
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &pb.ReserveResponse{Committed: res.Committed, ResultingQuantity: int32(res.ResultingQuantity)}, nil
}

func (s *Server) Release(ctx context.Context, req *pb.ReleaseRequest) (*pb.ReleaseResponse, error) {
	if err := s.svc.Release(ctx, req.Sku, int(req.Quantity)); err != nil {
		return nil, s.toStatus(err)
	}
	return &pb.ReleaseResponse{Ack: true}, nil
}

func (s *Server) toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrInvalidSKU):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.log.Error("ledger call failed", "err", err)
		return status.Error(codes.Unavailable, "ledger unavailable")
	}
}

// Register attaches the ledger service to gs.
func Register(gs *grpc.Server, srv *Server) {
	pb.RegisterLedgerServer(gs, srv)
}

func Run(addr string, srv *Server) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	gs := grpc.NewServer()
	Register(gs, srv)
	go func() {
		if err := gs.Serve(lis); err != nil {
			srv.log.Error("grpc serve stopped", "err", err)
		}
	}()
	return gs, nil
}
