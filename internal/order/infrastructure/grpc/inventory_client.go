package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	invdomain "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
	pb "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/infrastructure/grpc/ledgerpb"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/resilience"
)

// InventoryClient is the raw ledger RPC client. It makes exactly one call per
// method; retries and the breaker live in the gateway that wraps it.
type InventoryClient struct {
	log  *slog.Logger
	conn *grpc.ClientConn
	cc   pb.LedgerClient
}

func NewInventoryClient(log *slog.Logger, addr string, opts ...grpc.DialOption) (*InventoryClient, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &InventoryClient{
		log:  log,
		conn: conn,
		cc:   pb.NewLedgerClient(conn),
	}, nil
}

func (c *InventoryClient) Close() error { return c.conn.Close() }

func (c *InventoryClient) CheckAvailability(ctx context.Context, sku string, quantity int) (bool, error) {
	resp, err := c.cc.CheckAvailability(ctx, &pb.AvailabilityRequest{Sku: sku, Quantity: int32(quantity)})
	if err != nil {
		return false, classify(err)
	}
	return resp.Available, nil
}

func (c *InventoryClient) Reserve(ctx context.Context, sku string, quantity int) (invdomain.ReservationResult, error) {
	resp, err := c.cc.Reserve(ctx, &pb.ReserveRequest{Sku: sku, Quantity: int32(quantity)})
	if err != nil {
		return invdomain.ReservationResult{}, classify(err)
	}
	return invdomain.ReservationResult{
		Committed:         resp.Committed,
		ResultingQuantity: int(resp.ResultingQuantity),
	}, nil
}

func (c *InventoryClient) Release(ctx context.Context, sku string, quantity int) error {
	if _, err := c.cc.Release(ctx, &pb.ReleaseRequest{Sku: sku, Quantity: int32(quantity)}); err != nil {
		return classify(err)
	}
	return nil
}

// classify marks errors that retrying cannot fix as permanent. Connection
// loss, timeouts and overload stay transient.
func classify(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Internal:
		return err
	case codes.Canceled:
		return errors.Join(context.Canceled, err)
	default:
		return resilience.Permanent(err)
	}
}
