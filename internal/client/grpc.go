package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/rpc"
)

// GRPCClient implements BoardClient using the gRPC transport.
type GRPCClient struct {
	conn   *grpc.ClientConn
	client *rpc.BoardServiceClient
	token  string
}

var _ BoardClient = (*GRPCClient)(nil)

// NewGRPCClient connects to the given gRPC address. When token is non-empty
// it is sent as a bearer token on every call.
func NewGRPCClient(addr, token string) (*GRPCClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{
		conn:   conn,
		client: rpc.NewBoardServiceClient(conn),
		token:  token,
	}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) ctx(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

type call func(*rpc.BoardServiceClient, context.Context, *structpb.Struct, ...grpc.CallOption) (*structpb.Struct, error)

// do encodes req, performs the call and decodes into resp.
func (c *GRPCClient) do(ctx context.Context, fn call, req, resp any) error {
	var in *structpb.Struct
	if req != nil {
		var err error
		if in, err = rpc.ToStruct(req); err != nil {
			return err
		}
	}
	out, err := fn(c.client, c.ctx(ctx), in)
	if err != nil {
		return err
	}
	return rpc.FromStruct(out, resp)
}

func (c *GRPCClient) GetView(ctx context.Context, grouping, ordering string) (*View, error) {
	var resp rpc.ViewResponse
	if err := c.do(ctx, (*rpc.BoardServiceClient).GetView, rpc.ViewRequest{Grouping: grouping, Ordering: ordering}, &resp); err != nil {
		return nil, err
	}
	v, err := resp.View()
	if err != nil {
		return nil, err
	}
	return &View{Selectors: resp.Selectors, View: v}, nil
}

func (c *GRPCClient) GetBoard(ctx context.Context, grouping, ordering string) (*rpc.BoardResponse, error) {
	var resp rpc.BoardResponse
	if err := c.do(ctx, (*rpc.BoardServiceClient).GetBoard, rpc.ViewRequest{Grouping: grouping, Ordering: ordering}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) GetSelectors(ctx context.Context) (model.Selectors, error) {
	var sel model.Selectors
	err := c.do(ctx, (*rpc.BoardServiceClient).GetSelectors, nil, &sel)
	return sel, err
}

func (c *GRPCClient) SetSelectors(ctx context.Context, grouping, ordering *string) (model.Selectors, error) {
	var sel model.Selectors
	err := c.do(ctx, (*rpc.BoardServiceClient).SetSelectors, updateOf(grouping, ordering), &sel)
	return sel, err
}

func (c *GRPCClient) GetSnapshot(ctx context.Context) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := c.do(ctx, (*rpc.BoardServiceClient).GetSnapshot, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *GRPCClient) Refresh(ctx context.Context) (*rpc.RefreshResponse, error) {
	var resp rpc.RefreshResponse
	if err := c.do(ctx, (*rpc.BoardServiceClient).Refresh, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	var resp rpc.HealthResponse
	if err := c.do(ctx, (*rpc.BoardServiceClient).Health, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
