package rpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"

	"go.klb.dev/stash/internal/history"
	"go.klb.dev/stash/internal/ipc"
)

// Dial returns a connection to the local daemon over the IPC socket. No
// auth is needed: the socket is owner-restricted by the OS.
func Dial() (*grpc.ClientConn, error) {
	return grpc.NewClient("passthrough:///stash",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return ipc.DialContext(ctx)
		}),
	)
}

// Client is a typed stash.v1.History client.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.cc.Invoke(ctx, fullMethod(method), in, out, grpc.CallContentSubtype(codecName))
}

// List returns entries matching search, most recent first. limit 0 means all.
func (c *Client) List(ctx context.Context, search string, limit int, summary bool) ([]Entry, error) {
	out := new(ListResponse)
	if err := c.invoke(ctx, "List", &ListRequest{Search: search, Limit: limit, Summary: summary}, out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// Get fetches one entry, including image bytes.
func (c *Client) Get(ctx context.Context, ref string) (Entry, error) {
	var out Entry
	err := c.invoke(ctx, "Get", &RefRequest{Ref: ref}, &out)
	return out, err
}

// Recall puts an entry back on the clipboard, pasting it unless noPaste.
func (c *Client) Recall(ctx context.Context, ref string, noPaste bool) (Entry, error) {
	var out Entry
	err := c.invoke(ctx, "Recall", &RecallRequest{Ref: ref, NoPaste: noPaste}, &out)
	return out, err
}

// Delete removes one entry.
func (c *Client) Delete(ctx context.Context, ref string) error {
	return c.invoke(ctx, "Delete", &RefRequest{Ref: ref}, new(emptypb.Empty))
}

// Clear empties the history.
func (c *Client) Clear(ctx context.Context) (int, error) {
	out := new(ClearResponse)
	if err := c.invoke(ctx, "Clear", new(emptypb.Empty), out); err != nil {
		return 0, err
	}
	return out.Removed, nil
}

// Copy puts content on the daemon's clipboard.
func (c *Client) Copy(ctx context.Context, content history.Content) error {
	return c.invoke(ctx, "Copy", &CopyRequest{MIME: content.MIME(), Data: content.Bytes()}, new(emptypb.Empty))
}

// Select applies a picker transition by name (see selection.Op).
func (c *Client) Select(ctx context.Context, op, text string) (*SelectResponse, error) {
	out := new(SelectResponse)
	if err := c.invoke(ctx, "Select", &SelectRequest{Op: op, Text: text}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Toggle shows or hides the picker.
func (c *Client) Toggle(ctx context.Context) error {
	return c.invoke(ctx, "Toggle", new(emptypb.Empty), new(emptypb.Empty))
}

// Stats reports daemon state.
func (c *Client) Stats(ctx context.Context) (*StatsResponse, error) {
	out := new(StatsResponse)
	if err := c.invoke(ctx, "Stats", new(emptypb.Empty), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Healthy asks the standard gRPC health service about the History service.
func (c *Client) Healthy(ctx context.Context) (bool, error) {
	resp, err := healthpb.NewHealthClient(c.cc).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return false, err
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}
