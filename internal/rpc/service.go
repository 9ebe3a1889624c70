// Package rpc serves the clipboard history to local clients: a gRPC service
// (stash.v1.History, JSON-encoded) and an HTTP/JSON view of the same
// operations, multiplexed on the daemon's IPC socket.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"go.klb.dev/stash/internal/engine"
	"go.klb.dev/stash/internal/history"
	"go.klb.dev/stash/internal/hub"
	"go.klb.dev/stash/internal/loop"
	"go.klb.dev/stash/internal/selection"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "stash.v1.History"

// Engine is the part of engine.Engine the service drives.
type Engine interface {
	List(ctx context.Context, search string) ([]history.Entry, error)
	Get(ctx context.Context, ref string) (history.Entry, error)
	Recall(ctx context.Context, ref string, paste bool) (history.Entry, error)
	Delete(ctx context.Context, ref string) error
	Clear(ctx context.Context) (int, error)
	Copy(ctx context.Context, c history.Content) error
	Select(ctx context.Context, op selection.Op, text string) (selection.View, error)
	Toggle()
	Stats(ctx context.Context) (engine.Stats, error)
	Hub() *hub.Hub
}

// HistoryServer is the server API of stash.v1.History.
type HistoryServer interface {
	List(context.Context, *ListRequest) (*ListResponse, error)
	Get(context.Context, *RefRequest) (*Entry, error)
	Recall(context.Context, *RecallRequest) (*Entry, error)
	Delete(context.Context, *RefRequest) (*emptypb.Empty, error)
	Clear(context.Context, *emptypb.Empty) (*ClearResponse, error)
	Copy(context.Context, *CopyRequest) (*emptypb.Empty, error)
	Select(context.Context, *SelectRequest) (*SelectResponse, error)
	Toggle(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Stats(context.Context, *emptypb.Empty) (*StatsResponse, error)
	Watch(*WatchRequest, WatchServer) error
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary builds a method descriptor around a HistoryServer method expression.
func unary[Req, Resp any](name string, call func(HistoryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(HistoryServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}, handler)
		},
	}
}

// ServiceDesc describes stash.v1.History for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HistoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("List", HistoryServer.List),
		unary("Get", HistoryServer.Get),
		unary("Recall", HistoryServer.Recall),
		unary("Delete", HistoryServer.Delete),
		unary("Clear", HistoryServer.Clear),
		unary("Copy", HistoryServer.Copy),
		unary("Select", HistoryServer.Select),
		unary("Toggle", HistoryServer.Toggle),
		unary("Stats", HistoryServer.Stats),
	},
	Streams:  []grpc.StreamDesc{watchStreamDesc},
	Metadata: "stash/v1/history.proto",
}

// Service implements HistoryServer on top of an Engine.
type Service struct {
	eng     Engine
	version string

	closeOnce sync.Once
	done      chan struct{}
}

// NewService returns a Service backed by eng. version is reported by Stats.
func NewService(eng Engine, version string) *Service {
	return &Service{eng: eng, version: version, done: make(chan struct{})}
}

// Close ends every open Watch stream. It is safe to call more than once.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// List implements History.List.
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	entries, err := s.eng.List(ctx, req.Search)
	if err != nil {
		return nil, toStatus(err)
	}
	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	return &ListResponse{Entries: toEntries(entries, !req.Summary)}, nil
}

// Get implements History.Get.
func (s *Service) Get(ctx context.Context, req *RefRequest) (*Entry, error) {
	e, err := s.eng.Get(ctx, req.Ref)
	if err != nil {
		return nil, toStatus(err)
	}
	out := toEntry(e, true)
	return &out, nil
}

// Recall implements History.Recall.
func (s *Service) Recall(ctx context.Context, req *RecallRequest) (*Entry, error) {
	e, err := s.eng.Recall(ctx, req.Ref, !req.NoPaste)
	if err != nil {
		return nil, toStatus(err)
	}
	out := toEntry(e, false)
	return &out, nil
}

// Delete implements History.Delete.
func (s *Service) Delete(ctx context.Context, req *RefRequest) (*emptypb.Empty, error) {
	if err := s.eng.Delete(ctx, req.Ref); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// Clear implements History.Clear.
func (s *Service) Clear(ctx context.Context, _ *emptypb.Empty) (*ClearResponse, error) {
	n, err := s.eng.Clear(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ClearResponse{Removed: n}, nil
}

// Copy implements History.Copy.
func (s *Service) Copy(ctx context.Context, req *CopyRequest) (*emptypb.Empty, error) {
	mime := req.MIME
	if mime == "" {
		mime = history.MIMEText
	}
	c, ok := history.FromMIME(mime, req.Data)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unsupported content type %q", req.MIME)
	}
	if c.Empty() {
		return &emptypb.Empty{}, nil
	}
	if err := s.eng.Copy(ctx, c); err != nil {
		return nil, toStatus(err)
	}
	slog.Debug("rpc copy", "kind", c.Kind(), "size", c.Size())
	return &emptypb.Empty{}, nil
}

// Select implements History.Select.
func (s *Service) Select(ctx context.Context, req *SelectRequest) (*SelectResponse, error) {
	op, err := selection.ParseOp(req.Op)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	v, err := s.eng.Select(ctx, op, req.Text)
	if err != nil {
		return nil, toStatus(err)
	}
	return toSelectResponse(v), nil
}

// Toggle implements History.Toggle.
func (s *Service) Toggle(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	s.eng.Toggle()
	return &emptypb.Empty{}, nil
}

// Stats implements History.Stats.
func (s *Service) Stats(ctx context.Context, _ *emptypb.Empty) (*StatsResponse, error) {
	st, err := s.eng.Stats(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStatsResponse(st, s.version), nil
}

// toStatus maps engine errors onto gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, engine.ErrInvalidRef):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, engine.ErrOutOfRange):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, loop.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
