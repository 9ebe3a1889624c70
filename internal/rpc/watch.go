package rpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/stash/internal/history"
	"go.klb.dev/stash/internal/hub"
)

// watchBuffer is how many events a slow watcher may fall behind before
// events are dropped.
const watchBuffer = 16

type WatchRequest struct {
	// Kinds limits events to entries of these kinds ("text", "image").
	Kinds []string `json:"kinds,omitempty"`
	// Name is shown in the daemon's logs.
	Name string `json:"name,omitempty"`
	// Summary omits image bytes.
	Summary bool `json:"summary,omitempty"`
}

// WatchEvent is one history change.
type WatchEvent struct {
	Type   string `json:"type"`
	Entry  Entry  `json:"entry"`
	Reason string `json:"reason,omitempty"`
	Replay bool   `json:"replay,omitempty"`
}

func toWatchEvent(ev hub.Event, withImage bool) *WatchEvent {
	return &WatchEvent{
		Type:   string(ev.Type),
		Entry:  toEntry(ev.Entry, withImage),
		Reason: ev.Reason,
		Replay: ev.Replay,
	}
}

// WatchServer is the server side of a Watch stream.
type WatchServer interface {
	Send(*WatchEvent) error
	Context() context.Context
}

type watchServer struct{ grpc.ServerStream }

func (s *watchServer) Send(ev *WatchEvent) error { return s.SendMsg(ev) }

var watchStreamDesc = grpc.StreamDesc{
	StreamName: "Watch",
	Handler: func(srv any, stream grpc.ServerStream) error {
		in := new(WatchRequest)
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		return srv.(HistoryServer).Watch(in, &watchServer{stream})
	},
	ServerStreams: true,
}

// streamWatcher is the hub.Watcher behind one Watch call.
type streamWatcher struct {
	id    string
	name  string
	kinds []history.Kind
	since time.Time
	ch    chan hub.Event
}

func (w *streamWatcher) ID() string { return w.id }

func (w *streamWatcher) Info() hub.Info {
	return hub.Info{ID: w.id, Name: w.name, Kinds: w.kinds, Since: w.since}
}

func (w *streamWatcher) Send(ev hub.Event) {
	select {
	case w.ch <- ev:
	default:
		slog.Warn("watcher channel full, dropping", "watcher", w.id, "event", ev.Type)
	}
}

func parseKinds(names []string) ([]history.Kind, error) {
	var kinds []history.Kind
	for _, n := range names {
		k, err := history.ParseKind(n)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func newStreamWatcher(req *WatchRequest) (*streamWatcher, error) {
	kinds, err := parseKinds(req.Kinds)
	if err != nil {
		return nil, err
	}
	return &streamWatcher{
		id:    "watch/" + uuid.NewString(),
		name:  req.Name,
		kinds: kinds,
		since: time.Now(),
		ch:    make(chan hub.Event, watchBuffer),
	}, nil
}

// watch registers a watcher for req and hands every event to send until ctx
// ends, the service closes, or send fails.
func (s *Service) watch(ctx context.Context, req *WatchRequest, send func(*WatchEvent) error) error {
	w, err := newStreamWatcher(req)
	if err != nil {
		return err
	}
	h := s.eng.Hub()
	h.Register(w)
	defer h.Unregister(w)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return status.Error(codes.Unavailable, "daemon shutting down")
		case ev := <-w.ch:
			if err := send(toWatchEvent(ev, !req.Summary)); err != nil {
				return err
			}
		}
	}
}

// Watch implements History.Watch.
func (s *Service) Watch(req *WatchRequest, stream WatchServer) error {
	return s.watch(stream.Context(), req, stream.Send)
}

// EventStream is the client side of a Watch stream.
type EventStream struct {
	st grpc.ClientStream
}

// Recv blocks for the next event. It returns io.EOF when the daemon ends
// the stream cleanly.
func (s *EventStream) Recv() (*WatchEvent, error) {
	ev := new(WatchEvent)
	if err := s.st.RecvMsg(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Watch streams history changes until ctx is cancelled. The most recent
// capture is replayed first.
func (c *Client) Watch(ctx context.Context, req *WatchRequest) (*EventStream, error) {
	st, err := c.cc.NewStream(ctx, &watchStreamDesc, fullMethod("Watch"), grpc.CallContentSubtype(codecName))
	if err != nil {
		return nil, err
	}
	if err := st.SendMsg(req); err != nil {
		return nil, err
	}
	if err := st.CloseSend(); err != nil {
		return nil, err
	}
	return &EventStream{st: st}, nil
}
