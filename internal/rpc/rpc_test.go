package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"go.klb.dev/stash/internal/clip"
	"go.klb.dev/stash/internal/config"
	"go.klb.dev/stash/internal/engine"
	"go.klb.dev/stash/internal/history"
	"go.klb.dev/stash/internal/paste"
	"go.klb.dev/stash/internal/poller"
	"go.klb.dev/stash/internal/trigger"
)

type fixture struct {
	client *Client
	http   *http.Client
	board  *clip.Memory
}

func setup(t *testing.T) *fixture {
	t.Helper()
	hk, err := trigger.ParseCombo("ctrl+shift+v")
	require.NoError(t, err)
	cfg := config.Config{
		Hotkey:       hk,
		PollInterval: 5 * time.Millisecond,
		PasteDelay:   time.Millisecond,
		ResumeDelay:  200 * time.Millisecond,
		Prefer:       poller.PreferText,
		Limits:       history.Limits{Item: history.Bytes(1024)},
	}
	board := clip.NewMemory()
	eng := engine.New(board, cfg, engine.WithSimulator(paste.Func(func() error { return nil })))

	ctx, cancel := context.WithCancel(context.Background())
	engDone := make(chan struct{})
	go func() {
		defer close(engDone)
		_ = eng.Run(ctx)
	}()

	srv, err := NewServer(NewService(eng, "test"), eng.Metrics().Handler())
	require.NoError(t, err)
	lis := bufconn.Listen(1 << 20)
	srvDone := make(chan error, 1)
	go func() { srvDone <- srv.Serve(lis) }()

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cc.Close()
		sctx, scancel := context.WithTimeout(context.Background(), time.Second)
		defer scancel()
		srv.Shutdown(sctx)
		assert.NoError(t, <-srvDone)
		cancel()
		<-engDone
	})

	return &fixture{
		client: NewClient(cc),
		board:  board,
		http: &http.Client{Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			},
		}},
	}
}

// copyAndWait copies text through the RPC API and waits for the poller to
// capture it.
func (f *fixture) copyAndWait(t *testing.T, text string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.client.Copy(ctx, history.Text(text)))
	require.Eventually(t, func() bool {
		entries, err := f.client.List(ctx, "", 1, true)
		return err == nil && len(entries) == 1 && entries[0].Text == text
	}, 2*time.Second, 5*time.Millisecond)
}

func TestGRPC_RoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.copyAndWait(t, "first")
	f.copyAndWait(t, "second")

	entries, err := f.client.List(ctx, "", 0, false)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Text)
	assert.Equal(t, "text", entries[0].Kind)

	got, err := f.client.Get(ctx, "#2")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Text)

	recalled, err := f.client.Recall(ctx, got.ID, true)
	require.NoError(t, err)
	assert.Equal(t, got.ID, recalled.ID)
	text, _ := f.board.ReadText()
	assert.Equal(t, "first", text)

	require.NoError(t, f.client.Delete(ctx, got.ID))
	n, err := f.client.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st, err := f.client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Entries)
	assert.Equal(t, "1.0 KiB", st.ItemLimit)
	assert.Equal(t, "unlimited", st.TotalLimit)
	assert.Equal(t, "test", st.Version)

	ok, err := f.client.Healthy(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

// History calls use the application/grpc+json content type, health checks
// plain application/grpc; both must reach the gRPC server on the shared
// listener.
func TestServer_RoutesBothGRPCContentTypes(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st, err := f.client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", st.Version)

	ok, err := f.client.Healthy(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGRPC_ErrorCodes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.client.Get(ctx, "nope")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = f.client.Recall(ctx, "#3", false)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = f.client.Select(ctx, "sideways", "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = f.client.cc.Invoke(ctx, fullMethod("Copy"), &CopyRequest{MIME: "text/html", Data: []byte("<b>")}, new(struct{}),
		grpc.CallContentSubtype(codecName))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_Select(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.copyAndWait(t, "one")
	f.copyAndWait(t, "two")

	v, err := f.client.Select(ctx, "show", "")
	require.NoError(t, err)
	assert.True(t, v.Visible)
	assert.Equal(t, 0, v.Selected)

	v, err = f.client.Select(ctx, "down", "")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Selected)

	v, err = f.client.Select(ctx, "search", "zzz")
	require.NoError(t, err)
	assert.Empty(t, v.Entries)
	assert.Equal(t, -1, v.Selected)

	v, err = f.client.Select(ctx, "dismiss", "")
	require.NoError(t, err)
	assert.False(t, v.Visible)
}

func TestHTTP_Gateway(t *testing.T) {
	f := setup(t)
	f.copyAndWait(t, "via grpc")

	resp, err := f.http.Post("http://stash/v1/copy", "text/plain; charset=utf-8", strings.NewReader("via http"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Eventually(t, func() bool {
		entries, err := f.client.List(context.Background(), "via http", 0, true)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 5*time.Millisecond)

	resp, err = f.http.Get("http://stash/v1/entries?q=VIA&summary=true")
	require.NoError(t, err)
	var list ListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	_ = resp.Body.Close()
	require.Len(t, list.Entries, 2)
	assert.Equal(t, "via http", list.Entries[0].Text)

	resp, err = f.http.Get("http://stash/v1/entries/%232")
	require.NoError(t, err)
	var e Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	_ = resp.Body.Close()
	assert.Equal(t, "via grpc", e.Text)

	resp, err = f.http.Get("http://stash/v1/entries/missing")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodDelete, "http://stash/v1/entries", nil)
	resp, err = f.http.Do(req)
	require.NoError(t, err)
	var cleared ClearResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cleared))
	_ = resp.Body.Close()
	assert.Equal(t, 2, cleared.Removed)

	resp, err = f.http.Get("http://stash/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), "stash_captures_total")
}

func TestGRPC_Watch(t *testing.T) {
	f := setup(t)
	f.copyAndWait(t, "before")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := f.client.Watch(ctx, &WatchRequest{Name: "test"})
	require.NoError(t, err)

	ev, err := stream.Recv()
	require.NoError(t, err)
	assert.True(t, ev.Replay)
	assert.Equal(t, "before", ev.Entry.Text)

	require.NoError(t, f.client.Copy(context.Background(), history.Text("after")))
	ev, err = stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "captured", ev.Type)
	assert.False(t, ev.Replay)
	assert.Equal(t, "after", ev.Entry.Text)

	require.NoError(t, f.client.Delete(context.Background(), ev.Entry.ID))
	ev, err = stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "removed", ev.Type)
	assert.Equal(t, "deleted", ev.Reason)

	st, err := f.client.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Watchers)
}

func TestGRPC_WatchBadKind(t *testing.T) {
	f := setup(t)
	stream, err := f.client.Watch(context.Background(), &WatchRequest{Kinds: []string{"html"}})
	require.NoError(t, err)
	_, err = stream.Recv()
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHTTP_Events(t *testing.T) {
	f := setup(t)
	f.copyAndWait(t, "seed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://stash/v1/events?kind=text", nil)
	resp, err := f.http.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sc := bufio.NewScanner(resp.Body)
	require.True(t, sc.Scan())
	var ev WatchEvent
	require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
	assert.True(t, ev.Replay)
	assert.Equal(t, "seed", ev.Entry.Text)

	resp2, err := f.http.Get("http://stash/v1/events?kind=html")
	require.NoError(t, err)
	_ = resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}
