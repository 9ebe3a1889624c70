package rpc

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// maxCopyBody bounds POST /v1/copy bodies.
const maxCopyBody = 64 << 20

type route struct {
	method, path string
	h            gwruntime.HandlerFunc
}

// NewGateway returns the HTTP/JSON routes over svc:
//
//	GET    /v1/entries?q=&limit=&summary=
//	GET    /v1/entries/{ref}
//	DELETE /v1/entries/{ref}
//	POST   /v1/entries/{ref}/recall?paste=false
//	DELETE /v1/entries
//	POST   /v1/copy            (body is the content; Content-Type selects text or image)
//	POST   /v1/toggle
//	GET    /v1/stats
//	GET    /v1/events?kind=&summary=  (newline-delimited JSON, one WatchEvent per line)
//	GET    /metrics            (when metrics is non-nil)
func NewGateway(svc *Service, metrics http.Handler) (*gwruntime.ServeMux, error) {
	// Refs may be "#n", sent as %23n; decode it like any other character.
	mux := gwruntime.NewServeMux(gwruntime.WithUnescapingMode(gwruntime.UnescapingModeAllCharacters))

	routes := []route{
		{"GET", "/v1/entries", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			q := r.URL.Query()
			limit, _ := strconv.Atoi(q.Get("limit"))
			summary, _ := strconv.ParseBool(q.Get("summary"))
			resp, err := svc.List(r.Context(), &ListRequest{Search: q.Get("q"), Limit: limit, Summary: summary})
			writeJSON(w, resp, err)
		}},
		{"GET", "/v1/entries/{ref}", func(w http.ResponseWriter, r *http.Request, p map[string]string) {
			resp, err := svc.Get(r.Context(), &RefRequest{Ref: p["ref"]})
			writeJSON(w, resp, err)
		}},
		{"DELETE", "/v1/entries/{ref}", func(w http.ResponseWriter, r *http.Request, p map[string]string) {
			_, err := svc.Delete(r.Context(), &RefRequest{Ref: p["ref"]})
			writeJSON(w, struct{}{}, err)
		}},
		{"POST", "/v1/entries/{ref}/recall", func(w http.ResponseWriter, r *http.Request, p map[string]string) {
			noPaste := false
			if v := r.URL.Query().Get("paste"); v != "" {
				paste, err := strconv.ParseBool(v)
				if err != nil {
					writeJSON(w, nil, status.Errorf(codes.InvalidArgument, "paste: %v", err))
					return
				}
				noPaste = !paste
			}
			resp, err := svc.Recall(r.Context(), &RecallRequest{Ref: p["ref"], NoPaste: noPaste})
			writeJSON(w, resp, err)
		}},
		{"DELETE", "/v1/entries", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			resp, err := svc.Clear(r.Context(), &emptypb.Empty{})
			writeJSON(w, resp, err)
		}},
		{"POST", "/v1/copy", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			data, err := io.ReadAll(io.LimitReader(r.Body, maxCopyBody))
			if err != nil {
				writeJSON(w, nil, status.Errorf(codes.InvalidArgument, "read body: %v", err))
				return
			}
			mt := "text/plain"
			if ct := r.Header.Get("Content-Type"); ct != "" {
				if parsed, _, perr := mime.ParseMediaType(ct); perr == nil {
					mt = parsed
				}
			}
			_, err = svc.Copy(r.Context(), &CopyRequest{MIME: mt, Data: data})
			writeJSON(w, struct{}{}, err)
		}},
		{"POST", "/v1/toggle", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			_, err := svc.Toggle(r.Context(), &emptypb.Empty{})
			writeJSON(w, struct{}{}, err)
		}},
		{"GET", "/v1/stats", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			resp, err := svc.Stats(r.Context(), &emptypb.Empty{})
			writeJSON(w, resp, err)
		}},
		{"GET", "/v1/events", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			q := r.URL.Query()
			summary, _ := strconv.ParseBool(q.Get("summary"))
			streamEvents(w, r, svc, &WatchRequest{Kinds: q["kind"], Name: "http", Summary: summary})
		}},
	}
	if metrics != nil {
		routes = append(routes, route{"GET", "/metrics", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			metrics.ServeHTTP(w, r)
		}})
	}

	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.path, rt.h); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

// streamEvents writes one JSON event per line, flushing after each, until
// the client goes away.
func streamEvents(w http.ResponseWriter, r *http.Request, svc *Service, req *WatchRequest) {
	if _, err := parseKinds(req.Kinds); err != nil {
		writeJSON(w, nil, err)
		return
	}
	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	if flusher != nil {
		flusher.Flush()
	}
	enc := json.NewEncoder(w)
	_ = svc.watch(r.Context(), req, func(ev *WatchEvent) error {
		if err := enc.Encode(ev); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes v, or err translated from its gRPC code to an HTTP status.
func writeJSON(w http.ResponseWriter, v any, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		st := status.Convert(err)
		w.WriteHeader(gwruntime.HTTPStatusFromCode(st.Code()))
		_ = json.NewEncoder(w).Encode(errorBody{Code: st.Code().String(), Message: st.Message()})
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
