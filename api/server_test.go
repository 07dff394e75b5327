package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glimte/walletbridge/bridge"
	"github.com/glimte/walletbridge/contracts"
	"github.com/glimte/walletbridge/health"
	"github.com/glimte/walletbridge/host"
	"github.com/glimte/walletbridge/router"
	"github.com/glimte/walletbridge/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server   *httptest.Server
	loopback *host.Loopback
	client   *bridge.Client
	router   *router.Router
}

func newEmbeddedFixture(t *testing.T, opts ...bridge.ClientOption) *fixture {
	t.Helper()
	loopback := host.NewLoopback()
	store := services.NewMockStore()
	store.Serve(loopback)

	nav := router.New(router.DefaultRoutes())
	opts = append([]bridge.ClientOption{
		bridge.WithDefaultTimeout(200 * time.Millisecond),
		bridge.WithNavigator(nav),
	}, opts...)
	client, err := bridge.NewClient(loopback, opts...)
	require.NoError(t, err)

	registry := health.NewRegistry()
	registry.Register(health.NewBridgeChecker(client, 0))

	svc := services.New(client, services.WithEmbed(true), services.WithMockStore(store))
	srv := httptest.NewServer(NewServer(svc,
		WithBridge(client),
		WithHotline(services.NewHotline(client)),
		WithRouter(nav),
		WithHealth(registry)).Handler())

	t.Cleanup(func() {
		srv.Close()
		client.Close()
		loopback.Close()
	})
	return &fixture{server: srv, loopback: loopback, client: client, router: nav}
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"host error", &contracts.HostError{Status: "FAILED"}, http.StatusUnprocessableEntity},
		{"timeout", contracts.ErrTimeout, http.StatusGatewayTimeout},
		{"wrapped unavailable", fmt.Errorf("post: %w", contracts.ErrHostUnavailable), http.StatusServiceUnavailable},
		{"duplicate", contracts.ErrDuplicateCorrelationID, http.StatusConflict},
		{"invalid", contracts.ErrInvalidRequest, http.StatusBadRequest},
		{"too many", contracts.ErrTooManyPending, http.StatusTooManyRequests},
		{"unknown operation", services.ErrUnknownOperation, http.StatusNotFound},
		{"fresh timeout", contracts.NewBridgeError(contracts.KindTimeout, "getState"), http.StatusGatewayTimeout},
		{"client went away", fmt.Errorf("wait: %w", context.Canceled), StatusClientClosedRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestInvokeMockMode(t *testing.T) {
	srv := httptest.NewServer(NewServer(services.New(nil)).Handler())
	defer srv.Close()

	resp := post(t, srv.URL+"/api/v1/dashboard/getDocuments", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var docs []services.Document
	decode(t, resp, &docs)
	assert.Len(t, docs, 2)

	resp = post(t, srv.URL+"/api/v1/dashboard/getDocumentDetails", `{"documentId":"mdl-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var details services.DocumentDetails
	decode(t, resp, &details)
	assert.Equal(t, "MDL", details.Type)

	resp = post(t, srv.URL+"/api/v1/dashboard/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = post(t, srv.URL+"/api/v1/dashboard/getDocuments", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/events", `{"event":"lx-embed-response","detail":{}}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = get(t, srv.URL+"/api/v1/pending")
	var pending map[string]interface{}
	decode(t, resp, &pending)
	assert.Equal(t, false, pending["embedded"])
	assert.Equal(t, float64(0), pending["pending"])
}

func TestInvokeEmbedded(t *testing.T) {
	f := newEmbeddedFixture(t)

	t.Run("success", func(t *testing.T) {
		resp := post(t, f.server.URL+"/api/v1/settings/getBiometricAvailability", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var availability services.BiometricAvailability
		decode(t, resp, &availability)
		assert.True(t, availability.Available)
	})

	t.Run("host error", func(t *testing.T) {
		resp := post(t, f.server.URL+"/api/v1/dashboard/getDocumentDetails", `{"documentId":"missing"}`)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		var body ErrorResponse
		decode(t, resp, &body)
		assert.Equal(t, host.StatusFailed, body.Status)
		assert.Contains(t, string(body.Payload), "document not found")
	})

	t.Run("timeout", func(t *testing.T) {
		f.loopback.Handle("dashboard", "getDocuments", func(context.Context, contracts.HostMessage) (interface{}, error) {
			return nil, host.ErrNoResponse
		})
		resp := post(t, f.server.URL+"/api/v1/dashboard/getDocuments", "")
		require.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
		var body ErrorResponse
		decode(t, resp, &body)
		assert.Equal(t, string(contracts.KindTimeout), body.Kind)
	})
}

func TestEventsAndResolve(t *testing.T) {
	f := newEmbeddedFixture(t)
	f.loopback.Handle("documents", "getDocuments", func(context.Context, contracts.HostMessage) (interface{}, error) {
		return nil, host.ErrNoResponse
	})

	t.Run("debug resolve completes a pending call", func(t *testing.T) {
		call, err := f.client.Send(context.Background(), "documents", "getDocuments", nil,
			bridge.WithCorrelationID("abc"), bridge.WithTimeout(time.Second))
		require.NoError(t, err)

		resp := post(t, f.server.URL+"/debug/responses/abc", "")
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		data, err := call.Wait(context.Background())
		require.NoError(t, err)
		assert.JSONEq(t, `"abc data returned"`, string(data))
	})

	t.Run("response event with payload", func(t *testing.T) {
		call, err := f.client.Send(context.Background(), "documents", "getDocuments", nil,
			bridge.WithCorrelationID("def"), bridge.WithTimeout(time.Second))
		require.NoError(t, err)

		resp := post(t, f.server.URL+"/events",
			`{"event":"lx-embed-response","detail":{"id":"def","status":"SUCCESS","data":{"n":1}}}`)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		data, err := call.Wait(context.Background())
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":1}`, string(data))
	})

	t.Run("navigation event", func(t *testing.T) {
		resp := post(t, f.server.URL+"/events",
			`{"event":"lx-navigation","detail":{"path":"document","params":{"id":"pid-1"}}}`)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		require.Eventually(t, func() bool {
			return f.router.Current().Name == router.RouteDocument
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, "/document/pid-1", f.router.Current().Path)

		resp = get(t, f.server.URL+"/routes")
		var routes routesResponse
		decode(t, resp, &routes)
		require.NotNil(t, routes.Current)
		assert.Equal(t, router.RouteDocument, routes.Current.Name)
		assert.NotEmpty(t, routes.Routes)
	})

	t.Run("navigation event with numeric params and repeated query", func(t *testing.T) {
		resp := post(t, f.server.URL+"/events",
			`{"event":"lx-navigation","detail":{"path":"document","params":{"id":7},"query":{"tab":["a","b"]}}}`)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		require.Eventually(t, func() bool {
			return f.router.Current().Path == "/document/7?tab=a&tab=b"
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("unknown event", func(t *testing.T) {
		resp := post(t, f.server.URL+"/events", `{"event":"lx-other","detail":{}}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed details are refused", func(t *testing.T) {
		bodies := map[string]string{
			"response not an object":  `{"event":"lx-embed-response","detail":"abc"}`,
			"response id not text":    `{"event":"lx-embed-response","detail":{"id":{"x":1},"status":"SUCCESS"}}`,
			"navigation without path": `{"event":"lx-navigation","detail":{"params":{"id":"1"}}}`,
			"navigation params list":  `{"event":"lx-navigation","detail":{"path":"document","params":["1"]}}`,
		}
		for name, body := range bodies {
			t.Run(name, func(t *testing.T) {
				resp := post(t, f.server.URL+"/events", body)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				var errBody ErrorResponse
				decode(t, resp, &errBody)
				assert.Equal(t, string(contracts.KindInvalidRequest), errBody.Kind)
			})
		}
		assert.Equal(t, 0, f.client.Pending())
	})
}

func TestHotline(t *testing.T) {
	f := newEmbeddedFixture(t, bridge.WithDefaultTimeout(5*time.Second))
	f.loopback.Handle("documents", "getDocuments", func(context.Context, contracts.HostMessage) (interface{}, error) {
		return nil, host.ErrNoResponse
	})

	t.Run("caller-chosen id is answered through the debug helper", func(t *testing.T) {
		type result struct {
			status int
			body   string
		}
		done := make(chan result, 1)
		go func() {
			req, _ := http.NewRequest(http.MethodPost, f.server.URL+"/api/v1/hotline/getDocuments?id=abc", nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				done <- result{}
				return
			}
			defer resp.Body.Close()
			var buf bytes.Buffer
			buf.ReadFrom(resp.Body)
			done <- result{status: resp.StatusCode, body: buf.String()}
		}()

		require.Eventually(t, func() bool { return f.client.IsPending("abc") }, time.Second, 5*time.Millisecond)
		resp := post(t, f.server.URL+"/debug/responses/abc", `{"documents":["pid-1"]}`)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		select {
		case res := <-done:
			assert.Equal(t, http.StatusOK, res.status)
			assert.JSONEq(t, `{"documents":["pid-1"]}`, res.body)
		case <-time.After(time.Second):
			t.Fatal("hotline call was not answered")
		}

		posted := f.loopback.Posted()
		require.NotEmpty(t, posted)
		last := posted[len(posted)-1]
		assert.Equal(t, "abc", last.ID)
		assert.Equal(t, "getDocuments", last.Function)
	})

	t.Run("id from header", func(t *testing.T) {
		done := make(chan int, 1)
		go func() {
			req, _ := http.NewRequest(http.MethodPost, f.server.URL+"/api/v1/hotline/getDocuments", nil)
			req.Header.Set(HeaderCorrelationID, "from-header")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				done <- 0
				return
			}
			resp.Body.Close()
			done <- resp.StatusCode
		}()

		require.Eventually(t, func() bool { return f.client.IsPending("from-header") }, time.Second, 5*time.Millisecond)
		post(t, f.server.URL+"/debug/responses/from-header", "")
		select {
		case status := <-done:
			assert.Equal(t, http.StatusOK, status)
		case <-time.After(time.Second):
			t.Fatal("hotline call was not answered")
		}
	})

	t.Run("unknown hotline function", func(t *testing.T) {
		resp := post(t, f.server.URL+"/api/v1/hotline/deleteEverything?id=x", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestClientGoneAway(t *testing.T) {
	loopback := host.NewLoopback()
	loopback.Handle("app", "getState", func(context.Context, contracts.HostMessage) (interface{}, error) {
		return nil, host.ErrNoResponse
	})
	client, err := bridge.NewClient(loopback, bridge.WithDefaultTimeout(time.Second))
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Close()
		loopback.Close()
	})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	handler := NewServer(services.New(client, services.WithEmbed(true)), WithLogger(logger)).Handler()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/app/getState", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	time.AfterFunc(20*time.Millisecond, cancel)
	handler.ServeHTTP(rec, req)

	assert.Equal(t, StatusClientClosedRequest, rec.Code)
	assert.NotContains(t, logs.String(), "level=ERROR")
	assert.Equal(t, 0, client.Pending())
}

func TestHealthAndOperations(t *testing.T) {
	f := newEmbeddedFixture(t)

	resp := get(t, f.server.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var report health.Report
	decode(t, resp, &report)
	assert.Equal(t, health.StatusHealthy, report.Status)
	assert.Contains(t, report.Checks, "bridge")

	resp = get(t, f.server.URL+"/api/v1/operations")
	var ops []services.Operation
	decode(t, resp, &ops)
	assert.Len(t, ops, len(services.Operations()))
}
