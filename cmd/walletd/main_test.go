package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glimte/walletbridge"
	"github.com/glimte/walletbridge/config"
	"github.com/glimte/walletbridge/contracts"
	"github.com/glimte/walletbridge/host"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoutesCommand(t *testing.T) {
	out, err := run(t, "routes")
	require.NoError(t, err)
	assert.Contains(t, out, "/document/:id")
	assert.Contains(t, out, "documentOfferManual")
}

func TestOperationsCommand(t *testing.T) {
	out, err := run(t, "operations")
	require.NoError(t, err)
	assert.Contains(t, out, "issueDocumentOffer")
	assert.Contains(t, out, "2m0s")
}

func TestCallCommandMockMode(t *testing.T) {
	out, err := run(t, "call", "dashboard", "getDocumentDetails", `{"documentId":"pid-1"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "PID"`)

	_, err = run(t, "call", "dashboard", "getDocuments", "{bad")
	assert.Error(t, err)

	_, err = run(t, "call", "dashboard", "nope")
	assert.Error(t, err)
}

func TestCallCommandEmbedWithoutHost(t *testing.T) {
	_, err := run(t, "--embed", "call", "app", "getState")
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	var gotID string
	var gotBody []byte
	r := mux.NewRouter()
	r.HandleFunc("/debug/responses/{id}", func(w http.ResponseWriter, req *http.Request) {
		gotID = mux.Vars(req)["id"]
		buf := new(bytes.Buffer)
		buf.ReadFrom(req.Body)
		gotBody = buf.Bytes()
		w.WriteHeader(http.StatusAccepted)
	}).Methods(http.MethodPost)
	srv := httptest.NewServer(r)
	defer srv.Close()

	out, err := run(t, "resolve", "--server", srv.URL, "abc", `{"ok":true}`)
	require.NoError(t, err)
	assert.Equal(t, "abc", gotID)
	assert.JSONEq(t, `{"ok":true}`, string(gotBody))
	assert.Contains(t, out, "resolved abc")

	_, err = run(t, "resolve", "--server", srv.URL+"/missing", "abc")
	assert.Error(t, err)
}

func TestHotlineCommand(t *testing.T) {
	loopback := host.NewLoopback()
	loopback.Handle("documents", "getDocuments", func(context.Context, contracts.HostMessage) (interface{}, error) {
		return nil, host.ErrNoResponse
	})
	cfg := config.Default()
	cfg.Embed = true
	cfg.Host.Kind = config.HostLoopback
	cfg.Bridge.DefaultTimeout = 5 * time.Second
	app, err := walletbridge.New(context.Background(), cfg, walletbridge.WithLoopback(loopback))
	require.NoError(t, err)
	defer app.Close()
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := run(t, "hotline", "--server", srv.URL, "--id", "abc", "getDocuments")
		done <- result{out: out, err: err}
	}()

	require.Eventually(t, func() bool { return app.Client().IsPending("abc") }, 2*time.Second, 5*time.Millisecond)
	out, err := run(t, "resolve", "--server", srv.URL, "abc", `{"ok":true}`)
	require.NoError(t, err)
	assert.Contains(t, out, "resolved abc")

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Contains(t, res.out, `"ok": true`)
	case <-time.After(2 * time.Second):
		t.Fatal("hotline command did not return")
	}

	_, err = run(t, "hotline", "--server", srv.URL, "getEverything")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "walletd dev")
}
