package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glimte/walletbridge/bridge"
	"github.com/glimte/walletbridge/contracts"
	"github.com/glimte/walletbridge/host"
	"github.com/glimte/walletbridge/interceptors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestRecord struct {
	Bridge   string
	Function string
	Params   interface{}
	Opts     []bridge.RequestOption
}

// stubRequester records requests and answers them from a fixed reply
type stubRequester struct {
	mu       sync.Mutex
	requests []requestRecord
	reply    json.RawMessage
	err      error
}

func (r *stubRequester) Request(ctx context.Context, bridgeName, function string, params interface{}, opts ...bridge.RequestOption) (json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, requestRecord{Bridge: bridgeName, Function: function, Params: params, Opts: opts})
	return r.reply, r.err
}

func (r *stubRequester) last(t *testing.T) requestRecord {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.requests)
	return r.requests[len(r.requests)-1]
}

func newEmbeddedService(t *testing.T) (*Service, *host.Loopback, *bridge.Client) {
	t.Helper()
	loopback := host.NewLoopback()
	store := NewMockStore()
	store.Serve(loopback)

	client, err := bridge.NewClient(loopback, bridge.WithDefaultTimeout(time.Second))
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Close()
		loopback.Close()
	})
	return New(client, WithEmbed(true), WithMockStore(store)), loopback, client
}

func TestRegistry(t *testing.T) {
	t.Run("every operation has a mock", func(t *testing.T) {
		for key, entry := range registry {
			assert.Equal(t, key, entry.Key())
			assert.NotNil(t, entry.mock, key)
			assert.NotEmpty(t, entry.Bridge, key)
			assert.NotEmpty(t, entry.Function, key)
		}
	})

	t.Run("operations are sorted", func(t *testing.T) {
		ops := Operations()
		require.Len(t, ops, len(registry))
		for i := 1; i < len(ops); i++ {
			assert.Less(t, ops[i-1].Key(), ops[i].Key())
		}
	})

	t.Run("interactive timeouts", func(t *testing.T) {
		cases := map[string]time.Duration{
			"issuance.issueDocumentOffer":       InteractiveTimeout,
			"onboarding.initialiseWallet":       InteractiveTimeout,
			"presentation.confirmRequest":       InteractiveTimeout,
			"presentation.presentationCanceled": CancelTimeout,
			"settings.enableBiometrics":         InteractiveTimeout,
			"settings.changePin":                InteractiveTimeout,
			"settings.deleteWallet":             InteractiveTimeout,
			"sign.pickFiles":                    FilePickerTimeout,
			"sign.signDocument":                 InteractiveTimeout,
			"sign.getSharedFile":                FilePickerTimeout,
			"dashboard.getDocuments":            0,
		}
		for key, timeout := range cases {
			entry, exists := registry[key]
			require.True(t, exists, key)
			assert.Equal(t, timeout, entry.Timeout, key)
		}
	})

	t.Run("pid details live on the issuance bridge", func(t *testing.T) {
		op, exists := Lookup("issuance", "getPidDetails")
		assert.True(t, exists)
		assert.Equal(t, OpGetPidDetails, op)

		_, exists = Lookup("onboarding", "getPidDetails")
		assert.False(t, exists)
	})
}

func TestMockMode(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown operation", func(t *testing.T) {
		s := New(nil)
		_, err := s.Invoke(ctx, "dashboard", "nope", nil)
		assert.ErrorIs(t, err, ErrUnknownOperation)
	})

	t.Run("never touches the requester", func(t *testing.T) {
		requester := &stubRequester{}
		s := New(requester)
		assert.False(t, s.Embedded())

		docs, err := s.GetDocuments(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
		assert.Empty(t, requester.requests)
	})

	t.Run("document details and delete", func(t *testing.T) {
		s := New(nil)

		details, err := s.GetDocumentDetails(ctx, "pid-1")
		require.NoError(t, err)
		assert.Equal(t, "PID", details.Type)
		assert.NotEmpty(t, details.Fields)

		result, err := s.DeleteDocument(ctx, "pid-1")
		require.NoError(t, err)
		assert.Equal(t, contracts.StatusSuccess, result.Status)

		_, err = s.GetDocumentDetails(ctx, "pid-1")
		assert.ErrorIs(t, err, ErrDocumentNotFound)

		docs, err := s.GetDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "mdl-1", docs[0].ID)
	})

	t.Run("favorite", func(t *testing.T) {
		s := New(nil)
		require.NoError(t, s.SetDocumentFavorite(ctx, "mdl-1", true))

		details, err := s.GetDocumentDetails(ctx, "mdl-1")
		require.NoError(t, err)
		assert.True(t, details.IsFavorite)
	})

	t.Run("settings update state", func(t *testing.T) {
		s := New(nil)
		require.NoError(t, s.SetLanguage(ctx, "en"))
		require.NoError(t, s.EnableBiometrics(ctx, true))

		state, err := s.GetState(ctx)
		require.NoError(t, err)
		assert.Equal(t, "en", state.Language)
		assert.True(t, state.BiometricsEnabled)

		err = s.SetLanguage(ctx, "")
		assert.ErrorIs(t, err, contracts.ErrInvalidRequest)
	})

	t.Run("presentation field selection", func(t *testing.T) {
		s := New(nil)
		_, err := s.UpdateField(ctx, "address", true)
		require.NoError(t, err)

		req, err := s.GetRequestDocuments(ctx)
		require.NoError(t, err)
		for _, field := range req.Fields {
			assert.True(t, field.Checked, field.ID)
		}
		require.Len(t, req.Documents, 1)
		assert.Equal(t, "pid-1", req.Documents[0].ID)

		_, err = s.UpdateField(ctx, "missing", true)
		assert.ErrorIs(t, err, contracts.ErrInvalidRequest)
	})

	t.Run("transactions filtered by document", func(t *testing.T) {
		s := New(nil)
		all, err := s.GetTransactions(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)

		pid, err := s.GetTransactions(ctx, "pid-1")
		require.NoError(t, err)
		assert.Len(t, pid, 2)
		for _, tx := range pid {
			assert.Equal(t, "pid-1", tx.DocumentID)
		}
	})

	t.Run("flows without data return null", func(t *testing.T) {
		s := New(nil)
		data, err := s.SignDocument(ctx, "/tmp/a.pdf", "pid-1")
		require.NoError(t, err)
		assert.JSONEq(t, "null", string(data))
	})

	t.Run("malformed params", func(t *testing.T) {
		s := New(nil)
		_, err := s.Invoke(ctx, "dashboard", "getDocumentDetails", "pid-1")
		assert.ErrorIs(t, err, contracts.ErrInvalidRequest)
	})
}

func TestEmbeddedMode(t *testing.T) {
	ctx := context.Background()

	t.Run("no requester", func(t *testing.T) {
		s := New(nil, WithEmbed(true))
		_, err := s.GetDocuments(ctx)
		assert.ErrorIs(t, err, contracts.ErrHostUnavailable)
	})

	t.Run("request shape", func(t *testing.T) {
		requester := &stubRequester{reply: json.RawMessage(`{"documentId":"pid-1"}`)}
		s := New(requester, WithEmbed(true))

		_, err := s.GetDocumentDetails(ctx, "pid-1")
		require.NoError(t, err)

		rec := requester.last(t)
		assert.Equal(t, "dashboard", rec.Bridge)
		assert.Equal(t, "getDocumentDetails", rec.Function)
		assert.Equal(t, documentRef{DocumentID: "pid-1"}, rec.Params)
		assert.Len(t, rec.Opts, 1)
	})

	t.Run("params as the host expects them", func(t *testing.T) {
		requester := &stubRequester{}
		s := New(requester, WithEmbed(true))

		_, err := s.IssueDocument(ctx, "PID")
		require.NoError(t, err)
		data, err := contracts.EncodeData(requester.last(t).Params)
		require.NoError(t, err)
		assert.JSONEq(t, `{"method":"openid4vci","documentType":"PID"}`, string(data))

		_, err = s.OpenFile(ctx, "/c.edoc", "")
		require.NoError(t, err)
		data, err = contracts.EncodeData(requester.last(t).Params)
		require.NoError(t, err)
		assert.JSONEq(t, `{"containerPath":"/c.edoc","fileName":null}`, string(data))

		_, err = s.GetTransactions(ctx, "")
		require.NoError(t, err)
		data, err = contracts.EncodeData(requester.last(t).Params)
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(data))

		_, err = s.SelectUserSignatures(ctx, nil)
		require.NoError(t, err)
		data, err = contracts.EncodeData(requester.last(t).Params)
		require.NoError(t, err)
		assert.JSONEq(t, `{"selectedIds":[]}`, string(data))
	})

	t.Run("host error surfaces", func(t *testing.T) {
		hostErr := &contracts.HostError{ID: "x", Status: "FAILED", Payload: json.RawMessage(`"denied"`)}
		requester := &stubRequester{err: hostErr}
		s := New(requester, WithEmbed(true))

		_, err := s.ChangePin(ctx)
		var target *contracts.HostError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, "denied", target.Message())
	})

	t.Run("round trip through loopback", func(t *testing.T) {
		s, loopback, _ := newEmbeddedService(t)

		docs, err := s.GetDocuments(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 2)

		name, err := s.GetUserName(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Bērziņš", name.FamilyName)

		posted := loopback.Posted()
		require.Len(t, posted, 2)
		assert.Equal(t, "issuance", posted[1].Bridge)
		assert.Equal(t, "getPidDetails", posted[1].Function)
		assert.JSONEq(t, `{}`, string(posted[1].Data))
	})

	t.Run("loopback failure becomes host error", func(t *testing.T) {
		s, _, _ := newEmbeddedService(t)

		_, err := s.GetDocumentDetails(ctx, "missing")
		var target *contracts.HostError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, host.StatusFailed, target.Status)
		assert.Contains(t, target.Message(), "document not found")
	})
}

func TestHotline(t *testing.T) {
	ctx := context.Background()

	t.Run("caller chosen id resolved by hand", func(t *testing.T) {
		loopback := host.NewLoopback()
		loopback.Handle(HotlineBridge, "getDocuments", func(context.Context, contracts.HostMessage) (interface{}, error) {
			return nil, host.ErrNoResponse
		})
		client, err := bridge.NewClient(loopback, bridge.WithDefaultTimeout(time.Second))
		require.NoError(t, err)
		defer loopback.Close()
		defer client.Close()

		hotline := NewHotline(client)
		type result struct {
			data json.RawMessage
			err  error
		}
		done := make(chan result, 1)
		go func() {
			data, err := hotline.GetDocumentsTest(ctx, nil, "abc")
			done <- result{data, err}
		}()

		require.Eventually(t, func() bool { return client.IsPending("abc") }, time.Second, 5*time.Millisecond)
		require.NoError(t, hotline.Resolve(ctx, "abc", nil))

		select {
		case r := <-done:
			require.NoError(t, r.err)
			assert.JSONEq(t, `"abc data returned"`, string(r.data))
		case <-time.After(time.Second):
			t.Fatal("hotline call was not resolved")
		}

		posted := loopback.Posted()
		require.Len(t, posted, 1)
		assert.Equal(t, "documents", posted[0].Bridge)
		assert.Equal(t, "abc", posted[0].ID)
	})

	t.Run("resolve needs an id", func(t *testing.T) {
		client, err := bridge.NewClient(nil)
		require.NoError(t, err)
		defer client.Close()

		err = NewHotline(client).Resolve(ctx, "", nil)
		assert.ErrorIs(t, err, contracts.ErrInvalidRequest)
	})
	t.Run("Call dispatches by function name", func(t *testing.T) {
		client, err := bridge.NewClient(nil)
		require.NoError(t, err)
		defer client.Close()
		hotline := NewHotline(client)

		_, err = hotline.Call(ctx, "getDocumentInfo", nil, "abc")
		assert.ErrorIs(t, err, contracts.ErrHostUnavailable)

		_, err = hotline.Call(ctx, "dropTables", nil, "abc")
		assert.ErrorIs(t, err, ErrUnknownOperation)
	})
}

func TestInterceptors(t *testing.T) {
	ctx := context.Background()
	var seen []*interceptors.Invocation
	chain := interceptors.NewChain(nil).Add(interceptors.NewInterceptorFunc("record",
		func(ctx context.Context, inv *interceptors.Invocation, next interceptors.Handler) (json.RawMessage, error) {
			seen = append(seen, inv)
			return next.Handle(ctx, inv)
		}))

	requester := &stubRequester{reply: json.RawMessage(`[]`)}
	s := New(requester, WithEmbed(true), WithInterceptors(chain))

	_, err := s.PickFiles(ctx)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, "sign.pickFiles", seen[0].Key())
	assert.Equal(t, FilePickerTimeout, seen[0].Timeout)

	mockOnly := New(nil, WithInterceptors(chain))
	_, err = mockOnly.PickFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, seen, 1)
}
