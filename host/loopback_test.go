package host

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/glimte/walletbridge/bridge"
	"github.com/glimte/walletbridge/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextEvent(t *testing.T, l *Loopback) contracts.Event {
	t.Helper()
	select {
	case evt := <-l.Events():
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event from loopback host")
		return contracts.Event{}
	}
}

func TestLoopback(t *testing.T) {
	t.Run("handler result becomes a success response", func(t *testing.T) {
		l := NewLoopback()
		defer l.Close()
		l.Handle("dashboard", "getDocuments", func(ctx context.Context, msg contracts.HostMessage) (interface{}, error) {
			return []string{"pid", "mdl"}, nil
		})

		require.NoError(t, l.PostMessage(context.Background(), "dashboard", contracts.HostMessage{ID: "1", Function: "getDocuments"}))

		resp, err := nextEvent(t, l).Response()
		require.NoError(t, err)
		assert.Equal(t, "1", resp.ID)
		assert.True(t, resp.IsSuccess())
		assert.JSONEq(t, `["pid","mdl"]`, string(resp.Data))

		posted := l.Posted()
		require.Len(t, posted, 1)
		assert.Equal(t, "dashboard", posted[0].Bridge)
	})

	t.Run("handler error becomes a failed response", func(t *testing.T) {
		l := NewLoopback()
		defer l.Close()
		l.Handle("sign", "signDocument", func(ctx context.Context, msg contracts.HostMessage) (interface{}, error) {
			return nil, errors.New("user cancelled")
		})

		require.NoError(t, l.PostMessage(context.Background(), "sign", contracts.HostMessage{ID: "2", Function: "signDocument"}))

		resp, err := nextEvent(t, l).Response()
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, resp.Status)
		assert.JSONEq(t, `"user cancelled"`, string(resp.Error))
	})

	t.Run("unknown function fails", func(t *testing.T) {
		l := NewLoopback()
		defer l.Close()

		require.NoError(t, l.PostMessage(context.Background(), "nope", contracts.HostMessage{ID: "3", Function: "missing"}))

		resp, err := nextEvent(t, l).Response()
		require.NoError(t, err)
		assert.False(t, resp.IsSuccess())
	})

	t.Run("ErrNoResponse swallows the message", func(t *testing.T) {
		l := NewLoopback()
		defer l.Close()
		l.Handle("app", "getState", func(ctx context.Context, msg contracts.HostMessage) (interface{}, error) {
			return nil, ErrNoResponse
		})

		require.NoError(t, l.PostMessage(context.Background(), "app", contracts.HostMessage{ID: "4", Function: "getState"}))

		select {
		case evt := <-l.Events():
			t.Fatalf("unexpected event %s", evt.Name)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("closed host is unavailable", func(t *testing.T) {
		l := NewLoopback()
		require.NoError(t, l.Close())
		require.NoError(t, l.Close())

		err := l.PostMessage(context.Background(), "app", contracts.HostMessage{ID: "5", Function: "getState"})
		assert.ErrorIs(t, err, contracts.ErrHostUnavailable)
		assert.ErrorIs(t, l.Navigate(&contracts.NavigationEvent{Path: "home"}), contracts.ErrHostUnavailable)

		_, open := <-l.Events()
		assert.False(t, open)
	})
}

func TestLoopbackWithBridgeClient(t *testing.T) {
	t.Run("requests round trip through the event stream", func(t *testing.T) {
		l := NewLoopback(WithResponseDelay(5 * time.Millisecond))
		l.Handle("settings", "setLanguage", func(ctx context.Context, msg contracts.HostMessage) (interface{}, error) {
			var params struct {
				Language string `json:"language"`
			}
			if err := json.Unmarshal(msg.Data, &params); err != nil {
				return nil, err
			}
			return map[string]string{"language": params.Language}, nil
		})

		client, err := bridge.NewClient(l)
		require.NoError(t, err)
		defer client.Close()
		defer l.Close()

		data, err := client.Request(context.Background(), "settings", "setLanguage", map[string]string{"language": "lv"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"language":"lv"}`, string(data))
	})

	t.Run("silent host times out and the late answer is dropped", func(t *testing.T) {
		l := NewLoopback()
		l.Handle("presentation", "confirmRequest", func(ctx context.Context, msg contracts.HostMessage) (interface{}, error) {
			return nil, ErrNoResponse
		})

		client, err := bridge.NewClient(l)
		require.NoError(t, err)
		defer client.Close()
		defer l.Close()

		_, err = client.Request(context.Background(), "presentation", "confirmRequest", nil,
			bridge.WithCorrelationID("slow"), bridge.WithTimeout(30*time.Millisecond))
		require.ErrorIs(t, err, contracts.ErrTimeout)

		require.NoError(t, l.Respond(&contracts.ResponseEvent{ID: "slow", Status: contracts.StatusSuccess}))
		assert.Never(t, func() bool { return client.Pending() != 0 }, 50*time.Millisecond, 5*time.Millisecond)
	})
}
