package chatclient

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/alertlink/internal/channel/hub"
	"github.com/xiaot623/gogo/alertlink/internal/channel/ws"
	"github.com/xiaot623/gogo/alertlink/internal/config"
	"github.com/xiaot623/gogo/alertlink/internal/domain"
)

type upper struct{}

func (upper) Handle(ctx context.Context, addr domain.Address, text string) string {
	return strings.ToUpper(text)
}

func TestClientRoundTrip(t *testing.T) {
	h := hub.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	cfg := &config.Config{WebSocket: config.WebSocketConfig{
		PingIntervalMS: 1000, WriteTimeoutMS: 1000, ReadTimeoutMS: 5000, MaxMessageBytes: 4096,
	}}
	e := echo.New()
	ws.NewServer(cfg, h, upper{}).RegisterRoutes(e)
	ts := httptest.NewServer(e)
	defer ts.Close()

	client, err := Dial("ws" + strings.TrimPrefix(ts.URL, "http") + "/ws")
	require.NoError(t, err)

	require.NoError(t, client.Hello("", ""))
	assert.True(t, strings.HasPrefix(client.SessionID(), "sess_"))

	events := make(chan Event, 1)
	go client.ReadMessages(func(ev Event) { events <- ev })

	require.NoError(t, client.SendText("/help"))
	select {
	case ev := <-events:
		assert.Equal(t, "/HELP", ev.Text)
		assert.Nil(t, ev.Error)
	case <-time.After(2 * time.Second):
		t.Fatal("no reply")
	}
	require.NoError(t, client.Close())
}
