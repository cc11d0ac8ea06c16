package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	reconnectDelay = 2 * time.Second
	readTimeout    = 2 * pingPeriod
)

// Update is the client side view of a Message.
type Update struct {
	Kind    string `json:"kind"`
	Trades  int    `json:"trades"`
	Summary *struct {
		Wins        int      `json:"wins"`
		Losses      int      `json:"losses"`
		TotalProfit *float64 `json:"totalProfit"`
		WinRate     float64  `json:"winRate"`
		Incomplete  int      `json:"incomplete"`
	} `json:"summary"`
}

// Watch follows the stream at url and calls fn for every update until ctx
// is done, reconnecting after failures.
func Watch(ctx context.Context, url string, log *zap.Logger, fn func(Update)) error {
	if log == nil {
		log = zap.NewNop()
	}
	for {
		if err := watchOnce(ctx, url, fn); err != nil && ctx.Err() == nil {
			log.Warn("stream disconnected", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
			log.Info("stream reconnecting...")
		}
	}
}

func watchOnce(ctx context.Context, url string, fn func(Update)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var u Update
		if err := json.Unmarshal(msg, &u); err != nil {
			continue
		}
		fn(u)
	}
}
