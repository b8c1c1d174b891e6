package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ai-travel-planner/internal/observability/logging"
	"ai-travel-planner/internal/observability/metrics"
	"ai-travel-planner/internal/service/spark"
)

const closeWriteWait = time.Second

// ClientConfig holds streaming client settings.
type ClientConfig struct {
	HandshakeTimeout time.Duration
	// ReadTimeout bounds the gap between two inbound frames. Zero disables it.
	ReadTimeout time.Duration
}

// Client streams one chat payload per Run over a fresh websocket connection.
type Client struct {
	dialer      *websocket.Dialer
	readTimeout time.Duration
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewClient creates a streaming client. A nil m uses metrics.DefaultMetrics.
func NewClient(cfg ClientConfig, m *metrics.Metrics) *Client {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Client{
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		readTimeout: cfg.ReadTimeout,
		metrics:     m,
		logger:      logging.WithComponent("spark-client"),
	}
}

// Run opens a connection to endpoint, sends payload once and consumes frames
// until the arbiter resolves. The connection is closed and the reader is
// stopped before Run returns. Cancelling ctx forces the connection closed and
// yields a cancelled outcome.
func (c *Client) Run(ctx context.Context, endpoint spark.SignedEndpoint, payload spark.ChatPayload) Outcome {
	arb := NewArbiter()

	conn, resp, err := c.dialer.DialContext(ctx, endpoint.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if ctx.Err() != nil {
			arb.Cancel(context.Cause(ctx))
		} else {
			arb.Fail(dialError(err, resp))
		}
		return arb.Outcome()
	}

	var closeOnce sync.Once
	closeConn := func(notify bool) {
		closeOnce.Do(func() {
			if notify {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
			}
			_ = conn.Close()
		})
	}

	if err := conn.WriteJSON(payload); err != nil {
		arb.Fail(fmt.Errorf("send request: %w", err))
		closeConn(false)
		return arb.Outcome()
	}

	conn.SetCloseHandler(func(code int, text string) error {
		c.logger.Debug().Int("code", code).Str("reason", text).Msg("Provider closed connection")
		arb.Closed()
		return nil
	})

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		c.readLoop(conn, arb)
	}()

	select {
	case <-arb.Done():
	case <-ctx.Done():
		if arb.Cancel(context.Cause(ctx)) {
			c.logger.Debug().Msg("Generation cancelled by caller")
		}
	}

	out := arb.Outcome()
	closeConn(out.Event != EventTransport)
	<-readerDone
	return out
}

func (c *Client) readLoop(conn *websocket.Conn, arb *Arbiter) {
	for {
		if c.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			var netErr net.Error
			switch {
			case errors.As(err, &closeErr):
				arb.Closed()
			case errors.As(err, &netErr) && netErr.Timeout():
				arb.Fail(fmt.Errorf("no frame received within %s: %w", c.readTimeout, err))
			default:
				arb.Fail(err)
			}
			return
		}

		frame := spark.ParseFrame(data)
		c.metrics.RecordFrame(frame.Kind.String())
		if frame.Code != 0 {
			c.logger.Warn().Int64("code", frame.Code).Str("message", frame.Message).Msg("Provider reported error code")
		}

		switch frame.Kind {
		case spark.FrameMalformed:
			c.logger.Warn().Err(frame.Err).Int("bytes", len(data)).Msg("Dropping malformed frame")
		case spark.FramePartial:
			arb.Append(frame.Text)
		case spark.FrameTerminal:
			arb.Append(frame.Text)
			arb.Terminal()
			return
		}
	}
}

func dialError(err error, resp *http.Response) error {
	if resp != nil {
		return fmt.Errorf("dial: handshake status %d: %w", resp.StatusCode, err)
	}
	return fmt.Errorf("dial: %w", err)
}
