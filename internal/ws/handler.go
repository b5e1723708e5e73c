package ws

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

const (
	writeTimeout = time.Second
	// frames buffered per subscriber before the broadcaster drops them
	subscriberBuffer = 16
)

func (ws *WSServer) Serve() http.Handler {
	mux := http.NewServeMux()

	// main and only route for the WebSocket server
	mux.HandleFunc("/", ws.MainHandler)
	ws.logger.Info("websocket routes registered", zap.Int("port", ws.port))

	return ws.corsMiddleware(mux)
}

func (ws *WSServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// MainHandler upgrades the request and forwards DIGEST and SIGNED frames
// to the client until either side goes away. With ?digest=0x.. only the
// frames of that digest are forwarded.
func (ws *WSServer) MainHandler(w http.ResponseWriter, r *http.Request) {
	ws.logger.Debug("websocket connection request", zap.String("remote", r.RemoteAddr))

	var filter string
	if q := r.URL.Query().Get("digest"); q != "" {
		b, err := hexutil.Decode(q)
		if err != nil || len(b) != ethcommon.HashLength {
			http.Error(w, "invalid digest filter", http.StatusBadRequest)
			return
		}
		filter = ethcommon.BytesToHash(b).Hex()
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		ws.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer c.CloseNow()

	msgChan := make(chan []byte, subscriberBuffer)
	id := ws.manager.RegisterReceiver(msgChan)
	defer ws.manager.UnregisterReceiver(id)

	// Subscribers only listen; CloseRead handles control frames and
	// cancels ctx once the peer disconnects.
	ctx := c.CloseRead(r.Context())

	for {
		select {
		case m, ok := <-msgChan:
			if !ok {
				c.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if filter != "" && frameDigest(m) != filter {
				continue
			}
			if err := write(ctx, c, m); err != nil {
				ws.logger.Debug("failed to write message", zap.Uint64("subscriber", id), zap.Error(err))
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// frameDigest returns the digest token of an "EVENT <digest> ..." frame.
func frameDigest(frame []byte) string {
	fields := bytes.SplitN(frame, []byte(" "), 3)
	if len(fields) < 2 {
		return ""
	}
	return string(fields[1])
}

func write(ctx context.Context, c *websocket.Conn, m []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, m)
}
