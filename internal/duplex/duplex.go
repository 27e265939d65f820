// Package duplex is the bidirectional channel the session loop owns for one
// connection. The wire framing this repo picked is JSON-over-text-frame
// (see the session package for the envelope), so "non-binary" at the
// transport level becomes "non-text" here; a closed peer or any other
// frame type both surface as a DuplexError, which the session loop treats
// as the normal way a connection ends, not an exceptional one.
package duplex

import (
	"context"
	"sync"

	"epis-realtime/server/internal/errors"

	"github.com/gofiber/contrib/websocket"
)

// AudioDuplex is the capability set the session loop depends on to move
// wire-level frames in and out; encoding/decoding the JSON envelope and the
// base64 audio payload inside it is the session package's job, not this one.
type AudioDuplex interface {
	Send(ctx context.Context, data []byte) error
	Receive(ctx context.Context) ([]byte, error)
}

// WSAudioDuplex adapts a single WebSocket connection. Writes are serialized
// with a mutex since the underlying fasthttp websocket connection doesn't
// allow concurrent writers.
type WSAudioDuplex struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func NewWSAudioDuplex(conn *websocket.Conn) *WSAudioDuplex {
	return &WSAudioDuplex{conn: conn}
}

func (d *WSAudioDuplex) Send(ctx context.Context, data []byte) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	if err := d.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(err, errors.ErrDuplex)
	}
	return nil
}

func (d *WSAudioDuplex) Receive(ctx context.Context) ([]byte, error) {
	msgType, data, err := d.conn.ReadMessage()
	if err != nil {
		return nil, errors.New(errors.ErrDuplex, "peer closed or read failed: "+err.Error())
	}
	if msgType != websocket.TextMessage {
		return nil, errors.New(errors.ErrDuplex, "non-text frame received")
	}
	return data, nil
}
