package acp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/geniusgordon/agentmux"
)

const testTimeout = 5 * time.Second

// testPeer simulates the agent side of a JSON-RPC connection.
// It reads requests from the Conn's writer and sends raw bytes to the Conn's
// reader.
type testPeer struct {
	reqCh  chan rpcMessage    // requests/notifications read from Conn output
	sendFn func([]byte) error // write raw bytes to Conn's read pipe
	close  func()             // close the write end of the read pipe
	done   chan struct{}      // closed when the peer read goroutine exits
}

// newTestConn creates a Conn wired to a testPeer via io.Pipe.
func newTestConn(t *testing.T, cfg connConfig) (*Conn, *testPeer) {
	t.Helper()

	// Conn reads from pr1, peer writes to pw1.
	pr1, pw1 := io.Pipe()
	// Conn writes to pw2, peer reads from pr2.
	pr2, pw2 := io.Pipe()

	conn := newConn(pr1, pw2, cfg)

	peer := &testPeer{
		reqCh: make(chan rpcMessage, 10),
		sendFn: func(b []byte) error {
			_, err := pw1.Write(b)
			return err
		},
		close: func() { pw1.Close() },
		done:  make(chan struct{}),
	}

	dec := json.NewDecoder(pr2)
	go func() {
		defer close(peer.done)
		for {
			var msg rpcMessage
			if err := dec.Decode(&msg); err != nil {
				return
			}
			peer.reqCh <- msg
		}
	}()

	t.Cleanup(func() {
		pw1.Close()
		pw2.Close()
		pr1.Close()
		pr2.Close()
	})

	return conn, peer
}

func (p *testPeer) sendJSON(t *testing.T, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	data = append(data, '\n')
	if err := p.sendFn(data); err != nil {
		t.Fatalf("sendJSON: %v", err)
	}
}

func (p *testPeer) readRequest(t *testing.T) rpcMessage {
	t.Helper()
	select {
	case msg := <-p.reqCh:
		return msg
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for request from Conn")
		return rpcMessage{}
	}
}

func (p *testPeer) respond(t *testing.T, id int64, result any) {
	t.Helper()
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	p.sendJSON(t, rpcResponse{JSONRPC: "2.0", ID: &id, Result: data})
}

func (p *testPeer) respondError(t *testing.T, id int64, code int, message string) {
	t.Helper()
	p.sendJSON(t, rpcResponse{
		JSONRPC: "2.0",
		ID:      &id,
		Error:   &rpcError{Code: code, Message: message},
	})
}

type echoResult struct {
	Value string `json:"value"`
}

func TestConn_Call_Success(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})
	go conn.ReadLoop()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	var got echoResult
	errCh := make(chan error, 1)
	go func() {
		errCh <- conn.Call(ctx, "echo", map[string]string{"value": "hi"}, &got)
	}()

	req := peer.readRequest(t)
	if req.Method != "echo" {
		t.Fatalf("method = %q, want echo", req.Method)
	}
	if req.ID == nil {
		t.Fatal("request has no id")
	}
	peer.respond(t, *req.ID, echoResult{Value: "hi"})

	if err := <-errCh; err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got.Value != "hi" {
		t.Errorf("result = %q, want hi", got.Value)
	}
}

func TestConn_Call_MonotonicIDs(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})
	go conn.ReadLoop()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	var lastID int64
	for i := 0; i < 3; i++ {
		errCh := make(chan error, 1)
		go func() {
			errCh <- conn.Call(ctx, "ping", nil, nil)
		}()
		req := peer.readRequest(t)
		if *req.ID <= lastID {
			t.Fatalf("id %d not greater than previous %d", *req.ID, lastID)
		}
		lastID = *req.ID
		peer.respond(t, *req.ID, struct{}{})
		if err := <-errCh; err != nil {
			t.Fatalf("Call: %v", err)
		}
	}
}

func TestConn_Call_ProtocolError(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})
	go conn.ReadLoop()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- conn.Call(ctx, "session/prompt", nil, nil)
	}()

	req := peer.readRequest(t)
	peer.respondError(t, *req.ID, -32000, "no such session")

	err := <-errCh
	var protoErr *agentmux.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error = %v, want *ProtocolError", err)
	}
	if protoErr.Code != -32000 || protoErr.Method != "session/prompt" {
		t.Errorf("ProtocolError = %+v", protoErr)
	}
}

func TestConn_Call_DecodeErrorFailsOnlyThatCall(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})
	go conn.ReadLoop()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	// First call gets a result that cannot unmarshal into its target.
	var bad struct {
		Value int `json:"value"`
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- conn.Call(ctx, "first", nil, &bad)
	}()
	req := peer.readRequest(t)
	peer.respond(t, *req.ID, map[string]string{"value": "not a number"})

	if err := <-errCh; err == nil {
		t.Fatal("expected decode error")
	}

	// The connection survives: a second call succeeds.
	var good echoResult
	go func() {
		errCh <- conn.Call(ctx, "second", nil, &good)
	}()
	req = peer.readRequest(t)
	peer.respond(t, *req.ID, echoResult{Value: "ok"})
	if err := <-errCh; err != nil {
		t.Fatalf("second Call: %v", err)
	}
	if good.Value != "ok" {
		t.Errorf("result = %q, want ok", good.Value)
	}
}

func TestConn_Call_StreamDeathFailsPending(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})
	go conn.ReadLoop()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- conn.Call(ctx, "hang", nil, nil)
	}()
	peer.readRequest(t) // swallow the request, never respond

	peer.close() // EOF on the Conn's reader

	err := <-errCh
	var tErr *agentmux.TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
}

func TestConn_Call_AfterStreamDeathFailsFast(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})
	go conn.ReadLoop()

	peer.close() // EOF on the Conn's reader
	select {
	case <-conn.Done():
	case <-time.After(testTimeout):
		t.Fatal("ReadLoop never exited")
	}

	// A call issued after the stream died must fail immediately with the
	// recorded failure, even with no caller deadline to fall back on.
	err := conn.Call(context.Background(), "late", nil, nil)
	var tErr *agentmux.TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
}

func TestConn_CloseWithError_FirstWins(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})
	go conn.ReadLoop()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- conn.Call(ctx, "hang", nil, nil)
	}()
	peer.readRequest(t)

	conn.CloseWithError(agentmux.ErrClientStopped)
	peer.close()

	if err := <-errCh; !errors.Is(err, agentmux.ErrClientStopped) {
		t.Fatalf("error = %v, want ErrClientStopped", err)
	}
}

func TestConn_Call_ContextCancelled(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})
	go conn.ReadLoop()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- conn.Call(ctx, "hang", nil, nil)
	}()
	peer.readRequest(t)
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestConn_Notification_Dispatch(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})

	got := make(chan json.RawMessage, 1)
	conn.OnNotification("session/update", func(params json.RawMessage) {
		got <- params
	})
	go conn.ReadLoop()

	peer.sendJSON(t, map[string]any{
		"jsonrpc": "2.0",
		"method":  "session/update",
		"params":  map[string]string{"sessionId": "s1"},
	})

	select {
	case params := <-got:
		if !strings.Contains(string(params), "s1") {
			t.Errorf("params = %s", params)
		}
	case <-time.After(testTimeout):
		t.Fatal("notification not dispatched")
	}
}

func TestConn_ReverseRequest_HandlerResult(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})

	conn.OnMethod("session/request_permission", func(params json.RawMessage) (any, error) {
		return map[string]string{"outcome": "selected"}, nil
	})
	go conn.ReadLoop()

	id := int64(42)
	peer.sendJSON(t, rpcMessage{JSONRPC: "2.0", ID: &id, Method: "session/request_permission"})

	resp := peer.readRequest(t)
	if resp.ID == nil || *resp.ID != 42 {
		t.Fatalf("response id = %v, want 42", resp.ID)
	}
	if !strings.Contains(string(resp.Result), "selected") {
		t.Errorf("result = %s", resp.Result)
	}
}

func TestConn_ReverseRequest_UnknownMethod(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})
	go conn.ReadLoop()

	id := int64(7)
	peer.sendJSON(t, rpcMessage{JSONRPC: "2.0", ID: &id, Method: "fs/read_text_file"})

	resp := peer.readRequest(t)
	if resp.Error == nil || resp.Error.Code != rpcMethodNotFound {
		t.Fatalf("error = %+v, want method-not-found", resp.Error)
	}
}

func TestConn_ReverseRequest_DoesNotBlockReadLoop(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})

	release := make(chan struct{})
	conn.OnMethod("blocking", func(json.RawMessage) (any, error) {
		<-release
		return struct{}{}, nil
	})
	got := make(chan struct{}, 1)
	conn.OnNotification("ping", func(json.RawMessage) {
		got <- struct{}{}
	})
	go conn.ReadLoop()

	id := int64(1)
	peer.sendJSON(t, rpcMessage{JSONRPC: "2.0", ID: &id, Method: "blocking"})
	peer.sendJSON(t, map[string]any{"jsonrpc": "2.0", "method": "ping"})

	select {
	case <-got:
	case <-time.After(testTimeout):
		t.Fatal("ReadLoop blocked behind a reverse-request handler")
	}
	close(release)
}

func TestConn_ParseError_Callback(t *testing.T) {
	parseErrs := make(chan error, 1)
	conn, peer := newTestConn(t, connConfig{
		onParseError: func(_ []byte, err error) {
			parseErrs <- err
		},
	})
	go conn.ReadLoop()

	if err := peer.sendFn([]byte("{not json}\n")); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case <-parseErrs:
	case <-time.After(testTimeout):
		t.Fatal("parse error not reported")
	}
}

func TestConn_NonJSONLinesSkipped(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})

	got := make(chan struct{}, 1)
	conn.OnNotification("ping", func(json.RawMessage) {
		got <- struct{}{}
	})
	go conn.ReadLoop()

	// Startup banner noise, then a real message.
	if err := peer.sendFn([]byte("agent v1.0 starting\n\n")); err != nil {
		t.Fatalf("send: %v", err)
	}
	peer.sendJSON(t, map[string]any{"jsonrpc": "2.0", "method": "ping"})

	select {
	case <-got:
	case <-time.After(testTimeout):
		t.Fatal("message after banner not dispatched")
	}
}

func TestConn_UnsolicitedResponseDropped(t *testing.T) {
	conn, peer := newTestConn(t, connConfig{})
	go conn.ReadLoop()

	id := int64(999)
	peer.sendJSON(t, rpcResponse{JSONRPC: "2.0", ID: &id, Result: json.RawMessage(`{}`)})

	// The connection stays usable.
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- conn.Call(ctx, "ping", nil, nil)
	}()
	req := peer.readRequest(t)
	peer.respond(t, *req.ID, struct{}{})
	if err := <-errCh; err != nil {
		t.Fatalf("Call after unsolicited response: %v", err)
	}
}
