package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

// Submit sends one request to the simulation service at addr and waits for
// its result. Trace events are passed to onEvent when it is non-nil. The
// returned id is empty unless the server stores runs.
func Submit(ctx context.Context, addr string, req RequestView, onEvent func(EventView)) (*ResultView, string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, "", fmt.Errorf("set deadline: %w", err)
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := json.NewEncoder(conn).Encode(ClientMessage{Type: TypeSimulate, Request: &req}); err != nil {
		return nil, "", fmt.Errorf("send request: %w", err)
	}

	dec := json.NewDecoder(conn)
	for {
		var msg ServerMessage
		if err := dec.Decode(&msg); err != nil {
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			return nil, "", fmt.Errorf("read message: %w", err)
		}

		switch msg.Type {
		case TypeEvent:
			if onEvent != nil && msg.Event != nil {
				onEvent(*msg.Event)
			}
		case TypeResult:
			if msg.Result == nil {
				return nil, "", errors.New("result message without result")
			}
			return msg.Result, msg.RunID, nil
		case TypeError:
			return nil, "", fmt.Errorf("server: %s", msg.Error)
		default:
			return nil, "", fmt.Errorf("unexpected message type %q", msg.Type)
		}
	}
}
