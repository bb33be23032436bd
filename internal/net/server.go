package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/peterkuimelis/lanesim/internal/log"
)

// Server answers simulation requests from TCP clients. Each connection sends
// newline-delimited ClientMessages and gets one ServerMessage stream back per
// request: optional "event" messages, then a "result" or "error".
type Server struct {
	Runner *Runner
	Logger *zap.Logger
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes ln and
// waits for open connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		conns = make(map[net.Conn]struct{})
	)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		ln.Close()
		mu.Lock()
		for c := range conns {
			c.Close()
		}
		mu.Unlock()
	}()

	s.logger().Info("simulation service listening", zap.String("addr", ln.Addr().String()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			mu.Lock()
			for c := range conns {
				c.Close()
			}
			mu.Unlock()
			wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		mu.Lock()
		conns[conn] = struct{}{}
		mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				mu.Lock()
				delete(conns, conn)
				mu.Unlock()
				conn.Close()
			}()
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	logger := s.logger().With(zap.String("remote", conn.RemoteAddr().String()))
	logger.Debug("client connected")

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var msg ClientMessage
		if err := dec.Decode(&msg); err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				logger.Warn("read message", zap.Error(err))
			}
			return
		}

		var reply ServerMessage
		switch {
		case msg.Type != TypeSimulate:
			reply = ServerMessage{Type: TypeError, Error: fmt.Sprintf("unknown message type %q", msg.Type)}
		case msg.Request == nil:
			reply = ServerMessage{Type: TypeError, Error: "missing request"}
		default:
			reply = s.simulate(ctx, enc, *msg.Request)
		}
		if err := enc.Encode(reply); err != nil {
			logger.Warn("send reply", zap.Error(err))
			return
		}
	}
}

func (s *Server) simulate(ctx context.Context, enc *json.Encoder, req RequestView) ServerMessage {
	var trace log.EventLogger
	if req.Trace {
		trace = log.NewFuncLogger(func(e log.GameEvent) {
			ev := NewEventView(e)
			_ = enc.Encode(ServerMessage{Type: TypeEvent, Event: &ev})
		})
	}

	res, id, err := s.Runner.Run(ctx, req, trace)
	if err != nil {
		return ServerMessage{Type: TypeError, Error: err.Error()}
	}
	return ServerMessage{Type: TypeResult, Result: NewResultView(res), RunID: id}
}
