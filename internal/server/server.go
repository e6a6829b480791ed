// Package server implements the TCP request channel: one goroutine per
// accepted connection reads framed commands and hands them, one at a time,
// to a single state-owning dispatch goroutine. Responses travel back
// unframed, as raw UTF-8 bytes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"

	"github.com/worth-collab/worth-server/internal/api/metrics"
	"github.com/worth-collab/worth-server/internal/core/ports"
	"github.com/worth-collab/worth-server/internal/protocol"
)

// request is one framed command in flight between a connection goroutine
// and the dispatch goroutine.
type request struct {
	endpoint string
	verb     string
	args     []string
	reply    chan string
}

// Server accepts TCP connections and routes framed requests through the
// handler table. All Project/Card/Presence mutation triggered by TCP
// requests happens on the dispatch goroutine, strictly sequentially across
// every connection.
type Server struct {
	addr     string
	presence ports.PresenceService
	board    ports.BoardService
	logger   zerolog.Logger

	requests chan request
	handlers map[string]handlerFunc
}

func New(addr string, presence ports.PresenceService, board ports.BoardService, logger zerolog.Logger) *Server {
	s := &Server{
		addr:     addr,
		presence: presence,
		board:    board,
		logger:   logger,
		requests: make(chan request),
	}
	s.handlers = s.handlerTable()
	return s
}

// ListenAndServe accepts connections until ctx is cancelled or the listener
// fails. It owns the dispatch goroutine for its whole lifetime.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.addr, err)
	}
	defer ln.Close()

	go s.dispatchLoop(ctx)
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.logger.Info().Str("addr", s.addr).Msg("waiting for connections")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		s.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("accepted new client connection")
		go s.serveConn(ctx, conn)
	}
}

// serveConn reads framed requests from one connection and writes back the
// responses. An I/O error in either direction closes the connection; the
// session bound to its endpoint, if any, is dropped.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	endpoint := conn.RemoteAddr().String()
	metrics.ConnectionsOpen.Inc()
	defer func() {
		metrics.ConnectionsOpen.Dec()
		conn.Close()
		s.dropSession(ctx, endpoint)
	}()

	dec := protocol.NewDecoder(conn)
	for {
		req, err := dec.Next()
		if err != nil {
			s.logger.Debug().Err(err).Str("remote", endpoint).Msg("client connection closed")
			return
		}

		reply := make(chan string, 1)
		select {
		case s.requests <- request{endpoint: endpoint, verb: req.Verb, args: req.Args, reply: reply}:
		case <-ctx.Done():
			return
		}

		var resp string
		select {
		case resp = <-reply:
		case <-ctx.Done():
			return
		}

		if _, err := conn.Write([]byte(resp)); err != nil {
			s.logger.Warn().Err(err).Str("remote", endpoint).Msg("failed to write response")
			return
		}
	}
}

// dispatchLoop is the single owner of all request-driven state mutation.
// Exactly one frame is processed at a time, server-wide.
func (s *Server) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.requests:
			req.reply <- s.dispatch(ctx, req)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) string {
	h, ok := s.handlers[req.verb]
	if !ok {
		metrics.RequestsTotal.WithLabelValues("unknown").Inc()
		s.logger.Debug().Str("verb", req.verb).Str("remote", req.endpoint).Msg("unknown command")
		return usageHint
	}
	metrics.RequestsTotal.WithLabelValues(req.verb).Inc()
	s.logger.Debug().Str("verb", req.verb).Str("remote", req.endpoint).Msg("received operation")
	return h(ctx, req.endpoint, req.args)
}

// dropSession logs out whatever Online user is still bound to a closed
// connection's endpoint, so a stale endpoint can never resolve again.
func (s *Server) dropSession(ctx context.Context, endpoint string) {
	nick, err := s.presence.Logout(ctx, endpoint)
	if err != nil {
		return // nobody was logged in here
	}
	s.logger.Info().Str("nick", nick).Str("remote", endpoint).Msg("session dropped on disconnect")
}
