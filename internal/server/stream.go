package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"accentscope/internal/acquire"
	"accentscope/internal/analysis"
	"accentscope/internal/api"
	"accentscope/internal/logging"
	"accentscope/internal/services"
)

const (
	streamReadLimit    = 4 << 10
	streamFirstMessage = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// handleStream runs one URL analysis per connection. Closing the socket
// cancels the analysis.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx, requestID := withRequestID(ctx)
	logger := logging.WithContext(ctx, s.logger)

	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamFirstMessage))
	var body api.StreamRequest
	if err := conn.ReadJSON(&body); err != nil {
		verr := services.Wrap(services.ErrValidation, "validate", "stream", "expected a JSON message with a url field", err)
		s.sendEvent(conn, api.ErrorEvent(verr, requestID))
		s.closeStream(conn)
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	report, err := s.analyzer.Analyze(ctx, acquire.Request{URL: strings.TrimSpace(body.URL)}, func(p analysis.Progress) {
		s.sendEvent(conn, api.FromProgress(p))
	})
	if ctx.Err() != nil {
		logger.Info("stream closed by client before completion")
		return
	}
	if err != nil {
		s.sendEvent(conn, api.ErrorEvent(err, requestID))
	} else {
		s.sendEvent(conn, api.ResultEvent(report))
	}
	s.closeStream(conn)
}

func (s *Server) sendEvent(conn *websocket.Conn, event api.StreamEvent) {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(event); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		s.logger.Debug("stream write failed", logging.String("event", event.Type), logging.Error(err))
	}
}

func (s *Server) closeStream(conn *websocket.Conn) {
	deadline := time.Now().Add(streamWriteTimeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}
