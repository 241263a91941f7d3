// Package server exposes a reusable DICOM SCP listener that wires an
// incoming TCP connection to an upperlayer Association and a DIMSE
// Provider backed by a caller-supplied Registry of service handlers.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/dicomnet-go/dicomcore/dimse"
	"github.com/dicomnet-go/dicomcore/upperlayer"
)

// Option configures a Server instance.
type Option func(*Server)

// WithLogger overrides the logger used by the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithReadTimeout sets the read timeout for client connections.
func WithReadTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.ReadTimeout = timeout
	}
}

// WithWriteTimeout sets the write timeout for client connections.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.WriteTimeout = timeout
	}
}

// WithMaxPDULength overrides the Maximum Length sub-item advertised
// during association negotiation (default: 16384 per spec §6).
func WithMaxPDULength(n uint32) Option {
	return func(s *Server) {
		s.MaxPDULength = n
	}
}

// WithARTIMTimeout overrides the ARTIM timer duration (spec §4.3.3).
func WithARTIMTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.ARTIMTimeout = timeout
	}
}

// Server exposes a reusable DICOM listener that wires the upperlayer
// association state machine to a DIMSE Provider for every accepted
// connection.
type Server struct {
	AETitle      string
	Registry     *dimse.Registry
	Logger       *slog.Logger
	ReadTimeout  time.Duration // Read timeout for connections (zero: no deadline)
	WriteTimeout time.Duration // Write timeout for connections (zero: no deadline)
	MaxPDULength uint32
	ARTIMTimeout time.Duration
}

// New builds a Server with the provided AE title and service registry.
func New(aeTitle string, registry *dimse.Registry, opts ...Option) *Server {
	srv := &Server{AETitle: aeTitle, Registry: registry}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// ListenAndServe listens on the given address and serves until the context is done or an error occurs.
func ListenAndServe(ctx context.Context, address, aeTitle string, registry *dimse.Registry, opts ...Option) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	defer listener.Close()

	srv := New(aeTitle, registry, opts...)
	return srv.Serve(ctx, listener)
}

// Serve accepts connections from listener until ctx is cancelled or an unrecoverable error occurs.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	if listener == nil {
		return errors.New("dicomserver: listener is required")
	}
	if s == nil {
		return errors.New("dicomserver: server is nil")
	}
	if s.Registry == nil {
		return errors.New("dicomserver: registry is required")
	}
	if s.AETitle == "" {
		return errors.New("dicomserver: AE title is required")
	}

	logger := s.logger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	logger.Info("DICOM server listening",
		"address", listener.Addr().String(),
		"ae_title", s.AETitle)

	var (
		wg       sync.WaitGroup
		serveErr error
	)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				logger.Warn("Accept timeout", "error", err)
				continue
			}
			serveErr = err
			break
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			s.handleConnection(ctx, c, logger)
		}(conn)
	}

	wg.Wait()

	if serveErr != nil {
		return serveErr
	}

	return ctx.Err()
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn, logger *slog.Logger) {
	logger.Info("Accepted DICOM connection",
		"remote_addr", conn.RemoteAddr())

	if s.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
			logger.Warn("Failed to set read deadline", "error", err)
		}
	}
	if s.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.WriteTimeout)); err != nil {
			logger.Warn("Failed to set write deadline", "error", err)
		}
	}

	maxPDU := s.MaxPDULength
	if maxPDU == 0 {
		maxPDU = 16384
	}
	artim := s.ARTIMTimeout
	if artim == 0 {
		artim = upperlayer.DefaultARTIMTimeout
	}

	provider := dimse.NewProvider(s.Registry, logger)
	assoc := upperlayer.NewServerAssociation(conn, upperlayer.Config{
		CalledAETitle: s.AETitle,
		MaxPDULength:  maxPDU,
		ARTIMTimeout:  artim,
		Logger:        logger,
	}, provider)
	provider.Bind(assoc)

	if err := assoc.Run(); err != nil && ctx.Err() == nil {
		logger.Warn("DICOM association ended",
			"error", err,
			"remote_addr", conn.RemoteAddr())
	} else {
		logger.Info("DICOM association closed",
			"remote_addr", conn.RemoteAddr())
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
