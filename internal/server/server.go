// Package server exposes the carrier operations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/carrierlink/internal/booking"
	"github.com/tournevent/carrierlink/pkg/shipper"
)

// Server is the HTTP server for the carrier service.
type Server struct {
	port     int
	version  string
	service  *booking.Service
	registry *shipper.Registry
	logger   *otelzap.Logger
	echo     *echo.Echo
}

// Config holds server configuration.
type Config struct {
	Port    int
	Version string
}

// New creates a server and registers its routes.
func New(cfg Config, service *booking.Service, registry *shipper.Registry, logger *otelzap.Logger) *Server {
	s := &Server{
		port:     cfg.Port,
		version:  cfg.Version,
		service:  service,
		registry: registry,
		logger:   logger,
	}
	s.echo = s.routes()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()
	e.HTTPErrorHandler = s.handleError

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1")
	v1.POST("/rates", s.handleRate)
	v1.POST("/rates/shop", s.handleRateShop)
	v1.POST("/shipments/:id/book", s.handleBook)
	v1.POST("/shipments/:id/cancel", s.handleCancel)
	v1.POST("/shipments/:id/labels", s.handleLabel)
	v1.GET("/tracking/:carrier/:trackingNumber", s.handleTracking)
	return e
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.echo,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:   "ok",
		Version:  s.version,
		Carriers: s.registry.Names(),
	})
}

func (s *Server) handleRate(c echo.Context) error {
	var req rateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	out := s.service.Rate(c.Request().Context(), booking.RateCommand{
		RateID:    req.RateID,
		CarrierID: req.CarrierID,
		Request:   &req.RateRequest,
	})
	return c.JSON(statusFor(out.Success, out.ErrorKind), out)
}

func (s *Server) handleRateShop(c echo.Context) error {
	var req shopRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	out := s.service.RateShop(c.Request().Context(), req.CarrierIDs, &req.RateRequest)
	return c.JSON(statusFor(out.Success, out.ErrorKind), out)
}

func (s *Server) handleBook(c echo.Context) error {
	var req bookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	out := s.service.Book(c.Request().Context(), booking.BookCommand{
		ShipmentID: c.Param("id"),
		RateID:     req.RateID,
		CarrierID:  req.CarrierID,
		Request:    &req.RateRequest,
	})
	return c.JSON(statusFor(out.Success, out.ErrorKind), out)
}

func (s *Server) handleCancel(c echo.Context) error {
	var req shipmentActionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	out := s.service.Cancel(c.Request().Context(), booking.CancelCommand{
		ShipmentID:        c.Param("id"),
		CarrierID:         req.CarrierID,
		CarrierShipmentID: req.CarrierShipmentID,
	})
	return c.JSON(statusFor(out.Success, out.ErrorKind), out)
}

func (s *Server) handleLabel(c echo.Context) error {
	var req shipmentActionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	out := s.service.GenerateLabel(c.Request().Context(), booking.LabelCommand{
		ShipmentID:        c.Param("id"),
		CarrierID:         req.CarrierID,
		CarrierShipmentID: req.CarrierShipmentID,
	})
	return c.JSON(statusFor(out.Success, out.ErrorKind), out)
}

func (s *Server) handleTracking(c echo.Context) error {
	out := s.service.History(c.Request().Context(), c.Param("carrier"), c.Param("trackingNumber"))
	return c.JSON(statusFor(out.Success, out.ErrorKind), out)
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

// statusFor maps an outcome to its HTTP status.
func statusFor(success bool, kind shipper.ErrorKind) int {
	if success {
		return http.StatusOK
	}
	switch kind {
	case shipper.KindCarrier, shipper.KindValidation, shipper.KindUnsupported:
		return http.StatusUnprocessableEntity
	case shipper.KindNetwork, shipper.KindProtocol:
		return http.StatusBadGateway
	case shipper.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// handleError renders echo errors in the response envelope.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, msg := http.StatusInternalServerError, "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code, msg = he.Code, fmt.Sprintf("%v", he.Message)
	} else {
		s.logger.Ctx(c.Request().Context()).Error("Unhandled error",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	kind := shipper.ErrorKind("")
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = shipper.KindValidation
	case http.StatusNotFound:
		kind = shipper.KindNotFound
	}
	_ = c.JSON(code, envelope{Success: false, Error: msg, ErrorKind: kind})
}
