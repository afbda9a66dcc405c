// Package server exposes the converter over HTTP.
package server

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/nicholasgasior/docconv-go"
	"github.com/nicholasgasior/docconv-go/internal/config"
)

// Server is the HTTP front end of a Converter.
type Server struct {
	app    *fiber.App
	conv   *docconv.Converter
	cfg    config.ServerConfig
	logger *slog.Logger
}

// New wires routes and middleware.
func New(conv *docconv.Converter, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{conv: conv, cfg: cfg, logger: logger}

	s.app = fiber.New(fiber.Config{
		AppName:               "docconv",
		BodyLimit:             cfg.MaxUploadBytes(),
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))
	if cfg.AccessLog {
		s.app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency} ${respHeader:X-Request-ID}\n",
			Output: os.Stderr,
		}))
	}
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.CORSOrigins, ","),
		AllowMethods:  "POST,OPTIONS",
		AllowHeaders:  "Content-Type",
		ExposeHeaders: "Content-Disposition,X-Filename,X-Request-ID",
	}))

	s.app.Get("/healthz", s.handleHealth)
	for _, path := range []string{"/", "/api/convert"} {
		s.app.Post(path, s.handleConvert)
		s.app.Options(path, s.handlePreflight)
		s.app.All(path, s.handleMethodNotAllowed)
	}
	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on the configured address until Shutdown.
func (s *Server) Listen() error {
	s.logger.Info("listening", "addr", s.cfg.Addr, "max_upload_mb", s.cfg.MaxUploadMB)
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handlePreflight(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleMethodNotAllowed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, "POST, OPTIONS")
	return newAPIError(fiber.StatusMethodNotAllowed, "method not allowed", nil)
}

// handleConvert reads the "file" part and "format" field and returns the
// converted bytes as an attachment.
func (s *Server) handleConvert(c *fiber.Ctx) error {
	var in docconv.Input
	if fh, err := c.FormFile("file"); err == nil {
		if in, err = readUpload(fh); err != nil {
			return newAPIError(fiber.StatusBadRequest, "could not read uploaded file", err)
		}
	}

	out, err := s.conv.Convert(c.UserContext(), in, c.FormValue("format"))
	if err != nil {
		return classify(err)
	}

	s.logger.Info("converted",
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		"source", in.Filename,
		"target", out.Filename,
		"in_bytes", len(in.Data),
		"out_bytes", len(out.Data),
	)

	c.Attachment(out.Filename)
	c.Set(fiber.HeaderContentType, out.MIMEType)
	c.Set("X-Filename", out.Filename)
	return c.Send(out.Data)
}

func readUpload(fh *multipart.FileHeader) (docconv.Input, error) {
	f, err := fh.Open()
	if err != nil {
		return docconv.Input{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return docconv.Input{}, err
	}
	return docconv.Input{Data: data, Filename: fh.Filename}, nil
}
