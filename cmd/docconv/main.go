// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nicholasgasior/docconv-go"
	"github.com/nicholasgasior/docconv-go/internal/config"
	"github.com/nicholasgasior/docconv-go/internal/server"
)

var version = "dev"

func main() {
	var (
		target      string
		output      string
		extension   string
		configPath  string
		addr        string
		serve       bool
		showVersion bool
	)

	flag.StringVar(&target, "t", "", "Target format: pdf, docx, txt, html, md")
	flag.StringVar(&target, "to", "", "Target format: pdf, docx, txt, html, md")
	flag.StringVar(&output, "o", "", "Output file (default: stdout)")
	flag.StringVar(&output, "output", "", "Output file (default: stdout)")
	flag.StringVar(&extension, "x", "", "Source extension hint (for stdin input)")
	flag.StringVar(&extension, "extension", "", "Source extension hint (for stdin input)")
	flag.StringVar(&configPath, "config", "", "Config file (.toml, .yaml)")
	flag.StringVar(&addr, "addr", "", "Listen address, overrides server.addr")
	flag.BoolVar(&serve, "serve", false, "Run the HTTP conversion service")
	flag.BoolVar(&showVersion, "v", false, "Show version")
	flag.BoolVar(&showVersion, "version", false, "Show version")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docconv [flags] -to FORMAT [source]\n")
		fmt.Fprintf(os.Stderr, "       docconv -serve [-config FILE] [-addr ADDR]\n\n")
		fmt.Fprintf(os.Stderr, "Convert .msg, .eml, office documents and text files to PDF, DOCX, TXT, HTML or Markdown.\n\n")
		fmt.Fprintf(os.Stderr, "Arguments:\n")
		fmt.Fprintf(os.Stderr, "  source    File path to convert (reads stdin if omitted)\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("docconv %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	conv, err := newConverter(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if serve {
		if err := runServer(conv, cfg, logger); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := convertOnce(conv, flag.Args(), target, extension, output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newConverter(cfg *config.Config, logger *slog.Logger) (*docconv.Converter, error) {
	regular, bold, err := cfg.Convert.Fonts()
	if err != nil {
		return nil, err
	}
	opts := []docconv.Option{
		docconv.WithLogger(logger),
		docconv.WithPageSize(cfg.Convert.PageSize),
		docconv.WithKeepDataURIs(cfg.Convert.KeepDataURIs),
	}
	if regular != nil {
		opts = append(opts, docconv.WithFonts(regular, bold))
	}
	return docconv.New(opts...), nil
}

func runServer(conv *docconv.Converter, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(conv, cfg.Server, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func convertOnce(conv *docconv.Converter, args []string, target, extension, output string) error {
	if target == "" {
		return errors.New("missing -to format")
	}

	var in docconv.Input
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		in = docconv.Input{Data: data, Filename: "stdin"}
		if ext := strings.TrimPrefix(strings.ToLower(extension), "."); ext != "" {
			in.Filename += "." + ext
		}
	} else {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		in = docconv.Input{Data: data, Filename: filepath.Base(args[0])}
	}

	out, err := conv.Convert(context.Background(), in, target)
	if err != nil {
		return err
	}

	if output == "" {
		_, err = os.Stdout.Write(out.Data)
		return err
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(output, out.Data, 0o644)
}
