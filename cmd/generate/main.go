package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/timmy/captionly/internal/app"
	"github.com/timmy/captionly/internal/config"
	"github.com/timmy/captionly/internal/domain"
	"github.com/timmy/captionly/internal/logger"
	"github.com/timmy/captionly/internal/service"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "warn",
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "captionly-generate",
	})
	logger.SetDefaultLogger(appLogger)

	description := flag.String("description", "", "Scene description (at least 10 characters)")
	tones := flag.String("tones", "casual", "Comma-separated tones, or a JSON array")
	imagePath := flag.String("image", "", "Optional path to an image file")
	save := flag.Bool("save", false, "Persist the result to the configured store")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if !*save {
		cfg.Database.Driver = "memory"
		cfg.Storage.Enabled = false
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.Build(ctx, cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize application")
	}
	defer application.Close()

	raw, err := buildRequest(*description, *tones, *imagePath, application.Validator.MaxImageBytes())
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to read input")
	}

	req, err := application.Validator.Validate(raw)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Errors {
				fmt.Fprintf(os.Stderr, "%s: %s\n", fe.Field, fe.Message)
			}
			os.Exit(2)
		}
		appLogger.WithError(err).Fatal("Invalid request")
	}

	rec, err := application.Captions.Generate(ctx, req)
	if err != nil {
		appLogger.WithError(err).Fatal("Caption generation failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		appLogger.WithError(err).Fatal("Failed to write output")
	}
}

func buildRequest(description, tones, imagePath string, maxImageBytes int64) (service.RawGenerationRequest, error) {
	raw := service.RawGenerationRequest{Description: description}

	decoded, err := service.DecodeTones(splitTones(tones))
	if err != nil {
		raw.DecodeErrors = append(raw.DecodeErrors, domain.FieldError{Field: "tones", Message: service.MsgTonesMalformed})
	} else {
		raw.Tones = decoded
	}

	if imagePath == "" {
		return raw, nil
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return raw, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return raw, fmt.Errorf("read image: %w", err)
	}
	info, _ := service.SniffImage(data)
	raw.Image = &domain.ImageInput{Data: data, MIMEType: info.MIMEType, Filename: imagePath}
	return raw, nil
}

func splitTones(value string) []string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return nil
	case strings.HasPrefix(value, "["):
		return []string{value}
	default:
		return strings.Split(value, ",")
	}
}
