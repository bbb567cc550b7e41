package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vision-worker-go/internal/models"
)

type detectResponse struct {
	Detections     []models.Detection `json:"detections"`
	AnnotatedImage string             `json:"annotated_image"`
	ImageFormat    string             `json:"image_format"`
}

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	defaultURL := os.Getenv("WORKER_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:7926"
	}

	var (
		workerURL = flag.String("url", defaultURL, "Worker base URL")
		imagePath = flag.String("image", "", "Image to send (JPEG or PNG)")
		outPath   = flag.String("out", "annotated.jpg", "Where to write the annotated JPEG")
		threshold = flag.Float64("threshold", 0, "Confidence threshold, 0 uses the worker default")
		timeout   = flag.Duration("timeout", 30*time.Second, "Request timeout")
	)
	flag.Parse()

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "usage: detect-client -image card.jpg [-url http://host:7926] [-out annotated.jpg]")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := detect(ctx, *workerURL, *imagePath, *threshold)
	if err != nil {
		log.Fatal().Err(err).Str("image", *imagePath).Msg("Detection request failed")
	}

	if len(resp.Detections) == 0 {
		fmt.Println("No detections")
	}
	for i, d := range resp.Detections {
		line := fmt.Sprintf("%d. %s %.2f", i+1, d.ClassName, d.Confidence)
		if d.BBox != nil {
			line += fmt.Sprintf(" [%d,%d,%d,%d]", d.BBox.X1, d.BBox.Y1, d.BBox.X2, d.BBox.Y2)
		}
		fmt.Println(line)
	}

	if resp.AnnotatedImage == "" {
		log.Warn().Msg("Worker returned no annotated image")
		return
	}
	img, err := base64.StdEncoding.DecodeString(resp.AnnotatedImage)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid annotated image payload")
	}
	if err := os.WriteFile(*outPath, img, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", *outPath).Msg("Failed to write annotated image")
	}
	log.Info().Str("path", *outPath).Int("bytes", len(img)).Msg("Annotated image saved")
}

func detect(ctx context.Context, base, imagePath string, threshold float64) (*detectResponse, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	endpoint, err := url.JoinPath(base, "detect")
	if err != nil {
		return nil, fmt.Errorf("invalid worker url %q: %w", base, err)
	}
	q := url.Values{"annotate": {"true"}}
	if threshold > 0 {
		q.Set("threshold", strconv.FormatFloat(threshold, 'f', -1, 64))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+q.Encode(), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("worker returned %d: %s", httpResp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("worker returned %d", httpResp.StatusCode)
	}

	var out detectResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		// encoding failures on the worker side fall back to a bare list
		if listErr := json.Unmarshal(raw, &out.Detections); listErr != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return &out, nil
}
