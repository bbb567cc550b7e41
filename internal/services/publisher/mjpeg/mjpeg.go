package mjpeg

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vision-worker-go/internal/helpers"
	"vision-worker-go/internal/models"
)

const boundary = "frame"

// Publisher is a capture sink that keeps the latest annotated JPEG and
// streams it to multipart/x-mixed-replace clients
type Publisher struct {
	quality     int
	minInterval time.Duration
	placeholder func() *models.Frame
	logger      zerolog.Logger

	pending chan models.CaptureResult
	done    chan struct{}
	once    sync.Once

	jpegMutex  sync.RWMutex
	latestJPEG []byte
	lastEncode time.Time

	notifyMutex sync.Mutex
	clients     map[chan struct{}]struct{}
}

// Options configure a Publisher. Placeholder renders the frame sent before
// the first capture.
type Options struct {
	Quality     int
	FPS         int
	Placeholder func() *models.Frame
	Logger      zerolog.Logger
}

func NewPublisher(opts Options) *Publisher {
	if opts.FPS <= 0 {
		opts.FPS = 10
	}
	if opts.Placeholder == nil {
		opts.Placeholder = func() *models.Frame { return helpers.MessageFrame(640, 360, "Initializing...") }
	}
	p := &Publisher{
		quality:     opts.Quality,
		minInterval: time.Second / time.Duration(opts.FPS),
		placeholder: opts.Placeholder,
		logger:      opts.Logger,
		pending:     make(chan models.CaptureResult, 1),
		done:        make(chan struct{}),
		clients:     make(map[chan struct{}]struct{}),
	}
	go p.encodeLoop()
	return p
}

// Publish hands the newest result to the encoder; older pending results are
// replaced
func (p *Publisher) Publish(r models.CaptureResult) {
	if p.clientCount() == 0 {
		return
	}
	select {
	case <-p.pending:
	default:
	}
	select {
	case p.pending <- r:
	default:
	}
}

func (p *Publisher) encodeLoop() {
	for {
		select {
		case <-p.done:
			return
		case r := <-p.pending:
			if time.Since(p.lastEncode) < p.minInterval || r.Frame == nil {
				continue
			}
			if err := p.updateLatestJPEG(r); err != nil {
				p.logger.Debug().Err(err).Int64("seq", r.Seq).Msg("Failed to encode stream frame")
				continue
			}
			p.notifyStreamers()
		}
	}
}

func (p *Publisher) updateLatestJPEG(r models.CaptureResult) error {
	annotated := helpers.DrawDetections(r.Frame, r.Detections)
	buf, err := helpers.EncodeJPEG(annotated, p.quality)
	if err != nil {
		return err
	}

	p.jpegMutex.Lock()
	p.latestJPEG = buf
	p.lastEncode = time.Now()
	p.jpegMutex.Unlock()
	return nil
}

func (p *Publisher) latest() []byte {
	p.jpegMutex.RLock()
	defer p.jpegMutex.RUnlock()
	return p.latestJPEG
}

func (p *Publisher) notifyStreamers() {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()
	for notify := range p.clients {
		select {
		case notify <- struct{}{}:
		default:
		}
	}
}

func (p *Publisher) addClient() chan struct{} {
	notify := make(chan struct{}, 1)
	p.notifyMutex.Lock()
	p.clients[notify] = struct{}{}
	p.notifyMutex.Unlock()
	return notify
}

func (p *Publisher) removeClient(notify chan struct{}) {
	p.notifyMutex.Lock()
	delete(p.clients, notify)
	p.notifyMutex.Unlock()
}

func (p *Publisher) clientCount() int {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()
	return len(p.clients)
}

// StreamMJPEGHTTP writes parts until the client goes away or the publisher
// is closed
func (p *Publisher) StreamMJPEGHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	notify := p.addClient()
	defer p.removeClient(notify)

	writePart := func(jpeg []byte) bool {
		if _, err := io.WriteString(w, "--"+boundary+"\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "Content-Type: image/jpeg\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, fmt.Sprintf("Content-Length: %d\r\n\r\n", len(jpeg))); err != nil {
			return false
		}
		if _, err := w.Write(jpeg); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	first := p.latest()
	if len(first) == 0 {
		if buf, err := helpers.EncodeJPEG(p.placeholder(), p.quality); err == nil {
			first = buf
		}
	}
	if len(first) > 0 && !writePart(first) {
		return
	}

	keepaliveTicker := time.NewTicker(2 * time.Second)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-notify:
		case <-keepaliveTicker.C:
		}
		if buf := p.latest(); len(buf) > 0 && !writePart(buf) {
			return
		}
	}
}

// Close stops the encoder and ends open streams
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.done)
		p.logger.Info().Msg("MJPEG publisher shutting down")
	})
}
