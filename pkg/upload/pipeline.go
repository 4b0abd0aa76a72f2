package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	errs "tweetkit/pkg/errors"
	"tweetkit/pkg/logger"
	"tweetkit/pkg/transport"
)

// Pipeline runs the chunked media upload protocol over a transport.Sender.
// A Pipeline holds no per-upload state and may run uploads concurrently.
type Pipeline struct {
	sender       transport.Sender
	endpoint     string
	chunkSize    int64
	sleeper      Sleeper
	pollDeadline time.Duration
	now          func() time.Time
	limits       SizeLimits
	logger       logger.Logger
	tracer       trace.Tracer
	progress     ProgressFunc
}

// New creates a Pipeline
func New(sender transport.Sender, opts ...Option) *Pipeline {
	p := &Pipeline{
		sender:    sender,
		endpoint:  DefaultEndpoint,
		chunkSize: DefaultChunkSize,
		sleeper:   ContextSleeper,
		now:       time.Now,
		limits:    DefaultSizeLimits(),
		logger:    logger.GetLogger(),
		tracer:    otel.Tracer("tweetkit/upload"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Upload sends a local file or a remote gif URL and returns the media id
// once the server reports it usable.
func (p *Pipeline) Upload(ctx context.Context, source, category string) (string, error) {
	s, err := p.Run(ctx, source, category)
	if err != nil {
		return "", err
	}
	return s.MediaID, nil
}

// Run is Upload returning the final session. On error the session reflects
// how far the upload got and may be nil when validation failed.
func (p *Pipeline) Run(ctx context.Context, source, category string) (*Session, error) {
	s, file, err := p.prepare(source, category)
	if err != nil {
		return nil, err
	}
	if file != nil {
		defer file.Close()
	}

	ctx, span := p.tracer.Start(ctx, "upload",
		trace.WithAttributes(
			attribute.String("media.type", s.MediaType),
			attribute.Int64("media.total_bytes", s.TotalBytes),
			attribute.Bool("media.remote", s.Kind == SourceRemoteGIF),
		))
	defer span.End()

	log := p.logger.WithFields(map[string]interface{}{
		"source":     s.Source,
		"media_type": s.MediaType,
	})

	err = p.run(ctx, s, file, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithError(err).WarnWithFields("upload failed", map[string]interface{}{
			"media_id": s.MediaID,
			"state":    s.State.String(),
		})
		return s, err
	}
	span.SetAttributes(attribute.String("media.id", s.MediaID))
	log.InfoWithFields("upload completed", map[string]interface{}{
		"media_id": s.MediaID,
		"segments": s.Segments,
		"bytes":    s.BytesSent,
	})
	return s, nil
}

// prepare validates the source and category; nothing is sent before it
// succeeds. The returned file is nil for remote sources.
func (p *Pipeline) prepare(source, category string) (*Session, *os.File, error) {
	if err := ValidateCategory(category); err != nil {
		return nil, nil, err
	}

	s := &Session{Source: source, Category: category}

	remote, err := remoteGIF(source)
	if err != nil {
		return nil, nil, err
	}
	if remote {
		s.Kind = SourceRemoteGIF
		s.MediaType = "image/gif"
		return s, nil, p.limits.Check(s.MediaType, 0)
	}

	info, err := os.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errs.NotFound("upload", "the path '%s' does not exist", source)
		}
		return nil, nil, errs.Validation("upload", "cannot stat %s: %v", source, err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil, errs.Validation("upload", "%s is not a regular file", source)
	}

	s.Kind = SourceFile
	s.TotalBytes = info.Size()
	if s.MediaType, err = ResolveMediaType(source); err != nil {
		return nil, nil, err
	}
	if err := p.limits.Check(s.MediaType, s.TotalBytes); err != nil {
		return nil, nil, err
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, nil, errs.Validation("upload", "cannot open %s: %v", source, err)
	}
	return s, file, nil
}

func (p *Pipeline) run(ctx context.Context, s *Session, file io.Reader, log logger.Logger) error {
	if err := p.init(ctx, s, log); err != nil {
		return err
	}

	if s.Kind == SourceRemoteGIF {
		// The server fetches the gif itself; there is nothing to append or finalize.
		return p.poll(ctx, s, map[string]any{"state": "in_progress", "check_after_secs": json.Number("1")}, log)
	}

	if err := p.appendChunks(ctx, s, file, log); err != nil {
		return err
	}

	info, err := p.finalize(ctx, s, log)
	if err != nil {
		return err
	}
	return p.poll(ctx, s, info, log)
}

func (p *Pipeline) command(ctx context.Context, phase string, form url.Values, part *transport.MultipartFile) (map[string]any, error) {
	ctx, span := p.tracer.Start(ctx, "upload."+phase)
	defer span.End()

	req := transport.Request{
		Op:        "upload " + phase,
		Method:    http.MethodPost,
		URL:       p.endpoint,
		Form:      form,
		Multipart: part,
	}
	if phase == "STATUS" {
		req.Method = http.MethodGet
		req.Query = form
		req.Form = nil
	}

	resp, err := p.sender.Send(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(resp.Body) == 0 {
		// APPEND answers with an empty 2xx body.
		return nil, nil
	}
	obj, err := resp.Object()
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", phase, err)
	}
	return obj, nil
}

func (p *Pipeline) init(ctx context.Context, s *Session, log logger.Logger) error {
	form := url.Values{
		"command":    {"INIT"},
		"media_type": {s.MediaType},
	}
	if s.Category != "" {
		form.Set("media_category", s.Category)
	}
	if s.Kind == SourceRemoteGIF {
		form.Set("source_url", s.Source)
	} else {
		form.Set("total_bytes", strconv.FormatInt(s.TotalBytes, 10))
	}

	obj, err := p.command(ctx, "INIT", form, nil)
	if err != nil {
		return err
	}
	s.MediaID = mediaID(obj)
	if s.MediaID == "" {
		return errs.Protocol("upload INIT", "response has no media_id")
	}

	s.State = StateInitialized
	logger.LogUploadPhase(log, "INIT", s.MediaID, map[string]interface{}{"total_bytes": s.TotalBytes})
	p.report(s, "", 0)
	return nil
}

func (p *Pipeline) appendChunks(ctx context.Context, s *Session, file io.Reader, log logger.Logger) error {
	buf := make([]byte, p.chunkSize)
	name := filepath.Base(s.Source)

	for s.BytesSent < s.TotalBytes {
		n, err := io.ReadFull(file, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return fmt.Errorf("upload APPEND: reading %s: %w", s.Source, err)
		}
		if n == 0 {
			return fmt.Errorf("upload APPEND: %s shrank to %d bytes while uploading", s.Source, s.BytesSent)
		}

		form := url.Values{
			"command":       {"APPEND"},
			"media_id":      {s.MediaID},
			"segment_index": {strconv.Itoa(s.Segments)},
		}
		part := &transport.MultipartFile{Field: "media", FileName: name, Content: buf[:n]}
		if _, err := p.command(ctx, "APPEND", form, part); err != nil {
			return err
		}

		s.Segments++
		s.BytesSent += int64(n)
		logger.LogUploadPhase(log, "APPEND", s.MediaID, map[string]interface{}{
			"segment": s.Segments - 1,
			"bytes":   n,
		})
		p.report(s, "", 0)
	}

	s.State = StateAppended
	return nil
}

func (p *Pipeline) finalize(ctx context.Context, s *Session, log logger.Logger) (map[string]any, error) {
	obj, err := p.command(ctx, "FINALIZE", url.Values{
		"command":  {"FINALIZE"},
		"media_id": {s.MediaID},
	}, nil)
	if err != nil {
		return nil, err
	}
	s.State = StateFinalized
	logger.LogUploadPhase(log, "FINALIZE", s.MediaID, nil)
	p.report(s, "", 0)

	info, _ := obj["processing_info"].(map[string]any)
	return info, nil
}

// poll follows processing_info until the server reports success or failure,
// or stops sending processing_info.
func (p *Pipeline) poll(ctx context.Context, s *Session, info map[string]any, log logger.Logger) error {
	start := p.now()

	for info != nil {
		state, _ := info["state"].(string)
		switch state {
		case "succeeded":
			s.State = StateSucceeded
			p.report(s, state, 100)
			return nil
		case "failed":
			s.State = StateFailed
			p.report(s, state, percent(info))
			msg := "state indicates failure"
			if e, ok := info["error"].(map[string]any); ok {
				if m, ok := e["message"].(string); ok && m != "" {
					msg = m
				}
			}
			return &errs.Error{Type: errs.ErrorTypeProcessing, Op: "upload STATUS", Message: fmt.Sprintf("media %s: %s", s.MediaID, msg)}
		}

		s.State = StatePolling
		s.CheckAfter = checkAfter(info)
		p.report(s, state, percent(info))

		if p.pollDeadline > 0 {
			if elapsed := p.now().Sub(start); elapsed+s.CheckAfter > p.pollDeadline {
				return errs.Processing("upload STATUS", "media %s: poll deadline exceeded after %s", s.MediaID, elapsed.Round(time.Millisecond))
			}
		}
		if err := p.sleeper.Sleep(ctx, s.CheckAfter); err != nil {
			return fmt.Errorf("upload STATUS: polling media %s: %w", s.MediaID, err)
		}

		obj, err := p.command(ctx, "STATUS", url.Values{
			"command":  {"STATUS"},
			"media_id": {s.MediaID},
		}, nil)
		if err != nil {
			return err
		}
		info, _ = obj["processing_info"].(map[string]any)
		logger.LogUploadPhase(log, "STATUS", s.MediaID, map[string]interface{}{"state": state})
	}

	s.State = StateSucceeded
	p.report(s, "", 100)
	return nil
}

func (p *Pipeline) report(s *Session, processing string, pct int) {
	if p.progress != nil {
		p.progress(s.progress(processing, pct))
	}
}

// mediaID prefers media_id_string; media_id may be a 64-bit number.
func mediaID(obj map[string]any) string {
	if id, ok := obj["media_id_string"].(string); ok && id != "" {
		return id
	}
	switch v := obj["media_id"].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// maxCheckAfter caps server wait hints well below the time.Duration range.
const maxCheckAfter = 24 * time.Hour

func checkAfter(info map[string]any) time.Duration {
	secs, ok := number(info["check_after_secs"])
	if !ok || secs <= 0 {
		return 0
	}
	if secs >= maxCheckAfter.Seconds() {
		return maxCheckAfter
	}
	return time.Duration(secs * float64(time.Second))
}

func percent(info map[string]any) int {
	pct, _ := number(info["progress_percent"])
	return int(pct)
}
