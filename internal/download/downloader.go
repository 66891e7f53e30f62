// Package download fetches model weight files over HTTP(S) into a per-model
// directory with byte-range resume, bounded retries and SHA-256 verification.
//
// A transfer always lands in a ".tmp" sibling of the final path and is renamed
// into place only after the digest matches, so the final path never holds a
// partial or corrupt file.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"modelhub/internal/common/fsutil"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
	defaultUserAgent      = "modelhub/1"
)

// Outcome tags how a successful Download call was satisfied.
type Outcome int

const (
	Downloaded Outcome = iota
	AlreadyPresent
)

func (o Outcome) String() string {
	switch o {
	case AlreadyPresent:
		return "already_present"
	default:
		return "downloaded"
	}
}

// ProgressFunc receives bytes written so far and the expected total. total is
// 0 when the server omits Content-Length.
type ProgressFunc func(done, total int64)

// Config controls a Downloader. Zero values select defaults.
type Config struct {
	Dir            string
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	UserAgent      string
	Client         *http.Client
	Logger         zerolog.Logger
}

// Request describes one file to fetch.
type Request struct {
	URL       string
	ModelName string
	// Checksum is the expected lowercase hex SHA-256; compared case-insensitively.
	Checksum string
	// Force skips the checksum requirement and ignores any existing file.
	Force    bool
	Filename string // defaults to the last URL path segment
	Progress ProgressFunc
}

// Result is the final location of a downloaded or already present file.
type Result struct {
	Path    string
	Outcome Outcome
	Bytes   int64
}

// Downloader is safe for concurrent use on distinct destination files.
type Downloader struct {
	cfg       Config
	client    *http.Client
	log       zerolog.Logger
	transfers atomic.Int64
}

// New returns a Downloader for cfg, filling defaults.
func New(cfg Config) *Downloader {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Downloader{cfg: cfg, client: client, log: cfg.Logger}
}

// Dir returns the base download directory.
func (d *Downloader) Dir() string { return d.cfg.Dir }

// Transfers returns the number of HTTP requests issued so far.
func (d *Downloader) Transfers() int64 { return d.transfers.Load() }

// Download fetches req.URL into <Dir>/<ModelName>/<filename>.
func (d *Downloader) Download(ctx context.Context, req Request) (Result, error) {
	sum, dest, err := d.prepare(req)
	if err != nil {
		return Result{}, err
	}
	log := d.log.With().Str("model", req.ModelName).Str("path", dest).Logger()

	if !req.Force && fsutil.IsRegularFile(dest) {
		actual, err := fileSHA256(dest)
		if err != nil {
			return Result{}, fmt.Errorf("hash existing %s: %w", dest, err)
		}
		if strings.EqualFold(actual, sum) {
			size, _ := fsutil.FileSize(dest)
			log.Debug().Msg("download event=already_present")
			downloadsTotal.WithLabelValues(AlreadyPresent.String()).Inc()
			return Result{Path: dest, Outcome: AlreadyPresent, Bytes: size}, nil
		}
		log.Warn().Str("expected", sum).Str("actual", actual).Msg("download event=existing_mismatch")
		if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Result{}, fmt.Errorf("remove corrupt %s: %w", dest, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Result{}, fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	tmp := dest + fsutil.TempSuffix
	release := claimTemp(tmp)
	defer release()
	if req.Force {
		_ = os.Remove(tmp)
	}

	log.Info().Str("url", req.URL).Msg("download event=start")
	start := time.Now()
	attempts := 0
	op := func() (int64, error) {
		attempts++
		return d.fetch(ctx, req.URL, tmp, req.Progress)
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.cfg.InitialBackoff
	bo.MaxInterval = d.cfg.MaxBackoff
	size, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(d.cfg.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			downloadRetries.Inc()
			log.Warn().Err(err).Int("attempt", attempts).Dur("backoff", next).Msg("download event=retry")
		}),
	)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Unwrap()
		}
		downloadsTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Int("attempts", attempts).Msg("download event=failed")
		return Result{}, &Error{URL: req.URL, Attempts: attempts, Err: err}
	}

	if sum != "" {
		actual, err := fileSHA256(tmp)
		if err != nil {
			downloadsTotal.WithLabelValues("failed").Inc()
			return Result{}, &Error{URL: req.URL, Attempts: attempts, Err: fmt.Errorf("hash %s: %w", tmp, err)}
		}
		if !strings.EqualFold(actual, sum) {
			_ = os.Remove(tmp)
			downloadsTotal.WithLabelValues("checksum_mismatch").Inc()
			log.Error().Str("expected", sum).Str("actual", actual).Msg("download event=checksum_mismatch")
			return Result{}, &Error{URL: req.URL, Expected: sum, Actual: actual, Err: ErrChecksumMismatch}
		}
	}
	if err := os.Rename(tmp, dest); err != nil {
		return Result{}, fmt.Errorf("finalize %s: %w", dest, err)
	}
	downloadsTotal.WithLabelValues(Downloaded.String()).Inc()
	log.Info().Int64("bytes", size).Int("attempts", attempts).Dur("dur", time.Since(start)).Msg("download event=done")
	return Result{Path: dest, Outcome: Downloaded, Bytes: size}, nil
}

// prepare validates req and returns the normalized checksum and final path.
func (d *Downloader) prepare(req Request) (string, string, error) {
	sum := strings.ToLower(strings.TrimSpace(req.Checksum))
	if sum == "" && !req.Force {
		return "", "", &ConfigError{Msg: fmt.Sprintf("no checksum for %q; refusing unverified download without force", req.ModelName)}
	}
	if sum != "" {
		if b, err := hex.DecodeString(sum); err != nil || len(b) != sha256.Size {
			return "", "", &ConfigError{Msg: fmt.Sprintf("checksum %q is not a sha256 hex digest", req.Checksum)}
		}
	}
	if d.cfg.Dir == "" {
		return "", "", &ConfigError{Msg: "download directory not set"}
	}
	name := req.ModelName
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", "", &ConfigError{Msg: fmt.Sprintf("invalid model name %q", name)}
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", &ConfigError{Msg: fmt.Sprintf("invalid url %q", req.URL)}
	}
	file := req.Filename
	if file == "" {
		file = path.Base(u.Path)
	}
	if file == "" || file == "." || file == "/" || strings.ContainsAny(file, `/\`) {
		return "", "", &ConfigError{Msg: fmt.Sprintf("cannot derive a filename from %q", req.URL)}
	}
	dir, err := fsutil.ExpandHome(d.cfg.Dir)
	if err != nil {
		return "", "", err
	}
	return sum, filepath.Join(dir, name, file), nil
}

// fetch performs one transfer attempt into tmp, resuming from its current
// length. It returns the size of tmp on success.
func (d *Downloader) fetch(ctx context.Context, rawURL, tmp string, progress ProgressFunc) (int64, error) {
	offset, err := fsutil.FileSize(tmp)
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	resp, err := d.get(ctx, rawURL, offset)
	if err != nil {
		return 0, err
	}
	if offset > 0 && resp.StatusCode != http.StatusPartialContent {
		// Range not honored: restart from zero.
		resumeFallbacks.Inc()
		d.log.Info().Int64("offset", offset).Int("status", resp.StatusCode).Msg("download event=resume_unsupported")
		offset = 0
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
				return 0, backoff.Permanent(err)
			}
			if resp, err = d.get(ctx, rawURL, 0); err != nil {
				return 0, err
			}
		}
	}
	defer resp.Body.Close()
	if offset == 0 && resp.StatusCode != http.StatusOK {
		se := statusError{code: resp.StatusCode}
		if se.retryable() {
			return 0, se
		}
		return 0, backoff.Permanent(se)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if offset > 0 {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(tmp, flags, 0o644)
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	var total int64
	if resp.ContentLength >= 0 {
		total = offset + resp.ContentLength
	}
	pw := &progressWriter{w: f, done: offset, total: total, fn: progress}
	n, copyErr := io.Copy(pw, resp.Body)
	closeErr := f.Close()
	downloadBytes.Add(float64(n))
	if copyErr != nil {
		if ctx.Err() != nil {
			return 0, backoff.Permanent(ctx.Err())
		}
		return 0, fmt.Errorf("read body: %w", copyErr)
	}
	if closeErr != nil {
		return 0, backoff.Permanent(closeErr)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return 0, fmt.Errorf("short body: got %d of %d bytes: %w", n, resp.ContentLength, io.ErrUnexpectedEOF)
	}
	return offset + n, nil
}

func (d *Downloader) get(ctx context.Context, rawURL string, offset int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)
	if offset > 0 {
		req.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-")
	}
	d.transfers.Add(1)
	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	return resp, nil
}

type progressWriter struct {
	w     io.Writer
	done  int64
	total int64
	fn    ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.done += int64(n)
	if p.fn != nil && n > 0 {
		p.fn(p.done, p.total)
	}
	return n, err
}

func fileSHA256(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
