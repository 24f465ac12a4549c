package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"tradedash/logger"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

var ErrInvalidURL = errors.New("snapshot url must be an absolute http(s) url")

type Options struct {
	URL     string
	Out     string
	Width   int
	Height  int
	Timeout time.Duration
	// ControlURL が空ならローカルの Chromium を起動します。
	ControlURL string
}

// Normalize は既定値を埋め、URLと出力先を検証します。
func (o Options) Normalize() (Options, error) {
	u, err := url.Parse(o.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return o, fmt.Errorf("%w: %q", ErrInvalidURL, o.URL)
	}
	if o.Out == "" {
		o.Out = "dashboard.png"
	}
	if o.Width <= 0 {
		o.Width = 1400
	}
	if o.Height <= 0 {
		o.Height = 900
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return o, nil
}

// Capture はヘッドレスブラウザでダッシュボードを開き、ページ全体のPNGを保存します。
func Capture(ctx context.Context, opts Options) (string, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return "", err
	}
	log := logger.FromContext(ctx)

	if dir := filepath.Dir(opts.Out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	controlURL := opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true).Leakless(false)
		defer l.Cleanup()
		controlURL, err = l.Launch()
		if err != nil {
			return "", fmt.Errorf("launch chromium: %w", err)
		}
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect to chromium: %w", err)
	}
	defer browser.Close()

	log.Info().Str("url", opts.URL).Msg("opening dashboard")
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to set viewport")
	}

	page = page.Timeout(opts.Timeout)
	if err := page.Navigate(opts.URL); err != nil {
		return "", fmt.Errorf("navigate to %s: %w", opts.URL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait for page load: %w", err)
	}

	img, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.WriteFile(opts.Out, img, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", opts.Out, err)
	}

	log.Info().Str("out", opts.Out).Int("bytes", len(img)).Msg("snapshot saved")
	return opts.Out, nil
}
