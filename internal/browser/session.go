package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// ErrDriverUnavailable is returned when the Chrome process cannot be
// launched or connected to. Callers surface it instead of retrying.
var ErrDriverUnavailable = errors.New("browser driver unavailable")

// State of the managed browser session.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

type Config struct {
	Headless   bool
	NoSandbox  bool
	SlowMotion time.Duration
	Timeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Headless:   true,
		NoSandbox:  false,
		SlowMotion: 0,
		Timeout:    10 * time.Second,
	}
}

// Session owns the single browser instance shared by all tools.
// Lifecycle transitions serialize through mu; page commands serialize
// through navMu because the driver is not safe for concurrent navigation.
type Session struct {
	mu    sync.Mutex
	navMu sync.Mutex

	cfg Config
	log *zap.Logger

	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	state    State

	// replaced in tests to avoid spawning Chrome
	launch func() (*launcher.Launcher, *rod.Browser, *rod.Page, error)
}

func NewSession(cfg Config, log *zap.Logger) *Session {
	s := &Session{
		cfg: cfg,
		log: log,
	}
	s.launch = s.launchChrome
	return s
}

func (s *Session) launchChrome() (*launcher.Launcher, *rod.Browser, *rod.Page, error) {
	l := launcher.New().
		Headless(s.cfg.Headless).
		Devtools(false).
		NoSandbox(s.cfg.NoSandbox).
		Delete("use-mock-keychain")

	url, err := l.Launch()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().
		ControlURL(url).
		SlowMotion(s.cfg.SlowMotion)

	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, nil, nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		l.Kill()
		l.Cleanup()
		return nil, nil, nil, fmt.Errorf("open initial page: %w", err)
	}

	return l, b, page, nil
}

// Start launches the browser if it is not already running. Calling Start
// on a running session is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}

func (s *Session) startLocked(ctx context.Context) error {
	if s.state == StateRunning {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state = StateStarting
	l, b, page, err := s.launch()
	if err != nil {
		s.state = StateStopped
		s.log.Error("browser launch failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
	}

	s.launcher = l
	s.browser = b
	s.page = page
	s.state = StateRunning
	s.log.Info("browser session started",
		zap.Bool("headless", s.cfg.Headless),
		zap.Duration("timeout", s.cfg.Timeout))
	return nil
}

// Stop tears down the browser and the Chrome process. Calling Stop on a
// stopped session is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Session) stopLocked() error {
	if s.state == StateStopped {
		return nil
	}

	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}

	s.launcher = nil
	s.browser = nil
	s.page = nil
	s.state = StateStopped
	s.log.Info("browser session stopped")
	return nil
}

// Restart is Stop followed by Start under a single lock acquisition.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.stopLocked(); err != nil {
		return err
	}
	return s.startLocked(ctx)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Timeout is the default per-command timeout handed to the driver.
func (s *Session) Timeout() time.Duration {
	return s.cfg.Timeout
}

// WithPage runs fn against the current page, starting the session lazily.
// Page commands from concurrent tool calls serialize here.
func (s *Session) WithPage(ctx context.Context, fn func(page *rod.Page) error) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	s.navMu.Lock()
	defer s.navMu.Unlock()

	s.mu.Lock()
	page := s.page
	s.mu.Unlock()
	if page == nil {
		return ErrDriverUnavailable
	}

	return fn(page.Context(ctx))
}
