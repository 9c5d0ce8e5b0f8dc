package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultInterval    = 5 * time.Second
	DefaultPingTimeout = 2 * time.Second
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

// Config настройки монитора
type Config struct {
	Interval    time.Duration
	PingTimeout time.Duration
}

// Monitor отслеживает доступность хранилища и уведомляет о восстановлении связи
type Monitor struct {
	pinger Pinger
	logger Logger
	cfg    Config

	online atomic.Bool

	mu          sync.Mutex
	onReconnect []func(ctx context.Context)
}

// NewMonitor создает монитор; до первой проверки хранилище считается доступным
func NewMonitor(pinger Pinger, logger Logger, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = DefaultPingTimeout
	}

	m := &Monitor{pinger: pinger, logger: logger, cfg: cfg}
	m.online.Store(true)
	return m
}

// IsOnline возвращает последнее известное состояние связи
func (m *Monitor) IsOnline() bool {
	return m.online.Load()
}

// OnReconnect регистрирует обработчик перехода offline -> online
func (m *Monitor) OnReconnect(fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnect = append(m.onReconnect, fn)
}

// MarkOffline переводит состояние в offline по ошибке вызывающей стороны.
// Следующая успешная проверка вызовет обработчики OnReconnect
func (m *Monitor) MarkOffline(cause error) {
	if m.online.Swap(false) {
		m.logger.Warn("Connectivity: store marked offline: %v", cause)
	}
}

// Check выполняет одну проверку и возвращает текущее состояние
func (m *Monitor) Check(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, m.cfg.PingTimeout)
	defer cancel()

	err := m.pinger.PingContext(pingCtx)
	online := err == nil
	was := m.online.Swap(online)

	switch {
	case was && !online:
		m.logger.Warn("Connectivity: store went offline: %v", err)
	case !was && online:
		m.logger.Info("Connectivity: store is back online")
		m.mu.Lock()
		handlers := make([]func(ctx context.Context), len(m.onReconnect))
		copy(handlers, m.onReconnect)
		m.mu.Unlock()
		for _, fn := range handlers {
			fn(ctx)
		}
	}
	return online
}

// Run периодически проверяет связь до отмены контекста
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.logger.Info("Connectivity: monitor started, interval=%s", m.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Connectivity: monitor stopped")
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
