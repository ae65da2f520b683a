package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"ymlive/internal/domain/playback"
	"ymlive/internal/domain/reconciler"
	"ymlive/internal/gateway/yandexmusic"
	"ymlive/internal/gateway/ynison"
)

// ErrChannelNotConfigured не задан CHANNEL_ID
var ErrChannelNotConfigured = errors.New("channel is not configured")

// PollerConfig параметры опроса
type PollerConfig struct {
	Token       string
	Interval    time.Duration
	TickTimeout time.Duration
}

// TickStatus итог последнего тика
type TickStatus struct {
	At       time.Time
	Snapshot string
	Skipped  string
	Err      error
}

// Poller раз в интервал прогоняет negotiate -> resolve -> interpret -> reconcile
type Poller struct {
	negotiator Negotiator
	resolver   TrackResolver
	reconciler StateReconciler
	channel    ChannelAdmin
	store      *StateStore
	cfg        PollerConfig
	logger     *zap.Logger
	now        func() time.Time

	cron *cron.Cron

	mu    sync.Mutex
	state reconciler.State
	// persisted то, что точно записано в хранилище
	persisted reconciler.State
	loaded    bool

	statusMu  sync.RWMutex
	last      TickStatus
	published reconciler.State

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPoller создает Poller
func NewPoller(
	negotiator Negotiator,
	resolver TrackResolver,
	rec StateReconciler,
	channel ChannelAdmin,
	store *StateStore,
	cfg PollerConfig,
	logger *zap.Logger,
) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = 2 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Poller{
		negotiator: negotiator,
		resolver:   resolver,
		reconciler: rec,
		channel:    channel,
		store:      store,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start запускает cron. Тики не перекрываются: пока идет один, следующий пропускается.
func (p *Poller) Start() error {
	cronLog := cronLogger{logger: p.logger}
	p.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	spec := fmt.Sprintf("@every %s", p.cfg.Interval)
	if _, err := p.cron.AddFunc(spec, p.runScheduled); err != nil {
		return fmt.Errorf("failed to schedule poller: %w", err)
	}

	p.cron.Start()
	p.logger.Info("Poller started", zap.Duration("interval", p.cfg.Interval))
	return nil
}

// Stop останавливает cron и ждет текущий тик
func (p *Poller) Stop() {
	if p.cron == nil {
		return
	}
	p.logger.Info("Stopping poller")
	done := p.cron.Stop()
	<-done.Done()
	p.cancel()
	p.logger.Info("Poller stopped")
}

func (p *Poller) runScheduled() {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.TickTimeout)
	defer cancel()
	p.Tick(ctx)
}

// Tick один проход опроса. Никакая ошибка не выходит наружу.
func (p *Poller) Tick(ctx context.Context) {
	p.mu.Lock()
	status := p.tick(ctx)
	status.At = p.now()
	snapshot := p.state.Clone()
	p.mu.Unlock()

	p.statusMu.Lock()
	p.last = status
	p.published = snapshot
	p.statusMu.Unlock()
}

func (p *Poller) tick(ctx context.Context) TickStatus {
	enabled, err := p.store.Enabled(ctx)
	if err != nil {
		p.logger.Error("Failed to read autochannel flag", zap.Error(err))
		return TickStatus{Err: err}
	}
	if !enabled {
		return TickStatus{Skipped: "disabled"}
	}

	if !p.channel.Configured() {
		p.logger.Error("Channel id not found, disabling autochannel")
		if err := p.store.SetEnabled(ctx, false); err != nil {
			p.logger.Error("Failed to disable autochannel", zap.Error(err))
		}
		return TickStatus{Skipped: "channel not configured", Err: ErrChannelNotConfigured}
	}

	if p.cfg.Token == "" {
		p.logger.Warn("Yandex Music token is not configured, skipping tick")
		return TickStatus{Skipped: "token not configured"}
	}

	if err := p.ensureLoaded(ctx); err != nil {
		return TickStatus{Err: err}
	}

	if p.state.StatusMessageID == 0 || p.state.HistoryMessageID == 0 {
		p.logger.Warn("Message ids not found, recreating placeholders")
		if err := p.postPlaceholders(ctx); err != nil {
			// флаг не трогаем: следующий тик попробует снова
			p.logger.Error("Failed to create placeholders", zap.Error(err))
			return TickStatus{Err: err}
		}
	}

	snap := p.observe(ctx)
	p.state = p.reconciler.Reconcile(ctx, snap, p.state, p.now())

	if err := p.persist(ctx); err != nil {
		p.logger.Error("Failed to persist state", zap.Error(err))
		return TickStatus{Snapshot: snap.String(), Err: err}
	}

	p.logger.Debug("Tick completed", zap.Stringer("snapshot", snap))
	return TickStatus{Snapshot: snap.String()}
}

// persist дописывает в хранилище расхождение с последней успешной записью.
// После ошибки расхождение остается и повторяется на следующем тике.
func (p *Poller) persist(ctx context.Context) error {
	if p.state.SamePersisted(p.persisted) {
		return nil
	}
	if err := p.store.Save(ctx, p.persisted, p.state); err != nil {
		return err
	}
	p.persisted = p.state.Clone()
	return nil
}

// observe собирает снимок: рукопожатие, затем каталог, если выбран трек
func (p *Poller) observe(ctx context.Context) playback.Snapshot {
	raw, err := p.negotiator.Negotiate(ctx, p.cfg.Token)
	if err != nil {
		level := zap.WarnLevel
		if errors.Is(err, ynison.ErrTimeout) {
			level = zap.InfoLevel
		}
		p.logger.Log(level, "Ynison negotiation failed", zap.Error(err))
		return playback.Interpret(nil, err, nil)
	}

	var track *yandexmusic.Track
	if q, ok := raw.(ynison.QueueTrack); ok {
		track, _ = p.resolver.ResolveTrack(ctx, q.PlayableID)
	}
	return playback.Interpret(raw, nil, track)
}

func (p *Poller) ensureLoaded(ctx context.Context) error {
	if p.loaded {
		return nil
	}
	state, err := p.store.Load(ctx)
	if err != nil {
		p.logger.Error("Failed to load state", zap.Error(err))
		return err
	}
	p.state = state
	p.persisted = state.Clone()
	p.loaded = true
	return nil
}

// postPlaceholders публикует недостающие сообщения истории и статуса.
// Каждый id сохраняется сразу, чтобы повтор после частичной ошибки
// не плодил лишних сообщений.
func (p *Poller) postPlaceholders(ctx context.Context) error {
	if p.state.HistoryMessageID == 0 {
		id, err := p.channel.SendMessage(ctx, reconciler.RenderHistory(p.state.RecentTracks))
		if err != nil {
			return fmt.Errorf("failed to post history message: %w", err)
		}
		p.state.HistoryMessageID = id
		p.placeholderPosted(ctx, "history", id)
	}

	if p.state.StatusMessageID == 0 {
		id, err := p.channel.SendMessage(ctx, reconciler.StatusPlaceholder)
		if err != nil {
			return fmt.Errorf("failed to post status message: %w", err)
		}
		p.state.StatusMessageID = id
		p.placeholderPosted(ctx, "status", id)
	}
	return nil
}

func (p *Poller) placeholderPosted(ctx context.Context, kind string, id int) {
	// новое сообщение пустое: следующая сверка должна заполнить все заново
	p.state = p.state.ForgetApplied()
	p.state.LastTitle = nil

	if err := p.persist(ctx); err != nil {
		p.logger.Error("Failed to persist message id", zap.String("message", kind), zap.Error(err))
	}
	p.logger.Info("Placeholder message posted", zap.String("message", kind), zap.Int("message_id", id))
}

// Activate готовит канал после включения: удаляет старые сообщения,
// публикует новые и сразу выполняет тик
func (p *Poller) Activate(ctx context.Context) error {
	p.mu.Lock()
	err := p.activate(ctx)
	p.mu.Unlock()
	if err != nil {
		return err
	}

	p.Tick(ctx)
	return nil
}

func (p *Poller) activate(ctx context.Context) error {
	if err := p.ensureLoaded(ctx); err != nil {
		return err
	}

	for _, id := range []int{p.state.HistoryMessageID, p.state.StatusMessageID} {
		if id == 0 {
			continue
		}
		if err := p.channel.DeleteMessage(ctx, id); err != nil {
			p.logger.Warn("Failed to delete old message", zap.Int("message_id", id), zap.Error(err))
		}
	}

	p.state.HistoryMessageID = 0
	p.state.StatusMessageID = 0
	p.state.LastChange = time.Time{}
	if err := p.persist(ctx); err != nil {
		p.logger.Warn("Failed to forget deleted message ids", zap.Error(err))
	}
	return p.postPlaceholders(ctx)
}

// State копия состояния на конец последнего тика. Не ждет текущий тик.
func (p *Poller) State() reconciler.State {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.published.Clone()
}

// LastTick итог последнего тика
func (p *Poller) LastTick() TickStatus {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.last
}

// cronLogger направляет журнал cron в zap
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, zap.Error(err), zap.Any("details", keysAndValues))
}
