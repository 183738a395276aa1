// Package scheduler drives the alert pipeline: cache warm-up, periodic
// evaluation, per-garden dispatch, and the per-alert sink fan-out.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"garden-alert-service/internal/alertengine"
	"garden-alert-service/internal/cache"
	"garden-alert-service/internal/channels"
	"garden-alert-service/internal/models"
	"garden-alert-service/internal/observability"
	"garden-alert-service/internal/plants"
)

// EvalInterval is the recurring evaluation tick.
const EvalInterval = 5 * time.Minute

// Scheduler owns the two recurring timers and fans every emitted alert out
// to its sinks.
type Scheduler struct {
	gardens []models.Garden

	engine       *alertengine.Engine
	plantCache   *cache.PlantCache
	plantsClient *plants.Client
	sms          *channels.SMSChannel
	broadcast    *channels.BroadcastChannel
	history      *channels.HistoryStore
	metrics      *observability.Metrics
	logger       *zap.Logger

	gardenLocks sync.Map // gardenID -> *sync.Mutex, serializes back-to-back ticks per garden

	evalTicker *time.Ticker
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// New builds a Scheduler over the given gardens and collaborators.
func New(
	gardens []models.Garden,
	engine *alertengine.Engine,
	plantCache *cache.PlantCache,
	plantsClient *plants.Client,
	sms *channels.SMSChannel,
	broadcast *channels.BroadcastChannel,
	history *channels.HistoryStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		gardens:      gardens,
		engine:       engine,
		plantCache:   plantCache,
		plantsClient: plantsClient,
		sms:          sms,
		broadcast:    broadcast,
		history:      history,
		metrics:      metrics,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

func distinctUserIDs(gardens []models.Garden) []int {
	seen := make(map[int]struct{}, len(gardens))
	var ids []int
	for _, g := range gardens {
		if _, ok := seen[g.UserID]; ok {
			continue
		}
		seen[g.UserID] = struct{}{}
		ids = append(ids, g.UserID)
	}
	return ids
}

// Start runs the full startup sequence: warm the plant cache, begin its
// 24h periodic refresh, run one evaluation round immediately, then start
// the recurring 5-minute evaluation tick. Start returns once the initial
// round has completed; the recurring ticks run in the background until
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	userIDs := distinctUserIDs(s.gardens)

	s.plantCache.WarmUp(ctx, userIDs)
	s.plantCache.StartPeriodicRefresh(ctx, userIDs, cache.DefaultTTL)

	s.runTick(ctx)

	s.evalTicker = time.NewTicker(EvalInterval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			case <-s.evalTicker.C:
				s.runTick(ctx)
			}
		}
	}()
}

// Stop ends both recurring timers and waits for in-flight work registered
// with the internal WaitGroup to finish.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	if s.evalTicker != nil {
		s.evalTicker.Stop()
	}
	s.plantCache.Stop()
	s.wg.Wait()
}

// runTick dispatches every garden in parallel and waits for all of them to
// settle before returning.
func (s *Scheduler) runTick(ctx context.Context) {
	var wg sync.WaitGroup
	for _, garden := range s.gardens {
		garden := garden
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.processGarden(ctx, garden)
		}()
	}
	wg.Wait()
}

// processGarden evaluates one garden and fans each resulting alert out to
// its sinks. A tick for the same garden is serialized against the
// previous one via a per-garden lock so overlapping evaluations never
// interleave their fan-out. processGarden never panics: any failure is
// contained and logged.
func (s *Scheduler) processGarden(ctx context.Context, garden models.Garden) {
	lockVal, _ := s.gardenLocks.LoadOrStore(garden.GardenID, &sync.Mutex{})
	lock := lockVal.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			if s.logger != nil {
				s.logger.Error("panic processing garden", zap.String("gardenId", garden.GardenID), zap.Any("panic", r))
			}
		}
	}()

	alerts := s.engine.EvaluateGarden(ctx, garden)
	for _, alert := range alerts {
		s.dispatchAlert(ctx, alert)
	}
}

// dispatchAlert runs the three sinks sequentially in priority order — SMS,
// then broadcast, then history — each wrapped in its own error boundary so
// a failure in one never prevents the next.
func (s *Scheduler) dispatchAlert(ctx context.Context, alert models.Alert) {
	if s.metrics != nil {
		s.metrics.RecordAlert(string(alert.AlertType))
	}
	s.sendSMS(ctx, alert)
	s.sendBroadcast(alert)
	s.saveHistory(ctx, alert)
}

func (s *Scheduler) sendSMS(ctx context.Context, alert models.Alert) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("panic sending sms", zap.String("alertId", alert.AlertID), zap.Any("panic", r))
		}
	}()

	if !s.sms.IsEnabled() {
		if s.metrics != nil {
			s.metrics.RecordSMSSkipped()
		}
		return
	}

	user, err := s.plantsClient.FetchUser(ctx, alert.UserID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("sms skipped: could not fetch user", zap.Int("userId", alert.UserID), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordSMSFailed()
		}
		return
	}

	ok := s.sms.SendAlert(ctx, alert, *user)
	if s.metrics == nil {
		return
	}
	if ok {
		s.metrics.RecordSMSSent()
	} else {
		s.metrics.RecordSMSFailed()
	}
}

func (s *Scheduler) sendBroadcast(alert models.Alert) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("panic broadcasting alert", zap.String("alertId", alert.AlertID), zap.Any("panic", r))
		}
	}()
	s.broadcast.Broadcast(alert)
}

func (s *Scheduler) saveHistory(ctx context.Context, alert models.Alert) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("panic saving alert history", zap.String("alertId", alert.AlertID), zap.Any("panic", r))
		}
	}()
	s.history.SaveAlert(ctx, alert)
}
