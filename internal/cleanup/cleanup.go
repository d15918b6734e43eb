package cleanup

import (
	"context"
	"fmt"

	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/internal/cache"
)

// Cleanup events
const (
	EventInvalidated = "cache.invalidated"
	EventFlushed     = "cache.flushed"
)

// patterns that span several controllers and are cleared with any controller
var sharedPatterns = []string{
	cache.PrefixMultiReport + ":*",
	cache.PrefixComprehensive + ":*",
	"analytics:*:_all:*",
}

// CleanupService coordinates invalidation of cached analytics
type CleanupService struct {
	cache  cache.Service
	events *nuts.EventEmitter
}

// New creates a new CleanupService
func New(c cache.Service) *CleanupService {
	return &CleanupService{
		cache:  c,
		events: nuts.NewEventEmitter(),
	}
}

// InvalidateController removes every cached result that may include data of the controller
func (s *CleanupService) InvalidateController(ctx context.Context, controllerID string) (int, error) {
	if controllerID == "" {
		return 0, fmt.Errorf("controller id is required")
	}
	total := 0
	for _, pattern := range append([]string{cache.ControllerPattern(controllerID)}, sharedPatterns...) {
		n, err := s.cache.ClearPattern(ctx, pattern)
		if err != nil {
			return total, fmt.Errorf("failed to clear %s: %w", pattern, err)
		}
		total += n
	}

	nuts.L.Debugf("[Cache] Invalidated %d entries for controller %s", total, controllerID)
	s.events.Emit(EventInvalidated, controllerID)
	return total, nil
}

// InvalidateAll drops every cached analytics result
func (s *CleanupService) InvalidateAll(ctx context.Context) (int, error) {
	n, err := s.cache.ClearPattern(ctx, "analytics:*")
	if err != nil {
		return 0, fmt.Errorf("failed to flush analytics cache: %w", err)
	}
	s.events.Emit(EventFlushed, "*")
	return n, nil
}

// OnCleanup registers a callback for cleanup events
func (s *CleanupService) OnCleanup(event string, handler func(id string)) {
	s.events.On(event, nuts.NID("cleanup", 8), func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}
