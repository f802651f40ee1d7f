package service

import (
	"context"
	"cropcast/internal/calculator"
	"cropcast/internal/domain"
	"cropcast/internal/logger"
	"cropcast/internal/repository"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// GraphFactory builds an executable graph from raw model bytes. Injected
// so tests can swap the onnx runtime for a fake.
type GraphFactory func(modelData []byte) (domain.Graph, error)

type BundleService interface {
	// Current returns the active bundle. Nil until Load succeeds.
	Current() *domain.ModelBundle
	// Load fetches the newest bundle and makes it active. Failure here
	// is fatal at startup; after that, refreshes never evict the
	// last good bundle.
	Load(ctx context.Context) error
	// RefreshIfDue re-checks the source once the refresh boundary has
	// passed. It never returns an error; a failed refresh keeps the
	// current bundle and logs.
	RefreshIfDue(ctx context.Context)
	// Refresh re-checks the source regardless of the boundary, so a
	// bundle published mid-day can be picked up on demand.
	Refresh(ctx context.Context)
	StartRefresher(ctx context.Context, interval time.Duration)
	// Close releases every graph the service still holds, including
	// bundles retired by earlier swaps. Call only at shutdown, once no
	// predictions are in flight.
	Close()
}

func NewBundleService(
	sourceRepository repository.BundleSourceRepository,
	graphFactory GraphFactory,
) BundleService {
	return &bundleServiceHandler{
		SourceRepository: sourceRepository,
		GraphFactory:     graphFactory,
		current:          &atomic.Pointer[domain.ModelBundle]{},
		refreshMutex:     &sync.Mutex{},
	}
}

type bundleServiceHandler struct {
	SourceRepository repository.BundleSourceRepository
	GraphFactory     GraphFactory

	current      *atomic.Pointer[domain.ModelBundle]
	refreshMutex *sync.Mutex
	lastRefresh  time.Time
	// bundles replaced by a swap. In-flight predictions may still hold
	// them, so their graphs stay open until Close.
	retired []*domain.ModelBundle
}

func (h *bundleServiceHandler) Current() *domain.ModelBundle {
	return h.current.Load()
}

func (h *bundleServiceHandler) Load(ctx context.Context) error {
	h.refreshMutex.Lock()
	defer h.refreshMutex.Unlock()

	bundle, err := h.fetchLatest(ctx)
	if err != nil {
		return err
	}
	if bundle == nil {
		return domain.BundleLoadError{Source: "source", Err: fmt.Errorf("no bundles published")}
	}
	h.swap(ctx, bundle)
	return nil
}

func (h *bundleServiceHandler) RefreshIfDue(ctx context.Context) {
	h.refreshMutex.Lock()
	defer h.refreshMutex.Unlock()

	now := time.Now().UTC()
	// at most once per calendar day on the ticker path; mid-day
	// publishes are reachable through Refresh
	if !h.lastRefresh.IsZero() && sameDay(h.lastRefresh, now) {
		return
	}
	h.refresh(ctx, now)
}

func (h *bundleServiceHandler) Refresh(ctx context.Context) {
	h.refreshMutex.Lock()
	defer h.refreshMutex.Unlock()

	h.refresh(ctx, time.Now().UTC())
}

// refresh re-checks the source and swaps in a newer bundle if one exists.
// Callers hold refreshMutex.
func (h *bundleServiceHandler) refresh(ctx context.Context, now time.Time) {
	bundle, err := h.fetchLatest(ctx)
	if err != nil {
		logger.FromContext(ctx).Errorf("bundle refresh failed, keeping current: %v", err)
		return
	}
	h.lastRefresh = now
	if bundle == nil {
		logger.FromContext(ctx).Warnf("bundle refresh found no published bundles, keeping current")
		return
	}

	if current := h.current.Load(); current != nil && current.Version == bundle.Version {
		// a duplicate build never became visible to readers, so closing
		// its graph here is safe
		if bundle != current && bundle.Graph != nil {
			bundle.Graph.Close()
		}
		return
	}
	h.swap(ctx, bundle)
}

func (h *bundleServiceHandler) StartRefresher(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.RefreshIfDue(ctx)
			}
		}
	}()
}

func (h *bundleServiceHandler) fetchLatest(ctx context.Context) (*domain.ModelBundle, error) {
	var files *repository.BundleFiles

	operation := func() error {
		version, err := h.SourceRepository.LatestVersion(ctx)
		if err != nil {
			return err
		}
		if version == "" {
			files = nil
			return nil
		}
		if current := h.current.Load(); current != nil && current.Version == version {
			files = nil
			return nil
		}
		files, err = h.SourceRepository.Fetch(ctx, version)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, domain.BundleLoadError{Source: "source", Err: err}
	}
	if files == nil {
		// either nothing published, or already on the newest version
		if current := h.current.Load(); current != nil {
			return current, nil
		}
		return nil, nil
	}

	artifact, err := calculator.ParseArtifact(files.ArtifactData)
	if err != nil {
		return nil, domain.BundleLoadError{Source: files.Version, Err: err}
	}
	graph, err := h.GraphFactory(files.ModelData)
	if err != nil {
		return nil, domain.BundleLoadError{Source: files.Version, Err: err}
	}

	return &domain.ModelBundle{
		Version:  files.Version,
		LoadedAt: time.Now().UTC(),
		Graph:    graph,
		Artifact: artifact,
	}, nil
}

// swap makes bundle the active one. The replaced bundle is retired, not
// closed: a prediction that captured it through Current may still be inside
// Graph.Run, and destroying the session under it would crash the process.
// One retained session per refresh is cheap; Close reclaims them.
func (h *bundleServiceHandler) swap(ctx context.Context, bundle *domain.ModelBundle) {
	old := h.current.Swap(bundle)
	if old != nil && old != bundle {
		h.retired = append(h.retired, old)
	}
	logger.FromContext(ctx).Infof("activated model bundle %s", bundle.Version)
}

func (h *bundleServiceHandler) Close() {
	h.refreshMutex.Lock()
	defer h.refreshMutex.Unlock()

	if current := h.current.Swap(nil); current != nil {
		h.retired = append(h.retired, current)
	}
	for _, bundle := range h.retired {
		if bundle.Graph == nil {
			continue
		}
		if err := bundle.Graph.Close(); err != nil {
			logger.Error(fmt.Errorf("failed to close graph for bundle %s: %w", bundle.Version, err))
		}
	}
	h.retired = nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
