package memo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"sumcache/internal/fingerprint"
)

// DefaultOperationTimeout bounds a single storage round trip when Options leaves it unset.
const DefaultOperationTimeout = 5 * time.Second

// HotCache is an optional read-through cache in front of the Store.
// It only ever receives results already committed to the Store.
type HotCache interface {
	Get(ctx context.Context, fp fingerprint.Fingerprint) (int64, bool, error)
	Set(ctx context.Context, fp fingerprint.Fingerprint, result int64) error
}

// Options configures a Memoizer.
type Options struct {
	// Coalesce shares one storage round trip between concurrent misses on the same
	// fingerprint within this process.
	Coalesce bool

	// OperationTimeout bounds each storage round trip (default: 5s).
	OperationTimeout time.Duration

	// HotCache is consulted before the Store when set.
	HotCache HotCache
}

// Result is the outcome of ComputeOrFetch.
type Result struct {
	Sum    int64
	Cached bool
	// Fingerprint is the key the result is stored under.
	Fingerprint fingerprint.Fingerprint
}

// Memoizer computes sums at most once per fingerprint, persisting results in a Store.
type Memoizer struct {
	store    Store
	hot      HotCache
	coalesce bool
	timeout  time.Duration
	group    singleflight.Group
}

// New returns a Memoizer over store.
func New(store Store, opts Options) (*Memoizer, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	timeout := opts.OperationTimeout
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	return &Memoizer{
		store:    store,
		hot:      opts.HotCache,
		coalesce: opts.Coalesce,
		timeout:  timeout,
	}, nil
}

// ComputeOrFetch returns the sum of numbers. Cached is false only for the call whose
// insert created the record; every other call for the same multiset reports true.
//
// Errors wrap ErrOverflow (terminal for this input) or ErrStorageUnavailable (retryable).
func (m *Memoizer) ComputeOrFetch(ctx context.Context, numbers []int64) (Result, error) {
	fp := fingerprint.Of(numbers)

	if sum, ok := m.hotGet(ctx, fp); ok {
		lookupsTotal.WithLabelValues(outcomeHotHit).Inc()
		return Result{Sum: sum, Cached: true, Fingerprint: fp}, nil
	}

	if !m.coalesce {
		return m.resolve(ctx, fp, numbers)
	}

	// The shared call must outlive any single caller, so it drops cancellation and
	// relies on the operation timeout instead.
	executed := false
	ch := m.group.DoChan(fp.String(), func() (interface{}, error) {
		executed = true
		return m.resolve(context.WithoutCancel(ctx), fp, numbers)
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		r := res.Val.(Result)
		if !executed {
			r.Cached = true
		}
		return r, nil
	}
}

// Lookup returns the stored record for fp, or ErrNotFound.
func (m *Memoizer) Lookup(ctx context.Context, fp fingerprint.Fingerprint) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	rec, err := m.store.FindByFingerprint(ctx, fp)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return rec, nil
}

func (m *Memoizer) resolve(ctx context.Context, fp fingerprint.Fingerprint, numbers []int64) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	rec, err := m.store.FindByFingerprint(ctx, fp)
	switch {
	case err == nil:
		lookupsTotal.WithLabelValues(outcomeHit).Inc()
		m.hotSet(ctx, fp, rec.Result)
		return Result{Sum: rec.Result, Cached: true, Fingerprint: fp}, nil
	case !errors.Is(err, ErrNotFound):
		errorsTotal.WithLabelValues(errorKindStorage).Inc()
		return Result{}, fmt.Errorf("%w: find %s: %w", ErrStorageUnavailable, fp, err)
	}
	lookupsTotal.WithLabelValues(outcomeMiss).Inc()

	start := time.Now()
	total, err := Sum(numbers)
	computeSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		errorsTotal.WithLabelValues(errorKindOverflow).Inc()
		return Result{}, fmt.Errorf("fingerprint %s: %w", fp, err)
	}

	ins, err := m.store.InsertIfAbsent(ctx, &Record{
		Fingerprint: fp,
		RawInput:    numbers,
		Result:      total,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		errorsTotal.WithLabelValues(errorKindStorage).Inc()
		return Result{}, fmt.Errorf("%w: insert %s: %w", ErrStorageUnavailable, fp, err)
	}

	if ins.Inserted {
		m.hotSet(ctx, fp, total)
		return Result{Sum: total, Cached: false, Fingerprint: fp}, nil
	}

	insertConflictsTotal.Inc()
	slog.Debug("insert race lost, adopting committed record", "fingerprint", fp.String())
	m.hotSet(ctx, fp, ins.Existing.Result)
	return Result{Sum: ins.Existing.Result, Cached: true, Fingerprint: fp}, nil
}

func (m *Memoizer) hotGet(ctx context.Context, fp fingerprint.Fingerprint) (int64, bool) {
	if m.hot == nil {
		return 0, false
	}
	sum, ok, err := m.hot.Get(ctx, fp)
	if err != nil {
		slog.Warn("hot cache read failed", "fingerprint", fp.String(), "error", err)
		return 0, false
	}
	return sum, ok
}

func (m *Memoizer) hotSet(ctx context.Context, fp fingerprint.Fingerprint, result int64) {
	if m.hot == nil {
		return
	}
	if err := m.hot.Set(ctx, fp, result); err != nil {
		slog.Warn("hot cache write failed", "fingerprint", fp.String(), "error", err)
	}
}
