package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BITS4/babyshop/internal/domain"
)

// Service keeps the live product list. The list is only ever replaced with a
// full snapshot from the store, never merged, so every subscriber observes
// exactly the most recent remote state. Writes go to the store first; local
// state catches up on the next change notification.
type Service struct {
	repo ProductRepository
	log  zerolog.Logger

	mu       sync.RWMutex
	products []domain.Product
	// remote-id cache keyed by local id; rebuilt on every snapshot, refilled
	// on lookup miss.
	remoteIDs map[int64]string

	subMu   sync.Mutex
	subs    map[int64]chan []domain.Product
	nextSub int64
}

func NewService(repo ProductRepository, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		log:       log.With().Str("component", "catalog").Logger(),
		remoteIDs: make(map[int64]string),
		subs:      make(map[int64]chan []domain.Product),
	}
}

// Run loads the catalog and follows the store's change stream until ctx is
// done. A broken stream is reopened; the snapshot stays at its last known
// good value in between.
func (s *Service) Run(ctx context.Context) {
	if err := s.refresh(ctx); err != nil {
		s.log.Error().Err(err).Msg("initial catalog load failed")
	}

	for {
		if ctx.Err() != nil {
			return
		}
		events, err := s.repo.Watch(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("change stream unavailable")
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}
		// Writes that landed while no stream was open produced no event;
		// re-sync before consuming the new stream.
		if err := s.refresh(ctx); err != nil {
			s.log.Error().Err(err).Msg("catalog refresh failed")
		}
		for range events {
			if err := s.refresh(ctx); err != nil {
				s.log.Error().Err(err).Msg("catalog refresh failed")
			}
		}
	}
}

func (s *Service) refresh(ctx context.Context) error {
	records, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	products := make([]domain.Product, 0, len(records))
	index := make(map[int64]string, len(records))
	for _, rec := range records {
		products = append(products, rec.Product)
		index[rec.Product.LocalID] = rec.RemoteID
	}

	s.mu.Lock()
	s.products = products
	s.remoteIDs = index
	s.mu.Unlock()

	s.broadcast(products)
	return nil
}

// List returns the current snapshot. An empty catalog is an empty list.
func (s *Service) List() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Subscribe registers for snapshot pushes. The returned channel carries the
// current snapshot immediately and then every replacement; a slow receiver
// only ever sees the latest one. The disposer must be called when done.
func (s *Service) Subscribe() (<-chan []domain.Product, func()) {
	ch := make(chan []domain.Product, 1)
	ch <- s.List()

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (s *Service) broadcast(snapshot []domain.Product) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		// Replace any undelivered snapshot with the newer one.
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

// Create writes the product to the store. No optimistic local mutation: the
// list updates when the change notification arrives.
func (s *Service) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.LocalID == 0 {
		p.LocalID = time.Now().UnixMilli()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	remoteID, err := s.repo.Insert(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.mu.Lock()
	s.remoteIDs[p.LocalID] = remoteID
	s.mu.Unlock()
	return p, nil
}

func (s *Service) Update(ctx context.Context, localID int64, p domain.Product) error {
	remoteID, err := s.resolveRemoteID(ctx, localID)
	if err != nil {
		return err
	}
	p.LocalID = localID

	if err := s.repo.Update(ctx, remoteID, p); err != nil {
		return fmt.Errorf("update product %d: %w", localID, err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, localID int64) error {
	remoteID, err := s.resolveRemoteID(ctx, localID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, remoteID); err != nil {
		return fmt.Errorf("delete product %d: %w", localID, err)
	}

	s.mu.Lock()
	delete(s.remoteIDs, localID)
	s.mu.Unlock()
	return nil
}

// resolveRemoteID consults the index cache and falls back to a store lookup
// when the cache is cold (fresh process, document written elsewhere).
func (s *Service) resolveRemoteID(ctx context.Context, localID int64) (string, error) {
	s.mu.RLock()
	remoteID, ok := s.remoteIDs[localID]
	s.mu.RUnlock()
	if ok {
		return remoteID, nil
	}

	rec, err := s.repo.FindByLocalID(ctx, localID)
	if err != nil {
		return "", fmt.Errorf("resolve product %d: %w", localID, err)
	}

	s.mu.Lock()
	s.remoteIDs[localID] = rec.RemoteID
	s.mu.Unlock()
	return rec.RemoteID, nil
}
