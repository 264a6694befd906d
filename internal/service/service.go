package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/pixel/internal/domain"
	"storefront/pixel/internal/domain/task"
	"storefront/pixel/internal/queue"
	"storefront/pixel/internal/state"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	maxAttempts = 3
	readBlock   = 5 * time.Second
)

type ProductLoader interface {
	GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error)
}

type ViewBuilder interface {
	View(ctx context.Context, product *domain.Product) (*domain.ProductView, error)
}

type Service struct {
	products    ProductLoader
	views       ViewBuilder
	queue       queue.Queue
	viewStore   state.ViewStore
	minIdleTime time.Duration
	stream      string
}

func NewService(
	products ProductLoader,
	views ViewBuilder,
	q queue.Queue,
	viewStore state.ViewStore,
	minIdleTime int,
) *Service {
	if minIdleTime <= 0 {
		minIdleTime = 120
	}

	return &Service{
		products:    products,
		views:       views,
		queue:       q,
		viewStore:   viewStore,
		minIdleTime: time.Duration(minIdleTime) * time.Second,
		stream:      queue.StreamName(task.ProductViewTaskType),
	}
}

// BuildView loads the product and derives its view without touching the queue
func (s *Service) BuildView(ctx context.Context, productID domain.ProductID) (*domain.ProductView, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.views.View(ctx, product)
}

// StoredView returns the view a worker saved for the product, or nil
func (s *Service) StoredView(ctx context.Context, productID domain.ProductID) (*domain.ProductView, error) {
	return s.viewStore.GetProductView(ctx, productID)
}

// Enqueue schedules view derivation for the given products
func (s *Service) Enqueue(ctx context.Context, productIDs []domain.ProductID) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(10)

	for _, productID := range productIDs {
		g.Go(func() error {
			if _, err := s.queue.AddTask(ctx, &task.ProductViewTask{ProductID: productID}); err != nil {
				return fmt.Errorf("failed to enqueue product %d: %w", productID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	log.Infof("✅ Enqueued %d products", len(productIDs))
	return nil
}

// RunWorkers consumes the product view stream until ctx is cancelled
func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	var wg sync.WaitGroup

	// Auto-claimer for messages left behind by dead consumers
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.minIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%d", time.Now().UnixNano())
				claimed, err := s.queue.AutoClaim(ctx, consumer, s.stream, s.minIdleTime)
				if err != nil {
					log.Errorf("❌ Failed to auto-claim messages for %s: %v", s.stream, err)
					continue
				}
				if len(claimed) > 0 {
					log.Infof("🔄 Auto-claimed %d messages", len(claimed))
				}
				for _, msg := range claimed {
					if err := s.processMessage(ctx, &msg); err != nil {
						log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
					}
				}
			}
		}
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("view-worker-%d", workerID)
			log.Infof("🚀 Starting worker %d as consumer %s", workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 Worker %d stopping", workerID)
					return
				default:
					msg, err := s.queue.GetTask(ctx, consumer, s.stream, readBlock)
					if err != nil {
						if ctx.Err() == nil {
							log.Errorf("❌ Failed to get task from %s: %v", s.stream, err)
						}
						continue
					}

					if msg != nil {
						if err := s.processMessage(ctx, msg); err != nil {
							log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}(i + 1)
	}

	wg.Wait()
	return nil
}

func (s *Service) processMessage(ctx context.Context, msg *redis.XMessage) error {
	taskType, ok := msg.Values["task_type"].(string)
	if !ok || taskType != task.ProductViewTaskType {
		return s.dropMessage(ctx, msg, fmt.Sprintf("unknown task type %v", msg.Values["task_type"]))
	}

	taskData, ok := msg.Values["task_data"].(string)
	if !ok {
		return s.dropMessage(ctx, msg, "task data is not a string")
	}

	viewTask, err := task.UnmarshalTask[*task.ProductViewTask]([]byte(taskData))
	if err != nil {
		return s.dropMessage(ctx, msg, fmt.Sprintf("undecodable task data: %v", err))
	}
	if viewTask == nil {
		return s.dropMessage(ctx, msg, "empty task data")
	}

	if err := s.deriveView(ctx, viewTask); err != nil {
		return err
	}

	if err := s.queue.AckTask(ctx, s.stream, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	return nil
}

// dropMessage acks a message no worker will ever be able to process, so it
// is not auto-claimed again.
func (s *Service) dropMessage(ctx context.Context, msg *redis.XMessage, reason string) error {
	log.Warnf("⚠️ Dropping message %s: %s", msg.ID, reason)
	if err := s.queue.AckTask(ctx, s.stream, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}
	return nil
}

// deriveView stores the product view, or the reason it could not be built.
// Transient failures are re-queued a few times first.
func (s *Service) deriveView(ctx context.Context, viewTask *task.ProductViewTask) error {
	view, err := s.BuildView(ctx, viewTask.ProductID)
	if err != nil {
		if !isPermanent(err) && viewTask.Attempt+1 < maxAttempts {
			retry := &task.ProductViewTask{ProductID: viewTask.ProductID, Attempt: viewTask.Attempt + 1}
			if _, addErr := s.queue.AddTask(ctx, retry); addErr != nil {
				return fmt.Errorf("failed to re-queue product %d: %w", viewTask.ProductID, addErr)
			}
			log.Warnf("🔄 Product %d failed, will retry (attempt %d): %v", viewTask.ProductID, retry.Attempt, err)
			return nil
		}

		log.Errorf("❌ Failed to derive view for product %d: %v", viewTask.ProductID, err)
		view = &domain.ProductView{ProductID: viewTask.ProductID, Error: err.Error()}
	}

	if err := s.viewStore.SetProductView(ctx, view); err != nil {
		return err
	}

	if view.Error == "" {
		log.Debugf("✅ Stored view for product %d", view.ProductID)
	}
	return nil
}

func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrProductNotFound) ||
		errors.Is(err, domain.ErrStoreNotFound) ||
		errors.Is(err, domain.ErrCategoryNotFound) ||
		errors.Is(err, domain.ErrPriceNotFound)
}
