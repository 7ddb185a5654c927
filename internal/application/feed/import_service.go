package feed

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	catalogapp "github.com/pim/backend/internal/application/catalog"
	"github.com/pim/backend/internal/domain/feed"
	"github.com/pim/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultBatchSize is the page size requested from the remote catalog when
// no valid size is configured.
const DefaultBatchSize = 30

// ImportService runs the feed reconciliation: fetch pages from the remote
// catalog, normalize records, resolve brand and category names, split the
// batch into create and update sets by external id, persist, and link new
// products to their brands. Batches are processed one at a time; a failed
// batch is compensated and recorded, and the run moves on to the next one.
type ImportService struct {
	source     feed.CatalogSource
	products   ProductModule
	categories CategoryResolver
	brands     BrandResolver
	linker     ProductBrandLinker
	batchSize  int
	logger     *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(
	source feed.CatalogSource,
	products ProductModule,
	categories CategoryResolver,
	brands BrandResolver,
	linker ProductBrandLinker,
	batchSize int,
	logger *zap.Logger,
) *ImportService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ImportService{
		source:     source,
		products:   products,
		categories: categories,
		brands:     brands,
		linker:     linker,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// runState carries the per-run name caches. Each distinct brand or category
// name resolves to exactly one canonical row for the whole run.
type runState struct {
	brandIDs    map[string]uuid.UUID
	categoryIDs map[string]uuid.UUID
}

func newRunState() *runState {
	return &runState{
		brandIDs:    make(map[string]uuid.UUID),
		categoryIDs: make(map[string]uuid.UUID),
	}
}

func (r *runState) brandID(name string) (uuid.UUID, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, false
	}
	id, ok := r.brandIDs[strings.ToLower(name)]
	return id, ok
}

func (r *runState) categoryID(name string) *uuid.UUID {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if id, ok := r.categoryIDs[strings.ToLower(name)]; ok {
		return &id
	}
	return nil
}

// batchCreations tracks the reference rows a batch created, so a failed
// batch can delete them again.
type batchCreations struct {
	brandIDs    []uuid.UUID
	categoryIDs []uuid.UUID
}

// updateItem pairs a feed record with the existing product it matched
type updateItem struct {
	productID uuid.UUID
	record    feed.Product
}

// Run executes one full import and returns the aggregated result. Batch
// failures are recorded on the result rather than returned; only context
// cancellation aborts the run with an error.
func (s *ImportService) Run(ctx context.Context) (*feed.ImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "import", "run")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrBatchSize, s.batchSize)

	var result *feed.ImportResult
	var runErr error
	telemetry.WithProfilingLabels(ctx, telemetry.ImportOperationLabels(telemetry.OperationImportRun), func(c context.Context) {
		result, runErr = s.run(c, span)
	})
	if runErr != nil {
		telemetry.RecordError(span, runErr)
		return nil, runErr
	}

	telemetry.SetAttributes(span,
		"status", result.Status.String(),
		"total_fetched", result.TotalFetched,
		"created_count", result.CreatedCount,
		"updated_count", result.UpdatedCount,
		"failed_count", result.FailedCount,
	)
	return result, nil
}

// run drives the fetch loop and batch reconciliation for one import
func (s *ImportService) run(ctx context.Context, span trace.Span) (*feed.ImportResult, error) {
	result := feed.NewImportResult()
	run := newRunState()

	s.logger.Info("Feed import started", zap.Int("batch_size", s.batchSize))

	skip := 0
	for {
		page, err := s.source.FetchPage(ctx, s.batchSize, skip)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			s.logger.Error("Feed page fetch failed, aborting run",
				zap.Int("skip", skip),
				zap.Error(err))
			result.RecordBatchError(skip, 0, fmt.Sprintf("fetch: %v", err))
			break
		}

		result.TotalFetched += len(page.Products)

		if len(page.Products) == 0 {
			break
		}

		if err := s.processBatch(ctx, run, page.Products, result); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			s.logger.Error("Batch failed",
				zap.Int("skip", skip),
				zap.Int("size", len(page.Products)),
				zap.Error(err))
			result.RecordBatchError(skip, len(page.Products), err.Error())
		} else {
			telemetry.AddEvent(span, "batch_imported",
				telemetry.SpanAttrBatchSkip, skip,
				telemetry.SpanAttrRowCount, len(page.Products),
			)
		}

		if !page.HasMore() {
			break
		}
		skip += s.batchSize
	}

	result.Finalize()
	s.logger.Info("Feed import finished",
		zap.String("status", result.Status.String()),
		zap.Int("fetched", result.TotalFetched),
		zap.Int("created", result.CreatedCount),
		zap.Int("updated", result.UpdatedCount),
		zap.Int("failed", result.FailedCount),
		zap.Duration("duration", result.Duration()))
	return result, nil
}

// processBatch reconciles one page of feed records. Reference rows created
// for the batch are compensated when any later step fails.
func (s *ImportService) processBatch(ctx context.Context, run *runState, records []feed.Product, result *feed.ImportResult) error {
	created := &batchCreations{}

	if err := s.resolveNames(ctx, run, records, created); err != nil {
		s.compensate(ctx, run, created)
		return err
	}

	externalIDs := make([]string, len(records))
	for i, record := range records {
		externalIDs[i] = strconv.FormatInt(record.ID, 10)
	}

	existing, err := s.products.ListByExternalIDs(ctx, externalIDs)
	if err != nil {
		s.compensate(ctx, run, created)
		return err
	}

	var creates []feed.Product
	var updates []updateItem
	for _, record := range records {
		if match, ok := existing[strconv.FormatInt(record.ID, 10)]; ok {
			updates = append(updates, updateItem{productID: match.ID, record: record})
		} else {
			creates = append(creates, record)
		}
	}

	createdProducts, err := s.createProducts(ctx, run, creates)
	if err != nil {
		s.compensate(ctx, run, created)
		return err
	}
	result.CreatedCount += len(createdProducts)

	updated, err := s.updateProducts(ctx, run, updates)
	result.UpdatedCount += updated
	if err != nil {
		s.compensate(ctx, run, created)
		return err
	}

	if err := s.linkBrands(ctx, run, creates, createdProducts); err != nil {
		s.compensate(ctx, run, created)
		return err
	}

	return nil
}

// resolveNames ensures every brand and category name in the batch has a
// canonical row, consulting the run cache before hitting the resolvers.
// Rows created here are recorded on the batch for compensation.
func (s *ImportService) resolveNames(ctx context.Context, run *runState, records []feed.Product, created *batchCreations) error {
	var brandNames, categoryNames []string
	for _, record := range records {
		if name := strings.TrimSpace(record.Brand); name != "" {
			if _, ok := run.brandIDs[strings.ToLower(name)]; !ok {
				brandNames = append(brandNames, name)
			}
		}
		if name := strings.TrimSpace(record.Category); name != "" {
			if _, ok := run.categoryIDs[strings.ToLower(name)]; !ok {
				categoryNames = append(categoryNames, name)
			}
		}
	}

	if len(brandNames) > 0 {
		resolved, createdIDs, err := s.brands.ResolveByNames(ctx, brandNames)
		if err != nil {
			return err
		}
		created.brandIDs = append(created.brandIDs, createdIDs...)
		for name, brand := range resolved {
			run.brandIDs[strings.ToLower(name)] = brand.ID
		}
	}

	if len(categoryNames) > 0 {
		resolved, createdIDs, err := s.categories.ResolveByNames(ctx, categoryNames)
		if err != nil {
			return err
		}
		created.categoryIDs = append(created.categoryIDs, createdIDs...)
		for name, category := range resolved {
			run.categoryIDs[strings.ToLower(name)] = category.ID
		}
	}

	return nil
}

// createProducts persists the batch's unmatched records in one bulk call
func (s *ImportService) createProducts(ctx context.Context, run *runState, records []feed.Product) ([]catalogapp.ProductResponse, error) {
	if len(records) == 0 {
		return nil, nil
	}

	reqs := make([]catalogapp.CreateProductRequest, len(records))
	for i, record := range records {
		reqs[i] = buildCreateRequest(record, run.categoryID(record.Category))
	}

	return s.products.BulkCreate(ctx, reqs)
}

// updateProducts fans the batch's updates out unordered, one goroutine per
// product, and waits for all of them. The first error is kept; updates that
// succeeded are counted even when a sibling fails.
func (s *ImportService) updateProducts(ctx context.Context, run *runState, items []updateItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		updated  int
	)

	for _, item := range items {
		wg.Add(1)
		go func(item updateItem) {
			defer wg.Done()
			req := buildUpdateRequest(item.record, run.categoryID(item.record.Category))
			if _, err := s.products.Update(ctx, item.productID, req); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			mu.Lock()
			updated++
			mu.Unlock()
		}(item)
	}
	wg.Wait()

	return updated, firstErr
}

// linkBrands associates each newly created product with its brand row.
// Records without a brand are skipped.
func (s *ImportService) linkBrands(ctx context.Context, run *runState, records []feed.Product, created []catalogapp.ProductResponse) error {
	if len(created) == 0 {
		return nil
	}

	byExternalID := make(map[string]feed.Product, len(records))
	for _, record := range records {
		byExternalID[strconv.FormatInt(record.ID, 10)] = record
	}

	for _, product := range created {
		record, ok := byExternalID[product.ExternalID]
		if !ok {
			continue
		}
		brandID, ok := run.brandID(record.Brand)
		if !ok {
			continue
		}
		if err := s.linker.Link(ctx, product.ID, brandID); err != nil {
			return err
		}
	}

	return nil
}

// compensate best-effort deletes the reference rows a failed batch created
// and evicts them from the run cache so a later batch can recreate them.
func (s *ImportService) compensate(ctx context.Context, run *runState, created *batchCreations) {
	if len(created.brandIDs) > 0 {
		if err := s.brands.DeleteBatch(ctx, created.brandIDs); err != nil {
			s.logger.Warn("Brand compensation failed",
				zap.Int("count", len(created.brandIDs)),
				zap.Error(err))
		}
		evictIDs(run.brandIDs, created.brandIDs)
	}

	if len(created.categoryIDs) > 0 {
		if err := s.categories.DeleteBatch(ctx, created.categoryIDs); err != nil {
			s.logger.Warn("Category compensation failed",
				zap.Int("count", len(created.categoryIDs)),
				zap.Error(err))
		}
		evictIDs(run.categoryIDs, created.categoryIDs)
	}
}

// evictIDs removes cache entries pointing at any of the given ids
func evictIDs(cache map[string]uuid.UUID, ids []uuid.UUID) {
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	for key, id := range cache {
		if drop[id] {
			delete(cache, key)
		}
	}
}
