package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/catalog"
	"github.com/pim/backend/internal/domain/shared"
	"github.com/pim/backend/internal/infrastructure/telemetry"
)

// exportPageSize bounds how many products are loaded per repository page
// while streaming an export.
const exportPageSize = 500

// CSVContentType is the content type exports are served and archived with
const CSVContentType = "text/csv"

// csvHeader is the column layout of the product export
var csvHeader = []string{
	"id", "external_id", "title", "handle", "status", "category", "brands",
	"sku", "price", "inventory_quantity", "created_at",
}

// ExportService streams the product catalog as CSV, one row per product
// with its category name, linked brand names and default variant data.
type ExportService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	brandRepo    catalog.BrandRepository
	linkRepo     catalog.ProductBrandLinkRepository
}

// NewExportService creates a new ExportService
func NewExportService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	brandRepo catalog.BrandRepository,
	linkRepo catalog.ProductBrandLinkRepository,
) *ExportService {
	return &ExportService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		linkRepo:     linkRepo,
	}
}

// WriteCSV writes the header plus one row per product to w, paging through
// the catalog in creation order. It returns the number of product rows
// written.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "export", "write_csv")
	defer span.End()

	var rows int
	var writeErr error
	telemetry.WithProfilingLabels(ctx, telemetry.ImportOperationLabels(telemetry.OperationExportCSV), func(c context.Context) {
		rows, writeErr = s.writeCSV(c, w)
	})
	if writeErr != nil {
		telemetry.RecordError(span, writeErr)
		return rows, writeErr
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrRowCount, rows)
	return rows, nil
}

func (s *ExportService) writeCSV(ctx context.Context, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}

	categoryNames := make(map[uuid.UUID]string)
	brandNames := make(map[uuid.UUID]string)

	rows := 0
	page := 1
	for {
		filter := shared.Filter{
			Page:     page,
			PageSize: exportPageSize,
			OrderBy:  "created_at",
			OrderDir: "asc",
		}

		products, err := s.productRepo.FindAll(ctx, filter)
		if err != nil {
			return rows, err
		}
		if len(products) == 0 {
			break
		}

		for i := range products {
			row, err := s.buildRow(ctx, &products[i], categoryNames, brandNames)
			if err != nil {
				return rows, err
			}
			if err := cw.Write(row); err != nil {
				return rows, err
			}
			rows++
		}

		if len(products) < exportPageSize {
			break
		}
		page++
	}

	cw.Flush()
	return rows, cw.Error()
}

// buildRow renders one product as a CSV record. Missing categories render
// as an empty column rather than failing the export.
func (s *ExportService) buildRow(
	ctx context.Context,
	product *catalog.Product,
	categoryNames map[uuid.UUID]string,
	brandNames map[uuid.UUID]string,
) ([]string, error) {
	externalID, _ := product.ExternalID()

	categoryName := ""
	if product.CategoryID != nil {
		name, err := s.categoryName(ctx, *product.CategoryID, categoryNames)
		if err != nil {
			return nil, err
		}
		categoryName = name
	}

	brands, err := s.productBrands(ctx, product.ID, brandNames)
	if err != nil {
		return nil, err
	}

	sku := ""
	price := ""
	inventory := ""
	if variant, ok := product.DefaultVariant(); ok {
		sku = variant.SKU
		price = variant.Price.String()
		inventory = strconv.Itoa(variant.InventoryQuantity)
	}

	return []string{
		product.ID.String(),
		externalID,
		product.Title,
		product.Handle,
		string(product.Status),
		categoryName,
		strings.Join(brands, ";"),
		sku,
		price,
		inventory,
		product.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (s *ExportService) categoryName(ctx context.Context, id uuid.UUID, cache map[uuid.UUID]string) (string, error) {
	if name, ok := cache[id]; ok {
		return name, nil
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			cache[id] = ""
			return "", nil
		}
		return "", err
	}

	cache[id] = category.Name
	return category.Name, nil
}

func (s *ExportService) productBrands(ctx context.Context, productID uuid.UUID, cache map[uuid.UUID]string) ([]string, error) {
	links, err := s.linkRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}

	var missing []uuid.UUID
	for _, link := range links {
		if _, ok := cache[link.BrandID]; !ok {
			missing = append(missing, link.BrandID)
		}
	}
	if len(missing) > 0 {
		brands, err := s.brandRepo.FindByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for i := range brands {
			cache[brands[i].ID] = brands[i].Name
		}
	}

	names := make([]string, 0, len(links))
	for _, link := range links {
		if name, ok := cache[link.BrandID]; ok && name != "" {
			names = append(names, name)
		}
	}

	return names, nil
}

// SnapshotKey returns the object storage key for an export taken at t
func SnapshotKey(t time.Time) string {
	return fmt.Sprintf("snapshots/%s/products.csv", t.UTC().Format("2006-01-02"))
}
