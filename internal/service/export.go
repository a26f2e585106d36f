package service

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/tuanvumaihuynh/inventory-service/pkg/csvutil"
)

// ExportProducts serializes every product as CSV: the shared header line, then
// one line per product with every field double-quoted and embedded quotes
// doubled. The internal identifier is not exported.
func (s *productService) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.productRepo.ListAllProducts(ctx)
	if err != nil {
		return fmt.Errorf("product repository list all products: %w", err)
	}

	writer := csvutil.NewWriter(w)
	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range products {
		record := []string{
			p.Name,
			p.Unit,
			p.Category,
			p.Brand,
			strconv.Itoa(p.Stock),
			p.Status,
			p.Image,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	return writer.Flush()
}
