package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tuanvumaihuynh/inventory-service/internal/apperr"
	"github.com/tuanvumaihuynh/inventory-service/internal/repository"
	"github.com/tuanvumaihuynh/inventory-service/pkg/csvutil"
)

// csvColumns is the column order shared by import and export. Export writes
// exactly this header so an exported file round-trips through import without
// any column mapping.
var csvColumns = []string{"name", "unit", "category", "brand", "stock", "status", "image"}

type ImportDuplicate struct {
	Name       string
	ExistingID int64
}

type ImportSummary struct {
	Added      int
	Skipped    int
	Duplicates []ImportDuplicate
}

// ImportProducts consumes one uploaded CSV stream top to bottom. Rows are
// processed strictly in file order and never concurrently: each row's
// duplicate check must observe the rows inserted earlier in the same run.
//
// A mid-stream read error aborts the run; rows inserted before the failure
// stay committed.
func (s *productService) ImportProducts(ctx context.Context, r io.Reader) (ImportSummary, error) {
	reader := csv.NewReader(r)
	// Short rows are tolerated, missing fields read as empty.
	reader.FieldsPerRecord = -1

	summary := ImportSummary{Duplicates: []ImportDuplicate{}}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return summary, nil
	}
	if err != nil {
		return summary, apperr.CSVMalformedErr.WrapParent(err)
	}
	index := csvutil.HeaderIndex(header)

	// Names inserted or matched during this run, keyed by lowercased name.
	seen := map[string]int64{}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, apperr.CSVMalformedErr.WrapParent(err)
		}

		name := strings.TrimSpace(csvutil.Field(row, index, "name"))
		if name == "" {
			continue
		}

		key := strings.ToLower(name)
		if id, ok := seen[key]; ok {
			summary.Skipped++
			summary.Duplicates = append(summary.Duplicates, ImportDuplicate{Name: name, ExistingID: id})
			continue
		}

		id, found, err := s.productRepo.FindProductIDByName(ctx, name, 0)
		if err != nil {
			return summary, fmt.Errorf("product repository find product id by name: %w", err)
		}
		if found {
			seen[key] = id
			summary.Skipped++
			summary.Duplicates = append(summary.Duplicates, ImportDuplicate{Name: name, ExistingID: id})
			continue
		}

		product, err := s.productRepo.CreateProduct(ctx, repository.CreateProductParams{
			Name:     name,
			Unit:     csvutil.Field(row, index, "unit"),
			Category: csvutil.Field(row, index, "category"),
			Brand:    csvutil.Field(row, index, "brand"),
			Stock:    coerceStock(csvutil.Field(row, index, "stock")),
			Status:   csvutil.Field(row, index, "status"),
			Image:    csvutil.Field(row, index, "image"),
		})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateName) {
				// Lost a race against a concurrent writer; the storage-level
				// constraint caught it, report the row as a duplicate.
				if id, found, lookupErr := s.productRepo.FindProductIDByName(ctx, name, 0); lookupErr == nil && found {
					seen[key] = id
					summary.Skipped++
					summary.Duplicates = append(summary.Duplicates, ImportDuplicate{Name: name, ExistingID: id})
					continue
				}
			}
			return summary, fmt.Errorf("product repository create product: %w", err)
		}

		seen[key] = product.ID
		summary.Added++
	}

	return summary, nil
}

// coerceStock parses a stock cell. Absent, non-numeric and negative values
// default to 0 so a sloppy row never aborts the run.
func coerceStock(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
