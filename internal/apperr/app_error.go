package apperr

import "github.com/tuanvumaihuynh/inventory-service/pkg/zerror"

const (
	ValidationErrorCode     = "VALIDATION_FAILED"
	InvalidProductIDCode    = "INVALID_PRODUCT_ID"
	ProductNotFoundCode     = "PRODUCT_NOT_FOUND"
	ProductNameConflictCode = "PRODUCT_NAME_CONFLICT"
	CSVFileRequiredCode     = "CSV_FILE_REQUIRED"
	CSVMalformedCode        = "CSV_MALFORMED"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	InvalidProductIDErr = zerror.NewBadRequest(InvalidProductIDCode, "product id must be an integer")

	ProductNotFoundErr = zerror.NewNotFound(ProductNotFoundCode, "product not found")

	// The original API reports a duplicate name as a plain client error rather
	// than 409, so the conflict keeps bad-request status here.
	ProductNameConflictErr = zerror.NewBadRequest(ProductNameConflictCode, "name already used by another product")

	CSVFileRequiredErr = zerror.NewBadRequest(CSVFileRequiredCode, "CSV file required")

	CSVMalformedErr = zerror.NewBadRequest(CSVMalformedCode, "malformed CSV stream")
)
