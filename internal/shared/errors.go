package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Catalog and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrMovieNotFound      = fmt.Errorf("movie not found")
	ErrRateLimited        = fmt.Errorf("rate limited")

	// Import errors
	ErrImportRead    = fmt.Errorf("failed to read import source")
	ErrImportParse   = fmt.Errorf("malformed import document")
	ErrImportInvalid = fmt.Errorf("invalid movie record")

	// Persistence errors
	ErrPersistence = fmt.Errorf("persistence operation failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
