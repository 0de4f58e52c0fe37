package ingestion

import "errors"

var (
	ErrNoEligibleFiles = errors.New("no eligible files")
	ErrInvalidArchive  = errors.New("invalid archive")
	ErrJobNotFound     = errors.New("ingestion job not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrPayloadTooLarge = errors.New("payload too large")
)

const (
	ErrorCodeValidation      = "VALIDATION_ERROR"
	ErrorCodeNoEligibleFiles = "NO_ELIGIBLE_FILES"
	ErrorCodeBidNotFound     = "BID_NOT_FOUND"
	ErrorCodeLLMTimeout      = "LLM_TIMEOUT"
	ErrorCodeStorage         = "STORAGE_ERROR"
	ErrorCodeInternal        = "INTERNAL_ERROR"
)
