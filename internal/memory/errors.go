package memory

import "github.com/SRdeMora/quimera/internal/types"

// Memory tier error codes
const (
	// Recency tier errors. The recency tier is load-bearing: callers surface
	// these to the user instead of degrading.
	ErrCodeRecencyUnavailable  types.ErrorCode = "RECENCY_STORE_UNAVAILABLE"
	ErrCodeRecencyAppendFailed types.ErrorCode = "RECENCY_APPEND_FAILED"
	ErrCodeRecencyFetchFailed  types.ErrorCode = "RECENCY_FETCH_FAILED"

	// Tone carryover errors
	ErrCodeToneCacheUnavailable types.ErrorCode = "TONE_CACHE_UNAVAILABLE"

	// Semantic tier errors
	ErrCodeVectorStoreUnavailable types.ErrorCode = "VECTOR_STORE_UNAVAILABLE"
	ErrCodeVectorStoreFailed      types.ErrorCode = "VECTOR_STORE_FAILED"
	ErrCodeVectorSearchFailed     types.ErrorCode = "VECTOR_SEARCH_FAILED"

	// Relational tier errors
	ErrCodeGraphUnavailable    types.ErrorCode = "GRAPH_STORE_UNAVAILABLE"
	ErrCodeGraphWriteFailed    types.ErrorCode = "GRAPH_WRITE_FAILED"
	ErrCodeGraphExpandFailed   types.ErrorCode = "GRAPH_EXPAND_FAILED"
	ErrCodeChainBranchDetected types.ErrorCode = "CHAIN_BRANCH_DETECTED"

	// Embedder errors
	ErrCodeEmbedderUnavailable types.ErrorCode = "EMBEDDER_UNAVAILABLE"
	ErrCodeEmbeddingFailed     types.ErrorCode = "EMBEDDING_FAILED"

	// Summary store errors
	ErrCodeSummaryStoreFailed types.ErrorCode = "SUMMARY_STORE_FAILED"

	// General errors
	ErrCodeInvalidConfig types.ErrorCode = "INVALID_MEMORY_CONFIG"
	ErrCodeInvalidTurn   types.ErrorCode = "MEMORY_INVALID_TURN"
)

// NewRecencyUnavailableError creates an error for when the recency store is down.
// This is the fatal, caller-visible failure mode of the memory stack.
func NewRecencyUnavailableError(message string, cause error) *types.QuimeraError {
	return types.WrapError(ErrCodeRecencyUnavailable, message, cause)
}

// NewRecencyAppendError creates an error for a failed recency append.
func NewRecencyAppendError(message string, cause error) *types.QuimeraError {
	return types.WrapError(ErrCodeRecencyAppendFailed, message, cause)
}

// NewRecencyFetchError creates an error for a failed recency window fetch.
func NewRecencyFetchError(message string, cause error) *types.QuimeraError {
	return types.WrapError(ErrCodeRecencyFetchFailed, message, cause)
}

// NewToneCacheError creates an error for a tone carryover cache failure.
func NewToneCacheError(message string, cause error) *types.QuimeraError {
	return types.WrapError(ErrCodeToneCacheUnavailable, message, cause)
}

// NewVectorStoreError creates an error for when a vector store operation fails.
func NewVectorStoreError(message string, cause error) *types.QuimeraError {
	return types.WrapError(ErrCodeVectorStoreFailed, message, cause)
}

// NewVectorSearchError creates an error for when vector search fails.
func NewVectorSearchError(message string, cause error) *types.QuimeraError {
	return types.WrapError(ErrCodeVectorSearchFailed, message, cause)
}

// NewGraphWriteError creates an error for a failed relational-tier write.
func NewGraphWriteError(message string, cause error) *types.QuimeraError {
	return types.WrapError(ErrCodeGraphWriteFailed, message, cause)
}

// NewGraphExpandError creates an error for a failed chain expansion.
func NewGraphExpandError(message string, cause error) *types.QuimeraError {
	return types.WrapError(ErrCodeGraphExpandFailed, message, cause)
}

// NewChainBranchError creates an error for a detected NEXT-chain branch.
// This wraps INVARIANT_VIOLATION semantics: it signals a bug in the
// single-writer discipline, never a recoverable runtime condition.
func NewChainBranchError(message string) *types.QuimeraError {
	return types.NewError(ErrCodeChainBranchDetected, message)
}

// NewEmbedderUnavailableError creates an error for when an embedder cannot
// be constructed or reached.
func NewEmbedderUnavailableError(message string, cause error) *types.QuimeraError {
	return types.WrapError(ErrCodeEmbedderUnavailable, message, cause)
}

// NewEmbeddingError creates an error for when embedding generation fails.
func NewEmbeddingError(message string, cause error) *types.QuimeraError {
	return types.WrapError(ErrCodeEmbeddingFailed, message, cause)
}

// NewSummaryStoreError creates an error for a summary store failure.
func NewSummaryStoreError(message string, cause error) *types.QuimeraError {
	return types.WrapError(ErrCodeSummaryStoreFailed, message, cause)
}

// NewInvalidConfigError creates an error for invalid memory configuration.
func NewInvalidConfigError(message string) *types.QuimeraError {
	return types.NewError(ErrCodeInvalidConfig, message)
}

// NewInvalidTurnError creates an error for invalid turns.
func NewInvalidTurnError(message string) *types.QuimeraError {
	return types.NewError(ErrCodeInvalidTurn, message)
}
