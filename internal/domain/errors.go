package domain

import "errors"

// Domain errors. Services return these; the HTTP layer maps them to
// problem-details responses via the Kind helpers below.
var (
	// Validation
	ErrZeroAmount                    = errors.New("amount must be non-zero")
	ErrNonPositiveAmount             = errors.New("amount must be positive")
	ErrAccountInactive               = errors.New("account is inactive")
	ErrCategoryDisallowsTransactions = errors.New("category does not allow transactions")
	ErrCategoryDisallowsAllocations  = errors.New("category does not allow allocations")
	ErrSystemCategoryProtected       = errors.New("system category cannot be modified")
	ErrSameAccount                   = errors.New("source and destination account must differ")
	ErrSameCategory                  = errors.New("source and destination category must differ")
	ErrInvalidBalance                = errors.New("opening balance must be zero; post an opening_balance transaction instead")
	ErrCannotMutateBalance           = errors.New("account balance cannot be mutated directly")
	ErrUnknownClass                  = errors.New("unknown or inconsistent account class")
	ErrTransferLegDirect             = errors.New("transfer legs must be created through the transfer operation")
	ErrTransferLegEdit               = errors.New("transfer legs accept status and memo edits only")
	ErrAdjustmentOnCash              = errors.New("balance adjustments are not allowed on cash accounts")
	ErrBalanceNotZero                = errors.New("account balance must be zero before deactivation")
	ErrFairValueNotZero              = errors.New("tangible fair value must be zero before deactivation")
	ErrDifferenceNotZero             = errors.New("reconciliation difference is not zero")
	ErrNameRequired                  = errors.New("name is required")
	ErrNameTooLong                   = errors.New("name exceeds maximum length")
	ErrInvalidStatus                 = errors.New("status must be pending or cleared")

	// Not found
	ErrAccountNotFound        = errors.New("account not found")
	ErrCategoryNotFound       = errors.New("category not found")
	ErrCategoryGroupNotFound  = errors.New("category group not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrAllocationNotFound     = errors.New("allocation not found")
	ErrReconciliationNotFound = errors.New("reconciliation not found")
	ErrMonthStateNotFound     = errors.New("monthly state not found")
	ErrDetailNotFound         = errors.New("account detail not found")
	ErrPriceNotFound          = errors.New("market price not found")

	// Conflict
	ErrVersionConflict = errors.New("active version changed; refetch and retry")

	// Guardrail
	ErrRangeTooLong = errors.New("requested date range exceeds the limit")

	// Storage
	ErrStorage = errors.New("storage error")
)

// Validation constants
const (
	MaxNameLength = 255
	MaxMemoLength = 1000

	// MaxHistoryDays caps balance-history ranges.
	MaxHistoryDays = 3650
)

var validationErrors = []error{
	ErrZeroAmount, ErrNonPositiveAmount, ErrAccountInactive,
	ErrCategoryDisallowsTransactions, ErrCategoryDisallowsAllocations,
	ErrSystemCategoryProtected, ErrSameAccount, ErrSameCategory,
	ErrInvalidBalance, ErrCannotMutateBalance, ErrUnknownClass,
	ErrTransferLegDirect, ErrTransferLegEdit, ErrAdjustmentOnCash, ErrBalanceNotZero,
	ErrFairValueNotZero, ErrDifferenceNotZero, ErrNameRequired,
	ErrNameTooLong, ErrInvalidStatus,
}

var notFoundErrors = []error{
	ErrAccountNotFound, ErrCategoryNotFound, ErrCategoryGroupNotFound,
	ErrTransactionNotFound, ErrAllocationNotFound,
	ErrReconciliationNotFound, ErrMonthStateNotFound, ErrDetailNotFound,
	ErrPriceNotFound,
}

// IsValidation reports whether err is a domain-rule violation.
func IsValidation(err error) bool {
	return matchesAny(err, validationErrors)
}

// IsNotFound reports whether err names a missing concept.
func IsNotFound(err error) bool {
	return matchesAny(err, notFoundErrors)
}

// IsConflict reports whether err is an SCD-2 version race.
func IsConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsGuardrail reports whether err is a range or limit guardrail.
func IsGuardrail(err error) bool {
	return errors.Is(err, ErrRangeTooLong)
}

func matchesAny(err error, set []error) bool {
	for _, e := range set {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
