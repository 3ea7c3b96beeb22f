package workflow

// Only depository checking and savings accounts can be debited over ACH.
var (
	AcceptableType     = "depository"
	AcceptableSubtypes = []string{"checking", "savings"}
	AccountFields      = []string{"account_id", "name", "mask"}
)

func EligibleAccounts(records []Record) []Record {
	return Project(FilterByType(records, AcceptableType, AcceptableSubtypes), AccountFields)
}
