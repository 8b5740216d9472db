package domain

// Canonical category keys recognised by the column resolver
const (
	CategoryExports               = "exports"
	CategoryImports               = "imports"
	CategoryServicesExport        = "services_export"
	CategoryServicesImport        = "services_import"
	CategoryPICredit              = "pi_credit"
	CategoryPIDebit               = "pi_debit"
	CategorySecondaryCredit       = "secondary_credit"
	CategorySecondaryDebit        = "secondary_debit"
	CategoryWorkersRemittances    = "workers_remittances"
	CategoryCurrentAccountBalance = "current_account_balance"
	CategoryGDP                   = "gdp"
)

// Derived indicator descriptions
const (
	IndicatorBalanceOnGoods           = "balance_on_goods"
	IndicatorBalanceOnServices        = "balance_on_services"
	IndicatorBalanceOnPrimaryIncome   = "balance_on_primary_income"
	IndicatorSecondaryCreditCombined  = "secondary_credit_combined"
	IndicatorBalanceOnSecondaryIncome = "balance_on_secondary_income"
	IndicatorCurrentAccountCalculated = "current_account_calculated"
	IndicatorCurrentAccountReported   = "current_account_reported"
	IndicatorCurrentAccountDiff       = "current_account_diff"
	IndicatorCAPercentGDP             = "ca_percent_gdp"
)

// FlagPrefix marks availability flag rows
const FlagPrefix = "_has_"

// CurrentAccountComponents are the balances summed into the calculated current account
var CurrentAccountComponents = []string{
	IndicatorBalanceOnGoods,
	IndicatorBalanceOnServices,
	IndicatorBalanceOnPrimaryIncome,
	IndicatorBalanceOnSecondaryIncome,
}

// FlaggedIndicators are the indicators that get an availability flag row
var FlaggedIndicators = []string{
	IndicatorBalanceOnGoods,
	IndicatorBalanceOnServices,
	IndicatorBalanceOnPrimaryIncome,
	IndicatorBalanceOnSecondaryIncome,
	IndicatorCurrentAccountCalculated,
}

// FlagName returns the availability flag description for an indicator
func FlagName(indicator string) string {
	return FlagPrefix + indicator
}

// IsFlag reports whether a description is an availability flag
func IsFlag(description string) bool {
	return len(description) > len(FlagPrefix) && description[:len(FlagPrefix)] == FlagPrefix
}
