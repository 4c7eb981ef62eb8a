package models

import "github.com/shopspring/decimal"

// ClabeAccount is the row shape of the clabe_accounts table. No balance
// column exists on purpose: balances are always derived from transactions.
type ClabeAccount struct {
	ClabeAccountID string `db:"clabe_account_id"`
	CompanyID      string `db:"company_id"`
	Clabe          string `db:"clabe"`
	Alias          string `db:"alias"`
	IsActive       bool   `db:"is_active"`
	IsConcentrator bool   `db:"is_concentrator"`
	AuditFields
}

// Company is the row shape of the companies table.
type Company struct {
	CompanyID         string          `db:"company_id"`
	Name              string          `db:"name"`
	CommissionPercent decimal.Decimal `db:"commission_percent"`
	ParentAccount     *string         `db:"parent_account"`
	IsActive          bool            `db:"is_active"`
	AuditFields
}
