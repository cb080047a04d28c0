package accounts

import "github.com/cleared-dev/tally/internal/model"

// DefaultChart returns a starter three-tier chart of accounts.
func DefaultChart() []model.Account {
	return []model.Account{
		{Code: "1000", Name: "Assets", Level: model.LevelParent},
		{Code: "1100", Name: "Current Assets", Level: model.LevelSub, ParentCode: "1000"},
		{Code: "1101", Name: "Cash on Hand", Level: model.LevelReal, ParentCode: "1100", Description: "Till and petty cash"},
		{Code: "1102", Name: "Business Checking", Level: model.LevelReal, ParentCode: "1100", Description: "Primary bank account"},
		{Code: "1103", Name: "Mobile Money", Level: model.LevelReal, ParentCode: "1100"},
		{Code: "1200", Name: "Receivables", Level: model.LevelSub, ParentCode: "1000"},
		{Code: "1201", Name: "Trade Debtors", Level: model.LevelReal, ParentCode: "1200"},
		{Code: "2000", Name: "Liabilities", Level: model.LevelParent},
		{Code: "2100", Name: "Payables", Level: model.LevelSub, ParentCode: "2000"},
		{Code: "2101", Name: "Trade Creditors", Level: model.LevelReal, ParentCode: "2100"},
		{Code: "2200", Name: "Statutory Levies", Level: model.LevelSub, ParentCode: "2000"},
		{Code: "2201", Name: "VAT Payable", Level: model.LevelReal, ParentCode: "2200"},
		{Code: "3000", Name: "Equity", Level: model.LevelParent},
		{Code: "3100", Name: "Owner's Capital", Level: model.LevelSub, ParentCode: "3000"},
		{Code: "3101", Name: "Capital Introduced", Level: model.LevelReal, ParentCode: "3100"},
		{Code: "4000", Name: "Revenue", Level: model.LevelParent},
		{Code: "4100", Name: "Sales", Level: model.LevelSub, ParentCode: "4000"},
		{Code: "4101", Name: "Product Sales", Level: model.LevelReal, ParentCode: "4100"},
		{Code: "5000", Name: "Expenses", Level: model.LevelParent},
		{Code: "5100", Name: "Cost of Sales", Level: model.LevelSub, ParentCode: "5000"},
		{Code: "5101", Name: "Purchases", Level: model.LevelReal, ParentCode: "5100"},
		{Code: "5200", Name: "Operating Expenses", Level: model.LevelSub, ParentCode: "5000"},
		{Code: "5201", Name: "Rent", Level: model.LevelReal, ParentCode: "5200"},
		{Code: "5202", Name: "Utilities", Level: model.LevelReal, ParentCode: "5200"},
	}
}
