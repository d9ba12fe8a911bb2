package catalog

import "github.com/shopspring/decimal"

// DemoProducts is the starter catalog loaded by the seeder and the in-memory
// store.
func DemoProducts() []ProductInput {
	return []ProductInput{
		{SKU: "P001", Name: "Laptop", AvailableStock: 10, Price: decimal.NewFromInt(50000), TaxPercentage: decimal.NewFromInt(18)},
		{SKU: "P002", Name: "Mouse", AvailableStock: 50, Price: decimal.NewFromInt(500), TaxPercentage: decimal.NewFromInt(12)},
		{SKU: "P003", Name: "Keyboard", AvailableStock: 30, Price: decimal.NewFromInt(1500), TaxPercentage: decimal.NewFromInt(12)},
		{SKU: "P004", Name: "Monitor", AvailableStock: 15, Price: decimal.NewFromInt(15000), TaxPercentage: decimal.NewFromInt(18)},
		{SKU: "P005", Name: "USB Cable", AvailableStock: 100, Price: decimal.NewFromInt(200), TaxPercentage: decimal.NewFromInt(5)},
	}
}
