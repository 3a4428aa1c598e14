package domain

// DailySummary agrega os números do dia para o dashboard administrativo:
// faturamento, número de transações e produtos abaixo do limiar de reposição.
type DailySummary struct {
	Date              string            `json:"date"`
	TotalSalesAmount  float64           `json:"total_sales_amount"`
	TotalTransactions int               `json:"total_transactions"`
	LowStockProducts  []LowStockProduct `json:"low_stock_products"`
}
