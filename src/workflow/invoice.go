package workflow

var (
	invoiceFields = []string{
		"period_end", "customer_name", "status", "status_transitions",
		"number", "subtotal", "total", "invoice_pdf",
	}
	lineFields = []string{"quantity", "description", "unit_amount"}
)

// InvoiceContext is what the invoice pages render.
type InvoiceContext struct {
	ID       string
	Currency string
	Fields   Record
	Products []map[string]any
}

func NewInvoiceContext(inv *Invoice) *InvoiceContext {
	doc := inv.Document
	if doc == nil {
		doc = Record{}
	}

	products := make([]map[string]any, len(inv.Lines))
	for i, line := range inv.Lines {
		products[i] = Flatten(line, lineFields)
	}

	return &InvoiceContext{
		ID:       inv.ID,
		Currency: inv.Currency,
		Fields:   Project([]Record{doc}, invoiceFields)[0],
		Products: products,
	}
}
