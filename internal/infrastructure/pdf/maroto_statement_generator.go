// Package pdf genera el extracto del ledger de inventario en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + fecha de generación                        │
//	│  FILTROS: producto / lote / tipo / rango de fechas           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Tipo | Producto | Lote | Cant. | Costo | Ref │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: conteos por tipo + valores de compra y venta       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appinventory "github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoStatementGenerator implementa inventory.StatementRenderer usando Maroto v2.
type MarotoStatementGenerator struct {
	company string
}

var _ appinventory.StatementRenderer = (*MarotoStatementGenerator)(nil)

// NewMarotoStatementGenerator construye el generador; company va en el encabezado.
func NewMarotoStatementGenerator(company string) *MarotoStatementGenerator {
	return &MarotoStatementGenerator{company: company}
}

// RenderStatement genera el PDF y devuelve sus bytes.
func (g *MarotoStatementGenerator) RenderStatement(data appinventory.StatementData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Extracto de movimientos de inventario", true).
		WithAuthor(g.company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.company, data.GeneratedAt))
	m.AddRows(filterRow(data.Filter))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	if len(data.Entries) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos para los filtros indicados.", props.Text{
				Size: 8, Align: align.Center, Top: 2, Color: colorGray,
			}),
		)))
	}
	m.AddRows(tableDetailRows(data.Entries)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(data.Summary))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar extracto: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(company string, generatedAt time.Time) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(nonEmpty(company, "Inventario"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Extracto de movimientos de inventario", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Generado: "+generatedAt.Format("02/01/2006 15:04 MST"), props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

// filterRow resume los filtros aplicados.
func filterRow(f repository.TransactionFilter) core.Row {
	var parts []string
	if f.ProductID != "" {
		parts = append(parts, "Producto: "+f.ProductID)
	}
	if f.BatchID != "" {
		parts = append(parts, "Lote: "+f.BatchID)
	}
	if f.Type != "" {
		parts = append(parts, "Tipo: "+typeLabel(f.Type))
	}
	if f.From != nil {
		parts = append(parts, "Desde: "+f.From.Format("02/01/2006"))
	}
	if f.To != nil {
		parts = append(parts, "Hasta: "+f.To.Format("02/01/2006"))
	}
	summary := "—"
	if len(parts) > 0 {
		summary = strings.Join(parts, "   |   ")
	}
	return row.New(8).Add(col.New(12).Add(
		text.New("Filtros: "+summary, props.Text{Size: 8, Top: 2, Color: colorGray}),
	))
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 1, align.Left),
		h("Producto", 3, align.Left),
		h("Lote", 2, align.Left),
		h("Cant.", 1, align.Right),
		h("Costo unit.", 1, align.Right),
		h("Referencia", 2, align.Left),
	)
}

// tableDetailRows: una fila por transacción; las salidas van en rojo con signo.
func tableDetailRows(entries []appinventory.HistoryEntry) []core.Row {
	result := make([]core.Row, 0, len(entries))
	for _, e := range entries {
		tx := e.Transaction
		qty := fmt.Sprintf("+%d", tx.Quantity)
		qtyColor := &props.Color{}
		if tx.Type == entity.TransactionTypeSale {
			qty = fmt.Sprintf("-%d", tx.Quantity)
			qtyColor = colorRed
		}
		cost := "—"
		if tx.UnitCost != nil {
			cost = "$" + formatMoney(*tx.UnitCost)
		}
		product := e.ProductName
		if e.ProductCode != "" {
			product = e.ProductCode + " " + product
		}
		result = append(result, row.New(6).Add(
			col.New(2).Add(text.New(tx.TransactionDate.Format("02/01/2006 15:04"), props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(1).Add(text.New(typeLabel(tx.Type), props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(3).Add(text.New(nonEmpty(product, tx.ProductID), props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(2).Add(text.New(nonEmpty(e.BatchNumber, "—"), props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(1).Add(text.New(qty, props.Text{Size: 7, Top: 1, Align: align.Right, Right: 1, Color: qtyColor})),
			col.New(1).Add(text.New(cost, props.Text{Size: 7, Top: 1, Align: align.Right, Right: 1})),
			col.New(2).Add(text.New(nonEmpty(tx.ReferenceNumber, "—"), props.Text{Size: 7, Top: 1, Left: 1})),
		))
	}
	return result
}

func summaryRow(s appinventory.Summary) core.Row {
	label := func(v string) core.Component {
		return text.New(v, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Right: 2})
	}
	value := func(v string) core.Component {
		return text.New(v, props.Text{Size: 8, Align: align.Right, Right: 1})
	}
	return row.New(30).Add(
		col.New(6).Add(
			text.New(fmt.Sprintf("Movimientos: %d   (compras %d, ventas %d, ajustes %d)",
				s.Total, s.Purchases, s.Sales, s.Adjustments), props.Text{Size: 8, Top: 2}),
		),
		col.New(3).Add(
			label("Valor compras:"),
			label("Valor ventas:"),
			label("Costo prom. compra:"),
		),
		col.New(3).Add(
			value("$"+formatMoney(s.PurchaseValue)),
			value("$"+formatMoney(s.SaleValue)),
			value("$"+formatMoney(s.AvgPurchaseCost)),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func typeLabel(t string) string {
	switch t {
	case entity.TransactionTypePurchase:
		return "Compra"
	case entity.TransactionTypeSale:
		return "Venta"
	case entity.TransactionTypeAdjustment:
		return "Ajuste"
	}
	return t
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney redondea a 2 decimales con puntos de miles y coma decimal.
// Ej: 1234567.5 → "1.234.567,50"
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "," + frac
}
