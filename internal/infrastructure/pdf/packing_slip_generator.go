// Package pdf genera la hoja de empaque de un pedido.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tienda  │  HOJA DE EMPAQUE + N° Pedido + Fecha     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ENVÍO: Estado / Transportadora / Guía / Contacto            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Ok | Cant | Producto | Variante                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL UNIDADES + Notas                                      │
//	│  QR con el ID del pedido para escanear en bodega             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
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

	"github.com/jhoicas/fulfillment-api/internal/application/ports"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
)

var _ ports.PackingSlipGenerator = (*PackingSlipGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// PackingSlipGenerator implementa ports.PackingSlipGenerator usando Maroto v2.
type PackingSlipGenerator struct {
	storeName string
}

// NewPackingSlipGenerator construye el generador con el nombre de la tienda para el encabezado.
func NewPackingSlipGenerator(storeName string) *PackingSlipGenerator {
	return &PackingSlipGenerator{storeName: storeName}
}

// GeneratePackingSlip genera el PDF y devuelve sus bytes.
func (g *PackingSlipGenerator) GeneratePackingSlip(_ context.Context, order *entity.Order) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Hoja de empaque "+order.ID, true).
		WithAuthor(g.storeName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.storeName, order))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(shippingRow(order))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableLineRows(order.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(order))
	m.AddRows(line.NewRow(3))
	m.AddRows(qrRow(order))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar hoja de empaque: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(storeName string, order *entity.Order) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(storeName, "Fulfillment"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
		),
		col.New(5).Add(
			text.New("HOJA DE EMPAQUE", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Pedido #"+order.ID, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+order.CreatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func shippingRow(order *entity.Order) core.Row {
	contact := "-"
	if order.ContactEmail != nil {
		contact = *order.ContactEmail
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("ENVÍO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Estado: %s   |   Transportadora: %s   |   Guía: %s",
				order.Status,
				nonEmpty(order.CourierName, "-"),
				nonEmpty(order.TrackingNumber, "-"),
			), props.Text{Size: 8, Top: 6}),
			text.New("Contacto: "+contact, props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Ok", 1, align.Center),
		h("Cant.", 1, align.Center),
		h("Producto", 6, align.Left),
		h("Variante", 4, align.Left),
	)
}

func tableLineRows(lines []entity.OrderLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		variant := "(eliminada)"
		if l.VariantID != nil {
			variant = *l.VariantID
		}
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New("[ ]", props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(fmt.Sprintf("%d", l.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(6).Add(text.New(nonEmpty(l.ProductNameSnapshot, "-"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(variant, props.Text{Size: 7, Top: 1, Left: 1, Color: colorGray})),
		))
	}
	return result
}

func summaryRow(order *entity.Order) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("Notas: "+nonEmpty(order.Notes, "-"), props.Text{Size: 8, Top: 2, Color: colorGray}),
		),
		col.New(4).Add(
			text.New(fmt.Sprintf("TOTAL UNIDADES: %d", totalUnits(order.Lines)), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorPrimary, Top: 2, Right: 1,
			}),
		),
	)
}

func qrRow(order *entity.Order) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(order.ID, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Escanea el código para abrir el pedido en bodega.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func totalUnits(lines []entity.OrderLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
