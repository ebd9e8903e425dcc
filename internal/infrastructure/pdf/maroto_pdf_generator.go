// Package pdf genera los documentos imprimibles del back-office con Maroto v2.
//
// Certificado de licencia (A4):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor             │  CERTIFICADO DE LICENCIA      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TITULAR: Cliente + NIT + email                             │
//	│  PRODUCTO: Nombre + versión + tipo                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  LLAVE DE ACTIVACIÓN + QR                                   │
//	│  VIGENCIA: activación / vencimiento / estado                │
//	└─────────────────────────────────────────────────────────────┘
//
// Extracto de billetera: saldo, totales del periodo y tabla de movimientos.
package pdf

import (
	"fmt"
	"time"

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
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jhoicas/Licencias-api/internal/application/license"
	"github.com/jhoicas/Licencias-api/internal/application/wallet"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

const dateLayout = "02/01/2006"

var (
	_ license.CertificateRenderer = (*MarotoPDFGenerator)(nil)
	_ wallet.StatementRenderer    = (*MarotoPDFGenerator)(nil)
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator genera certificados de licencia y extractos de billetera.
type MarotoPDFGenerator struct {
	printer *message.Printer
}

// NewMarotoPDFGenerator construye el generador. lang define el formato de los montos (p. ej. "es-CO").
func NewMarotoPDFGenerator(lang string) *MarotoPDFGenerator {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.LatinAmericanSpanish
	}
	return &MarotoPDFGenerator{printer: message.NewPrinter(tag)}
}

func newDocument(title, author string) core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		WithAuthor(author, true).
		Build()
	return maroto.New(cfg)
}

// RenderCertificate genera el certificado PDF de una licencia.
func (g *MarotoPDFGenerator) RenderCertificate(doc license.Document) ([]byte, error) {
	if doc.License == nil || doc.Product == nil {
		return nil, fmt.Errorf("pdf: documento de licencia incompleto")
	}
	m := newDocument("Certificado de licencia", nonEmpty(doc.Issuer, "Licencias"))

	m.AddRows(certificateHeaderRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	if doc.Client != nil {
		m.AddRows(holderRow(doc.Client))
	}
	m.AddRows(productRow(doc.Product, doc.License))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(keyRow(doc.License))
	m.AddRows(validityRow(doc))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(row.New(8).Add(col.New(12).Add(
		text.New(
			"La licencia se vincula al primer equipo que la active. "+
				"Para trasladarla a otro equipo solicite la liberación del vínculo.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar certificado: %w", err)
	}
	return out.GetBytes(), nil
}

// RenderStatement genera el extracto PDF de una billetera.
func (g *MarotoPDFGenerator) RenderStatement(st *wallet.Statement) ([]byte, error) {
	if st == nil || st.Wallet == nil {
		return nil, fmt.Errorf("pdf: extracto vacío")
	}
	m := newDocument("Extracto de billetera", "Licencias")

	m.AddRows(statementHeaderRow(st))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(g.statementTotalsRow(st))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range g.ledgerRows(st.Entries) {
		m.AddRows(r)
	}
	if len(st.Entries) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos en el periodo.", props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
		)))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar extracto: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones del certificado ────────────────────────────────────────────────

func certificateHeaderRow(doc license.Document) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(doc.Issuer, "Licencias"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Emitido: "+doc.IssuedAt.Format(dateLayout), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("CERTIFICADO DE LICENCIA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(doc.License.ID, props.Text{
				Size: 7, Align: align.Right, Top: 7, Color: colorGray,
			}),
		),
	)
}

func holderRow(c *entity.Client) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("TITULAR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(c.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("NIT/CC: %s   |   Email: %s",
				nonEmpty(c.NIT, "—"),
				nonEmpty(c.Email, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func productRow(p *entity.Product, l *entity.License) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("PRODUCTO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s %s   |   Tipo: %s   |   Usuarios: %d   |   Equipos: %d",
				p.Name, p.Version, l.LicenseType, p.MaxUsers, p.MaxDevices,
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func keyRow(l *entity.License) core.Row {
	return row.New(40).Add(
		col.New(4).Add(code.NewQr(l.ActivationKey, props.Rect{
			Percent: 95,
			Center:  true,
		})),
		col.New(8).Add(
			text.New("LLAVE DE ACTIVACIÓN", props.Text{
				Style: fontstyle.Bold, Size: 8, Top: 4, Left: 3, Color: colorPrimary,
			}),
			text.New(l.ActivationKey, props.Text{
				Style: fontstyle.Bold, Size: 14, Top: 12, Left: 3,
			}),
		),
	)
}

func validityRow(doc license.Document) core.Row {
	l := doc.License
	return row.New(12).Add(
		col.New(4).Add(
			text.New("Activación", props.Text{Style: fontstyle.Bold, Size: 8, Top: 1}),
			text.New(formatDate(l.ActivatedAt, "Pendiente"), props.Text{Size: 8, Top: 6, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Vencimiento", props.Text{Style: fontstyle.Bold, Size: 8, Top: 1}),
			text.New(formatDate(l.ExpiresAt, "Sin vencimiento"), props.Text{Size: 8, Top: 6, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Estado", props.Text{Style: fontstyle.Bold, Size: 8, Top: 1, Align: align.Right}),
			text.New(doc.EffectiveStatus, props.Text{Size: 8, Top: 6, Align: align.Right, Color: colorPrimary}),
		),
	)
}

// ── Secciones del extracto ───────────────────────────────────────────────────

func statementHeaderRow(st *wallet.Statement) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("EXTRACTO DE BILLETERA", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Empresa: "+st.Wallet.CompanyID, props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(fmt.Sprintf("Periodo: %s - %s", st.From.Format(dateLayout), st.To.Format(dateLayout)), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
		),
	)
}

func (g *MarotoPDFGenerator) statementTotalsRow(st *wallet.Statement) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	total := func(txType string) string {
		return "$" + g.FormatMoney(st.Totals[txType])
	}

	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Recargas:"),
			label("Consumos:"),
			label("Transferencias:"),
			label("SALDO ACTUAL:"),
		),
		col.New(3).Add(
			value(total(entity.WalletTxRecharge)),
			value(total(entity.WalletTxSpend)),
			value(fmt.Sprintf("+%s / -%s",
				g.FormatMoney(st.Totals[entity.WalletTxTransferIn]),
				g.FormatMoney(st.Totals[entity.WalletTxTransferOut]))),
			text.New("$"+g.FormatMoney(st.Wallet.Balance), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1,
			}),
		),
		col.New(3),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 2, align.Left),
		h("Descripción", 4, align.Left),
		h("Monto", 2, align.Right),
		h("Saldo", 2, align.Right),
	)
}

func (g *MarotoPDFGenerator) ledgerRows(entries []*entity.WalletTransaction) []core.Row {
	result := make([]core.Row, 0, len(entries))
	for _, e := range entries {
		sign := "-"
		if e.Type == entity.WalletTxRecharge || e.Type == entity.WalletTxTransferIn {
			sign = "+"
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(e.CreatedAt.Format(dateLayout), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(e.Type, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(nonEmpty(e.Description, "—"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(sign+g.FormatMoney(e.Amount), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(g.FormatMoney(e.BalanceAfter), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// ── helpers ───────────────────────────────────────────────────────────────────

// FormatMoney formatea un monto con dos decimales y separadores de miles del idioma configurado.
func (g *MarotoPDFGenerator) FormatMoney(d decimal.Decimal) string {
	return g.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

func formatDate(t *time.Time, fallback string) string {
	if t == nil {
		return fallback
	}
	return t.Format(dateLayout)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
