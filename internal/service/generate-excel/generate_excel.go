package generate_excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"laser-offers/internal/lib/numfmt"
	"laser-offers/internal/service"
)

type OfferProvider interface {
	Get(ctx context.Context, id string) (*service.OfferDetails, error)
}

type GenerateExcelService struct {
	offers OfferProvider
}

func NewGenerateService(offers OfferProvider) *GenerateExcelService {
	return &GenerateExcelService{offers: offers}
}

const sheet = "Offerta"

// GenerateOfferExcel renders one offer with its inputs, operation lines and
// every derived figure as a single-sheet workbook.
func (g *GenerateExcelService) GenerateOfferExcel(ctx context.Context, id string) ([]byte, error) {
	const op = "service.generate_excel.GenerateOfferExcel"

	details, err := g.offers.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("%s: rename sheet: %w", op, err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: style: %w", op, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: style: %w", op, err)
	}

	offer := details.Offer
	in := details.Calculation.Inputs
	d := details.Calculation.Derived

	w := &sheetWriter{f: f, row: 1}

	w.cells(offer.OfferNumber)
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	w.cells("Cliente", offer.Customer)
	w.cells("Descrizione", offer.Description)
	w.skip()

	w.header(headerStyle, "Dati", "Valore")
	w.cells("Numero pezzi", numfmt.FormatInteger(in.PieceCount))
	w.cells("Peso dichiarato per lotto", numfmt.FormatDecimal(in.DeclaredWeightPerBatch, numfmt.DefaultDecimals))
	w.cells("Ricavo previsto", numfmt.FormatDecimal(in.ExpectedRevenue, numfmt.DefaultDecimals))
	w.cells("Base arrotondamento tariffa", numfmt.FormatDecimal(in.RateRoundingBase, numfmt.DefaultDecimals))
	w.cells("Adeguamento tariffa", numfmt.FormatDecimal(in.RateAdjustment, numfmt.DefaultDecimals))
	w.cells("Costo materiali", numfmt.FormatDecimal(in.MaterialsCost, numfmt.DefaultDecimals))
	w.cells("Costo logistica", numfmt.FormatDecimal(in.LogisticsCost, numfmt.DefaultDecimals))
	w.cells("Altri costi", numfmt.FormatDecimal(in.OtherCost, numfmt.DefaultDecimals))
	w.skip()

	w.header(headerStyle, "Categoria", "Operazione", "Secondi per unità", "Unità", "Totale secondi")
	for _, l := range in.OperationLines {
		w.cells(
			l.CategoryID,
			l.OperationID,
			numfmt.FormatDecimal(l.SecondsPerUnit, numfmt.DefaultDecimals),
			numfmt.FormatInteger(float64(l.UnitCount)),
			numfmt.FormatDecimal(l.LineTotalSeconds, numfmt.DefaultDecimals),
		)
	}
	w.skip()

	w.header(headerStyle, "Risultati", "Valore")
	for _, r := range []struct {
		label string
		value float64
	}{
		{"Peso dichiarato per pezzo", d.DeclaredWeightPerPiece},
		{"Tempo teorico per lotto", d.TheoreticalTimePerBatch},
		{"Imprevisti", d.ContingencyAllowance},
		{"Tempo teorico totale per lotto", d.TotalTheoreticalTimePerBatch},
		{"Tempo teorico per pezzo", d.TheoreticalTimePerPiece},
		{"Tempo di produzione per lotto", d.ProductionTimePerBatch},
		{"Tempo di produzione per pezzo", d.ProductionTimePerPiece},
		{"Resa oraria lotti", d.ExpectedThroughputPerBatchPerHour},
		{"Resa oraria pezzi", d.ExpectedThroughputPerPiecePerHour},
		{"Tariffa manodopera per lotto", d.LaborRatePerBatch},
		{"Tariffa manodopera per pezzo", d.LaborRatePerPiece},
		{"Adeguamento tariffa %", d.RateAdjustmentPercent},
		{"Tariffa finale per lotto", d.FinalRatePerBatch},
		{"Tariffa finale per pezzo", d.FinalRatePerPiece},
		{"Tariffa totale per lotto", d.TotalRatePerBatch},
		{"Tariffa totale per pezzo", d.TotalRatePerPiece},
	} {
		w.cells(r.label, numfmt.FormatDecimal(r.value, numfmt.DefaultDecimals))
	}

	if w.err != nil {
		return nil, fmt.Errorf("%s: write cells: %w", op, w.err)
	}

	_ = f.SetColWidth(sheet, "A", "A", 34)
	_ = f.SetColWidth(sheet, "B", "E", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: write buffer: %w", op, err)
	}

	return buf.Bytes(), nil
}

// sheetWriter appends rows top to bottom and keeps the first error.
type sheetWriter struct {
	f   *excelize.File
	row int
	err error
}

func (w *sheetWriter) cells(values ...string) {
	for i, v := range values {
		if w.err != nil {
			return
		}
		w.err = w.f.SetCellValue(sheet, cellName(i+1, w.row), v)
	}
	w.row++
}

func (w *sheetWriter) header(style int, values ...string) {
	row := w.row
	w.cells(values...)
	if w.err == nil {
		w.err = w.f.SetCellStyle(sheet, cellName(1, row), cellName(len(values), row), style)
	}
}

func (w *sheetWriter) skip() {
	w.row++
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
