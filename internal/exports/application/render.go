package application

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	kpiapp "clinic-analytics/internal/kpi/application"
	kpi "clinic-analytics/internal/kpi/domain"
)

// ReportData is the content of an executive report.
type ReportData struct {
	TenantID    string
	GeneratedAt time.Time
	Result      kpiapp.Result
}

type metricRow struct {
	label string
	key   kpi.KPI
	value float64
	unit  string
}

func metricRows(snap kpi.Snapshot) []metricRow {
	return []metricRow{
		{label: "Margem líquida", key: kpi.KPIMargin, value: snap.MarginPct, unit: "%"},
		{label: "Taxa de no-show", key: kpi.KPINoShowRate, value: snap.NoShowRatePct, unit: "%"},
		{label: "Ocupação", key: kpi.KPIOccupancy, value: snap.OccupancyPct, unit: "%"},
		{label: "Impacto financeiro", key: kpi.KPIFinancialImpact, value: snap.FinancialImpact, unit: "R$"},
		{label: "Queda de RevPAS", key: kpi.KPIRevPASDrop, value: snap.RevPASDropPct, unit: "%"},
	}
}

// BuildReportPDF renders the executive report as PDF.
func BuildReportPDF(data ReportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	result := data.Result
	pdf.Cell(0, 8, tr("Relatório executivo"))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Tenant: %s", data.TenantID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Periodo: %s a %s", result.Window.From.Format("2006-01-02"), result.Window.To.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Gerado em: %s", data.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Registros: %d", result.Snapshot.FactCount))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Indicador", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Valor", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Prioridade", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range metricRows(result.Snapshot) {
		pdf.CellFormat(70, 6, tr(row.label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f %s", row.value, row.unit), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, priorityLabel(result.Classifications[row.key]), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Alertas")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	if len(result.Alerts) == 0 {
		pdf.Cell(0, 6, "Nenhum alerta no periodo")
		pdf.Ln(5)
	}
	for _, alert := range result.Alerts {
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("[%s] %s - %s (impacto R$ %.2f)", alert.Severity, alert.Title, alert.Description, alert.FinancialImpact)), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportXLSX renders the executive report as a workbook with summary and alert sheets.
func BuildReportXLSX(data ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "resumo"
	alertsSheet := "alertas"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(alertsSheet); err != nil {
		return nil, err
	}

	result := data.Result
	_ = f.SetCellValue(summarySheet, "A1", "Relatório executivo")
	_ = f.SetCellValue(summarySheet, "A3", "Tenant")
	_ = f.SetCellValue(summarySheet, "B3", data.TenantID)
	_ = f.SetCellValue(summarySheet, "A4", "De")
	_ = f.SetCellValue(summarySheet, "B4", result.Window.From.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A5", "Até")
	_ = f.SetCellValue(summarySheet, "B5", result.Window.To.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A6", "Registros")
	_ = f.SetCellValue(summarySheet, "B6", result.Snapshot.FactCount)
	_ = f.SetCellValue(summarySheet, "A8", "Indicador")
	_ = f.SetCellValue(summarySheet, "B8", "Valor")
	_ = f.SetCellValue(summarySheet, "C8", "Unidade")
	_ = f.SetCellValue(summarySheet, "D8", "Prioridade")
	for i, row := range metricRows(result.Snapshot) {
		line := i + 9
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", line), row.label)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", line), row.value)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", line), row.unit)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("D%d", line), priorityLabel(result.Classifications[row.key]))
	}

	_ = f.SetCellValue(alertsSheet, "A1", "Severidade")
	_ = f.SetCellValue(alertsSheet, "B1", "Métrica")
	_ = f.SetCellValue(alertsSheet, "C1", "Título")
	_ = f.SetCellValue(alertsSheet, "D1", "Descrição")
	_ = f.SetCellValue(alertsSheet, "E1", "Impacto financeiro")
	for i, alert := range result.Alerts {
		line := i + 2
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("A%d", line), string(alert.Severity))
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("B%d", line), alert.MetricKey)
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("C%d", line), alert.Title)
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("D%d", line), alert.Description)
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("E%d", line), alert.FinancialImpact)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func priorityLabel(p kpi.Priority) string {
	if p == kpi.PriorityNone {
		return "-"
	}
	return string(p)
}
