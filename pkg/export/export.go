package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"terangaride/internal/models"
	"terangaride/internal/utils"
)

// BuildLotCSV renders a reconciliation lot as CSV, one row per commission entry.
func BuildLotCSV(lot *models.LotReconciliation, entries []models.CommissionEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"reservation_id", "payment_id", "conducteur_id", "montant_course", "taux_commission", "montant_commission", "montant_net_conducteur", "mode_prelevement", "date_prelevement"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		datePrelevement := ""
		if entry.DatePrelevement != nil {
			datePrelevement = entry.DatePrelevement.Format(time.RFC3339)
		}
		row := []string{
			entry.ReservationID.Hex(),
			entry.PaymentID.Hex(),
			entry.ConducteurID.Hex(),
			strconv.FormatFloat(entry.MontantCourse, 'f', 0, 64),
			strconv.FormatFloat(entry.TauxCommission, 'f', 4, 64),
			strconv.FormatFloat(entry.MontantCommission, 'f', 0, 64),
			strconv.FormatFloat(entry.MontantNetConducteur, 'f', 0, 64),
			string(entry.ModePrelevement),
			datePrelevement,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildLotPDF renders a reconciliation lot summary with its entries table.
func BuildLotPDF(lot *models.LotReconciliation, entries []models.CommissionEntry) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Lot de reconciliation des commissions")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Numero de lot: %s", lot.NumeroLot))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Periode: %s - %s", lot.DateDebut.Format("2006-01-02"), lot.DateFin.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Nombre d'entrees: %d", lot.NombreEntrees))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Montant total: %s", utils.FormatFCFA(lot.MontantTotal)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Genere le: %s", lot.CreatedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(55, 6, "Reservation", "1", 0, "C", false, 0, "")
	pdf.CellFormat(55, 6, "Conducteur", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Course (FCFA)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Commission", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Net conducteur", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Mode", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, entry := range entries {
		pdf.CellFormat(55, 6, entry.ReservationID.Hex(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(55, 6, entry.ConducteurID.Hex(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.0f", entry.MontantCourse), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.0f", entry.MontantCommission), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.0f", entry.MontantNetConducteur), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, string(entry.ModePrelevement), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildStatsPDF renders the commission statistics report for a period.
func BuildStatsPDF(stats *models.CommissionStats) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Rapport des commissions")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Periode: %s - %s", stats.DateDebut.Format("2006-01-02"), stats.DateFin.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Commissions prelevees: %d", stats.NombrePrelevees))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Commissions en echec: %d", stats.NombreEchecs))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Commissions remboursees: %d", stats.NombreRemboursees))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Montant total preleve: %s", utils.FormatFCFA(stats.MontantTotalPreleve)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Montant total rembourse: %s", utils.FormatFCFA(stats.MontantTotalRembourse)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Mode de prelevement", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Nombre", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Montant (FCFA)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, parMode := range stats.ParMode {
		pdf.CellFormat(60, 6, string(parMode.Mode), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, strconv.FormatInt(parMode.Nombre, 10), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.0f", parMode.Montant), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
