package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator produces volunteer certificates; an interface so handlers can be
// tested without touching the filesystem.
type Generator interface {
	GenerateCertificate(data CertificateData) (string, error)
}

type CertificateData struct {
	VolunteerName string
	TaskTitle     string
	NGOName       string
	HoursWorked   float64
	CompletedAt   time.Time
	Filename      string // base name only; generated when empty
}

// CertificateGenerator renders completion certificates under RootDir.
type CertificateGenerator struct {
	RootDir string
}

func NewCertificateGenerator(rootDir string) *CertificateGenerator {
	return &CertificateGenerator{RootDir: filepath.Clean(rootDir)}
}

func (g *CertificateGenerator) GenerateCertificate(data CertificateData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("certificate_%d.pdf", data.CompletedAt.Unix())
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Certificate of Volunteer Service", false)
	pdf.SetAuthor("HelpHive", false)
	pdf.SetMargins(25, 25, 25)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(0, 20, "Certificate of Volunteer Service", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, data.VolunteerName, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 14)
	body := fmt.Sprintf("contributed %.1f hours of volunteer work on", data.HoursWorked)
	pdf.CellFormat(0, 8, body, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("%q", data.TaskTitle), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("organized by %s", data.NGOName), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "Completed on "+data.CompletedAt.Format("January 2, 2006"), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", fmt.Errorf("write certificate: %w", err)
	}
	return absPath, nil
}

func (g *CertificateGenerator) ensureTarget(filename string) (string, error) {
	dir := filepath.Join(g.RootDir, "certificates")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create certificates dir: %w", err)
	}
	return filepath.Join(dir, filepath.Base(filename)), nil
}
