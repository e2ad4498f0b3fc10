package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/MagSeed/internal/model"
)

// qrSize is the base QR code edge length in mm.
const qrSize = 20.0

// RunSummary is the data encoded into the report QR code.
type RunSummary struct {
	RunID     string `json:"run"`
	MeshFile  string `json:"mesh,omitempty"`
	Vertices  int    `json:"vertices"`
	Regions   int    `json:"regions"`
	Matched   int    `json:"matched"`
	Fallbacks int    `json:"fallbacks"`
	PerRegion []int  `json:"per_region"`
}

// maxQRRegionCounts keeps the payload within QR capacity.
const maxQRRegionCounts = 200

func runSummaryPayload(r Report, s model.AssignmentSummary) RunSummary {
	perRegion := s.PerRegion
	if len(perRegion) > maxQRRegionCounts {
		perRegion = nil
	}
	return RunSummary{
		RunID:     r.RunID,
		MeshFile:  r.MeshFile,
		Vertices:  s.Vertices,
		Regions:   len(r.Regions),
		Matched:   s.Matched,
		Fallbacks: s.Fallbacks,
		PerRegion: perRegion,
	}
}

// drawQRCode renders payload as JSON into a QR image placed at (x, y).
func drawQRCode(pdf *fpdf.Fpdf, name string, payload any, x, y, size float64) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal QR payload: %w", err)
	}

	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions(name, x, y, size, size, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return nil
}
