package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"sicbo/models"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

// CardStyle defines the visual style of the outcome card
type CardStyle struct {
	Width      int
	Height     int
	Padding    float64
	DieSize    float64
	DieGap     float64
	RowHeight  float64
	MaxWinners int
	WinColor   [3]float64
	LoseColor  [3]float64
	TripleGlow [4]float64 // RGBA
}

// OutcomeCardGenerator draws the image attached to settlement announcements
type OutcomeCardGenerator struct {
	style CardStyle
}

// NewOutcomeCardGenerator creates a generator with the default style
func NewOutcomeCardGenerator() *OutcomeCardGenerator {
	return &OutcomeCardGenerator{
		style: CardStyle{
			Width:      420,
			Height:     230,
			Padding:    18,
			DieSize:    64,
			DieGap:     18,
			RowHeight:  20,
			MaxWinners: 5,
			WinColor:   [3]float64{0.34, 0.95, 0.53},
			LoseColor:  [3]float64{0.93, 0.26, 0.27},
			TripleGlow: [4]float64{1, 0.84, 0, 0.25},
		},
	}
}

// Style returns the generator's style
func (g *OutcomeCardGenerator) Style() CardStyle {
	return g.style
}

// Height returns the card height for a report; each listed winner adds one row
func (g *OutcomeCardGenerator) Height(report *models.SettlementReport) int {
	rows := min(len(report.Winners()), g.style.MaxWinners)
	return g.style.Height + int(float64(rows)*g.style.RowHeight)
}

// Generate renders the outcome card for a settled round as PNG bytes
func (g *OutcomeCardGenerator) Generate(report *models.SettlementReport) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("round_id", report.RoundID).
			Debug("Outcome card generation completed")
	}()

	if err := report.Outcome.Validate(); err != nil {
		return nil, fmt.Errorf("cannot render outcome: %w", err)
	}

	width := g.style.Width
	height := g.Height(report)
	dc := gg.NewContext(width, height)
	dc.SetFillRule(gg.FillRuleWinding)

	for i := 0; i < height; i++ {
		t := float64(i) / float64(height)
		dc.SetRGB(0.03+t*0.03, 0.06+t*0.08, 0.05+t*0.04)
		dc.DrawRectangle(0, float64(i), float64(width), 1)
		dc.Fill()
	}

	titleFace, err := loadFont(gobold.TTF, 18)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	bodyFace, err := loadFont(gomono.TTF, 12)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	pad := g.style.Padding
	dc.SetFontFace(titleFace)
	dc.SetRGB(0.95, 0.95, 0.95)
	drawSharpText(dc, "Round "+report.RoundID, pad, pad+16)

	diceTop := pad + 36
	totalWidth := 3*g.style.DieSize + 2*g.style.DieGap
	x := (float64(width) - totalWidth) / 2
	if report.IsTriple {
		glow := g.style.TripleGlow
		dc.SetRGBA(glow[0], glow[1], glow[2], glow[3])
		dc.DrawRoundedRectangle(x-8, diceTop-8, totalWidth+16, g.style.DieSize+16, 12)
		dc.Fill()
	}
	for _, face := range report.Outcome {
		drawDie(dc, x, diceTop, g.style.DieSize, face)
		x += g.style.DieSize + g.style.DieGap
	}

	y := diceTop + g.style.DieSize + 34
	dc.SetFontFace(titleFace)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(OutcomeLabel(report), float64(width)/2, y, 0.5, 0)

	y += 26
	dc.SetFontFace(bodyFace)
	dc.SetRGB(0.7, 0.7, 0.7)
	summary := fmt.Sprintf("%d bettors   staked %d   paid %d", len(report.Users), report.TotalStaked, report.TotalPayout)
	dc.DrawStringAnchored(summary, float64(width)/2, y, 0.5, 0)

	winners := report.Winners()
	if len(winners) == 0 {
		y += g.style.RowHeight + 4
		c := g.style.LoseColor
		dc.SetRGB(c[0], c[1], c[2])
		dc.DrawStringAnchored("No winners this round", float64(width)/2, y, 0.5, 0)
	}
	for i, w := range winners {
		if i == g.style.MaxWinners {
			break
		}
		y += g.style.RowHeight
		c := g.style.WinColor
		dc.SetRGB(c[0], c[1], c[2])
		drawSharpText(dc, truncate(w.Username, 24), pad, y)
		dc.DrawStringAnchored(fmt.Sprintf("+%d", w.TotalPayout), float64(width)-pad, y, 1, 0)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// OutcomeLabel summarises an outcome as text, e.g. "TOTAL 11  BIG  ODD"
func OutcomeLabel(report *models.SettlementReport) string {
	if report.IsTriple {
		return fmt.Sprintf("TOTAL %d  TRIPLE", report.Total)
	}
	return fmt.Sprintf("TOTAL %d  %s  %s", report.Total,
		strings.ToUpper(string(report.Size)), strings.ToUpper(string(report.Parity)))
}

// pipLayout holds pip positions per face on a 3x3 grid, 0..2 on each axis
var pipLayout = map[int][][2]int{
	1: {{1, 1}},
	2: {{0, 0}, {2, 2}},
	3: {{0, 0}, {1, 1}, {2, 2}},
	4: {{0, 0}, {2, 0}, {0, 2}, {2, 2}},
	5: {{0, 0}, {2, 0}, {1, 1}, {0, 2}, {2, 2}},
	6: {{0, 0}, {2, 0}, {0, 1}, {2, 1}, {0, 2}, {2, 2}},
}

// drawDie draws a 3D die showing face
func drawDie(dc *gg.Context, x, y, size float64, face int) {
	depth := size / 12

	// 3D effect - right side
	dc.SetRGB(0.7, 0.7, 0.7)
	dc.MoveTo(x+size, y)
	dc.LineTo(x+size+depth, y-depth)
	dc.LineTo(x+size+depth, y+size-depth)
	dc.LineTo(x+size, y+size)
	dc.ClosePath()
	dc.Fill()

	// 3D effect - top side
	dc.SetRGB(0.85, 0.85, 0.85)
	dc.MoveTo(x, y)
	dc.LineTo(x+depth, y-depth)
	dc.LineTo(x+size+depth, y-depth)
	dc.LineTo(x+size, y)
	dc.ClosePath()
	dc.Fill()

	dc.SetRGB(0.96, 0.96, 0.96)
	dc.DrawRoundedRectangle(x, y, size, size, size/8)
	dc.Fill()

	dc.SetRGB(0.3, 0.3, 0.3)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x, y, size, size, size/8)
	dc.Stroke()

	if face == 1 || face == 4 {
		dc.SetRGB(0.8, 0.1, 0.1)
	} else {
		dc.SetRGB(0.1, 0.1, 0.1)
	}
	step := size / 4
	for _, p := range pipLayout[face] {
		dc.DrawCircle(x+step*float64(p[0]+1), y+step*float64(p[1]+1), size/11)
	}
	dc.Fill()
}

// drawSharpText draws text with a subtle shadow for readability on dark backgrounds
func drawSharpText(dc *gg.Context, text string, x, y float64) {
	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawString(text, x+0.5, y+0.5)
	dc.Pop()

	dc.DrawString(text, x, y)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// loadFont loads a font from byte data
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	})
	return face, nil
}
