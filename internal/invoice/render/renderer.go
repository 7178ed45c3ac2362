// Package render turns invoice snapshots into shareable PDF files.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	brandingdomain "github.com/billfold/billfold/internal/branding/domain"
	"github.com/billfold/billfold/internal/config"
	"github.com/billfold/billfold/internal/invoice/format"
	"github.com/billfold/billfold/internal/invoice/snapshot"
	obslogger "github.com/billfold/billfold/internal/observability/logger"
	"github.com/billfold/billfold/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Config   config.Config
	Branding brandingdomain.Service
	PDF      pdf.Provider
}

// Renderer resolves branding, lays out the document, and writes it to
// the scoped document directory.
type Renderer struct {
	log      *zap.Logger
	cfg      config.Config
	branding brandingdomain.Service
	pdf      pdf.Provider
}

func New(p Params) *Renderer {
	return &Renderer{
		log:      p.Log.Named("invoice.render"),
		cfg:      p.Config,
		branding: p.Branding,
		pdf:      p.PDF,
	}
}

// Render produces the PDF bytes for a snapshot.
func (r *Renderer) Render(ctx context.Context, snap snapshot.Snapshot) ([]byte, error) {
	branding, err := r.branding.Get(ctx)
	if err != nil {
		return nil, err
	}

	// Best-effort: a missing or unfetchable logo never blocks the
	// document.
	logo, err := r.branding.LogoBytes(ctx)
	if err != nil {
		obslogger.WithContext(ctx, r.log).Debug("logo unavailable", zap.Error(err))
		logo = nil
	}
	if len(logo) > 0 {
		normalized := normalizeLogo(logo)
		if normalized == nil {
			obslogger.WithContext(ctx, r.log).Debug("logo bytes undecodable, rendering without logo")
		}
		logo = normalized
	}

	return r.pdf.RenderInvoice(ctx, BuildDocument(snap, branding, logo))
}

// RenderToFile writes the document under the configured document
// directory, replacing any previous copy at that path.
func (r *Renderer) RenderToFile(ctx context.Context, snap snapshot.Snapshot) (string, error) {
	data, err := r.Render(ctx, snap)
	if err != nil {
		return "", err
	}

	path := filepath.Join(r.cfg.DocumentDir, DocumentName(snap.Number))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	return path, nil
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// normalizeLogo coerces logo bytes to PNG, the format the layout
// embeds. Remote logos can arrive in any image format; an undecodable
// payload returns nil so the document renders without a logo.
func normalizeLogo(data []byte) []byte {
	if bytes.HasPrefix(data, pngMagic) {
		return data
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil
	}
	return buf.Bytes()
}

// DocumentName is the stable per-invoice file name.
func DocumentName(number string) string {
	name := strings.Map(func(ch rune) rune {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
			return ch
		default:
			return '-'
		}
	}, number)
	if name == "" {
		name = "invoice"
	}
	return fmt.Sprintf("invoice-%s.pdf", name)
}

// BuildDocument maps a snapshot and resolved branding onto the layout
// input. Money and dates are formatted here so the layout stays dumb.
func BuildDocument(snap snapshot.Snapshot, branding brandingdomain.Resolved, logo []byte) pdf.Document {
	lines := make([]pdf.Line, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		lines = append(lines, pdf.Line{
			Title:     line.Title,
			Body:      line.Body,
			Quantity:  line.Quantity,
			UnitPrice: format.Money(line.UnitPrice, snap.Currency),
			Amount:    format.Money(line.Amount, snap.Currency),
		})
	}

	return pdf.Document{
		BusinessName: branding.BusinessName,
		Tagline:      branding.Tagline,
		AccentColor:  branding.AccentColor,
		Logo:         logo,

		Number:    snap.Number,
		IssueDate: displayDate(snap.IssuedAt),
		DueDate:   displayDate(snap.DueAt),

		BillTo: billToLines(snap.BillTo),
		Lines:  lines,

		Subtotal: format.Money(snap.Subtotal, snap.Currency),
		Tax:      format.Money(snap.Tax, snap.Currency),
		ShowTax:  snap.Tax.IsPositive(),
		Total:    format.Money(snap.Total, snap.Currency),

		ThankYou:   branding.ThankYouText,
		FooterNote: snap.Notes,
	}
}

func displayDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return format.DisplayDate(*t, false)
}

func billToLines(bill snapshot.BillTo) []string {
	var lines []string
	push := func(value string) {
		if value = strings.TrimSpace(value); value != "" {
			lines = append(lines, value)
		}
	}
	push(bill.Name)
	push(bill.Address)

	locality := strings.TrimSpace(strings.Trim(fmt.Sprintf("%s, %s %s", bill.City, bill.State, bill.Zip), ", "))
	if locality != "," && locality != "" {
		push(locality)
	}
	push(bill.Email)
	push(bill.Phone)
	return lines
}
