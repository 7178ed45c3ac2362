package server

import (
	"net/http"

	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	"github.com/billfold/billfold/internal/invoice/format"
	"github.com/billfold/billfold/internal/invoice/render"
	"github.com/billfold/billfold/internal/invoice/snapshot"
	"github.com/billfold/billfold/pkg/db/pagination"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type draftLineRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type draftRequest struct {
	ClientID string             `json:"client_id"`
	Currency string             `json:"currency"`
	Tax      decimal.Decimal    `json:"tax"`
	Notes    string             `json:"notes"`
	DueAt    string             `json:"due_at"`
	Lines    []draftLineRequest `json:"lines"`
}

func (r draftRequest) toDraft() (invoicedomain.Draft, error) {
	draft := invoicedomain.Draft{
		ClientID: r.ClientID,
		Currency: r.Currency,
		Tax:      r.Tax,
		Notes:    r.Notes,
	}

	if r.DueAt != "" {
		// Due dates arrive as plain dates or full timestamps.
		due, ok := format.ParseDate(r.DueAt)
		if !ok {
			return invoicedomain.Draft{}, ErrInvalidRequest
		}
		draft.DueAt = &due
	}

	for _, line := range r.Lines {
		draft.Lines = append(draft.Lines, invoicedomain.DraftLine{
			Title:       line.Title,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}
	return draft, nil
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	draft, err := req.toDraft()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{Draft: draft})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, resp)
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	draft, err := req.toDraft()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), invoicedomain.UpdateInvoiceRequest{
		ID:    c.Param("id"),
		Draft: draft,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, resp)
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status   string `form:"status"`
		ClientID string `form:"client_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Status:    query.Status,
		ClientID:  query.ClientID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, resp)
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, resp)
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	if err := s.invoiceSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, gin.H{"deleted": true})
}

func (s *Server) SendInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Send(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, resp)
}

func (s *Server) MarkInvoicePaid(c *gin.Context) {
	resp, err := s.invoiceSvc.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, resp)
}

func (s *Server) MarkInvoiceOpened(c *gin.Context) {
	if err := s.invoiceSvc.MarkOpened(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, gin.H{"recorded": true})
}

func (s *Server) ArchiveInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Archive(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, resp)
}

func (s *Server) SweepOverdue(c *gin.Context) {
	flipped, err := s.invoiceSvc.SweepOverdue(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, gin.H{"flipped": flipped})
}

// RenderInvoicePDF streams the laid-out document. The snapshot is
// rebuilt fresh on every render.
func (s *Server) RenderInvoicePDF(c *gin.Context) {
	inv, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	client, err := s.clientSvc.GetByID(c.Request.Context(), inv.ClientID.String())
	if err != nil {
		// The denormalized name on the invoice still renders.
		client.Name = inv.ClientName
	}

	snap := snapshot.BuildFromInvoice(inv, inv.Items, &client)

	data, err := s.renderer.Render(c.Request.Context(), snap)
	if err != nil {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordDocument("error")
		}
		AbortWithError(c, err)
		return
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordDocument("ok")
	}

	c.Header("Content-Disposition", `attachment; filename="`+render.DocumentName(inv.Number)+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
