package server

import (
	"io"

	brandingdomain "github.com/billfold/billfold/internal/branding/domain"
	"github.com/gin-gonic/gin"
)

// logoUploadLimit caps the accepted upload size. Logos are resized
// server-side, so anything larger is a mistake.
const logoUploadLimit = 10 << 20

func (s *Server) GetBranding(c *gin.Context) {
	resolved, err := s.brandingSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, resolved)
}

func (s *Server) UpdateBranding(c *gin.Context) {
	var req brandingdomain.UpdateBrandingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resolved, err := s.brandingSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, resolved)
}

func (s *Server) UploadLogo(c *gin.Context) {
	header, err := c.FormFile("logo")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if header.Size > logoUploadLimit {
		AbortWithError(c, brandingdomain.ErrInvalidImage)
		return
	}

	file, err := header.Open()
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, logoUploadLimit))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	url, err := s.brandingSvc.UploadLogo(c.Request.Context(), header.Filename, data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, gin.H{"logo_url": url})
}
