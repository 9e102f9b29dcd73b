package site

import "github.com/arenvio/heatshell/internal/audit"

// Site binds a site identifier to the audit service modeling its envelope.
type Site struct {
	ID    string
	Audit *audit.Service
}

func New(id string, svc *audit.Service) *Site {
	return &Site{ID: id, Audit: svc}
}
