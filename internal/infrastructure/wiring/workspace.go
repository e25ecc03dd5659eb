package wiring

import (
	"github.com/felixgeelhaar/revu/pkg/application"
	"github.com/felixgeelhaar/revu/pkg/storage"
)

// Workspace bundles core infrastructure dependencies.
type Workspace struct {
	Root  string
	Repo  *storage.FilesystemRepository
	Audit *application.AuditService
}

func NewWorkspace(root string) *Workspace {
	repo := storage.NewFilesystemRepository(root)
	return &Workspace{
		Root:  root,
		Repo:  repo,
		Audit: application.NewAuditService(repo),
	}
}
