package wiring

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/felixgeelhaar/revu/internal/infrastructure/config"
	"github.com/felixgeelhaar/revu/pkg/application"
	"github.com/felixgeelhaar/revu/pkg/dispatch"
	"github.com/felixgeelhaar/revu/pkg/domain/lens"
	"github.com/felixgeelhaar/revu/pkg/domain/review"
	"github.com/felixgeelhaar/revu/pkg/lensexec"
	"github.com/felixgeelhaar/revu/pkg/plugin"
)

// AppServices exposes the application layer services wired together with a
// workspace.
type AppServices struct {
	Workspace *Workspace
	Run       *application.RunService
	Approval  *application.ApprovalService
	Audit     *application.AuditService
	Lenses    *config.LensesConfig
	Loader    *plugin.Loader
}

// Close releases plugin subprocesses held by the analyzer factory.
func (s *AppServices) Close() {
	s.Loader.Cleanup()
}

// BuildAppServices constructs the service graph for a workspace root. A
// missing lens configuration is not an error here; commands that need lenses
// report it when they run.
func BuildAppServices(root string) (*AppServices, error) {
	workspace := NewWorkspace(root)

	lensesCfg, err := config.LoadLensesConfig(root)
	if err != nil {
		return nil, err
	}

	loader := plugin.NewLoader()
	factory := NewAnalyzerFactory(loader)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	return &AppServices{
		Workspace: workspace,
		Run:       application.NewRunService(workspace.Repo, workspace.Audit, factory, logger),
		Approval:  application.NewApprovalService(workspace.Repo, workspace.Audit),
		Audit:     workspace.Audit,
		Lenses:    lensesCfg,
		Loader:    loader,
	}, nil
}

// NewAnalyzerFactory resolves each lens configuration to its backend: a
// go-plugin binary, or an external command adapted through lensexec.
func NewAnalyzerFactory(loader *plugin.Loader) dispatch.AnalyzerFactory {
	return func(cfg review.LensConfig) (lens.Analyzer, error) {
		switch {
		case cfg.Plugin != "":
			path, err := exec.LookPath(cfg.Plugin)
			if err != nil {
				path = cfg.Plugin
			}
			return loader.Load(path)
		case len(cfg.Command) > 0:
			return lensexec.New(cfg.Command)
		default:
			return nil, fmt.Errorf("lens %s declares neither a plugin nor a command", cfg.ID)
		}
	}
}
