package index

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/compose"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
)

const defaultPingTimeout = 30 * time.Second

// SolrService triggers reindexing for the deployment's Solr-backed index.
//
// A soft reindex clears the indexer state directories inside the
// application container; the indexer then re-syncs every record from the
// database without touching the index structure. A full rebuild verifies
// Solr is reachable, stops the stack, removes the index data volumes, and
// starts the stack again so the core is recreated from the current schema
// and repopulated from scratch.
type SolrService struct {
	runner       *compose.Runner
	appContainer string
	solrURL      string
	stateDirs    []string
	volumes      []string
	client       *http.Client
}

// NewSolrService creates the index service for the configured deployment.
func NewSolrService(runner *compose.Runner, appContainer string, cfg *config.Index) *SolrService {
	stateDirs := cfg.StateDirs
	if len(stateDirs) == 0 {
		// ArchivesSpace keeps separate state for the staff and public
		// interface indexers.
		stateDirs = []string{
			"/archivesspace/data/indexer_state",
			"/archivesspace/data/indexer_pui_state",
		}
	}
	return &SolrService{
		runner:       runner,
		appContainer: appContainer,
		solrURL:      cfg.SolrURL,
		stateDirs:    stateDirs,
		volumes:      cfg.DataVolumes(),
		client:       &http.Client{Timeout: defaultPingTimeout},
	}
}

// Trigger sends the reindex signal for the given mode.
func (s *SolrService) Trigger(ctx context.Context, mode Mode) error {
	switch mode {
	case ModeSoft:
		return s.softReindex(ctx)
	case ModeFullRebuild:
		return s.fullRebuild(ctx)
	default:
		return unknownModeError(mode)
	}
}

func (s *SolrService) softReindex(ctx context.Context) error {
	for _, dir := range s.stateDirs {
		// The glob needs a shell inside the container to expand.
		res, err := s.runner.Exec(ctx, s.appContainer, nil,
			"sh", "-c", fmt.Sprintf("rm -f %s/*", dir))
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("failed to clear indexer state %s (exit %d):\n%s",
				dir, res.ExitCode, res.Output)
		}
	}
	return nil
}

func (s *SolrService) fullRebuild(ctx context.Context) error {
	// Probe Solr first: if the index service is unreachable there is no
	// point tearing the stack down.
	if err := s.ping(ctx); err != nil {
		return err
	}

	if err := s.runner.Compose(ctx, "down"); err != nil {
		return fmt.Errorf("failed to stop deployment for index rebuild: %w", err)
	}
	if err := s.runner.RemoveVolumes(ctx, s.volumes...); err != nil {
		return fmt.Errorf("failed to remove index data volumes: %w", err)
	}
	if err := s.runner.Compose(ctx, "up", "-d"); err != nil {
		return fmt.Errorf("failed to restart deployment after index rebuild: %w", err)
	}
	return nil
}

// ping checks the Solr admin endpoint is answering.
func (s *SolrService) ping(ctx context.Context) error {
	url := s.solrURL + "/admin/cores?action=STATUS"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build Solr status request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("Solr is unreachable at %s: %w", s.solrURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Solr at %s returned status %s", s.solrURL, resp.Status)
	}
	return nil
}
