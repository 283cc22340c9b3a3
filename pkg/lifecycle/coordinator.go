// Package lifecycle routes host domain events and bulk rebuild requests to
// the indexer. Event handlers never propagate errors back into the host
// workflow that triggered them; failures are logged and the event is dropped.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/openpress/ftsearch/pkg/host"
	"github.com/openpress/ftsearch/pkg/index"
	"github.com/openpress/ftsearch/pkg/log"
)

// Progress is invoked once per submission during a rebuild.
type Progress func(contextID, submissionID int64)

// Coordinator subscribes to host events and drives the indexer. Every
// handler is idempotent, so event redelivery is harmless.
type Coordinator struct {
	reader  host.Reader
	indexer *index.Indexer
	dao     *index.Dao
	logger  *log.Logger
}

func NewCoordinator(reader host.Reader, indexer *index.Indexer, dao *index.Dao) *Coordinator {
	return &Coordinator{
		reader:  reader,
		indexer: indexer,
		dao:     dao,
		logger:  log.ForService("lifecycle"),
	}
}

// RegisterHooks wires every index-relevant host event into the indexer.
func (c *Coordinator) RegisterHooks(registry host.HookRegistry) {
	registry.Register(host.EventMetadataChanged, func(ctx context.Context, ev host.Event) {
		c.swallow(ev, c.indexer.IndexSubmission(ctx, ev.SubmissionID))
	})
	registry.Register(host.EventFileChanged, func(ctx context.Context, ev host.Event) {
		c.swallow(ev, c.indexer.IndexFile(ctx, ev.FileID))
	})
	registry.Register(host.EventFileDeleted, func(ctx context.Context, ev host.Event) {
		c.swallow(ev, c.indexer.RemoveFile(ctx, ev.SubmissionID))
	})
	registry.Register(host.EventSubmissionDeleted, func(ctx context.Context, ev host.Event) {
		c.swallow(ev, c.indexer.DeleteSubmission(ctx, ev.SubmissionID))
	})
	registry.Register(host.EventPublicationRetired, func(ctx context.Context, ev host.Event) {
		c.swallow(ev, c.indexer.DeleteSubmission(ctx, ev.SubmissionID))
	})
}

func (c *Coordinator) swallow(ev host.Event, err error) {
	if err != nil {
		c.logger.Errorf("handling %s for submission %d: %v", ev.Name, ev.SubmissionID, err)
	}
}

// Rebuild reindexes every published submission of the given contexts (all
// contexts when none are given), metadata and proof-file text both, then
// prunes records whose submissions are no longer published. Per-submission
// failures are logged and skipped so a rebuild always runs to the end; the
// whole operation is safe to re-run.
func (c *Coordinator) Rebuild(ctx context.Context, contextIDs []int64, progress Progress) error {
	if len(contextIDs) == 0 {
		contexts, err := c.reader.Contexts(ctx)
		if err != nil {
			return fmt.Errorf("enumerating contexts: %w", err)
		}
		for _, hc := range contexts {
			contextIDs = append(contextIDs, hc.ID)
		}
	}

	for _, contextID := range contextIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		count := 0
		err := c.reader.EachPublished(ctx, contextID, func(s *host.Submission) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := c.indexer.IndexSubmission(ctx, s.ID); err != nil {
				c.logger.Errorf("rebuild: indexing submission %d: %v", s.ID, err)
				return nil
			}
			if err := c.indexer.IndexSubmissionFiles(ctx, s.ID); err != nil {
				c.logger.Errorf("rebuild: indexing files of submission %d: %v", s.ID, err)
			}
			count++
			if progress != nil {
				progress(contextID, s.ID)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("rebuilding context %d: %w", contextID, err)
		}
		c.logger.Infof("rebuilt %d submissions in context %d", count, contextID)
	}

	if err := c.dao.PruneUnpublished(ctx, contextIDs); err != nil {
		return err
	}
	return nil
}

// RebuildAsync starts a rebuild on its own goroutine and returns a job id
// for log correlation. The job outlives the caller's request context.
func (c *Coordinator) RebuildAsync(contextIDs []int64) string {
	jobID := uuid.New().String()
	c.logger.Infof("rebuild job %s started for contexts %v", jobID, contextIDs)

	go func() {
		if err := c.Rebuild(context.Background(), contextIDs, nil); err != nil {
			c.logger.Errorf("rebuild job %s failed: %v", jobID, err)
			return
		}
		c.logger.Infof("rebuild job %s finished", jobID)
	}()
	return jobID
}
