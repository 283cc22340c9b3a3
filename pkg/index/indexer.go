package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openpress/ftsearch/pkg/host"
	"github.com/openpress/ftsearch/pkg/log"
)

// Indexer drives writes into the index from host data: metadata flattening
// on publish, galley text extraction from proof files, and removal when
// submissions retire. All operations are idempotent so event redelivery and
// rebuilds are safe.
type Indexer struct {
	reader host.Reader
	parser host.FileTextParser
	dao    *Dao
	logger *log.Logger
}

func NewIndexer(reader host.Reader, parser host.FileTextParser, dao *Dao) *Indexer {
	return &Indexer{
		reader: reader,
		parser: parser,
		dao:    dao,
		logger: log.ForService("indexer"),
	}
}

// IndexSubmission refreshes the metadata columns for a submission. Status is
// not checked here: published-only is a steady-state invariant enforced by
// pruning, so an unpublished submission's record stays until the next
// cleanup. A submission or publication that no longer exists gets its record
// deleted instead.
func (ix *Indexer) IndexSubmission(ctx context.Context, submissionID int64) error {
	s, err := ix.reader.Submission(ctx, submissionID)
	if errors.Is(err, host.ErrNotFound) {
		return ix.dao.DeleteBySubmission(ctx, submissionID)
	}
	if err != nil {
		return fmt.Errorf("loading submission %d: %w", submissionID, err)
	}

	pub, err := ix.reader.CurrentPublication(ctx, submissionID)
	if errors.Is(err, host.ErrNotFound) {
		return ix.dao.DeleteBySubmission(ctx, submissionID)
	}
	if err != nil {
		return fmt.Errorf("loading publication for submission %d: %w", submissionID, err)
	}

	return ix.dao.Upsert(ctx, submissionID, s.ContextID, FlattenPublication(pub))
}

// IndexSubmissionFiles extracts and stores the galley text from every proof
// file of a submission. Files overwrite the column in id order, so the
// newest proof file's text is what ends up searchable.
func (ix *Indexer) IndexSubmissionFiles(ctx context.Context, submissionID int64) error {
	s, err := ix.reader.Submission(ctx, submissionID)
	if errors.Is(err, host.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading submission %d: %w", submissionID, err)
	}

	files, err := ix.reader.ProofFiles(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("listing proof files for submission %d: %w", submissionID, err)
	}

	for _, f := range files {
		if err := ix.upsertGalleyText(ctx, s, f); err != nil {
			return err
		}
	}
	return nil
}

// IndexFile extracts and stores the text of one file. Files outside the
// proof stage are ignored; they are never searchable.
func (ix *Indexer) IndexFile(ctx context.Context, fileID int64) error {
	f, err := ix.reader.File(ctx, fileID)
	if errors.Is(err, host.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading file %d: %w", fileID, err)
	}
	if f.Stage != host.FileStageProof {
		return nil
	}

	s, err := ix.reader.Submission(ctx, f.SubmissionID)
	if errors.Is(err, host.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading submission %d: %w", f.SubmissionID, err)
	}

	return ix.upsertGalleyText(ctx, s, f)
}

// RemoveFile reacts to a proof file deletion: the stored galley text is
// cleared and rebuilt from whatever proof files remain.
func (ix *Indexer) RemoveFile(ctx context.Context, submissionID int64) error {
	if err := ix.dao.ClearGalleyText(ctx, submissionID); err != nil {
		return err
	}
	return ix.IndexSubmissionFiles(ctx, submissionID)
}

// DeleteSubmission drops the submission's record entirely.
func (ix *Indexer) DeleteSubmission(ctx context.Context, submissionID int64) error {
	return ix.dao.DeleteBySubmission(ctx, submissionID)
}

func (ix *Indexer) upsertGalleyText(ctx context.Context, s *host.Submission, f *host.SubmissionFile) error {
	text := ix.extractText(ctx, f)
	return ix.dao.Upsert(ctx, s.ID, s.ContextID, map[string]string{
		"galley_text": text,
	})
}

// extractText pulls the plain text out of a file, joining the parser's
// chunks with spaces so words never merge across chunk boundaries.
// Extraction failures are logged and yield an empty string: one unreadable
// file must not block metadata indexing or the rest of a rebuild.
func (ix *Indexer) extractText(ctx context.Context, f *host.SubmissionFile) string {
	chunks, err := ix.parser.Open(ctx, f)
	if err != nil {
		ix.logger.Warnf("extracting text from file %d (%s): %v", f.ID, f.Path, err)
		return ""
	}
	defer func() {
		_ = chunks.Close()
	}()

	var parts []string
	for {
		chunk, ok := chunks.Next()
		if !ok {
			break
		}
		parts = append(parts, chunk)
	}
	return CleanText(strings.Join(parts, " "))
}
