package host

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Reader lookups when the record does not exist.
var ErrNotFound = errors.New("host: not found")

// Reader is the read model the indexing core uses to reach host data.
// Implementations must treat all data as authoritative on the host side;
// nothing read through this interface is cached by the core.
type Reader interface {
	// Submission returns the submission by id, or ErrNotFound.
	Submission(ctx context.Context, id int64) (*Submission, error)

	// CurrentPublication returns the live metadata snapshot for a
	// submission, or ErrNotFound if the submission or its current
	// publication does not exist.
	CurrentPublication(ctx context.Context, submissionID int64) (*Publication, error)

	// Contexts enumerates all contexts ordered by id.
	Contexts(ctx context.Context) ([]Context, error)

	// EachPublished streams the published submissions of a context to fn,
	// stopping early if fn returns an error.
	EachPublished(ctx context.Context, contextID int64, fn func(*Submission) error) error

	// ProofFiles lists the proof-stage files of a submission.
	ProofFiles(ctx context.Context, submissionID int64) ([]*SubmissionFile, error)

	// File returns the submission file by id, or ErrNotFound.
	File(ctx context.Context, fileID int64) (*SubmissionFile, error)
}

// TextChunks is a finite, read-once sequence of plain-text chunks produced by
// a file parser.
type TextChunks interface {
	// Next returns the next chunk; ok is false once the sequence is done.
	Next() (chunk string, ok bool)
	Close() error
}

// FileTextParser opens a submission file and yields its plain text. Parsers
// are per-format; the core only stitches the chunks together.
type FileTextParser interface {
	Open(ctx context.Context, f *SubmissionFile) (TextChunks, error)
}
