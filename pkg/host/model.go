// Package host defines the narrow interfaces this module needs from the
// publishing platform it runs against: a read model for submissions and their
// metadata, a file text parser, and an event hook registry. The indexing core
// depends only on these types, never on host internals.
package host

import "time"

// Submission status values as stored by the host.
const (
	StatusQueued    = 1
	StatusPublished = 3
	StatusDeclined  = 4
	StatusScheduled = 5
)

// FileStageProof identifies production-ready (proof) submission files, the
// stage whose files get their text indexed.
const FileStageProof = 10

// LocalizedString maps a locale tag (e.g. "en", "fr_CA") to a value.
type LocalizedString map[string]string

// LocalizedList maps a locale tag to a list of values (keywords, subjects).
type LocalizedList map[string][]string

// Context is a tenant (one journal/venue) scoping submissions.
type Context struct {
	ID   int64
	Name string
}

// Author carries the locale-keyed name and affiliation data of one
// publication author.
type Author struct {
	GivenName           LocalizedString
	FamilyName          LocalizedString
	PreferredPublicName LocalizedString
	Affiliation         LocalizedString
}

// Publication is a versioned metadata snapshot of a submission. The current
// publication holds the live metadata that gets indexed.
type Publication struct {
	ID           int64
	SubmissionID int64

	Title       LocalizedString
	Abstract    LocalizedString
	Keywords    LocalizedList
	Subjects    LocalizedList
	Disciplines LocalizedList
	Coverage    LocalizedString
	Type        LocalizedString
	Authors     []Author

	// DatePublished is zero for unpublished publications.
	DatePublished time.Time
}

// Submission is the unit indexed; one search record exists per submission.
type Submission struct {
	ID                   int64
	ContextID            int64
	Status               int
	CurrentPublicationID int64
}

// SubmissionFile references one file attached to a submission. Path is
// relative to the host's files directory.
type SubmissionFile struct {
	ID           int64
	SubmissionID int64
	Stage        int
	Path         string
}
