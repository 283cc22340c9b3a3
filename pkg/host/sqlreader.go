package host

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Locale-keyed publication metadata lives in the host's settings table, one
// row per (publication, locale, name). List-valued settings simply repeat
// the name.
const (
	settingTitle       = "title"
	settingAbstract    = "abstract"
	settingCoverage    = "coverage"
	settingType        = "type"
	settingKeywords    = "keywords"
	settingSubjects    = "subjects"
	settingDisciplines = "disciplines"
)

// SQLReader is a Reader backed by the host's own tables on the shared
// database connection. It performs no writes and no caching.
type SQLReader struct {
	db     *sql.DB
	rebind func(string) string
}

// NewSQLReader creates a reader over db. rebind translates `?` placeholders
// into the engine's syntax; nil means `?` is used as-is.
func NewSQLReader(db *sql.DB, rebind func(string) string) *SQLReader {
	if rebind == nil {
		rebind = func(q string) string { return q }
	}
	return &SQLReader{db: db, rebind: rebind}
}

func (r *SQLReader) Submission(ctx context.Context, id int64) (*Submission, error) {
	query := r.rebind(`
		SELECT submission_id, context_id, status, current_publication_id
		FROM submissions
		WHERE submission_id = ?`)

	var s Submission
	var pubID sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.ContextID, &s.Status, &pubID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying submission %d: %w", id, err)
	}
	s.CurrentPublicationID = pubID.Int64
	return &s, nil
}

func (r *SQLReader) CurrentPublication(ctx context.Context, submissionID int64) (*Publication, error) {
	s, err := r.Submission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if s.CurrentPublicationID == 0 {
		return nil, ErrNotFound
	}

	pub := &Publication{
		ID:           s.CurrentPublicationID,
		SubmissionID: submissionID,
		Title:        LocalizedString{},
		Abstract:     LocalizedString{},
		Keywords:     LocalizedList{},
		Subjects:     LocalizedList{},
		Disciplines:  LocalizedList{},
		Coverage:     LocalizedString{},
		Type:         LocalizedString{},
	}

	var datePublished any
	err = r.db.QueryRowContext(ctx, r.rebind(`
		SELECT date_published FROM publications WHERE publication_id = ?`),
		pub.ID).Scan(&datePublished)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying publication %d: %w", pub.ID, err)
	}
	pub.DatePublished = hostTime(datePublished)

	if err := r.loadSettings(ctx, pub); err != nil {
		return nil, err
	}
	if err := r.loadAuthors(ctx, pub); err != nil {
		return nil, err
	}
	return pub, nil
}

func (r *SQLReader) loadSettings(ctx context.Context, pub *Publication) error {
	rows, err := r.db.QueryContext(ctx, r.rebind(`
		SELECT locale, setting_name, setting_value
		FROM publication_settings
		WHERE publication_id = ?
		ORDER BY setting_name, locale`),
		pub.ID)
	if err != nil {
		return fmt.Errorf("querying publication settings for %d: %w", pub.ID, err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var locale, name string
		var value sql.NullString
		if err := rows.Scan(&locale, &name, &value); err != nil {
			return fmt.Errorf("scanning publication setting: %w", err)
		}
		if !value.Valid || value.String == "" {
			continue
		}
		switch name {
		case settingTitle:
			pub.Title[locale] = value.String
		case settingAbstract:
			pub.Abstract[locale] = value.String
		case settingCoverage:
			pub.Coverage[locale] = value.String
		case settingType:
			pub.Type[locale] = value.String
		case settingKeywords:
			pub.Keywords[locale] = append(pub.Keywords[locale], value.String)
		case settingSubjects:
			pub.Subjects[locale] = append(pub.Subjects[locale], value.String)
		case settingDisciplines:
			pub.Disciplines[locale] = append(pub.Disciplines[locale], value.String)
		}
	}
	return rows.Err()
}

func (r *SQLReader) loadAuthors(ctx context.Context, pub *Publication) error {
	rows, err := r.db.QueryContext(ctx, r.rebind(`
		SELECT a.author_id, s.locale, s.setting_name, s.setting_value
		FROM authors a
		JOIN author_settings s ON s.author_id = a.author_id
		WHERE a.publication_id = ?
		ORDER BY a.seq, a.author_id`),
		pub.ID)
	if err != nil {
		return fmt.Errorf("querying authors for publication %d: %w", pub.ID, err)
	}
	defer closeRows(rows)

	byID := make(map[int64]*Author)
	var order []int64
	for rows.Next() {
		var authorID int64
		var locale, name string
		var value sql.NullString
		if err := rows.Scan(&authorID, &locale, &name, &value); err != nil {
			return fmt.Errorf("scanning author setting: %w", err)
		}
		author, ok := byID[authorID]
		if !ok {
			author = &Author{
				GivenName:           LocalizedString{},
				FamilyName:          LocalizedString{},
				PreferredPublicName: LocalizedString{},
				Affiliation:         LocalizedString{},
			}
			byID[authorID] = author
			order = append(order, authorID)
		}
		if !value.Valid || value.String == "" {
			continue
		}
		switch name {
		case "givenName":
			author.GivenName[locale] = value.String
		case "familyName":
			author.FamilyName[locale] = value.String
		case "preferredPublicName":
			author.PreferredPublicName[locale] = value.String
		case "affiliation":
			author.Affiliation[locale] = value.String
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range order {
		pub.Authors = append(pub.Authors, *byID[id])
	}
	return nil
}

func (r *SQLReader) Contexts(ctx context.Context) ([]Context, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT context_id, name FROM contexts ORDER BY context_id`)
	if err != nil {
		return nil, fmt.Errorf("querying contexts: %w", err)
	}
	defer closeRows(rows)

	var contexts []Context
	for rows.Next() {
		var c Context
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning context: %w", err)
		}
		contexts = append(contexts, c)
	}
	return contexts, rows.Err()
}

func (r *SQLReader) EachPublished(ctx context.Context, contextID int64, fn func(*Submission) error) error {
	rows, err := r.db.QueryContext(ctx, r.rebind(`
		SELECT submission_id, context_id, status, current_publication_id
		FROM submissions
		WHERE context_id = ? AND status = ?
		ORDER BY submission_id`),
		contextID, StatusPublished)
	if err != nil {
		return fmt.Errorf("querying published submissions for context %d: %w", contextID, err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var s Submission
		var pubID sql.NullInt64
		if err := rows.Scan(&s.ID, &s.ContextID, &s.Status, &pubID); err != nil {
			return fmt.Errorf("scanning submission: %w", err)
		}
		s.CurrentPublicationID = pubID.Int64
		if err := fn(&s); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *SQLReader) ProofFiles(ctx context.Context, submissionID int64) ([]*SubmissionFile, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`
		SELECT submission_file_id, submission_id, file_stage, path
		FROM submission_files
		WHERE submission_id = ? AND file_stage = ?
		ORDER BY submission_file_id`),
		submissionID, FileStageProof)
	if err != nil {
		return nil, fmt.Errorf("querying proof files for submission %d: %w", submissionID, err)
	}
	defer closeRows(rows)

	var files []*SubmissionFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *SQLReader) File(ctx context.Context, fileID int64) (*SubmissionFile, error) {
	var f SubmissionFile
	var path sql.NullString
	err := r.db.QueryRowContext(ctx, r.rebind(`
		SELECT submission_file_id, submission_id, file_stage, path
		FROM submission_files
		WHERE submission_file_id = ?`),
		fileID).Scan(&f.ID, &f.SubmissionID, &f.Stage, &path)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying submission file %d: %w", fileID, err)
	}
	f.Path = path.String
	return &f, nil
}

func scanFile(rows *sql.Rows) (*SubmissionFile, error) {
	var f SubmissionFile
	var path sql.NullString
	if err := rows.Scan(&f.ID, &f.SubmissionID, &f.Stage, &path); err != nil {
		return nil, fmt.Errorf("scanning submission file: %w", err)
	}
	f.Path = path.String
	return &f, nil
}

// hostTime tolerates the value types drivers hand back for date_published:
// native timestamps, text, or raw bytes. Unparseable values yield zero time.
func hostTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		return parseHostDate(t)
	case []byte:
		return parseHostDate(string(t))
	}
	return time.Time{}
}

func parseHostDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func closeRows(rows *sql.Rows) {
	_ = rows.Close()
}
