package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/user/frontier-crawler/internal/repository"
)

type call struct {
	sql  string
	args []any
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *int64:
			*p = r.values[i].(int64)
		case *time.Time:
			*p = r.values[i].(time.Time)
		}
	}
	return nil
}

type fakeQuerier struct {
	calls   []call
	row     fakeRow
	execErr error
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.calls = append(q.calls, call{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), q.execErr
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.calls = append(q.calls, call{sql: sql, args: args})
	return q.row
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestArchivedPageSaveUpserts(t *testing.T) {
	db := &fakeQuerier{}
	repo := NewArchivedPageRepo(db)
	repo.now = func() time.Time { return fixedNow }

	if err := repo.Save(context.Background(), "https://ex.co/", "<html></html>"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(db.calls) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(db.calls))
	}
	c := db.calls[0]
	if !strings.Contains(c.sql, "ON CONFLICT (url) DO UPDATE") {
		t.Fatalf("expected an upsert, got %q", c.sql)
	}
	if c.args[0] != "https://ex.co/" || c.args[1] != "<html></html>" || c.args[2] != fixedNow {
		t.Fatalf("unexpected args %v", c.args)
	}
}

func TestArchivedPageSaveWrapsErrors(t *testing.T) {
	repo := NewArchivedPageRepo(&fakeQuerier{execErr: errors.New("connection reset")})
	err := repo.Save(context.Background(), "https://ex.co/", "x")
	if !errors.Is(err, repository.ErrArchiveFailed) {
		t.Fatalf("expected ErrArchiveFailed, got %v", err)
	}
}

func TestArchivedPageFindByURL(t *testing.T) {
	db := &fakeQuerier{row: fakeRow{values: []any{"https://ex.co/", "<p>hi</p>", fixedNow}}}
	page, err := NewArchivedPageRepo(db).FindByURL(context.Background(), "https://ex.co/")
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if page.URL != "https://ex.co/" || page.HTML != "<p>hi</p>" || !page.ArchivedAt.Equal(fixedNow) {
		t.Fatalf("unexpected page %+v", page)
	}

	_, err = NewArchivedPageRepo(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}).FindByURL(context.Background(), "https://ex.co/x")
	if !errors.Is(err, repository.ErrPageNotArchived) {
		t.Fatalf("expected ErrPageNotArchived, got %v", err)
	}

	_, err = NewArchivedPageRepo(&fakeQuerier{row: fakeRow{err: errors.New("conn closed")}}).FindByURL(context.Background(), "https://ex.co/x")
	if err == nil || errors.Is(err, repository.ErrPageNotArchived) {
		t.Fatalf("expected a plain read error, got %v", err)
	}
}

func TestFailedURLIncrementFailures(t *testing.T) {
	db := &fakeQuerier{row: fakeRow{values: []any{int64(3)}}}
	repo := NewFailedURLRepo(db)
	repo.now = func() time.Time { return fixedNow }

	n, err := repo.IncrementFailures(context.Background(), "https://ex.co/a", "navigation failed")
	if err != nil {
		t.Fatalf("IncrementFailures: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
	c := db.calls[0]
	if !strings.Contains(c.sql, "retry_count = failed_urls.retry_count + 1") {
		t.Fatalf("expected the count to be incremented in SQL, got %q", c.sql)
	}
	if c.args[0] != "https://ex.co/a" || c.args[1] != "navigation failed" {
		t.Fatalf("unexpected args %v", c.args)
	}
}

func TestFailedURLIncrementFailuresUnavailable(t *testing.T) {
	repo := NewFailedURLRepo(&fakeQuerier{row: fakeRow{err: errors.New("dial tcp: refused")}})
	_, err := repo.IncrementFailures(context.Background(), "https://ex.co/a", "x")
	if !errors.Is(err, repository.ErrFrontierUnavailable) {
		t.Fatalf("expected ErrFrontierUnavailable, got %v", err)
	}
}
