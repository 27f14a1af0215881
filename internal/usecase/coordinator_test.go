package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/user/frontier-crawler/internal/adapter/memory"
	"github.com/user/frontier-crawler/internal/entity"
	"github.com/user/frontier-crawler/internal/mocks"
	"github.com/user/frontier-crawler/internal/repository"
	"github.com/user/frontier-crawler/internal/usecase"
	"go.uber.org/zap/zaptest"
)

func page(url string, links ...string) *entity.Page {
	return &entity.Page{URL: url, HTML: "<html>" + url + "</html>", Links: links, StatusCode: 200, FetchedAt: time.Now()}
}

func assertStatus(t *testing.T, repo repository.FrontierRepository, url string, want entity.Status) {
	t.Helper()
	entry, err := repo.Get(context.Background(), url)
	if err != nil {
		t.Fatalf("Get(%s): %v", url, err)
	}
	if entry.Status != want {
		t.Fatalf("expected %s to be %s, got %s", url, want, entry.Status)
	}
}

func TestProcessOneEnqueuesSameOriginLinksWithinBudget(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockPageFetcher(ctrl)
	archiver := mocks.NewMockPageArchiver(ctrl)
	repo := memory.NewFrontierRepo(5 * time.Hour)

	seed := "https://ex.co/"
	fetcher.EXPECT().Fetch(gomock.Any(), seed).
		Return(page(seed, "https://ex.co/a", "https://ex.co/b", "https://other.co/c"), nil)
	archiver.EXPECT().Save(gomock.Any(), seed, "<html>https://ex.co/</html>").Return(nil)

	coord := usecase.NewCoordinator(repo, fetcher, archiver, 2, zaptest.NewLogger(t))
	if err := coord.ProcessOne(context.Background(), seed); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	assertStatus(t, repo, seed, entity.StatusVisited)
	assertStatus(t, repo, "https://ex.co/a", entity.StatusPending)
	assertStatus(t, repo, "https://ex.co/b", entity.StatusPending)
	assertStatus(t, repo, "https://other.co/c", entity.StatusUnknown)

	if ptr, _ := repo.ResumePointer(context.Background()); ptr != seed {
		t.Fatalf("expected resume pointer %s, got %q", seed, ptr)
	}
}

func TestProcessOneRespectsBudgetSnapshot(t *testing.T) {
	for _, tc := range []struct {
		limit    int64
		existing int
		want     int
	}{
		{limit: 10, existing: 0, want: 10},
		{limit: 10, existing: 4, want: 6},
		{limit: 10, existing: 10, want: 0},
		{limit: 10, existing: 12, want: 0},
		{limit: 0, existing: 0, want: 0},
	} {
		t.Run(fmt.Sprintf("limit=%d,existing=%d", tc.limit, tc.existing), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			fetcher := mocks.NewMockPageFetcher(ctrl)
			archiver := mocks.NewMockPageArchiver(ctrl)
			repo := memory.NewFrontierRepo(5 * time.Hour)
			ctx := context.Background()

			for i := 0; i < tc.existing; i++ {
				_ = repo.MarkVisited(ctx, fmt.Sprintf("https://elsewhere.co/%d", i))
			}
			base := "https://ex.co/"
			var links []string
			for i := 0; i < 20; i++ {
				links = append(links, fmt.Sprintf("%sp%d", base, i))
			}
			fetcher.EXPECT().Fetch(gomock.Any(), base).Return(page(base, links...), nil)
			archiver.EXPECT().Save(gomock.Any(), base, gomock.Any()).Return(nil)

			coord := usecase.NewCoordinator(repo, fetcher, archiver, tc.limit, zaptest.NewLogger(t))
			if err := coord.ProcessOne(ctx, base); err != nil {
				t.Fatalf("ProcessOne: %v", err)
			}

			pending, _ := repo.ListPending(ctx, 0)
			if len(pending) != tc.want {
				t.Fatalf("expected %d pending links, got %d", tc.want, len(pending))
			}
			for i, u := range pending {
				if want := links[i]; u != want {
					t.Fatalf("expected links enqueued in page order, got %v", pending)
				}
			}
		})
	}
}

func TestProcessOneDoesNotReenqueueVisited(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockPageFetcher(ctrl)
	archiver := mocks.NewMockPageArchiver(ctrl)
	repo := memory.NewFrontierRepo(5 * time.Hour)
	ctx := context.Background()

	_ = repo.MarkVisited(ctx, "https://ex.co/a")
	fetcher.EXPECT().Fetch(gomock.Any(), "https://ex.co/").
		Return(page("https://ex.co/", "https://ex.co/a", "https://ex.co/", "https://ex.co/b", "https://ex.co/b"), nil)
	archiver.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	coord := usecase.NewCoordinator(repo, fetcher, archiver, 100, zaptest.NewLogger(t))
	if err := coord.ProcessOne(ctx, "https://ex.co/"); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	assertStatus(t, repo, "https://ex.co/a", entity.StatusVisited)
	assertStatus(t, repo, "https://ex.co/", entity.StatusVisited)
	assertStatus(t, repo, "https://ex.co/b", entity.StatusPending)
	if size, _ := repo.Size(ctx); size != 3 {
		t.Fatalf("expected 3 entries, got %d", size)
	}
}

func TestProcessOneFetchFailureLeavesFrontierUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockPageFetcher(ctrl)
	archiver := mocks.NewMockPageArchiver(ctrl)
	repo := memory.NewFrontierRepo(5 * time.Hour)

	fetcher.EXPECT().Fetch(gomock.Any(), "https://ex.co/").
		Return(nil, fmt.Errorf("%w: net::ERR_NAME_NOT_RESOLVED", repository.ErrNavigationFailed))

	coord := usecase.NewCoordinator(repo, fetcher, archiver, 10, zaptest.NewLogger(t))
	err := coord.ProcessOne(context.Background(), "https://ex.co/")
	if !errors.Is(err, repository.ErrNavigationFailed) {
		t.Fatalf("expected ErrNavigationFailed, got %v", err)
	}
	assertStatus(t, repo, "https://ex.co/", entity.StatusUnknown)
	if ptr, _ := repo.ResumePointer(context.Background()); ptr != "" {
		t.Fatalf("expected no resume pointer, got %q", ptr)
	}
}

func TestProcessOneArchiveFailureKeepsVisitedMark(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockPageFetcher(ctrl)
	archiver := mocks.NewMockPageArchiver(ctrl)
	repo := memory.NewFrontierRepo(5 * time.Hour)

	fetcher.EXPECT().Fetch(gomock.Any(), "https://ex.co/").Return(page("https://ex.co/", "https://ex.co/a"), nil)
	archiver.EXPECT().Save(gomock.Any(), "https://ex.co/", gomock.Any()).Return(errors.New("disk full"))

	coord := usecase.NewCoordinator(repo, fetcher, archiver, 10, zaptest.NewLogger(t))
	err := coord.ProcessOne(context.Background(), "https://ex.co/")
	if !errors.Is(err, repository.ErrArchiveFailed) {
		t.Fatalf("expected ErrArchiveFailed, got %v", err)
	}
	assertStatus(t, repo, "https://ex.co/", entity.StatusVisited)
	assertStatus(t, repo, "https://ex.co/a", entity.StatusUnknown)
}
