package usecase

import (
	"context"
	"errors"

	"github.com/user/frontier-crawler/internal/entity"
	"github.com/user/frontier-crawler/internal/repository"
)

// ErrArchiveLookupUnsupported is returned by GetArchived when the configured archiver cannot read pages back.
var ErrArchiveLookupUnsupported = errors.New("archiver does not support lookups")

// FrontierInspector defines read-only queries over the frontier and the archive.
type FrontierInspector interface {
	GetStatus(ctx context.Context, url string) (entity.FrontierEntry, error)
	GetArchived(ctx context.Context, url string) (*entity.ArchivedPage, error)
	Summary(ctx context.Context) (*entity.FrontierSummary, error)
	Health(ctx context.Context) error
}

type frontierInspector struct {
	frontier  repository.FrontierRepository
	archives  repository.ArchiveReader
	keysLimit int64
}

// NewFrontierInspector creates a FrontierInspector. It never writes to the frontier.
// archives may be nil when the archiver is write-only.
func NewFrontierInspector(
	frontier repository.FrontierRepository,
	archives repository.ArchiveReader,
	keysLimit int64,
) FrontierInspector {
	return &frontierInspector{frontier: frontier, archives: archives, keysLimit: keysLimit}
}

func (uc *frontierInspector) GetStatus(ctx context.Context, url string) (entity.FrontierEntry, error) {
	return uc.frontier.Get(ctx, url)
}

func (uc *frontierInspector) GetArchived(ctx context.Context, url string) (*entity.ArchivedPage, error) {
	if uc.archives == nil {
		return nil, ErrArchiveLookupUnsupported
	}
	return uc.archives.FindByURL(ctx, url)
}

func (uc *frontierInspector) Summary(ctx context.Context) (*entity.FrontierSummary, error) {
	size, err := uc.frontier.Size(ctx)
	if err != nil {
		return nil, err
	}
	pointer, err := uc.frontier.ResumePointer(ctx)
	if err != nil {
		return nil, err
	}
	return &entity.FrontierSummary{
		Size:          size,
		KeysLimit:     uc.keysLimit,
		Remaining:     NewBudget(uc.keysLimit, size).Remaining(),
		ResumePointer: pointer,
	}, nil
}

func (uc *frontierInspector) Health(ctx context.Context) error {
	return uc.frontier.Ping(ctx)
}
