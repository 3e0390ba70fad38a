// Package query serves the read side: the by-author and by-approval-group
// families, each unpaged or paged, and the review statistics.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/DocFlow/internal/model"
	"github.com/dharsanguruparan/DocFlow/internal/repository"
)

// Criteria are the optional filters shared by both families.
type Criteria struct {
	Status model.Status
	Title  string
}

// Service answers document queries from a Store.
type Service struct {
	store repository.Store
	log   *zap.Logger
}

// NewService constructs a Service.
func NewService(store repository.Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log.With(zap.String("component", "query"))}
}

func (c Criteria) filter() repository.Filter {
	return repository.Filter{Status: c.Status, TitleContains: strings.TrimSpace(c.Title)}
}

func authorFilter(author string, c Criteria) (repository.Filter, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return repository.Filter{}, fmt.Errorf("%w: author is required", model.ErrInvalidInput)
	}
	f := c.filter()
	f.Author = author
	return f, nil
}

func groupFilter(groups []string, c Criteria) repository.Filter {
	f := c.filter()
	f.Groups = NormalizeGroups(groups)
	return f
}

// ListByAuthor returns every document of author, most recent first.
func (s *Service) ListByAuthor(ctx context.Context, author string, c Criteria) ([]model.DocumentView, error) {
	f, err := authorFilter(author, c)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, f)
}

// PageByAuthor returns one page of ListByAuthor with the total match count.
func (s *Service) PageByAuthor(ctx context.Context, author string, c Criteria, index, size int) (model.Page, error) {
	f, err := authorFilter(author, c)
	if err != nil {
		return model.Page{}, err
	}
	return s.page(ctx, f, index, size)
}

// ListForApproval returns the documents routed to any of groups.
func (s *Service) ListForApproval(ctx context.Context, groups []string, c Criteria) ([]model.DocumentView, error) {
	return s.list(ctx, groupFilter(groups, c))
}

// PageForApproval returns one page of ListForApproval with the total match
// count.
func (s *Service) PageForApproval(ctx context.Context, groups []string, c Criteria, index, size int) (model.Page, error) {
	return s.page(ctx, groupFilter(groups, c), index, size)
}

// ListAll returns every document regardless of author or routing, most
// recent first. It is the administrative listing.
func (s *Service) ListAll(ctx context.Context, c Criteria) ([]model.DocumentView, error) {
	return s.list(ctx, c.filter())
}

// PageAll returns one page of ListAll with the total match count.
func (s *Service) PageAll(ctx context.Context, c Criteria, index, size int) (model.Page, error) {
	return s.page(ctx, c.filter(), index, size)
}

func (s *Service) list(ctx context.Context, f repository.Filter) ([]model.DocumentView, error) {
	var docs []*model.Document
	err := s.store.ReadTx(ctx, func(r repository.Reader) error {
		var err error
		docs, err = r.Find(ctx, f, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return views(docs), nil
}

// page runs the page query and its count in one read transaction so both see
// the same snapshot.
func (s *Service) page(ctx context.Context, f repository.Filter, index, size int) (model.Page, error) {
	if index < 0 || size <= 0 {
		return model.Page{}, fmt.Errorf("%w: page index must be >= 0 and size > 0", model.ErrInvalidInput)
	}
	out := model.Page{Index: index, Size: size}
	err := s.store.ReadTx(ctx, func(r repository.Reader) error {
		total, err := r.Count(ctx, f)
		if err != nil {
			return err
		}
		out.Total = total
		// Compare by division so a huge index cannot overflow index*size.
		if total == 0 || index > (total-1)/size {
			out.Items = []model.DocumentView{}
			return nil
		}
		docs, err := r.Find(ctx, f, &repository.Window{Offset: index * size, Limit: size})
		if err != nil {
			return err
		}
		out.Items = views(docs)
		return nil
	})
	if err != nil {
		return model.Page{}, err
	}
	s.log.Debug("page served", zap.Int("page", index), zap.Int("size", size), zap.Int("total", out.Total))
	return out, nil
}

func views(docs []*model.Document) []model.DocumentView {
	out := make([]model.DocumentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.NewView(d))
	}
	return out
}

func checkRange(docType string, from, to time.Time) error {
	if strings.TrimSpace(docType) == "" {
		return fmt.Errorf("%w: docType is required", model.ErrInvalidInput)
	}
	if from.After(to) {
		return fmt.Errorf("%w: range start %s is after end %s", model.ErrInvalidInput, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return nil
}

// Statistics counts documents of docType submitted within [from, to] and how
// many of those were approved or rejected.
func (s *Service) Statistics(ctx context.Context, docType string, from, to time.Time) (model.StatusCounts, error) {
	if err := checkRange(docType, from, to); err != nil {
		return model.StatusCounts{}, err
	}
	var out model.StatusCounts
	err := s.store.ReadTx(ctx, func(r repository.Reader) error {
		var err error
		if out.Submitted, err = r.CountSubmitted(ctx, docType, from, to); err != nil {
			return err
		}
		if out.Approved, err = r.CountByStatus(ctx, docType, model.StatusApproved, from, to); err != nil {
			return err
		}
		out.Rejected, err = r.CountByStatus(ctx, docType, model.StatusRejected, from, to)
		return err
	})
	if err != nil {
		return model.StatusCounts{}, err
	}
	return out, nil
}

// TopAuthors ranks authors of docType by submissions within [from, to]. Ties
// are ordered by author name.
func (s *Service) TopAuthors(ctx context.Context, docType string, from, to time.Time, n int) ([]model.AuthorCount, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive", model.ErrInvalidInput)
	}
	if err := checkRange(docType, from, to); err != nil {
		return nil, err
	}
	var out []model.AuthorCount
	err := s.store.ReadTx(ctx, func(r repository.Reader) error {
		var err error
		out, err = r.TopAuthors(ctx, docType, from, to, n)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.AuthorCount{}
	}
	return out, nil
}
