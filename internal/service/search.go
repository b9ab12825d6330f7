package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/repository"
)

// DateLayout 是表单中日期字段的格式。
const DateLayout = "2006-01-02"

// SearchService 提供关键字搜索和按分类/日期筛选。
type SearchService struct {
	postRepo repository.PostRepository
}

func NewSearchService(postRepo repository.PostRepository) *SearchService {
	if postRepo == nil {
		panic("PostRepository cannot be nil for SearchService")
	}
	return &SearchService{postRepo: postRepo}
}

// Search returns the posts whose title, content or tags contain keyword.
// Matching is case-sensitive regardless of the database collation.
// An empty keyword is a substring of everything and matches every post.
func (s *SearchService) Search(ctx context.Context, keyword string) ([]domain.Post, error) {
	candidates, err := s.postRepo.SearchCandidates(ctx, keyword)
	if err != nil {
		logrus.WithError(err).WithField("keyword", keyword).Error("Search: repository error")
		return nil, ErrInternalServer
	}
	posts := make([]domain.Post, 0, len(candidates))
	for _, p := range candidates {
		if matchesKeyword(p, keyword) {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func matchesKeyword(p domain.Post, keyword string) bool {
	return strings.Contains(p.Title, keyword) ||
		strings.Contains(p.Content, keyword) ||
		strings.Contains(p.Tags, keyword)
}

// Filter 返回分类与发布日期（UTC 自然日）都匹配的文章。
// 空参数不参与筛选，但至少需要提供一个。
func (s *SearchService) Filter(ctx context.Context, category, date string) ([]domain.Post, error) {
	if category == "" && date == "" {
		return nil, fmt.Errorf("%w: category or date is required", ErrValidation)
	}
	filter := repository.PostFilter{Category: category}
	if date != "" {
		day, err := time.ParseInLocation(DateLayout, date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be formatted as YYYY-MM-DD", ErrValidation)
		}
		filter.From = day
		filter.To = day.AddDate(0, 0, 1)
	}
	posts, err := s.postRepo.Filter(ctx, filter)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"category": category, "date": date}).Error("Filter: repository error")
		return nil, ErrInternalServer
	}
	return posts, nil
}
