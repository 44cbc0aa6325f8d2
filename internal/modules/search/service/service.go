package service

import (
	"context"
	"encoding/json"
	"html"
	"log"
	"strings"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const postsIndex = "posts"

type SearchService interface {
	IndexPost(ctx context.Context, post *entity.Post) error
	RemovePost(ctx context.Context, postID uuid.UUID) error
	SearchPosts(ctx context.Context, query string, limit, offset int) ([]PostDocument, error)
}

// PostDocument is the shape stored in the posts index.
type PostDocument struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	Username  string   `json:"username"`
	Caption   string   `json:"caption"`
	Subjects  []string `json:"subjects"`
	IsPublic  bool     `json:"is_public"`
	CreatedAt int64    `json:"created_at"`
}

type searchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *searchService) initIndexes() {
	filterable := []string{"is_public", "subjects", "user_id"}
	filterableInterface := make([]any, len(filterable))
	for i, v := range filterable {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index(postsIndex).UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("failed to update posts filterable attributes: %v", err)
	}

	sortable := []string{"created_at"}
	if _, err := s.client.Index(postsIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("failed to update posts sortable attributes: %v", err)
	}
}

// cleanForIndex strips markup from user content before indexing.
func (s *searchService) cleanForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)

	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *searchService) IndexPost(ctx context.Context, post *entity.Post) error {
	doc := PostDocument{
		ID:        post.ID.String(),
		UserID:    post.UserID.String(),
		Caption:   s.cleanForIndex(post.Caption),
		IsPublic:  post.IsPublic,
		CreatedAt: post.CreatedAt.Unix(),
		Subjects:  make([]string, 0, len(post.Subjects)),
	}
	if post.User != nil {
		doc.Username = post.User.Username
	}
	for _, subj := range post.Subjects {
		doc.Subjects = append(doc.Subjects, subj.Slug)
	}

	_, err := s.client.Index(postsIndex).AddDocumentsWithContext(ctx, []PostDocument{doc}, strPtr("id"))
	return err
}

func (s *searchService) RemovePost(ctx context.Context, postID uuid.UUID) error {
	_, err := s.client.Index(postsIndex).DeleteDocumentWithContext(ctx, postID.String())
	return err
}

func (s *searchService) SearchPosts(ctx context.Context, query string, limit, offset int) ([]PostDocument, error) {
	if limit <= 0 {
		limit = 20
	}

	resp, err := s.client.Index(postsIndex).SearchWithContext(ctx, query, &meilisearch.SearchRequest{
		Limit:  int64(limit),
		Offset: int64(offset),
		Filter: "is_public = true",
		Sort:   []string{"created_at:desc"},
	})
	if err != nil {
		return nil, err
	}

	docs := make([]PostDocument, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc PostDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func strPtr(s string) *string {
	return &s
}
