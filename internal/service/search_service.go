package service

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/pkg/logger"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const (
	questionsIndex  = "questions"
	challengesIndex = "challenges"
	searchHitLimit  = 50
)

// SearchService keeps the Meilisearch indexes in step with the database.
// Every method is a no-op when no client is configured.
type SearchService interface {
	Enabled() bool
	IndexQuestions(questions ...model.Question) error
	IndexChallenges(challenges ...model.Challenge) error
	DeleteQuestion(id uint) error
	DeleteChallenge(id uint) error
	SearchQuestions(query string) ([]uint, error)
	SearchChallenges(query string) ([]uint, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
	log       *logger.Logger
}

// NewSearchService accepts a nil client, which disables indexing.
func NewSearchService(client meilisearch.ServiceManager, log *logger.Logger) SearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
		log:       log,
	}
	if client != nil {
		s.initIndexes()
	}
	return s
}

func (s *meiliSearchService) Enabled() bool {
	return s.client != nil
}

func (s *meiliSearchService) initIndexes() {
	for index, filterable := range map[string][]string{
		questionsIndex:  {"category_id", "status", "urgency_level"},
		challengesIndex: {"category_id", "status", "difficulty_level", "expert_id"},
	} {
		attrs := make([]any, len(filterable))
		for i, v := range filterable {
			attrs[i] = v
		}
		if _, err := s.client.Index(index).UpdateFilterableAttributes(&attrs); err != nil {
			s.log.Warn("failed to update filterable attributes", "index", index, "error", err)
		}

		sortable := []string{"created_at"}
		if _, err := s.client.Index(index).UpdateSortableAttributes(&sortable); err != nil {
			s.log.Warn("failed to update sortable attributes", "index", index, "error", err)
		}
	}
	s.log.Info("meilisearch indexes initialized")
}

// Question documents never carry the asker.
type questionDoc struct {
	ID           uint     `json:"id"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Tags         []string `json:"tags"`
	CategoryID   *uint    `json:"category_id"`
	CategoryName string   `json:"category_name"`
	UrgencyLevel string   `json:"urgency_level"`
	Status       string   `json:"status"`
	CreatedAt    int64    `json:"created_at"`
}

type challengeDoc struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	ExpertID        uint   `json:"expert_id"`
	CreatorName     string `json:"creator_name"`
	CategoryID      *uint  `json:"category_id"`
	CategoryName    string `json:"category_name"`
	DifficultyLevel string `json:"difficulty_level"`
	Status          string `json:"status"`
	CreatedAt       int64  `json:"created_at"`
}

func (s *meiliSearchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	cleanText := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) questionDocument(q model.Question) questionDoc {
	return questionDoc{
		ID:           q.ID,
		Title:        s.cleanContentForIndex(deref(q.Title)),
		Content:      s.cleanContentForIndex(q.Content),
		Tags:         []string(q.Tags),
		CategoryID:   q.CategoryID,
		CategoryName: deref(q.CategoryName),
		UrgencyLevel: q.UrgencyLevel,
		Status:       q.Status,
		CreatedAt:    q.CreatedAt.Unix(),
	}
}

func (s *meiliSearchService) challengeDocument(c model.Challenge) challengeDoc {
	return challengeDoc{
		ID:              c.ID,
		Title:           s.cleanContentForIndex(c.Title),
		Description:     s.cleanContentForIndex(c.Description),
		ExpertID:        c.ExpertID,
		CreatorName:     c.CreatorName,
		CategoryID:      c.CategoryID,
		CategoryName:    deref(c.CategoryName),
		DifficultyLevel: c.DifficultyLevel,
		Status:          c.Status,
		CreatedAt:       c.CreatedAt.Unix(),
	}
}

func (s *meiliSearchService) IndexQuestions(questions ...model.Question) error {
	if s.client == nil || len(questions) == 0 {
		return nil
	}
	docs := make([]questionDoc, len(questions))
	for i, q := range questions {
		docs[i] = s.questionDocument(q)
	}
	task, err := s.client.Index(questionsIndex).AddDocuments(docs, strPtr("id"))
	if err != nil {
		return fmt.Errorf("index questions: %w", err)
	}
	s.log.Debug("indexed questions", "count", len(docs), "task_uid", task.TaskUID)
	return nil
}

func (s *meiliSearchService) IndexChallenges(challenges ...model.Challenge) error {
	if s.client == nil || len(challenges) == 0 {
		return nil
	}
	docs := make([]challengeDoc, len(challenges))
	for i, c := range challenges {
		docs[i] = s.challengeDocument(c)
	}
	task, err := s.client.Index(challengesIndex).AddDocuments(docs, strPtr("id"))
	if err != nil {
		return fmt.Errorf("index challenges: %w", err)
	}
	s.log.Debug("indexed challenges", "count", len(docs), "task_uid", task.TaskUID)
	return nil
}

func (s *meiliSearchService) DeleteQuestion(id uint) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index(questionsIndex).DeleteDocument(strconv.FormatUint(uint64(id), 10))
	return err
}

func (s *meiliSearchService) DeleteChallenge(id uint) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index(challengesIndex).DeleteDocument(strconv.FormatUint(uint64(id), 10))
	return err
}

func (s *meiliSearchService) SearchQuestions(query string) ([]uint, error) {
	return s.searchIDs(questionsIndex, query)
}

func (s *meiliSearchService) SearchChallenges(query string) ([]uint, error) {
	return s.searchIDs(challengesIndex, query)
}

// searchIDs returns matching document ids in rank order.
func (s *meiliSearchService) searchIDs(index, query string) ([]uint, error) {
	if s.client == nil {
		return nil, nil
	}
	raw, err := s.client.Index(index).SearchRaw(query, &meilisearch.SearchRequest{
		Limit:                searchHitLimit,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	return decodeHitIDs(*raw)
}

func decodeHitIDs(raw []byte) ([]uint, error) {
	var resp struct {
		Hits []struct {
			ID uint `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode search hits: %w", err)
	}
	ids := make([]uint, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
