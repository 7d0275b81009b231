package service

import (
	"context"
	"net/http"
	"strings"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/internal/repository"
	"expertsolve.com/hub/pkg/apperror"
)

type CategoryInput struct {
	Name             string  `json:"name" binding:"required,max=100"`
	Description      *string `json:"description"`
	Color            *string `json:"color" binding:"omitempty,hexcolor,len=7"`
	Icon             *string `json:"icon" binding:"omitempty,max=50"`
	ParentCategoryID *uint   `json:"parentCategoryId"`
	SortOrder        *int    `json:"sortOrder"`
	IsActive         *bool   `json:"isActive"`
}

type CategoryService interface {
	List(ctx context.Context) ([]model.Category, error)
	TopLevel(ctx context.Context) ([]model.Category, error)
	Search(ctx context.Context, term string) ([]model.Category, error)
	Get(ctx context.Context, id uint) (*model.Category, error)
	Subcategories(ctx context.Context, id uint) ([]model.Category, error)
	Experts(ctx context.Context, id uint) ([]model.User, error)
	Statistics(ctx context.Context, id uint) (*model.CategoryStatistics, error)
	Create(ctx context.Context, actorID uint, input CategoryInput, meta RequestMeta) (*model.Category, error)
	Update(ctx context.Context, actorID, id uint, input CategoryInput, meta RequestMeta) (*model.Category, error)
	Delete(ctx context.Context, actorID, id uint, meta RequestMeta) error
}

type categoryService struct {
	repo     repository.CategoryRepository
	activity ActivityService
}

func NewCategoryService(repo repository.CategoryRepository, activity ActivityService) CategoryService {
	return &categoryService{repo: repo, activity: activity}
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.repo.List(ctx)
}

func (s *categoryService) TopLevel(ctx context.Context) ([]model.Category, error) {
	return s.repo.TopLevel(ctx)
}

func (s *categoryService) Search(ctx context.Context, term string) ([]model.Category, error) {
	if strings.TrimSpace(term) == "" {
		return nil, apperror.BadRequest("Search term is required")
	}
	return s.repo.Search(ctx, term)
}

func (s *categoryService) Get(ctx context.Context, id uint) (*model.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Category not found")
	}
	return category, nil
}

func (s *categoryService) Subcategories(ctx context.Context, id uint) ([]model.Category, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Subcategories(ctx, id)
}

func (s *categoryService) Experts(ctx context.Context, id uint) ([]model.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Experts(ctx, id)
}

func (s *categoryService) Statistics(ctx context.Context, id uint) (*model.CategoryStatistics, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Statistics(ctx, id)
}

func (s *categoryService) Create(ctx context.Context, actorID uint, input CategoryInput, meta RequestMeta) (*model.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.BadRequest("Category name is required")
	}
	color := model.DefaultCategoryColor
	if input.Color != nil && *input.Color != "" {
		color = *input.Color
	}
	if input.ParentCategoryID != nil {
		if _, err := s.repo.FindByID(ctx, *input.ParentCategoryID); err != nil {
			return nil, notFound(err, "Parent category not found")
		}
	}

	category := &model.Category{
		Name:             name,
		Description:      normalizeOptional(input.Description),
		Icon:             normalizeOptional(input.Icon),
		Color:            color,
		ParentCategoryID: input.ParentCategoryID,
		IsActive:         true,
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, conflictAs(err, http.StatusConflict, "A category with this name already exists")
	}
	s.activity.Record(ctx, actorID, ActionCreate, "category", category.ID, meta, map[string]any{"name": name})
	return s.Get(ctx, category.ID)
}

func (s *categoryService) Update(ctx context.Context, actorID, id uint, input CategoryInput, meta RequestMeta) (*model.Category, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.BadRequest("Category name is required")
	}
	fields := map[string]any{"name": name}
	if input.Description != nil {
		fields["description"] = normalizeOptional(input.Description)
	}
	if input.Icon != nil {
		fields["icon"] = normalizeOptional(input.Icon)
	}
	if input.Color != nil && *input.Color != "" {
		fields["color"] = *input.Color
	}
	if input.ParentCategoryID != nil {
		if *input.ParentCategoryID == id {
			return nil, apperror.BadRequest("A category cannot be its own parent")
		}
		if _, err := s.repo.FindByID(ctx, *input.ParentCategoryID); err != nil {
			return nil, notFound(err, "Parent category not found")
		}
		fields["parent_category_id"] = *input.ParentCategoryID
	}
	if input.SortOrder != nil {
		fields["sort_order"] = *input.SortOrder
	}
	if input.IsActive != nil {
		fields["is_active"] = *input.IsActive
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, conflictAs(notFound(err, "Category not found"), http.StatusConflict, "A category with this name already exists")
	}
	s.activity.Record(ctx, actorID, ActionUpdate, "category", id, meta, nil)
	return s.Get(ctx, id)
}

func (s *categoryService) Delete(ctx context.Context, actorID, id uint, meta RequestMeta) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, "Category not found")
	}
	s.activity.Record(ctx, actorID, ActionDelete, "category", id, meta, nil)
	return nil
}
