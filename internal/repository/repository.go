package repository

import (
	"errors"
	"sort"
	"strings"

	"expertsolve.com/hub/pkg/apperror"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is an optional limit/offset window for list queries.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return db.Limit(limit).Offset(offset)
}

// translate maps gorm sentinel errors onto the app error taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(apperror.ErrConflict, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return errors.Join(apperror.ErrInvalidInput, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return errors.Join(apperror.ErrInvalidInput, err)
	}
	return err
}

// affected turns a zero-row mutation into ErrNotFound.
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// orderByIDs reorders rows to follow ids, dropping ids with no row.
func orderByIDs[T any](rows []T, ids []uint, idOf func(T) uint) []T {
	rank := make(map[uint]int, len(ids))
	for i, id := range ids {
		if _, seen := rank[id]; !seen {
			rank[id] = i
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rank[idOf(rows[i])] < rank[idOf(rows[j])]
	})
	return rows
}
