package repository

import (
	"context"
	"errors"

	"expertsolve.com/hub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeFilter struct {
	CategoryID *uint
	Status     string
	Page       Page
}

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *model.Challenge) error
	List(ctx context.Context, filter ChallengeFilter) ([]model.Challenge, error)
	FindByID(ctx context.Context, id uint) (*model.Challenge, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Challenge, error)
	ListByExpert(ctx context.Context, expertID uint) ([]model.Challenge, error)
	Search(ctx context.Context, term string) ([]model.Challenge, error)
	Update(ctx context.Context, id, expertID uint, fields map[string]any) error
	Delete(ctx context.Context, id, expertID uint) error
	All(ctx context.Context) ([]model.Challenge, error)

	Join(ctx context.Context, challengeID, userID uint) (bool, error)
	Leave(ctx context.Context, challengeID, userID uint) (bool, error)
	IsParticipant(ctx context.Context, challengeID, userID uint) (bool, error)
	Participants(ctx context.Context, challengeID uint) ([]model.Participant, error)
}

type challengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

const participantJoined = "joined"

func (r *challengeRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Challenge{}).
		Select(`challenges.*,
			users.full_name AS creator_name,
			users.username AS creator_username,
			categories.name AS category_name,
			categories.color AS category_color,
			(SELECT COUNT(*) FROM challenge_participants WHERE challenge_participants.challenge_id = challenges.challenge_id) AS participant_count,
			(SELECT COUNT(*) FROM solutions WHERE solutions.challenge_id = challenges.challenge_id) AS solution_count`).
		Joins("JOIN users ON users.user_id = challenges.expert_id").
		Joins("LEFT JOIN categories ON categories.category_id = challenges.category_id")
}

func (r *challengeRepository) Create(ctx context.Context, challenge *model.Challenge) error {
	return translate(r.db.WithContext(ctx).Create(challenge).Error)
}

func (r *challengeRepository) List(ctx context.Context, filter ChallengeFilter) ([]model.Challenge, error) {
	q := r.withDetails(ctx)
	if filter.CategoryID != nil {
		q = q.Where("challenges.category_id = ?", *filter.CategoryID)
	}
	if filter.Status != "" {
		q = q.Where("challenges.status = ?", filter.Status)
	}
	var challenges []model.Challenge
	err := filter.Page.apply(q).
		Order("challenges.created_at DESC, challenges.challenge_id DESC").
		Find(&challenges).Error
	return challenges, err
}

func (r *challengeRepository) FindByID(ctx context.Context, id uint) (*model.Challenge, error) {
	var challenge model.Challenge
	if err := r.withDetails(ctx).Where("challenges.challenge_id = ?", id).Take(&challenge).Error; err != nil {
		return nil, translate(err)
	}
	return &challenge, nil
}

func (r *challengeRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Challenge, error) {
	if len(ids) == 0 {
		return []model.Challenge{}, nil
	}
	var challenges []model.Challenge
	if err := r.withDetails(ctx).Where("challenges.challenge_id IN ?", ids).Find(&challenges).Error; err != nil {
		return nil, err
	}
	return orderByIDs(challenges, ids, func(c model.Challenge) uint { return c.ID }), nil
}

func (r *challengeRepository) ListByExpert(ctx context.Context, expertID uint) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.withDetails(ctx).
		Where("challenges.expert_id = ?", expertID).
		Order("challenges.created_at DESC, challenges.challenge_id DESC").
		Find(&challenges).Error
	return challenges, err
}

func (r *challengeRepository) Search(ctx context.Context, term string) ([]model.Challenge, error) {
	pattern := likePattern(term)
	var challenges []model.Challenge
	err := r.withDetails(ctx).
		Where(`(LOWER(challenges.title) LIKE ? ESCAPE '\' OR LOWER(challenges.description) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("challenges.created_at DESC").
		Limit(maxPageSize).
		Find(&challenges).Error
	return challenges, err
}

func (r *challengeRepository) Update(ctx context.Context, id, expertID uint, fields map[string]any) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Challenge{}).
		Where("challenge_id = ? AND expert_id = ?", id, expertID).
		Updates(fields))
}

func (r *challengeRepository) Delete(ctx context.Context, id, expertID uint) error {
	return affected(r.db.WithContext(ctx).
		Where("challenge_id = ? AND expert_id = ?", id, expertID).
		Delete(&model.Challenge{}))
}

func (r *challengeRepository) All(ctx context.Context) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.withDetails(ctx).Order("challenges.challenge_id").Find(&challenges).Error
	return challenges, err
}

// Join reports false when the user was already a participant.
// ErrChallengeFull is returned by Join when max_participants is reached.
var ErrChallengeFull = errors.New("challenge is full")

// Join enrolls userID unless the challenge is at capacity. The challenge row
// is locked for the count so concurrent joins cannot overshoot the cap. It
// reports false when the user had already joined.
func (r *challengeRepository) Join(ctx context.Context, challengeID, userID uint) (bool, error) {
	joined := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var challenge model.Challenge
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("challenge_id", "max_participants").
			First(&challenge, challengeID).Error; err != nil {
			return translate(err)
		}

		var existing int64
		if err := tx.Model(&model.ChallengeParticipant{}).
			Where("challenge_id = ? AND user_id = ?", challengeID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		if challenge.MaxParticipants != nil {
			var count int64
			if err := tx.Model(&model.ChallengeParticipant{}).
				Where("challenge_id = ?", challengeID).
				Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(*challenge.MaxParticipants) {
				return ErrChallengeFull
			}
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "challenge_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&model.ChallengeParticipant{ChallengeID: challengeID, UserID: userID, Status: participantJoined})
		if res.Error != nil {
			return translate(res.Error)
		}
		joined = res.RowsAffected > 0
		return nil
	})
	return joined, err
}

func (r *challengeRepository) Leave(ctx context.Context, challengeID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		Delete(&model.ChallengeParticipant{})
	return res.RowsAffected > 0, res.Error
}

func (r *challengeRepository) IsParticipant(ctx context.Context, challengeID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ChallengeParticipant{}).
		Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *challengeRepository) Participants(ctx context.Context, challengeID uint) ([]model.Participant, error) {
	var participants []model.Participant
	err := r.db.WithContext(ctx).
		Table("challenge_participants").
		Select(`users.user_id, users.full_name, users.username, users.profile_picture, users.user_type,
			challenge_participants.status, challenge_participants.joined_at`).
		Joins("JOIN users ON users.user_id = challenge_participants.user_id").
		Where("challenge_participants.challenge_id = ?", challengeID).
		Order("challenge_participants.joined_at ASC").
		Scan(&participants).Error
	return participants, err
}
