package bootstrap

import (
	"testing"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, Migrate(db, logger.Nop()))
	require.NoError(t, Migrate(db, logger.Nop()))

	var versions []int
	require.NoError(t, db.Model(&SchemaMigration{}).Order("version").Pluck("version", &versions).Error)
	assert.Equal(t, []int{1, 2, 3}, versions)

	var topLevel int64
	require.NoError(t, db.Model(&model.Category{}).Where("parent_category_id IS NULL").Count(&topLevel).Error)
	assert.Equal(t, int64(len(defaultCategories)), topLevel)
}

func TestSeededTechnologyIsFirstCategory(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db, logger.Nop()))

	var tech model.Category
	require.NoError(t, db.First(&tech, 1).Error)
	assert.Equal(t, "Technology", tech.Name)
	assert.True(t, tech.IsActive)

	var children int64
	require.NoError(t, db.Model(&model.Category{}).Where("parent_category_id = ?", tech.ID).Count(&children).Error)
	assert.Equal(t, int64(3), children)
}

func TestSeedAdminUser(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db, logger.Nop()))

	require.NoError(t, SeedAdminUser(db, logger.Nop(), " Admin@ExpertSolve.dev ", "s3cret!"))
	require.NoError(t, SeedAdminUser(db, logger.Nop(), "admin@expertsolve.dev", "other"))

	var admins []model.User
	require.NoError(t, db.Where("user_type = ?", model.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@expertsolve.dev", admins[0].Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admins[0].PasswordHash), []byte("s3cret!")))
}

func TestSeedAdminUserSkipsWithoutCredentials(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db, logger.Nop()))

	require.NoError(t, SeedAdminUser(db, logger.Nop(), "", ""))

	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestConstraintsAreEnforced(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db, logger.Nop()))

	u := model.User{Email: "a@x.io", PasswordHash: "h", FullName: "A", Username: "a", UserType: model.RoleUser, IsActive: true}
	require.NoError(t, db.Create(&u).Error)

	bad := model.User{Email: "b@x.io", PasswordHash: "h", FullName: "B", Username: "b", UserType: "wizard", IsActive: true}
	assert.Error(t, db.Create(&bad).Error, "user_type check")

	assert.Error(t, db.Create(&model.UserFollow{FollowerID: u.ID, FollowingID: u.ID}).Error, "self follow check")
}

type foreignKey struct {
	Table    string `gorm:"column:table"`
	From     string `gorm:"column:from"`
	To       string `gorm:"column:to"`
	OnDelete string `gorm:"column:on_delete"`
}

func foreignKeys(t *testing.T, db *gorm.DB, table string) []string {
	t.Helper()
	var rows []foreignKey
	require.NoError(t, db.Raw("PRAGMA foreign_key_list("+table+")").Scan(&rows).Error)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.From+" -> "+r.Table+"."+r.To+" "+r.OnDelete)
	}
	return out
}

func TestForeignKeysPointAtParents(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db, logger.Nop()))

	want := map[string][]string{
		"users":      {},
		"categories": {"parent_category_id -> categories.category_id SET NULL"},
		"user_expertise": {
			"user_id -> users.user_id CASCADE",
			"category_id -> categories.category_id CASCADE",
		},
		"user_follows": {
			"follower_id -> users.user_id CASCADE",
			"following_id -> users.user_id CASCADE",
		},
		"user_sessions": {"user_id -> users.user_id CASCADE"},
		"anonymous_questions": {
			"asked_by -> users.user_id CASCADE",
			"category_id -> categories.category_id SET NULL",
		},
		"answers": {
			"question_id -> anonymous_questions.question_id CASCADE",
			"expert_id -> users.user_id CASCADE",
		},
		"challenges": {
			"expert_id -> users.user_id CASCADE",
			"category_id -> categories.category_id SET NULL",
		},
		"challenge_participants": {
			"challenge_id -> challenges.challenge_id CASCADE",
			"user_id -> users.user_id CASCADE",
		},
		"solutions": {
			"challenge_id -> challenges.challenge_id CASCADE",
			"user_id -> users.user_id CASCADE",
		},
		"answer_ratings": {
			"answer_id -> answers.answer_id CASCADE",
			"rater_id -> users.user_id CASCADE",
		},
		"solution_ratings": {
			"solution_id -> solutions.solution_id CASCADE",
			"rater_id -> users.user_id CASCADE",
		},
		"expert_ratings": {
			"expert_id -> users.user_id CASCADE",
			"rater_id -> users.user_id CASCADE",
		},
		"notifications": {
			"user_id -> users.user_id CASCADE",
			"actor_id -> users.user_id SET NULL",
		},
		"activity_logs": {"user_id -> users.user_id SET NULL"},
	}
	for table, keys := range want {
		assert.ElementsMatch(t, keys, foreignKeys(t, db, table), table)
	}
}

func TestDeletingParentsCascades(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db, logger.Nop()))

	newUser := func(name, role string) *model.User {
		u := &model.User{Email: name + "@x.io", PasswordHash: "h", FullName: name, Username: name, UserType: role, IsActive: true}
		require.NoError(t, db.Create(u).Error)
		return u
	}
	asker := newUser("asker", model.RoleUser)
	expert := newUser("expert", model.RoleExpert)
	solver := newUser("solver", model.RoleStudent)

	q := &model.Question{AskedBy: asker.ID, Content: "How?", UrgencyLevel: "low", Status: model.QuestionOpen}
	require.NoError(t, db.Create(q).Error)
	a := &model.Answer{QuestionID: q.ID, ExpertID: expert.ID, Content: "Like this"}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Create(&model.AnswerRating{AnswerID: a.ID, RaterID: asker.ID, Rating: 5}).Error)

	c := &model.Challenge{ExpertID: expert.ID, Title: "T", Description: "D", DifficultyLevel: "beginner", Status: model.ChallengeActive}
	require.NoError(t, db.Create(c).Error)
	require.NoError(t, db.Create(&model.ChallengeParticipant{ChallengeID: c.ID, UserID: solver.ID, Status: "joined"}).Error)
	s := &model.Solution{ChallengeID: c.ID, UserID: solver.ID, Content: "code", Status: model.SolutionSubmitted}
	require.NoError(t, db.Create(s).Error)
	require.NoError(t, db.Create(&model.SolutionRating{SolutionID: s.ID, RaterID: asker.ID, Rating: 4}).Error)

	count := func(m any) int64 {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		return n
	}

	require.NoError(t, db.Delete(&model.Question{}, q.ID).Error)
	assert.Zero(t, count(&model.Answer{}))
	assert.Zero(t, count(&model.AnswerRating{}))

	require.NoError(t, db.Delete(&model.Challenge{}, c.ID).Error)
	assert.Zero(t, count(&model.Solution{}))
	assert.Zero(t, count(&model.ChallengeParticipant{}))
	assert.Zero(t, count(&model.SolutionRating{}))
	assert.Equal(t, int64(3), count(&model.User{}))

	c2 := &model.Challenge{ExpertID: expert.ID, Title: "T2", Description: "D", DifficultyLevel: "advanced", Status: model.ChallengeActive}
	require.NoError(t, db.Create(c2).Error)
	require.NoError(t, db.Delete(&model.User{}, expert.ID).Error)
	assert.Zero(t, count(&model.Challenge{}))
}
