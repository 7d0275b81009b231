package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/internal/repository"
	"expertsolve.com/hub/internal/testutil"
	"expertsolve.com/hub/pkg/apperror"
	"expertsolve.com/hub/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db  *gorm.DB
	rdb *redis.Client

	users         repository.UserRepository
	categories    repository.CategoryRepository
	questions     repository.QuestionRepository
	answers       repository.AnswerRepository
	challenges    repository.ChallengeRepository
	solutions     repository.SolutionRepository
	notifications repository.NotificationRepository

	activity ActivityService
	notifier NotificationService
	search   SearchService
	limiter  *RateLimiter
	tokens   *TokenIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := testutil.NewDB(t)
	log := logger.Nop()
	f := &fixture{
		db:            db,
		rdb:           rdb,
		users:         repository.NewUserRepository(db),
		categories:    repository.NewCategoryRepository(db),
		questions:     repository.NewQuestionRepository(db),
		answers:       repository.NewAnswerRepository(db),
		challenges:    repository.NewChallengeRepository(db),
		solutions:     repository.NewSolutionRepository(db),
		notifications: repository.NewNotificationRepository(db),
		search:        NewSearchService(nil, log),
		tokens:        NewTokenIssuer("test-secret", time.Hour),
	}
	f.activity = NewActivityService(repository.NewActivityRepository(db), log)
	f.notifier = NewNotificationService(f.notifications, rdb, log)
	f.limiter = NewRateLimiter(rdb, map[string]time.Duration{
		ActionCreateQuestion: 30 * time.Second,
		ActionCreateAnswer:   10 * time.Second,
	})
	return f
}

func (f *fixture) user(t *testing.T, username, role string) *model.User {
	t.Helper()
	u := &model.User{
		Email:        username + "@example.com",
		PasswordHash: "hash",
		FullName:     "User " + username,
		Username:     username,
		UserType:     role,
		IsActive:     true,
	}
	require.NoError(t, f.users.Create(context.Background(), u, nil))
	return u
}

func (f *fixture) questionService() QuestionService {
	return NewQuestionService(f.questions, f.answers, f.categories, f.limiter, f.search, f.activity, logger.Nop())
}

func (f *fixture) challengeService() ChallengeService {
	return NewChallengeService(f.challenges, f.solutions, f.categories, f.users, f.search, f.notifier, f.activity, logger.Nop())
}

func (f *fixture) solutionService() SolutionService {
	return NewSolutionService(f.solutions, f.challenges, f.notifier, f.activity, logger.Nop())
}

func statusOf(err error) int {
	return apperror.MapErrorToStatus(err)
}

func intPtr(v int) *int { return &v }

func TestRateLimiterBlocksUntilReleased(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.limiter.Acquire(ctx, 1, ActionCreateQuestion))

	err := f.limiter.Acquire(ctx, 1, ActionCreateQuestion)
	var rlErr *RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)
	assert.Equal(t, ActionCreateQuestion, rlErr.Action)
	assert.Greater(t, rlErr.RetryAfterSeconds(), 0)
	assert.LessOrEqual(t, rlErr.RetryAfterSeconds(), 30)

	// other users and actions are independent
	assert.NoError(t, f.limiter.Acquire(ctx, 2, ActionCreateQuestion))
	assert.NoError(t, f.limiter.Acquire(ctx, 1, ActionCreateAnswer))

	require.NoError(t, f.limiter.Release(ctx, 1, ActionCreateQuestion))
	assert.NoError(t, f.limiter.Acquire(ctx, 1, ActionCreateQuestion))
}

func TestRateLimiterWithoutRedisAllows(t *testing.T) {
	limiter := NewRateLimiter(nil, map[string]time.Duration{ActionCreateQuestion: time.Minute})
	ctx := context.Background()
	assert.NoError(t, limiter.Acquire(ctx, 1, ActionCreateQuestion))
	assert.NoError(t, limiter.Acquire(ctx, 1, ActionCreateQuestion))
	assert.NoError(t, limiter.Release(ctx, 1, ActionCreateQuestion))
}

func TestRateLimitErrorRoundsUp(t *testing.T) {
	err := &RateLimitError{Action: ActionCreateAnswer, RetryAfter: 1500 * time.Millisecond}
	assert.Equal(t, 2, err.RetryAfterSeconds())
	assert.Equal(t, "You are doing that too often. Please wait 2 seconds.", err.Error())
	assert.Equal(t, 429, statusOf(err))
}

func TestTokenIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	user := &model.User{ID: 7, Email: "a@example.com", UserType: model.RoleExpert}

	issued, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := issuer.Parse(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, model.RoleExpert, claims.UserType)
	assert.Equal(t, issued.ID, claims.ID)

	_, err = NewTokenIssuer("other", time.Hour).Parse(issued.Token)
	assert.Error(t, err)
}

func TestTokenExpires(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issued, err := issuer.Issue(&model.User{ID: 1, Email: "a@example.com", UserType: model.RoleUser})
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.Parse(issued.Token)
	assert.Error(t, err)
}

func TestNotifyPersistsAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := f.user(t, "alice", model.RoleUser)
	bob := f.user(t, "bob", model.RoleExpert)

	sub, err := f.notifier.Subscribe(ctx, alice.ID)
	require.NoError(t, err)
	defer sub.Close()

	f.notifier.Notify(ctx, &model.Notification{
		UserID:           alice.ID,
		ActorID:          &bob.ID,
		Title:            "New answer",
		Message:          "An expert answered your question",
		NotificationType: model.NotificationNewAnswer,
	})

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg.Payload, "An expert answered your question")

	list, err := f.notifier.List(ctx, alice.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, PriorityNormal, list[0].Priority)

	count, err := f.notifier.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, f.notifier.MarkAsRead(ctx, list[0].ID, alice.ID))
	count, err = f.notifier.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotifySkipsSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", model.RoleUser)

	f.notifier.Notify(ctx, &model.Notification{
		UserID:           alice.ID,
		ActorID:          &alice.ID,
		Title:            "Self",
		Message:          "ignored",
		NotificationType: model.NotificationNewFollower,
	})

	list, err := f.notifier.List(ctx, alice.ID, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubscribeWithoutRedis(t *testing.T) {
	f := newFixture(t)
	svc := NewNotificationService(f.notifications, nil, logger.Nop())
	_, err := svc.Subscribe(context.Background(), 1)
	assert.Equal(t, 503, statusOf(err))
}

func TestAuthRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessions := repository.NewSessionRepository(f.db)
	auth := NewAuthService(f.users, f.categories, sessions, f.activity, f.tokens, logger.Nop())

	res, err := auth.Register(ctx, RegisterInput{
		Email:               " Expert@Example.com ",
		Password:            "secret123",
		FullName:            "Expert One",
		Username:            "expert1",
		UserType:            model.RoleExpert,
		ExpertiseCategories: []uint{1, 1},
	}, RequestMeta{IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "expert@example.com", res.User.Email)
	assert.Len(t, res.User.Expertise, 1)

	claims, err := f.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	_, err = auth.Register(ctx, RegisterInput{
		Email: "expert@example.com", Password: "secret123", FullName: "Dup", Username: "other",
	}, RequestMeta{})
	assert.Equal(t, 400, statusOf(err))
	assert.EqualError(t, err, "User already exists with this email")

	_, err = auth.Register(ctx, RegisterInput{
		Email: "root@example.com", Password: "secret123", FullName: "Root", Username: "root", UserType: model.RoleAdmin,
	}, RequestMeta{})
	assert.Equal(t, 400, statusOf(err))

	_, err = auth.Register(ctx, RegisterInput{
		Email: "x@example.com", Password: "secret123", FullName: "X", Username: "xuser",
		UserType: model.RoleExpert, ExpertiseCategories: []uint{9999},
	}, RequestMeta{})
	assert.Equal(t, 400, statusOf(err))

	logged, err := auth.Login(ctx, LoginInput{Email: "expert@example.com", Password: "secret123"}, RequestMeta{})
	require.NoError(t, err)
	assert.NotNil(t, logged.User.LastLogin)

	_, err = auth.Login(ctx, LoginInput{Email: "expert@example.com", Password: "wrong"}, RequestMeta{})
	assert.Equal(t, 401, statusOf(err))
	assert.EqualError(t, err, "Invalid email or password")

	_, err = auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret123"}, RequestMeta{})
	assert.Equal(t, 401, statusOf(err))
}

func TestFollowRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := NewUserService(f.users, f.categories, f.notifier, nil, "uploads", logger.Nop())
	alice := f.user(t, "alice", model.RoleUser)
	bob := f.user(t, "bob", model.RoleExpert)

	_, err := users.Follow(ctx, alice.ID, alice.ID)
	assert.Equal(t, 400, statusOf(err))

	created, err := users.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = users.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, created)

	followers, err := users.Followers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 1)

	notes, err := f.notifier.List(ctx, bob.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationNewFollower, notes[0].NotificationType)

	require.NoError(t, users.Unfollow(ctx, alice.ID, bob.ID))
	err = users.Unfollow(ctx, alice.ID, bob.ID)
	assert.Equal(t, 404, statusOf(err))
}

func TestRateExpertRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := NewUserService(f.users, f.categories, f.notifier, nil, "uploads", logger.Nop())
	alice := f.user(t, "alice", model.RoleUser)
	bob := f.user(t, "bob", model.RoleExpert)

	_, err := users.RateExpert(ctx, bob.ID, bob.ID, RateInput{Rating: 5})
	assert.Equal(t, 400, statusOf(err))

	_, err = users.RateExpert(ctx, bob.ID, alice.ID, RateInput{Rating: 5})
	assert.EqualError(t, err, "Only experts can be rated")

	_, err = users.RateExpert(ctx, alice.ID, bob.ID, RateInput{Rating: 4})
	require.NoError(t, err)
	_, err = users.RateExpert(ctx, alice.ID, bob.ID, RateInput{Rating: 2})
	require.NoError(t, err)

	summary, err := users.ExpertRatings(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, summary.Ratings, 1)
	assert.Equal(t, int64(1), summary.Statistics.TotalRatings)
	assert.InDelta(t, 2.0, summary.Statistics.AverageRating, 0.001)
}

func TestUpdateProfileRequiresFields(t *testing.T) {
	f := newFixture(t)
	users := NewUserService(f.users, f.categories, f.notifier, nil, "uploads", logger.Nop())
	alice := f.user(t, "alice", model.RoleUser)

	_, err := users.UpdateProfile(context.Background(), alice.ID, UpdateProfileInput{})
	assert.Equal(t, 400, statusOf(err))

	bio := "  hello  "
	updated, err := users.UpdateProfile(context.Background(), alice.ID, UpdateProfileInput{Bio: &bio})
	require.NoError(t, err)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "hello", *updated.Bio)
}

func TestUploadAvatarWithoutStorage(t *testing.T) {
	f := newFixture(t)
	users := NewUserService(f.users, f.categories, f.notifier, nil, "uploads", logger.Nop())
	_, err := users.UploadAvatar(context.Background(), 1, AvatarUpload{FileName: "a.png", ContentType: "image/png"})
	assert.Equal(t, 503, statusOf(err))
}

type fakeImages struct {
	uploaded []string
	deleted  []string
}

func (f *fakeImages) UploadImage(_ context.Context, _ io.Reader, folder, fileName string) (string, error) {
	url := "https://res.cloudinary.com/demo/image/upload/v1/" + folder + "/" + fileName
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeImages) DeleteImage(_ context.Context, fileURL string) error {
	f.deleted = append(f.deleted, fileURL)
	return nil
}

type brokenPictureRepo struct {
	repository.UserRepository
}

func (brokenPictureRepo) UpdateProfilePicture(context.Context, uint, *string) error {
	return errors.New("db down")
}

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	images := &fakeImages{}
	users := NewUserService(f.users, f.categories, f.notifier, images, "uploads", logger.Nop())
	alice := f.user(t, "alice", model.RoleUser)
	ctx := context.Background()

	first, err := users.UploadAvatar(ctx, alice.ID, AvatarUpload{Reader: strings.NewReader("a"), FileName: "a.png", ContentType: "image/png"})
	require.NoError(t, err)
	require.NotNil(t, first.ProfilePicture)
	assert.Equal(t, images.uploaded[0], *first.ProfilePicture)

	second, err := users.UploadAvatar(ctx, alice.ID, AvatarUpload{Reader: strings.NewReader("b"), FileName: "b.png", ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, images.uploaded[1], *second.ProfilePicture)
	assert.Equal(t, []string{images.uploaded[0]}, images.deleted)
}

func TestUploadAvatarRemovesOrphanOnSaveFailure(t *testing.T) {
	f := newFixture(t)
	images := &fakeImages{}
	users := NewUserService(brokenPictureRepo{f.users}, f.categories, f.notifier, images, "uploads", logger.Nop())
	alice := f.user(t, "alice", model.RoleUser)

	_, err := users.UploadAvatar(context.Background(), alice.ID, AvatarUpload{Reader: strings.NewReader("a"), FileName: "a.png", ContentType: "image/png"})
	require.Error(t, err)
	require.Len(t, images.uploaded, 1)
	assert.Equal(t, images.uploaded, images.deleted)

	stored, err := f.users.FindByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ProfilePicture)
}

func TestActivityTruncateKeepsRunes(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "h", truncate("héllo", 2))
	assert.Equal(t, "hé", truncate("héllo", 3))
	assert.Equal(t, "", truncate("日本", 2))
	assert.Equal(t, "ok", truncate("o\xffk", 10))
}

func TestQuestionOwnershipHidesAsker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	questions := f.questionService()
	alice := f.user(t, "alice", model.RoleUser)
	bob := f.user(t, "bob", model.RoleUser)
	category := uint(1)

	q, err := questions.Create(ctx, alice.ID, CreateQuestionInput{
		Content:    "How do I center a div?",
		CategoryID: &category,
		Tags:       []string{" CSS ", "css", ""},
	}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, model.QuestionOpen, q.Status)
	assert.Equal(t, "medium", q.UrgencyLevel)

	err = questions.Delete(ctx, bob.ID, q.ID, RequestMeta{})
	assert.Equal(t, 404, statusOf(err))
	assert.EqualError(t, err, "Question not found or you do not have permission to delete it")

	require.NoError(t, questions.Delete(ctx, alice.ID, q.ID, RequestMeta{}))

	_, err = questions.Get(ctx, q.ID)
	assert.Equal(t, 404, statusOf(err))
}

func TestQuestionListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	questions := f.questionService()
	alice := f.user(t, "alice", model.RoleUser)
	tech := uint(1)

	for _, q := range []*model.Question{
		{AskedBy: alice.ID, CategoryID: &tech, Content: "open tech", UrgencyLevel: "low", Status: model.QuestionOpen},
		{AskedBy: alice.ID, CategoryID: &tech, Content: "closed tech", UrgencyLevel: "low", Status: model.QuestionClosed},
		{AskedBy: alice.ID, Content: "uncategorized", UrgencyLevel: "low", Status: model.QuestionOpen},
	} {
		require.NoError(t, f.questions.Create(ctx, q))
	}

	all, err := questions.List(ctx, nil, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byCategory, err := questions.List(ctx, &tech, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	openTech, err := questions.List(ctx, &tech, model.QuestionOpen, 0, 0)
	require.NoError(t, err)
	require.Len(t, openTech, 1)
	assert.Equal(t, "open tech", openTech[0].Content)
}

func TestQuestionCreateIsRateLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	questions := f.questionService()
	alice := f.user(t, "alice", model.RoleUser)

	_, err := questions.Create(ctx, alice.ID, CreateQuestionInput{Content: "first"}, RequestMeta{})
	require.NoError(t, err)

	_, err = questions.Create(ctx, alice.ID, CreateQuestionInput{Content: "second"}, RequestMeta{})
	var rlErr *RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, 429, statusOf(err))
}

func TestQuestionCreateRejectsUnknownCategory(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", model.RoleUser)
	missing := uint(9999)

	_, err := f.questionService().Create(context.Background(), alice.ID, CreateQuestionInput{Content: "x", CategoryID: &missing}, RequestMeta{})
	assert.Error(t, err)

	// a failed validation must not consume the rate limit window
	_, err = f.questionService().Create(context.Background(), alice.ID, CreateQuestionInput{Content: "x"}, RequestMeta{})
	assert.NoError(t, err)
}

func TestAnswerMarksQuestionAnswered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", model.RoleUser)
	bob := f.user(t, "bob", model.RoleExpert)
	answers := NewAnswerService(f.answers, f.questions, f.limiter, f.notifier, f.activity, logger.Nop())

	q, err := f.questionService().Create(ctx, alice.ID, CreateQuestionInput{Content: "What is a goroutine?"}, RequestMeta{})
	require.NoError(t, err)

	a, err := answers.Create(ctx, bob.ID, q.ID, AnswerInput{Content: "A lightweight thread."}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, a.ExpertID)

	stored, err := f.questions.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuestionAnswered, stored.Status)

	notes, err := f.notifier.List(ctx, alice.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, PriorityHigh, notes[0].Priority)

	_, err = answers.Rate(ctx, bob.ID, a.ID, RateInput{Rating: 5})
	assert.Equal(t, 400, statusOf(err))

	_, err = answers.Create(ctx, bob.ID, 9999, AnswerInput{Content: "x"}, RequestMeta{})
	assert.Equal(t, 404, statusOf(err))
}

func TestChallengeOwnershipAndJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	challenges := f.challengeService()
	owner := f.user(t, "owner", model.RoleExpert)
	other := f.user(t, "other", model.RoleExpert)
	p1 := f.user(t, "p1", model.RoleUser)
	p2 := f.user(t, "p2", model.RoleUser)

	past := time.Now().Add(-time.Hour)
	_, err := challenges.Create(ctx, owner.ID, CreateChallengeInput{Title: "T", Description: "D", Deadline: &past}, RequestMeta{})
	assert.EqualError(t, err, "Deadline must be in the future")

	c, err := challenges.Create(ctx, owner.ID, CreateChallengeInput{
		Title:           "Build a CLI",
		Description:     "Parse flags",
		MaxParticipants: intPtr(1),
	}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "beginner", c.DifficultyLevel)
	assert.Equal(t, model.ChallengeActive, c.Status)

	title := "Hijacked"
	_, err = challenges.Update(ctx, other.ID, c.ID, UpdateChallengeInput{Title: &title}, RequestMeta{})
	assert.Equal(t, 403, statusOf(err))
	assert.EqualError(t, err, "You can only update your own challenges")

	_, err = challenges.Join(ctx, owner.ID, c.ID)
	assert.Equal(t, 400, statusOf(err))

	joined, err := challenges.Join(ctx, p1.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, joined)

	joined, err = challenges.Join(ctx, p1.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, joined)

	_, err = challenges.Join(ctx, p2.ID, c.ID)
	assert.EqualError(t, err, "Challenge is full")

	participants, err := challenges.Participants(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 1)

	notes, err := f.notifier.List(ctx, owner.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationChallengeJoin, notes[0].NotificationType)

	require.NoError(t, challenges.Leave(ctx, p1.ID, c.ID))
	err = challenges.Leave(ctx, p1.ID, c.ID)
	assert.Equal(t, 404, statusOf(err))

	err = challenges.Delete(ctx, other.ID, c.ID, RequestMeta{})
	assert.Equal(t, 403, statusOf(err))
	require.NoError(t, challenges.Delete(ctx, owner.ID, c.ID, RequestMeta{}))
	_, err = challenges.Get(ctx, c.ID)
	assert.Equal(t, 404, statusOf(err))
}

func TestJoinClosedChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	challenges := f.challengeService()
	owner := f.user(t, "owner", model.RoleExpert)
	p1 := f.user(t, "p1", model.RoleUser)

	c, err := challenges.Create(ctx, owner.ID, CreateChallengeInput{Title: "Draft", Description: "D", Status: model.ChallengeDraft}, RequestMeta{})
	require.NoError(t, err)

	_, err = challenges.Join(ctx, p1.ID, c.ID)
	assert.EqualError(t, err, "Challenge is not accepting participants")
}

func TestChallengeUpdateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	challenges := f.challengeService()
	owner := f.user(t, "owner", model.RoleExpert)

	c, err := challenges.Create(ctx, owner.ID, CreateChallengeInput{Title: "Graphs", Description: "BFS"}, RequestMeta{})
	require.NoError(t, err)

	blank := "   "
	_, err = challenges.Update(ctx, owner.ID, c.ID, UpdateChallengeInput{Title: &blank}, RequestMeta{})
	assert.EqualError(t, err, "Title cannot be empty")
	_, err = challenges.Update(ctx, owner.ID, c.ID, UpdateChallengeInput{Description: &blank}, RequestMeta{})
	assert.EqualError(t, err, "Description cannot be empty")

	past := time.Now().Add(-time.Minute)
	_, err = challenges.Update(ctx, owner.ID, c.ID, UpdateChallengeInput{Deadline: &past}, RequestMeta{})
	assert.Equal(t, 400, statusOf(err))
	assert.EqualError(t, err, "Deadline must be in the future")

	unchanged, err := challenges.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Graphs", unchanged.Challenge.Title)
	assert.Nil(t, unchanged.Challenge.Deadline)

	future := time.Now().Add(24 * time.Hour)
	updated, err := challenges.Update(ctx, owner.ID, c.ID, UpdateChallengeInput{Deadline: &future}, RequestMeta{})
	require.NoError(t, err)
	require.NotNil(t, updated.Deadline)
}

func TestSolutionAutoJoinRespectsCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	challenges := f.challengeService()
	solutions := f.solutionService()
	owner := f.user(t, "owner", model.RoleExpert)
	member := f.user(t, "member", model.RoleExpert)
	late := f.user(t, "late", model.RoleExpert)

	c, err := challenges.Create(ctx, owner.ID, CreateChallengeInput{Title: "Cap", Description: "One seat", MaxParticipants: intPtr(1)}, RequestMeta{})
	require.NoError(t, err)
	_, err = challenges.Join(ctx, member.ID, c.ID)
	require.NoError(t, err)

	_, err = solutions.Create(ctx, late.ID, c.ID, SolutionInput{Content: "too late"}, RequestMeta{})
	assert.Equal(t, 400, statusOf(err))
	assert.EqualError(t, err, "Challenge is full")

	_, err = solutions.Create(ctx, member.ID, c.ID, SolutionInput{Content: "mine"}, RequestMeta{})
	require.NoError(t, err)

	var stored int64
	require.NoError(t, f.db.Model(&model.Solution{}).Count(&stored).Error)
	assert.Equal(t, int64(1), stored)
}

func TestSolutionSubmitAndRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	challenges := f.challengeService()
	solutions := f.solutionService()
	owner := f.user(t, "owner", model.RoleExpert)
	author := f.user(t, "author", model.RoleExpert)
	rater := f.user(t, "rater", model.RoleUser)

	c, err := challenges.Create(ctx, owner.ID, CreateChallengeInput{Title: "Sort", Description: "Sort ints"}, RequestMeta{})
	require.NoError(t, err)

	lang := " Go "
	s, err := solutions.Create(ctx, author.ID, c.ID, SolutionInput{Content: "sort.Ints(xs)", Language: &lang}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, model.SolutionSubmitted, s.Status)
	require.NotNil(t, s.Language)
	assert.Equal(t, "go", *s.Language)

	participant, err := f.challenges.IsParticipant(ctx, c.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, participant)

	_, err = solutions.Rate(ctx, author.ID, s.ID, RateInput{Rating: 5})
	assert.EqualError(t, err, "You cannot rate your own solution")

	_, err = solutions.Rate(ctx, rater.ID, s.ID, RateInput{Rating: 5})
	require.NoError(t, err)
	_, err = solutions.Rate(ctx, rater.ID, s.ID, RateInput{Rating: 3})
	require.NoError(t, err)

	stats, err := solutions.Statistics(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalRatings)
	assert.InDelta(t, 3.0, stats.AverageRating, 0.001)

	// only the first rating notifies the author
	notes, err := f.notifier.List(ctx, author.ID, 20, 0)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	content := "changed"
	_, err = solutions.Update(ctx, rater.ID, s.ID, UpdateSolutionInput{Content: &content}, RequestMeta{})
	assert.Equal(t, 403, statusOf(err))

	_, err = solutions.ListByLanguage(ctx, "  ")
	assert.Equal(t, 400, statusOf(err))
}

func TestSolutionRejectedOnClosedChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", model.RoleExpert)
	author := f.user(t, "author", model.RoleExpert)

	c, err := f.challengeService().Create(ctx, owner.ID, CreateChallengeInput{Title: "Done", Description: "D", Status: model.ChallengeCompleted}, RequestMeta{})
	require.NoError(t, err)

	_, err = f.solutionService().Create(ctx, author.ID, c.ID, SolutionInput{Content: "late"}, RequestMeta{})
	assert.EqualError(t, err, "Challenge is not accepting solutions")
}

func TestCategoryCreateConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	categories := NewCategoryService(f.categories, f.activity)
	admin := f.user(t, "admin", model.RoleAdmin)

	created, err := categories.Create(ctx, admin.ID, CategoryInput{Name: "Robotics"}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategoryColor, created.Color)

	_, err = categories.Create(ctx, admin.ID, CategoryInput{Name: "Robotics"}, RequestMeta{})
	assert.Equal(t, 409, statusOf(err))
	assert.EqualError(t, err, "A category with this name already exists")
}

func TestActivityRecordedAndPurged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", model.RoleUser)

	f.activity.Record(ctx, alice.ID, ActionCreate, "question", 42, RequestMeta{IPAddress: "10.0.0.1"}, map[string]any{"k": "v"})

	rows, err := f.activity.ListForUser(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "question", rows[0].ResourceType)

	deleted, err := f.activity.Purge(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestDecodeHitIDs(t *testing.T) {
	ids, err := decodeHitIDs([]byte(`{"hits":[{"id":3},{"id":1}],"query":"go"}`))
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1}, ids)

	_, err = decodeHitIDs([]byte(`not json`))
	assert.Error(t, err)
}

func TestSearchServiceDisabled(t *testing.T) {
	search := NewSearchService(nil, logger.Nop())
	assert.False(t, search.Enabled())
	ids, err := search.SearchQuestions("go")
	assert.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, search.IndexQuestions(model.Question{ID: 1}))
}

func TestLeaderboardRanksAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	board := NewLeaderboardService(repository.NewLeaderboardRepository(f.db), f.rdb, logger.Nop())

	top := f.user(t, "top", model.RoleExpert)
	mid := f.user(t, "mid", model.RoleExpert)
	f.user(t, "unrated", model.RoleExpert)
	r1 := f.user(t, "r1", model.RoleUser)
	r2 := f.user(t, "r2", model.RoleUser)

	for _, rating := range []model.ExpertRating{
		{ExpertID: top.ID, RaterID: r1.ID, Rating: 5},
		{ExpertID: top.ID, RaterID: r2.ID, Rating: 4},
		{ExpertID: mid.ID, RaterID: r1.ID, Rating: 3},
	} {
		require.NoError(t, f.users.RateExpert(ctx, &rating))
	}

	entries, err := board.TopExperts(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, top.ID, entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.InDelta(t, 4.5, entries[0].Score, 0.001)
	assert.Equal(t, int64(2), entries[0].Samples)
	assert.Equal(t, mid.ID, entries[1].UserID)

	// served from cache until the TTL passes
	require.NoError(t, f.users.RateExpert(ctx, &model.ExpertRating{ExpertID: mid.ID, RaterID: r2.ID, Rating: 5}))
	cached, err := board.TopExperts(ctx, model.LeaderboardRating, defaultLeaderboardLimit)
	require.NoError(t, err)
	assert.Equal(t, entries, cached)

	_, err = board.TopExperts(ctx, "popularity", 10)
	assert.Equal(t, 400, statusOf(err))
}

func TestLeaderboardByAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	board := NewLeaderboardService(repository.NewLeaderboardRepository(f.db), nil, logger.Nop())

	asker := f.user(t, "asker", model.RoleUser)
	busy := f.user(t, "busy", model.RoleExpert)
	quiet := f.user(t, "quiet", model.RoleExpert)

	q := &model.Question{AskedBy: asker.ID, Content: "?", UrgencyLevel: "medium", Status: model.QuestionOpen}
	require.NoError(t, f.questions.Create(ctx, q))
	for _, expert := range []uint{busy.ID, busy.ID, quiet.ID} {
		require.NoError(t, f.answers.Create(ctx, &model.Answer{QuestionID: q.ID, ExpertID: expert, Content: "answer"}))
	}

	entries, err := board.TopExperts(ctx, model.LeaderboardAnswers, 100)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, busy.ID, entries[0].UserID)
	assert.InDelta(t, 2.0, entries[0].Score, 0.001)
	assert.Equal(t, 2, entries[1].Rank)
}
