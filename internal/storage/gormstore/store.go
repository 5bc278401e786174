package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/UkralStul/graphql-social-feed/internal/domain"
	"github.com/UkralStul/graphql-social-feed/internal/storage"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Options - настройки подключения.
type Options struct {
	LogSQL      bool // логировать все запросы, иначе только предупреждения
	AutoMigrate bool
	LogOutput   io.Writer // по умолчанию os.Stdout
}

// Store реализует интерфейс Storage поверх GORM (PostgreSQL или SQLite).
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// New создает хранилище PostgreSQL.
func New(dsn string, opts Options) (*Store, error) {
	return Open(postgres.Open(dsn), opts)
}

// sqliteDriver - драйвер SQLite, у которого lower() работает с Unicode.
// Встроенная функция SQLite меняет регистр только у ASCII.
const sqliteDriver = "sqlite3_unicode"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
}

// NewSQLite создает хранилище в файле SQLite. SQLite не поддерживает
// конкурентную запись, поэтому пул ограничен одним соединением.
func NewSQLite(path string, opts Options) (*Store, error) {
	s, err := Open(sqlite.New(sqlite.Config{DriverName: sqliteDriver, DSN: path}), opts)
	if err != nil {
		return nil, err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return s, nil
}

// Open создает хранилище для произвольного диалекта GORM.
func Open(dialector gorm.Dialector, opts Options) (*Store, error) {
	level := logger.Warn
	if opts.LogSQL {
		level = logger.Info
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		// Пустой результат поиска дубликата - штатная ситуация, не ошибка
		Logger: logger.New(log.New(out, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		}),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}
	if opts.AutoMigrate {
		if err := s.Migrate(context.Background()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Migrate выполняет миграцию схемы.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&domain.User{},
		&domain.Post{},
		&domain.Comment{},
		&domain.Interaction{},
		&domain.Share{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Ping проверяет соединение с базой.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username %s: %w", user.Username, storage.ErrDuplicate)
		}
		return nil, err
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if !domain.ValidID(id) {
		return nil, fmt.Errorf("user with id %s: %w", id, storage.ErrNotFound)
	}
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user with id "+id)
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, notFound(err, "user "+username)
	}
	return &user, nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	post.InteractionsCount = 0
	post.CommentsCount = 0
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}
	// GORM заполнит ID (хук BeforeCreate), CreatedAt и UpdatedAt
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	if !domain.ValidID(id) {
		return nil, fmt.Errorf("post with id %s: %w", id, storage.ErrNotFound)
	}
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "post with id "+id)
	}
	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context, f domain.PostFilter) ([]*domain.Post, error) {
	posts := []*domain.Post{}
	query := s.db.WithContext(ctx).Model(&domain.Post{})

	if f.After != nil {
		query = query.Where("posts.id > ?", *f.After)
	}
	if f.TitleContains != nil {
		query = query.Where(`LOWER(posts.title) LIKE ? ESCAPE '\'`, likePattern(*f.TitleContains))
	}
	if f.ContentContains != nil {
		query = query.Where(`LOWER(posts.content) LIKE ? ESCAPE '\'`, likePattern(*f.ContentContains))
	}
	if f.InteractionsCountGt != nil {
		query = query.Where("posts.interactions_count > ?", *f.InteractionsCountGt)
	}
	if f.InteractionsCountLt != nil {
		query = query.Where("posts.interactions_count < ?", *f.InteractionsCountLt)
	}
	if f.InteractionType != nil {
		query = query.Where(
			"EXISTS (SELECT 1 FROM interactions WHERE interactions.post_id = posts.id AND interactions.interaction_type = ?)",
			string(*f.InteractionType),
		)
	}
	if f.AuthorUsername != nil {
		query = query.Where("posts.user_id IN (SELECT users.id FROM users WHERE users.username = ?)", *f.AuthorUsername)
	}
	if f.CreatedAfter != nil {
		query = query.Where("posts.created_at >= ?", f.CreatedAfter.UTC())
	}
	if f.CreatedBefore != nil {
		query = query.Where("posts.created_at <= ?", f.CreatedBefore.UTC())
	}

	query = query.Order("posts.created_at DESC").Order("posts.id DESC")
	if f.First != nil {
		n := max(*f.First, 0)
		if n == 0 {
			return posts, nil
		}
		query = query.Limit(n)
	}

	err := query.Find(&posts).Error
	return posts, err
}

func (s *Store) UpdatePost(ctx context.Context, id string, patch domain.PostPatch, guard storage.PostGuard) (*domain.Post, error) {
	if !domain.ValidID(id) {
		return nil, fmt.Errorf("post with id %s: %w", id, storage.ErrNotFound)
	}
	var post *domain.Post
	// Проверка владельца и изменение выполняются в одной транзакции
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockPost(tx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(locked); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{"updated_at": time.Now().UTC()}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Content != nil {
			updates["content"] = *patch.Content
		}
		if err := tx.Model(&domain.Post{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		var fresh domain.Post
		if err := tx.First(&fresh, "id = ?", id).Error; err != nil {
			return err
		}
		post = &fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Store) DeletePost(ctx context.Context, id string, guard storage.PostGuard) error {
	if !domain.ValidID(id) {
		return fmt.Errorf("post with id %s: %w", id, storage.ErrNotFound)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(post); err != nil {
				return err
			}
		}

		// Каскад выполняем явно: SQLite по умолчанию не проверяет внешние ключи
		if err := tx.Where("post_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&domain.Interaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&domain.Share{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Post{}, "id = ?", id).Error
	})
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	if !domain.ValidID(comment.PostID) {
		return nil, fmt.Errorf("post with id %s: %w", comment.PostID, storage.ErrNotFound)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, comment.PostID); err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return adjustCounter(tx, comment.PostID, "comments_count", 1)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	if !domain.ValidID(id) {
		return nil, fmt.Errorf("comment with id %s: %w", id, storage.ErrNotFound)
	}
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "comment with id "+id)
	}
	return &comment, nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID string) ([]*domain.Comment, error) {
	comments := []*domain.Comment{}
	if !domain.ValidID(postID) {
		return comments, nil
	}
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error
	return comments, err
}

func (s *Store) UpdateComment(ctx context.Context, id string, content string, guard storage.CommentGuard) (*domain.Comment, error) {
	if !domain.ValidID(id) {
		return nil, fmt.Errorf("comment with id %s: %w", id, storage.ErrNotFound)
	}
	var comment domain.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&comment, "id = ?", id).Error; err != nil {
			return notFound(err, "comment with id "+id)
		}
		if guard != nil {
			if err := guard(&comment); err != nil {
				return err
			}
		}
		comment.Content = content
		return tx.Model(&domain.Comment{}).Where("id = ?", id).Update("content", content).Error
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, id string, guard storage.CommentGuard) error {
	current, err := s.GetCommentByID(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Порядок блокировок как в DeletePost: сначала пост, потом комментарий
		if _, err := lockPost(tx, current.PostID); err != nil {
			return err
		}
		var comment domain.Comment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&comment, "id = ?", id).Error; err != nil {
			return notFound(err, "comment with id "+id)
		}
		if guard != nil {
			if err := guard(&comment); err != nil {
				return err
			}
		}
		if err := tx.Delete(&domain.Comment{}, "id = ?", id).Error; err != nil {
			return err
		}
		return adjustCounter(tx, comment.PostID, "comments_count", -1)
	})
}

// === Interaction Methods ===

func (s *Store) CreateInteraction(ctx context.Context, interaction *domain.Interaction) (*domain.Interaction, error) {
	if !domain.ValidID(interaction.PostID) {
		return nil, fmt.Errorf("post with id %s: %w", interaction.PostID, storage.ErrNotFound)
	}
	var existing *domain.Interaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, interaction.PostID); err != nil {
			return err
		}
		found, err := findInteraction(tx, interaction.UserID, interaction.PostID, interaction.Type)
		if err != nil {
			return err
		}
		if found != nil {
			existing = found
			return storage.ErrDuplicate
		}
		if err := tx.Create(interaction).Error; err != nil {
			return err
		}
		return adjustCounter(tx, interaction.PostID, "interactions_count", 1)
	})

	switch {
	case err == nil:
		return interaction, nil
	case errors.Is(err, storage.ErrDuplicate):
		return existing, storage.ErrDuplicate
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// Параллельная вставка обошла проверку - возвращаем победившую запись
		found, ferr := findInteraction(s.db.WithContext(ctx), interaction.UserID, interaction.PostID, interaction.Type)
		if ferr != nil || found == nil {
			return nil, fmt.Errorf("interaction %s: %w", interaction.Type, storage.ErrDuplicate)
		}
		return found, storage.ErrDuplicate
	default:
		return nil, err
	}
}

func (s *Store) DeleteInteraction(ctx context.Context, userID, postID string, interactionType domain.InteractionType) error {
	if !domain.ValidID(postID) {
		return fmt.Errorf("interaction %s on post %s: %w", interactionType, postID, storage.ErrNotFound)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, postID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("interaction %s on post %s: %w", interactionType, postID, storage.ErrNotFound)
			}
			return err
		}
		res := tx.Where("user_id = ? AND post_id = ? AND interaction_type = ?", userID, postID, string(interactionType)).
			Delete(&domain.Interaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("interaction %s on post %s: %w", interactionType, postID, storage.ErrNotFound)
		}
		return adjustCounter(tx, postID, "interactions_count", -1)
	})
}

func (s *Store) ListInteractions(ctx context.Context, f domain.InteractionFilter) ([]*domain.Interaction, error) {
	interactions := []*domain.Interaction{}
	query := s.db.WithContext(ctx).Model(&domain.Interaction{})
	if f.Username != nil {
		query = query.Where("user_id IN (SELECT users.id FROM users WHERE users.username = ?)", *f.Username)
	}
	if f.PostID != nil {
		if !domain.ValidID(*f.PostID) {
			return interactions, nil
		}
		query = query.Where("post_id = ?", *f.PostID)
	}
	err := query.Order("created_at DESC").Order("id DESC").Find(&interactions).Error
	return interactions, err
}

// === Share Methods ===

func (s *Store) CreateShare(ctx context.Context, share *domain.Share) (*domain.Share, error) {
	if !domain.ValidID(share.PostID) {
		return nil, fmt.Errorf("post with id %s: %w", share.PostID, storage.ErrNotFound)
	}
	var existing *domain.Share
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, share.PostID); err != nil {
			return err
		}
		found, err := findShare(tx, share)
		if err != nil {
			return err
		}
		if found != nil {
			existing = found
			return storage.ErrDuplicate
		}
		return tx.Create(share).Error
	})

	switch {
	case err == nil:
		return share, nil
	case errors.Is(err, storage.ErrDuplicate):
		return existing, storage.ErrDuplicate
	case errors.Is(err, gorm.ErrDuplicatedKey):
		found, ferr := findShare(s.db.WithContext(ctx), share)
		if ferr != nil || found == nil {
			return nil, fmt.Errorf("share of post %s: %w", share.PostID, storage.ErrDuplicate)
		}
		return found, storage.ErrDuplicate
	default:
		return nil, err
	}
}

func (s *Store) GetSharesByPostID(ctx context.Context, postID string) ([]*domain.Share, error) {
	shares := []*domain.Share{}
	if !domain.ValidID(postID) {
		return shares, nil
	}
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Find(&shares).Error
	return shares, err
}

// === Dataloader Methods ===

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	var users []*domain.User
	// Загружаем всех пользователей одним запросом
	if valid := validIDs(ids); len(valid) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", valid).Find(&users).Error; err != nil {
			return nil, err
		}
	}
	result := make(map[string]*domain.User, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *Store) GetPostsByIDs(ctx context.Context, ids []string) (map[string]*domain.Post, error) {
	var posts []*domain.Post
	if valid := validIDs(ids); len(valid) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", valid).Find(&posts).Error; err != nil {
			return nil, err
		}
	}
	result := make(map[string]*domain.Post, len(posts))
	for _, p := range posts {
		result[p.ID] = p
	}
	return result, nil
}

// === Helpers ===

// lockPost читает пост с блокировкой строки (SELECT ... FOR UPDATE).
// Драйвер SQLite опускает FOR UPDATE: там запись и так сериализована.
func lockPost(tx *gorm.DB, id string) (*domain.Post, error) {
	var post domain.Post
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "post with id "+id)
	}
	return &post, nil
}

// adjustCounter атомарно меняет денормализованный счётчик поста на ±1.
// Уменьшение не опускает значение ниже нуля.
func adjustCounter(tx *gorm.DB, postID, column string, delta int) error {
	var expr clause.Expr
	if delta > 0 {
		expr = gorm.Expr(column+" + ?", delta)
	} else {
		expr = gorm.Expr("CASE WHEN " + column + " > 0 THEN " + column + " - 1 ELSE 0 END")
	}
	return tx.Model(&domain.Post{}).
		Where("id = ?", postID).
		Updates(map[string]interface{}{column: expr, "updated_at": time.Now().UTC()}).Error
}

func findInteraction(tx *gorm.DB, userID, postID string, t domain.InteractionType) (*domain.Interaction, error) {
	var found domain.Interaction
	err := tx.Where("user_id = ? AND post_id = ? AND interaction_type = ?", userID, postID, string(t)).Take(&found).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func findShare(tx *gorm.DB, share *domain.Share) (*domain.Share, error) {
	var found domain.Share
	err := tx.Where("user_id = ? AND post_id = ? AND shared_with_user_id = ?", share.UserID, share.PostID, share.SharedWithUserID).
		Take(&found).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// notFound переводит gorm.ErrRecordNotFound в storage.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return err
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if domain.ValidID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}
