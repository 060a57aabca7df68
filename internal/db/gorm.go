package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type userRecord struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (userRecord) TableName() string { return "users" }

type nodeRecord struct {
	ID        int64       `gorm:"primaryKey;autoIncrement"`
	ParentID  *int64      `gorm:"index;check:chk_nodes_reply_shape,(parent_id IS NULL AND operation IS NULL) OR (parent_id IS NOT NULL AND operation IS NOT NULL)"`
	Parent    *nodeRecord `gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT"`
	Operation *string     `gorm:"size:1;check:chk_nodes_operation,operation IN ('+','-','*','/')"`
	Value     float64     `gorm:"not null"`
	Result    float64     `gorm:"not null"`
	AuthorID  int64       `gorm:"not null;index"`
	Author    userRecord  `gorm:"foreignKey:AuthorID"`
	CreatedAt time.Time   `gorm:"not null;index"`
}

func (nodeRecord) TableName() string { return "nodes" }

// nodeRow is the shape of the joined listing query.
type nodeRow struct {
	ID             int64
	ParentID       *int64
	Operation      *string
	Value          float64
	Result         float64
	AuthorID       int64
	AuthorUsername string
	CreatedAt      time.Time
	ChildCount     int
}

func (r nodeRow) toNode() *Node {
	return &Node{
		ID:         r.ID,
		ParentID:   r.ParentID,
		Operation:  r.Operation,
		Value:      r.Value,
		Result:     r.Result,
		AuthorID:   r.AuthorID,
		Author:     Author{Username: r.AuthorUsername},
		CreatedAt:  r.CreatedAt,
		ChildCount: r.ChildCount,
	}
}

// GormStore is the Store used against Postgres, the database the service
// was first deployed on.
type GormStore struct {
	DB *gorm.DB
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(dsn string) (*GormStore, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return NewGormStore(gdb)
}

// NewGormStore migrates the tables on gdb and wraps it.
func NewGormStore(gdb *gorm.DB) (*GormStore, error) {
	if err := gdb.AutoMigrate(&userRecord{}, &nodeRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &GormStore{DB: gdb}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) CreateUser(ctx context.Context, username, password string) (*User, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&userRecord{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	return s.insertUser(ctx, username, passwordHash)
}

func (s *GormStore) insertUser(ctx context.Context, username, passwordHash string) (*User, error) {
	rec := userRecord{Username: username, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return rec.toUser(), nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, "username = ?", username)
}

func (s *GormStore) getUser(ctx context.Context, query string, arg any) (*User, error) {
	var rec userRecord
	if err := s.DB.WithContext(ctx).Where(query, arg).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return rec.toUser(), nil
}

func (r userRecord) toUser() *User {
	return &User{ID: r.ID, Username: r.Username, PasswordHash: r.PasswordHash, CreatedAt: r.CreatedAt}
}

func (s *GormStore) CreateNode(ctx context.Context, node *Node) (*Node, error) {
	rec := nodeRecord{
		ParentID:  node.ParentID,
		Operation: node.Operation,
		Value:     node.Value,
		Result:    node.Result,
		AuthorID:  node.AuthorID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Create(&rec).Error; err != nil {
		return nil, err
	}
	return s.GetNodeByID(ctx, rec.ID)
}

func (s *GormStore) nodesQuery(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).
		Table("nodes AS n").
		Select("n.id, n.parent_id, n.operation, n.value, n.result, n.author_id, " +
			"u.username AS author_username, n.created_at, " +
			"(SELECT COUNT(*) FROM nodes c WHERE c.parent_id = n.id) AS child_count").
		Joins("JOIN users u ON u.id = n.author_id")
}

func (s *GormStore) GetNodeByID(ctx context.Context, id int64) (*Node, error) {
	var rows []nodeRow
	if err := s.nodesQuery(ctx).Where("n.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNodeNotFound
	}
	return rows[0].toNode(), nil
}

func (s *GormStore) ListNodes(ctx context.Context) ([]*Node, error) {
	var rows []nodeRow
	if err := s.nodesQuery(ctx).Order("n.created_at DESC, n.id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	nodes := make([]*Node, 0, len(rows))
	for _, r := range rows {
		nodes = append(nodes, r.toNode())
	}
	return nodes, nil
}
