package schema

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type record struct {
	ID        uint        `gorm:"primaryKey"`
	Kind      string      `gorm:"size:32;uniqueIndex:idx_axis_schema_decl"`
	Scope     string      `gorm:"size:191;uniqueIndex:idx_axis_schema_decl"`
	Subtype   string      `gorm:"size:64;uniqueIndex:idx_axis_schema_decl"`
	Name      string      `gorm:"size:191;uniqueIndex:idx_axis_schema_decl"`
	Payload   Declaration `gorm:"serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (record) TableName() string {
	return "axis_schema_declarations"
}

// Gorm is a Registry persisted in a relational database.
type Gorm struct {
	db *gorm.DB
}

// NewGorm migrates the declaration table and returns the registry.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, err
	}
	return &Gorm{db: db}, nil
}

// DB returns the underlying connection.
func (g *Gorm) DB() *gorm.DB {
	return g.db
}

func (g *Gorm) upsert(d Declaration, err error) error {
	if err != nil {
		return err
	}

	rec := record{
		Kind:    string(d.Kind),
		Scope:   d.Scope,
		Subtype: d.Subtype,
		Name:    d.Name,
		Payload: d.clone(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "scope"}, {Name: "subtype"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&rec).Error
}

func (g *Gorm) RegisterMeta(objectType, subtype string, f Field) error {
	return g.upsert(metaDeclaration(objectType, subtype, f))
}

func (g *Gorm) RegisterOption(group string, f Field) error {
	return g.upsert(optionDeclaration(group, f))
}

func (g *Gorm) RegisterPostType(name string, args Args) error {
	return g.upsert(postTypeDeclaration(name, args))
}

func (g *Gorm) RegisterTaxonomy(name string, objectTypes []string, args Args) error {
	return g.upsert(taxonomyDeclaration(name, objectTypes, args))
}

// Declarations re-reads the declarations of kind. An empty kind returns all.
func (g *Gorm) Declarations(kind Kind) ([]Declaration, error) {
	var recs []record

	q := g.db.Model(&record{}).Order("id")
	if kind != "" {
		q = q.Where("kind = ?", string(kind))
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}

	result := make([]Declaration, len(recs))
	for i, rec := range recs {
		result[i] = rec.Payload
	}
	return result, nil
}
