package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex" json:"name"`
	Slug        string    `gorm:"size:120;uniqueIndex" json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string { return "categories" }

// Slugify derives the URL slug from a category name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return slug
}

const (
	CategoryResourceName = "category"
	ProductResourceName  = "product"
)

func (c *Category) AuditResource() string { return CategoryResourceName }
func (c *Category) AuditObjectID() string { return fmt.Sprintf("%d", c.ID) }

func (c *Category) AuditSnapshot() map[string]any {
	return map[string]any{
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
		"updated_at":  c.UpdatedAt,
	}
}

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CategoryID  uint            `gorm:"index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Name        string          `gorm:"size:200;index" json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	Stock       int             `json:"stock"`
	SKU         string          `gorm:"size:50;uniqueIndex" json:"sku"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`

	OwnerID     uint  `gorm:"index" json:"owner_id"`
	Owner       *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedByID *uint `json:"created_by_id"`
	UpdatedByID *uint `json:"updated_by_id"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`

	// Transient per-instance audit opt-out.
	SkipAudit bool `gorm:"-" json:"-"`
}

func (Product) TableName() string { return "products" }

func (p *Product) IsDeleted() bool { return p.DeletedAt != nil }

func (p *Product) AuditResource() string { return ProductResourceName }
func (p *Product) AuditObjectID() string { return fmt.Sprintf("%d", p.ID) }
func (p *Product) AuditMuted() bool      { return p.SkipAudit }

// AuditOwner is the actor fallback when no request actor is in context.
func (p *Product) AuditOwner() *User { return p.Owner }

func (p *Product) AuditSnapshot() map[string]any {
	var deleted any
	if p.DeletedAt != nil {
		deleted = p.DeletedAt.UTC().Format(time.RFC3339Nano)
	}
	return map[string]any{
		"category_id": p.CategoryID,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price.String(),
		"stock":       p.Stock,
		"sku":         p.SKU,
		"is_active":   p.IsActive,
		"deleted_at":  deleted,
		"updated_at":  p.UpdatedAt,
	}
}
