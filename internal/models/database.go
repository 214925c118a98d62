package models

// GORM models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringArray for PostgreSQL array support. Elements must not contain
// commas, quotes or braces; the tag normalizer strips them.
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	return fmt.Sprintf("{%s}", strings.Join(s, ",")), nil
}

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		v = strings.Trim(v, "{}")
		if v == "" {
			*s = StringArray{}
			return nil
		}
		parts := strings.Split(v, ",")
		for i, p := range parts {
			parts[i] = strings.Trim(p, `"`)
		}
		*s = StringArray(parts)
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
	return nil
}

// GormDBDataType stores the array natively on postgres and as its literal
// text form elsewhere.
func (StringArray) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Prompt is a catalog entry. Rating and usage counters are only written by
// the rate/use operations in the prompt repository.
type Prompt struct {
	ID               string      `json:"id" gorm:"primaryKey;size:36"`
	Title            string      `json:"title" gorm:"size:255;not null"`
	Description      string      `json:"description" gorm:"size:500"`
	Content          string      `json:"content" gorm:"type:text;not null"`
	Category         string      `json:"category" gorm:"size:32;not null;index"`
	Tags             StringArray `json:"tags"`
	Difficulty       string      `json:"difficulty" gorm:"size:16;not null"`
	IsFeatured       bool        `json:"is_featured" gorm:"not null"`
	IsPublic         bool        `json:"is_public" gorm:"not null;index"`
	ModerationStatus string      `json:"moderation_status" gorm:"size:16;not null;default:'approved'"`
	AverageRating    float64     `json:"average_rating" gorm:"type:decimal(3,2);not null;default:0"`
	TotalRatings     int         `json:"total_ratings" gorm:"not null;default:0"`
	TotalLikes       int         `json:"total_likes" gorm:"not null;default:0"`
	UsageCount       int         `json:"usage_count" gorm:"not null;default:0;index"`
	CreatedAt        time.Time   `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time   `json:"updated_at"`

	// Relevance is only populated by free-text searches.
	Relevance float64 `json:"relevance,omitempty" gorm:"->;-:migration"`
}

// SearchQuery is one logged catalog search.
type SearchQuery struct {
	BaseModel
	QueryText       string    `json:"query_text" gorm:"not null"`
	Category        string    `json:"category"`
	Tags            string    `json:"tags"`
	UserSession     string    `json:"user_session"`
	ResultsCount    int64     `json:"results_count" gorm:"default:0"`
	SearchTimestamp time.Time `json:"search_timestamp"`
	ResponseTimeMs  int       `json:"response_time_ms"`
	UserAgent       string    `json:"user_agent"`
	IPAddress       string    `json:"ip_address"`
}

// PopularQuery represents frequently searched terms
type PopularQuery struct {
	BaseModel
	QueryText         string    `json:"query_text" gorm:"uniqueIndex;not null"`
	SearchCount       int       `json:"search_count" gorm:"default:1"`
	AvgResultsCount   float64   `json:"avg_results_count" gorm:"type:decimal(10,2);default:0"`
	AvgResponseTimeMs int       `json:"avg_response_time_ms" gorm:"default:0"`
	LastSearched      time.Time `json:"last_searched"`
}

// SystemHealth represents service health monitoring
type SystemHealth struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ServiceName    string    `json:"service_name" gorm:"not null;index"`
	Status         string    `json:"status" gorm:"not null"`
	ResponseTimeMs int       `json:"response_time_ms"`
	ErrorMessage   string    `json:"error_message"`
	CheckedAt      time.Time `json:"checked_at"`
}

// TableName methods for custom table names
func (Prompt) TableName() string       { return "prompts" }
func (SearchQuery) TableName() string  { return "search_queries" }
func (PopularQuery) TableName() string { return "popular_queries" }
func (SystemHealth) TableName() string { return "system_health" }

// Field limits for prompts.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 500
	MaxContentLength     = 10000
	MaxTags              = 10
	MaxTagLength         = 50
)

// Model validation methods
func (p *Prompt) Validate() error {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	}
	if utf8.RuneCountInString(p.Description) > MaxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", MaxDescriptionLength)
	}
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("content is required")
	}
	if utf8.RuneCountInString(p.Content) > MaxContentLength {
		return fmt.Errorf("content must be at most %d characters", MaxContentLength)
	}
	if !IsValidCategory(p.Category) {
		return fmt.Errorf("invalid category: %s", p.Category)
	}
	if !IsValidDifficulty(p.Difficulty) {
		return fmt.Errorf("invalid difficulty: %s", p.Difficulty)
	}
	if len(p.Tags) > MaxTags {
		return fmt.Errorf("at most %d tags are allowed", MaxTags)
	}
	for _, tag := range p.Tags {
		if tag == "" || utf8.RuneCountInString(tag) > MaxTagLength {
			return fmt.Errorf("tags must be 1-%d characters", MaxTagLength)
		}
	}
	if !IsValidModerationStatus(p.ModerationStatus) {
		return fmt.Errorf("invalid moderation status: %s", p.ModerationStatus)
	}
	return nil
}

func (sq *SearchQuery) Validate() error {
	if sq.QueryText == "" {
		return fmt.Errorf("query text is required")
	}
	if sq.ResponseTimeMs < 0 {
		return fmt.Errorf("response time cannot be negative")
	}
	return nil
}

// GORM hooks
func (p *Prompt) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.ModerationStatus == "" {
		p.ModerationStatus = ModerationApproved
	}
	return p.Validate()
}

func (sq *SearchQuery) BeforeCreate(tx *gorm.DB) error {
	return sq.Validate()
}
