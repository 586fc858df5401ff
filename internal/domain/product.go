package domain

import (
	"strings"
	"time"
)

// SupplierInfo describes the party shipping a candidate.
type SupplierInfo struct {
	Name           string  `json:"name" yaml:"name"`
	Country        string  `json:"country" yaml:"country"`
	ProcessingDays int     `json:"processingDays" yaml:"processingDays"`
	Rating         float64 `json:"rating" yaml:"rating"`
}

// Candidate is a raw listing returned by a supplier catalog.
type Candidate struct {
	ID            string       `json:"id" yaml:"id"`
	Source        string       `json:"source" yaml:"source"`
	Title         string       `json:"title" yaml:"title"`
	Description   string       `json:"description" yaml:"description"`
	Category      string       `json:"category" yaml:"category"`
	Price         float64      `json:"price" yaml:"price"`
	Currency      string       `json:"currency" yaml:"currency"`
	Images        []string     `json:"images" yaml:"images"`
	Supplier      SupplierInfo `json:"supplier" yaml:"supplier"`
	Rating        float64      `json:"rating" yaml:"rating"`
	ReviewCount   int          `json:"reviewCount" yaml:"reviewCount"`
	InStock       bool         `json:"inStock" yaml:"inStock"`
	StockQuantity int          `json:"stockQuantity" yaml:"stockQuantity"`
	FreeShipping  bool         `json:"freeShipping" yaml:"freeShipping"`
	FetchedAt     time.Time    `json:"fetchedAt" yaml:"-"`
}

// Key is the idempotency key of a candidate across runs.
func (c Candidate) Key() string {
	return SourceKey(c.Source, c.ID)
}

// SearchText joins title and description for keyword matching.
func (c Candidate) SearchText() string {
	return strings.ToLower(c.Title + " " + c.Description)
}

// SourceKey builds the "<source>:<external id>" key.
func SourceKey(source, id string) string {
	return source + ":" + id
}

// QualityMetrics holds the sub-scores computed for a candidate.
type QualityMetrics struct {
	PriceScore      float64  `json:"priceScore"`
	RatingScore     float64  `json:"ratingScore"`
	SupplierScore   float64  `json:"supplierScore"`
	ImageScore      float64  `json:"imageScore"`
	LuxuryScore     float64  `json:"luxuryScore"`
	Overall         float64  `json:"overall"`
	MatchedKeywords []string `json:"matchedKeywords,omitempty"`
}

// ProductStatus enumerates curation outcomes.
type ProductStatus string

const (
	StatusAutoApproved   ProductStatus = "auto_approved"
	StatusPendingReview  ProductStatus = "pending_review"
	StatusRejected       ProductStatus = "rejected"
	StatusManualOverride ProductStatus = "manual_override"
)

// Valid reports whether s is a known status.
func (s ProductStatus) Valid() bool {
	switch s {
	case StatusAutoApproved, StatusPendingReview, StatusRejected, StatusManualOverride:
		return true
	}
	return false
}

// Live reports whether products with this status belong to the storefront catalog.
func (s ProductStatus) Live() bool {
	return s == StatusAutoApproved || s == StatusManualOverride
}

// ReviewRecord captures an operator decision on a queued product.
type ReviewRecord struct {
	ReviewerID string        `json:"reviewerId"`
	Decision   ProductStatus `json:"decision"`
	Notes      string        `json:"notes,omitempty"`
	ReviewedAt time.Time     `json:"reviewedAt"`
}

// CuratedProduct is the pipeline's scored and classified copy of a candidate.
type CuratedProduct struct {
	ID          string         `json:"id"`
	SourceKey   string         `json:"sourceKey"`
	ExternalID  string         `json:"externalId"`
	Source      string         `json:"source"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	CostPrice   float64        `json:"costPrice"`
	Price       float64        `json:"price"`
	Currency    string         `json:"currency"`
	Images      []string       `json:"images"`
	Category    string         `json:"category"`
	Supplier    SupplierInfo   `json:"supplier"`
	Metrics     QualityMetrics `json:"metrics"`
	Status      ProductStatus  `json:"status"`
	RuleID      string         `json:"ruleId,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Review      *ReviewRecord  `json:"review,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Priority orders review queue items.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank maps a priority to a sortable integer, lower first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// ReviewQueueItem wraps a product awaiting an operator decision.
type ReviewQueueItem struct {
	ID             string         `json:"id"`
	Product        CuratedProduct `json:"product"`
	Priority       Priority       `json:"priority"`
	Reason         string         `json:"reason"`
	EstimatedValue float64        `json:"estimatedValue"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// RejectionStage tells where in the pipeline a candidate was dropped.
type RejectionStage string

const (
	StageFilter RejectionStage = "filter"
	StageScore  RejectionStage = "score"
	StageReview RejectionStage = "review"
)

// Rejection is an entry of the rejection log.
type Rejection struct {
	SourceKey  string         `json:"sourceKey"`
	Source     string         `json:"source"`
	ExternalID string         `json:"externalId"`
	Title      string         `json:"title"`
	Stage      RejectionStage `json:"stage"`
	Reason     string         `json:"reason"`
	Score      float64        `json:"score"`
	RejectedAt time.Time      `json:"rejectedAt"`
}

// LowStockItem flags a live product whose supplier stock is short or gone.
type LowStockItem struct {
	ProductID string `json:"productId"`
	SourceKey string `json:"sourceKey"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Reason    string `json:"reason"`
}

// InventoryReport summarises one inventory sync.
type InventoryReport struct {
	Checked  int            `json:"checked"`
	LowStock []LowStockItem `json:"lowStock"`
}
