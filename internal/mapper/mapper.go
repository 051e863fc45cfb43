// Package mapper normalizes heterogeneous source records into canonical index
// documents. The relational source and the event payloads name the same fields
// differently; each schema gets its own adapter function so business logic
// never branches on field presence.
package mapper

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/internal/repository"
)

// ListingPayload is the camelCase event/webhook shape of a listing record.
type ListingPayload struct {
	ID              string    `json:"id"`
	DisplayName     string    `json:"displayName"`
	Subtitle        string    `json:"subTitle"`
	RatingAvg       float64   `json:"ratingAvg"`
	RatingCount     int       `json:"ratingCount"`
	SoldCount       int       `json:"soldCount"`
	StockCount      int       `json:"stockCount"`
	Slug            string    `json:"slug"`
	Status          string    `json:"status"`
	CategorySlug    string    `json:"categorySlug"`
	SubCategorySlug string    `json:"subCategorySlug"`
	CategoryType    string    `json:"categoryType"`
	Classify        string    `json:"classify"`
	IsDuplicate     bool      `json:"isDuplicate"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// PostPayload is the CMS webhook shape of an article record.
type PostPayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

// SlotPayload is the webhook shape of a ranking slot record.
type SlotPayload struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	CategorySlug string   `json:"categorySlug"`
	Type         string   `json:"type"`
	WinnerIDs    []string `json:"winnerIds"`
	Status       string   `json:"status"`
	Description  string   `json:"description"`
}

// StoreFromRow maps a relational listing row to its canonical index document.
func StoreFromRow(row repository.ListingRow) (domain.StoreDocument, error) {
	if row.ID == "" {
		return domain.StoreDocument{}, fmt.Errorf("map listing row: missing id")
	}
	if row.Name == "" {
		return domain.StoreDocument{}, fmt.Errorf("map listing row %s: missing name", row.ID)
	}

	return domain.StoreDocument{
		ID:              row.ID,
		Name:            row.Name,
		Subtitle:        row.Subtitle,
		RatingAvg:       row.RatingAvg,
		RatingCount:     row.RatingCount,
		SoldCount:       row.SoldCount,
		StockCount:      row.StockCount,
		Slug:            row.Slug,
		Status:          row.Status,
		CategorySlug:    row.CategorySlug,
		SubCategorySlug: row.SubCategorySlug,
		CategoryType:    row.CategoryType,
		Classify:        row.Classify,
		Duplicate:       row.Duplicate,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}

// StoreFromPayload maps an event payload to its canonical index document.
func StoreFromPayload(p ListingPayload) (domain.StoreDocument, error) {
	if p.ID == "" {
		return domain.StoreDocument{}, fmt.Errorf("map listing payload: missing id")
	}
	if p.DisplayName == "" {
		return domain.StoreDocument{}, fmt.Errorf("map listing payload %s: missing displayName", p.ID)
	}

	return domain.StoreDocument{
		ID:              p.ID,
		Name:            p.DisplayName,
		Subtitle:        p.Subtitle,
		RatingAvg:       p.RatingAvg,
		RatingCount:     p.RatingCount,
		SoldCount:       p.SoldCount,
		StockCount:      p.StockCount,
		Slug:            p.Slug,
		Status:          p.Status,
		CategorySlug:    p.CategorySlug,
		SubCategorySlug: p.SubCategorySlug,
		CategoryType:    p.CategoryType,
		Classify:        p.Classify,
		Duplicate:       p.IsDuplicate,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}, nil
}

// BlogFromRow maps a relational article row to its canonical index document.
func BlogFromRow(row repository.ArticleRow) (domain.BlogDocument, error) {
	if row.ID == "" {
		return domain.BlogDocument{}, fmt.Errorf("map article row: missing id")
	}
	if row.Title == "" {
		return domain.BlogDocument{}, fmt.Errorf("map article row %s: missing title", row.ID)
	}

	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}

	return domain.BlogDocument{
		ID:        row.ID,
		Title:     row.Title,
		Slug:      row.Slug,
		Tags:      tags,
		CreatedAt: row.CreatedAt,
	}, nil
}

// BlogFromPayload maps a CMS webhook payload to its canonical index document.
func BlogFromPayload(p PostPayload) (domain.BlogDocument, error) {
	if p.ID == "" {
		return domain.BlogDocument{}, fmt.Errorf("map post payload: missing id")
	}
	if p.Title == "" {
		return domain.BlogDocument{}, fmt.Errorf("map post payload %s: missing title", p.ID)
	}

	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	return domain.BlogDocument{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Tags:      tags,
		CreatedAt: p.CreatedAt,
	}, nil
}

// PositionFromRow maps a relational ranking slot row to its canonical index
// document, deriving the display rank from the slot name.
func PositionFromRow(row repository.SlotRow) (domain.PositionDocument, error) {
	if row.ID == "" {
		return domain.PositionDocument{}, fmt.Errorf("map slot row: missing id")
	}

	winners := row.WinnerIDs
	if winners == nil {
		winners = []string{}
	}

	return domain.PositionDocument{
		ID:           row.ID,
		CategorySlug: row.CategorySlug,
		Type:         row.Type,
		Rank:         RankFromName(row.Name),
		WinnerIDs:    winners,
		Status:       row.Status,
		Description:  row.Description,
	}, nil
}

// PositionFromPayload maps a webhook slot payload to its canonical index document.
func PositionFromPayload(p SlotPayload) (domain.PositionDocument, error) {
	if p.ID == "" {
		return domain.PositionDocument{}, fmt.Errorf("map slot payload: missing id")
	}

	winners := p.WinnerIDs
	if winners == nil {
		winners = []string{}
	}

	return domain.PositionDocument{
		ID:           p.ID,
		CategorySlug: p.CategorySlug,
		Type:         p.Type,
		Rank:         RankFromName(p.Name),
		WinnerIDs:    winners,
		Status:       p.Status,
		Description:  p.Description,
	}, nil
}

var rankPattern = regexp.MustCompile(`(\d+)\D*$`)

// RankFromName extracts the numeric rank from a structured slot name such as
// "Top Spot #3 - Electronics". Returns 0 when the name carries no number.
// The rank is display-only and never contributes to relevance scoring.
func RankFromName(name string) int {
	m := rankPattern.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	rank, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return rank
}
