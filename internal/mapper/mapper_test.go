package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pazarly/search-service/internal/repository"
)

func TestStoreFromRow(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	row := repository.ListingRow{
		ID:              "lst-1",
		Name:            "Wireless Keyboard",
		Subtitle:        "Compact, silent keys",
		RatingAvg:       4.6,
		RatingCount:     120,
		SoldCount:       340,
		StockCount:      15,
		Slug:            "wireless-keyboard",
		Status:          "active",
		CategorySlug:    "electronics",
		SubCategorySlug: "peripherals",
		CategoryType:    "product",
		Classify:        "physical",
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	doc, err := StoreFromRow(row)
	require.NoError(t, err)
	assert.Equal(t, "lst-1", doc.ID)
	assert.Equal(t, "Wireless Keyboard", doc.Name)
	assert.Equal(t, "peripherals", doc.SubCategorySlug)
	assert.Equal(t, 4.6, doc.RatingAvg)
}

func TestStoreFromRowRejectsMissingFields(t *testing.T) {
	_, err := StoreFromRow(repository.ListingRow{Name: "no id"})
	assert.Error(t, err)

	_, err = StoreFromRow(repository.ListingRow{ID: "lst-1"})
	assert.Error(t, err)
}

func TestStoreFromPayloadUsesCamelCaseNames(t *testing.T) {
	doc, err := StoreFromPayload(ListingPayload{
		ID:          "lst-2",
		DisplayName: "Mechanical Keyboard",
		Subtitle:    "Clicky",
		IsDuplicate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Mechanical Keyboard", doc.Name)
	assert.Equal(t, "Clicky", doc.Subtitle)
	assert.True(t, doc.Duplicate)
}

func TestStoreFromPayloadRejectsMissingDisplayName(t *testing.T) {
	_, err := StoreFromPayload(ListingPayload{ID: "lst-3"})
	assert.Error(t, err)
}

func TestBlogFromPayloadNormalizesNilTags(t *testing.T) {
	doc, err := BlogFromPayload(PostPayload{ID: "post-1", Title: "Choosing a VPN"})
	require.NoError(t, err)
	require.NotNil(t, doc.Tags)
	assert.Empty(t, doc.Tags)
}

func TestPositionFromRowDerivesRank(t *testing.T) {
	doc, err := PositionFromRow(repository.SlotRow{
		ID:           "slot-1",
		Name:         "Top Spot #3",
		CategorySlug: "electronics",
		Type:         "product",
		WinnerIDs:    []string{"lst-9"},
		Status:       "active",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Rank)
	assert.Equal(t, []string{"lst-9"}, doc.WinnerIDs)
}

func TestPositionFromRowNormalizesNilWinners(t *testing.T) {
	doc, err := PositionFromRow(repository.SlotRow{ID: "slot-2", Name: "Spot 1"})
	require.NoError(t, err)
	require.NotNil(t, doc.WinnerIDs)
	assert.Empty(t, doc.WinnerIDs)
}

func TestRankFromName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"trailing number", "Category Spot 7", 7},
		{"number with suffix", "Top Spot #3 - Electronics", 3},
		{"hash prefix", "Top Spot #12", 12},
		{"last number wins", "Spot 2 of 10", 10},
		{"no number", "Featured Spot", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RankFromName(tt.in))
		})
	}
}
