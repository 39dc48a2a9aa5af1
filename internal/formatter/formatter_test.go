package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
)

func result(id string, images ...string) domain.SearchResult {
	return domain.SearchResult{
		ID:        id,
		Name:      "Watch " + id,
		Brand:     "fossi_l",
		Price:     domain.ParsePrice("1999"),
		URL:       "https://shop.example/" + id,
		ImageURLs: images,
	}
}

func TestFormat_FirstImageOnlyAndOrder(t *testing.T) {
	resp := Format([]domain.SearchResult{
		result("a", "a1.jpg", "a2.jpg"),
		result("b", "b1.jpg"),
	}, BrowseCap)

	require.Len(t, resp.Items, 2)
	assert.False(t, resp.NoResults)
	assert.Equal(t, "a", resp.Items[0].ProductID)
	assert.Equal(t, "a1.jpg", resp.Items[0].ImageURL)
	assert.Equal(t, "b1.jpg", resp.Items[1].ImageURL)
	assert.Equal(t, "1999", resp.Items[0].Price)
}

func TestFormat_SkipsProductsWithoutImages(t *testing.T) {
	resp := Format([]domain.SearchResult{
		result("a"),
		result("b", "b1.jpg"),
		result("c", " "),
		result("d", "d1.jpg"),
	}, 10)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, "b", resp.Items[0].ProductID)
	assert.Equal(t, "d", resp.Items[1].ProductID)
	assert.Equal(t, 2, resp.Skipped)
	assert.Equal(t, 2, resp.Delivered())
}

func TestFormat_Cap(t *testing.T) {
	in := []domain.SearchResult{
		result("a", "1"), result("b", "2"), result("c", "3"), result("d", "4"), result("e"),
	}

	resp := Format(in, 0)
	assert.Len(t, resp.Items, ChatCap)
	assert.Equal(t, 0, resp.Skipped)

	resp = Format(in, 2)
	assert.Equal(t, []string{"a", "b"}, []string{resp.Items[0].ProductID, resp.Items[1].ProductID})
}

func TestFormat_NoResultsMarker(t *testing.T) {
	resp := Format(nil, 3)
	assert.True(t, resp.NoResults)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)

	// Matched but nothing displayable is a different outcome.
	resp = Format([]domain.SearchResult{result("a")}, 3)
	assert.False(t, resp.NoResults)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 1, resp.Skipped)
}

func TestCaption(t *testing.T) {
	r := result("a", "1.jpg", "2.jpg")
	assert.Equal(t, "*fossi_l - Watch a*\nPrice: ₹1999\nShop: https://shop.example/a\n2 images available", Caption(&r))

	bare := domain.SearchResult{Name: "Loafer"}
	assert.Equal(t, "*Loafer*\nPrice: ₹N/A", Caption(&bare))
}
