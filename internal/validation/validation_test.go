package validation

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/webshop/internal/apperr"
	"github.com/erazemk/webshop/internal/model"
)

type fakeLookup struct {
	users      map[int64]bool
	items      map[int64]bool
	warehouses map[int64]bool
	reviews    map[model.ReviewTarget]int64 // target -> reviewer
}

func (f *fakeLookup) UserExists(_ context.Context, id int64) (bool, error) { return f.users[id], nil }
func (f *fakeLookup) ItemExists(_ context.Context, id int64) (bool, error) { return f.items[id], nil }
func (f *fakeLookup) WarehouseExists(_ context.Context, id int64) (bool, error) {
	return f.warehouses[id], nil
}

func (f *fakeLookup) ReviewExists(_ context.Context, reviewerID int64, target model.ReviewTarget, _ int64) (bool, error) {
	r, ok := f.reviews[target]
	return ok && r == reviewerID, nil
}

func newEngine() *Engine {
	return New(&fakeLookup{
		users:      map[int64]bool{1: true, 2: true},
		items:      map[int64]bool{10: true, 11: true},
		warehouses: map[int64]bool{5: true},
		reviews: map[model.ReviewTarget]int64{
			{Type: model.ReviewTypeItem, ID: 11}: 1,
		},
	})
}

func ptr(n int64) *int64 { return &n }

// rulesOf returns the violated rules of a validation error.
func rulesOf(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok, "expected an apperr, got %v", err)
	require.Equal(t, apperr.KindValidationFailed, e.Kind)
	return e.Rules
}

func TestReviewRules(t *testing.T) {
	tests := []struct {
		name   string
		review model.Review
		rules  []string
	}{
		{
			name:   "valid item review",
			review: model.Review{ReviewerID: 2, Type: model.ReviewTypeItem, ItemID: ptr(10), Rating: 5, Comment: "Great"},
		},
		{
			name:   "valid user review",
			review: model.Review{ReviewerID: 2, Type: model.ReviewTypeUser, ReviewedUserID: ptr(1), Rating: 1, Comment: "Slow"},
		},
		{
			name:   "item review without item",
			review: model.Review{ReviewerID: 2, Type: model.ReviewTypeItem, Rating: 3, Comment: "x"},
			rules:  []string{"item_required"},
		},
		{
			name:   "item review with reviewed user",
			review: model.Review{ReviewerID: 2, Type: model.ReviewTypeItem, ItemID: ptr(10), ReviewedUserID: ptr(1), Rating: 3, Comment: "x"},
			rules:  []string{"reviewed_user_forbidden"},
		},
		{
			name:   "user review with item",
			review: model.Review{ReviewerID: 2, Type: model.ReviewTypeUser, ItemID: ptr(10), ReviewedUserID: ptr(1), Rating: 3, Comment: "x"},
			rules:  []string{"item_forbidden"},
		},
		{
			name:   "self review",
			review: model.Review{ReviewerID: 1, Type: model.ReviewTypeUser, ReviewedUserID: ptr(1), Rating: 3, Comment: "x"},
			rules:  []string{"self_review"},
		},
		{
			name:   "user review without user",
			review: model.Review{ReviewerID: 1, Type: model.ReviewTypeUser, Rating: 3, Comment: "x"},
			rules:  []string{"reviewed_user_required"},
		},
		{
			name:   "unknown type",
			review: model.Review{ReviewerID: 1, Type: "shop", Rating: 3, Comment: "x"},
			rules:  []string{"review_type_invalid"},
		},
		{
			name:   "rating too low and blank comment",
			review: model.Review{ReviewerID: 2, Type: model.ReviewTypeItem, ItemID: ptr(10), Rating: 0, Comment: "   "},
			rules:  []string{"rating_range", "comment_blank"},
		},
		{
			name:   "rating too high",
			review: model.Review{ReviewerID: 2, Type: model.ReviewTypeItem, ItemID: ptr(10), Rating: 6, Comment: "x"},
			rules:  []string{"rating_range"},
		},
		{
			name:   "missing item",
			review: model.Review{ReviewerID: 2, Type: model.ReviewTypeItem, ItemID: ptr(99), Rating: 3, Comment: "x"},
			rules:  []string{"item_not_found"},
		},
		{
			name:   "missing reviewed user",
			review: model.Review{ReviewerID: 2, Type: model.ReviewTypeUser, ReviewedUserID: ptr(99), Rating: 3, Comment: "x"},
			rules:  []string{"reviewed_user_not_found"},
		},
		{
			name:   "duplicate",
			review: model.Review{ReviewerID: 1, Type: model.ReviewTypeItem, ItemID: ptr(11), Rating: 3, Comment: "again"},
			rules:  []string{"duplicate_review"},
		},
	}

	engine := newEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			review := tt.review
			err := engine.Review(context.Background(), &review)
			if tt.rules == nil {
				assert.NoError(t, err)
				return
			}
			assert.ElementsMatch(t, tt.rules, rulesOf(t, err))
		})
	}
}

func TestReviewTrimsComment(t *testing.T) {
	review := model.Review{ReviewerID: 2, Type: model.ReviewTypeItem, ItemID: ptr(10), Rating: 4, Comment: "  fine \n"}
	require.NoError(t, newEngine().Review(context.Background(), &review))
	assert.Equal(t, "fine", review.Comment)
}

func TestItemRules(t *testing.T) {
	engine := newEngine()
	price := func(s string) model.Price {
		p, err := model.ParsePrice(s)
		require.NoError(t, err)
		return p
	}

	assert.NoError(t, engine.Item(&model.Item{Name: "Lamp", Price: price("10.00")}))

	assert.Equal(t, []string{"price_required"}, rulesOf(t, engine.Item(&model.Item{Name: "Lamp"})))
	assert.Equal(t, []string{"price_positive"}, rulesOf(t, engine.Item(&model.Item{Name: "Lamp", Price: price("0")})))
	assert.Equal(t, []string{"price_positive"}, rulesOf(t, engine.Item(&model.Item{Name: "Lamp", Price: price("-5")})))
	assert.Equal(t, []string{"price_too_large"}, rulesOf(t, engine.Item(&model.Item{Name: "Lamp", Price: price("100000000")})))
	assert.ElementsMatch(t, []string{"name_blank", "price_required"}, rulesOf(t, engine.Item(&model.Item{Name: " "})))

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	assert.Equal(t, []string{"name_too_long"}, rulesOf(t, engine.Item(&model.Item{Name: string(long), Price: price("1")})))
}

func TestWarehouseRules(t *testing.T) {
	engine := newEngine()
	w := model.Warehouse{
		Name: "Central", Street: "Dunajska", HouseNumber: "1", PostalCode: "1000",
		City: "Ljubljana", Country: "Slovenia", Capacity: 10,
	}
	assert.NoError(t, engine.Warehouse(&w))

	w.Capacity = 0
	w.City = ""
	assert.ElementsMatch(t, []string{"capacity_positive", "city_blank"}, rulesOf(t, engine.Warehouse(&w)))
}

func TestEmployeeRules(t *testing.T) {
	engine := newEngine()
	ctx := context.Background()

	emp := model.Employee{FirstName: "Eve", LastName: "Novak", Role: "Picker", WarehouseID: ptr(5)}
	assert.NoError(t, engine.Employee(ctx, &emp))

	emp.WarehouseID = ptr(6)
	emp.Role = ""
	emp.Address.PostalCode = "1234567890123456"
	assert.ElementsMatch(t,
		[]string{"role_blank", "postal_code_too_long", "warehouse_not_found"},
		rulesOf(t, engine.Employee(ctx, &emp)),
	)
}

func TestUserRules(t *testing.T) {
	engine := newEngine()
	password := "long-enough"
	short := "short"

	assert.NoError(t, engine.User(&model.User{Username: "alice", Email: "alice@example.com"}, &password))
	assert.NoError(t, engine.User(&model.User{Username: "alice", Email: "alice@example.com"}, nil))

	assert.ElementsMatch(t,
		[]string{"username_blank", "email_invalid", "password_too_short"},
		rulesOf(t, engine.User(&model.User{Email: "not-an-email"}, &short)),
	)
	assert.Equal(t, []string{"email_required"}, rulesOf(t, engine.User(&model.User{Username: "bob"}, nil)))

	empty := ""
	assert.Equal(t, []string{"password_required"}, rulesOf(t, engine.User(&model.User{Username: "bob", Email: "bob@example.com"}, &empty)))

	long := strings.Repeat("p", model.MaxPasswordLength+8)
	assert.Equal(t, []string{"password_too_long"}, rulesOf(t, engine.User(&model.User{Username: "bob", Email: "bob@example.com"}, &long)))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

func TestPhotoRules(t *testing.T) {
	engine := newEngine()
	ctx := context.Background()
	data := pngBytes(t)

	result, err := engine.Photo(ctx, 10, data)
	require.NoError(t, err)
	assert.Equal(t, "image/png", result.MIME)
	assert.Equal(t, 1, result.Width)

	result, err = engine.Photo(ctx, 10, []byte(base64.StdEncoding.EncodeToString(data)))
	require.NoError(t, err)
	assert.Equal(t, data, result.Data)

	_, err = engine.Photo(ctx, 10, []byte("not an image"))
	assert.Equal(t, []string{"photo_base64_invalid"}, rulesOf(t, err))

	// Valid base64, but not an image.
	_, err = engine.Photo(ctx, 10, []byte(base64.StdEncoding.EncodeToString([]byte("hello world"))))
	assert.Equal(t, []string{"photo_format_invalid"}, rulesOf(t, err))

	_, err = engine.Photo(ctx, 99, nil)
	assert.ElementsMatch(t, []string{"item_not_found", "photo_required"}, rulesOf(t, err))

	_, err = engine.Photo(ctx, 0, data)
	assert.Equal(t, []string{"item_required"}, rulesOf(t, err))

	assert.NoError(t, engine.PhotoItem(ctx, 11))
	assert.Equal(t, []string{"item_not_found"}, rulesOf(t, engine.PhotoItem(ctx, 12)))
}
