package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/webshop/internal/apperr"
	"github.com/erazemk/webshop/internal/db"
	"github.com/erazemk/webshop/internal/model"
)

func createTestUser(t *testing.T, database *sql.DB, username string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return u
}

func createTestItem(t *testing.T, database *sql.DB, owner *model.User, cents int64) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, &model.Item{
		Name:      "Lamp",
		Price:     model.NewPriceFromCents(cents),
		CreatedBy: &owner.ID,
	})
	require.NoError(t, err)
	return item
}

func createTestPhoto(t *testing.T, database *sql.DB, item *model.Item) *model.ItemPhoto {
	t.Helper()
	p, err := CreatePhoto(context.Background(), database, &model.ItemPhoto{
		ItemID:    item.ID,
		PhotoData: []byte("png-bytes"),
		MIME:      "image/png",
		Width:     1,
		Height:    1,
	})
	require.NoError(t, err)
	return p
}

func TestUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, database, "alice")
	alice.Address = model.Address{Street: "Main", City: "Ljubljana"}
	alice.FirstName = "Alice"
	require.NoError(t, UpdateUser(ctx, database, alice))

	got, err := GetUser(ctx, database, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.FirstName)
	assert.Equal(t, "Ljubljana", got.City)
	assert.Equal(t, "hash", got.PasswordHash)

	// An empty hash keeps the stored one; a new hash replaces it.
	got.PasswordHash = ""
	got.LastName = "Novak"
	require.NoError(t, UpdateUser(ctx, database, got))
	got.PasswordHash = "new-hash"
	require.NoError(t, UpdateUser(ctx, database, got))
	got, err = GetUser(ctx, database, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Novak", got.LastName)
	assert.Equal(t, "new-hash", got.PasswordHash)

	byEmail, err := GetUserByLogin(ctx, database, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, alice.ID, byEmail.ID)

	missing, err := GetUser(ctx, database, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, UpdateUserPassword(ctx, database, alice.ID, "new-hash"))
	got, _ = GetUser(ctx, database, alice.ID)
	assert.Equal(t, "new-hash", got.PasswordHash)

	n, err := CountUsers(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateUserDuplicate(t *testing.T) {
	database := db.NewTestDB(t)
	createTestUser(t, database, "alice")

	_, err := CreateUser(context.Background(), database, &model.User{
		Username: "alice", Email: "other@example.com", PasswordHash: "hash",
	})
	assert.True(t, apperr.Is(err, apperr.KindConstraintViolation), "got %v", err)

	// Emails compare case-insensitively.
	_, err = CreateUser(context.Background(), database, &model.User{
		Username: "bob", Email: "ALICE@example.com", PasswordHash: "hash",
	})
	assert.True(t, apperr.Is(err, apperr.KindConstraintViolation), "got %v", err)
}

func TestUpdateDeleteMissing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	assert.True(t, apperr.Is(DeleteItem(ctx, database, 42), apperr.KindNotFound))
	assert.True(t, apperr.Is(DeleteReview(ctx, database, 42), apperr.KindNotFound))
	assert.True(t, apperr.Is(DeleteUser(ctx, database, 42), apperr.KindNotFound))
	assert.True(t, apperr.Is(DeletePhoto(ctx, database, 42), apperr.KindNotFound))
	assert.True(t, apperr.Is(UpdateWarehouse(ctx, database, &model.Warehouse{ID: 42, Capacity: 1}), apperr.KindNotFound))
}

func TestItemsWithPhotos(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, database, "alice")
	item := createTestItem(t, database, alice, 1000)
	assert.Equal(t, "10.00", item.Price.String())
	assert.False(t, item.IsAvailable)
	assert.Empty(t, item.Photos)

	p1 := createTestPhoto(t, database, item)
	p2 := createTestPhoto(t, database, item)

	got, err := GetItem(ctx, database, item.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{p1.ID, p2.ID}, got.Photos)

	other := createTestItem(t, database, alice, 500)
	items, err := ListItems(ctx, database)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Len(t, items[0].Photos, 2)
	assert.Empty(t, items[1].Photos)
	assert.Equal(t, other.ID, items[1].ID)

	got.Price = model.NewPriceFromCents(1500)
	got.IsAvailable = true
	require.NoError(t, UpdateItem(ctx, database, got))
	got, _ = GetItem(ctx, database, item.ID)
	assert.Equal(t, "15.00", got.Price.String())
	assert.True(t, got.IsAvailable)
	assert.Equal(t, alice.ID, *got.CreatedBy)
}

func TestItemPriceCheck(t *testing.T) {
	database := db.NewTestDB(t)
	alice := createTestUser(t, database, "alice")

	_, err := CreateItem(context.Background(), database, &model.Item{
		Name: "Free", Price: model.NewPriceFromCents(0), CreatedBy: &alice.ID,
	})
	assert.True(t, apperr.Is(err, apperr.KindConstraintViolation), "got %v", err)
}

func TestPhotos(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, database, "alice")
	item := createTestItem(t, database, alice, 1000)
	p := createTestPhoto(t, database, item)

	got, err := GetPhoto(ctx, database, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), got.PhotoData)
	assert.Equal(t, "image/png", got.MIME)

	list, err := ListPhotos(ctx, database)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].PhotoData)

	got.PhotoData = []byte("jpeg-bytes")
	got.MIME = "image/jpeg"
	require.NoError(t, UpdatePhoto(ctx, database, got))
	got, _ = GetPhoto(ctx, database, p.ID)
	assert.Equal(t, "image/jpeg", got.MIME)

	_, err = CreatePhoto(ctx, database, &model.ItemPhoto{ItemID: 999, PhotoData: []byte("x"), MIME: "image/png"})
	assert.True(t, apperr.Is(err, apperr.KindConstraintViolation), "got %v", err)
}

func TestReviews(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, database, "alice")
	bob := createTestUser(t, database, "bob")
	item := createTestItem(t, database, alice, 1000)

	r, err := CreateReview(ctx, database, &model.Review{
		ReviewerID: bob.ID, Type: model.ReviewTypeItem, ItemID: &item.ID, Rating: 4, Comment: "Good",
	})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, r.ReviewerID)
	assert.Nil(t, r.ReviewedUserID)

	target := model.ReviewTarget{Type: model.ReviewTypeItem, ID: item.ID}
	exists, err := ReviewExists(ctx, database, bob.ID, target, 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = ReviewExists(ctx, database, bob.ID, target, r.ID)
	require.NoError(t, err)
	assert.False(t, exists, "the review itself is excluded")

	exists, err = ReviewExists(ctx, database, alice.ID, target, 0)
	require.NoError(t, err)
	assert.False(t, exists)

	// The unique index rejects a second review that skipped validation.
	_, err = CreateReview(ctx, database, &model.Review{
		ReviewerID: bob.ID, Type: model.ReviewTypeItem, ItemID: &item.ID, Rating: 2, Comment: "Again",
	})
	assert.True(t, apperr.Is(err, apperr.KindConstraintViolation), "got %v", err)

	userReview, err := CreateReview(ctx, database, &model.Review{
		ReviewerID: bob.ID, Type: model.ReviewTypeUser, ReviewedUserID: &alice.ID, Rating: 5, Comment: "Fast",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReviewTypeUser, userReview.Type)

	userReview.Rating = 3
	require.NoError(t, UpdateReview(ctx, database, userReview))
	got, err := GetReview(ctx, database, userReview.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rating)

	reviews, err := ListReviews(ctx, database)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestReviewChecks(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, database, "alice")
	item := createTestItem(t, database, alice, 1000)

	tests := []struct {
		name   string
		review model.Review
	}{
		{"self review", model.Review{ReviewerID: alice.ID, Type: model.ReviewTypeUser, ReviewedUserID: &alice.ID, Rating: 3, Comment: "me"}},
		{"rating", model.Review{ReviewerID: alice.ID, Type: model.ReviewTypeItem, ItemID: &item.ID, Rating: 6, Comment: "x"}},
		{"blank comment", model.Review{ReviewerID: alice.ID, Type: model.ReviewTypeItem, ItemID: &item.ID, Rating: 3, Comment: "  "}},
		{"both targets", model.Review{ReviewerID: alice.ID, Type: model.ReviewTypeItem, ItemID: &item.ID, ReviewedUserID: &alice.ID, Rating: 3, Comment: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateReview(ctx, database, &tt.review)
			assert.True(t, apperr.Is(err, apperr.KindConstraintViolation), "got %v", err)
		})
	}
}

func TestDeleteCascades(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, database, "alice")
	bob := createTestUser(t, database, "bob")
	item := createTestItem(t, database, alice, 1000)
	photo := createTestPhoto(t, database, item)

	review, err := CreateReview(ctx, database, &model.Review{
		ReviewerID: bob.ID, Type: model.ReviewTypeItem, ItemID: &item.ID, Rating: 5, Comment: "Nice",
	})
	require.NoError(t, err)
	userReview, err := CreateReview(ctx, database, &model.Review{
		ReviewerID: alice.ID, Type: model.ReviewTypeUser, ReviewedUserID: &bob.ID, Rating: 5, Comment: "Nice",
	})
	require.NoError(t, err)

	// Deleting the creator keeps the item.
	require.NoError(t, DeleteUser(ctx, database, alice.ID))
	got, err := GetItem(ctx, database, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.CreatedBy)

	gotReview, err := GetReview(ctx, database, userReview.ID)
	require.NoError(t, err)
	assert.Nil(t, gotReview, "reviews written by a deleted user are removed")

	// Deleting the item removes its reviews and photos.
	require.NoError(t, DeleteItem(ctx, database, item.ID))
	gotReview, err = GetReview(ctx, database, review.ID)
	require.NoError(t, err)
	assert.Nil(t, gotReview)

	gotPhoto, err := GetPhoto(ctx, database, photo.ID)
	require.NoError(t, err)
	assert.Nil(t, gotPhoto)
}

func TestWarehousesAndEmployees(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	w, err := CreateWarehouse(ctx, database, &model.Warehouse{
		Name: "Central", Street: "Dunajska", HouseNumber: "1", PostalCode: "1000",
		City: "Ljubljana", Country: "Slovenia", Capacity: 100,
	})
	require.NoError(t, err)

	e, err := CreateEmployee(ctx, database, &model.Employee{
		FirstName: "Eve", LastName: "Novak", Role: "Picker", WarehouseID: &w.ID,
	})
	require.NoError(t, err)
	assert.False(t, e.HiredAt.IsZero())
	require.NotNil(t, e.WarehouseID)
	assert.Equal(t, w.ID, *e.WarehouseID)

	employees, err := ListEmployees(ctx, database)
	require.NoError(t, err)
	assert.Len(t, employees, 1)

	require.NoError(t, DeleteWarehouse(ctx, database, w.ID))
	e, err = GetEmployee(ctx, database, e.ID)
	require.NoError(t, err)
	assert.Nil(t, e.WarehouseID)

	_, err = CreateWarehouse(ctx, database, &model.Warehouse{
		Name: "Empty", Street: "a", HouseNumber: "1", PostalCode: "1", City: "a", Country: "a", Capacity: 0,
	})
	assert.True(t, apperr.Is(err, apperr.KindConstraintViolation), "got %v", err)
}

func TestLookup(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	lookup := NewLookup(database)

	alice := createTestUser(t, database, "alice")
	item := createTestItem(t, database, alice, 100)

	ok, err := lookup.UserExists(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lookup.ItemExists(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lookup.ItemExists(ctx, item.ID+1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = lookup.WarehouseExists(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
