package users

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/usersync/internal/client/client"
	"github.com/dmitrijs2005/usersync/internal/client/models"
	"github.com/dmitrijs2005/usersync/internal/common"
	"github.com/dmitrijs2005/usersync/internal/dbx"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*SQLRepository, *sql.DB) {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLRepository(db, dbx.DialectSQLite), db
}

func user(email, first string) models.User {
	return models.User{
		Email:  email,
		Gender: "female",
		Name:   models.Name{Title: "Ms", First: first, Last: "Doe"},
		Location: models.Location{
			Street:      models.Street{Number: 7, Name: "Main St"},
			City:        "Springfield",
			State:       "OR",
			Country:     "US",
			Postcode:    "97477",
			Coordinates: models.Coordinates{Latitude: "44.04", Longitude: "-123.02"},
		},
		Phone:   "555-0100",
		Cell:    "555-0199",
		Picture: models.Picture{Large: "l.jpg", Medium: "m.jpg", Thumbnail: "t.jpg"},
	}
}

func emails(us []models.User) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.Email
	}
	return out
}

func TestSQLRepository_RoundTrip(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	want := user("a@x", "Ann")
	require.NoError(t, repo.UpsertAll(ctx, []models.User{want}))

	got, err := repo.GetByEmail(ctx, "a@x")
	require.NoError(t, err)
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Fatalf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLRepository_GetByEmail_NotFound(t *testing.T) {
	repo, _ := setupRepo(t)

	_, err := repo.GetByEmail(context.Background(), "nobody@x")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLRepository_GetAll_EmptyIsNotNil(t *testing.T) {
	repo, _ := setupRepo(t)

	all, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestSQLRepository_UpsertKeepsFirstInsertionOrder(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertAll(ctx, []models.User{user("a@x", "A"), user("b@x", "B")}))
	require.NoError(t, repo.UpsertAll(ctx, []models.User{user("c@x", "C"), user("a@x", "A2")}))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x", "b@x", "c@x"}, emails(all))
	assert.Equal(t, "A2", all[0].Name.First, "last write wins")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSQLRepository_DuplicateWithinBatch(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertAll(ctx, []models.User{user("a@x", "first"), user("b@x", "B"), user("a@x", "second")}))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x", "b@x"}, emails(all))
	assert.Equal(t, "second", all[0].Name.First)
}

func TestSQLRepository_ReplaceAll(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertAll(ctx, []models.User{user("old1@x", "O"), user("old2@x", "O")}))
	require.NoError(t, repo.ReplaceAll(ctx, []models.User{user("b@x", "B"), user("a@x", "A")}))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b@x", "a@x"}, emails(all))

	require.NoError(t, repo.ReplaceAll(ctx, nil))
	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLRepository_FailedWriteRollsBack(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertAll(ctx, []models.User{user("keep@x", "K")}))

	err := repo.ReplaceAll(ctx, []models.User{user("new@x", "N"), {Email: ""}})
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep@x"}, emails(all))

	err = repo.UpsertAll(ctx, []models.User{user("x@x", "X"), {}})
	require.Error(t, err)
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLRepository_NumericPostcodeStoredAsText(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := user("p@x", "P")
	u.Location.Postcode = models.FlexString("90210")
	require.NoError(t, repo.UpsertAll(ctx, []models.User{u}))

	got, err := repo.GetByEmail(ctx, "p@x")
	require.NoError(t, err)
	assert.Equal(t, "90210", got.Location.Postcode.String())
}
