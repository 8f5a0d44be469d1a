package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadrouter_backend/internal/models"
)

func TestFindCandidates_ExactTier(t *testing.T) {
	userRepo := newFakeUserRepo()
	requestRepo := newFakeRequestRepo()
	distRepo := newFakeDistributionRepo(requestRepo)

	plumbing := testCategory("cat-plumbing")
	moscow := testCity("city-moscow")
	kazan := testCity("city-kazan")
	urgent := testSubCategory("sub-urgent", plumbing.ID)

	exact := testUser("u1", []models.Category{plumbing}, []models.City{moscow}, []models.SubCategory{urgent})
	wrongCity := testUser("u2", []models.Category{plumbing}, []models.City{kazan}, []models.SubCategory{urgent})
	noSub := testUser("u3", []models.Category{plumbing}, []models.City{moscow}, nil)
	require.NoError(t, userRepo.Create(&exact))
	require.NoError(t, userRepo.Create(&wrongCity))
	require.NoError(t, userRepo.Create(&noSub))

	svc := NewMatchingService(userRepo, distRepo)
	req := testRequest("r1", plumbing.ID, moscow.ID, urgent)

	candidates, err := svc.FindCandidates(req)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "u1", candidates[0].ID)
}

func TestFindCandidates_SubCategoriesAreAND(t *testing.T) {
	userRepo := newFakeUserRepo()
	requestRepo := newFakeRequestRepo()
	distRepo := newFakeDistributionRepo(requestRepo)

	cat := testCategory("cat-1")
	city := testCity("city-1")
	subA := testSubCategory("sub-a", cat.ID)
	subB := testSubCategory("sub-b", cat.ID)

	// Объявил только одну из двух подкатегорий - точное совпадение не проходит
	partial := testUser("u1", []models.Category{cat}, []models.City{city}, []models.SubCategory{subA})
	full := testUser("u2", []models.Category{cat}, []models.City{city}, []models.SubCategory{subA, subB})
	require.NoError(t, userRepo.Create(&partial))
	require.NoError(t, userRepo.Create(&full))

	svc := NewMatchingService(userRepo, distRepo)
	req := testRequest("r1", cat.ID, city.ID, subA, subB)

	candidates, err := svc.FindCandidates(req)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "u2", candidates[0].ID)
}

func TestFindCandidates_PartialTier(t *testing.T) {
	userRepo := newFakeUserRepo()
	requestRepo := newFakeRequestRepo()
	distRepo := newFakeDistributionRepo(requestRepo)

	cat := testCategory("cat-1")
	otherCat := testCategory("cat-2")
	city := testCity("city-1")
	otherCity := testCity("city-2")

	// Никто не совпадает точно: u1 знает категорию, но в другом городе,
	// u2 в нужном городе, но с другой категорией, u3 мимо по обоим
	byCategory := testUser("u1", []models.Category{cat}, []models.City{otherCity}, nil)
	byCity := testUser("u2", []models.Category{otherCat}, []models.City{city}, nil)
	neither := testUser("u3", []models.Category{otherCat}, []models.City{otherCity}, nil)
	require.NoError(t, userRepo.Create(&byCategory))
	require.NoError(t, userRepo.Create(&byCity))
	require.NoError(t, userRepo.Create(&neither))

	svc := NewMatchingService(userRepo, distRepo)
	req := testRequest("r1", cat.ID, city.ID)

	candidates, err := svc.FindCandidates(req)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	ids := []string{candidates[0].ID, candidates[1].ID}
	assert.ElementsMatch(t, []string{"u1", "u2"}, ids)
}

func TestFindCandidates_CatchAllTier(t *testing.T) {
	userRepo := newFakeUserRepo()
	requestRepo := newFakeRequestRepo()
	distRepo := newFakeDistributionRepo(requestRepo)

	otherCat := testCategory("cat-2")
	otherCity := testCity("city-2")

	stranger := testUser("u1", []models.Category{otherCat}, []models.City{otherCity}, nil)
	inactive := testUser("u2", []models.Category{otherCat}, []models.City{otherCity}, nil)
	inactive.IsActive = false
	require.NoError(t, userRepo.Create(&stranger))
	require.NoError(t, userRepo.Create(&inactive))

	svc := NewMatchingService(userRepo, distRepo)
	req := testRequest("r1", "cat-1", "city-1")

	candidates, err := svc.FindCandidates(req)
	require.NoError(t, err)
	require.Len(t, candidates, 1, "неактивные не попадают даже в последний уровень")
	assert.Equal(t, "u1", candidates[0].ID)
}

func TestFindCandidates_SortedByLoadThenID(t *testing.T) {
	userRepo := newFakeUserRepo()
	requestRepo := newFakeRequestRepo()
	distRepo := newFakeDistributionRepo(requestRepo)

	cat := testCategory("cat-1")
	city := testCity("city-1")

	for _, id := range []string{"u1", "u2", "u3"} {
		u := testUser(id, []models.Category{cat}, []models.City{city}, nil)
		require.NoError(t, userRepo.Create(&u))
	}

	// u1 - две исторических записи, u3 - одна, u2 - ни одной
	seed := func(id, userID string) {
		d := models.Distribution{RequestID: "old-" + id, UserID: userID, Status: models.DistributionStatusRejected}
		d.ID = id
		require.NoError(t, distRepo.Create(&d))
	}
	seed("d1", "u1")
	seed("d2", "u1")
	seed("d3", "u3")

	svc := NewMatchingService(userRepo, distRepo)
	req := testRequest("r1", cat.ID, city.ID)

	candidates, err := svc.FindCandidates(req)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, "u2", candidates[0].ID)
	assert.Equal(t, "u3", candidates[1].ID)
	assert.Equal(t, "u1", candidates[2].ID)
}

func TestFindCandidates_EqualLoadTieBreaksByID(t *testing.T) {
	userRepo := newFakeUserRepo()
	requestRepo := newFakeRequestRepo()
	distRepo := newFakeDistributionRepo(requestRepo)

	cat := testCategory("cat-1")
	city := testCity("city-1")
	for _, id := range []string{"u3", "u1", "u2"} {
		u := testUser(id, []models.Category{cat}, []models.City{city}, nil)
		require.NoError(t, userRepo.Create(&u))
	}

	svc := NewMatchingService(userRepo, distRepo)
	candidates, err := svc.FindCandidates(testRequest("r1", cat.ID, city.ID))
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, "u1", candidates[0].ID)
	assert.Equal(t, "u2", candidates[1].ID)
	assert.Equal(t, "u3", candidates[2].ID)
}
