package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bozor/internal/models"
)

func TestCommentsMaintainProductRating(t *testing.T) {
	db := InitTestDB(t)
	f := seedFixtures(t, db)
	svc := NewCommentService(db)
	ctx := context.Background()

	buyer := Actor{ID: f.buyer.ID, Role: models.RoleUser}
	seller := Actor{ID: f.seller.ID, Role: models.RoleSeller}

	first, err := svc.Create(ctx, buyer, CreateCommentInput{ProductID: f.tea.ID, Message: "great", Star: 5})
	require.NoError(t, err)
	_, err = svc.Create(ctx, seller, CreateCommentInput{ProductID: f.tea.ID, Message: "fine", Star: 2})
	require.NoError(t, err)

	var tea models.Product
	require.NoError(t, db.First(&tea, f.tea.ID).Error)
	assert.Equal(t, 2, tea.RatingCount)
	assert.InDelta(t, 3.5, tea.RatingAverage, 0.001)

	star := 3
	_, err = svc.Update(ctx, buyer, first.ID, UpdateCommentInput{Star: &star})
	require.NoError(t, err)
	require.NoError(t, db.First(&tea, f.tea.ID).Error)
	assert.InDelta(t, 2.5, tea.RatingAverage, 0.001)

	require.NoError(t, svc.Delete(ctx, buyer, first.ID))
	require.NoError(t, db.First(&tea, f.tea.ID).Error)
	assert.Equal(t, 1, tea.RatingCount)
	assert.InDelta(t, 2.0, tea.RatingAverage, 0.001)
}

func TestCommentValidationAndOwnership(t *testing.T) {
	db := InitTestDB(t)
	f := seedFixtures(t, db)
	svc := NewCommentService(db)
	ctx := context.Background()
	buyer := Actor{ID: f.buyer.ID, Role: models.RoleUser}

	_, err := svc.Create(ctx, buyer, CreateCommentInput{ProductID: f.tea.ID, Message: "ok", Star: 6})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, buyer, CreateCommentInput{ProductID: f.tea.ID, Message: "x", Star: 4})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, buyer, CreateCommentInput{ProductID: 9999, Message: "nice", Star: 4})
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := svc.Create(ctx, buyer, CreateCommentInput{ProductID: f.tea.ID, Message: "nice", Star: 4})
	require.NoError(t, err)

	msg := "edited"
	_, err = svc.Update(ctx, Actor{ID: f.seller.ID, Role: models.RoleSeller}, c.ID, UpdateCommentInput{Message: &msg})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, Actor{ID: 999, Role: models.RoleAdmin}, c.ID, UpdateCommentInput{Message: &msg})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Message)
}

func TestCommentQueries(t *testing.T) {
	db := InitTestDB(t)
	f := seedFixtures(t, db)
	svc := NewCommentService(db)
	ctx := context.Background()
	buyer := Actor{ID: f.buyer.ID, Role: models.RoleUser}

	_, err := svc.Create(ctx, buyer, CreateCommentInput{ProductID: f.tea.ID, Message: "lovely tea", Star: 5})
	require.NoError(t, err)
	_, err = svc.Create(ctx, buyer, CreateCommentInput{ProductID: f.coffee.ID, Message: "too bitter", Star: 2})
	require.NoError(t, err)

	byProduct, err := svc.ByProduct(ctx, f.coffee.ID)
	require.NoError(t, err)
	require.Len(t, byProduct, 1)
	assert.Equal(t, "too bitter", byProduct[0].Message)

	byUser, err := svc.ByUser(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	got, err := svc.Get(ctx, byProduct[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got.User)
	assert.Equal(t, f.buyer.FullName, got.User.FullName)

	_, err = svc.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
