//go:build !integration

package postgres

import (
	"context"
	"testing"
	"time"

	"promoHunter/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertSnapshot_RejectsMissingItemID(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewOfferRepository(db)

	err := repo.UpsertSnapshot(context.Background(), domain.Offer{})
	assert.Error(t, err)
}

func TestAddPricePoint(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOfferRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "offer_prices"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.AddPricePoint(context.Background(), 42, 99.9)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOfferRepository(db)

	rows := sqlmock.NewRows([]string{"item_id", "name", "price", "created_at", "updated_at"}).
		AddRow(42, "Fone", 99.9, time.Now(), time.Now())
	mock.ExpectQuery(`SELECT \* FROM "offers"`).
		WillReturnRows(rows)

	offer, err := repo.FindByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Fone", offer.Name)
}

func TestFindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOfferRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "offers"`).
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}))

	_, err := repo.FindByID(context.Background(), 42)
	assert.Error(t, err)
}
