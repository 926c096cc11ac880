package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franckalain/nutritionscore/internal/additives"
	"github.com/franckalain/nutritionscore/internal/models"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "additives.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func risk(r models.RiskLevel) *models.RiskLevel {
	return &r
}

func TestSeedAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	records := []models.AdditiveRecord{
		{ENumber: "E330", Name: "Citric acid", Type: "acid", EFSARisk: risk(models.RiskNone), Risk: models.RiskNone},
		{ENumber: "e250", Name: "Sodium nitrite", Type: "preservative", EFSARisk: risk(models.RiskHigh), Risk: models.RiskHigh},
		{ENumber: "e200", Name: "Sorbic acid", Type: "preservative", Risk: models.RiskLow},
	}
	require.NoError(t, db.SeedAdditives(ctx, records))

	n, err := db.CountAdditives(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := db.ListAdditives(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"e330", "e250", "e200"}, []string{got[0].ENumber, got[1].ENumber, got[2].ENumber})
	assert.Nil(t, got[2].EFSARisk)
	require.NotNil(t, got[1].EFSARisk)
	assert.Equal(t, models.RiskHigh, *got[1].EFSARisk)
}

func TestSaveAdditive_UpsertKeepsPosition(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.SaveAdditive(ctx, &models.AdditiveRecord{ENumber: "e100", Name: "Curcumin", Risk: models.RiskNone}))
	require.NoError(t, db.SaveAdditive(ctx, &models.AdditiveRecord{ENumber: "e102", Name: "Tartrazine", Risk: models.RiskHigh}))
	require.NoError(t, db.SaveAdditive(ctx, &models.AdditiveRecord{ENumber: "E100", Name: "Curcumin (turmeric)", Risk: models.RiskLow}))

	got, err := db.ListAdditives(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e100", got[0].ENumber)
	assert.Equal(t, "Curcumin (turmeric)", got[0].Name)
	assert.Equal(t, models.RiskLow, got[0].Risk)
	assert.Equal(t, "e102", got[1].ENumber)
}

func TestGetAdditive(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.SaveAdditive(ctx, &models.AdditiveRecord{
		ENumber: "e621", Name: "Monosodium glutamate", Type: "flavour enhancer",
		EFSARisk: risk(models.RiskLow), Risk: models.RiskModerate,
	}))

	rec, err := db.GetAdditive(ctx, "en:E621")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Monosodium glutamate", rec.Name)
	assert.Equal(t, models.RiskModerate, rec.Risk)
	assert.Equal(t, models.RiskLow, rec.EffectiveRisk())

	rec, err = db.GetAdditive(ctx, "e999")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLoadRegistry(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	reg, err := LoadRegistry(ctx, db)
	require.NoError(t, err)

	want, err := additives.Default()
	require.NoError(t, err)
	assert.Equal(t, want.Records(), reg.Records())

	// a second load must not seed again
	require.NoError(t, db.SaveAdditive(ctx, &models.AdditiveRecord{ENumber: "e9999", Name: "Test additive", Risk: models.RiskHigh}))
	reg, err = LoadRegistry(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, want.Len()+1, reg.Len())

	rec, ok := reg.Lookup("e9999")
	require.True(t, ok)
	assert.Equal(t, models.RiskHigh, rec.Risk)
}
