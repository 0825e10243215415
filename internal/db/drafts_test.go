package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jclemens/fieldtm/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestSaveAndGetDraft(t *testing.T) {
	database := testDB(t)

	d := &models.ProjectDraft{
		Name:           "Kathmandu buildings",
		OrganisationID: 7,
		Hashtags:       []string{"#hot"},
		Extract:        models.ExtractSource{Kind: models.ExtractOSM},
	}
	require.NoError(t, database.SaveDraft(d))
	assert.NotEmpty(t, d.ID, "first save assigns an id")

	got, err := database.GetDraft(d.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Kathmandu buildings", got.Name)
	assert.Equal(t, 7, got.OrganisationID)
	assert.Equal(t, models.ExtractOSM, got.Extract.Kind)
}

func TestGetDraftMissing(t *testing.T) {
	database := testDB(t)

	got, err := database.GetDraft("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveDraftUpdates(t *testing.T) {
	database := testDB(t)

	d := &models.ProjectDraft{Name: "before"}
	require.NoError(t, database.SaveDraft(d))

	d.Name = "after"
	require.NoError(t, database.SaveDraft(d))

	got, err := database.GetDraft(d.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)
}

func TestLatestDraft(t *testing.T) {
	database := testDB(t)

	got, err := database.LatestDraft()
	require.NoError(t, err)
	assert.Nil(t, got)

	first := &models.ProjectDraft{Name: "first"}
	require.NoError(t, database.SaveDraft(first))

	second := &models.ProjectDraft{Name: "second"}
	require.NoError(t, database.SaveDraft(second))

	got, err = database.LatestDraft()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Name)
}

func TestDeleteDraft(t *testing.T) {
	database := testDB(t)

	d := &models.ProjectDraft{Name: "doomed"}
	require.NoError(t, database.SaveDraft(d))
	require.NoError(t, database.DeleteDraft(d.ID))

	got, err := database.GetDraft(d.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSettings(t *testing.T) {
	database := testDB(t)

	val, err := database.GetSetting("last_draft_id")
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, database.SetSetting("last_draft_id", "abc"))
	require.NoError(t, database.SetSetting("last_draft_id", "def"))

	val, err = database.GetSetting("last_draft_id")
	require.NoError(t, err)
	assert.Equal(t, "def", val)
}
