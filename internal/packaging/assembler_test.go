package packaging_test

import (
	"archive/zip"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapkeep/printworks/internal/imaging"
	"github.com/snapkeep/printworks/internal/model"
	"github.com/snapkeep/printworks/internal/packaging"
)

func fixtures() (*model.User, *model.Order) {
	user := &model.User{
		Username:  "ana",
		FirstName: "Ana",
		LastName:  "Silva",
	}
	order := &model.Order{
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Address: model.Address{
			Line1:    "12 Harbour St",
			Suburb:   "Sydney",
			State:    "NSW",
			Postcode: "2000",
			Country:  "Australia",
		},
	}
	return user, order
}

func TestPackageName(t *testing.T) {
	user, order := fixtures()
	assert.Equal(t, "ana-2026-03-01-to-2026-03-31", packaging.PackageName(user, order))
}

func TestManifestFormat(t *testing.T) {
	user, order := fixtures()

	want := "31-03-2026\n" +
		"@ana\n" +
		"Ana Silva\n" +
		"12 Harbour St\n" +
		"Sydney\n" +
		"NSW, 2000\n" +
		"Australia"
	assert.Equal(t, want, packaging.Manifest(user, order))
}

func TestManifestIncludesSecondAddressLine(t *testing.T) {
	user, order := fixtures()
	order.Address.Line2 = "Unit 4"

	assert.Contains(t, packaging.Manifest(user, order), "12 Harbour St\nUnit 4\nSydney")
}

func TestAssembleZipsImagesAndManifest(t *testing.T) {
	dir := t.TempDir()
	user, order := fixtures()

	var images []imaging.LocalImage
	for _, name := range []string{"ana-one.jpg", "ana-two.jpg"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("img:"+name), 0o644))
		images = append(images, imaging.LocalImage{Path: p, Name: name})
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	zipPath, err := packaging.NewAssembler(log).Assemble(dir, user, order, images)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ana-2026-03-01-to-2026-03-31.zip"), zipPath)

	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()

	got := map[string]string{}
	for _, f := range r.File {
		rc, oerr := f.Open()
		require.NoError(t, oerr)
		data, rerr := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, rerr)
		got[f.Name] = string(data)
	}

	require.Len(t, got, 3)
	assert.Equal(t, "img:ana-one.jpg", got["ana-one.jpg"])
	assert.Equal(t, "img:ana-two.jpg", got["ana-two.jpg"])
	assert.Equal(t, packaging.Manifest(user, order), got["ana-readme.txt"])
}
