package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtp/newsletter/internal/domain/shared"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestListDiscoversTemplatePairs(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "classic_de.html", "<html></html>")
	writeTemplate(t, dir, "classic_en.html", "<html></html>")
	writeTemplate(t, dir, "modern_de.html", "<html></html>")
	writeTemplate(t, dir, "README.md", "not a template")
	writeTemplate(t, dir, "broken_fr.html", "wrong language")

	descriptors, err := NewRegistry(dir).List()
	require.NoError(t, err)
	require.Len(t, descriptors, 3)

	assert.Equal(t, "classic", descriptors[0].Name)
	assert.Equal(t, "de", descriptors[0].Language)
	assert.Equal(t, "classic", descriptors[1].Name)
	assert.Equal(t, "en", descriptors[1].Language)
	assert.Equal(t, "modern", descriptors[2].Name)
}

func TestListMissingDirectory(t *testing.T) {
	descriptors, err := NewRegistry(filepath.Join(t.TempDir(), "nope")).List()
	require.NoError(t, err)
	assert.Empty(t, descriptors)
}

func TestResolveExactMatchOnly(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "classic_de.html", "<html></html>")
	registry := NewRegistry(dir)

	descriptor, err := registry.Resolve("classic", "de")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "classic_de.html"), descriptor.Path)

	_, err = registry.Resolve("classic", "en")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	// No fuzzy matching on partial names
	_, err = registry.Resolve("class", "de")
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestValidateAcceptsKnownPlaceholders(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "ok_de.html", `<html>
{{.FormattedTotalAmount}}
{{range .Products}}{{.Name}} {{.FormattedPrice}}{{if .HasDiscount}}{{.OriginalPrice}}{{end}}{{end}}
</html>`)
	registry := NewRegistry(dir)

	descriptor, err := registry.Resolve("ok", "de")
	require.NoError(t, err)

	result, err := registry.Validate(descriptor)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateRejectsUnknownPlaceholders(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "bad_de.html", `<html>
{{.NoSuchGlobal}}
{{range .Products}}{{.NoSuchField}}{{end}}
</html>`)
	registry := NewRegistry(dir)

	descriptor, err := registry.Resolve("bad", "de")
	require.NoError(t, err)

	result, err := registry.Validate(descriptor)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "NoSuchGlobal")
	assert.Contains(t, result.Errors[1], "NoSuchField")
}

func TestValidateRejectsBadSyntax(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "broken_de.html", "{{.Unclosed")
	registry := NewRegistry(dir)

	descriptor, err := registry.Resolve("broken", "de")
	require.NoError(t, err)

	result, err := registry.Validate(descriptor)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "syntax")
}

func TestInstallDefaults(t *testing.T) {
	dir := t.TempDir()
	registry := NewRegistry(dir)

	result, err := registry.InstallDefaults(false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"newsletter_de.html", "newsletter_en.html"}, result.Installed)
	assert.Empty(t, result.Skipped)

	// Bundled templates must pass their own validation
	descriptors, err := registry.List()
	require.NoError(t, err)
	require.Len(t, descriptors, 2)
	for _, descriptor := range descriptors {
		validation, err := registry.Validate(descriptor)
		require.NoError(t, err)
		assert.True(t, validation.Valid, "bundled template %s: %v", descriptor.Filename(), validation.Errors)
	}
}

func TestInstallDefaultsProtectsCustomizations(t *testing.T) {
	dir := t.TempDir()
	registry := NewRegistry(dir)
	writeTemplate(t, dir, "newsletter_de.html", "customized")

	result, err := registry.InstallDefaults(false)
	require.NoError(t, err)
	assert.Contains(t, result.Skipped, "newsletter_de.html")

	content, err := os.ReadFile(filepath.Join(dir, "newsletter_de.html"))
	require.NoError(t, err)
	assert.Equal(t, "customized", string(content))

	// Explicit overwrite replaces the file
	result, err = registry.InstallDefaults(true)
	require.NoError(t, err)
	assert.Contains(t, result.Installed, "newsletter_de.html")

	content, err = os.ReadFile(filepath.Join(dir, "newsletter_de.html"))
	require.NoError(t, err)
	assert.NotEqual(t, "customized", string(content))
}
