package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexigraph/lexigraph/pkg/extractor"
	"github.com/lexigraph/lexigraph/pkg/types"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, 256, cfg.Cache.MaxSize)
	assert.Equal(t, 300, cfg.Cache.TTLSeconds)
	assert.Equal(t, "semantic", cfg.Chunking.Mode)
	assert.Equal(t, 0.3, cfg.Retrieval.KeywordWeight)
	assert.Equal(t, 0.7, cfg.Retrieval.VectorWeight)
	assert.True(t, cfg.CircuitBreaker.Enabled)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("server.port", 9090)
	viper.Set("store.type", "badger")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "badger", cfg.Store.Type)
}

func TestEnvOverrides(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Setenv("NEO4J_URI", "bolt://graph:7687")
	t.Setenv("SERVER_PORT", "7001")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "bolt://graph:7687", cfg.Store.URI)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
}

func extractionPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "extraction.json")
}

func TestExtractionLoadMissingFileReturnsDefault(t *testing.T) {
	s := NewExtractionStore(extractionPath(t), nil)

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, cfg.Types, 7)
	assert.NotEmpty(t, cfg.Rules)
}

func TestExtractionSaveLoadRoundtrip(t *testing.T) {
	s := NewExtractionStore(extractionPath(t), nil)

	cfg := extractor.DefaultConfig()
	cfg.Dictionaries[types.EntityTypeTech] = []string{"Kubernetes", "Raft"}
	cfg.Rules = append(cfg.Rules, extractor.RuleConfig{
		Name:    "person_title",
		Pattern: `(?:教授|博士)[\p{Han}]{2,3}`,
		Enabled: true,
	})
	require.NoError(t, s.Save(cfg))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Kubernetes", "Raft"}, loaded.Dictionaries[types.EntityTypeTech])
	assert.Equal(t, cfg.Rules, loaded.Rules)
}

func TestExtractionLoadRepairsMalformedJSON(t *testing.T) {
	path := extractionPath(t)
	s := NewExtractionStore(path, nil)

	// Trailing comma and single quotes: invalid JSON, typical hand edit.
	broken := `{
		"dictionaries": {"TECH": ['Go', 'Rust'],},
		"rules": []
	}`
	require.NoError(t, os.WriteFile(path, []byte(broken), 0o644))

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Rust"}, cfg.Dictionaries[types.EntityTypeTech])
}

func TestExtractionReset(t *testing.T) {
	path := extractionPath(t)
	s := NewExtractionStore(path, nil)

	custom := extractor.Config{Dictionaries: map[types.EntityType][]string{types.EntityTypeTech: {"x"}}}
	require.NoError(t, s.Save(custom))

	cfg, err := s.Reset()
	require.NoError(t, err)
	assert.Len(t, cfg.Types, 7)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.Types, 7)
	assert.Empty(t, loaded.Dictionaries[types.EntityTypeTech])
}

func TestExtractionYAMLRoundtrip(t *testing.T) {
	src := NewExtractionStore(extractionPath(t), nil)
	cfg := extractor.DefaultConfig()
	cfg.Dictionaries[types.EntityTypeOrg] = []string{"ABC公司"}
	require.NoError(t, src.Save(cfg))

	raw, err := src.ExportYAML()
	require.NoError(t, err)

	dst := NewExtractionStore(extractionPath(t), nil)
	imported, err := dst.ImportYAML(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC公司"}, imported.Dictionaries[types.EntityTypeOrg])

	loaded, err := dst.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC公司"}, loaded.Dictionaries[types.EntityTypeOrg])
}
