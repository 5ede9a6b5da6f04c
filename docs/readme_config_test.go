package docs_test

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/ghtools/cmd/cli"
	"github.com/temirov/ghtools/internal/utils"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	parentDirectoryReferenceConstant = ".."
	keyPathSeparatorConstant         = "."
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
)

func readReadmeConfigurationSnippet(testInstance *testing.T) string {
	testInstance.Helper()
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	contentBytes, readError := os.ReadFile(filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant))
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	fenceEndRelativeIndex := strings.Index(contentText[headerIndex:], yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : headerIndex+fenceEndRelativeIndex])
}

func collectKeyPaths(prefix string, node map[string]any, keyPaths map[string]struct{}) {
	for key, value := range node {
		keyPath := key
		if len(prefix) > 0 {
			keyPath = prefix + keyPathSeparatorConstant + key
		}
		if nested, isMapping := value.(map[string]any); isMapping {
			collectKeyPaths(keyPath, nested, keyPaths)
			continue
		}
		keyPaths[keyPath] = struct{}{}
	}
}

func sortedKeyPaths(content []byte, testInstance *testing.T) []string {
	testInstance.Helper()
	var document map[string]any
	require.NoError(testInstance, yaml.Unmarshal(content, &document))

	keyPaths := map[string]struct{}{}
	collectKeyPaths("", document, keyPaths)
	sorted := make([]string, 0, len(keyPaths))
	for keyPath := range keyPaths {
		sorted = append(sorted, keyPath)
	}
	sort.Strings(sorted)
	return sorted
}

func TestReadmeConfigurationDecodesStrictly(testInstance *testing.T) {
	snippet := readReadmeConfigurationSnippet(testInstance)

	var document map[string]any
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippet), &document))

	var configuration cli.ApplicationConfiguration
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  utils.ConfigurationDecodeHook(),
		ErrorUnused: true,
		Result:      &configuration,
	})
	require.NoError(testInstance, decoderError)
	require.NoError(testInstance, decoder.Decode(document))

	require.Equal(testInstance, "high", configuration.Tools.Audit.FailOn)
	require.Equal(testInstance, []string{".github/workflows"}, configuration.Tools.Validate.Paths)
	require.Equal(testInstance, 50, configuration.Tools.FailedRun.MaximumExcerpts)
}

func TestReadmeConfigurationDocumentsEveryKey(testInstance *testing.T) {
	snippet := readReadmeConfigurationSnippet(testInstance)
	embeddedDefaults, _ := cli.EmbeddedDefaultConfiguration()

	require.Equal(testInstance, sortedKeyPaths(embeddedDefaults, testInstance), sortedKeyPaths([]byte(snippet), testInstance))
}

func TestReadmeConfigurationLoadsAsConfigFile(testInstance *testing.T) {
	snippet := readReadmeConfigurationSnippet(testInstance)
	configurationPath := filepath.Join(testInstance.TempDir(), "config.yaml")
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(snippet), 0o600))

	embeddedDefaults, configurationType := cli.EmbeddedDefaultConfiguration()
	loader := utils.NewConfigurationLoader(utils.ConfigurationLoaderOptions{
		FileName:          "config",
		FileType:          configurationType,
		EnvironmentPrefix: "GHTOOLSREADME",
		EmbeddedDefaults:  embeddedDefaults,
	})

	var configuration cli.ApplicationConfiguration
	loaded, loadError := loader.Load(configurationPath, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, configurationPath, loaded.ConfigFileUsed)
	require.Equal(testInstance, []string{"my-org"}, configuration.Tools.Search.Owners)
	require.True(testInstance, configuration.Tools.Validate.Schema)
}
