package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	configurationKeySeparatorConstant               = "."
	environmentKeySeparatorConstant                 = "_"
	listValueSeparatorConstant                      = ","
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
)

// ConfigurationLoaderOptions describes where configuration is looked up.
type ConfigurationLoaderOptions struct {
	// FileName is the configuration file name without extension.
	FileName string
	FileType string
	// EnvironmentPrefix namespaces overrides, so tools.audit.fail_on is read from PREFIX_TOOLS_AUDIT_FAIL_ON.
	EnvironmentPrefix string
	SearchPaths       []string
	// EmbeddedDefaults is merged first. Only keys it declares can be overridden from the environment.
	EmbeddedDefaults []byte
}

// ConfigurationLoader resolves settings from embedded defaults, an optional
// configuration file and environment variables, in increasing precedence.
type ConfigurationLoader struct {
	options ConfigurationLoaderOptions
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader for the supplied options.
func NewConfigurationLoader(options ConfigurationLoaderOptions) *ConfigurationLoader {
	copied := options
	copied.SearchPaths = append([]string(nil), options.SearchPaths...)
	copied.EmbeddedDefaults = append([]byte(nil), options.EmbeddedDefaults...)
	return &ConfigurationLoader{options: copied}
}

// ConfigurationDecodeHook converts loosely typed values, such as
// comma-separated environment variables, into the target field types.
func ConfigurationDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listValueSeparatorConstant),
	)
}

// Load populates target. When configurationFilePath is empty the search
// paths are scanned and a missing file is not an error.
func (loader *ConfigurationLoader) Load(configurationFilePath string, target any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.options.FileName)
	viperInstance.SetConfigType(loader.options.FileType)

	if len(loader.options.EmbeddedDefaults) > 0 {
		if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.options.EmbeddedDefaults)); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
		}
	}

	for _, searchPath := range loader.options.SearchPaths {
		viperInstance.AddConfigPath(searchPath)
	}
	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	}

	viperInstance.SetEnvPrefix(loader.options.EnvironmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySeparatorConstant, environmentKeySeparatorConstant))
	viperInstance.AutomaticEnv()

	if readError := viperInstance.MergeInConfig(); readError != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(readError, &notFoundError) {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
		}
	}

	if unmarshalError := viperInstance.Unmarshal(target, viper.DecodeHook(ConfigurationDecodeHook())); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}
