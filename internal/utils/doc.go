// Package utils holds the CLI plumbing shared by every command: the Viper
// backed ConfigurationLoader, the zap LoggerFactory and the exit status
// errors that main translates into process exit codes.
package utils
