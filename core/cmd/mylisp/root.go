package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	Version = "dev"
	Commit  = "none"
)

// SetVersionInfo sets the version information from main.go
func SetVersionInfo(version, commit string) {
	Version = version
	Commit = commit
	rootCmd.Version = fmt.Sprintf("%s (%s)", Version, Commit)
}

var rootCmd = &cobra.Command{
	Use:   "mylisp",
	Short: "A small Lisp with S-expressions and Q-expressions",
	Long: `mylisp evaluates a small Lisp dialect: numbers, symbols, S-expressions
that are reduced, and Q-expressions that stay quoted until passed to eval.

Run without a subcommand to start the interactive prompt.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRepl(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: ./mylisp.yaml or ~/.mylisp/mylisp.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("session", "", "Session log to replay at startup and append definitions to")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("session", rootCmd.PersistentFlags().Lookup("session"))

	addReplFlags(rootCmd)

	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
}

func initConfig() {
	setDefaults()

	viper.SetEnvPrefix("MYLISP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mylisp")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".mylisp"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.WithError(err).Warn("Failed to read config file")
		}
	} else {
		log.WithFields(log.Fields{
			"file": viper.ConfigFileUsed(),
		}).Debug("Loaded config")
	}

	level, err := log.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		log.WithError(err).Warn("Invalid log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("prompt", "NnamLISP> ")
	viper.SetDefault("session", "")
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.path", defaultHistoryPath())
	viper.SetDefault("server.network", "unix")
	viper.SetDefault("server.address", filepath.Join(os.TempDir(), "mylisp.sock"))
	viper.SetDefault("server.rate", 0)
	viper.SetDefault("server.burst", 0)
	viper.SetDefault("server.max_traces", 1000)
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mylisp-history.db"
	}
	return filepath.Join(home, ".mylisp", "history.db")
}
