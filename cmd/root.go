package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davestewart/bskyinfo/internal/utils"
	"github.com/davestewart/bskyinfo/pkg/options"
	"github.com/davestewart/bskyinfo/pkg/store"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	 _         _          _        __
	| |__  ___| | ___   _(_)_ __  / _| ___
	| '_ \/ __| |/ / | | | | '_ \| |_ / _ \
	| |_) \__ \   <| |_| | | | | |  _| (_) |
	|_.__/|___/_|\_\\__, |_|_| |_|_|  \___/
	                |___/

`

	// bump when the persisted record format changes
	cacheVersion = "1.5.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bskyinfo",
	Short: "Profile annotations for Bluesky pages.",
	Long: LOGO + `bskyinfo augments saved or live Bluesky pages with extra profile info
(bio, follower counts, engagement signals) pulled from the network's own API
and cached locally between runs.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bskyinfo.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("cache", "", "Path to the profile cache (default is $HOME/.bskyinfo.sqlite)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".bskyinfo")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.bskyinfo.yaml"
			options.SetDefaults(viper.GetViper())
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// loadOptions returns the effective option set: persisted overrides merged
// over defaults.
func loadOptions() *options.Options {
	return options.Load(viper.GetViper())
}

// cachePath resolves the profile cache location.
func cachePath() (string, error) {
	path, _ := rootCmd.PersistentFlags().GetString("cache")
	if path != "" {
		return path, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return home + "/.bskyinfo.sqlite", nil
}

// openStore opens the locked profile cache, running the version gate and
// retention sweep.
func openStore(opts *options.Options) (*store.DB, *utils.CacheLock, error) {
	path, err := cachePath()
	if err != nil {
		return nil, nil, err
	}
	lock, err := utils.NewCacheLock(path)
	if err != nil {
		return nil, nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, nil, err
	}
	db, err := store.Open(path, cacheVersion, opts.Thresholds.RetentionDays)
	if err != nil {
		lock.Unlock()
		return nil, nil, err
	}
	return db, lock, nil
}
