package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	ApiKey    string `mapstructure:"api_key"`
	UserId    int    `mapstructure:"user_id"`
	Debug     bool   `mapstructure:"debug"`
	OutputDir string `mapstructure:"output_dir"`
	Threads   uint   `mapstructure:"threads"`
}

func initConfig() {
	viper.AddConfigPath(".")
	viper.AddConfigPath("$XDG_CONFIG_HOME/gelbooru")
	viper.AddConfigPath("$HOME/.config/gelbooru")
	viper.AddConfigPath("/etc/gelbooru")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("GELBOORU")
	viper.AutomaticEnv()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			logger.WithError(err).Fatalln("reading config failed")
		}
	}

	if err := viper.Unmarshal(&configStruct); err != nil {
		logger.WithError(err).Fatalln("parsing config failed")
	}

	logger.SetFormatter(&logrus.TextFormatter{ForceColors: true})
	if configStruct.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}
}
