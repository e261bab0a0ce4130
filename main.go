// Package main provides the entry point for the segmentation annotator.
package main

import (
	"flag"
	"fmt"
	"os"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"seg-annotator/internal/app"
	"seg-annotator/internal/config"
	"seg-annotator/internal/segment"
	"seg-annotator/internal/version"
	"seg-annotator/ui/mainwindow"
	"seg-annotator/ui/prefs"
)

const appID = "io.github.seg-annotator"

func main() {
	configPath := flag.String("config", "annotator.toml", "Path to TOML configuration")
	datasetDir := flag.String("dataset", "", "Image directory (overrides dataset_dir)")
	logLevel := flag.String("log-level", "", "Log level (overrides log_level)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if *datasetDir != "" {
		cfg.DatasetDir = *datasetDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	logger.SetLevel(cfg.Level())
	log := logrus.NewEntry(logger)

	log.WithFields(logrus.Fields{
		"version": version.String(),
		"config":  *configPath,
		"dataset": cfg.DatasetDir,
	}).Info("Starting annotator")

	appPrefs := prefs.Load()
	seg := segment.NewColorRegion(segment.Params{
		Tolerance:   cfg.Segment.Tolerance,
		CloseKernel: cfg.Segment.CloseKernel,
	}, log)

	session, err := app.Open(cfg, seg, appPrefs.FloatWithFallback(prefs.KeyTransparency, -1), log)
	if err != nil {
		log.WithError(err).Error("Failed to open dataset")
		os.Exit(1)
	}

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.AnnotatorTheme{})

	win := mainwindow.New(fyneApp, session, appPrefs, log)
	win.Start()
	win.ShowAndRun()
}
