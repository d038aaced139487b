package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"jordanella.com/aim-loop-go/internal/runner"
)

func main() {
	settingsPath := flag.String("config", "Settings.ini", "Path to Settings.ini or a YAML profile")
	onnxLib := flag.String("onnxruntime", "", "Path to the onnxruntime shared library (default: platform library name)")
	logDir := flag.String("logs", "logs", "Directory for the session event log (empty to disable)")
	modelPath := flag.String("model", "", "Model to load instead of the configured one")
	flag.Parse()

	r := runner.New(runner.Options{
		SettingsPath: *settingsPath,
		OnnxLibrary:  *onnxLib,
		LogDir:       *logDir,
	})
	if err := r.Initialize(); err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer r.Shutdown()

	var err error
	if *modelPath != "" {
		err = r.StartModel(*modelPath)
	} else {
		err = r.Start()
	}
	if err != nil {
		log.Printf("Failed to start detection loop: %v", err)
		return
	}

	// Run until interrupted
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Println("Shutting down")
}
