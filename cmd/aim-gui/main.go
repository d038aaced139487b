package main

import (
	"flag"
	"log"

	"fyne.io/fyne/v2/app"

	"jordanella.com/aim-loop-go/internal/gui"
	"jordanella.com/aim-loop-go/internal/runner"
)

func main() {
	settingsPath := flag.String("config", "Settings.ini", "Path to Settings.ini or a YAML profile")
	onnxLib := flag.String("onnxruntime", "", "Path to the onnxruntime shared library (default: platform library name)")
	flag.Parse()

	r := runner.New(runner.Options{
		SettingsPath: *settingsPath,
		OnnxLibrary:  *onnxLib,
		LogDir:       "logs",
	})
	if err := r.Initialize(); err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	// Create Fyne application
	myApp := app.NewWithID("com.jordanella.aim-loop-go")
	myApp.Settings().SetTheme(&gui.AimTheme{})

	mainWindow := myApp.NewWindow("Aim Loop")
	mainWindow.Resize(gui.DefaultWindowSize)

	controller := gui.NewController(r, myApp, mainWindow)
	mainWindow.SetContent(controller.BuildUI())
	mainWindow.SetMaster()
	controller.Start()
	mainWindow.ShowAndRun()

	// Cleanup on exit
	controller.Shutdown()
}
