package main

import (
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"taskboard/board"
	"taskboard/client"
	"taskboard/tui"
)

const defaultAPIURL = "http://localhost:8080/api"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not found, relying on environment variables")
	}

	// The terminal belongs to the board, so logs go to a file.
	logger := log.New()
	logPath := os.Getenv("TASKBOARD_LOG_FILE")
	if logPath == "" {
		logPath = "taskboard.log"
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("open log file: %v", err)
	}
	defer f.Close()
	logger.SetOutput(f)
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		logger.SetLevel(log.DebugLevel)
	}

	apiURL := os.Getenv("TASKBOARD_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	repo := client.New(apiURL, client.WithLogger(logger))
	store := board.NewStore(repo, logger)
	controller := board.NewController(store)

	app := tui.New(store, controller)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		logger.WithError(err).Error("program exited with error")
		os.Exit(1)
	}
}
