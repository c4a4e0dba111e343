package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result
// to path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to Fee! Let's connect the web front-end to your Fee API.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. API base URL.
	apiPrompt := promptui.Prompt{
		Label:    "Fee API base URL",
		Default:  cfg.APIURL,
		Validate: func(s string) error { return validateHTTPURL("api_url", s) },
	}
	apiURL, err := apiPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("api url: %w", err)
	}
	cfg.APIURL = strings.TrimSpace(apiURL)

	// 2. File host, defaulting to the API's origin.
	hostPrompt := promptui.Prompt{
		Label:    "Host serving uploaded files",
		Default:  fileHostFor(cfg.APIURL),
		Validate: func(s string) error { return validateHTTPURL("file_host", s) },
	}
	fileHost, err := hostPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("file host: %w", err)
	}
	cfg.FileHost = strings.TrimRight(strings.TrimSpace(fileHost), "/")

	// 3. Port.
	portPrompt := promptui.Prompt{
		Label:   "Port for the web front-end",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 4. Session store.
	storePrompt := promptui.Select{
		Label: "Where should browser sessions be kept",
		Items: []string{
			"sqlite - survive restarts",
			"memory - lost on restart",
		},
	}
	storeIdx, _, err := storePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("session store selection: %w", err)
	}
	stores := []SessionStore{SessionStoreSQLite, SessionStoreMemory}
	cfg.SessionStore = stores[storeIdx]

	// 5. Data directory for the sqlite store.
	if cfg.SessionStore == SessionStoreSQLite {
		dataPrompt := promptui.Prompt{
			Label:   "Data directory",
			Default: cfg.DataDir,
		}
		dataDir, err := dataPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("data dir: %w", err)
		}
		cfg.DataDir = dataDir
	}

	// 6. Log level.
	levelPrompt := promptui.Select{
		Label: "Log level",
		Items: []string{"info", "debug", "warn", "error"},
	}
	_, level, err := levelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("log level selection: %w", err)
	}
	cfg.Log.Level = level

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	fmt.Printf("Run `fee serve` and open http://localhost:%d\n", cfg.Port)
	return cfg, nil
}

// fileHostFor returns the origin of apiURL, where the Fee API serves
// uploaded files by default.
func fileHostFor(apiURL string) string {
	u, err := parseOrigin(apiURL)
	if err != nil {
		return DefaultConfig().FileHost
	}
	return u
}
