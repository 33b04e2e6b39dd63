package config

import (
	"encoding/json"
	"os"
	"os/user"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
)

type Config struct {
	Name    string `json:"name"`
	Server  string `json:"server"`
	TabSize int    `json:"tab_size"`
	Theme   string `json:"theme"`
}

type ColorScheme struct {
	Name            string
	Background      tcell.Color
	Foreground      tcell.Color
	Selection       tcell.Color
	Hint            tcell.Color
	StatusBarBg     tcell.Color
	StatusBarFg     tcell.Color
	StatusBarModeBg tcell.Color
}

var Themes = map[string]*ColorScheme{
	"dark": {
		Name:            "Dark",
		Background:      tcell.ColorBlack,
		Foreground:      tcell.ColorWhite,
		Selection:       tcell.ColorDarkBlue,
		Hint:            tcell.ColorGray,
		StatusBarBg:     tcell.ColorDarkBlue,
		StatusBarFg:     tcell.ColorWhite,
		StatusBarModeBg: tcell.ColorBlue,
	},
	"light": {
		Name:            "Light",
		Background:      tcell.ColorWhite,
		Foreground:      tcell.ColorBlack,
		Selection:       tcell.ColorLightBlue,
		Hint:            tcell.ColorGray,
		StatusBarBg:     tcell.ColorLightBlue,
		StatusBarFg:     tcell.ColorBlack,
		StatusBarModeBg: tcell.ColorBlue,
	},
	"monokai": {
		Name:            "Monokai",
		Background:      tcell.NewRGBColor(39, 40, 34),
		Foreground:      tcell.NewRGBColor(248, 248, 242),
		Selection:       tcell.NewRGBColor(73, 72, 62),
		Hint:            tcell.NewRGBColor(144, 144, 128),
		StatusBarBg:     tcell.NewRGBColor(73, 72, 62),
		StatusBarFg:     tcell.NewRGBColor(248, 248, 242),
		StatusBarModeBg: tcell.NewRGBColor(102, 217, 239),
	},
	"nord": {
		Name:            "Nord",
		Background:      tcell.NewRGBColor(46, 52, 64),
		Foreground:      tcell.NewRGBColor(236, 239, 244),
		Selection:       tcell.NewRGBColor(67, 76, 94),
		Hint:            tcell.NewRGBColor(76, 86, 106),
		StatusBarBg:     tcell.NewRGBColor(67, 76, 94),
		StatusBarFg:     tcell.NewRGBColor(236, 239, 244),
		StatusBarModeBg: tcell.NewRGBColor(136, 192, 208),
	},
	"gruvbox": {
		Name:            "Gruvbox Dark",
		Background:      tcell.NewRGBColor(40, 40, 40),
		Foreground:      tcell.NewRGBColor(235, 219, 178),
		Selection:       tcell.NewRGBColor(60, 56, 54),
		Hint:            tcell.NewRGBColor(146, 131, 116),
		StatusBarBg:     tcell.NewRGBColor(60, 56, 54),
		StatusBarFg:     tcell.NewRGBColor(235, 219, 178),
		StatusBarModeBg: tcell.NewRGBColor(184, 187, 38),
	},
	"dracula": {
		Name:            "Dracula",
		Background:      tcell.NewRGBColor(40, 42, 54),
		Foreground:      tcell.NewRGBColor(248, 248, 242),
		Selection:       tcell.NewRGBColor(68, 71, 90),
		Hint:            tcell.NewRGBColor(98, 114, 164),
		StatusBarBg:     tcell.NewRGBColor(68, 71, 90),
		StatusBarFg:     tcell.NewRGBColor(248, 248, 242),
		StatusBarModeBg: tcell.NewRGBColor(189, 147, 249),
	},
}

func Default() *Config {
	name := "anonymous"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	return &Config{
		Name:    name,
		Server:  "localhost:9000",
		TabSize: 4,
		Theme:   "monokai",
	}
}

func (c *Config) GetTheme() *ColorScheme {
	theme, ok := Themes[c.Theme]
	if !ok {
		return Themes["monokai"]
	}
	return theme
}

func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "collab", "settings.json")
}

func Load() (*Config, error) {
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save() error {
	path := ConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
