package util

import (
	"os/exec"
)

type Dependency struct {
	Name     string
	Required bool
	Path     string
	Found    bool
}

// ToolNames lists the external programs the converter shells out to.
var ToolNames = []struct {
	Name     string
	Required bool
}{
	{"yt-dlp", true},
	{"ffmpeg", true},
	{"spleeter", false},
}

func CheckDependencies() []Dependency {
	deps := make([]Dependency, 0, len(ToolNames))
	for _, t := range ToolNames {
		d := Dependency{Name: t.Name, Required: t.Required}
		if path, err := exec.LookPath(t.Name); err == nil {
			d.Path = path
			d.Found = true
		}
		deps = append(deps, d)
	}
	return deps
}

// MissingRequired returns the names of required tools that were not found.
func MissingRequired(deps []Dependency) []string {
	var missing []string
	for _, d := range deps {
		if d.Required && !d.Found {
			missing = append(missing, d.Name)
		}
	}
	return missing
}
