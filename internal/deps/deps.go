package deps

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"mixtape/internal/config"
)

// Requirement defines an external binary mixtape shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// Requirements lists the binaries the pipeline needs for the given settings.
// ffprobe is optional only when every duration is decoded natively.
func Requirements(settings config.Settings) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     binaryOrDefault(settings.FFmpegBinary, "ffmpeg"),
			Description: "Mixes audio and renders the video",
		},
		{
			Name:        "FFprobe",
			Command:     binaryOrDefault(settings.FFprobeBinary, "ffprobe"),
			Description: "Reads track durations",
			Optional:    settings.DurationProbe == config.ProbeNative,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// Verify returns an error naming every required binary that is missing.
func Verify(statuses []Status) error {
	var errs []error
	for _, status := range statuses {
		if status.Available || status.Optional {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %s", status.Name, status.Detail))
	}
	return errors.Join(errs...)
}

func binaryOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
