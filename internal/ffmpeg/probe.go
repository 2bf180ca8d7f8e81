package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration asks ffprobe for the container duration of path, rounded to
// the millisecond.
func ProbeDuration(ctx context.Context, binary, path string) (time.Duration, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return 0, errors.New("ffprobe: empty path")
	}

	var stdout bytes.Buffer
	args := []string{"-v", "error", "-hide_banner", "-show_format", "-of", "json", "--", path}
	if err := run(ctx, binary, args, &stdout); err != nil {
		return 0, err
	}

	tool := filepath.Base(binary)
	var result probeResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return 0, &ToolError{Tool: tool, Err: fmt.Errorf("parse output: %w", err)}
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(result.Format.Duration), 64)
	if err != nil || math.IsNaN(value) || value <= 0 {
		return 0, &ToolError{Tool: tool, Err: fmt.Errorf("no duration reported for %s", path)}
	}
	return time.Duration(math.Round(value*1000)) * time.Millisecond, nil
}
